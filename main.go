package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v2"

	"diapredict/db"
	dhttp "diapredict/http"
	"diapredict/inference"
	"diapredict/logging"
	"diapredict/ml"
	"diapredict/monitoring"
)

type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Http struct {
		Port    int           `yaml:"port"`
		Timeout time.Duration `yaml:"timeout"`
		WebDir  string        `yaml:"web_dir"`
	} `yaml:"http"`
	Model struct {
		Type      string `yaml:"type"`
		Path      string `yaml:"path"`
		HotReload bool   `yaml:"hot_reload"`
	} `yaml:"model"`
	Data struct {
		SampleCSV  string `yaml:"sample_csv"`
		SampleRows int    `yaml:"sample_rows"`
	} `yaml:"data"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		File   string `yaml:"file"`
	} `yaml:"log"`
}

func main() {
	// 1. Load config
	config, err := loadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(config.Log.Level, config.Log.Format, config.Log.File)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// 2. Initialize record store
	store, err := db.Open(config.Database.Path)
	if err != nil {
		logger.Fatalw("Failed to open record store", "path", config.Database.Path, "error", err)
	}
	defer store.Close()
	logger.Infow("Record store ready", "path", config.Database.Path)

	// 3. Load the trained classifier
	model, err := ml.LoadModel(config.Model.Type, config.Model.Path)
	if err != nil {
		logger.Fatalw("Failed to load model", "type", config.Model.Type, "path", config.Model.Path, "error", err)
	}
	engine := inference.New(model)
	logger.Infow("Model loaded",
		"type", config.Model.Type,
		"path", config.Model.Path,
		"probabilities", engine.HasProbabilities())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if config.Model.HotReload {
		go func() {
			err := ml.WatchModel(ctx, config.Model.Type, config.Model.Path, logger, engine.Swap)
			if err != nil && err != context.Canceled {
				logger.Warnw("Model watcher stopped", "error", err)
			}
		}()
	}

	feed := monitoring.NewHub(logger)
	go feed.Run(ctx)

	// 4. Start HTTP server
	api := dhttp.NewAPI(store, engine, feed, logger, dhttp.APIConfig{
		WebDir:     config.Http.WebDir,
		SampleCSV:  config.Data.SampleCSV,
		SampleRows: config.Data.SampleRows,
	})

	serverConfig := dhttp.DefaultServerConfig()
	if config.Http.Port != 0 {
		serverConfig.Port = config.Http.Port
	}
	if config.Http.Timeout != 0 {
		serverConfig.Timeout = config.Http.Timeout
	}

	server := dhttp.NewServer(serverConfig, api, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("HTTP server failed", "error", err)
		}
	}()

	// 5. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down...")
	cancel()

	if err := server.Stop(); err != nil {
		logger.Warnw("Server forced to shutdown", "error", err)
	}

	logger.Info("Exiting")
}

func loadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
