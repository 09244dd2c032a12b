package ml

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchModel reloads the model file whenever it is rewritten and hands the
// fresh classifier to onReload. The parent directory is watched so that
// atomic rename-into-place updates are seen as well. Blocks until ctx is
// cancelled.
func WatchModel(ctx context.Context, modelType, path string, log *zap.SugaredLogger, onReload func(Classifier)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return err
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			// writers may still be flushing; give them a moment
			time.Sleep(100 * time.Millisecond)
			model, err := LoadModel(modelType, path)
			if err != nil {
				log.Warnw("model reload failed, keeping current model", "path", path, "error", err)
				continue
			}
			log.Infow("model reloaded", "path", path)
			onReload(model)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnw("model watcher error", "error", err)
		}
	}
}
