package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"diapredict/db"
	"diapredict/inference"
	"diapredict/ml"
	"diapredict/monitoring"
	"diapredict/pipeline"
)

// Entry-point tags reported in prediction results.
const (
	methodManual = "Manual Input"
	methodAPI    = "API"
	methodSQL    = "SQL Query"
)

// APIConfig carries the handler-level settings.
type APIConfig struct {
	WebDir     string
	SampleCSV  string
	SampleRows int
}

// API 持有所有处理器依赖（存储、推理引擎、推送中心、日志）
type API struct {
	store  *db.Store
	engine *inference.Engine
	feed   *monitoring.Hub
	log    *zap.SugaredLogger
	config APIConfig
}

func NewAPI(store *db.Store, engine *inference.Engine, feed *monitoring.Hub, log *zap.SugaredLogger, config APIConfig) *API {
	if config.SampleRows <= 0 {
		config.SampleRows = 10
	}
	return &API{store: store, engine: engine, feed: feed, log: log, config: config}
}

// Register 注册所有路由
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", a.handleIndex)
	mux.HandleFunc("POST /manual_inference", a.handleManualInference)
	mux.HandleFunc("POST /sql_inference", a.handleSQLInference)
	mux.HandleFunc("POST /api/inference", a.handleAPIInference)
	mux.HandleFunc("POST /load_sample_data", a.handleLoadSampleData)
	mux.HandleFunc("GET /get_records", a.handleGetRecords)
	if a.feed != nil {
		mux.HandleFunc("GET /ws/predictions", a.feed.ServeWS)
	}
}

func (a *API) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(a.config.WebDir, "index.html"))
}

// handleManualInference reads the 8 form fields; absent fields default to
// zero, so every field is optional from the client's perspective.
func (a *API) handleManualInference(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	data := make(map[string]interface{})
	for _, name := range ml.FieldNames() {
		if v := r.PostForm.Get(name); v != "" {
			data[name] = v
		}
	}

	vector, err := ml.VectorFromMap(data, false)
	if err != nil {
		a.respondInferenceError(w, err)
		return
	}

	result, err := a.engine.Predict(vector)
	if err != nil {
		a.respondInferenceError(w, err)
		return
	}
	result.InputData = ml.CoercedInput(vector)
	result.Method = methodManual

	a.publish(result)
	a.respondResult(w, result)
}

// handleAPIInference requires a JSON body naming all 8 schema fields; no
// defaulting is applied on this path.
func (a *API) handleAPIInference(w http.ResponseWriter, r *http.Request) {
	var data map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil && err != io.EOF {
		a.respondError(w, http.StatusBadRequest, "JSON data is required")
		return
	}
	if len(data) == 0 {
		a.respondError(w, http.StatusBadRequest, "JSON data is required")
		return
	}

	vector, err := ml.VectorFromMap(data, true)
	if err != nil {
		a.respondInferenceError(w, err)
		return
	}

	result, err := a.engine.Predict(vector)
	if err != nil {
		a.respondInferenceError(w, err)
		return
	}
	result.InputData = data
	result.Method = methodAPI

	a.publish(result)
	a.respondResult(w, result)
}

// handleSQLInference resolves a stored record by id and runs inference on
// its feature columns.
func (a *API) handleSQLInference(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rawID := r.PostForm.Get("record_id")
	if rawID == "" {
		a.respondError(w, http.StatusBadRequest, "Record ID is required")
		return
	}
	recordID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "Record ID must be an integer")
		return
	}

	record, err := a.store.GetRecord(recordID)
	if err != nil {
		a.respondInferenceError(w, err)
		return
	}

	vector, err := ml.VectorFromValues(record.Vector())
	if err != nil {
		a.respondInferenceError(w, err)
		return
	}

	result, err := a.engine.Predict(vector)
	if err != nil {
		a.respondInferenceError(w, err)
		return
	}
	result.InputData = ml.CoercedInput(vector)
	result.Method = methodSQL
	result.RecordID = recordID

	a.publish(result)
	a.respondResult(w, result)
}

func (a *API) handleLoadSampleData(w http.ResponseWriter, r *http.Request) {
	records, err := pipeline.ReadSampleCSV(a.config.SampleCSV, a.config.SampleRows)
	if err != nil {
		a.log.Warnw("sample data read failed", "path", a.config.SampleCSV, "error", err)
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	n, err := a.store.ReplaceAll(records)
	if err != nil {
		a.log.Errorw("sample data load failed", "error", err)
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	a.log.Infow("sample data loaded", "rows", n)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Sample data loaded successfully",
	})
}

func (a *API) handleGetRecords(w http.ResponseWriter, r *http.Request) {
	records, err := a.store.ListRecords()
	if err != nil {
		a.log.Errorw("record listing failed", "error", err)
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"records": records,
	})
}

// respondInferenceError maps pipeline errors onto HTTP statuses:
// validation failures and model errors are 400, unknown records 404.
func (a *API) respondInferenceError(w http.ResponseWriter, err error) {
	var verr *ml.ValidationError
	switch {
	case errors.Is(err, db.ErrNotFound):
		a.respondError(w, http.StatusNotFound, "Record not found")
	case errors.As(err, &verr):
		a.respondError(w, http.StatusBadRequest, verr.Message)
	default:
		a.log.Warnw("inference failed", "error", err)
		a.respondError(w, http.StatusBadRequest, err.Error())
	}
}

func (a *API) respondResult(w http.ResponseWriter, result inference.Result) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"result":  result,
	})
}

func (a *API) respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

func (a *API) publish(result inference.Result) {
	if a.feed == nil {
		return
	}
	a.feed.Publish(monitoring.PredictionEvent{
		Method:      result.Method,
		Prediction:  result.Prediction,
		Probability: result.Probability,
		RiskLevel:   result.RiskLevel,
		RecordID:    result.RecordID,
		Timestamp:   time.Now().UTC(),
	})
}

// respondJSON 统一JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
