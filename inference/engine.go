// Package inference wraps a loaded classifier and shapes prediction
// results for the request handlers.
package inference

import (
	"fmt"
	"sync/atomic"

	"diapredict/ml"
)

// Result is the core prediction payload. InputData, Method and RecordID
// are filled in by the entry point that produced it.
type Result struct {
	Prediction  int                    `json:"prediction"`
	Probability float64                `json:"probability"`
	RiskLevel   string                 `json:"risk_level"`
	InputData   map[string]interface{} `json:"input_data,omitempty"`
	Method      string                 `json:"method,omitempty"`
	RecordID    int64                  `json:"record_id,omitempty"`
}

// slot binds a classifier to its probability capability, resolved once
// when the model is installed rather than per request.
type slot struct {
	clf   ml.Classifier
	proba ml.ProbabilityClassifier // nil when the model is class-only
}

// Engine runs the classifier on canonical feature vectors. The active
// model is swappable at runtime; reads are lock-free.
type Engine struct {
	current atomic.Pointer[slot]
}

func New(clf ml.Classifier) *Engine {
	e := &Engine{}
	e.Swap(clf)
	return e
}

// Swap installs a new classifier, re-resolving probability support.
func (e *Engine) Swap(clf ml.Classifier) {
	s := &slot{clf: clf}
	if p, ok := clf.(ml.ProbabilityClassifier); ok {
		s.proba = p
	}
	e.current.Store(s)
}

// HasProbabilities reports whether the active model estimates class
// probabilities.
func (e *Engine) HasProbabilities() bool {
	return e.current.Load().proba != nil
}

// Predict runs the classifier on a schema-ordered vector. When the model
// cannot estimate probabilities the predicted class doubles as the
// probability value, a documented degraded-precision fallback.
func (e *Engine) Predict(vector []float64) (Result, error) {
	if len(vector) != ml.NumFeatures {
		return Result{}, &ml.ValidationError{Message: fmt.Sprintf("expected %d features, got %d", ml.NumFeatures, len(vector))}
	}

	s := e.current.Load()
	class, err := s.clf.PredictClass(vector)
	if err != nil {
		return Result{}, fmt.Errorf("classifier: %w", err)
	}
	if class != 0 && class != 1 {
		return Result{}, fmt.Errorf("classifier returned class %d outside binary range", class)
	}

	probability := float64(class)
	if s.proba != nil {
		row, err := s.proba.PredictProba(vector)
		if err != nil {
			return Result{}, fmt.Errorf("classifier: %w", err)
		}
		if len(row) < 2 {
			return Result{}, fmt.Errorf("classifier returned %d-class probability row", len(row))
		}
		probability = row[1]
	}

	riskLevel := "Low"
	if class == 1 {
		riskLevel = "High"
	}

	return Result{
		Prediction:  class,
		Probability: probability,
		RiskLevel:   riskLevel,
	}, nil
}
