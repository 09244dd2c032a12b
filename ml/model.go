package ml

// Classifier predicts a class label for a feature vector.
type Classifier interface {
	PredictClass(features []float64) (int, error)
}

// ProbabilityClassifier additionally estimates per-class probabilities.
// The returned row is indexed by class, so row[1] is the positive-class
// probability. Whether a loaded model supports this is resolved once at
// load time, not per request.
type ProbabilityClassifier interface {
	Classifier
	PredictProba(features []float64) ([]float64, error)
}
