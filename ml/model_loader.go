package ml

import (
	"errors"
)

// LoadModel loads a serialized classifier from disk. Whether the result
// supports probability estimation depends on the model type: random
// forests do, single decision trees do not.
func LoadModel(modelType, path string) (Classifier, error) {
	switch modelType {
	case "random_forest":
		model := &RandomForest{}
		if err := model.Load(path); err != nil {
			return nil, err
		}
		return model, nil
	case "decision_tree":
		model := &DecisionTree{}
		if err := model.Load(path); err != nil {
			return nil, err
		}
		return model, nil
	default:
		return nil, errors.New("unsupported model type")
	}
}
