// Command train fits a random forest on the Pima diabetes dataset and
// writes the serialized model for the inference server to load.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"diapredict/ml"
	"diapredict/pipeline"
)

func main() {
	csvPath := flag.String("csv", "diabetes.csv", "training dataset path")
	modelPath := flag.String("out", "./models/forest.json", "model output path")
	numTrees := flag.Int("trees", 25, "number of trees")
	maxDepth := flag.Int("max_depth", 6, "max tree depth")
	testRatio := flag.Float64("test_ratio", 0.2, "test ratio")
	flag.Parse()

	features, labels, err := buildTrainingData(*csvPath)
	if err != nil {
		log.Fatalf("failed to build training data: %v", err)
	}
	log.Printf("loaded %d labeled rows from %s", len(features), *csvPath)

	trainX, trainY, testX, testY := splitDataset(features, labels, *testRatio)

	model := ml.NewRandomForest(*numTrees, *maxDepth)
	if err := model.Train(trainX, trainY); err != nil {
		log.Fatalf("failed to train model: %v", err)
	}

	accuracy, precision, recall := evaluateModel(model, testX, testY)
	log.Printf("accuracy=%.2f precision=%.2f recall=%.2f", accuracy, precision, recall)

	if err := os.MkdirAll(filepath.Dir(*modelPath), 0o755); err != nil {
		log.Fatalf("failed to create model dir: %v", err)
	}
	if err := model.Save(*modelPath); err != nil {
		log.Fatalf("failed to save model: %v", err)
	}

	fmt.Printf("model saved to %s\n", *modelPath)
}

func buildTrainingData(csvPath string) ([][]float64, []int, error) {
	records, err := pipeline.ReadSampleCSV(csvPath, 0)
	if err != nil {
		return nil, nil, err
	}

	features := make([][]float64, 0, len(records))
	labels := make([]int, 0, len(records))
	for _, rec := range records {
		if rec.Outcome == nil {
			continue
		}
		features = append(features, rec.Vector())
		labels = append(labels, *rec.Outcome)
	}
	if len(features) == 0 {
		return nil, nil, fmt.Errorf("no labeled rows in %s", csvPath)
	}
	return features, labels, nil
}

func splitDataset(features [][]float64, labels []int, testRatio float64) (trainX [][]float64, trainY []int, testX [][]float64, testY []int) {
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = 0.2
	}

	split := int(float64(len(features)) * (1 - testRatio))
	for i := range features {
		if i < split {
			trainX = append(trainX, features[i])
			trainY = append(trainY, labels[i])
		} else {
			testX = append(testX, features[i])
			testY = append(testY, labels[i])
		}
	}
	return trainX, trainY, testX, testY
}

func evaluateModel(model *ml.RandomForest, testX [][]float64, testY []int) (accuracy, precision, recall float64) {
	if len(testX) == 0 {
		return 0, 0, 0
	}

	var correct, truePositive, predictedPositive, actualPositive int
	for i, feature := range testX {
		label, err := model.PredictClass(feature)
		if err != nil {
			continue
		}
		if label == testY[i] {
			correct++
		}
		if label == 1 {
			predictedPositive++
		}
		if testY[i] == 1 {
			actualPositive++
			if label == 1 {
				truePositive++
			}
		}
	}

	accuracy = float64(correct) / float64(len(testX))
	if predictedPositive > 0 {
		precision = float64(truePositive) / float64(predictedPositive)
	}
	if actualPositive > 0 {
		recall = float64(truePositive) / float64(actualPositive)
	}
	return accuracy, precision, recall
}
