package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
)

// RandomForest is a bagged ensemble of decision trees over a strictly
// binary label set {0,1}. The positive-class probability is the fraction
// of trees voting for class 1.
type RandomForest struct {
	trees    []*DecisionTree
	numTrees int
	maxDepth int
	seed     int64
}

type forestFile struct {
	Trees [][]treeNode `json:"trees"`
}

func NewRandomForest(numTrees, maxDepth int) *RandomForest {
	if numTrees <= 0 {
		numTrees = 25
	}
	if maxDepth <= 0 {
		maxDepth = 5
	}
	return &RandomForest{numTrees: numTrees, maxDepth: maxDepth, seed: 1}
}

func (rf *RandomForest) Train(features [][]float64, labels []int) error {
	if len(features) == 0 || len(labels) == 0 {
		return errors.New("features or labels empty")
	}
	if len(features) != len(labels) {
		return errors.New("features and labels size mismatch")
	}
	for _, label := range labels {
		if label != 0 && label != 1 {
			return fmt.Errorf("label %d outside binary range", label)
		}
	}

	rng := rand.New(rand.NewSource(rf.seed))
	rf.trees = make([]*DecisionTree, 0, rf.numTrees)
	for i := 0; i < rf.numTrees; i++ {
		sampleX, sampleY := bootstrap(features, labels, rng)
		tree := NewDecisionTree(rf.maxDepth)
		if err := tree.Train(sampleX, sampleY); err != nil {
			return err
		}
		rf.trees = append(rf.trees, tree)
	}
	return nil
}

func (rf *RandomForest) PredictClass(features []float64) (int, error) {
	proba, err := rf.PredictProba(features)
	if err != nil {
		return 0, err
	}
	if proba[1] >= 0.5 {
		return 1, nil
	}
	return 0, nil
}

func (rf *RandomForest) PredictProba(features []float64) ([]float64, error) {
	if len(rf.trees) == 0 {
		return nil, errors.New("model not trained")
	}
	positive := 0
	for _, tree := range rf.trees {
		label, err := tree.PredictClass(features)
		if err != nil {
			return nil, err
		}
		if label != 0 && label != 1 {
			return nil, fmt.Errorf("tree voted for class %d outside binary range", label)
		}
		if label == 1 {
			positive++
		}
	}
	p1 := float64(positive) / float64(len(rf.trees))
	return []float64{1 - p1, p1}, nil
}

func (rf *RandomForest) Save(path string) error {
	if len(rf.trees) == 0 {
		return errors.New("model not trained")
	}
	file := forestFile{Trees: make([][]treeNode, len(rf.trees))}
	for i, tree := range rf.trees {
		file.Trees[i] = tree.nodes
	}
	payload, err := json.Marshal(file)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (rf *RandomForest) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file forestFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return err
	}
	if len(file.Trees) == 0 {
		return errors.New("model file contains no trees")
	}
	rf.trees = make([]*DecisionTree, len(file.Trees))
	for i, nodes := range file.Trees {
		rf.trees[i] = &DecisionTree{nodes: nodes}
	}
	rf.numTrees = len(rf.trees)
	return nil
}

func bootstrap(features [][]float64, labels []int, rng *rand.Rand) ([][]float64, []int) {
	n := len(features)
	sampleX := make([][]float64, n)
	sampleY := make([]int, n)
	for i := 0; i < n; i++ {
		j := rng.Intn(n)
		sampleX[i] = features[j]
		sampleY[i] = labels[j]
	}
	return sampleX, sampleY
}
