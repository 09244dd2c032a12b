package ml

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"sort"
)

// DecisionTree is a binary CART classifier stored as a flat node array.
// It predicts a class only; probability estimation requires an ensemble.
type DecisionTree struct {
	nodes    []treeNode
	maxDepth int
}

type treeNode struct {
	SplitFeature int     `json:"split_feature"`
	Threshold    float64 `json:"threshold"`
	Left         int     `json:"left"`
	Right        int     `json:"right"`
	Class        int     `json:"class"`
	Leaf         bool    `json:"leaf"`
}

func NewDecisionTree(maxDepth int) *DecisionTree {
	if maxDepth <= 0 {
		maxDepth = 5
	}
	return &DecisionTree{maxDepth: maxDepth}
}

func (dt *DecisionTree) Train(features [][]float64, labels []int) error {
	if len(features) == 0 || len(labels) == 0 {
		return errors.New("features or labels empty")
	}
	if len(features) != len(labels) {
		return errors.New("features and labels size mismatch")
	}
	dt.nodes = grow(features, labels, 0, dt.maxDepth)
	return nil
}

func (dt *DecisionTree) PredictClass(features []float64) (int, error) {
	if len(dt.nodes) == 0 {
		return 0, errors.New("model not trained")
	}
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.Leaf {
			return node.Class, nil
		}
		if node.SplitFeature < 0 || node.SplitFeature >= len(features) {
			return 0, errors.New("feature index out of range")
		}
		if features[node.SplitFeature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
		if idx < 0 || idx >= len(dt.nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
}

func (dt *DecisionTree) Save(path string) error {
	if len(dt.nodes) == 0 {
		return errors.New("model not trained")
	}
	payload, err := json.Marshal(dt.nodes)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (dt *DecisionTree) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var nodes []treeNode
	if err := json.Unmarshal(payload, &nodes); err != nil {
		return err
	}
	dt.nodes = nodes
	return nil
}

func grow(features [][]float64, labels []int, depth, maxDepth int) []treeNode {
	label := majorityLabel(labels)
	leaf := []treeNode{{SplitFeature: -1, Left: -1, Right: -1, Class: label, Leaf: true}}

	if depth >= maxDepth || isPure(labels) {
		return leaf
	}

	splitFeature, threshold, ok := findBestSplit(features, labels)
	if !ok {
		return leaf
	}

	leftX, leftY, rightX, rightY := partition(features, labels, splitFeature, threshold)
	if len(leftY) == 0 || len(rightY) == 0 {
		return leaf
	}

	leftNodes := grow(leftX, leftY, depth+1, maxDepth)
	rightNodes := grow(rightX, rightY, depth+1, maxDepth)

	rightOffset := 1 + len(leftNodes)
	nodes := make([]treeNode, 0, 1+len(leftNodes)+len(rightNodes))
	nodes = append(nodes, treeNode{
		SplitFeature: splitFeature,
		Threshold:    threshold,
		Left:         1,
		Right:        rightOffset,
		Class:        label,
	})
	// child indices inside a subtree are relative to its own root
	for _, n := range leftNodes {
		if !n.Leaf {
			n.Left++
			n.Right++
		}
		nodes = append(nodes, n)
	}
	for _, n := range rightNodes {
		if !n.Leaf {
			n.Left += rightOffset
			n.Right += rightOffset
		}
		nodes = append(nodes, n)
	}
	return nodes
}

func findBestSplit(features [][]float64, labels []int) (int, float64, bool) {
	featureCount := len(features[0])
	bestFeature := -1
	bestThreshold := 0.0
	bestImpurity := math.MaxFloat64

	for featureIdx := 0; featureIdx < featureCount; featureIdx++ {
		values := make([]float64, len(features))
		for i := range features {
			values[i] = features[i][featureIdx]
		}
		threshold := median(values)
		leftLabels, rightLabels := partitionLabels(features, labels, featureIdx, threshold)
		if len(leftLabels) == 0 || len(rightLabels) == 0 {
			continue
		}
		impurity := weightedGini(leftLabels, rightLabels)
		if impurity < bestImpurity {
			bestImpurity = impurity
			bestFeature = featureIdx
			bestThreshold = threshold
		}
	}
	if bestFeature == -1 {
		return -1, 0, false
	}
	return bestFeature, bestThreshold, true
}

func partition(features [][]float64, labels []int, featureIdx int, threshold float64) ([][]float64, []int, [][]float64, []int) {
	var leftX, rightX [][]float64
	var leftY, rightY []int
	for i, feature := range features {
		if feature[featureIdx] <= threshold {
			leftX = append(leftX, feature)
			leftY = append(leftY, labels[i])
		} else {
			rightX = append(rightX, feature)
			rightY = append(rightY, labels[i])
		}
	}
	return leftX, leftY, rightX, rightY
}

func partitionLabels(features [][]float64, labels []int, featureIdx int, threshold float64) ([]int, []int) {
	var left, right []int
	for i, feature := range features {
		if feature[featureIdx] <= threshold {
			left = append(left, labels[i])
		} else {
			right = append(right, labels[i])
		}
	}
	return left, right
}

func weightedGini(left, right []int) float64 {
	leftWeight := float64(len(left))
	rightWeight := float64(len(right))
	total := leftWeight + rightWeight
	return (leftWeight/total)*gini(left) + (rightWeight/total)*gini(right)
}

func gini(labels []int) float64 {
	if len(labels) == 0 {
		return 0
	}
	counts := make(map[int]int)
	for _, label := range labels {
		counts[label]++
	}
	impurity := 1.0
	for _, count := range counts {
		prob := float64(count) / float64(len(labels))
		impurity -= prob * prob
	}
	return impurity
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func majorityLabel(labels []int) int {
	counts := make(map[int]int)
	best := 0
	bestCount := -1
	for _, label := range labels {
		counts[label]++
		if counts[label] > bestCount {
			best = label
			bestCount = counts[label]
		}
	}
	return best
}

func isPure(labels []int) bool {
	for i := 1; i < len(labels); i++ {
		if labels[i] != labels[0] {
			return false
		}
	}
	return true
}
