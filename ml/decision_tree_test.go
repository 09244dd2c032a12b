package ml

import (
	"path/filepath"
	"testing"
)

func TestDecisionTreeTrainPredict(t *testing.T) {
	features := [][]float64{
		{0.1, 0.2},
		{0.2, 0.1},
		{0.9, 0.8},
		{0.8, 0.9},
	}
	labels := []int{0, 0, 1, 1}

	model := NewDecisionTree(3)
	if err := model.Train(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	label, err := model.PredictClass([]float64{0.15, 0.15})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 0 {
		t.Fatalf("expected label 0, got %d", label)
	}
	label, err = model.PredictClass([]float64{0.85, 0.85})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 1 {
		t.Fatalf("expected label 1, got %d", label)
	}
}

func TestDecisionTreeDeepSplits(t *testing.T) {
	// XOR-like layout needs more than one split level
	features := [][]float64{
		{0.1, 0.1}, {0.2, 0.2},
		{0.1, 0.9}, {0.2, 0.8},
		{0.9, 0.1}, {0.8, 0.2},
		{0.9, 0.9}, {0.8, 0.8},
	}
	labels := []int{0, 0, 1, 1, 1, 1, 0, 0}

	model := NewDecisionTree(4)
	if err := model.Train(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, f := range features {
		label, err := model.PredictClass(f)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if label != labels[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, labels[i], label)
		}
	}
}

func TestDecisionTreeSaveLoad(t *testing.T) {
	features := [][]float64{{0.1, 0.2}, {0.9, 0.8}}
	labels := []int{0, 1}

	model := NewDecisionTree(2)
	if err := model.Train(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "tree.json")
	if err := model.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded := &DecisionTree{}
	if err := loaded.Load(path); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	label, err := loaded.PredictClass([]float64{0.9, 0.8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 1 {
		t.Fatalf("expected label 1 after reload, got %d", label)
	}
}

func TestDecisionTreeErrors(t *testing.T) {
	model := NewDecisionTree(2)
	if _, err := model.PredictClass([]float64{0.1}); err == nil {
		t.Fatal("expected error for untrained model")
	}
	if err := model.Train(nil, nil); err == nil {
		t.Fatal("expected error for empty dataset")
	}
	if err := model.Train([][]float64{{1}}, []int{0, 1}); err == nil {
		t.Fatal("expected error for size mismatch")
	}
}
