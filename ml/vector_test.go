package ml

import (
	"errors"
	"testing"
)

func TestVectorFromMapOrderMatchesSchema(t *testing.T) {
	data := map[string]interface{}{
		"pregnancies":       2.0,
		"glucose":           130.0,
		"blood_pressure":    70.0,
		"skin_thickness":    20.0,
		"insulin":           80.0,
		"bmi":               28.5,
		"diabetes_pedigree": 0.5,
		"age":               35.0,
	}

	vector, err := VectorFromMap(data, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{2, 130, 70, 20, 80, 28.5, 0.5, 35}
	if len(vector) != NumFeatures {
		t.Fatalf("expected %d features, got %d", NumFeatures, len(vector))
	}
	for i := range want {
		if vector[i] != want[i] {
			t.Fatalf("position %d: expected %v, got %v", i, want[i], vector[i])
		}
	}
}

func TestVectorFromMapStrictMissingFields(t *testing.T) {
	data := map[string]interface{}{
		"pregnancies": 1.0,
		"glucose":     120.0,
	}

	_, err := VectorFromMap(data, true)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Missing) != 6 {
		t.Fatalf("expected 6 missing fields, got %d: %v", len(verr.Missing), verr.Missing)
	}
	if verr.Missing[0] != "blood_pressure" {
		t.Fatalf("expected missing fields in schema order, got %v", verr.Missing)
	}
}

func TestVectorFromMapLenientDefaultsToZero(t *testing.T) {
	vector, err := VectorFromMap(map[string]interface{}{}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range vector {
		if v != 0 {
			t.Fatalf("position %d: expected 0, got %v", i, v)
		}
	}
}

func TestVectorFromMapStringCoercion(t *testing.T) {
	data := map[string]interface{}{
		"pregnancies":       "2.9",
		"glucose":           "130",
		"blood_pressure":    "70",
		"skin_thickness":    "20",
		"insulin":           "80",
		"bmi":               "28.5",
		"diabetes_pedigree": "0.5",
		"age":               "35",
	}

	vector, err := VectorFromMap(data, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// integer fields truncate, float fields keep the fraction
	if vector[0] != 2 {
		t.Fatalf("expected pregnancies truncated to 2, got %v", vector[0])
	}
	if vector[5] != 28.5 {
		t.Fatalf("expected bmi 28.5, got %v", vector[5])
	}
}

func TestVectorFromMapRejectsNonNumeric(t *testing.T) {
	data := map[string]interface{}{"glucose": "abc"}
	_, err := VectorFromMap(data, false)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestVectorFromValuesLength(t *testing.T) {
	if _, err := VectorFromValues([]float64{1, 2, 3}); err == nil {
		t.Fatal("expected error for short sequence")
	}
	vector, err := VectorFromValues([]float64{1, 2, 3, 4, 5, 6, 7, 8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vector) != NumFeatures {
		t.Fatalf("expected %d values, got %d", NumFeatures, len(vector))
	}
}

func TestCoercedInputTypes(t *testing.T) {
	data := CoercedInput([]float64{2, 130, 70, 20, 80, 28.5, 0.5, 35})
	if v, ok := data["glucose"].(int); !ok || v != 130 {
		t.Fatalf("expected glucose as int 130, got %v", data["glucose"])
	}
	if v, ok := data["bmi"].(float64); !ok || v != 28.5 {
		t.Fatalf("expected bmi as float 28.5, got %v", data["bmi"])
	}
}
