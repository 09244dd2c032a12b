package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ValidationError reports missing or malformed input fields.
type ValidationError struct {
	Message string
	Missing []string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func missingFieldsError(missing []string) *ValidationError {
	return &ValidationError{
		Message: fmt.Sprintf("Missing required fields: %v", missing),
		Missing: missing,
	}
}

// VectorFromMap reads named input in schema order and returns a feature
// vector of length NumFeatures. In strict mode every schema field must be
// present; otherwise absent fields default to zero. Non-numeric values are
// always an error. Integer fields are truncated toward zero.
func VectorFromMap(data map[string]interface{}, strict bool) ([]float64, error) {
	fields := Fields()
	vector := make([]float64, 0, len(fields))
	var missing []string

	for _, field := range fields {
		raw, ok := data[field.Name]
		if !ok {
			if strict {
				missing = append(missing, field.Name)
			}
			vector = append(vector, 0)
			continue
		}
		value, err := coerceNumber(raw)
		if err != nil {
			return nil, &ValidationError{Message: fmt.Sprintf("invalid value for %s: %v", field.Name, raw)}
		}
		if field.Type == IntegerField {
			value = math.Trunc(value)
		}
		vector = append(vector, value)
	}

	if len(missing) > 0 {
		return nil, missingFieldsError(missing)
	}
	return vector, nil
}

// VectorFromValues validates a positional sequence already in schema order,
// as read from a stored record.
func VectorFromValues(values []float64) ([]float64, error) {
	if len(values) != NumFeatures {
		return nil, &ValidationError{Message: fmt.Sprintf("expected %d features, got %d", NumFeatures, len(values))}
	}
	vector := make([]float64, NumFeatures)
	copy(vector, values)
	return vector, nil
}

// CoercedInput maps a feature vector back to named values with schema
// types applied, for echoing in responses.
func CoercedInput(vector []float64) map[string]interface{} {
	data := make(map[string]interface{}, NumFeatures)
	for i, field := range Fields() {
		if i >= len(vector) {
			break
		}
		if field.Type == IntegerField {
			data[field.Name] = int(vector[i])
		} else {
			data[field.Name] = vector[i]
		}
	}
	return data
}

func coerceNumber(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, err
		}
		return f, nil
	case json.Number:
		return v.Float64()
	default:
		return 0, errors.New("not a number")
	}
}
