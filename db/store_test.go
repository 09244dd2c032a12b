package db

import (
	"errors"
	"path/filepath"
	"testing"

	"diapredict/ml"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRecords() []Record {
	one := 1
	zero := 0
	return []Record{
		{Pregnancies: 6, Glucose: 148, BloodPressure: 72, SkinThickness: 35, Insulin: 0, BMI: 33.6, DiabetesPedigree: 0.627, Age: 50, Outcome: &one},
		{Pregnancies: 1, Glucose: 85, BloodPressure: 66, SkinThickness: 29, Insulin: 0, BMI: 26.6, DiabetesPedigree: 0.351, Age: 31, Outcome: &zero},
		{Pregnancies: 8, Glucose: 183, BloodPressure: 64, SkinThickness: 0, Insulin: 0, BMI: 23.3, DiabetesPedigree: 0.672, Age: 32},
	}
}

func TestReplaceAllAndList(t *testing.T) {
	store := openTestStore(t)

	n, err := store.ReplaceAll(sampleRecords())
	if err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rows inserted, got %d", n)
	}

	records, err := store.ListRecords()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for _, rec := range records {
		if rec.ID == 0 {
			t.Fatal("expected server-assigned id")
		}
		if rec.CreatedAt.IsZero() {
			t.Fatal("expected server-assigned timestamp")
		}
	}
	// same created_at for the whole batch, so ties break newest-id first
	if records[0].ID < records[1].ID {
		t.Fatalf("expected newest first, got ids %d, %d", records[0].ID, records[1].ID)
	}
}

func TestGetRecordRoundTrip(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.ReplaceAll(sampleRecords()); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	records, err := store.ListRecords()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	for _, want := range records {
		got, err := store.GetRecord(want.ID)
		if err != nil {
			t.Fatalf("get %d failed: %v", want.ID, err)
		}
		if got.Glucose != want.Glucose || got.BMI != want.BMI || got.Age != want.Age {
			t.Fatalf("record %d mismatch: got %+v want %+v", want.ID, got, want)
		}
	}

	// cached path returns the same values
	again, err := store.GetRecord(records[0].ID)
	if err != nil {
		t.Fatalf("cached get failed: %v", err)
	}
	if again.Glucose != records[0].Glucose {
		t.Fatalf("cached record mismatch: %+v", again)
	}
}

func TestGetRecordNotFound(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.ReplaceAll(sampleRecords()); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	records, _ := store.ListRecords()
	maxID := int64(0)
	for _, rec := range records {
		if rec.ID > maxID {
			maxID = rec.ID
		}
	}

	_, err := store.GetRecord(maxID + 1)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNullableOutcome(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.ReplaceAll(sampleRecords()); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	records, err := store.ListRecords()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	var withOutcome, withoutOutcome int
	for _, rec := range records {
		if rec.Outcome != nil {
			withOutcome++
		} else {
			withoutOutcome++
		}
	}
	if withOutcome != 2 || withoutOutcome != 1 {
		t.Fatalf("expected 2 labeled and 1 unlabeled, got %d/%d", withOutcome, withoutOutcome)
	}
}

func TestVectorMatchesSchemaOrder(t *testing.T) {
	// every field distinct so any ordering slip is caught
	rec := Record{
		Pregnancies: 1, Glucose: 2, BloodPressure: 3, SkinThickness: 4,
		Insulin: 5, BMI: 6.5, DiabetesPedigree: 7.5, Age: 8,
	}
	byName := map[string]interface{}{
		"pregnancies": 1, "glucose": 2, "blood_pressure": 3, "skin_thickness": 4,
		"insulin": 5, "bmi": 6.5, "diabetes_pedigree": 7.5, "age": 8,
	}

	fromRecord := rec.Vector()
	fromMap, err := ml.VectorFromMap(byName, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fromRecord) != ml.NumFeatures {
		t.Fatalf("expected %d values, got %d", ml.NumFeatures, len(fromRecord))
	}
	for i := range fromMap {
		if fromRecord[i] != fromMap[i] {
			t.Fatalf("position %d diverges: record=%v schema=%v", i, fromRecord[i], fromMap[i])
		}
	}
}

func TestReplaceAllClearsPrevious(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.ReplaceAll(sampleRecords()); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	first, _ := store.ListRecords()

	if _, err := store.ReplaceAll(sampleRecords()[:1]); err != nil {
		t.Fatalf("second replace failed: %v", err)
	}
	second, err := store.ListRecords()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("expected 1 record after reload, got %d", len(second))
	}
	// AUTOINCREMENT never reuses ids from the cleared batch
	if second[0].ID <= first[0].ID {
		t.Fatalf("expected fresh id after reload, got %d", second[0].ID)
	}

	// the old ids are gone from the store and its cache
	if _, err := store.GetRecord(first[len(first)-1].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for cleared id, got %v", err)
	}
}
