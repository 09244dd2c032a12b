// Package db persists historical feature records in SQLite.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/mattn/go-sqlite3"

	"diapredict/ml"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("record not found")

const cacheSize = 256

// Record is a persisted feature row. The store owns id and created_at;
// outcome is nil unless a label was supplied at load time.
type Record struct {
	ID               int64     `json:"id"`
	Pregnancies      int       `json:"pregnancies"`
	Glucose          int       `json:"glucose"`
	BloodPressure    int       `json:"blood_pressure"`
	SkinThickness    int       `json:"skin_thickness"`
	Insulin          int       `json:"insulin"`
	BMI              float64   `json:"bmi"`
	DiabetesPedigree float64   `json:"diabetes_pedigree"`
	Age              int       `json:"age"`
	Outcome          *int      `json:"outcome"`
	CreatedAt        time.Time `json:"created_at"`
}

// Vector returns the feature values as a positional sequence in schema
// order. Keep the field order here in lockstep with ml.Fields; the store
// tests cross-check the two.
func (r *Record) Vector() []float64 {
	return []float64{
		float64(r.Pregnancies),
		float64(r.Glucose),
		float64(r.BloodPressure),
		float64(r.SkinThickness),
		float64(r.Insulin),
		r.BMI,
		r.DiabetesPedigree,
		float64(r.Age),
	}
}

// Store wraps the SQLite handle and a read cache for by-id lookups.
// Records are never updated in place, so cached entries only go stale on
// a bulk reload, which purges the cache.
type Store struct {
	db    *sql.DB
	cache *lru.Cache[int64, *Record]
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	database, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	ddl := `
    CREATE TABLE IF NOT EXISTS diabetes_records (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        pregnancies INTEGER NOT NULL,
        glucose INTEGER NOT NULL,
        blood_pressure INTEGER NOT NULL,
        skin_thickness INTEGER NOT NULL,
        insulin INTEGER NOT NULL,
        bmi REAL NOT NULL,
        diabetes_pedigree REAL NOT NULL,
        age INTEGER NOT NULL,
        outcome INTEGER DEFAULT NULL,
        created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
    );`
	if _, err := database.Exec(ddl); err != nil {
		database.Close()
		return nil, err
	}

	cache, err := lru.New[int64, *Record](cacheSize)
	if err != nil {
		database.Close()
		return nil, err
	}

	return &Store{db: database, cache: cache}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// featureColumns derives the column list from the feature schema so the
// row-reader and the schema cannot silently diverge.
func featureColumns() string {
	return strings.Join(ml.FieldNames(), ", ")
}

// GetRecord looks up one record by id.
func (s *Store) GetRecord(id int64) (*Record, error) {
	if rec, ok := s.cache.Get(id); ok {
		return rec, nil
	}

	query := fmt.Sprintf(`
        SELECT id, %s, outcome, created_at
        FROM diabetes_records
        WHERE id = ?`, featureColumns())

	rec, err := scanRecord(s.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.cache.Add(id, rec)
	return rec, nil
}

// ListRecords returns all records, newest first.
func (s *Store) ListRecords() ([]Record, error) {
	query := fmt.Sprintf(`
        SELECT id, %s, outcome, created_at
        FROM diabetes_records
        ORDER BY created_at DESC, id DESC`, featureColumns())

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// ReplaceAll clears the table and inserts the given rows in one
// transaction. Ids and timestamps are assigned here, never by callers.
// Returns the number of rows inserted.
func (s *Store) ReplaceAll(records []Record) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(`DELETE FROM diabetes_records`); err != nil {
		tx.Rollback()
		return 0, err
	}

	stmt, err := tx.Prepare(fmt.Sprintf(`
        INSERT INTO diabetes_records (%s, outcome, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, featureColumns()))
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, rec := range records {
		var outcome interface{}
		if rec.Outcome != nil {
			outcome = *rec.Outcome
		}
		_, err := stmt.Exec(
			rec.Pregnancies, rec.Glucose, rec.BloodPressure, rec.SkinThickness,
			rec.Insulin, rec.BMI, rec.DiabetesPedigree, rec.Age,
			outcome, now)
		if err != nil {
			tx.Rollback()
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	s.cache.Purge()
	return len(records), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var outcome sql.NullInt64
	err := row.Scan(
		&rec.ID,
		&rec.Pregnancies, &rec.Glucose, &rec.BloodPressure, &rec.SkinThickness,
		&rec.Insulin, &rec.BMI, &rec.DiabetesPedigree, &rec.Age,
		&outcome, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	if outcome.Valid {
		v := int(outcome.Int64)
		rec.Outcome = &v
	}
	return &rec, nil
}
