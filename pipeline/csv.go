// Package pipeline reads sample feature rows from CSV for bulk loading.
package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"diapredict/db"
)

// Column headers of the Pima diabetes dataset, mapped to record fields.
var csvColumns = []string{
	"Pregnancies",
	"Glucose",
	"BloodPressure",
	"SkinThickness",
	"Insulin",
	"BMI",
	"DiabetesPedigreeFunction",
	"Age",
	"Outcome",
}

// ReadSampleCSV parses up to limit rows from the dataset at path. A
// limit of zero or less reads every row. The file may carry a UTF-8 or
// UTF-16 BOM; both are handled transparently.
func ReadSampleCSV(path string, limit int) ([]db.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return parseCSV(file, limit)
}

func parseCSV(r io.Reader, limit int) ([]db.Record, error) {
	decoder := unicode.UTF8.NewDecoder()
	reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(decoder)))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range csvColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("csv missing column %s", name)
		}
	}

	var records []db.Record
	for limit <= 0 || len(records) < limit {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		rec, err := rowToRecord(row, index)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func rowToRecord(row []string, index map[string]int) (db.Record, error) {
	cell := func(name string) string {
		return strings.TrimSpace(row[index[name]])
	}
	intCell := func(name string) (int, error) {
		// dataset exports sometimes render integers as "5.0"
		f, err := strconv.ParseFloat(cell(name), 64)
		if err != nil {
			return 0, fmt.Errorf("column %s: %w", name, err)
		}
		return int(f), nil
	}
	floatCell := func(name string) (float64, error) {
		f, err := strconv.ParseFloat(cell(name), 64)
		if err != nil {
			return 0, fmt.Errorf("column %s: %w", name, err)
		}
		return f, nil
	}

	var rec db.Record
	var err error
	if rec.Pregnancies, err = intCell("Pregnancies"); err != nil {
		return rec, err
	}
	if rec.Glucose, err = intCell("Glucose"); err != nil {
		return rec, err
	}
	if rec.BloodPressure, err = intCell("BloodPressure"); err != nil {
		return rec, err
	}
	if rec.SkinThickness, err = intCell("SkinThickness"); err != nil {
		return rec, err
	}
	if rec.Insulin, err = intCell("Insulin"); err != nil {
		return rec, err
	}
	if rec.BMI, err = floatCell("BMI"); err != nil {
		return rec, err
	}
	if rec.DiabetesPedigree, err = floatCell("DiabetesPedigreeFunction"); err != nil {
		return rec, err
	}
	if rec.Age, err = intCell("Age"); err != nil {
		return rec, err
	}

	outcome, err := intCell("Outcome")
	if err != nil {
		return rec, err
	}
	rec.Outcome = &outcome
	return rec, nil
}
