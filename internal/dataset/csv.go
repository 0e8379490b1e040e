package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/OldStager01/healthcare-records/pkg/models"
)

// Columns of the stroke dataset, in file order.
var Columns = []string{
	"id", "gender", "age", "hypertension", "heart_disease", "ever_married",
	"work_type", "Residence_type", "avg_glucose_level", "bmi", "smoking_status", "stroke",
}

var ErrMissingColumn = errors.New("dataset: missing column")

// ParseError points at the offending line of the CSV.
type ParseError struct {
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("dataset: line %d, column %s: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func LoadFile(path string) ([]*models.Patient, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads the stroke CSV. Columns are located by header name so their
// order does not matter. A bmi of "N/A" or an empty cell is stored as nil.
func Parse(r io.Reader) ([]*models.Patient, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	head, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("dataset: read header: %w", err)
	}

	index := make(map[string]int, len(head))
	for i, name := range head {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, col := range Columns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	var patients []*models.Patient
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("dataset: line %d: %w", line, err)
		}

		p, err := parseRow(record, index, line)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}

	return patients, nil
}

func parseRow(record []string, index map[string]int, line int) (*models.Patient, error) {
	get := func(col string) string {
		return strings.TrimSpace(record[index[col]])
	}

	var firstErr error
	num := func(col string) float64 {
		v, err := strconv.ParseFloat(get(col), 64)
		if err != nil && firstErr == nil {
			firstErr = &ParseError{Line: line, Column: col, Err: err}
		}
		return v
	}
	integer := func(col string) int {
		v, err := strconv.Atoi(get(col))
		if err != nil && firstErr == nil {
			firstErr = &ParseError{Line: line, Column: col, Err: err}
		}
		return v
	}

	p := &models.Patient{
		ID:              integer("id"),
		Gender:          get("gender"),
		Age:             num("age"),
		Hypertension:    integer("hypertension"),
		HeartDisease:    integer("heart_disease"),
		EverMarried:     get("ever_married"),
		WorkType:        get("work_type"),
		ResidenceType:   get("Residence_type"),
		AvgGlucoseLevel: num("avg_glucose_level"),
		SmokingStatus:   get("smoking_status"),
		Stroke:          integer("stroke"),
	}

	if raw := get("bmi"); raw != "" && !strings.EqualFold(raw, "N/A") {
		bmi, err := strconv.ParseFloat(raw, 64)
		if err != nil && firstErr == nil {
			firstErr = &ParseError{Line: line, Column: "bmi", Err: err}
		}
		p.BMI = &bmi
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return p, nil
}
