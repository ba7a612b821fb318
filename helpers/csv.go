package helpers

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/spektr-org/demografia/engine"
	"github.com/spektr-org/demografia/schema"
)

// ============================================================================
// CSV HELPER: Parses CSV data into []engine.PopulationRecord
// ============================================================================
// Consumer reads the CSV from wherever it lives (file, S3, Sheets).
// This helper converts the raw bytes into records using the schema.
//
// Parsing is strict: a malformed cell aborts with *engine.InputShapeError
// naming the 1-based data row. Nothing is skipped or coerced to zero.
// ============================================================================

// ParseCSV parses CSV bytes into records. The schema says which header
// holds each field; other columns are ignored.
func ParseCSV(data []byte, sch schema.Config) ([]engine.PopulationRecord, error) {
	return ReadCSV(strings.NewReader(string(data)), sch)
}

// ReadCSV is ParseCSV over a reader.
func ReadCSV(r io.Reader, sch schema.Config) ([]engine.PopulationRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	// Read header
	headers, err := reader.Read()
	if err == io.EOF {
		return nil, engine.NewInputShapeError(0, engine.FieldCountry, "CSV has no header")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV headers")
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}

	m, err := sch.Resolve(headers)
	if err != nil {
		return nil, err
	}

	// Read rows
	var records []engine.PopulationRecord
	for n := 1; ; n++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read CSV row %d", n)
		}

		rec, err := parseRow(n, row, m)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

func parseRow(n int, row []string, m schema.Mapping) (engine.PopulationRecord, error) {
	var rec engine.PopulationRecord

	country, ok := cell(row, m.Country)
	if !ok || country == "" {
		return rec, engine.NewInputShapeError(n, engine.FieldCountry, "missing country")
	}

	rawYear, ok := cell(row, m.Year)
	if !ok || rawYear == "" {
		return rec, engine.NewInputShapeError(n, engine.FieldYear, "missing year")
	}
	year, ok := engine.ParseYear(rawYear)
	if !ok {
		return rec, engine.NewInputShapeError(n, engine.FieldYear, "not an integer: "+strconv.Quote(rawYear))
	}

	rawPop, ok := cell(row, m.Population)
	if !ok || rawPop == "" {
		return rec, engine.NewInputShapeError(n, engine.FieldPopulation, "missing population")
	}
	pop, err := strconv.ParseFloat(rawPop, 64)
	if err != nil || math.IsNaN(pop) || math.IsInf(pop, 0) {
		return rec, engine.NewInputShapeError(n, engine.FieldPopulation, "not numeric: "+strconv.Quote(rawPop))
	}

	rec.Country = country
	rec.Year = year
	rec.Population = pop
	return rec, nil
}

func cell(row []string, i int) (string, bool) {
	if i < 0 || i >= len(row) {
		return "", false
	}
	return strings.TrimSpace(row[i]), true
}

// ParseCSVAuto parses CSV without a pre-existing schema.
// Returns both the records and the discovered schema, so consumers can save
// and edit the mapping.
func ParseCSVAuto(data []byte) ([]engine.PopulationRecord, *schema.Config, error) {
	sch, err := schema.DiscoverFromCSV(data)
	if err != nil {
		return nil, nil, err
	}
	records, err := ParseCSV(data, *sch)
	if err != nil {
		return nil, nil, err
	}
	return records, sch, nil
}

// ParseCSVView parses CSV into a RecordView (convenience wrapper).
func ParseCSVView(data []byte, sch schema.Config) (engine.RecordView, error) {
	records, err := ParseCSV(data, sch)
	if err != nil {
		return nil, err
	}
	return engine.NewSliceView(records), nil
}

// ParseCSVAutoView parses CSV without schema and returns a RecordView.
func ParseCSVAutoView(data []byte) (engine.RecordView, *schema.Config, error) {
	records, sch, err := ParseCSVAuto(data)
	if err != nil {
		return nil, nil, err
	}
	return engine.NewSliceView(records), sch, nil
}
