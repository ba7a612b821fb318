package engine

import (
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Row is one untyped row of the input relation keyed by field name
// (FieldCountry, FieldYear, FieldPopulation). Decoded JSON rows and
// hand-built fixtures use this shape.
type Row map[string]any

// NewRelation converts untyped rows into a RecordView.
//
// Every row must carry all three fields: a non-empty string country, an
// integral year and a numeric population. Anything else is an
// *InputShapeError naming the 1-based row.
func NewRelation(rows []Row) (RecordView, error) {
	records := make([]PopulationRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := recordFromRow(i+1, row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return NewSliceView(records), nil
}

func recordFromRow(n int, row Row) (PopulationRecord, error) {
	var rec PopulationRecord

	raw, ok := row[FieldCountry]
	if !ok || raw == nil {
		return rec, NewInputShapeError(n, FieldCountry, "missing field")
	}
	country, ok := raw.(string)
	if !ok {
		return rec, NewInputShapeError(n, FieldCountry, "not a string")
	}
	if strings.TrimSpace(country) == "" {
		return rec, NewInputShapeError(n, FieldCountry, "empty country")
	}

	raw, ok = row[FieldYear]
	if !ok || raw == nil {
		return rec, NewInputShapeError(n, FieldYear, "missing field")
	}
	year, reason := toInt(raw)
	if reason != "" {
		return rec, NewInputShapeError(n, FieldYear, reason)
	}

	raw, ok = row[FieldPopulation]
	if !ok || raw == nil {
		return rec, NewInputShapeError(n, FieldPopulation, "missing field")
	}
	pop, reason := toFloat(raw)
	if reason != "" {
		return rec, NewInputShapeError(n, FieldPopulation, reason)
	}

	rec.Country = country
	rec.Year = year
	rec.Population = pop
	return rec, nil
}

// Years outside this range cannot be a population observation and would
// not survive the conversion to int on every platform.
const (
	minYear = math.MinInt32
	maxYear = math.MaxInt32
)

// toInt accepts Go integers, integral floats and json.Number, with the same
// rules as ParseYear. It returns a reason string instead of an error so
// callers can attach row and field context.
func toInt(v any) (int, string) {
	switch x := v.(type) {
	case int:
		return checkYear(int64(x))
	case int32:
		return int(x), ""
	case int64:
		return checkYear(x)
	case float64:
		return yearFromFloat(x)
	case json.Number:
		if y, ok := ParseYear(x.String()); ok {
			return y, ""
		}
		return 0, "not an integer"
	default:
		return 0, "not an integer"
	}
}

// ParseYear parses a year written as an integer ("2000") or an integral
// float ("2000.0"). Every loader uses it so CSV and JSON agree.
func ParseYear(s string) (int, bool) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		y, reason := checkYear(i)
		return y, reason == ""
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	y, reason := yearFromFloat(f)
	return y, reason == ""
}

func yearFromFloat(f float64) (int, string) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, "not an integer"
	}
	if f < minYear || f > maxYear {
		return 0, "year out of range"
	}
	return int(f), ""
}

func checkYear(i int64) (int, string) {
	if i < minYear || i > maxYear {
		return 0, "year out of range"
	}
	return int(i), ""
}

func toFloat(v any) (float64, string) {
	var f float64
	switch x := v.(type) {
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case float32:
		f = float64(x)
	case float64:
		f = x
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, "not numeric"
		}
		f = parsed
	default:
		return 0, "not numeric"
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, "not a finite number"
	}
	return f, ""
}
