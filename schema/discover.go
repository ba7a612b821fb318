package schema

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/spektr-org/demografia/engine"
)

// ============================================================================
// AUTO-DISCOVERY: Heuristic column classification
// ============================================================================
// Inspects raw CSV and guesses which columns hold country, year and
// population.
//
// Classification pipeline per column:
//   1. Sample values → detect type (integer, numeric, text)
//   2. Type + value range → candidate roles
//      year:       integers, all within 1000–2999
//      population: numeric
//      country:    text
//   3. Header hints (País/Country, Año/Year, Población/Population...) break
//      ties between candidates; otherwise the leftmost candidate wins
//   4. Everything else is skipped with a reason
// ============================================================================

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	SampleSize int    // Max rows to inspect (0 = all). Default: 1000
	Name       string // Dataset name override
}

// DefaultDiscoverOptions returns sensible defaults.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		SampleSize: 1000,
	}
}

// Header names that identify a role, compared folded.
var (
	countryHints    = map[string]bool{"pais": true, "country": true, "nation": true, "country_name": true, "location": true}
	yearHints       = map[string]bool{"ano": true, "anio": true, "year": true, "time": true, "periodo": true}
	populationHints = map[string]bool{"poblacion": true, "population": true, "pop": true, "total": true, "poblacion_total": true, "population_total": true}
)

// DiscoverFromCSV generates a Config by inspecting CSV data.
// A role with no candidate column is an *engine.InputShapeError.
func DiscoverFromCSV(data []byte, opts ...DiscoverOptions) (*Config, error) {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1

	// 1. Read headers
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("CSV has no columns")
	}
	headers[0] = strings.TrimPrefix(headers[0], "\ufeff")

	// 2. Read sample rows
	var rows [][]string
	limit := opt.SampleSize
	if limit <= 0 {
		limit = 100000 // safety cap
	}
	for i := 0; i < limit; i++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("CSV has no data rows")
	}

	// 3. Analyze each column
	columns := make([]columnAnalysis, len(headers))
	for i, header := range headers {
		columns[i] = analyzeColumn(header, i, rows)
	}

	// 4. Assign roles: year first (it is also numeric), then population,
	//    then country.
	year := pickColumn(columns, roleYear, yearHints)
	if year < 0 {
		return nil, engine.NewInputShapeError(0, engine.FieldYear, "no integer column with year values")
	}
	columns[year].assigned = true

	population := pickColumn(columns, rolePopulation, populationHints)
	if population < 0 {
		return nil, engine.NewInputShapeError(0, engine.FieldPopulation, "no numeric column besides the year")
	}
	columns[population].assigned = true

	country := pickColumn(columns, roleCountry, countryHints)
	if country < 0 {
		return nil, engine.NewInputShapeError(0, engine.FieldCountry, "no text column")
	}
	columns[country].assigned = true

	// 5. Build schema
	config := &Config{
		Name: opt.Name,
		Columns: Columns{
			Country:    strings.TrimSpace(headers[country]),
			Year:       strings.TrimSpace(headers[year]),
			Population: strings.TrimSpace(headers[population]),
		},
		DiscoveredFrom: "CSV",
		DiscoveredAt:   time.Now().Format(time.RFC3339),
	}
	if config.Name == "" {
		config.Name = "Auto-discovered Dataset"
	}

	for _, col := range columns {
		if col.assigned {
			continue
		}
		config.SkippedColumns = append(config.SkippedColumns, SkippedColumn{
			Column: col.header,
			Reason: col.skipReason(),
		})
	}

	return config, nil
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

type columnRole int

const (
	roleYear columnRole = iota
	rolePopulation
	roleCountry
)

type columnType int

const (
	typeString columnType = iota
	typeNumeric
	typeInteger
)

type columnAnalysis struct {
	header   string
	key      string
	index    int
	colType  columnType
	assigned bool

	// Stats
	nullCount   int
	valueCount  int
	minInt      int
	maxInt      int
	uniqueCount int
}

// analyzeColumn inspects all values in a column and classifies its type.
func analyzeColumn(header string, index int, rows [][]string) columnAnalysis {
	col := columnAnalysis{
		header: header,
		key:    Fold(header),
		index:  index,
	}

	values := make([]string, 0, len(rows))
	uniqueSet := make(map[string]bool)
	for _, row := range rows {
		if index >= len(row) {
			col.nullCount++
			continue
		}
		val := strings.TrimSpace(row[index])
		if val == "" || val == "null" || val == "NULL" || val == "N/A" || val == "n/a" {
			col.nullCount++
			continue
		}
		values = append(values, val)
		uniqueSet[val] = true
	}
	col.valueCount = len(values)
	col.uniqueCount = len(uniqueSet)

	if len(values) == 0 {
		return col
	}

	col.colType = detectType(values)
	if col.colType == typeInteger {
		col.minInt, col.maxInt = intRange(values)
	}
	return col
}

// canServe reports whether the column's values fit a role.
func (col *columnAnalysis) canServe(role columnRole) bool {
	if col.assigned || col.valueCount == 0 {
		return false
	}
	switch role {
	case roleYear:
		return col.colType == typeInteger && col.minInt >= 1000 && col.maxInt <= 2999
	case rolePopulation:
		return col.colType == typeInteger || col.colType == typeNumeric
	case roleCountry:
		return col.colType == typeString
	}
	return false
}

func (col *columnAnalysis) skipReason() string {
	switch {
	case col.valueCount == 0:
		return "All values are empty/null"
	case col.colType == typeString:
		return "Additional text column"
	default:
		return "Additional numeric column"
	}
}

// pickColumn returns the index of the best column for a role, or -1.
// A hinted header beats position.
func pickColumn(columns []columnAnalysis, role columnRole, hints map[string]bool) int {
	first := -1
	for i := range columns {
		if !columns[i].canServe(role) {
			continue
		}
		if hints[columns[i].key] {
			return i
		}
		if first < 0 {
			first = i
		}
	}
	return first
}

// ============================================================================
// TYPE DETECTION
// ============================================================================

// detectType requires every non-null value to parse for a numeric type.
// Population data is strict: one text cell makes the column text.
func detectType(values []string) columnType {
	allInt := true
	for _, v := range values {
		if !isNumeric(v) {
			return typeString
		}
		if _, err := strconv.Atoi(v); err != nil {
			allInt = false
		}
	}
	if allInt {
		return typeInteger
	}
	return typeNumeric
}

func isNumeric(s string) bool {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "") // handle "1,234.56"
	s = strings.TrimPrefix(s, "-")
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func intRange(values []string) (int, int) {
	lo, hi := 0, 0
	for i, v := range values {
		n, _ := strconv.Atoi(v)
		if i == 0 || n < lo {
			lo = n
		}
		if i == 0 || n > hi {
			hi = n
		}
	}
	return lo, hi
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// toSnakeCase converts "Column Name" or "columnName" → "column_name".
func toSnakeCase(s string) string {
	// Handle camelCase: insert underscore before uppercase letters
	var result strings.Builder
	var prev rune
	for i, r := range s {
		if unicode.IsUpper(r) && i > 0 {
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				result.WriteRune('_')
			}
		}
		result.WriteRune(r)
		prev = r
	}

	s = result.String()
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	s = strings.Trim(s, "_")
	return s
}
