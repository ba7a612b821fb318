package schema

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/demografia/engine"
)

// ============================================================================
// SCHEMA: Maps the columns of a data source onto the engine relation
// ============================================================================
// The engine reads exactly three fields (País, Año, Población). A source
// may name them differently; Config says which header holds which field.
//
// Sources of a Config:
//   Default()        : the canonical Spanish headers
//   Load / LoadFile  : YAML (or JSON, a YAML subset) written by a user
//   DiscoverFromCSV  : heuristic guess from the data itself
// ============================================================================

// Config describes how a dataset's columns map onto the relation.
type Config struct {
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
	Columns     Columns `yaml:"columns" json:"columns"`

	// Auto-discovery metadata
	DiscoveredFrom string `yaml:"discoveredFrom,omitempty" json:"discoveredFrom,omitempty"`
	DiscoveredAt   string `yaml:"discoveredAt,omitempty" json:"discoveredAt,omitempty"`

	// Columns ignored by the relation
	SkippedColumns []SkippedColumn `yaml:"skippedColumns,omitempty" json:"skippedColumns,omitempty"`
}

// Columns holds the source header of each relation field.
type Columns struct {
	Country    string `yaml:"country" json:"country"`
	Year       string `yaml:"year" json:"year"`
	Population string `yaml:"population" json:"population"`
}

// SkippedColumn records why a column was excluded during auto-discovery.
type SkippedColumn struct {
	Column string `yaml:"column" json:"column"`
	Reason string `yaml:"reason" json:"reason"`
}

// Mapping holds the resolved position of each field in a header row.
type Mapping struct {
	Country    int
	Year       int
	Population int
}

// Default returns the mapping for sources that already use the relation's
// field names.
func Default() *Config {
	return &Config{
		Name: "Population by country",
		Columns: Columns{
			Country:    engine.FieldCountry,
			Year:       engine.FieldYear,
			Population: engine.FieldPopulation,
		},
	}
}

// Load parses a YAML or JSON schema document. Columns left empty fall
// back to the defaults.
func Load(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	def := Default().Columns
	if cfg.Columns.Country == "" {
		cfg.Columns.Country = def.Country
	}
	if cfg.Columns.Year == "" {
		cfg.Columns.Year = def.Year
	}
	if cfg.Columns.Population == "" {
		cfg.Columns.Population = def.Population
	}
	return cfg, nil
}

// LoadFile reads and parses a schema file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", path, err)
	}
	return Load(data)
}

// Marshal renders the config as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Resolve finds the configured columns in a header row.
//
// An exact header match wins. Otherwise headers are compared folded
// (case, accents, spaces vs underscores), so "Poblacion" and
// "población" both find "Población". A column that cannot be found is an
// *engine.InputShapeError.
func (c Config) Resolve(headers []string) (Mapping, error) {
	var m Mapping
	var err error
	if m.Country, err = findColumn(headers, c.Columns.Country, engine.FieldCountry); err != nil {
		return m, err
	}
	if m.Year, err = findColumn(headers, c.Columns.Year, engine.FieldYear); err != nil {
		return m, err
	}
	if m.Population, err = findColumn(headers, c.Columns.Population, engine.FieldPopulation); err != nil {
		return m, err
	}
	return m, nil
}

func findColumn(headers []string, name, field string) (int, error) {
	for i, h := range headers {
		if strings.TrimSpace(h) == name {
			return i, nil
		}
	}
	want := Fold(name)
	for i, h := range headers {
		if Fold(h) == want {
			return i, nil
		}
	}
	return -1, engine.NewInputShapeError(0, field, fmt.Sprintf("column %q not found in header", name))
}

// Fold normalizes a header for loose comparison: accents stripped, lower
// snake case. "Población Total" → "poblacion_total".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return toSnakeCase(strings.TrimSpace(stripped))
}
