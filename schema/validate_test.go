package schema

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spektr-org/demografia/engine"
)

// ============================================================================
// SCHEMA LOADING AND HEADER RESOLUTION
// ============================================================================

func TestLoadYAML(t *testing.T) {
	config, err := Load([]byte(`
name: World Bank population
columns:
  country: Country Name
  year: Time
  population: Population, total
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := Columns{Country: "Country Name", Year: "Time", Population: "Population, total"}
	if config.Columns != want {
		t.Errorf("columns = %+v, want %+v", config.Columns, want)
	}
	if config.Name != "World Bank population" {
		t.Errorf("name = %q", config.Name)
	}
}

func TestLoadJSONFillsDefaults(t *testing.T) {
	config, err := Load([]byte(`{"columns": {"country": "Nation"}}`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Columns.Country != "Nation" {
		t.Errorf("country = %q", config.Columns.Country)
	}
	if config.Columns.Year != engine.FieldYear || config.Columns.Population != engine.FieldPopulation {
		t.Errorf("defaults not applied: %+v", config.Columns)
	}
}

func TestLoadInvalid(t *testing.T) {
	if _, err := Load([]byte("columns: [")); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadFileRoundTrip(t *testing.T) {
	original := Default()
	original.Columns.Population = "Habitantes"
	data, err := original.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "schema.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if loaded.Columns != original.Columns {
		t.Errorf("columns = %+v, want %+v", loaded.Columns, original.Columns)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    Mapping
	}{
		{"exact", []string{"País", "Año", "Población"}, Mapping{0, 1, 2}},
		{"reordered with extras", []string{"Código", "Población", "País", "Año"}, Mapping{2, 3, 1}},
		{"accents dropped", []string{"Pais", "Ano", "Poblacion"}, Mapping{0, 1, 2}},
		{"case and padding", []string{" PAÍS ", "año", "POBLACIÓN"}, Mapping{0, 1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Default().Resolve(tt.headers)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolveMissingColumn(t *testing.T) {
	_, err := Default().Resolve([]string{"País", "Población"})
	if !errors.Is(err, engine.ErrInputShape) {
		t.Fatalf("expected input shape error, got %v", err)
	}
	var shapeErr *engine.InputShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("expected *engine.InputShapeError, got %T", err)
	}
	if shapeErr.Field != engine.FieldYear || shapeErr.Row != 0 {
		t.Errorf("got %+v", shapeErr)
	}
}

func TestFold(t *testing.T) {
	tests := map[string]string{
		"Población":       "poblacion",
		"Población Total": "poblacion_total",
		"  Año ":          "ano",
		"País":            "pais",
		"Country Name":    "country_name",
	}
	for in, want := range tests {
		if got := Fold(in); got != want {
			t.Errorf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
}
