package geo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/demografia/engine"
)

const boundaries = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"name": "Guatemala", "iso": "GTM"},
     "geometry": {"type": "Point", "coordinates": [-90.2, 15.7]}},
    {"type": "Feature", "properties": {"name": "Panama", "iso": "PAN"},
     "geometry": {"type": "Point", "coordinates": [-80.7, 8.5]}},
    {"type": "Feature", "properties": {"name": "Bolivia", "iso": "BOL"},
     "geometry": {"type": "Point", "coordinates": [-63.5, -16.2]}}
  ]
}`

func TestLoadBoundaries(t *testing.T) {
	fc, err := LoadBoundaries(strings.NewReader(boundaries))
	require.NoError(t, err)
	assert.Len(t, fc.Features, 3)
	assert.Equal(t, []string{"Guatemala", "Panama", "Bolivia"}, fc.Names("name"))
	assert.Equal(t, "GTM", fc.Features[0].Property("iso"))

	_, err = LoadBoundaries(strings.NewReader(`{"type": "Feature"}`))
	assert.Error(t, err)
	_, err = LoadBoundaries(strings.NewReader(`{`))
	assert.Error(t, err)
}

func TestLoadBoundariesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.geojson")
	require.NoError(t, os.WriteFile(path, []byte(boundaries), 0o644))
	fc, err := LoadBoundariesFile(path)
	require.NoError(t, err)
	assert.Len(t, fc.Features, 3)
}

func TestBuildChoropleth(t *testing.T) {
	fc, err := LoadBoundaries(strings.NewReader(boundaries))
	require.NoError(t, err)

	values := []engine.CountryValue{
		{Country: "Bolivia", Value: 150000.5, Defined: true},
		{Country: "Guatemala", Value: 250000, Defined: true},
		{Country: "Panamá", Value: 40000, Defined: true},
		{Country: "Honduras", Reason: engine.ReasonZeroPopulation},
	}
	cfg, err := BuildChoropleth(values, fc)
	require.NoError(t, err)

	assert.Equal(t, "properties.name", cfg.FeatureIDKey)
	assert.Equal(t, "carto-positron", cfg.MapStyle)
	assert.Equal(t, "haline", cfg.ColorScale)
	assert.Equal(t, engine.MapCenter{Lat: -15, Lon: -70}, cfg.Center)
	assert.Equal(t, 1.6, cfg.Zoom)
	assert.Equal(t, 0.5, cfg.Opacity)

	assert.Equal(t, []string{"Bolivia", "Guatemala"}, cfg.Locations)
	assert.Equal(t, []float64{150000.5, 250000}, cfg.Values)
	// exact join: "Panamá" does not match "Panama"
	assert.Equal(t, []string{"Panamá"}, cfg.Unmatched)

	var embedded []Feature
	require.NoError(t, json.Unmarshal(cfg.Features, &embedded))
	require.Len(t, embedded, 2)
	assert.Equal(t, "Bolivia", embedded[0].Property("name"))
}

func TestBuildChoroplethFeatureKey(t *testing.T) {
	fc, err := LoadBoundaries(strings.NewReader(boundaries))
	require.NoError(t, err)

	cfg, err := BuildChoropleth([]engine.CountryValue{
		{Country: "PAN", Value: 1, Defined: true},
	}, fc, WithFeatureKey("iso"), WithLabel("Average annual growth"))
	require.NoError(t, err)
	assert.Equal(t, "properties.iso", cfg.FeatureIDKey)
	assert.Equal(t, []string{"PAN"}, cfg.Locations)
	assert.Empty(t, cfg.Unmatched)
	assert.Equal(t, "Average annual growth", cfg.Label)
}
