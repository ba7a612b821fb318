// Package geo joins per-country indicator values with GeoJSON boundaries
// for choropleth maps.
package geo

import (
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/spektr-org/demografia/engine"
)

// Map defaults of the dashboard's choropleth.
const (
	DefaultFeatureKey = "name"
	DefaultMapStyle   = "carto-positron"
	DefaultColorScale = "haline"
	DefaultZoom       = 1.6
	DefaultOpacity    = 0.5
	DefaultLabel      = "CPA"
)

// DefaultCenter frames Latin America.
var DefaultCenter = engine.MapCenter{Lat: -15, Lon: -70}

// FeatureCollection is a GeoJSON FeatureCollection. Geometries are kept
// as raw JSON; only properties are inspected.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one GeoJSON feature.
type Feature struct {
	Type       string          `json:"type"`
	ID         any             `json:"id,omitempty"`
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

// Property returns a string property, or "" when absent or not a string.
func (f Feature) Property(key string) string {
	s, _ := f.Properties[key].(string)
	return s
}

// LoadBoundaries decodes a GeoJSON FeatureCollection.
func LoadBoundaries(r io.Reader) (*FeatureCollection, error) {
	var fc FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, errors.Wrap(err, "failed to decode GeoJSON")
	}
	if fc.Type != "FeatureCollection" {
		return nil, errors.Errorf("expected a FeatureCollection, got %q", fc.Type)
	}
	return &fc, nil
}

// LoadBoundariesFile reads a GeoJSON file.
func LoadBoundariesFile(path string) (*FeatureCollection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()
	return LoadBoundaries(f)
}

// Names lists the key property of every feature, in file order.
func (fc *FeatureCollection) Names(key string) []string {
	names := make([]string, 0, len(fc.Features))
	for _, f := range fc.Features {
		if n := f.Property(key); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// Option configures BuildChoropleth.
type Option func(*engine.ChoroplethConfig)

// WithFeatureKey joins on properties.<key> instead of properties.name.
func WithFeatureKey(key string) Option {
	return func(c *engine.ChoroplethConfig) {
		c.FeatureIDKey = "properties." + key
	}
}

// WithLabel sets the color bar label.
func WithLabel(label string) Option {
	return func(c *engine.ChoroplethConfig) {
		c.Label = label
	}
}

// BuildChoropleth pairs values with boundary features by exact country
// name. Countries without a feature are reported in Unmatched so a naming
// mismatch is visible instead of silently dropping the country. Undefined
// values are left off the map. Only matched features are embedded.
func BuildChoropleth(values []engine.CountryValue, fc *FeatureCollection, opts ...Option) (*engine.ChoroplethConfig, error) {
	cfg := &engine.ChoroplethConfig{
		FeatureIDKey: "properties." + DefaultFeatureKey,
		MapStyle:     DefaultMapStyle,
		ColorScale:   DefaultColorScale,
		Center:       DefaultCenter,
		Zoom:         DefaultZoom,
		Opacity:      DefaultOpacity,
		Label:        DefaultLabel,
		Locations:    []string{},
		Values:       []float64{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	key := strings.TrimPrefix(cfg.FeatureIDKey, "properties.")

	byName := make(map[string]int, len(fc.Features))
	for i, f := range fc.Features {
		if n := f.Property(key); n != "" {
			if _, dup := byName[n]; !dup {
				byName[n] = i
			}
		}
	}

	var matched []Feature
	for _, v := range values {
		if !v.Defined {
			continue
		}
		idx, ok := byName[v.Country]
		if !ok {
			cfg.Unmatched = append(cfg.Unmatched, v.Country)
			continue
		}
		cfg.Locations = append(cfg.Locations, v.Country)
		cfg.Values = append(cfg.Values, v.Value)
		matched = append(matched, fc.Features[idx])
	}

	features, err := json.Marshal(matched)
	if err != nil {
		return nil, fmt.Errorf("failed to encode features: %w", err)
	}
	cfg.Features = features
	return cfg, nil
}
