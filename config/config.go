// Package config holds the run configuration of the demografia CLI.
package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/demografia/engine"
)

// Calculator backends.
const (
	BackendNative = "native"
	BackendDuckDB = "duckdb"
)

// DefaultCountries is the selection shown when none is given.
var DefaultCountries = []string{"Guatemala", "Honduras", "Panama", "Ecuador", "Bolivia"}

// Run captures one CLI run.
type Run struct {
	Data        []string `yaml:"data"`
	Schema      string   `yaml:"schema,omitempty"`
	Countries   []string `yaml:"countries"`
	Backend     string   `yaml:"backend"`
	Parallelism int      `yaml:"parallelism"`
	RankLimit   int      `yaml:"rank_limit"`
	DuckDBPath  string   `yaml:"duckdb_path,omitempty"`
	Pushgateway string   `yaml:"pushgateway,omitempty"`
	GeoJSON     string   `yaml:"geojson,omitempty"`
	FeatureKey  string   `yaml:"feature_key,omitempty"`
}

// Default returns the built-in run configuration.
func Default() Run {
	return Run{
		Countries:   append([]string(nil), DefaultCountries...),
		Backend:     BackendNative,
		Parallelism: runtime.GOMAXPROCS(0),
		RankLimit:   engine.DefaultRankLimit,
	}
}

// FromEnv overlays DEMOGRAFIA_* environment variables on the defaults.
func FromEnv() (Run, error) {
	run := Default()
	if err := run.applyEnv(os.Getenv); err != nil {
		return Run{}, err
	}
	return run, nil
}

// LoadFile reads a YAML run file. Fields it leaves out keep their defaults.
func LoadFile(path string) (Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Run{}, errors.Wrapf(err, "failed to read config %s", path)
	}
	run := Default()
	if err := yaml.Unmarshal(data, &run); err != nil {
		return Run{}, errors.Wrapf(err, "failed to parse config %s", path)
	}
	if err := run.Validate(); err != nil {
		return Run{}, errors.WithMessage(err, path)
	}
	return run, nil
}

func (r *Run) applyEnv(getenv func(string) string) error {
	if v := getenv("DEMOGRAFIA_DATA"); v != "" {
		r.Data = SplitList(v)
	}
	if v := getenv("DEMOGRAFIA_SCHEMA"); v != "" {
		r.Schema = v
	}
	if v := getenv("DEMOGRAFIA_COUNTRIES"); v != "" {
		r.Countries = SplitList(v)
	}
	if v := getenv("DEMOGRAFIA_BACKEND"); v != "" {
		r.Backend = strings.ToLower(v)
	}
	if v := getenv("DEMOGRAFIA_DUCKDB_PATH"); v != "" {
		r.DuckDBPath = v
	}
	if v := getenv("DEMOGRAFIA_PUSHGATEWAY"); v != "" {
		r.Pushgateway = v
	}
	if v := getenv("DEMOGRAFIA_GEOJSON"); v != "" {
		r.GeoJSON = v
	}
	if v := getenv("DEMOGRAFIA_FEATURE_KEY"); v != "" {
		r.FeatureKey = v
	}

	var err error
	if r.Parallelism, err = envInt(getenv, "DEMOGRAFIA_PARALLELISM", r.Parallelism); err != nil {
		return err
	}
	if r.RankLimit, err = envInt(getenv, "DEMOGRAFIA_RANK_LIMIT", r.RankLimit); err != nil {
		return err
	}
	return r.Validate()
}

// Validate checks the backend and the numeric limits.
func (r Run) Validate() error {
	switch r.Backend {
	case BackendNative, BackendDuckDB:
	default:
		return errors.Errorf("unknown backend %q (want %s or %s)", r.Backend, BackendNative, BackendDuckDB)
	}
	if r.RankLimit <= 0 {
		return errors.Errorf("rank limit must be positive, got %d", r.RankLimit)
	}
	if r.Parallelism < 0 {
		return errors.Errorf("parallelism must not be negative, got %d", r.Parallelism)
	}
	return nil
}

func envInt(getenv func(string) string, key string, fallback int) (int, error) {
	v := getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	return n, nil
}

// SplitList splits a comma-separated list and drops empty items.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
