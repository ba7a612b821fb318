package engine

import "time"

// ============================================================================
// ENGINE OPTIONS: Functional options for the indicators and Execute()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

// Observer receives one callback per computed indicator.
// metrics.Metrics implements it.
type Observer interface {
	ObserveIndicator(indicator string, values []CountryValue, elapsed time.Duration)
}

type config struct {
	Parallelism int        // >1 reduces countries concurrently
	RankLimit   int        // leaders/laggards kept by Execute
	Calculator  Calculator // backend used by Execute
	Observer    Observer
	RunID       string // fixed run id (tests); empty = generate
}

// WithParallelism reduces up to n countries concurrently.
// n <= 1 keeps the single-pass sequential reduction.
func WithParallelism(n int) Option {
	return func(c *config) {
		c.Parallelism = n
	}
}

// WithRankLimit sets how many leaders and laggards Execute keeps.
func WithRankLimit(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.RankLimit = n
		}
	}
}

// WithCalculator makes Execute compute indicators with calc
// (e.g. the DuckDB backend) instead of the native functions.
func WithCalculator(calc Calculator) Option {
	return func(c *config) {
		c.Calculator = calc
	}
}

// WithObserver reports every computed indicator to o.
func WithObserver(o Observer) Option {
	return func(c *config) {
		c.Observer = o
	}
}

// WithRunID pins the report run id.
func WithRunID(id string) Option {
	return func(c *config) {
		c.RunID = id
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Parallelism: 1,
		RankLimit:   DefaultRankLimit,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
