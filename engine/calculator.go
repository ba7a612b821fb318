package engine

import "context"

// Calculator computes the three indicators. Native (this package) and
// sqlengine.Engine (DuckDB) implement it and must agree value for value,
// sentinels included.
type Calculator interface {
	AnnualGrowthRate(ctx context.Context, view RecordView) ([]CountryValue, error)
	GrowthLeadersAndLaggards(ctx context.Context, view RecordView) ([]CountryValue, error)
	AverageAnnualGrowth(ctx context.Context, view RecordView) ([]CountryValue, error)
}

// Native is the in-process Calculator.
type Native struct {
	opts []Option
}

// NewNative returns a Calculator backed by the pure indicator functions.
func NewNative(opts ...Option) *Native {
	return &Native{opts: opts}
}

func (n *Native) AnnualGrowthRate(ctx context.Context, view RecordView) ([]CountryValue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return AnnualGrowthRate(view, n.opts...)
}

func (n *Native) GrowthLeadersAndLaggards(ctx context.Context, view RecordView) ([]CountryValue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return GrowthLeadersAndLaggards(view, n.opts...)
}

func (n *Native) AverageAnnualGrowth(ctx context.Context, view RecordView) ([]CountryValue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return AverageAnnualGrowth(view, n.opts...)
}
