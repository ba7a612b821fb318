package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tillberg/alog"
)

// ============================================================================
// EXECUTOR: Full-relation computation, then selection
// ============================================================================
// Entry point: Execute(ctx, view, selection, opts...)
//
// Pipeline:
//   1. Validate the relation (fatal on shape errors)
//   2. Compute the three indicators on the FULL relation
//   3. Rank year-over-year growth across all countries
//   4. Filter indicators to the selection (display only)
//   5. Collect undefined values, build charts, table and summary
// ============================================================================

// Execute computes every indicator and returns a render-ready Report.
//
// Options:
//   - WithCalculator(c): compute with another backend (e.g. DuckDB)
//   - WithRankLimit(n): leaders/laggards kept (default 5)
//   - WithParallelism(n): concurrent per-country reduction (native only)
//   - WithObserver(o): timing and sentinel reporting
func Execute(ctx context.Context, view RecordView, sel Selection, opts ...Option) (*Report, error) {
	cfg := applyOptions(opts)
	timer := alog.NewTimer()

	if err := Validate(view); err != nil {
		return nil, err
	}

	runID := cfg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	report := &Report{
		RunID:     runID,
		Records:   view.Len(),
		Selection: sel.Countries,
	}

	if view.Len() == 0 {
		report.Summary = BuildSummary(report)
		return report, nil
	}

	calc := cfg.Calculator
	if calc == nil {
		calc = NewNative(WithParallelism(cfg.Parallelism))
	}

	alog.Log("🔧 Demografia: Processing %d records (run %s)", view.Len(), runID)

	growth, err := observe(ctx, cfg, IndicatorGrowthRate, calc.AnnualGrowthRate, view)
	if err != nil {
		return nil, err
	}
	yoy, err := observe(ctx, cfg, IndicatorYearOverYear, calc.GrowthLeadersAndLaggards, view)
	if err != nil {
		return nil, err
	}
	average, err := observe(ctx, cfg, IndicatorAverageAnnual, calc.AverageAnnualGrowth, view)
	if err != nil {
		return nil, err
	}

	report.Countries = len(growth)
	report.Ranking = RankGrowth(yoy, cfg.RankLimit)

	report.GrowthRates = FilterValues(growth, sel.Countries)
	report.YearOverYear = FilterValues(yoy, sel.Countries)
	report.AverageAnnual = FilterValues(average, sel.Countries)
	report.Missing = MissingCountries(growth, sel.Countries)
	if len(report.Missing) > 0 {
		alog.Log("⚠️ Demografia: selected countries not in data: %v", report.Missing)
	}

	report.Undefined = collectUndefined(map[string][]CountryValue{
		IndicatorGrowthRate:    report.GrowthRates,
		IndicatorYearOverYear:  report.YearOverYear,
		IndicatorAverageAnnual: report.AverageAnnual,
	})

	report.GrowthChart = BuildGrowthRateChart(report.GrowthRates)
	report.RankingChart = BuildRankingChart(report.Ranking)
	report.PopulationChart = BuildPopulationChart(view, sel.Countries)
	report.Table = BuildIndicatorTable(report.GrowthRates, report.YearOverYear, report.AverageAnnual)
	report.Summary = BuildSummary(report)

	alog.Log("📊 Demografia: %d countries, %d shown, %d undefined in %s",
		report.Countries, len(report.GrowthRates), len(report.Undefined), timer.Elapsed())

	return report, nil
}

type indicatorFunc func(context.Context, RecordView) ([]CountryValue, error)

func observe(ctx context.Context, cfg *config, indicator string, fn indicatorFunc, view RecordView) ([]CountryValue, error) {
	start := time.Now()
	values, err := fn(ctx, view)
	if err != nil {
		return nil, err
	}
	if cfg.Observer != nil {
		cfg.Observer.ObserveIndicator(indicator, values, time.Since(start))
	}
	return values, nil
}

// collectUndefined lists sentinels in a fixed indicator order.
func collectUndefined(byIndicator map[string][]CountryValue) []UndefinedValue {
	var out []UndefinedValue
	for _, indicator := range []string{IndicatorGrowthRate, IndicatorYearOverYear, IndicatorAverageAnnual} {
		for _, v := range byIndicator[indicator] {
			if !v.Defined {
				out = append(out, UndefinedValue{
					Indicator: indicator,
					Country:   v.Country,
					Reason:    v.Reason,
				})
			}
		}
	}
	return out
}
