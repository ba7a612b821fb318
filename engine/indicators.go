package engine

import (
	"math"
	"time"
)

// ============================================================================
// INDICATORS: the three growth operations
// ============================================================================
// Each operation:
//   1. validates the view (fatal *InputShapeError on bad rows)
//   2. groups by country into year-ordered series (duplicates summed)
//   3. reduces every country independently
//
// A zero or near-zero divisor never yields NaN/Inf: the country gets the
// undefined sentinel and the other countries are unaffected. A result that
// overflows for any other reason is undefined with ReasonOverflow.
// ============================================================================

// AnnualGrowthRate returns, per country, the percentage change between the
// earliest and latest observed year, rounded to 2 decimals.
//
// A country observed in a single year has growth 0. A zero population in
// the earliest year yields the undefined sentinel (ReasonZeroPopulation).
func AnnualGrowthRate(view RecordView, opts ...Option) ([]CountryValue, error) {
	return compute(IndicatorGrowthRate, view, applyOptions(opts), growthRate)
}

// GrowthLeadersAndLaggards returns, per country, the average of the
// period-over-period percentage changes between consecutive observed
// years, rounded to 2 decimals. The first observation has no change and is
// not part of the average.
//
// Ranking is left to RankGrowth. A zero population used as a divisor yields
// ReasonZeroPopulation; a single observation yields ReasonInsufficientData.
func GrowthLeadersAndLaggards(view RecordView, opts ...Option) ([]CountryValue, error) {
	return compute(IndicatorYearOverYear, view, applyOptions(opts), yearOverYear)
}

// AverageAnnualGrowth returns, per country, the absolute population change
// per year: (pop[maxYear] - pop[minYear]) / (maxYear - minYear + 1).
// Populations at the boundary years are summed across duplicate rows.
// The value is not rounded; it is an absolute count, not a percentage.
func AverageAnnualGrowth(view RecordView, opts ...Option) ([]CountryValue, error) {
	return compute(IndicatorAverageAnnual, view, applyOptions(opts), averageAnnual)
}

func compute(indicator string, view RecordView, cfg *config, fn func(series) CountryValue) ([]CountryValue, error) {
	start := time.Now()
	if err := Validate(view); err != nil {
		return nil, err
	}

	values := reduceSeries(groupSeries(view), cfg.Parallelism, fn)

	if cfg.Observer != nil {
		cfg.Observer.ObserveIndicator(indicator, values, time.Since(start))
	}
	return values, nil
}

func growthRate(s series) CountryValue {
	if len(s.years) == 1 {
		return definedValue(s.country, 0)
	}
	_, first := s.first()
	_, last := s.last()
	if first == 0 {
		return undefinedValue(s.country, ReasonZeroPopulation)
	}
	rate := (last - first) / first * 100
	if !finite(rate) {
		// A near-zero divisor overflows like a zero one
		return undefinedValue(s.country, ReasonZeroPopulation)
	}
	return definedValue(s.country, RoundTo2(rate))
}

func yearOverYear(s series) CountryValue {
	if len(s.pops) < 2 {
		return undefinedValue(s.country, ReasonInsufficientData)
	}
	var sum float64
	for i := 1; i < len(s.pops); i++ {
		prev := s.pops[i-1]
		if prev == 0 {
			return undefinedValue(s.country, ReasonZeroPopulation)
		}
		change := (s.pops[i] - prev) / prev * 100
		if !finite(change) {
			return undefinedValue(s.country, ReasonZeroPopulation)
		}
		sum += change
	}
	avg := sum / float64(len(s.pops)-1)
	if !finite(avg) {
		return undefinedValue(s.country, ReasonOverflow)
	}
	return definedValue(s.country, RoundTo2(avg))
}

func averageAnnual(s series) CountryValue {
	minYear, startPop := s.first()
	maxYear, endPop := s.last()
	span := maxYear - minYear + 1
	v := (endPop - startPop) / float64(span)
	if !finite(v) {
		return undefinedValue(s.country, ReasonOverflow)
	}
	return definedValue(s.country, v)
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// ============================================================================
// RANKING
// ============================================================================

// RankGrowth picks the top `limit` growth countries (descending) and the
// top `limit` decline countries (ascending). Undefined values are never
// ranked. limit <= 0 keeps every defined value.
func RankGrowth(values []CountryValue, limit int) Ranking {
	defined := make([]CountryValue, 0, len(values))
	for _, v := range values {
		if v.Defined {
			defined = append(defined, v)
		}
	}

	leaders := append([]CountryValue(nil), defined...)
	SortValues(leaders, "value_desc")
	laggards := append([]CountryValue(nil), defined...)
	SortValues(laggards, "value_asc")

	if limit > 0 {
		if len(leaders) > limit {
			leaders = leaders[:limit]
		}
		if len(laggards) > limit {
			laggards = laggards[:limit]
		}
	}
	return Ranking{Leaders: leaders, Laggards: laggards}
}
