package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ============================================================================
// AGGREGATORS: Grouping, Reduction, and Sorting via RecordView
// ============================================================================
// Grouping is always by explicit country key, never by position.
// Each country becomes a series with one summed population per distinct
// year, ordered by year. Countries are ordered by name (byte order) so the
// output does not depend on input order or on reduction concurrency.
// ============================================================================

// series is one country's observations collapsed to one value per year.
type series struct {
	country string
	years   []int
	pops    []float64
}

// first returns the earliest year and its population.
func (s series) first() (int, float64) { return s.years[0], s.pops[0] }

// last returns the latest year and its population.
func (s series) last() (int, float64) {
	n := len(s.years) - 1
	return s.years[n], s.pops[n]
}

// groupSeries groups a view by country. Duplicate (country, year) rows are
// summed, which collapses regional sub-rows into one country-year.
func groupSeries(view RecordView) []series {
	byCountry := make(map[string]map[int]float64)

	for i := 0; i < view.Len(); i++ {
		country := view.Country(i)
		years, ok := byCountry[country]
		if !ok {
			years = make(map[int]float64)
			byCountry[country] = years
		}
		years[view.Year(i)] += view.Population(i)
	}

	countries := make([]string, 0, len(byCountry))
	for c := range byCountry {
		countries = append(countries, c)
	}
	sort.Strings(countries)

	out := make([]series, 0, len(countries))
	for _, c := range countries {
		totals := byCountry[c]
		s := series{
			country: c,
			years:   make([]int, 0, len(totals)),
			pops:    make([]float64, 0, len(totals)),
		}
		for y := range totals {
			s.years = append(s.years, y)
		}
		sort.Ints(s.years)
		for _, y := range s.years {
			s.pops = append(s.pops, totals[y])
		}
		out = append(out, s)
	}
	return out
}

// reduceSeries applies fn to every country. With parallelism > 1 the
// countries are reduced concurrently; each goroutine writes only its own
// slot, so the result keeps the sorted country order.
func reduceSeries(groups []series, parallelism int, fn func(series) CountryValue) []CountryValue {
	out := make([]CountryValue, len(groups))
	if parallelism <= 1 || len(groups) < 2 {
		for i := range groups {
			out[i] = fn(groups[i])
		}
		return out
	}

	var g errgroup.Group
	g.SetLimit(parallelism)
	for i := range groups {
		g.Go(func() error {
			out[i] = fn(groups[i])
			return nil
		})
	}
	_ = g.Wait() // fn never fails
	return out
}

// Countries returns the distinct countries of a view, sorted.
func Countries(view RecordView) []string {
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		c := view.Country(i)
		if c != "" && !seen[c] {
			seen[c] = true
			result = append(result, c)
		}
	}
	sort.Strings(result)
	return result
}

// ============================================================================
// SORTING
// ============================================================================

// SortValues sorts indicator values by the given mode.
// Undefined values always sort after defined ones; ties fall back to the
// country name so the order is deterministic.
func SortValues(values []CountryValue, sortBy string) {
	byCountry := func(i, j int) bool { return values[i].Country < values[j].Country }

	switch sortBy {
	case "value_desc":
		sort.SliceStable(values, func(i, j int) bool {
			a, b := values[i], values[j]
			if a.Defined != b.Defined {
				return a.Defined
			}
			if a.Value != b.Value {
				return a.Value > b.Value
			}
			return byCountry(i, j)
		})
	case "value_asc":
		sort.SliceStable(values, func(i, j int) bool {
			a, b := values[i], values[j]
			if a.Defined != b.Defined {
				return a.Defined
			}
			if a.Value != b.Value {
				return a.Value < b.Value
			}
			return byCountry(i, j)
		})
	case "label_desc":
		sort.SliceStable(values, func(i, j int) bool { return values[i].Country > values[j].Country })
	default:
		sort.SliceStable(values, byCountry)
	}
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// RoundTo2 rounds to 2 decimal places, half away from zero.
// Negative zero is normalized to 0.
func RoundTo2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}

// FormatNumber formats a value with comma separators and 2 decimals.
func FormatNumber(v float64) string {
	negative := v < 0
	if negative {
		v = -v
	}
	v = RoundTo2(v)

	intPart := int64(v)
	decPart := int64(math.Round((v - float64(intPart)) * 100))
	if decPart == 100 {
		intPart++
		decPart = 0
	}

	result := fmt.Sprintf("%s.%02d", groupThousands(intPart), decPart)
	if negative && (intPart != 0 || decPart != 0) {
		result = "-" + result
	}
	return result
}

// FormatPercent formats a percentage with 2 decimals.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", RoundTo2(v))
}

// FormatValue renders an indicator value, "n/a" for the sentinel.
func FormatValue(v CountryValue, percent bool) string {
	if !v.Defined {
		return "n/a"
	}
	if percent {
		return FormatPercent(v.Value)
	}
	return FormatNumber(v.Value)
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ",")
}
