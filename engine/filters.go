package engine

// ============================================================================
// FILTERS: Country selection applied AFTER computation
// ============================================================================
// Indicators are always computed on the full relation; the selection only
// decides what is displayed. Matching is exact: country names are join keys
// (e.g. against map boundaries), so no case folding or trimming.
// ============================================================================

// FilterValues keeps the values whose country is selected, in input order.
// An empty selection keeps everything.
func FilterValues(values []CountryValue, countries []string) []CountryValue {
	if len(countries) == 0 {
		return values
	}
	set := toSet(countries)
	out := make([]CountryValue, 0, len(countries))
	for _, v := range values {
		if set[v.Country] {
			out = append(out, v)
		}
	}
	return out
}

// FilterView returns a zero-copy view of the rows whose country is selected.
// An empty selection returns the original view.
func FilterView(view RecordView, countries []string) RecordView {
	if len(countries) == 0 {
		return view
	}
	set := toSet(countries)
	indices := make([]int, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		if set[view.Country(i)] {
			indices = append(indices, i)
		}
	}
	return newSubView(view, indices)
}

// MissingCountries lists selected countries that have no computed value.
func MissingCountries(values []CountryValue, countries []string) []string {
	have := make(map[string]bool, len(values))
	for _, v := range values {
		have[v.Country] = true
	}
	var missing []string
	for _, c := range countries {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
