package engine

import (
	"fmt"
	"strings"
)

// ============================================================================
// TEXT BUILDER: One-paragraph summary of a report
// ============================================================================

// BuildSummary describes a report in plain text: coverage, the strongest
// grower and decliner, and how many values are undefined.
func BuildSummary(r *Report) string {
	if r.Countries == 0 {
		return "No data available to analyze."
	}

	parts := []string{
		fmt.Sprintf("Computed indicators for %s countries from %s records.",
			FormatInt(r.Countries), FormatInt(r.Records)),
	}

	if len(r.Ranking.Leaders) > 0 {
		top := r.Ranking.Leaders[0]
		parts = append(parts, fmt.Sprintf("Fastest average growth: %s (%s).",
			top.Country, FormatPercent(top.Value)))
	}
	if len(r.Ranking.Laggards) > 0 {
		low := r.Ranking.Laggards[0]
		parts = append(parts, fmt.Sprintf("Slowest: %s (%s).",
			low.Country, FormatPercent(low.Value)))
	}

	if n := len(r.Undefined); n > 0 {
		parts = append(parts, fmt.Sprintf("%d value(s) undefined.", n))
	}
	if len(r.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("Not in data: %s.", strings.Join(r.Missing, ", ")))
	}

	return strings.Join(parts, " ")
}
