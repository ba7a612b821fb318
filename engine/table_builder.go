package engine

import (
	"fmt"
)

// ============================================================================
// TABLE BUILDER: One row per selected country, all three indicators
// ============================================================================

// BuildIndicatorTable joins the three indicators on country.
// Countries are taken from the growth rates; the other indicators are
// looked up by name, never by position.
func BuildIndicatorTable(growth, yoy, average []CountryValue) *TableData {
	columns := []Column{
		{Key: "country", Label: FieldCountry, Type: "text", Align: "left"},
		{Key: IndicatorGrowthRate, Label: "Growth rate", Type: "percent", Align: "right"},
		{Key: IndicatorYearOverYear, Label: "Avg YoY growth", Type: "percent", Align: "right"},
		{Key: IndicatorAverageAnnual, Label: "Avg annual growth", Type: "number", Align: "right"},
	}

	if len(growth) == 0 {
		return &TableData{
			Title:   "Population indicators",
			Columns: columns,
			Rows:    [][]string{},
		}
	}

	yoyByCountry := ToMap(yoy)
	avgByCountry := ToMap(average)

	rows := make([][]string, 0, len(growth))
	undefined := 0
	for _, g := range growth {
		y, ok := yoyByCountry[g.Country]
		if !ok {
			y = undefinedValue(g.Country, ReasonInsufficientData)
		}
		a, ok := avgByCountry[g.Country]
		if !ok {
			a = undefinedValue(g.Country, ReasonInsufficientData)
		}
		for _, v := range []CountryValue{g, y, a} {
			if !v.Defined {
				undefined++
			}
		}
		rows = append(rows, []string{
			g.Country,
			FormatValue(g, true),
			FormatValue(y, true),
			FormatValue(a, false),
		})
	}

	return &TableData{
		Title:   "Population indicators",
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label: fmt.Sprintf("%d countries", len(rows)),
			Values: map[string]string{
				"undefined": fmt.Sprintf("%d", undefined),
			},
		},
	}
}
