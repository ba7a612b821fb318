package engine

import "strconv"

// ============================================================================
// CHART BUILDER: Produces ChartConfig from indicator values
// ============================================================================
// Charts are render-ready: values are rounded for display and undefined
// values are flagged per point instead of being plotted as numbers.
// ============================================================================

// Default color palette for multi-series charts.
var defaultColors = []string{
	"#03045e", "#0077b6", "#00b4d8", "#48cae4", "#90e0ef",
	"#023e8a", "#0096c7", "#ade8f4", "#caf0f8", "#6c757d",
}

const (
	growthColor  = "#03045e"
	declineColor = "#48cae4"
)

// BuildGrowthRateChart renders per-country growth rates as a bar chart.
func BuildGrowthRateChart(values []CountryValue) *ChartConfig {
	if len(values) == 0 {
		return nil
	}
	return &ChartConfig{
		ChartType: "bar",
		Title:     "Population growth rate",
		XAxis:     FieldCountry,
		YAxis:     "Growth (%)",
		Series: []ChartSeries{{
			Name:  "Growth rate",
			Data:  toPoints(values),
			Color: growthColor,
		}},
		Colors:   []string{growthColor},
		ShowGrid: true,
	}
}

// BuildRankingChart renders the top decline and top growth countries as a
// horizontal bar chart. Growth bars are listed smallest first so the
// largest ends up on top, like the decline bars.
func BuildRankingChart(r Ranking) *ChartConfig {
	if len(r.Leaders) == 0 && len(r.Laggards) == 0 {
		return nil
	}

	leaders := make([]CountryValue, len(r.Leaders))
	for i, v := range r.Leaders {
		leaders[len(leaders)-1-i] = v
	}

	return &ChartConfig{
		ChartType:  "bar",
		Title:      "Top growth and decline by average year-over-year change",
		XAxis:      "Average year-over-year growth (%)",
		YAxis:      FieldCountry,
		Horizontal: true,
		Series: []ChartSeries{
			{Name: "Decline", Data: toPoints(r.Laggards), Color: declineColor},
			{Name: "Growth", Data: toPoints(leaders), Color: growthColor},
		},
		Colors:     []string{declineColor, growthColor},
		ShowLegend: true,
	}
}

// BuildPopulationChart renders the population series of the selected
// countries as a line chart, one series per country.
func BuildPopulationChart(view RecordView, countries []string) *ChartConfig {
	groups := groupSeries(FilterView(view, countries))
	if len(groups) == 0 {
		return nil
	}

	series := make([]ChartSeries, 0, len(groups))
	for i, g := range groups {
		points := make([]ChartPoint, len(g.years))
		for j, y := range g.years {
			points[j] = ChartPoint{Label: strconv.Itoa(y), Value: g.pops[j]}
		}
		series = append(series, ChartSeries{
			Name:  g.country,
			Data:  points,
			Color: defaultColors[i%len(defaultColors)],
		})
	}

	return &ChartConfig{
		ChartType:  "line",
		Title:      "Population growth",
		XAxis:      FieldYear,
		YAxis:      FieldPopulation,
		Series:     series,
		Colors:     assignColors(len(series)),
		ShowLegend: true,
		ShowGrid:   true,
	}
}

func toPoints(values []CountryValue) []ChartPoint {
	points := make([]ChartPoint, 0, len(values))
	for _, v := range values {
		p := ChartPoint{Label: v.Country}
		if v.Defined {
			p.Value = RoundTo2(v.Value)
		} else {
			p.Undefined = true
		}
		points = append(points, p)
	}
	return points
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
