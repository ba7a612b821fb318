package engine

import (
	json "github.com/goccy/go-json"
)

// ============================================================================
// DEMOGRAFIA ENGINE TYPES: Population Growth Indicators
// ============================================================================
// Input:  PopulationRecord rows read through RecordView.
// Output: CountryValue per country, plus render-ready Report pieces.
// ============================================================================

// Field names of the input relation as produced by the data loaders.
const (
	FieldCountry    = "País"
	FieldYear       = "Año"
	FieldPopulation = "Población"
)

// Indicator names, used in reports, logs and metrics labels.
const (
	IndicatorGrowthRate    = "growth_rate"
	IndicatorYearOverYear  = "yoy_growth"
	IndicatorAverageAnnual = "average_annual_growth"
)

// Reasons attached to undefined values.
const (
	ReasonZeroPopulation   = "zero_population"
	ReasonInsufficientData = "insufficient_data"
	ReasonOverflow         = "overflow"
)

// DefaultRankLimit is how many leaders and laggards a ranking keeps.
const DefaultRankLimit = 5

// ============================================================================
// RECORD
// ============================================================================

// PopulationRecord is one observation of the input relation.
type PopulationRecord struct {
	Country    string  `json:"País"`
	Year       int     `json:"Año"`
	Population float64 `json:"Población"`
}

// ============================================================================
// COUNTRY VALUE: per-country indicator result
// ============================================================================

// CountryValue is an indicator computed for one country.
//
// When Defined is false the value is the "undefined" sentinel: Value is 0
// and must not be plotted or ranked. Reason says why.
type CountryValue struct {
	Country string
	Value   float64
	Defined bool
	Reason  string
}

func definedValue(country string, v float64) CountryValue {
	return CountryValue{Country: country, Value: v, Defined: true}
}

func undefinedValue(country, reason string) CountryValue {
	return CountryValue{Country: country, Reason: reason}
}

// Float returns the value and whether it is defined.
func (v CountryValue) Float() (float64, bool) {
	return v.Value, v.Defined
}

type countryValueJSON struct {
	Country string   `json:"country"`
	Value   *float64 `json:"value"`
	Reason  string   `json:"reason,omitempty"`
}

// MarshalJSON encodes undefined values as null.
func (v CountryValue) MarshalJSON() ([]byte, error) {
	out := countryValueJSON{Country: v.Country, Reason: v.Reason}
	if v.Defined {
		val := v.Value
		out.Value = &val
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (v *CountryValue) UnmarshalJSON(data []byte) error {
	var in countryValueJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*v = CountryValue{Country: in.Country, Reason: in.Reason}
	if in.Value != nil {
		v.Value = *in.Value
		v.Defined = true
	}
	return nil
}

// ToMap re-keys indicator values by country.
func ToMap(values []CountryValue) map[string]CountryValue {
	m := make(map[string]CountryValue, len(values))
	for _, v := range values {
		m[v.Country] = v
	}
	return m
}

// ============================================================================
// SELECTION / REPORT
// ============================================================================

// Selection is the subset of countries a caller wants to display.
// Empty means every country in the relation.
type Selection struct {
	Countries []string `json:"countries"`
}

// Ranking holds the top growth and top decline countries.
type Ranking struct {
	Leaders  []CountryValue `json:"leaders"`
	Laggards []CountryValue `json:"laggards"`
}

// UndefinedValue flags one sentinel so presentation can render it distinctly.
type UndefinedValue struct {
	Indicator string `json:"indicator"`
	Country   string `json:"country"`
	Reason    string `json:"reason"`
}

// Report is the render-ready output of Execute.
type Report struct {
	RunID     string   `json:"runId"`
	Records   int      `json:"records"`
	Countries int      `json:"countries"`
	Selection []string `json:"selection"`
	Missing   []string `json:"missing,omitempty"`
	Summary   string   `json:"summary"`

	GrowthRates   []CountryValue `json:"growthRates"`
	YearOverYear  []CountryValue `json:"yearOverYear"`
	Ranking       Ranking        `json:"ranking"`
	AverageAnnual []CountryValue `json:"averageAnnual"`

	Undefined []UndefinedValue `json:"undefined,omitempty"`

	GrowthChart     *ChartConfig      `json:"growthChart,omitempty"`
	RankingChart    *ChartConfig      `json:"rankingChart,omitempty"`
	PopulationChart *ChartConfig      `json:"populationChart,omitempty"`
	Choropleth      *ChoroplethConfig `json:"choropleth,omitempty"`
	Table           *TableData        `json:"table,omitempty"`
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Horizontal bool          `json:"horizontal,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint represents a single data point.
// Undefined points carry Value 0 and must be drawn as "no value".
type ChartPoint struct {
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	Undefined bool    `json:"undefined,omitempty"`
}

// ChoroplethConfig pairs per-country values with boundary features.
type ChoroplethConfig struct {
	FeatureIDKey string          `json:"featureIdKey"`
	MapStyle     string          `json:"mapStyle"`
	ColorScale   string          `json:"colorScale"`
	Center       MapCenter       `json:"center"`
	Zoom         float64         `json:"zoom"`
	Opacity      float64         `json:"opacity"`
	Label        string          `json:"label"`
	Locations    []string        `json:"locations"`
	Values       []float64       `json:"values"`
	Unmatched    []string        `json:"unmatched,omitempty"`
	Features     json.RawMessage `json:"features,omitempty"`
}

// MapCenter is a latitude/longitude pair.
type MapCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number", "percent"
	Align string `json:"align"` // "left", "center", "right"
}

// Summary provides totals for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}
