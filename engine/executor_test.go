package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute(t *testing.T) {
	sel := Selection{Countries: []string{"Honduras", "Ecuador", "Atlantis"}}
	report, err := Execute(context.Background(), NewSliceView(latamRecords), sel, WithRunID("run-1"))
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, len(latamRecords), report.Records)
	assert.Equal(t, 5, report.Countries)
	assert.Equal(t, []string{"Atlantis"}, report.Missing)

	// filtered for display, in country order
	assert.Equal(t, []string{"Ecuador", "Honduras"}, countriesOf(report.GrowthRates))
	assert.Equal(t, []string{"Ecuador", "Honduras"}, countriesOf(report.YearOverYear))
	assert.Equal(t, []string{"Ecuador", "Honduras"}, countriesOf(report.AverageAnnual))

	// ranking runs over every country, not just the selection
	assert.Equal(t, []string{"Honduras", "Guatemala", "Bolivia"}, countriesOf(report.Ranking.Leaders))
	assert.Equal(t, []string{"Bolivia", "Guatemala", "Honduras"}, countriesOf(report.Ranking.Laggards))

	assert.Equal(t, []UndefinedValue{
		{Indicator: IndicatorGrowthRate, Country: "Ecuador", Reason: ReasonZeroPopulation},
		{Indicator: IndicatorYearOverYear, Country: "Ecuador", Reason: ReasonZeroPopulation},
	}, report.Undefined)

	require.NotNil(t, report.GrowthChart)
	require.NotNil(t, report.RankingChart)
	require.NotNil(t, report.PopulationChart)
	require.NotNil(t, report.Table)
	assert.Len(t, report.Table.Rows, 2)
	assert.Contains(t, report.Summary, "Fastest average growth: Honduras (50.00%)")
	assert.Contains(t, report.Summary, "Not in data: Atlantis")
}

func TestExecuteEmptySelectionShowsEverything(t *testing.T) {
	report, err := Execute(context.Background(), NewSliceView(latamRecords), Selection{})
	require.NoError(t, err)
	assert.Len(t, report.GrowthRates, 5)
	assert.Empty(t, report.Missing)
	assert.NotEmpty(t, report.RunID)
}

func TestExecuteEmptyRelation(t *testing.T) {
	report, err := Execute(context.Background(), NewSliceView(nil), Selection{})
	require.NoError(t, err)
	assert.Equal(t, "No data available to analyze.", report.Summary)
	assert.Nil(t, report.GrowthChart)
}

func TestExecuteRankLimit(t *testing.T) {
	report, err := Execute(context.Background(), NewSliceView(createSampleRecords(12, 5)), Selection{}, WithRankLimit(3))
	require.NoError(t, err)
	assert.Len(t, report.Ranking.Leaders, 3)
	assert.Len(t, report.Ranking.Laggards, 3)
}

func TestExecuteShapeErrorIsFatal(t *testing.T) {
	_, err := Execute(context.Background(), NewSliceView([]PopulationRecord{rec("", 2000, 1)}), Selection{})
	assert.ErrorIs(t, err, ErrInputShape)
}

func TestExecuteCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Execute(ctx, NewSliceView(latamRecords), Selection{})
	assert.True(t, errors.Is(err, context.Canceled))
}

type failingCalculator struct{ *Native }

func (failingCalculator) AverageAnnualGrowth(context.Context, RecordView) ([]CountryValue, error) {
	return nil, errors.New("backend down")
}

func TestExecuteCalculatorError(t *testing.T) {
	_, err := Execute(context.Background(), NewSliceView(latamRecords), Selection{},
		WithCalculator(failingCalculator{NewNative()}))
	assert.EqualError(t, err, "backend down")
}

func TestBuildRankingChart(t *testing.T) {
	chart := BuildRankingChart(Ranking{
		Leaders:  []CountryValue{definedValue("A", 3), definedValue("B", 2)},
		Laggards: []CountryValue{definedValue("C", -1)},
	})
	require.NotNil(t, chart)
	assert.True(t, chart.Horizontal)
	require.Len(t, chart.Series, 2)
	assert.Equal(t, declineColor, chart.Series[0].Color)
	assert.Equal(t, "B", chart.Series[1].Data[0].Label)
	assert.Equal(t, "A", chart.Series[1].Data[1].Label)

	assert.Nil(t, BuildRankingChart(Ranking{}))
}

func TestBuildGrowthRateChartFlagsUndefined(t *testing.T) {
	chart := BuildGrowthRateChart([]CountryValue{
		definedValue("A", 4.5678),
		undefinedValue("B", ReasonZeroPopulation),
	})
	require.NotNil(t, chart)
	points := chart.Series[0].Data
	assert.Equal(t, 4.57, points[0].Value)
	assert.True(t, points[1].Undefined)
	assert.Equal(t, 0.0, points[1].Value)
}

func TestBuildIndicatorTable(t *testing.T) {
	table := BuildIndicatorTable(
		[]CountryValue{definedValue("A", 12.5), undefinedValue("B", ReasonZeroPopulation)},
		[]CountryValue{definedValue("A", 1.25), undefinedValue("B", ReasonZeroPopulation)},
		[]CountryValue{definedValue("A", 12345.678), definedValue("B", -3)},
	)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"A", "12.50%", "1.25%", "12,345.68"}, table.Rows[0])
	assert.Equal(t, []string{"B", "n/a", "n/a", "-3.00"}, table.Rows[1])
	assert.Equal(t, "2", table.Summary.Values["undefined"])
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "1,234,567.89", FormatNumber(1234567.891))
	assert.Equal(t, "-0.50", FormatNumber(-0.5))
	assert.Equal(t, "0.00", FormatNumber(-0.001))
	assert.Equal(t, "-12.35%", FormatPercent(-12.346))
	assert.Equal(t, "1,000", FormatInt(1000))
	assert.Equal(t, "n/a", FormatValue(undefinedValue("X", ReasonInsufficientData), true))
}
