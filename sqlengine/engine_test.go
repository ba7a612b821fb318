package sqlengine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tillberg/alog"

	"github.com/spektr-org/demografia/engine"
)

// mixedRecords covers sparse years, duplicate rows, zero populations and
// single-year countries.
var mixedRecords = []engine.PopulationRecord{
	{Country: "Honduras", Year: 2010, Population: 150},
	{Country: "Honduras", Year: 2000, Population: 100},
	{Country: "Bolivia", Year: 2000, Population: 100},
	{Country: "Bolivia", Year: 2001, Population: 110},
	{Country: "Bolivia", Year: 2002, Population: 99},
	{Country: "Panamá", Year: 2005, Population: 42},
	{Country: "Ecuador", Year: 2000, Population: 0},
	{Country: "Ecuador", Year: 2001, Population: 10},
	{Country: "Ecuador", Year: 2002, Population: 20},
	{Country: "Guatemala", Year: 2000, Population: 40},
	{Country: "Guatemala", Year: 2000, Population: 60},
	{Country: "Guatemala", Year: 2003, Population: 130},
	{Country: "Cuba", Year: 2000, Population: 10},
	{Country: "Cuba", Year: 2001, Population: 0},
	{Country: "Cuba", Year: 2002, Population: 5},
	{Country: "Atlántida", Year: 1999, Population: 0},
}

var sharedEngine *Engine
var sharedEngineOnce sync.Once

func getEngine() *Engine {
	sharedEngineOnce.Do(func() {
		e, err := Open("", 1)
		alog.BailIf(err)
		sharedEngine = e
	})
	return sharedEngine
}

func assertSameValues(t *testing.T, want, got []engine.CountryValue) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Country, got[i].Country)
		assert.Equal(t, want[i].Defined, got[i].Defined, want[i].Country)
		assert.Equal(t, want[i].Reason, got[i].Reason, want[i].Country)
		assert.InDelta(t, want[i].Value, got[i].Value, 1e-9, want[i].Country)
	}
}

func TestMatchesNative(t *testing.T) {
	ctx := context.Background()
	view := engine.NewSliceView(mixedRecords)
	native := engine.NewNative()
	duck := getEngine()

	tests := []struct {
		name   string
		native func(context.Context, engine.RecordView) ([]engine.CountryValue, error)
		duck   func(context.Context, engine.RecordView) ([]engine.CountryValue, error)
	}{
		{engine.IndicatorGrowthRate, native.AnnualGrowthRate, duck.AnnualGrowthRate},
		{engine.IndicatorYearOverYear, native.GrowthLeadersAndLaggards, duck.GrowthLeadersAndLaggards},
		{engine.IndicatorAverageAnnual, native.AverageAnnualGrowth, duck.AverageAnnualGrowth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, err := tt.native(ctx, view)
			require.NoError(t, err)
			got, err := tt.duck(ctx, view)
			require.NoError(t, err)
			assertSameValues(t, want, got)
		})
	}
}

func TestSentinels(t *testing.T) {
	ctx := context.Background()
	view := engine.NewSliceView(mixedRecords)

	growth, err := getEngine().AnnualGrowthRate(ctx, view)
	require.NoError(t, err)
	byCountry := engine.ToMap(growth)
	assert.False(t, byCountry["Ecuador"].Defined)
	assert.Equal(t, engine.ReasonZeroPopulation, byCountry["Ecuador"].Reason)
	assert.True(t, byCountry["Atlántida"].Defined, "single observed year is 0 even at zero population")

	yoy, err := getEngine().GrowthLeadersAndLaggards(ctx, view)
	require.NoError(t, err)
	byCountry = engine.ToMap(yoy)
	assert.Equal(t, engine.ReasonInsufficientData, byCountry["Panamá"].Reason)
	assert.Equal(t, engine.ReasonZeroPopulation, byCountry["Cuba"].Reason)
	assert.Equal(t, 0.0, byCountry["Bolivia"].Value)
}

func TestExecuteWithDuckDB(t *testing.T) {
	ctx := context.Background()
	view := engine.NewSliceView(mixedRecords)

	native, err := engine.Execute(ctx, view, engine.Selection{}, engine.WithRunID("x"))
	require.NoError(t, err)
	duck, err := engine.Execute(ctx, view, engine.Selection{}, engine.WithRunID("x"), engine.WithCalculator(getEngine()))
	require.NoError(t, err)

	assert.Equal(t, countries(native.Ranking.Leaders), countries(duck.Ranking.Leaders))
	assert.Equal(t, native.Undefined, duck.Undefined)
}

func TestEmptyAndInvalidViews(t *testing.T) {
	ctx := context.Background()

	values, err := getEngine().AnnualGrowthRate(ctx, engine.NewSliceView(nil))
	require.NoError(t, err)
	assert.Empty(t, values)

	_, err = getEngine().AnnualGrowthRate(ctx, engine.NewSliceView([]engine.PopulationRecord{{Country: "", Year: 2000, Population: 1}}))
	assert.ErrorIs(t, err, engine.ErrInputShape)
}

func TestReloadsDifferentView(t *testing.T) {
	ctx := context.Background()
	e := getEngine()

	first := engine.NewSliceView([]engine.PopulationRecord{
		{Country: "A", Year: 2000, Population: 10},
		{Country: "A", Year: 2001, Population: 20},
	})
	second := engine.NewSliceView([]engine.PopulationRecord{
		{Country: "B", Year: 2000, Population: 10},
		{Country: "B", Year: 2001, Population: 15},
	})

	a, err := e.AnnualGrowthRate(ctx, first)
	require.NoError(t, err)
	b, err := e.AnnualGrowthRate(ctx, second)
	require.NoError(t, err)

	assert.Equal(t, "A", a[0].Country)
	assert.Equal(t, 100.0, a[0].Value)
	assert.Equal(t, "B", b[0].Country)
	assert.Equal(t, 50.0, b[0].Value)
}

func TestReloadsMutatedView(t *testing.T) {
	ctx := context.Background()
	e := getEngine()

	records := []engine.PopulationRecord{
		{Country: "A", Year: 2000, Population: 10},
		{Country: "A", Year: 2001, Population: 20},
	}
	view := engine.NewSliceView(records)

	before, err := e.AnnualGrowthRate(ctx, view)
	require.NoError(t, err)
	assert.Equal(t, 100.0, before[0].Value)

	// Same view, new backing data
	records[1].Population = 15
	after, err := e.AnnualGrowthRate(ctx, view)
	require.NoError(t, err)
	assert.Equal(t, 50.0, after[0].Value)

	native, err := engine.AnnualGrowthRate(view)
	require.NoError(t, err)
	assertSameValues(t, native, after)
}

func TestSubnormalDivisorMatchesNative(t *testing.T) {
	ctx := context.Background()
	view := engine.NewSliceView([]engine.PopulationRecord{
		{Country: "Tiny", Year: 2000, Population: 1e-310},
		{Country: "Tiny", Year: 2001, Population: 1},
	})

	want, err := engine.AnnualGrowthRate(view)
	require.NoError(t, err)
	got, err := getEngine().AnnualGrowthRate(ctx, view)
	require.NoError(t, err)
	assertSameValues(t, want, got)
	assert.Equal(t, engine.ReasonZeroPopulation, got[0].Reason)

	want, err = engine.GrowthLeadersAndLaggards(view)
	require.NoError(t, err)
	got, err = getEngine().GrowthLeadersAndLaggards(ctx, view)
	require.NoError(t, err)
	assertSameValues(t, want, got)
}

func TestFingerprint(t *testing.T) {
	a := engine.NewSliceView([]engine.PopulationRecord{{Country: "AB", Year: 2000, Population: 1}})
	b := engine.NewSliceView([]engine.PopulationRecord{{Country: "AB", Year: 2000, Population: 1}})
	c := engine.NewSliceView([]engine.PopulationRecord{{Country: "AB", Year: 2001, Population: 1}})

	assert.Equal(t, fingerprint(a), fingerprint(b))
	assert.NotEqual(t, fingerprint(a), fingerprint(c))
}

func countries(values []engine.CountryValue) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.Country
	}
	return out
}

func BenchmarkDuckDBGrowthLeadersAndLaggards(b *testing.B) {
	ctx := context.Background()
	view := engine.NewSliceView(mixedRecords)
	e := getEngine()
	alog.BailIf(e.Load(ctx, view))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := e.GrowthLeadersAndLaggards(ctx, view)
		alog.BailIf(err)
	}
}
