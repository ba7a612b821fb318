package helpers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/demografia/engine"
	"github.com/spektr-org/demografia/schema"
)

var populationCSV = []byte("\ufeffPaís,Año,Población,Región\n" +
	"Guatemala,2000,11650743,Centroamérica\n" +
	"Guatemala,2001,11924946.0,Centroamérica\n" +
	"Honduras,2000.0,6574509,Centroamérica\n")

func TestParseCSV(t *testing.T) {
	records, err := ParseCSV(populationCSV, *schema.Default())
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, engine.PopulationRecord{Country: "Guatemala", Year: 2000, Population: 11650743}, records[0])
	assert.Equal(t, 11924946.0, records[1].Population)
	assert.Equal(t, 2000, records[2].Year)
}

func TestParseCSVShapeErrors(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		row   int
		field string
	}{
		{"missing year column", "País,Población\nPerú,1\n", 0, engine.FieldYear},
		{"non-numeric population", "País,Año,Población\nPerú,2000,1\nPerú,2001,muchos\n", 2, engine.FieldPopulation},
		{"empty population", "País,Año,Población\nPerú,2000,\n", 1, engine.FieldPopulation},
		{"fractional year", "País,Año,Población\nPerú,2000.5,1\n", 1, engine.FieldYear},
		{"empty country", "País,Año,Población\n ,2000,1\n", 1, engine.FieldCountry},
		{"short row", "País,Año,Población\nPerú,2000\n", 1, engine.FieldPopulation},
		{"NaN population", "País,Año,Población\nPerú,2000,NaN\n", 1, engine.FieldPopulation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV([]byte(tt.data), *schema.Default())
			require.Error(t, err)
			assert.True(t, errors.Is(err, engine.ErrInputShape), "got %v", err)

			var shapeErr *engine.InputShapeError
			require.ErrorAs(t, err, &shapeErr)
			assert.Equal(t, tt.row, shapeErr.Row)
			assert.Equal(t, tt.field, shapeErr.Field)
		})
	}
}

func TestParseCSVCustomSchema(t *testing.T) {
	sch := schema.Config{Columns: schema.Columns{Country: "Nation", Year: "Yr", Population: "People"}}
	view, err := ParseCSVView([]byte("Yr,People,Nation\n1990,10,Chile\n1991,12,Chile\n"), sch)
	require.NoError(t, err)

	values, err := engine.AnnualGrowthRate(view)
	require.NoError(t, err)
	assert.Equal(t, 20.0, values[0].Value)
}

func TestParseCSVAuto(t *testing.T) {
	data := []byte("Country Name,Year,Population Total\nBolivia,2000,100\nBolivia,2001,110\n")
	view, sch, err := ParseCSVAutoView(data)
	require.NoError(t, err)
	assert.Equal(t, "Population Total", sch.Columns.Population)
	assert.Equal(t, 2, view.Len())
	assert.Equal(t, "Bolivia", view.Country(1))
}

func TestParseJSONRows(t *testing.T) {
	view, err := ParseJSONRows([]byte(`[
		{"País": "Ecuador", "Año": 2000, "Población": 12626507},
		{"País": "Ecuador", "Año": 2001, "Población": 12843890.5}
	]`), *schema.Default())
	require.NoError(t, err)
	require.Equal(t, 2, view.Len())
	assert.Equal(t, 12843890.5, view.Population(1))

	_, err = ParseJSONRows([]byte(`[{"País": "Ecuador", "Año": "2000", "Población": 1}]`), *schema.Default())
	assert.ErrorIs(t, err, engine.ErrInputShape)

	_, err = ParseJSONRows([]byte(`{not json`), *schema.Default())
	require.Error(t, err)
	assert.NotErrorIs(t, err, engine.ErrInputShape)
}

func TestCSVAndJSONAgreeOnYears(t *testing.T) {
	tests := []struct {
		year string
		want int
		ok   bool
	}{
		{"2000", 2000, true},
		{"2000.0", 2000, true},
		{"2000.5", 0, false},
		{"1e20", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.year, func(t *testing.T) {
			csvView, csvErr := ParseCSVView([]byte("País,Año,Población\nPerú,"+tt.year+",1\n"), *schema.Default())
			jsonView, jsonErr := ParseJSONRows([]byte(`[{"País": "Perú", "Año": `+tt.year+`, "Población": 1}]`), *schema.Default())

			if !tt.ok {
				assert.ErrorIs(t, csvErr, engine.ErrInputShape)
				assert.ErrorIs(t, jsonErr, engine.ErrInputShape)
				return
			}
			require.NoError(t, csvErr)
			require.NoError(t, jsonErr)
			assert.Equal(t, tt.want, csvView.Year(0))
			assert.Equal(t, tt.want, jsonView.Year(0))
		})
	}
}
