package helpers

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/demografia/engine"
	"github.com/spektr-org/demografia/schema"
)

var sampleRecords = []engine.PopulationRecord{
	{Country: "Panamá", Year: 2000, Population: 3030347},
	{Country: "Panamá", Year: 2001, Population: 3089648},
	{Country: "Bolivia", Year: 2000, Population: 8592656},
}

func TestToArrowAndBack(t *testing.T) {
	rec := ToArrow(engine.NewSliceView(sampleRecords), nil)
	defer rec.Release()
	assert.EqualValues(t, 3, rec.NumRows())

	view, err := NewArrowView(rec, *schema.Default())
	require.NoError(t, err)
	defer view.Release()

	assert.Equal(t, sampleRecords, engine.Materialize(view))
	assert.Equal(t, "", view.Country(99))
}

func TestArrowViewAcceptsNarrowTypes(t *testing.T) {
	sch := arrow.NewSchema([]arrow.Field{
		{Name: "country", Type: arrow.BinaryTypes.String},
		{Name: "year", Type: arrow.PrimitiveTypes.Int16},
		{Name: "population", Type: arrow.PrimitiveTypes.Int32},
	}, nil)
	rb := array.NewRecordBuilder(memory.DefaultAllocator, sch)
	defer rb.Release()
	rb.Field(0).(*array.StringBuilder).AppendValues([]string{"Perú", "Perú"}, nil)
	rb.Field(1).(*array.Int16Builder).AppendValues([]int16{2000, 2001}, nil)
	rb.Field(2).(*array.Int32Builder).AppendValues([]int32{100, 150}, nil)
	rec := rb.NewRecord()
	defer rec.Release()

	mapping := schema.Config{Columns: schema.Columns{Country: "country", Year: "year", Population: "population"}}
	view, err := NewArrowView(rec, mapping)
	require.NoError(t, err)
	defer view.Release()

	values, err := engine.AnnualGrowthRate(view)
	require.NoError(t, err)
	assert.Equal(t, 50.0, values[0].Value)
}

func TestArrowViewRejectsNullsAndWrongTypes(t *testing.T) {
	rb := array.NewRecordBuilder(memory.DefaultAllocator, PopulationSchema)
	defer rb.Release()
	rb.Field(0).(*array.StringBuilder).AppendValues([]string{"A", "B"}, nil)
	rb.Field(1).(*array.Int64Builder).AppendValues([]int64{2000, 2000}, nil)
	rb.Field(2).(*array.Float64Builder).AppendValues([]float64{1, 0}, []bool{true, false})
	rec := rb.NewRecord()
	defer rec.Release()

	_, err := NewArrowView(rec, *schema.Default())
	var shapeErr *engine.InputShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, 2, shapeErr.Row)
	assert.Equal(t, engine.FieldPopulation, shapeErr.Field)

	wrong := arrow.NewSchema([]arrow.Field{
		{Name: engine.FieldCountry, Type: arrow.BinaryTypes.String},
		{Name: engine.FieldYear, Type: arrow.BinaryTypes.String},
		{Name: engine.FieldPopulation, Type: arrow.PrimitiveTypes.Float64},
	}, nil)
	rb2 := array.NewRecordBuilder(memory.DefaultAllocator, wrong)
	defer rb2.Release()
	rb2.Field(0).(*array.StringBuilder).Append("A")
	rb2.Field(1).(*array.StringBuilder).Append("2000")
	rb2.Field(2).(*array.Float64Builder).Append(1)
	rec2 := rb2.NewRecord()
	defer rec2.Release()

	_, err = NewArrowView(rec2, *schema.Default())
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, engine.FieldYear, shapeErr.Field)
}

func TestParquetRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteParquet(&buf, engine.NewSliceView(sampleRecords)))

	records, err := ReadParquet(context.Background(), bytes.NewReader(buf.Bytes()), *schema.Default())
	require.NoError(t, err)
	assert.Equal(t, sampleRecords, records)
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "north.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("País,Año,Población\nChile,2000,40\nChile,2001,50\n"), 0o644))

	var buf bytes.Buffer
	require.NoError(t, WriteParquet(&buf, engine.NewSliceView([]engine.PopulationRecord{
		{Country: "Chile", Year: 2000, Population: 60},
		{Country: "Chile", Year: 2001, Population: 60},
	})))
	pqPath := filepath.Join(dir, "south.parquet")
	require.NoError(t, os.WriteFile(pqPath, buf.Bytes(), 0o644))

	jsonPath := filepath.Join(dir, "extra.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"País":"Perú","Año":2000,"Población":5}]`), 0o644))

	view, err := LoadFiles(context.Background(), []string{csvPath, pqPath, jsonPath}, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, view.Len())

	values, err := engine.AnnualGrowthRate(view)
	require.NoError(t, err)
	assert.Equal(t, 10.0, engine.ToMap(values)["Chile"].Value)

	_, err = LoadFile(context.Background(), filepath.Join(dir, "data.txt"), nil)
	assert.Error(t, err)

	_, err = LoadFiles(context.Background(), nil, nil)
	assert.Error(t, err)
}
