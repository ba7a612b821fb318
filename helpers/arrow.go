package helpers

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/spektr-org/demografia/engine"
	"github.com/spektr-org/demografia/schema"
)

// ============================================================================
// ARROW HELPER: Columnar relation
// ============================================================================
// ToArrow     : RecordView → arrow.Record (canonical field names)
// ArrowView   : arrow.Record → RecordView, zero-copy over the buffers
//
// Accepted column types:
//   country     utf8, large_utf8
//   year        int16, int32, int64
//   population  float32, float64, int32, int64
// Nulls are input shape errors.
// ============================================================================

// PopulationSchema is the Arrow schema written by ToArrow.
var PopulationSchema = arrow.NewSchema(
	[]arrow.Field{
		{Name: engine.FieldCountry, Type: arrow.BinaryTypes.String},
		{Name: engine.FieldYear, Type: arrow.PrimitiveTypes.Int64},
		{Name: engine.FieldPopulation, Type: arrow.PrimitiveTypes.Float64},
	},
	nil,
)

// ToArrow copies a view into a new arrow.Record. The caller releases it.
func ToArrow(view engine.RecordView, mem memory.Allocator) arrow.Record {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	rb := array.NewRecordBuilder(mem, PopulationSchema)
	defer rb.Release()

	countryBuilder := rb.Field(0).(*array.StringBuilder)
	yearBuilder := rb.Field(1).(*array.Int64Builder)
	popBuilder := rb.Field(2).(*array.Float64Builder)

	n := view.Len()
	countryBuilder.Reserve(n)
	yearBuilder.Reserve(n)
	popBuilder.Reserve(n)
	for i := 0; i < n; i++ {
		countryBuilder.Append(view.Country(i))
		yearBuilder.Append(int64(view.Year(i)))
		popBuilder.Append(view.Population(i))
	}

	return rb.NewRecord()
}

// ArrowView reads an arrow.Record through engine.RecordView.
// It retains the record; call Release when done.
type ArrowView struct {
	rec        arrow.Record
	country    func(int) string
	year       func(int) int
	population func(int) float64
}

// NewArrowView resolves the schema's columns in rec and type-checks them.
func NewArrowView(rec arrow.Record, sch schema.Config) (*ArrowView, error) {
	fields := rec.Schema().Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	m, err := sch.Resolve(names)
	if err != nil {
		return nil, err
	}

	v := &ArrowView{rec: rec}
	if v.country, err = stringColumn(rec.Column(m.Country)); err != nil {
		return nil, err
	}
	if v.year, err = intColumn(rec.Column(m.Year)); err != nil {
		return nil, err
	}
	if v.population, err = floatColumn(rec.Column(m.Population)); err != nil {
		return nil, err
	}
	rec.Retain()
	return v, nil
}

func (v *ArrowView) Len() int { return int(v.rec.NumRows()) }

func (v *ArrowView) Country(i int) string {
	if i < 0 || i >= v.Len() {
		return ""
	}
	return v.country(i)
}

func (v *ArrowView) Year(i int) int {
	if i < 0 || i >= v.Len() {
		return 0
	}
	return v.year(i)
}

func (v *ArrowView) Population(i int) float64 {
	if i < 0 || i >= v.Len() {
		return 0
	}
	return v.population(i)
}

// Release drops the view's reference to the record.
func (v *ArrowView) Release() {
	v.rec.Release()
}

// ============================================================================
// COLUMN ACCESSORS
// ============================================================================

func checkNulls(col arrow.Array, field string) error {
	if col.NullN() == 0 {
		return nil
	}
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			return engine.NewInputShapeError(i+1, field, "null value")
		}
	}
	return nil
}

func wrongType(field string, col arrow.Array) error {
	return engine.NewInputShapeError(0, field, fmt.Sprintf("unsupported column type %s", col.DataType()))
}

func stringColumn(col arrow.Array) (func(int) string, error) {
	if err := checkNulls(col, engine.FieldCountry); err != nil {
		return nil, err
	}
	switch c := col.(type) {
	case *array.String:
		return c.Value, nil
	case *array.LargeString:
		return c.Value, nil
	}
	return nil, wrongType(engine.FieldCountry, col)
}

func intColumn(col arrow.Array) (func(int) int, error) {
	if err := checkNulls(col, engine.FieldYear); err != nil {
		return nil, err
	}
	switch c := col.(type) {
	case *array.Int64:
		return func(i int) int { return int(c.Value(i)) }, nil
	case *array.Int32:
		return func(i int) int { return int(c.Value(i)) }, nil
	case *array.Int16:
		return func(i int) int { return int(c.Value(i)) }, nil
	}
	return nil, wrongType(engine.FieldYear, col)
}

func floatColumn(col arrow.Array) (func(int) float64, error) {
	if err := checkNulls(col, engine.FieldPopulation); err != nil {
		return nil, err
	}
	switch c := col.(type) {
	case *array.Float64:
		return c.Value, nil
	case *array.Float32:
		return func(i int) float64 { return float64(c.Value(i)) }, nil
	case *array.Int64:
		return func(i int) float64 { return float64(c.Value(i)) }, nil
	case *array.Int32:
		return func(i int) float64 { return float64(c.Value(i)) }, nil
	}
	return nil, wrongType(engine.FieldPopulation, col)
}
