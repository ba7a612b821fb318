package engine

import (
	"math"
	"strings"
)

// ============================================================================
// RECORD VIEW: Zero-Copy Data Access Interface
// ============================================================================
// The engine never owns caller data. It reads through this interface.
//
// Implementations:
//   SliceView     : wraps []PopulationRecord
//   DomainView[T] : reads typed structs via accessor functions (zero-copy)
//   SubView       : filtered subset (indices into parent, zero-copy)
//   ConcatView    : virtual concatenation of several views
//   helpers.ArrowView: columnar access over an arrow.Record
// ============================================================================

// RecordView provides indexed access to a country/year/population relation.
// The engine calls these in tight loops, so implementations must be fast.
type RecordView interface {
	Len() int
	Country(index int) string
	Year(index int) int
	Population(index int) float64
}

// ============================================================================
// SLICE VIEW
// ============================================================================

// SliceView wraps a []PopulationRecord slice as a RecordView.
type SliceView struct {
	records []PopulationRecord
}

// NewSliceView creates a RecordView from a []PopulationRecord slice.
func NewSliceView(records []PopulationRecord) RecordView {
	return &SliceView{records: records}
}

func (v *SliceView) Len() int { return len(v.records) }

func (v *SliceView) Country(i int) string {
	if i < 0 || i >= len(v.records) {
		return ""
	}
	return v.records[i].Country
}

func (v *SliceView) Year(i int) int {
	if i < 0 || i >= len(v.records) {
		return 0
	}
	return v.records[i].Year
}

func (v *SliceView) Population(i int) float64 {
	if i < 0 || i >= len(v.records) {
		return 0
	}
	return v.records[i].Population
}

// ============================================================================
// SUB VIEW: filtered subset (zero-copy)
// ============================================================================

// SubView is a filtered subset of a parent RecordView.
// Holds indices into the parent, no data copy.
type SubView struct {
	parent  RecordView
	indices []int
}

func newSubView(parent RecordView, indices []int) RecordView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) missingField() string { return missingField(v.parent) }

func (v *SubView) Country(i int) string {
	if i < 0 || i >= len(v.indices) {
		return ""
	}
	return v.parent.Country(v.indices[i])
}

func (v *SubView) Year(i int) int {
	if i < 0 || i >= len(v.indices) {
		return 0
	}
	return v.parent.Year(v.indices[i])
}

func (v *SubView) Population(i int) float64 {
	if i < 0 || i >= len(v.indices) {
		return 0
	}
	return v.parent.Population(v.indices[i])
}

// ============================================================================
// CONCAT VIEW: virtual concatenation
// ============================================================================

// ConcatView logically concatenates RecordViews, e.g. one file per region.
type ConcatView struct {
	views  []RecordView
	starts []int
	n      int
}

// Concat joins views without copying. A single view is returned unchanged.
func Concat(views ...RecordView) RecordView {
	if len(views) == 1 {
		return views[0]
	}
	v := &ConcatView{views: views, starts: make([]int, len(views))}
	for i, part := range views {
		v.starts[i] = v.n
		v.n += part.Len()
	}
	return v
}

func (v *ConcatView) Len() int { return v.n }

func (v *ConcatView) missingField() string {
	for _, part := range v.views {
		if f := missingField(part); f != "" {
			return f
		}
	}
	return ""
}

// locate maps a global index to (view, local index).
func (v *ConcatView) locate(i int) (RecordView, int) {
	if i < 0 || i >= v.n {
		return nil, 0
	}
	for k := len(v.starts) - 1; k >= 0; k-- {
		if i >= v.starts[k] {
			return v.views[k], i - v.starts[k]
		}
	}
	return nil, 0
}

func (v *ConcatView) Country(i int) string {
	part, j := v.locate(i)
	if part == nil {
		return ""
	}
	return part.Country(j)
}

func (v *ConcatView) Year(i int) int {
	part, j := v.locate(i)
	if part == nil {
		return 0
	}
	return part.Year(j)
}

func (v *ConcatView) Population(i int) float64 {
	part, j := v.locate(i)
	if part == nil {
		return 0
	}
	return part.Population(j)
}

// ============================================================================
// DOMAIN ADAPTER: Zero-copy typed struct access
// ============================================================================
//
// Usage:
//
//	adapter := engine.NewDomainAdapter[Census]().
//	    CountryFunc(func(c Census) string { return c.Nation }).
//	    YearFunc(func(c Census) int { return c.Year }).
//	    PopulationFunc(func(c Census) float64 { return float64(c.Total) })
//
//	view := adapter.Bind(rows)
//	growth, err := engine.AnnualGrowthRate(view)
//
// ============================================================================

// DomainAdapter builds a RecordView from typed structs.
// Declare once, bind many times.
type DomainAdapter[T any] struct {
	country    func(T) string
	year       func(T) int
	population func(T) float64
}

// NewDomainAdapter creates a new adapter for type T.
func NewDomainAdapter[T any]() *DomainAdapter[T] {
	return &DomainAdapter[T]{}
}

// CountryFunc registers the country accessor.
func (a *DomainAdapter[T]) CountryFunc(fn func(T) string) *DomainAdapter[T] {
	a.country = fn
	return a
}

// YearFunc registers the year accessor.
func (a *DomainAdapter[T]) YearFunc(fn func(T) int) *DomainAdapter[T] {
	a.year = fn
	return a
}

// PopulationFunc registers the population accessor.
func (a *DomainAdapter[T]) PopulationFunc(fn func(T) float64) *DomainAdapter[T] {
	a.population = fn
	return a
}

// Bind creates a RecordView from a data slice. Zero-copy, holds a reference.
// Accessors that were never registered make Validate fail with an input
// shape error for that field.
func (a *DomainAdapter[T]) Bind(data []T) RecordView {
	return &DomainView[T]{
		data:       data,
		country:    a.country,
		year:       a.year,
		population: a.population,
	}
}

// DomainView reads typed struct fields via registered accessor functions.
type DomainView[T any] struct {
	data       []T
	country    func(T) string
	year       func(T) int
	population func(T) float64
}

func (v *DomainView[T]) Len() int { return len(v.data) }

// missingField names the first field without an accessor, or "".
func (v *DomainView[T]) missingField() string {
	switch {
	case v.country == nil:
		return FieldCountry
	case v.year == nil:
		return FieldYear
	case v.population == nil:
		return FieldPopulation
	}
	return ""
}

func (v *DomainView[T]) Country(i int) string {
	if i < 0 || i >= len(v.data) || v.country == nil {
		return ""
	}
	return v.country(v.data[i])
}

func (v *DomainView[T]) Year(i int) int {
	if i < 0 || i >= len(v.data) || v.year == nil {
		return 0
	}
	return v.year(v.data[i])
}

func (v *DomainView[T]) Population(i int) float64 {
	if i < 0 || i >= len(v.data) || v.population == nil {
		return math.NaN()
	}
	return v.population(v.data[i])
}

// ============================================================================
// VALIDATION
// ============================================================================

// fieldChecker is implemented by views that can lack a whole field.
type fieldChecker interface {
	missingField() string
}

func missingField(view RecordView) string {
	if fc, ok := view.(fieldChecker); ok {
		return fc.missingField()
	}
	return ""
}

// Validate checks that the view has every field, then every row: a
// non-empty country and a finite population. The first problem is
// returned as an *InputShapeError; a missing field is reported at row 0.
func Validate(view RecordView) error {
	if f := missingField(view); f != "" {
		return NewInputShapeError(0, f, "no accessor")
	}
	for i := 0; i < view.Len(); i++ {
		if strings.TrimSpace(view.Country(i)) == "" {
			return NewInputShapeError(i+1, FieldCountry, "missing country")
		}
		p := view.Population(i)
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return NewInputShapeError(i+1, FieldPopulation, "population is not a finite number")
		}
	}
	return nil
}

// Materialize copies a view into a slice. Used when a view's backing
// storage has a shorter lifetime than the caller (e.g. Arrow buffers).
func Materialize(view RecordView) []PopulationRecord {
	out := make([]PopulationRecord, view.Len())
	for i := range out {
		out[i] = PopulationRecord{
			Country:    view.Country(i),
			Year:       view.Year(i),
			Population: view.Population(i),
		}
	}
	return out
}
