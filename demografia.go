// Package demografia computes population growth indicators per country.
//
// Usage:
//
//	import "github.com/spektr-org/demografia/engine"
//
//	view := engine.NewSliceView(records)
//	report, err := engine.Execute(ctx, view,
//	    engine.Selection{Countries: []string{"Guatemala", "Honduras"}},
//	    engine.WithRankLimit(5),
//	)
//
// Indicators are always computed on the full relation of (País, Año,
// Población) rows; the selection only filters what is displayed. Values
// that would divide by a zero population are returned as undefined, never
// as NaN or Inf.
//
// Loading (CSV, Parquet, JSON) lives in helpers, column mapping in schema,
// the DuckDB calculator in sqlengine, maps in geo, PNG and XLSX output in
// render, and the CLI in cmd/demografia.
package demografia
