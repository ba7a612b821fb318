package main

import (
	"github.com/spf13/cobra"

	"github.com/spektr-org/demografia/engine"
)

// ============================================================================
// DEMOGRAFIA CLI: Population growth indicators
// ============================================================================

const version = "0.3.0"

func addCommands(root *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compute every indicator, the ranking, charts and summary",
		Args:  cobra.NoArgs,
		Run:   runReport}
	cmd.Flags().String("xlsx", "", "also write the report as an XLSX workbook")
	cmd.Flags().String("png-dir", "", "also render the charts as PNG files into this directory")
	cmd.Flags().String("geojson", "", "country boundaries for the choropleth (GeoJSON FeatureCollection)")
	cmd.Flags().String("feature-key", "", "feature property holding the country name (default: name)")
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "growth",
		Short: "Growth rate between each country's first and last year",
		Args:  cobra.NoArgs,
		Run:   runIndicator(engine.IndicatorGrowthRate)}
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "yoy",
		Short: "Average year-over-year growth and its leaders and laggards",
		Args:  cobra.NoArgs,
		Run:   runIndicator(engine.IndicatorYearOverYear)}
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "average",
		Short: "Average absolute population change per year",
		Args:  cobra.NoArgs,
		Run:   runIndicator(engine.IndicatorAverageAnnual)}
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "discover file.csv",
		Short: "Detect the country, year and population columns of a CSV",
		Args:  cobra.ExactArgs(1),
		Run:   runDiscover}
	cmd.Flags().Int("sample", 1000, "rows to inspect (0 = all)")
	cmd.Flags().String("name", "", "dataset name")
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "convert input output.parquet",
		Short: "Convert a data file to Parquet with canonical column names",
		Args:  cobra.ExactArgs(2),
		Run:   runConvert}
	root.AddCommand(cmd)
}

func newRootCommand() *cobra.Command {
	var root = &cobra.Command{
		Use:     "demografia",
		Short:   "Population growth indicators per country",
		Version: version,
		Long: `Demografia computes population growth indicators per country from a
relation of (País, Año, Población) rows.

Indicators are always computed on the full relation; --countries only picks
what is displayed.

Environment:
  DEMOGRAFIA_DATA, DEMOGRAFIA_SCHEMA, DEMOGRAFIA_COUNTRIES,
  DEMOGRAFIA_BACKEND, DEMOGRAFIA_PARALLELISM, DEMOGRAFIA_RANK_LIMIT,
  DEMOGRAFIA_DUCKDB_PATH, DEMOGRAFIA_PUSHGATEWAY, DEMOGRAFIA_GEOJSON,
  DEMOGRAFIA_FEATURE_KEY

Formats:
  json      Full JSON output (default)
  pretty    Pretty-printed JSON
  text      Human-readable summary only
  csv       Table data as CSV (ready for Sheets/Excel)`,
	}
	root.PersistentFlags().StringArray("data", nil, "data file (.csv, .parquet, .json); repeatable")
	root.PersistentFlags().String("schema", "", "schema file mapping column names (YAML or JSON)")
	root.PersistentFlags().String("config", "", "run configuration file (YAML)")
	root.PersistentFlags().String("countries", "", "comma-separated countries to display")
	root.PersistentFlags().Bool("all", false, "display every country")
	root.PersistentFlags().String("backend", "", "calculator: native or duckdb")
	root.PersistentFlags().Int("parallelism", 0, "countries reduced concurrently (native backend)")
	root.PersistentFlags().Int("rank-limit", 0, "leaders and laggards to keep")
	root.PersistentFlags().String("pushgateway", "", "Prometheus Pushgateway URL")
	root.PersistentFlags().String("format", "json", "output format: json, pretty, text, csv")
	root.PersistentFlags().StringP("out", "o", "", "write output to file instead of stdout")
	addCommands(root)
	return root
}

func main() {
	newRootCommand().Execute()
}
