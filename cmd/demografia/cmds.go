package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tillberg/alog"

	"github.com/spektr-org/demografia/config"
	"github.com/spektr-org/demografia/engine"
	"github.com/spektr-org/demografia/geo"
	"github.com/spektr-org/demografia/helpers"
	"github.com/spektr-org/demografia/metrics"
	"github.com/spektr-org/demografia/render"
	"github.com/spektr-org/demografia/schema"
	"github.com/spektr-org/demografia/sqlengine"
)

func fatal(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	os.Exit(1)
}

// Action is the per-command state: resolved configuration, metrics and the
// output writer.
type Action struct {
	cmd     *cobra.Command
	run     config.Run
	metrics *metrics.Metrics
	out     io.Writer
	closers []func() error
	ctx     context.Context
	start   time.Time
}

func newAction(cmd *cobra.Command) *Action {
	a := &Action{cmd: cmd, start: time.Now(), out: os.Stdout}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	a.ctx = ctx
	a.closers = append(a.closers, func() error { stop(); return nil })

	run, err := a.loadConfig()
	if err != nil {
		fatal("%v", err)
	}
	a.run = run
	a.metrics = metrics.New(nil)

	if path := a.getString("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			fatal("failed to create output file: %v", err)
		}
		a.out = f
		a.closers = append(a.closers, f.Close)
	}
	return a
}

func (a *Action) getBool(name string) bool {
	result, _ := a.cmd.Flags().GetBool(name)
	return result
}

func (a *Action) getInt(name string) int {
	result, _ := a.cmd.Flags().GetInt(name)
	return result
}

func (a *Action) getString(name string) string {
	result, _ := a.cmd.Flags().GetString(name)
	return result
}

func (a *Action) getStringArray(name string) []string {
	result, _ := a.cmd.Flags().GetStringArray(name)
	return result
}

func (a *Action) changed(name string) bool {
	f := a.cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// loadConfig resolves the run: config file or environment first, then the
// flags that were set explicitly.
func (a *Action) loadConfig() (config.Run, error) {
	var (
		run config.Run
		err error
	)
	if path := a.getString("config"); path != "" {
		run, err = config.LoadFile(path)
	} else {
		run, err = config.FromEnv()
	}
	if err != nil {
		return run, err
	}
	return applyFlags(run, a)
}

type flagSource interface {
	changed(name string) bool
	getBool(name string) bool
	getInt(name string) int
	getString(name string) string
	getStringArray(name string) []string
}

func applyFlags(run config.Run, f flagSource) (config.Run, error) {
	if f.changed("data") {
		run.Data = f.getStringArray("data")
	}
	if f.changed("schema") {
		run.Schema = f.getString("schema")
	}
	if f.changed("countries") {
		run.Countries = config.SplitList(f.getString("countries"))
	}
	if f.getBool("all") {
		run.Countries = nil
	}
	if f.changed("backend") {
		run.Backend = f.getString("backend")
	}
	if f.changed("parallelism") {
		run.Parallelism = f.getInt("parallelism")
	}
	if f.changed("rank-limit") {
		run.RankLimit = f.getInt("rank-limit")
	}
	if f.changed("pushgateway") {
		run.Pushgateway = f.getString("pushgateway")
	}
	if f.changed("geojson") {
		run.GeoJSON = f.getString("geojson")
	}
	if f.changed("feature-key") {
		run.FeatureKey = f.getString("feature-key")
	}
	return run, run.Validate()
}

// loadView reads every data file of the run.
func (a *Action) loadView() engine.RecordView {
	var sch *schema.Config
	if a.run.Schema != "" {
		var err error
		if sch, err = schema.LoadFile(a.run.Schema); err != nil {
			a.Exit(err)
		}
	}
	view, err := helpers.LoadFiles(a.ctx, a.run.Data, sch)
	if err != nil {
		a.Exit(err)
	}
	a.metrics.ObserveRecords(view.Len())
	return view
}

// calculator returns the configured backend.
func (a *Action) calculator() engine.Calculator {
	if a.run.Backend != config.BackendDuckDB {
		return engine.NewNative(engine.WithParallelism(a.run.Parallelism))
	}
	db, err := sqlengine.Open(a.run.DuckDBPath, a.run.Parallelism)
	if err != nil {
		a.Exit(err)
	}
	a.closers = append(a.closers, db.Close)
	return db
}

// Exit pushes metrics, releases resources and exits 1 on error.
func (a *Action) Exit(err error) {
	if perr := a.metrics.Push(a.ctx, a.run.Pushgateway, "demografia_"+a.cmd.Name()); perr != nil {
		alog.Log("⚠️ Demografia: %v", perr)
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	if err != nil {
		fatal("%v", err)
	}
	alog.Log("✅ Demografia: %s done in %s", a.cmd.Name(), time.Since(a.start).Round(time.Millisecond))
}

// ============================================================================
// COMMANDS
// ============================================================================

func runReport(cmd *cobra.Command, args []string) {
	a := newAction(cmd)
	view := a.loadView()

	report, err := engine.Execute(a.ctx, view, engine.Selection{Countries: a.run.Countries},
		engine.WithCalculator(a.calculator()),
		engine.WithParallelism(a.run.Parallelism),
		engine.WithRankLimit(a.run.RankLimit),
		engine.WithObserver(a.metrics),
	)
	if err != nil {
		a.Exit(err)
	}

	if a.run.GeoJSON != "" {
		if report.Choropleth, err = buildChoropleth(report, a.run); err != nil {
			a.Exit(err)
		}
	}
	if path := a.getString("xlsx"); path != "" {
		if err := writeWorkbookFile(path, report); err != nil {
			a.Exit(err)
		}
		alog.Log("📄 Demografia: workbook written to %s", path)
	}
	if dir := a.getString("png-dir"); dir != "" {
		paths, err := render.WriteChartFiles(dir, report)
		if err != nil {
			a.Exit(err)
		}
		alog.Log("🖼️ Demografia: %d charts written to %s", len(paths), dir)
	}

	a.Exit(writeReport(a.out, report, a.getString("format")))
}

func buildChoropleth(report *engine.Report, run config.Run) (*engine.ChoroplethConfig, error) {
	fc, err := geo.LoadBoundariesFile(run.GeoJSON)
	if err != nil {
		return nil, err
	}
	var opts []geo.Option
	if run.FeatureKey != "" {
		opts = append(opts, geo.WithFeatureKey(run.FeatureKey))
	}
	choropleth, err := geo.BuildChoropleth(report.AverageAnnual, fc, opts...)
	if err != nil {
		return nil, err
	}
	if len(choropleth.Unmatched) > 0 {
		alog.Log("⚠️ Demografia: no boundary for %v", choropleth.Unmatched)
	}
	return choropleth, nil
}

func writeWorkbookFile(path string, report *engine.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if err := render.WriteWorkbook(f, report); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "failed to close %s", path)
}

func runIndicator(indicator string) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		a := newAction(cmd)
		view := a.loadView()
		calc := a.calculator()

		fn := map[string]func(context.Context, engine.RecordView) ([]engine.CountryValue, error){
			engine.IndicatorGrowthRate:    calc.AnnualGrowthRate,
			engine.IndicatorYearOverYear:  calc.GrowthLeadersAndLaggards,
			engine.IndicatorAverageAnnual: calc.AverageAnnualGrowth,
		}[indicator]

		start := time.Now()
		values, err := fn(a.ctx, view)
		if err != nil {
			a.Exit(err)
		}
		a.metrics.ObserveIndicator(indicator, values, time.Since(start))

		out := indicatorOutput{
			Indicator: indicator,
			Values:    engine.FilterValues(values, a.run.Countries),
			Missing:   engine.MissingCountries(values, a.run.Countries),
		}
		if indicator == engine.IndicatorYearOverYear {
			ranking := engine.RankGrowth(values, a.run.RankLimit)
			out.Ranking = &ranking
		}
		a.Exit(writeIndicator(a.out, out, a.getString("format")))
	}
}

func runDiscover(cmd *cobra.Command, args []string) {
	a := newAction(cmd)
	data, err := os.ReadFile(args[0])
	if err != nil {
		a.Exit(errors.Wrapf(err, "failed to read %s", args[0]))
	}

	sch, err := schema.DiscoverFromCSV(data, schema.DiscoverOptions{
		SampleSize: a.getInt("sample"),
		Name:       a.getString("name"),
	})
	if err != nil {
		a.Exit(errors.WithMessage(err, args[0]))
	}
	alog.Log("🔍 Demografia: %s → %s/%s/%s (%d skipped)", filepath.Base(args[0]),
		sch.Columns.Country, sch.Columns.Year, sch.Columns.Population, len(sch.SkippedColumns))

	a.Exit(writeSchema(a.out, sch, a.getString("format")))
}

func runConvert(cmd *cobra.Command, args []string) {
	a := newAction(cmd)
	var sch *schema.Config
	if a.run.Schema != "" {
		var err error
		if sch, err = schema.LoadFile(a.run.Schema); err != nil {
			a.Exit(err)
		}
	}
	view, err := helpers.LoadFile(a.ctx, args[0], sch)
	if err != nil {
		a.Exit(err)
	}
	if err := engine.Validate(view); err != nil {
		a.Exit(err)
	}
	a.metrics.ObserveRecords(view.Len())

	f, err := os.Create(args[1])
	if err != nil {
		a.Exit(errors.Wrapf(err, "failed to create %s", args[1]))
	}
	if err := helpers.WriteParquet(f, view); err != nil {
		f.Close()
		a.Exit(err)
	}
	if err := f.Close(); err != nil {
		a.Exit(errors.Wrapf(err, "failed to close %s", args[1]))
	}
	alog.Log("📦 Demografia: %d rows written to %s", view.Len(), args[1])
	a.Exit(nil)
}
