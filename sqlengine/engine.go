// Package sqlengine computes the population indicators in DuckDB.
//
// It is a second engine.Calculator next to the native one: the relation is
// written to Parquet through Arrow, loaded with read_parquet, and reduced
// with window functions and aggregates. Results, sentinels included, must
// match the native calculator.
package sqlengine

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/tillberg/alog"
	"github.com/zeebo/xxh3"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/spektr-org/demografia/engine"
	"github.com/spektr-org/demografia/helpers"
)

// Engine is a DuckDB-backed engine.Calculator. It is safe for concurrent
// use; loads and queries are serialized.
type Engine struct {
	db *sql.DB

	mu          sync.Mutex
	loaded      bool
	fingerprint uint64
}

var _ engine.Calculator = (*Engine)(nil)

// Open starts an in-process DuckDB. An empty dsn is an in-memory database.
// threads <= 0 keeps DuckDB's default.
func Open(dsn string, threads int) (*Engine, error) {
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open duckdb")
	}
	// One connection keeps the loaded table visible to every query
	db.SetMaxOpenConns(1)

	if threads > 0 {
		if _, err := db.Exec(fmt.Sprintf("SET threads TO %d", threads)); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "failed to set duckdb threads")
		}
	}
	return &Engine{db: db}, nil
}

// Close releases the database.
func (e *Engine) Close() error {
	return e.db.Close()
}

// Load replaces the population table with the rows of view.
func (e *Engine) Load(ctx context.Context, view engine.RecordView) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadLocked(ctx, view)
}

func (e *Engine) loadLocked(ctx context.Context, view engine.RecordView) error {
	if err := engine.Validate(view); err != nil {
		return err
	}
	timer := alog.NewTimer()

	file, err := os.CreateTemp("", "demografia-*.parquet")
	if err != nil {
		return errors.Wrap(err, "failed to create parquet file")
	}
	tempFile := file.Name()
	defer os.Remove(tempFile)

	if err := helpers.WriteParquet(file, view); err != nil {
		file.Close()
		return err
	}
	// Close the file to ensure all data is written
	if err := file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return errors.Wrap(err, "failed to close parquet file")
	}

	query := fmt.Sprintf(`
		CREATE OR REPLACE TABLE population AS
		SELECT
			"%s" AS country,
			CAST("%s" AS BIGINT) AS year,
			CAST("%s" AS DOUBLE) AS population
		FROM read_parquet('%s')`,
		engine.FieldCountry, engine.FieldYear, engine.FieldPopulation,
		strings.ReplaceAll(tempFile, "'", "''"))
	if _, err := e.db.ExecContext(ctx, query); err != nil {
		return errors.Wrap(err, "failed to load parquet into duckdb")
	}

	e.loaded = true
	e.fingerprint = fingerprint(view)
	alog.Log("🦆 Demografia: loaded %d rows into duckdb in %s", view.Len(), timer.Elapsed())
	return nil
}

// ensureLoaded loads view unless the table already holds the same rows.
// Rows are compared by content, so a view whose backing data changed
// since the last call is reloaded.
func (e *Engine) ensureLoaded(ctx context.Context, view engine.RecordView) error {
	if e.loaded && e.fingerprint == fingerprint(view) {
		return nil
	}
	return e.loadLocked(ctx, view)
}

// fingerprint hashes every row of view in order.
func fingerprint(view engine.RecordView) uint64 {
	h := xxh3.New()
	var buf [8]byte
	writeUint := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	n := view.Len()
	writeUint(uint64(n))
	for i := 0; i < n; i++ {
		country := view.Country(i)
		writeUint(uint64(len(country)))
		h.WriteString(country)
		writeUint(uint64(view.Year(i)))
		writeUint(math.Float64bits(view.Population(i)))
	}
	return h.Sum64()
}

// ============================================================================
// INDICATORS
// ============================================================================

// yearly collapses duplicate (country, year) rows by summing.
const yearly = `
	yearly AS (
		SELECT country, year, SUM(population) AS population
		FROM population
		GROUP BY country, year
	)`

// overflows(num, den) is true when num / den * 100 is not a finite DOUBLE.
// It never overflows itself: DuckDB raises an error on overflow instead of
// returning Inf.
func overflows(num, den string) string {
	return fmt.Sprintf("(abs(%s) / 1.7976931348623157e308 * 100 > abs(%s))", num, den)
}

var growthRateSQL = `
	WITH` + yearly + `,
	bounds AS (
		SELECT
			country,
			COUNT(*) AS years,
			arg_min(population, year) AS first_pop,
			arg_max(population, year) AS last_pop
		FROM yearly
		GROUP BY country
	)
	SELECT
		country,
		CASE
			WHEN years = 1 THEN 0.0
			WHEN first_pop = 0 THEN NULL
			WHEN ` + overflows("last_pop - first_pop", "first_pop") + ` THEN NULL
			ELSE round((last_pop - first_pop) / first_pop * 100, 2)
		END AS value,
		CASE
			WHEN years = 1 THEN ''
			WHEN first_pop = 0 OR ` + overflows("last_pop - first_pop", "first_pop") + ` THEN 'zero_population'
			ELSE ''
		END AS reason
	FROM bounds
	ORDER BY country`

var yearOverYearSQL = `
	WITH` + yearly + `,
	ordered AS (
		SELECT
			country,
			population,
			lag(population) OVER (PARTITION BY country ORDER BY year) AS prev
		FROM yearly
	),
	changes AS (
		SELECT
			country,
			prev,
			prev = 0 OR ` + overflows("population - prev", "prev") + ` AS undefined,
			CASE
				WHEN prev = 0 OR ` + overflows("population - prev", "prev") + ` THEN NULL
				ELSE (population - prev) / prev * 100
			END AS change
		FROM ordered
	)
	SELECT
		country,
		CASE
			WHEN COUNT(prev) = 0 THEN NULL
			WHEN bool_or(undefined) THEN NULL
			ELSE round(avg(change), 2)
		END AS value,
		CASE
			WHEN COUNT(prev) = 0 THEN 'insufficient_data'
			WHEN bool_or(undefined) THEN 'zero_population'
			ELSE ''
		END AS reason
	FROM changes
	GROUP BY country
	ORDER BY country`

const averageAnnualSQL = `
	WITH` + yearly + `
	SELECT
		country,
		(arg_max(population, year) - arg_min(population, year))
			/ CAST(max(year) - min(year) + 1 AS DOUBLE) AS value,
		'' AS reason
	FROM yearly
	GROUP BY country
	ORDER BY country`

// AnnualGrowthRate implements engine.Calculator.
func (e *Engine) AnnualGrowthRate(ctx context.Context, view engine.RecordView) ([]engine.CountryValue, error) {
	return e.query(ctx, view, engine.IndicatorGrowthRate, growthRateSQL)
}

// GrowthLeadersAndLaggards implements engine.Calculator.
func (e *Engine) GrowthLeadersAndLaggards(ctx context.Context, view engine.RecordView) ([]engine.CountryValue, error) {
	return e.query(ctx, view, engine.IndicatorYearOverYear, yearOverYearSQL)
}

// AverageAnnualGrowth implements engine.Calculator.
func (e *Engine) AverageAnnualGrowth(ctx context.Context, view engine.RecordView) ([]engine.CountryValue, error) {
	return e.query(ctx, view, engine.IndicatorAverageAnnual, averageAnnualSQL)
}

// overflowReason maps a non-finite scanned value to the native calculator's
// reason. Percentages are guarded in SQL; this covers the rest.
var overflowReason = map[string]string{
	engine.IndicatorGrowthRate:    engine.ReasonZeroPopulation,
	engine.IndicatorYearOverYear:  engine.ReasonZeroPopulation,
	engine.IndicatorAverageAnnual: engine.ReasonOverflow,
}

func (e *Engine) query(ctx context.Context, view engine.RecordView, indicator, query string) ([]engine.CountryValue, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if view.Len() == 0 {
		return []engine.CountryValue{}, nil
	}
	if err := e.ensureLoaded(ctx, view); err != nil {
		return nil, err
	}

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to compute %s", indicator)
	}
	defer rows.Close()

	out := make([]engine.CountryValue, 0)
	for rows.Next() {
		var (
			country string
			value   sql.NullFloat64
			reason  string
		)
		if err := rows.Scan(&country, &value, &reason); err != nil {
			return nil, errors.Wrapf(err, "failed to scan %s", indicator)
		}
		v := engine.CountryValue{Country: country, Reason: reason}
		if value.Valid && (math.IsInf(value.Float64, 0) || math.IsNaN(value.Float64)) {
			v.Reason = overflowReason[indicator]
		} else if value.Valid {
			v.Value = value.Float64
			v.Defined = true
			if v.Value == 0 {
				v.Value = 0 // drop negative zero
			}
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", indicator)
	}

	// DuckDB collations may differ; the contract is byte order
	engine.SortValues(out, "")
	return out, nil
}
