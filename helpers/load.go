package helpers

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/tillberg/alog"

	"github.com/spektr-org/demografia/engine"
	"github.com/spektr-org/demografia/schema"
)

// LoadFile reads one data file into a RecordView, picking the format from
// the extension (.csv, .parquet, .json). With a nil schema, CSV columns
// are discovered and the other formats use schema.Default().
func LoadFile(ctx context.Context, path string, sch *schema.Config) (engine.RecordView, error) {
	timer := alog.NewTimer()

	var view engine.RecordView
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", path)
		}
		if sch == nil {
			var discovered *schema.Config
			view, discovered, err = ParseCSVAutoView(data)
			if err != nil {
				return nil, errors.WithMessage(err, path)
			}
			alog.Log("🔎 Demografia: %s columns %s/%s/%s", filepath.Base(path),
				discovered.Columns.Country, discovered.Columns.Year, discovered.Columns.Population)
		} else {
			view, err = ParseCSVView(data, *sch)
			if err != nil {
				return nil, errors.WithMessage(err, path)
			}
		}

	case ".parquet", ".pq":
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open %s", path)
		}
		defer f.Close()
		records, err := ReadParquet(ctx, f, orDefault(sch))
		if err != nil {
			return nil, errors.WithMessage(err, path)
		}
		view = engine.NewSliceView(records)

	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", path)
		}
		view, err = ParseJSONRows(data, orDefault(sch))
		if err != nil {
			return nil, errors.WithMessage(err, path)
		}

	default:
		return nil, errors.Errorf("unsupported data file %s (want .csv, .parquet or .json)", path)
	}

	alog.Log("📥 Demografia: loaded %d rows from %s in %s", view.Len(), filepath.Base(path), timer.Elapsed())
	return view, nil
}

// LoadFiles loads several files and concatenates them, e.g. one file per
// region. Rows for the same country and year are summed by the engine.
func LoadFiles(ctx context.Context, paths []string, sch *schema.Config) (engine.RecordView, error) {
	if len(paths) == 0 {
		return nil, errors.New("no data files given")
	}
	views := make([]engine.RecordView, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := LoadFile(ctx, p, sch)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return engine.Concat(views...), nil
}

func orDefault(sch *schema.Config) schema.Config {
	if sch == nil {
		return *schema.Default()
	}
	return *sch
}
