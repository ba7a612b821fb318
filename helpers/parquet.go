package helpers

import (
	"context"
	"io"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/pkg/errors"

	"github.com/spektr-org/demografia/engine"
	"github.com/spektr-org/demografia/schema"
)

// ============================================================================
// PARQUET HELPER: Columnar file storage via Arrow
// ============================================================================

// WriteParquet writes a view as a Parquet file with the canonical schema.
func WriteParquet(w io.Writer, view engine.RecordView) error {
	rec := ToArrow(view, memory.DefaultAllocator)
	defer rec.Release()

	writer, err := pqarrow.NewFileWriter(rec.Schema(), w, nil, pqarrow.DefaultWriterProps())
	if err != nil {
		return errors.Wrap(err, "failed to create parquet writer")
	}

	if err := writer.WriteBuffered(rec); err != nil {
		writer.Close()
		return errors.Wrap(err, "failed to write record to parquet")
	}

	// Close flushes the row group and footer
	if err := writer.Close(); err != nil {
		return errors.Wrap(err, "failed to close parquet writer")
	}
	return nil
}

// ReadParquet reads a Parquet file into records. Columns are resolved
// with the schema, so files written by other tools work as long as the
// mapping matches.
func ReadParquet(ctx context.Context, r parquet.ReaderAtSeeker, sch schema.Config) ([]engine.PopulationRecord, error) {
	mem := memory.DefaultAllocator
	tbl, err := pqarrow.ReadTable(ctx, r, parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read parquet")
	}
	defer tbl.Release()

	tr := array.NewTableReader(tbl, 0)
	defer tr.Release()

	records := make([]engine.PopulationRecord, 0, tbl.NumRows())
	offset := 0
	for tr.Next() {
		view, err := NewArrowView(tr.Record(), sch)
		if err != nil {
			return nil, shiftRow(err, offset)
		}
		records = append(records, engine.Materialize(view)...)
		offset += view.Len()
		view.Release()
	}
	if err := tr.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate parquet table")
	}
	return records, nil
}

// shiftRow turns a chunk-relative row number into a file-relative one.
func shiftRow(err error, offset int) error {
	var shapeErr *engine.InputShapeError
	if errors.As(err, &shapeErr) && shapeErr.Row > 0 {
		return engine.NewInputShapeError(shapeErr.Row+offset, shapeErr.Field, shapeErr.Reason)
	}
	return err
}
