package helpers

import (
	"bytes"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/spektr-org/demografia/engine"
	"github.com/spektr-org/demografia/schema"
)

// ParseJSONRows decodes a JSON array of row objects, e.g. a records-oriented
// DataFrame export, and validates it through engine.NewRelation.
// Keys are renamed from the schema's columns to the relation fields;
// numbers are kept exact until validation.
func ParseJSONRows(data []byte, sch schema.Config) (engine.RecordView, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "failed to decode JSON rows")
	}

	rows := make([]engine.Row, len(raw))
	for i, r := range raw {
		rows[i] = engine.Row{
			engine.FieldCountry:    r[sch.Columns.Country],
			engine.FieldYear:       r[sch.Columns.Year],
			engine.FieldPopulation: r[sch.Columns.Population],
		}
	}
	return engine.NewRelation(rows)
}
