package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/spektr-org/demografia/engine"
	"github.com/spektr-org/demografia/schema"
)

// ============================================================================
// OUTPUT TYPES
// ============================================================================

type indicatorOutput struct {
	Indicator string                `json:"indicator"`
	Values    []engine.CountryValue `json:"values"`
	Missing   []string              `json:"missing,omitempty"`
	Ranking   *engine.Ranking       `json:"ranking,omitempty"`
}

func writeReport(w io.Writer, report *engine.Report, format string) error {
	switch format {
	case "csv":
		return writeTableCSV(w, report.Table)
	case "text":
		_, err := fmt.Fprintln(w, report.Summary)
		return err
	default:
		return writeJSON(w, report, format)
	}
}

func writeIndicator(w io.Writer, out indicatorOutput, format string) error {
	percent := out.Indicator != engine.IndicatorAverageAnnual
	switch format {
	case "csv":
		return writeValuesCSV(w, out.Values, percent)
	case "text":
		if len(out.Values) == 0 {
			_, err := fmt.Fprintln(w, "No result.")
			return err
		}
		lines := make([]string, 0, len(out.Values)+len(out.Missing))
		for _, v := range out.Values {
			lines = append(lines, fmt.Sprintf("%s: %s", v.Country, engine.FormatValue(v, percent)))
		}
		for _, c := range out.Missing {
			lines = append(lines, fmt.Sprintf("%s: not in data", c))
		}
		_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
		return err
	default:
		return writeJSON(w, out, format)
	}
}

func writeSchema(w io.Writer, sch *schema.Config, format string) error {
	switch format {
	case "yaml", "text":
		out, err := sch.Marshal()
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		return writeJSON(w, sch, format)
	}
}

// ============================================================================
// CSV OUTPUT: Sheets-ready CSV
// ============================================================================

func writeTableCSV(w io.Writer, table *engine.TableData) error {
	cw := csv.NewWriter(w)
	if table == nil || len(table.Rows) == 0 {
		cw.Write([]string{"Result", "No data"})
		cw.Flush()
		return cw.Error()
	}

	headers := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		headers[i] = c.Label
	}
	cw.Write(headers)
	for _, row := range table.Rows {
		cw.Write(row)
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "failed to write CSV")
}

// writeValuesCSV writes country,value,reason. Undefined values leave the
// value column empty.
func writeValuesCSV(w io.Writer, values []engine.CountryValue, percent bool) error {
	cw := csv.NewWriter(w)
	label := "Value"
	if percent {
		label = "Value (%)"
	}
	cw.Write([]string{engine.FieldCountry, label, "Reason"})
	for _, v := range values {
		value := ""
		if v.Defined {
			value = fmtNum(v.Value)
		}
		cw.Write([]string{v.Country, value, v.Reason})
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "failed to write CSV")
}

// ============================================================================
// JSON OUTPUT
// ============================================================================

func writeJSON(w io.Writer, v interface{}, format string) error {
	var out []byte
	var err error

	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}

	if err != nil {
		return errors.Wrap(err, "failed to marshal output")
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// ============================================================================
// HELPERS
// ============================================================================

func fmtNum(v float64) string {
	// Whole numbers → no decimals, fractional → 2 decimals
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
