package render

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/demografia/engine"
)

// Sheet names of the workbook written by WriteWorkbook.
const (
	SheetGrowthRate    = "Growth rate"
	SheetYearOverYear  = "YoY growth"
	SheetAverageAnnual = "Average annual"
	SheetRanking       = "Ranking"
	SheetUndefined     = "Undefined"
)

// UndefinedText is written in place of an undefined value.
const UndefinedText = "n/a"

const undefinedFill = "#D9D9D9"

// WriteWorkbook writes a report as an XLSX workbook with one sheet per
// indicator, the ranking and the list of undefined values. Undefined cells
// read n/a on a grey fill.
func WriteWorkbook(w io.Writer, r *engine.Report) error {
	if r == nil {
		return errors.New("no report to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	wb := &workbook{f: f}
	if err := wb.styles(); err != nil {
		return err
	}

	if err := f.SetSheetName("Sheet1", SheetGrowthRate); err != nil {
		return errors.Wrap(err, "failed to rename sheet")
	}
	for _, sheet := range []string{SheetYearOverYear, SheetAverageAnnual, SheetRanking, SheetUndefined} {
		if _, err := f.NewSheet(sheet); err != nil {
			return errors.Wrapf(err, "failed to create sheet %s", sheet)
		}
	}

	wb.indicator(SheetGrowthRate, "Growth rate (%)", r.GrowthRates)
	wb.indicator(SheetYearOverYear, "Avg YoY growth (%)", r.YearOverYear)
	wb.indicator(SheetAverageAnnual, "Avg annual growth", r.AverageAnnual)
	wb.ranking(r.Ranking)
	wb.undefined(r.Undefined)

	if wb.err != nil {
		return wb.err
	}
	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "failed to write workbook")
	}
	return nil
}

// workbook keeps the first error so the sheet writers read straight.
type workbook struct {
	f *excelize.File

	header  int
	number  int
	missing int

	err error
}

func (wb *workbook) styles() error {
	var err error
	wb.header, err = wb.f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return errors.Wrap(err, "failed to create header style")
	}
	wb.number, err = wb.f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return errors.Wrap(err, "failed to create number style")
	}
	wb.missing, err = wb.f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{undefinedFill}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return errors.Wrap(err, "failed to create undefined style")
	}
	return nil
}

func (wb *workbook) set(sheet string, col, row int, value any, style int) {
	if wb.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		wb.err = errors.Wrap(err, "invalid cell")
		return
	}
	if err := wb.f.SetCellValue(sheet, cell, value); err != nil {
		wb.err = errors.Wrapf(err, "failed to set %s!%s", sheet, cell)
		return
	}
	if style != 0 {
		if err := wb.f.SetCellStyle(sheet, cell, cell, style); err != nil {
			wb.err = errors.Wrapf(err, "failed to style %s!%s", sheet, cell)
		}
	}
}

func (wb *workbook) value(sheet string, col, row int, v engine.CountryValue) {
	if !v.Defined {
		wb.set(sheet, col, row, UndefinedText, wb.missing)
		return
	}
	wb.set(sheet, col, row, engine.RoundTo2(v.Value), wb.number)
}

func (wb *workbook) headers(sheet string, labels ...string) {
	for i, label := range labels {
		wb.set(sheet, i+1, 1, label, wb.header)
	}
	if wb.err == nil {
		wb.err = wb.f.SetColWidth(sheet, "A", "A", 22)
	}
	if wb.err == nil {
		wb.err = wb.f.SetColWidth(sheet, "B", "C", 20)
	}
}

func (wb *workbook) indicator(sheet, label string, values []engine.CountryValue) {
	wb.headers(sheet, engine.FieldCountry, label, "Reason")
	for i, v := range values {
		row := i + 2
		wb.set(sheet, 1, row, v.Country, 0)
		wb.value(sheet, 2, row, v)
		if !v.Defined {
			wb.set(sheet, 3, row, v.Reason, 0)
		}
	}
}

func (wb *workbook) ranking(r engine.Ranking) {
	wb.headers(SheetRanking, "Group", engine.FieldCountry, "Avg YoY growth (%)")

	row := 2
	for _, group := range []struct {
		name   string
		values []engine.CountryValue
	}{
		{"Growth", r.Leaders},
		{"Decline", r.Laggards},
	} {
		for _, v := range group.values {
			wb.set(SheetRanking, 1, row, group.name, 0)
			wb.set(SheetRanking, 2, row, v.Country, 0)
			wb.value(SheetRanking, 3, row, v)
			row++
		}
	}
}

func (wb *workbook) undefined(values []engine.UndefinedValue) {
	wb.headers(SheetUndefined, "Indicator", engine.FieldCountry, "Reason")
	for i, u := range values {
		row := i + 2
		wb.set(SheetUndefined, 1, row, u.Indicator, 0)
		wb.set(SheetUndefined, 2, row, u.Country, 0)
		wb.set(SheetUndefined, 3, row, u.Reason, 0)
	}
}
