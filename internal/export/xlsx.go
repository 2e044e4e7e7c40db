// Package export writes the ledger as an xlsx workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"gastos/internal/core"
)

// DefaultSheetName is the name of the single sheet in the workbook.
const DefaultSheetName = "Gastos"

// Options controls the workbook layout.
type Options struct {
	SheetName string
	// Label names a category column header. Defaults to Category.Label.
	Label func(core.Category) string
}

// Header returns the column headers: id, the nine categories in display
// order, then total.
func Header(opts Options) []string {
	label := opts.Label
	if label == nil {
		label = core.Category.Label
	}
	h := make([]string, 0, len(core.Categories)+2)
	h = append(h, "ID")
	for _, c := range core.Categories {
		h = append(h, label(c))
	}
	return append(h, "Total")
}

// WriteXLSX writes one row per record plus a trailing sum row.
func WriteXLSX(w io.Writer, l core.Ledger, opts Options) error {
	sheet := opts.SheetName
	if sheet == "" {
		sheet = DefaultSheetName
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := setRow(f, sheet, 1, toAny(Header(opts))); err != nil {
		return err
	}

	sums := make([][]float64, len(core.Categories)+1)
	for i, rec := range l {
		row := make([]any, 0, len(core.Categories)+2)
		row = append(row, rec.ID)
		for j, v := range rec.Amounts() {
			row = append(row, v)
			sums[j] = append(sums[j], v)
		}
		row = append(row, rec.Total)
		sums[len(core.Categories)] = append(sums[len(core.Categories)], rec.Total)

		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	if len(l) > 0 {
		totals := make([]any, 0, len(sums)+1)
		totals = append(totals, "Suma")
		for _, col := range sums {
			totals = append(totals, core.Sum(col...))
		}
		if err := setRow(f, sheet, len(l)+2, totals); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set %s: %w", cell, err)
		}
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
