package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"gastos/internal/core"
)

// TableOptions controls how the ledger is printed
type TableOptions struct {
	Label          func(core.Category) string
	CurrencySymbol string
}

// PrintLedger writes one row per record with the nine categories in display
// order, the record total and a footer of column sums.
func PrintLedger(w io.Writer, l core.Ledger, opts TableOptions) {
	if len(l) == 0 {
		fmt.Fprintln(w, "No expenses recorded.")
		return
	}
	label := opts.Label
	if label == nil {
		label = core.Category.Label
	}
	money := func(v float64) string {
		return opts.CurrencySymbol + core.FormatAmount(v)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)

	header := table.Row{"ID"}
	for _, c := range core.Categories {
		header = append(header, label(c))
	}
	header = append(header, "Total")
	t.AppendHeader(header)

	sums := make([][]float64, len(core.Categories)+1)
	for _, rec := range l {
		row := table.Row{rec.ID}
		for i, v := range rec.Amounts() {
			row = append(row, money(v))
			sums[i] = append(sums[i], v)
		}
		row = append(row, text.Bold.Sprint(money(rec.Total)))
		sums[len(core.Categories)] = append(sums[len(core.Categories)], rec.Total)
		t.AppendRow(row)
	}

	t.AppendSeparator()
	footer := table.Row{fmt.Sprintf("%d records", len(l))}
	for _, col := range sums {
		footer = append(footer, money(core.Sum(col...)))
	}
	t.AppendFooter(footer)

	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault

	configs := make([]table.ColumnConfig, 0, len(header)-1)
	for n := 2; n <= len(header); n++ {
		configs = append(configs, table.ColumnConfig{Number: n, Align: text.AlignRight})
	}
	t.SetColumnConfigs(configs)

	t.Render()
}
