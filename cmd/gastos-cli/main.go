package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/GiGurra/boa/pkg/boa"

	"gastos/internal/cli"
	"gastos/internal/core"
	"gastos/internal/export"
	"gastos/internal/ledger"
)

type Params struct {
	Action string `descr:"What to do with the ledger" alts:"list,add,reset,export" strict:"true" positional:"true"`
	Out    string `descr:"Output path for export" optional:"true"`

	Arriendo    string `descr:"Rent amount" optional:"true"`
	Comida      string `descr:"Food amount" optional:"true"`
	Servicios   string `descr:"Utilities amount" optional:"true"`
	Une         string `descr:"UNE amount" optional:"true"`
	Bruce       string `descr:"Bruce amount" optional:"true"`
	Pasajes     string `descr:"Fares amount" optional:"true"`
	Universidad string `descr:"University amount" optional:"true"`
	DolarC      string `descr:"DolarCity amount" optional:"true"`
	Otros       string `descr:"Other expenses amount" optional:"true"`
}

func (p *Params) amounts() map[core.Category]string {
	return map[core.Category]string{
		core.Arriendo:    p.Arriendo,
		core.Comida:      p.Comida,
		core.Servicios:   p.Servicios,
		core.Une:         p.Une,
		core.Bruce:       p.Bruce,
		core.Pasajes:     p.Pasajes,
		core.Universidad: p.Universidad,
		core.DolarC:      p.DolarC,
		core.Otros:       p.Otros,
	}
}

func main() {
	boa.NewCmdT[Params]("gastos-cli").
		WithShort("Inspect and edit the household expense ledger").
		WithLong("Works on the same ledger store as the gastos web server. " +
			"list prints every record, add submits one record from the amount flags, " +
			"reset empties the ledger and export writes an xlsx workbook.").
		WithRunFunc(func(params *Params) {
			if err := run(context.Background(), params); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}).
		Run()
}

func run(ctx context.Context, params *Params) error {
	cli.LoadEnvFile()

	// Keep stdout for command output.
	logger := cli.SetupLogger(os.Stderr, envOr("LOG_LEVEL", "warn"))
	cfg := cli.LoadAndValidateConfig(logger)

	rt, err := cli.OpenService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	tableOpts := cli.TableOptions{Label: rt.View.Label, CurrencySymbol: rt.View.CurrencySymbol}

	switch params.Action {
	case "list":
		cli.PrintLedger(os.Stdout, rt.Service.Records(), tableOpts)

	case "add":
		var edits []ledger.FieldEdit
		for c, raw := range params.amounts() {
			if strings.TrimSpace(raw) == "" {
				continue
			}
			edits = append(edits, ledger.FieldEdit{Field: string(c), Value: raw})
		}
		rec, err := rt.Service.SubmitWith(ctx, edits)
		if errors.Is(err, core.ErrIncompleteDraft) {
			missing := make([]string, 0, len(core.Categories))
			for _, c := range rt.Service.Snapshot().Draft.Missing() {
				missing = append(missing, "--"+flagName(c))
			}
			return fmt.Errorf("%w, missing %s", err, strings.Join(missing, " "))
		}
		if err != nil {
			return err
		}
		fmt.Printf("Added record %s, total %s%s\n", rec.ID, rt.View.CurrencySymbol, core.FormatAmount(rec.Total))

	case "reset":
		n := len(rt.Service.Records())
		if err := rt.Service.Reset(ctx); err != nil {
			return err
		}
		fmt.Printf("Removed %d records\n", n)

	case "export":
		out := params.Out
		if out == "" {
			out = "gastos.xlsx"
		}
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		records := rt.Service.Records()
		if err := export.WriteXLSX(f, records, export.Options{Label: rt.View.Label}); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("Exported %d records to %s\n", len(records), out)

	default:
		return fmt.Errorf("unknown action %q", params.Action)
	}
	return nil
}

// flagName mirrors how boa derives flag names from field names.
func flagName(c core.Category) string {
	if c == core.DolarC {
		return "dolar-c"
	}
	return string(c)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
