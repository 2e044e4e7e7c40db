package http

import (
	"math"
	"strconv"
	"strings"

	"gastos/internal/config"
	"gastos/internal/core"
	"gastos/internal/ledger"
)

// AlertIncomplete is shown when a submit finds missing fields.
const AlertIncomplete = "Please complete all fields."

// AlertOutOfRange is shown when the amounts add up to more than can be stored.
const AlertOutOfRange = "The total is too large, please check the amounts."

// InputView is one labeled input of the panel.
type InputView struct {
	Key         string
	Label       string
	Placeholder string
	Value       string
}

// RowView is one category line of a record card.
type RowView struct {
	Label  string
	Amount string
}

// RecordView is one record card.
type RecordView struct {
	ID    string
	Total string
	Rows  []RowView
}

// PageData feeds index.html and the ledger.html partial.
type PageData struct {
	Title            string
	CurrencySymbol   string
	Clock            string
	ClockPollSeconds int
	Alert            string
	Inputs           []InputView
	Records          []RecordView
	HasRecords       bool
}

// buildPageData renders a snapshot into template data. It depends on nothing
// but its arguments.
func buildPageData(snap ledger.Snapshot, view *config.View) PageData {
	if view == nil {
		view = config.DefaultView()
	}

	data := PageData{
		Title:          view.Title,
		CurrencySymbol: view.CurrencySymbol,
		Inputs:         make([]InputView, 0, len(core.Categories)),
		Records:        make([]RecordView, 0, len(snap.Records)),
		HasRecords:     len(snap.Records) > 0,
	}

	for _, c := range core.Categories {
		label := view.Label(c)
		in := InputView{
			Key:         string(c),
			Label:       label,
			Placeholder: "Ingrese " + strings.ToLower(label),
		}
		if v, ok := snap.Draft.Get(c); ok {
			in.Value = draftValue(v)
		}
		data.Inputs = append(data.Inputs, in)
	}

	for _, rec := range snap.Records {
		rv := RecordView{
			ID:    rec.ID,
			Total: core.FormatAmount(rec.Total),
			Rows:  make([]RowView, 0, len(core.Categories)),
		}
		for _, c := range core.Categories {
			rv.Rows = append(rv.Rows, RowView{Label: view.Label(c), Amount: core.FormatAmount(rec.Amount(c))})
		}
		data.Records = append(data.Records, rv)
	}
	return data
}

// draftValue echoes a draft number back into an input. Unparsable entries
// render empty, the way a number input shows them.
func draftValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
