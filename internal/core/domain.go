package core

import (
	"errors"
	"math"
)

const (
	Arriendo    Category = "arriendo"
	Comida      Category = "comida"
	Servicios   Category = "servicios"
	Une         Category = "une"
	Bruce       Category = "bruce"
	Pasajes     Category = "pasajes"
	Universidad Category = "universidad"
	DolarC      Category = "dolarC"
	Otros       Category = "otros"
)

type (
	// Category is one of the nine fixed expense types tracked per record.
	Category string

	// ExpenseRecord is one committed, immutable ledger entry.
	// The JSON layout matches the persisted document format.
	ExpenseRecord struct {
		Arriendo    float64 `json:"arriendo"`
		Comida      float64 `json:"comida"`
		Servicios   float64 `json:"servicios"`
		Une         float64 `json:"une"`
		Bruce       float64 `json:"bruce"`
		Pasajes     float64 `json:"pasajes"`
		Universidad float64 `json:"universidad"`
		DolarC      float64 `json:"dolarC"`
		Otros       float64 `json:"otros"`
		Total       float64 `json:"total"`
		ID          string  `json:"id"`
	}

	// Draft is the in-progress, uncommitted entry being edited.
	Draft map[Category]float64

	// Ledger is the ordered collection of committed records.
	// Insertion order is display order.
	Ledger []ExpenseRecord
)

// Categories lists every tracked category in display order.
var Categories = []Category{
	Arriendo,
	Comida,
	Servicios,
	Une,
	Bruce,
	Pasajes,
	Universidad,
	DolarC,
	Otros,
}

var defaultLabels = map[Category]string{
	Arriendo:    "Arriendo",
	Comida:      "Comida",
	Servicios:   "Servicios",
	Une:         "UNE",
	Bruce:       "Bruce",
	Pasajes:     "Pasajes",
	Universidad: "Universidad",
	DolarC:      "DolarCity",
	Otros:       "Otros",
}

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrIncompleteDraft = errors.New("incomplete draft")
	ErrTotalOutOfRange = errors.New("total out of range")
)

// ParseCategory maps a form field name to its Category.
func ParseCategory(name string) (Category, error) {
	c := Category(name)
	if _, ok := defaultLabels[c]; !ok {
		return "", ErrUnknownCategory
	}
	return c, nil
}

// Label returns the default display label.
func (c Category) Label() string {
	if l, ok := defaultLabels[c]; ok {
		return l
	}
	return string(c)
}

func (c Category) String() string {
	return string(c)
}

// Amount returns the value stored for the given category.
func (r ExpenseRecord) Amount(c Category) float64 {
	switch c {
	case Arriendo:
		return r.Arriendo
	case Comida:
		return r.Comida
	case Servicios:
		return r.Servicios
	case Une:
		return r.Une
	case Bruce:
		return r.Bruce
	case Pasajes:
		return r.Pasajes
	case Universidad:
		return r.Universidad
	case DolarC:
		return r.DolarC
	case Otros:
		return r.Otros
	}
	return 0
}

// Amounts returns the nine category values in display order.
func (r ExpenseRecord) Amounts() []float64 {
	out := make([]float64, len(Categories))
	for i, c := range Categories {
		out[i] = r.Amount(c)
	}
	return out
}

// Set overwrites the draft value for c.
func (d Draft) Set(c Category, v float64) {
	d[c] = v
}

// Get returns the draft value for c and whether it is present.
func (d Draft) Get(c Category) (float64, bool) {
	v, ok := d[c]
	return v, ok
}

// Missing lists the categories that are absent or hold a non-finite value.
// A value that failed to parse is stored as NaN and counts as missing.
func (d Draft) Missing() []Category {
	var out []Category
	for _, c := range Categories {
		v, ok := d[c]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			out = append(out, c)
		}
	}
	return out
}

// Validate reports ErrIncompleteDraft when any category is missing.
func (d Draft) Validate() error {
	if len(d.Missing()) > 0 {
		return ErrIncompleteDraft
	}
	return nil
}

// Clone returns an independent copy of the draft.
func (d Draft) Clone() Draft {
	out := make(Draft, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Clone returns an independent copy of the ledger.
func (l Ledger) Clone() Ledger {
	if l == nil {
		return nil
	}
	out := make(Ledger, len(l))
	copy(out, l)
	return out
}
