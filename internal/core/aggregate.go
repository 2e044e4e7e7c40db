package core

import (
	"math"

	"github.com/shopspring/decimal"
)

// Sum adds the values as decimals so that 0.1 + 0.2 totals 0.3.
// Callers must pass finite values.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	f, _ := total.Float64()
	return f
}

// NewExpenseRecord builds a record from a complete draft.
// It returns ErrIncompleteDraft without touching the draft when a category is
// missing, and ErrTotalOutOfRange when finite amounts overflow to an infinite total.
func NewExpenseRecord(d Draft, id string) (ExpenseRecord, error) {
	if err := d.Validate(); err != nil {
		return ExpenseRecord{}, err
	}

	rec := ExpenseRecord{
		Arriendo:    d[Arriendo],
		Comida:      d[Comida],
		Servicios:   d[Servicios],
		Une:         d[Une],
		Bruce:       d[Bruce],
		Pasajes:     d[Pasajes],
		Universidad: d[Universidad],
		DolarC:      d[DolarC],
		Otros:       d[Otros],
		ID:          id,
	}
	rec.Total = Sum(rec.Amounts()...)
	if math.IsInf(rec.Total, 0) || math.IsNaN(rec.Total) {
		return ExpenseRecord{}, ErrTotalOutOfRange
	}
	return rec, nil
}
