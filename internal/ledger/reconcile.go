package ledger

import (
	"fmt"

	"bankit/internal/core"
)

// History is a reconciled range of operations.
type History struct {
	Entries []Entry
	// Opening is the settled balance before the first entry.
	Opening core.Money
	// Balance is the settled balance after the last settled entry.
	Balance core.Money
	// ForecastError accumulates amount minus planned over matched entries.
	ForecastError core.Money
	// Waiting sums the planned amounts not debited yet.
	Waiting core.Money
}

// CurrentWaiting is the balance once every waiting operation clears.
func (h History) CurrentWaiting() core.Money {
	return h.Balance.Add(h.Waiting)
}

// PeriodBalance is the settled variation over the range.
func (h History) PeriodBalance() core.Money {
	return h.Balance.Sub(h.Opening)
}

// Reconcile computes running totals and balances over ops, which must be
// ordered by date. Settled operations are walked first; planned-only ones are
// then stacked on top of the settled balance in the order they appear.
func Reconcile(ops []core.Operation, opening core.NullMoney) (History, error) {
	if !opening.Valid && len(ops) == 0 {
		return History{}, ErrAccountNotInitialized
	}

	h := History{
		Entries: make([]Entry, len(ops)),
		Opening: opening.Money,
	}
	balance := opening.Money

	for i, op := range ops {
		state, err := op.State()
		if err != nil {
			return History{}, fmt.Errorf("operation %d: %w", op.ID, err)
		}
		h.Entries[i] = Entry{ID: RealID(op.ID), Operation: op}
		if state == core.PlannedOnly {
			continue
		}
		balance = balance.Add(op.Amount.Money)
		h.Entries[i].RunningTotal = balance
		if state == core.SettledMatched {
			h.ForecastError = h.ForecastError.Add(op.Amount.Money.Sub(op.Planned.Money))
		}
	}

	for i, op := range ops {
		if op.Amount.Valid {
			continue
		}
		h.Waiting = h.Waiting.Add(op.Planned.Money)
		h.Entries[i].RunningTotal = balance.Add(h.Waiting)
	}

	h.Balance = balance
	return h, nil
}

