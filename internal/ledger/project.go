package ledger

import (
	"fmt"
	"slices"

	"bankit/internal/core"
)

const (
	// DefaultHorizon is the number of months projected after the current one.
	DefaultHorizon = 1
	// DefaultCostCutoffDays suppresses costs due within two days of the
	// anchor: they are expected to clear for real with the next sync.
	DefaultCostCutoffDays = 2
)

// ProjectOptions tunes Project.
type ProjectOptions struct {
	Horizon        int
	CostCutoffDays int
}

func DefaultProjectOptions() ProjectOptions {
	return ProjectOptions{Horizon: DefaultHorizon, CostCutoffDays: DefaultCostCutoffDays}
}

// Project builds one MonthOps per month from the anchor month to Horizon
// months later. Each month receives the planned operations dated in it and
// one entry per cost due after the cutoff, and carries its ending balance
// into the next month.
func Project(anchor core.Date, planned []core.Operation, costs []core.Cost, start core.Money, opts ProjectOptions) ([]MonthOps, error) {
	if opts.Horizon < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHorizon, opts.Horizon)
	}
	if opts.CostCutoffDays < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCutoff, opts.CostCutoffDays)
	}
	for _, op := range planned {
		if _, err := op.State(); err != nil {
			return nil, fmt.Errorf("planned operation %d: %w", op.ID, err)
		}
	}

	cutoff := anchor.AddDays(opts.CostCutoffDays)
	first := core.MonthOf(anchor)
	months := make([]MonthOps, 0, opts.Horizon+1)
	balance := start

	for i := 0; i <= opts.Horizon; i++ {
		month := first.Add(i)
		var entries []Entry

		for _, op := range planned {
			if month.Contains(op.Date) {
				entries = append(entries, Entry{ID: RealID(op.ID), Operation: op})
			}
		}

		for _, c := range costs {
			due := c.DueDate(month)
			if !due.After(cutoff) {
				continue
			}
			entries = append(entries, Entry{
				ID:   ProjectedID(c.ID, i),
				Auto: true,
				Operation: core.Operation{
					Date:       due,
					Label:      c.Label,
					Planned:    core.Some(c.Amount),
					CategoryID: c.CategoryID,
				},
			})
		}

		slices.SortStableFunc(entries, func(a, b Entry) int {
			return a.Operation.Date.Compare(b.Operation.Date.Time)
		})
		for j := range entries {
			balance = balance.Add(entries[j].Operation.Value())
			entries[j].RunningTotal = balance
		}

		var err error
		months, err = appendMonth(months, MonthOps{Month: month, Entries: entries, Balance: balance})
		if err != nil {
			return nil, err
		}
	}
	return months, nil
}
