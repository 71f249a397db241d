package services

import (
	"context"
	"fmt"

	"bankit/internal/core"
	"bankit/internal/log"
	"bankit/internal/ports"
)

// CostStores is what the materializer needs from storage.
type CostStores interface {
	ports.OperationStore
	ports.CostStore
}

// CostMaterializer turns recurring costs falling due soon into stored
// planned operations. It covers exactly what the projector leaves out: costs
// due from the start of the current month up to today plus the cutoff.
type CostMaterializer struct {
	store      CostStores
	cutoffDays int
	logger     *log.Logger
}

func NewCostMaterializer(store CostStores, cutoffDays int, logger *log.Logger) *CostMaterializer {
	if logger == nil {
		logger = log.Discard()
	}
	return &CostMaterializer{
		store:      store,
		cutoffDays: cutoffDays,
		logger:     logger.WithComponent(log.ComponentMaterialize),
	}
}

// Materialize inserts the missing planned operations and returns how many
// were created. A failing cost is logged and skipped.
func (m *CostMaterializer) Materialize(ctx context.Context, today core.Date) (int, error) {
	costs, err := m.store.Costs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list costs: %w", err)
	}

	created := 0
	for _, c := range costs {
		for _, due := range dueDates(c, today, m.cutoffDays) {
			exists, err := m.store.PlannedExists(ctx, c.Label, due)
			if err != nil {
				m.logger.ErrorContext(ctx, "Failed to check planned operation",
					log.FieldCostID, c.ID, log.FieldDate, due.String(), log.FieldError, err.Error())
				continue
			}
			if exists {
				continue
			}

			op := core.Operation{
				Date:       due,
				Label:      c.Label,
				Planned:    core.Some(c.Amount),
				CategoryID: c.CategoryID,
			}
			id, err := m.store.InsertOperation(ctx, op)
			if err != nil {
				m.logger.ErrorContext(ctx, "Failed to materialize cost",
					log.FieldCostID, c.ID, log.FieldLabel, c.Label, log.FieldError, err.Error())
				continue
			}
			created++
			m.logger.InfoContext(ctx, "Materialized cost into planned operation",
				log.FieldCostID, c.ID,
				log.FieldOperationID, id,
				log.FieldDate, due.String(),
				log.FieldPlanned, c.Amount.String())
		}
	}

	m.logger.InfoContext(ctx, "Cost materialization complete",
		"created", created,
		"costs", len(costs),
		log.FieldDate, today.String())
	return created, nil
}

// dueDates returns the clamped due dates of c in the months touched by
// [today, today+cutoff] that are not after today+cutoff.
func dueDates(c core.Cost, today core.Date, cutoffDays int) []core.Date {
	limit := today.AddDays(cutoffDays)
	var out []core.Date
	for m := core.MonthOf(today); !m.After(core.MonthOf(limit)); m = m.Add(1) {
		if due := c.DueDate(m); !due.After(limit) {
			out = append(out, due)
		}
	}
	return out
}
