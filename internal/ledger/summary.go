package ledger

import (
	"context"
	"fmt"

	"bankit/internal/core"
)

// CategoryAggregator returns the per-category totals of one month.
type CategoryAggregator interface {
	CategoryTotals(ctx context.Context, month core.Month) ([]core.CategoryTotal, error)
}

// CategoryAggregatorFunc adapts a function to CategoryAggregator.
type CategoryAggregatorFunc func(ctx context.Context, month core.Month) ([]core.CategoryTotal, error)

func (f CategoryAggregatorFunc) CategoryTotals(ctx context.Context, month core.Month) ([]core.CategoryTotal, error) {
	return f(ctx, month)
}

// MonthSummary holds the category totals of one month.
type MonthSummary struct {
	Month  core.Month
	Totals []core.CategoryTotal
}

// Total returns the sum over every category.
func (s MonthSummary) Total() core.Money {
	var sum core.Money
	for _, t := range s.Totals {
		sum = sum.Add(t.Total)
	}
	return sum
}

// SummarizeCategories aggregates every month between d1 and d2, in either
// order, both months included. Months without any category are omitted.
func SummarizeCategories(ctx context.Context, agg CategoryAggregator, d1, d2 core.Date) ([]MonthSummary, error) {
	from, to := core.MonthOf(d1), core.MonthOf(d2)
	if to.Before(from) {
		from, to = to, from
	}

	var out []MonthSummary
	for m := from; !m.After(to); m = m.Add(1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		totals, err := agg.CategoryTotals(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("category totals for %s: %w", m, err)
		}
		if len(totals) == 0 {
			continue
		}
		out = append(out, MonthSummary{Month: m, Totals: totals})
	}
	return out, nil
}
