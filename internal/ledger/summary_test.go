package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankit/internal/core"
)

type fakeAggregator map[core.Month][]core.CategoryTotal

func (f fakeAggregator) CategoryTotals(_ context.Context, m core.Month) ([]core.CategoryTotal, error) {
	return f[m], nil
}

func TestSummarizeCategories(t *testing.T) {
	food := core.Category{ID: 1, Name: "Food"}
	rent := core.Category{ID: 2, Name: "Rent"}
	agg := fakeAggregator{
		core.NewMonth(2024, 1): {{Category: food, Total: core.Cents(-12000)}, {Category: rent, Total: core.Cents(-80000)}},
		core.NewMonth(2024, 3): {{Category: food, Total: core.Cents(-9000)}},
	}
	d1 := core.NewDate(2023, 12, 15)
	d2 := core.NewDate(2024, 3, 2)

	got, err := SummarizeCategories(context.Background(), agg, d1, d2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-01", got[0].Month.String())
	assert.Equal(t, "-920.00", got[0].Total().String())
	assert.Equal(t, "2024-03", got[1].Month.String())

	reversed, err := SummarizeCategories(context.Background(), agg, d2, d1)
	require.NoError(t, err)
	assert.Equal(t, got, reversed)

	for _, s := range got {
		assert.NotEmpty(t, s.Totals)
	}
}

func TestSummarizeCategoriesSingleMonth(t *testing.T) {
	calls := 0
	agg := CategoryAggregatorFunc(func(_ context.Context, m core.Month) ([]core.CategoryTotal, error) {
		calls++
		assert.Equal(t, "2024-05", m.String())
		return nil, nil
	})
	got, err := SummarizeCategories(context.Background(), agg, core.NewDate(2024, 5, 1), core.NewDate(2024, 5, 31))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, calls)
}

func TestSummarizeCategoriesPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	agg := CategoryAggregatorFunc(func(context.Context, core.Month) ([]core.CategoryTotal, error) {
		return nil, boom
	})
	_, err := SummarizeCategories(context.Background(), agg, core.NewDate(2024, 1, 1), core.NewDate(2024, 2, 1))
	require.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = SummarizeCategories(ctx, fakeAggregator{}, core.NewDate(2024, 1, 1), core.NewDate(2024, 2, 1))
	require.ErrorIs(t, err, context.Canceled)
}
