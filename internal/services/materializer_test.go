package services

import (
	"context"
	"testing"

	"bankit/internal/core"
	"bankit/internal/memory"
)

func TestDueDates(t *testing.T) {
	tests := []struct {
		name   string
		day    int
		today  string
		cutoff int
		want   []string
	}{
		{"due later this month", 20, "2024-03-10", 2, nil},
		{"due within cutoff", 11, "2024-03-10", 2, []string{"2024-03-11"}},
		{"already due this month", 3, "2024-03-10", 2, []string{"2024-03-03"}},
		{"cutoff spans next month", 1, "2024-01-30", 2, []string{"2024-01-01", "2024-02-01"}},
		{"clamped day past the cutoff", 31, "2024-01-30", 2, []string{"2024-01-31"}},
		{"clamped day inside the cutoff", 31, "2024-02-28", 2, []string{"2024-02-29"}},
		{"zero cutoff", 10, "2024-03-10", 0, []string{"2024-03-10"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := core.Cost{ID: 1, Day: tt.day, Amount: core.MustParseAmount("-1"), Label: "x"}
			got := dueDates(c, core.MustParseDate(tt.today), tt.cutoff)
			if len(got) != len(tt.want) {
				t.Fatalf("dueDates() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i].String() != tt.want[i] {
					t.Errorf("dueDates()[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestMaterializeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	catID, err := store.InsertCategory(ctx, core.Category{Name: "Utilities"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.InsertCost(ctx, core.Cost{Day: 1, Amount: core.MustParseAmount("-20"), Label: "Power", CategoryID: catID}); err != nil {
		t.Fatal(err)
	}

	m := NewCostMaterializer(store, 2, nil)
	today := core.MustParseDate("2024-01-30")

	n, err := m.Materialize(ctx, today)
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("Materialize() created %d operations, want 2", n)
	}

	n, err = m.Materialize(ctx, today)
	if err != nil {
		t.Fatalf("second Materialize() error = %v", err)
	}
	if n != 0 {
		t.Errorf("second Materialize() created %d operations, want 0", n)
	}

	ops, err := store.Future(ctx, core.MustParseDate("2024-01-31"))
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 1 {
		t.Fatalf("Future() returned %d operations, want 1", len(ops))
	}
	op := ops[0]
	if op.Date.String() != "2024-02-01" || op.CategoryID != catID || op.Planned.Money.String() != "-20.00" || op.Amount.Valid {
		t.Errorf("materialized operation = %+v", op)
	}
}
