package google

import (
	"testing"
	"time"

	"bankit/internal/core"
	"bankit/internal/ledger"
)

func TestSummaryRows(t *testing.T) {
	summaries := []ledger.MonthSummary{
		{
			Month: core.NewMonth(2024, time.January),
			Totals: []core.CategoryTotal{
				{Category: core.Category{ID: 1, Name: "Food"}, Total: core.MustParseAmount("-120.50")},
				{Category: core.Category{ID: 2, Name: "Housing"}, Total: core.MustParseAmount("-800")},
			},
		},
		{
			Month:  core.NewMonth(2024, time.March),
			Totals: []core.CategoryTotal{{Category: core.Category{ID: 1, Name: "Food"}, Total: core.MustParseAmount("-10")}},
		},
	}

	rows := summaryRows(summaries)
	if len(rows) != 6 {
		t.Fatalf("summaryRows() returned %d rows, want 6", len(rows))
	}
	if rows[0][0] != "Month" || rows[0][2] != "Amount" {
		t.Errorf("unexpected header %v", rows[0])
	}
	if rows[1][0] != "2024-01" || rows[1][1] != "Food" || rows[1][2] != -120.5 {
		t.Errorf("unexpected first row %v", rows[1])
	}
	if rows[3][1] != totalLabel || rows[3][2] != -920.5 {
		t.Errorf("unexpected total row %v", rows[3])
	}
}

func TestParseSummaryRowsRoundTrip(t *testing.T) {
	values := [][]any{
		{"Month", "Category", "Amount"},
		{"2024-01", "Food", -120.5},
		{"2024-01", "Housing", "-800"},
		{"2024-01", "Total", -920.5},
		{},
		{"2024-03", "Food", "€ -10,00"},
		{"2024-03", "Total", -10.0},
	}

	got, err := parseSummaryRows(values)
	if err != nil {
		t.Fatalf("parseSummaryRows() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("parseSummaryRows() returned %d months, want 2", len(got))
	}
	if got[0].Month != core.NewMonth(2024, time.January) || len(got[0].Totals) != 2 {
		t.Errorf("unexpected January summary %+v", got[0])
	}
	if got[0].Total().String() != "-920.50" {
		t.Errorf("January total = %s, want -920.50", got[0].Total())
	}
	if got[1].Totals[0].Total.String() != "-10.00" {
		t.Errorf("March food = %s, want -10.00", got[1].Totals[0].Total)
	}
}

func TestParseSummaryRowsLargeAmounts(t *testing.T) {
	got, err := parseSummaryRows([][]any{{"2024-05", "Salary", 1250000.0}})
	if err != nil {
		t.Fatalf("parseSummaryRows() error = %v", err)
	}
	if got[0].Totals[0].Total.String() != "1250000.00" {
		t.Errorf("amount = %s, want 1250000.00", got[0].Totals[0].Total)
	}
}

func TestParseSummaryRowsErrors(t *testing.T) {
	tests := []struct {
		name   string
		values [][]any
	}{
		{"bad month", [][]any{{"January", "Food", "1"}}},
		{"bad amount", [][]any{{"2024-01", "Food", "abc"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseSummaryRows(tt.values); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
