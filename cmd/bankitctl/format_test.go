package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"bankit/internal/core"
	"bankit/internal/ledger"
)

func TestSummaryMonths(t *testing.T) {
	today := core.MustParseDate("2024-03-15")
	tests := []struct {
		name     string
		from, to string
		want     [2]string
		wantErr  bool
	}{
		{"defaults", "", "", [2]string{"2024-03", "2024-03"}, false},
		{"from only", "2024-01", "", [2]string{"2024-01", "2024-01"}, false},
		{"range", "2024-01", "2024-04", [2]string{"2024-01", "2024-04"}, false},
		{"reversed", "2024-04", "2024-01", [2]string{"2024-01", "2024-04"}, false},
		{"bad from", "March", "", [2]string{}, true},
		{"bad to", "2024-01", "2024-13", [2]string{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &summaryCmd{from: tt.from, to: tt.to}
			from, to, err := c.months(today)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got := [2]string{from.String(), to.String()}; got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWriteSummary(t *testing.T) {
	food := core.Category{ID: 1, Name: "Food"}
	home := core.Category{ID: 2, Name: "Home"}
	summaries := []ledger.MonthSummary{
		{Month: core.NewMonth(2024, time.January), Totals: []core.CategoryTotal{
			{Category: food, Total: core.Cents(-12000)},
			{Category: home, Total: core.Cents(-50000)},
		}},
		{Month: core.NewMonth(2024, time.February), Totals: []core.CategoryTotal{
			{Category: food, Total: core.Cents(-8000)},
		}},
	}

	var buf bytes.Buffer
	writeSummary(&buf, summaries)
	out := buf.String()

	for _, want := range []string{"2024-01", "2024-02", "Food", "Home", "620.00", "80.00", "700.00", "All months"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteSummarySingleMonthHasNoGrandTotal(t *testing.T) {
	var buf bytes.Buffer
	writeSummary(&buf, []ledger.MonthSummary{{Month: core.NewMonth(2024, time.May)}})
	if strings.Contains(buf.String(), "All months") {
		t.Fatalf("unexpected grand total:\n%s", buf.String())
	}
}
