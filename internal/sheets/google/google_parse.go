package google

import (
	"fmt"
	"strings"

	"bankit/internal/core"
	"bankit/internal/ledger"
)

var summaryHeader = []any{"Month", "Category", "Amount"}

// totalLabel marks the per-month total rows. They are recomputed on read.
const totalLabel = "Total"

// summaryRows lays summaries out as Month | Category | Amount rows under a
// header. Amounts are numbers so the sheet can sum them; months stay text.
func summaryRows(summaries []ledger.MonthSummary) [][]any {
	rows := [][]any{summaryHeader}
	for _, s := range summaries {
		month := s.Month.String()
		for _, t := range s.Totals {
			rows = append(rows, []any{month, t.Category.Name, t.Total.Decimal().InexactFloat64()})
		}
		rows = append(rows, []any{month, totalLabel, s.Total().Decimal().InexactFloat64()})
	}
	return rows
}

// parseSummaryRows converts a values matrix written by summaryRows back into
// month summaries. Blank rows and total rows are skipped.
func parseSummaryRows(values [][]any) ([]ledger.MonthSummary, error) {
	var out []ledger.MonthSummary
	for i, raw := range values {
		row := toStrings(raw)
		monthCell := safeGet(row, 0)
		if i == 0 && strings.EqualFold(monthCell, "Month") {
			continue
		}
		name := safeGet(row, 1)
		if monthCell == "" || name == "" || strings.EqualFold(name, totalLabel) {
			continue
		}

		month, ok := core.ParseMonth(monthCell)
		if !ok {
			return nil, fmt.Errorf("row %d: unexpected month %q", i+1, monthCell)
		}
		amount, err := core.ParseAmount(strings.Trim(safeGet(row, 2), "€ "))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		total := core.CategoryTotal{Category: core.Category{Name: name}, Total: amount}
		if n := len(out); n > 0 && out[n-1].Month == month {
			out[n-1].Totals = append(out[n-1].Totals, total)
			continue
		}
		out = append(out, ledger.MonthSummary{Month: month, Totals: []core.CategoryTotal{total}})
	}
	return out, nil
}
