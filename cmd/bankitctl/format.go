package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Rhymond/go-money"

	"bankit/internal/core"
	"bankit/internal/ledger"
	"bankit/internal/services"
)

const dateLayout = "02/01/2006"

func categoryNames(cats []core.Category) map[int64]string {
	names := make(map[int64]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	return names
}

func display(m core.NullMoney) string {
	if v, ok := m.Get(); ok {
		return v.Display()
	}
	return "-"
}

func writeHistory(w io.Writer, v *services.AccountView, names map[int64]string) {
	fmt.Fprintf(w, "%s - %s\n\n", v.Window.Start.Format(dateLayout), v.Window.End.Format(dateLayout))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Date\tLabel\tAmount\tPlanned\tBalance\tCategory\t")
	for _, e := range v.Entries {
		op := e.Operation
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			op.Date.Format(dateLayout), op.Label, display(op.Amount), display(op.Planned),
			e.RunningTotal.Display(), names[op.CategoryID])
	}
	tw.Flush()

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Current\t%s\n", v.Current.Display())
	fmt.Fprintf(tw, "Forecast error\t%s\n", v.CurrentDiff.Display())
	fmt.Fprintf(tw, "Planned, waiting\t%s\n", v.PlannedWaiting.Display())
	fmt.Fprintf(tw, "After waiting\t%s\n", v.CurrentWaiting.Display())
	fmt.Fprintf(tw, "Period balance\t%s\n", v.PeriodBalance.Display())
	if !v.LastSync.IsZero() {
		fmt.Fprintf(tw, "Last sync\t%s\n", v.LastSync.Format(dateLayout))
	}
	tw.Flush()
}

func writeFuture(w io.Writer, months []ledger.MonthOps, names map[int64]string) {
	for i, m := range months {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s  ending at %s\n", m.Month, m.Balance.Display())
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
		for _, e := range m.Entries {
			marker := ""
			if e.Auto {
				marker = "auto"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
				e.Operation.Date.Format(dateLayout), e.Operation.Label, display(e.Operation.Planned),
				e.RunningTotal.Display(), names[e.Operation.CategoryID], marker)
		}
		tw.Flush()
	}
}

// writeSummary prints one block per month and a grand total over the range.
func writeSummary(w io.Writer, summaries []ledger.MonthSummary) {
	grand := money.New(0, core.Currency)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t\t\n", s.Month)
		for _, t := range s.Totals {
			fmt.Fprintf(tw, "\t%s\t%s\t\n", t.Category.Name, t.Total.Display())
		}
		total := money.New(s.Total().Cents(), core.Currency)
		fmt.Fprintf(tw, "\tTotal\t%s\t\n", total.Display())
		if sum, err := grand.Add(total); err == nil {
			grand = sum
		}
	}
	if len(summaries) > 1 {
		fmt.Fprintf(tw, "All months\t\t%s\t\n", grand.Display())
	}
	tw.Flush()
}
