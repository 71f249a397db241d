package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"bankit/internal/core"
	"bankit/internal/ledger"
	gsheet "bankit/internal/sheets/google"
)

type listCmd struct {
	start string
	end   string
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "print the reconciled operations of a period" }
func (*listCmd) Usage() string {
	return `bankitctl list [-start YYYY-MM] [-end YYYY-MM]

  Prints the operations of the period with their running balance, the
  balance figures and, when the period reaches today, the forecast.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "start", "", "First month of the period (defaults to the current month, or the previous one during the first week).")
	f.StringVar(&c.end, "end", "", "Last month of the period (defaults to today).")
}

func (c *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sess := openSession(ctx)
	defer sess.close()

	view, err := sess.account.Overview(ctx, c.start, c.end)
	if errors.Is(err, ledger.ErrAccountNotInitialized) {
		fmt.Fprintln(os.Stderr, "The account is not initialized yet.")
		return subcommands.ExitFailure
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	names := categoryNames(view.Categories)
	writeHistory(os.Stdout, view, names)
	if len(view.Future) > 0 {
		fmt.Fprintln(os.Stdout)
		writeFuture(os.Stdout, view.Future, names)
	}
	return subcommands.ExitSuccess
}

type projectCmd struct {
	months int
}

func (*projectCmd) Name() string     { return "project" }
func (*projectCmd) Synopsis() string { return "print the projected balance of the coming months" }
func (*projectCmd) Usage() string {
	return `bankitctl project [-months N]

  Projects the planned operations and the monthly costs over the rest of
  the current month and the N following months.
`
}

func (c *projectCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.months, "months", 3, "Number of months after the current one.")
}

func (c *projectCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.months < 0 {
		fmt.Fprintln(os.Stderr, ledger.ErrInvalidHorizon)
		return subcommands.ExitUsageError
	}
	sess := openSession(ctx)
	defer sess.close()

	view, err := sess.account.WithHorizon(c.months).Overview(ctx, "", "")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(os.Stdout, "Balance today: %s (after waiting operations: %s)\n\n",
		view.Current.Display(), view.CurrentWaiting.Display())
	writeFuture(os.Stdout, view.Future, categoryNames(view.Categories))
	return subcommands.ExitSuccess
}

type summaryCmd struct {
	from  string
	to    string
	sheet bool
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "print the totals per category and month" }
func (*summaryCmd) Usage() string {
	return `bankitctl summary -from YYYY-MM -to YYYY-MM [-sheet]

  Prints the settled-or-planned totals per category for every month of the
  range. With -sheet, prints the summary last exported to Google Sheets.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "First month (defaults to the current month).")
	f.StringVar(&c.to, "to", "", "Last month (defaults to the first month).")
	f.BoolVar(&c.sheet, "sheet", false, "Read the exported summary from Google Sheets.")
}

// months resolves the flag values against today.
func (c *summaryCmd) months(today core.Date) (from, to core.Month, err error) {
	from = core.MonthOf(today)
	if c.from != "" {
		m, ok := core.ParseMonth(c.from)
		if !ok {
			return from, to, fmt.Errorf("invalid -from %q: want YYYY-MM", c.from)
		}
		from = m
	}
	to = from
	if c.to != "" {
		m, ok := core.ParseMonth(c.to)
		if !ok {
			return from, to, fmt.Errorf("invalid -to %q: want YYYY-MM", c.to)
		}
		to = m
	}
	if to.Before(from) {
		from, to = to, from
	}
	return from, to, nil
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.sheet {
		return c.executeSheet(ctx)
	}

	sess := openSession(ctx)
	defer sess.close()

	from, to, err := c.months(sess.account.Today())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	summaries, err := sess.account.Summary(ctx, from.FirstDay(), to.LastDay())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	writeSummary(os.Stdout, summaries)
	return subcommands.ExitSuccess
}

func (c *summaryCmd) executeSheet(ctx context.Context) subcommands.ExitStatus {
	sess := openSession(ctx)
	defer sess.close()

	exporter, err := gsheet.New(ctx, sess.cfg.GoogleSpreadsheetID, sess.cfg.GoogleSheetName, sess.logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	summaries, err := exporter.ReadSummary(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	writeSummary(os.Stdout, summaries)
	return subcommands.ExitSuccess
}

type materializeCmd struct{}

func (*materializeCmd) Name() string     { return "materialize" }
func (*materializeCmd) Synopsis() string { return "store the monthly costs falling due soon" }
func (*materializeCmd) Usage() string {
	return `bankitctl materialize

  Stores the monthly costs due before today plus the cost cutoff as planned
  operations. Costs already stored are skipped.
`
}

func (*materializeCmd) SetFlags(*flag.FlagSet) {}

func (*materializeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sess := openSession(ctx)
	defer sess.close()

	n, err := sess.account.MaterializeCosts(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(os.Stdout, "%d planned operation(s) added\n", n)
	return subcommands.ExitSuccess
}
