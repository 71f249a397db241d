package ledger

import "bankit/internal/core"

// Window is the canonical date range of a ledger view.
type Window struct {
	Start core.Date
	End   core.Date
	// ProjectFuture is set when the window reaches today, so the months
	// after End must be projected.
	ProjectFuture bool
}

// historyGraceDays is the number of days into a month during which the
// default window still starts on the previous month.
const historyGraceDays = 7

// ResolveWindow turns optional "YYYY-MM" inputs into a window. Unparseable
// inputs are treated as absent.
func ResolveWindow(startInput, endInput string, today core.Date) Window {
	var w Window

	start, hasStart := core.ParseMonth(startInput)
	end, hasEnd := core.ParseMonth(endInput)

	if hasStart {
		w.Start = start.FirstDay()
	} else {
		w.Start = FirstHistoryDay(today)
	}

	if !hasEnd {
		w.End = today
		w.ProjectFuture = true
	} else {
		w.End = end.LastDay()
		if w.End.After(today) {
			w.End = today
			w.ProjectFuture = true
		}
	}

	if w.Start.After(w.End) {
		w.Start, w.End = w.End, w.Start
	}
	return w
}

// FirstHistoryDay returns the default first day of the history: the 1st of
// the current month, or of the previous month during the first week.
func FirstHistoryDay(today core.Date) core.Date {
	m := core.MonthOf(today)
	if today.Day() > historyGraceDays {
		return m.FirstDay()
	}
	return m.Add(-1).FirstDay()
}
