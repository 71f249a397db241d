// Package ledger holds the reconciliation and projection engine of the
// account: window resolution, history reconciliation, future projection and
// per-category summaries. Every function here is pure; storage reads happen
// before and writes after.
package ledger

import (
	"errors"
	"fmt"

	"bankit/internal/core"
)

var (
	// ErrAccountNotInitialized is returned by Reconcile when there is neither
	// an opening balance nor any operation. Callers redirect to the
	// initialization flow.
	ErrAccountNotInitialized = errors.New("account not initialized")
	ErrInvalidHorizon        = errors.New("horizon must not be negative")
	ErrInvalidCutoff         = errors.New("cost cutoff must not be negative")
	ErrDuplicateMonth        = errors.New("duplicate month in projection")
)

// EntryKind tells whether an entry is backed by a stored operation.
type EntryKind uint8

const (
	RealEntry EntryKind = iota + 1
	ProjectedEntry
)

// EntryID identifies an entry of a ledger view. Real entries carry the id of
// the stored operation; projected entries carry the cost they were built from
// and the month offset from the anchor, so the two never collide.
type EntryID struct {
	Kind        EntryKind
	OperationID int64
	CostID      int64
	Offset      int
}

func RealID(opID int64) EntryID {
	return EntryID{Kind: RealEntry, OperationID: opID}
}

func ProjectedID(costID int64, offset int) EntryID {
	return EntryID{Kind: ProjectedEntry, CostID: costID, Offset: offset}
}

// Real returns the stored operation id.
func (id EntryID) Real() (int64, bool) {
	return id.OperationID, id.Kind == RealEntry
}

// Projected returns the cost id and month offset of a projected entry.
func (id EntryID) Projected() (costID int64, offset int, ok bool) {
	return id.CostID, id.Offset, id.Kind == ProjectedEntry
}

func (id EntryID) String() string {
	switch id.Kind {
	case RealEntry:
		return fmt.Sprintf("op-%d", id.OperationID)
	case ProjectedEntry:
		return fmt.Sprintf("cost-%d-%d", id.CostID, id.Offset)
	default:
		return "invalid"
	}
}

func (id EntryID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// Entry is an operation enriched with the figures computed by the engine.
// The wrapped Operation is never modified.
type Entry struct {
	ID           EntryID
	Operation    core.Operation
	RunningTotal core.Money
	// Auto is set on entries synthesized from a Cost.
	Auto bool
}

// MonthOps groups the entries of one projected month. Balance is the ending
// balance after every entry of the month.
type MonthOps struct {
	Month   core.Month
	Entries []Entry
	Balance core.Money
}

// SameMonth reports whether both groups describe the same month.
func (m MonthOps) SameMonth(o MonthOps) bool {
	return m.Month == o.Month
}

// appendMonth appends m to an ordered projection, refusing duplicates and
// out of order months.
func appendMonth(months []MonthOps, m MonthOps) ([]MonthOps, error) {
	for _, existing := range months {
		if existing.SameMonth(m) {
			return months, fmt.Errorf("%w: %s", ErrDuplicateMonth, m.Month)
		}
	}
	if n := len(months); n > 0 && !months[n-1].Month.Before(m.Month) {
		return months, fmt.Errorf("month %s out of order after %s", m.Month, months[n-1].Month)
	}
	return append(months, m), nil
}
