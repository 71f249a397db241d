// Package ports declares the storage capabilities the account service and
// the ledger engine depend on. Missing rows are reported with the core
// not-found errors.
package ports

import (
	"context"

	"bankit/internal/core"
)

// OperationStore reads and writes operations.
type OperationStore interface {
	// History returns every operation dated in [start, end], ordered by date.
	History(ctx context.Context, start, end core.Date) ([]core.Operation, error)
	// OpeningBalance sums the settled amounts dated strictly before the
	// given day. It is null when no settled operation exists before it.
	OpeningBalance(ctx context.Context, before core.Date) (core.NullMoney, error)
	// Future returns the planned-only operations dated after the given day.
	Future(ctx context.Context, after core.Date) ([]core.Operation, error)
	Operation(ctx context.Context, id int64) (core.Operation, error)
	InsertOperation(ctx context.Context, op core.Operation) (int64, error)
	UpdateOperation(ctx context.Context, op core.Operation) error
	DeleteOperation(ctx context.Context, id int64) error
	// PlannedExists reports whether a planned operation with this label is
	// already stored on the given day.
	PlannedExists(ctx context.Context, label string, date core.Date) (bool, error)
}

// CostStore manages recurring cost templates.
type CostStore interface {
	Costs(ctx context.Context) ([]core.Cost, error)
	InsertCost(ctx context.Context, c core.Cost) (int64, error)
	DeleteCost(ctx context.Context, id int64) error
}

// CategoryStore manages categories and their monthly aggregation.
type CategoryStore interface {
	Categories(ctx context.Context) ([]core.Category, error)
	Category(ctx context.Context, id int64) (core.Category, error)
	InsertCategory(ctx context.Context, c core.Category) (int64, error)
	// CategoryTotals sums the settled or planned amounts of the month per
	// category. Uncategorized operations are left out.
	CategoryTotals(ctx context.Context, month core.Month) ([]core.CategoryTotal, error)
}

// OptionsStore keeps named configuration values such as the last sync date.
type OptionsStore interface {
	// Option returns the value and false when it was never set.
	Option(ctx context.Context, name string) (string, bool, error)
	SetOption(ctx context.Context, name, value string) error
}

// Backend is the full set of storage capabilities.
type Backend interface {
	OperationStore
	CostStore
	CategoryStore
	OptionsStore
	Close() error
}

// ChangeWatcher is implemented by stores that other processes may write to.
// The version changes whenever a commit is made through another connection.
type ChangeWatcher interface {
	DataVersion(ctx context.Context) (int64, error)
}
