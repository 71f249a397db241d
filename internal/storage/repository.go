package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bankit/internal/core"
	"bankit/internal/ports"

	_ "modernc.org/sqlite"
)

var (
	_ ports.Backend       = (*SQLiteRepository)(nil)
	_ ports.ChangeWatcher = (*SQLiteRepository)(nil)
)

// SQLiteRepository implements ports.Backend on a SQLite database.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	// watch is a connection that never writes, so its data_version moves on
	// every commit made by the pool or by another process.
	watch *sql.Conn
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	watch, err := db.Conn(context.Background())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open watch connection: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		watch:   watch,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.watch != nil {
		r.watch.Close()
	}
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// DataVersion returns SQLite's data_version as seen by the watch connection.
func (r *SQLiteRepository) DataVersion(ctx context.Context) (int64, error) {
	var v int64
	if err := r.watch.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read data_version: %w", err)
	}
	return v, nil
}

// Ping checks the database connection for readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) History(ctx context.Context, start, end core.Date) ([]core.Operation, error) {
	rows, err := r.queries.ListOperationsBetween(ctx, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("list operations between %s and %s: %w", start, end, err)
	}
	return toOperations(rows)
}

func (r *SQLiteRepository) OpeningBalance(ctx context.Context, before core.Date) (core.NullMoney, error) {
	sum, err := r.queries.SumSettledBefore(ctx, before.String())
	if err != nil {
		return core.NullMoney{}, fmt.Errorf("sum settled before %s: %w", before, err)
	}
	return fromNullCents(sum), nil
}

func (r *SQLiteRepository) Future(ctx context.Context, after core.Date) ([]core.Operation, error) {
	rows, err := r.queries.ListPlannedAfter(ctx, after.String())
	if err != nil {
		return nil, fmt.Errorf("list planned after %s: %w", after, err)
	}
	return toOperations(rows)
}

func (r *SQLiteRepository) Operation(ctx context.Context, id int64) (core.Operation, error) {
	row, err := r.queries.GetOperation(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Operation{}, fmt.Errorf("operation %d: %w", id, core.ErrOperationNotFound)
	}
	if err != nil {
		return core.Operation{}, fmt.Errorf("get operation %d: %w", id, err)
	}
	return toOperation(row)
}

func (r *SQLiteRepository) InsertOperation(ctx context.Context, op core.Operation) (int64, error) {
	if err := op.Validate(); err != nil {
		return 0, err
	}
	id, err := r.queries.CreateOperation(ctx, CreateOperationParams{
		OperationDate: op.Date.String(),
		Label:         op.Label,
		AmountCents:   toNullCents(op.Amount),
		PlannedCents:  toNullCents(op.Planned),
		CategoryID:    toNullID(op.CategoryID),
	})
	if err != nil {
		return 0, fmt.Errorf("create operation: %w", err)
	}

	slog.InfoContext(ctx, "Operation saved to SQLite",
		"id", id,
		"label", op.Label,
		"date", op.Date.String(),
		"amount", op.Amount.String(),
		"planned", op.Planned.String())

	return id, nil
}

func (r *SQLiteRepository) UpdateOperation(ctx context.Context, op core.Operation) error {
	if err := op.Validate(); err != nil {
		return err
	}
	n, err := r.queries.UpdateOperation(ctx, UpdateOperationParams{
		ID:            op.ID,
		OperationDate: op.Date.String(),
		Label:         op.Label,
		AmountCents:   toNullCents(op.Amount),
		PlannedCents:  toNullCents(op.Planned),
		CategoryID:    toNullID(op.CategoryID),
	})
	if err != nil {
		return fmt.Errorf("update operation %d: %w", op.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("operation %d: %w", op.ID, core.ErrOperationNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteOperation(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteOperation(ctx, id)
	if err != nil {
		return fmt.Errorf("delete operation %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("operation %d: %w", id, core.ErrOperationNotFound)
	}
	slog.InfoContext(ctx, "Operation deleted", "id", id)
	return nil
}

func (r *SQLiteRepository) PlannedExists(ctx context.Context, label string, date core.Date) (bool, error) {
	ok, err := r.queries.PlannedExists(ctx, label, date.String())
	if err != nil {
		return false, fmt.Errorf("check planned %q on %s: %w", label, date, err)
	}
	return ok, nil
}

func (r *SQLiteRepository) Costs(ctx context.Context) ([]core.Cost, error) {
	rows, err := r.queries.ListCosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list costs: %w", err)
	}
	costs := make([]core.Cost, len(rows))
	for i, c := range rows {
		costs[i] = core.Cost{
			ID:         c.ID,
			Day:        int(c.Day),
			Amount:     core.Cents(c.AmountCents),
			Label:      c.Label,
			CategoryID: c.CategoryID.Int64,
		}
	}
	return costs, nil
}

func (r *SQLiteRepository) InsertCost(ctx context.Context, c core.Cost) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	id, err := r.queries.CreateCost(ctx, CreateCostParams{
		Day:         int64(c.Day),
		AmountCents: c.Amount.Cents(),
		Label:       c.Label,
		CategoryID:  toNullID(c.CategoryID),
	})
	if err != nil {
		return 0, fmt.Errorf("create cost: %w", err)
	}
	slog.InfoContext(ctx, "Cost saved to SQLite", "id", id, "label", c.Label, "day", c.Day)
	return id, nil
}

func (r *SQLiteRepository) DeleteCost(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteCost(ctx, id)
	if err != nil {
		return fmt.Errorf("delete cost %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("cost %d: %w", id, core.ErrCostNotFound)
	}
	return nil
}

func (r *SQLiteRepository) Categories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	cats := make([]core.Category, len(rows))
	for i, c := range rows {
		cats[i] = core.Category{ID: c.ID, Name: c.Name}
	}
	return cats, nil
}

func (r *SQLiteRepository) Category(ctx context.Context, id int64) (core.Category, error) {
	c, err := r.queries.GetCategory(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrCategoryNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, err)
	}
	return core.Category{ID: c.ID, Name: c.Name}, nil
}

func (r *SQLiteRepository) InsertCategory(ctx context.Context, c core.Category) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	id, err := r.queries.CreateCategory(ctx, c.Name)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return 0, fmt.Errorf("%w: %q", core.ErrDuplicateCategory, c.Name)
	}
	if err != nil {
		return 0, fmt.Errorf("create category %q: %w", c.Name, err)
	}
	return id, nil
}

func (r *SQLiteRepository) CategoryTotals(ctx context.Context, month core.Month) ([]core.CategoryTotal, error) {
	rows, err := r.queries.CategoryTotalsBetween(ctx, month.FirstDay().String(), month.LastDay().String())
	if err != nil {
		return nil, fmt.Errorf("category totals for %s: %w", month, err)
	}
	totals := make([]core.CategoryTotal, len(rows))
	for i, row := range rows {
		totals[i] = core.CategoryTotal{
			Category: core.Category{ID: row.CategoryID, Name: row.CategoryName},
			Total:    core.Cents(row.TotalCents),
		}
	}
	return totals, nil
}

func (r *SQLiteRepository) Option(ctx context.Context, name string) (string, bool, error) {
	v, err := r.queries.GetOption(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get option %s: %w", name, err)
	}
	return v, true, nil
}

func (r *SQLiteRepository) SetOption(ctx context.Context, name, value string) error {
	if err := r.queries.UpsertOption(ctx, name, value); err != nil {
		return fmt.Errorf("set option %s: %w", name, err)
	}
	return nil
}

func toOperations(rows []Operation) ([]core.Operation, error) {
	ops := make([]core.Operation, 0, len(rows))
	for _, row := range rows {
		op, err := toOperation(row)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func toOperation(row Operation) (core.Operation, error) {
	d, err := core.ParseDate(row.OperationDate)
	if err != nil {
		return core.Operation{}, fmt.Errorf("operation %d: %w", row.ID, err)
	}
	return core.Operation{
		ID:         row.ID,
		Date:       d,
		Label:      row.Label,
		Amount:     fromNullCents(row.AmountCents),
		Planned:    fromNullCents(row.PlannedCents),
		CategoryID: row.CategoryID.Int64,
	}, nil
}

func toNullCents(m core.NullMoney) sql.NullInt64 {
	if !m.Valid {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: m.Money.Cents(), Valid: true}
}

func fromNullCents(n sql.NullInt64) core.NullMoney {
	if !n.Valid {
		return core.NullMoney{}
	}
	return core.Some(core.Cents(n.Int64))
}

func toNullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id > 0}
}
