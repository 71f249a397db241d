package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Operation struct {
	ID            int64
	OperationDate string
	Label         string
	AmountCents   sql.NullInt64
	PlannedCents  sql.NullInt64
	CategoryID    sql.NullInt64
}

type Cost struct {
	ID          int64
	Day         int64
	AmountCents int64
	Label       string
	CategoryID  sql.NullInt64
}

type Category struct {
	ID   int64
	Name string
}

type CategoryTotalRow struct {
	CategoryID   int64
	CategoryName string
	TotalCents   int64
}

const operationColumns = `id, operation_date, label, amount_cents, planned_cents, category_id`

func scanOperations(rows *sql.Rows) ([]Operation, error) {
	defer rows.Close()
	var items []Operation
	for rows.Next() {
		var i Operation
		if err := rows.Scan(&i.ID, &i.OperationDate, &i.Label, &i.AmountCents, &i.PlannedCents, &i.CategoryID); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listOperationsBetween = `SELECT ` + operationColumns + ` FROM operations
WHERE operation_date BETWEEN ? AND ?
ORDER BY operation_date, id`

func (q *Queries) ListOperationsBetween(ctx context.Context, start, end string) ([]Operation, error) {
	rows, err := q.db.QueryContext(ctx, listOperationsBetween, start, end)
	if err != nil {
		return nil, err
	}
	return scanOperations(rows)
}

const sumSettledBefore = `SELECT SUM(amount_cents) FROM operations
WHERE amount_cents IS NOT NULL AND operation_date < ?`

func (q *Queries) SumSettledBefore(ctx context.Context, before string) (sql.NullInt64, error) {
	var sum sql.NullInt64
	err := q.db.QueryRowContext(ctx, sumSettledBefore, before).Scan(&sum)
	return sum, err
}

const listPlannedAfter = `SELECT ` + operationColumns + ` FROM operations
WHERE amount_cents IS NULL AND planned_cents IS NOT NULL AND operation_date > ?
ORDER BY operation_date, id`

func (q *Queries) ListPlannedAfter(ctx context.Context, after string) ([]Operation, error) {
	rows, err := q.db.QueryContext(ctx, listPlannedAfter, after)
	if err != nil {
		return nil, err
	}
	return scanOperations(rows)
}

const getOperation = `SELECT ` + operationColumns + ` FROM operations WHERE id = ?`

func (q *Queries) GetOperation(ctx context.Context, id int64) (Operation, error) {
	var i Operation
	err := q.db.QueryRowContext(ctx, getOperation, id).Scan(
		&i.ID, &i.OperationDate, &i.Label, &i.AmountCents, &i.PlannedCents, &i.CategoryID)
	return i, err
}

type CreateOperationParams struct {
	OperationDate string
	Label         string
	AmountCents   sql.NullInt64
	PlannedCents  sql.NullInt64
	CategoryID    sql.NullInt64
}

const createOperation = `INSERT INTO operations (operation_date, label, amount_cents, planned_cents, category_id)
VALUES (?, ?, ?, ?, ?)
RETURNING id`

func (q *Queries) CreateOperation(ctx context.Context, arg CreateOperationParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createOperation,
		arg.OperationDate, arg.Label, arg.AmountCents, arg.PlannedCents, arg.CategoryID).Scan(&id)
	return id, err
}

type UpdateOperationParams struct {
	ID            int64
	OperationDate string
	Label         string
	AmountCents   sql.NullInt64
	PlannedCents  sql.NullInt64
	CategoryID    sql.NullInt64
}

const updateOperation = `UPDATE operations
SET operation_date = ?, label = ?, amount_cents = ?, planned_cents = ?, category_id = ?
WHERE id = ?`

func (q *Queries) UpdateOperation(ctx context.Context, arg UpdateOperationParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateOperation,
		arg.OperationDate, arg.Label, arg.AmountCents, arg.PlannedCents, arg.CategoryID, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteOperation = `DELETE FROM operations WHERE id = ?`

func (q *Queries) DeleteOperation(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteOperation, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const plannedExists = `SELECT EXISTS (
    SELECT 1 FROM operations
    WHERE label = ? AND operation_date = ? AND planned_cents IS NOT NULL
)`

func (q *Queries) PlannedExists(ctx context.Context, label, date string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, plannedExists, label, date).Scan(&exists)
	return exists, err
}

const listCosts = `SELECT id, day, amount_cents, label, category_id FROM costs ORDER BY day, id`

func (q *Queries) ListCosts(ctx context.Context) ([]Cost, error) {
	rows, err := q.db.QueryContext(ctx, listCosts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Cost
	for rows.Next() {
		var i Cost
		if err := rows.Scan(&i.ID, &i.Day, &i.AmountCents, &i.Label, &i.CategoryID); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type CreateCostParams struct {
	Day         int64
	AmountCents int64
	Label       string
	CategoryID  sql.NullInt64
}

const createCost = `INSERT INTO costs (day, amount_cents, label, category_id)
VALUES (?, ?, ?, ?)
RETURNING id`

func (q *Queries) CreateCost(ctx context.Context, arg CreateCostParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createCost, arg.Day, arg.AmountCents, arg.Label, arg.CategoryID).Scan(&id)
	return id, err
}

const deleteCost = `DELETE FROM costs WHERE id = ?`

func (q *Queries) DeleteCost(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteCost, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listCategories = `SELECT id, name FROM categories ORDER BY name`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.ID, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getCategory = `SELECT id, name FROM categories WHERE id = ?`

func (q *Queries) GetCategory(ctx context.Context, id int64) (Category, error) {
	var i Category
	err := q.db.QueryRowContext(ctx, getCategory, id).Scan(&i.ID, &i.Name)
	return i, err
}

const createCategory = `INSERT INTO categories (name) VALUES (?) RETURNING id`

func (q *Queries) CreateCategory(ctx context.Context, name string) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createCategory, name).Scan(&id)
	return id, err
}

const categoryTotalsBetween = `SELECT c.id, c.name, SUM(COALESCE(o.amount_cents, o.planned_cents)) AS total_cents
FROM operations o
JOIN categories c ON c.id = o.category_id
WHERE o.operation_date BETWEEN ? AND ?
GROUP BY c.id, c.name
ORDER BY c.name`

func (q *Queries) CategoryTotalsBetween(ctx context.Context, start, end string) ([]CategoryTotalRow, error) {
	rows, err := q.db.QueryContext(ctx, categoryTotalsBetween, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CategoryTotalRow
	for rows.Next() {
		var i CategoryTotalRow
		if err := rows.Scan(&i.CategoryID, &i.CategoryName, &i.TotalCents); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getOption = `SELECT value FROM options WHERE name = ?`

func (q *Queries) GetOption(ctx context.Context, name string) (string, error) {
	var value string
	err := q.db.QueryRowContext(ctx, getOption, name).Scan(&value)
	return value, err
}

const upsertOption = `INSERT INTO options (name, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`

func (q *Queries) UpsertOption(ctx context.Context, name, value string) error {
	_, err := q.db.ExecContext(ctx, upsertOption, name, value)
	return err
}
