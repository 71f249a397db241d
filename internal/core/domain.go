package core

import (
	"errors"
	"strings"
)

// OperationState tells which of the amount fields of an Operation are set.
type OperationState int

const (
	// SettledUnplanned operations cleared without having been forecast.
	SettledUnplanned OperationState = iota + 1
	// SettledMatched operations cleared and carry their forecast amount.
	SettledMatched
	// PlannedOnly operations are forecast but not debited yet.
	PlannedOnly
)

func (s OperationState) String() string {
	switch s {
	case SettledUnplanned:
		return "settled"
	case SettledMatched:
		return "matched"
	case PlannedOnly:
		return "planned"
	default:
		return "invalid"
	}
}

type (
	// Operation is a single persisted ledger entry.
	Operation struct {
		ID         int64
		Date       Date
		Label      string
		Amount     NullMoney // set once the operation cleared the account
		Planned    NullMoney // set when the operation was forecast
		CategoryID int64     // 0 when uncategorized
	}

	// Cost is a recurring monthly planned expense template.
	Cost struct {
		ID         int64
		Day        int // 1..31, clamped to the month length
		Amount     Money
		Label      string
		CategoryID int64
	}

	Category struct {
		ID   int64
		Name string
	}

	// CategoryTotal is the amount aggregated for one category.
	CategoryTotal struct {
		Category Category
		Total    Money
	}
)

const maxLabelLength = 200

var (
	ErrInvalidDay            = errors.New("invalid day")
	ErrInvalidDate           = errors.New("invalid date")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrEmptyLabel            = errors.New("empty label")
	ErrLabelTooLong          = errors.New("label too long (max 200 characters)")
	ErrEmptyCategoryName     = errors.New("empty category name")
	ErrInconsistentOperation = errors.New("operation has neither amount nor planned amount")

	ErrOperationNotFound = errors.New("operation not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrCostNotFound      = errors.New("cost not found")
	ErrDuplicateCategory = errors.New("category already exists")
)

// State classifies the operation. Operations with neither amount set are
// rejected with ErrInconsistentOperation.
func (o Operation) State() (OperationState, error) {
	switch {
	case o.Amount.Valid && o.Planned.Valid:
		return SettledMatched, nil
	case o.Amount.Valid:
		return SettledUnplanned, nil
	case o.Planned.Valid:
		return PlannedOnly, nil
	default:
		return 0, ErrInconsistentOperation
	}
}

// Settled reports whether the operation cleared the account.
func (o Operation) Settled() bool { return o.Amount.Valid }

// Value returns the settled amount, or the planned one when not settled yet.
func (o Operation) Value() Money {
	if o.Amount.Valid {
		return o.Amount.Money
	}
	return o.Planned.Money
}

func (o Operation) Validate() error {
	if o.Date.IsZero() {
		return ErrInvalidDate
	}
	if err := validateLabel(o.Label); err != nil {
		return err
	}
	_, err := o.State()
	return err
}

// DueDate returns the day the cost falls on in month m.
func (c Cost) DueDate(m Month) Date {
	return m.Date(c.Day)
}

func (c Cost) Validate() error {
	if c.Day < 1 || c.Day > 31 {
		return ErrInvalidDay
	}
	if c.Amount.IsZero() {
		return ErrInvalidAmount
	}
	return validateLabel(c.Label)
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategoryName
	}
	if len(c.Name) > 100 {
		return errors.New("category name too long (max 100 characters)")
	}
	return nil
}

func validateLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return ErrEmptyLabel
	}
	if len(label) > maxLabelLength {
		return ErrLabelTooLong
	}
	return nil
}
