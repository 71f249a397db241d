// Package core provides money parsing and handling utilities.
//
// Amounts are fixed-precision decimals with two fractional digits. They are
// persisted as integer cents and displayed with the account currency.
package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency is the single currency of the account.
const Currency = money.EUR

// Money is a signed amount with two decimal places.
// The zero value is 0.00.
type Money struct {
	value decimal.Decimal
}

// Cents builds a Money from an integer number of cents.
func Cents(c int64) Money {
	return Money{value: decimal.New(c, -2)}
}

// NewMoney rounds d to two decimal places.
func NewMoney(d decimal.Decimal) Money {
	return Money{value: d.Round(2)}
}

// ParseAmount converts a decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional leading minus sign. Extra fractional digits are rounded half away
// from zero.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("-12,34") -> -12.34
//	ParseAmount("1.005")  -> 1.01
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 || strings.ContainsAny(s, "eE") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return NewMoney(d), nil
}

// MustParseAmount is like ParseAmount but panics on error.
func MustParseAmount(s string) Money {
	m, err := ParseAmount(s)
	if err != nil {
		panic(err.Error())
	}
	return m
}

func (m Money) Add(n Money) Money { return Money{value: m.value.Add(n.value)} }
func (m Money) Sub(n Money) Money { return Money{value: m.value.Sub(n.value)} }
func (m Money) Neg() Money { return Money{value: m.value.Neg()} }
func (m Money) Abs() Money { return Money{value: m.value.Abs()} }
func (m Money) IsZero() bool { return m.value.IsZero() }
func (m Money) IsNegative() bool { return m.value.IsNegative() }
func (m Money) IsPositive() bool { return m.value.IsPositive() }
func (m Money) Equal(n Money) bool { return m.value.Equal(n.value) }
func (m Money) Cmp(n Money) int { return m.value.Cmp(n.value) }
func (m Money) Decimal() decimal.Decimal { return m.value }

// Cents returns the amount as an integer number of cents.
func (m Money) Cents() int64 {
	return m.value.Shift(2).Round(0).IntPart()
}

// String returns the plain decimal representation, e.g. "-50.00".
func (m Money) String() string {
	return m.value.StringFixed(2)
}

// Display formats the amount with the account currency, e.g. "-€50.00".
func (m Money) Display() string {
	return money.New(m.Cents(), Currency).Display()
}

// MarshalJSON encodes the amount as a decimal string to keep precision.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either a decimal string or a JSON number.
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		s = string(data)
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// NullMoney is an optional amount, in the manner of sql.NullInt64.
type NullMoney struct {
	Money Money
	Valid bool
}

// Some wraps a present amount.
func Some(m Money) NullMoney {
	return NullMoney{Money: m, Valid: true}
}

// Get returns the amount and whether it is present.
func (n NullMoney) Get() (Money, bool) {
	return n.Money, n.Valid
}

// String returns the amount or an empty string when absent.
func (n NullMoney) String() string {
	if !n.Valid {
		return ""
	}
	return n.Money.String()
}

func (n NullMoney) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return n.Money.MarshalJSON()
}

func (n *NullMoney) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullMoney{}
		return nil
	}
	if err := n.Money.UnmarshalJSON(data); err != nil {
		return err
	}
	n.Valid = true
	return nil
}
