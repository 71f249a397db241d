package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// DateFormat is the ISO-8601 layout used to store and exchange dates.
const DateFormat = "2006-01-02"

// Date is a calendar day at midnight UTC.
type Date struct {
	time.Time
}

// NewDate creates a normalized Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// Today returns the current local calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// MustParseDate is like ParseDate but panics on error.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err.Error())
	}
	return d
}

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// After reports whether d is strictly after x.
func (d Date) After(x Date) bool { return d.Time.After(x.Time) }

// Before reports whether d is strictly before x.
func (d Date) Before(x Date) bool { return d.Time.Before(x.Time) }

// Equal reports whether d and x are the same day.
func (d Date) Equal(x Date) bool { return d.Time.Equal(x.Time) }

// YearMonth returns the calendar month containing d.
func (d Date) YearMonth() Month { return MonthOf(d) }

func (d Date) String() string { return d.Format(DateFormat) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Month identifies a calendar month. Its first day is the canonical key.
type Month struct {
	Year  int
	Month time.Month
}

// NewMonth returns a normalized Month, so NewMonth(2024, 13) is January 2025.
func NewMonth(year int, month time.Month) Month {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Month{Year: t.Year(), Month: t.Month()}
}

// MonthOf returns the month containing d.
func MonthOf(d Date) Month {
	return Month{Year: d.Year(), Month: d.Time.Month()}
}

// ParseMonth parses a "YYYY-MM" string. The separator is not checked and
// anything past the seventh character is ignored. ok is false for short or
// non-numeric input and for months outside 1..12.
func ParseMonth(s string) (m Month, ok bool) {
	if len(s) < 7 || !allDigits(s[0:4]) || !allDigits(s[5:7]) {
		return Month{}, false
	}
	y, err := strconv.Atoi(s[0:4])
	if err != nil {
		return Month{}, false
	}
	mo, err := strconv.Atoi(s[5:7])
	if err != nil || mo < 1 || mo > 12 {
		return Month{}, false
	}
	return Month{Year: y, Month: time.Month(mo)}, true
}

// allDigits rejects the signs strconv.Atoi would accept.
func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FirstDay returns the 1st of the month.
func (m Month) FirstDay() Date { return NewDate(m.Year, int(m.Month), 1) }

// LastDay returns the last day of the month.
func (m Month) LastDay() Date { return m.Add(1).FirstDay().AddDays(-1) }

// Days returns the number of days in the month.
func (m Month) Days() int { return m.LastDay().Day() }

// Add returns the month n months later (n may be negative).
func (m Month) Add(n int) Month { return NewMonth(m.Year, m.Month+time.Month(n)) }

// Date returns the given day of the month, clamped to [1, Days()].
func (m Month) Date(day int) Date {
	if last := m.Days(); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return NewDate(m.Year, int(m.Month), day)
}

// Contains reports whether d falls inside the month.
func (m Month) Contains(d Date) bool { return MonthOf(d) == m }

func (m Month) Before(o Month) bool {
	return m.Year < o.Year || (m.Year == o.Year && m.Month < o.Month)
}

func (m Month) After(o Month) bool { return o.Before(m) }

func (m Month) String() string { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)) }

func (m Month) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}
