package models

import (
	"fmt"
	"time"

	"github.com/prompt2production/needled-mobile-sub000/internal/constants"
)

// LocalDate is a calendar day with no time-of-day or timezone component.
// The zero value is "no date" and formats as an empty string.
type LocalDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns a normalized date; out-of-range days roll over like time.Date.
func NewDate(year int, month time.Month, day int) LocalDate {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar day of t in t's own location.
// Callers convert t with In(loc) first to get the user's local day.
func DateOf(t time.Time) LocalDate {
	y, m, d := t.Date()
	return LocalDate{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (LocalDate, error) {
	t, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		return LocalDate{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

// MustParseDate is ParseDate for literals; it panics on malformed input.
func MustParseDate(s string) LocalDate {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d LocalDate) IsZero() bool {
	return d == LocalDate{}
}

func (d LocalDate) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// In returns midnight of the date in loc.
func (d LocalDate) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d LocalDate) utc() time.Time {
	return d.In(time.UTC)
}

func (d LocalDate) AddDays(n int) LocalDate {
	return DateOf(d.utc().AddDate(0, 0, n))
}

// DaysSince returns the number of calendar days from other to d (d - other).
func (d LocalDate) DaysSince(other LocalDate) int {
	return int(d.utc().Sub(other.utc()).Hours() / 24)
}

func (d LocalDate) Compare(other LocalDate) int {
	switch {
	case d.Year != other.Year:
		return cmpInt(d.Year, other.Year)
	case d.Month != other.Month:
		return cmpInt(int(d.Month), int(other.Month))
	default:
		return cmpInt(d.Day, other.Day)
	}
}

func (d LocalDate) Before(other LocalDate) bool { return d.Compare(other) < 0 }
func (d LocalDate) After(other LocalDate) bool  { return d.Compare(other) > 0 }

// Between reports whether d lies in the closed range [start, end].
func (d LocalDate) Between(start, end LocalDate) bool {
	return !d.Before(start) && !d.After(end)
}

func (d LocalDate) Weekday() time.Weekday {
	return d.utc().Weekday()
}

// StartOfWeek returns the Monday on or before d.
func (d LocalDate) StartOfWeek() LocalDate {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

// MonthBounds returns the first and last day of the month containing d.
func MonthBounds(year int, month time.Month) (LocalDate, LocalDate) {
	first := NewDate(year, month, 1)
	last := NewDate(year, month+1, 1).AddDays(-1)
	return first, last
}

func (d LocalDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *LocalDate) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = LocalDate{}
		return nil
	}
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
