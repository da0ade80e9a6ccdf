package generic

import (
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// DATE - Civil calendar date (no time of day, no location)
// =============================================================================

// Date is a calendar date. Rosters are planned in calendar days, so a shift's
// date never depends on the server's timezone; a Date is only turned into an
// instant together with a store's location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const (
	dateLayout    = "2006-01-02"
	secondsPerDay = 24 * 60 * 60
)

// NewDate returns a normalized date (e.g. Feb 30 becomes Mar 1/2).
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// DateIn returns the calendar date of t as observed in loc.
func DateIn(t time.Time, loc *time.Location) Date {
	return DateOf(t.In(loc))
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

// MustParseDate is ParseDate for literals in tests and scenarios.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) utc() time.Time { return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC) }

// Midnight returns the instant the date starts in loc.
func (d Date) Midnight(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// At combines the date with a wall-clock time in loc.
func (d Date) At(c ClockTime, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, c.Hour(), c.Minute(), 0, 0, loc)
}

func (d Date) AddDays(n int) Date      { return DateOf(d.utc().AddDate(0, 0, n)) }
func (d Date) Weekday() time.Weekday   { return d.utc().Weekday() }
func (d Date) IsZero() bool            { return d == Date{} }
func (d Date) Equal(other Date) bool   { return d == other }
func (d Date) Before(other Date) bool  { return d.Compare(other) < 0 }
func (d Date) After(other Date) bool   { return d.Compare(other) > 0 }
func (d Date) String() string          { return d.utc().Format(dateLayout) }

// Compare returns -1, 0 or +1.
func (d Date) Compare(other Date) int {
	return d.utc().Compare(other.utc())
}

// DaysSince returns the signed number of whole days from other to d. It is
// computed from Unix seconds so it holds for any distance between the dates.
func (d Date) DaysSince(other Date) int {
	return int((d.utc().Unix() - other.utc().Unix()) / secondsPerDay)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// CLOCK TIME - Wall-clock time of day, minute resolution
// =============================================================================

// ClockTime is minutes since midnight, 0..1439.
type ClockTime int

func NewClockTime(hour, minute int) ClockTime { return ClockTime(hour*60 + minute) }

// ParseClockTime parses "HH:MM" (24h).
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q (use HH:MM): %w", s, err)
	}
	return NewClockTime(t.Hour(), t.Minute()), nil
}

func (c ClockTime) Hour() int     { return int(c) / 60 }
func (c ClockTime) Minute() int   { return int(c) % 60 }
func (c ClockTime) Valid() bool   { return c >= 0 && c < 24*60 }
func (c ClockTime) String() string { return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute()) }

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// =============================================================================
// FLOOR ARITHMETIC
// =============================================================================

// FloorDiv divides rounding toward negative infinity. Go's / truncates toward
// zero, which maps day -1 into week 0 instead of week -1.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FloorMod is the non-negative remainder matching FloorDiv.
func FloorMod(a, b int) int {
	return a - FloorDiv(a, b)*b
}

// =============================================================================
// HOLIDAY CALENDAR - Store-specific public holidays
// =============================================================================

// Holiday is a public holiday observed by a store.
type Holiday struct {
	ID        string
	StoreID   StoreID
	Date      Date
	Name      string
	Recurring bool // true = same month/day every year
}

// Matches reports whether the holiday falls on date.
func (h Holiday) Matches(date Date) bool {
	if h.Recurring {
		return h.Date.Month == date.Month && h.Date.Day == date.Day
	}
	return h.Date == date
}
