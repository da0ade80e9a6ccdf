package generic

import (
	"fmt"
	"iter"
	"time"
)

// =============================================================================
// DATE RANGE - Inclusive span of calendar days
// =============================================================================

// DateRange is the inclusive span [Start, End] of calendar days. Every roster
// query is made for a range, a single day being a range of one.
type DateRange struct {
	Start Date
	End   Date
}

// MaxRangeDays bounds the length of a queried range. Roster and activity
// queries walk every day of the range, so a year is the longest span served.
const MaxRangeDays = 366

// SingleDay returns the range containing only d.
func SingleDay(d Date) DateRange { return DateRange{Start: d, End: d} }

// Validate rejects ranges whose end precedes their start and ranges longer
// than MaxRangeDays.
func (r DateRange) Validate() error {
	if r.End.Before(r.Start) {
		return ErrInvalidPeriod
	}
	if n := r.Len(); n > MaxRangeDays {
		return Invalid(ErrInvalidPeriod, "range", fmt.Sprintf("%d days exceeds the %d day limit", n, MaxRangeDays))
	}
	return nil
}

// Contains returns true if d is within [Start, End].
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Len returns the number of days in the range (0 for an inverted range).
func (r DateRange) Len() int {
	if r.End.Before(r.Start) {
		return 0
	}
	return r.End.DaysSince(r.Start) + 1
}

// Days yields every date in the range in ascending order. The sequence can be
// ranged over any number of times.
func (r DateRange) Days() iter.Seq[Date] {
	return func(yield func(Date) bool) {
		for d := r.Start; !d.After(r.End); d = d.AddDays(1) {
			if !yield(d) {
				return
			}
		}
	}
}

// Bounds returns the half-open instant interval [start of Start, start of End+1)
// in loc.
func (r DateRange) Bounds(loc *time.Location) (time.Time, time.Time) {
	return r.Start.Midnight(loc), r.End.AddDays(1).Midnight(loc)
}

// String returns a string representation of the range.
func (r DateRange) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}
