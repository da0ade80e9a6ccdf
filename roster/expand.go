package roster

import (
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/warp/roster-engine/generic"
)

// =============================================================================
// EXPANDER - Template -> concrete occurrences
// =============================================================================

// Expand yields the occurrences of t inside r, in date order. Nothing is
// persisted; occurrences carry the deterministic OccurrenceShiftID so that a
// later materialization of the same occurrence gets the same id.
//
// A date D produces an occurrence when its cycle week is active and its
// weekday is a start day of t. Start days are the circular weekday range
// [StartWeekday, EndWeekday]; for a shift that crosses midnight and names
// different weekdays, EndWeekday is the day the last shift ends on, so the
// start days stop one day earlier (Fri 22:00 -> Sat 02:00 starts on Friday
// only). Each occurrence ends on D, or on D+1 when EndTime <= StartTime.
//
// The sequence can be ranged over any number of times.
func Expand(t generic.Template, store generic.Store, r generic.DateRange) iter.Seq[generic.ConcreteShift] {
	loc := store.Location()
	return func(yield func(generic.ConcreteShift) bool) {
		if len(t.ActiveWeeks) == 0 {
			return
		}
		for d := range r.Days() {
			week, weekday := CycleWeekIn(store, d)
			if !t.ActiveIn(week) || !StartsOn(t, weekday) {
				continue
			}
			if !yield(occurrence(t, d, loc)) {
				return
			}
		}
	}
}

// ExpandAll collects Expand into a slice.
func ExpandAll(t generic.Template, store generic.Store, r generic.DateRange) []generic.ConcreteShift {
	var out []generic.ConcreteShift
	for s := range Expand(t, store, r) {
		out = append(out, s)
	}
	return out
}

// StartsOn reports whether an occurrence of t starts on weekday.
func StartsOn(t generic.Template, weekday int) bool {
	start, end := t.StartWeekday, t.EndWeekday
	if t.CrossesMidnight() && start != end {
		end = generic.FloorMod(end-1, 7)
	}
	if start <= end {
		return weekday >= start && weekday <= end
	}
	// wraps past the end of the week
	return weekday >= start || weekday <= end
}

func occurrence(t generic.Template, d generic.Date, loc *time.Location) generic.ConcreteShift {
	endDay := d
	if t.CrossesMidnight() {
		endDay = d.AddDays(1)
	}
	return generic.ConcreteShift{
		ID:         generic.OccurrenceShiftID(t.ID, d),
		StoreID:    t.StoreID,
		EmployeeID: t.EmployeeID,
		Date:       d,
		Start:      d.At(t.StartTime, loc),
		End:        endDay.At(t.EndTime, loc),
		RoleID:     t.RoleID,
		Source:     generic.TemplateSource(t.ID),
		CreatedAt:  t.UpdatedAt,
	}
}

// ParseOccurrenceShiftID reverses generic.OccurrenceShiftID.
func ParseOccurrenceShiftID(id generic.ShiftID) (generic.OccurrenceKey, bool) {
	s := string(id)
	const dateLen = len("2006-01-02")
	if !strings.HasPrefix(s, "tpl-") || len(s) < len("tpl-")+1+1+dateLen {
		return generic.OccurrenceKey{}, false
	}
	datePart := s[len(s)-dateLen:]
	templatePart := s[len("tpl-") : len(s)-dateLen-1]
	if s[len(s)-dateLen-1] != '-' {
		return generic.OccurrenceKey{}, false
	}
	d, err := generic.ParseDate(datePart)
	if err != nil {
		return generic.OccurrenceKey{}, false
	}
	return generic.OccurrenceKey{TemplateID: generic.TemplateID(templatePart), Date: d}, true
}

// =============================================================================
// TEMPLATE VALIDATION
// =============================================================================

// ValidateTemplate checks t against a cycle of cycleLength weeks.
func ValidateTemplate(t generic.Template, cycleLength int) error {
	if t.StoreID == "" {
		return generic.Invalid(generic.ErrInvalidTemplate, "store_id", "required")
	}
	if t.EmployeeID == "" {
		return generic.Invalid(generic.ErrInvalidTemplate, "employee_id", "required")
	}
	if t.StartWeekday < 0 || t.StartWeekday > 6 {
		return generic.Invalid(generic.ErrInvalidTemplate, "start_weekday", "must be 0..6")
	}
	if t.EndWeekday < 0 || t.EndWeekday > 6 {
		return generic.Invalid(generic.ErrInvalidTemplate, "end_weekday", "must be 0..6")
	}
	if !t.StartTime.Valid() {
		return generic.Invalid(generic.ErrInvalidTemplate, "start_time", "must be 00:00..23:59")
	}
	if !t.EndTime.Valid() {
		return generic.Invalid(generic.ErrInvalidTemplate, "end_time", "must be 00:00..23:59")
	}
	if t.StartWeekday == t.EndWeekday && t.StartTime == t.EndTime {
		return generic.Invalid(generic.ErrInvalidTemplate, "end_time", "zero-length shift")
	}
	if len(t.ActiveWeeks) == 0 {
		return generic.Invalid(generic.ErrInvalidTemplate, "active_weeks", "at least one week must be active")
	}
	seen := make(map[int]bool, len(t.ActiveWeeks))
	for _, w := range t.ActiveWeeks {
		if w < 1 || w > cycleLength {
			return generic.Invalid(generic.ErrInvalidTemplate, "active_weeks",
				fmt.Sprintf("week %d outside 1..%d", w, cycleLength))
		}
		if seen[w] {
			return generic.Invalid(generic.ErrInvalidTemplate, "active_weeks",
				fmt.Sprintf("week %d listed twice", w))
		}
		seen[w] = true
	}
	return nil
}
