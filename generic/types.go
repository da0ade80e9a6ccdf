/*
Package generic provides the core types of the roster reconciliation engine.

PURPOSE:
  This package contains the entities shared by every other package: stores,
  employees, roles, repeating-shift templates, concrete shifts, activity
  records and exceptions. Domain packages (roster, activity, reconcile) hold
  the behavior; persistence packages implement the Repository in store.go.

KEY CONCEPTS IN THIS FILE (types.go):
  - Identifiers: Type-safe ids so a ShiftID can't be passed as an ActivityID
  - Hours: Worked length as a decimal (no float drift in payroll figures)
  - Store: Owns roles, templates, shifts, activity and exceptions
  - Template / ConcreteShift: The roster (expected)
  - ActivityRecord: The clock log (actual)

OWNERSHIP:
  Every entity carries its StoreID. Nothing is shared across stores.

SEE ALSO:
  - exception.go: Exception and its tagged detail variants
  - store.go: Repository interfaces
  - time.go: Date and ClockTime
*/
package generic

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type StoreID string
type EmployeeID string
type RoleID string
type TemplateID string
type ShiftID string
type ActivityID string
type ExceptionID string

// NewID returns a fresh random identifier.
func NewID() string { return uuid.NewString() }

// =============================================================================
// HOURS - Worked duration
// =============================================================================

// Hours is a duration in hours, rounded to two decimals.
type Hours struct {
	decimal.Decimal
}

// HoursBetween returns the length of [start, end] in hours.
func HoursBetween(start, end time.Time) Hours {
	minutes := decimal.NewFromInt(int64(end.Sub(start) / time.Minute))
	return Hours{minutes.Div(decimal.NewFromInt(60)).Round(2)}
}

// NewHours builds an Hours value from a float (tests, scenarios).
func NewHours(h float64) Hours { return Hours{decimal.NewFromFloat(h).Round(2)} }

// =============================================================================
// GEOLOCATION
// =============================================================================

// Geolocation is a point captured by the client at clock-in/out.
type Geolocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geofence is the circle a store accepts clock actions in.
type Geofence struct {
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	RadiusMeters float64 `json:"radius_meters"`
}

// =============================================================================
// STORE, EMPLOYEE, ROLE
// =============================================================================

// DefaultCycleLengthWeeks is the cycle length used when a store doesn't set one.
const DefaultCycleLengthWeeks = 4

// Store is a physical work location with its own rotating roster cycle.
type Store struct {
	ID               StoreID
	Name             string
	CycleAnchor      Date // first day of cycle week 1
	CycleLengthWeeks int  // >= 1
	Geofence         Geofence
	Timezone         string // IANA name, empty = UTC
}

// Location resolves the store's timezone. Unknown names fall back to UTC.
func (s Store) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CycleLength returns the configured cycle length, defaulting invalid values.
func (s Store) CycleLength() int {
	if s.CycleLengthWeeks < 1 {
		return DefaultCycleLengthWeeks
	}
	return s.CycleLengthWeeks
}

// Employee is a person who may clock in at one or more stores.
type Employee struct {
	ID       EmployeeID
	Name     string
	Active   bool
	Resigned bool
	PINHash  string // bcrypt; empty = no PIN set
	Stores   []StoreID
	Roles    []RoleID
}

// CanWorkAt reports whether the employee may clock in at store.
func (e Employee) CanWorkAt(store StoreID) bool {
	if !e.Active || e.Resigned {
		return false
	}
	for _, s := range e.Stores {
		if s == store {
			return true
		}
	}
	return false
}

// Role is a store-scoped job role (e.g. "Driver", "Kitchen").
type Role struct {
	ID      RoleID
	StoreID StoreID
	Name    string
	Colour  string
}

// =============================================================================
// ROSTER - Templates and concrete shifts
// =============================================================================

// Template is a repeating weekly shift over a subset of cycle weeks.
//
// Weekdays are indexes 0..6 counted from the weekday of the store's cycle
// anchor (anchor on a Monday gives Mon=0 .. Sun=6). When EndWeekday is before
// StartWeekday the range wraps around the end of the week.
type Template struct {
	ID           TemplateID
	StoreID      StoreID
	EmployeeID   EmployeeID
	StartWeekday int
	EndWeekday   int
	StartTime    ClockTime
	EndTime      ClockTime
	ActiveWeeks  []int // subset of 1..cycle length
	RoleID       *RoleID
	Comment      *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CrossesMidnight reports whether each occurrence ends on the following day.
func (t Template) CrossesMidnight() bool { return t.EndTime <= t.StartTime }

// ActiveIn reports whether cycle week (1-based) is active.
func (t Template) ActiveIn(week int) bool {
	for _, w := range t.ActiveWeeks {
		if w == week {
			return true
		}
	}
	return false
}

// ShiftSource records where a concrete shift came from.
type ShiftSource struct {
	TemplateID *TemplateID // nil = manual
}

func ManualSource() ShiftSource { return ShiftSource{} }

func TemplateSource(id TemplateID) ShiftSource { return ShiftSource{TemplateID: &id} }

func (s ShiftSource) IsManual() bool { return s.TemplateID == nil }

func (s ShiftSource) String() string {
	if s.TemplateID == nil {
		return "manual"
	}
	return "repeating-template:" + string(*s.TemplateID)
}

// ConcreteShift is a date-specific rostered shift. Date is the calendar day
// the shift starts on; End may fall on the next day.
type ConcreteShift struct {
	ID         ShiftID
	StoreID    StoreID
	EmployeeID EmployeeID
	Date       Date
	Start      time.Time
	End        time.Time
	RoleID     *RoleID
	Source     ShiftSource
	CreatedAt  time.Time
}

// Overlaps reports whether the two shifts share any instant.
func (s ConcreteShift) Overlaps(other ConcreteShift) bool {
	return s.Start.Before(other.End) && other.Start.Before(s.End)
}

// OccurrenceKey identifies a template occurrence independently of whether it
// has been materialized.
type OccurrenceKey struct {
	TemplateID TemplateID
	Date       Date
}

// OccurrenceShiftID is the deterministic id of a materialized template
// occurrence.
func OccurrenceShiftID(templateID TemplateID, date Date) ShiftID {
	return ShiftID("tpl-" + string(templateID) + "-" + date.String())
}

// =============================================================================
// ACTIVITY - Actual clock records
// =============================================================================

// ActivityRecord is one clock-in/clock-out interval. LogoutAt is nil while the
// employee is clocked in; at most one such open record exists per employee.
type ActivityRecord struct {
	ID             ActivityID
	StoreID        StoreID
	EmployeeID     EmployeeID
	LoginAt        time.Time
	LogoutAt       *time.Time
	Deliveries     int
	PublicHoliday  bool
	LoginLocation  Geolocation
	LogoutLocation *Geolocation
	RoleID         *RoleID
	CreatedAt      time.Time
}

// IsOpen reports whether the employee is still clocked in on this record.
func (a ActivityRecord) IsOpen() bool { return a.LogoutAt == nil }

// Length returns the worked hours, or zero while open.
func (a ActivityRecord) Length() Hours {
	if a.LogoutAt == nil {
		return Hours{}
	}
	return HoursBetween(a.LoginAt, *a.LogoutAt)
}

// =============================================================================
// RECONCILIATION RUNS - Scheduler audit
// =============================================================================

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// ReconciliationRun records one reconciliation of a store/date.
type ReconciliationRun struct {
	ID                string
	StoreID           StoreID
	Date              Date
	Status            RunStatus
	ExceptionsCreated int
	Error             string
	StartedAt         time.Time
	CompletedAt       *time.Time
}
