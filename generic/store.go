/*
store.go - Persistence interfaces for the roster engine

PURPOSE:
  Defines the interface between the domain logic and the database.
  Different implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  DirectoryRepository: Stores, roles, employees
  RosterRepository:    Concrete shifts, templates, occurrence exclusions
  ActivityRepository:  Clock records
  ExceptionRepository: Exceptions (append-only, approve once)
  HolidayRepository:   Store public holidays
  RunRepository:       Reconciliation run audit
  TxRepository:        All of the above plus WithTx

INVARIANTS ENFORCED BY IMPLEMENTATIONS:
  - At most one open ActivityRecord per employee (across all stores).
    InsertActivity returns ErrAlreadyClockedIn on violation.
  - At most one exception per (employee, shift) and per (employee, activity).
    InsertException returns ErrDuplicateException on violation.
  - At most one materialized shift per template occurrence.
  - CloseActivity and ApproveException are compare-and-set: the loser of a
    race observes ErrNotClockedIn / ErrAlreadyApproved.

ATOMICITY:
  WithTx runs fn against a transactional view. If fn returns an error nothing
  it wrote is kept.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - generic/store/memory.go: In-memory for testing

SEE ALSO:
  - errors.go: Sentinels returned by implementations
*/
package generic

import (
	"context"
	"time"
)

// DirectoryRepository holds the store/employee/role directory.
type DirectoryRepository interface {
	SaveStore(ctx context.Context, s Store) error
	GetStore(ctx context.Context, id StoreID) (Store, error)
	ListStores(ctx context.Context) ([]Store, error)

	SaveRole(ctx context.Context, r Role) error
	GetRole(ctx context.Context, id RoleID) (Role, error)
	ListRoles(ctx context.Context, store StoreID) ([]Role, error)

	SaveEmployee(ctx context.Context, e Employee) error
	GetEmployee(ctx context.Context, id EmployeeID) (Employee, error)
	ListEmployees(ctx context.Context, store StoreID) ([]Employee, error)
}

// RosterRepository holds shifts and templates.
type RosterRepository interface {
	// InsertShift persists a shift. A second materialization of the same
	// template occurrence is ignored.
	InsertShift(ctx context.Context, s ConcreteShift) error
	UpdateShift(ctx context.Context, s ConcreteShift) error
	DeleteShift(ctx context.Context, id ShiftID) error
	GetShift(ctx context.Context, id ShiftID) (ConcreteShift, error)

	// ListShifts returns persisted shifts of the store whose Date is in r.
	ListShifts(ctx context.Context, store StoreID, r DateRange) ([]ConcreteShift, error)
	// ListEmployeeShifts returns persisted shifts of the employee in r.
	ListEmployeeShifts(ctx context.Context, employee EmployeeID, r DateRange) ([]ConcreteShift, error)

	SaveTemplate(ctx context.Context, t Template) error
	GetTemplate(ctx context.Context, id TemplateID) (Template, error)
	DeleteTemplate(ctx context.Context, id TemplateID) error
	// ListTemplates returns the store's templates; activeOnly drops templates
	// of inactive or resigned employees.
	ListTemplates(ctx context.Context, store StoreID, activeOnly bool) ([]Template, error)

	// ExcludeOccurrence stops a template occurrence from being expanded again.
	ExcludeOccurrence(ctx context.Context, key OccurrenceKey) error
	ListExclusions(ctx context.Context, store StoreID, r DateRange) (map[OccurrenceKey]bool, error)
}

// ActivityRepository holds clock records.
type ActivityRepository interface {
	InsertActivity(ctx context.Context, a ActivityRecord) error
	GetActivity(ctx context.Context, id ActivityID) (ActivityRecord, error)
	// GetOpenActivity returns the employee's open record or ErrNotFound.
	GetOpenActivity(ctx context.Context, employee EmployeeID) (ActivityRecord, error)
	// CloseActivity sets logout data on an open record; ErrNotClockedIn if the
	// record is absent or already closed.
	CloseActivity(ctx context.Context, id ActivityID, logoutAt time.Time, at Geolocation, deliveries int) error
	// ReviseActivity overwrites the recorded times (and role when non-nil).
	ReviseActivity(ctx context.Context, id ActivityID, loginAt, logoutAt time.Time, role *RoleID) error
	// ListActivities returns the store's records with LoginAt in [from, to).
	ListActivities(ctx context.Context, store StoreID, from, to time.Time) ([]ActivityRecord, error)
}

// ExceptionRepository holds exceptions.
type ExceptionRepository interface {
	InsertException(ctx context.Context, e Exception) error
	GetException(ctx context.Context, id ExceptionID) (Exception, error)
	// ExceptionExists reports whether any exception (approved or not) of the
	// employee already implicates the shift or the activity.
	ExceptionExists(ctx context.Context, employee EmployeeID, shift *ShiftID, activity *ActivityID) (bool, error)
	// ApproveException flips Unapproved -> Approved; ErrAlreadyApproved if the
	// exception was approved first by someone else.
	ApproveException(ctx context.Context, id ExceptionID, edits *ApprovalEdits, by string, at time.Time) error
	ListExceptions(ctx context.Context, f ExceptionFilter) (ExceptionPage, error)
}

// HolidayRepository holds store public holidays.
type HolidayRepository interface {
	SaveHoliday(ctx context.Context, h Holiday) error
	DeleteHoliday(ctx context.Context, id string) error
	ListHolidays(ctx context.Context, store StoreID) ([]Holiday, error)
	HolidayCalendar
}

// HolidayCalendar answers whether a date is a public holiday at a store.
type HolidayCalendar interface {
	IsHoliday(ctx context.Context, store StoreID, date Date) (bool, error)
}

// RunRepository records scheduled reconciliations.
type RunRepository interface {
	SaveRun(ctx context.Context, r ReconciliationRun) error
	ListRuns(ctx context.Context, status RunStatus) ([]ReconciliationRun, error)
	IsReconciled(ctx context.Context, store StoreID, date Date) (bool, error)
}

// Repository is the full persistence surface.
type Repository interface {
	DirectoryRepository
	RosterRepository
	ActivityRepository
	ExceptionRepository
	HolidayRepository
	RunRepository
}

// TxRepository wraps Repository with transaction support.
// Use this when you need atomic operations (e.g., approving an exception).
type TxRepository interface {
	Repository

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithTx(ctx context.Context, fn func(Repository) error) error
}
