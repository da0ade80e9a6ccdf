/*
errors.go - Centralized error types for the roster engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Every failure in the core is recoverable and carries a specific kind so a
  caller can render a precise message; nothing here is fatal to the process.

ERROR CATEGORIES:
  1. Lookup errors     - NotFound
  2. Activity errors   - AlreadyClockedIn, NotClockedIn
  3. Validation errors - InvalidDeliveries, InvalidTimeRange, InvalidTemplate
  4. Workflow errors   - AlreadyApproved, ConcurrentModification
  5. Access errors     - InvalidPIN, NotMember

USAGE:
  Stores return the sentinels; services wrap them with context:

    if errors.Is(err, generic.ErrAlreadyClockedIn) {
        ...
    }

SEE ALSO:
  - store.go: Repository contracts that return these errors
  - api/handlers.go: Maps KindOf(err) to HTTP status
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced entity doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyClockedIn is returned when an employee already has an open
	// activity record (at any store).
	ErrAlreadyClockedIn = errors.New("already clocked in")

	// ErrNotClockedIn is returned when clocking out of a record that is absent
	// or already closed.
	ErrNotClockedIn = errors.New("not clocked in")

	// ErrInvalidDeliveries is returned for a negative delivery count.
	ErrInvalidDeliveries = errors.New("invalid deliveries: must be >= 0")

	// ErrInvalidTimeRange is returned when an end instant is not after its start.
	ErrInvalidTimeRange = errors.New("invalid time range: end must be after start")

	// ErrAlreadyApproved is returned when approving an exception twice.
	ErrAlreadyApproved = errors.New("exception already approved")

	// ErrConcurrentModification is returned when a record read inside a
	// transaction is gone by the time it is written, which a store without
	// serialized writers can produce. Races with a domain meaning report
	// ErrAlreadyApproved, ErrAlreadyClockedIn or ErrNotClockedIn instead.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrInvalidTemplate is returned when a repeating-shift template breaks
	// its invariants.
	ErrInvalidTemplate = errors.New("invalid repeating shift template")

	// ErrInvalidPeriod is returned when a date range ends before it starts.
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrInvalidPIN is returned when PIN verification fails.
	ErrInvalidPIN = errors.New("invalid PIN")

	// ErrNotMember is returned when an employee may not clock in at a store
	// (not a member, inactive or resigned).
	ErrNotMember = errors.New("employee is not an active member of store")

	// ErrDuplicateException is returned by stores when an exception for the
	// same implicated shift or activity already exists.
	ErrDuplicateException = errors.New("exception already exists for record")

	// ErrInvalidInput is the catch-all for malformed input.
	ErrInvalidInput = errors.New("invalid input")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound builds a NotFoundError.
func NotFound(entity string, id any) error {
	return &NotFoundError{Entity: entity, ID: fmt.Sprint(id)}
}

// AlreadyClockedInError points at the record that is still open.
type AlreadyClockedInError struct {
	EmployeeID EmployeeID
	ActivityID ActivityID
	StoreID    StoreID
}

func (e *AlreadyClockedInError) Error() string {
	if e.ActivityID == "" {
		return fmt.Sprintf("employee %s already clocked in", e.EmployeeID)
	}
	return fmt.Sprintf("employee %s already clocked in at store %s (activity %s)",
		e.EmployeeID, e.StoreID, e.ActivityID)
}

func (e *AlreadyClockedInError) Unwrap() error { return ErrAlreadyClockedIn }

// ValidationError wraps one of the validation sentinels with the offending field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%v: %s - %s", e.Err, e.Field, e.Message)
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid builds a ValidationError for sentinel err.
func Invalid(err error, field, message string) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// ErrorKind is the stable, caller-facing classification of an error.
type ErrorKind string

const (
	KindNotFound               ErrorKind = "not_found"
	KindAlreadyClockedIn       ErrorKind = "already_clocked_in"
	KindNotClockedIn           ErrorKind = "not_clocked_in"
	KindInvalidDeliveries      ErrorKind = "invalid_deliveries"
	KindInvalidTimeRange       ErrorKind = "invalid_time_range"
	KindAlreadyApproved        ErrorKind = "already_approved"
	KindConcurrentModification ErrorKind = "concurrent_modification"
	KindInvalidTemplate        ErrorKind = "invalid_template"
	KindInvalidPeriod          ErrorKind = "invalid_period"
	KindInvalidPIN             ErrorKind = "invalid_pin"
	KindNotMember              ErrorKind = "not_member"
	KindDuplicate              ErrorKind = "duplicate"
	KindInvalidInput           ErrorKind = "invalid_input"
	KindInternal               ErrorKind = "internal"
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrNotFound, KindNotFound},
	{ErrAlreadyClockedIn, KindAlreadyClockedIn},
	{ErrNotClockedIn, KindNotClockedIn},
	{ErrInvalidDeliveries, KindInvalidDeliveries},
	{ErrInvalidTimeRange, KindInvalidTimeRange},
	{ErrAlreadyApproved, KindAlreadyApproved},
	{ErrConcurrentModification, KindConcurrentModification},
	{ErrInvalidTemplate, KindInvalidTemplate},
	{ErrInvalidPeriod, KindInvalidPeriod},
	{ErrInvalidPIN, KindInvalidPIN},
	{ErrNotMember, KindNotMember},
	{ErrDuplicateException, KindDuplicate},
	{ErrInvalidInput, KindInvalidInput},
}

// KindOf classifies err. Unclassified errors are KindInternal.
func KindOf(err error) ErrorKind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	switch KindOf(err) {
	case KindInvalidDeliveries, KindInvalidTimeRange, KindInvalidTemplate,
		KindInvalidPeriod, KindInvalidInput:
		return true
	}
	return false
}

// IsConflict returns true if the error is a state conflict.
func IsConflict(err error) bool {
	switch KindOf(err) {
	case KindAlreadyClockedIn, KindNotClockedIn, KindAlreadyApproved,
		KindConcurrentModification, KindDuplicate:
		return true
	}
	return false
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
