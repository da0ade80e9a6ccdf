package generic

import (
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// EXCEPTION REASONS - Closed taxonomy
// =============================================================================

type Reason string

const (
	ReasonNoShift            Reason = "No Shift"
	ReasonMissedShift        Reason = "Missed Shift"
	ReasonIncorrectlyClocked Reason = "Incorrectly Clocked"
	ReasonGenericMismatch    Reason = "Generic Mismatch"
)

// Details is the reason-specific payload of an exception. The set of
// implementations is closed: the reason is derived from the variant, never
// stored beside it.
type Details interface {
	Reason() Reason
	isDetails()
}

// NoShiftDetails: the employee worked without a rostered shift.
type NoShiftDetails struct {
	ActualStart   time.Time  `json:"actual_start"`
	ActualEnd     *time.Time `json:"actual_end,omitempty"`
	Length        Hours      `json:"length_hours"`
	Deliveries    int        `json:"deliveries"`
	PublicHoliday bool       `json:"public_holiday"`
}

// MissedShiftDetails: a rostered shift has no matching activity.
type MissedShiftDetails struct {
	ExpectedStart time.Time `json:"expected_start"`
	ExpectedEnd   time.Time `json:"expected_end"`
	RoleID        *RoleID   `json:"role_id,omitempty"`
}

// IncorrectlyClockedDetails: a paired shift and activity diverge beyond the
// tolerance.
type IncorrectlyClockedDetails struct {
	ExpectedStart time.Time `json:"expected_start"`
	ExpectedEnd   time.Time `json:"expected_end"`
	ActualStart   time.Time `json:"actual_start"`
	ActualEnd     time.Time `json:"actual_end"`
	Length        Hours     `json:"length_hours"`
}

// GenericMismatchDetails: a paired shift and activity that can't be compared
// on both ends, e.g. the activity is still open.
type GenericMismatchDetails struct {
	ExpectedStart time.Time  `json:"expected_start"`
	ExpectedEnd   time.Time  `json:"expected_end"`
	ActualStart   time.Time  `json:"actual_start"`
	ActualEnd     *time.Time `json:"actual_end,omitempty"`
	Note          string     `json:"note,omitempty"`
}

func (NoShiftDetails) Reason() Reason            { return ReasonNoShift }
func (MissedShiftDetails) Reason() Reason        { return ReasonMissedShift }
func (IncorrectlyClockedDetails) Reason() Reason { return ReasonIncorrectlyClocked }
func (GenericMismatchDetails) Reason() Reason    { return ReasonGenericMismatch }

func (NoShiftDetails) isDetails()            {}
func (MissedShiftDetails) isDetails()        {}
func (IncorrectlyClockedDetails) isDetails() {}
func (GenericMismatchDetails) isDetails()    {}

// EncodeDetails serializes a payload for storage.
func EncodeDetails(d Details) (Reason, []byte, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", nil, err
	}
	return d.Reason(), b, nil
}

// DecodeDetails restores a payload stored with EncodeDetails.
func DecodeDetails(reason Reason, payload []byte) (Details, error) {
	var (
		d   Details
		err error
	)
	switch reason {
	case ReasonNoShift:
		var v NoShiftDetails
		err = json.Unmarshal(payload, &v)
		d = v
	case ReasonMissedShift:
		var v MissedShiftDetails
		err = json.Unmarshal(payload, &v)
		d = v
	case ReasonIncorrectlyClocked:
		var v IncorrectlyClockedDetails
		err = json.Unmarshal(payload, &v)
		d = v
	case ReasonGenericMismatch:
		var v GenericMismatchDetails
		err = json.Unmarshal(payload, &v)
		d = v
	default:
		return nil, fmt.Errorf("unknown exception reason %q", reason)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s details: %w", reason, err)
	}
	return d, nil
}

// =============================================================================
// EXCEPTION - Detected mismatch awaiting approval
// =============================================================================

// Exception is append-only: created by reconciliation, mutated once by
// approval, never deleted.
//
// State machine: Unapproved -> Approved (terminal).
type Exception struct {
	ID         ExceptionID
	StoreID    StoreID
	EmployeeID EmployeeID
	Date       Date
	ShiftID    *ShiftID    // nil for No Shift
	ActivityID *ActivityID // nil for Missed Shift
	Details    Details

	Approved   bool
	ApprovedAt *time.Time
	ApprovedBy string
	Edits      *ApprovalEdits

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e Exception) Reason() Reason { return e.Details.Reason() }

// ApprovalEdits are manager-supplied values that replace the raw actuals.
type ApprovalEdits struct {
	Login  *time.Time `json:"login,omitempty"`
	Logout *time.Time `json:"logout,omitempty"`
	RoleID *RoleID    `json:"role_id,omitempty"`
}

// Validate requires logout after login when both are given.
func (e ApprovalEdits) Validate() error {
	if e.Login != nil && e.Logout != nil && !e.Logout.After(*e.Login) {
		return Invalid(ErrInvalidTimeRange, "logout", "must be after login")
	}
	return nil
}

// IsEmpty reports whether no value was supplied.
func (e ApprovalEdits) IsEmpty() bool {
	return e.Login == nil && e.Logout == nil && e.RoleID == nil
}

// =============================================================================
// LISTING
// =============================================================================

const (
	DefaultPageLimit = 25
	MaxPageLimit     = 200
)

// ExceptionFilter selects exceptions of one store, newest first.
type ExceptionFilter struct {
	StoreID  StoreID
	Approved *bool // nil = both
	Offset   int
	Limit    int
}

// Normalize clamps paging to sane values.
func (f ExceptionFilter) Normalize() ExceptionFilter {
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	return f
}

// ExceptionPage is one page of a listing plus the unpaged total.
type ExceptionPage struct {
	Items  []Exception
	Total  int
	Offset int
	Limit  int
}
