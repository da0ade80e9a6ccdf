/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Directory:  StoreDTO, RoleDTO, EmployeeDTO (+ Create*Request)
  Roster:     ShiftDTO, ShiftRequest, ShiftResponse, factory.TemplateJSON
  Activity:   ActivityDTO, ClockInRequest, ClockOutRequest
  Exceptions: ExceptionDTO, ExceptionPageDTO, ApproveRequest,
              ApproveWithEditsRequest, ReconcileRequest
  Other:      HolidayDTO, RunDTO, ScenarioDTO

VALIDATION:
  Request types carry go-playground/validator tags for shape checks
  (required fields, ranges, coordinates). Domain rules (template
  invariants, time ranges, deliveries) are checked by the services so
  they report their own error kinds.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/template.go: TemplateJSON type
*/
package api

import (
	"time"

	"github.com/warp/roster-engine/generic"
	"github.com/warp/roster-engine/roster"
)

// =============================================================================
// DIRECTORY
// =============================================================================

type GeofenceDTO struct {
	Lat          float64 `json:"lat" validate:"latitude"`
	Lng          float64 `json:"lng" validate:"longitude"`
	RadiusMeters float64 `json:"radius_meters" validate:"gte=0"`
}

// StoreDTO represents a store in API responses.
type StoreDTO struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	CycleAnchor      string      `json:"cycle_anchor"`
	CycleLengthWeeks int         `json:"cycle_length_weeks"`
	Timezone         string      `json:"timezone,omitempty"`
	Geofence         GeofenceDTO `json:"geofence"`
}

// CreateStoreRequest creates or replaces a store.
type CreateStoreRequest struct {
	ID               string       `json:"id"`
	Name             string       `json:"name" validate:"required"`
	CycleAnchor      string       `json:"cycle_anchor" validate:"required,datetime=2006-01-02"`
	CycleLengthWeeks int          `json:"cycle_length_weeks" validate:"omitempty,min=1,max=52"`
	Timezone         string       `json:"timezone" validate:"omitempty,timezone"`
	Geofence         *GeofenceDTO `json:"geofence"`
}

type RoleDTO struct {
	ID      string `json:"id"`
	StoreID string `json:"store_id"`
	Name    string `json:"name"`
	Colour  string `json:"colour,omitempty"`
}

type CreateRoleRequest struct {
	ID     string `json:"id"`
	Name   string `json:"name" validate:"required"`
	Colour string `json:"colour" validate:"omitempty,hexcolor"`
}

// EmployeeDTO represents an employee in API responses. The PIN hash never
// leaves the server.
type EmployeeDTO struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Active   bool     `json:"active"`
	Resigned bool     `json:"resigned"`
	HasPIN   bool     `json:"has_pin"`
	Stores   []string `json:"stores"`
	Roles    []string `json:"roles"`
}

// CreateEmployeeRequest creates or replaces an employee of the store in the
// URL. Stores lists additional memberships.
type CreateEmployeeRequest struct {
	ID       string   `json:"id"`
	Name     string   `json:"name" validate:"required"`
	Active   *bool    `json:"active"`
	Resigned bool     `json:"resigned"`
	PIN      string   `json:"pin" validate:"omitempty,numeric,min=4,max=12"`
	Stores   []string `json:"stores" validate:"dive,required"`
	Roles    []string `json:"roles" validate:"dive,required"`
}

// =============================================================================
// ROSTER
// =============================================================================

type ShiftDTO struct {
	ID         string    `json:"id"`
	StoreID    string    `json:"store_id"`
	EmployeeID string    `json:"employee_id"`
	Date       string    `json:"date"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	RoleID     *string   `json:"role_id,omitempty"`
	Source     string    `json:"source"`
}

// ShiftRequest creates or updates an ad hoc shift.
type ShiftRequest struct {
	EmployeeID string    `json:"employee_id" validate:"required"`
	Start      time.Time `json:"start" validate:"required"`
	End        time.Time `json:"end" validate:"required"`
	RoleID     *string   `json:"role_id"`
}

type ShiftResponse struct {
	Shift    ShiftDTO         `json:"shift"`
	Warnings []roster.Warning `json:"warnings"`
}

// =============================================================================
// ACTIVITY
// =============================================================================

type LocationDTO struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

type ActivityDTO struct {
	ID             string       `json:"id"`
	StoreID        string       `json:"store_id"`
	EmployeeID     string       `json:"employee_id"`
	LoginAt        time.Time    `json:"login_at"`
	LogoutAt       *time.Time   `json:"logout_at,omitempty"`
	Open           bool         `json:"open"`
	LengthHours    string       `json:"length_hours"`
	Deliveries     int          `json:"deliveries"`
	PublicHoliday  bool         `json:"public_holiday"`
	LoginLocation  LocationDTO  `json:"login_location"`
	LogoutLocation *LocationDTO `json:"logout_location,omitempty"`
	RoleID         *string      `json:"role_id,omitempty"`
}

type ClockInRequest struct {
	EmployeeID string      `json:"employee_id" validate:"required"`
	StoreID    string      `json:"store_id" validate:"required"`
	PIN        string      `json:"pin"`
	Location   LocationDTO `json:"location"`
	RoleID     *string     `json:"role_id"`
}

// ClockOutRequest closes an activity. Deliveries is range-checked by the
// activity service so a negative count reports invalid_deliveries.
type ClockOutRequest struct {
	ActivityID string      `json:"activity_id" validate:"required"`
	PIN        string      `json:"pin"`
	Location   LocationDTO `json:"location"`
	Deliveries int         `json:"deliveries"`
}

// =============================================================================
// RECONCILIATION & EXCEPTIONS
// =============================================================================

type ReconcileRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

type ReconcileResponse struct {
	StoreID      string   `json:"store_id"`
	Date         string   `json:"date"`
	ExceptionIDs []string `json:"exception_ids"`
}

type ExceptionDTO struct {
	ID         string                 `json:"id"`
	StoreID    string                 `json:"store_id"`
	EmployeeID string                 `json:"employee_id"`
	Date       string                 `json:"date"`
	Reason     string                 `json:"reason"`
	ShiftID    *string                `json:"shift_id,omitempty"`
	ActivityID *string                `json:"activity_id,omitempty"`
	Details    generic.Details        `json:"details"`
	Approved   bool                   `json:"approved"`
	ApprovedAt *time.Time             `json:"approved_at,omitempty"`
	ApprovedBy string                 `json:"approved_by,omitempty"`
	Edits      *generic.ApprovalEdits `json:"edits,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

type ExceptionPageDTO struct {
	Items  []ExceptionDTO `json:"items"`
	Total  int            `json:"total"`
	Offset int            `json:"offset"`
	Limit  int            `json:"limit"`
}

type ApproveRequest struct {
	ApprovedBy string `json:"approved_by"`
}

// ApproveWithEditsRequest carries the manager's replacement values. At least
// one must be present.
type ApproveWithEditsRequest struct {
	Login      *time.Time `json:"login" validate:"required_without_all=Logout RoleID"`
	Logout     *time.Time `json:"logout"`
	RoleID     *string    `json:"role_id"`
	ApprovedBy string     `json:"approved_by"`
}

// =============================================================================
// HOLIDAYS, RUNS, SCENARIOS
// =============================================================================

type HolidayDTO struct {
	ID        string `json:"id"`
	StoreID   string `json:"store_id"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	Recurring bool   `json:"recurring"`
}

type CreateHolidayRequest struct {
	ID        string `json:"id"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Name      string `json:"name" validate:"required"`
	Recurring bool   `json:"recurring"`
}

type RunDTO struct {
	ID                string     `json:"id"`
	StoreID           string     `json:"store_id"`
	Date              string     `json:"date"`
	Status            string     `json:"status"`
	ExceptionsCreated int        `json:"exceptions_created"`
	Error             string     `json:"error,omitempty"`
	StartedAt         time.Time  `json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the request body for loading a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toStoreDTO(s generic.Store) StoreDTO {
	return StoreDTO{
		ID:               string(s.ID),
		Name:             s.Name,
		CycleAnchor:      s.CycleAnchor.String(),
		CycleLengthWeeks: s.CycleLength(),
		Timezone:         s.Timezone,
		Geofence: GeofenceDTO{
			Lat:          s.Geofence.Lat,
			Lng:          s.Geofence.Lng,
			RadiusMeters: s.Geofence.RadiusMeters,
		},
	}
}

func toRoleDTO(r generic.Role) RoleDTO {
	return RoleDTO{ID: string(r.ID), StoreID: string(r.StoreID), Name: r.Name, Colour: r.Colour}
}

func toEmployeeDTO(e generic.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:       string(e.ID),
		Name:     e.Name,
		Active:   e.Active,
		Resigned: e.Resigned,
		HasPIN:   e.PINHash != "",
		Stores:   make([]string, len(e.Stores)),
		Roles:    make([]string, len(e.Roles)),
	}
	for i, s := range e.Stores {
		dto.Stores[i] = string(s)
	}
	for i, r := range e.Roles {
		dto.Roles[i] = string(r)
	}
	return dto
}

func toShiftDTO(s generic.ConcreteShift) ShiftDTO {
	return ShiftDTO{
		ID:         string(s.ID),
		StoreID:    string(s.StoreID),
		EmployeeID: string(s.EmployeeID),
		Date:       s.Date.String(),
		Start:      s.Start,
		End:        s.End,
		RoleID:     roleString(s.RoleID),
		Source:     s.Source.String(),
	}
}

func toShiftDTOs(shifts []generic.ConcreteShift) []ShiftDTO {
	dtos := make([]ShiftDTO, len(shifts))
	for i, s := range shifts {
		dtos[i] = toShiftDTO(s)
	}
	return dtos
}

func toActivityDTO(a generic.ActivityRecord) ActivityDTO {
	dto := ActivityDTO{
		ID:            string(a.ID),
		StoreID:       string(a.StoreID),
		EmployeeID:    string(a.EmployeeID),
		LoginAt:       a.LoginAt,
		LogoutAt:      a.LogoutAt,
		Open:          a.IsOpen(),
		LengthHours:   a.Length().StringFixed(2),
		Deliveries:    a.Deliveries,
		PublicHoliday: a.PublicHoliday,
		LoginLocation: LocationDTO{Lat: a.LoginLocation.Lat, Lng: a.LoginLocation.Lng},
		RoleID:        roleString(a.RoleID),
	}
	if a.LogoutLocation != nil {
		dto.LogoutLocation = &LocationDTO{Lat: a.LogoutLocation.Lat, Lng: a.LogoutLocation.Lng}
	}
	return dto
}

func toExceptionDTO(e generic.Exception) ExceptionDTO {
	dto := ExceptionDTO{
		ID:         string(e.ID),
		StoreID:    string(e.StoreID),
		EmployeeID: string(e.EmployeeID),
		Date:       e.Date.String(),
		Reason:     string(e.Reason()),
		Details:    e.Details,
		Approved:   e.Approved,
		ApprovedAt: e.ApprovedAt,
		ApprovedBy: e.ApprovedBy,
		Edits:      e.Edits,
		CreatedAt:  e.CreatedAt,
	}
	if e.ShiftID != nil {
		id := string(*e.ShiftID)
		dto.ShiftID = &id
	}
	if e.ActivityID != nil {
		id := string(*e.ActivityID)
		dto.ActivityID = &id
	}
	return dto
}

func toHolidayDTO(h generic.Holiday) HolidayDTO {
	return HolidayDTO{
		ID:        h.ID,
		StoreID:   string(h.StoreID),
		Date:      h.Date.String(),
		Name:      h.Name,
		Recurring: h.Recurring,
	}
}

func toRunDTO(r generic.ReconciliationRun) RunDTO {
	return RunDTO{
		ID:                r.ID,
		StoreID:           string(r.StoreID),
		Date:              r.Date.String(),
		Status:            string(r.Status),
		ExceptionsCreated: r.ExceptionsCreated,
		Error:             r.Error,
		StartedAt:         r.StartedAt,
		CompletedAt:       r.CompletedAt,
	}
}

func roleString(id *generic.RoleID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}

func roleID(s *string) *generic.RoleID {
	if s == nil || *s == "" {
		return nil
	}
	id := generic.RoleID(*s)
	return &id
}
