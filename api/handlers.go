/*
handlers.go - HTTP API handlers for the roster engine

PURPOSE:
  Exposes rostering, clock activity and exception review via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to the
  roster, activity and reconcile services.

ENDPOINTS:
  Directory:
    GET/POST /api/stores                          List / create stores
    GET      /api/stores/{storeID}                Store details
    GET/POST /api/stores/{storeID}/roles          Store roles
    GET/POST /api/stores/{storeID}/employees      Store employees
    GET      /api/employees/{id}                  Employee details

  Roster:
    GET    /api/stores/{storeID}/expected-shifts  Persisted + template shifts
    POST   /api/stores/{storeID}/shifts           Ad hoc shift
    PUT    /api/shifts/{id}                       Edit shift (or occurrence)
    DELETE /api/shifts/{id}                       Delete shift (or occurrence)
    GET/POST /api/stores/{storeID}/repeating-shift-templates
    PUT/DELETE /api/repeating-shift-templates/{id}
    GET    /api/stores/{storeID}/repeating-shifts Template occurrences only

  Activity:
    POST /api/clock/in, /api/clock/out
    GET  /api/stores/{storeID}/activity
    POST /api/stores/{storeID}/timepunch-import   Multipart spreadsheet

  Exceptions:
    POST  /api/stores/{storeID}/reconcile         Reconcile one date
    GET   /api/stores/{storeID}/exceptions        Paged listing
    GET   /api/exceptions/{id}
    POST  /api/exceptions/{id}/approve
    PATCH /api/exceptions/{id}/approve-with-edits

  Holidays, runs, scenarios:
    GET/POST /api/stores/{storeID}/holidays, DELETE /api/holidays/{id}
    GET  /api/reconciliation/runs, POST /api/reconciliation/process
    GET  /api/scenarios, POST /api/scenarios/load

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Repo: Database access (TxRepository)
  - Roster, Activity, Reconciler: Domain services
  - Templates: JSON to Template conversion
  - Scheduler: optional, for the manual trigger

ERROR HANDLING:
  Domain errors are classified with generic.KindOf and returned as JSON
  {error, kind, details}:
  - 400: Validation errors, invalid input
  - 401: Invalid PIN
  - 403: Employee not an active member of the store
  - 404: Resource not found
  - 409: Conflict (already clocked in/out, already approved, duplicate)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. The approving manager is
  whatever approved_by the client sends.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/warp/roster-engine/activity"
	"github.com/warp/roster-engine/factory"
	"github.com/warp/roster-engine/generic"
	"github.com/warp/roster-engine/reconcile"
	"github.com/warp/roster-engine/roster"
)

// maxUploadBytes bounds time-punch uploads.
const maxUploadBytes = 10 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Resetter clears all data (scenario loading).
type Resetter interface {
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Repo       generic.TxRepository
	Roster     *roster.Service
	Activity   *activity.Service
	Reconciler *reconcile.Service
	Templates  *factory.TemplateFactory
	Scheduler  *ReconciliationScheduler

	// DefaultCycleLength applies to stores created without one.
	DefaultCycleLength int

	validate *validator.Validate
	log      logrus.FieldLogger

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler wires the services over repo.
func NewHandler(repo generic.TxRepository, opts reconcile.Options, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		Repo:               repo,
		Roster:             roster.NewService(repo, log.WithField("component", "roster")),
		Activity:           activity.NewService(repo, activity.BcryptVerifier{AllowUnset: true}, log.WithField("component", "activity")),
		Reconciler:         reconcile.NewService(repo, opts, log.WithField("component", "reconcile")),
		Templates:          factory.NewTemplateFactory(),
		DefaultCycleLength: generic.DefaultCycleLengthWeeks,
		validate:           validator.New(validator.WithRequiredStructEnabled()),
		log:                log,
	}
}

// =============================================================================
// STORE HANDLERS
// =============================================================================

// ListStores returns all stores.
func (h *Handler) ListStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.Repo.ListStores(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list stores", err)
		return
	}
	dtos := make([]StoreDTO, len(stores))
	for i, s := range stores {
		dtos[i] = toStoreDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetStore returns a single store.
func (h *Handler) GetStore(w http.ResponseWriter, r *http.Request) {
	store, err := h.Repo.GetStore(r.Context(), storeParam(r))
	if err != nil {
		writeDomainError(w, "Failed to get store", err)
		return
	}
	writeJSON(w, http.StatusOK, toStoreDTO(store))
}

// CreateStore creates or replaces a store.
func (h *Handler) CreateStore(w http.ResponseWriter, r *http.Request) {
	var req CreateStoreRequest
	if !h.decode(w, r, &req) {
		return
	}
	anchor, err := generic.ParseDate(req.CycleAnchor)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cycle_anchor format (use YYYY-MM-DD)", err)
		return
	}

	store := generic.Store{
		ID:               generic.StoreID(req.ID),
		Name:             req.Name,
		CycleAnchor:      anchor,
		CycleLengthWeeks: req.CycleLengthWeeks,
		Timezone:         req.Timezone,
	}
	if store.ID == "" {
		store.ID = generic.StoreID(generic.NewID())
	}
	if store.CycleLengthWeeks == 0 {
		store.CycleLengthWeeks = h.DefaultCycleLength
	}
	if req.Geofence != nil {
		store.Geofence = generic.Geofence{Lat: req.Geofence.Lat, Lng: req.Geofence.Lng, RadiusMeters: req.Geofence.RadiusMeters}
	}

	if err := h.Repo.SaveStore(r.Context(), store); err != nil {
		writeDomainError(w, "Failed to create store", err)
		return
	}
	writeJSON(w, http.StatusCreated, toStoreDTO(store))
}

// =============================================================================
// ROLE & EMPLOYEE HANDLERS
// =============================================================================

// ListRoles returns the roles of a store.
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	storeID := storeParam(r)
	if _, err := h.Repo.GetStore(ctx, storeID); err != nil {
		writeDomainError(w, "Failed to get store", err)
		return
	}
	roles, err := h.Repo.ListRoles(ctx, storeID)
	if err != nil {
		writeDomainError(w, "Failed to list roles", err)
		return
	}
	dtos := make([]RoleDTO, len(roles))
	for i, role := range roles {
		dtos[i] = toRoleDTO(role)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRole creates or replaces a role of the store.
func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	storeID := storeParam(r)
	if _, err := h.Repo.GetStore(ctx, storeID); err != nil {
		writeDomainError(w, "Failed to get store", err)
		return
	}

	role := generic.Role{ID: generic.RoleID(req.ID), StoreID: storeID, Name: req.Name, Colour: req.Colour}
	if role.ID == "" {
		role.ID = generic.RoleID(generic.NewID())
	}
	if err := h.Repo.SaveRole(ctx, role); err != nil {
		writeDomainError(w, "Failed to create role", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRoleDTO(role))
}

// ListEmployees returns the members of a store.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	storeID := storeParam(r)
	if _, err := h.Repo.GetStore(ctx, storeID); err != nil {
		writeDomainError(w, "Failed to get store", err)
		return
	}
	employees, err := h.Repo.ListEmployees(ctx, storeID)
	if err != nil {
		writeDomainError(w, "Failed to list employees", err)
		return
	}
	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Repo.GetEmployee(r.Context(), generic.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// CreateEmployee creates or replaces an employee who is a member of the
// store in the URL. An omitted PIN keeps the current one.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	storeID := storeParam(r)
	if _, err := h.Repo.GetStore(ctx, storeID); err != nil {
		writeDomainError(w, "Failed to get store", err)
		return
	}

	emp := generic.Employee{
		ID:       generic.EmployeeID(req.ID),
		Name:     req.Name,
		Active:   req.Active == nil || *req.Active,
		Resigned: req.Resigned,
		Stores:   []generic.StoreID{storeID},
	}
	if emp.ID == "" {
		emp.ID = generic.EmployeeID(generic.NewID())
	} else if existing, err := h.Repo.GetEmployee(ctx, emp.ID); err == nil {
		emp.PINHash = existing.PINHash
	}

	for _, s := range req.Stores {
		id := generic.StoreID(s)
		if id == storeID {
			continue
		}
		if _, err := h.Repo.GetStore(ctx, id); err != nil {
			writeDomainError(w, "Unknown store in stores", err)
			return
		}
		emp.Stores = append(emp.Stores, id)
	}
	for _, id := range req.Roles {
		role, err := h.Repo.GetRole(ctx, generic.RoleID(id))
		if err != nil {
			writeDomainError(w, "Unknown role in roles", err)
			return
		}
		if !containsStore(emp.Stores, role.StoreID) {
			writeDomainError(w, "Role belongs to a store the employee is not a member of",
				generic.Invalid(generic.ErrInvalidInput, "roles", string(role.ID)))
			return
		}
		emp.Roles = append(emp.Roles, role.ID)
	}
	if req.PIN != "" {
		hash, err := activity.HashPIN(req.PIN)
		if err != nil {
			writeDomainError(w, "Invalid PIN", err)
			return
		}
		emp.PINHash = hash
	}

	if err := h.Repo.SaveEmployee(ctx, emp); err != nil {
		writeDomainError(w, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// =============================================================================
// ROSTER HANDLERS
// =============================================================================

// ListExpectedShifts returns the store's roster (persisted shifts and
// template occurrences) over ?from&to.
func (h *Handler) ListExpectedShifts(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		writeDomainError(w, "Invalid date range", err)
		return
	}
	shifts, err := h.Roster.ListConcreteShifts(r.Context(), storeParam(r), rng)
	if err != nil {
		writeDomainError(w, "Failed to list shifts", err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTOs(shifts))
}

// ListRepeatingShifts returns only template occurrences over ?from&to.
func (h *Handler) ListRepeatingShifts(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		writeDomainError(w, "Invalid date range", err)
		return
	}
	shifts, err := h.Roster.ListRepeatingShifts(r.Context(), storeParam(r), rng)
	if err != nil {
		writeDomainError(w, "Failed to list repeating shifts", err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTOs(shifts))
}

// CreateShift adds an ad hoc shift. Overlaps are reported as warnings.
func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req ShiftRequest
	if !h.decode(w, r, &req) {
		return
	}
	shift, warnings, err := h.Roster.CreateShift(r.Context(), roster.ShiftInput{
		StoreID:    storeParam(r),
		EmployeeID: generic.EmployeeID(req.EmployeeID),
		Start:      req.Start,
		End:        req.End,
		RoleID:     roleID(req.RoleID),
	})
	if err != nil {
		writeDomainError(w, "Failed to create shift", err)
		return
	}
	writeJSON(w, http.StatusCreated, ShiftResponse{Shift: toShiftDTO(shift), Warnings: nonNilWarnings(warnings)})
}

// UpdateShift edits a shift, including a not-yet-materialized occurrence.
func (h *Handler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	var req ShiftRequest
	if !h.decode(w, r, &req) {
		return
	}
	shift, warnings, err := h.Roster.UpdateShift(r.Context(), generic.ShiftID(chi.URLParam(r, "id")), roster.ShiftInput{
		EmployeeID: generic.EmployeeID(req.EmployeeID),
		Start:      req.Start,
		End:        req.End,
		RoleID:     roleID(req.RoleID),
	})
	if err != nil {
		writeDomainError(w, "Failed to update shift", err)
		return
	}
	writeJSON(w, http.StatusOK, ShiftResponse{Shift: toShiftDTO(shift), Warnings: nonNilWarnings(warnings)})
}

// DeleteShift removes a shift.
func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	if err := h.Roster.DeleteShift(r.Context(), generic.ShiftID(chi.URLParam(r, "id"))); err != nil {
		writeDomainError(w, "Failed to delete shift", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTemplates returns the store's repeating shift templates.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store, err := h.Repo.GetStore(ctx, storeParam(r))
	if err != nil {
		writeDomainError(w, "Failed to get store", err)
		return
	}
	templates, err := h.Roster.ListTemplates(ctx, store.ID)
	if err != nil {
		writeDomainError(w, "Failed to list templates", err)
		return
	}
	dtos := make([]factory.TemplateJSON, len(templates))
	for i, t := range templates {
		dtos[i] = h.Templates.ToJSON(t, store.CycleAnchor)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTemplate creates a repeating shift template from its JSON form.
func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req factory.TemplateJSON
	if !h.decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	store, err := h.Repo.GetStore(ctx, storeParam(r))
	if err != nil {
		writeDomainError(w, "Failed to get store", err)
		return
	}
	t, err := h.Templates.FromJSON(req, store.CycleAnchor)
	if err != nil {
		writeDomainError(w, "Invalid template", err)
		return
	}
	t.StoreID = store.ID

	created, err := h.Roster.CreateTemplate(ctx, t)
	if err != nil {
		writeDomainError(w, "Failed to create template", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.Templates.ToJSON(created, store.CycleAnchor))
}

// UpdateTemplate replaces a template's definition.
func (h *Handler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var req factory.TemplateJSON
	if !h.decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	id := generic.TemplateID(chi.URLParam(r, "id"))
	current, err := h.Roster.GetTemplate(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to get template", err)
		return
	}
	store, err := h.Repo.GetStore(ctx, current.StoreID)
	if err != nil {
		writeDomainError(w, "Failed to get store", err)
		return
	}
	t, err := h.Templates.FromJSON(req, store.CycleAnchor)
	if err != nil {
		writeDomainError(w, "Invalid template", err)
		return
	}

	updated, err := h.Roster.UpdateTemplate(ctx, id, t)
	if err != nil {
		writeDomainError(w, "Failed to update template", err)
		return
	}
	writeJSON(w, http.StatusOK, h.Templates.ToJSON(updated, store.CycleAnchor))
}

// DeleteTemplate removes a template.
func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.Roster.DeleteTemplate(r.Context(), generic.TemplateID(chi.URLParam(r, "id"))); err != nil {
		writeDomainError(w, "Failed to delete template", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ACTIVITY HANDLERS
// =============================================================================

// ClockIn opens an activity record.
func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	var req ClockInRequest
	if !h.decode(w, r, &req) {
		return
	}
	record, err := h.Activity.ClockIn(r.Context(), activity.ClockInRequest{
		EmployeeID: generic.EmployeeID(req.EmployeeID),
		StoreID:    generic.StoreID(req.StoreID),
		PIN:        req.PIN,
		Location:   generic.Geolocation{Lat: req.Location.Lat, Lng: req.Location.Lng},
		RoleID:     roleID(req.RoleID),
	})
	if err != nil {
		writeDomainError(w, "Clock-in failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, toActivityDTO(record))
}

// ClockOut closes an activity record.
func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	var req ClockOutRequest
	if !h.decode(w, r, &req) {
		return
	}
	record, err := h.Activity.ClockOut(r.Context(), activity.ClockOutRequest{
		ActivityID: generic.ActivityID(req.ActivityID),
		PIN:        req.PIN,
		Location:   generic.Geolocation{Lat: req.Location.Lat, Lng: req.Location.Lng},
		Deliveries: req.Deliveries,
	})
	if err != nil {
		writeDomainError(w, "Clock-out failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityDTO(record))
}

// ListActivity returns the store's activity over ?from&to.
func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		writeDomainError(w, "Invalid date range", err)
		return
	}
	records, err := h.Activity.List(r.Context(), storeParam(r), rng)
	if err != nil {
		writeDomainError(w, "Failed to list activity", err)
		return
	}
	dtos := make([]ActivityDTO, len(records))
	for i, a := range records {
		dtos[i] = toActivityDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ImportTimePunches loads a spreadsheet of historical punches (multipart
// field "file"). Row problems are reported; valid rows are imported.
func (h *Handler) ImportTimePunches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store, err := h.Repo.GetStore(ctx, storeParam(r))
	if err != nil {
		writeDomainError(w, "Failed to get store", err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid upload", err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file field", err)
		return
	}
	defer file.Close()

	punches, rowErrs, err := activity.ParseTimePunches(file, header.Filename, store.Location())
	if err != nil {
		writeDomainError(w, "Failed to read spreadsheet", err)
		return
	}
	result, err := h.Activity.Import(ctx, store.ID, punches)
	if err != nil {
		writeDomainError(w, "Failed to import time punches", err)
		return
	}
	result.Errors = append(rowErrs, result.Errors...)
	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// RECONCILIATION & EXCEPTION HANDLERS
// =============================================================================

// Reconcile compares roster and activity of one date and stores the new
// exceptions.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req ReconcileRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	storeID := storeParam(r)
	ids, err := h.Reconciler.Reconcile(r.Context(), storeID, date)
	if err != nil {
		writeDomainError(w, "Reconciliation failed", err)
		return
	}

	resp := ReconcileResponse{StoreID: string(storeID), Date: date.String(), ExceptionIDs: make([]string, len(ids))}
	for i, id := range ids {
		resp.ExceptionIDs[i] = string(id)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListExceptions pages through a store's exceptions, newest first.
// Query: approved=true|false, offset, limit.
func (h *Handler) ListExceptions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := generic.ExceptionFilter{StoreID: storeParam(r)}
	if v := q.Get("approved"); v != "" {
		approved, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid approved filter", err)
			return
		}
		f.Approved = &approved
	}
	var err error
	if f.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid offset", err)
		return
	}
	if f.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid limit", err)
		return
	}

	page, err := h.Reconciler.ListExceptions(r.Context(), f)
	if err != nil {
		writeDomainError(w, "Failed to list exceptions", err)
		return
	}
	dto := ExceptionPageDTO{Items: make([]ExceptionDTO, len(page.Items)), Total: page.Total, Offset: page.Offset, Limit: page.Limit}
	for i, e := range page.Items {
		dto.Items[i] = toExceptionDTO(e)
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetException returns one exception.
func (h *Handler) GetException(w http.ResponseWriter, r *http.Request) {
	e, err := h.Reconciler.GetException(r.Context(), generic.ExceptionID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get exception", err)
		return
	}
	writeJSON(w, http.StatusOK, toExceptionDTO(e))
}

// ApproveException resolves an exception with its recorded values.
func (h *Handler) ApproveException(w http.ResponseWriter, r *http.Request) {
	var req ApproveRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}
	e, err := h.Reconciler.Approve(r.Context(), generic.ExceptionID(chi.URLParam(r, "id")), approver(req.ApprovedBy))
	if err != nil {
		writeDomainError(w, "Failed to approve exception", err)
		return
	}
	writeJSON(w, http.StatusOK, toExceptionDTO(e))
}

// ApproveExceptionWithEdits resolves an exception with manager edits.
func (h *Handler) ApproveExceptionWithEdits(w http.ResponseWriter, r *http.Request) {
	var req ApproveWithEditsRequest
	if !h.decode(w, r, &req) {
		return
	}
	edits := generic.ApprovalEdits{Login: req.Login, Logout: req.Logout, RoleID: roleID(req.RoleID)}
	e, err := h.Reconciler.ApproveWithEdits(r.Context(), generic.ExceptionID(chi.URLParam(r, "id")), edits, approver(req.ApprovedBy))
	if err != nil {
		writeDomainError(w, "Failed to approve exception", err)
		return
	}
	writeJSON(w, http.StatusOK, toExceptionDTO(e))
}

// ListReconciliationRuns returns scheduler runs, newest first. Query: status.
func (h *Handler) ListReconciliationRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Repo.ListRuns(r.Context(), generic.RunStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeDomainError(w, "Failed to list runs", err)
		return
	}
	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ProcessReconciliations runs the nightly check now.
func (h *Handler) ProcessReconciliations(w http.ResponseWriter, r *http.Request) {
	if h.Scheduler == nil {
		writeError(w, http.StatusServiceUnavailable, "Scheduler not configured", nil)
		return
	}
	writeJSON(w, http.StatusOK, h.Scheduler.RunNow(r.Context()))
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns the store's public holidays.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Repo.ListHolidays(r.Context(), storeParam(r))
	if err != nil {
		writeDomainError(w, "Failed to list holidays", err)
		return
	}
	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = toHolidayDTO(hol)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday adds a public holiday to the store.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if !h.decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	storeID := storeParam(r)
	if _, err := h.Repo.GetStore(ctx, storeID); err != nil {
		writeDomainError(w, "Failed to get store", err)
		return
	}
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	hol := generic.Holiday{ID: req.ID, StoreID: storeID, Date: date, Name: req.Name, Recurring: req.Recurring}
	if hol.ID == "" {
		hol.ID = generic.NewID()
	}
	if err := h.Repo.SaveHoliday(ctx, hol); err != nil {
		writeDomainError(w, "Failed to create holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(hol))
}

// DeleteHoliday removes a holiday.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Repo.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete holiday", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func storeParam(r *http.Request) generic.StoreID {
	return generic.StoreID(chi.URLParam(r, "storeID"))
}

// decode reads and validates a JSON body, writing a 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				fields[i] = fmt.Sprintf("%s: failed %q", fe.Field(), fe.Tag())
			}
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "Validation failed",
				Kind:    string(generic.KindInvalidInput),
				Details: fields,
			})
			return false
		}
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// parseRange reads ?from&to (YYYY-MM-DD). to defaults to from.
func parseRange(r *http.Request) (generic.DateRange, error) {
	q := r.URL.Query()
	from, err := generic.ParseDate(q.Get("from"))
	if err != nil {
		return generic.DateRange{}, generic.Invalid(generic.ErrInvalidPeriod, "from", "use YYYY-MM-DD")
	}
	to := from
	if v := q.Get("to"); v != "" {
		if to, err = generic.ParseDate(v); err != nil {
			return generic.DateRange{}, generic.Invalid(generic.ErrInvalidPeriod, "to", "use YYYY-MM-DD")
		}
	}
	rng := generic.DateRange{Start: from, End: to}
	return rng, rng.Validate()
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func approver(by string) string {
	if by == "" {
		return "manager"
	}
	return by
}

func containsStore(stores []generic.StoreID, id generic.StoreID) bool {
	for _, s := range stores {
		if s == id {
			return true
		}
	}
	return false
}

func nonNilWarnings(ws []roster.Warning) []roster.Warning {
	if ws == nil {
		return []roster.Warning{}
	}
	return ws
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Kind = string(generic.KindOf(err))
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError picks the status from the error's kind.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFor(err), message, err)
}

func statusFor(err error) int {
	switch kind := generic.KindOf(err); {
	case kind == generic.KindNotFound:
		return http.StatusNotFound
	case kind == generic.KindInvalidPIN:
		return http.StatusUnauthorized
	case kind == generic.KindNotMember:
		return http.StatusForbidden
	case generic.IsConflict(err):
		return http.StatusConflict
	case generic.IsClientError(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
