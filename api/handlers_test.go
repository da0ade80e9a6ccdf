/*
handlers_test.go - HTTP tests for API handlers

Tests for:
- Error kind to status mapping (404, 400, 401, 409)
- Directory, shift and clock endpoints
- Scenario load -> reconcile -> approve round trips
*/
package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/roster-engine/generic/store"
	"github.com/warp/roster-engine/reconcile"
)

// exceptionView mirrors ExceptionDTO with the polymorphic details left raw.
type exceptionView struct {
	ID         string          `json:"id"`
	EmployeeID string          `json:"employee_id"`
	Date       string          `json:"date"`
	Reason     string          `json:"reason"`
	ShiftID    *string         `json:"shift_id"`
	ActivityID *string         `json:"activity_id"`
	Details    json.RawMessage `json:"details"`
	Approved   bool            `json:"approved"`
	ApprovedBy string          `json:"approved_by"`
}

type exceptionPageView struct {
	Items []exceptionView `json:"items"`
	Total int             `json:"total"`
	Limit int             `json:"limit"`
}

type testAPI struct {
	h      *Handler
	router *chi.Mux
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	h := NewHandler(store.NewMemory(), reconcile.Options{}, log)
	return &testAPI{h: h, router: NewRouter(h)}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (a *testAPI) loadScenario(t *testing.T, id string) {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: id})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func (a *testAPI) reconcile(t *testing.T, storeID, date string) []string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/stores/"+storeID+"/reconcile", ReconcileRequest{Date: date})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody[ReconcileResponse](t, rec).ExceptionIDs
}

// seedClockStore creates store "st" with role "drv" and employee "e1"
// (PIN 4321) through the API.
func (a *testAPI) seedClockStore(t *testing.T) {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/stores", CreateStoreRequest{ID: "st", Name: "Store", CycleAnchor: "2024-01-01"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = a.do(t, http.MethodPost, "/api/stores/st/roles", CreateRoleRequest{ID: "drv", Name: "Driver"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = a.do(t, http.MethodPost, "/api/stores/st/employees", CreateEmployeeRequest{ID: "e1", Name: "Eve", PIN: "4321", Roles: []string{"drv"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

// =============================================================================
// DIRECTORY
// =============================================================================

func TestStores_CreateAndGet(t *testing.T) {
	// GIVEN: An empty API
	a := newTestAPI(t)

	// WHEN: Creating a store without a cycle length
	rec := a.do(t, http.MethodPost, "/api/stores", CreateStoreRequest{
		ID: "st", Name: "Store", CycleAnchor: "2024-01-01", Timezone: "Australia/Sydney",
	})

	// THEN: The store is created with the default cycle length
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[StoreDTO](t, rec)
	assert.Equal(t, 4, created.CycleLengthWeeks)

	rec = a.do(t, http.MethodGet, "/api/stores/st", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[StoreDTO](t, rec)
	assert.Equal(t, "2024-01-01", got.CycleAnchor)
	assert.Equal(t, "Australia/Sydney", got.Timezone)
}

func TestStores_UnknownIsNotFound(t *testing.T) {
	a := newTestAPI(t)

	for _, path := range []string{"/api/stores/nope", "/api/stores/nope/roles", "/api/employees/nobody"} {
		rec := a.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "not_found", decodeBody[ErrorResponse](t, rec).Kind, path)
	}
}

func TestStores_ValidationFailure(t *testing.T) {
	// GIVEN: A store request without a name and with a malformed anchor
	a := newTestAPI(t)

	// WHEN: Posting it
	rec := a.do(t, http.MethodPost, "/api/stores", CreateStoreRequest{CycleAnchor: "01/01/2024"})

	// THEN: 400 with the invalid_input kind and the failing fields
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "invalid_input", resp.Kind)
	assert.Len(t, resp.Details, 2)
}

func TestEmployees_PINHashNotExposed(t *testing.T) {
	a := newTestAPI(t)
	a.seedClockStore(t)

	rec := a.do(t, http.MethodGet, "/api/employees/e1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "4321")
	emp := decodeBody[EmployeeDTO](t, rec)
	assert.True(t, emp.HasPIN)
	assert.Equal(t, []string{"st"}, emp.Stores)
	assert.Equal(t, []string{"drv"}, emp.Roles)
}

func TestEmployees_RoleFromOtherStoreRejected(t *testing.T) {
	// GIVEN: Two stores, a role in the second one
	a := newTestAPI(t)
	a.seedClockStore(t)
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/api/stores", CreateStoreRequest{ID: "other", Name: "Other", CycleAnchor: "2024-01-01"}).Code)
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/api/stores/other/roles", CreateRoleRequest{ID: "cook", Name: "Cook"}).Code)

	// WHEN: Creating an employee of the first store with that role
	rec := a.do(t, http.MethodPost, "/api/stores/st/employees", CreateEmployeeRequest{ID: "e2", Name: "Finn", Roles: []string{"cook"}})

	// THEN: 400
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// SHIFTS
// =============================================================================

func TestShifts_CreateListDelete(t *testing.T) {
	// GIVEN: A store with one employee
	a := newTestAPI(t)
	a.seedClockStore(t)

	// WHEN: Creating an ad hoc shift
	rec := a.do(t, http.MethodPost, "/api/stores/st/shifts", map[string]any{
		"employee_id": "e1",
		"start":       "2024-06-10T09:00:00Z",
		"end":         "2024-06-10T17:00:00Z",
	})

	// THEN: It is listed for its date and can be deleted once
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[ShiftResponse](t, rec)
	assert.Equal(t, "2024-06-10", created.Shift.Date)
	assert.Empty(t, created.Warnings)

	rec = a.do(t, http.MethodGet, "/api/stores/st/expected-shifts?from=2024-06-10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]ShiftDTO](t, rec), 1)

	rec = a.do(t, http.MethodDelete, "/api/shifts/"+created.Shift.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = a.do(t, http.MethodDelete, "/api/shifts/"+created.Shift.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShifts_OverlapReturnsWarning(t *testing.T) {
	a := newTestAPI(t)
	a.seedClockStore(t)
	body := map[string]any{"employee_id": "e1", "start": "2024-06-10T09:00:00Z", "end": "2024-06-10T17:00:00Z"}
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/api/stores/st/shifts", body).Code)

	body["start"], body["end"] = "2024-06-10T16:00:00Z", "2024-06-10T20:00:00Z"
	rec := a.do(t, http.MethodPost, "/api/stores/st/shifts", body)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, decodeBody[ShiftResponse](t, rec).Warnings, 1)
}

func TestShifts_InvalidRange(t *testing.T) {
	a := newTestAPI(t)
	a.seedClockStore(t)

	rec := a.do(t, http.MethodPost, "/api/stores/st/shifts", map[string]any{
		"employee_id": "e1",
		"start":       "2024-06-10T17:00:00Z",
		"end":         "2024-06-10T09:00:00Z",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_time_range", decodeBody[ErrorResponse](t, rec).Kind)

	rec = a.do(t, http.MethodGet, "/api/stores/st/expected-shifts?from=2024-06-10&to=2024-06-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRangeQueries_SpanIsBounded(t *testing.T) {
	// GIVEN: A store with a repeating template
	a := newTestAPI(t)
	a.loadScenario(t, "friday-close")

	for _, path := range []string{
		"/api/stores/store-s/expected-shifts",
		"/api/stores/store-s/repeating-shifts",
		"/api/stores/store-s/activity",
	} {
		// WHEN: Asking for eight thousand years at once
		rec := a.do(t, http.MethodGet, path+"?from=1000-01-01&to=9999-12-31", nil)

		// THEN: The range is rejected before any expansion
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Equal(t, "invalid_period", decodeBody[ErrorResponse](t, rec).Kind, path)

		// AND: A full leap year is still served
		rec = a.do(t, http.MethodGet, path+"?from=2024-01-01&to=2024-12-31", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

// =============================================================================
// CLOCK IN / OUT
// =============================================================================

func TestClock_StatusMapping(t *testing.T) {
	// GIVEN: An employee with PIN 4321
	a := newTestAPI(t)
	a.seedClockStore(t)
	in := ClockInRequest{EmployeeID: "e1", StoreID: "st", PIN: "0000"}

	// WHEN/THEN: A wrong PIN is unauthorized
	rec := a.do(t, http.MethodPost, "/api/clock/in", in)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// WHEN/THEN: The right PIN opens a record, a second clock-in conflicts
	in.PIN = "4321"
	rec = a.do(t, http.MethodPost, "/api/clock/in", in)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	opened := decodeBody[ActivityDTO](t, rec)
	assert.True(t, opened.Open)

	rec = a.do(t, http.MethodPost, "/api/clock/in", in)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_clocked_in", decodeBody[ErrorResponse](t, rec).Kind)

	// WHEN/THEN: Negative deliveries are rejected, a valid clock-out closes it
	out := ClockOutRequest{ActivityID: opened.ID, PIN: "4321", Deliveries: -1}
	rec = a.do(t, http.MethodPost, "/api/clock/out", out)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_deliveries", decodeBody[ErrorResponse](t, rec).Kind)

	out.Deliveries = 3
	rec = a.do(t, http.MethodPost, "/api/clock/out", out)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	closed := decodeBody[ActivityDTO](t, rec)
	assert.False(t, closed.Open)
	assert.Equal(t, 3, closed.Deliveries)

	rec = a.do(t, http.MethodPost, "/api/clock/out", out)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestClock_NotMemberIsForbidden(t *testing.T) {
	a := newTestAPI(t)
	a.seedClockStore(t)
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/api/stores", CreateStoreRequest{ID: "other", Name: "Other", CycleAnchor: "2024-01-01"}).Code)

	rec := a.do(t, http.MethodPost, "/api/clock/in", ClockInRequest{EmployeeID: "e1", StoreID: "other", PIN: "4321"})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// =============================================================================
// SCENARIOS, RECONCILIATION, APPROVAL
// =============================================================================

func TestScenarios_ListAndUnknown(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]ScenarioDTO](t, rec), len(scenarioLoaders))

	rec = a.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScenarios_EachRaisesItsException(t *testing.T) {
	tests := []struct {
		scenario string
		date     string
		reason   string
	}{
		{"no-shift", "2024-06-10", "No Shift"},
		{"missed-shift", "2024-06-11", "Missed Shift"},
		{"late-clock", "2024-06-12", "Incorrectly Clocked"},
		{"friday-close", "2024-01-05", "Missed Shift"},
	}
	for _, tt := range tests {
		t.Run(tt.scenario, func(t *testing.T) {
			// GIVEN: The scenario loaded
			a := newTestAPI(t)
			a.loadScenario(t, tt.scenario)

			// WHEN: Reconciling its date
			ids := a.reconcile(t, string(scenarioStore), tt.date)

			// THEN: Exactly one exception with the expected reason
			require.Len(t, ids, 1)
			rec := a.do(t, http.MethodGet, "/api/exceptions/"+ids[0], nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.reason, decodeBody[exceptionView](t, rec).Reason)

			rec = a.do(t, http.MethodGet, "/api/scenarios/current", nil)
			assert.Equal(t, tt.scenario, decodeBody[ScenarioDTO](t, rec).ID)
		})
	}
}

func TestScenarios_ReloadResets(t *testing.T) {
	// GIVEN: The late-clock scenario reconciled once
	a := newTestAPI(t)
	a.loadScenario(t, "late-clock")
	require.Len(t, a.reconcile(t, string(scenarioStore), "2024-06-12"), 1)

	// WHEN: Loading another scenario
	a.loadScenario(t, "missed-shift")

	// THEN: The earlier exception is gone
	rec := a.do(t, http.MethodGet, "/api/stores/store-s/exceptions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decodeBody[exceptionPageView](t, rec).Total)
}

func TestFridayClose_RepeatingShiftsAndReconcile(t *testing.T) {
	// GIVEN: A Friday 22:00 -> Saturday 02:00 template in cycle weeks 1 and 3
	a := newTestAPI(t)
	a.loadScenario(t, "friday-close")

	// WHEN: Listing January's occurrences
	rec := a.do(t, http.MethodGet, "/api/stores/store-s/repeating-shifts?from=2024-01-01&to=2024-01-31", nil)

	// THEN: Only Jan 5 and Jan 19, each ending the next morning
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	shifts := decodeBody[[]ShiftDTO](t, rec)
	require.Len(t, shifts, 2)
	assert.Equal(t, "2024-01-05", shifts[0].Date)
	assert.Equal(t, "2024-01-06T02:00:00Z", shifts[0].End.UTC().Format("2006-01-02T15:04:05Z"))
	assert.Equal(t, "2024-01-19", shifts[1].Date)

	// AND: Week 2 reconciles clean, the Saturday of week 1 raises nothing
	assert.Empty(t, a.reconcile(t, "store-s", "2024-01-12"))
	assert.Empty(t, a.reconcile(t, "store-s", "2024-01-06"))

	// AND: The template is listed with weekday names
	rec = a.do(t, http.MethodGet, "/api/stores/store-s/repeating-shift-templates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "friday")
}

func TestReconcile_IsIdempotentOverHTTP(t *testing.T) {
	a := newTestAPI(t)
	a.loadScenario(t, "missed-shift")

	first := a.reconcile(t, "store-s", "2024-06-11")
	second := a.reconcile(t, "store-s", "2024-06-11")

	assert.Len(t, first, 1)
	assert.Empty(t, second)
}

func TestReconcile_UnknownStoreAndBadDate(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/stores/nope/reconcile", ReconcileRequest{Date: "2024-06-11"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	a.loadScenario(t, "missed-shift")
	rec = a.do(t, http.MethodPost, "/api/stores/store-s/reconcile", ReconcileRequest{Date: "11/06/2024"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApprove_LateClockRevisesActivity(t *testing.T) {
	// GIVEN: An Incorrectly Clocked exception for a 09:05-17:10 activity
	a := newTestAPI(t)
	a.loadScenario(t, "late-clock")
	ids := a.reconcile(t, "store-s", "2024-06-12")
	require.Len(t, ids, 1)

	// WHEN: Approving it without edits
	rec := a.do(t, http.MethodPost, "/api/exceptions/"+ids[0]+"/approve", nil)

	// THEN: The exception is approved and the activity snaps to 09:00-17:00
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decodeBody[exceptionView](t, rec)
	assert.True(t, approved.Approved)
	assert.Equal(t, "manager", approved.ApprovedBy)

	rec = a.do(t, http.MethodGet, "/api/stores/store-s/activity?from=2024-06-12", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	acts := decodeBody[[]ActivityDTO](t, rec)
	require.Len(t, acts, 1)
	assert.Equal(t, 9, acts[0].LoginAt.UTC().Hour())
	assert.Equal(t, 0, acts[0].LoginAt.UTC().Minute())
	assert.Equal(t, 17, acts[0].LogoutAt.UTC().Hour())
	assert.Equal(t, "8.00", acts[0].LengthHours)

	// AND: A second approval conflicts
	rec = a.do(t, http.MethodPost, "/api/exceptions/"+ids[0]+"/approve", ApproveRequest{ApprovedBy: "kim"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_approved", decodeBody[ErrorResponse](t, rec).Kind)

	// AND: Re-running reconciliation raises nothing new
	assert.Empty(t, a.reconcile(t, "store-s", "2024-06-12"))
}

func TestApproveWithEdits_NoShiftCreatesEditedShift(t *testing.T) {
	// GIVEN: A No Shift exception for a 10:00-14:00 activity
	a := newTestAPI(t)
	a.loadScenario(t, "no-shift")
	ids := a.reconcile(t, "store-s", "2024-06-10")
	require.Len(t, ids, 1)

	// WHEN: Approving with no edits in the body
	rec := a.do(t, http.MethodPatch, "/api/exceptions/"+ids[0]+"/approve-with-edits", map[string]any{})

	// THEN: Validation rejects it
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// WHEN: Approving with a corrected logout
	rec = a.do(t, http.MethodPatch, "/api/exceptions/"+ids[0]+"/approve-with-edits", map[string]any{
		"logout":      "2024-06-10T13:30:00Z",
		"approved_by": "kim",
	})

	// THEN: A shift with the edited end time joins the roster
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "kim", decodeBody[exceptionView](t, rec).ApprovedBy)

	rec = a.do(t, http.MethodGet, "/api/stores/store-s/expected-shifts?from=2024-06-10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	shifts := decodeBody[[]ShiftDTO](t, rec)
	require.Len(t, shifts, 1)
	assert.Equal(t, 10, shifts[0].Start.UTC().Hour())
	assert.Equal(t, 30, shifts[0].End.UTC().Minute())
}

func TestListExceptions_FiltersAndParams(t *testing.T) {
	// GIVEN: One approved and one unapproved exception
	a := newTestAPI(t)
	a.loadScenario(t, "late-clock")
	ids := a.reconcile(t, "store-s", "2024-06-12")
	require.Len(t, ids, 1)
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/api/exceptions/"+ids[0]+"/approve", nil).Code)
	rec := a.do(t, http.MethodPost, "/api/stores/store-s/shifts", map[string]any{
		"employee_id": "emp-alex",
		"start":       "2024-06-13T09:00:00Z",
		"end":         "2024-06-13T12:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, a.reconcile(t, "store-s", "2024-06-13"), 1)

	// WHEN/THEN: Filtering on approval state
	rec = a.do(t, http.MethodGet, "/api/stores/store-s/exceptions?approved=false", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decodeBody[exceptionPageView](t, rec)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "Missed Shift", page.Items[0].Reason)

	rec = a.do(t, http.MethodGet, "/api/stores/store-s/exceptions?approved=true", nil)
	assert.Equal(t, 1, decodeBody[exceptionPageView](t, rec).Total)

	rec = a.do(t, http.MethodGet, "/api/stores/store-s/exceptions?limit=1", nil)
	page = decodeBody[exceptionPageView](t, rec)
	assert.Equal(t, 2, page.Total)
	assert.Len(t, page.Items, 1)

	// THEN: Malformed parameters are rejected
	for _, q := range []string{"approved=maybe", "limit=abc", "offset=x"} {
		rec = a.do(t, http.MethodGet, "/api/stores/store-s/exceptions?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

// =============================================================================
// HOLIDAYS & RUNS
// =============================================================================

func TestHolidays_CreateListDelete(t *testing.T) {
	a := newTestAPI(t)
	a.seedClockStore(t)

	rec := a.do(t, http.MethodPost, "/api/stores/st/holidays", CreateHolidayRequest{ID: "xmas", Date: "2024-12-25", Name: "Christmas", Recurring: true})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/api/stores/st/holidays", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]HolidayDTO](t, rec), 1)

	assert.Equal(t, http.StatusNoContent, a.do(t, http.MethodDelete, "/api/holidays/xmas", nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodDelete, "/api/holidays/xmas", nil).Code)
}

func TestProcessReconciliations_WithoutScheduler(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/reconciliation/process", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthz(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
