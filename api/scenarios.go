/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with a store,
	its staff and the roster/activity of one reconciliation case each.
	Reconcile the scenario's date afterwards to see the exception it raises.

AVAILABLE SCENARIOS:

	no-shift:       Worked 2024-06-10 without a rostered shift -> No Shift
	missed-shift:   Rostered 2024-06-11 09:00-17:00, never clocked -> Missed Shift
	friday-close:   Fri 22:00 -> Sat 02:00 template in cycle weeks 1 and 3
	late-clock:     Rostered 09:00-17:00, clocked 09:05-17:10 -> Incorrectly Clocked

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create store S (anchor Monday 2024-01-01, 4-week cycle), role, staff
 3. Add the scenario's shifts, templates and activity in one transaction

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "late-clock"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - factory/template.go: Template JSON definitions
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/roster-engine/activity"
	"github.com/warp/roster-engine/generic"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "no-shift",
		Name:        "No Shift",
		Description: "Alex works 10:00-14:00 on 2024-06-10 with nothing rostered",
	},
	{
		ID:          "missed-shift",
		Name:        "Missed Shift",
		Description: "Sam is rostered 09:00-17:00 on 2024-06-11 and never clocks in",
	},
	{
		ID:          "friday-close",
		Name:        "Friday Close",
		Description: "Repeating Friday 22:00 to Saturday 02:00 shift in cycle weeks 1 and 3",
	},
	{
		ID:          "late-clock",
		Name:        "Late Clock",
		Description: "Sam is rostered 09:00-17:00 on 2024-06-12 and clocks 09:05-17:10",
	},
}

const (
	scenarioStore = generic.StoreID("store-s")
	scenarioRole  = generic.RoleID("role-driver")
	scenarioAlex  = generic.EmployeeID("emp-alex")
	scenarioSam   = generic.EmployeeID("emp-sam")
	scenarioPIN   = "1234"
)

var scenarioLoaders = map[string]func(context.Context, generic.Repository) error{
	"no-shift":     loadNoShiftScenario,
	"missed-shift": loadMissedShiftScenario,
	"friday-close": loadFridayCloseScenario,
	"late-clock":   loadLateClockScenario,
}

// ListScenarios returns all available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}
	load, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", generic.Invalid(generic.ErrInvalidInput, "scenario_id", req.ScenarioID))
		return
	}

	ctx := r.Context()
	if err := h.reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	if err := h.Repo.WithTx(ctx, func(repo generic.Repository) error { return load(ctx, repo) }); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()
	h.log.WithField("scenario", req.ScenarioID).Info("scenario loaded")

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario_id": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) reset(ctx context.Context) error {
	resetter, ok := h.Repo.(Resetter)
	if !ok {
		return fmt.Errorf("store does not support reset")
	}
	if err := resetter.Reset(ctx); err != nil {
		return err
	}
	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func seedStore(ctx context.Context, repo generic.Repository) error {
	store := generic.Store{
		ID:               scenarioStore,
		Name:             "Store S",
		CycleAnchor:      generic.NewDate(2024, time.January, 1),
		CycleLengthWeeks: 4,
	}
	if err := repo.SaveStore(ctx, store); err != nil {
		return err
	}
	if err := repo.SaveRole(ctx, generic.Role{ID: scenarioRole, StoreID: scenarioStore, Name: "Driver", Colour: "#2f80ed"}); err != nil {
		return err
	}

	hash, err := activity.HashPIN(scenarioPIN)
	if err != nil {
		return err
	}
	for _, e := range []generic.Employee{
		{ID: scenarioAlex, Name: "Alex"},
		{ID: scenarioSam, Name: "Sam"},
	} {
		e.Active = true
		e.PINHash = hash
		e.Stores = []generic.StoreID{scenarioStore}
		e.Roles = []generic.RoleID{scenarioRole}
		if err := repo.SaveEmployee(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func scenarioTime(date generic.Date, hour, minute int) time.Time {
	return date.At(generic.NewClockTime(hour, minute), time.UTC)
}

func scenarioShift(id string, emp generic.EmployeeID, date generic.Date, from, to generic.ClockTime) generic.ConcreteShift {
	role := scenarioRole
	return generic.ConcreteShift{
		ID:         generic.ShiftID(id),
		StoreID:    scenarioStore,
		EmployeeID: emp,
		Date:       date,
		Start:      date.At(from, time.UTC),
		End:        date.At(to, time.UTC),
		RoleID:     &role,
		Source:     generic.ManualSource(),
		CreatedAt:  date.AddDays(-7).Midnight(time.UTC),
	}
}

func scenarioActivity(id string, emp generic.EmployeeID, login, logout time.Time, deliveries int) generic.ActivityRecord {
	role := scenarioRole
	return generic.ActivityRecord{
		ID:             generic.ActivityID(id),
		StoreID:        scenarioStore,
		EmployeeID:     emp,
		LoginAt:        login,
		LogoutAt:       &logout,
		Deliveries:     deliveries,
		LogoutLocation: &generic.Geolocation{},
		RoleID:         &role,
		CreatedAt:      login,
	}
}

func loadNoShiftScenario(ctx context.Context, repo generic.Repository) error {
	if err := seedStore(ctx, repo); err != nil {
		return err
	}
	date := generic.NewDate(2024, time.June, 10)
	return repo.InsertActivity(ctx, scenarioActivity("act-no-shift", scenarioAlex,
		scenarioTime(date, 10, 0), scenarioTime(date, 14, 0), 6))
}

func loadMissedShiftScenario(ctx context.Context, repo generic.Repository) error {
	if err := seedStore(ctx, repo); err != nil {
		return err
	}
	date := generic.NewDate(2024, time.June, 11)
	return repo.InsertShift(ctx, scenarioShift("shift-missed", scenarioSam, date,
		generic.NewClockTime(9, 0), generic.NewClockTime(17, 0)))
}

func loadFridayCloseScenario(ctx context.Context, repo generic.Repository) error {
	if err := seedStore(ctx, repo); err != nil {
		return err
	}
	comment := "closing driver"
	role := scenarioRole
	created := generic.NewDate(2023, time.December, 20).Midnight(time.UTC)
	return repo.SaveTemplate(ctx, generic.Template{
		ID:           "tpl-friday-close",
		StoreID:      scenarioStore,
		EmployeeID:   scenarioAlex,
		StartWeekday: 4,
		EndWeekday:   5,
		StartTime:    generic.NewClockTime(22, 0),
		EndTime:      generic.NewClockTime(2, 0),
		ActiveWeeks:  []int{1, 3},
		RoleID:       &role,
		Comment:      &comment,
		CreatedAt:    created,
		UpdatedAt:    created,
	})
}

func loadLateClockScenario(ctx context.Context, repo generic.Repository) error {
	if err := seedStore(ctx, repo); err != nil {
		return err
	}
	date := generic.NewDate(2024, time.June, 12)
	if err := repo.InsertShift(ctx, scenarioShift("shift-late", scenarioSam, date,
		generic.NewClockTime(9, 0), generic.NewClockTime(17, 0))); err != nil {
		return err
	}
	return repo.InsertActivity(ctx, scenarioActivity("act-late", scenarioSam,
		scenarioTime(date, 9, 5), scenarioTime(date, 17, 10), 0))
}
