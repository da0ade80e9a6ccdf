/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario loads into a real SQLite store and sets up the
	expected roster and activity:
	- Store, role and staff are created
	- Shifts, templates and activity land on the scenario's date
	- Loading again after a reset does not collide with earlier data
*/
package api

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/roster-engine/generic"
	"github.com/warp/roster-engine/reconcile"
	"github.com/warp/roster-engine/store/sqlite"
)

func setupSQLiteHandler(t *testing.T) *Handler {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewHandler(db, reconcile.Options{}, log)
}

func loadInto(t *testing.T, h *Handler, id string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.reset(ctx))
	require.NoError(t, h.Repo.WithTx(ctx, func(repo generic.Repository) error {
		return scenarioLoaders[id](ctx, repo)
	}))
}

func TestScenario_SeedsDirectory(t *testing.T) {
	// GIVEN: A fresh SQLite store
	h := setupSQLiteHandler(t)
	ctx := context.Background()

	// WHEN: Loading any scenario
	loadInto(t, h, "missed-shift")

	// THEN: Store S with a four-week cycle, one role and two PIN-holding staff
	store, err := h.Repo.GetStore(ctx, scenarioStore)
	require.NoError(t, err)
	assert.Equal(t, 4, store.CycleLength())
	assert.Equal(t, time.Monday, store.CycleAnchor.Weekday())

	employees, err := h.Repo.ListEmployees(ctx, scenarioStore)
	require.NoError(t, err)
	require.Len(t, employees, 2)
	for _, e := range employees {
		assert.NotEmpty(t, e.PINHash, e.ID)
		assert.True(t, e.CanWorkAt(scenarioStore), e.ID)
	}
}

func TestScenario_LateClockRoster(t *testing.T) {
	h := setupSQLiteHandler(t)
	ctx := context.Background()

	loadInto(t, h, "late-clock")

	day := generic.DateRange{Start: generic.NewDate(2024, time.June, 12), End: generic.NewDate(2024, time.June, 12)}
	shifts, err := h.Roster.ListConcreteShifts(ctx, scenarioStore, day)
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, scenarioSam, shifts[0].EmployeeID)

	acts, err := h.Activity.List(ctx, scenarioStore, day)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, 5, acts[0].LoginAt.Minute())
	assert.False(t, acts[0].IsOpen())
}

func TestScenario_FridayCloseTemplate(t *testing.T) {
	h := setupSQLiteHandler(t)
	ctx := context.Background()

	loadInto(t, h, "friday-close")

	templates, err := h.Roster.ListTemplates(ctx, scenarioStore)
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, []int{1, 3}, templates[0].ActiveWeeks)
	assert.Equal(t, "friday", h.Templates.ToJSON(templates[0], generic.NewDate(2024, time.January, 1)).StartDay)
}

func TestScenario_AllScenariosLoadWithoutError(t *testing.T) {
	// GIVEN: All available scenarios, loaded one after another into one store
	h := setupSQLiteHandler(t)

	// WHEN/THEN: Each resets and loads cleanly
	for _, s := range scenarios {
		t.Run(s.ID, func(t *testing.T) {
			_, ok := scenarioLoaders[s.ID]
			require.True(t, ok, "no loader for %s", s.ID)
			loadInto(t, h, s.ID)
		})
	}
}

func TestScenario_LoadOverHTTPWithSQLite(t *testing.T) {
	h := setupSQLiteHandler(t)
	a := &testAPI{h: h, router: NewRouter(h)}

	a.loadScenario(t, "no-shift")
	ids := a.reconcile(t, string(scenarioStore), "2024-06-10")
	require.Len(t, ids, 1)

	rec := a.do(t, http.MethodPost, "/api/scenarios/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(t, http.MethodGet, "/api/stores", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
