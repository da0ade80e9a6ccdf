package api

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/roster-engine/generic"
	"github.com/warp/roster-engine/generic/store"
	"github.com/warp/roster-engine/reconcile"
)

// newTestScheduler seeds a UTC store and a Sydney store, each with a shift
// nobody worked on June 10 and June 11.
func newTestScheduler(t *testing.T, now time.Time) (*ReconciliationScheduler, generic.TxRepository) {
	t.Helper()
	ctx := context.Background()
	repo := store.NewMemory()
	log := logrus.New()
	log.SetOutput(io.Discard)

	for _, s := range []generic.Store{
		{ID: "utc", Name: "UTC", CycleAnchor: generic.NewDate(2024, time.January, 1), CycleLengthWeeks: 4},
		{ID: "syd", Name: "Sydney", CycleAnchor: generic.NewDate(2024, time.January, 1), CycleLengthWeeks: 4, Timezone: "Australia/Sydney"},
	} {
		require.NoError(t, repo.SaveStore(ctx, s))
		emp := generic.EmployeeID("emp-" + string(s.ID))
		require.NoError(t, repo.SaveEmployee(ctx, generic.Employee{ID: emp, Name: string(emp), Active: true, Stores: []generic.StoreID{s.ID}}))
		for _, day := range []int{10, 11} {
			d := generic.NewDate(2024, time.June, day)
			require.NoError(t, repo.InsertShift(ctx, generic.ConcreteShift{
				ID:         generic.ShiftID("shift-" + string(s.ID) + "-" + d.String()),
				StoreID:    s.ID,
				EmployeeID: emp,
				Date:       d,
				Start:      d.At(generic.NewClockTime(9, 0), s.Location()),
				End:        d.At(generic.NewClockTime(17, 0), s.Location()),
				Source:     generic.ManualSource(),
				CreatedAt:  now.Add(-30 * 24 * time.Hour),
			}))
		}
	}

	reconciler := reconcile.NewService(repo, reconcile.Options{}, log).WithClock(func() time.Time { return now })
	sched := NewReconciliationScheduler(repo, reconciler, log).WithClock(func() time.Time { return now })
	return sched, repo
}

func TestScheduler_ReconcilesPreviousLocalDate(t *testing.T) {
	// GIVEN: 20:00 UTC on June 11, already June 12 in Sydney
	now := time.Date(2024, time.June, 11, 20, 0, 0, 0, time.UTC)
	sched, repo := newTestScheduler(t, now)
	ctx := context.Background()

	// WHEN: Running a check
	res := sched.RunNow(ctx)

	// THEN: Each store reconciles its own yesterday
	assert.Equal(t, SchedulerResult{Processed: 2}, res)

	done, err := repo.IsReconciled(ctx, "utc", generic.NewDate(2024, time.June, 10))
	require.NoError(t, err)
	assert.True(t, done)
	done, err = repo.IsReconciled(ctx, "syd", generic.NewDate(2024, time.June, 11))
	require.NoError(t, err)
	assert.True(t, done)
	done, err = repo.IsReconciled(ctx, "utc", generic.NewDate(2024, time.June, 11))
	require.NoError(t, err)
	assert.False(t, done)

	runs, err := repo.ListRuns(ctx, generic.RunCompleted)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	for _, run := range runs {
		assert.Equal(t, 1, run.ExceptionsCreated, run.StoreID)
		assert.NotNil(t, run.CompletedAt)
	}
}

func TestScheduler_SkipsCompletedRuns(t *testing.T) {
	// GIVEN: A check that already ran
	sched, repo := newTestScheduler(t, time.Date(2024, time.June, 11, 20, 0, 0, 0, time.UTC))
	ctx := context.Background()
	sched.RunNow(ctx)

	// WHEN: Running again
	res := sched.RunNow(ctx)

	// THEN: Both stores are skipped and no exceptions are duplicated
	assert.Equal(t, SchedulerResult{Skipped: 2}, res)
	page, err := repo.ListExceptions(ctx, generic.ExceptionFilter{StoreID: "utc"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestScheduler_StartRunsImmediately(t *testing.T) {
	// GIVEN: A scheduler with a long interval
	sched, repo := newTestScheduler(t, time.Date(2024, time.June, 12, 6, 0, 0, 0, time.UTC))
	sched.CheckInterval = time.Hour

	// WHEN: Starting and stopping it
	sched.Start()
	sched.Stop()

	// THEN: The initial check has completed
	runs, err := repo.ListRuns(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestScheduler_RestartAfterStop(t *testing.T) {
	// GIVEN: A scheduler that ran once and was stopped
	sched, repo := newTestScheduler(t, time.Date(2024, time.June, 11, 20, 0, 0, 0, time.UTC))
	sched.CheckInterval = time.Hour
	sched.Start()
	sched.Stop()

	// WHEN: Starting it again a day later
	sched.WithClock(func() time.Time { return time.Date(2024, time.June, 12, 20, 0, 0, 0, time.UTC) })
	require.NotPanics(t, sched.Start)
	sched.Stop()

	// THEN: The second start ran its own check
	ctx := context.Background()
	done, err := repo.IsReconciled(ctx, "utc", generic.NewDate(2024, time.June, 11))
	require.NoError(t, err)
	assert.True(t, done)

	runs, err := repo.ListRuns(ctx, generic.RunCompleted)
	require.NoError(t, err)
	assert.Len(t, runs, 4)

	// AND: Stopping twice is harmless
	assert.NotPanics(t, sched.Stop)
}

func TestScheduler_DisabledDoesNothing(t *testing.T) {
	sched, repo := newTestScheduler(t, time.Date(2024, time.June, 12, 6, 0, 0, 0, time.UTC))
	sched.Enabled = false

	sched.Start()
	sched.Stop()

	runs, err := repo.ListRuns(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestScheduler_ManualTriggerEndpoint(t *testing.T) {
	// GIVEN: A handler wired to a scheduler
	sched, repo := newTestScheduler(t, time.Date(2024, time.June, 12, 6, 0, 0, 0, time.UTC))
	log := logrus.New()
	log.SetOutput(io.Discard)
	h := NewHandler(repo, reconcile.Options{}, log)
	h.Scheduler = sched
	a := &testAPI{h: h, router: NewRouter(h)}

	// WHEN: Triggering a run over HTTP
	rec := a.do(t, "POST", "/api/reconciliation/process", nil)

	// THEN: Both stores are processed and the runs are listed
	require.Equal(t, 200, rec.Code, rec.Body.String())
	assert.Equal(t, SchedulerResult{Processed: 2}, decodeBody[SchedulerResult](t, rec))

	rec = a.do(t, "GET", "/api/reconciliation/runs?status=completed", nil)
	require.Equal(t, 200, rec.Code)
	assert.Len(t, decodeBody[[]RunDTO](t, rec), 2)
}

func TestScheduler_NextRunTime(t *testing.T) {
	now := time.Date(2024, time.June, 12, 6, 0, 0, 0, time.UTC)
	sched, _ := newTestScheduler(t, now)
	sched.CheckInterval = 30 * time.Minute

	assert.Equal(t, now.Add(30*time.Minute), sched.GetNextRunTime())
}
