package activity

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/roster-engine/generic"
	"github.com/warp/roster-engine/generic/store"
	"github.com/warp/roster-engine/store/sqlite"
)

const testPIN = "4321"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func seedDirectory(t *testing.T, repo generic.Repository) {
	t.Helper()
	ctx := context.Background()
	hash, err := HashPIN(testPIN)
	require.NoError(t, err)

	for _, st := range []generic.Store{
		{ID: "store-a", Name: "A", CycleAnchor: generic.NewDate(2024, time.January, 1),
			Geofence: generic.Geofence{Lat: -33.8688, Lng: 151.2093, RadiusMeters: 200}},
		{ID: "store-b", Name: "B", CycleAnchor: generic.NewDate(2024, time.January, 1)},
	} {
		require.NoError(t, repo.SaveStore(ctx, st))
	}
	require.NoError(t, repo.SaveRole(ctx, generic.Role{ID: "driver", StoreID: "store-a", Name: "Driver"}))
	require.NoError(t, repo.SaveEmployee(ctx, generic.Employee{
		ID: "emp-1", Name: "One", Active: true, PINHash: hash,
		Stores: []generic.StoreID{"store-a", "store-b"},
	}))
	require.NoError(t, repo.SaveEmployee(ctx, generic.Employee{
		ID: "emp-gone", Name: "Gone", Active: true, Resigned: true, PINHash: hash,
		Stores: []generic.StoreID{"store-a"},
	}))
	require.NoError(t, repo.SaveHoliday(ctx, generic.Holiday{
		ID: "xmas", StoreID: "store-a", Date: generic.NewDate(2024, time.December, 25), Name: "Christmas", Recurring: true,
	}))
}

func newTestService(t *testing.T, repo generic.TxRepository) (*Service, *clock) {
	t.Helper()
	seedDirectory(t, repo)
	c := &clock{now: time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)}
	svc := NewService(repo, BcryptVerifier{}, quietLogger()).WithClock(c.Now)
	return svc, c
}

func newSQLiteRepo(t *testing.T) *sqlite.Store {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestClockInOut(t *testing.T) {
	svc, c := newTestService(t, store.NewMemory())
	ctx := context.Background()
	role := generic.RoleID("driver")

	// WHEN: clocking in and out four hours later
	in, err := svc.ClockIn(ctx, ClockInRequest{EmployeeID: "emp-1", StoreID: "store-a", PIN: testPIN, RoleID: &role})
	require.NoError(t, err)
	assert.True(t, in.IsOpen())
	assert.False(t, in.PublicHoliday)

	open, err := svc.OpenActivity(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, in.ID, open.ID)

	c.Advance(4 * time.Hour)
	out, err := svc.ClockOut(ctx, ClockOutRequest{ActivityID: in.ID, PIN: testPIN, Deliveries: 7})

	// THEN: the record is closed with its length and deliveries
	require.NoError(t, err)
	require.NotNil(t, out.LogoutAt)
	assert.Equal(t, 7, out.Deliveries)
	assert.Equal(t, "4.00", out.Length().StringFixed(2))

	_, err = svc.OpenActivity(ctx, "emp-1")
	assert.ErrorIs(t, err, generic.ErrNotClockedIn)

	records, err := svc.List(ctx, "store-a", generic.SingleDay(generic.NewDate(2024, time.June, 10)))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, in.ID, records[0].ID)
}

func TestClockIn_AlreadyClockedInAnyStore(t *testing.T) {
	for name, repo := range map[string]generic.TxRepository{
		"memory": store.NewMemory(),
		"sqlite": newSQLiteRepo(t),
	} {
		t.Run(name, func(t *testing.T) {
			svc, _ := newTestService(t, repo)
			ctx := context.Background()

			// GIVEN: emp-1 is clocked in at store A
			first, err := svc.ClockIn(ctx, ClockInRequest{EmployeeID: "emp-1", StoreID: "store-a", PIN: testPIN})
			require.NoError(t, err)

			// WHEN: clocking in at store B
			_, err = svc.ClockIn(ctx, ClockInRequest{EmployeeID: "emp-1", StoreID: "store-b", PIN: testPIN})

			// THEN: rejected, pointing at the open record
			require.ErrorIs(t, err, generic.ErrAlreadyClockedIn)
			var already *generic.AlreadyClockedInError
			if errors.As(err, &already) && already.ActivityID != "" {
				assert.Equal(t, first.ID, already.ActivityID)
			}
		})
	}
}

func TestClockIn_ConcurrentRequests(t *testing.T) {
	for name, repo := range map[string]generic.TxRepository{
		"memory": store.NewMemory(),
		"sqlite": newSQLiteRepo(t),
	} {
		t.Run(name, func(t *testing.T) {
			// GIVEN: a cheap verifier so the race is on the insert
			seedDirectory(t, repo)
			svc := NewService(repo, nil, quietLogger())
			ctx := context.Background()

			// WHEN: ten clock-ins race
			const n = 10
			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				successes int
				conflicts int
			)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := svc.ClockIn(ctx, ClockInRequest{EmployeeID: "emp-1", StoreID: "store-a"})
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						successes++
					case errors.Is(err, generic.ErrAlreadyClockedIn):
						conflicts++
					}
				}()
			}
			wg.Wait()

			// THEN: exactly one wins
			assert.Equal(t, 1, successes)
			assert.Equal(t, n-1, conflicts)
		})
	}
}

func TestClockIn_Rejections(t *testing.T) {
	svc, _ := newTestService(t, store.NewMemory())
	ctx := context.Background()
	foreign := generic.RoleID("nope")

	tests := []struct {
		name string
		req  ClockInRequest
		want error
	}{
		{"wrong PIN", ClockInRequest{EmployeeID: "emp-1", StoreID: "store-a", PIN: "0000"}, generic.ErrInvalidPIN},
		{"resigned", ClockInRequest{EmployeeID: "emp-gone", StoreID: "store-a", PIN: testPIN}, generic.ErrNotMember},
		{"unknown employee", ClockInRequest{EmployeeID: "ghost", StoreID: "store-a", PIN: testPIN}, generic.ErrNotFound},
		{"unknown store", ClockInRequest{EmployeeID: "emp-1", StoreID: "nowhere", PIN: testPIN}, generic.ErrNotFound},
		{"unknown role", ClockInRequest{EmployeeID: "emp-1", StoreID: "store-a", PIN: testPIN, RoleID: &foreign}, generic.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ClockIn(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := svc.OpenActivity(ctx, "emp-1")
	assert.ErrorIs(t, err, generic.ErrNotClockedIn, "no rejected attempt leaves an open record")
}

func TestClockIn_StampsPublicHoliday(t *testing.T) {
	svc, c := newTestService(t, store.NewMemory())
	c.now = time.Date(2025, time.December, 25, 8, 0, 0, 0, time.UTC)

	rec, err := svc.ClockIn(context.Background(), ClockInRequest{EmployeeID: "emp-1", StoreID: "store-a", PIN: testPIN})
	require.NoError(t, err)
	assert.True(t, rec.PublicHoliday, "recurring holiday matches in later years")
}

func TestClockIn_OutsideGeofenceIsAllowed(t *testing.T) {
	svc, _ := newTestService(t, store.NewMemory())

	rec, err := svc.ClockIn(context.Background(), ClockInRequest{
		EmployeeID: "emp-1", StoreID: "store-a", PIN: testPIN,
		Location: generic.Geolocation{Lat: -37.8136, Lng: 144.9631},
	})
	require.NoError(t, err)
	assert.True(t, rec.IsOpen())
}

func TestClockOut_Rejections(t *testing.T) {
	svc, c := newTestService(t, newSQLiteRepo(t))
	ctx := context.Background()

	rec, err := svc.ClockIn(ctx, ClockInRequest{EmployeeID: "emp-1", StoreID: "store-a", PIN: testPIN})
	require.NoError(t, err)
	c.Advance(time.Hour)

	// negative deliveries are rejected and leave the record open
	_, err = svc.ClockOut(ctx, ClockOutRequest{ActivityID: rec.ID, PIN: testPIN, Deliveries: -1})
	assert.ErrorIs(t, err, generic.ErrInvalidDeliveries)
	_, err = svc.OpenActivity(ctx, "emp-1")
	require.NoError(t, err)

	_, err = svc.ClockOut(ctx, ClockOutRequest{ActivityID: rec.ID, PIN: "9999"})
	assert.ErrorIs(t, err, generic.ErrInvalidPIN)

	_, err = svc.ClockOut(ctx, ClockOutRequest{ActivityID: "unknown", PIN: testPIN})
	assert.ErrorIs(t, err, generic.ErrNotClockedIn)

	_, err = svc.ClockOut(ctx, ClockOutRequest{ActivityID: rec.ID, PIN: testPIN})
	require.NoError(t, err)
	_, err = svc.ClockOut(ctx, ClockOutRequest{ActivityID: rec.ID, PIN: testPIN})
	assert.ErrorIs(t, err, generic.ErrNotClockedIn)
}

func TestClockOut_SameInstantStillPositive(t *testing.T) {
	svc, _ := newTestService(t, store.NewMemory())
	ctx := context.Background()

	rec, err := svc.ClockIn(ctx, ClockInRequest{EmployeeID: "emp-1", StoreID: "store-a", PIN: testPIN})
	require.NoError(t, err)

	out, err := svc.ClockOut(ctx, ClockOutRequest{ActivityID: rec.ID, PIN: testPIN})
	require.NoError(t, err)
	assert.True(t, out.LogoutAt.After(out.LoginAt))
}

func TestList_InvalidRange(t *testing.T) {
	svc, _ := newTestService(t, store.NewMemory())
	_, err := svc.List(context.Background(), "store-a", generic.DateRange{
		Start: generic.NewDate(2024, time.June, 2), End: generic.NewDate(2024, time.June, 1),
	})
	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)
}
