/*
Package storetest holds the behavioural contract every generic.TxRepository
must satisfy. Implementations run it from their own tests:

	func TestMemoryRepository(t *testing.T) {
	    suite.Run(t, &storetest.RepositorySuite{
	        NewRepo: func(t *testing.T) generic.TxRepository { return store.NewMemory() },
	    })
	}
*/
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/warp/roster-engine/generic"
)

// RepositorySuite exercises a repository created fresh for every test.
type RepositorySuite struct {
	suite.Suite
	NewRepo func(t *testing.T) generic.TxRepository

	ctx  context.Context
	repo generic.TxRepository
}

var (
	day   = generic.NewDate(2024, time.June, 10)
	clock = time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)
)

// SetupTest runs before each test
func (s *RepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = s.NewRepo(s.T())

	s.Require().NoError(s.repo.SaveStore(s.ctx, generic.Store{
		ID: "S", Name: "Store S", CycleAnchor: generic.NewDate(2024, time.January, 1), CycleLengthWeeks: 4,
		Geofence: generic.Geofence{Lat: -33.86, Lng: 151.2, RadiusMeters: 150}, Timezone: "Australia/Sydney",
	}))
	s.Require().NoError(s.repo.SaveStore(s.ctx, generic.Store{
		ID: "T", Name: "Store T", CycleAnchor: generic.NewDate(2024, time.January, 1), CycleLengthWeeks: 2,
	}))
	s.Require().NoError(s.repo.SaveRole(s.ctx, generic.Role{ID: "driver", StoreID: "S", Name: "Driver", Colour: "#ff0000"}))
	s.Require().NoError(s.repo.SaveEmployee(s.ctx, generic.Employee{
		ID: "alex", Name: "Alex", Active: true, Stores: []generic.StoreID{"S", "T"}, Roles: []generic.RoleID{"driver"},
	}))
	s.Require().NoError(s.repo.SaveEmployee(s.ctx, generic.Employee{
		ID: "sam", Name: "Sam", Active: true, Resigned: true, Stores: []generic.StoreID{"S"},
	}))
}

func (s *RepositorySuite) shift(id string, emp generic.EmployeeID, d generic.Date, tpl *generic.TemplateID) generic.ConcreteShift {
	source := generic.ManualSource()
	if tpl != nil {
		source = generic.TemplateSource(*tpl)
	}
	return generic.ConcreteShift{
		ID: generic.ShiftID(id), StoreID: "S", EmployeeID: emp, Date: d,
		Start: d.At(generic.NewClockTime(9, 0), time.UTC), End: d.At(generic.NewClockTime(17, 0), time.UTC),
		Source: source, CreatedAt: clock,
	}
}

func (s *RepositorySuite) exception(id string, emp generic.EmployeeID, shift *generic.ShiftID, act *generic.ActivityID, created time.Time) generic.Exception {
	return generic.Exception{
		ID: generic.ExceptionID(id), StoreID: "S", EmployeeID: emp, Date: day,
		ShiftID: shift, ActivityID: act,
		Details:   generic.MissedShiftDetails{ExpectedStart: clock, ExpectedEnd: clock.Add(8 * time.Hour)},
		CreatedAt: created, UpdatedAt: created,
	}
}

// =============================================================================
// DIRECTORY
// =============================================================================

func (s *RepositorySuite) TestStores() {
	st, err := s.repo.GetStore(s.ctx, "S")
	s.Require().NoError(err)
	s.Equal("Store S", st.Name)
	s.Equal(generic.NewDate(2024, time.January, 1), st.CycleAnchor)
	s.Equal(4, st.CycleLengthWeeks)
	s.Equal(150.0, st.Geofence.RadiusMeters)
	s.Equal("Australia/Sydney", st.Timezone)

	all, err := s.repo.ListStores(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 2)

	_, err = s.repo.GetStore(s.ctx, "missing")
	s.ErrorIs(err, generic.ErrNotFound)
}

func (s *RepositorySuite) TestEmployeesAndRoles() {
	e, err := s.repo.GetEmployee(s.ctx, "alex")
	s.Require().NoError(err)
	s.ElementsMatch([]generic.StoreID{"S", "T"}, e.Stores)
	s.Equal([]generic.RoleID{"driver"}, e.Roles)
	s.True(e.CanWorkAt("T"))

	// GIVEN: Alex leaves store T
	e.Stores = []generic.StoreID{"S"}
	s.Require().NoError(s.repo.SaveEmployee(s.ctx, e))

	inT, err := s.repo.ListEmployees(s.ctx, "T")
	s.Require().NoError(err)
	s.Empty(inT)

	inS, err := s.repo.ListEmployees(s.ctx, "S")
	s.Require().NoError(err)
	s.Len(inS, 2)

	roles, err := s.repo.ListRoles(s.ctx, "S")
	s.Require().NoError(err)
	s.Require().Len(roles, 1)
	s.Equal("#ff0000", roles[0].Colour)

	_, err = s.repo.GetRole(s.ctx, "missing")
	s.ErrorIs(err, generic.ErrNotFound)
	_, err = s.repo.GetEmployee(s.ctx, "missing")
	s.ErrorIs(err, generic.ErrNotFound)
}

// =============================================================================
// ROSTER
// =============================================================================

func (s *RepositorySuite) TestShifts() {
	role := generic.RoleID("driver")
	sh := s.shift("s1", "alex", day, nil)
	sh.RoleID = &role
	s.Require().NoError(s.repo.InsertShift(s.ctx, sh))

	got, err := s.repo.GetShift(s.ctx, "s1")
	s.Require().NoError(err)
	s.True(got.Start.Equal(sh.Start))
	s.True(got.End.Equal(sh.End))
	s.Equal(day, got.Date)
	s.True(got.Source.IsManual())
	s.Require().NotNil(got.RoleID)

	// duplicate manual ids are rejected
	err = s.repo.InsertShift(s.ctx, sh)
	s.ErrorIs(err, generic.ErrInvalidInput)

	// update
	sh.End = sh.End.Add(time.Hour)
	s.Require().NoError(s.repo.UpdateShift(s.ctx, sh))
	got, err = s.repo.GetShift(s.ctx, "s1")
	s.Require().NoError(err)
	s.True(got.End.Equal(sh.End))

	// ranges
	inRange, err := s.repo.ListShifts(s.ctx, "S", generic.DateRange{Start: day.AddDays(-1), End: day})
	s.Require().NoError(err)
	s.Len(inRange, 1)
	outOfRange, err := s.repo.ListShifts(s.ctx, "S", generic.SingleDay(day.AddDays(1)))
	s.Require().NoError(err)
	s.Empty(outOfRange)
	byEmployee, err := s.repo.ListEmployeeShifts(s.ctx, "alex", generic.SingleDay(day))
	s.Require().NoError(err)
	s.Len(byEmployee, 1)

	// delete
	s.Require().NoError(s.repo.DeleteShift(s.ctx, "s1"))
	s.ErrorIs(s.repo.DeleteShift(s.ctx, "s1"), generic.ErrNotFound)
	s.ErrorIs(s.repo.UpdateShift(s.ctx, sh), generic.ErrNotFound)
	_, err = s.repo.GetShift(s.ctx, "s1")
	s.ErrorIs(err, generic.ErrNotFound)
}

func (s *RepositorySuite) TestOccurrenceMaterializedOnce() {
	tpl := generic.TemplateID("tpl-a")
	occ := s.shift(string(generic.OccurrenceShiftID(tpl, day)), "alex", day, &tpl)

	s.Require().NoError(s.repo.InsertShift(s.ctx, occ))
	s.Require().NoError(s.repo.InsertShift(s.ctx, occ), "a second materialization is ignored")

	shifts, err := s.repo.ListShifts(s.ctx, "S", generic.SingleDay(day))
	s.Require().NoError(err)
	s.Require().Len(shifts, 1)
	s.Require().NotNil(shifts[0].Source.TemplateID)
	s.Equal(tpl, *shifts[0].Source.TemplateID)
}

func (s *RepositorySuite) TestTemplatesAndExclusions() {
	role := generic.RoleID("driver")
	comment := "close"
	for _, t := range []generic.Template{
		{ID: "tpl-alex", StoreID: "S", EmployeeID: "alex", StartWeekday: 4, EndWeekday: 5,
			StartTime: generic.NewClockTime(22, 0), EndTime: generic.NewClockTime(2, 0),
			ActiveWeeks: []int{1, 3}, RoleID: &role, Comment: &comment, CreatedAt: clock, UpdatedAt: clock},
		{ID: "tpl-sam", StoreID: "S", EmployeeID: "sam", StartWeekday: 0, EndWeekday: 0,
			StartTime: generic.NewClockTime(9, 0), EndTime: generic.NewClockTime(17, 0),
			ActiveWeeks: []int{2}, CreatedAt: clock, UpdatedAt: clock},
	} {
		s.Require().NoError(s.repo.SaveTemplate(s.ctx, t))
	}

	got, err := s.repo.GetTemplate(s.ctx, "tpl-alex")
	s.Require().NoError(err)
	s.Equal([]int{1, 3}, got.ActiveWeeks)
	s.Equal(generic.NewClockTime(2, 0), got.EndTime)
	s.Require().NotNil(got.Comment)
	s.Equal("close", *got.Comment)

	all, err := s.repo.ListTemplates(s.ctx, "S", false)
	s.Require().NoError(err)
	s.Len(all, 2)
	active, err := s.repo.ListTemplates(s.ctx, "S", true)
	s.Require().NoError(err)
	s.Require().Len(active, 1, "resigned employees' templates are inactive")
	s.Equal(generic.TemplateID("tpl-alex"), active[0].ID)

	key := generic.OccurrenceKey{TemplateID: "tpl-alex", Date: generic.NewDate(2024, time.January, 5)}
	s.Require().NoError(s.repo.ExcludeOccurrence(s.ctx, key))
	s.Require().NoError(s.repo.ExcludeOccurrence(s.ctx, key))

	excluded, err := s.repo.ListExclusions(s.ctx, "S", generic.DateRange{Start: key.Date, End: key.Date.AddDays(7)})
	s.Require().NoError(err)
	s.Equal(map[generic.OccurrenceKey]bool{key: true}, excluded)

	other, err := s.repo.ListExclusions(s.ctx, "T", generic.SingleDay(key.Date))
	s.Require().NoError(err)
	s.Empty(other)

	s.Require().NoError(s.repo.DeleteTemplate(s.ctx, "tpl-alex"))
	s.ErrorIs(s.repo.DeleteTemplate(s.ctx, "tpl-alex"), generic.ErrNotFound)
	_, err = s.repo.GetTemplate(s.ctx, "tpl-alex")
	s.ErrorIs(err, generic.ErrNotFound)
}

// =============================================================================
// ACTIVITY
// =============================================================================

func (s *RepositorySuite) TestOneOpenActivityPerEmployee() {
	open := generic.ActivityRecord{ID: "a1", StoreID: "S", EmployeeID: "alex", LoginAt: clock, CreatedAt: clock}
	s.Require().NoError(s.repo.InsertActivity(s.ctx, open))

	// WHEN: a second open record at another store
	second := open
	second.ID, second.StoreID = "a2", "T"
	err := s.repo.InsertActivity(s.ctx, second)

	// THEN: rejected, naming the open record
	s.Require().ErrorIs(err, generic.ErrAlreadyClockedIn)
	var already *generic.AlreadyClockedInError
	s.Require().True(errors.As(err, &already))
	s.Equal(generic.ActivityID("a1"), already.ActivityID)

	// a closed historical record is fine
	logout := clock.Add(-time.Hour)
	closed := generic.ActivityRecord{ID: "a0", StoreID: "S", EmployeeID: "alex",
		LoginAt: clock.Add(-4 * time.Hour), LogoutAt: &logout, CreatedAt: clock}
	s.NoError(s.repo.InsertActivity(s.ctx, closed))

	got, err := s.repo.GetOpenActivity(s.ctx, "alex")
	s.Require().NoError(err)
	s.Equal(generic.ActivityID("a1"), got.ID)
}

func (s *RepositorySuite) TestCloseActivity() {
	role := generic.RoleID("driver")
	s.Require().NoError(s.repo.InsertActivity(s.ctx, generic.ActivityRecord{
		ID: "a1", StoreID: "S", EmployeeID: "alex", LoginAt: clock, CreatedAt: clock,
		LoginLocation: generic.Geolocation{Lat: 1.5, Lng: 2.5}, RoleID: &role,
	}))

	out := clock.Add(8 * time.Hour)
	s.Require().NoError(s.repo.CloseActivity(s.ctx, "a1", out, generic.Geolocation{Lat: 3, Lng: 4}, 9))
	s.ErrorIs(s.repo.CloseActivity(s.ctx, "a1", out, generic.Geolocation{}, 1), generic.ErrNotClockedIn)
	s.ErrorIs(s.repo.CloseActivity(s.ctx, "missing", out, generic.Geolocation{}, 1), generic.ErrNotClockedIn)

	got, err := s.repo.GetActivity(s.ctx, "a1")
	s.Require().NoError(err)
	s.False(got.IsOpen())
	s.True(got.LogoutAt.Equal(out))
	s.Equal(9, got.Deliveries)
	s.Equal(1.5, got.LoginLocation.Lat)
	s.Require().NotNil(got.LogoutLocation)
	s.Equal(4.0, got.LogoutLocation.Lng)
	s.Equal("8.00", got.Length().StringFixed(2))

	_, err = s.repo.GetOpenActivity(s.ctx, "alex")
	s.ErrorIs(err, generic.ErrNotFound)

	// the employee may clock in again
	s.NoError(s.repo.InsertActivity(s.ctx, generic.ActivityRecord{
		ID: "a2", StoreID: "S", EmployeeID: "alex", LoginAt: out.Add(time.Hour), CreatedAt: out,
	}))
}

func (s *RepositorySuite) TestConcurrentClose() {
	s.Require().NoError(s.repo.InsertActivity(s.ctx, generic.ActivityRecord{
		ID: "a1", StoreID: "S", EmployeeID: "alex", LoginAt: clock, CreatedAt: clock,
	}))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []error
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := s.repo.CloseActivity(s.ctx, "a1", clock.Add(time.Duration(n+1)*time.Hour), generic.Geolocation{}, n)
			mu.Lock()
			results = append(results, err)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range results {
		if err == nil {
			ok++
		} else {
			s.ErrorIs(err, generic.ErrNotClockedIn)
		}
	}
	s.Equal(1, ok)
}

func (s *RepositorySuite) TestReviseAndListActivities() {
	for i, id := range []generic.ActivityID{"a1", "a2", "a3"} {
		login := clock.Add(time.Duration(i*24) * time.Hour)
		logout := login.Add(4 * time.Hour)
		s.Require().NoError(s.repo.InsertActivity(s.ctx, generic.ActivityRecord{
			ID: id, StoreID: "S", EmployeeID: "alex", LoginAt: login, LogoutAt: &logout, CreatedAt: login,
		}))
	}

	got, err := s.repo.ListActivities(s.ctx, "S", clock, clock.Add(48*time.Hour))
	s.Require().NoError(err)
	s.Require().Len(got, 2, "half-open window")
	s.Equal(generic.ActivityID("a1"), got[0].ID)

	role := generic.RoleID("driver")
	login, logout := clock.Add(-time.Hour), clock.Add(5*time.Hour)
	s.Require().NoError(s.repo.ReviseActivity(s.ctx, "a1", login, logout, &role))
	a, err := s.repo.GetActivity(s.ctx, "a1")
	s.Require().NoError(err)
	s.True(a.LoginAt.Equal(login))
	s.True(a.LogoutAt.Equal(logout))
	s.Require().NotNil(a.RoleID)

	s.ErrorIs(s.repo.ReviseActivity(s.ctx, "missing", login, logout, nil), generic.ErrNotFound)
}

// =============================================================================
// EXCEPTIONS
// =============================================================================

func (s *RepositorySuite) TestExceptionUniqueness() {
	shiftID := generic.ShiftID("s1")
	actID := generic.ActivityID("a1")
	s.Require().NoError(s.repo.InsertException(s.ctx, s.exception("e1", "alex", &shiftID, nil, clock)))

	exists, err := s.repo.ExceptionExists(s.ctx, "alex", &shiftID, &actID)
	s.Require().NoError(err)
	s.True(exists)
	exists, err = s.repo.ExceptionExists(s.ctx, "sam", &shiftID, nil)
	s.Require().NoError(err)
	s.False(exists)
	exists, err = s.repo.ExceptionExists(s.ctx, "alex", nil, &actID)
	s.Require().NoError(err)
	s.False(exists)

	err = s.repo.InsertException(s.ctx, s.exception("e2", "alex", &shiftID, nil, clock))
	s.ErrorIs(err, generic.ErrDuplicateException)

	// the same shift for another employee is a separate exception
	s.NoError(s.repo.InsertException(s.ctx, s.exception("e3", "sam", &shiftID, nil, clock)))
}

func (s *RepositorySuite) TestExceptionDetailsRoundTrip() {
	end := clock.Add(4 * time.Hour)
	actID := generic.ActivityID("a1")
	e := s.exception("e1", "alex", nil, &actID, clock)
	e.Details = generic.NoShiftDetails{
		ActualStart: clock, ActualEnd: &end, Length: generic.NewHours(4), Deliveries: 3, PublicHoliday: true,
	}
	s.Require().NoError(s.repo.InsertException(s.ctx, e))

	got, err := s.repo.GetException(s.ctx, "e1")
	s.Require().NoError(err)
	s.Equal(generic.ReasonNoShift, got.Reason())
	d, ok := got.Details.(generic.NoShiftDetails)
	s.Require().True(ok)
	s.Equal(3, d.Deliveries)
	s.True(d.PublicHoliday)
	s.Equal("4.00", d.Length.StringFixed(2))
	s.Nil(got.ShiftID)
	s.Require().NotNil(got.ActivityID)
	s.Equal(actID, *got.ActivityID)

	_, err = s.repo.GetException(s.ctx, "missing")
	s.ErrorIs(err, generic.ErrNotFound)
}

func (s *RepositorySuite) TestApproveException() {
	shiftID := generic.ShiftID("s1")
	s.Require().NoError(s.repo.InsertException(s.ctx, s.exception("e1", "alex", &shiftID, nil, clock)))

	login := clock.Add(5 * time.Minute)
	at := clock.Add(24 * time.Hour)
	s.Require().NoError(s.repo.ApproveException(s.ctx, "e1", &generic.ApprovalEdits{Login: &login}, "boss", at))

	got, err := s.repo.GetException(s.ctx, "e1")
	s.Require().NoError(err)
	s.True(got.Approved)
	s.Equal("boss", got.ApprovedBy)
	s.Require().NotNil(got.ApprovedAt)
	s.True(got.ApprovedAt.Equal(at))
	s.Require().NotNil(got.Edits)
	s.True(got.Edits.Login.Equal(login))

	s.ErrorIs(s.repo.ApproveException(s.ctx, "e1", nil, "boss", at), generic.ErrAlreadyApproved)
	s.ErrorIs(s.repo.ApproveException(s.ctx, "missing", nil, "boss", at), generic.ErrNotFound)
}

func (s *RepositorySuite) TestListExceptionsPaging() {
	for i := 0; i < 30; i++ {
		shiftID := generic.ShiftID(fmt.Sprintf("s%02d", i))
		s.Require().NoError(s.repo.InsertException(s.ctx,
			s.exception(fmt.Sprintf("e%02d", i), "alex", &shiftID, nil, clock.Add(time.Duration(i)*time.Minute))))
	}

	page, err := s.repo.ListExceptions(s.ctx, generic.ExceptionFilter{StoreID: "S"})
	s.Require().NoError(err)
	s.Equal(30, page.Total)
	s.Len(page.Items, generic.DefaultPageLimit)
	s.True(page.Items[0].CreatedAt.After(page.Items[1].CreatedAt), "newest first")

	page, err = s.repo.ListExceptions(s.ctx, generic.ExceptionFilter{StoreID: "S", Offset: 25, Limit: 10})
	s.Require().NoError(err)
	s.Len(page.Items, 5)
	s.Equal(25, page.Offset)

	page, err = s.repo.ListExceptions(s.ctx, generic.ExceptionFilter{StoreID: "S", Offset: 40})
	s.Require().NoError(err)
	s.Empty(page.Items)
	s.Equal(30, page.Total)

	page, err = s.repo.ListExceptions(s.ctx, generic.ExceptionFilter{StoreID: "S", Limit: 1000})
	s.Require().NoError(err)
	s.Equal(generic.MaxPageLimit, page.Limit)

	page, err = s.repo.ListExceptions(s.ctx, generic.ExceptionFilter{StoreID: "T"})
	s.Require().NoError(err)
	s.Zero(page.Total)
}

// =============================================================================
// HOLIDAYS AND RUNS
// =============================================================================

func (s *RepositorySuite) TestHolidays() {
	s.Require().NoError(s.repo.SaveHoliday(s.ctx, generic.Holiday{
		ID: "xmas", StoreID: "S", Date: generic.NewDate(2023, time.December, 25), Name: "Christmas", Recurring: true,
	}))
	s.Require().NoError(s.repo.SaveHoliday(s.ctx, generic.Holiday{
		ID: "once", StoreID: "S", Date: generic.NewDate(2024, time.March, 1), Name: "Opening day",
	}))

	tests := []struct {
		store generic.StoreID
		date  generic.Date
		want  bool
	}{
		{"S", generic.NewDate(2023, time.December, 25), true},
		{"S", generic.NewDate(2026, time.December, 25), true},
		{"S", generic.NewDate(2024, time.March, 1), true},
		{"S", generic.NewDate(2025, time.March, 1), false},
		{"S", generic.NewDate(2024, time.December, 24), false},
		{"T", generic.NewDate(2024, time.December, 25), false},
	}
	for _, tt := range tests {
		got, err := s.repo.IsHoliday(s.ctx, tt.store, tt.date)
		s.Require().NoError(err)
		s.Equal(tt.want, got, "%s %s", tt.store, tt.date)
	}

	all, err := s.repo.ListHolidays(s.ctx, "S")
	s.Require().NoError(err)
	s.Len(all, 2)

	s.Require().NoError(s.repo.DeleteHoliday(s.ctx, "once"))
	s.ErrorIs(s.repo.DeleteHoliday(s.ctx, "once"), generic.ErrNotFound)
}

func (s *RepositorySuite) TestRuns() {
	run := generic.ReconciliationRun{ID: "r1", StoreID: "S", Date: day, Status: generic.RunRunning, StartedAt: clock}
	s.Require().NoError(s.repo.SaveRun(s.ctx, run))

	done, err := s.repo.IsReconciled(s.ctx, "S", day)
	s.Require().NoError(err)
	s.False(done, "running is not reconciled")

	completed := clock.Add(time.Minute)
	run.Status, run.ExceptionsCreated, run.CompletedAt = generic.RunCompleted, 3, &completed
	s.Require().NoError(s.repo.SaveRun(s.ctx, run))

	done, err = s.repo.IsReconciled(s.ctx, "S", day)
	s.Require().NoError(err)
	s.True(done)

	runs, err := s.repo.ListRuns(s.ctx, generic.RunCompleted)
	s.Require().NoError(err)
	s.Require().Len(runs, 1)
	s.Equal(3, runs[0].ExceptionsCreated)

	runs, err = s.repo.ListRuns(s.ctx, generic.RunFailed)
	s.Require().NoError(err)
	s.Empty(runs)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func (s *RepositorySuite) TestWithTxRollsBack() {
	boom := errors.New("boom")
	err := s.repo.WithTx(s.ctx, func(r generic.Repository) error {
		if err := r.InsertShift(s.ctx, s.shift("s-tx", "alex", day, nil)); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	_, err = s.repo.GetShift(s.ctx, "s-tx")
	s.ErrorIs(err, generic.ErrNotFound)

	s.Require().NoError(s.repo.WithTx(s.ctx, func(r generic.Repository) error {
		return r.InsertShift(s.ctx, s.shift("s-tx", "alex", day, nil))
	}))
	_, err = s.repo.GetShift(s.ctx, "s-tx")
	s.NoError(err)
}
