/*
Package reconcile compares a store's rostered shifts with its clock activity
for one date and manages the exceptions that comparison raises.

ALGORITHM (per store, per date):
  1. Expected = concrete shifts dated on the date (templates expanded)
  2. Actual   = activity records whose login falls on the date (store tz)
  3. Per employee, pair shifts with activity (Matcher, nearest start first)
  4. Paired, activity closed, start or end off by more than Tolerance
       -> Incorrectly Clocked
     Paired, activity still open
       -> Generic Mismatch
  5. Unpaired activity -> No Shift
     Unpaired shift    -> Missed Shift

  Steps 1-5 are pure (Reconcile below). Service.Reconcile persists the
  candidates, skipping any whose shift or activity is already referenced by
  an exception of the same employee, approved or not. Re-running a date with
  no state change creates nothing.

EXCEPTION STATE MACHINE:
  Unapproved -> Approved (terminal). See workflow.go.

SEE ALSO:
  - matcher.go: Greedy and optimal pairing
  - service.go: Persisted reconciliation
  - workflow.go: Approval side effects
*/
package reconcile

import (
	"sort"
	"time"

	"github.com/warp/roster-engine/generic"
)

// Options tune the comparison.
type Options struct {
	// Tolerance is the largest start or end divergence that is not an
	// exception. Zero requires exact times.
	Tolerance time.Duration
	// Matcher pairs records of one employee; nil = GreedyMatcher.
	Matcher Matcher
}

func (o Options) matcher() Matcher {
	if o.Matcher == nil {
		return GreedyMatcher{}
	}
	return o.Matcher
}

// Candidate is an exception that reconciliation would raise.
type Candidate struct {
	StoreID    generic.StoreID
	EmployeeID generic.EmployeeID
	Date       generic.Date
	ShiftID    *generic.ShiftID
	ActivityID *generic.ActivityID
	Details    generic.Details
}

func (c Candidate) Reason() generic.Reason { return c.Details.Reason() }

// Reconcile computes the exception candidates of store on date. shifts and
// activities may contain records of other dates; they are filtered here.
// Candidates are ordered by employee, then by the time they concern.
func Reconcile(store generic.Store, date generic.Date, shifts []generic.ConcreteShift, activities []generic.ActivityRecord, opts Options) []Candidate {
	loc := store.Location()

	expected := make(map[generic.EmployeeID][]generic.ConcreteShift)
	for _, s := range shifts {
		if s.StoreID == store.ID && s.Date == date {
			expected[s.EmployeeID] = append(expected[s.EmployeeID], s)
		}
	}
	actual := make(map[generic.EmployeeID][]generic.ActivityRecord)
	for _, a := range activities {
		if a.StoreID == store.ID && generic.DateIn(a.LoginAt, loc) == date {
			actual[a.EmployeeID] = append(actual[a.EmployeeID], a)
		}
	}

	employees := make([]generic.EmployeeID, 0, len(expected)+len(actual))
	for e := range expected {
		employees = append(employees, e)
	}
	for e := range actual {
		if _, ok := expected[e]; !ok {
			employees = append(employees, e)
		}
	}
	sort.Slice(employees, func(i, j int) bool { return employees[i] < employees[j] })

	var out []Candidate
	for _, emp := range employees {
		out = append(out, reconcileEmployee(store.ID, emp, date, expected[emp], actual[emp], opts)...)
	}
	return out
}

func reconcileEmployee(store generic.StoreID, emp generic.EmployeeID, date generic.Date, shifts []generic.ConcreteShift, activities []generic.ActivityRecord, opts Options) []Candidate {
	var pairs []Pair
	if len(shifts) > 0 && len(activities) > 0 {
		pairs = opts.matcher().Match(shifts, activities)
	}

	pairedShift := make(map[generic.ShiftID]bool, len(pairs))
	pairedActivity := make(map[generic.ActivityID]bool, len(pairs))

	var out []Candidate
	for _, p := range pairs {
		pairedShift[p.Shift.ID] = true
		pairedActivity[p.Activity.ID] = true
		if d := compare(p.Shift, p.Activity, opts.Tolerance); d != nil {
			out = append(out, candidate(store, emp, date, &p.Shift, &p.Activity, d))
		}
	}
	for _, a := range activities {
		if !pairedActivity[a.ID] {
			out = append(out, candidate(store, emp, date, nil, &a, noShift(a)))
		}
	}
	for _, s := range shifts {
		if !pairedShift[s.ID] {
			out = append(out, candidate(store, emp, date, &s, nil, generic.MissedShiftDetails{
				ExpectedStart: s.Start,
				ExpectedEnd:   s.End,
				RoleID:        s.RoleID,
			}))
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return candidateTime(out[i]).Before(candidateTime(out[j])) })
	return out
}

// compare returns the details of the exception a pair raises, or nil.
func compare(s generic.ConcreteShift, a generic.ActivityRecord, tolerance time.Duration) generic.Details {
	if a.IsOpen() {
		return generic.GenericMismatchDetails{
			ExpectedStart: s.Start,
			ExpectedEnd:   s.End,
			ActualStart:   a.LoginAt,
			Note:          "activity still open",
		}
	}
	if within(s.Start, a.LoginAt, tolerance) && within(s.End, *a.LogoutAt, tolerance) {
		return nil
	}
	return generic.IncorrectlyClockedDetails{
		ExpectedStart: s.Start,
		ExpectedEnd:   s.End,
		ActualStart:   a.LoginAt,
		ActualEnd:     *a.LogoutAt,
		Length:        a.Length(),
	}
}

func within(expected, actual time.Time, tolerance time.Duration) bool {
	d := actual.Sub(expected)
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}

func noShift(a generic.ActivityRecord) generic.NoShiftDetails {
	return generic.NoShiftDetails{
		ActualStart:   a.LoginAt,
		ActualEnd:     a.LogoutAt,
		Length:        a.Length(),
		Deliveries:    a.Deliveries,
		PublicHoliday: a.PublicHoliday,
	}
}

func candidate(store generic.StoreID, emp generic.EmployeeID, date generic.Date, s *generic.ConcreteShift, a *generic.ActivityRecord, d generic.Details) Candidate {
	c := Candidate{StoreID: store, EmployeeID: emp, Date: date, Details: d}
	if s != nil {
		id := s.ID
		c.ShiftID = &id
	}
	if a != nil {
		id := a.ID
		c.ActivityID = &id
	}
	return c
}

func candidateTime(c Candidate) time.Time {
	switch d := c.Details.(type) {
	case generic.NoShiftDetails:
		return d.ActualStart
	case generic.MissedShiftDetails:
		return d.ExpectedStart
	case generic.IncorrectlyClockedDetails:
		return d.ExpectedStart
	case generic.GenericMismatchDetails:
		return d.ExpectedStart
	}
	return time.Time{}
}
