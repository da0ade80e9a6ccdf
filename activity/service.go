/*
Package activity is the activity log: the actual side of reconciliation.

PURPOSE:
  Records clock-in / clock-out intervals per employee and store.

CLOCKED-IN MUTUAL EXCLUSION:
  An employee has at most one open record, across all stores. The check and
  the insert are one atomic step in the repository (a partial unique index in
  SQLite), so of two racing clock-ins exactly one succeeds and the other gets
  ErrAlreadyClockedIn. No client-held "clocked in" flag is trusted.

  Clock-out is a compare-and-set on logout_at IS NULL: the second of two
  racing clock-outs gets ErrNotClockedIn.

COLLABORATORS:
  - PINVerifier authorizes clock actions (nil = no verification)
  - generic.HolidayCalendar stamps is-public-holiday at clock-in
  - Geofences are not enforced; a clock action outside the store's fence is
    logged at Warn for the location validator to act on

SEE ALSO:
  - timepunch.go: Spreadsheet import of historical punches
  - reconcile/: Consumes ListActivities
*/
package activity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/roster-engine/generic"
)

// Service implements clock-in/out and activity queries.
type Service struct {
	repo     generic.TxRepository
	pins     PINVerifier
	holidays generic.HolidayCalendar
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewService creates an activity service. pins may be nil.
func NewService(repo generic.TxRepository, pins PINVerifier, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{repo: repo, pins: pins, holidays: repo, log: log, now: time.Now}
}

// WithClock replaces the time source (tests, scenarios).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ClockInRequest identifies who clocks in where.
type ClockInRequest struct {
	EmployeeID generic.EmployeeID
	StoreID    generic.StoreID
	PIN        string
	Location   generic.Geolocation
	RoleID     *generic.RoleID
}

// ClockIn opens a new activity record.
func (s *Service) ClockIn(ctx context.Context, req ClockInRequest) (generic.ActivityRecord, error) {
	employee, err := s.repo.GetEmployee(ctx, req.EmployeeID)
	if err != nil {
		return generic.ActivityRecord{}, err
	}
	store, err := s.repo.GetStore(ctx, req.StoreID)
	if err != nil {
		return generic.ActivityRecord{}, err
	}
	if !employee.CanWorkAt(store.ID) {
		return generic.ActivityRecord{}, fmt.Errorf("employee %s at store %s: %w", employee.ID, store.ID, generic.ErrNotMember)
	}
	if err := s.verifyPIN(ctx, employee, req.PIN); err != nil {
		return generic.ActivityRecord{}, err
	}
	if req.RoleID != nil {
		role, err := s.repo.GetRole(ctx, *req.RoleID)
		if err != nil {
			return generic.ActivityRecord{}, err
		}
		if role.StoreID != store.ID {
			return generic.ActivityRecord{}, generic.Invalid(generic.ErrInvalidInput, "role_id", "role belongs to another store")
		}
	}

	now := s.now()
	holiday, err := s.holidays.IsHoliday(ctx, store.ID, generic.DateIn(now, store.Location()))
	if err != nil {
		return generic.ActivityRecord{}, fmt.Errorf("holiday lookup: %w", err)
	}

	record := generic.ActivityRecord{
		ID:            generic.ActivityID(generic.NewID()),
		StoreID:       store.ID,
		EmployeeID:    employee.ID,
		LoginAt:       now,
		PublicHoliday: holiday,
		LoginLocation: req.Location,
		RoleID:        req.RoleID,
		CreatedAt:     now,
	}
	if err := s.repo.InsertActivity(ctx, record); err != nil {
		return generic.ActivityRecord{}, err
	}

	entry := s.log.WithFields(logrus.Fields{
		"activity_id": record.ID,
		"store_id":    store.ID,
		"employee_id": employee.ID,
	})
	if !WithinGeofence(store.Geofence, req.Location) {
		entry.WithField("distance_m", int(DistanceMeters(generic.Geolocation{Lat: store.Geofence.Lat, Lng: store.Geofence.Lng}, req.Location))).
			Warn("clock-in outside store geofence")
	}
	entry.Info("clocked in")
	return record, nil
}

// ClockOutRequest closes an open record.
type ClockOutRequest struct {
	ActivityID generic.ActivityID
	PIN        string
	Location   generic.Geolocation
	Deliveries int
}

// ClockOut closes the record. ErrInvalidDeliveries is checked before the
// record is looked at; ErrNotClockedIn if the record is absent or closed.
func (s *Service) ClockOut(ctx context.Context, req ClockOutRequest) (generic.ActivityRecord, error) {
	if req.Deliveries < 0 {
		return generic.ActivityRecord{}, generic.Invalid(generic.ErrInvalidDeliveries, "deliveries", "must be >= 0")
	}

	var record generic.ActivityRecord
	err := s.repo.WithTx(ctx, func(repo generic.Repository) error {
		current, err := repo.GetActivity(ctx, req.ActivityID)
		if errors.Is(err, generic.ErrNotFound) {
			return generic.ErrNotClockedIn
		}
		if err != nil {
			return err
		}
		if !current.IsOpen() {
			return generic.ErrNotClockedIn
		}
		if s.pins != nil {
			employee, err := repo.GetEmployee(ctx, current.EmployeeID)
			if err != nil {
				return err
			}
			if err := s.verifyPIN(ctx, employee, req.PIN); err != nil {
				return err
			}
		}

		logout := s.now()
		if !logout.After(current.LoginAt) {
			logout = current.LoginAt.Add(time.Second)
		}
		if err := repo.CloseActivity(ctx, current.ID, logout, req.Location, req.Deliveries); err != nil {
			return err
		}
		record, err = repo.GetActivity(ctx, current.ID)
		return err
	})
	if err != nil {
		return generic.ActivityRecord{}, err
	}

	s.log.WithFields(logrus.Fields{
		"activity_id": record.ID,
		"store_id":    record.StoreID,
		"employee_id": record.EmployeeID,
		"deliveries":  record.Deliveries,
		"hours":       record.Length().String(),
	}).Info("clocked out")
	return record, nil
}

// OpenActivity returns the employee's open record, or ErrNotClockedIn.
func (s *Service) OpenActivity(ctx context.Context, employee generic.EmployeeID) (generic.ActivityRecord, error) {
	a, err := s.repo.GetOpenActivity(ctx, employee)
	if errors.Is(err, generic.ErrNotFound) {
		return a, generic.ErrNotClockedIn
	}
	return a, err
}

// List returns the store's records whose login falls on a date in r, in the
// store's timezone.
func (s *Service) List(ctx context.Context, storeID generic.StoreID, r generic.DateRange) ([]generic.ActivityRecord, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	store, err := s.repo.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	from, to := r.Bounds(store.Location())
	return s.repo.ListActivities(ctx, storeID, from, to)
}

func (s *Service) verifyPIN(ctx context.Context, employee generic.Employee, pin string) error {
	if s.pins == nil {
		return nil
	}
	if err := s.pins.Verify(ctx, employee, pin); err != nil {
		s.log.WithField("employee_id", employee.ID).Warn("PIN verification failed")
		return err
	}
	return nil
}
