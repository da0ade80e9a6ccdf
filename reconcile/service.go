package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/roster-engine/generic"
	"github.com/warp/roster-engine/roster"
)

// Service runs reconciliations against a repository and owns the approval
// workflow of the exceptions they raise.
type Service struct {
	repo generic.TxRepository
	opts Options
	log  logrus.FieldLogger
	now  func() time.Time
}

// NewService creates a reconciliation service.
func NewService(repo generic.TxRepository, opts Options, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{repo: repo, opts: opts, log: log, now: time.Now}
}

// WithClock replaces the time source (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Options returns the comparison options in use.
func (s *Service) Options() Options { return s.opts }

// Preview computes the candidates of store on date without writing anything,
// already-covered records included.
func (s *Service) Preview(ctx context.Context, storeID generic.StoreID, date generic.Date) ([]Candidate, error) {
	store, err := s.repo.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	shifts, err := roster.Expected(ctx, s.repo, store, generic.SingleDay(date))
	if err != nil {
		return nil, err
	}
	from, to := generic.SingleDay(date).Bounds(store.Location())
	activities, err := s.repo.ListActivities(ctx, store.ID, from, to)
	if err != nil {
		return nil, err
	}
	return Reconcile(store, date, shifts, activities, s.opts), nil
}

// Reconcile compares store's roster and activity on date and persists the new
// exceptions, returning their ids. Template occurrences of the date are
// materialized first so exceptions reference stable shift rows. The whole run
// is one transaction.
func (s *Service) Reconcile(ctx context.Context, storeID generic.StoreID, date generic.Date) ([]generic.ExceptionID, error) {
	var created []generic.ExceptionID
	skipped := 0

	err := s.repo.WithTx(ctx, func(repo generic.Repository) error {
		created, skipped = nil, 0

		store, err := repo.GetStore(ctx, storeID)
		if err != nil {
			return err
		}
		shifts, err := roster.Materialize(ctx, repo, store, date)
		if err != nil {
			return err
		}
		from, to := generic.SingleDay(date).Bounds(store.Location())
		activities, err := repo.ListActivities(ctx, store.ID, from, to)
		if err != nil {
			return fmt.Errorf("list activity: %w", err)
		}

		now := s.now()
		for _, c := range Reconcile(store, date, shifts, activities, s.opts) {
			covered, err := repo.ExceptionExists(ctx, c.EmployeeID, c.ShiftID, c.ActivityID)
			if err != nil {
				return err
			}
			if covered {
				skipped++
				continue
			}
			e := generic.Exception{
				ID:         generic.ExceptionID(generic.NewID()),
				StoreID:    c.StoreID,
				EmployeeID: c.EmployeeID,
				Date:       c.Date,
				ShiftID:    c.ShiftID,
				ActivityID: c.ActivityID,
				Details:    c.Details,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := repo.InsertException(ctx, e); err != nil {
				if errors.Is(err, generic.ErrDuplicateException) {
					skipped++
					continue
				}
				return err
			}
			created = append(created, e.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"store_id": storeID,
		"date":     date.String(),
		"created":  len(created),
		"covered":  skipped,
	}).Info("reconciliation complete")
	return created, nil
}
