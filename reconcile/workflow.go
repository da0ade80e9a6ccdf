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

// =============================================================================
// APPROVAL WORKFLOW
// =============================================================================
//
// Approving applies the exception's resolution and flips it to Approved in one
// transaction; either both happen or neither does.
//
//   No Shift            -> new manual shift from the activity's times
//   Missed Shift        -> the shift is removed from the roster
//   Incorrectly Clocked -> activity times rewritten to the shift's times
//   Generic Mismatch    -> same as Incorrectly Clocked (closes an open record)
//
// Manager edits replace the values written. For Missed Shift nothing is
// written from them; they are only recorded on the exception.
//
// The flip is a compare-and-set on approved = false: of two concurrent
// approvals exactly one succeeds, the other gets ErrAlreadyApproved and its
// side effect is rolled back with its transaction.

// Approve resolves the exception with the recorded values.
func (s *Service) Approve(ctx context.Context, id generic.ExceptionID, by string) (generic.Exception, error) {
	return s.approve(ctx, id, nil, by)
}

// ApproveWithEdits resolves the exception with manager-supplied values.
// ErrInvalidTimeRange if both times are given and logout is not after login.
func (s *Service) ApproveWithEdits(ctx context.Context, id generic.ExceptionID, edits generic.ApprovalEdits, by string) (generic.Exception, error) {
	if err := edits.Validate(); err != nil {
		return generic.Exception{}, err
	}
	if edits.IsEmpty() {
		return s.approve(ctx, id, nil, by)
	}
	return s.approve(ctx, id, &edits, by)
}

func (s *Service) approve(ctx context.Context, id generic.ExceptionID, edits *generic.ApprovalEdits, by string) (generic.Exception, error) {
	var approved generic.Exception
	err := s.repo.WithTx(ctx, func(repo generic.Repository) error {
		e, err := repo.GetException(ctx, id)
		if err != nil {
			return err
		}
		if e.Approved {
			return generic.ErrAlreadyApproved
		}

		now := s.now()
		if err := s.resolve(ctx, repo, e, edits, now); err != nil {
			return err
		}
		if err := repo.ApproveException(ctx, id, edits, by, now); err != nil {
			return err
		}
		approved, err = repo.GetException(ctx, id)
		return err
	})
	if err != nil {
		return generic.Exception{}, err
	}

	s.log.WithFields(logrus.Fields{
		"exception_id": id,
		"store_id":     approved.StoreID,
		"employee_id":  approved.EmployeeID,
		"reason":       approved.Reason(),
		"edited":       edits != nil,
	}).Info("exception approved")
	return approved, nil
}

func (s *Service) resolve(ctx context.Context, repo generic.Repository, e generic.Exception, edits *generic.ApprovalEdits, now time.Time) error {
	if edits == nil {
		edits = &generic.ApprovalEdits{}
	}

	switch d := e.Details.(type) {
	case generic.NoShiftDetails:
		return s.createShiftFromActivity(ctx, repo, e, *edits, now)

	case generic.MissedShiftDetails:
		if e.ShiftID == nil {
			return fmt.Errorf("missed shift exception %s has no shift", e.ID)
		}
		shift, _, err := roster.Resolve(ctx, repo, *e.ShiftID)
		if errors.Is(err, generic.ErrNotFound) {
			return nil // already gone from the roster
		}
		if err != nil {
			return err
		}
		return roster.Remove(ctx, repo, shift)

	case generic.IncorrectlyClockedDetails:
		return s.reviseActivity(ctx, repo, e, d.ExpectedStart, d.ExpectedEnd, *edits)

	case generic.GenericMismatchDetails:
		return s.reviseActivity(ctx, repo, e, d.ExpectedStart, d.ExpectedEnd, *edits)
	}
	return fmt.Errorf("exception %s: unknown reason %q", e.ID, e.Reason())
}

func (s *Service) createShiftFromActivity(ctx context.Context, repo generic.Repository, e generic.Exception, edits generic.ApprovalEdits, now time.Time) error {
	if e.ActivityID == nil {
		return fmt.Errorf("no shift exception %s has no activity", e.ID)
	}
	a, err := repo.GetActivity(ctx, *e.ActivityID)
	if err != nil {
		return err
	}
	store, err := repo.GetStore(ctx, e.StoreID)
	if err != nil {
		return err
	}

	login := a.LoginAt
	if edits.Login != nil {
		login = *edits.Login
	}
	logout := a.LogoutAt
	if edits.Logout != nil {
		logout = edits.Logout
	}
	if logout == nil {
		return generic.Invalid(generic.ErrInvalidTimeRange, "logout", "activity is still open; supply a logout time")
	}
	if !logout.After(login) {
		return generic.Invalid(generic.ErrInvalidTimeRange, "logout", "must be after login")
	}
	role := a.RoleID
	if edits.RoleID != nil {
		role = edits.RoleID
	}

	return repo.InsertShift(ctx, generic.ConcreteShift{
		ID:         generic.ShiftID(generic.NewID()),
		StoreID:    e.StoreID,
		EmployeeID: e.EmployeeID,
		Date:       generic.DateIn(login, store.Location()),
		Start:      login,
		End:        *logout,
		RoleID:     role,
		Source:     generic.ManualSource(),
		CreatedAt:  now,
	})
}

// reviseActivity rewrites the activity to the canonical times: the current
// shift times (falling back to the ones recorded on the exception), overridden
// by manager edits.
func (s *Service) reviseActivity(ctx context.Context, repo generic.Repository, e generic.Exception, expectedStart, expectedEnd time.Time, edits generic.ApprovalEdits) error {
	if e.ActivityID == nil {
		return fmt.Errorf("exception %s has no activity", e.ID)
	}
	if _, err := repo.GetActivity(ctx, *e.ActivityID); err != nil {
		return err
	}

	login, logout := expectedStart, expectedEnd
	if e.ShiftID != nil {
		shift, _, err := roster.Resolve(ctx, repo, *e.ShiftID)
		switch {
		case err == nil:
			login, logout = shift.Start, shift.End
		case !errors.Is(err, generic.ErrNotFound):
			return err
		}
	}
	if edits.Login != nil {
		login = *edits.Login
	}
	if edits.Logout != nil {
		logout = *edits.Logout
	}
	if !logout.After(login) {
		return generic.Invalid(generic.ErrInvalidTimeRange, "logout", "must be after login")
	}
	err := repo.ReviseActivity(ctx, *e.ActivityID, login, logout, edits.RoleID)
	if errors.Is(err, generic.ErrNotFound) {
		// Read above inside the same transaction, so another writer removed it.
		return fmt.Errorf("activity %s removed during approval: %w", *e.ActivityID, generic.ErrConcurrentModification)
	}
	return err
}

// =============================================================================
// LISTING
// =============================================================================

// GetException returns one exception.
func (s *Service) GetException(ctx context.Context, id generic.ExceptionID) (generic.Exception, error) {
	return s.repo.GetException(ctx, id)
}

// ListExceptions pages through a store's exceptions, newest first.
func (s *Service) ListExceptions(ctx context.Context, f generic.ExceptionFilter) (generic.ExceptionPage, error) {
	if _, err := s.repo.GetStore(ctx, f.StoreID); err != nil {
		return generic.ExceptionPage{}, err
	}
	return s.repo.ListExceptions(ctx, f.Normalize())
}
