package roster

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/roster-engine/generic"
)

// =============================================================================
// EXPECTED SHIFTS - Persisted shifts merged with template occurrences
// =============================================================================

// Expected returns the store's concrete shifts dated in r: every persisted
// shift plus every occurrence of the store's active templates that is neither
// materialized nor excluded. Ordered by start, then id.
func Expected(ctx context.Context, repo generic.Repository, store generic.Store, r generic.DateRange) ([]generic.ConcreteShift, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	persisted, err := repo.ListShifts(ctx, store.ID, r)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	templates, err := repo.ListTemplates(ctx, store.ID, true)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	excluded, err := repo.ListExclusions(ctx, store.ID, r)
	if err != nil {
		return nil, fmt.Errorf("list exclusions: %w", err)
	}

	seen := make(map[generic.ShiftID]bool, len(persisted))
	out := make([]generic.ConcreteShift, 0, len(persisted))
	for _, s := range persisted {
		seen[s.ID] = true
		out = append(out, s)
	}
	for _, t := range templates {
		for occ := range Expand(t, store, r) {
			if seen[occ.ID] || excluded[generic.OccurrenceKey{TemplateID: t.ID, Date: occ.Date}] {
				continue
			}
			out = append(out, occ)
		}
	}

	sortShifts(out)
	return out, nil
}

// Materialize persists the unmaterialized template occurrences dated on date
// and returns the full expected roster for that day. Occurrence ids are
// deterministic, so concurrent or repeated calls converge on the same rows.
func Materialize(ctx context.Context, repo generic.Repository, store generic.Store, date generic.Date) ([]generic.ConcreteShift, error) {
	shifts, err := Expected(ctx, repo, store, generic.SingleDay(date))
	if err != nil {
		return nil, err
	}
	for _, s := range shifts {
		if s.Source.IsManual() {
			continue
		}
		if err := repo.InsertShift(ctx, s); err != nil {
			return nil, fmt.Errorf("materialize %s: %w", s.ID, err)
		}
	}
	return shifts, nil
}

// Remove deletes s from the roster. A template occurrence is also excluded so
// the expander doesn't bring it back; s need not be materialized.
func Remove(ctx context.Context, repo generic.Repository, s generic.ConcreteShift) error {
	if s.Source.TemplateID != nil {
		key := generic.OccurrenceKey{TemplateID: *s.Source.TemplateID, Date: s.Date}
		if k, ok := ParseOccurrenceShiftID(s.ID); ok {
			key = k
		}
		if err := repo.ExcludeOccurrence(ctx, key); err != nil {
			return err
		}
	}
	err := repo.DeleteShift(ctx, s.ID)
	if err != nil && !(s.Source.TemplateID != nil && errors.Is(err, generic.ErrNotFound)) {
		return err
	}
	return nil
}

// Resolve finds a shift by id, persisted or not. Ids of the form produced by
// generic.OccurrenceShiftID resolve to the template occurrence while it is
// still expected.
func Resolve(ctx context.Context, repo generic.Repository, id generic.ShiftID) (generic.ConcreteShift, bool, error) {
	s, err := repo.GetShift(ctx, id)
	if err == nil {
		return s, true, nil
	}
	if !errors.Is(err, generic.ErrNotFound) {
		return s, false, err
	}

	key, ok := ParseOccurrenceShiftID(id)
	if !ok {
		return s, false, err
	}
	t, terr := repo.GetTemplate(ctx, key.TemplateID)
	if terr != nil {
		return s, false, generic.NotFound("shift", id)
	}
	store, serr := repo.GetStore(ctx, t.StoreID)
	if serr != nil {
		return s, false, serr
	}
	shifts, eerr := Expected(ctx, repo, store, generic.SingleDay(key.Date))
	if eerr != nil {
		return s, false, eerr
	}
	for _, occ := range shifts {
		if occ.ID == id {
			return occ, false, nil
		}
	}
	return s, false, generic.NotFound("shift", id)
}

func sortShifts(shifts []generic.ConcreteShift) {
	sort.Slice(shifts, func(i, j int) bool {
		if !shifts[i].Start.Equal(shifts[j].Start) {
			return shifts[i].Start.Before(shifts[j].Start)
		}
		return shifts[i].ID < shifts[j].ID
	})
}

// =============================================================================
// SERVICE
// =============================================================================

// Warning is a data-quality note attached to a successful mutation.
type Warning struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	ShiftID generic.ShiftID `json:"shift_id,omitempty"`
}

const WarningOverlap = "overlap"

// ShiftInput is the manager-supplied content of an ad hoc shift.
type ShiftInput struct {
	StoreID    generic.StoreID
	EmployeeID generic.EmployeeID
	Start      time.Time
	End        time.Time
	RoleID     *generic.RoleID
}

// Service is the roster store: concrete shifts and repeating templates.
type Service struct {
	repo generic.TxRepository
	log  logrus.FieldLogger
	now  func() time.Time
}

// NewService creates a roster service. A nil logger uses the standard logger.
func NewService(repo generic.TxRepository, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{repo: repo, log: log, now: time.Now}
}

// WithClock replaces the time source (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ListConcreteShifts returns the expected roster of store over r.
func (s *Service) ListConcreteShifts(ctx context.Context, storeID generic.StoreID, r generic.DateRange) ([]generic.ConcreteShift, error) {
	store, err := s.repo.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return Expected(ctx, s.repo, store, r)
}

// ListRepeatingShifts returns only the template occurrences of store over r,
// excluded ones left out.
func (s *Service) ListRepeatingShifts(ctx context.Context, storeID generic.StoreID, r generic.DateRange) ([]generic.ConcreteShift, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	store, err := s.repo.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	templates, err := s.repo.ListTemplates(ctx, storeID, true)
	if err != nil {
		return nil, err
	}
	excluded, err := s.repo.ListExclusions(ctx, storeID, r)
	if err != nil {
		return nil, err
	}

	var out []generic.ConcreteShift
	for _, t := range templates {
		for occ := range Expand(t, store, r) {
			if !excluded[generic.OccurrenceKey{TemplateID: t.ID, Date: occ.Date}] {
				out = append(out, occ)
			}
		}
	}
	sortShifts(out)
	return out, nil
}

// CreateShift adds an ad hoc shift. Overlaps with the employee's other
// shifts are allowed and reported as warnings.
func (s *Service) CreateShift(ctx context.Context, in ShiftInput) (generic.ConcreteShift, []Warning, error) {
	var (
		shift    generic.ConcreteShift
		warnings []Warning
	)
	err := s.repo.WithTx(ctx, func(repo generic.Repository) error {
		store, err := s.checkShiftInput(ctx, repo, in)
		if err != nil {
			return err
		}
		shift = generic.ConcreteShift{
			ID:         generic.ShiftID(generic.NewID()),
			StoreID:    in.StoreID,
			EmployeeID: in.EmployeeID,
			Date:       generic.DateIn(in.Start, store.Location()),
			Start:      in.Start,
			End:        in.End,
			RoleID:     in.RoleID,
			Source:     generic.ManualSource(),
			CreatedAt:  s.now(),
		}
		if err := repo.InsertShift(ctx, shift); err != nil {
			return err
		}
		warnings, err = overlaps(ctx, repo, store, shift)
		return err
	})
	if err != nil {
		return generic.ConcreteShift{}, nil, err
	}

	s.logShift("shift created", shift, warnings)
	return shift, warnings, nil
}

// UpdateShift replaces the content of a shift. A template occurrence that was
// never materialized is materialized with the new content.
func (s *Service) UpdateShift(ctx context.Context, id generic.ShiftID, in ShiftInput) (generic.ConcreteShift, []Warning, error) {
	var (
		shift    generic.ConcreteShift
		warnings []Warning
	)
	err := s.repo.WithTx(ctx, func(repo generic.Repository) error {
		current, persisted, err := Resolve(ctx, repo, id)
		if err != nil {
			return err
		}
		in.StoreID = current.StoreID
		store, err := s.checkShiftInput(ctx, repo, in)
		if err != nil {
			return err
		}

		shift = current
		shift.EmployeeID = in.EmployeeID
		shift.Date = generic.DateIn(in.Start, store.Location())
		shift.Start = in.Start
		shift.End = in.End
		shift.RoleID = in.RoleID

		if current.Source.TemplateID != nil {
			// the row now owns this occurrence, wherever it moved to
			key := generic.OccurrenceKey{TemplateID: *current.Source.TemplateID, Date: current.Date}
			if err := repo.ExcludeOccurrence(ctx, key); err != nil {
				return err
			}
			if shift.Date != current.Date {
				// moved off its date: the target date's own occurrence stays
				shift.Source = generic.ManualSource()
			}
		}
		if persisted {
			err = repo.UpdateShift(ctx, shift)
		} else {
			shift.CreatedAt = s.now()
			err = repo.InsertShift(ctx, shift)
		}
		if err != nil {
			return err
		}
		warnings, err = overlaps(ctx, repo, store, shift)
		return err
	})
	if err != nil {
		return generic.ConcreteShift{}, nil, err
	}

	s.logShift("shift updated", shift, warnings)
	return shift, warnings, nil
}

// DeleteShift removes a shift; NotFound if it doesn't exist.
func (s *Service) DeleteShift(ctx context.Context, id generic.ShiftID) error {
	err := s.repo.WithTx(ctx, func(repo generic.Repository) error {
		shift, _, err := Resolve(ctx, repo, id)
		if err != nil {
			return err
		}
		return Remove(ctx, repo, shift)
	})
	if err != nil {
		return err
	}
	s.log.WithField("shift_id", id).Info("shift deleted")
	return nil
}

func (s *Service) checkShiftInput(ctx context.Context, repo generic.Repository, in ShiftInput) (generic.Store, error) {
	if !in.End.After(in.Start) {
		return generic.Store{}, generic.Invalid(generic.ErrInvalidTimeRange, "end", "must be after start")
	}
	store, err := repo.GetStore(ctx, in.StoreID)
	if err != nil {
		return store, err
	}
	if _, err := repo.GetEmployee(ctx, in.EmployeeID); err != nil {
		return store, err
	}
	if in.RoleID != nil {
		if err := checkRole(ctx, repo, store.ID, *in.RoleID); err != nil {
			return store, err
		}
	}
	return store, nil
}

// overlaps reports the other expected shifts of the employee at the store
// that share an instant with shift.
func overlaps(ctx context.Context, repo generic.Repository, store generic.Store, shift generic.ConcreteShift) ([]Warning, error) {
	window := generic.DateRange{Start: shift.Date.AddDays(-1), End: generic.DateIn(shift.End, store.Location())}
	others, err := Expected(ctx, repo, store, window)
	if err != nil {
		return nil, err
	}
	var warnings []Warning
	for _, o := range others {
		if o.ID == shift.ID || o.EmployeeID != shift.EmployeeID || !o.Overlaps(shift) {
			continue
		}
		warnings = append(warnings, Warning{
			Code:    WarningOverlap,
			Message: fmt.Sprintf("overlaps shift %s (%s - %s)", o.ID, o.Start.Format(time.RFC3339), o.End.Format(time.RFC3339)),
			ShiftID: o.ID,
		})
	}
	return warnings, nil
}

func checkRole(ctx context.Context, repo generic.Repository, store generic.StoreID, id generic.RoleID) error {
	role, err := repo.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if role.StoreID != store {
		return generic.Invalid(generic.ErrInvalidInput, "role_id", "role belongs to another store")
	}
	return nil
}

func (s *Service) logShift(msg string, shift generic.ConcreteShift, warnings []Warning) {
	entry := s.log.WithFields(logrus.Fields{
		"shift_id":    shift.ID,
		"store_id":    shift.StoreID,
		"employee_id": shift.EmployeeID,
		"date":        shift.Date.String(),
	})
	for _, w := range warnings {
		entry.WithField("overlaps", w.ShiftID).Warn("overlapping shift")
	}
	entry.Info(msg)
}

// =============================================================================
// TEMPLATES
// =============================================================================

// CreateTemplate validates and stores a new template. ID and timestamps are
// assigned here.
func (s *Service) CreateTemplate(ctx context.Context, t generic.Template) (generic.Template, error) {
	err := s.repo.WithTx(ctx, func(repo generic.Repository) error {
		if err := checkTemplate(ctx, repo, t); err != nil {
			return err
		}
		t.ID = generic.TemplateID(generic.NewID())
		t.CreatedAt = s.now()
		t.UpdatedAt = t.CreatedAt
		return repo.SaveTemplate(ctx, t)
	})
	if err != nil {
		return generic.Template{}, err
	}
	s.log.WithFields(logrus.Fields{
		"template_id": t.ID,
		"store_id":    t.StoreID,
		"employee_id": t.EmployeeID,
	}).Info("repeating shift template created")
	return t, nil
}

// UpdateTemplate replaces a template's definition. Occurrences already
// materialized keep their content.
func (s *Service) UpdateTemplate(ctx context.Context, id generic.TemplateID, t generic.Template) (generic.Template, error) {
	err := s.repo.WithTx(ctx, func(repo generic.Repository) error {
		current, err := repo.GetTemplate(ctx, id)
		if err != nil {
			return err
		}
		t.ID = id
		t.StoreID = current.StoreID
		t.CreatedAt = current.CreatedAt
		t.UpdatedAt = s.now()
		if err := checkTemplate(ctx, repo, t); err != nil {
			return err
		}
		return repo.SaveTemplate(ctx, t)
	})
	if err != nil {
		return generic.Template{}, err
	}
	s.log.WithField("template_id", id).Info("repeating shift template updated")
	return t, nil
}

// DeleteTemplate hard-deletes a template. Materialized shifts stay.
func (s *Service) DeleteTemplate(ctx context.Context, id generic.TemplateID) error {
	if err := s.repo.DeleteTemplate(ctx, id); err != nil {
		return err
	}
	s.log.WithField("template_id", id).Info("repeating shift template deleted")
	return nil
}

func (s *Service) GetTemplate(ctx context.Context, id generic.TemplateID) (generic.Template, error) {
	return s.repo.GetTemplate(ctx, id)
}

func (s *Service) ListTemplates(ctx context.Context, store generic.StoreID) ([]generic.Template, error) {
	if _, err := s.repo.GetStore(ctx, store); err != nil {
		return nil, err
	}
	return s.repo.ListTemplates(ctx, store, false)
}

func checkTemplate(ctx context.Context, repo generic.Repository, t generic.Template) error {
	store, err := repo.GetStore(ctx, t.StoreID)
	if err != nil {
		return err
	}
	if err := ValidateTemplate(t, store.CycleLength()); err != nil {
		return err
	}
	emp, err := repo.GetEmployee(ctx, t.EmployeeID)
	if err != nil {
		return err
	}
	member := false
	for _, st := range emp.Stores {
		member = member || st == store.ID
	}
	if !member {
		return generic.Invalid(generic.ErrInvalidTemplate, "employee_id", "employee is not a member of the store")
	}
	if t.RoleID != nil {
		return checkRole(ctx, repo, store.ID, *t.RoleID)
	}
	return nil
}
