// Package store provides Repository implementations.
package store

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/warp/roster-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory is a goroutine-safe in-memory generic.TxRepository.
type Memory struct {
	mu sync.RWMutex
	s  *state
}

var _ generic.TxRepository = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{s: newState()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(ctx context.Context, fn func(generic.Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.s.clone()
	if err := fn(m.s); err != nil {
		m.s = snapshot
		return err
	}
	return nil
}

// Reset drops all data.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = newState()
	return nil
}

func (m *Memory) read(fn func(*state) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(m.s)
}

func (m *Memory) write(fn func(*state) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.s)
}

// The methods below guard the state with the lock and delegate.

func (m *Memory) SaveStore(ctx context.Context, st generic.Store) error {
	return m.write(func(s *state) error { return s.SaveStore(ctx, st) })
}

func (m *Memory) GetStore(ctx context.Context, id generic.StoreID) (st generic.Store, err error) {
	err = m.read(func(s *state) error { st, err = s.GetStore(ctx, id); return err })
	return st, err
}

func (m *Memory) ListStores(ctx context.Context) (out []generic.Store, err error) {
	err = m.read(func(s *state) error { out, err = s.ListStores(ctx); return err })
	return out, err
}

func (m *Memory) SaveRole(ctx context.Context, r generic.Role) error {
	return m.write(func(s *state) error { return s.SaveRole(ctx, r) })
}

func (m *Memory) GetRole(ctx context.Context, id generic.RoleID) (r generic.Role, err error) {
	err = m.read(func(s *state) error { r, err = s.GetRole(ctx, id); return err })
	return r, err
}

func (m *Memory) ListRoles(ctx context.Context, store generic.StoreID) (out []generic.Role, err error) {
	err = m.read(func(s *state) error { out, err = s.ListRoles(ctx, store); return err })
	return out, err
}

func (m *Memory) SaveEmployee(ctx context.Context, e generic.Employee) error {
	return m.write(func(s *state) error { return s.SaveEmployee(ctx, e) })
}

func (m *Memory) GetEmployee(ctx context.Context, id generic.EmployeeID) (e generic.Employee, err error) {
	err = m.read(func(s *state) error { e, err = s.GetEmployee(ctx, id); return err })
	return e, err
}

func (m *Memory) ListEmployees(ctx context.Context, store generic.StoreID) (out []generic.Employee, err error) {
	err = m.read(func(s *state) error { out, err = s.ListEmployees(ctx, store); return err })
	return out, err
}

func (m *Memory) InsertShift(ctx context.Context, sh generic.ConcreteShift) error {
	return m.write(func(s *state) error { return s.InsertShift(ctx, sh) })
}

func (m *Memory) UpdateShift(ctx context.Context, sh generic.ConcreteShift) error {
	return m.write(func(s *state) error { return s.UpdateShift(ctx, sh) })
}

func (m *Memory) DeleteShift(ctx context.Context, id generic.ShiftID) error {
	return m.write(func(s *state) error { return s.DeleteShift(ctx, id) })
}

func (m *Memory) GetShift(ctx context.Context, id generic.ShiftID) (sh generic.ConcreteShift, err error) {
	err = m.read(func(s *state) error { sh, err = s.GetShift(ctx, id); return err })
	return sh, err
}

func (m *Memory) ListShifts(ctx context.Context, store generic.StoreID, r generic.DateRange) (out []generic.ConcreteShift, err error) {
	err = m.read(func(s *state) error { out, err = s.ListShifts(ctx, store, r); return err })
	return out, err
}

func (m *Memory) ListEmployeeShifts(ctx context.Context, employee generic.EmployeeID, r generic.DateRange) (out []generic.ConcreteShift, err error) {
	err = m.read(func(s *state) error { out, err = s.ListEmployeeShifts(ctx, employee, r); return err })
	return out, err
}

func (m *Memory) SaveTemplate(ctx context.Context, t generic.Template) error {
	return m.write(func(s *state) error { return s.SaveTemplate(ctx, t) })
}

func (m *Memory) GetTemplate(ctx context.Context, id generic.TemplateID) (t generic.Template, err error) {
	err = m.read(func(s *state) error { t, err = s.GetTemplate(ctx, id); return err })
	return t, err
}

func (m *Memory) DeleteTemplate(ctx context.Context, id generic.TemplateID) error {
	return m.write(func(s *state) error { return s.DeleteTemplate(ctx, id) })
}

func (m *Memory) ListTemplates(ctx context.Context, store generic.StoreID, activeOnly bool) (out []generic.Template, err error) {
	err = m.read(func(s *state) error { out, err = s.ListTemplates(ctx, store, activeOnly); return err })
	return out, err
}

func (m *Memory) ExcludeOccurrence(ctx context.Context, key generic.OccurrenceKey) error {
	return m.write(func(s *state) error { return s.ExcludeOccurrence(ctx, key) })
}

func (m *Memory) ListExclusions(ctx context.Context, store generic.StoreID, r generic.DateRange) (out map[generic.OccurrenceKey]bool, err error) {
	err = m.read(func(s *state) error { out, err = s.ListExclusions(ctx, store, r); return err })
	return out, err
}

func (m *Memory) InsertActivity(ctx context.Context, a generic.ActivityRecord) error {
	return m.write(func(s *state) error { return s.InsertActivity(ctx, a) })
}

func (m *Memory) GetActivity(ctx context.Context, id generic.ActivityID) (a generic.ActivityRecord, err error) {
	err = m.read(func(s *state) error { a, err = s.GetActivity(ctx, id); return err })
	return a, err
}

func (m *Memory) GetOpenActivity(ctx context.Context, employee generic.EmployeeID) (a generic.ActivityRecord, err error) {
	err = m.read(func(s *state) error { a, err = s.GetOpenActivity(ctx, employee); return err })
	return a, err
}

func (m *Memory) CloseActivity(ctx context.Context, id generic.ActivityID, logoutAt time.Time, at generic.Geolocation, deliveries int) error {
	return m.write(func(s *state) error { return s.CloseActivity(ctx, id, logoutAt, at, deliveries) })
}

func (m *Memory) ReviseActivity(ctx context.Context, id generic.ActivityID, loginAt, logoutAt time.Time, role *generic.RoleID) error {
	return m.write(func(s *state) error { return s.ReviseActivity(ctx, id, loginAt, logoutAt, role) })
}

func (m *Memory) ListActivities(ctx context.Context, store generic.StoreID, from, to time.Time) (out []generic.ActivityRecord, err error) {
	err = m.read(func(s *state) error { out, err = s.ListActivities(ctx, store, from, to); return err })
	return out, err
}

func (m *Memory) InsertException(ctx context.Context, e generic.Exception) error {
	return m.write(func(s *state) error { return s.InsertException(ctx, e) })
}

func (m *Memory) GetException(ctx context.Context, id generic.ExceptionID) (e generic.Exception, err error) {
	err = m.read(func(s *state) error { e, err = s.GetException(ctx, id); return err })
	return e, err
}

func (m *Memory) ExceptionExists(ctx context.Context, employee generic.EmployeeID, shift *generic.ShiftID, activity *generic.ActivityID) (ok bool, err error) {
	err = m.read(func(s *state) error { ok, err = s.ExceptionExists(ctx, employee, shift, activity); return err })
	return ok, err
}

func (m *Memory) ApproveException(ctx context.Context, id generic.ExceptionID, edits *generic.ApprovalEdits, by string, at time.Time) error {
	return m.write(func(s *state) error { return s.ApproveException(ctx, id, edits, by, at) })
}

func (m *Memory) ListExceptions(ctx context.Context, f generic.ExceptionFilter) (page generic.ExceptionPage, err error) {
	err = m.read(func(s *state) error { page, err = s.ListExceptions(ctx, f); return err })
	return page, err
}

func (m *Memory) SaveHoliday(ctx context.Context, h generic.Holiday) error {
	return m.write(func(s *state) error { return s.SaveHoliday(ctx, h) })
}

func (m *Memory) DeleteHoliday(ctx context.Context, id string) error {
	return m.write(func(s *state) error { return s.DeleteHoliday(ctx, id) })
}

func (m *Memory) ListHolidays(ctx context.Context, store generic.StoreID) (out []generic.Holiday, err error) {
	err = m.read(func(s *state) error { out, err = s.ListHolidays(ctx, store); return err })
	return out, err
}

func (m *Memory) IsHoliday(ctx context.Context, store generic.StoreID, date generic.Date) (ok bool, err error) {
	err = m.read(func(s *state) error { ok, err = s.IsHoliday(ctx, store, date); return err })
	return ok, err
}

func (m *Memory) SaveRun(ctx context.Context, r generic.ReconciliationRun) error {
	return m.write(func(s *state) error { return s.SaveRun(ctx, r) })
}

func (m *Memory) ListRuns(ctx context.Context, status generic.RunStatus) (out []generic.ReconciliationRun, err error) {
	err = m.read(func(s *state) error { out, err = s.ListRuns(ctx, status); return err })
	return out, err
}

func (m *Memory) IsReconciled(ctx context.Context, store generic.StoreID, date generic.Date) (ok bool, err error) {
	err = m.read(func(s *state) error { ok, err = s.IsReconciled(ctx, store, date); return err })
	return ok, err
}

// state holds the data and implements generic.Repository without locking.
// Memory guards it; WithTx hands it out directly while holding the lock.
type state struct {
	stores     map[generic.StoreID]generic.Store
	roles      map[generic.RoleID]generic.Role
	employees  map[generic.EmployeeID]generic.Employee
	shifts     map[generic.ShiftID]generic.ConcreteShift
	templates  map[generic.TemplateID]generic.Template
	exclusions map[generic.OccurrenceKey]generic.StoreID
	activities map[generic.ActivityID]generic.ActivityRecord
	exceptions map[generic.ExceptionID]generic.Exception
	holidays   map[string]generic.Holiday
	runs       map[string]generic.ReconciliationRun
}

func newState() *state {
	return &state{
		stores:     make(map[generic.StoreID]generic.Store),
		roles:      make(map[generic.RoleID]generic.Role),
		employees:  make(map[generic.EmployeeID]generic.Employee),
		shifts:     make(map[generic.ShiftID]generic.ConcreteShift),
		templates:  make(map[generic.TemplateID]generic.Template),
		exclusions: make(map[generic.OccurrenceKey]generic.StoreID),
		activities: make(map[generic.ActivityID]generic.ActivityRecord),
		exceptions: make(map[generic.ExceptionID]generic.Exception),
		holidays:   make(map[string]generic.Holiday),
		runs:       make(map[string]generic.ReconciliationRun),
	}
}

// clone copies every map. Values are replaced wholesale on update, never
// mutated through their pointer fields, so a shallow copy is a snapshot.
func (s *state) clone() *state {
	return &state{
		stores:     maps.Clone(s.stores),
		roles:      maps.Clone(s.roles),
		employees:  maps.Clone(s.employees),
		shifts:     maps.Clone(s.shifts),
		templates:  maps.Clone(s.templates),
		exclusions: maps.Clone(s.exclusions),
		activities: maps.Clone(s.activities),
		exceptions: maps.Clone(s.exceptions),
		holidays:   maps.Clone(s.holidays),
		runs:       maps.Clone(s.runs),
	}
}

// =============================================================================
// DIRECTORY
// =============================================================================

func (s *state) SaveStore(_ context.Context, st generic.Store) error {
	s.stores[st.ID] = st
	return nil
}

func (s *state) GetStore(_ context.Context, id generic.StoreID) (generic.Store, error) {
	st, ok := s.stores[id]
	if !ok {
		return generic.Store{}, generic.NotFound("store", id)
	}
	return st, nil
}

func (s *state) ListStores(_ context.Context) ([]generic.Store, error) {
	out := make([]generic.Store, 0, len(s.stores))
	for _, st := range s.stores {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *state) SaveRole(_ context.Context, r generic.Role) error {
	s.roles[r.ID] = r
	return nil
}

func (s *state) GetRole(_ context.Context, id generic.RoleID) (generic.Role, error) {
	r, ok := s.roles[id]
	if !ok {
		return generic.Role{}, generic.NotFound("role", id)
	}
	return r, nil
}

func (s *state) ListRoles(_ context.Context, store generic.StoreID) ([]generic.Role, error) {
	var out []generic.Role
	for _, r := range s.roles {
		if r.StoreID == store {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *state) SaveEmployee(_ context.Context, e generic.Employee) error {
	s.employees[e.ID] = e
	return nil
}

func (s *state) GetEmployee(_ context.Context, id generic.EmployeeID) (generic.Employee, error) {
	e, ok := s.employees[id]
	if !ok {
		return generic.Employee{}, generic.NotFound("employee", id)
	}
	return e, nil
}

func (s *state) ListEmployees(_ context.Context, store generic.StoreID) ([]generic.Employee, error) {
	var out []generic.Employee
	for _, e := range s.employees {
		for _, st := range e.Stores {
			if st == store {
				out = append(out, e)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// =============================================================================
// ROSTER
// =============================================================================

func (s *state) InsertShift(_ context.Context, sh generic.ConcreteShift) error {
	if _, exists := s.shifts[sh.ID]; exists {
		if !sh.Source.IsManual() {
			return nil
		}
		return generic.Invalid(generic.ErrInvalidInput, "id", "shift id already used")
	}
	s.shifts[sh.ID] = sh
	return nil
}

func (s *state) UpdateShift(_ context.Context, sh generic.ConcreteShift) error {
	if _, ok := s.shifts[sh.ID]; !ok {
		return generic.NotFound("shift", sh.ID)
	}
	s.shifts[sh.ID] = sh
	return nil
}

func (s *state) DeleteShift(_ context.Context, id generic.ShiftID) error {
	if _, ok := s.shifts[id]; !ok {
		return generic.NotFound("shift", id)
	}
	delete(s.shifts, id)
	return nil
}

func (s *state) GetShift(_ context.Context, id generic.ShiftID) (generic.ConcreteShift, error) {
	sh, ok := s.shifts[id]
	if !ok {
		return generic.ConcreteShift{}, generic.NotFound("shift", id)
	}
	return sh, nil
}

func (s *state) ListShifts(_ context.Context, store generic.StoreID, r generic.DateRange) ([]generic.ConcreteShift, error) {
	return s.filterShifts(func(sh generic.ConcreteShift) bool {
		return sh.StoreID == store && r.Contains(sh.Date)
	}), nil
}

func (s *state) ListEmployeeShifts(_ context.Context, employee generic.EmployeeID, r generic.DateRange) ([]generic.ConcreteShift, error) {
	return s.filterShifts(func(sh generic.ConcreteShift) bool {
		return sh.EmployeeID == employee && r.Contains(sh.Date)
	}), nil
}

func (s *state) filterShifts(keep func(generic.ConcreteShift) bool) []generic.ConcreteShift {
	var out []generic.ConcreteShift
	for _, sh := range s.shifts {
		if keep(sh) {
			out = append(out, sh)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *state) SaveTemplate(_ context.Context, t generic.Template) error {
	s.templates[t.ID] = t
	return nil
}

func (s *state) GetTemplate(_ context.Context, id generic.TemplateID) (generic.Template, error) {
	t, ok := s.templates[id]
	if !ok {
		return generic.Template{}, generic.NotFound("template", id)
	}
	return t, nil
}

func (s *state) DeleteTemplate(_ context.Context, id generic.TemplateID) error {
	if _, ok := s.templates[id]; !ok {
		return generic.NotFound("template", id)
	}
	delete(s.templates, id)
	return nil
}

func (s *state) ListTemplates(_ context.Context, store generic.StoreID, activeOnly bool) ([]generic.Template, error) {
	var out []generic.Template
	for _, t := range s.templates {
		if t.StoreID != store {
			continue
		}
		if activeOnly {
			e, ok := s.employees[t.EmployeeID]
			if !ok || !e.Active || e.Resigned {
				continue
			}
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *state) ExcludeOccurrence(_ context.Context, key generic.OccurrenceKey) error {
	t, ok := s.templates[key.TemplateID]
	store := t.StoreID
	if !ok {
		// the template may already be gone; keep the tombstone keyed anyway
		store = ""
	}
	s.exclusions[key] = store
	return nil
}

func (s *state) ListExclusions(_ context.Context, store generic.StoreID, r generic.DateRange) (map[generic.OccurrenceKey]bool, error) {
	out := make(map[generic.OccurrenceKey]bool)
	for key, st := range s.exclusions {
		if (st == store || st == "") && r.Contains(key.Date) {
			out[key] = true
		}
	}
	return out, nil
}

// =============================================================================
// ACTIVITY
// =============================================================================

func (s *state) InsertActivity(_ context.Context, a generic.ActivityRecord) error {
	if a.IsOpen() {
		for _, existing := range s.activities {
			if existing.EmployeeID == a.EmployeeID && existing.IsOpen() {
				return &generic.AlreadyClockedInError{
					EmployeeID: a.EmployeeID,
					ActivityID: existing.ID,
					StoreID:    existing.StoreID,
				}
			}
		}
	}
	s.activities[a.ID] = a
	return nil
}

func (s *state) GetActivity(_ context.Context, id generic.ActivityID) (generic.ActivityRecord, error) {
	a, ok := s.activities[id]
	if !ok {
		return generic.ActivityRecord{}, generic.NotFound("activity", id)
	}
	return a, nil
}

func (s *state) GetOpenActivity(_ context.Context, employee generic.EmployeeID) (generic.ActivityRecord, error) {
	for _, a := range s.activities {
		if a.EmployeeID == employee && a.IsOpen() {
			return a, nil
		}
	}
	return generic.ActivityRecord{}, generic.NotFound("open activity", employee)
}

func (s *state) CloseActivity(_ context.Context, id generic.ActivityID, logoutAt time.Time, at generic.Geolocation, deliveries int) error {
	a, ok := s.activities[id]
	if !ok || !a.IsOpen() {
		return generic.ErrNotClockedIn
	}
	a.LogoutAt = &logoutAt
	a.LogoutLocation = &at
	a.Deliveries = deliveries
	s.activities[id] = a
	return nil
}

func (s *state) ReviseActivity(_ context.Context, id generic.ActivityID, loginAt, logoutAt time.Time, role *generic.RoleID) error {
	a, ok := s.activities[id]
	if !ok {
		return generic.NotFound("activity", id)
	}
	a.LoginAt = loginAt
	a.LogoutAt = &logoutAt
	if role != nil {
		a.RoleID = role
	}
	s.activities[id] = a
	return nil
}

func (s *state) ListActivities(_ context.Context, store generic.StoreID, from, to time.Time) ([]generic.ActivityRecord, error) {
	var out []generic.ActivityRecord
	for _, a := range s.activities {
		if a.StoreID == store && !a.LoginAt.Before(from) && a.LoginAt.Before(to) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LoginAt.Equal(out[j].LoginAt) {
			return out[i].LoginAt.Before(out[j].LoginAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// =============================================================================
// EXCEPTIONS
// =============================================================================

func (s *state) InsertException(ctx context.Context, e generic.Exception) error {
	exists, _ := s.ExceptionExists(ctx, e.EmployeeID, e.ShiftID, e.ActivityID)
	if exists {
		return generic.ErrDuplicateException
	}
	s.exceptions[e.ID] = e
	return nil
}

func (s *state) GetException(_ context.Context, id generic.ExceptionID) (generic.Exception, error) {
	e, ok := s.exceptions[id]
	if !ok {
		return generic.Exception{}, generic.NotFound("exception", id)
	}
	return e, nil
}

func (s *state) ExceptionExists(_ context.Context, employee generic.EmployeeID, shift *generic.ShiftID, activity *generic.ActivityID) (bool, error) {
	for _, e := range s.exceptions {
		if e.EmployeeID != employee {
			continue
		}
		if shift != nil && e.ShiftID != nil && *e.ShiftID == *shift {
			return true, nil
		}
		if activity != nil && e.ActivityID != nil && *e.ActivityID == *activity {
			return true, nil
		}
	}
	return false, nil
}

func (s *state) ApproveException(_ context.Context, id generic.ExceptionID, edits *generic.ApprovalEdits, by string, at time.Time) error {
	e, ok := s.exceptions[id]
	if !ok {
		return generic.NotFound("exception", id)
	}
	if e.Approved {
		return generic.ErrAlreadyApproved
	}
	e.Approved = true
	e.ApprovedAt = &at
	e.ApprovedBy = by
	e.Edits = edits
	e.UpdatedAt = at
	s.exceptions[id] = e
	return nil
}

func (s *state) ListExceptions(_ context.Context, f generic.ExceptionFilter) (generic.ExceptionPage, error) {
	f = f.Normalize()
	var all []generic.Exception
	for _, e := range s.exceptions {
		if e.StoreID != f.StoreID {
			continue
		}
		if f.Approved != nil && e.Approved != *f.Approved {
			continue
		}
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	page := generic.ExceptionPage{Total: len(all), Offset: f.Offset, Limit: f.Limit}
	if f.Offset < len(all) {
		end := min(f.Offset+f.Limit, len(all))
		page.Items = all[f.Offset:end]
	}
	return page, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (s *state) SaveHoliday(_ context.Context, h generic.Holiday) error {
	s.holidays[h.ID] = h
	return nil
}

func (s *state) DeleteHoliday(_ context.Context, id string) error {
	if _, ok := s.holidays[id]; !ok {
		return generic.NotFound("holiday", id)
	}
	delete(s.holidays, id)
	return nil
}

func (s *state) ListHolidays(_ context.Context, store generic.StoreID) ([]generic.Holiday, error) {
	var out []generic.Holiday
	for _, h := range s.holidays {
		if h.StoreID == store {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *state) IsHoliday(_ context.Context, store generic.StoreID, date generic.Date) (bool, error) {
	for _, h := range s.holidays {
		if h.StoreID == store && h.Matches(date) {
			return true, nil
		}
	}
	return false, nil
}

// =============================================================================
// RUNS
// =============================================================================

func (s *state) SaveRun(_ context.Context, r generic.ReconciliationRun) error {
	s.runs[r.ID] = r
	return nil
}

func (s *state) ListRuns(_ context.Context, status generic.RunStatus) ([]generic.ReconciliationRun, error) {
	var out []generic.ReconciliationRun
	for _, r := range s.runs {
		if status == "" || r.Status == status {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func (s *state) IsReconciled(_ context.Context, store generic.StoreID, date generic.Date) (bool, error) {
	for _, r := range s.runs {
		if r.StoreID == store && r.Date == date && r.Status == generic.RunCompleted {
			return true, nil
		}
	}
	return false, nil
}
