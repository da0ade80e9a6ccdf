/*
Package sqlite provides a SQLite-backed implementation of generic.TxRepository.

PURPOSE:
  Persists the directory (stores, roles, employees), the roster (templates,
  concrete shifts, occurrence exclusions), the activity log, exceptions,
  holidays and reconciliation runs.

INVARIANTS ENFORCED BY THE SCHEMA:
  - idx_activity_one_open:          one open activity record per employee
  - idx_exceptions_employee_shift:  one exception per (employee, shift)
  - idx_exceptions_employee_activity: one exception per (employee, activity)
  - idx_shifts_occurrence:          one materialized shift per template occurrence

  Violations surface as sqlite3.ErrConstraintUnique and are mapped to the
  generic sentinels (ErrAlreadyClockedIn, ErrDuplicateException).

COMPARE-AND-SET:
  Clock-out and approval are single UPDATE statements guarded by the state
  they expect (logout_at IS NULL, approved = 0). Zero affected rows means
  another writer got there first.

CONCURRENCY:
  The pool is capped at one connection, so every statement and every WithTx
  is serialized by database/sql. ":memory:" databases only work this way
  (each new connection would open an empty database).

USAGE:
  repo, err := sqlite.New("./roster.db")
  if err != nil {
      log.Fatal(err)
  }
  defer repo.Close()

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/warp/roster-engine/generic"
)

// timeLayout is fixed-width so that stored instants sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// Store implements generic.TxRepository using SQLite.
type Store struct {
	*queries
	db *sql.DB
}

var _ generic.TxRepository = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{queries: &queries{q: db}, db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS stores (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		cycle_anchor TEXT NOT NULL,
		cycle_length_weeks INTEGER NOT NULL DEFAULT 4,
		geofence_lat REAL NOT NULL DEFAULT 0,
		geofence_lng REAL NOT NULL DEFAULT 0,
		geofence_radius_m REAL NOT NULL DEFAULT 0,
		timezone TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS roles (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		name TEXT NOT NULL,
		colour TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_roles_store ON roles(store_id);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		resigned BOOLEAN NOT NULL DEFAULT FALSE,
		pin_hash TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS employee_stores (
		employee_id TEXT NOT NULL,
		store_id TEXT NOT NULL,
		PRIMARY KEY (employee_id, store_id)
	);

	CREATE TABLE IF NOT EXISTS employee_roles (
		employee_id TEXT NOT NULL,
		role_id TEXT NOT NULL,
		PRIMARY KEY (employee_id, role_id)
	);

	-- Repeating shift templates (the rotating roster)
	CREATE TABLE IF NOT EXISTS repeating_shift_templates (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		start_weekday INTEGER NOT NULL,
		end_weekday INTEGER NOT NULL,
		start_time INTEGER NOT NULL,
		end_time INTEGER NOT NULL,
		active_weeks_json TEXT NOT NULL,
		role_id TEXT,
		comment TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_templates_store ON repeating_shift_templates(store_id);

	-- Concrete shifts (manual or materialized template occurrences)
	CREATE TABLE IF NOT EXISTS concrete_shifts (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		role_id TEXT,
		template_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_shifts_store_date ON concrete_shifts(store_id, date);
	CREATE INDEX IF NOT EXISTS idx_shifts_employee_date ON concrete_shifts(employee_id, date);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_shifts_occurrence
		ON concrete_shifts(template_id, date) WHERE template_id IS NOT NULL;

	-- Template occurrences removed from the roster (e.g. approved Missed Shift)
	CREATE TABLE IF NOT EXISTS occurrence_exclusions (
		template_id TEXT NOT NULL,
		date TEXT NOT NULL,
		store_id TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (template_id, date)
	);

	-- Activity log (clock records)
	CREATE TABLE IF NOT EXISTS activity_records (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		login_at TEXT NOT NULL,
		logout_at TEXT,
		deliveries INTEGER NOT NULL DEFAULT 0,
		public_holiday BOOLEAN NOT NULL DEFAULT FALSE,
		login_lat REAL NOT NULL DEFAULT 0,
		login_lng REAL NOT NULL DEFAULT 0,
		logout_lat REAL,
		logout_lng REAL,
		role_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_activity_store_login ON activity_records(store_id, login_at);

	-- CRITICAL: an employee is clocked in at most once, at any store
	CREATE UNIQUE INDEX IF NOT EXISTS idx_activity_one_open
		ON activity_records(employee_id) WHERE logout_at IS NULL;

	-- Exceptions (append-only; approval flips once)
	CREATE TABLE IF NOT EXISTS exceptions (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		shift_id TEXT,
		activity_id TEXT,
		reason TEXT NOT NULL,
		details_json TEXT NOT NULL,
		approved BOOLEAN NOT NULL DEFAULT FALSE,
		approved_at TEXT,
		approved_by TEXT NOT NULL DEFAULT '',
		edits_json TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_exceptions_store_created ON exceptions(store_id, created_at DESC);

	-- CRITICAL: reconciliation is idempotent per implicated record
	CREATE UNIQUE INDEX IF NOT EXISTS idx_exceptions_employee_shift
		ON exceptions(employee_id, shift_id) WHERE shift_id IS NOT NULL;
	CREATE UNIQUE INDEX IF NOT EXISTS idx_exceptions_employee_activity
		ON exceptions(employee_id, activity_id) WHERE activity_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		recurring BOOLEAN DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_store_date ON holidays(store_id, date);

	-- Reconciliation Runs (for scheduled reconciliation)
	CREATE TABLE IF NOT EXISTS reconciliation_runs (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		date TEXT NOT NULL,
		status TEXT NOT NULL,
		exceptions_created INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		started_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_reconciliation_runs_status ON reconciliation_runs(status);
	CREATE INDEX IF NOT EXISTS idx_reconciliation_runs_store_date ON reconciliation_runs(store_id, date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Reset deletes all data (for demo scenarios).
func (s *Store) Reset(ctx context.Context) error {
	tables := []string{
		"reconciliation_runs", "holidays", "exceptions", "activity_records",
		"occurrence_exclusions", "concrete_shifts", "repeating_shift_templates",
		"employee_roles", "employee_stores", "employees", "roles", "stores",
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, table := range tables {
		if _, err := sqlTx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return sqlTx.Commit()
}

// =============================================================================
// TRANSACTIONAL STORE (generic.TxRepository interface)
// =============================================================================

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(generic.Repository) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&queries{q: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// SaveEmployee writes the employee and memberships atomically.
func (s *Store) SaveEmployee(ctx context.Context, e generic.Employee) error {
	return s.WithTx(ctx, func(r generic.Repository) error {
		return r.SaveEmployee(ctx, e)
	})
}

// =============================================================================
// QUERIES - Bound to either the pool or an open transaction
// =============================================================================

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements generic.Repository on top of q. Rows are always drained
// before issuing the next statement: with a single connection a nested query
// would wait forever.
type queries struct {
	q queryer
}

// =============================================================================
// DIRECTORY
// =============================================================================

func (r *queries) SaveStore(ctx context.Context, s generic.Store) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO stores (id, name, cycle_anchor, cycle_length_weeks, geofence_lat, geofence_lng, geofence_radius_m, timezone)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			cycle_anchor = excluded.cycle_anchor,
			cycle_length_weeks = excluded.cycle_length_weeks,
			geofence_lat = excluded.geofence_lat,
			geofence_lng = excluded.geofence_lng,
			geofence_radius_m = excluded.geofence_radius_m,
			timezone = excluded.timezone
	`, s.ID, s.Name, s.CycleAnchor.String(), s.CycleLengthWeeks,
		s.Geofence.Lat, s.Geofence.Lng, s.Geofence.RadiusMeters, s.Timezone)
	if err != nil {
		return fmt.Errorf("failed to save store: %w", err)
	}
	return nil
}

const storeColumns = `id, name, cycle_anchor, cycle_length_weeks, geofence_lat, geofence_lng, geofence_radius_m, timezone`

func scanStore(row interface{ Scan(...any) error }) (generic.Store, error) {
	var (
		s      generic.Store
		anchor string
	)
	err := row.Scan(&s.ID, &s.Name, &anchor, &s.CycleLengthWeeks,
		&s.Geofence.Lat, &s.Geofence.Lng, &s.Geofence.RadiusMeters, &s.Timezone)
	if err != nil {
		return s, err
	}
	s.CycleAnchor, err = generic.ParseDate(anchor)
	return s, err
}

func (r *queries) GetStore(ctx context.Context, id generic.StoreID) (generic.Store, error) {
	s, err := scanStore(r.q.QueryRowContext(ctx, `SELECT `+storeColumns+` FROM stores WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return s, generic.NotFound("store", id)
	}
	return s, err
}

func (r *queries) ListStores(ctx context.Context) ([]generic.Store, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+storeColumns+` FROM stores ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stores: %w", err)
	}
	defer rows.Close()

	var out []generic.Store
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan store: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *queries) SaveRole(ctx context.Context, role generic.Role) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO roles (id, store_id, name, colour) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET store_id = excluded.store_id, name = excluded.name, colour = excluded.colour
	`, role.ID, role.StoreID, role.Name, role.Colour)
	if err != nil {
		return fmt.Errorf("failed to save role: %w", err)
	}
	return nil
}

func (r *queries) GetRole(ctx context.Context, id generic.RoleID) (generic.Role, error) {
	var role generic.Role
	err := r.q.QueryRowContext(ctx, `SELECT id, store_id, name, colour FROM roles WHERE id = ?`, id).
		Scan(&role.ID, &role.StoreID, &role.Name, &role.Colour)
	if errors.Is(err, sql.ErrNoRows) {
		return role, generic.NotFound("role", id)
	}
	return role, err
}

func (r *queries) ListRoles(ctx context.Context, store generic.StoreID) ([]generic.Role, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, store_id, name, colour FROM roles WHERE store_id = ? ORDER BY name`, store)
	if err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}
	defer rows.Close()

	var out []generic.Role
	for rows.Next() {
		var role generic.Role
		if err := rows.Scan(&role.ID, &role.StoreID, &role.Name, &role.Colour); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

func (r *queries) SaveEmployee(ctx context.Context, e generic.Employee) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO employees (id, name, active, resigned, pin_hash) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, active = excluded.active,
			resigned = excluded.resigned, pin_hash = excluded.pin_hash
	`, e.ID, e.Name, e.Active, e.Resigned, e.PINHash)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}

	if _, err := r.q.ExecContext(ctx, `DELETE FROM employee_stores WHERE employee_id = ?`, e.ID); err != nil {
		return fmt.Errorf("failed to clear employee stores: %w", err)
	}
	for _, s := range e.Stores {
		if _, err := r.q.ExecContext(ctx,
			`INSERT INTO employee_stores (employee_id, store_id) VALUES (?, ?)`, e.ID, s); err != nil {
			return fmt.Errorf("failed to save employee store: %w", err)
		}
	}

	if _, err := r.q.ExecContext(ctx, `DELETE FROM employee_roles WHERE employee_id = ?`, e.ID); err != nil {
		return fmt.Errorf("failed to clear employee roles: %w", err)
	}
	for _, role := range e.Roles {
		if _, err := r.q.ExecContext(ctx,
			`INSERT INTO employee_roles (employee_id, role_id) VALUES (?, ?)`, e.ID, role); err != nil {
			return fmt.Errorf("failed to save employee role: %w", err)
		}
	}
	return nil
}

func (r *queries) GetEmployee(ctx context.Context, id generic.EmployeeID) (generic.Employee, error) {
	var e generic.Employee
	err := r.q.QueryRowContext(ctx,
		`SELECT id, name, active, resigned, pin_hash FROM employees WHERE id = ?`, id).
		Scan(&e.ID, &e.Name, &e.Active, &e.Resigned, &e.PINHash)
	if errors.Is(err, sql.ErrNoRows) {
		return e, generic.NotFound("employee", id)
	}
	if err != nil {
		return e, err
	}
	if err := r.loadMemberships(ctx, &e); err != nil {
		return e, err
	}
	return e, nil
}

func (r *queries) ListEmployees(ctx context.Context, store generic.StoreID) ([]generic.Employee, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT e.id, e.name, e.active, e.resigned, e.pin_hash
		FROM employees e JOIN employee_stores es ON es.employee_id = e.id
		WHERE es.store_id = ?
		ORDER BY e.name
	`, store)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}

	var out []generic.Employee
	for rows.Next() {
		var e generic.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Active, &e.Resigned, &e.PINHash); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		out = append(out, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if err := r.loadMemberships(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *queries) loadMemberships(ctx context.Context, e *generic.Employee) error {
	stores, err := queryStrings(ctx, r.q,
		`SELECT store_id FROM employee_stores WHERE employee_id = ? ORDER BY store_id`, e.ID)
	if err != nil {
		return err
	}
	roles, err := queryStrings(ctx, r.q,
		`SELECT role_id FROM employee_roles WHERE employee_id = ? ORDER BY role_id`, e.ID)
	if err != nil {
		return err
	}
	e.Stores = make([]generic.StoreID, len(stores))
	for i, s := range stores {
		e.Stores[i] = generic.StoreID(s)
	}
	e.Roles = make([]generic.RoleID, len(roles))
	for i, role := range roles {
		e.Roles[i] = generic.RoleID(role)
	}
	return nil
}

// =============================================================================
// ROSTER
// =============================================================================

func (r *queries) InsertShift(ctx context.Context, s generic.ConcreteShift) error {
	verb := "INSERT"
	if !s.Source.IsManual() {
		// a concurrent materialization of the same occurrence already won
		verb = "INSERT OR IGNORE"
	}
	_, err := r.q.ExecContext(ctx, verb+` INTO concrete_shifts
		(id, store_id, employee_id, date, start_at, end_at, role_id, template_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.StoreID, s.EmployeeID, s.Date.String(), formatTime(s.Start), formatTime(s.End),
		nullRole(s.RoleID), nullTemplate(s.Source.TemplateID), formatTime(s.CreatedAt))
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.Invalid(generic.ErrInvalidInput, "id", "shift id already used")
		}
		return fmt.Errorf("failed to insert shift: %w", err)
	}
	return nil
}

func (r *queries) UpdateShift(ctx context.Context, s generic.ConcreteShift) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE concrete_shifts
		SET employee_id = ?, date = ?, start_at = ?, end_at = ?, role_id = ?, template_id = ?
		WHERE id = ?
	`, s.EmployeeID, s.Date.String(), formatTime(s.Start), formatTime(s.End), nullRole(s.RoleID),
		nullTemplate(s.Source.TemplateID), s.ID)
	if err != nil {
		return fmt.Errorf("failed to update shift: %w", err)
	}
	return requireRow(res, generic.NotFound("shift", s.ID))
}

func (r *queries) DeleteShift(ctx context.Context, id generic.ShiftID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM concrete_shifts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	return requireRow(res, generic.NotFound("shift", id))
}

const shiftColumns = `id, store_id, employee_id, date, start_at, end_at, role_id, template_id, created_at`

func scanShift(row interface{ Scan(...any) error }) (generic.ConcreteShift, error) {
	var (
		s                    generic.ConcreteShift
		date, start, end, at string
		roleID, templateID   sql.NullString
	)
	if err := row.Scan(&s.ID, &s.StoreID, &s.EmployeeID, &date, &start, &end, &roleID, &templateID, &at); err != nil {
		return s, err
	}
	d, err := generic.ParseDate(date)
	if err != nil {
		return s, err
	}
	s.Date = d
	var tp timeParser
	s.Start = tp.parse("start_at", start)
	s.End = tp.parse("end_at", end)
	s.CreatedAt = tp.parse("created_at", at)
	if tp.err != nil {
		return s, fmt.Errorf("shift %s: %w", s.ID, tp.err)
	}
	s.RoleID = roleFromNull(roleID)
	if templateID.Valid {
		s.Source = generic.TemplateSource(generic.TemplateID(templateID.String))
	}
	return s, nil
}

func (r *queries) GetShift(ctx context.Context, id generic.ShiftID) (generic.ConcreteShift, error) {
	s, err := scanShift(r.q.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM concrete_shifts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return s, generic.NotFound("shift", id)
	}
	return s, err
}

func (r *queries) ListShifts(ctx context.Context, store generic.StoreID, dr generic.DateRange) ([]generic.ConcreteShift, error) {
	return r.queryShifts(ctx, `SELECT `+shiftColumns+` FROM concrete_shifts
		WHERE store_id = ? AND date >= ? AND date <= ?
		ORDER BY start_at, id`, store, dr.Start.String(), dr.End.String())
}

func (r *queries) ListEmployeeShifts(ctx context.Context, employee generic.EmployeeID, dr generic.DateRange) ([]generic.ConcreteShift, error) {
	return r.queryShifts(ctx, `SELECT `+shiftColumns+` FROM concrete_shifts
		WHERE employee_id = ? AND date >= ? AND date <= ?
		ORDER BY start_at, id`, employee, dr.Start.String(), dr.End.String())
}

func (r *queries) queryShifts(ctx context.Context, query string, args ...any) ([]generic.ConcreteShift, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	var out []generic.ConcreteShift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *queries) SaveTemplate(ctx context.Context, t generic.Template) error {
	weeks, err := json.Marshal(t.ActiveWeeks)
	if err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx, `
		INSERT INTO repeating_shift_templates
		(id, store_id, employee_id, start_weekday, end_weekday, start_time, end_time,
		 active_weeks_json, role_id, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employee_id = excluded.employee_id,
			start_weekday = excluded.start_weekday,
			end_weekday = excluded.end_weekday,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			active_weeks_json = excluded.active_weeks_json,
			role_id = excluded.role_id,
			comment = excluded.comment,
			updated_at = excluded.updated_at
	`, t.ID, t.StoreID, t.EmployeeID, t.StartWeekday, t.EndWeekday, int(t.StartTime), int(t.EndTime),
		string(weeks), nullRole(t.RoleID), nullStringPtr(t.Comment),
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}
	return nil
}

const templateColumns = `t.id, t.store_id, t.employee_id, t.start_weekday, t.end_weekday, t.start_time, t.end_time,
	t.active_weeks_json, t.role_id, t.comment, t.created_at, t.updated_at`

func scanTemplate(row interface{ Scan(...any) error }) (generic.Template, error) {
	var (
		t                generic.Template
		start, end       int
		weeks            string
		roleID, comment  sql.NullString
		created, updated string
	)
	err := row.Scan(&t.ID, &t.StoreID, &t.EmployeeID, &t.StartWeekday, &t.EndWeekday,
		&start, &end, &weeks, &roleID, &comment, &created, &updated)
	if err != nil {
		return t, err
	}
	if err := json.Unmarshal([]byte(weeks), &t.ActiveWeeks); err != nil {
		return t, fmt.Errorf("decode active weeks: %w", err)
	}
	t.StartTime = generic.ClockTime(start)
	t.EndTime = generic.ClockTime(end)
	t.RoleID = roleFromNull(roleID)
	if comment.Valid {
		c := comment.String
		t.Comment = &c
	}
	var tp timeParser
	t.CreatedAt = tp.parse("created_at", created)
	t.UpdatedAt = tp.parse("updated_at", updated)
	if tp.err != nil {
		return t, fmt.Errorf("template %s: %w", t.ID, tp.err)
	}
	return t, nil
}

func (r *queries) GetTemplate(ctx context.Context, id generic.TemplateID) (generic.Template, error) {
	t, err := scanTemplate(r.q.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM repeating_shift_templates t WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return t, generic.NotFound("template", id)
	}
	return t, err
}

func (r *queries) DeleteTemplate(ctx context.Context, id generic.TemplateID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM repeating_shift_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return requireRow(res, generic.NotFound("template", id))
}

func (r *queries) ListTemplates(ctx context.Context, store generic.StoreID, activeOnly bool) ([]generic.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM repeating_shift_templates t WHERE t.store_id = ? ORDER BY t.id`
	if activeOnly {
		query = `SELECT ` + templateColumns + ` FROM repeating_shift_templates t
			JOIN employees e ON e.id = t.employee_id
			WHERE t.store_id = ? AND e.active AND NOT e.resigned
			ORDER BY t.id`
	}
	rows, err := r.q.QueryContext(ctx, query, store)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	var out []generic.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *queries) ExcludeOccurrence(ctx context.Context, key generic.OccurrenceKey) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT OR IGNORE INTO occurrence_exclusions (template_id, date, store_id)
		VALUES (?, ?, COALESCE((SELECT store_id FROM repeating_shift_templates WHERE id = ?), ''))
	`, key.TemplateID, key.Date.String(), key.TemplateID)
	if err != nil {
		return fmt.Errorf("failed to exclude occurrence: %w", err)
	}
	return nil
}

func (r *queries) ListExclusions(ctx context.Context, store generic.StoreID, dr generic.DateRange) (map[generic.OccurrenceKey]bool, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT template_id, date FROM occurrence_exclusions
		WHERE store_id IN (?, '') AND date >= ? AND date <= ?
	`, store, dr.Start.String(), dr.End.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query exclusions: %w", err)
	}
	defer rows.Close()

	out := make(map[generic.OccurrenceKey]bool)
	for rows.Next() {
		var id, date string
		if err := rows.Scan(&id, &date); err != nil {
			return nil, fmt.Errorf("failed to scan exclusion: %w", err)
		}
		d, err := generic.ParseDate(date)
		if err != nil {
			return nil, err
		}
		out[generic.OccurrenceKey{TemplateID: generic.TemplateID(id), Date: d}] = true
	}
	return out, rows.Err()
}

// =============================================================================
// ACTIVITY
// =============================================================================

func (r *queries) InsertActivity(ctx context.Context, a generic.ActivityRecord) error {
	var logoutLat, logoutLng sql.NullFloat64
	if a.LogoutLocation != nil {
		logoutLat = sql.NullFloat64{Float64: a.LogoutLocation.Lat, Valid: true}
		logoutLng = sql.NullFloat64{Float64: a.LogoutLocation.Lng, Valid: true}
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO activity_records
		(id, store_id, employee_id, login_at, logout_at, deliveries, public_holiday,
		 login_lat, login_lng, logout_lat, logout_lng, role_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.StoreID, a.EmployeeID, formatTime(a.LoginAt), nullTime(a.LogoutAt), a.Deliveries,
		a.PublicHoliday, a.LoginLocation.Lat, a.LoginLocation.Lng, logoutLat, logoutLng,
		nullRole(a.RoleID), formatTime(a.CreatedAt))
	if err != nil {
		if isUniqueConstraintError(err) && a.IsOpen() {
			clockedIn := &generic.AlreadyClockedInError{EmployeeID: a.EmployeeID}
			if open, lookupErr := r.GetOpenActivity(ctx, a.EmployeeID); lookupErr == nil {
				clockedIn.ActivityID = open.ID
				clockedIn.StoreID = open.StoreID
			}
			return clockedIn
		}
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

const activityColumns = `id, store_id, employee_id, login_at, logout_at, deliveries, public_holiday,
	login_lat, login_lng, logout_lat, logout_lng, role_id, created_at`

func scanActivity(row interface{ Scan(...any) error }) (generic.ActivityRecord, error) {
	var (
		a                    generic.ActivityRecord
		login, created       string
		logout, roleID       sql.NullString
		logoutLat, logoutLng sql.NullFloat64
	)
	err := row.Scan(&a.ID, &a.StoreID, &a.EmployeeID, &login, &logout, &a.Deliveries, &a.PublicHoliday,
		&a.LoginLocation.Lat, &a.LoginLocation.Lng, &logoutLat, &logoutLng, &roleID, &created)
	if err != nil {
		return a, err
	}
	var tp timeParser
	a.LoginAt = tp.parse("login_at", login)
	a.LogoutAt = tp.nullable("logout_at", logout)
	a.CreatedAt = tp.parse("created_at", created)
	if tp.err != nil {
		return a, fmt.Errorf("activity %s: %w", a.ID, tp.err)
	}
	if logoutLat.Valid && logoutLng.Valid {
		a.LogoutLocation = &generic.Geolocation{Lat: logoutLat.Float64, Lng: logoutLng.Float64}
	}
	a.RoleID = roleFromNull(roleID)
	return a, nil
}

func (r *queries) GetActivity(ctx context.Context, id generic.ActivityID) (generic.ActivityRecord, error) {
	a, err := scanActivity(r.q.QueryRowContext(ctx,
		`SELECT `+activityColumns+` FROM activity_records WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return a, generic.NotFound("activity", id)
	}
	return a, err
}

func (r *queries) GetOpenActivity(ctx context.Context, employee generic.EmployeeID) (generic.ActivityRecord, error) {
	a, err := scanActivity(r.q.QueryRowContext(ctx,
		`SELECT `+activityColumns+` FROM activity_records WHERE employee_id = ? AND logout_at IS NULL`, employee))
	if errors.Is(err, sql.ErrNoRows) {
		return a, generic.NotFound("open activity", employee)
	}
	return a, err
}

func (r *queries) CloseActivity(ctx context.Context, id generic.ActivityID, logoutAt time.Time, at generic.Geolocation, deliveries int) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE activity_records
		SET logout_at = ?, logout_lat = ?, logout_lng = ?, deliveries = ?
		WHERE id = ? AND logout_at IS NULL
	`, formatTime(logoutAt), at.Lat, at.Lng, deliveries, id)
	if err != nil {
		return fmt.Errorf("failed to close activity: %w", err)
	}
	return requireRow(res, generic.ErrNotClockedIn)
}

func (r *queries) ReviseActivity(ctx context.Context, id generic.ActivityID, loginAt, logoutAt time.Time, role *generic.RoleID) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE activity_records
		SET login_at = ?, logout_at = ?, role_id = COALESCE(?, role_id)
		WHERE id = ?
	`, formatTime(loginAt), formatTime(logoutAt), nullRole(role), id)
	if err != nil {
		return fmt.Errorf("failed to revise activity: %w", err)
	}
	return requireRow(res, generic.NotFound("activity", id))
}

func (r *queries) ListActivities(ctx context.Context, store generic.StoreID, from, to time.Time) ([]generic.ActivityRecord, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+activityColumns+` FROM activity_records
		WHERE store_id = ? AND login_at >= ? AND login_at < ?
		ORDER BY login_at, id`, store, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer rows.Close()

	var out []generic.ActivityRecord
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// =============================================================================
// EXCEPTIONS
// =============================================================================

func (r *queries) InsertException(ctx context.Context, e generic.Exception) error {
	reason, details, err := generic.EncodeDetails(e.Details)
	if err != nil {
		return fmt.Errorf("failed to encode details: %w", err)
	}
	_, err = r.q.ExecContext(ctx, `
		INSERT INTO exceptions
		(id, store_id, employee_id, date, shift_id, activity_id, reason, details_json,
		 approved, approved_at, approved_by, edits_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.StoreID, e.EmployeeID, e.Date.String(), nullShift(e.ShiftID), nullActivity(e.ActivityID),
		reason, string(details), e.Approved, nullTime(e.ApprovedAt), e.ApprovedBy, nil,
		formatTime(e.CreatedAt), formatTime(e.UpdatedAt))
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateException
		}
		return fmt.Errorf("failed to insert exception: %w", err)
	}
	return nil
}

const exceptionColumns = `id, store_id, employee_id, date, shift_id, activity_id, reason, details_json,
	approved, approved_at, approved_by, edits_json, created_at, updated_at`

func scanException(row interface{ Scan(...any) error }) (generic.Exception, error) {
	var (
		e                               generic.Exception
		date, reason, details           string
		created, updated                string
		shiftID, activityID, approvedAt sql.NullString
		edits                           sql.NullString
	)
	err := row.Scan(&e.ID, &e.StoreID, &e.EmployeeID, &date, &shiftID, &activityID, &reason, &details,
		&e.Approved, &approvedAt, &e.ApprovedBy, &edits, &created, &updated)
	if err != nil {
		return e, err
	}
	if e.Date, err = generic.ParseDate(date); err != nil {
		return e, err
	}
	if e.Details, err = generic.DecodeDetails(generic.Reason(reason), []byte(details)); err != nil {
		return e, err
	}
	if shiftID.Valid {
		id := generic.ShiftID(shiftID.String)
		e.ShiftID = &id
	}
	if activityID.Valid {
		id := generic.ActivityID(activityID.String)
		e.ActivityID = &id
	}
	var tp timeParser
	e.ApprovedAt = tp.nullable("approved_at", approvedAt)
	e.CreatedAt = tp.parse("created_at", created)
	e.UpdatedAt = tp.parse("updated_at", updated)
	if tp.err != nil {
		return e, fmt.Errorf("exception %s: %w", e.ID, tp.err)
	}
	if edits.Valid && edits.String != "" {
		var ed generic.ApprovalEdits
		if err := json.Unmarshal([]byte(edits.String), &ed); err != nil {
			return e, fmt.Errorf("decode approval edits: %w", err)
		}
		e.Edits = &ed
	}
	return e, nil
}

func (r *queries) GetException(ctx context.Context, id generic.ExceptionID) (generic.Exception, error) {
	e, err := scanException(r.q.QueryRowContext(ctx,
		`SELECT `+exceptionColumns+` FROM exceptions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return e, generic.NotFound("exception", id)
	}
	return e, err
}

func (r *queries) ExceptionExists(ctx context.Context, employee generic.EmployeeID, shift *generic.ShiftID, activity *generic.ActivityID) (bool, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM exceptions
		WHERE employee_id = ?
		  AND ((? IS NOT NULL AND shift_id = ?) OR (? IS NOT NULL AND activity_id = ?))
	`, employee, nullShift(shift), nullShift(shift), nullActivity(activity), nullActivity(activity)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check exception: %w", err)
	}
	return count > 0, nil
}

func (r *queries) ApproveException(ctx context.Context, id generic.ExceptionID, edits *generic.ApprovalEdits, by string, at time.Time) error {
	var editsJSON sql.NullString
	if edits != nil {
		b, err := json.Marshal(edits)
		if err != nil {
			return err
		}
		editsJSON = sql.NullString{String: string(b), Valid: true}
	}

	res, err := r.q.ExecContext(ctx, `
		UPDATE exceptions
		SET approved = 1, approved_at = ?, approved_by = ?, edits_json = ?, updated_at = ?
		WHERE id = ? AND approved = 0
	`, formatTime(at), by, editsJSON, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("failed to approve exception: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	if _, err := r.GetException(ctx, id); err != nil {
		return err
	}
	return generic.ErrAlreadyApproved
}

func (r *queries) ListExceptions(ctx context.Context, f generic.ExceptionFilter) (generic.ExceptionPage, error) {
	f = f.Normalize()
	page := generic.ExceptionPage{Offset: f.Offset, Limit: f.Limit}

	where := `WHERE store_id = ?`
	args := []any{f.StoreID}
	if f.Approved != nil {
		where += ` AND approved = ?`
		args = append(args, *f.Approved)
	}

	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM exceptions `+where, args...).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("failed to count exceptions: %w", err)
	}

	rows, err := r.q.QueryContext(ctx, `SELECT `+exceptionColumns+` FROM exceptions `+where+`
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return page, fmt.Errorf("failed to query exceptions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanException(rows)
		if err != nil {
			return page, fmt.Errorf("failed to scan exception: %w", err)
		}
		page.Items = append(page.Items, e)
	}
	return page, rows.Err()
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (r *queries) SaveHoliday(ctx context.Context, h generic.Holiday) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO holidays (id, store_id, date, name, recurring) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			store_id = excluded.store_id, date = excluded.date,
			name = excluded.name, recurring = excluded.recurring
	`, h.ID, h.StoreID, h.Date.String(), h.Name, h.Recurring)
	if err != nil {
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

func (r *queries) DeleteHoliday(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM holidays WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	return requireRow(res, generic.NotFound("holiday", id))
}

func (r *queries) ListHolidays(ctx context.Context, store generic.StoreID) ([]generic.Holiday, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, store_id, date, name, recurring FROM holidays WHERE store_id = ? ORDER BY date`, store)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var out []generic.Holiday
	for rows.Next() {
		var (
			h    generic.Holiday
			date string
		)
		if err := rows.Scan(&h.ID, &h.StoreID, &date, &h.Name, &h.Recurring); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		if h.Date, err = generic.ParseDate(date); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *queries) IsHoliday(ctx context.Context, store generic.StoreID, date generic.Date) (bool, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM holidays
		WHERE store_id = ?
		  AND (date = ? OR (recurring AND substr(date, 6) = ?))
	`, store, date.String(), date.String()[5:]).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check holiday: %w", err)
	}
	return count > 0, nil
}

// =============================================================================
// RECONCILIATION RUNS
// =============================================================================

func (r *queries) SaveRun(ctx context.Context, run generic.ReconciliationRun) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO reconciliation_runs
		(id, store_id, date, status, exceptions_created, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			exceptions_created = excluded.exceptions_created,
			error = excluded.error,
			completed_at = excluded.completed_at
	`, run.ID, run.StoreID, run.Date.String(), run.Status, run.ExceptionsCreated, run.Error,
		formatTime(run.StartedAt), nullTime(run.CompletedAt))
	if err != nil {
		return fmt.Errorf("failed to save reconciliation run: %w", err)
	}
	return nil
}

func (r *queries) ListRuns(ctx context.Context, status generic.RunStatus) ([]generic.ReconciliationRun, error) {
	query := `SELECT id, store_id, date, status, exceptions_created, error, started_at, completed_at
		FROM reconciliation_runs`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY started_at DESC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reconciliation runs: %w", err)
	}
	defer rows.Close()

	var out []generic.ReconciliationRun
	for rows.Next() {
		var (
			run           generic.ReconciliationRun
			date, started string
			completed     sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.StoreID, &date, &run.Status, &run.ExceptionsCreated,
			&run.Error, &started, &completed); err != nil {
			return nil, fmt.Errorf("failed to scan reconciliation run: %w", err)
		}
		if run.Date, err = generic.ParseDate(date); err != nil {
			return nil, err
		}
		var tp timeParser
		run.StartedAt = tp.parse("started_at", started)
		run.CompletedAt = tp.nullable("completed_at", completed)
		if tp.err != nil {
			return nil, fmt.Errorf("reconciliation run %s: %w", run.ID, tp.err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (r *queries) IsReconciled(ctx context.Context, store generic.StoreID, date generic.Date) (bool, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reconciliation_runs
		WHERE store_id = ? AND date = ? AND status = ?
	`, store, date.String(), generic.RunCompleted).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check reconciliation: %w", err)
	}
	return count > 0, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// timeParser decodes stored timestamps and keeps the first failure, so a scan
// helper checks once after reading all of a row's columns.
type timeParser struct{ err error }

func (p *timeParser) parse(column, s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("corrupt %s %q: %w", column, s, err)
	}
	return t
}

func (p *timeParser) nullable(column string, s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := p.parse(column, s.String)
	return &t
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullRole(id *generic.RoleID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*id), Valid: true}
}

func roleFromNull(s sql.NullString) *generic.RoleID {
	if !s.Valid {
		return nil
	}
	id := generic.RoleID(s.String)
	return &id
}

func nullTemplate(id *generic.TemplateID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*id), Valid: true}
}

func nullShift(id *generic.ShiftID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*id), Valid: true}
}

func nullActivity(id *generic.ActivityID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*id), Valid: true}
}

func queryStrings(ctx context.Context, q queryer, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// requireRow returns notFound when res affected no rows.
func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
