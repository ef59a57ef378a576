/*
Package sqlite provides a SQLite-backed implementation of hr.TxStores.

PURPOSE:
  Implements all persistence interfaces (UserStore, DepartmentStore,
  LeaveStore, TxStores) using SQLite. In production, the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  users:        Employee records with role tags and leave balances
  departments:  Organizational units with a manager reference
  leaves:       Leave requests with the two approval tracks

COMPARE-AND-SWAP TRACK WRITES:
  SetManagerAction / SetHRAction / SetWithdrawn are guarded UPDATEs:
  the WHERE clause requires the track to still be Pending (or the flag
  still clear). Zero rows affected means the guard lost, and the error
  tells the caller which guard: NotFound, AlreadyWithdrawn, or
  AlreadyReviewed. Combined with WithTx this serializes racing reviewers.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, plus WAL mode:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

PRECISION:
  Balances and salaries are stored as decimal strings, never floats.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool with versioned migrations.

USAGE:
  store, err := sqlite.New("./data/hr.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - hr/store.go: Interface definitions
  - hr/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/hr-engine/hr"
)

// Store implements hr.TxStores using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
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
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		roles TEXT NOT NULL,
		department_id TEXT,
		job_title TEXT NOT NULL DEFAULT '',
		salary TEXT NOT NULL DEFAULT '0',
		start_date TEXT NOT NULL,
		sick_balance TEXT NOT NULL,
		annual_balance TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_users_department
		ON users(department_id) WHERE department_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS departments (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		manager_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Hot path for the role synchronizer's count-based release check
	CREATE INDEX IF NOT EXISTS idx_departments_manager
		ON departments(manager_id);

	CREATE TABLE IF NOT EXISTS leaves (
		id TEXT PRIMARY KEY,
		requester_id TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		leave_category TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		manager_action TEXT NOT NULL DEFAULT 'Pending',
		hr_action TEXT NOT NULL DEFAULT 'Pending',
		reason TEXT NOT NULL DEFAULT '',
		withdrawn INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leaves_requester
		ON leaves(requester_id);
	CREATE INDEX IF NOT EXISTS idx_leaves_pending
		ON leaves(manager_action, hr_action);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx abstracts *sql.DB and *sql.Tx so every query helper works both
// directly and inside WithTx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// USERS (hr.UserStore)
// =============================================================================

const userColumns = `id, username, email, password_hash, roles, department_id,
	job_title, salary, start_date, sick_balance, annual_balance, created_at, updated_at`

func (s *Store) GetUser(ctx context.Context, id hr.UserID) (*hr.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getUser(ctx, s.db, id)
}

func getUser(ctx context.Context, db dbtx, id hr.UserID) (*hr.User, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*hr.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getUserByEmail(ctx, s.db, email)
}

func getUserByEmail(ctx context.Context, db dbtx, email string) (*hr.User, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (s *Store) ListUsers(ctx context.Context, page hr.Page) ([]hr.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listUsers(ctx, s.db, page)
}

func listUsers(ctx context.Context, db dbtx, page hr.Page) ([]hr.User, int, error) {
	page = page.Normalize()

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, id LIMIT ? OFFSET ?`,
		page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []hr.User
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

func (s *Store) SaveUser(ctx context.Context, u hr.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveUser(ctx, s.db, u)
}

func saveUser(ctx context.Context, db dbtx, u hr.User) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO users
		(id, username, email, password_hash, roles, department_id, job_title,
		 salary, start_date, sick_balance, annual_balance, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			email = excluded.email,
			password_hash = excluded.password_hash,
			roles = excluded.roles,
			department_id = excluded.department_id,
			job_title = excluded.job_title,
			salary = excluded.salary,
			start_date = excluded.start_date,
			sick_balance = excluded.sick_balance,
			annual_balance = excluded.annual_balance,
			updated_at = excluded.updated_at
	`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Roles.String(),
		nullString(string(u.DepartmentID)), u.JobTitle, u.Salary.String(),
		u.StartDate.UTC().Format(time.RFC3339),
		u.SickBalance.String(), u.AnnualBalance.String(),
		u.CreatedAt.UTC().Format(time.RFC3339), u.UpdatedAt.UTC().Format(time.RFC3339))

	if err != nil {
		if isUniqueConstraintError(err) {
			return hr.ErrUserExists
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id hr.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteUser(ctx, s.db, id)
}

func deleteUser(ctx context.Context, db dbtx, id hr.UserID) error {
	res, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return hr.ErrUserNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row *sql.Row) (*hr.User, error) {
	u, err := scanUserFrom(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func scanUserRow(rows *sql.Rows) (*hr.User, error) {
	return scanUserFrom(rows)
}

func scanUserFrom(sc rowScanner) (*hr.User, error) {
	var (
		u                    hr.User
		roles                string
		departmentID         sql.NullString
		salary, sick, annual string
		startDate            string
		createdAt, updatedAt string
	)
	err := sc.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &roles,
		&departmentID, &u.JobTitle, &salary, &startDate, &sick, &annual,
		&createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	u.Roles = hr.ParseRoleSet(roles)
	u.DepartmentID = hr.DepartmentID(departmentID.String)
	u.Salary = parseDecimal(salary)
	u.SickBalance = parseDecimal(sick)
	u.AnnualBalance = parseDecimal(annual)
	u.StartDate = parseTime(startDate)
	u.CreatedAt = parseTime(createdAt)
	u.UpdatedAt = parseTime(updatedAt)
	return &u, nil
}

// =============================================================================
// DEPARTMENTS (hr.DepartmentStore)
// =============================================================================

const departmentColumns = `id, name, manager_id, created_at, updated_at`

func (s *Store) GetDepartment(ctx context.Context, id hr.DepartmentID) (*hr.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getDepartment(ctx, s.db, id)
}

func getDepartment(ctx context.Context, db dbtx, id hr.DepartmentID) (*hr.Department, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+departmentColumns+` FROM departments WHERE id = ?`, id)

	d, err := scanDepartment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return d, err
}

func (s *Store) ListDepartments(ctx context.Context, page hr.Page) ([]hr.Department, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listDepartments(ctx, s.db, page)
}

func listDepartments(ctx context.Context, db dbtx, page hr.Page) ([]hr.Department, int, error) {
	page = page.Normalize()

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM departments`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count departments: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+departmentColumns+` FROM departments ORDER BY created_at, id LIMIT ? OFFSET ?`,
		page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list departments: %w", err)
	}
	defer rows.Close()

	var depts []hr.Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, 0, err
		}
		depts = append(depts, *d)
	}
	return depts, total, rows.Err()
}

func (s *Store) SaveDepartment(ctx context.Context, d hr.Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveDepartment(ctx, s.db, d)
}

func saveDepartment(ctx context.Context, db dbtx, d hr.Department) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO departments (id, name, manager_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			manager_id = excluded.manager_id,
			updated_at = excluded.updated_at
	`,
		d.ID, d.Name, d.ManagerID,
		d.CreatedAt.UTC().Format(time.RFC3339), d.UpdatedAt.UTC().Format(time.RFC3339))

	if err != nil {
		if isUniqueConstraintError(err) {
			return hr.ErrDepartmentExists
		}
		return fmt.Errorf("failed to save department: %w", err)
	}
	return nil
}

func (s *Store) DeleteDepartment(ctx context.Context, id hr.DepartmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteDepartment(ctx, s.db, id)
}

func deleteDepartment(ctx context.Context, db dbtx, id hr.DepartmentID) error {
	res, err := db.ExecContext(ctx, `DELETE FROM departments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete department: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return hr.ErrDepartmentNotFound
	}
	return nil
}

func (s *Store) CountManagedDepartments(ctx context.Context, managerID hr.UserID, exclude hr.DepartmentID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return countManagedDepartments(ctx, s.db, managerID, exclude)
}

func countManagedDepartments(ctx context.Context, db dbtx, managerID hr.UserID, exclude hr.DepartmentID) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM departments WHERE manager_id = ? AND id != ?`,
		managerID, exclude).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count managed departments: %w", err)
	}
	return count, nil
}

func scanDepartment(sc rowScanner) (*hr.Department, error) {
	var (
		d                    hr.Department
		createdAt, updatedAt string
	)
	err := sc.Scan(&d.ID, &d.Name, &d.ManagerID, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan department: %w", err)
	}
	d.CreatedAt = parseTime(createdAt)
	d.UpdatedAt = parseTime(updatedAt)
	return &d, nil
}

// =============================================================================
// LEAVES (hr.LeaveStore)
// =============================================================================

const leaveColumns = `id, requester_id, leave_type, leave_category, start_date,
	end_date, manager_action, hr_action, reason, withdrawn, created_at, updated_at`

func (s *Store) GetLeave(ctx context.Context, id hr.LeaveID) (*hr.Leave, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getLeave(ctx, s.db, id)
}

func getLeave(ctx context.Context, db dbtx, id hr.LeaveID) (*hr.Leave, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+leaveColumns+` FROM leaves WHERE id = ?`, id)

	l, err := scanLeave(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return l, err
}

func (s *Store) ListLeaves(ctx context.Context, page hr.Page) ([]hr.Leave, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listLeaves(ctx, s.db, page, "", nil)
}

func (s *Store) ListLeavesByRequester(ctx context.Context, requester hr.UserID, page hr.Page) ([]hr.Leave, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listLeaves(ctx, s.db, page, ` WHERE requester_id = ?`, []any{requester})
}

func listLeaves(ctx context.Context, db dbtx, page hr.Page, where string, args []any) ([]hr.Leave, int, error) {
	page = page.Normalize()

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leaves`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count leaves: %w", err)
	}

	query := `SELECT ` + leaveColumns + ` FROM leaves` + where +
		` ORDER BY created_at, id LIMIT ? OFFSET ?`
	rows, err := db.QueryContext(ctx, query, append(args, page.Size, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leaves: %w", err)
	}
	defer rows.Close()

	var leaves []hr.Leave
	for rows.Next() {
		l, err := scanLeave(rows)
		if err != nil {
			return nil, 0, err
		}
		leaves = append(leaves, *l)
	}
	return leaves, total, rows.Err()
}

func (s *Store) SaveLeave(ctx context.Context, l hr.Leave) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveLeave(ctx, s.db, l)
}

func saveLeave(ctx context.Context, db dbtx, l hr.Leave) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO leaves
		(id, requester_id, leave_type, leave_category, start_date, end_date,
		 manager_action, hr_action, reason, withdrawn, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			leave_type = excluded.leave_type,
			leave_category = excluded.leave_category,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			manager_action = excluded.manager_action,
			hr_action = excluded.hr_action,
			reason = excluded.reason,
			withdrawn = excluded.withdrawn,
			updated_at = excluded.updated_at
	`,
		l.ID, l.RequesterID, l.Type, l.Category,
		l.StartDate.UTC().Format(time.RFC3339), l.EndDate.UTC().Format(time.RFC3339),
		l.ManagerAction, l.HRAction, l.Reason, boolToInt(l.Withdrawn),
		l.CreatedAt.UTC().Format(time.RFC3339), l.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save leave: %w", err)
	}
	return nil
}

func (s *Store) SetManagerAction(ctx context.Context, id hr.LeaveID, action hr.ManagerAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setManagerAction(ctx, s.db, id, action)
}

// setManagerAction is the CAS write: the UPDATE succeeds only while the
// track is still Pending and the leave not withdrawn.
func setManagerAction(ctx context.Context, db dbtx, id hr.LeaveID, action hr.ManagerAction) error {
	res, err := db.ExecContext(ctx, `
		UPDATE leaves SET manager_action = ?, updated_at = ?
		WHERE id = ? AND manager_action = ? AND withdrawn = 0
	`, action, time.Now().UTC().Format(time.RFC3339), id, hr.ManagerPending)
	if err != nil {
		return fmt.Errorf("failed to set manager action: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return trackGuardError(ctx, db, id)
	}
	return nil
}

func (s *Store) SetHRAction(ctx context.Context, id hr.LeaveID, action hr.HRAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setHRAction(ctx, s.db, id, action)
}

func setHRAction(ctx context.Context, db dbtx, id hr.LeaveID, action hr.HRAction) error {
	res, err := db.ExecContext(ctx, `
		UPDATE leaves SET hr_action = ?, updated_at = ?
		WHERE id = ? AND hr_action = ? AND withdrawn = 0
	`, action, time.Now().UTC().Format(time.RFC3339), id, hr.HRPending)
	if err != nil {
		return fmt.Errorf("failed to set hr action: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return trackGuardError(ctx, db, id)
	}
	return nil
}

func (s *Store) SetWithdrawn(ctx context.Context, id hr.LeaveID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setWithdrawn(ctx, s.db, id)
}

func setWithdrawn(ctx context.Context, db dbtx, id hr.LeaveID) error {
	res, err := db.ExecContext(ctx, `
		UPDATE leaves SET withdrawn = 1, updated_at = ?
		WHERE id = ? AND withdrawn = 0
	`, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to set withdrawn: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		leave, err := getLeave(ctx, db, id)
		if err != nil {
			return err
		}
		if leave == nil {
			return hr.ErrLeaveNotFound
		}
		return hr.ErrAlreadyWithdrawn
	}
	return nil
}

// trackGuardError explains why a guarded track UPDATE affected zero rows.
func trackGuardError(ctx context.Context, db dbtx, id hr.LeaveID) error {
	leave, err := getLeave(ctx, db, id)
	if err != nil {
		return err
	}
	if leave == nil {
		return hr.ErrLeaveNotFound
	}
	if leave.Withdrawn {
		return hr.ErrAlreadyWithdrawn
	}
	return hr.ErrAlreadyReviewed
}

func scanLeave(sc rowScanner) (*hr.Leave, error) {
	var (
		l                    hr.Leave
		startDate, endDate   string
		withdrawn            int
		createdAt, updatedAt string
	)
	err := sc.Scan(&l.ID, &l.RequesterID, &l.Type, &l.Category, &startDate,
		&endDate, &l.ManagerAction, &l.HRAction, &l.Reason, &withdrawn,
		&createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan leave: %w", err)
	}
	l.StartDate = parseTime(startDate)
	l.EndDate = parseTime(endDate)
	l.Withdrawn = withdrawn != 0
	l.CreatedAt = parseTime(createdAt)
	l.UpdatedAt = parseTime(updatedAt)
	return &l, nil
}

// =============================================================================
// TRANSACTIONS (hr.TxStores)
// =============================================================================

// WithTx executes a function within a database transaction. The store
// mutex is held for the duration, so guarded track writes inside the
// transaction cannot interleave with other writers.
func (s *Store) WithTx(ctx context.Context, fn func(hr.Stores) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) GetUser(ctx context.Context, id hr.UserID) (*hr.User, error) {
	return getUser(ctx, ts.tx, id)
}

func (ts *txStore) GetUserByEmail(ctx context.Context, email string) (*hr.User, error) {
	return getUserByEmail(ctx, ts.tx, email)
}

func (ts *txStore) ListUsers(ctx context.Context, page hr.Page) ([]hr.User, int, error) {
	return listUsers(ctx, ts.tx, page)
}

func (ts *txStore) SaveUser(ctx context.Context, u hr.User) error {
	return saveUser(ctx, ts.tx, u)
}

func (ts *txStore) DeleteUser(ctx context.Context, id hr.UserID) error {
	return deleteUser(ctx, ts.tx, id)
}

func (ts *txStore) GetDepartment(ctx context.Context, id hr.DepartmentID) (*hr.Department, error) {
	return getDepartment(ctx, ts.tx, id)
}

func (ts *txStore) ListDepartments(ctx context.Context, page hr.Page) ([]hr.Department, int, error) {
	return listDepartments(ctx, ts.tx, page)
}

func (ts *txStore) SaveDepartment(ctx context.Context, d hr.Department) error {
	return saveDepartment(ctx, ts.tx, d)
}

func (ts *txStore) DeleteDepartment(ctx context.Context, id hr.DepartmentID) error {
	return deleteDepartment(ctx, ts.tx, id)
}

func (ts *txStore) CountManagedDepartments(ctx context.Context, managerID hr.UserID, exclude hr.DepartmentID) (int, error) {
	return countManagedDepartments(ctx, ts.tx, managerID, exclude)
}

func (ts *txStore) GetLeave(ctx context.Context, id hr.LeaveID) (*hr.Leave, error) {
	return getLeave(ctx, ts.tx, id)
}

func (ts *txStore) ListLeaves(ctx context.Context, page hr.Page) ([]hr.Leave, int, error) {
	return listLeaves(ctx, ts.tx, page, "", nil)
}

func (ts *txStore) ListLeavesByRequester(ctx context.Context, requester hr.UserID, page hr.Page) ([]hr.Leave, int, error) {
	return listLeaves(ctx, ts.tx, page, ` WHERE requester_id = ?`, []any{requester})
}

func (ts *txStore) SaveLeave(ctx context.Context, l hr.Leave) error {
	return saveLeave(ctx, ts.tx, l)
}

func (ts *txStore) SetManagerAction(ctx context.Context, id hr.LeaveID, action hr.ManagerAction) error {
	return setManagerAction(ctx, ts.tx, id, action)
}

func (ts *txStore) SetHRAction(ctx context.Context, id hr.LeaveID, action hr.HRAction) error {
	return setHRAction(ctx, ts.tx, id, action)
}

func (ts *txStore) SetWithdrawn(ctx context.Context, id hr.LeaveID) error {
	return setWithdrawn(ctx, ts.tx, id)
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
