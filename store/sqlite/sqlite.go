/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements leave.TxStore (ledger rows, requests, balance history) and a
  durable leave.Catalog on SQLite. In production, the same patterns apply
  to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  leave_types:           Catalog of leave type definitions
  leave_balances:        One row per (person, leave type, year) ledger
  leave_requests:        Request rows with workflow status
  leave_balance_history: Append-only audit of non-request ledger mutations

APPEND-ONLY ENFORCEMENT:
  leave_balance_history has no UPDATE and no DELETE path; corrections are
  new manual-adjustment rows.

DECIMALS AND DATES:
  Day amounts are stored as decimal TEXT (never REAL) to avoid float
  drift. Calendar dates are stored as 'YYYY-MM-DD' text; timestamps as
  RFC3339. Lexicographic order on the date text matches chronological
  order, which the overlap query relies on.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. WithTx holds the write lock for
  the whole transaction, which gives the per-ledger-key mutual exclusion
  the mutators require. SQLite is opened with WAL for better concurrency
  and crash recovery.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

USAGE:
  st, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

SEE ALSO:
  - leave/store.go: Interface definitions
  - leave/store/memory.go: In-memory implementation for testing
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

	"github.com/warp/leave-engine/leave"
)

const (
	dateLayout = "2006-01-02"
	tsLayout   = time.RFC3339
)

// Store implements leave.TxStore and leave type persistence using SQLite.
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
	// Single connection: SQLite allows one writer, and ":memory:" databases
	// exist per connection.
	db.SetMaxOpenConns(1)

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
	-- Leave type catalog
	CREATE TABLE IF NOT EXISTS leave_types (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		max_days_per_year TEXT NOT NULL,
		requires_approval BOOLEAN NOT NULL DEFAULT TRUE,
		requires_document BOOLEAN NOT NULL DEFAULT FALSE,
		is_paid BOOLEAN NOT NULL DEFAULT TRUE,
		can_carry_over BOOLEAN NOT NULL DEFAULT FALSE,
		max_carry_over_days TEXT NOT NULL DEFAULT '0',
		monthly_accrual TEXT NOT NULL DEFAULT '0',
		notification_lead_days INTEGER NOT NULL DEFAULT 0,
		allow_overuse BOOLEAN NOT NULL DEFAULT FALSE,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Ledger rows: one per (person, leave type, year)
	CREATE TABLE IF NOT EXISTS leave_balances (
		person_id TEXT NOT NULL,
		leave_type_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		allocated_days TEXT NOT NULL DEFAULT '0',
		used_days TEXT NOT NULL DEFAULT '0',
		pending_days TEXT NOT NULL DEFAULT '0',
		carried_over_days TEXT NOT NULL DEFAULT '0',
		accrued_to_date TEXT NOT NULL DEFAULT '0',
		last_accrual_date TEXT,
		manual_adjustment TEXT NOT NULL DEFAULT '0',
		updated_at TEXT NOT NULL,
		PRIMARY KEY (person_id, leave_type_id, year)
	);

	CREATE INDEX IF NOT EXISTS idx_balances_year
		ON leave_balances(year);
	CREATE INDEX IF NOT EXISTS idx_balances_person_year
		ON leave_balances(person_id, year);

	-- Requests (workflow state machine)
	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		person_id TEXT NOT NULL,
		leave_type_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		total_days TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		reason TEXT,
		request_date TEXT NOT NULL,
		approved_by TEXT,
		approved_at TEXT,
		rejection_reason TEXT,
		has_document BOOLEAN NOT NULL DEFAULT FALSE,
		document_path TEXT,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_person
		ON leave_requests(person_id);
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON leave_requests(status);

	-- Overlap detection (hot path): person + date window
	CREATE INDEX IF NOT EXISTS idx_requests_person_dates
		ON leave_requests(person_id, start_date, end_date);

	-- Balance history (append-only audit)
	CREATE TABLE IF NOT EXISTS leave_balance_history (
		id TEXT PRIMARY KEY,
		person_id TEXT NOT NULL,
		leave_type_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		ts TEXT NOT NULL,
		action TEXT NOT NULL,
		previous_value TEXT NOT NULL,
		new_value TEXT NOT NULL,
		delta TEXT NOT NULL,
		reason TEXT,
		actor_id TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_key
		ON leave_balance_history(person_id, leave_type_id, year, ts);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx so every query can run
// against whichever the caller holds.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// =============================================================================
// BALANCES (leave.Store interface)
// =============================================================================

const balanceColumns = `person_id, leave_type_id, year, allocated_days, used_days,
	pending_days, carried_over_days, accrued_to_date, last_accrual_date,
	manual_adjustment`

func (s *Store) GetBalance(ctx context.Context, key leave.LedgerKey) (*leave.LeaveBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getBalance(ctx, s.db, key)
}

func getBalance(ctx context.Context, db dbtx, key leave.LedgerKey) (*leave.LeaveBalance, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+balanceColumns+`
		FROM leave_balances
		WHERE person_id = ? AND leave_type_id = ? AND year = ?`,
		key.PersonID, key.LeaveTypeID, key.Year)

	b, err := scanBalance(row)
	if err == sql.ErrNoRows {
		return nil, leave.ErrLedgerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load balance: %w", err)
	}
	return b, nil
}

func (s *Store) CreateBalance(ctx context.Context, b *leave.LeaveBalance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createBalance(ctx, s.db, b)
}

func createBalance(ctx context.Context, db dbtx, b *leave.LeaveBalance) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO leave_balances
		(person_id, leave_type_id, year, allocated_days, used_days, pending_days,
		 carried_over_days, accrued_to_date, last_accrual_date, manual_adjustment, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.PersonID, b.LeaveTypeID, b.Year,
		b.AllocatedDays.String(), b.UsedDays.String(), b.PendingDays.String(),
		b.CarriedOverDays.String(), b.AccruedToDate.String(),
		nullDate(b.LastAccrualDate),
		b.ManualAdjustment.String(),
		time.Now().UTC().Format(tsLayout),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return leave.ErrDuplicateLedger
		}
		return fmt.Errorf("failed to create balance: %w", err)
	}
	return nil
}

func (s *Store) SaveBalance(ctx context.Context, b *leave.LeaveBalance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveBalance(ctx, s.db, b)
}

func saveBalance(ctx context.Context, db dbtx, b *leave.LeaveBalance) error {
	res, err := db.ExecContext(ctx, `
		UPDATE leave_balances
		SET allocated_days = ?, used_days = ?, pending_days = ?,
		    carried_over_days = ?, accrued_to_date = ?, last_accrual_date = ?,
		    manual_adjustment = ?, updated_at = ?
		WHERE person_id = ? AND leave_type_id = ? AND year = ?`,
		b.AllocatedDays.String(), b.UsedDays.String(), b.PendingDays.String(),
		b.CarriedOverDays.String(), b.AccruedToDate.String(),
		nullDate(b.LastAccrualDate),
		b.ManualAdjustment.String(),
		time.Now().UTC().Format(tsLayout),
		b.PersonID, b.LeaveTypeID, b.Year,
	)
	if err != nil {
		return fmt.Errorf("failed to save balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save balance: %w", err)
	}
	if n == 0 {
		return leave.ErrLedgerNotFound
	}
	return nil
}

func (s *Store) ListBalances(ctx context.Context, year int) ([]*leave.LeaveBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listBalances(ctx, s.db, year)
}

func listBalances(ctx context.Context, db dbtx, year int) ([]*leave.LeaveBalance, error) {
	return queryBalances(ctx, db, `
		SELECT `+balanceColumns+`
		FROM leave_balances
		WHERE year = ?
		ORDER BY person_id, leave_type_id`, year)
}

func (s *Store) BalancesForPerson(ctx context.Context, personID leave.PersonID, year int) ([]*leave.LeaveBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return balancesForPerson(ctx, s.db, personID, year)
}

func balancesForPerson(ctx context.Context, db dbtx, personID leave.PersonID, year int) ([]*leave.LeaveBalance, error) {
	return queryBalances(ctx, db, `
		SELECT `+balanceColumns+`
		FROM leave_balances
		WHERE person_id = ? AND year = ?
		ORDER BY leave_type_id`, personID, year)
}

func queryBalances(ctx context.Context, db dbtx, query string, args ...any) ([]*leave.LeaveBalance, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer rows.Close()

	var result []*leave.LeaveBalance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func scanBalance(row scanner) (*leave.LeaveBalance, error) {
	var (
		b                                                      leave.LeaveBalance
		allocated, used, pending, carried, accrued, adjustment string
		lastAccrual                                            sql.NullString
	)
	err := row.Scan(&b.PersonID, &b.LeaveTypeID, &b.Year,
		&allocated, &used, &pending, &carried, &accrued, &lastAccrual, &adjustment)
	if err != nil {
		return nil, err
	}

	if b.AllocatedDays, err = decimal.NewFromString(allocated); err != nil {
		return nil, err
	}
	if b.UsedDays, err = decimal.NewFromString(used); err != nil {
		return nil, err
	}
	if b.PendingDays, err = decimal.NewFromString(pending); err != nil {
		return nil, err
	}
	if b.CarriedOverDays, err = decimal.NewFromString(carried); err != nil {
		return nil, err
	}
	if b.AccruedToDate, err = decimal.NewFromString(accrued); err != nil {
		return nil, err
	}
	if b.ManualAdjustment, err = decimal.NewFromString(adjustment); err != nil {
		return nil, err
	}
	if lastAccrual.Valid {
		if b.LastAccrualDate, err = time.Parse(dateLayout, lastAccrual.String); err != nil {
			return nil, err
		}
	}
	return &b, nil
}

// =============================================================================
// REQUESTS
// =============================================================================

const requestColumns = `id, person_id, leave_type_id, start_date, end_date, total_days,
	status, reason, request_date, approved_by, approved_at, rejection_reason,
	has_document, document_path`

func (s *Store) GetRequest(ctx context.Context, id leave.RequestID) (*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getRequest(ctx, s.db, id)
}

func getRequest(ctx context.Context, db dbtx, id leave.RequestID) (*leave.LeaveRequest, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+requestColumns+`
		FROM leave_requests
		WHERE id = ?`, id)

	r, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, leave.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load request: %w", err)
	}
	return r, nil
}

func (s *Store) SaveRequest(ctx context.Context, r *leave.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveRequest(ctx, s.db, r)
}

func saveRequest(ctx context.Context, db dbtx, r *leave.LeaveRequest) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO leave_requests
		(id, person_id, leave_type_id, start_date, end_date, total_days, status,
		 reason, request_date, approved_by, approved_at, rejection_reason,
		 has_document, document_path, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		 start_date = excluded.start_date,
		 end_date = excluded.end_date,
		 total_days = excluded.total_days,
		 status = excluded.status,
		 reason = excluded.reason,
		 approved_by = excluded.approved_by,
		 approved_at = excluded.approved_at,
		 rejection_reason = excluded.rejection_reason,
		 has_document = excluded.has_document,
		 document_path = excluded.document_path,
		 updated_at = excluded.updated_at`,
		r.ID, r.PersonID, r.LeaveTypeID,
		r.StartDate.Format(dateLayout), r.EndDate.Format(dateLayout),
		r.TotalDays.String(), r.Status, nullString(r.Reason),
		r.RequestDate.UTC().Format(tsLayout),
		nullString(string(r.ApprovedByID)),
		nullTimePtr(r.ApprovedAt),
		nullString(r.RejectionReason),
		r.HasDocument, nullString(r.DocumentPath),
		time.Now().UTC().Format(tsLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save request: %w", err)
	}
	return nil
}

func (s *Store) RequestsForPerson(ctx context.Context, personID leave.PersonID) ([]*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return requestsForPerson(ctx, s.db, personID)
}

func requestsForPerson(ctx context.Context, db dbtx, personID leave.PersonID) ([]*leave.LeaveRequest, error) {
	return queryRequests(ctx, db, `
		SELECT `+requestColumns+`
		FROM leave_requests
		WHERE person_id = ?
		ORDER BY request_date DESC`, personID)
}

func (s *Store) RequestsInRange(ctx context.Context, personID leave.PersonID, start, end time.Time) ([]*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return requestsInRange(ctx, s.db, personID, start, end)
}

func requestsInRange(ctx context.Context, db dbtx, personID leave.PersonID, start, end time.Time) ([]*leave.LeaveRequest, error) {
	// Inclusive interval intersection: existing.start <= end AND
	// existing.end >= start.
	return queryRequests(ctx, db, `
		SELECT `+requestColumns+`
		FROM leave_requests
		WHERE person_id = ? AND start_date <= ? AND end_date >= ?
		ORDER BY start_date`, personID,
		end.Format(dateLayout), start.Format(dateLayout))
}

func (s *Store) RequestsByStatus(ctx context.Context, status leave.RequestStatus) ([]*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return requestsByStatus(ctx, s.db, status)
}

func requestsByStatus(ctx context.Context, db dbtx, status leave.RequestStatus) ([]*leave.LeaveRequest, error) {
	return queryRequests(ctx, db, `
		SELECT `+requestColumns+`
		FROM leave_requests
		WHERE status = ?
		ORDER BY request_date`, status)
}

func queryRequests(ctx context.Context, db dbtx, query string, args ...any) ([]*leave.LeaveRequest, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var result []*leave.LeaveRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func scanRequest(row scanner) (*leave.LeaveRequest, error) {
	var (
		r                                                  leave.LeaveRequest
		startDate, endDate, totalDays, reqDate             string
		reason, approvedBy, approvedAt, rejection, docPath sql.NullString
	)
	err := row.Scan(&r.ID, &r.PersonID, &r.LeaveTypeID, &startDate, &endDate,
		&totalDays, &r.Status, &reason, &reqDate, &approvedBy, &approvedAt,
		&rejection, &r.HasDocument, &docPath)
	if err != nil {
		return nil, err
	}

	if r.StartDate, err = time.Parse(dateLayout, startDate); err != nil {
		return nil, err
	}
	if r.EndDate, err = time.Parse(dateLayout, endDate); err != nil {
		return nil, err
	}
	if r.TotalDays, err = decimal.NewFromString(totalDays); err != nil {
		return nil, err
	}
	if r.RequestDate, err = time.Parse(tsLayout, reqDate); err != nil {
		return nil, err
	}
	r.Reason = reason.String
	r.ApprovedByID = leave.PersonID(approvedBy.String)
	if approvedAt.Valid {
		t, err := time.Parse(tsLayout, approvedAt.String)
		if err != nil {
			return nil, err
		}
		r.ApprovedAt = &t
	}
	r.RejectionReason = rejection.String
	r.DocumentPath = docPath.String
	return &r, nil
}

// =============================================================================
// HISTORY (append-only)
// =============================================================================

func (s *Store) AppendHistory(ctx context.Context, entry leave.BalanceHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendHistory(ctx, s.db, entry)
}

func appendHistory(ctx context.Context, db dbtx, entry leave.BalanceHistoryEntry) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO leave_balance_history
		(id, person_id, leave_type_id, year, ts, action, previous_value,
		 new_value, delta, reason, actor_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Key.PersonID, entry.Key.LeaveTypeID, entry.Key.Year,
		entry.Timestamp.UTC().Format(tsLayout), entry.Action,
		entry.PreviousValue.String(), entry.NewValue.String(), entry.Delta.String(),
		nullString(entry.Reason), entry.ActorID,
	)
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

func (s *Store) History(ctx context.Context, key leave.LedgerKey) ([]leave.BalanceHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return history(ctx, s.db, key)
}

func history(ctx context.Context, db dbtx, key leave.LedgerKey) ([]leave.BalanceHistoryEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, person_id, leave_type_id, year, ts, action, previous_value,
		       new_value, delta, reason, actor_id
		FROM leave_balance_history
		WHERE person_id = ? AND leave_type_id = ? AND year = ?
		ORDER BY ts, id`,
		key.PersonID, key.LeaveTypeID, key.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var result []leave.BalanceHistoryEntry
	for rows.Next() {
		var (
			e                     leave.BalanceHistoryEntry
			ts, prev, next, delta string
			reason                sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Key.PersonID, &e.Key.LeaveTypeID, &e.Key.Year,
			&ts, &e.Action, &prev, &next, &delta, &reason, &e.ActorID); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		if e.Timestamp, err = time.Parse(tsLayout, ts); err != nil {
			return nil, err
		}
		if e.PreviousValue, err = decimal.NewFromString(prev); err != nil {
			return nil, err
		}
		if e.NewValue, err = decimal.NewFromString(next); err != nil {
			return nil, err
		}
		if e.Delta, err = decimal.NewFromString(delta); err != nil {
			return nil, err
		}
		e.Reason = reason.String
		result = append(result, e)
	}
	return result, rows.Err()
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes a function within a database transaction. The store
// write lock is held throughout, serializing ledger mutators.
func (s *Store) WithTx(ctx context.Context, fn func(store leave.Store) error) error {
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

// txStore routes every operation, reads included, through the open
// transaction so uncommitted writes stay visible to later steps.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) GetBalance(ctx context.Context, key leave.LedgerKey) (*leave.LeaveBalance, error) {
	return getBalance(ctx, ts.tx, key)
}

func (ts *txStore) CreateBalance(ctx context.Context, b *leave.LeaveBalance) error {
	return createBalance(ctx, ts.tx, b)
}

func (ts *txStore) SaveBalance(ctx context.Context, b *leave.LeaveBalance) error {
	return saveBalance(ctx, ts.tx, b)
}

func (ts *txStore) ListBalances(ctx context.Context, year int) ([]*leave.LeaveBalance, error) {
	return listBalances(ctx, ts.tx, year)
}

func (ts *txStore) BalancesForPerson(ctx context.Context, personID leave.PersonID, year int) ([]*leave.LeaveBalance, error) {
	return balancesForPerson(ctx, ts.tx, personID, year)
}

func (ts *txStore) GetRequest(ctx context.Context, id leave.RequestID) (*leave.LeaveRequest, error) {
	return getRequest(ctx, ts.tx, id)
}

func (ts *txStore) SaveRequest(ctx context.Context, r *leave.LeaveRequest) error {
	return saveRequest(ctx, ts.tx, r)
}

func (ts *txStore) RequestsForPerson(ctx context.Context, personID leave.PersonID) ([]*leave.LeaveRequest, error) {
	return requestsForPerson(ctx, ts.tx, personID)
}

func (ts *txStore) RequestsInRange(ctx context.Context, personID leave.PersonID, start, end time.Time) ([]*leave.LeaveRequest, error) {
	return requestsInRange(ctx, ts.tx, personID, start, end)
}

func (ts *txStore) RequestsByStatus(ctx context.Context, status leave.RequestStatus) ([]*leave.LeaveRequest, error) {
	return requestsByStatus(ctx, ts.tx, status)
}

func (ts *txStore) AppendHistory(ctx context.Context, entry leave.BalanceHistoryEntry) error {
	return appendHistory(ctx, ts.tx, entry)
}

func (ts *txStore) History(ctx context.Context, key leave.LedgerKey) ([]leave.BalanceHistoryEntry, error) {
	return history(ctx, ts.tx, key)
}

// =============================================================================
// LEAVE TYPE CATALOG
// =============================================================================

// SaveLeaveType inserts or replaces a leave type definition.
func (s *Store) SaveLeaveType(ctx context.Context, lt leave.LeaveType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(tsLayout)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_types
		(id, name, max_days_per_year, requires_approval, requires_document,
		 is_paid, can_carry_over, max_carry_over_days, monthly_accrual,
		 notification_lead_days, allow_overuse, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		 name = excluded.name,
		 max_days_per_year = excluded.max_days_per_year,
		 requires_approval = excluded.requires_approval,
		 requires_document = excluded.requires_document,
		 is_paid = excluded.is_paid,
		 can_carry_over = excluded.can_carry_over,
		 max_carry_over_days = excluded.max_carry_over_days,
		 monthly_accrual = excluded.monthly_accrual,
		 notification_lead_days = excluded.notification_lead_days,
		 allow_overuse = excluded.allow_overuse,
		 active = excluded.active,
		 updated_at = excluded.updated_at`,
		lt.ID, lt.Name, lt.MaxDaysPerYear.String(), lt.RequiresApproval,
		lt.RequiresDocument, lt.IsPaid, lt.CanCarryOver,
		lt.MaxCarryOverDays.String(), lt.MonthlyAccrual.String(),
		lt.NotificationLeadDays, lt.AllowOveruse, lt.Active, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save leave type: %w", err)
	}
	return nil
}

const leaveTypeColumns = `id, name, max_days_per_year, requires_approval,
	requires_document, is_paid, can_carry_over, max_carry_over_days,
	monthly_accrual, notification_lead_days, allow_overuse, active`

// GetLeaveType returns one leave type, or a wrapped ErrValidation when
// the id is unknown (matching the in-memory catalog's contract).
func (s *Store) GetLeaveType(ctx context.Context, id leave.LeaveTypeID) (leave.LeaveType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT `+leaveTypeColumns+`
		FROM leave_types WHERE id = ?`, id)

	lt, err := scanLeaveType(row)
	if err == sql.ErrNoRows {
		return leave.LeaveType{}, fmt.Errorf("%w: unknown leave type %q", leave.ErrValidation, id)
	}
	if err != nil {
		return leave.LeaveType{}, fmt.Errorf("failed to load leave type: %w", err)
	}
	return lt, nil
}

// ListLeaveTypes returns all leave types ordered by name.
func (s *Store) ListLeaveTypes(ctx context.Context) ([]leave.LeaveType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+leaveTypeColumns+`
		FROM leave_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave types: %w", err)
	}
	defer rows.Close()

	var result []leave.LeaveType
	for rows.Next() {
		lt, err := scanLeaveType(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave type: %w", err)
		}
		result = append(result, lt)
	}
	return result, rows.Err()
}

func scanLeaveType(row scanner) (leave.LeaveType, error) {
	var (
		lt                        leave.LeaveType
		maxDays, maxCarry, accrue string
	)
	err := row.Scan(&lt.ID, &lt.Name, &maxDays, &lt.RequiresApproval,
		&lt.RequiresDocument, &lt.IsPaid, &lt.CanCarryOver, &maxCarry,
		&accrue, &lt.NotificationLeadDays, &lt.AllowOveruse, &lt.Active)
	if err != nil {
		return lt, err
	}
	if lt.MaxDaysPerYear, err = decimal.NewFromString(maxDays); err != nil {
		return lt, err
	}
	if lt.MaxCarryOverDays, err = decimal.NewFromString(maxCarry); err != nil {
		return lt, err
	}
	if lt.MonthlyAccrual, err = decimal.NewFromString(accrue); err != nil {
		return lt, err
	}
	return lt, nil
}

// Catalog adapts the leave_types table to the leave.Catalog interface.
type Catalog struct {
	store *Store
}

func (s *Store) Catalog() *Catalog { return &Catalog{store: s} }

func (c *Catalog) Get(ctx context.Context, id leave.LeaveTypeID) (leave.LeaveType, error) {
	return c.store.GetLeaveType(ctx, id)
}

func (c *Catalog) List(ctx context.Context) ([]leave.LeaveType, error) {
	return c.store.ListLeaveTypes(ctx)
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

func nullDate(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateLayout), Valid: true}
}

func nullTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(tsLayout), Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
