/*
store.go - Persistence and collaborator interfaces

PURPOSE:
  Defines the boundary between the domain services and the outside world:
  the durable store for ledgers/requests/history, and the external
  collaborators (person directory, document store) this core consumes.

ATOMICITY CONTRACT:
  Every workflow transition touches a request row and its ledger row; both
  commit or neither does. TxStore.WithTx provides that unit: the function
  runs against a transactional view and is rolled back entirely on error.
  Mutators on the same ledger key serialize; there is no cross-ledger
  locking and no long-lived lock.

IMPLEMENTATIONS:
  - store/sqlite: production store (single-writer transactions, WAL)
  - leave/store:  in-memory store for tests and dev
*/
package leave

import (
	"context"
	"time"
)

// Clock supplies "now". Injected everywhere so tests are deterministic and
// no service reads ambient wall-clock state.
type Clock func() time.Time

// SystemClock is the production clock.
func SystemClock() time.Time { return time.Now().UTC() }

// =============================================================================
// STORE - Durable state for ledgers, requests, and history
// =============================================================================

// Store persists ledger rows, requests, and the balance history audit log.
// History is append-only: no update, no delete.
type Store interface {
	// GetBalance returns the ledger row for key, or ErrLedgerNotFound.
	GetBalance(ctx context.Context, key LedgerKey) (*LeaveBalance, error)

	// CreateBalance inserts a new ledger row. Returns ErrDuplicateLedger if
	// a row already exists for the key.
	CreateBalance(ctx context.Context, b *LeaveBalance) error

	// SaveBalance updates an existing ledger row. Returns ErrLedgerNotFound
	// if the row was never created.
	SaveBalance(ctx context.Context, b *LeaveBalance) error

	// ListBalances returns all ledger rows for a year.
	ListBalances(ctx context.Context, year int) ([]*LeaveBalance, error)

	// BalancesForPerson returns a person's ledger rows for a year.
	BalancesForPerson(ctx context.Context, personID PersonID, year int) ([]*LeaveBalance, error)

	// GetRequest returns a request by id, or ErrRequestNotFound.
	GetRequest(ctx context.Context, id RequestID) (*LeaveRequest, error)

	// SaveRequest inserts or updates a request row.
	SaveRequest(ctx context.Context, r *LeaveRequest) error

	// RequestsForPerson returns all of a person's requests, newest first.
	RequestsForPerson(ctx context.Context, personID PersonID) ([]*LeaveRequest, error)

	// RequestsInRange returns a person's requests whose inclusive date range
	// intersects [start, end], any status.
	RequestsInRange(ctx context.Context, personID PersonID, start, end time.Time) ([]*LeaveRequest, error)

	// RequestsByStatus returns requests with the given persisted status,
	// oldest first.
	RequestsByStatus(ctx context.Context, status RequestStatus) ([]*LeaveRequest, error)

	// AppendHistory appends an audit row. Append-only.
	AppendHistory(ctx context.Context, entry BalanceHistoryEntry) error

	// History returns audit rows for a ledger key, chronologically.
	History(ctx context.Context, key LedgerKey) ([]BalanceHistoryEntry, error)
}

// TxStore wraps Store with transaction support. If fn returns an error the
// transaction is rolled back and no write is visible; otherwise all writes
// commit together.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// EXTERNAL COLLABORATORS - Consumed, never owned
// =============================================================================

// PersonDirectory looks up people and reporting lines. Used for conflict
// scoping, manager-approval checks, and year initialization.
type PersonDirectory interface {
	// Exists reports whether the person is known and active.
	Exists(ctx context.Context, id PersonID) (bool, error)

	// ManagerOf returns the person's manager, or "" when none.
	ManagerOf(ctx context.Context, id PersonID) (PersonID, error)

	// ActivePersons returns every active person. Used by the
	// year-initialization batch.
	ActivePersons(ctx context.Context) ([]PersonID, error)
}

// DocumentStore owns uploaded leave attachments. This core only tracks a
// path reference and the HasDocument flag.
type DocumentStore interface {
	// Exists reports whether a stored document exists at path.
	Exists(ctx context.Context, path string) (bool, error)
}

// ManagerApprovalPolicy is the default approval capability: admins approve
// anything, department managers approve their reports, nobody self-approves.
func ManagerApprovalPolicy(dir PersonDirectory) ApprovalPolicy {
	return func(ctx context.Context, actor Actor, req *LeaveRequest) bool {
		if actor.PersonID == req.PersonID {
			return false
		}
		switch actor.Role {
		case RoleAdmin:
			return true
		case RoleDepartmentManager:
			if dir == nil {
				return false
			}
			mgr, err := dir.ManagerOf(ctx, req.PersonID)
			return err == nil && mgr == actor.PersonID
		default:
			return false
		}
	}
}
