/*
ledger.go - Balance ledger arithmetic

PURPOSE:
  The five legal ledger mutators. Every balance change in the system goes
  through Reserve, Commit, Release, ReverseUsage, or Adjust - nothing else
  touches a ledger row's numbers.

LIFECYCLE OF A DAY:
  Reserve:      PendingDays += d        (request submitted)
  Commit:       Pending -= d, Used += d (request approved)
  Release:      PendingDays -= d        (request rejected/cancelled/edited)
  ReverseUsage: UsedDays -= d           (approved request cancelled)
  Adjust:       ManualAdjustment += d   (audited admin correction)

INVARIANTS:
  - Available = Allocated + CarriedOver + Adjustment - Used - Pending,
    derived on read, never stored.
  - Reserve(d) then Release(d) restores the exact pre-call state.
  - PendingDays and UsedDays never go negative.
  - Reserve fails with InsufficientBalance when the leave type forbids
    overuse and the reservation would drive Available below zero.

CONCURRENCY:
  Callers run mutators inside TxStore.WithTx; mutators on the same key
  serialize there. The ledger itself holds no locks.
*/
package leave

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceLedger owns all reads and writes of LeaveBalance rows.
type BalanceLedger struct {
	store   Store
	catalog Catalog
	clock   Clock
}

func NewBalanceLedger(store Store, catalog Catalog, clock Clock) *BalanceLedger {
	if clock == nil {
		clock = SystemClock
	}
	return &BalanceLedger{store: store, catalog: catalog, clock: clock}
}

// WithStore returns a ledger bound to a different store view. Used to run
// mutators inside a transaction.
func (l *BalanceLedger) WithStore(store Store) *BalanceLedger {
	return &BalanceLedger{store: store, catalog: l.catalog, clock: l.clock}
}

// =============================================================================
// ROW ACCESS
// =============================================================================

// Get returns the ledger row for key, or ErrLedgerNotFound.
func (l *BalanceLedger) Get(ctx context.Context, key LedgerKey) (*LeaveBalance, error) {
	return l.store.GetBalance(ctx, key)
}

// GetOrCreate returns the ledger row for the key, lazily creating a
// zero-allocation row when absent. The leave type must exist in the catalog.
func (l *BalanceLedger) GetOrCreate(ctx context.Context, personID PersonID, leaveTypeID LeaveTypeID, year int) (*LeaveBalance, error) {
	key := LedgerKey{PersonID: personID, LeaveTypeID: leaveTypeID, Year: year}

	b, err := l.store.GetBalance(ctx, key)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, ErrLedgerNotFound) {
		return nil, err
	}

	if _, err := l.catalog.Get(ctx, leaveTypeID); err != nil {
		return nil, err
	}

	b = &LeaveBalance{PersonID: personID, LeaveTypeID: leaveTypeID, Year: year}
	if err := l.store.CreateBalance(ctx, b); err != nil {
		// Lost a creation race: the row exists now, read it.
		if errors.Is(err, ErrDuplicateLedger) {
			return l.store.GetBalance(ctx, key)
		}
		return nil, err
	}
	return b, nil
}

// =============================================================================
// MUTATORS
// =============================================================================

// Reserve places a tentative hold of days on the balance. Fails with
// InsufficientBalance when the leave type forbids overuse and the hold
// would make Available negative; the row is unchanged on failure.
func (l *BalanceLedger) Reserve(ctx context.Context, b *LeaveBalance, days decimal.Decimal) error {
	if err := requirePositive(days); err != nil {
		return err
	}

	lt, err := l.catalog.Get(ctx, b.LeaveTypeID)
	if err != nil {
		return err
	}
	if !lt.AllowOveruse && b.Available().Sub(days).IsNegative() {
		return &InsufficientBalanceError{Key: b.Key(), Available: b.Available(), Requested: days}
	}

	b.PendingDays = b.PendingDays.Add(days)
	return l.store.SaveBalance(ctx, b)
}

// Commit converts a reservation into usage: Pending -= days, Used += days.
// Requires PendingDays >= days beforehand.
func (l *BalanceLedger) Commit(ctx context.Context, b *LeaveBalance, days decimal.Decimal) error {
	if err := requirePositive(days); err != nil {
		return err
	}
	if b.PendingDays.LessThan(days) {
		return fmt.Errorf("%w: commit of %s days exceeds pending %s on %s/%s/%d",
			ErrInvalidStateTransition, days, b.PendingDays, b.PersonID, b.LeaveTypeID, b.Year)
	}

	b.PendingDays = b.PendingDays.Sub(days)
	b.UsedDays = b.UsedDays.Add(days)
	return l.store.SaveBalance(ctx, b)
}

// Release drops a reservation without touching usage.
func (l *BalanceLedger) Release(ctx context.Context, b *LeaveBalance, days decimal.Decimal) error {
	if err := requirePositive(days); err != nil {
		return err
	}
	if b.PendingDays.LessThan(days) {
		return fmt.Errorf("%w: release of %s days exceeds pending %s on %s/%s/%d",
			ErrInvalidStateTransition, days, b.PendingDays, b.PersonID, b.LeaveTypeID, b.Year)
	}

	b.PendingDays = b.PendingDays.Sub(days)
	return l.store.SaveBalance(ctx, b)
}

// ReverseUsage undoes committed usage, for cancelling an approved leave.
func (l *BalanceLedger) ReverseUsage(ctx context.Context, b *LeaveBalance, days decimal.Decimal) error {
	if err := requirePositive(days); err != nil {
		return err
	}
	if b.UsedDays.LessThan(days) {
		return fmt.Errorf("%w: reversal of %s days exceeds used %s on %s/%s/%d",
			ErrInvalidStateTransition, days, b.UsedDays, b.PersonID, b.LeaveTypeID, b.Year)
	}

	b.UsedDays = b.UsedDays.Sub(days)
	return l.store.SaveBalance(ctx, b)
}

// Adjust applies a signed manual correction and appends the audit row.
// The history entry is the only externally visible trail of the change.
func (l *BalanceLedger) Adjust(ctx context.Context, b *LeaveBalance, delta decimal.Decimal, reason string, adjusterID PersonID) error {
	if reason == "" {
		return fmt.Errorf("%w: adjustment reason is required", ErrValidation)
	}
	if delta.IsZero() {
		return fmt.Errorf("%w: adjustment delta must be non-zero", ErrValidation)
	}

	previous := b.ManualAdjustment
	b.ManualAdjustment = b.ManualAdjustment.Add(delta)
	if err := l.store.SaveBalance(ctx, b); err != nil {
		return err
	}

	return l.store.AppendHistory(ctx, BalanceHistoryEntry{
		ID:            uuid.NewString(),
		Key:           b.Key(),
		Timestamp:     l.clock(),
		Action:        ActionManualAdjustment,
		PreviousValue: previous,
		NewValue:      b.ManualAdjustment,
		Delta:         delta,
		Reason:        reason,
		ActorID:       adjusterID,
	})
}

// newHistoryID mints an id for a history row.
func newHistoryID() string { return uuid.NewString() }

func requirePositive(days decimal.Decimal) error {
	if !days.IsPositive() {
		return fmt.Errorf("%w: day count must be positive, got %s", ErrValidation, days)
	}
	return nil
}

// =============================================================================
// SUMMARY
// =============================================================================

// BalanceSummaryItem is one leave type's position in a person's yearly view.
type BalanceSummaryItem struct {
	LeaveTypeID   LeaveTypeID     `json:"leave_type_id"`
	LeaveTypeName string          `json:"leave_type_name"`
	Allocated     decimal.Decimal `json:"allocated"`
	CarriedOver   decimal.Decimal `json:"carried_over"`
	Adjustment    decimal.Decimal `json:"adjustment"`
	Used          decimal.Decimal `json:"used"`
	Pending       decimal.Decimal `json:"pending"`
	Accrued       decimal.Decimal `json:"accrued"`
	Available     decimal.Decimal `json:"available"`
}

// Summary returns one item per ledger row the person holds for the year,
// decorated with the leave type name. Types removed from the catalog keep
// their rows but show the raw id as the name.
func (l *BalanceLedger) Summary(ctx context.Context, personID PersonID, year int) ([]BalanceSummaryItem, error) {
	balances, err := l.store.BalancesForPerson(ctx, personID, year)
	if err != nil {
		return nil, err
	}

	items := make([]BalanceSummaryItem, 0, len(balances))
	for _, b := range balances {
		name := string(b.LeaveTypeID)
		if lt, err := l.catalog.Get(ctx, b.LeaveTypeID); err == nil {
			name = lt.Name
		}
		items = append(items, BalanceSummaryItem{
			LeaveTypeID:   b.LeaveTypeID,
			LeaveTypeName: name,
			Allocated:     b.AllocatedDays,
			CarriedOver:   b.CarriedOverDays,
			Adjustment:    b.ManualAdjustment,
			Used:          b.UsedDays,
			Pending:       b.PendingDays,
			Accrued:       b.AccruedToDate,
			Available:     b.Available(),
		})
	}
	return items, nil
}
