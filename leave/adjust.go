/*
adjust.go - Manual corrections and year initialization

PURPOSE:
  The admin-facing ledger surface outside the request flow: audited
  signed corrections to a single ledger, and the batch that opens a new
  year's ledgers for every active person.
*/
package leave

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// AdjustmentService applies audited manual corrections to ledger rows.
type AdjustmentService struct {
	store     TxStore
	catalog   Catalog
	directory PersonDirectory
	ledger    *BalanceLedger
	clock     Clock
}

func NewAdjustmentService(store TxStore, catalog Catalog, directory PersonDirectory, clock Clock) *AdjustmentService {
	if clock == nil {
		clock = SystemClock
	}
	return &AdjustmentService{
		store:     store,
		catalog:   catalog,
		directory: directory,
		ledger:    NewBalanceLedger(store, catalog, clock),
		clock:     clock,
	}
}

// Adjust applies a signed delta to a ledger's ManualAdjustment and writes
// the audit row. Only admins adjust; the reason is mandatory.
func (a *AdjustmentService) Adjust(ctx context.Context, key LedgerKey, delta decimal.Decimal, reason string, adjuster Actor) (*LeaveBalance, error) {
	if adjuster.Role != RoleAdmin {
		return nil, fmt.Errorf("%w: %s may not adjust balances", ErrUnauthorized, adjuster.PersonID)
	}
	if _, err := a.catalog.Get(ctx, key.LeaveTypeID); err != nil {
		return nil, err
	}

	var adjusted *LeaveBalance
	err := a.store.WithTx(ctx, func(s Store) error {
		ledger := a.ledger.WithStore(s)
		b, err := ledger.GetOrCreate(ctx, key.PersonID, key.LeaveTypeID, key.Year)
		if err != nil {
			return err
		}
		if err := ledger.Adjust(ctx, b, delta, reason, adjuster.PersonID); err != nil {
			return err
		}
		adjusted = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return adjusted, nil
}

// InitializeBalancesForYear opens a ledger row for every active person and
// every active leave type. Non-accruing types start with their full annual
// allocation; accruing types start at zero and earn through the monthly
// batch. Rows that already exist are left alone, so reruns are harmless.
func (a *AdjustmentService) InitializeBalancesForYear(ctx context.Context, year int) (*BatchResult, error) {
	if a.directory == nil {
		return nil, fmt.Errorf("%w: no person directory configured", ErrValidation)
	}

	persons, err := a.directory.ActivePersons(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active persons: %w", err)
	}
	types, err := a.catalog.List(ctx)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{}
	for _, personID := range persons {
		for _, lt := range types {
			if !lt.Active {
				continue
			}
			key := LedgerKey{PersonID: personID, LeaveTypeID: lt.ID, Year: year}
			created, err := a.initOne(ctx, key, lt)
			switch {
			case err != nil:
				result.Failed = append(result.Failed, BatchItemFailure{Key: key, Err: err})
			case created:
				result.Succeeded++
			default:
				result.Skipped++
			}
		}
	}
	return result, nil
}

func (a *AdjustmentService) initOne(ctx context.Context, key LedgerKey, lt LeaveType) (bool, error) {
	created := false
	err := a.store.WithTx(ctx, func(s Store) error {
		if _, err := s.GetBalance(ctx, key); err == nil {
			return nil // already opened, leave it be
		} else if !IsNotFound(err) {
			return err
		}

		allocated := decimal.Zero
		if !lt.Accrues() {
			allocated = lt.MaxDaysPerYear
		}
		b := &LeaveBalance{
			PersonID:      key.PersonID,
			LeaveTypeID:   key.LeaveTypeID,
			Year:          key.Year,
			AllocatedDays: allocated,
		}
		if err := s.CreateBalance(ctx, b); err != nil {
			return err
		}

		if err := s.AppendHistory(ctx, BalanceHistoryEntry{
			ID:            newHistoryID(),
			Key:           key,
			Timestamp:     a.clock(),
			Action:        ActionYearInit,
			PreviousValue: decimal.Zero,
			NewValue:      allocated,
			Delta:         allocated,
			Reason:        fmt.Sprintf("ledger opened for %d", key.Year),
			ActorID:       SystemActorID,
		}); err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

// History returns the audit rows for one ledger, oldest first.
func (a *AdjustmentService) History(ctx context.Context, key LedgerKey) ([]BalanceHistoryEntry, error) {
	return a.store.History(ctx, key)
}
