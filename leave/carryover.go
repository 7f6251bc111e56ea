/*
carryover.go - Year-end carry-over batch

PURPOSE:
  Seeds next year's CarriedOverDays from this year's leftover balance for
  every leave type that permits carry-over.

ARITHMETIC:
  amount = max(0, min(Available(fromYear), MaxCarryOverDays))

  The target year's CarriedOverDays is OVERWRITTEN, not added to, so
  re-running the batch lands on the same value. The source year's ledger
  is never touched; its closing numbers stay readable forever.
*/
package leave

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// CarryOverProcessor runs the year-boundary carry-over batch.
type CarryOverProcessor struct {
	store   TxStore
	catalog Catalog
	ledger  *BalanceLedger
	clock   Clock
}

func NewCarryOverProcessor(store TxStore, catalog Catalog, clock Clock) *CarryOverProcessor {
	if clock == nil {
		clock = SystemClock
	}
	return &CarryOverProcessor{
		store:   store,
		catalog: catalog,
		ledger:  NewBalanceLedger(store, catalog, clock),
		clock:   clock,
	}
}

// ProcessYearEndCarryOver carries leftover balance from fromYear into
// toYear for every carry-over-enabled ledger. Each ledger pair runs in
// its own transaction; failures are collected, not fatal.
func (p *CarryOverProcessor) ProcessYearEndCarryOver(ctx context.Context, fromYear, toYear int) (*BatchResult, error) {
	if toYear <= fromYear {
		return nil, fmt.Errorf("%w: target year %d must follow source year %d", ErrValidation, toYear, fromYear)
	}

	sources, err := p.store.ListBalances(ctx, fromYear)
	if err != nil {
		return nil, fmt.Errorf("list ledgers for %d: %w", fromYear, err)
	}

	result := &BatchResult{}
	for _, src := range sources {
		lt, err := p.catalog.Get(ctx, src.LeaveTypeID)
		if err != nil {
			result.Failed = append(result.Failed, BatchItemFailure{Key: src.Key(), Err: err})
			continue
		}
		if !lt.CanCarryOver {
			result.Skipped++
			continue
		}

		if err := p.carryOne(ctx, src.Key(), lt, toYear); err != nil {
			result.Failed = append(result.Failed, BatchItemFailure{Key: src.Key(), Err: err})
			continue
		}
		result.Succeeded++
	}
	return result, nil
}

func (p *CarryOverProcessor) carryOne(ctx context.Context, srcKey LedgerKey, lt LeaveType, toYear int) error {
	return p.store.WithTx(ctx, func(s Store) error {
		src, err := s.GetBalance(ctx, srcKey)
		if err != nil {
			return err
		}

		amount := src.Available()
		if amount.GreaterThan(lt.MaxCarryOverDays) {
			amount = lt.MaxCarryOverDays
		}
		if amount.IsNegative() {
			amount = decimal.Zero
		}

		dst, err := p.ledger.WithStore(s).GetOrCreate(ctx, srcKey.PersonID, srcKey.LeaveTypeID, toYear)
		if err != nil {
			return err
		}

		previous := dst.CarriedOverDays
		if previous.Equal(amount) {
			return nil // rerun, already seeded
		}
		dst.CarriedOverDays = amount
		if err := s.SaveBalance(ctx, dst); err != nil {
			return err
		}

		return s.AppendHistory(ctx, BalanceHistoryEntry{
			ID:            newHistoryID(),
			Key:           dst.Key(),
			Timestamp:     p.clock(),
			Action:        ActionCarryOver,
			PreviousValue: previous,
			NewValue:      amount,
			Delta:         amount.Sub(previous),
			Reason:        fmt.Sprintf("carry-over from %d", srcKey.Year),
			ActorID:       SystemActorID,
		})
	})
}
