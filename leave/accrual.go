/*
accrual.go - Monthly accrual batch

PURPOSE:
  Advances every accruing ledger to a cutoff date. A leave type accrues
  when its MonthlyAccrual is positive; everything else is skipped.

ARITHMETIC:
  months = whole months from LastAccrualDate (or the year start when the
  ledger has never accrued) up to the cutoff. Each processed ledger gains
  months x MonthlyAccrual on both AllocatedDays and AccruedToDate, capped
  so AccruedToDate never exceeds MaxDaysPerYear, then records the cutoff
  as its LastAccrualDate.

IDEMPOTENCE:
  Re-running with the same cutoff is a no-op: a ledger whose
  LastAccrualDate is not strictly before the cutoff is skipped. Each
  ledger runs in its own transaction; one failure is collected and the
  batch moves on.
*/
package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BatchItemFailure records one ledger the batch could not process.
type BatchItemFailure struct {
	Key LedgerKey
	Err error
}

func (f BatchItemFailure) Error() string {
	return fmt.Sprintf("ledger %s/%s/%d: %v", f.Key.PersonID, f.Key.LeaveTypeID, f.Key.Year, f.Err)
}

// BatchResult summarizes a batch run. Failed items are fully reported;
// succeeded items are fully committed regardless of other failures.
type BatchResult struct {
	Succeeded int
	Skipped   int
	Failed    []BatchItemFailure
}

// AccrualProcessor runs the monthly accrual batch.
type AccrualProcessor struct {
	store   TxStore
	catalog Catalog
	clock   Clock
}

func NewAccrualProcessor(store TxStore, catalog Catalog, clock Clock) *AccrualProcessor {
	if clock == nil {
		clock = SystemClock
	}
	return &AccrualProcessor{store: store, catalog: catalog, clock: clock}
}

// ProcessMonthlyAccruals advances every accruing ledger in the cutoff's
// year up to the cutoff date.
func (p *AccrualProcessor) ProcessMonthlyAccruals(ctx context.Context, cutoff time.Time) (*BatchResult, error) {
	cutoff = DateOf(cutoff)
	year := cutoff.Year()

	balances, err := p.store.ListBalances(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("list ledgers for %d: %w", year, err)
	}

	result := &BatchResult{}
	for _, b := range balances {
		lt, err := p.catalog.Get(ctx, b.LeaveTypeID)
		if err != nil {
			result.Failed = append(result.Failed, BatchItemFailure{Key: b.Key(), Err: err})
			continue
		}
		if !lt.Accrues() {
			result.Skipped++
			continue
		}

		processed, err := p.accrueOne(ctx, b.Key(), lt, cutoff)
		switch {
		case err != nil:
			result.Failed = append(result.Failed, BatchItemFailure{Key: b.Key(), Err: err})
		case processed:
			result.Succeeded++
		default:
			result.Skipped++
		}
	}
	return result, nil
}

// accrueOne applies accrual to a single ledger under its own transaction.
// Returns false when the ledger was already at or past the cutoff, or when
// less than a whole month has elapsed since the last grant.
func (p *AccrualProcessor) accrueOne(ctx context.Context, key LedgerKey, lt LeaveType, cutoff time.Time) (bool, error) {
	processed := false
	err := p.store.WithTx(ctx, func(s Store) error {
		b, err := s.GetBalance(ctx, key)
		if err != nil {
			return err
		}

		since := b.LastAccrualDate
		if since.IsZero() {
			since = StartOfYear(key.Year)
		}
		if !since.Before(cutoff) {
			return nil // already advanced to or past this cutoff
		}

		// Leave the watermark untouched when less than a whole month has
		// elapsed, so frequent runs keep measuring from the last grant.
		months := WholeMonthsBetween(since, cutoff)
		if months == 0 {
			return nil
		}

		grant := lt.MonthlyAccrual.Mul(decimal.NewFromInt(int64(months)))
		if lt.MaxDaysPerYear.IsPositive() {
			headroom := lt.MaxDaysPerYear.Sub(b.AccruedToDate)
			if grant.GreaterThan(headroom) {
				grant = headroom
			}
			if grant.IsNegative() {
				grant = decimal.Zero
			}
		}

		previous := b.AccruedToDate
		b.AllocatedDays = b.AllocatedDays.Add(grant)
		b.AccruedToDate = b.AccruedToDate.Add(grant)
		b.LastAccrualDate = cutoff
		if err := s.SaveBalance(ctx, b); err != nil {
			return err
		}

		if err := s.AppendHistory(ctx, BalanceHistoryEntry{
			ID:            newHistoryID(),
			Key:           key,
			Timestamp:     p.clock(),
			Action:        ActionAccrual,
			PreviousValue: previous,
			NewValue:      b.AccruedToDate,
			Delta:         grant,
			Reason:        fmt.Sprintf("monthly accrual through %s", cutoff.Format("2006-01-02")),
			ActorID:       SystemActorID,
		}); err != nil {
			return err
		}
		processed = true
		return nil
	})
	return processed, err
}
