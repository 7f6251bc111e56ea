package leave_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/leave"
	memstore "github.com/warp/leave-engine/leave/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func accrualCatalog() *leave.StaticCatalog {
	return leave.NewStaticCatalog(
		leave.LeaveType{
			ID:             "annual",
			Name:           "Annual Leave",
			MaxDaysPerYear: decimal.NewFromInt(24),
			MonthlyAccrual: decimal.NewFromInt(2),
			CanCarryOver:   true,
			Active:         true,
		},
		leave.LeaveType{
			ID:             "sick",
			Name:           "Sick Leave",
			MaxDaysPerYear: decimal.NewFromInt(10),
			Active:         true, // upfront allocation, no accrual
		},
	)
}

func newAccrualProcessor(t *testing.T) (*leave.AccrualProcessor, *memstore.TxMemory) {
	t.Helper()
	st := memstore.NewTxMemory()
	p := leave.NewAccrualProcessor(st, accrualCatalog(), fixedClock(leave.Date(2025, time.April, 1)))
	return p, st
}

func seedTyped(t *testing.T, st leave.Store, personID leave.PersonID, typeID leave.LeaveTypeID, year int) leave.LedgerKey {
	t.Helper()
	b := &leave.LeaveBalance{PersonID: personID, LeaveTypeID: typeID, Year: year}
	require.NoError(t, st.CreateBalance(context.Background(), b))
	return b.Key()
}

// =============================================================================
// ACCRUAL ARITHMETIC
// =============================================================================

func TestAccrual_GrantsWholeMonthsFromYearStart(t *testing.T) {
	// GIVEN: A fresh ledger that never accrued
	// WHEN: Running accrual with an April 1 cutoff
	// THEN: Three whole months since Jan 1 earn 3 x 2 = 6 days

	p, st := newAccrualProcessor(t)
	ctx := context.Background()
	key := seedTyped(t, st, "emp-1", "annual", 2025)

	res, err := p.ProcessMonthlyAccruals(ctx, leave.Date(2025, time.April, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Succeeded)
	assert.Empty(t, res.Failed)

	b, err := st.GetBalance(ctx, key)
	require.NoError(t, err)
	assert.True(t, b.AllocatedDays.Equal(decimal.NewFromInt(6)))
	assert.True(t, b.AccruedToDate.Equal(decimal.NewFromInt(6)))
	assert.Equal(t, leave.Date(2025, time.April, 1), b.LastAccrualDate)
}

func TestAccrual_RerunWithSameCutoffIsNoOp(t *testing.T) {
	p, st := newAccrualProcessor(t)
	ctx := context.Background()
	key := seedTyped(t, st, "emp-1", "annual", 2025)
	cutoff := leave.Date(2025, time.April, 1)

	_, err := p.ProcessMonthlyAccruals(ctx, cutoff)
	require.NoError(t, err)

	res, err := p.ProcessMonthlyAccruals(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Succeeded)
	assert.Equal(t, 1, res.Skipped)

	b, err := st.GetBalance(ctx, key)
	require.NoError(t, err)
	assert.True(t, b.AccruedToDate.Equal(decimal.NewFromInt(6)), "rerun must not double-grant")

	entries, err := st.History(ctx, key)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAccrual_AdvancesIncrementally(t *testing.T) {
	p, st := newAccrualProcessor(t)
	ctx := context.Background()
	key := seedTyped(t, st, "emp-1", "annual", 2025)

	_, err := p.ProcessMonthlyAccruals(ctx, leave.Date(2025, time.April, 1))
	require.NoError(t, err)
	_, err = p.ProcessMonthlyAccruals(ctx, leave.Date(2025, time.June, 1))
	require.NoError(t, err)

	b, err := st.GetBalance(ctx, key)
	require.NoError(t, err)
	assert.True(t, b.AccruedToDate.Equal(decimal.NewFromInt(10)), "3 + 2 more months at 2/day")
	assert.Equal(t, leave.Date(2025, time.June, 1), b.LastAccrualDate)
}

func TestAccrual_PartialMonthLeavesWatermarkUntouched(t *testing.T) {
	p, st := newAccrualProcessor(t)
	ctx := context.Background()
	key := seedTyped(t, st, "emp-1", "annual", 2025)

	res, err := p.ProcessMonthlyAccruals(ctx, leave.Date(2025, time.January, 20))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)

	b, err := st.GetBalance(ctx, key)
	require.NoError(t, err)
	assert.True(t, b.AccruedToDate.IsZero())
	assert.True(t, b.LastAccrualDate.IsZero(),
		"a no-grant run must not move the watermark forward")
}

func TestAccrual_DailyRunsStillGrantEveryMonth(t *testing.T) {
	// GIVEN a ledger accruing 2 days per month
	p, st := newAccrualProcessor(t)
	ctx := context.Background()
	key := seedTyped(t, st, "emp-1", "annual", 2025)

	// WHEN the batch runs once per day for the whole year
	for d := leave.Date(2025, time.January, 1); d.Year() == 2025; d = d.AddDate(0, 0, 1) {
		_, err := p.ProcessMonthlyAccruals(ctx, d)
		require.NoError(t, err)
	}

	// THEN the sub-monthly cadence grants exactly the eleven whole months
	// between January 1 and December 1
	b, err := st.GetBalance(ctx, key)
	require.NoError(t, err)
	assert.True(t, b.AccruedToDate.Equal(decimal.NewFromInt(22)),
		"got %s accrued", b.AccruedToDate)
	assert.True(t, b.AllocatedDays.Equal(decimal.NewFromInt(22)))
}

func TestAccrual_CappedAtAnnualMaximum(t *testing.T) {
	// 12 months at 2/day would be 24; a December 31 run from scratch stays
	// within the 24-day cap. Push past it with a pre-accrued ledger.
	p, st := newAccrualProcessor(t)
	ctx := context.Background()

	b := &leave.LeaveBalance{
		PersonID:        "emp-1",
		LeaveTypeID:     "annual",
		Year:            2025,
		AllocatedDays:   decimal.NewFromInt(23),
		AccruedToDate:   decimal.NewFromInt(23),
		LastAccrualDate: leave.Date(2025, time.October, 1),
	}
	require.NoError(t, st.CreateBalance(ctx, b))

	_, err := p.ProcessMonthlyAccruals(ctx, leave.Date(2025, time.December, 1))
	require.NoError(t, err)

	got, err := st.GetBalance(ctx, b.Key())
	require.NoError(t, err)
	assert.True(t, got.AccruedToDate.Equal(decimal.NewFromInt(24)), "two months would grant 4, cap allows 1")
	assert.True(t, got.AllocatedDays.Equal(decimal.NewFromInt(24)))
}

func TestAccrual_NonAccruingTypesSkipped(t *testing.T) {
	p, st := newAccrualProcessor(t)
	ctx := context.Background()
	key := seedTyped(t, st, "emp-1", "sick", 2025)

	res, err := p.ProcessMonthlyAccruals(ctx, leave.Date(2025, time.April, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)

	b, err := st.GetBalance(ctx, key)
	require.NoError(t, err)
	assert.True(t, b.LastAccrualDate.IsZero(), "skipped ledgers are untouched")
}

func TestAccrual_FailureIsolatedPerLedger(t *testing.T) {
	// GIVEN: One ledger referencing a type missing from the catalog
	// WHEN: Running the batch
	// THEN: That ledger fails, the others still accrue

	p, st := newAccrualProcessor(t)
	ctx := context.Background()
	good := seedTyped(t, st, "emp-1", "annual", 2025)
	bad := seedTyped(t, st, "emp-2", "orphaned", 2025)

	res, err := p.ProcessMonthlyAccruals(ctx, leave.Date(2025, time.April, 1))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Succeeded)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, bad, res.Failed[0].Key)
	assert.ErrorIs(t, res.Failed[0].Err, leave.ErrValidation)

	b, gerr := st.GetBalance(ctx, good)
	require.NoError(t, gerr)
	assert.True(t, b.AccruedToDate.Equal(decimal.NewFromInt(6)))
}

func TestAccrual_HistoryRowStampsSystemActor(t *testing.T) {
	p, st := newAccrualProcessor(t)
	ctx := context.Background()
	key := seedTyped(t, st, "emp-1", "annual", 2025)

	_, err := p.ProcessMonthlyAccruals(ctx, leave.Date(2025, time.April, 1))
	require.NoError(t, err)

	entries, err := st.History(ctx, key)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, leave.ActionAccrual, entries[0].Action)
	assert.Equal(t, leave.SystemActorID, entries[0].ActorID)
	assert.True(t, entries[0].Delta.Equal(decimal.NewFromInt(6)))
}
