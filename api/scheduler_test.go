package api_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/leave"
	memstore "github.com/warp/leave-engine/leave/store"
)

func TestScheduler_TickRunsBothBatches(t *testing.T) {
	st := memstore.NewTxMemory()
	catalog := leave.NewStaticCatalog(leave.LeaveType{
		ID:               "annual",
		Name:             "Annual Leave",
		MaxDaysPerYear:   decimal.NewFromInt(24),
		MonthlyAccrual:   decimal.NewFromInt(2),
		CanCarryOver:     true,
		MaxCarryOverDays: decimal.NewFromInt(5),
		Active:           true,
	})
	clock := fixedSchedulerClock(leave.Date(2026, time.February, 2))

	ctx := context.Background()
	require.NoError(t, st.CreateBalance(ctx, &leave.LeaveBalance{
		PersonID:      "emp-1",
		LeaveTypeID:   "annual",
		Year:          2025,
		AllocatedDays: decimal.NewFromInt(24),
		UsedDays:      decimal.NewFromInt(21), // 3 left over
	}))

	sched := api.NewBatchScheduler(
		leave.NewAccrualProcessor(st, catalog, clock),
		leave.NewCarryOverProcessor(st, catalog, clock),
		clock,
	)
	sched.CheckInterval = time.Hour // the start-up tick is what we observe

	sched.Start()
	sched.Stop()

	// Carry-over seeded the 2026 ledger, then accrual advanced it.
	b, err := st.GetBalance(ctx, leave.LedgerKey{PersonID: "emp-1", LeaveTypeID: "annual", Year: 2026})
	require.NoError(t, err)
	assert.True(t, b.CarriedOverDays.Equal(decimal.NewFromInt(3)))
	assert.True(t, b.AccruedToDate.Equal(decimal.NewFromInt(2)), "one whole month since Jan 1")
	assert.Equal(t, leave.Date(2026, time.February, 2), b.LastAccrualDate)
}

func TestScheduler_DisabledDoesNothing(t *testing.T) {
	st := memstore.NewTxMemory()
	catalog := leave.NewStaticCatalog()
	clock := fixedSchedulerClock(leave.Date(2026, time.February, 2))

	sched := api.NewBatchScheduler(
		leave.NewAccrualProcessor(st, catalog, clock),
		leave.NewCarryOverProcessor(st, catalog, clock),
		clock,
	)
	sched.Enabled = false

	sched.Start() // must not spawn the ticker goroutine
	sched.Stop()  // and stopping an unstarted scheduler must not panic
}

func fixedSchedulerClock(at time.Time) leave.Clock {
	return func() time.Time { return at }
}
