package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleBalance() *leave.LeaveBalance {
	return &leave.LeaveBalance{
		PersonID:         "emp-1",
		LeaveTypeID:      "annual",
		Year:             2025,
		AllocatedDays:    decimal.RequireFromString("20"),
		UsedDays:         decimal.RequireFromString("3.5"),
		PendingDays:      decimal.RequireFromString("1"),
		CarriedOverDays:  decimal.RequireFromString("4"),
		AccruedToDate:    decimal.RequireFromString("12.4998"),
		LastAccrualDate:  leave.Date(2025, time.June, 1),
		ManualAdjustment: decimal.RequireFromString("-0.5"),
	}
}

func sampleRequest(id string) *leave.LeaveRequest {
	return &leave.LeaveRequest{
		ID:          leave.RequestID(id),
		PersonID:    "emp-1",
		LeaveTypeID: "annual",
		StartDate:   leave.Date(2025, time.July, 7),
		EndDate:     leave.Date(2025, time.July, 11),
		TotalDays:   decimal.NewFromInt(5),
		Status:      leave.StatusPending,
		Reason:      "summer",
		RequestDate: time.Date(2025, time.June, 20, 9, 30, 0, 0, time.UTC),
	}
}

// =============================================================================
// BALANCE PERSISTENCE
// =============================================================================

func TestStore_BalanceRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	b := sampleBalance()

	require.NoError(t, st.CreateBalance(ctx, b))

	got, err := st.GetBalance(ctx, b.Key())
	require.NoError(t, err)

	assert.Equal(t, b.PersonID, got.PersonID)
	assert.Equal(t, b.Year, got.Year)
	assert.True(t, got.AccruedToDate.Equal(decimal.RequireFromString("12.4998")), "decimal precision survives storage")
	assert.True(t, got.ManualAdjustment.Equal(decimal.RequireFromString("-0.5")))
	assert.Equal(t, leave.Date(2025, time.June, 1), got.LastAccrualDate)
	assert.True(t, got.Available().Equal(b.Available()))
}

func TestStore_BalanceZeroAccrualDateSurvives(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	b := &leave.LeaveBalance{PersonID: "emp-1", LeaveTypeID: "annual", Year: 2025}

	require.NoError(t, st.CreateBalance(ctx, b))

	got, err := st.GetBalance(ctx, b.Key())
	require.NoError(t, err)
	assert.True(t, got.LastAccrualDate.IsZero())
}

func TestStore_GetBalance_MissingRow(t *testing.T) {
	st := newTestStore(t)

	_, err := st.GetBalance(context.Background(), leave.LedgerKey{PersonID: "ghost", LeaveTypeID: "annual", Year: 2025})

	assert.ErrorIs(t, err, leave.ErrLedgerNotFound)
}

func TestStore_CreateBalance_DuplicateKeyRejected(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateBalance(ctx, sampleBalance()))
	err := st.CreateBalance(ctx, sampleBalance())

	assert.ErrorIs(t, err, leave.ErrDuplicateLedger)
}

func TestStore_SaveBalance_RequiresExistingRow(t *testing.T) {
	st := newTestStore(t)

	err := st.SaveBalance(context.Background(), sampleBalance())

	assert.ErrorIs(t, err, leave.ErrLedgerNotFound)
}

func TestStore_SaveBalance_UpdatesInPlace(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	b := sampleBalance()
	require.NoError(t, st.CreateBalance(ctx, b))

	b.UsedDays = decimal.RequireFromString("8.5")
	require.NoError(t, st.SaveBalance(ctx, b))

	got, err := st.GetBalance(ctx, b.Key())
	require.NoError(t, err)
	assert.True(t, got.UsedDays.Equal(decimal.RequireFromString("8.5")))
}

func TestStore_BalancesForPerson_ScopedToPersonAndYear(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateBalance(ctx, &leave.LeaveBalance{PersonID: "emp-1", LeaveTypeID: "annual", Year: 2025}))
	require.NoError(t, st.CreateBalance(ctx, &leave.LeaveBalance{PersonID: "emp-1", LeaveTypeID: "sick", Year: 2025}))
	require.NoError(t, st.CreateBalance(ctx, &leave.LeaveBalance{PersonID: "emp-1", LeaveTypeID: "annual", Year: 2024}))
	require.NoError(t, st.CreateBalance(ctx, &leave.LeaveBalance{PersonID: "emp-2", LeaveTypeID: "annual", Year: 2025}))

	got, err := st.BalancesForPerson(ctx, "emp-1", 2025)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	all, err := st.ListBalances(ctx, 2025)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

// =============================================================================
// REQUEST PERSISTENCE
// =============================================================================

func TestStore_RequestRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	approvedAt := time.Date(2025, time.June, 21, 10, 0, 0, 0, time.UTC)
	r := sampleRequest("req-1")
	r.Status = leave.StatusApproved
	r.ApprovedByID = "mgr-1"
	r.ApprovedAt = &approvedAt
	r.HasDocument = true
	r.DocumentPath = "docs/cert.pdf"

	require.NoError(t, st.SaveRequest(ctx, r))

	got, err := st.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, got.Status)
	assert.Equal(t, leave.PersonID("mgr-1"), got.ApprovedByID)
	require.NotNil(t, got.ApprovedAt)
	assert.True(t, got.ApprovedAt.Equal(approvedAt))
	assert.True(t, got.HasDocument)
	assert.Equal(t, "docs/cert.pdf", got.DocumentPath)
	assert.True(t, got.TotalDays.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, leave.Date(2025, time.July, 7), got.StartDate)
}

func TestStore_SaveRequest_UpsertsExistingRow(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	r := sampleRequest("req-1")
	require.NoError(t, st.SaveRequest(ctx, r))

	r.Status = leave.StatusRejected
	r.RejectionReason = "short notice"
	require.NoError(t, st.SaveRequest(ctx, r))

	got, err := st.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusRejected, got.Status)
	assert.Equal(t, "short notice", got.RejectionReason)
}

func TestStore_GetRequest_Missing(t *testing.T) {
	st := newTestStore(t)

	_, err := st.GetRequest(context.Background(), "nope")

	assert.ErrorIs(t, err, leave.ErrRequestNotFound)
}

func TestStore_RequestsInRange_InclusiveBoundaries(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.SaveRequest(ctx, sampleRequest("req-1"))) // Jul 7-11

	cases := []struct {
		name       string
		start, end time.Time
		hit        bool
	}{
		{"touching end boundary", leave.Date(2025, time.July, 11), leave.Date(2025, time.July, 15), true},
		{"touching start boundary", leave.Date(2025, time.July, 1), leave.Date(2025, time.July, 7), true},
		{"fully inside", leave.Date(2025, time.July, 8), leave.Date(2025, time.July, 9), true},
		{"after", leave.Date(2025, time.July, 12), leave.Date(2025, time.July, 20), false},
		{"before", leave.Date(2025, time.July, 1), leave.Date(2025, time.July, 6), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := st.RequestsInRange(ctx, "emp-1", tc.start, tc.end)
			require.NoError(t, err)
			if tc.hit {
				assert.Len(t, got, 1)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestStore_RequestsForPerson_NewestFirst(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	older := sampleRequest("req-old")
	older.RequestDate = time.Date(2025, time.May, 1, 8, 0, 0, 0, time.UTC)
	newer := sampleRequest("req-new")
	newer.StartDate = leave.Date(2025, time.August, 4)
	newer.EndDate = leave.Date(2025, time.August, 8)
	newer.RequestDate = time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, st.SaveRequest(ctx, older))
	require.NoError(t, st.SaveRequest(ctx, newer))

	got, err := st.RequestsForPerson(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, leave.RequestID("req-new"), got[0].ID)
	assert.Equal(t, leave.RequestID("req-old"), got[1].ID)
}

func TestStore_RequestsByStatus(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	pending := sampleRequest("req-1")
	rejected := sampleRequest("req-2")
	rejected.StartDate = leave.Date(2025, time.August, 4)
	rejected.EndDate = leave.Date(2025, time.August, 8)
	rejected.Status = leave.StatusRejected
	require.NoError(t, st.SaveRequest(ctx, pending))
	require.NoError(t, st.SaveRequest(ctx, rejected))

	got, err := st.RequestsByStatus(ctx, leave.StatusPending)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, leave.RequestID("req-1"), got[0].ID)
}

// =============================================================================
// HISTORY
// =============================================================================

func TestStore_History_ChronologicalOrder(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	key := leave.LedgerKey{PersonID: "emp-1", LeaveTypeID: "annual", Year: 2025}

	for i, action := range []leave.HistoryAction{leave.ActionYearInit, leave.ActionAccrual, leave.ActionManualAdjustment} {
		require.NoError(t, st.AppendHistory(ctx, leave.BalanceHistoryEntry{
			ID:            string(rune('a' + i)),
			Key:           key,
			Timestamp:     time.Date(2025, time.January, 1+i, 0, 0, 0, 0, time.UTC),
			Action:        action,
			PreviousValue: decimal.Zero,
			NewValue:      decimal.NewFromInt(int64(i)),
			Delta:         decimal.NewFromInt(int64(i)),
			Reason:        "test entry",
			ActorID:       leave.SystemActorID,
		}))
	}

	entries, err := st.History(ctx, key)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, leave.ActionYearInit, entries[0].Action)
	assert.Equal(t, leave.ActionAccrual, entries[1].Action)
	assert.Equal(t, leave.ActionManualAdjustment, entries[2].Action)
	assert.Equal(t, leave.SystemActorID, entries[2].ActorID)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestStore_WithTx_RollsBackOnError(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	sentinel := errors.New("abort")

	err := st.WithTx(ctx, func(s leave.Store) error {
		if err := s.CreateBalance(ctx, sampleBalance()); err != nil {
			return err
		}
		if err := s.SaveRequest(ctx, sampleRequest("req-1")); err != nil {
			return err
		}
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	_, err = st.GetBalance(ctx, sampleBalance().Key())
	assert.ErrorIs(t, err, leave.ErrLedgerNotFound, "rolled-back balance must not exist")
	_, err = st.GetRequest(ctx, "req-1")
	assert.ErrorIs(t, err, leave.ErrRequestNotFound, "rolled-back request must not exist")
}

func TestStore_WithTx_CommitsAllWrites(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	err := st.WithTx(ctx, func(s leave.Store) error {
		if err := s.CreateBalance(ctx, sampleBalance()); err != nil {
			return err
		}
		return s.SaveRequest(ctx, sampleRequest("req-1"))
	})
	require.NoError(t, err)

	_, err = st.GetBalance(ctx, sampleBalance().Key())
	assert.NoError(t, err)
	_, err = st.GetRequest(ctx, "req-1")
	assert.NoError(t, err)
}

func TestStore_WithTx_UncommittedWritesVisibleInside(t *testing.T) {
	// A create followed by a read inside the same transaction must see the
	// new row, otherwise lazy ledger creation breaks mid-workflow.
	st := newTestStore(t)
	ctx := context.Background()

	err := st.WithTx(ctx, func(s leave.Store) error {
		b := sampleBalance()
		if err := s.CreateBalance(ctx, b); err != nil {
			return err
		}
		got, err := s.GetBalance(ctx, b.Key())
		if err != nil {
			return err
		}
		got.PendingDays = decimal.NewFromInt(2)
		return s.SaveBalance(ctx, got)
	})
	require.NoError(t, err)

	got, err := st.GetBalance(ctx, sampleBalance().Key())
	require.NoError(t, err)
	assert.True(t, got.PendingDays.Equal(decimal.NewFromInt(2)))
}

// =============================================================================
// LEAVE TYPE CATALOG
// =============================================================================

func TestStore_LeaveTypeRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	lt := leave.LeaveType{
		ID:                   "annual",
		Name:                 "Annual Leave",
		MaxDaysPerYear:       decimal.NewFromInt(25),
		RequiresApproval:     true,
		CanCarryOver:         true,
		MaxCarryOverDays:     decimal.NewFromInt(5),
		MonthlyAccrual:       decimal.RequireFromString("2.0833"),
		NotificationLeadDays: 14,
		IsPaid:               true,
		Active:               true,
	}
	require.NoError(t, st.SaveLeaveType(ctx, lt))

	got, err := st.GetLeaveType(ctx, "annual")
	require.NoError(t, err)
	assert.Equal(t, "Annual Leave", got.Name)
	assert.True(t, got.MonthlyAccrual.Equal(decimal.RequireFromString("2.0833")))
	assert.True(t, got.RequiresApproval)
	assert.Equal(t, 14, got.NotificationLeadDays)

	all, err := st.ListLeaveTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_Catalog_UnknownTypeIsValidationError(t *testing.T) {
	st := newTestStore(t)

	_, err := st.Catalog().Get(context.Background(), "sabbatical")

	assert.ErrorIs(t, err, leave.ErrValidation)
}

// The Catalog adapter feeds the domain interface directly.
func TestStore_Catalog_SatisfiesDomainInterface(t *testing.T) {
	st := newTestStore(t)
	var _ leave.Catalog = st.Catalog()
}
