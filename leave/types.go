/*
Package leave implements the leave-request workflow and balance ledger.

PURPOSE:
  This package contains the domain types and services for requesting time
  off, routing requests through an approval state machine, and maintaining
  a per-(person, leave type, year) balance ledger with allocation, accrual,
  carry-over, pending reservations, usage, and manual adjustments.

KEY CONCEPTS IN THIS FILE (types.go):
  - LeaveType:         Static policy per leave type (entitlement, approval
                       and document requirements, accrual and carry-over)
  - LeaveBalance:      The ledger row, keyed by (PersonID, LeaveTypeID, Year)
  - LeaveRequest:      A request to take leave, owned by the requester
  - BalanceHistoryEntry: Append-only audit row for non-request ledger writes

DESIGN PRINCIPLES:
  1. Derivation: Available balance is always computed, never stored
  2. Precision: decimal.Decimal for day quantities (accrual rates like 1.25)
  3. Type safety: Strong typing for person/leave-type identifiers
  4. Auditability: Every out-of-band ledger write produces a history row

SEE ALSO:
  - ledger.go:   The five legal ledger mutators
  - workflow.go: Request lifecycle and state machine
  - store.go:    Persistence and collaborator interfaces
*/
package leave

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PersonID string
type LeaveTypeID string
type RequestID string

// LedgerKey uniquely identifies a balance row. Exactly one row exists per key.
type LedgerKey struct {
	PersonID    PersonID
	LeaveTypeID LeaveTypeID
	Year        int
}

// =============================================================================
// LEAVE TYPE - Static policy for one kind of leave
// =============================================================================

// LeaveType is the policy record for a kind of leave (annual, sick, ...).
// It is immutable once a ledger references it; edits happen through admin
// tooling outside this package.
type LeaveType struct {
	ID                   LeaveTypeID
	Name                 string
	MaxDaysPerYear       decimal.Decimal
	RequiresApproval     bool
	RequiresDocument     bool
	IsPaid               bool
	CanCarryOver         bool
	MaxCarryOverDays     decimal.Decimal
	MonthlyAccrual       decimal.Decimal
	NotificationLeadDays int
	AllowOveruse         bool
	Active               bool
}

// Accrues reports whether balances of this type grow monthly instead of
// being allocated upfront at year initialization.
func (lt LeaveType) Accrues() bool {
	return lt.MonthlyAccrual.IsPositive()
}

// =============================================================================
// LEAVE BALANCE - The ledger row
// =============================================================================

// LeaveBalance is the balance ledger row for one (person, leave type, year).
//
// INVARIANT: Available = Allocated + CarriedOver + Adjustment − Used − Pending.
// Available may be negative (overuse) but is always derived; it is never
// stored independently.
type LeaveBalance struct {
	PersonID    PersonID
	LeaveTypeID LeaveTypeID
	Year        int

	AllocatedDays    decimal.Decimal
	UsedDays         decimal.Decimal
	PendingDays      decimal.Decimal
	CarriedOverDays  decimal.Decimal
	AccruedToDate    decimal.Decimal
	LastAccrualDate  time.Time // zero when no accrual has run this year
	ManualAdjustment decimal.Decimal
}

// Key returns the ledger key for this row.
func (b *LeaveBalance) Key() LedgerKey {
	return LedgerKey{PersonID: b.PersonID, LeaveTypeID: b.LeaveTypeID, Year: b.Year}
}

// Available returns the derived spendable balance. May be negative.
func (b *LeaveBalance) Available() decimal.Decimal {
	return b.AllocatedDays.
		Add(b.CarriedOverDays).
		Add(b.ManualAdjustment).
		Sub(b.UsedDays).
		Sub(b.PendingDays)
}

// IsOverused reports whether usage has driven the balance negative.
func (b *LeaveBalance) IsOverused() bool {
	return b.Available().IsNegative()
}

// =============================================================================
// LEAVE REQUEST - One request through the approval state machine
// =============================================================================

type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusApproved   RequestStatus = "approved"
	StatusRejected   RequestStatus = "rejected"
	StatusCancelled  RequestStatus = "cancelled"
	StatusInProgress RequestStatus = "in_progress" // derived, never persisted
	StatusCompleted  RequestStatus = "completed"   // derived, never persisted
)

// IsTerminal reports whether no further transition may leave this status.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusCancelled || s == StatusCompleted
}

// LeaveRequest is a request to take leave over an inclusive date range.
// TotalDays is the working-day count computed at creation time and is
// immutable once the request leaves Pending.
type LeaveRequest struct {
	ID          RequestID
	PersonID    PersonID
	LeaveTypeID LeaveTypeID
	StartDate   time.Time
	EndDate     time.Time
	TotalDays   decimal.Decimal

	// Persisted status: pending, approved, rejected, cancelled.
	// InProgress/Completed are derived at read time, see EffectiveStatus.
	Status RequestStatus

	Reason          string
	RequestDate     time.Time
	ApprovedByID    PersonID
	ApprovedAt      *time.Time
	RejectionReason string
	HasDocument     bool
	DocumentPath    string
}

// EffectiveStatus derives InProgress/Completed for approved requests by
// comparing the stored dates to now. All other statuses pass through.
func (r *LeaveRequest) EffectiveStatus(now time.Time) RequestStatus {
	if r.Status != StatusApproved {
		return r.Status
	}
	day := DateOf(now)
	switch {
	case day.After(DateOf(r.EndDate)):
		return StatusCompleted
	case !day.Before(DateOf(r.StartDate)):
		return StatusInProgress
	default:
		return StatusApproved
	}
}

// Blocks reports whether this request occupies its date range for overlap
// purposes: Pending, Approved and (derived) InProgress block; terminal
// statuses do not.
func (r *LeaveRequest) Blocks(now time.Time) bool {
	switch r.EffectiveStatus(now) {
	case StatusPending, StatusApproved, StatusInProgress:
		return true
	}
	return false
}

// =============================================================================
// BALANCE HISTORY - Append-only audit trail for out-of-band ledger writes
// =============================================================================

type HistoryAction string

const (
	ActionAccrual          HistoryAction = "accrual"
	ActionCarryOver        HistoryAction = "carry_over"
	ActionManualAdjustment HistoryAction = "manual_adjustment"
	ActionYearInit         HistoryAction = "year_init"
)

// BalanceHistoryEntry records one ledger mutation made outside the request
// workflow (accrual, carry-over, manual adjustment, year initialization).
// Request-driven Reserve/Commit/Release writes are traceable through the
// request itself and do not produce history rows.
type BalanceHistoryEntry struct {
	ID            string
	Key           LedgerKey
	Timestamp     time.Time
	Action        HistoryAction
	PreviousValue decimal.Decimal
	NewValue      decimal.Decimal
	Delta         decimal.Decimal
	Reason        string
	ActorID       PersonID
}

// =============================================================================
// ACTORS - Caller identity for authorization
// =============================================================================

type Role string

const (
	RoleAdmin             Role = "admin"
	RoleDepartmentManager Role = "department_manager"
	RoleEmployee          Role = "employee"
)

// Actor is the resolved identity of a caller.
type Actor struct {
	PersonID PersonID
	Role     Role
}

// SystemActorID stamps history rows written by batch processors rather
// than a person.
const SystemActorID PersonID = "system"

// ApprovalPolicy decides whether an actor may approve or reject a request.
// Injected into the workflow so role resolution stays outside this package.
type ApprovalPolicy func(ctx context.Context, actor Actor, req *LeaveRequest) bool
