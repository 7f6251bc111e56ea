/*
errors.go - Centralized error types for the leave engine

PURPOSE:
  All error kinds in one place for consistency and discoverability.
  Errors are typed failure results, never used for control flow; every
  multi-step mutation rolls back entirely when any step fails.

ERROR CATEGORIES:
  1. Validation errors - bad input (date ranges, missing fields)
  2. Policy errors     - business rule violations (overlap, balance, document)
  3. State errors      - illegal workflow or ledger transitions
  4. Store errors      - persistence-level failures

USAGE:
  if errors.Is(err, leave.ErrInsufficientBalance) { ... }

  var ove *leave.OverlapError
  if errors.As(err, &ove) { fmt.Println(ove.Existing.ID) }
*/
package leave

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for malformed input: inverted date ranges,
	// empty required fields, unknown leave types.
	ErrValidation = errors.New("validation failed")

	// ErrOverlappingLeave is returned when a request's date range intersects
	// an existing blocking request for the same person.
	ErrOverlappingLeave = errors.New("overlapping leave request")

	// ErrInsufficientBalance is returned when a reservation would drive the
	// available balance negative and the leave type forbids overuse.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrMissingDocument is returned when approving a request whose leave
	// type requires a supporting document that was never attached.
	ErrMissingDocument = errors.New("missing supporting document")

	// ErrUnauthorized is returned when the acting party may not perform the
	// transition (approval policy said no).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidStateTransition is returned for transitions out of terminal
	// states and for ledger commits without a matching reservation.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrLedgerNotFound is returned when a ledger row does not exist and
	// lazy creation is not permitted.
	ErrLedgerNotFound = errors.New("ledger not found")

	// ErrDuplicateLedger is returned when creating a ledger row for a key
	// that already has one. Exactly one row exists per key.
	ErrDuplicateLedger = errors.New("duplicate ledger")

	// ErrRequestNotFound is returned when a request id resolves to nothing.
	ErrRequestNotFound = errors.New("request not found")

	// ErrPersistence wraps storage-level failures. A timed-out mutation
	// leaves the ledger in its pre-call state.
	ErrPersistence = errors.New("persistence failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError details a balance shortage on Reserve.
type InsufficientBalanceError struct {
	Key       LedgerKey
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for %s/%s/%d: available %s, requested %s",
		e.Key.PersonID, e.Key.LeaveTypeID, e.Key.Year, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// OverlapError details a date-range conflict with an existing request.
type OverlapError struct {
	PersonID PersonID
	Start    time.Time
	End      time.Time
	Existing *LeaveRequest
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("leave %s..%s overlaps request %s (%s..%s, %s)",
		e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"),
		e.Existing.ID,
		e.Existing.StartDate.Format("2006-01-02"), e.Existing.EndDate.Format("2006-01-02"),
		e.Existing.Status)
}

func (e *OverlapError) Unwrap() error { return ErrOverlappingLeave }

// StateTransitionError details an illegal workflow transition.
type StateTransitionError struct {
	RequestID RequestID
	From      RequestStatus
	Attempted string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s request %s in status %s", e.Attempted, e.RequestID, e.From)
}

func (e *StateTransitionError) Unwrap() error { return ErrInvalidStateTransition }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is due to invalid caller input or
// a business rule, as opposed to an infrastructure failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrOverlappingLeave) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrMissingDocument) ||
		errors.Is(err, ErrInvalidStateTransition) ||
		errors.Is(err, ErrDuplicateLedger)
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrLedgerNotFound) || errors.Is(err, ErrRequestNotFound)
}
