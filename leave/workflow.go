/*
workflow.go - Leave request lifecycle

PURPOSE:
  Ties requests to ledger mutations through the approval state machine:

      Create ──▶ Pending ──▶ Approved ──▶ (InProgress ──▶ Completed)
                    │            │
                    ├──▶ Rejected│
                    └──▶ Cancelled◀──┘  (Approved only before StartDate)

  InProgress and Completed are derived at read time from the stored dates;
  they are never persisted and never an explicit caller transition.

LEDGER COUPLING:
  Create  reserves TotalDays.            Approve commits them.
  Reject  and Cancel(Pending) release.   Cancel(Approved) reverses usage.
  Edit    releases the old reservation and places the new one.

  Each transition bundles the request-status write and its ledger mutation
  into one TxStore.WithTx unit: both commit or neither is persisted.

AUTHORIZATION:
  Approve/Reject require the injected ApprovalPolicy to pass. Cancel is
  open to the requester, their manager, and admins.
*/
package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Workflow orchestrates the request state machine.
type Workflow struct {
	store     TxStore
	catalog   Catalog
	ledger    *BalanceLedger
	conflicts *ConflictDetector
	directory PersonDirectory
	holidays  HolidayCalendar // nil means weekends-only
	approval  ApprovalPolicy
	clock     Clock
}

// WorkflowConfig carries the workflow's collaborators. Holidays and
// Directory are optional; Approval defaults to deny-all when nil.
type WorkflowConfig struct {
	Store     TxStore
	Catalog   Catalog
	Directory PersonDirectory
	Holidays  HolidayCalendar
	Approval  ApprovalPolicy
	Clock     Clock
}

func NewWorkflow(cfg WorkflowConfig) *Workflow {
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock
	}
	approval := cfg.Approval
	if approval == nil {
		approval = func(context.Context, Actor, *LeaveRequest) bool { return false }
	}
	return &Workflow{
		store:     cfg.Store,
		catalog:   cfg.Catalog,
		ledger:    NewBalanceLedger(cfg.Store, cfg.Catalog, clock),
		conflicts: NewConflictDetector(cfg.Store, clock),
		directory: cfg.Directory,
		holidays:  cfg.Holidays,
		approval:  approval,
		clock:     clock,
	}
}

// =============================================================================
// CREATE
// =============================================================================

// CreateInput is the caller's request payload.
type CreateInput struct {
	PersonID     PersonID
	LeaveTypeID  LeaveTypeID
	StartDate    time.Time
	EndDate      time.Time
	Reason       string
	DocumentPath string // "" when no attachment
}

// Create validates the input, computes working days, checks for overlaps,
// reserves balance, and persists the request as Pending. When the leave
// type does not require approval (and any document requirement is met),
// the request is approved in the same transaction.
func (w *Workflow) Create(ctx context.Context, in CreateInput) (*LeaveRequest, error) {
	lt, err := w.catalog.Get(ctx, in.LeaveTypeID)
	if err != nil {
		return nil, err
	}
	if !lt.Active {
		return nil, fmt.Errorf("%w: leave type %q is inactive", ErrValidation, lt.Name)
	}
	if DateOf(in.EndDate).Before(DateOf(in.StartDate)) {
		return nil, fmt.Errorf("%w: end date before start date", ErrValidation)
	}
	if w.directory != nil {
		ok, err := w.directory.Exists(ctx, in.PersonID)
		if err != nil {
			return nil, fmt.Errorf("person lookup: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: unknown person %q", ErrValidation, in.PersonID)
		}
	}

	days := WorkingDays(in.StartDate, in.EndDate, w.holidays)
	if days == 0 {
		return nil, fmt.Errorf("%w: range %s..%s contains no working days",
			ErrValidation, in.StartDate.Format("2006-01-02"), in.EndDate.Format("2006-01-02"))
	}
	totalDays := decimal.NewFromInt(int64(days))

	now := w.clock()
	req := &LeaveRequest{
		ID:           RequestID(uuid.NewString()),
		PersonID:     in.PersonID,
		LeaveTypeID:  in.LeaveTypeID,
		StartDate:    DateOf(in.StartDate),
		EndDate:      DateOf(in.EndDate),
		TotalDays:    totalDays,
		Status:       StatusPending,
		Reason:       in.Reason,
		RequestDate:  now,
		HasDocument:  in.DocumentPath != "",
		DocumentPath: in.DocumentPath,
	}

	err = w.store.WithTx(ctx, func(s Store) error {
		if err := w.conflicts.WithStore(s).Check(ctx, req.PersonID, req.StartDate, req.EndDate, ""); err != nil {
			return err
		}

		ledger := w.ledger.WithStore(s)
		b, err := ledger.GetOrCreate(ctx, req.PersonID, req.LeaveTypeID, req.StartDate.Year())
		if err != nil {
			return err
		}
		if err := ledger.Reserve(ctx, b, totalDays); err != nil {
			return err
		}

		if !lt.RequiresApproval && (!lt.RequiresDocument || req.HasDocument) {
			if err := ledger.Commit(ctx, b, totalDays); err != nil {
				return err
			}
			req.Status = StatusApproved
			req.ApprovedByID = req.PersonID
			req.ApprovedAt = &now
		}

		return s.SaveRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// =============================================================================
// EDIT
// =============================================================================

// Edit replaces a Pending request's date range and reason. The old
// reservation is released and the new one placed atomically; when the new
// reservation fails, nothing is applied and the original request stands.
func (w *Workflow) Edit(ctx context.Context, id RequestID, actor Actor, start, end time.Time, reason string) (*LeaveRequest, error) {
	if DateOf(end).Before(DateOf(start)) {
		return nil, fmt.Errorf("%w: end date before start date", ErrValidation)
	}

	var updated *LeaveRequest
	err := w.store.WithTx(ctx, func(s Store) error {
		req, err := s.GetRequest(ctx, id)
		if err != nil {
			return err
		}
		if actor.PersonID != req.PersonID && actor.Role != RoleAdmin {
			return fmt.Errorf("%w: only the requester may edit", ErrUnauthorized)
		}
		if req.Status != StatusPending {
			return &StateTransitionError{RequestID: id, From: req.EffectiveStatus(w.clock()), Attempted: "edit"}
		}

		days := WorkingDays(start, end, w.holidays)
		if days == 0 {
			return fmt.Errorf("%w: range contains no working days", ErrValidation)
		}
		newDays := decimal.NewFromInt(int64(days))

		if err := w.conflicts.WithStore(s).Check(ctx, req.PersonID, start, end, req.ID); err != nil {
			return err
		}

		ledger := w.ledger.WithStore(s)

		oldBalance, err := ledger.Get(ctx, LedgerKey{PersonID: req.PersonID, LeaveTypeID: req.LeaveTypeID, Year: req.StartDate.Year()})
		if err != nil {
			return err
		}
		if err := ledger.Release(ctx, oldBalance, req.TotalDays); err != nil {
			return err
		}

		newBalance, err := ledger.GetOrCreate(ctx, req.PersonID, req.LeaveTypeID, DateOf(start).Year())
		if err != nil {
			return err
		}
		if err := ledger.Reserve(ctx, newBalance, newDays); err != nil {
			// The transaction rolls back; the original reservation stands.
			return err
		}

		req.StartDate = DateOf(start)
		req.EndDate = DateOf(end)
		req.TotalDays = newDays
		if reason != "" {
			req.Reason = reason
		}
		if err := s.SaveRequest(ctx, req); err != nil {
			return err
		}
		updated = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// =============================================================================
// APPROVE / REJECT / CANCEL
// =============================================================================

// Approve moves a Pending request to Approved and commits its reservation.
// Fails MissingDocument when the leave type demands a document that was
// never attached, and re-runs the overlap check defensively.
func (w *Workflow) Approve(ctx context.Context, id RequestID, actor Actor) (*LeaveRequest, error) {
	var approved *LeaveRequest
	err := w.store.WithTx(ctx, func(s Store) error {
		req, err := s.GetRequest(ctx, id)
		if err != nil {
			return err
		}
		if req.Status != StatusPending {
			return &StateTransitionError{RequestID: id, From: req.EffectiveStatus(w.clock()), Attempted: "approve"}
		}
		if !w.approval(ctx, actor, req) {
			return fmt.Errorf("%w: %s may not approve request %s", ErrUnauthorized, actor.PersonID, id)
		}

		lt, err := w.catalog.Get(ctx, req.LeaveTypeID)
		if err != nil {
			return err
		}
		if lt.RequiresDocument && !req.HasDocument {
			return fmt.Errorf("%w: leave type %q requires a document", ErrMissingDocument, lt.Name)
		}

		// State may have drifted since submission.
		if err := w.conflicts.WithStore(s).Check(ctx, req.PersonID, req.StartDate, req.EndDate, req.ID); err != nil {
			return err
		}

		ledger := w.ledger.WithStore(s)
		b, err := ledger.Get(ctx, LedgerKey{PersonID: req.PersonID, LeaveTypeID: req.LeaveTypeID, Year: req.StartDate.Year()})
		if err != nil {
			return err
		}
		if err := ledger.Commit(ctx, b, req.TotalDays); err != nil {
			return err
		}

		now := w.clock()
		req.Status = StatusApproved
		req.ApprovedByID = actor.PersonID
		req.ApprovedAt = &now
		if err := s.SaveRequest(ctx, req); err != nil {
			return err
		}
		approved = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// Reject moves a Pending request to Rejected and releases its reservation.
// A non-empty rejection reason is required.
func (w *Workflow) Reject(ctx context.Context, id RequestID, actor Actor, reason string) (*LeaveRequest, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}

	var rejected *LeaveRequest
	err := w.store.WithTx(ctx, func(s Store) error {
		req, err := s.GetRequest(ctx, id)
		if err != nil {
			return err
		}
		if req.Status != StatusPending {
			return &StateTransitionError{RequestID: id, From: req.EffectiveStatus(w.clock()), Attempted: "reject"}
		}
		if !w.approval(ctx, actor, req) {
			return fmt.Errorf("%w: %s may not reject request %s", ErrUnauthorized, actor.PersonID, id)
		}

		ledger := w.ledger.WithStore(s)
		b, err := ledger.Get(ctx, LedgerKey{PersonID: req.PersonID, LeaveTypeID: req.LeaveTypeID, Year: req.StartDate.Year()})
		if err != nil {
			return err
		}
		if err := ledger.Release(ctx, b, req.TotalDays); err != nil {
			return err
		}

		req.Status = StatusRejected
		req.RejectionReason = reason
		if err := s.SaveRequest(ctx, req); err != nil {
			return err
		}
		rejected = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

// Cancel cancels a Pending request, or an Approved one before its start
// date. Pending cancellations release the reservation; approved ones
// reverse the committed usage. Open to the requester, their manager, and
// admins.
func (w *Workflow) Cancel(ctx context.Context, id RequestID, actor Actor) (*LeaveRequest, error) {
	var cancelled *LeaveRequest
	err := w.store.WithTx(ctx, func(s Store) error {
		req, err := s.GetRequest(ctx, id)
		if err != nil {
			return err
		}
		if err := w.authorizeCancel(ctx, actor, req); err != nil {
			return err
		}

		now := w.clock()
		effective := req.EffectiveStatus(now)

		ledger := w.ledger.WithStore(s)
		key := LedgerKey{PersonID: req.PersonID, LeaveTypeID: req.LeaveTypeID, Year: req.StartDate.Year()}

		switch effective {
		case StatusPending:
			b, err := ledger.Get(ctx, key)
			if err != nil {
				return err
			}
			if err := ledger.Release(ctx, b, req.TotalDays); err != nil {
				return err
			}
		case StatusApproved:
			b, err := ledger.Get(ctx, key)
			if err != nil {
				return err
			}
			if err := ledger.ReverseUsage(ctx, b, req.TotalDays); err != nil {
				return err
			}
		default:
			// InProgress, Completed, Rejected, Cancelled: nothing to cancel.
			return &StateTransitionError{RequestID: id, From: effective, Attempted: "cancel"}
		}

		req.Status = StatusCancelled
		if err := s.SaveRequest(ctx, req); err != nil {
			return err
		}
		cancelled = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (w *Workflow) authorizeCancel(ctx context.Context, actor Actor, req *LeaveRequest) error {
	if actor.PersonID == req.PersonID || actor.Role == RoleAdmin {
		return nil
	}
	if actor.Role == RoleDepartmentManager && w.directory != nil {
		mgr, err := w.directory.ManagerOf(ctx, req.PersonID)
		if err == nil && mgr == actor.PersonID {
			return nil
		}
	}
	return fmt.Errorf("%w: %s may not cancel request %s", ErrUnauthorized, actor.PersonID, req.ID)
}

// =============================================================================
// QUERIES
// =============================================================================

// Get returns a request by id.
func (w *Workflow) Get(ctx context.Context, id RequestID) (*LeaveRequest, error) {
	return w.store.GetRequest(ctx, id)
}

// ListForPerson returns a person's requests, newest first.
func (w *Workflow) ListForPerson(ctx context.Context, personID PersonID) ([]*LeaveRequest, error) {
	return w.store.RequestsForPerson(ctx, personID)
}

// ListPending returns all requests awaiting a decision, oldest first.
func (w *Workflow) ListPending(ctx context.Context) ([]*LeaveRequest, error) {
	return w.store.RequestsByStatus(ctx, StatusPending)
}

// FindOverlaps exposes the conflict search.
func (w *Workflow) FindOverlaps(ctx context.Context, personID PersonID, start, end time.Time, excludeID RequestID) ([]*LeaveRequest, error) {
	return w.conflicts.FindOverlaps(ctx, personID, start, end, excludeID)
}

// Ledger exposes the balance ledger for read paths.
func (w *Workflow) Ledger() *BalanceLedger { return w.ledger }
