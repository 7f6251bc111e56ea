/*
handlers.go - HTTP API handlers for the leave management system

PURPOSE:
  Exposes the leave workflow and ledger via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Requests:
    POST   /api/requests               Submit a leave request
    GET    /api/requests/{id}          Get one request
    PUT    /api/requests/{id}          Edit a pending request
    POST   /api/requests/{id}/approve  Approve
    POST   /api/requests/{id}/reject   Reject (reason required)
    POST   /api/requests/{id}/cancel   Cancel
    GET    /api/requests/pending       All pending requests

  Persons:
    GET    /api/persons/{id}/requests  A person's requests
    GET    /api/persons/{id}/balances  Balance summary for a year
    GET    /api/persons/{id}/balances/{type}  One ledger row
    GET    /api/persons/{id}/overlaps  Conflict probe for a date range

  Leave types:
    GET    /api/leave-types            List catalog

  Admin:
    POST   /api/admin/accruals         Run monthly accrual to a cutoff
    POST   /api/admin/carryover        Run year-end carry-over
    POST   /api/admin/init-year        Open ledgers for a year
    POST   /api/admin/adjustments      Manual balance correction
    GET    /api/admin/history          Ledger audit trail

REQUEST FLOW:
  1. Parse HTTP request
  2. Resolve actor from context (auth middleware)
  3. Call domain logic (workflow, ledger, processors)
  4. Serialize response
  5. Map domain errors to HTTP status

ERROR HANDLING:
  - 400: Validation errors, missing document
  - 403: Unauthorized transition
  - 404: Unknown request or ledger
  - 409: Overlap, insufficient balance, invalid state transition
  - 500: Everything else

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: Actor resolution
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Workflow  *leave.Workflow
	Accrual   *leave.AccrualProcessor
	CarryOver *leave.CarryOverProcessor
	Adjust    *leave.AdjustmentService
	Catalog   leave.Catalog
	Clock     leave.Clock
}

// NewHandler creates a handler around the domain services.
func NewHandler(wf *leave.Workflow, accrual *leave.AccrualProcessor, carry *leave.CarryOverProcessor, adjust *leave.AdjustmentService, catalog leave.Catalog, clock leave.Clock) *Handler {
	if clock == nil {
		clock = leave.SystemClock
	}
	return &Handler{
		Workflow:  wf,
		Accrual:   accrual,
		CarryOver: carry,
		Adjust:    adjust,
		Catalog:   catalog,
		Clock:     clock,
	}
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

// SubmitRequest creates a leave request for the authenticated actor.
// POST /api/requests
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	var dto SubmitRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := time.Parse(dateLayout, dto.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}
	end, err := time.Parse(dateLayout, dto.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date", err)
		return
	}

	req, err := h.Workflow.Create(r.Context(), leave.CreateInput{
		PersonID:     actor.PersonID,
		LeaveTypeID:  leave.LeaveTypeID(dto.LeaveTypeID),
		StartDate:    start,
		EndDate:      end,
		Reason:       dto.Reason,
		DocumentPath: dto.DocumentPath,
	})
	if err != nil {
		writeDomainError(w, "Failed to submit request", err)
		return
	}

	writeJSON(w, http.StatusCreated, toRequestDTO(req, h.Clock()))
}

// GetRequest returns a single request.
// GET /api/requests/{id}
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))

	req, err := h.Workflow.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to load request", err)
		return
	}

	writeJSON(w, http.StatusOK, toRequestDTO(req, h.Clock()))
}

// EditRequest replaces a pending request's dates and reason.
// PUT /api/requests/{id}
func (h *Handler) EditRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}
	id := leave.RequestID(chi.URLParam(r, "id"))

	var dto EditRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	start, err := time.Parse(dateLayout, dto.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}
	end, err := time.Parse(dateLayout, dto.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date", err)
		return
	}

	req, err := h.Workflow.Edit(r.Context(), id, actor, start, end, dto.Reason)
	if err != nil {
		writeDomainError(w, "Failed to edit request", err)
		return
	}

	writeJSON(w, http.StatusOK, toRequestDTO(req, h.Clock()))
}

// ApproveRequest approves a pending request.
// POST /api/requests/{id}/approve
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}
	id := leave.RequestID(chi.URLParam(r, "id"))

	req, err := h.Workflow.Approve(r.Context(), id, actor)
	if err != nil {
		writeDomainError(w, "Failed to approve request", err)
		return
	}

	writeJSON(w, http.StatusOK, toRequestDTO(req, h.Clock()))
}

// RejectRequest rejects a pending request with a reason.
// POST /api/requests/{id}/reject
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}
	id := leave.RequestID(chi.URLParam(r, "id"))

	var dto RejectRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	req, err := h.Workflow.Reject(r.Context(), id, actor, dto.Reason)
	if err != nil {
		writeDomainError(w, "Failed to reject request", err)
		return
	}

	writeJSON(w, http.StatusOK, toRequestDTO(req, h.Clock()))
}

// CancelRequest cancels a pending or not-yet-started approved request.
// POST /api/requests/{id}/cancel
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}
	id := leave.RequestID(chi.URLParam(r, "id"))

	req, err := h.Workflow.Cancel(r.Context(), id, actor)
	if err != nil {
		writeDomainError(w, "Failed to cancel request", err)
		return
	}

	writeJSON(w, http.StatusOK, toRequestDTO(req, h.Clock()))
}

// ListPendingRequests returns all requests awaiting decision.
// GET /api/requests/pending
func (h *Handler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Workflow.ListPending(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list pending requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(reqs, h.Clock()))
}

// =============================================================================
// PERSON HANDLERS
// =============================================================================

// ListPersonRequests returns a person's requests, newest first.
// GET /api/persons/{id}/requests
func (h *Handler) ListPersonRequests(w http.ResponseWriter, r *http.Request) {
	personID := leave.PersonID(chi.URLParam(r, "id"))

	reqs, err := h.Workflow.ListForPerson(r.Context(), personID)
	if err != nil {
		writeDomainError(w, "Failed to list requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(reqs, h.Clock()))
}

// GetBalanceSummary returns the per-type yearly view for a person.
// GET /api/persons/{id}/balances?year=2026
func (h *Handler) GetBalanceSummary(w http.ResponseWriter, r *http.Request) {
	personID := leave.PersonID(chi.URLParam(r, "id"))
	year := h.yearParam(r)

	items, err := h.Workflow.Ledger().Summary(r.Context(), personID, year)
	if err != nil {
		writeDomainError(w, "Failed to load balance summary", err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(personID, year, items))
}

// GetBalance returns one ledger row.
// GET /api/persons/{id}/balances/{type}?year=2026
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	key := leave.LedgerKey{
		PersonID:    leave.PersonID(chi.URLParam(r, "id")),
		LeaveTypeID: leave.LeaveTypeID(chi.URLParam(r, "type")),
		Year:        h.yearParam(r),
	}

	b, err := h.Workflow.Ledger().Get(r.Context(), key)
	if err != nil {
		writeDomainError(w, "Failed to load balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(b))
}

// FindOverlaps probes a date range for conflicting requests.
// GET /api/persons/{id}/overlaps?start=2026-07-01&end=2026-07-10&exclude=<request id>
func (h *Handler) FindOverlaps(w http.ResponseWriter, r *http.Request) {
	personID := leave.PersonID(chi.URLParam(r, "id"))

	start, err := time.Parse(dateLayout, r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start", err)
		return
	}
	end, err := time.Parse(dateLayout, r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end", err)
		return
	}
	exclude := leave.RequestID(r.URL.Query().Get("exclude"))

	overlaps, err := h.Workflow.FindOverlaps(r.Context(), personID, start, end, exclude)
	if err != nil {
		writeDomainError(w, "Failed to find overlaps", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(overlaps, h.Clock()))
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// ListLeaveTypes returns the catalog.
// GET /api/leave-types
func (h *Handler) ListLeaveTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Catalog.List(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list leave types", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveTypeDTOs(types))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

func requireAdmin(w http.ResponseWriter, r *http.Request) (leave.Actor, bool) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required", nil)
		return actor, false
	}
	if actor.Role != leave.RoleAdmin {
		writeError(w, http.StatusForbidden, "Admin role required", nil)
		return actor, false
	}
	return actor, true
}

// TriggerAccruals runs the monthly accrual batch up to a cutoff date
// (default: today).
// POST /api/admin/accruals
func (h *Handler) TriggerAccruals(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var dto BatchTriggerDTO
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	cutoff := h.Clock()
	if dto.CutoffDate != "" {
		var err error
		if cutoff, err = time.Parse(dateLayout, dto.CutoffDate); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid cutoff_date", err)
			return
		}
	}

	res, err := h.Accrual.ProcessMonthlyAccruals(r.Context(), cutoff)
	if err != nil {
		writeDomainError(w, "Accrual batch failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toBatchResultDTO(res))
}

// TriggerCarryOver runs the year-end carry-over batch.
// POST /api/admin/carryover
func (h *Handler) TriggerCarryOver(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var dto BatchTriggerDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if dto.FromYear == 0 || dto.ToYear == 0 {
		writeError(w, http.StatusBadRequest, "from_year and to_year are required", nil)
		return
	}

	res, err := h.CarryOver.ProcessYearEndCarryOver(r.Context(), dto.FromYear, dto.ToYear)
	if err != nil {
		writeDomainError(w, "Carry-over batch failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toBatchResultDTO(res))
}

// InitializeYear opens ledger rows for every active person and type.
// POST /api/admin/init-year
func (h *Handler) InitializeYear(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var dto BatchTriggerDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	year := dto.Year
	if year == 0 {
		year = h.Clock().Year()
	}

	res, err := h.Adjust.InitializeBalancesForYear(r.Context(), year)
	if err != nil {
		writeDomainError(w, "Year initialization failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toBatchResultDTO(res))
}

// AdjustBalance applies an audited manual correction.
// POST /api/admin/adjustments
func (h *Handler) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	var dto AdjustBalanceDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	key := leave.LedgerKey{
		PersonID:    leave.PersonID(dto.PersonID),
		LeaveTypeID: leave.LeaveTypeID(dto.LeaveTypeID),
		Year:        dto.Year,
	}
	delta, err := decimal.NewFromString(dto.Delta)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid delta", err)
		return
	}
	b, err := h.Adjust.Adjust(r.Context(), key, delta, dto.Reason, actor)
	if err != nil {
		writeDomainError(w, "Adjustment failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(b))
}

// GetHistory returns the audit trail for one ledger.
// GET /api/admin/history?person_id=&leave_type_id=&year=
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	key := leave.LedgerKey{
		PersonID:    leave.PersonID(r.URL.Query().Get("person_id")),
		LeaveTypeID: leave.LeaveTypeID(r.URL.Query().Get("leave_type_id")),
		Year:        h.yearParam(r),
	}

	entries, err := h.Adjust.History(r.Context(), key)
	if err != nil {
		writeDomainError(w, "Failed to load history", err)
		return
	}
	writeJSON(w, http.StatusOK, toHistoryDTOs(entries))
}

// =============================================================================
// HELPERS
// =============================================================================

// yearParam reads ?year=, defaulting to the current year.
func (h *Handler) yearParam(r *http.Request) int {
	if s := r.URL.Query().Get("year"); s != "" {
		if y, err := strconv.Atoi(s); err == nil {
			return y
		}
	}
	return h.Clock().Year()
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, leave.ErrValidation), errors.Is(err, leave.ErrMissingDocument):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, leave.ErrUnauthorized):
		writeError(w, http.StatusForbidden, message, err)
	case leave.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case leave.IsClientError(err):
		// Overlap, insufficient balance, state transition, duplicate ledger.
		writeError(w, http.StatusConflict, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
