/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request bodies are also *DTO here; handlers decode them directly

VALIDATION:
  Validation is done in handlers and the domain layer, not in DTOs. DTOs
  are pure data carriers.

DECIMALS:
  Day amounts cross the wire as strings ("2.0833"), never floats, except
  the admin adjustment delta where float input is tolerated for UI
  convenience.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/leavetype.go: LeaveTypeJSON type
*/
package api

import (
	"time"

	"github.com/warp/leave-engine/leave"
)

const dateLayout = "2006-01-02"

// =============================================================================
// REQUESTS
// =============================================================================

// SubmitRequestDTO is the body for creating a leave request.
type SubmitRequestDTO struct {
	LeaveTypeID  string `json:"leave_type_id"`
	StartDate    string `json:"start_date"` // YYYY-MM-DD
	EndDate      string `json:"end_date"`   // YYYY-MM-DD
	Reason       string `json:"reason,omitempty"`
	DocumentPath string `json:"document_path,omitempty"`
}

// EditRequestDTO is the body for editing a pending request.
type EditRequestDTO struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason,omitempty"`
}

// RejectRequestDTO carries the mandatory rejection reason.
type RejectRequestDTO struct {
	Reason string `json:"reason"`
}

// RequestDTO represents a leave request in API responses. Status is the
// effective status, so approved requests show as in_progress or
// completed once their dates pass.
type RequestDTO struct {
	ID              string  `json:"id"`
	PersonID        string  `json:"person_id"`
	LeaveTypeID     string  `json:"leave_type_id"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	TotalDays       string  `json:"total_days"`
	Status          string  `json:"status"`
	Reason          string  `json:"reason,omitempty"`
	RequestDate     string  `json:"request_date"`
	ApprovedBy      string  `json:"approved_by,omitempty"`
	ApprovedAt      *string `json:"approved_at,omitempty"`
	RejectionReason string  `json:"rejection_reason,omitempty"`
	HasDocument     bool    `json:"has_document"`
	DocumentPath    string  `json:"document_path,omitempty"`
}

func toRequestDTO(r *leave.LeaveRequest, now time.Time) RequestDTO {
	dto := RequestDTO{
		ID:              string(r.ID),
		PersonID:        string(r.PersonID),
		LeaveTypeID:     string(r.LeaveTypeID),
		StartDate:       r.StartDate.Format(dateLayout),
		EndDate:         r.EndDate.Format(dateLayout),
		TotalDays:       r.TotalDays.String(),
		Status:          string(r.EffectiveStatus(now)),
		Reason:          r.Reason,
		RequestDate:     r.RequestDate.Format(time.RFC3339),
		ApprovedBy:      string(r.ApprovedByID),
		RejectionReason: r.RejectionReason,
		HasDocument:     r.HasDocument,
		DocumentPath:    r.DocumentPath,
	}
	if r.ApprovedAt != nil {
		s := r.ApprovedAt.Format(time.RFC3339)
		dto.ApprovedAt = &s
	}
	return dto
}

func toRequestDTOs(rs []*leave.LeaveRequest, now time.Time) []RequestDTO {
	dtos := make([]RequestDTO, len(rs))
	for i, r := range rs {
		dtos[i] = toRequestDTO(r, now)
	}
	return dtos
}

// =============================================================================
// BALANCES
// =============================================================================

// BalanceDTO represents a single ledger row.
type BalanceDTO struct {
	PersonID        string `json:"person_id"`
	LeaveTypeID     string `json:"leave_type_id"`
	Year            int    `json:"year"`
	Allocated       string `json:"allocated"`
	Used            string `json:"used"`
	Pending         string `json:"pending"`
	CarriedOver     string `json:"carried_over"`
	AccruedToDate   string `json:"accrued_to_date"`
	LastAccrualDate string `json:"last_accrual_date,omitempty"`
	Adjustment      string `json:"adjustment"`
	Available       string `json:"available"`
}

func toBalanceDTO(b *leave.LeaveBalance) BalanceDTO {
	dto := BalanceDTO{
		PersonID:      string(b.PersonID),
		LeaveTypeID:   string(b.LeaveTypeID),
		Year:          b.Year,
		Allocated:     b.AllocatedDays.String(),
		Used:          b.UsedDays.String(),
		Pending:       b.PendingDays.String(),
		CarriedOver:   b.CarriedOverDays.String(),
		AccruedToDate: b.AccruedToDate.String(),
		Adjustment:    b.ManualAdjustment.String(),
		Available:     b.Available().String(),
	}
	if !b.LastAccrualDate.IsZero() {
		dto.LastAccrualDate = b.LastAccrualDate.Format(dateLayout)
	}
	return dto
}

// BalanceSummaryDTO is the per-person yearly view across leave types.
type BalanceSummaryDTO struct {
	PersonID string           `json:"person_id"`
	Year     int              `json:"year"`
	Items    []SummaryItemDTO `json:"items"`
}

// SummaryItemDTO is one leave type's position in a summary.
type SummaryItemDTO struct {
	LeaveTypeID   string `json:"leave_type_id"`
	LeaveTypeName string `json:"leave_type_name"`
	Allocated     string `json:"allocated"`
	CarriedOver   string `json:"carried_over"`
	Adjustment    string `json:"adjustment"`
	Used          string `json:"used"`
	Pending       string `json:"pending"`
	Accrued       string `json:"accrued"`
	Available     string `json:"available"`
}

func toSummaryDTO(personID leave.PersonID, year int, items []leave.BalanceSummaryItem) BalanceSummaryDTO {
	dto := BalanceSummaryDTO{
		PersonID: string(personID),
		Year:     year,
		Items:    make([]SummaryItemDTO, len(items)),
	}
	for i, it := range items {
		dto.Items[i] = SummaryItemDTO{
			LeaveTypeID:   string(it.LeaveTypeID),
			LeaveTypeName: it.LeaveTypeName,
			Allocated:     it.Allocated.String(),
			CarriedOver:   it.CarriedOver.String(),
			Adjustment:    it.Adjustment.String(),
			Used:          it.Used.String(),
			Pending:       it.Pending.String(),
			Accrued:       it.Accrued.String(),
			Available:     it.Available.String(),
		}
	}
	return dto
}

// =============================================================================
// ADMIN
// =============================================================================

// AdjustBalanceDTO is the body for a manual balance correction.
type AdjustBalanceDTO struct {
	PersonID    string `json:"person_id"`
	LeaveTypeID string `json:"leave_type_id"`
	Year        int    `json:"year"`
	Delta       string `json:"delta"` // decimal string, may be negative
	Reason      string `json:"reason"`
}

// BatchTriggerDTO selects the window for a batch run.
type BatchTriggerDTO struct {
	CutoffDate string `json:"cutoff_date,omitempty"` // accrual
	FromYear   int    `json:"from_year,omitempty"`   // carry-over
	ToYear     int    `json:"to_year,omitempty"`
	Year       int    `json:"year,omitempty"` // init
}

// BatchResultDTO reports a batch outcome.
type BatchResultDTO struct {
	Succeeded int               `json:"succeeded"`
	Skipped   int               `json:"skipped"`
	Failed    []BatchFailureDTO `json:"failed"`
}

// BatchFailureDTO names one ledger a batch could not process.
type BatchFailureDTO struct {
	PersonID    string `json:"person_id"`
	LeaveTypeID string `json:"leave_type_id"`
	Year        int    `json:"year"`
	Error       string `json:"error"`
}

func toBatchResultDTO(res *leave.BatchResult) BatchResultDTO {
	dto := BatchResultDTO{
		Succeeded: res.Succeeded,
		Skipped:   res.Skipped,
		Failed:    make([]BatchFailureDTO, len(res.Failed)),
	}
	for i, f := range res.Failed {
		dto.Failed[i] = BatchFailureDTO{
			PersonID:    string(f.Key.PersonID),
			LeaveTypeID: string(f.Key.LeaveTypeID),
			Year:        f.Key.Year,
			Error:       f.Err.Error(),
		}
	}
	return dto
}

// HistoryEntryDTO is one audit row.
type HistoryEntryDTO struct {
	ID            string `json:"id"`
	Timestamp     string `json:"timestamp"`
	Action        string `json:"action"`
	PreviousValue string `json:"previous_value"`
	NewValue      string `json:"new_value"`
	Delta         string `json:"delta"`
	Reason        string `json:"reason,omitempty"`
	ActorID       string `json:"actor_id"`
}

func toHistoryDTOs(entries []leave.BalanceHistoryEntry) []HistoryEntryDTO {
	dtos := make([]HistoryEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = HistoryEntryDTO{
			ID:            e.ID,
			Timestamp:     e.Timestamp.Format(time.RFC3339),
			Action:        string(e.Action),
			PreviousValue: e.PreviousValue.String(),
			NewValue:      e.NewValue.String(),
			Delta:         e.Delta.String(),
			Reason:        e.Reason,
			ActorID:       string(e.ActorID),
		}
	}
	return dtos
}

// LeaveTypeDTO is the API shape of a catalog entry. Decimal limits are
// rendered as strings so clients never see float rounding.
type LeaveTypeDTO struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	MaxDaysPerYear       string `json:"max_days_per_year"`
	RequiresApproval     bool   `json:"requires_approval"`
	RequiresDocument     bool   `json:"requires_document"`
	IsPaid               bool   `json:"is_paid"`
	CanCarryOver         bool   `json:"can_carry_over"`
	MaxCarryOverDays     string `json:"max_carry_over_days"`
	MonthlyAccrual       string `json:"monthly_accrual"`
	NotificationLeadDays int    `json:"notification_lead_days"`
	AllowOveruse         bool   `json:"allow_overuse"`
	Active               bool   `json:"active"`
}

func toLeaveTypeDTOs(types []leave.LeaveType) []LeaveTypeDTO {
	dtos := make([]LeaveTypeDTO, len(types))
	for i, lt := range types {
		dtos[i] = LeaveTypeDTO{
			ID:                   string(lt.ID),
			Name:                 lt.Name,
			MaxDaysPerYear:       lt.MaxDaysPerYear.String(),
			RequiresApproval:     lt.RequiresApproval,
			RequiresDocument:     lt.RequiresDocument,
			IsPaid:               lt.IsPaid,
			CanCarryOver:         lt.CanCarryOver,
			MaxCarryOverDays:     lt.MaxCarryOverDays.String(),
			MonthlyAccrual:       lt.MonthlyAccrual.String(),
			NotificationLeadDays: lt.NotificationLeadDays,
			AllowOveruse:         lt.AllowOveruse,
			Active:               lt.Active,
		}
	}
	return dtos
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
