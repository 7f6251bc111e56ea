/*
Package factory provides JSON to Go leave type conversion.

PURPOSE:
  Converts JSON leave type definitions into leave.LeaveType values. This
  enables catalog configuration without code changes - HR can define
  leave types in JSON, and the factory creates the proper Go structs.

WHY JSON?
  - Non-developers can modify leave types
  - Easy integration with admin UI
  - Version control for catalog definitions
  - Database storage of type configs

JSON SCHEMA:
  {
    "id": "annual",
    "name": "Annual Leave",
    "max_days_per_year": 25,
    "requires_approval": true,
    "can_carry_over": true,
    "max_carry_over_days": 5,
    "monthly_accrual": 2.0833,
    "allow_overuse": false
  }

USAGE:
  lt, err := factory.ParseLeaveType(jsonString)

  // Or from the built-in presets (recommended starting point):
  catalog := leave.NewStaticCatalog(factory.StandardCatalog()...)

SEE ALSO:
  - leave/types.go: LeaveType definition
  - leave/catalog.go: Catalog interface and in-memory implementation
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// LeaveTypeJSON is the JSON representation of a leave type.
type LeaveTypeJSON struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	MaxDaysPerYear       float64 `json:"max_days_per_year"`
	RequiresApproval     *bool   `json:"requires_approval,omitempty"` // default true
	RequiresDocument     bool    `json:"requires_document,omitempty"`
	IsPaid               *bool   `json:"is_paid,omitempty"` // default true
	CanCarryOver         bool    `json:"can_carry_over,omitempty"`
	MaxCarryOverDays     float64 `json:"max_carry_over_days,omitempty"`
	MonthlyAccrual       float64 `json:"monthly_accrual,omitempty"`
	NotificationLeadDays int     `json:"notification_lead_days,omitempty"`
	AllowOveruse         bool    `json:"allow_overuse,omitempty"`
	Active               *bool   `json:"active,omitempty"` // default true
}

// ParseLeaveType converts a JSON definition into a LeaveType.
func ParseLeaveType(jsonStr string) (leave.LeaveType, error) {
	var def LeaveTypeJSON
	if err := json.Unmarshal([]byte(jsonStr), &def); err != nil {
		return leave.LeaveType{}, fmt.Errorf("invalid leave type JSON: %w", err)
	}
	return FromJSON(def)
}

// ParseCatalog converts a JSON array of definitions.
func ParseCatalog(jsonStr string) ([]leave.LeaveType, error) {
	var defs []LeaveTypeJSON
	if err := json.Unmarshal([]byte(jsonStr), &defs); err != nil {
		return nil, fmt.Errorf("invalid catalog JSON: %w", err)
	}
	types := make([]leave.LeaveType, 0, len(defs))
	for _, def := range defs {
		lt, err := FromJSON(def)
		if err != nil {
			return nil, err
		}
		types = append(types, lt)
	}
	return types, nil
}

// FromJSON validates a definition and applies defaults.
func FromJSON(def LeaveTypeJSON) (leave.LeaveType, error) {
	if def.ID == "" {
		return leave.LeaveType{}, fmt.Errorf("%w: leave type id is required", leave.ErrValidation)
	}
	if def.Name == "" {
		return leave.LeaveType{}, fmt.Errorf("%w: leave type name is required", leave.ErrValidation)
	}
	if def.MaxDaysPerYear < 0 || def.MaxCarryOverDays < 0 || def.MonthlyAccrual < 0 {
		return leave.LeaveType{}, fmt.Errorf("%w: day limits must not be negative", leave.ErrValidation)
	}

	return leave.LeaveType{
		ID:                   leave.LeaveTypeID(def.ID),
		Name:                 def.Name,
		MaxDaysPerYear:       decimal.NewFromFloat(def.MaxDaysPerYear),
		RequiresApproval:     boolOr(def.RequiresApproval, true),
		RequiresDocument:     def.RequiresDocument,
		IsPaid:               boolOr(def.IsPaid, true),
		CanCarryOver:         def.CanCarryOver,
		MaxCarryOverDays:     decimal.NewFromFloat(def.MaxCarryOverDays),
		MonthlyAccrual:       decimal.NewFromFloat(def.MonthlyAccrual),
		NotificationLeadDays: def.NotificationLeadDays,
		AllowOveruse:         def.AllowOveruse,
		Active:               boolOr(def.Active, true),
	}, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// =============================================================================
// PRESETS
// =============================================================================

// StandardCatalog returns the usual starting set: accruing annual leave
// with capped carry-over, sick leave with a document requirement and
// overuse allowed, and unpaid leave.
func StandardCatalog() []leave.LeaveType {
	return []leave.LeaveType{
		AnnualLeave(),
		SickLeave(),
		UnpaidLeave(),
	}
}

// AnnualLeave accrues 25 days over the year, carries up to 5 into the
// next one.
func AnnualLeave() leave.LeaveType {
	return leave.LeaveType{
		ID:               "annual",
		Name:             "Annual Leave",
		MaxDaysPerYear:   decimal.NewFromInt(25),
		RequiresApproval: true,
		IsPaid:           true,
		CanCarryOver:     true,
		MaxCarryOverDays: decimal.NewFromInt(5),
		// 25 days spread over 12 months
		MonthlyAccrual:       decimal.RequireFromString("2.0833"),
		NotificationLeadDays: 14,
		Active:               true,
	}
}

// SickLeave grants its full allocation up front, needs a certificate,
// and may run negative.
func SickLeave() leave.LeaveType {
	return leave.LeaveType{
		ID:               "sick",
		Name:             "Sick Leave",
		MaxDaysPerYear:   decimal.NewFromInt(10),
		RequiresApproval: true,
		RequiresDocument: true,
		IsPaid:           true,
		AllowOveruse:     true,
		Active:           true,
	}
}

// UnpaidLeave has no balance pressure at all.
func UnpaidLeave() leave.LeaveType {
	return leave.LeaveType{
		ID:               "unpaid",
		Name:             "Unpaid Leave",
		MaxDaysPerYear:   decimal.NewFromInt(30),
		RequiresApproval: true,
		IsPaid:           false,
		AllowOveruse:     true,
		Active:           true,
	}
}
