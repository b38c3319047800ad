package resolution

import (
	"time"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/workday"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

const MaxLookbackDays = 31

type RolloverSweepRequest struct {
	OrgID        string `json:"org_id"`
	LookbackDays int    `json:"lookback_days"`
}

func (r *RolloverSweepRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.OrgID) {
		errs = append(errs, validator.ValidationError{
			Field:   "org_id",
			Message: "org_id is required",
		})
	} else if !validator.IsValidID(r.OrgID) {
		errs = append(errs, validator.ValidationError{
			Field:   "org_id",
			Message: "org_id must be a valid UUID",
		})
	}

	// 0 leaves the configured lookback in charge
	if r.LookbackDays != 0 && !validator.IsInRange(r.LookbackDays, 1, MaxLookbackDays) {
		errs = append(errs, validator.ValidationError{
			Field:   "lookback_days",
			Message: "lookback_days must be between 1 and 31",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type SafetySweepRequest struct {
	OrgID string `json:"org_id"`
}

func (r *SafetySweepRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.OrgID) {
		errs = append(errs, validator.ValidationError{
			Field:   "org_id",
			Message: "org_id is required",
		})
	} else if !validator.IsValidID(r.OrgID) {
		errs = append(errs, validator.ValidationError{
			Field:   "org_id",
			Message: "org_id must be a valid UUID",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type WorkdayRequest struct {
	OrgID      string
	EmployeeID string
	Date       string // YYYY-MM-DD
}

func (r *WorkdayRequest) Validate() (time.Time, error) {
	var errs validator.ValidationErrors

	if !validator.IsValidID(r.OrgID) {
		errs = append(errs, validator.ValidationError{Field: "org_id", Message: "org_id must be a valid UUID"})
	}
	if !validator.IsValidID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id must be a valid UUID"})
	}
	date, ok := validator.IsValidDate(r.Date)
	if !ok {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "date must be in YYYY-MM-DD format"})
	}

	if len(errs) > 0 {
		return time.Time{}, errs
	}
	return date, nil
}

type WorkdayResponse struct {
	ID                    string                  `json:"id"`
	OrgID                 string                  `json:"org_id"`
	EmployeeID            string                  `json:"employee_id"`
	Date                  string                  `json:"date"`
	ResolutionStatus      string                  `json:"resolution_status"`
	DataQuality           string                  `json:"data_quality"`
	ResolutionFlags       workday.ResolutionFlags `json:"resolution_flags"`
	OvertimeCalcStatus    string                  `json:"overtime_calc_status"`
	OvertimeCalcUpdatedAt *time.Time              `json:"overtime_calc_updated_at,omitempty"`
	Version               int64                   `json:"version"`
	UpdatedAt             time.Time               `json:"updated_at"`
}

type OpenPunchRequest struct {
	OrgID      string
	EmployeeID string
}

func (r *OpenPunchRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidID(r.OrgID) {
		errs = append(errs, validator.ValidationError{Field: "org_id", Message: "org_id must be a valid UUID"})
	}
	if !validator.IsValidID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id must be a valid UUID"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// OpenPunchPreview shows what the safety sweep would do with an open punch right now.
type OpenPunchPreview struct {
	ClockInID      string          `json:"clock_in_id"`
	ClockInAt      time.Time       `json:"clock_in_at"`
	LocalDate      string          `json:"local_date"`
	OpenHours      decimal.Decimal `json:"open_hours"`
	Action         Action          `json:"action"`
	CloseAt        *time.Time      `json:"close_at,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	WaitUntil      *time.Time      `json:"wait_until,omitempty"`
	MaxOpenHours   int             `json:"max_open_hours"`
	ToleranceMins  int             `json:"tolerance_minutes"`
	AppliedWindows []string        `json:"applied_windows,omitempty"`
}
