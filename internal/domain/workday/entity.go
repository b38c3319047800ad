package workday

import "time"

// ResolutionStatus classifies how a day's punches were concluded.
// Values are only ever added; unknown values read from storage are preserved as-is.
type ResolutionStatus string

const (
	ResolutionStatusOK                        ResolutionStatus = "OK"
	ResolutionStatusUnresolvedMissingClockOut ResolutionStatus = "UNRESOLVED_MISSING_CLOCK_OUT"
	ResolutionStatusAutoClosedSafety          ResolutionStatus = "AUTO_CLOSED_SAFETY"
)

type DataQuality string

const (
	DataQualityHigh      DataQuality = "HIGH"
	DataQualityLow       DataQuality = "LOW"
	DataQualityEstimated DataQuality = "ESTIMATED"
)

type OvertimeCalcStatus string

const (
	OvertimeCalcStatusDirty OvertimeCalcStatus = "DIRTY"
	OvertimeCalcStatusClean OvertimeCalcStatus = "CLEAN"
)

// WorkdaySummary is the per (org, employee, local date) aggregate.
// Version is the optimistic concurrency token; every write bumps it.
type WorkdaySummary struct {
	ID                    string
	OrgID                 string
	EmployeeID            string
	Date                  time.Time // local calendar date, 00:00 UTC
	ResolutionStatus      ResolutionStatus
	DataQuality           DataQuality
	ResolutionFlags       ResolutionFlags
	OvertimeCalcStatus    OvertimeCalcStatus
	OvertimeCalcUpdatedAt *time.Time
	Version               int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Key identifies a summary row.
type Key struct {
	OrgID      string
	EmployeeID string
	Date       time.Time
}

func (s WorkdaySummary) Key() Key {
	return Key{OrgID: s.OrgID, EmployeeID: s.EmployeeID, Date: s.Date}
}
