package alert

import "time"

type AlertType string

const (
	TypeMissingClockOut  AlertType = "MISSING_CLOCK_OUT"
	TypeAutoClosedSafety AlertType = "AUTO_CLOSED_SAFETY"
)

type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusResolved Status = "RESOLVED"
)

// Alert is unique per (EmployeeID, Date, Type).
type Alert struct {
	ID               string
	OrgID            string
	EmployeeID       string
	Date             time.Time
	Type             AlertType
	Severity         Severity
	Title            string
	Description      string
	Status           Status
	WorkdaySummaryID *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
