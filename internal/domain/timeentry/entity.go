package timeentry

import "time"

type EntryType string

const (
	EntryTypeClockIn    EntryType = "CLOCK_IN"
	EntryTypeClockOut   EntryType = "CLOCK_OUT"
	EntryTypeBreakStart EntryType = "BREAK_START"
	EntryTypeBreakEnd   EntryType = "BREAK_END"
)

// AutoCloseReason records why the system synthesized a closing entry.
type AutoCloseReason string

const (
	AutoCloseReasonMaxOpenHours AutoCloseReason = "MAX_OPEN_HOURS"
	AutoCloseReasonFixedHour    AutoCloseReason = "FIXED_HOUR"
	AutoCloseReasonScheduleEnd  AutoCloseReason = "SCHEDULE_END"
)

// TimeEntry is an append-only clock event. The only permitted mutation is cancellation.
type TimeEntry struct {
	ID              string
	OrgID           string
	EmployeeID      string
	EntryType       EntryType
	Timestamp       time.Time
	IsAutomatic     bool
	IsManual        bool
	AutoCloseReason *AutoCloseReason

	IsCancelled        bool
	CancelledAt        *time.Time
	CancelledBy        *string
	CancellationReason *string

	CreatedAt time.Time
}

// OpenPunch is a clock-in that has no later clock-out.
type OpenPunch struct {
	ClockIn TimeEntry
}

func (p OpenPunch) EmployeeID() string { return p.ClockIn.EmployeeID }
func (p OpenPunch) OrgID() string      { return p.ClockIn.OrgID }
func (p OpenPunch) Since() time.Time   { return p.ClockIn.Timestamp }

// CloseRequest describes the synthetic entries the closing transaction writes.
type CloseRequest struct {
	ClockIn TimeEntry
	CloseAt time.Time
	Reason  AutoCloseReason
}

// CloseResult reports what the closing transaction created.
type CloseResult struct {
	ClockOut TimeEntry
	BreakEnd *TimeEntry
}
