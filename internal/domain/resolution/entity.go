package resolution

import (
	"time"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/timeentry"
)

// Action is the outcome of evaluating one open punch.
type Action string

const (
	ActionNone             Action = "NONE"
	ActionWait             Action = "WAIT"
	ActionForceCloseSafety Action = "FORCE_CLOSE_SAFETY"
	ActionAutoClosePolicy  Action = "AUTO_CLOSE_POLICY"
)

// Decision tells the sweep what to do with an open punch.
type Decision struct {
	Action    Action
	CloseAt   time.Time
	Reason    timeentry.AutoCloseReason
	WaitUntil *time.Time
}

// Closes reports whether the decision creates a synthetic clock-out.
func (d Decision) Closes() bool {
	return d.Action == ActionForceCloseSafety || d.Action == ActionAutoClosePolicy
}

type SweepKind string

const (
	SweepKindRollover SweepKind = "rollover"
	SweepKindSafety   SweepKind = "safety"
)

// SweepResult summarizes one organization sweep.
type SweepResult struct {
	OrgID      string    `json:"org_id"`
	Kind       SweepKind `json:"kind"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Scanned    int       `json:"scanned"`
	Flagged    int       `json:"flagged"`
	Closed     int       `json:"closed"`
	Skipped    int       `json:"skipped"`
	Escalated  int       `json:"escalated"`
	Failed     int       `json:"failed"`
}
