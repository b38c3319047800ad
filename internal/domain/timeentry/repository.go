package timeentry

import (
	"context"
	"time"
)

// TimeEntryRepository is the append-only store of clock events.
type TimeEntryRepository interface {
	// Create appends a new entry
	Create(ctx context.Context, entry TimeEntry) (TimeEntry, error)

	// GetLatestClockIn returns the employee's latest non-cancelled CLOCK_IN, or nil
	GetLatestClockIn(ctx context.Context, employeeID string) (*TimeEntry, error)

	// HasClockOutAfter reports whether a non-cancelled CLOCK_OUT exists strictly after since
	HasClockOutAfter(ctx context.Context, employeeID string, since time.Time) (bool, error)

	// GetLastEntryAfter returns the chronologically last non-cancelled entry at or after since, or nil
	GetLastEntryAfter(ctx context.Context, employeeID string, since time.Time) (*TimeEntry, error)

	// LockForClose locks the clock-in row for the remainder of the transaction
	LockForClose(ctx context.Context, clockInID string) (TimeEntry, error)

	// ListOpenClockIns lists non-cancelled CLOCK_INs in [from, to) of an organization
	// that have no later CLOCK_OUT, newest first
	ListOpenClockIns(ctx context.Context, orgID string, from, to time.Time) ([]TimeEntry, error)
}
