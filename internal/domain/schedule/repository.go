package schedule

import (
	"context"
	"time"
)

// Provider yields an employee's expected work slots for the local date containing dateAtNoon.
// A nil schedule with nil error means the employee is not scheduled that day.
type Provider interface {
	GetEffectiveSchedule(ctx context.Context, employeeID string, dateAtNoon time.Time) (*EffectiveSchedule, error)
}
