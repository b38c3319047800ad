package overtime

import (
	"context"
	"time"
)

// Job asks the overtime worker to recompute one employee-day.
type Job struct {
	OrgID      string
	EmployeeID string
	Date       time.Time // local calendar date, 00:00 UTC
}

// Queue enqueues recomputation jobs. Enqueueing the same key twice is a no-op
// beyond refreshing the request time.
type Queue interface {
	EnqueueOvertimeWorkdayJob(ctx context.Context, job Job) error
}
