package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/overtime"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/database"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/localtime"
	"github.com/google/uuid"
)

type overtimeQueueImpl struct {
	db *database.DB
}

func NewOvertimeQueue(db *database.DB) overtime.Queue {
	return &overtimeQueueImpl{db: db}
}

// EnqueueOvertimeWorkdayJob implements overtime.Queue.
// A pending job for the same employee-day only has its request time refreshed.
func (o *overtimeQueueImpl) EnqueueOvertimeWorkdayJob(ctx context.Context, job overtime.Job) error {
	q := GetQuerier(ctx, o.db)

	query := `
		INSERT INTO overtime_workday_jobs (id, company_id, employee_id, work_date, status, requested_at)
		VALUES ($1, $2, $3, $4::date, 'pending', NOW())
		ON CONFLICT (company_id, employee_id, work_date)
		DO UPDATE SET status = 'pending', requested_at = NOW()
	`

	_, err := q.Exec(ctx, query, uuid.New().String(), job.OrgID, job.EmployeeID, job.Date.Format(localtime.DateLayout))
	if err != nil {
		return fmt.Errorf("failed to enqueue overtime job: %w", err)
	}

	return nil
}
