package resolution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/overtime"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/localtime"
)

// enqueueOvertime asks the overtime worker to recompute each distinct date.
func (s *ResolutionServiceImpl) enqueueOvertime(ctx context.Context, orgID, employeeID string, dates ...time.Time) error {
	if s.overtime == nil {
		return nil
	}

	var errs []error
	done := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		dup := false
		for _, prev := range done {
			if localtime.SameDate(prev, d) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		done = append(done, d)

		err := s.overtime.EnqueueOvertimeWorkdayJob(ctx, overtime.Job{OrgID: orgID, EmployeeID: employeeID, Date: d})
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to enqueue overtime job for %s: %w", d.Format(localtime.DateLayout), err))
		}
	}
	return errors.Join(errs...)
}
