package resolution

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/timeentry"
)

// locateOpenPunch returns the employee's latest clock-in when nothing closed it yet.
// Cancelled entries never count in either direction.
func (s *ResolutionServiceImpl) locateOpenPunch(ctx context.Context, employeeID string) (*timeentry.OpenPunch, error) {
	clockIn, err := s.entries.GetLatestClockIn(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest clock-in: %w", err)
	}
	if clockIn == nil || clockIn.IsCancelled {
		return nil, nil
	}

	closed, err := s.entries.HasClockOutAfter(ctx, employeeID, clockIn.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to check clock-out: %w", err)
	}
	if closed {
		return nil, nil
	}

	return &timeentry.OpenPunch{ClockIn: *clockIn}, nil
}
