package resolution

import (
	"context"
)

// ResolutionService runs the open punch sweeps and exposes their state.
type ResolutionService interface {
	// SweepRollover flags punches left open from a previous local day
	SweepRollover(ctx context.Context, orgID string, lookbackDays int) (SweepResult, error)

	// SweepSafety closes punches that hit the safety ceiling or the auto-close policy
	SweepSafety(ctx context.Context, orgID string) (SweepResult, error)

	// GetWorkday returns the summary for an employee-day
	GetWorkday(ctx context.Context, req WorkdayRequest) (WorkdayResponse, error)

	// PreviewOpenPunch evaluates the employee's open punch without writing anything
	PreviewOpenPunch(ctx context.Context, req OpenPunchRequest) (OpenPunchPreview, error)
}
