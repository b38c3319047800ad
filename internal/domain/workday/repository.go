package workday

import (
	"context"
	"time"
)

type WorkdaySummaryRepository interface {
	// GetByEmployeeAndDate returns the summary or ErrSummaryNotFound
	GetByEmployeeAndDate(ctx context.Context, orgID, employeeID string, date time.Time) (WorkdaySummary, error)

	// UpdateResolution writes status, quality, flags and overtime fields when the stored
	// version equals summary.Version. Returns the row with its new version, or ErrVersionConflict.
	UpdateResolution(ctx context.Context, summary WorkdaySummary) (WorkdaySummary, error)

	// ListPendingEscalations returns AUTO_CLOSED_SAFETY summaries dated within [from, to]
	// whose auto-close escalation has not finished.
	ListPendingEscalations(ctx context.Context, orgID string, from, to time.Time) ([]WorkdaySummary, error)
}

// SummaryUpdater recomputes the aggregate for the local date containing instant.
// A nil summary with nil error means no aggregate applies.
type SummaryUpdater interface {
	UpdateWorkdaySummary(ctx context.Context, employeeID, orgID string, instant time.Time) (*WorkdaySummary, error)
}
