package resolution

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/alert"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/timeentry"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/workday"
)

const clockLayout = "15:04"

func (s *ResolutionServiceImpl) syncMissingClockOutAlert(ctx context.Context, summary workday.WorkdaySummary, punch timeentry.OpenPunch, zone string, now time.Time) error {
	local := s.calendar.Resolve(punch.Since(), zone)
	return s.upsertAlert(ctx, summary, alert.Alert{
		Type:     alert.TypeMissingClockOut,
		Severity: alert.SeverityWarning,
		Title:    "Missing clock-out",
		Description: fmt.Sprintf("Clocked in at %s on %s with no clock-out; open for %s hours.",
			punch.Since().In(s.calendar.Location(zone)).Format(clockLayout),
			local.DateKey(),
			openHours(punch.Since(), now).StringFixed(2)),
	})
}

func (s *ResolutionServiceImpl) syncAutoClosedAlert(ctx context.Context, summary workday.WorkdaySummary, punch timeentry.OpenPunch, closedAt time.Time, reason timeentry.AutoCloseReason, zone string) error {
	severity := alert.SeverityWarning
	if reason == timeentry.AutoCloseReasonMaxOpenHours {
		severity = alert.SeverityCritical
	}
	return s.upsertAlert(ctx, summary, alert.Alert{
		Type:     alert.TypeAutoClosedSafety,
		Severity: severity,
		Title:    "Punch auto-closed",
		Description: fmt.Sprintf("Closed automatically at %s (%s) after %s hours open.",
			closedAt.In(s.calendar.Location(zone)).Format(clockLayout),
			reason,
			openHours(punch.Since(), closedAt).StringFixed(2)),
	})
}

func (s *ResolutionServiceImpl) upsertAlert(ctx context.Context, summary workday.WorkdaySummary, a alert.Alert) error {
	if s.alerts == nil {
		return nil
	}

	a.OrgID = summary.OrgID
	a.EmployeeID = summary.EmployeeID
	a.Date = summary.Date
	a.Status = alert.StatusActive
	if summary.ID != "" {
		id := summary.ID
		a.WorkdaySummaryID = &id
	}

	if _, err := s.alerts.Upsert(ctx, a); err != nil {
		return fmt.Errorf("failed to upsert %s alert: %w", a.Type, err)
	}
	return nil
}
