package resolution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/notification"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/policy"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/resolution"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/timeentry"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/workday"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/localtime"
)

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeFlagged
	outcomeClosed
	outcomeFailed
)

// SweepRollover implements resolution.ResolutionService.
func (s *ResolutionServiceImpl) SweepRollover(ctx context.Context, orgID string, lookbackDays int) (resolution.SweepResult, error) {
	if orgID == "" {
		return resolution.SweepResult{}, resolution.ErrOrganizationRequired
	}
	if lookbackDays <= 0 {
		lookbackDays = s.cfg.LookbackDays
	}

	now := s.now()
	result := resolution.SweepResult{OrgID: orgID, Kind: resolution.SweepKindRollover, StartedAt: now}

	org, err := s.policies.Organization(ctx, orgID)
	if err != nil {
		return result, fmt.Errorf("failed to load organization policy: %w", err)
	}

	today := s.calendar.Resolve(now, org.Timezone)
	from := s.calendar.At(today.Date, -lookbackDays*localtime.MinutesPerDay, org.Timezone)

	candidates, err := s.entries.ListOpenClockIns(ctx, orgID, from, today.DayStart)
	if err != nil {
		return result, fmt.Errorf("failed to list open clock-ins: %w", err)
	}

	for _, employeeID := range uniqueEmployees(candidates) {
		if err := ctx.Err(); err != nil {
			result.FinishedAt = s.now()
			return result, err
		}
		result.Scanned++

		out, err := s.rolloverEmployee(ctx, org, employeeID, today, now)
		tally(&result, out, err, employeeID)
	}

	if err := s.resumeEscalations(ctx, org, today.Date.AddDate(0, 0, -lookbackDays), today.Date, now, &result); err != nil {
		slog.Error("Resolution: failed to resume pending escalations",
			"org_id", orgID,
			"error", err)
	}

	result.FinishedAt = s.now()
	slog.Info("Resolution: rollover sweep finished",
		"org_id", orgID,
		"scanned", result.Scanned,
		"flagged", result.Flagged,
		"escalated", result.Escalated,
		"skipped", result.Skipped,
		"failed", result.Failed)
	return result, nil
}

// SweepSafety implements resolution.ResolutionService.
func (s *ResolutionServiceImpl) SweepSafety(ctx context.Context, orgID string) (resolution.SweepResult, error) {
	if orgID == "" {
		return resolution.SweepResult{}, resolution.ErrOrganizationRequired
	}

	now := s.now()
	result := resolution.SweepResult{OrgID: orgID, Kind: resolution.SweepKindSafety, StartedAt: now}

	candidates, err := s.entries.ListOpenClockIns(ctx, orgID, now.Add(-s.cfg.SafetyScanWindow), now)
	if err != nil {
		return result, fmt.Errorf("failed to list open clock-ins: %w", err)
	}

	for _, employeeID := range uniqueEmployees(candidates) {
		if err := ctx.Err(); err != nil {
			result.FinishedAt = s.now()
			return result, err
		}
		result.Scanned++

		out, err := s.safetyEmployee(ctx, orgID, employeeID, now)
		tally(&result, out, err, employeeID)
	}

	result.FinishedAt = s.now()
	slog.Info("Resolution: safety sweep finished",
		"org_id", orgID,
		"scanned", result.Scanned,
		"closed", result.Closed,
		"skipped", result.Skipped,
		"failed", result.Failed)
	return result, nil
}

// rolloverEmployee flags the employee's open punch when it started before today.
func (s *ResolutionServiceImpl) rolloverEmployee(ctx context.Context, org policy.OrganizationPolicy, employeeID string, today localtime.LocalTime, now time.Time) (outcome, error) {
	punch, err := s.locateOpenPunch(ctx, employeeID)
	if err != nil {
		return outcomeFailed, err
	}
	if punch == nil || punch.OrgID() != org.OrgID || !punch.Since().Before(today.DayStart) {
		return outcomeSkipped, nil
	}

	summary, err := s.summaryUpdater.UpdateWorkdaySummary(ctx, employeeID, org.OrgID, punch.Since())
	if err != nil {
		return outcomeFailed, fmt.Errorf("failed to update workday summary: %w", err)
	}
	if summary == nil {
		slog.Debug("Resolution: no workday summary for open punch",
			"employee_id", employeeID,
			"clock_in_id", punch.ClockIn.ID)
		return outcomeSkipped, nil
	}

	updated, transitioned, err := s.markUnresolved(ctx, summary.Key(), now)
	if errors.Is(err, workday.ErrTransitionRejected) {
		// Already auto-closed; that outcome is never downgraded.
		return outcomeSkipped, nil
	}
	if err != nil {
		return outcomeFailed, err
	}

	var errs []error
	if err := s.syncMissingClockOutAlert(ctx, updated, *punch, org.Timezone, now); err != nil {
		errs = append(errs, err)
	}
	if err := s.escalate(ctx, updated, org, s.unresolvedNotice(*punch, org.Timezone), now); err != nil {
		errs = append(errs, err)
	}
	if transitioned {
		if err := s.enqueueOvertime(ctx, org.OrgID, employeeID, updated.Date); err != nil {
			errs = append(errs, err)
		}
	}
	return outcomeFlagged, errors.Join(errs...)
}

// safetyEmployee closes the employee's open punch when the decision engine says so.
func (s *ResolutionServiceImpl) safetyEmployee(ctx context.Context, orgID, employeeID string, now time.Time) (outcome, error) {
	punch, err := s.locateOpenPunch(ctx, employeeID)
	if err != nil {
		return outcomeFailed, err
	}
	if punch == nil || punch.OrgID() != orgID {
		return outcomeSkipped, nil
	}

	eff, err := s.policies.Effective(ctx, orgID, employeeID, punch.Since())
	if err != nil {
		return outcomeFailed, fmt.Errorf("failed to load effective policy: %w", err)
	}

	decision := s.engine.Decide(ctx, punch.ClockIn, eff, now)
	if !decision.Closes() {
		return outcomeSkipped, nil
	}

	res, err := s.closePunch(ctx, timeentry.CloseRequest{
		ClockIn: punch.ClockIn,
		CloseAt: decision.CloseAt,
		Reason:  decision.Reason,
	}, now)
	if isAbsorbed(err) {
		slog.Info("Resolution: punch already handled, skipping",
			"employee_id", employeeID,
			"clock_in_id", punch.ClockIn.ID,
			"reason", err)
		return outcomeSkipped, nil
	}
	if err != nil {
		return outcomeFailed, err
	}

	slog.Info("Resolution: punch auto-closed",
		"org_id", orgID,
		"employee_id", employeeID,
		"clock_in_id", punch.ClockIn.ID,
		"clock_out_id", res.ClockOut.ID,
		"closed_at", res.ClockOut.Timestamp,
		"action", decision.Action,
		"reason", decision.Reason)

	return outcomeClosed, s.afterClose(ctx, *punch, eff, res, decision.Reason, now)
}

// afterClose refreshes the affected summaries, records the incident and
// invalidates overtime for both the clock-in and the close date.
func (s *ResolutionServiceImpl) afterClose(ctx context.Context, punch timeentry.OpenPunch, eff policy.EffectivePolicy, res timeentry.CloseResult, reason timeentry.AutoCloseReason, now time.Time) error {
	closedAt := res.ClockOut.Timestamp
	inDate := s.calendar.Resolve(punch.Since(), eff.Timezone).Date
	outDate := s.calendar.Resolve(closedAt, eff.Timezone).Date

	var errs []error
	summary, err := s.summaryUpdater.UpdateWorkdaySummary(ctx, punch.EmployeeID(), punch.OrgID(), punch.Since())
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("failed to update workday summary: %w", err))
	case summary != nil:
		updated, _, err := s.markAutoClosed(ctx, summary.Key(), eff, reason, closedAt, now)
		if err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.syncAutoClosedAlert(ctx, updated, punch, closedAt, reason, eff.Timezone); err != nil {
			errs = append(errs, err)
		}
		notice := s.autoClosedNotice(updated, closedAt, reason, eff.Timezone, map[string]interface{}{
			"clock_in_id":  punch.ClockIn.ID,
			"clock_out_id": res.ClockOut.ID,
		})
		if err := s.escalate(ctx, updated, eff.OrganizationPolicy, notice, now); err != nil {
			errs = append(errs, err)
		}
	}

	if !localtime.SameDate(inDate, outDate) {
		next, err := s.summaryUpdater.UpdateWorkdaySummary(ctx, punch.EmployeeID(), punch.OrgID(), closedAt)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to update workday summary: %w", err))
		} else if next != nil {
			if err := s.markOvertimeDirty(ctx, next.Key(), now); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if err := s.enqueueOvertime(ctx, punch.OrgID(), punch.EmployeeID(), inDate, outDate); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *ResolutionServiceImpl) unresolvedNotice(punch timeentry.OpenPunch, zone string) escalationNotice {
	local := s.calendar.Resolve(punch.Since(), zone)
	at := punch.Since().In(s.calendar.Location(zone)).Format(clockLayout)
	date := local.DateKey()

	return escalationNotice{
		Incident:        workday.IncidentUnresolvedMissingClockOut,
		Type:            notification.TypeMissingClockOut,
		EmployeeTitle:   "Missing clock-out",
		EmployeeMessage: fmt.Sprintf("You clocked in at %s on %s and have not clocked out. Please submit a correction.", at, date),
		ApproverTitle:   "Missing clock-out",
		ApproverMessage: func(name string) string {
			return fmt.Sprintf("%s clocked in at %s on %s and has not clocked out.", name, at, date)
		},
		Data: map[string]interface{}{
			"employee_id": punch.EmployeeID(),
			"clock_in_id": punch.ClockIn.ID,
			"clock_in_at": punch.Since(),
			"date":        date,
		},
	}
}

func (s *ResolutionServiceImpl) autoClosedNotice(summary workday.WorkdaySummary, closedAt time.Time, reason timeentry.AutoCloseReason, zone string, extra map[string]interface{}) escalationNotice {
	at := closedAt.In(s.calendar.Location(zone)).Format(clockLayout)
	date := summary.Date.Format(localtime.DateLayout)

	data := map[string]interface{}{
		"employee_id": summary.EmployeeID,
		"closed_at":   closedAt,
		"reason":      string(reason),
		"date":        date,
	}
	for k, v := range extra {
		data[k] = v
	}

	return escalationNotice{
		Incident:        workday.IncidentAutoClosedSafety,
		Type:            notification.TypeAttendanceAutoClosed,
		EmployeeTitle:   "Attendance auto-closed",
		EmployeeMessage: fmt.Sprintf("Your attendance for %s was closed automatically at %s. Please review it.", date, at),
		ApproverTitle:   "Attendance auto-closed",
		ApproverMessage: func(name string) string {
			return fmt.Sprintf("%s's attendance for %s was closed automatically at %s and needs review.", name, date, at)
		},
		Data: data,
	}
}

// resumeEscalations finishes auto-close escalations whose recipients could not be
// resolved when the punch was closed. Those punches are no longer open, so the
// open punch scan never revisits them.
func (s *ResolutionServiceImpl) resumeEscalations(ctx context.Context, org policy.OrganizationPolicy, from, to, now time.Time, result *resolution.SweepResult) error {
	pending, err := s.summaries.ListPendingEscalations(ctx, org.OrgID, from, to)
	if err != nil {
		return err
	}

	for _, summary := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		closedAt := summary.UpdatedAt
		if summary.ResolutionFlags.AutoClosedAt != nil {
			closedAt = *summary.ResolutionFlags.AutoClosedAt
		}
		reason := timeentry.AutoCloseReason(summary.ResolutionFlags.AutoCloseReason)
		notice := s.autoClosedNotice(summary, closedAt, reason, org.Timezone, nil)

		if err := s.escalate(ctx, summary, org, notice, now); err != nil {
			result.Failed++
			slog.Error("Resolution: failed to resume escalation",
				"org_id", org.OrgID,
				"employee_id", summary.EmployeeID,
				"date", summary.Date.Format(localtime.DateLayout),
				"error", err)
			continue
		}
		result.Escalated++
	}
	return nil
}

// uniqueEmployees keeps the first occurrence of each employee, preserving order.
func uniqueEmployees(entries []timeentry.TimeEntry) []string {
	seen := make(map[string]struct{}, len(entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.EmployeeID]; ok {
			continue
		}
		seen[e.EmployeeID] = struct{}{}
		ids = append(ids, e.EmployeeID)
	}
	return ids
}

func tally(result *resolution.SweepResult, out outcome, err error, employeeID string) {
	switch out {
	case outcomeFlagged:
		result.Flagged++
	case outcomeClosed:
		result.Closed++
	case outcomeSkipped:
		result.Skipped++
	case outcomeFailed:
		result.Failed++
		slog.Error("Resolution: failed to process employee",
			"org_id", result.OrgID,
			"sweep", result.Kind,
			"employee_id", employeeID,
			"error", err)
		return
	}
	if err != nil {
		slog.Warn("Resolution: follow-up step failed",
			"org_id", result.OrgID,
			"sweep", result.Kind,
			"employee_id", employeeID,
			"error", err)
	}
}
