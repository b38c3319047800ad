package resolution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/policy"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/timeentry"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/workday"
)

// mutateFunc edits a summary in place and reports whether it changed.
type mutateFunc func(s *workday.WorkdaySummary) (bool, error)

// updateSummary applies mutate to the stored summary with optimistic concurrency,
// reloading and retrying when another writer bumped the version first.
func (s *ResolutionServiceImpl) updateSummary(ctx context.Context, key workday.Key, mutate mutateFunc) (workday.WorkdaySummary, bool, error) {
	var lastErr error
	for attempt := 0; attempt < s.cfg.MaxCASRetries; attempt++ {
		current, err := s.summaries.GetByEmployeeAndDate(ctx, key.OrgID, key.EmployeeID, key.Date)
		if err != nil {
			return workday.WorkdaySummary{}, false, err
		}

		next := current
		next.ResolutionFlags = current.ResolutionFlags.Clone()
		changed, err := mutate(&next)
		if err != nil {
			return current, false, err
		}
		if !changed {
			return current, false, nil
		}

		saved, err := s.summaries.UpdateResolution(ctx, next)
		if errors.Is(err, workday.ErrVersionConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return current, false, fmt.Errorf("failed to update workday summary: %w", err)
		}
		return saved, true, nil
	}
	return workday.WorkdaySummary{}, false, fmt.Errorf("gave up after %d attempts: %w", s.cfg.MaxCASRetries, lastErr)
}

// markUnresolved moves the day to UNRESOLVED_MISSING_CLOCK_OUT. The bool result is
// true only when the status actually changed.
func (s *ResolutionServiceImpl) markUnresolved(ctx context.Context, key workday.Key, now time.Time) (workday.WorkdaySummary, bool, error) {
	return s.updateSummary(ctx, key, func(sum *workday.WorkdaySummary) (bool, error) {
		if sum.ResolutionStatus == workday.ResolutionStatusUnresolvedMissingClockOut {
			return false, nil
		}
		if !workday.CanTransition(sum.ResolutionStatus, workday.ResolutionStatusUnresolvedMissingClockOut) {
			return false, workday.ErrTransitionRejected
		}

		sum.ResolutionStatus = workday.ResolutionStatusUnresolvedMissingClockOut
		sum.DataQuality = workday.DataQualityLow
		if sum.ResolutionFlags.DetectedAt == nil {
			sum.ResolutionFlags.DetectedAt = &now
		}
		sum.ResolutionFlags.Ledger(workday.IncidentUnresolvedMissingClockOut)
		markDirty(sum, now)
		return true, nil
	})
}

// markAutoClosed records a synthetic close on the clock-in's day.
func (s *ResolutionServiceImpl) markAutoClosed(ctx context.Context, key workday.Key, eff policy.EffectivePolicy, reason timeentry.AutoCloseReason, closedAt, now time.Time) (workday.WorkdaySummary, bool, error) {
	return s.updateSummary(ctx, key, func(sum *workday.WorkdaySummary) (bool, error) {
		if !workday.CanTransition(sum.ResolutionStatus, workday.ResolutionStatusAutoClosedSafety) {
			return false, workday.ErrTransitionRejected
		}

		sum.ResolutionStatus = workday.ResolutionStatusAutoClosedSafety
		sum.DataQuality = workday.DataQualityEstimated

		flags := &sum.ResolutionFlags
		if flags.DetectedAt == nil {
			flags.DetectedAt = &now
		}
		flags.AutoCloseReason = string(reason)
		flags.AutoClosedAt = &closedAt
		flags.AddProtectedWindows(eff.AppliedWindows...)
		if eff.AutoClosedRequiresReview {
			flags.ReviewRequired = true
		}
		flags.Ledger(workday.IncidentAutoClosedSafety).EscalationPending = true
		markDirty(sum, now)
		return true, nil
	})
}

// markOvertimeDirty flags a day whose entries changed without touching its status.
func (s *ResolutionServiceImpl) markOvertimeDirty(ctx context.Context, key workday.Key, now time.Time) error {
	_, _, err := s.updateSummary(ctx, key, func(sum *workday.WorkdaySummary) (bool, error) {
		if sum.OvertimeCalcStatus == workday.OvertimeCalcStatusDirty {
			return false, nil
		}
		markDirty(sum, now)
		return true, nil
	})
	return err
}

func markDirty(sum *workday.WorkdaySummary, now time.Time) {
	sum.OvertimeCalcStatus = workday.OvertimeCalcStatusDirty
	sum.OvertimeCalcUpdatedAt = &now
}
