package resolution

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/policy"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/resolution"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/timeentry"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/localtime"
)

// DecisionEngine decides whether an open punch is closed now, later, or not at all.
type DecisionEngine struct {
	calendar  *localtime.Resolver
	schedules schedule.Provider
}

func NewDecisionEngine(calendar *localtime.Resolver, schedules schedule.Provider) *DecisionEngine {
	return &DecisionEngine{
		calendar:  calendar,
		schedules: schedules,
	}
}

// Decide evaluates the safety ceiling first, then the organization's auto-close strategy.
// The returned close instant never lies after now.
func (e *DecisionEngine) Decide(ctx context.Context, clockIn timeentry.TimeEntry, eff policy.EffectivePolicy, now time.Time) resolution.Decision {
	maxOpen := time.Duration(eff.MaxOpenHours) * time.Hour
	safetyAt := clockIn.Timestamp.Add(maxOpen)

	if maxOpen > 0 && !now.Before(safetyAt) {
		return resolution.Decision{
			Action:  resolution.ActionForceCloseSafety,
			CloseAt: clampToNow(safetyAt, now),
			Reason:  timeentry.AutoCloseReasonMaxOpenHours,
		}
	}

	waitUntil := safetyAt
	if maxOpen <= 0 {
		waitUntil = time.Time{}
	}

	if !eff.AutoCloseEnabled || eff.Mode != policy.ModeAutoClose {
		return noAction(waitUntil)
	}

	var (
		target time.Time
		reason timeentry.AutoCloseReason
		ok     bool
	)
	switch eff.Strategy {
	case policy.StrategyFixedHour:
		target, ok = e.fixedHourTarget(clockIn.Timestamp, eff), true
		reason = timeentry.AutoCloseReasonFixedHour
	case policy.StrategyScheduleEnd:
		target, ok = e.scheduleEnd(ctx, clockIn, eff)
		reason = timeentry.AutoCloseReasonScheduleEnd
	}
	if !ok {
		return noAction(waitUntil)
	}

	trigger := target.Add(time.Duration(eff.ToleranceMinutes+eff.TriggerExtraMinutes) * time.Minute)
	if now.Before(trigger) {
		if waitUntil.IsZero() || trigger.Before(waitUntil) {
			waitUntil = trigger
		}
		return resolution.Decision{Action: resolution.ActionWait, WaitUntil: &waitUntil}
	}

	return resolution.Decision{
		Action:  resolution.ActionAutoClosePolicy,
		CloseAt: clampToNow(target, now),
		Reason:  reason,
	}
}

// fixedHourTarget returns the first local hh:mm strictly after clockIn.
func (e *DecisionEngine) fixedHourTarget(clockIn time.Time, eff policy.EffectivePolicy) time.Time {
	local := e.calendar.Resolve(clockIn, eff.Timezone)
	minute := eff.FixedHour*60 + eff.FixedMinute

	target := e.calendar.At(local.Date, minute, eff.Timezone)
	if !target.After(clockIn) {
		target = e.calendar.At(local.Date, minute+localtime.MinutesPerDay, eff.Timezone)
	}
	return target
}

// scheduleEnd returns the end of the last expected work slot on the clock-in's local date.
// Lookup failures skip the strategy for this sweep.
func (e *DecisionEngine) scheduleEnd(ctx context.Context, clockIn timeentry.TimeEntry, eff policy.EffectivePolicy) (time.Time, bool) {
	if e.schedules == nil {
		return time.Time{}, false
	}

	local := e.calendar.Resolve(clockIn.Timestamp, eff.Timezone)
	sched, err := e.schedules.GetEffectiveSchedule(ctx, clockIn.EmployeeID, e.calendar.Noon(local.Date, eff.Timezone))
	if err != nil {
		slog.Warn("Resolution: schedule lookup failed, skipping schedule-end strategy",
			"employee_id", clockIn.EmployeeID,
			"date", local.DateKey(),
			"error", err)
		return time.Time{}, false
	}
	if sched == nil {
		return time.Time{}, false
	}

	slot, ok := sched.LastWorkSlot()
	if !ok {
		return time.Time{}, false
	}

	end := e.calendar.At(local.Date, slot.EffectiveEndMinutes(), eff.Timezone)
	if !end.After(clockIn.Timestamp) {
		// Clocked in after the shift ended; only the safety ceiling applies.
		return time.Time{}, false
	}
	return end, true
}

func noAction(waitUntil time.Time) resolution.Decision {
	d := resolution.Decision{Action: resolution.ActionNone}
	if !waitUntil.IsZero() {
		d.WaitUntil = &waitUntil
	}
	return d
}

func clampToNow(t, now time.Time) time.Time {
	if t.After(now) {
		return now
	}
	return t
}
