package policy

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/policy"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/localtime"
)

// Defaults applied when an organization left a field unset or stored an unusable value.
const (
	DefaultMode                      = policy.ModeUnresolved
	DefaultNotifyEmployee            = true
	DefaultNotifyApprovers           = true
	DefaultRequireApprovalOnOvertime = true
	DefaultAutoCloseEnabled          = false
	DefaultStrategy                  = policy.StrategyScheduleEnd
	DefaultToleranceMinutes          = 15
	DefaultTriggerExtraMinutes       = 0
	DefaultMaxOpenHours              = 16
	DefaultFixedHour                 = 23
	DefaultFixedMinute               = 59
	DefaultAutoClosedRequiresReview  = true
)

type loader struct {
	repo     policy.PolicyRepository
	calendar *localtime.Resolver
}

func NewPolicyLoader(repo policy.PolicyRepository, calendar *localtime.Resolver) policy.Loader {
	return &loader{
		repo:     repo,
		calendar: calendar,
	}
}

// Organization implements policy.Loader.
func (l *loader) Organization(ctx context.Context, orgID string) (policy.OrganizationPolicy, error) {
	settings, err := l.repo.GetSettings(ctx, orgID)
	if err != nil {
		return policy.OrganizationPolicy{}, fmt.Errorf("failed to load policy settings: %w", err)
	}
	return ApplyDefaults(orgID, settings), nil
}

// Effective implements policy.Loader.
func (l *loader) Effective(ctx context.Context, orgID, employeeID string, instant time.Time) (policy.EffectivePolicy, error) {
	org, err := l.Organization(ctx, orgID)
	if err != nil {
		return policy.EffectivePolicy{}, err
	}

	windows, err := l.repo.ListProtectedWindows(ctx, orgID, employeeID)
	if err != nil {
		return policy.EffectivePolicy{}, fmt.Errorf("failed to load protected windows: %w", err)
	}

	local := l.calendar.Resolve(instant, org.Timezone)
	return Merge(org, MatchWindows(windows, employeeID, local.Weekday, local.MinuteOfDay)), nil
}

// ApplyDefaults resolves every nil or out-of-range field of settings.
func ApplyDefaults(orgID string, s *policy.PolicySettings) policy.OrganizationPolicy {
	p := policy.OrganizationPolicy{
		OrgID:                     orgID,
		Mode:                      DefaultMode,
		NotifyEmployee:            DefaultNotifyEmployee,
		NotifyApprovers:           DefaultNotifyApprovers,
		RequireApprovalOnOvertime: DefaultRequireApprovalOnOvertime,
		AutoCloseEnabled:          DefaultAutoCloseEnabled,
		Strategy:                  DefaultStrategy,
		ToleranceMinutes:          DefaultToleranceMinutes,
		TriggerExtraMinutes:       DefaultTriggerExtraMinutes,
		MaxOpenHours:              DefaultMaxOpenHours,
		FixedHour:                 DefaultFixedHour,
		FixedMinute:               DefaultFixedMinute,
		AutoClosedRequiresReview:  DefaultAutoClosedRequiresReview,
	}
	if s == nil {
		return p
	}

	if s.Timezone != nil {
		p.Timezone = *s.Timezone
	}
	if s.Mode != nil {
		switch m := policy.MissingClockOutMode(*s.Mode); m {
		case policy.ModeUnresolved, policy.ModeAutoClose:
			p.Mode = m
		default:
			slog.Warn("Policy: unknown missing clock-out mode, using default", "org_id", orgID, "mode", *s.Mode)
		}
	}
	if s.Strategy != nil {
		switch st := policy.AutoCloseStrategy(*s.Strategy); st {
		case policy.StrategyScheduleEnd, policy.StrategyFixedHour:
			p.Strategy = st
		default:
			slog.Warn("Policy: unknown auto-close strategy, using default", "org_id", orgID, "strategy", *s.Strategy)
		}
	}
	if s.NotifyEmployee != nil {
		p.NotifyEmployee = *s.NotifyEmployee
	}
	if s.NotifyApprovers != nil {
		p.NotifyApprovers = *s.NotifyApprovers
	}
	if s.RequireApprovalOnOvertime != nil {
		p.RequireApprovalOnOvertime = *s.RequireApprovalOnOvertime
	}
	if s.AutoCloseEnabled != nil {
		p.AutoCloseEnabled = *s.AutoCloseEnabled
	}
	if s.AutoClosedRequiresReview != nil {
		p.AutoClosedRequiresReview = *s.AutoClosedRequiresReview
	}
	if s.ToleranceMinutes != nil && *s.ToleranceMinutes >= 0 {
		p.ToleranceMinutes = *s.ToleranceMinutes
	}
	if s.TriggerExtraMinutes != nil && *s.TriggerExtraMinutes >= 0 {
		p.TriggerExtraMinutes = *s.TriggerExtraMinutes
	}
	if s.MaxOpenHours != nil && *s.MaxOpenHours > 0 {
		p.MaxOpenHours = *s.MaxOpenHours
	}
	if s.FixedHour != nil && *s.FixedHour >= 0 && *s.FixedHour <= 23 {
		p.FixedHour = *s.FixedHour
	}
	if s.FixedMinute != nil && *s.FixedMinute >= 0 && *s.FixedMinute <= 59 {
		p.FixedMinute = *s.FixedMinute
	}
	return p
}

// MatchWindows keeps the active windows that apply to employeeID and contain the
// local weekday and minute of day.
func MatchWindows(windows []policy.ProtectedWindow, employeeID string, weekday, minuteOfDay int) []policy.ProtectedWindow {
	var matched []policy.ProtectedWindow
	for _, w := range windows {
		if !w.Active {
			continue
		}
		if w.Scope == policy.WindowScopeEmployee && (w.EmployeeID == nil || *w.EmployeeID != employeeID) {
			continue
		}
		if len(w.Weekdays) > 0 && !slices.Contains(w.Weekdays, weekday) {
			continue
		}
		if !ContainsMinute(w.StartMinute, w.EndMinute, minuteOfDay) {
			continue
		}
		matched = append(matched, w)
	}
	return matched
}

// ContainsMinute tests minute against [start, end), wrapping past midnight when
// start > end. start == end covers the whole day.
func ContainsMinute(start, end, minute int) bool {
	switch {
	case start == end:
		return true
	case start < end:
		return minute >= start && minute < end
	default:
		return minute >= start || minute < end
	}
}

// Merge applies matched windows to the organization policy. Each numeric override is
// the largest value any matched window defines.
func Merge(org policy.OrganizationPolicy, matched []policy.ProtectedWindow) policy.EffectivePolicy {
	eff := policy.EffectivePolicy{OrganizationPolicy: org}

	var tolerance, maxOpen *int
	for _, w := range matched {
		if w.ToleranceMinutesOverride != nil && (tolerance == nil || *w.ToleranceMinutesOverride > *tolerance) {
			v := *w.ToleranceMinutesOverride
			tolerance = &v
		}
		if w.MaxOpenHoursOverride != nil && (maxOpen == nil || *w.MaxOpenHoursOverride > *maxOpen) {
			v := *w.MaxOpenHoursOverride
			maxOpen = &v
		}
		if !slices.Contains(eff.AppliedWindows, w.Name) {
			eff.AppliedWindows = append(eff.AppliedWindows, w.Name)
		}
	}

	if tolerance != nil && *tolerance >= 0 {
		eff.ToleranceMinutes = *tolerance
	}
	if maxOpen != nil && *maxOpen > 0 {
		eff.MaxOpenHours = *maxOpen
	}
	return eff
}
