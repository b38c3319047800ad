package policy

import "time"

type MissingClockOutMode string

const (
	ModeUnresolved MissingClockOutMode = "UNRESOLVED"
	ModeAutoClose  MissingClockOutMode = "AUTO_CLOSE"
)

type AutoCloseStrategy string

const (
	StrategyScheduleEnd AutoCloseStrategy = "SCHEDULE_END"
	StrategyFixedHour   AutoCloseStrategy = "FIXED_HOUR"
)

type WindowScope string

const (
	WindowScopeOrganization WindowScope = "ORGANIZATION"
	WindowScopeEmployee     WindowScope = "EMPLOYEE"
)

// OrganizationPolicy is the missing clock-out policy with every field resolved.
type OrganizationPolicy struct {
	OrgID                     string
	Timezone                  string
	Mode                      MissingClockOutMode
	NotifyEmployee            bool
	NotifyApprovers           bool
	RequireApprovalOnOvertime bool
	AutoCloseEnabled          bool
	Strategy                  AutoCloseStrategy
	ToleranceMinutes          int
	TriggerExtraMinutes       int
	MaxOpenHours              int
	FixedHour                 int
	FixedMinute               int
	AutoClosedRequiresReview  bool
}

// PolicySettings is the stored row. Nil fields were never configured.
type PolicySettings struct {
	OrgID                     string
	Timezone                  *string
	Mode                      *string
	NotifyEmployee            *bool
	NotifyApprovers           *bool
	RequireApprovalOnOvertime *bool
	AutoCloseEnabled          *bool
	Strategy                  *string
	ToleranceMinutes          *int
	TriggerExtraMinutes       *int
	MaxOpenHours              *int
	FixedHour                 *int
	FixedMinute               *int
	AutoClosedRequiresReview  *bool
}

// ProtectedWindow relaxes tolerances during a recurring local time range.
type ProtectedWindow struct {
	ID                       string
	OrgID                    string
	Name                     string
	Scope                    WindowScope
	EmployeeID               *string
	Active                   bool
	Weekdays                 []int // 1=Monday, ..., 7=Sunday; empty means every day
	StartMinute              int
	EndMinute                int
	ToleranceMinutesOverride *int
	MaxOpenHoursOverride     *int
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// EffectivePolicy is the organization policy after protected-window overrides.
type EffectivePolicy struct {
	OrganizationPolicy
	AppliedWindows []string
}
