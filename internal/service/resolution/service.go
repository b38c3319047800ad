package resolution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/alert"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/employee"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/notification"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/overtime"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/policy"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/resolution"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/timeentry"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/workday"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/database"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/localtime"
	"github.com/shopspring/decimal"
)

const (
	DefaultLookbackDays     = 7
	DefaultSafetyScanWindow = 7 * 24 * time.Hour
	DefaultMaxCASRetries    = 5
)

// Config tunes the sweeps. Zero values fall back to the defaults above.
type Config struct {
	LookbackDays     int
	SafetyScanWindow time.Duration
	MaxCASRetries    int

	// Now overrides the wall clock, mainly for tests.
	Now func() time.Time
}

// Dependencies groups the collaborators of the resolution service.
type Dependencies struct {
	TxManager      database.TxManager
	TimeEntries    timeentry.TimeEntryRepository
	Summaries      workday.WorkdaySummaryRepository
	SummaryUpdater workday.SummaryUpdater
	Policies       policy.Loader
	Schedules      schedule.Provider
	Alerts         alert.AlertRepository
	Employees      employee.EmployeeRepository
	Approvers      employee.ApproverResolver
	Notifications  notification.Service
	Overtime       overtime.Queue
	Calendar       *localtime.Resolver
}

type ResolutionServiceImpl struct {
	tx             database.TxManager
	entries        timeentry.TimeEntryRepository
	summaries      workday.WorkdaySummaryRepository
	summaryUpdater workday.SummaryUpdater
	policies       policy.Loader
	alerts         alert.AlertRepository
	employees      employee.EmployeeRepository
	approvers      employee.ApproverResolver
	notifications  notification.Service
	overtime       overtime.Queue
	calendar       *localtime.Resolver
	engine         *DecisionEngine
	cfg            Config
}

func NewResolutionService(deps Dependencies, cfg Config) resolution.ResolutionService {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = DefaultLookbackDays
	}
	if cfg.SafetyScanWindow <= 0 {
		cfg.SafetyScanWindow = DefaultSafetyScanWindow
	}
	if cfg.MaxCASRetries <= 0 {
		cfg.MaxCASRetries = DefaultMaxCASRetries
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	calendar := deps.Calendar
	if calendar == nil {
		calendar = localtime.NewResolver("UTC")
	}

	return &ResolutionServiceImpl{
		tx:             deps.TxManager,
		entries:        deps.TimeEntries,
		summaries:      deps.Summaries,
		summaryUpdater: deps.SummaryUpdater,
		policies:       deps.Policies,
		alerts:         deps.Alerts,
		employees:      deps.Employees,
		approvers:      deps.Approvers,
		notifications:  deps.Notifications,
		overtime:       deps.Overtime,
		calendar:       calendar,
		engine:         NewDecisionEngine(calendar, deps.Schedules),
		cfg:            cfg,
	}
}

func (s *ResolutionServiceImpl) now() time.Time {
	return s.cfg.Now().UTC()
}

// GetWorkday implements resolution.ResolutionService.
func (s *ResolutionServiceImpl) GetWorkday(ctx context.Context, req resolution.WorkdayRequest) (resolution.WorkdayResponse, error) {
	date, err := req.Validate()
	if err != nil {
		return resolution.WorkdayResponse{}, err
	}

	summary, err := s.summaries.GetByEmployeeAndDate(ctx, req.OrgID, req.EmployeeID, date)
	if err != nil {
		return resolution.WorkdayResponse{}, err
	}
	return toWorkdayResponse(summary), nil
}

// PreviewOpenPunch implements resolution.ResolutionService.
func (s *ResolutionServiceImpl) PreviewOpenPunch(ctx context.Context, req resolution.OpenPunchRequest) (resolution.OpenPunchPreview, error) {
	if err := req.Validate(); err != nil {
		return resolution.OpenPunchPreview{}, err
	}

	punch, err := s.locateOpenPunch(ctx, req.EmployeeID)
	if err != nil {
		return resolution.OpenPunchPreview{}, err
	}
	if punch == nil || punch.OrgID() != req.OrgID {
		return resolution.OpenPunchPreview{}, resolution.ErrNoOpenPunch
	}

	eff, err := s.policies.Effective(ctx, req.OrgID, req.EmployeeID, punch.Since())
	if err != nil {
		return resolution.OpenPunchPreview{}, fmt.Errorf("failed to load effective policy: %w", err)
	}

	now := s.now()
	decision := s.engine.Decide(ctx, punch.ClockIn, eff, now)

	preview := resolution.OpenPunchPreview{
		ClockInID:      punch.ClockIn.ID,
		ClockInAt:      punch.Since(),
		LocalDate:      s.calendar.Resolve(punch.Since(), eff.Timezone).DateKey(),
		OpenHours:      openHours(punch.Since(), now),
		Action:         decision.Action,
		WaitUntil:      decision.WaitUntil,
		MaxOpenHours:   eff.MaxOpenHours,
		ToleranceMins:  eff.ToleranceMinutes,
		AppliedWindows: eff.AppliedWindows,
	}
	if decision.Closes() {
		closeAt := decision.CloseAt
		preview.CloseAt = &closeAt
		preview.Reason = string(decision.Reason)
	}
	return preview, nil
}

// openHours is the elapsed time in hours, rounded to two places.
func openHours(since, now time.Time) decimal.Decimal {
	if now.Before(since) {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(now.Sub(since) / time.Second)).
		Div(decimal.NewFromInt(3600)).
		Round(2)
}

func toWorkdayResponse(s workday.WorkdaySummary) resolution.WorkdayResponse {
	status := s.ResolutionStatus
	if status == "" {
		status = workday.ResolutionStatusOK
	}
	return resolution.WorkdayResponse{
		ID:                    s.ID,
		OrgID:                 s.OrgID,
		EmployeeID:            s.EmployeeID,
		Date:                  s.Date.Format(localtime.DateLayout),
		ResolutionStatus:      string(status),
		DataQuality:           string(s.DataQuality),
		ResolutionFlags:       s.ResolutionFlags,
		OvertimeCalcStatus:    string(s.OvertimeCalcStatus),
		OvertimeCalcUpdatedAt: s.OvertimeCalcUpdatedAt,
		Version:               s.Version,
		UpdatedAt:             s.UpdatedAt,
	}
}

// isAbsorbed reports errors that mean another actor already handled the punch.
func isAbsorbed(err error) bool {
	return errors.Is(err, timeentry.ErrPunchAlreadyClosed) ||
		errors.Is(err, timeentry.ErrCloseInFuture) ||
		errors.Is(err, workday.ErrTransitionRejected)
}
