package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/organization"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/resolution"
	"golang.org/x/sync/errgroup"
)

const (
	JobRolloverMissingClockOut = "rollover_missing_clock_out"
	JobAutoCloseOpenPunches    = "auto_close_open_punches"
)

// ResolutionJobsConfig holds the sweep schedule
type ResolutionJobsConfig struct {
	RolloverInterval time.Duration // default: 1 hour
	SafetyInterval   time.Duration // default: 15 minutes
	LookbackDays     int           // default: 7
	OrgConcurrency   int           // default: 4
}

// ResolutionJobs runs the open punch sweeps for every active organization
type ResolutionJobs struct {
	resolutionService resolution.ResolutionService
	orgRepo           organization.OrganizationRepository
	config            ResolutionJobsConfig
}

func NewResolutionJobs(
	resolutionService resolution.ResolutionService,
	orgRepo organization.OrganizationRepository,
	cfg ResolutionJobsConfig,
) *ResolutionJobs {
	if cfg.RolloverInterval <= 0 {
		cfg.RolloverInterval = time.Hour
	}
	if cfg.SafetyInterval <= 0 {
		cfg.SafetyInterval = 15 * time.Minute
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 7
	}
	if cfg.OrgConcurrency <= 0 {
		cfg.OrgConcurrency = 4
	}
	return &ResolutionJobs{
		resolutionService: resolutionService,
		orgRepo:           orgRepo,
		config:            cfg,
	}
}

func (j *ResolutionJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(JobRolloverMissingClockOut, j.config.RolloverInterval, j.RolloverMissingClockOut)
	scheduler.AddJob(JobAutoCloseOpenPunches, j.config.SafetyInterval, j.AutoCloseOpenPunches)
}

// RolloverMissingClockOut flags punches left open across a local day boundary
func (j *ResolutionJobs) RolloverMissingClockOut(ctx context.Context) error {
	return j.forEachOrganization(ctx, "rollover", func(ctx context.Context, orgID string) (resolution.SweepResult, error) {
		return j.resolutionService.SweepRollover(ctx, orgID, j.config.LookbackDays)
	})
}

// AutoCloseOpenPunches closes punches past the safety ceiling or the auto-close policy
func (j *ResolutionJobs) AutoCloseOpenPunches(ctx context.Context) error {
	return j.forEachOrganization(ctx, "safety", func(ctx context.Context, orgID string) (resolution.SweepResult, error) {
		return j.resolutionService.SweepSafety(ctx, orgID)
	})
}

// forEachOrganization fans the sweep out with bounded concurrency. One organization
// failing does not stop the others; the failures are joined into the returned error.
func (j *ResolutionJobs) forEachOrganization(ctx context.Context, kind string, sweep func(context.Context, string) (resolution.SweepResult, error)) error {
	orgIDs, err := j.orgRepo.ListActiveIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list organizations: %w", err)
	}
	if len(orgIDs) == 0 {
		slog.Debug("Cron: No active organizations", "sweep", kind)
		return nil
	}

	slog.Info("Cron: Starting resolution sweep", "sweep", kind, "organizations", len(orgIDs))

	var (
		mu     sync.Mutex
		errs   []error
		totals resolution.SweepResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.config.OrgConcurrency)

	for _, orgID := range orgIDs {
		orgID := orgID
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := sweep(gctx, orgID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Error("Cron: Organization sweep failed", "sweep", kind, "org_id", orgID, "error", err)
				errs = append(errs, fmt.Errorf("org %s: %w", orgID, err))
				return nil
			}
			totals.Scanned += res.Scanned
			totals.Flagged += res.Flagged
			totals.Closed += res.Closed
			totals.Failed += res.Failed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	}

	slog.Info("Cron: Resolution sweep completed",
		"sweep", kind,
		"organizations", len(orgIDs),
		"scanned", totals.Scanned,
		"flagged", totals.Flagged,
		"closed", totals.Closed,
		"failed", totals.Failed)

	return errors.Join(errs...)
}
