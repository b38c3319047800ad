package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/config"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/notification"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/organization"
	appHTTP "github.com/cmlabs-hris/hris-punch-resolution/internal/handler/http"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/database"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/localtime"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/repository/memory"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/repository/postgresql"
	notificationService "github.com/cmlabs-hris/hris-punch-resolution/internal/service/notification"
	policyService "github.com/cmlabs-hris/hris-punch-resolution/internal/service/policy"
	resolutionService "github.com/cmlabs-hris/hris-punch-resolution/internal/service/resolution"
	"github.com/go-chi/httplog/v3"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Worker: exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-punch-resolution"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	calendar := localtime.NewResolver(cfg.Resolution.DefaultTimezone)

	var (
		deps             resolutionService.Dependencies
		orgRepo          organization.OrganizationRepository
		notificationRepo notification.Repository
	)
	switch cfg.App.StoreDriver {
	case config.StoreDriverPostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return fmt.Errorf("error connecting to database: %w", err)
		}
		defer db.Close()

		deps = resolutionService.Dependencies{
			TxManager:      postgresql.NewTxManager(db),
			TimeEntries:    postgresql.NewTimeEntryRepository(db),
			Summaries:      postgresql.NewWorkdaySummaryRepository(db),
			SummaryUpdater: postgresql.NewWorkdaySummaryUpdater(db, calendar),
			Policies:       policyService.NewPolicyLoader(postgresql.NewPolicyRepository(db), calendar),
			Schedules:      postgresql.NewScheduleProvider(db, calendar),
			Alerts:         postgresql.NewAlertRepository(db),
			Employees:      postgresql.NewEmployeeRepository(db),
			Approvers:      postgresql.NewApproverResolver(db),
			Overtime:       postgresql.NewOvertimeQueue(db),
		}
		orgRepo = postgresql.NewOrganizationRepository(db)
		notificationRepo = postgresql.NewNotificationRepository(db)

	case config.StoreDriverMemory:
		slog.Warn("Worker: using the in-memory store, data is lost on exit")
		store := memory.NewStore(calendar)
		summaries := store.WorkdaySummaries()

		deps = resolutionService.Dependencies{
			TxManager:      store,
			TimeEntries:    store.TimeEntries(),
			Summaries:      summaries,
			SummaryUpdater: summaries,
			Policies:       policyService.NewPolicyLoader(store.Policies(), calendar),
			Schedules:      store.Schedules(),
			Alerts:         store.Alerts(),
			Employees:      store.Employees(),
			Approvers:      store.Approvers(),
			Overtime:       store.OvertimeQueue(),
		}
		orgRepo = store.Organizations()
		notificationRepo = store.Notifications()
	}

	notifier := notificationService.NewNotificationService(notificationRepo, notificationService.Config{
		BatchSize:     cfg.Notification.BatchSize,
		FlushInterval: cfg.Notification.FlushInterval,
		WorkerCount:   cfg.Notification.WorkerCount,
		QueueSize:     cfg.Notification.QueueSize,
	})
	defer notifier.Stop()

	deps.Notifications = notifier
	deps.Calendar = calendar
	resolutionSvc := resolutionService.NewResolutionService(deps, resolutionService.Config{
		LookbackDays:     cfg.Resolution.RolloverLookbackDays,
		SafetyScanWindow: cfg.Resolution.SafetyScanWindow,
	})

	scheduler := cron.NewScheduler(cfg.Resolution.JobTimeout)
	cron.NewResolutionJobs(resolutionSvc, orgRepo, cron.ResolutionJobsConfig{
		RolloverInterval: cfg.Resolution.RolloverInterval,
		SafetyInterval:   cfg.Resolution.SafetyInterval,
		LookbackDays:     cfg.Resolution.RolloverLookbackDays,
		OrgConcurrency:   cfg.Resolution.OrgConcurrency,
	}).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	resolutionHandler := appHTTP.NewResolutionHandler(resolutionSvc)
	router := appHTTP.NewRouter(logger, appHTTP.RouterConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		LogLevel:       cfg.SlogLevel(),
	}, JWTService, resolutionHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Worker: ops API listening", "addr", server.Addr, "store", cfg.App.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		slog.Info("Worker: shutting down")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
