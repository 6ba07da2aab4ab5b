package services

import (
	"log/slog"
	"time"

	"schedulesync.xdoubleu.com/apps/calendarsync/pkg/gcal"
	"schedulesync.xdoubleu.com/apps/calendarsync/pkg/sumdu"
	"schedulesync.xdoubleu.com/internal/auth"
	"schedulesync.xdoubleu.com/internal/config"
)

type Services struct {
	Users      auth.UserStore
	Tokens     auth.TokenProvider
	Schedule   *ScheduleService
	Reconciler *ReconcileService
	Subjects   *SubjectService
	Preview    *PreviewService
	Locks      *LockService
	Metrics    *MetricsService
}

func New(
	logger *slog.Logger,
	cfg config.Config,
	users auth.UserStore,
	tokens auth.TokenProvider,
	scheduleClient sumdu.Client,
	calendarConnector gcal.Connector,
	locks *LockService,
	metrics *MetricsService,
) *Services {
	location := cfg.Location()

	schedule := NewScheduleService(
		logger,
		scheduleClient,
		location,
		cfg.CallTimeout,
		cfg.SnapshotTTL,
		metrics,
	)
	reconciler := NewReconcileService(location, cfg.CallTimeout, metrics)

	//nolint:exhaustruct //other fields are optional
	subjects := &SubjectService{
		logger:          logger,
		users:           users,
		tokens:          tokens,
		connector:       calendarConnector,
		schedule:        schedule,
		reconciler:      reconciler,
		metrics:         metrics,
		calendarPrefix:  cfg.CalendarPrefix,
		workers:         cfg.SyncWorkers,
		timeout:         cfg.CallTimeout,
		defaultDays:     cfg.DefaultFetchDays,
		defaultReminder: cfg.DefaultReminderMinutes,
		now:             time.Now,
	}

	preview := &PreviewService{
		logger:         logger,
		schedule:       schedule,
		reconciler:     reconciler,
		calendarPrefix: cfg.CalendarPrefix,
		now:            time.Now,
	}

	return &Services{
		Users:      users,
		Tokens:     tokens,
		Schedule:   schedule,
		Reconciler: reconciler,
		Subjects:   subjects,
		Preview:    preview,
		Locks:      locks,
		Metrics:    metrics,
	}
}

// SetClock replaces the time source of every service.
func (services *Services) SetClock(now func() time.Time) {
	services.Schedule.now = now
	services.Reconciler.now = now
	services.Subjects.now = now
	services.Preview.now = now
	if tokens, ok := services.Tokens.(*TokenService); ok {
		tokens.now = now
	}
}
