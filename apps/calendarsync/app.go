//nolint:revive //it is what it is
package calendarsync

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
	_ "time/tzdata"

	"github.com/go-co-op/gocron/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/xdoubleu/essentia/v2/pkg/database/postgres"
	"github.com/xdoubleu/essentia/v2/pkg/logging"
	"golang.org/x/time/rate"
	"schedulesync.xdoubleu.com/apps/calendarsync/internal/jobs"
	"schedulesync.xdoubleu.com/apps/calendarsync/internal/models"
	"schedulesync.xdoubleu.com/apps/calendarsync/internal/repositories"
	"schedulesync.xdoubleu.com/apps/calendarsync/internal/services"
	"schedulesync.xdoubleu.com/apps/calendarsync/pkg/gcal"
	"schedulesync.xdoubleu.com/apps/calendarsync/pkg/sumdu"
	"schedulesync.xdoubleu.com/internal/auth"
	"schedulesync.xdoubleu.com/internal/config"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const feedTimeout = 10 * time.Second

// passLockTTL bounds how long a crashed instance can block other instances.
const passLockTTL = time.Hour

type CalendarSync struct {
	logger       *slog.Logger
	Config       config.Config
	clients      Clients
	registry     *prometheus.Registry
	scheduler    gocron.Scheduler
	syncJob      jobs.SyncJob
	Services     *services.Services
	Repositories *repositories.Repositories
}

func New(
	logger *slog.Logger,
	cfg config.Config,
	db postgres.DB,
) (*CalendarSync, error) {
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
		}
		redisClient = redis.NewClient(opts)
	}

	burst := max(int(cfg.CalendarRPS), 1)
	limiter := rate.NewLimiter(rate.Limit(cfg.CalendarRPS), burst)

	clients := Clients{
		Schedule: sumdu.New(logger, cfg.ScheduleURL, feedTimeout),
		Calendar: gcal.NewConnector(logger, limiter, cfg.Location()),
		Redis:    redisClient,
	}

	repos := repositories.New(db)
	tokens := services.NewTokenService(
		logger,
		repos.Users,
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.CallTimeout,
	)

	app := NewInner(logger, cfg, repos.Users, tokens, clients)
	app.Repositories = repos

	return app, nil
}

func NewInner(
	logger *slog.Logger,
	cfg config.Config,
	users auth.UserStore,
	tokens auth.TokenProvider,
	clients Clients,
) *CalendarSync {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), //nolint:exhaustruct //defaults
	)

	locks := services.NewLockService(clients.Redis, passLockTTL)

	//nolint:exhaustruct //other fields are optional
	app := &CalendarSync{
		logger:   logger,
		Config:   cfg,
		clients:  clients,
		registry: registry,
	}

	app.Services = services.New(
		logger,
		cfg,
		users,
		tokens,
		clients.Schedule,
		clients.Calendar,
		locks,
		services.NewMetricsService(registry),
	)
	app.syncJob = jobs.NewSyncJob(app.Services.Subjects, app.Services.Locks)

	return app
}

// SyncOnce runs a single pass over every subject.
func (app *CalendarSync) SyncOnce(ctx context.Context) (*models.PassReport, error) {
	return app.syncJob.Run(ctx, app.logger)
}

// Start schedules passes on the configured cron expression. Runs that
// would overlap a pass still in progress are skipped.
func (app *CalendarSync) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(app.Config.Location()))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.CronJob(app.Config.SyncCron, false),
		gocron.NewTask(func() {
			_, errIn := app.SyncOnce(ctx)
			switch {
			case errIn == nil:
			case errors.Is(errIn, services.ErrPassRunning),
				errors.Is(errIn, jobs.ErrLockHeld):
				app.logger.Info("skipping pass", logging.ErrAttr(errIn))
			default:
				app.logger.Error("pass failed", logging.ErrAttr(errIn))
			}
		}),
		gocron.WithName(app.syncJob.ID()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule sync: %w", err)
	}

	scheduler.Start()
	app.scheduler = scheduler

	return nil
}

func (app *CalendarSync) Shutdown() error {
	if app.scheduler == nil {
		return nil
	}
	return app.scheduler.Shutdown()
}

func (app *CalendarSync) MetricsHandler() http.Handler {
	//nolint:exhaustruct //other fields are optional
	return promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{})
}

func (app *CalendarSync) ApplyMigrations(db *pgxpool.Pool) error {
	migrationsDB := stdlib.OpenDBFromPool(db)

	goose.SetLogger(slog.NewLogLogger(app.logger.Handler(), slog.LevelInfo))

	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect(string(goose.DialectPostgres)); err != nil {
		return err
	}

	if err := goose.Up(migrationsDB, "migrations"); err != nil {
		return err
	}

	return nil
}

func (app *CalendarSync) GetName() string {
	return "calendarsync"
}
