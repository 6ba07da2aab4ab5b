package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/xdoubleu/essentia/v2/pkg/database/postgres"
	"github.com/xdoubleu/essentia/v2/pkg/sentrytools"
	"schedulesync.xdoubleu.com/apps/calendarsync"
	"schedulesync.xdoubleu.com/internal/config"
)

type Application struct {
	logger       *slog.Logger
	config       config.Config
	db           *pgxpool.Pool
	apps         *Apps
	calendarSync *calendarsync.CalendarSync
}

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration, connects to the database and migrates it.
func setup() (*Application, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := config.New(slog.New(slog.NewTextHandler(os.Stdout, nil)))
	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	if len(cfg.SentryDsn) > 0 {
		if err = sentry.Init(sentryOptions(cfg)); err != nil {
			return nil, fmt.Errorf("initializing sentry: %w", err)
		}
	}

	logger := slog.New(sentrytools.NewLogHandler(cfg.Env,
		slog.NewTextHandler(os.Stdout, nil)))

	db, err := postgres.Connect(
		logger,
		cfg.DBDsn,
		25, //nolint:mnd //no magic number
		"15m",
		60,             //nolint:mnd //no magic number
		10*time.Second, //nolint:mnd //no magic number
		5*time.Minute,  //nolint:mnd //no magic number
	)
	if err != nil {
		return nil, err
	}

	calendarSync, err := calendarsync.New(logger, cfg, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	app := NewApplication(logger, cfg, calendarSync)
	app.db = db

	if err = app.apps.ApplyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return app, nil
}

func NewApplication(
	logger *slog.Logger,
	cfg config.Config,
	calendarSync *calendarsync.CalendarSync,
) *Application {
	//nolint:exhaustruct //other fields are optional
	return &Application{
		logger:       logger,
		config:       cfg,
		apps:         NewApps(calendarSync),
		calendarSync: calendarSync,
	}
}

func (app *Application) Close() {
	if app.db != nil {
		app.db.Close()
	}
	sentry.Flush(2 * time.Second) //nolint:mnd //no magic number
}

func sentryOptions(cfg config.Config) sentry.ClientOptions {
	//nolint:exhaustruct //other fields are optional
	return sentry.ClientOptions{
		Dsn:              cfg.SentryDsn,
		Environment:      cfg.Env,
		Release:          cfg.Release,
		EnableTracing:    true,
		TracesSampleRate: cfg.SampleRate,
		SampleRate:       cfg.SampleRate,
	}
}
