//nolint:mnd //no magic number
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xdoubleu/essentia/v2/pkg/config"
	"github.com/xhit/go-str2duration/v2"
)

type Config struct {
	Env                    string
	Port                   int
	SentryDsn              string
	SampleRate             float64
	Release                string
	DBDsn                  string
	RedisURL               string
	GoogleClientID         string
	GoogleClientSecret     string
	ScheduleURL            string
	Timezone               string
	CalendarPrefix         string
	SyncCron               string
	SyncWorkers            int
	CallTimeout            time.Duration
	SnapshotTTL            time.Duration
	CalendarRPS            float64
	DefaultFetchDays       int
	DefaultReminderMinutes int
}

func New(logger *slog.Logger) Config {
	var cfg Config

	parser := config.New(logger)

	cfg.Env = parser.EnvStr("ENV", config.ProdEnv)
	cfg.Port = parser.EnvInt("PORT", 8000)
	cfg.SentryDsn = parser.EnvStr("SENTRY_DSN", "")
	cfg.SampleRate = parser.EnvFloat("SAMPLE_RATE", 1.0)
	cfg.Release = parser.EnvStr("RELEASE", config.DevEnv)
	cfg.DBDsn = parser.EnvStr("DB_DSN", "postgres://postgres@localhost/postgres")
	cfg.RedisURL = parser.EnvStr("REDIS_URL", "")

	cfg.GoogleClientID = parser.EnvStr("GOOGLE_CLIENT_ID", "")
	cfg.GoogleClientSecret = parser.EnvStr("GOOGLE_CLIENT_SECRET", "")

	cfg.ScheduleURL = parser.EnvStr(
		"SCHEDULE_URL",
		"https://schedule.sumdu.edu.ua/index/json",
	)
	cfg.Timezone = parser.EnvStr("TIMEZONE", "Europe/Kyiv")
	cfg.CalendarPrefix = parser.EnvStr("CALENDAR_PREFIX", "SSU Schedule")

	cfg.SyncCron = parser.EnvStr("SYNC_CRON", "0 * * * *")
	cfg.SyncWorkers = parser.EnvInt("SYNC_WORKERS", 4)
	cfg.CallTimeout = parseDuration(
		logger,
		"CALL_TIMEOUT",
		parser.EnvStr("CALL_TIMEOUT", "5s"),
		5*time.Second,
	)
	cfg.SnapshotTTL = parseDuration(
		logger,
		"SNAPSHOT_TTL",
		parser.EnvStr("SNAPSHOT_TTL", "10m"),
		10*time.Minute,
	)
	cfg.CalendarRPS = parser.EnvFloat("CALENDAR_RPS", 5.0)

	cfg.DefaultFetchDays = parser.EnvInt("DEFAULT_FETCH_DAYS", 30)
	cfg.DefaultReminderMinutes = parser.EnvInt("DEFAULT_REMINDER_MINUTES", 15)

	return cfg
}

// Validate reports configuration that would break the sync loop at runtime.
func (cfg Config) Validate() error {
	if _, err := cron.ParseStandard(cfg.SyncCron); err != nil {
		return fmt.Errorf("invalid SYNC_CRON %q: %w", cfg.SyncCron, err)
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}

	if cfg.SyncWorkers < 1 {
		return fmt.Errorf("SYNC_WORKERS must be positive, got %d", cfg.SyncWorkers)
	}

	if cfg.CallTimeout <= 0 {
		return fmt.Errorf("CALL_TIMEOUT must be positive, got %s", cfg.CallTimeout)
	}

	return nil
}

// Location returns the civil time zone schedules are expressed in.
func (cfg Config) Location() *time.Location {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func parseDuration(
	logger *slog.Logger,
	key string,
	value string,
	fallback time.Duration,
) time.Duration {
	d, err := str2duration.ParseDuration(value)
	if err != nil {
		logger.Warn(
			fmt.Sprintf("can't parse %s, using default", key),
			slog.String("value", value),
			slog.Duration("default", fallback),
		)
		return fallback
	}
	return d
}
