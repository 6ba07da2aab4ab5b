package config_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xdoubleu/essentia/v2/pkg/logging"
	"schedulesync.xdoubleu.com/internal/config"
)

func TestDefaults(t *testing.T) {
	cfg := config.New(logging.NewNopLogger())

	assert.Equal(t, "Europe/Kyiv", cfg.Timezone)
	assert.Equal(t, "SSU Schedule", cfg.CalendarPrefix)
	assert.Equal(t, 5*time.Second, cfg.CallTimeout)
	assert.Equal(t, 30, cfg.DefaultFetchDays)
	assert.Equal(t, 15, cfg.DefaultReminderMinutes)
	assert.Nil(t, cfg.Validate())
}

func TestDurationsFromEnv(t *testing.T) {
	t.Setenv("CALL_TIMEOUT", "250ms")
	t.Setenv("SNAPSHOT_TTL", "1d")

	cfg := config.New(logging.NewNopLogger())

	assert.Equal(t, 250*time.Millisecond, cfg.CallTimeout)
	assert.Equal(t, 24*time.Hour, cfg.SnapshotTTL)
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("CALL_TIMEOUT", "soon")

	cfg := config.New(logging.NewNopLogger())

	assert.Equal(t, 5*time.Second, cfg.CallTimeout)
}

func TestValidate(t *testing.T) {
	cfg := config.New(logging.NewNopLogger())

	cfg.SyncCron = "every hour"
	require.NotNil(t, cfg.Validate())

	cfg = config.New(logging.NewNopLogger())
	cfg.Timezone = "Mars/Olympus"
	require.NotNil(t, cfg.Validate())

	cfg = config.New(logging.NewNopLogger())
	cfg.SyncWorkers = 0
	require.NotNil(t, cfg.Validate())
}

func TestLocation(t *testing.T) {
	cfg := config.New(logging.NewNopLogger())
	assert.Equal(t, "Europe/Kyiv", cfg.Location().String())

	cfg.Timezone = "nowhere"
	assert.Equal(t, time.UTC, cfg.Location())
}
