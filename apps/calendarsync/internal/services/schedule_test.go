package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xdoubleu/essentia/v2/pkg/logging"
	"schedulesync.xdoubleu.com/apps/calendarsync/internal/mocks"
	"schedulesync.xdoubleu.com/apps/calendarsync/internal/models"
	"schedulesync.xdoubleu.com/apps/calendarsync/internal/services"
	"schedulesync.xdoubleu.com/apps/calendarsync/pkg/sumdu"
)

func TestGetSnapshotMapsRecords(t *testing.T) {
	env := newTestEnv()
	env.feed.SetRecords(
		1,
		sumdu.Record{
			NameDisc: "  Math ",
			DateReg:  today,
			TimePair: "09:00-10:20",
			NameAud:  "",
			NameFio:  "Petrenko O.",
			NameStud: "IN-31",
			Comment:  " bring laptops ",
		},
		record("   ", today, "10:30-11:50"),
	)

	snapshot, err := env.services.Schedule.GetSnapshot(context.Background(), 1, 30)
	require.Nil(t, err)
	require.Len(t, snapshot, 1)

	assert.Equal(t, models.SourceEvent{
		Discipline:   "Math",
		Date:         today,
		TimeRange:    "09:00-10:20",
		Room:         "",
		Instructor:   "Petrenko O.",
		StudentGroup: "IN-31",
		Note:         "bring laptops",
	}, snapshot[0])
}

func TestGetSnapshotIsCached(t *testing.T) {
	env := newTestEnv()
	env.feed.SetRecords(1, record("Math", today, "09:00-10:20"))

	for range 3 {
		_, err := env.services.Schedule.GetSnapshot(context.Background(), 1, 30)
		require.Nil(t, err)
	}
	assert.Equal(t, 1, env.feed.Calls(1))

	_, err := env.services.Schedule.GetSnapshot(context.Background(), 1, 7)
	require.Nil(t, err)
	assert.Equal(t, 2, env.feed.Calls(1))

	env.services.Schedule.Forget()
	_, err = env.services.Schedule.GetSnapshot(context.Background(), 1, 30)
	require.Nil(t, err)
	assert.Equal(t, 3, env.feed.Calls(1))
}

func TestGetSnapshotWithoutCache(t *testing.T) {
	feed := mocks.NewMockSumduClient()
	schedule := services.NewScheduleService(
		logging.NewNopLogger(),
		feed,
		kyiv,
		time.Second,
		0,
		services.NewMetricsService(prometheus.NewRegistry()),
	)

	for range 2 {
		_, err := schedule.GetSnapshot(context.Background(), 1, 30)
		require.Nil(t, err)
	}
	assert.Equal(t, 2, feed.Calls(1))
}

func TestGetSnapshotFetchError(t *testing.T) {
	env := newTestEnv()
	cause := errors.New("feed down")
	env.feed.SetError(4, cause)

	_, err := env.services.Schedule.GetSnapshot(context.Background(), 4, 30)

	var fetchErr *models.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, 4, fetchErr.GroupCode)
	assert.ErrorIs(t, err, cause)
}

type windowFeed struct {
	from time.Time
	to   time.Time
}

func (f *windowFeed) GetSchedule(
	_ context.Context,
	_ int,
	from time.Time,
	to time.Time,
) ([]sumdu.Record, error) {
	f.from = from
	f.to = to
	return nil, nil
}

func TestGetSnapshotWindow(t *testing.T) {
	feed := &windowFeed{}
	env := newTestEnvWith(feed, nil)

	_, err := env.services.Schedule.GetSnapshot(context.Background(), 1, 14)
	require.Nil(t, err)

	assert.True(t, feed.from.Equal(time.Date(2026, 10, 12, 0, 0, 0, 0, kyiv)))
	assert.True(t, feed.to.Equal(time.Date(2026, 10, 26, 0, 0, 0, 0, kyiv)))
}
