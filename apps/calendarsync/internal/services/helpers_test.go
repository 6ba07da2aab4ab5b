package services_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	configtools "github.com/xdoubleu/essentia/v2/pkg/config"
	"github.com/xdoubleu/essentia/v2/pkg/logging"
	"schedulesync.xdoubleu.com/apps/calendarsync/internal/mocks"
	"schedulesync.xdoubleu.com/apps/calendarsync/internal/models"
	"schedulesync.xdoubleu.com/apps/calendarsync/internal/services"
	"schedulesync.xdoubleu.com/apps/calendarsync/pkg/gcal"
	"schedulesync.xdoubleu.com/apps/calendarsync/pkg/sumdu"
	"schedulesync.xdoubleu.com/internal/config"
	sharedmocks "schedulesync.xdoubleu.com/internal/mocks"
	sharedmodels "schedulesync.xdoubleu.com/internal/models"
)

const (
	today    = "12.10.2026"
	tomorrow = "13.10.2026"
	past     = "11.10.2026"
)

//nolint:gochecknoglobals //needed for tests
var kyiv = mustLoadLocation("Europe/Kyiv")

//nolint:gochecknoglobals //needed for tests
var now = time.Date(2026, 10, 12, 8, 0, 0, 0, kyiv)

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

type testEnv struct {
	services  *services.Services
	users     *sharedmocks.MockedUserStore
	tokens    *sharedmocks.MockedTokenProvider
	feed      *mocks.MockSumduClient
	connector *mocks.MockCalendarConnector
	cfg       config.Config
}

func newTestEnv(users ...sharedmodels.User) testEnv {
	return newTestEnvWith(nil, nil, users...)
}

// newTestEnvWith allows replacing the feed and connector; nil keeps the
// default mocks.
func newTestEnvWith(
	feed sumdu.Client,
	connector gcal.Connector,
	users ...sharedmodels.User,
) testEnv {
	return newTestEnvWithConfig(func(_ *config.Config) {}, feed, connector, users...)
}

func newTestEnvWithConfig(
	configure func(cfg *config.Config),
	feed sumdu.Client,
	connector gcal.Connector,
	users ...sharedmodels.User,
) testEnv {
	cfg := config.New(logging.NewNopLogger())
	cfg.Env = configtools.TestEnv
	configure(&cfg)

	env := testEnv{
		users:     sharedmocks.NewMockedUserStore(users...),
		tokens:    sharedmocks.NewMockedTokenProvider(),
		feed:      mocks.NewMockSumduClient(),
		connector: mocks.NewMockCalendarConnector(),
		cfg:       cfg,
	}

	if feed == nil {
		feed = env.feed
	}
	if connector == nil {
		connector = env.connector
	}

	env.services = services.New(
		logging.NewNopLogger(),
		cfg,
		env.users,
		env.tokens,
		feed,
		connector,
		services.NewLockService(nil, time.Hour),
		services.NewMetricsService(prometheus.NewRegistry()),
	)
	env.services.SetClock(func() time.Time { return now })

	return env
}

func user(email string, token string, groups ...int) sharedmodels.User {
	//nolint:exhaustruct //other fields are optional
	return sharedmodels.User{
		Email:       email,
		GroupCodes:  groups,
		AccessToken: token,
	}
}

func subject(groupCode int) models.Subject {
	return models.Subject{
		User:            user("student@example.com", "token", groupCode),
		GroupCode:       groupCode,
		FetchDays:       30,
		ReminderMinutes: 15,
	}
}

func lesson(discipline string, date string, timeRange string) models.SourceEvent {
	return models.SourceEvent{
		Discipline:   discipline,
		Date:         date,
		TimeRange:    timeRange,
		Room:         "H-101",
		Instructor:   "Petrenko O.",
		StudentGroup: "IN-31",
		Note:         "",
	}
}

func record(discipline string, date string, timeRange string) sumdu.Record {
	return sumdu.Record{
		NameDisc: sumdu.Text(discipline),
		DateReg:  sumdu.Text(date),
		TimePair: sumdu.Text(timeRange),
		NameAud:  "H-101",
		NameFio:  "Petrenko O.",
		NameStud: "IN-31",
		Comment:  "",
	}
}

func mustEnsure(t *testing.T, client gcal.Client, summary string) string {
	t.Helper()

	id, err := client.EnsureCalendar(t.Context(), summary)
	if err != nil {
		t.Fatal(err)
	}
	return id
}
