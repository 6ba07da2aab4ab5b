package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	configtools "github.com/xdoubleu/essentia/v2/pkg/config"
	"github.com/xdoubleu/essentia/v2/pkg/database"
	"github.com/xdoubleu/essentia/v2/pkg/logging"
	"schedulesync.xdoubleu.com/apps/calendarsync"
	"schedulesync.xdoubleu.com/apps/calendarsync/pkg/gcal"
	"schedulesync.xdoubleu.com/apps/calendarsync/pkg/sumdu"
	"schedulesync.xdoubleu.com/internal/config"
	sharedmocks "schedulesync.xdoubleu.com/internal/mocks"
	"schedulesync.xdoubleu.com/internal/models"
)

var testApp *Application //nolint:gochecknoglobals //needed for tests

type emptyFeed struct{}

func (emptyFeed) GetSchedule(
	_ context.Context,
	_ int,
	_ time.Time,
	_ time.Time,
) ([]sumdu.Record, error) {
	return nil, nil
}

type offlineConnector struct{}

func (offlineConnector) Connect(_ context.Context, _ string) (gcal.Client, error) {
	return nil, errors.New("offline")
}

func TestMain(m *testing.M) {
	cfg := config.New(logging.NewNopLogger())
	cfg.Env = configtools.TestEnv

	calendarSync := calendarsync.NewInner(
		logging.NewNopLogger(),
		cfg,
		sharedmocks.NewMockedUserStore(),
		sharedmocks.NewMockedTokenProvider(),
		//nolint:exhaustruct //no redis in tests
		calendarsync.Clients{
			Schedule: emptyFeed{},
			Calendar: offlineConnector{},
		},
	)

	testApp = NewApplication(logging.NewNopLogger(), cfg, calendarSync)

	os.Exit(m.Run())
}

func get(path string) *httptest.ResponseRecorder {
	rs := httptest.NewRecorder()
	testApp.Routes().ServeHTTP(rs, httptest.NewRequest(http.MethodGet, path, nil))
	return rs
}

func TestHealth(t *testing.T) {
	rs := get("/health")

	assert.Equal(t, http.StatusOK, rs.Code)
	assert.Equal(t, "ok", rs.Body.String())
}

func TestMetrics(t *testing.T) {
	rs := get("/metrics")

	assert.Equal(t, http.StatusOK, rs.Code)
	assert.Contains(t, rs.Body.String(), "go_goroutines")
}

func TestStatus(t *testing.T) {
	rs := get("/calendarsync/api/status")

	assert.Equal(t, http.StatusOK, rs.Code)
	assert.Contains(t, rs.Body.String(), `"lastPass":null`)
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	names := []string{}
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}

	assert.ElementsMatch(t, []string{"serve", "sync", "preview", "users"}, names)
}

type memoryUsers struct {
	users map[string]models.User
}

func (m *memoryUsers) GetUser(_ context.Context, email string) (*models.User, error) {
	user, ok := m.users[email]
	if !ok {
		return nil, database.ErrResourceNotFound
	}
	return &user, nil
}

func (m *memoryUsers) Upsert(_ context.Context, user models.User) error {
	m.users[user.Email] = user
	return nil
}

func TestAddUser(t *testing.T) {
	users := &memoryUsers{users: map[string]models.User{}}

	//nolint:exhaustruct //other fields are optional
	user := models.User{
		Email:        "a@example.com",
		GroupCodes:   []int{1},
		RefreshToken: "refresh",
	}

	out := bytes.Buffer{}
	require.Nil(t, addUser(context.Background(), &out, users, user))
	assert.Equal(t, "created user a@example.com\n", out.String())

	user.GroupCodes = []int{1, 2}
	out.Reset()
	require.Nil(t, addUser(context.Background(), &out, users, user))
	assert.Equal(t, "updated user a@example.com\n", out.String())
	assert.Equal(t, []int{1, 2}, users.users["a@example.com"].GroupCodes)
}

type brokenUsers struct {
	memoryUsers
}

func (brokenUsers) GetUser(_ context.Context, _ string) (*models.User, error) {
	return nil, errors.New("db down")
}

func TestAddUserLookupFailure(t *testing.T) {
	users := &brokenUsers{memoryUsers{users: map[string]models.User{}}}

	//nolint:exhaustruct //other fields are optional
	err := addUser(context.Background(), &bytes.Buffer{}, users, models.User{Email: "a@example.com"})

	assert.ErrorContains(t, err, "db down")
	assert.Empty(t, users.users)
}
