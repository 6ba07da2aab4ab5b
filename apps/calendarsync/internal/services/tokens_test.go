package services_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xdoubleu/essentia/v2/pkg/database"
	"github.com/xdoubleu/essentia/v2/pkg/logging"
	"golang.org/x/oauth2"
	"schedulesync.xdoubleu.com/apps/calendarsync/internal/models"
	"schedulesync.xdoubleu.com/apps/calendarsync/internal/services"
	sharedmocks "schedulesync.xdoubleu.com/internal/mocks"
	sharedmodels "schedulesync.xdoubleu.com/internal/models"
)

func tokenServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Nil(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "refresh", r.PostForm.Get("refresh_token"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv
}

func newTokenService(
	srv *httptest.Server,
	users *sharedmocks.MockedUserStore,
) *services.TokenService {
	//nolint:exhaustruct //other fields are optional
	oauthConfig := &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Endpoint: oauth2.Endpoint{
			TokenURL:  srv.URL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	service := services.NewTokenServiceWithConfig(
		logging.NewNopLogger(),
		users,
		oauthConfig,
		time.Second,
	)
	service.SetClock(func() time.Time { return now })

	return service
}

func storedUser(accessToken string, expiresAt time.Time) sharedmodels.User {
	u := user("a@example.com", accessToken, 1)
	u.RefreshToken = "refresh"
	u.ExpiresAt = &expiresAt
	return u
}

func TestGetAccessTokenReusesValidToken(t *testing.T) {
	srv := tokenServer(t, http.StatusInternalServerError, "{}")
	u := storedUser("stored", now.Add(time.Hour))
	service := newTokenService(srv, sharedmocks.NewMockedUserStore(u))

	token, err := service.GetAccessToken(context.Background(), u)

	require.Nil(t, err)
	assert.Equal(t, "stored", token)
}

func TestGetAccessTokenRefreshes(t *testing.T) {
	srv := tokenServer(
		t,
		http.StatusOK,
		`{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`,
	)
	u := storedUser("stored", now.Add(5*time.Second))
	users := sharedmocks.NewMockedUserStore(u)
	service := newTokenService(srv, users)

	token, err := service.GetAccessToken(context.Background(), u)

	require.Nil(t, err)
	assert.Equal(t, "fresh", token)

	saved, err := users.GetUser(context.Background(), u.Email)
	require.Nil(t, err)
	assert.Equal(t, "fresh", saved.AccessToken)
	assert.NotNil(t, saved.ExpiresAt)
}

func TestGetAccessTokenRevokedDeletesUser(t *testing.T) {
	srv := tokenServer(
		t,
		http.StatusBadRequest,
		`{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`,
	)
	u := storedUser("stored", now.Add(-time.Hour))
	users := sharedmocks.NewMockedUserStore(u)
	service := newTokenService(srv, users)

	_, err := service.GetAccessToken(context.Background(), u)

	assert.ErrorIs(t, err, sharedmodels.ErrNoToken)

	_, err = users.GetUser(context.Background(), u.Email)
	assert.ErrorIs(t, err, database.ErrResourceNotFound)
}

func TestGetAccessTokenTransientFailure(t *testing.T) {
	srv := tokenServer(t, http.StatusServiceUnavailable, `{"error":"backend_error"}`)
	u := storedUser("stored", now.Add(-time.Hour))
	users := sharedmocks.NewMockedUserStore(u)
	service := newTokenService(srv, users)

	_, err := service.GetAccessToken(context.Background(), u)

	var tokenErr *models.TokenError
	require.True(t, errors.As(err, &tokenErr))
	assert.Equal(t, u.Email, tokenErr.Email)

	_, err = users.GetUser(context.Background(), u.Email)
	assert.Nil(t, err)
}

func TestGetAccessTokenWithoutRefreshToken(t *testing.T) {
	srv := tokenServer(t, http.StatusInternalServerError, "{}")
	u := user("a@example.com", "", 1)
	service := newTokenService(srv, sharedmocks.NewMockedUserStore(u))

	_, err := service.GetAccessToken(context.Background(), u)

	assert.ErrorIs(t, err, sharedmodels.ErrNoToken)
}
