package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xdoubleu/essentia/v2/pkg/logging"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"schedulesync.xdoubleu.com/apps/calendarsync/internal/models"
	"schedulesync.xdoubleu.com/internal/auth"
	sharedmodels "schedulesync.xdoubleu.com/internal/models"
)

// expiryLeeway is how close to expiry a stored access token is still reused.
const expiryLeeway = 10 * time.Second

const calendarScope = "https://www.googleapis.com/auth/calendar"

// TokenService hands out access tokens, refreshing them with the stored
// refresh token when needed.
type TokenService struct {
	logger  *slog.Logger
	users   auth.UserStore
	oauth   *oauth2.Config
	timeout time.Duration
	now     func() time.Time
}

var _ auth.TokenProvider = (*TokenService)(nil)

func NewTokenService(
	logger *slog.Logger,
	users auth.UserStore,
	clientID string,
	clientSecret string,
	timeout time.Duration,
) *TokenService {
	//nolint:exhaustruct //other fields are optional
	oauthConfig := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{calendarScope},
	}

	return NewTokenServiceWithConfig(logger, users, oauthConfig, timeout)
}

func NewTokenServiceWithConfig(
	logger *slog.Logger,
	users auth.UserStore,
	oauthConfig *oauth2.Config,
	timeout time.Duration,
) *TokenService {
	return &TokenService{
		logger:  logger,
		users:   users,
		oauth:   oauthConfig,
		timeout: timeout,
		now:     time.Now,
	}
}

func (service *TokenService) GetAccessToken(
	ctx context.Context,
	user sharedmodels.User,
) (string, error) {
	if !user.TokenExpiresWithin(service.now(), expiryLeeway) {
		return user.AccessToken, nil
	}

	if user.RefreshToken == "" {
		return "", fmt.Errorf("%s: %w", user.Email, sharedmodels.ErrNoToken)
	}

	ctx, cancel := context.WithTimeout(ctx, service.timeout)
	defer cancel()

	//nolint:exhaustruct //other fields are optional
	token, err := service.oauth.TokenSource(ctx, &oauth2.Token{
		RefreshToken: user.RefreshToken,
	}).Token()
	if err != nil {
		return "", service.handleRefreshError(ctx, user, err)
	}

	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		expiresAt = service.now().Add(time.Hour)
	}

	err = service.users.UpdateAccessToken(ctx, user.Email, token.AccessToken, expiresAt)
	if err != nil {
		return "", &models.TokenError{Email: user.Email, Err: err}
	}

	return token.AccessToken, nil
}

// handleRefreshError deletes users whose refresh token was revoked, they
// can't be synced until they sign in again.
func (service *TokenService) handleRefreshError(
	ctx context.Context,
	user sharedmodels.User,
	err error,
) error {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) || retrieveErr.ErrorCode != "invalid_grant" {
		return &models.TokenError{Email: user.Email, Err: err}
	}

	service.logger.Warn(
		"refresh token revoked, removing user",
		slog.String("user", user.Email),
	)

	if errDel := service.users.DeleteUser(ctx, user.Email); errDel != nil {
		service.logger.Error("failed to remove user", logging.ErrAttr(errDel))
	}

	return fmt.Errorf("%s: %w", user.Email, sharedmodels.ErrNoToken)
}
