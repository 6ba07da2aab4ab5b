package auth

import (
	"context"
	"time"

	"schedulesync.xdoubleu.com/internal/models"
)

// UserStore is where user records and their credentials live.
type UserStore interface {
	GetAllUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, email string) (*models.User, error)
	UpdateAccessToken(
		ctx context.Context,
		email string,
		accessToken string,
		expiresAt time.Time,
	) error
	DeleteUser(ctx context.Context, email string) error
}

// TokenProvider hands out bearer tokens for the calendar backend.
// It returns an error wrapping models.ErrNoToken when the user has no
// usable credentials.
type TokenProvider interface {
	GetAccessToken(ctx context.Context, user models.User) (string, error)
}
