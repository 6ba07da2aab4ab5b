package repositories

import (
	"context"
	"time"

	"github.com/xdoubleu/essentia/v2/pkg/database"
	"github.com/xdoubleu/essentia/v2/pkg/database/postgres"
	"schedulesync.xdoubleu.com/internal/auth"
	"schedulesync.xdoubleu.com/internal/models"
)

type UserRepository struct {
	db postgres.DB
}

var _ auth.UserStore = (*UserRepository)(nil)

func (repo *UserRepository) GetAllUsers(ctx context.Context) ([]models.User, error) {
	query := `
		SELECT email, group_codes, fetch_days, popup_reminder,
			expires_at, refresh_token, access_token
		FROM calendarsync.users
		ORDER BY email
	`

	rows, err := repo.db.Query(ctx, query)
	if err != nil {
		return nil, postgres.PgxErrorToHTTPError(err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		//nolint:exhaustruct //fields are scanned below
		user := models.User{}

		err = rows.Scan(
			&user.Email,
			&user.GroupCodes,
			&user.FetchDays,
			&user.PopupReminder,
			&user.ExpiresAt,
			&user.RefreshToken,
			&user.AccessToken,
		)
		if err != nil {
			return nil, postgres.PgxErrorToHTTPError(err)
		}

		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, postgres.PgxErrorToHTTPError(err)
	}

	return users, nil
}

func (repo *UserRepository) GetUser(
	ctx context.Context,
	email string,
) (*models.User, error) {
	query := `
		SELECT email, group_codes, fetch_days, popup_reminder,
			expires_at, refresh_token, access_token
		FROM calendarsync.users
		WHERE email = $1
	`

	//nolint:exhaustruct //fields are scanned below
	user := models.User{}

	err := repo.db.QueryRow(ctx, query, email).Scan(
		&user.Email,
		&user.GroupCodes,
		&user.FetchDays,
		&user.PopupReminder,
		&user.ExpiresAt,
		&user.RefreshToken,
		&user.AccessToken,
	)
	if err != nil {
		return nil, postgres.PgxErrorToHTTPError(err)
	}

	return &user, nil
}

// Upsert stores user, replacing preferences and credentials of an
// existing row with the same email.
func (repo *UserRepository) Upsert(ctx context.Context, user models.User) error {
	query := `
		INSERT INTO calendarsync.users (email, group_codes, fetch_days,
			popup_reminder, expires_at, refresh_token, access_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (email)
		DO UPDATE SET group_codes = $2, fetch_days = $3, popup_reminder = $4,
			expires_at = $5, refresh_token = $6, access_token = $7
	`

	groupCodes := user.GroupCodes
	if groupCodes == nil {
		groupCodes = []int{}
	}

	_, err := repo.db.Exec(
		ctx,
		query,
		user.Email,
		groupCodes,
		user.FetchDays,
		user.PopupReminder,
		user.ExpiresAt,
		user.RefreshToken,
		user.AccessToken,
	)
	if err != nil {
		return postgres.PgxErrorToHTTPError(err)
	}

	return nil
}

func (repo *UserRepository) UpdateAccessToken(
	ctx context.Context,
	email string,
	accessToken string,
	expiresAt time.Time,
) error {
	query := `
		UPDATE calendarsync.users
		SET access_token = $2, expires_at = $3
		WHERE email = $1
	`

	result, err := repo.db.Exec(ctx, query, email, accessToken, expiresAt)
	if err != nil {
		return postgres.PgxErrorToHTTPError(err)
	}

	if result.RowsAffected() == 0 {
		return database.ErrResourceNotFound
	}

	return nil
}

func (repo *UserRepository) DeleteUser(ctx context.Context, email string) error {
	query := `
		DELETE FROM calendarsync.users
		WHERE email = $1
	`

	result, err := repo.db.Exec(ctx, query, email)
	if err != nil {
		return postgres.PgxErrorToHTTPError(err)
	}

	if result.RowsAffected() == 0 {
		return database.ErrResourceNotFound
	}

	return nil
}
