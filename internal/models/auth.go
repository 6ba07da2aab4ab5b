package models

import (
	"errors"
	"time"
)

// ErrNoToken means no valid access token could be obtained for a user.
var ErrNoToken = errors.New("no valid access token")

// User is an account whose calendars are kept in sync.
// Preferences default to the configured values when unset.
type User struct {
	Email         string
	GroupCodes    []int
	FetchDays     *int
	PopupReminder *int
	ExpiresAt     *time.Time
	RefreshToken  string
	AccessToken   string
}

// TokenExpiresWithin reports whether the stored access token is expired or
// will be within d of now.
func (user User) TokenExpiresWithin(now time.Time, d time.Duration) bool {
	if user.AccessToken == "" || user.ExpiresAt == nil {
		return true
	}
	return !user.ExpiresAt.After(now.Add(d))
}
