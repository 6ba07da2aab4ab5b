package gcal

import (
	"context"
	"errors"
	"time"
)

// PrivateTagKey is the private extended property holding the fingerprint
// of the source event an entry was created from.
const PrivateTagKey = "fingerprint"

var ErrNotFound = errors.New("not found")

type Calendar struct {
	ID       string
	Summary  string
	Selected bool
}

type Event struct {
	ID              string
	Summary         string
	Location        string
	Description     string
	Start           time.Time
	End             time.Time
	ReminderMinutes []int
	// PrivateTag is empty when the entry carries no readable tag.
	PrivateTag string
}

type Client interface {
	ListCalendars(ctx context.Context) ([]Calendar, error)
	EnsureCalendar(ctx context.Context, summary string) (string, error)
	ListEvents(
		ctx context.Context,
		calendarID string,
		since time.Time,
	) ([]Event, error)
	InsertEvent(ctx context.Context, calendarID string, event Event) (*Event, error)
	DeleteEvent(ctx context.Context, calendarID string, eventID string) error
}

// Connector binds a Client to the bearer token of one account.
type Connector interface {
	Connect(ctx context.Context, accessToken string) (Client, error)
}
