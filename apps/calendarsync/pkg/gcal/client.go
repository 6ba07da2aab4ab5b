package gcal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const ColorID = "16"

const maxResults = 2500

type connector struct {
	logger   *slog.Logger
	limiter  *rate.Limiter
	location *time.Location
	options  []option.ClientOption
}

// NewConnector returns a Connector for the Google Calendar API. All clients
// it creates share limiter. Extra options are appended after the token
// source, so tests can point the service at another endpoint.
func NewConnector(
	logger *slog.Logger,
	limiter *rate.Limiter,
	location *time.Location,
	options ...option.ClientOption,
) Connector {
	return connector{
		logger:   logger,
		limiter:  limiter,
		location: location,
		options:  options,
	}
}

func (c connector) Connect(ctx context.Context, accessToken string) (Client, error) {
	//nolint:exhaustruct //other fields are optional
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	})

	opts := append([]option.ClientOption{option.WithTokenSource(tokenSource)}, c.options...)

	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}

	return client{
		logger:   c.logger,
		limiter:  c.limiter,
		location: c.location,
		service:  service,
	}, nil
}

type client struct {
	logger   *slog.Logger
	limiter  *rate.Limiter
	location *time.Location
	service  *calendar.Service
}

func (client client) ListCalendars(ctx context.Context) ([]Calendar, error) {
	calendars := []Calendar{}

	err := client.wait(ctx)
	if err != nil {
		return nil, err
	}

	err = client.service.CalendarList.List().Pages(
		ctx,
		func(page *calendar.CalendarList) error {
			for _, entry := range page.Items {
				calendars = append(calendars, Calendar{
					ID:       entry.Id,
					Summary:  entry.Summary,
					Selected: entry.Selected,
				})
			}
			return nil
		},
	)
	if err != nil {
		return nil, mapError(err)
	}

	return calendars, nil
}

func (client client) EnsureCalendar(ctx context.Context, summary string) (string, error) {
	calendars, err := client.ListCalendars(ctx)
	if err != nil {
		return "", err
	}

	for _, cal := range calendars {
		if cal.Summary != summary {
			continue
		}

		if !cal.Selected {
			err = client.selectCalendar(ctx, cal.ID)
			if err != nil {
				return "", err
			}
		}

		return cal.ID, nil
	}

	err = client.wait(ctx)
	if err != nil {
		return "", err
	}

	//nolint:exhaustruct //other fields are optional
	created, err := client.service.Calendars.Insert(&calendar.Calendar{
		Summary:  summary,
		TimeZone: client.location.String(),
	}).Context(ctx).Do()
	if err != nil {
		return "", mapError(err)
	}

	client.logger.Debug("created calendar", "summary", summary, "id", created.Id)

	err = client.selectCalendar(ctx, created.Id)
	if err != nil {
		return "", err
	}

	return created.Id, nil
}

func (client client) selectCalendar(ctx context.Context, calendarID string) error {
	err := client.wait(ctx)
	if err != nil {
		return err
	}

	//nolint:exhaustruct //other fields are optional
	_, err = client.service.CalendarList.Patch(calendarID, &calendar.CalendarListEntry{
		Selected: true,
		ColorId:  ColorID,
	}).Context(ctx).Do()
	if err != nil {
		return mapError(err)
	}

	return nil
}

func (client client) ListEvents(
	ctx context.Context,
	calendarID string,
	since time.Time,
) ([]Event, error) {
	events := []Event{}

	err := client.wait(ctx)
	if err != nil {
		return nil, err
	}

	err = client.service.Events.List(calendarID).
		TimeMin(since.Format(time.RFC3339)).
		SingleEvents(true).
		ShowDeleted(false).
		MaxResults(maxResults).
		Pages(ctx, func(page *calendar.Events) error {
			for _, item := range page.Items {
				event := client.fromAPI(item)

				// TimeMin bounds the end of an event, not its start
				if event.Start.Before(since) {
					continue
				}

				events = append(events, event)
			}
			return nil
		})
	if err != nil {
		return nil, mapError(err)
	}

	return events, nil
}

func (client client) InsertEvent(
	ctx context.Context,
	calendarID string,
	event Event,
) (*Event, error) {
	err := client.wait(ctx)
	if err != nil {
		return nil, err
	}

	created, err := client.service.Events.Insert(calendarID, client.toAPI(event)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapError(err)
	}

	result := client.fromAPI(created)
	return &result, nil
}

func (client client) DeleteEvent(
	ctx context.Context,
	calendarID string,
	eventID string,
) error {
	err := client.wait(ctx)
	if err != nil {
		return err
	}

	err = client.service.Events.Delete(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return mapError(err)
	}

	return nil
}

func (client client) wait(ctx context.Context) error {
	if client.limiter == nil {
		return nil
	}
	return client.limiter.Wait(ctx)
}

func (client client) toAPI(event Event) *calendar.Event {
	overrides := []*calendar.EventReminder{}
	for _, minutes := range event.ReminderMinutes {
		//nolint:exhaustruct //other fields are optional
		overrides = append(overrides, &calendar.EventReminder{
			Method:          "popup",
			Minutes:         int64(minutes),
			ForceSendFields: []string{"Minutes"},
		})
	}

	//nolint:exhaustruct //other fields are optional
	return &calendar.Event{
		Summary:     event.Summary,
		Location:    event.Location,
		Description: event.Description,
		Start: &calendar.EventDateTime{
			DateTime: event.Start.Format(time.RFC3339),
			TimeZone: client.location.String(),
		},
		End: &calendar.EventDateTime{
			DateTime: event.End.Format(time.RFC3339),
			TimeZone: client.location.String(),
		},
		Reminders: &calendar.EventReminders{
			UseDefault:      false,
			Overrides:       overrides,
			ForceSendFields: []string{"UseDefault"},
		},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				PrivateTagKey: event.PrivateTag,
			},
		},
	}
}

func (client client) fromAPI(item *calendar.Event) Event {
	//nolint:exhaustruct //other fields are optional
	event := Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Location:    item.Location,
		Description: item.Description,
		Start:       client.parseDateTime(item.Start),
		End:         client.parseDateTime(item.End),
	}

	if item.ExtendedProperties != nil && item.ExtendedProperties.Private != nil {
		event.PrivateTag = item.ExtendedProperties.Private[PrivateTagKey]
	}

	if item.Reminders != nil {
		for _, reminder := range item.Reminders.Overrides {
			event.ReminderMinutes = append(event.ReminderMinutes, int(reminder.Minutes))
		}
	}

	return event
}

func (client client) parseDateTime(dt *calendar.EventDateTime) time.Time {
	if dt == nil {
		return time.Time{}
	}

	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err == nil {
			return t.In(client.location)
		}
	}

	// all-day entries carry only a date
	t, err := time.ParseInLocation(time.DateOnly, dt.Date, client.location)
	if err != nil {
		return time.Time{}
	}
	return t
}

func mapError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) &&
		(apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
		return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
	}
	return err
}
