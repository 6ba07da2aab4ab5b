//nolint:exhaustruct,revive //ignore
package mocks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"schedulesync.xdoubleu.com/apps/calendarsync/pkg/gcal"
)

var ErrMockBackend = errors.New("mock backend failure")

// MockCalendarConnector hands out one in-memory account per access token.
type MockCalendarConnector struct {
	mu       sync.Mutex
	accounts map[string]*MockCalendarClient
	// FailConnect makes Connect fail for these tokens.
	FailConnect map[string]bool
}

func NewMockCalendarConnector() *MockCalendarConnector {
	return &MockCalendarConnector{
		accounts:    map[string]*MockCalendarClient{},
		FailConnect: map[string]bool{},
	}
}

func (connector *MockCalendarConnector) Connect(
	_ context.Context,
	accessToken string,
) (gcal.Client, error) {
	connector.mu.Lock()
	defer connector.mu.Unlock()

	if connector.FailConnect[accessToken] {
		return nil, ErrMockBackend
	}

	return connector.account(accessToken), nil
}

// Account returns the in-memory account behind accessToken.
func (connector *MockCalendarConnector) Account(accessToken string) *MockCalendarClient {
	connector.mu.Lock()
	defer connector.mu.Unlock()

	return connector.account(accessToken)
}

func (connector *MockCalendarConnector) account(accessToken string) *MockCalendarClient {
	acc, ok := connector.accounts[accessToken]
	if !ok {
		acc = NewMockCalendarClient()
		connector.accounts[accessToken] = acc
	}
	return acc
}

type mockCalendar struct {
	summary  string
	selected bool
	events   map[string]gcal.Event
}

// MockCalendarClient keeps calendars and events in memory and counts
// mutating calls.
type MockCalendarClient struct {
	mu        sync.Mutex
	calendars map[string]*mockCalendar
	order     []string
	nextID    int

	Inserts int
	Deletes int

	FailListCalendars bool
	FailListEvents    bool
	FailInsert        func(event gcal.Event) bool
	FailDelete        func(eventID string) bool
}

func NewMockCalendarClient() *MockCalendarClient {
	return &MockCalendarClient{
		calendars: map[string]*mockCalendar{},
	}
}

func (client *MockCalendarClient) ListCalendars(
	_ context.Context,
) ([]gcal.Calendar, error) {
	client.mu.Lock()
	defer client.mu.Unlock()

	return client.listCalendars()
}

func (client *MockCalendarClient) listCalendars() ([]gcal.Calendar, error) {
	if client.FailListCalendars {
		return nil, ErrMockBackend
	}

	calendars := []gcal.Calendar{}
	for _, id := range client.order {
		cal := client.calendars[id]
		calendars = append(calendars, gcal.Calendar{
			ID:       id,
			Summary:  cal.summary,
			Selected: cal.selected,
		})
	}
	return calendars, nil
}

func (client *MockCalendarClient) EnsureCalendar(
	_ context.Context,
	summary string,
) (string, error) {
	client.mu.Lock()
	defer client.mu.Unlock()

	calendars, err := client.listCalendars()
	if err != nil {
		return "", err
	}

	for _, cal := range calendars {
		if cal.Summary == summary {
			client.calendars[cal.ID].selected = true
			return cal.ID, nil
		}
	}

	id := client.newID("cal")
	client.calendars[id] = &mockCalendar{
		summary:  summary,
		selected: true,
		events:   map[string]gcal.Event{},
	}
	client.order = append(client.order, id)

	return id, nil
}

func (client *MockCalendarClient) ListEvents(
	_ context.Context,
	calendarID string,
	since time.Time,
) ([]gcal.Event, error) {
	client.mu.Lock()
	defer client.mu.Unlock()

	if client.FailListEvents {
		return nil, ErrMockBackend
	}

	cal, ok := client.calendars[calendarID]
	if !ok {
		return nil, gcal.ErrNotFound
	}

	events := []gcal.Event{}
	for _, event := range cal.events {
		if event.Start.Before(since) {
			continue
		}
		events = append(events, event)
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].ID < events[j].ID
	})

	return events, nil
}

func (client *MockCalendarClient) InsertEvent(
	_ context.Context,
	calendarID string,
	event gcal.Event,
) (*gcal.Event, error) {
	client.mu.Lock()
	defer client.mu.Unlock()

	if client.FailInsert != nil && client.FailInsert(event) {
		return nil, ErrMockBackend
	}

	cal, ok := client.calendars[calendarID]
	if !ok {
		return nil, gcal.ErrNotFound
	}

	event.ID = client.newID("event")
	cal.events[event.ID] = event
	client.Inserts++

	return &event, nil
}

func (client *MockCalendarClient) DeleteEvent(
	_ context.Context,
	calendarID string,
	eventID string,
) error {
	client.mu.Lock()
	defer client.mu.Unlock()

	if client.FailDelete != nil && client.FailDelete(eventID) {
		return ErrMockBackend
	}

	cal, ok := client.calendars[calendarID]
	if !ok {
		return gcal.ErrNotFound
	}

	if _, ok = cal.events[eventID]; !ok {
		return gcal.ErrNotFound
	}

	delete(cal.events, eventID)
	client.Deletes++

	return nil
}

// Seed puts event straight into the calendar named summary, creating it
// when needed, without counting it as an insert.
func (client *MockCalendarClient) Seed(summary string, event gcal.Event) gcal.Event {
	id, _ := client.EnsureCalendar(context.Background(), summary)

	client.mu.Lock()
	defer client.mu.Unlock()

	event.ID = client.newID("seed")
	client.calendars[id].events[event.ID] = event

	return event
}

// Events returns every event of the calendar named summary.
func (client *MockCalendarClient) Events(summary string) []gcal.Event {
	client.mu.Lock()
	defer client.mu.Unlock()

	for _, cal := range client.calendars {
		if cal.summary != summary {
			continue
		}

		events := []gcal.Event{}
		for _, event := range cal.events {
			events = append(events, event)
		}
		sort.Slice(events, func(i, j int) bool {
			return events[i].ID < events[j].ID
		})
		return events
	}

	return nil
}

// ResetCounters zeroes Inserts and Deletes.
func (client *MockCalendarClient) ResetCounters() {
	client.mu.Lock()
	defer client.mu.Unlock()

	client.Inserts = 0
	client.Deletes = 0
}

func (client *MockCalendarClient) newID(prefix string) string {
	client.nextID++
	return fmt.Sprintf("%s-%04d", prefix, client.nextID)
}
