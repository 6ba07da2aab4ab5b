package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xdoubleu/essentia/v2/pkg/logging"
	"schedulesync.xdoubleu.com/apps/calendarsync/internal/helper"
	"schedulesync.xdoubleu.com/apps/calendarsync/internal/models"
	"schedulesync.xdoubleu.com/apps/calendarsync/pkg/gcal"
	"schedulesync.xdoubleu.com/internal/fingerprint"
)

type ReconcileService struct {
	location *time.Location
	timeout  time.Duration
	metrics  *MetricsService
	now      func() time.Time
}

func NewReconcileService(
	location *time.Location,
	timeout time.Duration,
	metrics *MetricsService,
) *ReconcileService {
	return &ReconcileService{
		location: location,
		timeout:  timeout,
		metrics:  metrics,
		now:      time.Now,
	}
}

type plan struct {
	obsolete []gcal.Event
	missing  []gcal.Event
	retained int
	errors   []error
}

// Reconcile makes the events of calendarID from the start of today onward
// match snapshot. Entries are matched on their fingerprint tag only: a
// changed source event is deleted and recreated. Failures of single
// inserts or deletes are collected in the result; only a failed listing
// returns an error.
func (service *ReconcileService) Reconcile(
	ctx context.Context,
	logger *slog.Logger,
	client gcal.Client,
	calendarID string,
	subject models.Subject,
	snapshot []models.SourceEvent,
) (models.ReconcileResult, error) {
	today := startOfDay(service.now(), service.location)

	existing, err := withTimeout(
		ctx,
		service.timeout,
		func(ctx context.Context) ([]gcal.Event, error) {
			return client.ListEvents(ctx, calendarID, today)
		},
	)
	if err != nil {
		return models.ReconcileResult{}, &models.AdapterError{Op: "list events", Err: err}
	}

	p := service.plan(logger, subject, today, snapshot, existing)

	//nolint:exhaustruct //other fields are optional
	result := models.ReconcileResult{
		Retained: p.retained,
		Errors:   p.errors,
	}

	for _, event := range p.obsolete {
		err = withTimeoutErr(ctx, service.timeout, func(ctx context.Context) error {
			return client.DeleteEvent(ctx, calendarID, event.ID)
		})
		if errors.Is(err, gcal.ErrNotFound) {
			err = nil
		}
		service.metrics.observeEventOp("delete", err)

		if err != nil {
			err = &models.BackendError{Op: "delete", EventID: event.ID, Err: err}
			logger.Error("failed to delete event", logging.ErrAttr(err))
			result.Errors = append(result.Errors, err)
			continue
		}

		result.Deleted++
	}

	for _, event := range p.missing {
		_, err = withTimeout(
			ctx,
			service.timeout,
			func(ctx context.Context) (*gcal.Event, error) {
				return client.InsertEvent(ctx, calendarID, event)
			},
		)
		service.metrics.observeEventOp("insert", err)

		if err != nil {
			err = &models.BackendError{Op: "insert", EventID: event.PrivateTag, Err: err}
			logger.Error("failed to insert event", logging.ErrAttr(err))
			result.Errors = append(result.Errors, err)
			continue
		}

		result.Inserted++
	}

	logger.Debug(
		fmt.Sprintf(
			"reconciled calendar: %d inserted, %d deleted, %d retained, %d failed",
			result.Inserted,
			result.Deleted,
			result.Retained,
			result.Failed(),
		),
	)

	return result, nil
}

// plan classifies every existing entry and every snapshot event before
// anything is mutated.
func (service *ReconcileService) plan(
	logger *slog.Logger,
	subject models.Subject,
	today time.Time,
	snapshot []models.SourceEvent,
	existing []gcal.Event,
) plan {
	//nolint:exhaustruct //other fields are optional
	p := plan{}

	wanted, known, errs := service.pending(
		logger,
		subject.ReminderMinutes,
		today,
		snapshot,
	)
	p.errors = errs

	retained := map[fingerprint.Fingerprint]bool{}
	for _, event := range existing {
		fp := fingerprint.Fingerprint(event.PrivateTag)

		if event.PrivateTag == "" || !known[fp] || retained[fp] {
			p.obsolete = append(p.obsolete, event)
			continue
		}

		retained[fp] = true
	}
	p.retained = len(retained)

	for _, event := range wanted {
		if retained[fingerprint.Fingerprint(event.PrivateTag)] {
			continue
		}
		p.missing = append(p.missing, event)
	}

	return p
}

// pending converts snapshot into calendar events in snapshot order. Events
// sharing a fingerprint are written once and events starting before today
// are dropped. known holds every fingerprint of snapshot.
func (service *ReconcileService) pending(
	logger *slog.Logger,
	reminderMinutes int,
	today time.Time,
	snapshot []models.SourceEvent,
) ([]gcal.Event, map[fingerprint.Fingerprint]bool, []error) {
	var events []gcal.Event
	var errs []error

	source := map[fingerprint.Fingerprint]models.SourceEvent{}
	known := map[fingerprint.Fingerprint]bool{}
	for _, sourceEvent := range snapshot {
		fp := sourceEvent.Fingerprint()

		if other, ok := source[fp]; ok {
			if !bytes.Equal(
				fingerprint.Canonical(other.Fields()),
				fingerprint.Canonical(sourceEvent.Fields()),
			) {
				logger.Warn(
					"fingerprint collision between distinct source events",
					slog.String("fingerprint", fp.String()),
				)
			}
			continue
		}

		source[fp] = sourceEvent
		known[fp] = true

		event, err := service.toCalendarEvent(sourceEvent, fp, reminderMinutes)
		if err != nil {
			logger.Warn("skipping source event", logging.ErrAttr(err))
			errs = append(errs, err)
			continue
		}

		// entries before today are never listed, inserting them would
		// repeat on every pass
		if event.Start.Before(today) {
			continue
		}

		events = append(events, event)
	}

	return events, known, errs
}

func (service *ReconcileService) toCalendarEvent(
	source models.SourceEvent,
	fp fingerprint.Fingerprint,
	reminderMinutes int,
) (gcal.Event, error) {
	start, end, err := source.Interval(service.location)
	if err != nil {
		return gcal.Event{}, err
	}

	location := source.Room
	if location == "" {
		location = models.DefaultLocation
	}

	return gcal.Event{
		ID:              "",
		Summary:         source.Discipline,
		Location:        location,
		Description:     describe(source),
		Start:           start,
		End:             end,
		ReminderMinutes: []int{reminderMinutes},
		PrivateTag:      fp.String(),
	}, nil
}

func describe(source models.SourceEvent) string {
	description := fmt.Sprintf(
		"%s\n%s\n\n%s",
		helper.StripMarkup(source.Instructor),
		helper.StripMarkup(source.StudentGroup),
		helper.StripMarkup(source.Note),
	)
	return strings.TrimRight(description, "\n")
}
