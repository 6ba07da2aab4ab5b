package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	ics "github.com/arran4/golang-ical"
	"schedulesync.xdoubleu.com/apps/calendarsync/internal/models"
)

// PreviewService renders a snapshot as an iCalendar feed. It writes the
// events a pass would insert into an empty calendar, with their
// fingerprints as UIDs.
type PreviewService struct {
	logger         *slog.Logger
	schedule       *ScheduleService
	reconciler     *ReconcileService
	calendarPrefix string
	now            func() time.Time
}

func (service *PreviewService) Render(
	ctx context.Context,
	groupCode int,
	fetchDays int,
	reminderMinutes int,
) (string, error) {
	snapshot, err := service.schedule.GetSnapshot(ctx, groupCode, fetchDays)
	if err != nil {
		return "", err
	}

	//nolint:exhaustruct //only the group is needed for the label
	subject := models.Subject{GroupCode: groupCode}

	location := service.reconciler.location
	events, _, _ := service.reconciler.pending(
		service.logger,
		reminderMinutes,
		startOfDay(service.now(), location),
		snapshot,
	)

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//xdoubleu//schedulesync//EN")
	cal.SetXWRCalName(subject.CalendarLabel(service.calendarPrefix))
	cal.SetXWRTimezone(location.String())

	stamp := service.now().UTC()
	for _, event := range events {
		vevent := cal.AddEvent(event.PrivateTag)
		vevent.SetDtStampTime(stamp)
		vevent.SetStartAt(event.Start)
		vevent.SetEndAt(event.End)
		vevent.SetSummary(event.Summary)
		vevent.SetLocation(event.Location)
		vevent.SetDescription(event.Description)

		alarm := vevent.AddAlarm()
		alarm.SetAction(ics.ActionDisplay)
		alarm.SetTrigger(fmt.Sprintf("-PT%dM", reminderMinutes))
	}

	return cal.Serialize(), nil
}
