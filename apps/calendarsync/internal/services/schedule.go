package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
	"schedulesync.xdoubleu.com/apps/calendarsync/internal/models"
	"schedulesync.xdoubleu.com/apps/calendarsync/pkg/sumdu"
)

// ScheduleService fetches source snapshots. Snapshots are cached per group
// and window so users sharing a group cause a single feed request.
type ScheduleService struct {
	logger   *slog.Logger
	client   sumdu.Client
	cache    *cache.Cache
	group    singleflight.Group
	location *time.Location
	timeout  time.Duration
	metrics  *MetricsService
	now      func() time.Time
}

func NewScheduleService(
	logger *slog.Logger,
	client sumdu.Client,
	location *time.Location,
	timeout time.Duration,
	ttl time.Duration,
	metrics *MetricsService,
) *ScheduleService {
	var snapshots *cache.Cache
	if ttl > 0 {
		snapshots = cache.New(ttl, 2*ttl) //nolint:mnd //no magic number
	}

	//nolint:exhaustruct //other fields are optional
	return &ScheduleService{
		logger:   logger,
		client:   client,
		cache:    snapshots,
		location: location,
		timeout:  timeout,
		metrics:  metrics,
		now:      time.Now,
	}
}

// GetSnapshot returns the scheduled events of groupCode from the start of
// today up to fetchDays ahead. Failures are wrapped in *models.FetchError.
func (service *ScheduleService) GetSnapshot(
	ctx context.Context,
	groupCode int,
	fetchDays int,
) ([]models.SourceEvent, error) {
	from := startOfDay(service.now(), service.location)
	to := from.AddDate(0, 0, fetchDays)

	key := fmt.Sprintf("%d/%s/%d", groupCode, from.Format(models.DateFormat), fetchDays)

	if service.cache != nil {
		if cached, ok := service.cache.Get(key); ok {
			service.metrics.observeSnapshot("cache")
			//nolint:errcheck,forcetypeassert //only snapshots are stored
			return slices.Clone(cached.([]models.SourceEvent)), nil
		}
	}

	value, err, _ := service.group.Do(key, func() (any, error) {
		if service.cache != nil {
			if cached, ok := service.cache.Get(key); ok {
				return cached, nil
			}
		}

		records, errIn := withTimeout(
			ctx,
			service.timeout,
			func(ctx context.Context) ([]sumdu.Record, error) {
				return service.client.GetSchedule(ctx, groupCode, from, to)
			},
		)
		if errIn != nil {
			return nil, errIn
		}

		events := toSourceEvents(records)
		if service.cache != nil {
			service.cache.SetDefault(key, events)
		}
		service.metrics.observeSnapshot("feed")

		service.logger.Debug(
			fmt.Sprintf("fetched %d events", len(events)),
			slog.Int("group", groupCode),
		)

		return events, nil
	})
	if err != nil {
		return nil, &models.FetchError{GroupCode: groupCode, Err: err}
	}

	//nolint:errcheck,forcetypeassert //only snapshots are returned
	return slices.Clone(value.([]models.SourceEvent)), nil
}

// Forget drops every cached snapshot.
func (service *ScheduleService) Forget() {
	if service.cache != nil {
		service.cache.Flush()
	}
}

func toSourceEvents(records []sumdu.Record) []models.SourceEvent {
	events := make([]models.SourceEvent, 0, len(records))

	for _, record := range records {
		event := models.SourceEvent{
			Discipline:   strings.TrimSpace(record.NameDisc.String()),
			Date:         strings.TrimSpace(record.DateReg.String()),
			TimeRange:    strings.TrimSpace(record.TimePair.String()),
			Room:         strings.TrimSpace(record.NameAud.String()),
			Instructor:   strings.TrimSpace(record.NameFio.String()),
			StudentGroup: strings.TrimSpace(record.NameStud.String()),
			Note:         strings.TrimSpace(record.Comment.String()),
		}

		if !event.IsScheduled() {
			continue
		}

		events = append(events, event)
	}

	return events
}
