package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/xdoubleu/essentia/v2/pkg/logging"
	"github.com/xdoubleu/essentia/v2/pkg/threading"
	"schedulesync.xdoubleu.com/apps/calendarsync/internal/models"
	"schedulesync.xdoubleu.com/apps/calendarsync/pkg/gcal"
	"schedulesync.xdoubleu.com/internal/auth"
	sharedmodels "schedulesync.xdoubleu.com/internal/models"
)

var ErrPassRunning = errors.New("a pass is already running")

// SubjectService runs passes over every (user, group) subject. Users are
// processed concurrently; the subjects of one user run sequentially on a
// single connection.
type SubjectService struct {
	logger          *slog.Logger
	users           auth.UserStore
	tokens          auth.TokenProvider
	connector       gcal.Connector
	schedule        *ScheduleService
	reconciler      *ReconcileService
	metrics         *MetricsService
	calendarPrefix  string
	workers         int
	timeout         time.Duration
	defaultDays     int
	defaultReminder int
	now             func() time.Time

	running sync.Mutex
	lastMu  sync.RWMutex
	last    *models.PassReport
}

// RunPass reconciles every subject once. It returns ErrPassRunning
// without doing anything when another pass is in progress.
func (service *SubjectService) RunPass(
	ctx context.Context,
	logger *slog.Logger,
	passID string,
) (*models.PassReport, error) {
	if !service.running.TryLock() {
		return nil, ErrPassRunning
	}
	defer service.running.Unlock()

	logger = logger.With(slog.String("pass_id", passID))

	//nolint:exhaustruct //other fields are optional
	report := &models.PassReport{
		ID:        passID,
		StartedAt: service.now(),
	}

	logger.Info("starting updates")

	users, err := service.users.GetAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	workerPool := threading.NewWorkerPool(
		logger,
		service.workers,
		max(len(users), 1),
	)

	mu := sync.Mutex{}
	subjects := []models.SubjectReport{}
	for _, user := range users {
		workerPool.EnqueueWork(func(_ context.Context, _ *slog.Logger) error {
			userReports := service.syncUser(ctx, logger, user)

			mu.Lock()
			subjects = append(subjects, userReports...)
			mu.Unlock()

			return nil
		})
	}

	workerPool.WaitUntilDone()

	sort.Slice(subjects, func(i, j int) bool {
		return subjects[i].Subject < subjects[j].Subject
	})

	report.Subjects = subjects
	report.Duration = service.now().Sub(report.StartedAt)
	service.metrics.observePass(report.Duration)

	logger.Info(
		fmt.Sprintf("finished updates in %.0f seconds", report.Duration.Seconds()),
		slog.Int("synced", report.Count(models.OutcomeSynced)),
		slog.Int("skipped", report.Count(models.OutcomeSkipped)),
		slog.Int("failed", report.Count(models.OutcomeFailed)),
	)

	service.lastMu.Lock()
	service.last = report
	service.lastMu.Unlock()

	return report, nil
}

// LastReport returns the report of the most recent finished pass.
func (service *SubjectService) LastReport() *models.PassReport {
	service.lastMu.RLock()
	defer service.lastMu.RUnlock()

	return service.last
}

// ListSubjects expands every stored user into its subjects.
func (service *SubjectService) ListSubjects(
	ctx context.Context,
) ([]models.Subject, error) {
	users, err := service.users.GetAllUsers(ctx)
	if err != nil {
		return nil, err
	}

	subjects := []models.Subject{}
	for _, user := range users {
		subjects = append(
			subjects,
			models.SubjectsForUser(user, service.defaultDays, service.defaultReminder)...,
		)
	}

	return subjects, nil
}

func (service *SubjectService) syncUser(
	ctx context.Context,
	logger *slog.Logger,
	user sharedmodels.User,
) []models.SubjectReport {
	subjects := models.SubjectsForUser(user, service.defaultDays, service.defaultReminder)
	if len(subjects) == 0 {
		return nil
	}

	logger = logger.With(slog.String("user", user.Email))

	client, outcome, err := service.connect(ctx, logger, user)
	if err != nil {
		logger.Warn("skipping user", logging.ErrAttr(err))

		reports := make([]models.SubjectReport, 0, len(subjects))
		for _, subject := range subjects {
			report := newSubjectReport(subject)
			report.Outcome = outcome
			report.Error = err.Error()
			service.metrics.observeSubject(report)
			reports = append(reports, report)
		}
		return reports
	}

	reports := make([]models.SubjectReport, 0, len(subjects))
	for _, subject := range subjects {
		reports = append(reports, service.syncSubject(ctx, logger, client, subject))
	}
	return reports
}

func (service *SubjectService) connect(
	ctx context.Context,
	logger *slog.Logger,
	user sharedmodels.User,
) (client gcal.Client, outcome models.Outcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			sentry.CurrentHub().Recover(rec)
			logger.Error("panic while connecting user", slog.Any("panic", rec))
			client = nil
			outcome = models.OutcomeFailed
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	token, err := withTimeout(ctx, service.timeout, func(ctx context.Context) (string, error) {
		return service.tokens.GetAccessToken(ctx, user)
	})
	if err != nil {
		var tokenErr *models.TokenError
		if !errors.As(err, &tokenErr) {
			err = &models.TokenError{Email: user.Email, Err: err}
		}
		return nil, models.OutcomeSkipped, err
	}

	client, err = withTimeout(ctx, service.timeout, func(ctx context.Context) (gcal.Client, error) {
		return service.connector.Connect(ctx, token)
	})
	if err != nil {
		return nil, models.OutcomeFailed, &models.AdapterError{Op: "connect", Err: err}
	}

	return client, "", nil
}

func (service *SubjectService) syncSubject(
	ctx context.Context,
	logger *slog.Logger,
	client gcal.Client,
	subject models.Subject,
) (report models.SubjectReport) {
	logger = logger.With(slog.Int("group", subject.GroupCode))
	report = newSubjectReport(subject)
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			sentry.CurrentHub().Recover(rec)
			logger.Error("panic while syncing subject", slog.Any("panic", rec))
			report.Outcome = models.OutcomeFailed
			report.Error = fmt.Sprintf("panic: %v", rec)
		}

		report.Duration = time.Since(start)
		service.metrics.observeSubject(report)
	}()

	snapshot, err := service.schedule.GetSnapshot(ctx, subject.GroupCode, subject.FetchDays)
	if err != nil {
		logger.Warn("skipping subject", logging.ErrAttr(err))
		report.Outcome = models.OutcomeSkipped
		report.Error = err.Error()
		return report
	}

	calendarID, err := withTimeout(ctx, service.timeout, func(ctx context.Context) (string, error) {
		return client.EnsureCalendar(ctx, subject.CalendarLabel(service.calendarPrefix))
	})
	if err != nil {
		err = &models.AdapterError{Op: "ensure calendar", Err: err}
		logger.Error("failed to sync subject", logging.ErrAttr(err))
		report.Outcome = models.OutcomeFailed
		report.Error = err.Error()
		return report
	}

	result, err := service.reconciler.Reconcile(
		ctx,
		logger,
		client,
		calendarID,
		subject,
		snapshot,
	)
	if err != nil {
		logger.Error("failed to sync subject", logging.ErrAttr(err))
		report.Outcome = models.OutcomeFailed
		report.Error = err.Error()
		return report
	}

	report.Outcome = models.OutcomeSynced
	report.Result = result
	report.Failed = result.Failed()

	return report
}

func newSubjectReport(subject models.Subject) models.SubjectReport {
	//nolint:exhaustruct //other fields are optional
	return models.SubjectReport{
		Subject: subject.Key(),
	}
}
