package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"schedulesync.xdoubleu.com/apps/calendarsync/internal/models"
	"schedulesync.xdoubleu.com/apps/calendarsync/internal/services"
)

// ErrLockHeld means another instance is running a pass.
var ErrLockHeld = errors.New("pass lock held by another instance")

type SyncJob struct {
	subjectService *services.SubjectService
	lockService    *services.LockService
}

func NewSyncJob(
	subjectService *services.SubjectService,
	lockService *services.LockService,
) SyncJob {
	return SyncJob{
		subjectService: subjectService,
		lockService:    lockService,
	}
}

func (j SyncJob) ID() string {
	return "sync"
}

// Run performs one pass under a fresh pass id.
func (j SyncJob) Run(ctx context.Context, logger *slog.Logger) (*models.PassReport, error) {
	release, ok, err := j.lockService.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}
	defer release()

	return j.subjectService.RunPass(ctx, logger, uuid.NewString())
}
