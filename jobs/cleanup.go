package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stockd-erp/stockd/internal/shared"
)

// TaskIdempotencyCleanup prunes processed idempotency keys past retention.
const TaskIdempotencyCleanup = "ledger:idempotency_cleanup"

const idempotencyRetention = 7 * 24 * time.Hour

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil, asynq.Queue(QueueDefault))
}

// CleanupJob removes stale idempotency keys.
type CleanupJob struct {
	store  *shared.IdempotencyStore
	logger *slog.Logger
}

// NewCleanupJob constructs CleanupJob.
func NewCleanupJob(store *shared.IdempotencyStore, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{store: store, logger: logger}
}

// Handle processes TaskIdempotencyCleanup tasks.
func (j *CleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if err := j.store.Cleanup(ctx, idempotencyRetention); err != nil {
		return err
	}
	j.logger.Info("idempotency keys pruned", slog.Duration("retention", idempotencyRetention))
	return nil
}
