package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TaskStockReconcile recomputes the denormalized item stock counters from the
// per-warehouse positions. The counter is a cached projection maintained
// incrementally during posting; this task repairs any drift.
const TaskStockReconcile = "ledger:reconcile_counters"

// ReconcilePayload carries scheduling metadata.
type ReconcilePayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewReconcileTask constructs an Asynq task for counter reconciliation.
func NewReconcileTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(ReconcilePayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockReconcile, body, asynq.Queue(QueueDefault)), nil
}

// ReconcileJob rewrites the item counters from the positions table.
type ReconcileJob struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewReconcileJob constructs ReconcileJob.
func NewReconcileJob(pool *pgxpool.Pool, logger *slog.Logger) *ReconcileJob {
	return &ReconcileJob{pool: pool, logger: logger}
}

// Handle processes TaskStockReconcile tasks.
func (j *ReconcileJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	start := time.Now()

	tag, err := j.pool.Exec(ctx, `UPDATE items i SET stock_quantity = agg.total
FROM (SELECT item_id, SUM(on_hand_quantity) AS total FROM stock_positions GROUP BY item_id) agg
WHERE i.id = agg.item_id AND i.stock_quantity <> agg.total`)
	if err != nil {
		return err
	}
	// Items without any position row settle at zero.
	zeroed, err := j.pool.Exec(ctx, `UPDATE items SET stock_quantity = 0
WHERE stock_quantity <> 0 AND id NOT IN (SELECT DISTINCT item_id FROM stock_positions)`)
	if err != nil {
		return err
	}

	j.logger.Info("stock counters reconciled",
		slog.Int64("corrected", tag.RowsAffected()),
		slog.Int64("zeroed", zeroed.RowsAffected()),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}
