package ledger

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/stockd-erp/stockd/internal/platform/db"
)

// Repository persists the movement log and stock positions in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txStore struct {
	tx pgx.Tx
}

// ErrMovementNotFound indicates a missing movement row.
var ErrMovementNotFound = errors.New("stock movement not found")

// ErrPositionNotFound indicates a missing position row.
var ErrPositionNotFound = errors.New("stock position not found")

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	if r == nil {
		return errors.New("ledger repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txStore{tx: tx})
	})
}

const movementColumns = `id, item_id, source_warehouse_id, COALESCE(dest_warehouse_id, 0), COALESCE(batch_id, 0), kind, direction, quantity, state, effective_date, COALESCE(reference_document, ''), COALESCE(reference_number, ''), COALESCE(origin_note, ''), COALESCE(created_by, 0), created_at, COALESCE(done_at, 'epoch')`

func scanMovement(row pgx.Row) (Movement, error) {
	var m Movement
	err := row.Scan(&m.ID, &m.ItemID, &m.SourceWarehouseID, &m.DestWarehouseID, &m.BatchID,
		&m.Kind, &m.Direction, &m.Quantity, &m.State, &m.EffectiveDate,
		&m.ReferenceDocument, &m.ReferenceNumber, &m.OriginNote, &m.CreatedBy, &m.CreatedAt, &m.DoneAt)
	if err != nil {
		return Movement{}, err
	}
	if m.DoneAt.Unix() == 0 {
		m.DoneAt = time.Time{}
	}
	return m, nil
}

// GetPosition reads a position without locking.
func (r *Repository) GetPosition(ctx context.Context, itemID, warehouseID int64) (StockPosition, error) {
	var pos StockPosition
	err := r.pool.QueryRow(ctx, `SELECT item_id, warehouse_id, on_hand_quantity, reserved_quantity, updated_at
FROM stock_positions WHERE item_id=$1 AND warehouse_id=$2`, itemID, warehouseID).
		Scan(&pos.ItemID, &pos.WarehouseID, &pos.OnHand, &pos.Reserved, &pos.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockPosition{}, ErrPositionNotFound
		}
		return StockPosition{}, err
	}
	return pos, nil
}

// GetMovement reads a movement without locking.
func (r *Repository) GetMovement(ctx context.Context, id int64) (Movement, error) {
	m, err := scanMovement(r.pool.QueryRow(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Movement{}, ErrMovementNotFound
		}
		return Movement{}, err
	}
	return m, nil
}

// ListDraftMovements returns draft movements touching the warehouse for the
// item, oldest first.
func (r *Repository) ListDraftMovements(ctx context.Context, itemID, warehouseID int64) ([]Movement, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+movementColumns+` FROM stock_movements
WHERE item_id=$1 AND state='draft' AND (source_warehouse_id=$2 OR dest_warehouse_id=$2)
ORDER BY id ASC`, itemID, warehouseID)
	if err != nil {
		return nil, err
	}
	return collectMovements(rows)
}

// historyConds builds the WHERE clause shared by list and count queries.
func historyConds(filter MovementFilter, args *[]any) string {
	conds := []string{"state='done'"}
	arg := func(v any) string {
		*args = append(*args, v)
		return "$" + strconv.Itoa(len(*args))
	}
	if filter.ItemID != 0 {
		conds = append(conds, "item_id="+arg(filter.ItemID))
	}
	if filter.WarehouseID != 0 {
		ph := arg(filter.WarehouseID)
		conds = append(conds, "(source_warehouse_id="+ph+" OR dest_warehouse_id="+ph+")")
	}
	if !filter.From.IsZero() {
		conds = append(conds, "effective_date >= "+arg(filter.From))
	}
	if !filter.To.IsZero() {
		conds = append(conds, "effective_date <= "+arg(filter.To))
	}
	return strings.Join(conds, " AND ")
}

// ListMovements returns done movements matching the filter, newest first.
func (r *Repository) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	var args []any
	where := historyConds(filter, &args)
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	args = append(args, limit, filter.Offset)
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE ` + where +
		` ORDER BY effective_date DESC, id DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectMovements(rows)
}

// CountMovements returns how many done movements match the filter.
func (r *Repository) CountMovements(ctx context.Context, filter MovementFilter) (int, error) {
	var args []any
	where := historyConds(filter, &args)
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM stock_movements WHERE `+where, args...).Scan(&total)
	return total, err
}

// ListBatchMovements returns done batch-tagged movements touching the
// warehouse for the item.
func (r *Repository) ListBatchMovements(ctx context.Context, itemID, warehouseID int64) ([]Movement, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+movementColumns+` FROM stock_movements
WHERE item_id=$1 AND state='done' AND batch_id IS NOT NULL
  AND (source_warehouse_id=$2 OR dest_warehouse_id=$2)
ORDER BY id ASC`, itemID, warehouseID)
	if err != nil {
		return nil, err
	}
	return collectMovements(rows)
}

func collectMovements(rows pgx.Rows) ([]Movement, error) {
	defer rows.Close()
	movements := []Movement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return movements, nil
}

func (r *txStore) InsertMovement(ctx context.Context, m Movement) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO stock_movements
(item_id, source_warehouse_id, dest_warehouse_id, batch_id, kind, direction, quantity, state, effective_date, reference_document, reference_number, origin_note, created_by, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,NOW()) RETURNING id`,
		m.ItemID, m.SourceWarehouseID, nullInt(m.DestWarehouseID), nullInt(m.BatchID),
		string(m.Kind), string(m.Direction), m.Quantity, string(m.State), m.EffectiveDate,
		nullString(m.ReferenceDocument), nullString(m.ReferenceNumber), nullString(m.OriginNote), nullInt(m.CreatedBy)).Scan(&id)
	return id, err
}

func (r *txStore) GetMovementForUpdate(ctx context.Context, id int64) (Movement, error) {
	m, err := scanMovement(r.tx.QueryRow(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Movement{}, ErrMovementNotFound
		}
		return Movement{}, err
	}
	return m, nil
}

func (r *txStore) SetMovementState(ctx context.Context, id int64, state State, doneAt time.Time) error {
	tag, err := r.tx.Exec(ctx, `UPDATE stock_movements SET state=$2, done_at=$3 WHERE id=$1`,
		id, string(state), nullTime(doneAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMovementNotFound
	}
	return nil
}

func (r *txStore) UpdateMovementDraft(ctx context.Context, id int64, upd DraftUpdate) error {
	tag, err := r.tx.Exec(ctx, `UPDATE stock_movements SET
effective_date=COALESCE($2, effective_date),
reference_document=COALESCE($3, reference_document),
reference_number=COALESCE($4, reference_number),
origin_note=COALESCE($5, origin_note)
WHERE id=$1 AND state='draft'`,
		id, upd.EffectiveDate, upd.ReferenceDocument, upd.ReferenceNumber, upd.OriginNote)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMovementNotFound
	}
	return nil
}

func (r *txStore) DeleteMovement(ctx context.Context, id int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM stock_movements WHERE id=$1 AND state='draft'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMovementNotFound
	}
	return nil
}

func (r *txStore) EnsurePosition(ctx context.Context, itemID, warehouseID int64) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO stock_positions (item_id, warehouse_id, on_hand_quantity, reserved_quantity, updated_at)
VALUES ($1,$2,0,0,NOW())
ON CONFLICT (item_id, warehouse_id) DO NOTHING`, itemID, warehouseID)
	return err
}

func (r *txStore) GetPositionForUpdate(ctx context.Context, itemID, warehouseID int64) (StockPosition, error) {
	var pos StockPosition
	err := r.tx.QueryRow(ctx, `SELECT item_id, warehouse_id, on_hand_quantity, reserved_quantity, updated_at
FROM stock_positions WHERE item_id=$1 AND warehouse_id=$2 FOR UPDATE`, itemID, warehouseID).
		Scan(&pos.ItemID, &pos.WarehouseID, &pos.OnHand, &pos.Reserved, &pos.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockPosition{}, ErrPositionNotFound
		}
		return StockPosition{}, err
	}
	return pos, nil
}

func (r *txStore) SavePosition(ctx context.Context, pos StockPosition) error {
	_, err := r.tx.Exec(ctx, `UPDATE stock_positions SET on_hand_quantity=$3, reserved_quantity=$4, updated_at=NOW()
WHERE item_id=$1 AND warehouse_id=$2`, pos.ItemID, pos.WarehouseID, pos.OnHand, pos.Reserved)
	return err
}

func (r *txStore) AdjustItemCounter(ctx context.Context, itemID int64, delta decimal.Decimal) error {
	_, err := r.tx.Exec(ctx, `UPDATE items SET stock_quantity = stock_quantity + $2 WHERE id=$1`, itemID, delta)
	return err
}

func nullInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullTime(v time.Time) any {
	if v.IsZero() {
		return nil
	}
	return v
}
