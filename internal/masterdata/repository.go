package masterdata

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates a missing master data record.
var ErrNotFound = errors.New("masterdata: not found")

// Repository reads master data from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetItem loads one item.
func (r *Repository) GetItem(ctx context.Context, id int64) (Item, error) {
	var item Item
	err := r.pool.QueryRow(ctx, `SELECT id, sku, name, stock_quantity, created_at FROM items WHERE id=$1`, id).
		Scan(&item.ID, &item.SKU, &item.Name, &item.StockQuantity, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, err
	}
	return item, nil
}

// ItemExists reports whether the item id is known.
func (r *Repository) ItemExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM items WHERE id=$1)`, id).Scan(&exists)
	return exists, err
}

// GetWarehouse loads one warehouse.
func (r *Repository) GetWarehouse(ctx context.Context, id int64) (Warehouse, error) {
	var wh Warehouse
	err := r.pool.QueryRow(ctx, `SELECT id, code, name FROM warehouses WHERE id=$1`, id).
		Scan(&wh.ID, &wh.Code, &wh.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Warehouse{}, ErrNotFound
		}
		return Warehouse{}, err
	}
	return wh, nil
}

// WarehouseExists reports whether the warehouse id is known.
func (r *Repository) WarehouseExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM warehouses WHERE id=$1)`, id).Scan(&exists)
	return exists, err
}

// GetBatch loads one batch.
func (r *Repository) GetBatch(ctx context.Context, id int64) (Batch, error) {
	var b Batch
	err := r.pool.QueryRow(ctx, `SELECT id, item_id, lot_number, COALESCE(expiry_date, '0001-01-01') FROM batches WHERE id=$1`, id).
		Scan(&b.ID, &b.ItemID, &b.LotNumber, &b.ExpiryDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Batch{}, ErrNotFound
		}
		return Batch{}, err
	}
	return b, nil
}

// ListWarehouses returns all warehouses ordered by code.
func (r *Repository) ListWarehouses(ctx context.Context) ([]Warehouse, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, name FROM warehouses ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var warehouses []Warehouse
	for rows.Next() {
		var wh Warehouse
		if err := rows.Scan(&wh.ID, &wh.Code, &wh.Name); err != nil {
			return nil, err
		}
		warehouses = append(warehouses, wh)
	}
	return warehouses, rows.Err()
}
