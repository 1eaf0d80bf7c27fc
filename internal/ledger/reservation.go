package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockd-erp/stockd/internal/shared"
)

// Reservations earmarks available stock for downstream documents. A
// reservation only moves quantity between the available and reserved buckets
// of a position; it never writes a movement row.
type Reservations struct {
	store   Store
	master  MasterData
	audit   AuditPort
	cache   *Cache
	metrics Metrics
}

// NewReservations builds Reservations.
func NewReservations(store Store, master MasterData, audit AuditPort, cache *Cache, metrics Metrics) *Reservations {
	return &Reservations{store: store, master: master, audit: audit, cache: cache, metrics: metrics}
}

// ReservationInput describes a reserve or release request.
type ReservationInput struct {
	ItemID      int64
	WarehouseID int64
	Quantity    decimal.Decimal
	Reference   string
	ActorID     int64
}

// Reserve increases the reserved quantity after checking availability under a
// row lock. Returns the updated position.
func (r *Reservations) Reserve(ctx context.Context, in ReservationInput) (StockPosition, error) {
	if !in.Quantity.IsPositive() {
		return StockPosition{}, validationf("reservation quantity must be strictly positive, got %s", in.Quantity)
	}
	if err := r.checkRefs(ctx, in); err != nil {
		return StockPosition{}, err
	}
	if in.Reference == "" {
		in.Reference = uuid.NewString()
	}
	var pos StockPosition
	err := r.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		var err error
		pos, err = lockPosition(ctx, tx, in.ItemID, in.WarehouseID)
		if err != nil {
			return err
		}
		if pos.Available().LessThan(in.Quantity) {
			return &InsufficientStockError{
				ItemID:      in.ItemID,
				WarehouseID: in.WarehouseID,
				Available:   pos.Available(),
				Requested:   in.Quantity,
			}
		}
		pos.Reserved = pos.Reserved.Add(in.Quantity)
		return tx.SavePosition(ctx, pos)
	})
	if err != nil {
		var insufficient *InsufficientStockError
		if r.metrics != nil && errors.As(err, &insufficient) {
			r.metrics.StockRejected()
		}
		return StockPosition{}, err
	}
	if r.metrics != nil {
		r.metrics.ReservationGranted()
	}
	if r.cache != nil {
		_ = r.cache.Bump(ctx)
	}
	r.recordAudit(ctx, "ledger:reserve", in)
	return pos, nil
}

// Release decreases the reserved quantity. Releasing more than is currently
// reserved is rejected without changing anything.
func (r *Reservations) Release(ctx context.Context, in ReservationInput) (StockPosition, error) {
	if !in.Quantity.IsPositive() {
		return StockPosition{}, validationf("release quantity must be strictly positive, got %s", in.Quantity)
	}
	if err := r.checkRefs(ctx, in); err != nil {
		return StockPosition{}, err
	}
	var pos StockPosition
	err := r.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		var err error
		pos, err = lockPosition(ctx, tx, in.ItemID, in.WarehouseID)
		if err != nil {
			return err
		}
		if pos.Reserved.LessThan(in.Quantity) {
			return &InvalidRequestError{Reason: fmt.Sprintf(
				"cannot release %s: only %s reserved for item %d at warehouse %d",
				in.Quantity, pos.Reserved, in.ItemID, in.WarehouseID)}
		}
		pos.Reserved = pos.Reserved.Sub(in.Quantity)
		return tx.SavePosition(ctx, pos)
	})
	if err != nil {
		return StockPosition{}, err
	}
	if r.cache != nil {
		_ = r.cache.Bump(ctx)
	}
	r.recordAudit(ctx, "ledger:release", in)
	return pos, nil
}

func (r *Reservations) checkRefs(ctx context.Context, in ReservationInput) error {
	ok, err := r.master.ItemExists(ctx, in.ItemID)
	if err != nil {
		return err
	}
	if !ok {
		return &NotFoundError{Entity: "item", ID: in.ItemID}
	}
	ok, err = r.master.WarehouseExists(ctx, in.WarehouseID)
	if err != nil {
		return err
	}
	if !ok {
		return &NotFoundError{Entity: "warehouse", ID: in.WarehouseID}
	}
	return nil
}

func (r *Reservations) recordAudit(ctx context.Context, action string, in ReservationInput) {
	if r.audit == nil {
		return
	}
	_ = r.audit.Record(ctx, shared.AuditLog{
		ActorID:  in.ActorID,
		Action:   action,
		Entity:   "stock_position",
		EntityID: fmt.Sprintf("%d:%d", in.ItemID, in.WarehouseID),
		Meta: map[string]any{
			"quantity":  in.Quantity.String(),
			"reference": in.Reference,
		},
	})
}
