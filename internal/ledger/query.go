package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/stockd-erp/stockd/internal/masterdata"
)

// QueryStore exposes the read-side persistence operations. No row locks are
// taken; readers see committed state only.
type QueryStore interface {
	GetPosition(ctx context.Context, itemID, warehouseID int64) (StockPosition, error)
	ListDraftMovements(ctx context.Context, itemID, warehouseID int64) ([]Movement, error)
	ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error)
	CountMovements(ctx context.Context, filter MovementFilter) (int, error)
	ListBatchMovements(ctx context.Context, itemID, warehouseID int64) ([]Movement, error)
}

// BatchStock is the aggregated net quantity of one batch at a warehouse,
// including lot and expiry metadata.
type BatchStock struct {
	Batch       masterdata.Batch `json:"batch"`
	NetQuantity decimal.Decimal  `json:"net_quantity"`
}

// Projection is the result of a projected-quantity query.
type Projection struct {
	ItemID       int64           `json:"item_id"`
	WarehouseID  int64           `json:"warehouse_id"`
	OnHand       decimal.Decimal `json:"on_hand_quantity"`
	DraftEffect  decimal.Decimal `json:"draft_effect"`
	Projected    decimal.Decimal `json:"projected_quantity"`
	DraftEntries int             `json:"draft_entries"`
}

// QueryService answers stock questions from committed positions and the
// movement log. Hot lookups are cached and deduplicated.
type QueryService struct {
	store  QueryStore
	master MasterData
	cache  *Cache
	group  singleflight.Group
}

// NewQueryService builds QueryService.
func NewQueryService(store QueryStore, master MasterData, cache *Cache) *QueryService {
	return &QueryService{store: store, master: master, cache: cache}
}

// AvailableQuantity returns on-hand minus reserved for the position. A
// position that was never touched reports zero.
func (q *QueryService) AvailableQuantity(ctx context.Context, itemID, warehouseID int64) (decimal.Decimal, error) {
	key, err := q.cache.BuildKey(ctx, keyAvailable(itemID, warehouseID))
	if err != nil {
		return decimal.Zero, err
	}
	var available decimal.Decimal
	err = q.cache.FetchJSON(ctx, key, &available, func(ctx context.Context) (interface{}, error) {
		pos, err := q.position(ctx, itemID, warehouseID)
		if err != nil {
			return nil, err
		}
		return pos.Available(), nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return available, nil
}

// ProjectedQuantity returns the on-hand quantity the warehouse would carry if
// every pending draft movement were confirmed now.
func (q *QueryService) ProjectedQuantity(ctx context.Context, itemID, warehouseID int64) (Projection, error) {
	pos, err := q.position(ctx, itemID, warehouseID)
	if err != nil {
		return Projection{}, err
	}
	drafts, err := q.store.ListDraftMovements(ctx, itemID, warehouseID)
	if err != nil {
		return Projection{}, err
	}
	effect := decimal.Zero
	for _, m := range drafts {
		effect = effect.Add(m.SignedEffect(warehouseID))
	}
	return Projection{
		ItemID:       itemID,
		WarehouseID:  warehouseID,
		OnHand:       pos.OnHand,
		DraftEffect:  effect,
		Projected:    pos.OnHand.Add(effect),
		DraftEntries: len(drafts),
	}, nil
}

// MovementHistory lists done movements matching the filter, newest first,
// each annotated with its signed effect on the filtered warehouse. The
// second return value is the total match count for pagination.
func (q *QueryService) MovementHistory(ctx context.Context, filter MovementFilter) ([]MovementEntry, int, error) {
	movements, err := q.store.ListMovements(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := q.store.CountMovements(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	entries := make([]MovementEntry, 0, len(movements))
	for _, m := range movements {
		entries = append(entries, MovementEntry{
			Movement: m,
			Effect:   m.SignedEffect(filter.WarehouseID),
		})
	}
	return entries, total, nil
}

// BatchAggregate sums the done movements of each batch at the warehouse and
// returns the batches still holding positive stock, with lot and expiry
// metadata attached. Concurrent identical queries share one computation.
func (q *QueryService) BatchAggregate(ctx context.Context, itemID, warehouseID int64) ([]BatchStock, error) {
	key, err := q.cache.BuildKey(ctx, keyBatches(itemID, warehouseID))
	if err != nil {
		return nil, err
	}
	result, err, _ := q.group.Do(key, func() (interface{}, error) {
		var stocks []BatchStock
		err := q.cache.FetchJSON(ctx, key, &stocks, func(ctx context.Context) (interface{}, error) {
			return q.aggregateBatches(ctx, itemID, warehouseID)
		})
		return stocks, err
	})
	if err != nil {
		return nil, err
	}
	stocks, ok := result.([]BatchStock)
	if !ok {
		return nil, errors.New("ledger: unexpected batch aggregate result type")
	}
	return stocks, nil
}

func (q *QueryService) aggregateBatches(ctx context.Context, itemID, warehouseID int64) ([]BatchStock, error) {
	movements, err := q.store.ListBatchMovements(ctx, itemID, warehouseID)
	if err != nil {
		return nil, err
	}
	totals := make(map[int64]decimal.Decimal)
	order := make([]int64, 0)
	for _, m := range movements {
		if m.BatchID == 0 {
			continue
		}
		if _, seen := totals[m.BatchID]; !seen {
			order = append(order, m.BatchID)
		}
		totals[m.BatchID] = totals[m.BatchID].Add(m.SignedEffect(warehouseID))
	}
	stocks := make([]BatchStock, 0, len(order))
	for _, batchID := range order {
		net := totals[batchID]
		if !net.IsPositive() {
			continue
		}
		batch, err := q.master.Batch(ctx, batchID)
		if err != nil {
			if errors.Is(err, masterdata.ErrNotFound) {
				continue
			}
			return nil, err
		}
		stocks = append(stocks, BatchStock{Batch: batch, NetQuantity: net})
	}
	return stocks, nil
}

func (q *QueryService) position(ctx context.Context, itemID, warehouseID int64) (StockPosition, error) {
	pos, err := q.store.GetPosition(ctx, itemID, warehouseID)
	if err != nil {
		if errors.Is(err, ErrPositionNotFound) {
			return StockPosition{ItemID: itemID, WarehouseID: warehouseID}, nil
		}
		return StockPosition{}, err
	}
	return pos, nil
}
