package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestQueries(store *memStore) *QueryService {
	return NewQueryService(store, newFakeMaster(), nil)
}

func TestAvailableQuantityMissingPositionIsZero(t *testing.T) {
	store := newMemStore()
	queries := newTestQueries(store)

	available, err := queries.AvailableQuantity(context.Background(), 1, 10)
	require.NoError(t, err)
	require.True(t, available.IsZero())
}

func TestAvailableQuantitySubtractsReserved(t *testing.T) {
	store := newMemStore()
	store.seedPosition(1, 10, "25", "9")
	queries := newTestQueries(store)

	available, err := queries.AvailableQuantity(context.Background(), 1, 10)
	require.NoError(t, err)
	require.True(t, available.Equal(qty("16")))
}

func TestProjectedQuantityIncludesDrafts(t *testing.T) {
	store := newMemStore()
	store.seedPosition(1, 10, "20", "0")
	engine, _ := newTestEngine(store, false)
	queries := newTestQueries(store)
	ctx := context.Background()

	// Pending receipt, pending issue and a pending outbound transfer.
	_, err := engine.CreateMovement(ctx, MovementSpec{ItemID: 1, SourceWarehouseID: 10, Kind: KindReceive, Quantity: qty("5")})
	require.NoError(t, err)
	_, err = engine.CreateMovement(ctx, MovementSpec{ItemID: 1, SourceWarehouseID: 10, Kind: KindIssue, Quantity: qty("3")})
	require.NoError(t, err)
	_, err = engine.Transfer(ctx, TransferInput{ItemID: 1, FromWarehouseID: 10, ToWarehouseID: 20, Quantity: qty("4")})
	require.NoError(t, err)
	// Cancelled drafts do not count.
	m, err := engine.CreateMovement(ctx, MovementSpec{ItemID: 1, SourceWarehouseID: 10, Kind: KindReceive, Quantity: qty("100")})
	require.NoError(t, err)
	_, err = engine.Cancel(ctx, m.ID)
	require.NoError(t, err)

	projection, err := queries.ProjectedQuantity(ctx, 1, 10)
	require.NoError(t, err)
	require.True(t, projection.OnHand.Equal(qty("20")))
	require.True(t, projection.DraftEffect.Equal(qty("-2")))
	require.True(t, projection.Projected.Equal(qty("18")))
	require.Equal(t, 3, projection.DraftEntries)

	// The receiving side of the pending transfer projects the inflow.
	projection, err = queries.ProjectedQuantity(ctx, 1, 20)
	require.NoError(t, err)
	require.True(t, projection.Projected.Equal(qty("4")))
}

func TestMovementHistorySignedEffects(t *testing.T) {
	store := newMemStore()
	store.seedPosition(1, 10, "0", "0")
	engine, _ := newTestEngine(store, false)
	queries := newTestQueries(store)
	ctx := context.Background()

	_, err := engine.Increase(ctx, ChangeInput{ItemID: 1, WarehouseID: 10, Quantity: qty("30"), AutoConfirm: true})
	require.NoError(t, err)
	_, err = engine.Transfer(ctx, TransferInput{ItemID: 1, FromWarehouseID: 10, ToWarehouseID: 20, Quantity: qty("12"), AutoConfirm: true})
	require.NoError(t, err)
	_, err = engine.Decrease(ctx, ChangeInput{ItemID: 1, WarehouseID: 20, Quantity: qty("2"), AutoConfirm: true})
	require.NoError(t, err)

	// Filtered by the destination warehouse: the transfer counts as inflow.
	entries, total, err := queries.MovementHistory(ctx, MovementFilter{ItemID: 1, WarehouseID: 20})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, entries, 2)
	require.True(t, entries[0].Effect.Equal(qty("-2")))
	require.True(t, entries[1].Effect.Equal(qty("12")))

	// Filtered by the source warehouse: the transfer counts as outflow.
	entries, total, err = queries.MovementHistory(ctx, MovementFilter{ItemID: 1, WarehouseID: 10})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, entries, 2)
	require.True(t, entries[0].Effect.Equal(qty("-12")))
	require.True(t, entries[1].Effect.Equal(qty("30")))

	// Unfiltered: transfers net to zero on the item's global stock.
	entries, total, err = queries.MovementHistory(ctx, MovementFilter{ItemID: 1})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, entries, 3)
	sum := qty("0")
	for _, entry := range entries {
		sum = sum.Add(entry.Effect)
	}
	require.True(t, sum.Equal(qty("28")))

	// History reads newest first.
	for i := 1; i < len(entries); i++ {
		require.Greater(t, entries[i-1].ID, entries[i].ID)
	}
}

func TestBatchAggregate(t *testing.T) {
	store := newMemStore()
	engine, _ := newTestEngine(store, false)
	queries := newTestQueries(store)
	ctx := context.Background()

	_, err := engine.Increase(ctx, ChangeInput{ItemID: 1, WarehouseID: 10, Quantity: qty("15"), BatchID: 100, AutoConfirm: true})
	require.NoError(t, err)
	_, err = engine.Decrease(ctx, ChangeInput{ItemID: 1, WarehouseID: 10, Quantity: qty("6"), BatchID: 100, AutoConfirm: true})
	require.NoError(t, err)
	// Untagged movements never show up in batch aggregates.
	_, err = engine.Increase(ctx, ChangeInput{ItemID: 1, WarehouseID: 10, Quantity: qty("99"), AutoConfirm: true})
	require.NoError(t, err)

	stocks, err := queries.BatchAggregate(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, stocks, 1)
	require.Equal(t, int64(100), stocks[0].Batch.ID)
	require.Equal(t, "LOT-100", stocks[0].Batch.LotNumber)
	require.True(t, stocks[0].NetQuantity.Equal(qty("9")))
}

func TestBatchAggregateDropsExhaustedBatches(t *testing.T) {
	store := newMemStore()
	engine, _ := newTestEngine(store, false)
	queries := newTestQueries(store)
	ctx := context.Background()

	_, err := engine.Increase(ctx, ChangeInput{ItemID: 1, WarehouseID: 10, Quantity: qty("5"), BatchID: 100, AutoConfirm: true})
	require.NoError(t, err)
	_, err = engine.Decrease(ctx, ChangeInput{ItemID: 1, WarehouseID: 10, Quantity: qty("5"), BatchID: 100, AutoConfirm: true})
	require.NoError(t, err)

	stocks, err := queries.BatchAggregate(ctx, 1, 10)
	require.NoError(t, err)
	require.Empty(t, stocks)
}
