package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestReservations(store *memStore) (*Reservations, *fakeMetrics) {
	metrics := newFakeMetrics()
	return NewReservations(store, newFakeMaster(), nil, nil, metrics), metrics
}

func TestReserveWithinAvailability(t *testing.T) {
	store := newMemStore()
	store.seedPosition(1, 10, "10", "0")
	res, metrics := newTestReservations(store)
	ctx := context.Background()

	pos, err := res.Reserve(ctx, ReservationInput{ItemID: 1, WarehouseID: 10, Quantity: qty("6"), Reference: "SO-1"})
	require.NoError(t, err)
	require.True(t, pos.Reserved.Equal(qty("6")))
	require.True(t, pos.OnHand.Equal(qty("10")))
	require.True(t, pos.Available().Equal(qty("4")))
	require.Equal(t, 1, metrics.reservations)

	// Reservations are bookkeeping only; no ledger entry is written.
	require.Empty(t, store.movements)
}

func TestReserveBeyondAvailabilityFails(t *testing.T) {
	store := newMemStore()
	store.seedPosition(1, 10, "10", "7")
	res, metrics := newTestReservations(store)
	ctx := context.Background()

	_, err := res.Reserve(ctx, ReservationInput{ItemID: 1, WarehouseID: 10, Quantity: qty("4")})
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.True(t, insufficient.Available.Equal(qty("3")))
	require.True(t, insufficient.Requested.Equal(qty("4")))
	require.Equal(t, 1, metrics.rejections)

	saved := store.positions[posKey(1, 10)]
	require.True(t, saved.Reserved.Equal(qty("7")))
}

func TestReserveValidatesInput(t *testing.T) {
	store := newMemStore()
	res, _ := newTestReservations(store)
	ctx := context.Background()

	_, err := res.Reserve(ctx, ReservationInput{ItemID: 1, WarehouseID: 10, Quantity: qty("0")})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = res.Reserve(ctx, ReservationInput{ItemID: 99, WarehouseID: 10, Quantity: qty("1")})
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestReleaseBoundedByReserved(t *testing.T) {
	store := newMemStore()
	store.seedPosition(1, 10, "10", "5")
	res, _ := newTestReservations(store)
	ctx := context.Background()

	_, err := res.Release(ctx, ReservationInput{ItemID: 1, WarehouseID: 10, Quantity: qty("6")})
	var invalid *InvalidRequestError
	require.ErrorAs(t, err, &invalid)

	saved := store.positions[posKey(1, 10)]
	require.True(t, saved.Reserved.Equal(qty("5")))

	pos, err := res.Release(ctx, ReservationInput{ItemID: 1, WarehouseID: 10, Quantity: qty("5")})
	require.NoError(t, err)
	require.True(t, pos.Reserved.IsZero())
	require.True(t, pos.OnHand.Equal(qty("10")))
}

func TestReservationBlocksIssueUntilReleased(t *testing.T) {
	store := newMemStore()
	store.seedPosition(1, 10, "10", "0")
	res, _ := newTestReservations(store)
	engine, _ := newTestEngine(store, false)
	ctx := context.Background()

	_, err := res.Reserve(ctx, ReservationInput{ItemID: 1, WarehouseID: 10, Quantity: qty("8")})
	require.NoError(t, err)

	// Only the unreserved remainder may be issued.
	_, err = engine.Decrease(ctx, ChangeInput{ItemID: 1, WarehouseID: 10, Quantity: qty("3"), AutoConfirm: true})
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.True(t, insufficient.Available.Equal(qty("2")))

	_, err = res.Release(ctx, ReservationInput{ItemID: 1, WarehouseID: 10, Quantity: qty("8")})
	require.NoError(t, err)

	_, err = engine.Decrease(ctx, ChangeInput{ItemID: 1, WarehouseID: 10, Quantity: qty("3"), AutoConfirm: true})
	require.NoError(t, err)
	require.True(t, store.onHand(1, 10).Equal(qty("7")))
}
