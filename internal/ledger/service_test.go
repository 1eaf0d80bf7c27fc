package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stockd-erp/stockd/internal/masterdata"
)

type memStore struct {
	movements map[int64]Movement
	positions map[string]StockPosition
	counters  map[int64]decimal.Decimal
	nextID    int64
}

type memTx struct {
	store *memStore
}

func newMemStore() *memStore {
	return &memStore{
		movements: make(map[int64]Movement),
		positions: make(map[string]StockPosition),
		counters:  make(map[int64]decimal.Decimal),
	}
}

func posKey(itemID, warehouseID int64) string {
	return fmt.Sprintf("%d:%d", itemID, warehouseID)
}

func (s *memStore) snapshot() *memStore {
	clone := newMemStore()
	clone.nextID = s.nextID
	for k, v := range s.movements {
		clone.movements[k] = v
	}
	for k, v := range s.positions {
		clone.positions[k] = v
	}
	for k, v := range s.counters {
		clone.counters[k] = v
	}
	return clone
}

func (s *memStore) restore(from *memStore) {
	s.movements = from.movements
	s.positions = from.positions
	s.counters = from.counters
	s.nextID = from.nextID
}

// WithTx rolls the whole store back when the callback fails, mirroring the
// transactional repository.
func (s *memStore) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	before := s.snapshot()
	if err := fn(ctx, &memTx{store: s}); err != nil {
		s.restore(before)
		return err
	}
	return nil
}

func (tx *memTx) InsertMovement(ctx context.Context, m Movement) (int64, error) {
	tx.store.nextID++
	m.ID = tx.store.nextID
	tx.store.movements[m.ID] = m
	return m.ID, nil
}

func (tx *memTx) GetMovementForUpdate(ctx context.Context, id int64) (Movement, error) {
	m, ok := tx.store.movements[id]
	if !ok {
		return Movement{}, ErrMovementNotFound
	}
	return m, nil
}

func (tx *memTx) SetMovementState(ctx context.Context, id int64, state State, doneAt time.Time) error {
	m, ok := tx.store.movements[id]
	if !ok {
		return ErrMovementNotFound
	}
	m.State = state
	m.DoneAt = doneAt
	tx.store.movements[id] = m
	return nil
}

func (tx *memTx) UpdateMovementDraft(ctx context.Context, id int64, upd DraftUpdate) error {
	m, ok := tx.store.movements[id]
	if !ok || m.State != StateDraft {
		return ErrMovementNotFound
	}
	if upd.EffectiveDate != nil {
		m.EffectiveDate = *upd.EffectiveDate
	}
	if upd.ReferenceDocument != nil {
		m.ReferenceDocument = *upd.ReferenceDocument
	}
	if upd.ReferenceNumber != nil {
		m.ReferenceNumber = *upd.ReferenceNumber
	}
	if upd.OriginNote != nil {
		m.OriginNote = *upd.OriginNote
	}
	tx.store.movements[id] = m
	return nil
}

func (tx *memTx) DeleteMovement(ctx context.Context, id int64) error {
	m, ok := tx.store.movements[id]
	if !ok || m.State != StateDraft {
		return ErrMovementNotFound
	}
	delete(tx.store.movements, id)
	return nil
}

func (tx *memTx) EnsurePosition(ctx context.Context, itemID, warehouseID int64) error {
	key := posKey(itemID, warehouseID)
	if _, ok := tx.store.positions[key]; !ok {
		tx.store.positions[key] = StockPosition{ItemID: itemID, WarehouseID: warehouseID}
	}
	return nil
}

func (tx *memTx) GetPositionForUpdate(ctx context.Context, itemID, warehouseID int64) (StockPosition, error) {
	pos, ok := tx.store.positions[posKey(itemID, warehouseID)]
	if !ok {
		return StockPosition{}, ErrPositionNotFound
	}
	return pos, nil
}

func (tx *memTx) SavePosition(ctx context.Context, pos StockPosition) error {
	tx.store.positions[posKey(pos.ItemID, pos.WarehouseID)] = pos
	return nil
}

func (tx *memTx) AdjustItemCounter(ctx context.Context, itemID int64, delta decimal.Decimal) error {
	tx.store.counters[itemID] = tx.store.counters[itemID].Add(delta)
	return nil
}

// Read-side methods so the same fake serves QueryService tests.

func (s *memStore) GetPosition(ctx context.Context, itemID, warehouseID int64) (StockPosition, error) {
	pos, ok := s.positions[posKey(itemID, warehouseID)]
	if !ok {
		return StockPosition{}, ErrPositionNotFound
	}
	return pos, nil
}

func (s *memStore) ListDraftMovements(ctx context.Context, itemID, warehouseID int64) ([]Movement, error) {
	return s.selectMovements(func(m Movement) bool {
		return m.ItemID == itemID && m.State == StateDraft &&
			(m.SourceWarehouseID == warehouseID || m.DestWarehouseID == warehouseID)
	}), nil
}

func (s *memStore) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	matches := s.selectMovements(func(m Movement) bool {
		if m.State != StateDone {
			return false
		}
		if filter.ItemID != 0 && m.ItemID != filter.ItemID {
			return false
		}
		if filter.WarehouseID != 0 && m.SourceWarehouseID != filter.WarehouseID && m.DestWarehouseID != filter.WarehouseID {
			return false
		}
		return true
	})
	// Newest first, like the SQL ordering.
	for i, j := 0, len(matches)-1; i < j; i, j = i+1, j-1 {
		matches[i], matches[j] = matches[j], matches[i]
	}
	return matches, nil
}

func (s *memStore) CountMovements(ctx context.Context, filter MovementFilter) (int, error) {
	matches, err := s.ListMovements(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}

func (s *memStore) ListBatchMovements(ctx context.Context, itemID, warehouseID int64) ([]Movement, error) {
	return s.selectMovements(func(m Movement) bool {
		return m.ItemID == itemID && m.State == StateDone && m.BatchID != 0 &&
			(m.SourceWarehouseID == warehouseID || m.DestWarehouseID == warehouseID)
	}), nil
}

func (s *memStore) selectMovements(keep func(Movement) bool) []Movement {
	result := []Movement{}
	for id := int64(1); id <= s.nextID; id++ {
		m, ok := s.movements[id]
		if ok && keep(m) {
			result = append(result, m)
		}
	}
	return result
}

func (s *memStore) seedPosition(itemID, warehouseID int64, onHand, reserved string) {
	s.positions[posKey(itemID, warehouseID)] = StockPosition{
		ItemID:      itemID,
		WarehouseID: warehouseID,
		OnHand:      decimal.RequireFromString(onHand),
		Reserved:    decimal.RequireFromString(reserved),
	}
}

func (s *memStore) onHand(itemID, warehouseID int64) decimal.Decimal {
	return s.positions[posKey(itemID, warehouseID)].OnHand
}

type fakeMaster struct {
	items      map[int64]bool
	warehouses map[int64]bool
	batches    map[int64]masterdata.Batch
}

func newFakeMaster() *fakeMaster {
	return &fakeMaster{
		items:      map[int64]bool{1: true, 2: true},
		warehouses: map[int64]bool{10: true, 20: true, 30: true},
		batches: map[int64]masterdata.Batch{
			100: {ID: 100, ItemID: 1, LotNumber: "LOT-100"},
			200: {ID: 200, ItemID: 2, LotNumber: "LOT-200"},
		},
	}
}

func (f *fakeMaster) ItemExists(ctx context.Context, id int64) (bool, error) {
	return f.items[id], nil
}

func (f *fakeMaster) WarehouseExists(ctx context.Context, id int64) (bool, error) {
	return f.warehouses[id], nil
}

func (f *fakeMaster) Batch(ctx context.Context, id int64) (masterdata.Batch, error) {
	b, ok := f.batches[id]
	if !ok {
		return masterdata.Batch{}, masterdata.ErrNotFound
	}
	return b, nil
}

type fakeMetrics struct {
	confirmed    map[string]int
	rejections   int
	reservations int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{confirmed: make(map[string]int)}
}

func (m *fakeMetrics) MovementConfirmed(kind string) { m.confirmed[kind]++ }
func (m *fakeMetrics) StockRejected()                { m.rejections++ }
func (m *fakeMetrics) ReservationGranted()           { m.reservations++ }

func newTestEngine(store *memStore, allowNeg bool) (*Engine, *fakeMetrics) {
	metrics := newFakeMetrics()
	engine := NewEngine(store, newFakeMaster(), nil, nil, nil, metrics, EngineConfig{AllowNegativeStock: allowNeg})
	return engine, metrics
}

func qty(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateMovementValidation(t *testing.T) {
	store := newMemStore()
	engine, _ := newTestEngine(store, false)
	ctx := context.Background()

	cases := []struct {
		name string
		spec MovementSpec
	}{
		{"zero quantity", MovementSpec{ItemID: 1, SourceWarehouseID: 10, Kind: KindReceive, Quantity: decimal.Zero}},
		{"negative quantity", MovementSpec{ItemID: 1, SourceWarehouseID: 10, Kind: KindReceive, Quantity: qty("-5")}},
		{"unknown kind", MovementSpec{ItemID: 1, SourceWarehouseID: 10, Kind: "teleport", Quantity: qty("1")}},
		{"transfer without destination", MovementSpec{ItemID: 1, SourceWarehouseID: 10, Kind: KindTransfer, Quantity: qty("1")}},
		{"same source and destination", MovementSpec{ItemID: 1, SourceWarehouseID: 10, DestWarehouseID: 10, Kind: KindTransfer, Quantity: qty("1")}},
		{"batch belongs to other item", MovementSpec{ItemID: 1, SourceWarehouseID: 10, BatchID: 200, Kind: KindReceive, Quantity: qty("1")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.CreateMovement(ctx, tc.spec)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}

	_, err := engine.CreateMovement(ctx, MovementSpec{ItemID: 99, SourceWarehouseID: 10, Kind: KindReceive, Quantity: qty("1")})
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	require.Equal(t, "item", nfErr.Entity)

	_, err = engine.CreateMovement(ctx, MovementSpec{ItemID: 1, SourceWarehouseID: 99, Kind: KindReceive, Quantity: qty("1")})
	require.ErrorAs(t, err, &nfErr)
	require.Equal(t, "warehouse", nfErr.Entity)

	require.Empty(t, store.movements)
}

func TestCreateMovementDraft(t *testing.T) {
	store := newMemStore()
	engine, _ := newTestEngine(store, false)
	ctx := context.Background()

	m, err := engine.CreateMovement(ctx, MovementSpec{
		ItemID:            1,
		SourceWarehouseID: 10,
		Kind:              KindReceive,
		Quantity:          qty("12.5"),
		ReferenceDocument: "PO",
		ReferenceNumber:   "PO-0042",
	})
	require.NoError(t, err)
	require.Equal(t, StateDraft, m.State)
	require.Equal(t, DirectionIn, m.Direction)
	require.NotZero(t, m.ID)
	require.False(t, m.EffectiveDate.IsZero())

	// Drafts change no stock.
	require.Empty(t, store.positions)
	require.True(t, store.counters[1].IsZero())
}

func TestConfirmAppliesEffectExactlyOnce(t *testing.T) {
	store := newMemStore()
	engine, metrics := newTestEngine(store, false)
	ctx := context.Background()

	m, err := engine.CreateMovement(ctx, MovementSpec{ItemID: 1, SourceWarehouseID: 10, Kind: KindReceive, Quantity: qty("10")})
	require.NoError(t, err)

	done, err := engine.Confirm(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, StateDone, done.State)
	require.False(t, done.DoneAt.IsZero())
	require.True(t, store.onHand(1, 10).Equal(qty("10")))
	require.True(t, store.counters[1].Equal(qty("10")))
	require.Equal(t, 1, metrics.confirmed["receive"])

	// A second confirmation must fail and leave stock untouched.
	_, err = engine.Confirm(ctx, m.ID)
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	require.Equal(t, StateDone, stateErr.State)
	require.True(t, store.onHand(1, 10).Equal(qty("10")))
	require.True(t, store.counters[1].Equal(qty("10")))
	require.Equal(t, 1, metrics.confirmed["receive"])
}

func TestStateGuards(t *testing.T) {
	store := newMemStore()
	engine, _ := newTestEngine(store, false)
	ctx := context.Background()
	var stateErr *InvalidStateError

	m, err := engine.CreateMovement(ctx, MovementSpec{ItemID: 1, SourceWarehouseID: 10, Kind: KindReceive, Quantity: qty("3")})
	require.NoError(t, err)

	cancelled, err := engine.Cancel(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, StateCancelled, cancelled.State)

	_, err = engine.Confirm(ctx, m.ID)
	require.ErrorAs(t, err, &stateErr)

	_, err = engine.Cancel(ctx, m.ID)
	require.ErrorAs(t, err, &stateErr)

	note := "late edit"
	_, err = engine.UpdateDraft(ctx, m.ID, DraftUpdate{OriginNote: &note})
	require.ErrorAs(t, err, &stateErr)

	err = engine.DeleteDraft(ctx, m.ID)
	require.ErrorAs(t, err, &stateErr)

	// Done movements are immutable, including cancellation.
	m2, err := engine.CreateMovement(ctx, MovementSpec{ItemID: 1, SourceWarehouseID: 10, Kind: KindReceive, Quantity: qty("3")})
	require.NoError(t, err)
	_, err = engine.Confirm(ctx, m2.ID)
	require.NoError(t, err)
	_, err = engine.Cancel(ctx, m2.ID)
	require.ErrorAs(t, err, &stateErr)
	require.Equal(t, "cancel", stateErr.Op)
}

func TestDraftUpdateAndDelete(t *testing.T) {
	store := newMemStore()
	engine, _ := newTestEngine(store, false)
	ctx := context.Background()

	m, err := engine.CreateMovement(ctx, MovementSpec{ItemID: 1, SourceWarehouseID: 10, Kind: KindIssue, Quantity: qty("2"), OriginNote: "initial"})
	require.NoError(t, err)

	ref := "DN-7"
	updated, err := engine.UpdateDraft(ctx, m.ID, DraftUpdate{ReferenceNumber: &ref})
	require.NoError(t, err)
	require.Equal(t, "DN-7", updated.ReferenceNumber)
	require.Equal(t, "initial", updated.OriginNote)

	require.NoError(t, engine.DeleteDraft(ctx, m.ID))
	var nfErr *NotFoundError
	_, err = engine.Confirm(ctx, m.ID)
	require.ErrorAs(t, err, &nfErr)
}

func TestTransferConservesStock(t *testing.T) {
	store := newMemStore()
	store.seedPosition(1, 10, "50", "0")
	store.counters[1] = qty("50")
	engine, _ := newTestEngine(store, false)
	ctx := context.Background()

	m, err := engine.Transfer(ctx, TransferInput{
		ItemID:          1,
		FromWarehouseID: 10,
		ToWarehouseID:   20,
		Quantity:        qty("18"),
		AutoConfirm:     true,
	})
	require.NoError(t, err)
	require.Equal(t, StateDone, m.State)
	require.Equal(t, DirectionInternal, m.Direction)

	require.True(t, store.onHand(1, 10).Equal(qty("32")))
	require.True(t, store.onHand(1, 20).Equal(qty("18")))
	// Transfers never move the item total.
	require.True(t, store.counters[1].Equal(qty("50")))
}

func TestTransferInsufficientStockIsAtomic(t *testing.T) {
	store := newMemStore()
	store.seedPosition(1, 10, "5", "0")
	engine, metrics := newTestEngine(store, false)
	ctx := context.Background()

	_, err := engine.Transfer(ctx, TransferInput{
		ItemID:          1,
		FromWarehouseID: 10,
		ToWarehouseID:   20,
		Quantity:        qty("8"),
		AutoConfirm:     true,
	})
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.True(t, insufficient.Available.Equal(qty("5")))
	require.True(t, insufficient.Requested.Equal(qty("8")))
	require.Equal(t, 1, metrics.rejections)

	// Nothing was recorded and no warehouse changed.
	require.Empty(t, store.movements)
	require.True(t, store.onHand(1, 10).Equal(qty("5")))
	require.True(t, store.onHand(1, 20).IsZero())
}

func TestTransferChecksReservedStock(t *testing.T) {
	store := newMemStore()
	store.seedPosition(1, 10, "10", "7")
	engine, _ := newTestEngine(store, false)
	ctx := context.Background()

	_, err := engine.Transfer(ctx, TransferInput{
		ItemID:          1,
		FromWarehouseID: 10,
		ToWarehouseID:   20,
		Quantity:        qty("5"),
		AutoConfirm:     true,
	})
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.True(t, insufficient.Available.Equal(qty("3")))
}

func TestDecreaseGuardsAvailability(t *testing.T) {
	store := newMemStore()
	store.seedPosition(1, 10, "4", "0")
	engine, _ := newTestEngine(store, false)
	ctx := context.Background()

	_, err := engine.Decrease(ctx, ChangeInput{ItemID: 1, WarehouseID: 10, Quantity: qty("6"), AutoConfirm: true})
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.True(t, store.onHand(1, 10).Equal(qty("4")))

	// The override takes availability below zero deliberately.
	m, err := engine.Decrease(ctx, ChangeInput{ItemID: 1, WarehouseID: 10, Quantity: qty("6"), AutoConfirm: true, AllowNegative: true})
	require.NoError(t, err)
	require.Equal(t, StateDone, m.State)
	require.True(t, store.onHand(1, 10).Equal(qty("-2")))
	require.True(t, store.counters[1].Equal(qty("-6")))
}

func TestIncreaseRejectsOutboundKind(t *testing.T) {
	store := newMemStore()
	engine, _ := newTestEngine(store, false)
	ctx := context.Background()

	_, err := engine.Increase(ctx, ChangeInput{ItemID: 1, WarehouseID: 10, Quantity: qty("1"), Kind: KindIssue})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = engine.Decrease(ctx, ChangeInput{ItemID: 1, WarehouseID: 10, Quantity: qty("1"), Kind: KindReceive})
	require.ErrorAs(t, err, &verr)
}

func TestReturnIncreasesStock(t *testing.T) {
	store := newMemStore()
	engine, _ := newTestEngine(store, false)
	ctx := context.Background()

	m, err := engine.Increase(ctx, ChangeInput{ItemID: 1, WarehouseID: 10, Quantity: qty("2"), Kind: KindReturn, AutoConfirm: true})
	require.NoError(t, err)
	require.Equal(t, DirectionIn, m.Direction)
	require.True(t, store.onHand(1, 10).Equal(qty("2")))
}

func TestAdjustToTarget(t *testing.T) {
	store := newMemStore()
	store.seedPosition(1, 10, "20", "0")
	engine, _ := newTestEngine(store, false)
	ctx := context.Background()

	// Count found less than booked.
	m, created, err := engine.AdjustTo(ctx, AdjustInput{ItemID: 1, WarehouseID: 10, TargetQuantity: qty("17"), Reason: "cycle count", AutoConfirm: true})
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, KindAdjustment, m.Kind)
	require.Equal(t, DirectionOut, m.Direction)
	require.True(t, m.Quantity.Equal(qty("3")))
	require.True(t, store.onHand(1, 10).Equal(qty("17")))

	// Count found more than booked.
	m, created, err = engine.AdjustTo(ctx, AdjustInput{ItemID: 1, WarehouseID: 10, TargetQuantity: qty("21.5"), AutoConfirm: true})
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, DirectionIn, m.Direction)
	require.True(t, m.Quantity.Equal(qty("4.5")))
	require.True(t, store.onHand(1, 10).Equal(qty("21.5")))
}

func TestAdjustToMatchingTargetIsNoop(t *testing.T) {
	store := newMemStore()
	store.seedPosition(1, 10, "20", "0")
	engine, _ := newTestEngine(store, false)
	ctx := context.Background()

	_, created, err := engine.AdjustTo(ctx, AdjustInput{ItemID: 1, WarehouseID: 10, TargetQuantity: qty("20"), AutoConfirm: true})
	require.NoError(t, err)
	require.False(t, created)
	require.Empty(t, store.movements)
}

func TestItemCounterFollowsInAndOutOnly(t *testing.T) {
	store := newMemStore()
	engine, _ := newTestEngine(store, false)
	ctx := context.Background()

	_, err := engine.Increase(ctx, ChangeInput{ItemID: 1, WarehouseID: 10, Quantity: qty("30"), AutoConfirm: true})
	require.NoError(t, err)
	_, err = engine.Transfer(ctx, TransferInput{ItemID: 1, FromWarehouseID: 10, ToWarehouseID: 20, Quantity: qty("10"), AutoConfirm: true})
	require.NoError(t, err)
	_, err = engine.Decrease(ctx, ChangeInput{ItemID: 1, WarehouseID: 20, Quantity: qty("4"), AutoConfirm: true})
	require.NoError(t, err)

	require.True(t, store.counters[1].Equal(qty("26")))
	require.True(t, store.onHand(1, 10).Equal(qty("20")))
	require.True(t, store.onHand(1, 20).Equal(qty("6")))
}

func TestDraftTransferConfirmLater(t *testing.T) {
	store := newMemStore()
	store.seedPosition(1, 10, "10", "0")
	engine, _ := newTestEngine(store, false)
	ctx := context.Background()

	m, err := engine.Transfer(ctx, TransferInput{ItemID: 1, FromWarehouseID: 10, ToWarehouseID: 20, Quantity: qty("10")})
	require.NoError(t, err)
	require.Equal(t, StateDraft, m.State)
	require.True(t, store.onHand(1, 10).Equal(qty("10")))

	done, err := engine.Confirm(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, StateDone, done.State)
	require.True(t, store.onHand(1, 10).IsZero())
	require.True(t, store.onHand(1, 20).Equal(qty("10")))
}

func TestConfirmBlocksNegativeOnHand(t *testing.T) {
	store := newMemStore()
	store.seedPosition(1, 10, "2", "0")
	engine, _ := newTestEngine(store, false)
	ctx := context.Background()

	// The draft was recorded while stock was expected to arrive; confirming
	// now would overdraw the warehouse.
	m, err := engine.CreateMovement(ctx, MovementSpec{ItemID: 1, SourceWarehouseID: 10, Kind: KindIssue, Quantity: qty("5")})
	require.NoError(t, err)

	_, err = engine.Confirm(ctx, m.ID)
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.True(t, insufficient.Available.Equal(qty("2")))

	// The movement stays draft so it can be corrected or cancelled.
	require.Equal(t, StateDraft, store.movements[m.ID].State)
	require.True(t, store.onHand(1, 10).Equal(qty("2")))
}

func TestConfirmAllowsNegativeWhenConfigured(t *testing.T) {
	store := newMemStore()
	store.seedPosition(1, 10, "2", "0")
	engine, _ := newTestEngine(store, true)
	ctx := context.Background()

	m, err := engine.CreateMovement(ctx, MovementSpec{ItemID: 1, SourceWarehouseID: 10, Kind: KindIssue, Quantity: qty("5")})
	require.NoError(t, err)
	_, err = engine.Confirm(ctx, m.ID)
	require.NoError(t, err)
	require.True(t, store.onHand(1, 10).Equal(qty("-3")))
}

func TestManufacturingDirections(t *testing.T) {
	store := newMemStore()
	store.seedPosition(1, 10, "10", "0")
	engine, _ := newTestEngine(store, false)
	ctx := context.Background()

	// Consumption without destination takes components out.
	m, err := engine.CreateMovement(ctx, MovementSpec{ItemID: 1, SourceWarehouseID: 10, Kind: KindManufacturing, Quantity: qty("4")})
	require.NoError(t, err)
	require.Equal(t, DirectionOut, m.Direction)

	// With destination the movement behaves like an internal relocation.
	m, err = engine.CreateMovement(ctx, MovementSpec{ItemID: 1, SourceWarehouseID: 10, DestWarehouseID: 20, Kind: KindManufacturing, Quantity: qty("4")})
	require.NoError(t, err)
	require.Equal(t, DirectionInternal, m.Direction)
}
