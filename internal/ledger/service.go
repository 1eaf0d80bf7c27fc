package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockd-erp/stockd/internal/masterdata"
	"github.com/stockd-erp/stockd/internal/shared"
)

// Store runs callbacks inside one atomic unit of work. Every mutating
// operation of the engine goes through it; a callback error aborts the whole
// unit.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error
}

// TxStore exposes the transactional operations used by the engine. Position
// reads take row locks so check-then-act sequences cannot race.
type TxStore interface {
	InsertMovement(ctx context.Context, m Movement) (int64, error)
	GetMovementForUpdate(ctx context.Context, id int64) (Movement, error)
	SetMovementState(ctx context.Context, id int64, state State, doneAt time.Time) error
	UpdateMovementDraft(ctx context.Context, id int64, upd DraftUpdate) error
	DeleteMovement(ctx context.Context, id int64) error
	EnsurePosition(ctx context.Context, itemID, warehouseID int64) error
	GetPositionForUpdate(ctx context.Context, itemID, warehouseID int64) (StockPosition, error)
	SavePosition(ctx context.Context, pos StockPosition) error
	AdjustItemCounter(ctx context.Context, itemID int64, delta decimal.Decimal) error
}

// MasterData validates the references a movement carries.
type MasterData interface {
	ItemExists(ctx context.Context, id int64) (bool, error)
	WarehouseExists(ctx context.Context, id int64) (bool, error)
	Batch(ctx context.Context, id int64) (masterdata.Batch, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Metrics receives ledger business counters.
type Metrics interface {
	MovementConfirmed(kind string)
	StockRejected()
	ReservationGranted()
}

// Engine is the state-machine and business-rule layer of the ledger.
type Engine struct {
	store       Store
	master      MasterData
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	cache       *Cache
	metrics     Metrics
	allowNeg    bool
}

// EngineConfig groups optional settings.
type EngineConfig struct {
	// AllowNegativeStock lifts the on-hand >= 0 guard applied when a movement
	// is confirmed.
	AllowNegativeStock bool
}

// NewEngine builds Engine.
func NewEngine(store Store, master MasterData, audit AuditPort, idem *shared.IdempotencyStore, cache *Cache, metrics Metrics, cfg EngineConfig) *Engine {
	return &Engine{
		store:       store,
		master:      master,
		audit:       audit,
		idempotency: idem,
		cache:       cache,
		metrics:     metrics,
		allowNeg:    cfg.AllowNegativeStock,
	}
}

// MovementSpec describes a movement to be recorded as a draft.
type MovementSpec struct {
	ItemID            int64
	SourceWarehouseID int64
	DestWarehouseID   int64
	BatchID           int64
	Kind              MovementKind
	Quantity          decimal.Decimal
	// Outbound selects the negative polarity for adjustment movements.
	Outbound          bool
	EffectiveDate     time.Time
	ReferenceDocument string
	ReferenceNumber   string
	OriginNote        string
	CreatedBy         int64
	IdempotencyKey    string
}

// DraftUpdate carries the metadata fields mutable while a movement is draft.
// Nil fields are left unchanged.
type DraftUpdate struct {
	EffectiveDate     *time.Time
	ReferenceDocument *string
	ReferenceNumber   *string
	OriginNote        *string
}

// TransferInput describes a warehouse-to-warehouse transfer.
type TransferInput struct {
	ItemID            int64
	FromWarehouseID   int64
	ToWarehouseID     int64
	Quantity          decimal.Decimal
	BatchID           int64
	EffectiveDate     time.Time
	ReferenceDocument string
	ReferenceNumber   string
	OriginNote        string
	CreatedBy         int64
	AutoConfirm       bool
	IdempotencyKey    string
}

// AdjustInput describes an adjust-to-target request.
type AdjustInput struct {
	ItemID         int64
	WarehouseID    int64
	TargetQuantity decimal.Decimal
	Reason         string
	EffectiveDate  time.Time
	CreatedBy      int64
	AutoConfirm    bool
	IdempotencyKey string
}

// ChangeInput describes a generic single-warehouse increase or decrease.
type ChangeInput struct {
	ItemID            int64
	WarehouseID       int64
	Quantity          decimal.Decimal
	Kind              MovementKind
	BatchID           int64
	EffectiveDate     time.Time
	ReferenceDocument string
	ReferenceNumber   string
	OriginNote        string
	CreatedBy         int64
	AutoConfirm       bool
	// AllowNegative skips the availability pre-check on a decrease.
	AllowNegative  bool
	IdempotencyKey string
}

// CreateMovement validates the input and persists a new draft movement.
func (e *Engine) CreateMovement(ctx context.Context, spec MovementSpec) (Movement, error) {
	m, err := e.buildMovement(ctx, spec)
	if err != nil {
		return Movement{}, err
	}
	insertedKey, err := e.claimIdempotency(ctx, spec.IdempotencyKey)
	if err != nil {
		return Movement{}, err
	}
	err = e.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		id, err := tx.InsertMovement(ctx, m)
		if err != nil {
			return err
		}
		m.ID = id
		return nil
	})
	if err != nil {
		e.releaseIdempotency(ctx, spec.IdempotencyKey, insertedKey)
		return Movement{}, err
	}
	e.recordAudit(ctx, spec.CreatedBy, "ledger:create", m)
	return m, nil
}

// Confirm executes the draft -> done transition, applying the movement's
// stock effect exactly once inside one unit of work.
func (e *Engine) Confirm(ctx context.Context, id int64) (Movement, error) {
	var m Movement
	err := e.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		var err error
		m, err = e.lockMovement(ctx, tx, id)
		if err != nil {
			return err
		}
		if m.State != StateDraft {
			return &InvalidStateError{MovementID: id, State: m.State, Op: "confirm"}
		}
		if err := e.applyEffect(ctx, tx, m, e.allowNeg); err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := tx.SetMovementState(ctx, id, StateDone, now); err != nil {
			return err
		}
		m.State = StateDone
		m.DoneAt = now
		return nil
	})
	if err != nil {
		return Movement{}, e.noteRejection(err)
	}
	if e.metrics != nil {
		e.metrics.MovementConfirmed(string(m.Kind))
	}
	e.bumpCache(ctx)
	e.recordAudit(ctx, m.CreatedBy, "ledger:confirm", m)
	return m, nil
}

// Cancel moves a non-terminal movement to cancelled. Done movements are
// immutable; cancelling them fails with a terminal-state error.
func (e *Engine) Cancel(ctx context.Context, id int64) (Movement, error) {
	var m Movement
	err := e.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		var err error
		m, err = e.lockMovement(ctx, tx, id)
		if err != nil {
			return err
		}
		if m.State.Terminal() {
			return &InvalidStateError{MovementID: id, State: m.State, Op: "cancel"}
		}
		if err := tx.SetMovementState(ctx, id, StateCancelled, time.Time{}); err != nil {
			return err
		}
		m.State = StateCancelled
		return nil
	})
	if err != nil {
		return Movement{}, err
	}
	e.recordAudit(ctx, m.CreatedBy, "ledger:cancel", m)
	return m, nil
}

// UpdateDraft mutates provenance metadata. Allowed only while draft.
func (e *Engine) UpdateDraft(ctx context.Context, id int64, upd DraftUpdate) (Movement, error) {
	var m Movement
	err := e.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		var err error
		m, err = e.lockMovement(ctx, tx, id)
		if err != nil {
			return err
		}
		if m.State != StateDraft {
			return &InvalidStateError{MovementID: id, State: m.State, Op: "update"}
		}
		if err := tx.UpdateMovementDraft(ctx, id, upd); err != nil {
			return err
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
		return nil
	})
	if err != nil {
		return Movement{}, err
	}
	return m, nil
}

// DeleteDraft removes a movement. Allowed only while draft.
func (e *Engine) DeleteDraft(ctx context.Context, id int64) error {
	return e.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		m, err := e.lockMovement(ctx, tx, id)
		if err != nil {
			return err
		}
		if m.State != StateDraft {
			return &InvalidStateError{MovementID: id, State: m.State, Op: "delete"}
		}
		return tx.DeleteMovement(ctx, id)
	})
}

// Transfer creates one internal movement for the whole transfer and
// optionally confirms it. Availability at the source is pre-checked under
// the same row locks that the effect application uses.
func (e *Engine) Transfer(ctx context.Context, in TransferInput) (Movement, error) {
	m, err := e.buildMovement(ctx, MovementSpec{
		ItemID:            in.ItemID,
		SourceWarehouseID: in.FromWarehouseID,
		DestWarehouseID:   in.ToWarehouseID,
		BatchID:           in.BatchID,
		Kind:              KindTransfer,
		Quantity:          in.Quantity,
		EffectiveDate:     in.EffectiveDate,
		ReferenceDocument: in.ReferenceDocument,
		ReferenceNumber:   in.ReferenceNumber,
		OriginNote:        in.OriginNote,
		CreatedBy:         in.CreatedBy,
	})
	if err != nil {
		return Movement{}, err
	}
	insertedKey, err := e.claimIdempotency(ctx, in.IdempotencyKey)
	if err != nil {
		return Movement{}, err
	}
	err = e.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		// Lock both positions when confirming so concurrent opposite-direction
		// transfers take locks in the same order.
		lockIDs := []int64{in.FromWarehouseID}
		if in.AutoConfirm {
			lockIDs = orderedWarehouses(in.FromWarehouseID, in.ToWarehouseID)
		}
		var source StockPosition
		for _, wh := range lockIDs {
			pos, err := lockPosition(ctx, tx, in.ItemID, wh)
			if err != nil {
				return err
			}
			if wh == in.FromWarehouseID {
				source = pos
			}
		}
		if source.Available().LessThan(in.Quantity) {
			return &InsufficientStockError{
				ItemID:      in.ItemID,
				WarehouseID: in.FromWarehouseID,
				Available:   source.Available(),
				Requested:   in.Quantity,
			}
		}
		id, err := tx.InsertMovement(ctx, m)
		if err != nil {
			return err
		}
		m.ID = id
		if !in.AutoConfirm {
			return nil
		}
		if err := e.applyEffect(ctx, tx, m, e.allowNeg); err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := tx.SetMovementState(ctx, id, StateDone, now); err != nil {
			return err
		}
		m.State = StateDone
		m.DoneAt = now
		return nil
	})
	if err != nil {
		e.releaseIdempotency(ctx, in.IdempotencyKey, insertedKey)
		return Movement{}, e.noteRejection(err)
	}
	if m.State == StateDone {
		if e.metrics != nil {
			e.metrics.MovementConfirmed(string(m.Kind))
		}
		e.bumpCache(ctx)
	}
	e.recordAudit(ctx, in.CreatedBy, "ledger:transfer", m)
	return m, nil
}

// AdjustTo records an adjustment movement bringing on-hand quantity to the
// target. The returned bool is false when on-hand already matches and no
// movement was created.
func (e *Engine) AdjustTo(ctx context.Context, in AdjustInput) (Movement, bool, error) {
	if err := e.checkItemWarehouse(ctx, in.ItemID, in.WarehouseID); err != nil {
		return Movement{}, false, err
	}
	insertedKey, err := e.claimIdempotency(ctx, in.IdempotencyKey)
	if err != nil {
		return Movement{}, false, err
	}
	var m Movement
	created := false
	err = e.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		pos, err := lockPosition(ctx, tx, in.ItemID, in.WarehouseID)
		if err != nil {
			return err
		}
		delta := in.TargetQuantity.Sub(pos.OnHand)
		if delta.IsZero() {
			return nil
		}
		direction := DirectionIn
		if delta.IsNegative() {
			direction = DirectionOut
		}
		effective := in.EffectiveDate
		if effective.IsZero() {
			effective = time.Now().UTC()
		}
		m = Movement{
			ItemID:            in.ItemID,
			SourceWarehouseID: in.WarehouseID,
			Kind:              KindAdjustment,
			Direction:         direction,
			Quantity:          delta.Abs(),
			State:             StateDraft,
			EffectiveDate:     effective,
			OriginNote:        in.Reason,
			CreatedBy:         in.CreatedBy,
			CreatedAt:         time.Now().UTC(),
		}
		id, err := tx.InsertMovement(ctx, m)
		if err != nil {
			return err
		}
		m.ID = id
		created = true
		if !in.AutoConfirm {
			return nil
		}
		if err := e.applyEffect(ctx, tx, m, e.allowNeg); err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := tx.SetMovementState(ctx, id, StateDone, now); err != nil {
			return err
		}
		m.State = StateDone
		m.DoneAt = now
		return nil
	})
	if err != nil {
		e.releaseIdempotency(ctx, in.IdempotencyKey, insertedKey)
		return Movement{}, false, e.noteRejection(err)
	}
	if !created {
		e.releaseIdempotency(ctx, in.IdempotencyKey, insertedKey)
		return Movement{}, false, nil
	}
	if m.State == StateDone {
		if e.metrics != nil {
			e.metrics.MovementConfirmed(string(m.Kind))
		}
		e.bumpCache(ctx)
	}
	e.recordAudit(ctx, in.CreatedBy, "ledger:adjust", m)
	return m, true, nil
}

// Increase records a single-warehouse inbound movement.
func (e *Engine) Increase(ctx context.Context, in ChangeInput) (Movement, error) {
	if in.Kind == "" {
		in.Kind = KindReceive
	}
	m, err := e.buildMovement(ctx, MovementSpec{
		ItemID:            in.ItemID,
		SourceWarehouseID: in.WarehouseID,
		BatchID:           in.BatchID,
		Kind:              in.Kind,
		Quantity:          in.Quantity,
		EffectiveDate:     in.EffectiveDate,
		ReferenceDocument: in.ReferenceDocument,
		ReferenceNumber:   in.ReferenceNumber,
		OriginNote:        in.OriginNote,
		CreatedBy:         in.CreatedBy,
	})
	if err != nil {
		return Movement{}, err
	}
	if m.Direction != DirectionIn {
		return Movement{}, validationf("kind %q does not increase stock", in.Kind)
	}
	return e.postChange(ctx, m, in, e.allowNeg)
}

// Decrease records a single-warehouse outbound movement. Availability is
// pre-checked unless AllowNegative is set.
func (e *Engine) Decrease(ctx context.Context, in ChangeInput) (Movement, error) {
	if in.Kind == "" {
		in.Kind = KindIssue
	}
	m, err := e.buildMovement(ctx, MovementSpec{
		ItemID:            in.ItemID,
		SourceWarehouseID: in.WarehouseID,
		BatchID:           in.BatchID,
		Kind:              in.Kind,
		Quantity:          in.Quantity,
		Outbound:          true,
		EffectiveDate:     in.EffectiveDate,
		ReferenceDocument: in.ReferenceDocument,
		ReferenceNumber:   in.ReferenceNumber,
		OriginNote:        in.OriginNote,
		CreatedBy:         in.CreatedBy,
	})
	if err != nil {
		return Movement{}, err
	}
	if m.Direction != DirectionOut {
		return Movement{}, validationf("kind %q does not decrease stock", in.Kind)
	}
	return e.postChange(ctx, m, in, in.AllowNegative || e.allowNeg)
}

func (e *Engine) postChange(ctx context.Context, m Movement, in ChangeInput, allowNeg bool) (Movement, error) {
	insertedKey, err := e.claimIdempotency(ctx, in.IdempotencyKey)
	if err != nil {
		return Movement{}, err
	}
	err = e.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		pos, err := lockPosition(ctx, tx, m.ItemID, m.SourceWarehouseID)
		if err != nil {
			return err
		}
		if m.Direction == DirectionOut && !in.AllowNegative && pos.Available().LessThan(m.Quantity) {
			return &InsufficientStockError{
				ItemID:      m.ItemID,
				WarehouseID: m.SourceWarehouseID,
				Available:   pos.Available(),
				Requested:   m.Quantity,
			}
		}
		id, err := tx.InsertMovement(ctx, m)
		if err != nil {
			return err
		}
		m.ID = id
		if !in.AutoConfirm {
			return nil
		}
		if err := e.applyEffect(ctx, tx, m, allowNeg); err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := tx.SetMovementState(ctx, id, StateDone, now); err != nil {
			return err
		}
		m.State = StateDone
		m.DoneAt = now
		return nil
	})
	if err != nil {
		e.releaseIdempotency(ctx, in.IdempotencyKey, insertedKey)
		return Movement{}, e.noteRejection(err)
	}
	if m.State == StateDone {
		if e.metrics != nil {
			e.metrics.MovementConfirmed(string(m.Kind))
		}
		e.bumpCache(ctx)
	}
	e.recordAudit(ctx, in.CreatedBy, fmt.Sprintf("ledger:%s", m.Kind), m)
	return m, nil
}

// applyEffect mutates the stock positions a movement touches, per its
// direction. Positions are created lazily and locked in ascending warehouse
// id order. The item aggregate counter follows in/out movements only;
// transfers conserve the item total.
func (e *Engine) applyEffect(ctx context.Context, tx TxStore, m Movement, allowNeg bool) error {
	warehouses := []int64{m.SourceWarehouseID}
	if m.Direction == DirectionInternal {
		warehouses = orderedWarehouses(m.SourceWarehouseID, m.DestWarehouseID)
	}
	positions := make(map[int64]StockPosition, len(warehouses))
	for _, wh := range warehouses {
		pos, err := lockPosition(ctx, tx, m.ItemID, wh)
		if err != nil {
			return err
		}
		positions[wh] = pos
	}

	switch m.Direction {
	case DirectionIn:
		pos := positions[m.SourceWarehouseID]
		pos.OnHand = pos.OnHand.Add(m.Quantity)
		if err := tx.SavePosition(ctx, pos); err != nil {
			return err
		}
		return tx.AdjustItemCounter(ctx, m.ItemID, m.Quantity)
	case DirectionOut:
		pos := positions[m.SourceWarehouseID]
		next := pos.OnHand.Sub(m.Quantity)
		if !allowNeg && next.IsNegative() {
			return &InsufficientStockError{
				ItemID:      m.ItemID,
				WarehouseID: m.SourceWarehouseID,
				Available:   pos.OnHand,
				Requested:   m.Quantity,
			}
		}
		pos.OnHand = next
		if err := tx.SavePosition(ctx, pos); err != nil {
			return err
		}
		return tx.AdjustItemCounter(ctx, m.ItemID, m.Quantity.Neg())
	case DirectionInternal:
		src := positions[m.SourceWarehouseID]
		next := src.OnHand.Sub(m.Quantity)
		if !allowNeg && next.IsNegative() {
			return &InsufficientStockError{
				ItemID:      m.ItemID,
				WarehouseID: m.SourceWarehouseID,
				Available:   src.OnHand,
				Requested:   m.Quantity,
			}
		}
		src.OnHand = next
		if err := tx.SavePosition(ctx, src); err != nil {
			return err
		}
		dst := positions[m.DestWarehouseID]
		dst.OnHand = dst.OnHand.Add(m.Quantity)
		return tx.SavePosition(ctx, dst)
	}
	return validationf("unknown direction %q", m.Direction)
}

// buildMovement validates the input against master data and returns the
// draft movement it describes, without persisting it.
func (e *Engine) buildMovement(ctx context.Context, spec MovementSpec) (Movement, error) {
	if !spec.Quantity.IsPositive() {
		return Movement{}, validationf("quantity must be strictly positive, got %s", spec.Quantity)
	}
	if !spec.Kind.Valid() {
		return Movement{}, validationf("unknown movement kind %q", spec.Kind)
	}
	if spec.DestWarehouseID != 0 && spec.DestWarehouseID == spec.SourceWarehouseID {
		return Movement{}, validationf("source and destination warehouse must differ")
	}
	direction, err := DeriveDirection(spec.Kind, spec.DestWarehouseID != 0, spec.Outbound)
	if err != nil {
		return Movement{}, err
	}
	if err := e.checkItemWarehouse(ctx, spec.ItemID, spec.SourceWarehouseID); err != nil {
		return Movement{}, err
	}
	if spec.DestWarehouseID != 0 {
		ok, err := e.master.WarehouseExists(ctx, spec.DestWarehouseID)
		if err != nil {
			return Movement{}, err
		}
		if !ok {
			return Movement{}, &NotFoundError{Entity: "warehouse", ID: spec.DestWarehouseID}
		}
	}
	if spec.BatchID != 0 {
		batch, err := e.master.Batch(ctx, spec.BatchID)
		if err != nil {
			if errors.Is(err, masterdata.ErrNotFound) {
				return Movement{}, &NotFoundError{Entity: "batch", ID: spec.BatchID}
			}
			return Movement{}, err
		}
		if batch.ItemID != spec.ItemID {
			return Movement{}, validationf("batch %d belongs to item %d, not item %d", spec.BatchID, batch.ItemID, spec.ItemID)
		}
	}
	effective := spec.EffectiveDate
	if effective.IsZero() {
		effective = time.Now().UTC()
	}
	return Movement{
		ItemID:            spec.ItemID,
		SourceWarehouseID: spec.SourceWarehouseID,
		DestWarehouseID:   spec.DestWarehouseID,
		BatchID:           spec.BatchID,
		Kind:              spec.Kind,
		Direction:         direction,
		Quantity:          spec.Quantity,
		State:             StateDraft,
		EffectiveDate:     effective,
		ReferenceDocument: spec.ReferenceDocument,
		ReferenceNumber:   spec.ReferenceNumber,
		OriginNote:        spec.OriginNote,
		CreatedBy:         spec.CreatedBy,
		CreatedAt:         time.Now().UTC(),
	}, nil
}

func (e *Engine) checkItemWarehouse(ctx context.Context, itemID, warehouseID int64) error {
	ok, err := e.master.ItemExists(ctx, itemID)
	if err != nil {
		return err
	}
	if !ok {
		return &NotFoundError{Entity: "item", ID: itemID}
	}
	ok, err = e.master.WarehouseExists(ctx, warehouseID)
	if err != nil {
		return err
	}
	if !ok {
		return &NotFoundError{Entity: "warehouse", ID: warehouseID}
	}
	return nil
}

func (e *Engine) lockMovement(ctx context.Context, tx TxStore, id int64) (Movement, error) {
	m, err := tx.GetMovementForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, ErrMovementNotFound) {
			return Movement{}, &NotFoundError{Entity: "movement", ID: id}
		}
		return Movement{}, err
	}
	return m, nil
}

func (e *Engine) claimIdempotency(ctx context.Context, key string) (bool, error) {
	if key == "" || e.idempotency == nil {
		return false, nil
	}
	if err := e.idempotency.CheckAndInsert(ctx, key, "ledger"); err != nil {
		return false, err
	}
	return true, nil
}

func (e *Engine) releaseIdempotency(ctx context.Context, key string, inserted bool) {
	if inserted {
		_ = e.idempotency.Delete(ctx, key)
	}
}

func (e *Engine) noteRejection(err error) error {
	var insufficient *InsufficientStockError
	if e.metrics != nil && errors.As(err, &insufficient) {
		e.metrics.StockRejected()
	}
	return err
}

func (e *Engine) bumpCache(ctx context.Context) {
	if e.cache != nil {
		_ = e.cache.Bump(ctx)
	}
}

func (e *Engine) recordAudit(ctx context.Context, actorID int64, action string, m Movement) {
	if e.audit == nil {
		return
	}
	_ = e.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "stock_movement",
		EntityID: fmt.Sprintf("%d", m.ID),
		Meta: map[string]any{
			"item_id":      m.ItemID,
			"warehouse_id": m.SourceWarehouseID,
			"kind":         string(m.Kind),
			"direction":    string(m.Direction),
			"quantity":     m.Quantity.String(),
			"state":        string(m.State),
		},
	})
}

// lockPosition creates the position row when absent, then takes a row lock.
func lockPosition(ctx context.Context, tx TxStore, itemID, warehouseID int64) (StockPosition, error) {
	if err := tx.EnsurePosition(ctx, itemID, warehouseID); err != nil {
		return StockPosition{}, err
	}
	return tx.GetPositionForUpdate(ctx, itemID, warehouseID)
}

func orderedWarehouses(a, b int64) []int64 {
	if a < b {
		return []int64{a, b}
	}
	return []int64{b, a}
}
