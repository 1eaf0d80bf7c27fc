// Package ledger implements the inventory stock ledger: the movement log,
// per-position stock aggregates, reservation bookkeeping and the read-side
// stock queries. All stock mutation flows through this package inside atomic
// units of work.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind enumerates supported stock movements.
type MovementKind string

const (
	// KindReceive represents goods arriving from outside (e.g. a GRN).
	KindReceive MovementKind = "receive"
	// KindIssue represents goods leaving stock (e.g. a delivery).
	KindIssue MovementKind = "issue"
	// KindTransfer moves quantity between two warehouses in one entry.
	KindTransfer MovementKind = "transfer"
	// KindAdjustment corrects on-hand quantity after a count.
	KindAdjustment MovementKind = "adjustment"
	// KindReturn represents goods coming back from a customer.
	KindReturn MovementKind = "return"
	// KindManufacturing represents production output or consumption.
	KindManufacturing MovementKind = "manufacturing"
)

// Valid reports whether the kind is a member of the closed enumeration.
func (k MovementKind) Valid() bool {
	switch k {
	case KindReceive, KindIssue, KindTransfer, KindAdjustment, KindReturn, KindManufacturing:
		return true
	}
	return false
}

// Direction is the effect polarity of a movement. Quantity is always stored
// non-negative; direction alone decides the sign of the stock effect.
type Direction string

const (
	// DirectionIn increases on-hand at the source warehouse.
	DirectionIn Direction = "in"
	// DirectionOut decreases on-hand at the source warehouse.
	DirectionOut Direction = "out"
	// DirectionInternal moves quantity from source to destination warehouse.
	DirectionInternal Direction = "internal"
)

// State is the lifecycle state of a movement.
type State string

const (
	// StateDraft is the initial, fully mutable state.
	StateDraft State = "draft"
	// StateConfirmed marks movements accepted upstream but not yet posted.
	// The engine never assigns it; rows imported in this state can only be
	// cancelled.
	StateConfirmed State = "confirmed"
	// StateDone means the stock effect has been applied, exactly once.
	StateDone State = "done"
	// StateCancelled means the movement was abandoned without effect.
	StateCancelled State = "cancelled"
)

// Terminal reports whether no transition leaves the state.
func (s State) Terminal() bool {
	return s == StateDone || s == StateCancelled
}

// DeriveDirection maps a movement kind onto its direction. hasDest is true
// when a destination warehouse is set; outbound distinguishes the two
// adjustment polarities.
func DeriveDirection(kind MovementKind, hasDest, outbound bool) (Direction, error) {
	switch kind {
	case KindReceive, KindReturn:
		return DirectionIn, nil
	case KindIssue:
		return DirectionOut, nil
	case KindTransfer:
		if !hasDest {
			return "", validationf("transfer requires a destination warehouse")
		}
		return DirectionInternal, nil
	case KindAdjustment:
		if outbound {
			return DirectionOut, nil
		}
		return DirectionIn, nil
	case KindManufacturing:
		if hasDest {
			return DirectionInternal, nil
		}
		return DirectionOut, nil
	}
	return "", validationf("unknown movement kind %q", kind)
}

// Movement is one ledger entry representing a single physical stock event.
type Movement struct {
	ID                int64           `json:"id"`
	ItemID            int64           `json:"item_id"`
	SourceWarehouseID int64           `json:"source_warehouse_id"`
	DestWarehouseID   int64           `json:"dest_warehouse_id,omitempty"`
	BatchID           int64           `json:"batch_id,omitempty"`
	Kind              MovementKind    `json:"kind"`
	Direction         Direction       `json:"direction"`
	Quantity          decimal.Decimal `json:"quantity"`
	State             State           `json:"state"`
	EffectiveDate     time.Time       `json:"effective_date"`
	ReferenceDocument string          `json:"reference_document,omitempty"`
	ReferenceNumber   string          `json:"reference_number,omitempty"`
	OriginNote        string          `json:"origin_note,omitempty"`
	CreatedBy         int64           `json:"created_by,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	DoneAt            time.Time       `json:"done_at,omitempty"`
}

// SignedEffect returns the movement's effect on the given warehouse, positive
// for stock gained and negative for stock lost. With warehouseID zero the
// effect is relative to the item's global stock, so internal movements net to
// zero.
func (m Movement) SignedEffect(warehouseID int64) decimal.Decimal {
	switch m.Direction {
	case DirectionIn:
		if warehouseID == 0 || m.SourceWarehouseID == warehouseID {
			return m.Quantity
		}
	case DirectionOut:
		if warehouseID == 0 || m.SourceWarehouseID == warehouseID {
			return m.Quantity.Neg()
		}
	case DirectionInternal:
		if warehouseID == 0 {
			return decimal.Zero
		}
		if m.DestWarehouseID == warehouseID {
			return m.Quantity
		}
		if m.SourceWarehouseID == warehouseID {
			return m.Quantity.Neg()
		}
	}
	return decimal.Zero
}

// StockPosition is the per (item, warehouse) aggregate of on-hand and
// reserved quantity. Rows are created lazily and never deleted.
type StockPosition struct {
	ItemID      int64           `json:"item_id"`
	WarehouseID int64           `json:"warehouse_id"`
	OnHand      decimal.Decimal `json:"on_hand_quantity"`
	Reserved    decimal.Decimal `json:"reserved_quantity"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Available is the quantity eligible for new commitments.
func (p StockPosition) Available() decimal.Decimal {
	return p.OnHand.Sub(p.Reserved)
}

// MovementEntry is a done movement annotated with its signed effect on the
// warehouse a history query was filtered by.
type MovementEntry struct {
	Movement
	Effect decimal.Decimal `json:"effect"`
}

// MovementFilter selects done movements for history queries.
type MovementFilter struct {
	ItemID      int64
	WarehouseID int64
	From        time.Time
	To          time.Time
	Limit       int
	Offset      int
}
