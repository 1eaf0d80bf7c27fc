// Package masterdata exposes read access to the item, warehouse and batch
// records the ledger validates against. CRUD over these entities lives in the
// back-office application; this service only reads them, and the ledger
// adjusts the item aggregate stock counter as a posting side effect.
package masterdata

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is a sellable or consumable product.
type Item struct {
	ID   int64  `json:"id"`
	SKU  string `json:"sku"`
	Name string `json:"name"`
	// StockQuantity is the denormalized sum of on-hand quantity across all
	// warehouses, maintained by the ledger and reconciled nightly.
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Warehouse is a physical stock location.
type Warehouse struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Batch is a lot/traceability grouping of quantity for an item.
type Batch struct {
	ID         int64     `json:"id"`
	ItemID     int64     `json:"item_id"`
	LotNumber  string    `json:"lot_number"`
	ExpiryDate time.Time `json:"expiry_date,omitempty"`
}
