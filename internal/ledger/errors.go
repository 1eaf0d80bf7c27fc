package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidationError indicates malformed input. No state is changed.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "ledger: " + e.Reason
}

func validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError indicates a referenced movement, position or master data
// record does not exist.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("ledger: %s %d not found", e.Entity, e.ID)
}

// InvalidStateError indicates a transition attempted from a state that
// forbids it.
type InvalidStateError struct {
	MovementID int64
	State      State
	Op         string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("ledger: cannot %s movement %d in state %s", e.Op, e.MovementID, e.State)
}

// InsufficientStockError indicates an availability check failed. It carries
// the available and requested quantities for caller display.
type InsufficientStockError struct {
	ItemID      int64
	WarehouseID int64
	Available   decimal.Decimal
	Requested   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("ledger: insufficient stock for item %d at warehouse %d: available %s, requested %s",
		e.ItemID, e.WarehouseID, e.Available, e.Requested)
}

// InvalidRequestError indicates a reservation release exceeding the currently
// reserved quantity.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return "ledger: " + e.Reason
}
