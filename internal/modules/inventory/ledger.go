package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrInvalidQuantity signals a non-positive quantity.
	ErrInvalidQuantity = errors.New("inventory: quantity must be positive")
	// ErrReleaseExceedsReserved means a release asked for more than is reserved.
	ErrReleaseExceedsReserved = errors.New("inventory: release exceeds reserved quantity")
)

// Ledger is the stock counter store. Reserved counts are shared between concurrent orders,
// so every implementation performs Reserve as one atomic conditional update.
type Ledger interface {
	// Reserve adds qty to reserved only if on_hand - reserved >= qty. It reports false,
	// with no change, when the location cannot cover qty.
	Reserve(ctx context.Context, warehouseID uuid.UUID, sku string, qty int) (bool, error)
	// Release returns qty reserved units to available.
	Release(ctx context.Context, warehouseID uuid.UUID, sku string, qty int) error
	// Receive adds qty to on_hand, creating the row when needed.
	Receive(ctx context.Context, warehouseID uuid.UUID, sku string, qty int) (StockLevel, error)
	// Level returns the current row, or a zero row for an unknown (warehouse, SKU).
	Level(ctx context.Context, warehouseID uuid.UUID, sku string) (StockLevel, error)
}
