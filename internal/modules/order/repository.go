package order

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when an order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrStatusConflict means the order left the expected status before the update landed.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

// Repository defines data access for orders.
type Repository interface {
	// CreateOrder persists a new order and its items atomically in a transaction.
	CreateOrder(ctx context.Context, o *Order) error

	// GetOrderByID retrieves an order with its items by UUID.
	GetOrderByID(ctx context.Context, id string) (*Order, error)

	// GetOrderByNumber retrieves an order by its human-readable order number.
	GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error)

	// ListOrdersByStatus returns orders in a status, newest first.
	ListOrdersByStatus(ctx context.Context, status Status) ([]*Order, error)

	// UpdateFulfillment writes the fulfillment fields and item allocations of o, but only if
	// the stored status still equals expected. Otherwise it returns ErrStatusConflict.
	UpdateFulfillment(ctx context.Context, o *Order, expected Status) error
}
