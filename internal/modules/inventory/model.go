package inventory

import (
	"time"

	"github.com/google/uuid"
)

// Warehouse is a stocking location that can ship orders.
type Warehouse struct {
	ID         uuid.UUID `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	PostalCode string    `json:"postal_code"`
	State      string    `json:"state"`
	Priority   int       `json:"priority"` // lower ships first when proximity ties
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// StockLevel is the ledger row for one (warehouse, SKU).
type StockLevel struct {
	WarehouseID uuid.UUID `json:"warehouse_id"`
	SKU         string    `json:"sku"`
	OnHand      int       `json:"on_hand"`
	Reserved    int       `json:"reserved"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// Available is on-hand stock not yet promised to an order.
func (l StockLevel) Available() int {
	return l.OnHand - l.Reserved
}

// CreateWarehouseRequest holds data for registering a warehouse.
type CreateWarehouseRequest struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	PostalCode string `json:"postal_code"`
	State      string `json:"state"`
	Priority   int    `json:"priority"`
}

// ReceiveStockRequest records a putaway into a warehouse.
type ReceiveStockRequest struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}
