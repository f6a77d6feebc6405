package inventory

import (
	"context"
	"errors"
)

var (
	// ErrWarehouseNotFound is returned when a warehouse does not exist.
	ErrWarehouseNotFound = errors.New("inventory: warehouse not found")
	// ErrDuplicateWarehouse is returned when a warehouse code is already taken.
	ErrDuplicateWarehouse = errors.New("inventory: warehouse code already exists")
)

// WarehouseRepository defines warehouse data storage.
type WarehouseRepository interface {
	CreateWarehouse(ctx context.Context, w *Warehouse) error
	GetWarehouseByID(ctx context.Context, id string) (*Warehouse, error)
	ListWarehouses(ctx context.Context, activeOnly bool) ([]*Warehouse, error)
	SetActive(ctx context.Context, id string, active bool) error
}
