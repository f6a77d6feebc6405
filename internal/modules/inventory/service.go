package inventory

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/fulfillment-engine/internal/platform/apperr"
	"github.com/georgemunganga/fulfillment-engine/internal/platform/observability"
)

// Service defines warehouse and stock business logic.
type Service interface {
	// Warehouse operations
	CreateWarehouse(ctx context.Context, req CreateWarehouseRequest) (*Warehouse, error)
	GetWarehouse(ctx context.Context, id string) (*Warehouse, error)
	ListWarehouses(ctx context.Context, activeOnly bool) ([]*Warehouse, error)
	SetWarehouseActive(ctx context.Context, id string, active bool) (*Warehouse, error)

	// Stock operations
	ReceiveStock(ctx context.Context, warehouseID string, req ReceiveStockRequest) (StockLevel, error)
	GetStockLevel(ctx context.Context, warehouseID, sku string) (StockLevel, error)
}

type service struct {
	warehouses WarehouseRepository
	ledger     Ledger
	logger     *zap.Logger
}

// NewService creates a new inventory service.
func NewService(warehouses WarehouseRepository, ledger Ledger, logger *zap.Logger) Service {
	return &service{
		warehouses: warehouses,
		ledger:     ledger,
		logger:     observability.OrNop(logger).Named("inventory"),
	}
}

func (s *service) CreateWarehouse(ctx context.Context, req CreateWarehouseRequest) (*Warehouse, error) {
	const op = "inventory.CreateWarehouse"
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	switch {
	case code == "":
		return nil, apperr.InvalidInput(op, "code is required")
	case strings.TrimSpace(req.PostalCode) == "":
		return nil, apperr.InvalidInput(op, "postal_code is required")
	case req.Priority < 0:
		return nil, apperr.InvalidInput(op, "priority must be >= 0")
	}
	w := &Warehouse{
		ID:         uuid.New(),
		Code:       code,
		Name:       strings.TrimSpace(req.Name),
		PostalCode: strings.TrimSpace(req.PostalCode),
		State:      strings.TrimSpace(req.State),
		Priority:   req.Priority,
		IsActive:   true,
	}
	if err := s.warehouses.CreateWarehouse(ctx, w); err != nil {
		if errors.Is(err, ErrDuplicateWarehouse) {
			return nil, apperr.Wrap(op, apperr.CodeInvalidState, err, code)
		}
		return nil, err
	}
	s.logger.Info("warehouse created", zap.String("warehouse_code", w.Code), zap.String("postal_code", w.PostalCode))
	return w, nil
}

func (s *service) GetWarehouse(ctx context.Context, id string) (*Warehouse, error) {
	w, err := s.warehouses.GetWarehouseByID(ctx, id)
	if errors.Is(err, ErrWarehouseNotFound) {
		return nil, apperr.Wrap("inventory.GetWarehouse", apperr.CodeNotFound, err, id)
	}
	return w, err
}

func (s *service) ListWarehouses(ctx context.Context, activeOnly bool) ([]*Warehouse, error) {
	return s.warehouses.ListWarehouses(ctx, activeOnly)
}

func (s *service) SetWarehouseActive(ctx context.Context, id string, active bool) (*Warehouse, error) {
	if err := s.warehouses.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, ErrWarehouseNotFound) {
			return nil, apperr.Wrap("inventory.SetWarehouseActive", apperr.CodeNotFound, err, id)
		}
		return nil, err
	}
	return s.GetWarehouse(ctx, id)
}

func (s *service) ReceiveStock(ctx context.Context, warehouseID string, req ReceiveStockRequest) (StockLevel, error) {
	const op = "inventory.ReceiveStock"
	sku := strings.TrimSpace(req.SKU)
	if sku == "" {
		return StockLevel{}, apperr.InvalidInput(op, "sku is required")
	}
	if req.Quantity <= 0 {
		return StockLevel{}, apperr.InvalidInput(op, "quantity for %s must be positive", sku)
	}
	w, err := s.GetWarehouse(ctx, warehouseID)
	if err != nil {
		return StockLevel{}, err
	}
	lvl, err := s.ledger.Receive(ctx, w.ID, sku, req.Quantity)
	if err != nil {
		return StockLevel{}, err
	}
	s.logger.Info("stock received",
		zap.String("warehouse_code", w.Code),
		zap.String("sku", sku),
		zap.Int("quantity", req.Quantity),
		zap.Int("on_hand", lvl.OnHand),
	)
	return lvl, nil
}

func (s *service) GetStockLevel(ctx context.Context, warehouseID, sku string) (StockLevel, error) {
	w, err := s.GetWarehouse(ctx, warehouseID)
	if err != nil {
		return StockLevel{}, err
	}
	return s.ledger.Level(ctx, w.ID, strings.TrimSpace(sku))
}
