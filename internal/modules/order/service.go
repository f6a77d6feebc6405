package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/georgemunganga/fulfillment-engine/internal/modules/sla"
	"github.com/georgemunganga/fulfillment-engine/internal/platform/apperr"
	"github.com/georgemunganga/fulfillment-engine/internal/platform/observability"
)

// NumberSource hands out human-readable order numbers.
type NumberSource interface {
	NextOrderNumber(ctx context.Context) (string, error)
}

// Service defines the shipment order business logic.
type Service interface {
	// CreateOrder validates the request and persists the order in CREATED.
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error)

	// GetOrder retrieves a full order with its items by UUID.
	GetOrder(ctx context.Context, id string) (*Order, error)

	// GetOrderByNumber retrieves an order by its human-readable number.
	GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error)

	// ListOrdersByStatus returns orders in a lifecycle status.
	ListOrdersByStatus(ctx context.Context, status string) ([]*Order, error)

	// Save writes the fulfillment state of o. The move from expected to o.Status must be a
	// valid transition, and the stored order must still be in expected.
	Save(ctx context.Context, o *Order, expected Status) error
}

type service struct {
	repo    Repository
	numbers NumberSource
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a new order service.
func NewService(repo Repository, numbers NumberSource, logger *zap.Logger) Service {
	return &service{
		repo:    repo,
		numbers: numbers,
		logger:  observability.OrNop(logger).Named("order"),
		now:     time.Now,
	}
}

func (s *service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	const op = "order.CreateOrder"
	if len(req.Items) == 0 {
		return nil, apperr.InvalidInput(op, "order must contain at least one item")
	}
	if strings.TrimSpace(req.Origin.PostalCode) == "" || strings.TrimSpace(req.Destination.PostalCode) == "" {
		return nil, apperr.InvalidInput(op, "origin and destination postal codes are required")
	}
	if req.WeightKg.IsNegative() {
		return nil, apperr.InvalidInput(op, "weight_kg must not be negative")
	}

	payment := PaymentPrepaid
	if req.PaymentMode != "" {
		payment = ParsePaymentMode(req.PaymentMode)
	}
	if payment == PaymentUnknown {
		return nil, apperr.InvalidInput(op, "unknown payment_mode %q", req.PaymentMode)
	}
	cod := req.CODAmount
	switch {
	case payment == PaymentCOD && !cod.IsPositive():
		return nil, apperr.InvalidInput(op, "cod_amount must be > 0 for COD orders")
	case payment == PaymentPrepaid:
		cod = decimal.Zero
	}

	var preferred *uuid.UUID
	if req.PreferredWarehouseID != "" {
		id, err := uuid.Parse(req.PreferredWarehouseID)
		if err != nil {
			return nil, apperr.InvalidInput(op, "invalid preferred_warehouse_id: %v", err)
		}
		preferred = &id
	}

	now := s.now().UTC()
	o := &Order{
		ID:                   uuid.New(),
		Origin:               req.Origin,
		Destination:          req.Destination,
		WeightKg:             req.WeightKg,
		PaymentMode:          payment,
		CODAmount:            cod,
		ServiceTier:          sla.ParseTier(req.ServiceTier),
		PreferredWarehouseID: preferred,
		Status:               StatusCreated,
		PlacedAt:             now,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if req.PlacedAt != nil {
		o.PlacedAt = req.PlacedAt.UTC()
	}

	// ── Build items, merging repeated SKUs into one line ─────────────────────
	lines := make(map[string]*Item, len(req.Items))
	for _, ri := range req.Items {
		sku := strings.TrimSpace(ri.SKU)
		if sku == "" {
			return nil, apperr.InvalidInput(op, "sku is required")
		}
		if ri.Quantity <= 0 {
			return nil, apperr.InvalidInput(op, "quantity must be > 0 for sku %s", sku)
		}
		if it, ok := lines[sku]; ok {
			it.Quantity += ri.Quantity
			continue
		}
		it := &Item{ID: uuid.New(), OrderID: o.ID, SKU: sku, Quantity: ri.Quantity}
		lines[sku] = it
		o.Items = append(o.Items, it)
	}

	number, err := s.numbers.NextOrderNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate order number: %w", err)
	}
	o.OrderNumber = number

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}
	s.logger.Info("order created",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.Int("lines", len(o.Items)),
	)
	return o, nil
}

func (s *service) GetOrder(ctx context.Context, id string) (*Order, error) {
	o, err := s.repo.GetOrderByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.Wrap("order.GetOrder", apperr.CodeNotFound, err, id)
	}
	return o, err
}

func (s *service) GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	o, err := s.repo.GetOrderByNumber(ctx, orderNumber)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.Wrap("order.GetOrderByNumber", apperr.CodeNotFound, err, orderNumber)
	}
	return o, err
}

func (s *service) ListOrdersByStatus(ctx context.Context, status string) ([]*Order, error) {
	st := ParseStatus(status)
	if st == StatusUnknown {
		return nil, apperr.InvalidInput("order.ListOrdersByStatus", "unknown status %q", status)
	}
	return s.repo.ListOrdersByStatus(ctx, st)
}

func (s *service) Save(ctx context.Context, o *Order, expected Status) error {
	const op = "order.Save"
	if o.Status != expected && !CanTransition(expected, o.Status) {
		return apperr.New(op, apperr.CodeInvalidState, "cannot transition from %s to %s", expected, o.Status)
	}
	for _, it := range o.Items {
		if it.AllocatedQty < 0 || it.AllocatedQty > it.Quantity {
			return apperr.Invariant(op, "sku %s allocated %d of %d", it.SKU, it.AllocatedQty, it.Quantity)
		}
	}
	err := s.repo.UpdateFulfillment(ctx, o, expected)
	switch {
	case errors.Is(err, ErrStatusConflict):
		return apperr.Wrap(op, apperr.CodeInvalidState, err, o.ID.String())
	case errors.Is(err, ErrNotFound):
		return apperr.Wrap(op, apperr.CodeNotFound, err, o.ID.String())
	case err != nil:
		return fmt.Errorf("failed to update order: %w", err)
	}
	if o.Status != expected {
		s.logger.Info("order status changed",
			zap.String("order_id", o.ID.String()),
			zap.String("from", string(expected)),
			zap.String("to", string(o.Status)),
		)
	}
	return nil
}
