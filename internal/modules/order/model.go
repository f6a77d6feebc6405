package order

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/fulfillment-engine/internal/modules/routing"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/sla"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/zone"
)

// Status represents the fulfillment lifecycle state of a shipment order.
type Status string

const (
	StatusCreated            Status = "CREATED"
	StatusAWBGenerated       Status = "AWB_GENERATED"
	StatusPartiallyAllocated Status = "PARTIALLY_ALLOCATED"
	StatusAllocated          Status = "ALLOCATED"
	StatusNoPartnerFailure   Status = "NO_PARTNER_FAILURE"
	StatusDispatched         Status = "DISPATCHED"
	StatusUnknown            Status = "UNKNOWN"
)

// ParseStatus maps s onto the closed set, falling back to StatusUnknown.
func ParseStatus(s string) Status {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusCreated, StatusAWBGenerated, StatusPartiallyAllocated, StatusAllocated,
		StatusNoPartnerFailure, StatusDispatched:
		return st
	default:
		return StatusUnknown
	}
}

// PaymentMode is how the consignee pays.
type PaymentMode string

const (
	PaymentPrepaid PaymentMode = "PREPAID"
	PaymentCOD     PaymentMode = "COD"
	PaymentUnknown PaymentMode = "UNKNOWN"
)

// ParsePaymentMode maps s onto the closed set, falling back to PaymentUnknown.
func ParsePaymentMode(s string) PaymentMode {
	switch m := PaymentMode(strings.ToUpper(strings.TrimSpace(s))); m {
	case PaymentPrepaid, PaymentCOD:
		return m
	default:
		return PaymentUnknown
	}
}

// Order is a shipment awaiting or undergoing fulfillment. It is immutable once DISPATCHED.
type Order struct {
	ID                   uuid.UUID       `json:"id"`
	OrderNumber          string          `json:"order_number"`
	Origin               zone.Endpoint   `json:"origin"`
	Destination          zone.Endpoint   `json:"destination"`
	WeightKg             decimal.Decimal `json:"weight_kg"` // chargeable weight
	PaymentMode          PaymentMode     `json:"payment_mode"`
	CODAmount            decimal.Decimal `json:"cod_amount"`
	ServiceTier          sla.Tier        `json:"service_tier"`
	Items                []*Item         `json:"items"`
	PreferredWarehouseID *uuid.UUID      `json:"preferred_warehouse_id,omitempty"`
	PartnerOverrideID    *uuid.UUID      `json:"partner_override_id,omitempty"` // manual assignment
	Status               Status          `json:"status"`
	FulfillmentMode      routing.Mode    `json:"fulfillment_mode,omitempty"`
	PlanID               *uuid.UUID      `json:"plan_id,omitempty"`
	PartnerID            *uuid.UUID      `json:"partner_id,omitempty"`
	AWB                  string          `json:"awb,omitempty"`
	PlacedAt             time.Time       `json:"placed_at"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// IsCOD reports whether the order collects cash on delivery.
func (o *Order) IsCOD() bool { return o.PaymentMode == PaymentCOD }

// Outstanding is the total quantity still to allocate.
func (o *Order) Outstanding() int {
	n := 0
	for _, it := range o.Items {
		n += it.Outstanding()
	}
	return n
}

// Item is a single SKU line within an order.
type Item struct {
	ID           uuid.UUID `json:"id"`
	OrderID      uuid.UUID `json:"order_id"`
	SKU          string    `json:"sku"`
	Quantity     int       `json:"quantity"`
	AllocatedQty int       `json:"allocated_qty"`
}

// Outstanding is the quantity not yet reserved for this line.
func (i *Item) Outstanding() int { return i.Quantity - i.AllocatedQty }

// ItemRequest describes one requested line.
type ItemRequest struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// CreateOrderRequest is the payload for registering a shipment order.
type CreateOrderRequest struct {
	Origin               zone.Endpoint   `json:"origin"`
	Destination          zone.Endpoint   `json:"destination"`
	WeightKg             decimal.Decimal `json:"weight_kg"`
	PaymentMode          string          `json:"payment_mode"`
	CODAmount            decimal.Decimal `json:"cod_amount"`
	ServiceTier          string          `json:"service_tier"`
	Items                []ItemRequest   `json:"items"`
	PreferredWarehouseID string          `json:"preferred_warehouse_id,omitempty"`
	PlacedAt             *time.Time      `json:"placed_at,omitempty"`
}
