package fulfillment

import (
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/fulfillment-engine/internal/modules/allocation"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/order"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/routing"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/sla"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/zone"
)

// Decision is the outcome of one fulfillment run for an order.
type Decision struct {
	ID          uuid.UUID          `json:"id"`
	OrderID     uuid.UUID          `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	Status      order.Status       `json:"status"`
	Mode        routing.Mode       `json:"mode,omitempty"`
	RouteClass  zone.RouteClass    `json:"route_class"`
	Plan        *routing.Plan      `json:"plan,omitempty"`
	PartnerID   *uuid.UUID         `json:"partner_id,omitempty"`
	Allocation  *allocation.Result `json:"allocation,omitempty"`
	SLA         *sla.Commitment    `json:"sla,omitempty"`
	AWB         string             `json:"awb,omitempty"`
	Reason      string             `json:"reason,omitempty"`
	// Replayed is set when the decision was loaded rather than computed. It is never stored.
	Replayed  bool      `json:"replayed"`
	CreatedAt time.Time `json:"created_at"`
}

// EventType names a fulfillment event on the bus.
type EventType string

const (
	EventDecided         EventType = "fulfillment.decided"
	EventPartnerAssigned EventType = "fulfillment.partner_assigned"
	EventDispatched      EventType = "fulfillment.dispatched"
)

// Event is the message published for downstream consumers.
type Event struct {
	Type                 EventType    `json:"type"`
	OrderID              uuid.UUID    `json:"order_id"`
	OrderNumber          string       `json:"order_number"`
	Status               order.Status `json:"status"`
	Mode                 routing.Mode `json:"mode,omitempty"`
	PartnerID            *uuid.UUID   `json:"partner_id,omitempty"`
	AWB                  string       `json:"awb,omitempty"`
	Shortfall            int          `json:"shortfall"`
	PromisedDeliveryDate *time.Time   `json:"promised_delivery_date,omitempty"`
	OccurredAt           time.Time    `json:"occurred_at"`
}

// ── HTTP payloads ────────────────────────────────────────────────────────────

// PlanRequest asks for a dry-run journey plan for a stored order.
type PlanRequest struct {
	OrderID string `json:"order_id"`
}

// SLARequest asks for a delivery commitment. RouteClass wins over the endpoints when set.
type SLARequest struct {
	Tier        string         `json:"tier"`
	RouteClass  string         `json:"route_class,omitempty"`
	Origin      *zone.Endpoint `json:"origin,omitempty"`
	Destination *zone.Endpoint `json:"destination,omitempty"`
	PlacedAt    *time.Time     `json:"placed_at,omitempty"`
}

// AssignPartnerRequest pins an order to a partner.
type AssignPartnerRequest struct {
	PartnerID string `json:"partner_id"`
	Reason    string `json:"reason"`
}
