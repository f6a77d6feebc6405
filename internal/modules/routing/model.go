package routing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/fulfillment-engine/internal/modules/partner"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/zone"
)

// Mode is how a plan or a single leg is carried.
type Mode string

const (
	ModeOwnFleet Mode = "OWN_FLEET"
	ModePartner  Mode = "PARTNER"
	ModeHybrid   Mode = "HYBRID" // plan-level only: own fleet first mile, partner after handoff
)

// PlanStatus tracks whether a plan is the one in force for its order.
type PlanStatus string

const (
	PlanActive     PlanStatus = "ACTIVE"
	PlanOverridden PlanStatus = "OVERRIDDEN"
)

// Hub is a facility on the own-fleet network.
type Hub struct {
	Code       string `json:"code"`
	PostalCode string `json:"postal_code"`
	State      string `json:"state"`
}

// Endpoint returns the hub's location as a route endpoint.
func (h Hub) Endpoint() zone.Endpoint {
	return zone.Endpoint{PostalCode: h.PostalCode, State: h.State}
}

// Leg is one hop of a journey. From and To are hub codes or postal codes.
type Leg struct {
	Index       int              `json:"index"`
	From        string           `json:"from"`
	To          string           `json:"to"`
	Mode        Mode             `json:"mode"`
	PartnerID   *uuid.UUID       `json:"partner_id,omitempty"`
	PartnerCode string           `json:"partner_code,omitempty"`
	QuotedRate  *decimal.Decimal `json:"quoted_rate,omitempty"`
	Score       float64          `json:"score,omitempty"`
}

// Plan is the journey chosen for an order. It is immutable once the order is dispatched.
type Plan struct {
	ID         uuid.UUID       `json:"id"`
	OrderID    uuid.UUID       `json:"order_id"`
	Mode       Mode            `json:"mode"`
	RouteClass zone.RouteClass `json:"route_class"`
	Legs       []Leg           `json:"legs"`
	Status     PlanStatus      `json:"status"`
	Reason     string          `json:"reason"`
	CreatedAt  time.Time       `json:"created_at"`
}

// PartnerID returns the partner carrying the final leg, if any.
func (p *Plan) PartnerID() *uuid.UUID {
	for i := len(p.Legs) - 1; i >= 0; i-- {
		if p.Legs[i].PartnerID != nil {
			return p.Legs[i].PartnerID
		}
	}
	return nil
}

// PlanRequest is the input to the planner.
type PlanRequest struct {
	OrderID      uuid.UUID            `json:"order_id"`
	Origin       zone.Endpoint        `json:"origin"`
	Destination  zone.Endpoint        `json:"destination"`
	WeightKg     decimal.Decimal      `json:"weight_kg"`
	Requirements partner.Requirements `json:"requirements"`
	Weights      partner.Weights      `json:"weights"`
	// PartnerOverride pins the plan to one partner and skips scoring.
	PartnerOverride *uuid.UUID `json:"partner_override,omitempty"`
}

func (r PlanRequest) shipment(origin zone.Endpoint) partner.Shipment {
	return partner.Shipment{
		Origin:       origin,
		Destination:  r.Destination,
		WeightKg:     r.WeightKg,
		Requirements: r.Requirements,
		Weights:      r.Weights,
	}
}
