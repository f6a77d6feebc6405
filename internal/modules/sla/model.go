package sla

import (
	"strings"
	"time"

	"github.com/georgemunganga/fulfillment-engine/internal/modules/zone"
)

// Tier is the service tier purchased for a shipment.
type Tier string

const (
	TierExpress  Tier = "EXPRESS"
	TierStandard Tier = "STANDARD"
	TierEconomy  Tier = "ECONOMY"
	TierUnknown  Tier = "UNKNOWN"
)

// ParseTier maps s onto the closed set, falling back to TierUnknown.
func ParseTier(s string) Tier {
	switch t := Tier(strings.ToUpper(strings.TrimSpace(s))); t {
	case TierExpress, TierStandard, TierEconomy:
		return t
	default:
		return TierUnknown
	}
}

// Window is a {min, expected, max} transit estimate in business days.
type Window struct {
	Min      int `json:"min"`
	Expected int `json:"expected"`
	Max      int `json:"max"`
}

// Matrix is the turnaround-time table: tier × route class → window.
type Matrix map[Tier]map[zone.RouteClass]Window

// DefaultMatrix is used when no override record exists for a (tier, route class).
func DefaultMatrix() Matrix {
	return Matrix{
		TierExpress: {
			zone.RouteLocal:    {Min: 1, Expected: 1, Max: 1},
			zone.RouteZonal:    {Min: 1, Expected: 2, Max: 2},
			zone.RouteMetro:    {Min: 1, Expected: 2, Max: 3},
			zone.RouteNational: {Min: 2, Expected: 3, Max: 4},
		},
		TierStandard: {
			zone.RouteLocal:    {Min: 1, Expected: 2, Max: 3},
			zone.RouteZonal:    {Min: 2, Expected: 3, Max: 4},
			zone.RouteMetro:    {Min: 2, Expected: 4, Max: 5},
			zone.RouteNational: {Min: 4, Expected: 5, Max: 7},
		},
		TierEconomy: {
			zone.RouteLocal:    {Min: 2, Expected: 3, Max: 4},
			zone.RouteZonal:    {Min: 3, Expected: 5, Max: 6},
			zone.RouteMetro:    {Min: 4, Expected: 6, Max: 8},
			zone.RouteNational: {Min: 5, Expected: 8, Max: 10},
		},
	}
}

// Override is a stored TAT record that replaces the default matrix for one cell.
type Override struct {
	Tier          Tier            `json:"tier"`
	RouteClass    zone.RouteClass `json:"route_class"`
	Window        Window          `json:"window"`
	SLAPercentage float64         `json:"sla_percentage,omitempty"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Source tells where a commitment's transit figures came from.
type Source string

const (
	SourceDefault  Source = "DEFAULT"
	SourceOverride Source = "OVERRIDE"
)

// Commitment is the delivery promise returned to callers.
type Commitment struct {
	Tier                 Tier            `json:"tier"`
	RouteClass           zone.RouteClass `json:"route_class"`
	OrderPlacedAt        time.Time       `json:"order_placed_at"`
	PromisedDeliveryDate time.Time       `json:"promised_delivery_date"`
	TransitDays          int             `json:"transit_days"`
	MinDays              int             `json:"min_days"`
	MaxDays              int             `json:"max_days"`
	SLAPercentage        float64         `json:"sla_percentage"`
	Source               Source          `json:"source"`
}
