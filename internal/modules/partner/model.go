package partner

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Capabilities are the service features a partner supports.
type Capabilities struct {
	COD           bool `json:"cod"`
	ReversePickup bool `json:"reverse_pickup"`
	Hyperlocal    bool `json:"hyperlocal"`
}

// Partner is a third-party logistics carrier.
type Partner struct {
	ID           uuid.UUID    `json:"id"`
	Code         string       `json:"code"`
	Name         string       `json:"name"`
	Capabilities Capabilities `json:"capabilities"`
	Reliability  float64      `json:"reliability"` // rolling on-time rate, 0..1
	IsActive     bool         `json:"is_active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// CODCharge is the cash-on-delivery fee formula: max(flat, amount * percent / 100).
type CODCharge struct {
	Flat    decimal.Decimal `json:"flat"`
	Percent decimal.Decimal `json:"percent"`
}

var hundred = decimal.NewFromInt(100)

// For returns the fee charged on a COD amount.
func (c CODCharge) For(amount decimal.Decimal) decimal.Decimal {
	pct := amount.Mul(c.Percent).Div(hundred)
	return decimal.Max(c.Flat, pct)
}

// Serviceability is a partner's rate card for one exact postal-code pair.
type Serviceability struct {
	ID                    uuid.UUID       `json:"id"`
	PartnerID             uuid.UUID       `json:"partner_id"`
	OriginPostalCode      string          `json:"origin_postal_code"`
	DestinationPostalCode string          `json:"destination_postal_code"`
	BaseRate              decimal.Decimal `json:"base_rate"`
	RatePerKg             decimal.Decimal `json:"rate_per_kg"`
	COD                   CODCharge       `json:"cod"`
	TransitDays           int             `json:"transit_days"`
	CreatedAt             time.Time       `json:"created_at"`
}

// Quote prices a shipment against this rate card. codAmount is ignored for prepaid shipments.
func (s Serviceability) Quote(weightKg decimal.Decimal, cod bool, codAmount decimal.Decimal) decimal.Decimal {
	rate := s.BaseRate.Add(s.RatePerKg.Mul(weightKg))
	if cod {
		rate = rate.Add(s.COD.For(codAmount))
	}
	return rate.Round(2)
}

// Candidate pairs a partner with its serviceability row for the requested lane.
type Candidate struct {
	Partner        *Partner        `json:"partner"`
	Serviceability *Serviceability `json:"serviceability"`
}

// Requirements are the shipment properties a partner must support.
type Requirements struct {
	COD           bool            `json:"cod"`
	CODAmount     decimal.Decimal `json:"cod_amount"`
	ReversePickup bool            `json:"reverse_pickup"`
	Hyperlocal    bool            `json:"hyperlocal"`
}

// Weights are the client's relative preferences. They are normalised by their sum.
type Weights struct {
	Cost        float64 `json:"cost"`
	Speed       float64 `json:"speed"`
	Reliability float64 `json:"reliability"`
}

// DefaultWeights apply when the supplied weights do not sum to a positive value.
var DefaultWeights = Weights{Cost: 0.4, Speed: 0.3, Reliability: 0.3}

// Scored is one ranked candidate.
type Scored struct {
	PartnerID        uuid.UUID       `json:"partner_id"`
	PartnerCode      string          `json:"partner_code"`
	PartnerName      string          `json:"partner_name"`
	QuotedRate       decimal.Decimal `json:"quoted_rate"`
	TransitDays      int             `json:"transit_days"`
	CostScore        float64         `json:"cost_score"`
	SpeedScore       float64         `json:"speed_score"`
	ReliabilityScore float64         `json:"reliability_score"`
	FinalScore       float64         `json:"final_score"`
}

// Exclusion records why a candidate was not scored.
type Exclusion struct {
	PartnerCode string `json:"partner_code"`
	Reason      string `json:"reason"`
}

// Ranking is the scorer's output; Ranked is best first.
type Ranking struct {
	Best     Scored      `json:"best"`
	Ranked   []Scored    `json:"ranked"`
	Excluded []Exclusion `json:"excluded,omitempty"`
	Weights  Weights     `json:"weights"`
}

// ── Requests ─────────────────────────────────────────────────────────────────

// RegisterRequest is the payload for onboarding a partner.
type RegisterRequest struct {
	Code         string       `json:"code"`
	Name         string       `json:"name"`
	Capabilities Capabilities `json:"capabilities"`
	Reliability  *float64     `json:"reliability,omitempty"`
}

// ServiceabilityRequest adds or replaces a lane rate card.
type ServiceabilityRequest struct {
	OriginPostalCode      string          `json:"origin_postal_code"`
	DestinationPostalCode string          `json:"destination_postal_code"`
	BaseRate              decimal.Decimal `json:"base_rate"`
	RatePerKg             decimal.Decimal `json:"rate_per_kg"`
	CODFlat               decimal.Decimal `json:"cod_flat"`
	CODPercent            decimal.Decimal `json:"cod_percent"`
	TransitDays           int             `json:"transit_days"`
}

// DeliveryStats feed the rolling reliability figure.
type DeliveryStats struct {
	Delivered int `json:"delivered"`
	OnTime    int `json:"on_time"`
	NDR       int `json:"ndr"` // non-delivery reports
}
