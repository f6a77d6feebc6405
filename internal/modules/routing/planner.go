package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/fulfillment-engine/internal/modules/partner"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/zone"
	"github.com/georgemunganga/fulfillment-engine/internal/platform/apperr"
	"github.com/georgemunganga/fulfillment-engine/internal/platform/observability"
)

// ErrNoPartner is returned when neither the fleet nor any partner covers the destination.
var ErrNoPartner = &apperr.Error{Op: "routing.Plan", Code: apperr.CodeNoPartner, Message: "no fleet or partner covers destination"}

// PartnerDirectory is the subset of the partner service the planner needs.
type PartnerDirectory interface {
	GetPartner(ctx context.Context, id string) (*partner.Partner, error)
	Recommend(ctx context.Context, shipment partner.Shipment) (*partner.Recommendation, error)
}

// PlannerOptions configures a Planner.
type PlannerOptions struct {
	Classifier *zone.Classifier
	// PreferHybrid tries a fleet-plus-partner journey before a direct partner.
	PreferHybrid bool
	Logger       *zap.Logger
	Clock        func() time.Time
}

// Planner builds journey plans. It is stateless between calls.
type Planner struct {
	partners     PartnerDirectory
	fleet        FleetCoverage
	classifier   *zone.Classifier
	preferHybrid bool
	logger       *zap.Logger
	now          func() time.Time
}

func NewPlanner(partners PartnerDirectory, fleet FleetCoverage, opts PlannerOptions) *Planner {
	if fleet == nil {
		fleet = NoFleet{}
	}
	classifier := opts.Classifier
	if classifier == nil {
		classifier = zone.NewClassifier(zone.Options{})
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Planner{
		partners:     partners,
		fleet:        fleet,
		classifier:   classifier,
		preferHybrid: opts.PreferHybrid,
		logger:       observability.OrNop(opts.Logger).Named("planner"),
		now:          now,
	}
}

// Plan chooses the fulfillment mode and builds the legs.
//
// Precedence: manual partner override, own fleet for a fully covered LOCAL or ZONAL
// route, best direct partner, hybrid through a handoff hub, own fleet on any fully
// covered route. Anything else is ErrNoPartner.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) (*Plan, error) {
	class := p.classifier.Classify(req.Origin, req.Destination)
	plan := &Plan{
		ID:         uuid.New(),
		OrderID:    req.OrderID,
		RouteClass: class,
		Status:     PlanActive,
		CreatedAt:  p.now().UTC(),
	}

	if req.PartnerOverride != nil {
		if err := p.overridePlan(ctx, plan, req); err != nil {
			return nil, err
		}
		return p.finish(plan)
	}

	cov, err := p.fleet.Coverage(ctx, req.Origin, req.Destination)
	if err != nil {
		return nil, fmt.Errorf("fleet coverage: %w", err)
	}

	if cov.Full && (class == zone.RouteLocal || class == zone.RouteZonal) {
		p.ownFleetPlan(plan, cov, "own fleet covers "+string(class)+" route")
		return p.finish(plan)
	}

	attempts := []func() (bool, error){
		func() (bool, error) { return p.directPlan(ctx, plan, req) },
		func() (bool, error) { return p.hybridPlan(ctx, plan, req, cov) },
	}
	if p.preferHybrid {
		attempts[0], attempts[1] = attempts[1], attempts[0]
	}
	for _, attempt := range attempts {
		ok, err := attempt()
		if err != nil {
			return nil, err
		}
		if ok {
			return p.finish(plan)
		}
	}

	if cov.Full {
		p.ownFleetPlan(plan, cov, "no partner serves lane; own fleet fallback")
		return p.finish(plan)
	}

	p.logger.Info("no partner for destination",
		zap.String("order_id", req.OrderID.String()),
		zap.String("destination", req.Destination.PostalCode),
		zap.String("route_class", string(class)),
	)
	return nil, ErrNoPartner
}

func (p *Planner) overridePlan(ctx context.Context, plan *Plan, req PlanRequest) error {
	pt, err := p.partners.GetPartner(ctx, req.PartnerOverride.String())
	if err != nil {
		return err
	}
	if !pt.IsActive {
		return apperr.InvalidInput("routing.Plan", "partner %s is inactive", pt.Code)
	}
	id := pt.ID
	plan.Mode = ModePartner
	plan.Reason = "manual assignment to " + pt.Code
	plan.Legs = []Leg{{
		Index:       0,
		From:        req.Origin.PostalCode,
		To:          req.Destination.PostalCode,
		Mode:        ModePartner,
		PartnerID:   &id,
		PartnerCode: pt.Code,
	}}
	return nil
}

func (p *Planner) ownFleetPlan(plan *Plan, cov Coverage, reason string) {
	plan.Mode = ModeOwnFleet
	plan.Reason = reason
	plan.Legs = []Leg{{
		Index: 0,
		From:  cov.OriginHub.Code,
		To:    cov.DestinationHub.Code,
		Mode:  ModeOwnFleet,
	}}
}

func (p *Planner) directPlan(ctx context.Context, plan *Plan, req PlanRequest) (bool, error) {
	rec, err := p.partners.Recommend(ctx, req.shipment(req.Origin))
	if err != nil {
		return false, fmt.Errorf("recommend partner: %w", err)
	}
	if !rec.Found {
		return false, nil
	}
	plan.Mode = ModePartner
	plan.Reason = fmt.Sprintf("best of %d partners for lane", len(rec.Ranking.Ranked))
	plan.Legs = []Leg{partnerLeg(0, req.Origin.PostalCode, req.Destination.PostalCode, rec.Ranking.Best)}
	return true, nil
}

func (p *Planner) hybridPlan(ctx context.Context, plan *Plan, req PlanRequest, cov Coverage) (bool, error) {
	if cov.Full || cov.OriginHub == nil || cov.Handoff == nil {
		return false, nil
	}
	rec, err := p.partners.Recommend(ctx, req.shipment(cov.Handoff.Endpoint()))
	if err != nil {
		return false, fmt.Errorf("recommend partner from handoff: %w", err)
	}
	if !rec.Found {
		return false, nil
	}
	plan.Mode = ModeHybrid
	plan.Reason = "own fleet to " + cov.Handoff.Code + ", partner " + rec.Ranking.Best.PartnerCode + " onward"
	plan.Legs = []Leg{
		{Index: 0, From: cov.OriginHub.Code, To: cov.Handoff.Code, Mode: ModeOwnFleet},
		partnerLeg(1, cov.Handoff.Code, req.Destination.PostalCode, rec.Ranking.Best),
	}
	return true, nil
}

func partnerLeg(index int, from, to string, s partner.Scored) Leg {
	id, rate := s.PartnerID, s.QuotedRate
	return Leg{
		Index:       index,
		From:        from,
		To:          to,
		Mode:        ModePartner,
		PartnerID:   &id,
		PartnerCode: s.PartnerCode,
		QuotedRate:  &rate,
		Score:       s.FinalScore,
	}
}

func (p *Planner) finish(plan *Plan) (*Plan, error) {
	if err := ValidateLegs(plan.Legs); err != nil {
		return nil, err
	}
	p.logger.Debug("journey planned",
		zap.String("order_id", plan.OrderID.String()),
		zap.String("mode", string(plan.Mode)),
		zap.Int("legs", len(plan.Legs)),
	)
	return plan, nil
}

var errEmptyPlan = errors.New("plan has no legs")

// ValidateLegs checks leg indices are contiguous from zero, consecutive legs connect, and
// partner fields agree with each leg's mode.
func ValidateLegs(legs []Leg) error {
	const op = "routing.ValidateLegs"
	if len(legs) == 0 {
		return apperr.Wrap(op, apperr.CodeInvariant, errEmptyPlan, "invalid journey")
	}
	for i, l := range legs {
		if l.Index != i {
			return apperr.Invariant(op, "leg %d has index %d", i, l.Index)
		}
		if l.From == "" || l.To == "" {
			return apperr.Invariant(op, "leg %d is missing an endpoint", i)
		}
		switch l.Mode {
		case ModePartner:
			if l.PartnerID == nil {
				return apperr.Invariant(op, "partner leg %d has no partner", i)
			}
		case ModeOwnFleet:
			if l.PartnerID != nil {
				return apperr.Invariant(op, "own fleet leg %d carries a partner", i)
			}
		default:
			return apperr.Invariant(op, "leg %d has mode %q", i, l.Mode)
		}
		if i+1 < len(legs) && l.To != legs[i+1].From {
			return apperr.Invariant(op, "leg %d ends at %s but leg %d starts at %s", i, l.To, i+1, legs[i+1].From)
		}
	}
	return nil
}
