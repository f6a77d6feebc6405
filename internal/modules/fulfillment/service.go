package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/fulfillment-engine/internal/modules/allocation"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/order"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/partner"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/routing"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/sla"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/zone"
	"github.com/georgemunganga/fulfillment-engine/internal/platform/apperr"
	"github.com/georgemunganga/fulfillment-engine/internal/platform/observability"
)

// Service is the decision core's outer surface.
type Service interface {
	// PlanFulfillment returns a dry-run journey for o. routing.ErrNoPartner when nothing covers it.
	PlanFulfillment(ctx context.Context, o *order.Order) (*routing.Plan, error)

	// PlanOrder loads a stored order and plans it without persisting anything.
	PlanOrder(ctx context.Context, orderID string) (*routing.Plan, error)

	// AllocateInventory reserves stock for an ad-hoc request. The caller owns the reservations.
	AllocateInventory(ctx context.Context, req allocation.Request) (*allocation.Result, error)

	// ComputeSLA returns the delivery commitment for a tier and route class.
	ComputeSLA(ctx context.Context, tier sla.Tier, class zone.RouteClass, placedAt time.Time) (sla.Commitment, error)

	// ClassifyRoute returns the route class of origin → destination.
	ClassifyRoute(origin, destination zone.Endpoint) zone.RouteClass

	// Fulfill runs plan, allocation, SLA, status transition and AWB assignment for one order.
	//
	// Only the outstanding quantity of each item (quantity − allocated) is requested from the
	// allocation engine, and the new allocated quantities are persisted with the order. Running
	// Fulfill again on a PARTIALLY_ALLOCATED order therefore never double-reserves. An order
	// that is already ALLOCATED or AWB_GENERATED gets its stored decision back with Replayed set.
	Fulfill(ctx context.Context, orderID string) (*Decision, error)

	// AssignPartner pins an order to a partner. It is the only way out of NO_PARTNER_FAILURE.
	// If the order cannot be saved the new plan is retired and the previous one restored.
	AssignPartner(ctx context.Context, orderID string, req AssignPartnerRequest) (*routing.Plan, error)

	// MarkDispatched records the hand-over to the carrier. The order is immutable afterwards.
	MarkDispatched(ctx context.Context, orderID string) (*order.Order, error)

	// GetDecision returns the latest decision recorded for an order.
	GetDecision(ctx context.Context, orderID string) (*Decision, error)
}

// OrderStore is the subset of the order service the orchestrator drives.
type OrderStore interface {
	GetOrder(ctx context.Context, id string) (*order.Order, error)
	Save(ctx context.Context, o *order.Order, expected order.Status) error
}

// Router is the subset of the routing service the orchestrator needs.
type Router interface {
	Plan(ctx context.Context, req routing.PlanRequest) (*routing.Plan, error)
	CreatePlan(ctx context.Context, req routing.PlanRequest) (*routing.Plan, error)
	GetPlanByOrderID(ctx context.Context, orderID string) (*routing.Plan, error)
	AssignPartner(ctx context.Context, req routing.PlanRequest, reason string) (*routing.Plan, error)
	RevertPlan(ctx context.Context, plan *routing.Plan, previous *uuid.UUID) error
}

// Allocator reserves and releases stock.
type Allocator interface {
	Allocate(ctx context.Context, req allocation.Request) (*allocation.Result, error)
	Release(ctx context.Context, r *allocation.Result) error
}

// SLACalculator computes delivery commitments.
type SLACalculator interface {
	ComputeSLA(ctx context.Context, tier sla.Tier, class zone.RouteClass, placedAt time.Time) (sla.Commitment, error)
}

// AWBSource hands out air waybill numbers.
type AWBSource interface {
	NextAWB(ctx context.Context) (string, error)
}

// Deps wires the orchestrator. Publisher, Metrics, Classifier, Logger and Clock are optional.
type Deps struct {
	Orders     OrderStore
	Routing    Router
	Allocator  Allocator
	SLA        SLACalculator
	AWB        AWBSource
	Decisions  DecisionRepository
	Publisher  Publisher
	Metrics    *Metrics
	Classifier *zone.Classifier
	// Allocation is the hop and split policy applied to every order.
	Allocation allocation.Config
	Logger     *zap.Logger
	Clock      func() time.Time
}

type service struct {
	orders     OrderStore
	routing    Router
	allocator  Allocator
	sla        SLACalculator
	awb        AWBSource
	decisions  DecisionRepository
	publisher  Publisher
	metrics    *Metrics
	classifier *zone.Classifier
	allocCfg   allocation.Config
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(deps Deps) Service {
	s := &service{
		orders:     deps.Orders,
		routing:    deps.Routing,
		allocator:  deps.Allocator,
		sla:        deps.SLA,
		awb:        deps.AWB,
		decisions:  deps.Decisions,
		publisher:  deps.Publisher,
		metrics:    deps.Metrics,
		classifier: deps.Classifier,
		allocCfg:   deps.Allocation,
		logger:     observability.OrNop(deps.Logger).Named("fulfillment"),
		now:        deps.Clock,
	}
	if s.publisher == nil {
		s.publisher = NopPublisher{}
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	if s.classifier == nil {
		s.classifier = zone.NewClassifier(zone.Options{})
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) PlanFulfillment(ctx context.Context, o *order.Order) (*routing.Plan, error) {
	return s.routing.Plan(ctx, planRequest(o, o.PartnerOverrideID))
}

func (s *service) PlanOrder(ctx context.Context, orderID string) (*routing.Plan, error) {
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.PlanFulfillment(ctx, o)
}

func (s *service) AllocateInventory(ctx context.Context, req allocation.Request) (*allocation.Result, error) {
	return s.allocator.Allocate(ctx, req)
}

func (s *service) ComputeSLA(ctx context.Context, tier sla.Tier, class zone.RouteClass, placedAt time.Time) (sla.Commitment, error) {
	return s.sla.ComputeSLA(ctx, tier, class, placedAt)
}

func (s *service) ClassifyRoute(origin, destination zone.Endpoint) zone.RouteClass {
	return s.classifier.Classify(origin, destination)
}

func (s *service) Fulfill(ctx context.Context, orderID string) (*Decision, error) {
	const op = "fulfillment.Fulfill"
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch o.Status {
	case order.StatusCreated, order.StatusPartiallyAllocated:
	case order.StatusAWBGenerated, order.StatusAllocated:
		return s.replay(ctx, o)
	case order.StatusNoPartnerFailure:
		return nil, apperr.New(op, apperr.CodeInvalidState, "order %s has no partner; assign one first", o.OrderNumber)
	case order.StatusDispatched:
		return nil, apperr.New(op, apperr.CodeInvalidState, "order %s is already dispatched", o.OrderNumber)
	default:
		return nil, apperr.New(op, apperr.CodeInvalidState, "order %s has unknown status %s", o.OrderNumber, o.Status)
	}
	expected := o.Status

	// ── Journey ──────────────────────────────────────────────────────────────
	plan, err := s.journey(ctx, o)
	if apperr.Is(err, apperr.CodeNoPartner) {
		return s.noPartner(ctx, o, expected, err)
	}
	if err != nil {
		return nil, err
	}

	// ── Inventory ────────────────────────────────────────────────────────────
	result, err := s.allocateOutstanding(ctx, o)
	if err != nil {
		if result != nil && result.Shortfall() < requested(result) {
			s.keepPartial(ctx, o, expected, plan, result)
		}
		return nil, err
	}
	applyAllocation(o, result)

	// ── Commitment and status ────────────────────────────────────────────────
	commitment, err := s.sla.ComputeSLA(ctx, o.ServiceTier, plan.RouteClass, o.PlacedAt)
	if err != nil {
		s.release(ctx, result)
		return nil, err
	}

	if o.Outstanding() == 0 {
		o.Status = order.StatusAWBGenerated
		if expected == order.StatusPartiallyAllocated {
			o.Status = order.StatusAllocated
		}
		awb, err := s.awb.NextAWB(ctx)
		if err != nil {
			s.release(ctx, result)
			return nil, fmt.Errorf("generate awb: %w", err)
		}
		o.AWB = awb
	} else {
		o.Status = order.StatusPartiallyAllocated
	}
	attachPlan(o, plan)

	if err := s.orders.Save(ctx, o, expected); err != nil {
		s.release(ctx, result)
		return nil, err
	}

	d := &Decision{
		ID:          uuid.New(),
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		Mode:        plan.Mode,
		RouteClass:  plan.RouteClass,
		Plan:        plan,
		PartnerID:   plan.PartnerID(),
		Allocation:  result,
		SLA:         &commitment,
		AWB:         o.AWB,
		Reason:      plan.Reason,
		CreatedAt:   s.now().UTC(),
	}
	if o.Status == order.StatusPartiallyAllocated {
		d.Reason = fmt.Sprintf("short by %d units", o.Outstanding())
	}
	s.record(ctx, d)
	return d, nil
}

func (s *service) AssignPartner(ctx context.Context, orderID string, req AssignPartnerRequest) (*routing.Plan, error) {
	const op = "fulfillment.AssignPartner"
	pid, err := uuid.Parse(strings.TrimSpace(req.PartnerID))
	if err != nil {
		return nil, apperr.InvalidInput(op, "invalid partner_id: %v", err)
	}
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status == order.StatusDispatched {
		return nil, apperr.New(op, apperr.CodeInvalidState, "order %s is already dispatched", o.OrderNumber)
	}

	var previous *uuid.UUID
	switch current, err := s.routing.GetPlanByOrderID(ctx, o.ID.String()); {
	case err == nil:
		previous = &current.ID
	case !apperr.Is(err, apperr.CodeNotFound):
		return nil, err
	}

	plan, err := s.routing.AssignPartner(ctx, planRequest(o, &pid), req.Reason)
	if err != nil {
		return nil, err
	}

	expected := o.Status
	o.PartnerOverrideID = &pid
	attachPlan(o, plan)
	if expected == order.StatusNoPartnerFailure {
		o.Status = order.StatusCreated
	}
	if err := s.orders.Save(ctx, o, expected); err != nil {
		if rerr := s.routing.RevertPlan(context.WithoutCancel(ctx), plan, previous); rerr != nil {
			s.logger.Error("failed to revert partner assignment",
				zap.String("order_id", o.ID.String()), zap.String("plan_id", plan.ID.String()), zap.Error(rerr))
		}
		return nil, err
	}

	s.logger.Info("partner assigned",
		zap.String("order_id", o.ID.String()),
		zap.String("partner_id", pid.String()),
		zap.String("status", string(o.Status)),
	)
	s.publish(ctx, s.event(EventPartnerAssigned, o))
	return plan, nil
}

func (s *service) MarkDispatched(ctx context.Context, orderID string) (*order.Order, error) {
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Status.IsFulfilled() {
		return nil, apperr.New("fulfillment.MarkDispatched", apperr.CodeInvalidState,
			"order %s cannot be dispatched from %s", o.OrderNumber, o.Status)
	}
	expected := o.Status
	o.Status = order.StatusDispatched
	if err := s.orders.Save(ctx, o, expected); err != nil {
		return nil, err
	}
	s.publish(ctx, s.event(EventDispatched, o))
	return o, nil
}

func (s *service) GetDecision(ctx context.Context, orderID string) (*Decision, error) {
	d, err := s.decisions.GetLatestDecision(ctx, orderID)
	if errors.Is(err, ErrDecisionNotFound) {
		return nil, apperr.Wrap("fulfillment.GetDecision", apperr.CodeNotFound, err, orderID)
	}
	return d, err
}

// ── helpers ──────────────────────────────────────────────────────────────────

// journey reuses the plan in force for the order, so a retry keeps its partner.
func (s *service) journey(ctx context.Context, o *order.Order) (*routing.Plan, error) {
	plan, err := s.routing.GetPlanByOrderID(ctx, o.ID.String())
	switch {
	case err == nil:
		return plan, nil
	case !apperr.Is(err, apperr.CodeNotFound):
		return nil, err
	}
	return s.routing.CreatePlan(ctx, planRequest(o, o.PartnerOverrideID))
}

func (s *service) noPartner(ctx context.Context, o *order.Order, expected order.Status, cause error) (*Decision, error) {
	if !order.CanTransition(expected, order.StatusNoPartnerFailure) {
		return nil, cause
	}
	o.Status = order.StatusNoPartnerFailure
	if err := s.orders.Save(ctx, o, expected); err != nil {
		return nil, err
	}
	d := &Decision{
		ID:          uuid.New(),
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		RouteClass:  s.classifier.Classify(o.Origin, o.Destination),
		Reason:      cause.Error(),
		CreatedAt:   s.now().UTC(),
	}
	s.record(ctx, d)
	return d, nil
}

func (s *service) allocateOutstanding(ctx context.Context, o *order.Order) (*allocation.Result, error) {
	var items []allocation.Item
	for _, it := range o.Items {
		if n := it.Outstanding(); n > 0 {
			items = append(items, allocation.Item{SKU: it.SKU, Quantity: n})
		}
	}
	if len(items) == 0 {
		return &allocation.Result{Success: true}, nil
	}
	return s.allocator.Allocate(ctx, allocation.Request{
		OrderID:               o.ID.String(),
		Items:                 items,
		DestinationPostalCode: o.Destination.PostalCode,
		PreferredLocation:     o.PreferredWarehouseID,
		Config:                s.allocCfg,
	})
}

// keepPartial records reservations that were committed before the call was cut short.
func (s *service) keepPartial(ctx context.Context, o *order.Order, expected order.Status, plan *routing.Plan, r *allocation.Result) {
	ctx = context.WithoutCancel(ctx)
	applyAllocation(o, r)
	o.Status = order.StatusPartiallyAllocated
	attachPlan(o, plan)
	if err := s.orders.Save(ctx, o, expected); err != nil {
		s.logger.Warn("could not record interrupted allocation; releasing",
			zap.String("order_id", o.ID.String()), zap.Error(err))
		s.release(ctx, r)
	}
}

func (s *service) release(ctx context.Context, r *allocation.Result) {
	if err := s.allocator.Release(context.WithoutCancel(ctx), r); err != nil {
		s.logger.Error("failed to release reservations", zap.Error(err))
	}
}

// record stores, counts and announces a decision. The order is already saved, so failures
// here are logged and the decision is still returned.
func (s *service) record(ctx context.Context, d *Decision) {
	if err := s.decisions.SaveDecision(ctx, d); err != nil {
		s.logger.Error("failed to store decision", zap.String("order_id", d.OrderID.String()), zap.Error(err))
	}
	s.metrics.observe(d)
	s.logger.Info("fulfillment decided",
		zap.String("order_id", d.OrderID.String()),
		zap.String("status", string(d.Status)),
		zap.String("mode", string(d.Mode)),
		zap.String("awb", d.AWB),
	)

	e := Event{
		Type:        EventDecided,
		OrderID:     d.OrderID,
		OrderNumber: d.OrderNumber,
		Status:      d.Status,
		Mode:        d.Mode,
		PartnerID:   d.PartnerID,
		AWB:         d.AWB,
		OccurredAt:  d.CreatedAt,
	}
	if d.Allocation != nil {
		e.Shortfall = d.Allocation.Shortfall()
	}
	if d.SLA != nil {
		promised := d.SLA.PromisedDeliveryDate
		e.PromisedDeliveryDate = &promised
	}
	s.publish(ctx, e)
}

func (s *service) replay(ctx context.Context, o *order.Order) (*Decision, error) {
	d, err := s.decisions.GetLatestDecision(ctx, o.ID.String())
	switch {
	case errors.Is(err, ErrDecisionNotFound):
		d = &Decision{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			Status:      o.Status,
			Mode:        o.FulfillmentMode,
			RouteClass:  s.classifier.Classify(o.Origin, o.Destination),
			PartnerID:   o.PartnerID,
			AWB:         o.AWB,
			CreatedAt:   o.UpdatedAt,
		}
	case err != nil:
		return nil, err
	}
	d.Replayed = true
	s.metrics.replays.Inc()
	return d, nil
}

func (s *service) event(t EventType, o *order.Order) Event {
	return Event{
		Type:        t,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		Mode:        o.FulfillmentMode,
		PartnerID:   o.PartnerID,
		AWB:         o.AWB,
		Shortfall:   o.Outstanding(),
		OccurredAt:  s.now().UTC(),
	}
}

func (s *service) publish(ctx context.Context, e Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("type", string(e.Type)),
			zap.String("order_id", e.OrderID.String()),
			zap.Error(err),
		)
	}
}

func planRequest(o *order.Order, override *uuid.UUID) routing.PlanRequest {
	return routing.PlanRequest{
		OrderID:     o.ID,
		Origin:      o.Origin,
		Destination: o.Destination,
		WeightKg:    o.WeightKg,
		Requirements: partner.Requirements{
			COD:       o.IsCOD(),
			CODAmount: o.CODAmount,
		},
		PartnerOverride: override,
	}
}

func attachPlan(o *order.Order, plan *routing.Plan) {
	id := plan.ID
	o.PlanID = &id
	o.PartnerID = plan.PartnerID()
	o.FulfillmentMode = plan.Mode
}

func applyAllocation(o *order.Order, r *allocation.Result) {
	for _, it := range o.Items {
		if ir, ok := r.Item(it.SKU); ok {
			it.AllocatedQty += ir.Allocated
		}
	}
}

func requested(r *allocation.Result) int {
	n := 0
	for _, it := range r.Items {
		n += it.Requested
	}
	return n
}
