package fulfillment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/fulfillment-engine/internal/modules/allocation"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/inventory"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/order"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/partner"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/routing"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/sequence"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/sla"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/zone"
	"github.com/georgemunganga/fulfillment-engine/internal/platform/apperr"
)

var (
	bengaluru = zone.Endpoint{PostalCode: "560001", State: "Karnataka"}
	mumbai    = zone.Endpoint{PostalCode: "400001", State: "Maharashtra"}
	delhi     = zone.Endpoint{PostalCode: "110001", State: "Delhi"}
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	t         *testing.T
	svc       Service
	orders    order.Service
	partners  partner.Service
	routes    routing.Service
	ledger    *inventory.MemoryLedger
	warehouse *inventory.Warehouse
	publisher *recordingPublisher
	metrics   *Metrics
}

type fixtureOptions struct {
	wrapOrders    func(OrderStore) OrderStore
	wrapAllocator func(Allocator) Allocator
}

func newFixture(t *testing.T, opts fixtureOptions) *fixture {
	t.Helper()
	ctx := context.Background()
	clock := func() time.Time { return time.Date(2026, time.October, 17, 10, 0, 0, 0, time.UTC) }

	gen := sequence.NewGenerator(sequence.NewMemoryCounter(), sequence.Options{AWBPrefix: "FX", Clock: clock})
	orders := order.NewService(order.NewMemoryRepository(), gen, nil)

	partners := partner.NewService(partner.NewMemoryRepository(), partner.Options{})
	p, err := partners.Register(ctx, partner.RegisterRequest{Code: "swift", Name: "Swift", Capabilities: partner.Capabilities{COD: true}})
	require.NoError(t, err)
	_, err = partners.AddServiceability(ctx, p.ID.String(), partner.ServiceabilityRequest{
		OriginPostalCode:      bengaluru.PostalCode,
		DestinationPostalCode: mumbai.PostalCode,
		BaseRate:              decimal.NewFromInt(50),
		TransitDays:           2,
	})
	require.NoError(t, err)

	routes := routing.NewService(routing.NewMemoryRepository(),
		routing.NewPlanner(partners, routing.NoFleet{}, routing.PlannerOptions{Clock: clock}), nil)

	warehouses := inventory.NewMemoryWarehouseRepository()
	ledger := inventory.NewMemoryLedger()
	w := &inventory.Warehouse{ID: uuid.New(), Code: "BOM-1", PostalCode: "400070", State: "Maharashtra", IsActive: true}
	require.NoError(t, warehouses.CreateWarehouse(ctx, w))

	var store OrderStore = orders
	if opts.wrapOrders != nil {
		store = opts.wrapOrders(orders)
	}
	var allocator Allocator = allocation.NewEngine(warehouses, ledger, allocation.Options{})
	if opts.wrapAllocator != nil {
		allocator = opts.wrapAllocator(allocator)
	}
	pub := &recordingPublisher{}
	metrics := NewMetrics(prometheus.NewRegistry())

	svc := NewService(Deps{
		Orders:     store,
		Routing:    routes,
		Allocator:  allocator,
		SLA:        sla.NewCalculator(sla.Options{}),
		AWB:        gen,
		Decisions:  NewMemoryDecisionRepository(),
		Publisher:  pub,
		Metrics:    metrics,
		Allocation: allocation.Config{EnableHopping: true, MaxHops: 2, SplitAllowed: true},
		Clock:      clock,
	})
	return &fixture{t: t, svc: svc, orders: orders, partners: partners, routes: routes, ledger: ledger, warehouse: w, publisher: pub, metrics: metrics}
}

func (f *fixture) stock(sku string, qty int) {
	f.t.Helper()
	_, err := f.ledger.Receive(context.Background(), f.warehouse.ID, sku, qty)
	require.NoError(f.t, err)
}

func (f *fixture) reserved(sku string) int {
	f.t.Helper()
	lvl, err := f.ledger.Level(context.Background(), f.warehouse.ID, sku)
	require.NoError(f.t, err)
	return lvl.Reserved
}

func (f *fixture) order(dest zone.Endpoint, qty int) *order.Order {
	f.t.Helper()
	placed := time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC) // Friday
	o, err := f.orders.CreateOrder(context.Background(), order.CreateOrderRequest{
		Origin:      bengaluru,
		Destination: dest,
		WeightKg:    decimal.NewFromInt(1),
		ServiceTier: "STANDARD",
		Items:       []order.ItemRequest{{SKU: "SKU-1", Quantity: qty}},
		PlacedAt:    &placed,
	})
	require.NoError(f.t, err)
	return o
}

func TestFulfill_CompleteAllocationGeneratesAWB(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	f.stock("SKU-1", 3)
	o := f.order(mumbai, 2)
	ctx := context.Background()

	d, err := f.svc.Fulfill(ctx, o.ID.String())
	require.NoError(t, err)

	assert.Equal(t, order.StatusAWBGenerated, d.Status)
	assert.Equal(t, "FX2026101700000001", d.AWB)
	assert.Equal(t, routing.ModePartner, d.Mode)
	assert.Equal(t, zone.RouteMetro, d.RouteClass)
	require.NotNil(t, d.SLA)
	assert.False(t, d.SLA.PromisedDeliveryDate.Before(o.PlacedAt))
	assert.True(t, d.Allocation.Success)
	assert.False(t, d.Replayed)
	assert.Equal(t, 2, f.reserved("SKU-1"))

	stored, err := f.orders.GetOrder(ctx, o.ID.String())
	require.NoError(t, err)
	assert.Equal(t, order.StatusAWBGenerated, stored.Status)
	assert.Equal(t, d.AWB, stored.AWB)
	assert.Equal(t, 2, stored.Items[0].AllocatedQty)
	require.NotNil(t, stored.PlanID)
	assert.Equal(t, d.Plan.ID, *stored.PlanID)

	assert.Equal(t, []EventType{EventDecided}, f.publisher.types())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.decisions.WithLabelValues(string(order.StatusAWBGenerated))))
}

func TestFulfill_RerunReplaysStoredDecision(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	f.stock("SKU-1", 3)
	o := f.order(mumbai, 2)
	ctx := context.Background()

	first, err := f.svc.Fulfill(ctx, o.ID.String())
	require.NoError(t, err)
	again, err := f.svc.Fulfill(ctx, o.ID.String())
	require.NoError(t, err)

	assert.True(t, again.Replayed)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, first.AWB, again.AWB)
	assert.Equal(t, 2, f.reserved("SKU-1"), "replay must not reserve again")
	assert.Len(t, f.publisher.types(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.replays))
}

func TestFulfill_ShortfallThenTopUpRequestsOnlyTheDelta(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	f.stock("SKU-1", 3)
	o := f.order(mumbai, 5)
	ctx := context.Background()

	d, err := f.svc.Fulfill(ctx, o.ID.String())
	require.NoError(t, err)
	assert.Equal(t, order.StatusPartiallyAllocated, d.Status)
	assert.Empty(t, d.AWB)
	assert.Equal(t, 2, d.Allocation.Shortfall())
	assert.Equal(t, "short by 2 units", d.Reason)
	assert.Equal(t, 3, f.reserved("SKU-1"))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.shortfall))

	f.stock("SKU-1", 4)
	d2, err := f.svc.Fulfill(ctx, o.ID.String())
	require.NoError(t, err)
	assert.Equal(t, order.StatusAllocated, d2.Status)
	assert.NotEmpty(t, d2.AWB)
	item, ok := d2.Allocation.Item("SKU-1")
	require.True(t, ok)
	assert.Equal(t, 2, item.Requested, "only the outstanding quantity is requested")
	assert.Equal(t, 5, f.reserved("SKU-1"))
	assert.Equal(t, d.Plan.ID, d2.Plan.ID, "retry keeps the plan in force")

	stored, err := f.orders.GetOrder(ctx, o.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Items[0].AllocatedQty)
}

func TestFulfill_NoPartnerThenManualAssignment(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	f.stock("SKU-1", 3)
	o := f.order(delhi, 1)
	ctx := context.Background()

	d, err := f.svc.Fulfill(ctx, o.ID.String())
	require.NoError(t, err, "no partner is a typed outcome, not an error")
	assert.Equal(t, order.StatusNoPartnerFailure, d.Status)
	assert.Nil(t, d.Plan)
	assert.Equal(t, 0, f.reserved("SKU-1"))

	_, err = f.svc.Fulfill(ctx, o.ID.String())
	assert.True(t, apperr.Is(err, apperr.CodeInvalidState))

	partners, err := f.partners.ListPartners(ctx)
	require.NoError(t, err)
	require.Len(t, partners, 1)

	_, err = f.svc.AssignPartner(ctx, o.ID.String(), AssignPartnerRequest{PartnerID: "bogus", Reason: "ops"})
	assert.True(t, apperr.Is(err, apperr.CodeInvalidInput))

	plan, err := f.svc.AssignPartner(ctx, o.ID.String(), AssignPartnerRequest{PartnerID: partners[0].ID.String(), Reason: "ops desk"})
	require.NoError(t, err)
	assert.Equal(t, "Manual override: ops desk", plan.Reason)

	stored, err := f.orders.GetOrder(ctx, o.ID.String())
	require.NoError(t, err)
	assert.Equal(t, order.StatusCreated, stored.Status)
	require.NotNil(t, stored.PartnerOverrideID)

	d, err = f.svc.Fulfill(ctx, o.ID.String())
	require.NoError(t, err)
	assert.Equal(t, order.StatusAWBGenerated, d.Status)
	require.NotNil(t, d.PartnerID)
	assert.Equal(t, partners[0].ID, *d.PartnerID)
	assert.Equal(t, plan.ID, d.Plan.ID)
}

func TestMarkDispatched(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	f.stock("SKU-1", 3)
	o := f.order(mumbai, 1)
	ctx := context.Background()

	_, err := f.svc.MarkDispatched(ctx, o.ID.String())
	assert.True(t, apperr.Is(err, apperr.CodeInvalidState), "CREATED cannot be dispatched")

	_, err = f.svc.Fulfill(ctx, o.ID.String())
	require.NoError(t, err)

	dispatched, err := f.svc.MarkDispatched(ctx, o.ID.String())
	require.NoError(t, err)
	assert.Equal(t, order.StatusDispatched, dispatched.Status)

	_, err = f.svc.Fulfill(ctx, o.ID.String())
	assert.True(t, apperr.Is(err, apperr.CodeInvalidState))
	_, err = f.svc.AssignPartner(ctx, o.ID.String(), AssignPartnerRequest{PartnerID: uuid.NewString(), Reason: "late"})
	assert.True(t, apperr.Is(err, apperr.CodeInvalidState))

	assert.Equal(t, []EventType{EventDecided, EventDispatched}, f.publisher.types())
}

type failingSave struct {
	OrderStore
}

func (failingSave) Save(context.Context, *order.Order, order.Status) error {
	return errors.New("write failed")
}

func TestFulfill_FailedSaveReleasesReservations(t *testing.T) {
	f := newFixture(t, fixtureOptions{wrapOrders: func(s OrderStore) OrderStore { return failingSave{s} }})
	f.stock("SKU-1", 3)
	o := f.order(mumbai, 2)

	_, err := f.svc.Fulfill(context.Background(), o.ID.String())
	require.Error(t, err)
	assert.Equal(t, 0, f.reserved("SKU-1"))
	assert.Empty(t, f.publisher.types())
}

// deadlineAllocator reserves SKU-1 only and then reports the caller's deadline as passed.
type deadlineAllocator struct {
	Allocator
}

func (a deadlineAllocator) Allocate(ctx context.Context, req allocation.Request) (*allocation.Result, error) {
	var first []allocation.Item
	var rest []allocation.ItemResult
	for _, it := range req.Items {
		if it.SKU == "SKU-1" {
			first = append(first, it)
			continue
		}
		rest = append(rest, allocation.ItemResult{SKU: it.SKU, Requested: it.Quantity, Shortfall: it.Quantity})
	}
	req.Items = first
	res, err := a.Allocator.Allocate(ctx, req)
	if err != nil {
		return nil, err
	}
	res.Items = append(res.Items, rest...)
	res.Success = false
	return res, context.DeadlineExceeded
}

func (f *fixture) twoItemOrder() *order.Order {
	f.t.Helper()
	o, err := f.orders.CreateOrder(context.Background(), order.CreateOrderRequest{
		Origin:      bengaluru,
		Destination: mumbai,
		WeightKg:    decimal.NewFromInt(1),
		ServiceTier: "STANDARD",
		Items:       []order.ItemRequest{{SKU: "SKU-1", Quantity: 2}, {SKU: "SKU-2", Quantity: 3}},
	})
	require.NoError(f.t, err)
	return o
}

func TestFulfill_InterruptedAllocationKeepsCommittedReservations(t *testing.T) {
	f := newFixture(t, fixtureOptions{wrapAllocator: func(a Allocator) Allocator { return deadlineAllocator{a} }})
	f.stock("SKU-1", 5)
	f.stock("SKU-2", 5)
	o := f.twoItemOrder()
	ctx := context.Background()

	_, err := f.svc.Fulfill(ctx, o.ID.String())
	require.ErrorIs(t, err, context.DeadlineExceeded)

	stored, err := f.orders.GetOrder(ctx, o.ID.String())
	require.NoError(t, err)
	assert.Equal(t, order.StatusPartiallyAllocated, stored.Status)
	require.NotNil(t, stored.PlanID)
	allocated := map[string]int{}
	for _, it := range stored.Items {
		allocated[it.SKU] = it.AllocatedQty
	}
	assert.Equal(t, map[string]int{"SKU-1": 2, "SKU-2": 0}, allocated)
	assert.Equal(t, 2, f.reserved("SKU-1"))
	assert.Equal(t, 0, f.reserved("SKU-2"))
}

func TestFulfill_InterruptedAllocationReleasesWhenSaveFails(t *testing.T) {
	f := newFixture(t, fixtureOptions{
		wrapOrders:    func(s OrderStore) OrderStore { return failingSave{s} },
		wrapAllocator: func(a Allocator) Allocator { return deadlineAllocator{a} },
	})
	f.stock("SKU-1", 5)
	o := f.twoItemOrder()
	ctx := context.Background()

	_, err := f.svc.Fulfill(ctx, o.ID.String())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, f.reserved("SKU-1"))

	stored, err := f.orders.GetOrder(ctx, o.ID.String())
	require.NoError(t, err)
	assert.Equal(t, order.StatusCreated, stored.Status)
}

func TestAssignPartner_FailedSaveRestoresPreviousPlan(t *testing.T) {
	f := newFixture(t, fixtureOptions{wrapOrders: func(s OrderStore) OrderStore { return failingSave{s} }})
	o := f.order(mumbai, 1)
	ctx := context.Background()

	first, err := f.routes.CreatePlan(ctx, planRequest(o, nil))
	require.NoError(t, err)

	partners, err := f.partners.ListPartners(ctx)
	require.NoError(t, err)
	require.Len(t, partners, 1)

	_, err = f.svc.AssignPartner(ctx, o.ID.String(), AssignPartnerRequest{PartnerID: partners[0].ID.String(), Reason: "ops desk"})
	require.Error(t, err)

	active, err := f.routes.GetPlanByOrderID(ctx, o.ID.String())
	require.NoError(t, err)
	assert.Equal(t, first.ID, active.ID)

	history, err := f.routes.ListPlansByOrderID(ctx, o.ID.String())
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, p := range history {
		if p.ID != first.ID {
			assert.Equal(t, routing.PlanOverridden, p.Status)
		}
	}
	assert.Empty(t, f.publisher.types())
}

func TestFulfill_PublishFailureDoesNotFailTheCall(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	f.publisher.err = errors.New("broker down")
	f.stock("SKU-1", 3)
	o := f.order(mumbai, 1)

	d, err := f.svc.Fulfill(context.Background(), o.ID.String())
	require.NoError(t, err)
	assert.Equal(t, order.StatusAWBGenerated, d.Status)
}

func TestFulfill_UnknownOrder(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	_, err := f.svc.Fulfill(context.Background(), uuid.NewString())
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	_, err = f.svc.GetDecision(context.Background(), uuid.NewString())
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestPlanFulfillmentIsDryRun(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	o := f.order(mumbai, 1)
	ctx := context.Background()

	plan, err := f.svc.PlanOrder(ctx, o.ID.String())
	require.NoError(t, err)
	assert.Equal(t, routing.ModePartner, plan.Mode)

	_, err = f.svc.PlanFulfillment(ctx, f.order(delhi, 1))
	assert.ErrorIs(t, err, routing.ErrNoPartner)

	stored, err := f.orders.GetOrder(ctx, o.ID.String())
	require.NoError(t, err)
	assert.Nil(t, stored.PlanID)
}

type stubSender struct {
	key, value []byte
}

func (s *stubSender) SendMessage(_ context.Context, key, value []byte) error {
	s.key, s.value = key, value
	return nil
}

func TestKafkaPublisherKeysByOrder(t *testing.T) {
	sender := &stubSender{}
	id := uuid.New()
	require.NoError(t, NewKafkaPublisher(sender).Publish(context.Background(), Event{Type: EventDecided, OrderID: id}))
	assert.Equal(t, id.String(), string(sender.key))
	assert.Contains(t, string(sender.value), `"type":"fulfillment.decided"`)
}
