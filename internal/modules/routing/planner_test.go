package routing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/fulfillment-engine/internal/modules/partner"
	"github.com/georgemunganga/fulfillment-engine/internal/modules/zone"
	"github.com/georgemunganga/fulfillment-engine/internal/platform/apperr"
)

// fakeDirectory answers Recommend from a fixed lane table keyed "origin>destination".
type fakeDirectory struct {
	partners       map[uuid.UUID]*partner.Partner
	lanes          map[string]partner.Scored
	recommendCalls int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{partners: map[uuid.UUID]*partner.Partner{}, lanes: map[string]partner.Scored{}}
}

func (f *fakeDirectory) addPartner(code string, active bool) *partner.Partner {
	p := &partner.Partner{ID: uuid.New(), Code: code, Name: code, IsActive: active}
	f.partners[p.ID] = p
	return p
}

func (f *fakeDirectory) serve(p *partner.Partner, origin, destination string, rate int64) {
	f.lanes[origin+">"+destination] = partner.Scored{
		PartnerID:   p.ID,
		PartnerCode: p.Code,
		QuotedRate:  decimal.NewFromInt(rate),
		TransitDays: 3,
		FinalScore:  0.7,
	}
}

func (f *fakeDirectory) GetPartner(_ context.Context, id string) (*partner.Partner, error) {
	uid, _ := uuid.Parse(id)
	if p, ok := f.partners[uid]; ok {
		return p, nil
	}
	return nil, apperr.New("partner.GetPartner", apperr.CodeNotFound, "%s", id)
}

func (f *fakeDirectory) Recommend(_ context.Context, s partner.Shipment) (*partner.Recommendation, error) {
	f.recommendCalls++
	best, ok := f.lanes[s.Origin.PostalCode+">"+s.Destination.PostalCode]
	if !ok {
		return &partner.Recommendation{}, nil
	}
	return &partner.Recommendation{Found: true, Ranking: partner.Ranking{Best: best, Ranked: []partner.Scored{best}}}, nil
}

var (
	bengaluru = zone.Endpoint{PostalCode: "560001", State: "Karnataka"}
	mysuru    = zone.Endpoint{PostalCode: "570001", State: "Karnataka"}
	mumbai    = zone.Endpoint{PostalCode: "400001", State: "Maharashtra"}
	guwahati  = zone.Endpoint{PostalCode: "781001", State: "Assam"}
)

func network() *StaticNetwork {
	return NewStaticNetwork([]NetworkHub{
		{Hub: Hub{Code: "BLR-HUB", PostalCode: "560100", State: "Karnataka"}, ServedPrefixes: []string{"56", "57"}},
		{Hub: Hub{Code: "BOM-HUB", PostalCode: "400070", State: "Maharashtra"}, ServedPrefixes: []string{"40"}, Gateway: true},
	})
}

func TestPlan_OverrideSkipsScoring(t *testing.T) {
	dir := newFakeDirectory()
	p := dir.addPartner("MANUAL", true)
	planner := NewPlanner(dir, network(), PlannerOptions{})

	plan, err := planner.Plan(context.Background(), PlanRequest{
		OrderID:         uuid.New(),
		Origin:          bengaluru,
		Destination:     mysuru,
		PartnerOverride: &p.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, ModePartner, plan.Mode)
	require.Len(t, plan.Legs, 1)
	assert.Equal(t, p.ID, *plan.Legs[0].PartnerID)
	assert.Zero(t, dir.recommendCalls)
}

func TestPlan_OverrideInactivePartner(t *testing.T) {
	dir := newFakeDirectory()
	p := dir.addPartner("OFF", false)
	_, err := NewPlanner(dir, nil, PlannerOptions{}).Plan(context.Background(), PlanRequest{
		Origin: bengaluru, Destination: mumbai, PartnerOverride: &p.ID,
	})
	assert.True(t, apperr.Is(err, apperr.CodeInvalidInput))
}

func TestPlan_OwnFleetForLocalRoute(t *testing.T) {
	dir := newFakeDirectory()
	dir.serve(dir.addPartner("P1", true), bengaluru.PostalCode, mysuru.PostalCode, 30)

	plan, err := NewPlanner(dir, network(), PlannerOptions{}).Plan(context.Background(), PlanRequest{
		Origin: bengaluru, Destination: mysuru,
	})
	require.NoError(t, err)
	assert.Equal(t, ModeOwnFleet, plan.Mode)
	assert.Equal(t, zone.RouteLocal, plan.RouteClass)
	require.Len(t, plan.Legs, 1)
	assert.Nil(t, plan.Legs[0].PartnerID)
	assert.Zero(t, dir.recommendCalls)
}

func TestPlan_PartnerForMetroRoute(t *testing.T) {
	dir := newFakeDirectory()
	p := dir.addPartner("P1", true)
	dir.serve(p, bengaluru.PostalCode, mumbai.PostalCode, 80)

	plan, err := NewPlanner(dir, network(), PlannerOptions{}).Plan(context.Background(), PlanRequest{
		Origin: bengaluru, Destination: mumbai,
	})
	require.NoError(t, err)
	assert.Equal(t, ModePartner, plan.Mode)
	assert.Equal(t, zone.RouteMetro, plan.RouteClass)
	require.Len(t, plan.Legs, 1)
	assert.Equal(t, "P1", plan.Legs[0].PartnerCode)
	assert.True(t, decimal.NewFromInt(80).Equal(*plan.Legs[0].QuotedRate))
	assert.Equal(t, p.ID, *plan.PartnerID())
}

func TestPlan_HybridThroughHandoff(t *testing.T) {
	dir := newFakeDirectory()
	p := dir.addPartner("NE-EXPRESS", true)
	// Only the gateway hub's postal code has a lane into the north-east.
	dir.serve(p, "400070", guwahati.PostalCode, 120)

	plan, err := NewPlanner(dir, network(), PlannerOptions{}).Plan(context.Background(), PlanRequest{
		Origin: bengaluru, Destination: guwahati,
	})
	require.NoError(t, err)
	assert.Equal(t, ModeHybrid, plan.Mode)
	require.Len(t, plan.Legs, 2)
	assert.Equal(t, ModeOwnFleet, plan.Legs[0].Mode)
	assert.Equal(t, "BLR-HUB", plan.Legs[0].From)
	assert.Equal(t, "BOM-HUB", plan.Legs[0].To)
	assert.Equal(t, ModePartner, plan.Legs[1].Mode)
	assert.Equal(t, plan.Legs[0].To, plan.Legs[1].From)
	assert.Equal(t, guwahati.PostalCode, plan.Legs[1].To)
	require.NoError(t, ValidateLegs(plan.Legs))
}

func TestPlan_PreferHybrid(t *testing.T) {
	dir := newFakeDirectory()
	p := dir.addPartner("P1", true)
	dir.serve(p, bengaluru.PostalCode, guwahati.PostalCode, 200)
	dir.serve(p, "400070", guwahati.PostalCode, 120)

	direct, err := NewPlanner(dir, network(), PlannerOptions{}).Plan(context.Background(), PlanRequest{Origin: bengaluru, Destination: guwahati})
	require.NoError(t, err)
	assert.Equal(t, ModePartner, direct.Mode)

	hybrid, err := NewPlanner(dir, network(), PlannerOptions{PreferHybrid: true}).Plan(context.Background(), PlanRequest{Origin: bengaluru, Destination: guwahati})
	require.NoError(t, err)
	assert.Equal(t, ModeHybrid, hybrid.Mode)
}

func TestPlan_OwnFleetFallbackWithoutPartner(t *testing.T) {
	plan, err := NewPlanner(newFakeDirectory(), network(), PlannerOptions{}).Plan(context.Background(), PlanRequest{
		Origin: bengaluru, Destination: mumbai,
	})
	require.NoError(t, err)
	assert.Equal(t, ModeOwnFleet, plan.Mode)
	assert.Equal(t, "BOM-HUB", plan.Legs[0].To)
}

func TestPlan_NoPartner(t *testing.T) {
	_, err := NewPlanner(newFakeDirectory(), NoFleet{}, PlannerOptions{}).Plan(context.Background(), PlanRequest{
		Origin: bengaluru, Destination: guwahati,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoPartner))
	assert.Equal(t, apperr.CodeNoPartner, apperr.CodeOf(err))
}

func TestValidateLegs(t *testing.T) {
	id := uuid.New()
	cases := []struct {
		name string
		legs []Leg
	}{
		{"empty", nil},
		{"gap in indices", []Leg{{Index: 0, From: "a", To: "b", Mode: ModeOwnFleet}, {Index: 2, From: "b", To: "c", Mode: ModeOwnFleet}}},
		{"disconnected", []Leg{{Index: 0, From: "a", To: "b", Mode: ModeOwnFleet}, {Index: 1, From: "x", To: "c", Mode: ModeOwnFleet}}},
		{"partner leg without partner", []Leg{{Index: 0, From: "a", To: "b", Mode: ModePartner}}},
		{"fleet leg with partner", []Leg{{Index: 0, From: "a", To: "b", Mode: ModeOwnFleet, PartnerID: &id}}},
		{"hybrid is not a leg mode", []Leg{{Index: 0, From: "a", To: "b", Mode: ModeHybrid}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateLegs(tc.legs)
			require.Error(t, err)
			assert.Equal(t, apperr.CodeInvariant, apperr.CodeOf(err))
		})
	}

	assert.NoError(t, ValidateLegs([]Leg{
		{Index: 0, From: "a", To: "b", Mode: ModeOwnFleet},
		{Index: 1, From: "b", To: "c", Mode: ModePartner, PartnerID: &id},
	}))
}
