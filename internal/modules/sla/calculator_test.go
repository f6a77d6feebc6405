package sla

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/fulfillment-engine/internal/modules/zone"
	"github.com/georgemunganga/fulfillment-engine/internal/platform/apperr"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func TestAddBusinessDays_SkipsRestDay(t *testing.T) {
	saturday := date(2026, time.October, 17)
	require.Equal(t, time.Saturday, saturday.Weekday())

	got := AddBusinessDays(saturday, 1, time.Sunday)
	assert.Equal(t, date(2026, time.October, 19), got)
	assert.Equal(t, time.Monday, got.Weekday())
}

func TestAddBusinessDays_ZeroDaysReturnsStart(t *testing.T) {
	start := date(2026, time.October, 18)
	assert.Equal(t, start, AddBusinessDays(start, 0, time.Sunday))
}

func TestAddBusinessDays_MultiWeek(t *testing.T) {
	monday := date(2026, time.October, 12)
	// 12 working days with Sundays off: two Sundays fall inside the span.
	got := AddBusinessDays(monday, 12, time.Sunday)
	assert.Equal(t, date(2026, time.October, 26), got)
	assert.NotEqual(t, time.Sunday, got.Weekday())
}

func TestAddBusinessDays_Monotonic(t *testing.T) {
	start := date(2026, time.October, 14)
	prev := start
	for n := 0; n <= 20; n++ {
		got := AddBusinessDays(start, n, time.Sunday)
		assert.False(t, got.Before(prev), "n=%d", n)
		prev = got
	}
}

func TestComputeSLA_DefaultUsesZonalNominal(t *testing.T) {
	calc := NewCalculator(Options{})
	placed := date(2026, time.October, 13) // Tuesday

	got, err := calc.ComputeSLA(context.Background(), TierStandard, zone.RouteNational, placed)
	require.NoError(t, err)

	m := DefaultMatrix()
	assert.Equal(t, m[TierStandard][zone.RouteNational].Min, got.MinDays)
	assert.Equal(t, m[TierStandard][zone.RouteNational].Max, got.MaxDays)
	assert.Equal(t, m[TierStandard][zone.RouteZonal].Expected, got.TransitDays)
	assert.Equal(t, SourceDefault, got.Source)
	assert.Equal(t, DefaultSLAPercentage, got.SLAPercentage)
	assert.Equal(t, AddBusinessDays(placed, got.TransitDays, time.Sunday), got.PromisedDeliveryDate)
}

func TestComputeSLA_NominalFromRouteClass(t *testing.T) {
	calc := NewCalculator(Options{NominalFromRouteClass: true})

	got, err := calc.ComputeSLA(context.Background(), TierEconomy, zone.RouteNational, date(2026, time.October, 13))
	require.NoError(t, err)
	assert.Equal(t, DefaultMatrix()[TierEconomy][zone.RouteNational].Expected, got.TransitDays)
}

func TestComputeSLA_MissingZonalCellIsInvariant(t *testing.T) {
	calc := NewCalculator(Options{Matrix: Matrix{
		TierStandard: {zone.RouteNational: {Min: 3, Expected: 4, Max: 6}},
	}})

	_, err := calc.ComputeSLA(context.Background(), TierStandard, zone.RouteNational, date(2026, time.October, 13))
	assert.True(t, apperr.Is(err, apperr.CodeInvariant))

	byClass := NewCalculator(Options{NominalFromRouteClass: true, Matrix: Matrix{
		TierStandard: {zone.RouteNational: {Min: 3, Expected: 4, Max: 6}},
	}})
	got, err := byClass.ComputeSLA(context.Background(), TierStandard, zone.RouteNational, date(2026, time.October, 13))
	require.NoError(t, err)
	assert.Equal(t, 4, got.TransitDays)
}

func TestComputeSLA_OverrideWins(t *testing.T) {
	repo := NewMemoryRepository()
	calc := NewCalculator(Options{Overrides: repo, SLAPercentage: 90})
	ctx := context.Background()

	require.NoError(t, calc.SetOverride(ctx, &Override{
		Tier:          TierExpress,
		RouteClass:    zone.RouteMetro,
		Window:        Window{Min: 1, Expected: 1, Max: 2},
		SLAPercentage: 98,
	}))

	got, err := calc.ComputeSLA(ctx, TierExpress, zone.RouteMetro, date(2026, time.October, 13))
	require.NoError(t, err)
	assert.Equal(t, SourceOverride, got.Source)
	assert.Equal(t, 1, got.TransitDays)
	assert.Equal(t, 2, got.MaxDays)
	assert.Equal(t, 98.0, got.SLAPercentage)

	other, err := calc.ComputeSLA(ctx, TierExpress, zone.RouteLocal, date(2026, time.October, 13))
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, other.Source)
	assert.Equal(t, 90.0, other.SLAPercentage)
}

func TestComputeSLA_UnknownFallbacks(t *testing.T) {
	calc := NewCalculator(Options{})

	got, err := calc.ComputeSLA(context.Background(), TierUnknown, zone.RouteUnknown, date(2026, time.October, 13))
	require.NoError(t, err)
	assert.Equal(t, TierStandard, got.Tier)
	assert.Equal(t, zone.RouteNational, got.RouteClass)
}

func TestComputeSLA_MonotonicInPlacedAt(t *testing.T) {
	calc := NewCalculator(Options{})
	start := date(2026, time.October, 1)
	var prev time.Time
	for i := 0; i < 21; i++ {
		got, err := calc.ComputeSLA(context.Background(), TierStandard, zone.RouteZonal, start.AddDate(0, 0, i))
		require.NoError(t, err)
		assert.False(t, got.PromisedDeliveryDate.Before(prev))
		assert.NotEqual(t, time.Sunday, got.PromisedDeliveryDate.Weekday())
		prev = got.PromisedDeliveryDate
	}
}

type failingRepo struct{}

func (failingRepo) GetOverride(context.Context, Tier, zone.RouteClass) (*Override, error) {
	return nil, errors.New("connection refused")
}

func (failingRepo) UpsertOverride(context.Context, *Override) error { return nil }

func TestComputeSLA_RepositoryErrorPropagates(t *testing.T) {
	calc := NewCalculator(Options{Overrides: failingRepo{}})
	_, err := calc.ComputeSLA(context.Background(), TierStandard, zone.RouteLocal, date(2026, time.October, 13))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSetOverride_RejectsBadWindow(t *testing.T) {
	calc := NewCalculator(Options{Overrides: NewMemoryRepository()})
	err := calc.SetOverride(context.Background(), &Override{Tier: TierExpress, RouteClass: zone.RouteLocal, Window: Window{Min: 3, Expected: 2, Max: 4}})
	require.Error(t, err)
}

func TestParseTier(t *testing.T) {
	assert.Equal(t, TierExpress, ParseTier(" express "))
	assert.Equal(t, TierUnknown, ParseTier("overnight"))
}
