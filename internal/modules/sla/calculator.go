package sla

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/georgemunganga/fulfillment-engine/internal/modules/zone"
	"github.com/georgemunganga/fulfillment-engine/internal/platform/apperr"
	"github.com/georgemunganga/fulfillment-engine/internal/platform/observability"
)

// DefaultSLAPercentage is the on-time rate quoted alongside a commitment.
const DefaultSLAPercentage = 95.0

// Options configures a Calculator. Zero values select the defaults.
type Options struct {
	Matrix    Matrix
	Overrides OverrideRepository
	RestDay   time.Weekday
	// SLAPercentage defaults to DefaultSLAPercentage when <= 0.
	SLAPercentage float64
	// NominalFromRouteClass uses the cell's own expected days for the promised date instead of
	// the tier's ZONAL expected days.
	NominalFromRouteClass bool
	Logger                *zap.Logger
}

// Calculator turns (tier, route class, placed-at) into a delivery commitment.
type Calculator struct {
	matrix       Matrix
	overrides    OverrideRepository
	restDay      time.Weekday
	percentage   float64
	nominalClass bool
	logger       *zap.Logger
}

// NewCalculator resolves opts once. RestDay's zero value is Sunday.
func NewCalculator(opts Options) *Calculator {
	matrix := opts.Matrix
	if len(matrix) == 0 {
		matrix = DefaultMatrix()
	}
	pct := opts.SLAPercentage
	if pct <= 0 {
		pct = DefaultSLAPercentage
	}
	return &Calculator{
		matrix:       matrix,
		overrides:    opts.Overrides,
		restDay:      opts.RestDay,
		percentage:   pct,
		nominalClass: opts.NominalFromRouteClass,
		logger:       observability.OrNop(opts.Logger).Named("sla"),
	}
}

// ComputeSLA returns the commitment for an order placed at placedAt.
//
// An override record for (tier, class) wins. Otherwise min and max days come from the
// matrix cell while the promised date is counted from the tier's ZONAL expected days,
// unless NominalFromRouteClass is set.
func (c *Calculator) ComputeSLA(ctx context.Context, tier Tier, class zone.RouteClass, placedAt time.Time) (Commitment, error) {
	tier, class = c.resolve(tier, class)

	out := Commitment{
		Tier:          tier,
		RouteClass:    class,
		OrderPlacedAt: placedAt,
		SLAPercentage: c.percentage,
		Source:        SourceDefault,
	}

	if c.overrides != nil {
		o, err := c.overrides.GetOverride(ctx, tier, class)
		switch {
		case err == nil:
			out.MinDays, out.MaxDays, out.TransitDays = o.Window.Min, o.Window.Max, o.Window.Expected
			if o.SLAPercentage > 0 {
				out.SLAPercentage = o.SLAPercentage
			}
			out.Source = SourceOverride
		case errors.Is(err, ErrNoOverride):
		default:
			return Commitment{}, fmt.Errorf("compute sla: %w", err)
		}
	}

	if out.Source == SourceDefault {
		cell, ok := c.matrix[tier][class]
		if !ok {
			return Commitment{}, apperr.Invariant("sla.ComputeSLA", "no TAT cell for %s/%s", tier, class)
		}
		out.MinDays, out.MaxDays, out.TransitDays = cell.Min, cell.Max, cell.Expected
		if !c.nominalClass {
			zonal, ok := c.matrix[tier][zone.RouteZonal]
			if !ok {
				return Commitment{}, apperr.Invariant("sla.ComputeSLA", "no ZONAL TAT cell for %s", tier)
			}
			out.TransitDays = zonal.Expected
		}
	}

	if out.TransitDays < 0 {
		return Commitment{}, apperr.Invariant("sla.ComputeSLA", "negative transit days %d", out.TransitDays)
	}
	out.PromisedDeliveryDate = AddBusinessDays(placedAt, out.TransitDays, c.restDay)

	c.logger.Debug("sla computed",
		zap.String("tier", string(tier)),
		zap.String("route_class", string(class)),
		zap.Int("transit_days", out.TransitDays),
		zap.String("source", string(out.Source)),
	)
	return out, nil
}

// SetOverride stores an override for one (tier, class) cell.
func (c *Calculator) SetOverride(ctx context.Context, o *Override) error {
	if c.overrides == nil {
		return apperr.New("sla.SetOverride", apperr.CodeInvalidState, "no override repository configured")
	}
	if o.Window.Min < 0 || o.Window.Min > o.Window.Expected || o.Window.Expected > o.Window.Max {
		return apperr.InvalidInput("sla.SetOverride", "window must satisfy 0 <= min <= expected <= max")
	}
	o.Tier, o.RouteClass = c.resolve(o.Tier, o.RouteClass)
	return c.overrides.UpsertOverride(ctx, o)
}

func (c *Calculator) resolve(tier Tier, class zone.RouteClass) (Tier, zone.RouteClass) {
	if _, ok := c.matrix[tier]; !ok || tier == TierUnknown {
		tier = TierStandard
	}
	if class == zone.RouteUnknown || class == "" {
		class = zone.RouteNational
	}
	return tier, class
}

// AddBusinessDays walks forward from start one calendar day at a time, counting only days that
// are not rest, and returns the day on which the count reaches days. days <= 0 returns start.
func AddBusinessDays(start time.Time, days int, rest time.Weekday) time.Time {
	d := start
	for counted := 0; counted < days; {
		d = d.AddDate(0, 0, 1)
		if d.Weekday() != rest {
			counted++
		}
	}
	return d
}
