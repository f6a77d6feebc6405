package sla

import (
	"context"
	"errors"

	"github.com/georgemunganga/fulfillment-engine/internal/modules/zone"
)

// ErrNoOverride is returned by repositories when no record exists for a cell.
var ErrNoOverride = errors.New("sla: no override record")

// OverrideRepository stores per-cell TAT overrides.
type OverrideRepository interface {
	GetOverride(ctx context.Context, tier Tier, class zone.RouteClass) (*Override, error)
	UpsertOverride(ctx context.Context, o *Override) error
}
