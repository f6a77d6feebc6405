package sla

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/georgemunganga/fulfillment-engine/internal/modules/zone"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) OverrideRepository { return &postgresRepo{db: db} }

func (r *postgresRepo) GetOverride(ctx context.Context, tier Tier, class zone.RouteClass) (*Override, error) {
	o := &Override{}
	var pct sql.NullFloat64
	err := r.db.QueryRowContext(ctx, `
		SELECT tier, route_class, min_days, expected_days, max_days, sla_percentage, updated_at
		FROM sla_overrides WHERE tier=$1 AND route_class=$2`, tier, class).
		Scan(&o.Tier, &o.RouteClass, &o.Window.Min, &o.Window.Expected, &o.Window.Max, &pct, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoOverride
	}
	if err != nil {
		return nil, fmt.Errorf("get sla override: %w", err)
	}
	if pct.Valid {
		o.SLAPercentage = pct.Float64
	}
	return o, nil
}

func (r *postgresRepo) UpsertOverride(ctx context.Context, o *Override) error {
	var pct interface{}
	if o.SLAPercentage > 0 {
		pct = o.SLAPercentage
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sla_overrides (tier, route_class, min_days, expected_days, max_days, sla_percentage, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (tier, route_class) DO UPDATE
		SET min_days=EXCLUDED.min_days, expected_days=EXCLUDED.expected_days,
		    max_days=EXCLUDED.max_days, sla_percentage=EXCLUDED.sla_percentage, updated_at=EXCLUDED.updated_at`,
		o.Tier, o.RouteClass, o.Window.Min, o.Window.Expected, o.Window.Max, pct, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert sla override: %w", err)
	}
	return nil
}
