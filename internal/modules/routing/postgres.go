package routing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

// CreatePlan inserts the plan and all its legs inside a single transaction.
func (r *postgresRepo) CreatePlan(ctx context.Context, plan *Plan) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO journey_plans (id, order_id, mode, route_class, status, reason, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		plan.ID, plan.OrderID, plan.Mode, plan.RouteClass, plan.Status, plan.Reason, plan.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert journey_plan: %w", err)
	}

	for _, leg := range plan.Legs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO journey_legs (plan_id, leg_index, from_ref, to_ref, mode, partner_id, partner_code, quoted_rate, score)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			plan.ID, leg.Index, leg.From, leg.To, leg.Mode, leg.PartnerID,
			nullString(leg.PartnerCode), nullDecimal(leg.QuotedRate), leg.Score)
		if err != nil {
			return fmt.Errorf("insert journey_leg: %w", err)
		}
	}
	return tx.Commit()
}

func (r *postgresRepo) GetActivePlanByOrderID(ctx context.Context, orderID string) (*Plan, error) {
	plan := &Plan{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_id, mode, route_class, status, reason, created_at
		FROM journey_plans WHERE order_id=$1 AND status=$2
		ORDER BY created_at DESC LIMIT 1`, orderID, PlanActive).
		Scan(&plan.ID, &plan.OrderID, &plan.Mode, &plan.RouteClass, &plan.Status, &plan.Reason, &plan.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	plan.Legs, err = r.listLegs(ctx, plan.ID)
	return plan, err
}

func (r *postgresRepo) ListPlansByOrderID(ctx context.Context, orderID string) ([]*Plan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, mode, route_class, status, reason, created_at
		FROM journey_plans WHERE order_id=$1 ORDER BY created_at DESC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var plans []*Plan
	for rows.Next() {
		p := &Plan{}
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Mode, &p.RouteClass, &p.Status, &p.Reason, &p.CreatedAt); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, p := range plans {
		if p.Legs, err = r.listLegs(ctx, p.ID); err != nil {
			return nil, err
		}
	}
	return plans, nil
}

func (r *postgresRepo) UpdatePlanStatus(ctx context.Context, id string, status PlanStatus) error {
	_, err := r.db.ExecContext(ctx, `UPDATE journey_plans SET status=$1 WHERE id=$2`, status, id)
	return err
}

func (r *postgresRepo) listLegs(ctx context.Context, planID uuid.UUID) ([]Leg, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT leg_index, from_ref, to_ref, mode, partner_id, partner_code, quoted_rate, score
		FROM journey_legs WHERE plan_id=$1 ORDER BY leg_index`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var legs []Leg
	for rows.Next() {
		var l Leg
		var partnerID uuid.NullUUID
		var partnerCode sql.NullString
		var rate decimal.NullDecimal
		if err := rows.Scan(&l.Index, &l.From, &l.To, &l.Mode, &partnerID, &partnerCode, &rate, &l.Score); err != nil {
			return nil, err
		}
		if partnerID.Valid {
			id := partnerID.UUID
			l.PartnerID = &id
		}
		l.PartnerCode = partnerCode.String
		if rate.Valid {
			d := rate.Decimal
			l.QuotedRate = &d
		}
		legs = append(legs, l)
	}
	return legs, rows.Err()
}

// ── helpers ──────────────────────────────────────────────────────────────────

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}
