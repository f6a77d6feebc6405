package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/fulfillment-engine/internal/modules/routing"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const orderColumns = `id, order_number, origin_postal_code, origin_state, destination_postal_code, destination_state,
		       weight_kg, payment_mode, cod_amount, service_tier, preferred_warehouse_id, partner_override_id,
		       status, fulfillment_mode, plan_id, partner_id, awb, placed_at, created_at, updated_at`

// CreateOrder inserts the order and all its items inside a single transaction.
func (r *postgresRepo) CreateOrder(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders
		  (id, order_number, origin_postal_code, origin_state, destination_postal_code, destination_state,
		   weight_kg, payment_mode, cod_amount, service_tier, preferred_warehouse_id, partner_override_id,
		   status, fulfillment_mode, plan_id, partner_id, awb, placed_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		o.ID, o.OrderNumber, o.Origin.PostalCode, o.Origin.State, o.Destination.PostalCode, o.Destination.State,
		o.WeightKg, o.PaymentMode, o.CODAmount, o.ServiceTier, nullUUID(o.PreferredWarehouseID), nullUUID(o.PartnerOverrideID),
		o.Status, nullString(string(o.FulfillmentMode)), nullUUID(o.PlanID), nullUUID(o.PartnerID), nullString(o.AWB),
		o.PlacedAt, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, sku, quantity, allocated_qty)
			VALUES ($1,$2,$3,$4,$5)`,
			item.ID, o.ID, item.SKU, item.Quantity, item.AllocatedQty)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}

	return tx.Commit()
}

func (r *postgresRepo) GetOrderByID(ctx context.Context, id string) (*Order, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, uid)
}

func (r *postgresRepo) GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number=$1`, orderNumber)
}

func (r *postgresRepo) ListOrdersByStatus(ctx context.Context, status Status) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE status=$1 ORDER BY created_at DESC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, o := range orders {
		if o.Items, err = r.listItems(ctx, o.ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// UpdateFulfillment guards on the stored status so that two concurrent fulfillment runs
// cannot both commit against the same starting state.
func (r *postgresRepo) UpdateFulfillment(ctx context.Context, o *Order, expected Status) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status=$1, fulfillment_mode=$2, plan_id=$3, partner_id=$4, awb=$5, partner_override_id=$6, updated_at=$7
		WHERE id=$8 AND status=$9`,
		o.Status, nullString(string(o.FulfillmentMode)), nullUUID(o.PlanID), nullUUID(o.PartnerID),
		nullString(o.AWB), nullUUID(o.PartnerOverrideID), now, o.ID, expected)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStatusConflict
	}

	for _, item := range o.Items {
		if _, err := tx.ExecContext(ctx,
			`UPDATE order_items SET allocated_qty=$1 WHERE id=$2 AND order_id=$3`,
			item.AllocatedQty, item.ID, o.ID); err != nil {
			return fmt.Errorf("update order_item: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	o.UpdatedAt = now
	return nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

type scanner interface {
	Scan(dest ...any) error
}

func (r *postgresRepo) getOne(ctx context.Context, query string, arg any) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Items, err = r.listItems(ctx, o.ID)
	return o, err
}

func scanOrder(row scanner) (*Order, error) {
	o := &Order{}
	var preferred, override, planID, partnerID uuid.NullUUID
	var mode, awb sql.NullString
	var cod decimal.NullDecimal
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.Origin.PostalCode, &o.Origin.State, &o.Destination.PostalCode, &o.Destination.State,
		&o.WeightKg, &o.PaymentMode, &cod, &o.ServiceTier, &preferred, &override,
		&o.Status, &mode, &planID, &partnerID, &awb, &o.PlacedAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if cod.Valid {
		o.CODAmount = cod.Decimal
	}
	o.PreferredWarehouseID = uuidPtr(preferred)
	o.PartnerOverrideID = uuidPtr(override)
	o.PlanID = uuidPtr(planID)
	o.PartnerID = uuidPtr(partnerID)
	o.FulfillmentMode = routing.Mode(mode.String)
	o.AWB = awb.String
	return o, nil
}

func (r *postgresRepo) listItems(ctx context.Context, orderID uuid.UUID) ([]*Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, sku, quantity, allocated_qty
		FROM order_items WHERE order_id=$1 ORDER BY sku ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Item
	for rows.Next() {
		item := &Item{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.SKU, &item.Quantity, &item.AllocatedQty); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func uuidPtr(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
