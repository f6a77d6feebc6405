package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// PostgresLedger keeps stock counters in the stock_levels table.
type PostgresLedger struct{ db *sql.DB }

var _ Ledger = (*PostgresLedger)(nil)

func NewPostgresLedger(db *sql.DB) *PostgresLedger { return &PostgresLedger{db: db} }

// Reserve relies on the row lock taken by UPDATE: two orders racing for the last units
// serialise on the row and the loser sees zero rows affected.
func (l *PostgresLedger) Reserve(ctx context.Context, warehouseID uuid.UUID, sku string, qty int) (bool, error) {
	if qty <= 0 {
		return false, ErrInvalidQuantity
	}
	res, err := l.db.ExecContext(ctx, `
		UPDATE stock_levels SET reserved = reserved + $3, updated_at = NOW()
		WHERE warehouse_id = $1 AND sku = $2 AND on_hand - reserved >= $3`,
		warehouseID, sku, qty)
	if err != nil {
		return false, fmt.Errorf("reserve stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reserve stock: %w", err)
	}
	return n == 1, nil
}

func (l *PostgresLedger) Release(ctx context.Context, warehouseID uuid.UUID, sku string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	res, err := l.db.ExecContext(ctx, `
		UPDATE stock_levels SET reserved = reserved - $3, updated_at = NOW()
		WHERE warehouse_id = $1 AND sku = $2 AND reserved >= $3`,
		warehouseID, sku, qty)
	if err != nil {
		return fmt.Errorf("release stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("release stock: %w", err)
	}
	if n == 0 {
		return ErrReleaseExceedsReserved
	}
	return nil
}

func (l *PostgresLedger) Receive(ctx context.Context, warehouseID uuid.UUID, sku string, qty int) (StockLevel, error) {
	if qty <= 0 {
		return StockLevel{}, ErrInvalidQuantity
	}
	lvl := StockLevel{WarehouseID: warehouseID, SKU: sku}
	err := l.db.QueryRowContext(ctx, `
		INSERT INTO stock_levels (warehouse_id, sku, on_hand, reserved)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (warehouse_id, sku) DO UPDATE
		SET on_hand = stock_levels.on_hand + EXCLUDED.on_hand, updated_at = NOW()
		RETURNING on_hand, reserved, updated_at`,
		warehouseID, sku, qty).Scan(&lvl.OnHand, &lvl.Reserved, &lvl.UpdatedAt)
	if err != nil {
		return StockLevel{}, fmt.Errorf("receive stock: %w", err)
	}
	return lvl, nil
}

func (l *PostgresLedger) Level(ctx context.Context, warehouseID uuid.UUID, sku string) (StockLevel, error) {
	lvl := StockLevel{WarehouseID: warehouseID, SKU: sku}
	err := l.db.QueryRowContext(ctx, `
		SELECT on_hand, reserved, updated_at FROM stock_levels WHERE warehouse_id = $1 AND sku = $2`,
		warehouseID, sku).Scan(&lvl.OnHand, &lvl.Reserved, &lvl.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return lvl, nil
	}
	if err != nil {
		return StockLevel{}, fmt.Errorf("stock level: %w", err)
	}
	return lvl, nil
}
