package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

type warehousePostgres struct{ db *sql.DB }

func NewWarehousePostgresRepository(db *sql.DB) WarehouseRepository {
	return &warehousePostgres{db: db}
}

func (r *warehousePostgres) CreateWarehouse(ctx context.Context, w *Warehouse) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO warehouses (id, code, name, postal_code, state, priority, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		w.ID, w.Code, w.Name, w.PostalCode, w.State, w.Priority, w.IsActive).
		Scan(&w.CreatedAt, &w.UpdatedAt)
	if isDuplicateKey(err) {
		return ErrDuplicateWarehouse
	}
	if err != nil {
		return fmt.Errorf("insert warehouse: %w", err)
	}
	return nil
}

func (r *warehousePostgres) GetWarehouseByID(ctx context.Context, id string) (*Warehouse, error) {
	w := &Warehouse{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, code, name, postal_code, state, priority, is_active, created_at, updated_at
		FROM warehouses WHERE id=$1`, id).
		Scan(&w.ID, &w.Code, &w.Name, &w.PostalCode, &w.State, &w.Priority, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWarehouseNotFound
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *warehousePostgres) ListWarehouses(ctx context.Context, activeOnly bool) ([]*Warehouse, error) {
	query := `SELECT id, code, name, postal_code, state, priority, is_active, created_at, updated_at
	          FROM warehouses`
	if activeOnly {
		query += ` WHERE is_active=TRUE`
	}
	query += ` ORDER BY priority, code`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Warehouse
	for rows.Next() {
		w := &Warehouse{}
		if err := rows.Scan(&w.ID, &w.Code, &w.Name, &w.PostalCode, &w.State, &w.Priority,
			&w.IsActive, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *warehousePostgres) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE warehouses SET is_active=$1, updated_at=$2 WHERE id=$3`, active, time.Now(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrWarehouseNotFound
	}
	return nil
}

// isDuplicateKey reports a PostgreSQL unique constraint violation (code 23505).
func isDuplicateKey(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
