package fulfillment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresDecisionRepository stores each decision as a JSONB document keyed by order.
func NewPostgresDecisionRepository(db *sql.DB) DecisionRepository { return &postgresRepo{db: db} }

func (r *postgresRepo) SaveDecision(ctx context.Context, d *Decision) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal decision: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO fulfillment_decisions (id, order_id, status, payload, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		d.ID, d.OrderID, d.Status, payload, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert fulfillment_decision: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetLatestDecision(ctx context.Context, orderID string) (*Decision, error) {
	uid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, ErrDecisionNotFound
	}
	var payload []byte
	err = r.db.QueryRowContext(ctx, `
		SELECT payload FROM fulfillment_decisions
		WHERE order_id=$1 ORDER BY created_at DESC LIMIT 1`, uid).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDecisionNotFound
	}
	if err != nil {
		return nil, err
	}
	d := &Decision{}
	if err := json.Unmarshal(payload, d); err != nil {
		return nil, fmt.Errorf("unmarshal decision: %w", err)
	}
	return d, nil
}
