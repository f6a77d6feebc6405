package sequence

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresCounter keeps counters in the counters table; the upsert is atomic per row.
type PostgresCounter struct{ db *sql.DB }

var _ Counter = (*PostgresCounter)(nil)

func NewPostgresCounter(db *sql.DB) *PostgresCounter { return &PostgresCounter{db: db} }

func (c *PostgresCounter) Next(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, ErrInvalidCounter
	}
	var v int64
	err := c.db.QueryRowContext(ctx, `
		INSERT INTO counters (name, value) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = counters.value + 1, updated_at = NOW()
		RETURNING value`, name).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("next counter %s: %w", name, err)
	}
	return v, nil
}
