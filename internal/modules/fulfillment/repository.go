package fulfillment

import (
	"context"
	"errors"
)

// ErrDecisionNotFound is returned when an order has no recorded decision.
var ErrDecisionNotFound = errors.New("fulfillment decision not found")

// DecisionRepository stores the decision history per order.
type DecisionRepository interface {
	SaveDecision(ctx context.Context, d *Decision) error
	// GetLatestDecision returns the most recent decision for an order.
	GetLatestDecision(ctx context.Context, orderID string) (*Decision, error)
}
