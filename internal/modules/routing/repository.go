package routing

import (
	"context"
	"errors"
)

// ErrPlanNotFound is returned when an order has no active plan.
var ErrPlanNotFound = errors.New("journey plan not found")

// Repository defines data access for journey plans.
type Repository interface {
	// CreatePlan stores the plan and its legs atomically.
	CreatePlan(ctx context.Context, plan *Plan) error
	// GetActivePlanByOrderID returns the plan in force for an order.
	GetActivePlanByOrderID(ctx context.Context, orderID string) (*Plan, error)
	ListPlansByOrderID(ctx context.Context, orderID string) ([]*Plan, error)
	UpdatePlanStatus(ctx context.Context, id string, status PlanStatus) error
}
