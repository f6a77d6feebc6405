package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/fulfillment-engine/internal/platform/apperr"
	"github.com/georgemunganga/fulfillment-engine/internal/platform/observability"
)

// Service plans journeys and keeps the plan history per order.
type Service interface {
	// Plan computes a journey without persisting it.
	Plan(ctx context.Context, req PlanRequest) (*Plan, error)

	// CreatePlan computes and persists a journey. Any plan already in force for the order
	// is marked OVERRIDDEN once the new plan is known to be valid.
	CreatePlan(ctx context.Context, req PlanRequest) (*Plan, error)

	// GetPlanByOrderID returns the plan in force for an order.
	GetPlanByOrderID(ctx context.Context, orderID string) (*Plan, error)

	// ListPlansByOrderID returns every plan ever made for an order, newest first.
	ListPlansByOrderID(ctx context.Context, orderID string) ([]*Plan, error)

	// AssignPartner lets an operator pin an order to one partner.
	AssignPartner(ctx context.Context, req PlanRequest, reason string) (*Plan, error)

	// RevertPlan retires plan and puts previous back in force. Callers use it when the owner
	// of the order could not record an assignment.
	RevertPlan(ctx context.Context, plan *Plan, previous *uuid.UUID) error
}

type service struct {
	repo    Repository
	planner *Planner
	logger  *zap.Logger
}

func NewService(repo Repository, planner *Planner, logger *zap.Logger) Service {
	return &service{repo: repo, planner: planner, logger: observability.OrNop(logger).Named("routing")}
}

func (s *service) Plan(ctx context.Context, req PlanRequest) (*Plan, error) {
	return s.planner.Plan(ctx, req)
}

func (s *service) CreatePlan(ctx context.Context, req PlanRequest) (*Plan, error) {
	plan, err := s.planner.Plan(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *service) AssignPartner(ctx context.Context, req PlanRequest, reason string) (*Plan, error) {
	if req.PartnerOverride == nil {
		return nil, apperr.InvalidInput("routing.AssignPartner", "partner_id is required")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, apperr.InvalidInput("routing.AssignPartner", "reason is required for manual assignment")
	}
	plan, err := s.planner.Plan(ctx, req)
	if err != nil {
		return nil, err
	}
	plan.Reason = fmt.Sprintf("Manual override: %s", strings.TrimSpace(reason))
	if err := s.persist(ctx, plan); err != nil {
		return nil, err
	}
	s.logger.Info("partner manually assigned",
		zap.String("order_id", plan.OrderID.String()),
		zap.String("partner_code", plan.Legs[0].PartnerCode),
	)
	return plan, nil
}

func (s *service) RevertPlan(ctx context.Context, plan *Plan, previous *uuid.UUID) error {
	if err := s.repo.UpdatePlanStatus(ctx, plan.ID.String(), PlanOverridden); err != nil {
		return fmt.Errorf("retire plan %s: %w", plan.ID, err)
	}
	if previous == nil || *previous == plan.ID {
		return nil
	}
	if err := s.repo.UpdatePlanStatus(ctx, previous.String(), PlanActive); err != nil {
		return fmt.Errorf("restore plan %s: %w", *previous, err)
	}
	s.logger.Info("plan reverted",
		zap.String("order_id", plan.OrderID.String()),
		zap.String("restored_plan_id", previous.String()),
	)
	return nil
}

func (s *service) persist(ctx context.Context, plan *Plan) error {
	existing, err := s.repo.GetActivePlanByOrderID(ctx, plan.OrderID.String())
	switch {
	case err == nil:
		if err := s.repo.UpdatePlanStatus(ctx, existing.ID.String(), PlanOverridden); err != nil {
			return fmt.Errorf("supersede plan %s: %w", existing.ID, err)
		}
	case !errors.Is(err, ErrPlanNotFound):
		return fmt.Errorf("load active plan: %w", err)
	}
	if err := s.repo.CreatePlan(ctx, plan); err != nil {
		return fmt.Errorf("failed to persist journey plan: %w", err)
	}
	return nil
}

func (s *service) GetPlanByOrderID(ctx context.Context, orderID string) (*Plan, error) {
	plan, err := s.repo.GetActivePlanByOrderID(ctx, orderID)
	if errors.Is(err, ErrPlanNotFound) {
		return nil, apperr.Wrap("routing.GetPlanByOrderID", apperr.CodeNotFound, err, orderID)
	}
	return plan, err
}

func (s *service) ListPlansByOrderID(ctx context.Context, orderID string) ([]*Plan, error) {
	return s.repo.ListPlansByOrderID(ctx, orderID)
}
