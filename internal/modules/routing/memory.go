package routing

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository keeps plans in process.
type MemoryRepository struct {
	mu    sync.RWMutex
	plans map[uuid.UUID]*Plan
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{plans: make(map[uuid.UUID]*Plan)}
}

func (r *MemoryRepository) CreatePlan(_ context.Context, plan *Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[plan.ID] = clonePlan(plan)
	return nil
}

func (r *MemoryRepository) GetActivePlanByOrderID(ctx context.Context, orderID string) (*Plan, error) {
	plans, _ := r.ListPlansByOrderID(ctx, orderID)
	for _, p := range plans {
		if p.Status == PlanActive {
			return p, nil
		}
	}
	return nil, ErrPlanNotFound
}

func (r *MemoryRepository) ListPlansByOrderID(_ context.Context, orderID string) ([]*Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Plan
	for _, p := range r.plans {
		if p.OrderID.String() == orderID {
			out = append(out, clonePlan(p))
		}
	}
	slices.SortFunc(out, func(a, b *Plan) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) UpdatePlanStatus(_ context.Context, id string, status PlanStatus) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrPlanNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[uid]
	if !ok {
		return ErrPlanNotFound
	}
	p.Status = status
	return nil
}

func clonePlan(p *Plan) *Plan {
	c := *p
	c.Legs = slices.Clone(p.Legs)
	return &c
}
