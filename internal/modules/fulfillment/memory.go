package fulfillment

import (
	"context"
	"sync"
)

// MemoryDecisionRepository keeps decisions in process.
type MemoryDecisionRepository struct {
	mu      sync.RWMutex
	byOrder map[string][]Decision
}

var _ DecisionRepository = (*MemoryDecisionRepository)(nil)

func NewMemoryDecisionRepository() *MemoryDecisionRepository {
	return &MemoryDecisionRepository{byOrder: make(map[string][]Decision)}
}

func (r *MemoryDecisionRepository) SaveDecision(_ context.Context, d *Decision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := d.OrderID.String()
	r.byOrder[key] = append(r.byOrder[key], *d)
	return nil
}

func (r *MemoryDecisionRepository) GetLatestDecision(_ context.Context, orderID string) (*Decision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ds := r.byOrder[orderID]
	if len(ds) == 0 {
		return nil, ErrDecisionNotFound
	}
	d := ds[len(ds)-1]
	return &d, nil
}
