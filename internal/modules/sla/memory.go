package sla

import (
	"context"
	"sync"

	"github.com/georgemunganga/fulfillment-engine/internal/modules/zone"
)

type memoryKey struct {
	tier  Tier
	class zone.RouteClass
}

// MemoryRepository is an in-process OverrideRepository.
type MemoryRepository struct {
	mu        sync.RWMutex
	overrides map[memoryKey]Override
}

var _ OverrideRepository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{overrides: make(map[memoryKey]Override)}
}

func (r *MemoryRepository) GetOverride(_ context.Context, tier Tier, class zone.RouteClass) (*Override, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.overrides[memoryKey{tier, class}]
	if !ok {
		return nil, ErrNoOverride
	}
	return &o, nil
}

func (r *MemoryRepository) UpsertOverride(_ context.Context, o *Override) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[memoryKey{o.Tier, o.RouteClass}] = *o
	return nil
}
