package inventory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryWarehouseRepository is an in-process WarehouseRepository.
type MemoryWarehouseRepository struct {
	mu         sync.RWMutex
	warehouses map[uuid.UUID]Warehouse
}

var _ WarehouseRepository = (*MemoryWarehouseRepository)(nil)

func NewMemoryWarehouseRepository() *MemoryWarehouseRepository {
	return &MemoryWarehouseRepository{warehouses: make(map[uuid.UUID]Warehouse)}
}

func (r *MemoryWarehouseRepository) CreateWarehouse(_ context.Context, w *Warehouse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.warehouses {
		if existing.Code == w.Code {
			return ErrDuplicateWarehouse
		}
	}
	now := time.Now().UTC()
	w.CreatedAt, w.UpdatedAt = now, now
	r.warehouses[w.ID] = *w
	return nil
}

func (r *MemoryWarehouseRepository) GetWarehouseByID(_ context.Context, id string) (*Warehouse, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrWarehouseNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.warehouses[uid]
	if !ok {
		return nil, ErrWarehouseNotFound
	}
	return &w, nil
}

func (r *MemoryWarehouseRepository) ListWarehouses(_ context.Context, activeOnly bool) ([]*Warehouse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Warehouse
	for _, w := range r.warehouses {
		w := w
		if activeOnly && !w.IsActive {
			continue
		}
		out = append(out, &w)
	}
	slices.SortFunc(out, func(a, b *Warehouse) int {
		if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.Code, b.Code)
	})
	return out, nil
}

func (r *MemoryWarehouseRepository) SetActive(_ context.Context, id string, active bool) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrWarehouseNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.warehouses[uid]
	if !ok {
		return ErrWarehouseNotFound
	}
	w.IsActive = active
	w.UpdatedAt = time.Now().UTC()
	r.warehouses[uid] = w
	return nil
}
