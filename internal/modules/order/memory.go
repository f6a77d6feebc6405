package order

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps orders in process.
type MemoryRepository struct {
	mu       sync.RWMutex
	orders   map[uuid.UUID]*Order
	byNumber map[string]uuid.UUID
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orders:   make(map[uuid.UUID]*Order),
		byNumber: make(map[string]uuid.UUID),
	}
}

func (r *MemoryRepository) CreateOrder(_ context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = cloneOrder(o)
	r.byNumber[o.OrderNumber] = o.ID
	return nil
}

func (r *MemoryRepository) GetOrderByID(_ context.Context, id string) (*Order, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[uid]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r *MemoryRepository) GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	r.mu.RLock()
	id, ok := r.byNumber[orderNumber]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return r.GetOrderByID(ctx, id.String())
}

func (r *MemoryRepository) ListOrdersByStatus(_ context.Context, status Status) ([]*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Order
	for _, o := range r.orders {
		if o.Status == status {
			out = append(out, cloneOrder(o))
		}
	}
	slices.SortFunc(out, func(a, b *Order) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) UpdateFulfillment(_ context.Context, o *Order, expected Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.orders[o.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Status != expected {
		return ErrStatusConflict
	}
	o.UpdatedAt = time.Now().UTC()
	r.orders[o.ID] = cloneOrder(o)
	return nil
}

func cloneOrder(o *Order) *Order {
	c := *o
	c.Items = make([]*Item, len(o.Items))
	for i, it := range o.Items {
		cp := *it
		c.Items[i] = &cp
	}
	return &c
}
