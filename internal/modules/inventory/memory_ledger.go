package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type stockKey struct {
	warehouseID uuid.UUID
	sku         string
}

// MemoryLedger keeps stock counters in process behind a single mutex.
type MemoryLedger struct {
	mu     sync.Mutex
	levels map[stockKey]StockLevel
	now    func() time.Time
}

var _ Ledger = (*MemoryLedger)(nil)

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{levels: make(map[stockKey]StockLevel), now: time.Now}
}

func (l *MemoryLedger) Reserve(_ context.Context, warehouseID uuid.UUID, sku string, qty int) (bool, error) {
	if qty <= 0 {
		return false, ErrInvalidQuantity
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	k := stockKey{warehouseID, sku}
	lvl, ok := l.levels[k]
	if !ok || lvl.Available() < qty {
		return false, nil
	}
	lvl.Reserved += qty
	lvl.UpdatedAt = l.now().UTC()
	l.levels[k] = lvl
	return true, nil
}

func (l *MemoryLedger) Release(_ context.Context, warehouseID uuid.UUID, sku string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	k := stockKey{warehouseID, sku}
	lvl := l.levels[k]
	if lvl.Reserved < qty {
		return ErrReleaseExceedsReserved
	}
	lvl.Reserved -= qty
	lvl.UpdatedAt = l.now().UTC()
	l.levels[k] = lvl
	return nil
}

func (l *MemoryLedger) Receive(_ context.Context, warehouseID uuid.UUID, sku string, qty int) (StockLevel, error) {
	if qty <= 0 {
		return StockLevel{}, ErrInvalidQuantity
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	k := stockKey{warehouseID, sku}
	lvl := l.levels[k]
	lvl.WarehouseID, lvl.SKU = warehouseID, sku
	lvl.OnHand += qty
	lvl.UpdatedAt = l.now().UTC()
	l.levels[k] = lvl
	return lvl, nil
}

func (l *MemoryLedger) Level(_ context.Context, warehouseID uuid.UUID, sku string) (StockLevel, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lvl, ok := l.levels[stockKey{warehouseID, sku}]
	if !ok {
		return StockLevel{WarehouseID: warehouseID, SKU: sku}, nil
	}
	return lvl, nil
}
