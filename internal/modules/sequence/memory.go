package sequence

import (
	"context"
	"sync"
)

// MemoryCounter is an in-process Counter.
type MemoryCounter struct {
	mu     sync.Mutex
	values map[string]int64
}

var _ Counter = (*MemoryCounter)(nil)

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{values: make(map[string]int64)}
}

func (c *MemoryCounter) Next(_ context.Context, name string) (int64, error) {
	if name == "" {
		return 0, ErrInvalidCounter
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[name]++
	return c.values[name], nil
}
