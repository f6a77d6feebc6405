package allocation

import "github.com/google/uuid"

// hopTracker spends the hop budget of one allocation call. The first ranked location is the
// start and is free; every other distinct location whose stock is read costs one hop, whether
// or not anything is reserved there. The budget is shared across all SKUs of the call.
type hopTracker struct {
	enabled bool
	max     int
	visited map[uuid.UUID]struct{}
	used    int
}

func newHopTracker(cfg Config, start uuid.UUID) *hopTracker {
	h := &hopTracker{enabled: cfg.EnableHopping, max: max(cfg.MaxHops, 0), visited: make(map[uuid.UUID]struct{})}
	if start != uuid.Nil {
		h.visited[start] = struct{}{}
	}
	return h
}

func (h *hopTracker) canVisit(id uuid.UUID) bool {
	if _, ok := h.visited[id]; ok {
		return true
	}
	return h.enabled && h.used < h.max
}

// visit records id as visited and reports whether the budget allowed it.
func (h *hopTracker) visit(id uuid.UUID) bool {
	if !h.canVisit(id) {
		return false
	}
	if _, ok := h.visited[id]; !ok {
		h.visited[id] = struct{}{}
		h.used++
	}
	return true
}
