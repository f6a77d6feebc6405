package allocation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/fulfillment-engine/internal/modules/inventory"
	"github.com/georgemunganga/fulfillment-engine/internal/platform/apperr"
	"github.com/georgemunganga/fulfillment-engine/internal/platform/observability"
)

// DefaultReserveRetries bounds how often a lost reservation race is retried at one location.
const DefaultReserveRetries = 3

// LocationSource lists candidate warehouses.
type LocationSource interface {
	ListWarehouses(ctx context.Context, activeOnly bool) ([]*inventory.Warehouse, error)
}

// Options configures an Engine.
type Options struct {
	ReserveRetries int
	Logger         *zap.Logger
}

// Engine reserves stock for orders across warehouses.
type Engine struct {
	locations LocationSource
	ledger    inventory.Ledger
	retries   int
	logger    *zap.Logger
}

func NewEngine(locations LocationSource, ledger inventory.Ledger, opts Options) *Engine {
	retries := opts.ReserveRetries
	if retries <= 0 {
		retries = DefaultReserveRetries
	}
	return &Engine{
		locations: locations,
		ledger:    ledger,
		retries:   retries,
		logger:    observability.OrNop(opts.Logger).Named("allocation"),
	}
}

// Allocate reserves each item across ranked locations.
//
// SKUs are processed in request order and each SKU walks the ranked locations in turn.
// With SplitAllowed, partial reservations stand and the remainder is reported as shortfall.
// Without it a SKU is reserved whole at a single location or not at all. Reading stock at a
// location beyond the first ranked one spends a hop even when nothing is reserved there.
//
// If ctx ends mid-call the reservations already made stand; the partial result is returned
// with the context error so the caller can record or release them.
func (e *Engine) Allocate(ctx context.Context, req Request) (*Result, error) {
	const op = "allocation.Allocate"
	items, err := aggregate(req.Items)
	if err != nil {
		return nil, err
	}

	warehouses, err := e.locations.ListWarehouses(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	ranked, ok := rankLocations(warehouses, req.DestinationPostalCode, req.PreferredLocation)
	if !ok {
		return nil, apperr.InvalidInput(op, "preferred location %s is not an active warehouse", req.PreferredLocation)
	}

	var start uuid.UUID
	if len(ranked) > 0 {
		start = ranked[0].ID
	}
	hops := newHopTracker(req.Config, start)
	result := &Result{Items: make([]ItemResult, 0, len(items))}

	for _, it := range items {
		ir := ItemResult{SKU: it.SKU, Requested: it.Quantity}
		var err error
		if req.Config.SplitAllowed {
			err = e.allocateSplit(ctx, ranked, hops, &ir)
		} else {
			err = e.allocateWhole(ctx, ranked, hops, &ir)
		}
		ir.Shortfall = ir.Requested - ir.Allocated
		result.Items = append(result.Items, ir)
		if err != nil {
			e.finish(result, hops)
			return result, err
		}
	}

	e.finish(result, hops)
	if err := checkInvariants(result, req.Config); err != nil {
		return nil, err
	}

	e.logger.Debug("allocation complete",
		zap.String("order_id", req.OrderID),
		zap.Bool("success", result.Success),
		zap.Bool("split", result.SplitRequired),
		zap.Int("hops_used", result.HopsUsed),
		zap.Int("shortfall", result.Shortfall()),
	)
	return result, nil
}

func (e *Engine) allocateSplit(ctx context.Context, ranked []*inventory.Warehouse, hops *hopTracker, ir *ItemResult) error {
	for _, w := range ranked {
		remaining := ir.Requested - ir.Allocated
		if remaining == 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !hops.visit(w.ID) {
			continue
		}
		n, err := e.reserveAt(ctx, w, ir.SKU, remaining, false)
		if err != nil {
			return err
		}
		if n > 0 {
			ir.Allocated += n
			ir.Contributions = append(ir.Contributions, Contribution{LocationID: w.ID, LocationCode: w.Code, Quantity: n})
		}
	}
	return nil
}

func (e *Engine) allocateWhole(ctx context.Context, ranked []*inventory.Warehouse, hops *hopTracker, ir *ItemResult) error {
	for _, w := range ranked {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !hops.visit(w.ID) {
			continue
		}
		n, err := e.reserveAt(ctx, w, ir.SKU, ir.Requested, true)
		if err != nil {
			return err
		}
		if n == ir.Requested {
			ir.Allocated = n
			ir.Contributions = []Contribution{{LocationID: w.ID, LocationCode: w.Code, Quantity: n}}
			return nil
		}
	}
	return nil
}

// reserveAt reserves up to want units at w, or exactly want when whole is set. A lost race
// re-reads availability and retries a bounded number of times.
func (e *Engine) reserveAt(ctx context.Context, w *inventory.Warehouse, sku string, want int, whole bool) (int, error) {
	for attempt := 0; attempt < e.retries; attempt++ {
		lvl, err := e.ledger.Level(ctx, w.ID, sku)
		if err != nil {
			return 0, fmt.Errorf("read stock %s@%s: %w", sku, w.Code, err)
		}
		avail := lvl.Available()
		if avail <= 0 || (whole && avail < want) {
			return 0, nil
		}
		n := min(avail, want)
		ok, err := e.ledger.Reserve(ctx, w.ID, sku, n)
		if err != nil {
			return 0, fmt.Errorf("reserve %s@%s: %w", sku, w.Code, err)
		}
		if ok {
			return n, nil
		}
		e.logger.Debug("reservation race lost, retrying",
			zap.String("sku", sku), zap.String("warehouse_code", w.Code), zap.Int("attempt", attempt+1))
	}
	return 0, nil
}

func (e *Engine) finish(r *Result, hops *hopTracker) {
	r.HopsUsed = hops.used
	r.Success = true
	for _, it := range r.Items {
		if it.Shortfall > 0 {
			r.Success = false
		}
		if len(it.Contributions) > 1 {
			r.SplitRequired = true
		}
	}
}

// Release returns every contribution of r to available stock.
func (e *Engine) Release(ctx context.Context, r *Result) error {
	if r == nil {
		return nil
	}
	var errs []error
	for _, it := range r.Items {
		for _, c := range it.Contributions {
			if err := e.ledger.Release(ctx, c.LocationID, it.SKU, c.Quantity); err != nil {
				errs = append(errs, fmt.Errorf("release %s@%s: %w", it.SKU, c.LocationCode, err))
			}
		}
	}
	return errors.Join(errs...)
}

func aggregate(items []Item) ([]Item, error) {
	const op = "allocation.Allocate"
	if len(items) == 0 {
		return nil, apperr.InvalidInput(op, "at least one item is required")
	}
	index := make(map[string]int, len(items))
	var out []Item
	for _, it := range items {
		sku := strings.TrimSpace(it.SKU)
		if sku == "" {
			return nil, apperr.InvalidInput(op, "item sku is required")
		}
		if it.Quantity <= 0 {
			return nil, apperr.InvalidInput(op, "quantity for %s must be positive", sku)
		}
		if i, ok := index[sku]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[sku] = len(out)
		out = append(out, Item{SKU: sku, Quantity: it.Quantity})
	}
	return out, nil
}

func checkInvariants(r *Result, cfg Config) error {
	const op = "allocation.checkInvariants"
	for _, it := range r.Items {
		sum := 0
		for _, c := range it.Contributions {
			if c.Quantity <= 0 {
				return apperr.Invariant(op, "%s has a non-positive contribution at %s", it.SKU, c.LocationCode)
			}
			sum += c.Quantity
		}
		switch {
		case sum != it.Allocated:
			return apperr.Invariant(op, "%s contributions sum to %d, allocated %d", it.SKU, sum, it.Allocated)
		case it.Allocated+it.Shortfall != it.Requested:
			return apperr.Invariant(op, "%s allocated %d + shortfall %d != requested %d", it.SKU, it.Allocated, it.Shortfall, it.Requested)
		case it.Allocated > it.Requested || it.Shortfall < 0:
			return apperr.Invariant(op, "%s over-allocated", it.SKU)
		case !cfg.SplitAllowed && len(it.Contributions) > 1:
			return apperr.Invariant(op, "%s split across %d locations with split disallowed", it.SKU, len(it.Contributions))
		}
	}
	limit := 0
	if cfg.EnableHopping {
		limit = max(cfg.MaxHops, 0)
	}
	if r.HopsUsed > limit {
		return apperr.Invariant(op, "used %d hops, limit %d", r.HopsUsed, limit)
	}
	return nil
}
