package inventory

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Each (warehouse, SKU) is a hash with on_hand and reserved fields.
var (
	reserveScript = redis.NewScript(`
local on_hand = tonumber(redis.call('HGET', KEYS[1], 'on_hand') or '0')
local reserved = tonumber(redis.call('HGET', KEYS[1], 'reserved') or '0')
local qty = tonumber(ARGV[1])
if on_hand - reserved < qty then
  return 0
end
redis.call('HINCRBY', KEYS[1], 'reserved', qty)
return 1
`)

	releaseScript = redis.NewScript(`
local reserved = tonumber(redis.call('HGET', KEYS[1], 'reserved') or '0')
local qty = tonumber(ARGV[1])
if reserved < qty then
  return 0
end
redis.call('HINCRBY', KEYS[1], 'reserved', -qty)
return 1
`)

	receiveScript = redis.NewScript(`
local on_hand = redis.call('HINCRBY', KEYS[1], 'on_hand', tonumber(ARGV[1]))
local reserved = tonumber(redis.call('HGET', KEYS[1], 'reserved') or '0')
if reserved == 0 then
  redis.call('HSET', KEYS[1], 'reserved', 0)
end
return {on_hand, reserved}
`)
)

// RedisLedger keeps stock counters in Redis; scripts make each update atomic.
type RedisLedger struct {
	client *redis.Client
	prefix string
}

var _ Ledger = (*RedisLedger)(nil)

func NewRedisLedger(client *redis.Client, prefix string) *RedisLedger {
	if prefix == "" {
		prefix = "stock"
	}
	return &RedisLedger{client: client, prefix: prefix}
}

func (l *RedisLedger) key(warehouseID uuid.UUID, sku string) string {
	return l.prefix + ":" + warehouseID.String() + ":" + sku
}

func (l *RedisLedger) Reserve(ctx context.Context, warehouseID uuid.UUID, sku string, qty int) (bool, error) {
	if qty <= 0 {
		return false, ErrInvalidQuantity
	}
	ok, err := reserveScript.Run(ctx, l.client, []string{l.key(warehouseID, sku)}, qty).Int()
	if err != nil {
		return false, fmt.Errorf("reserve stock: %w", err)
	}
	return ok == 1, nil
}

func (l *RedisLedger) Release(ctx context.Context, warehouseID uuid.UUID, sku string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	ok, err := releaseScript.Run(ctx, l.client, []string{l.key(warehouseID, sku)}, qty).Int()
	if err != nil {
		return fmt.Errorf("release stock: %w", err)
	}
	if ok != 1 {
		return ErrReleaseExceedsReserved
	}
	return nil
}

func (l *RedisLedger) Receive(ctx context.Context, warehouseID uuid.UUID, sku string, qty int) (StockLevel, error) {
	if qty <= 0 {
		return StockLevel{}, ErrInvalidQuantity
	}
	vals, err := receiveScript.Run(ctx, l.client, []string{l.key(warehouseID, sku)}, qty).Int64Slice()
	if err != nil {
		return StockLevel{}, fmt.Errorf("receive stock: %w", err)
	}
	if len(vals) != 2 {
		return StockLevel{}, fmt.Errorf("receive stock: unexpected reply %v", vals)
	}
	return StockLevel{WarehouseID: warehouseID, SKU: sku, OnHand: int(vals[0]), Reserved: int(vals[1])}, nil
}

func (l *RedisLedger) Level(ctx context.Context, warehouseID uuid.UUID, sku string) (StockLevel, error) {
	lvl := StockLevel{WarehouseID: warehouseID, SKU: sku}
	vals, err := l.client.HMGet(ctx, l.key(warehouseID, sku), "on_hand", "reserved").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return StockLevel{}, fmt.Errorf("stock level: %w", err)
	}
	if lvl.OnHand, err = intField(vals, 0); err != nil {
		return StockLevel{}, err
	}
	if lvl.Reserved, err = intField(vals, 1); err != nil {
		return StockLevel{}, err
	}
	return lvl, nil
}

func intField(vals []interface{}, i int) (int, error) {
	if i >= len(vals) || vals[i] == nil {
		return 0, nil
	}
	s, ok := vals[i].(string)
	if !ok {
		return 0, fmt.Errorf("stock level: unexpected field type %T", vals[i])
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("stock level: %w", err)
	}
	return n, nil
}
