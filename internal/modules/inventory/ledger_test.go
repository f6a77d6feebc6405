package inventory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ledgers(t *testing.T) map[string]Ledger {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return map[string]Ledger{
		"memory": NewMemoryLedger(),
		"redis":  NewRedisLedger(client, "test-stock"),
	}
}

func TestLedger_ReserveIsConditional(t *testing.T) {
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			wh := uuid.New()

			ok, err := l.Reserve(ctx, wh, "SKU-1", 1)
			require.NoError(t, err)
			assert.False(t, ok, "unknown row has nothing available")

			lvl, err := l.Receive(ctx, wh, "SKU-1", 10)
			require.NoError(t, err)
			assert.Equal(t, 10, lvl.OnHand)
			assert.Equal(t, 0, lvl.Reserved)

			ok, err = l.Reserve(ctx, wh, "SKU-1", 7)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = l.Reserve(ctx, wh, "SKU-1", 4)
			require.NoError(t, err)
			assert.False(t, ok)

			lvl, err = l.Level(ctx, wh, "SKU-1")
			require.NoError(t, err)
			assert.Equal(t, 7, lvl.Reserved, "failed reserve must not change counters")
			assert.Equal(t, 3, lvl.Available())
		})
	}
}

func TestLedger_Release(t *testing.T) {
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			wh := uuid.New()
			_, err := l.Receive(ctx, wh, "SKU-2", 5)
			require.NoError(t, err)
			ok, err := l.Reserve(ctx, wh, "SKU-2", 5)
			require.NoError(t, err)
			require.True(t, ok)

			require.NoError(t, l.Release(ctx, wh, "SKU-2", 3))
			assert.ErrorIs(t, l.Release(ctx, wh, "SKU-2", 3), ErrReleaseExceedsReserved)

			lvl, err := l.Level(ctx, wh, "SKU-2")
			require.NoError(t, err)
			assert.Equal(t, 2, lvl.Reserved)
			assert.Equal(t, 5, lvl.OnHand)
		})
	}
}

func TestLedger_RejectsNonPositiveQuantity(t *testing.T) {
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := l.Reserve(ctx, uuid.New(), "SKU", 0)
			assert.ErrorIs(t, err, ErrInvalidQuantity)
			_, err = l.Receive(ctx, uuid.New(), "SKU", -1)
			assert.ErrorIs(t, err, ErrInvalidQuantity)
			assert.ErrorIs(t, l.Release(ctx, uuid.New(), "SKU", 0), ErrInvalidQuantity)
		})
	}
}

func TestLedger_ConcurrentReserveNeverOversells(t *testing.T) {
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			wh := uuid.New()
			_, err := l.Receive(ctx, wh, "HOT", 10)
			require.NoError(t, err)

			var wins atomic.Int64
			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ok, err := l.Reserve(ctx, wh, "HOT", 1)
					if err == nil && ok {
						wins.Add(1)
					}
				}()
			}
			wg.Wait()

			assert.EqualValues(t, 10, wins.Load())
			lvl, err := l.Level(ctx, wh, "HOT")
			require.NoError(t, err)
			assert.Equal(t, 10, lvl.Reserved)
			assert.Equal(t, 0, lvl.Available())
		})
	}
}
