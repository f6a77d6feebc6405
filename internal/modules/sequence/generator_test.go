package sequence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestGenerator_NextAWB(t *testing.T) {
	now := time.Date(2026, time.October, 17, 9, 30, 0, 0, time.UTC)
	g := NewGenerator(NewMemoryCounter(), Options{AWBPrefix: "fx", Clock: fixedClock(now)})
	ctx := context.Background()

	first, err := g.NextAWB(ctx)
	require.NoError(t, err)
	second, err := g.NextAWB(ctx)
	require.NoError(t, err)

	assert.Equal(t, "FX2026101700000001", first)
	assert.Equal(t, "FX2026101700000002", second)
}

func TestGenerator_SequenceResetsDaily(t *testing.T) {
	counter := NewMemoryCounter()
	day1 := NewGenerator(counter, Options{Clock: fixedClock(time.Date(2026, 10, 17, 23, 0, 0, 0, time.UTC))})
	day2 := NewGenerator(counter, Options{Clock: fixedClock(time.Date(2026, 10, 18, 1, 0, 0, 0, time.UTC))})
	ctx := context.Background()

	_, err := day1.NextAWB(ctx)
	require.NoError(t, err)
	got, err := day2.NextAWB(ctx)
	require.NoError(t, err)
	assert.Equal(t, "FX2026101800000001", got)

	orderNo, err := day2.NextOrderNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ORD-20261018-000001", orderNo)
}

func TestRedisCounter_Next(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c := NewRedisCounter(client, "test", 48*time.Hour)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := c.Next(ctx, "awb:20261017")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.True(t, mr.TTL("test:awb:20261017") > 0)

	_, err := c.Next(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidCounter)
}

func TestMemoryCounter_ConcurrentUnique(t *testing.T) {
	c := NewMemoryCounter()
	seen := make(chan int64, 100)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Next(context.Background(), "x")
			if err == nil {
				seen <- v
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[int64]struct{}{}
	for v := range seen {
		unique[v] = struct{}{}
	}
	assert.Len(t, unique, 100)
}
