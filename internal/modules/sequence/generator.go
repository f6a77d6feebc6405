package sequence

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DefaultAWBPrefix is used when no prefix is configured.
const DefaultAWBPrefix = "FX"

// Options configures a Generator.
type Options struct {
	AWBPrefix string
	Clock     func() time.Time
}

// Generator formats human-facing identifiers from a Counter. Sequences reset daily.
type Generator struct {
	counter Counter
	prefix  string
	clock   func() time.Time
}

func NewGenerator(counter Counter, opts Options) *Generator {
	prefix := strings.ToUpper(strings.TrimSpace(opts.AWBPrefix))
	if prefix == "" {
		prefix = DefaultAWBPrefix
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Generator{counter: counter, prefix: prefix, clock: func() time.Time { return clock().UTC() }}
}

// NextAWB returns an air waybill number: prefix, yyyymmdd, then an 8-digit daily sequence.
func (g *Generator) NextAWB(ctx context.Context) (string, error) {
	day := g.clock().Format("20060102")
	seq, err := g.counter.Next(ctx, "awb:"+day)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s%08d", g.prefix, day, seq), nil
}

// NextOrderNumber returns an order number of the form ORD-yyyymmdd-000001.
func (g *Generator) NextOrderNumber(ctx context.Context) (string, error) {
	day := g.clock().Format("20060102")
	seq, err := g.counter.Next(ctx, "orders:"+day)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%s-%06d", day, seq), nil
}
