package sequence

import (
	"context"
	"errors"
)

// ErrInvalidCounter signals an empty counter name.
var ErrInvalidCounter = errors.New("sequence: counter name is required")

// Counter hands out strictly increasing values per name, starting at 1.
type Counter interface {
	Next(ctx context.Context, name string) (int64, error)
}
