package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOfWrappedError(t *testing.T) {
	base := Invariant("allocation.verify", "sku %s: contributions %d != allocated %d", "SKU-1", 3, 4)
	wrapped := fmt.Errorf("fulfill order: %w", base)

	assert.Equal(t, CodeInvariant, CodeOf(wrapped))
	assert.True(t, Is(wrapped, CodeInvariant))
	assert.False(t, Is(wrapped, CodeNotFound))
	assert.Equal(t, "allocation.verify: sku SKU-1: contributions 3 != allocated 4", base.Error())
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, CodeUnknown, CodeOf(errors.New("boom")))
	assert.False(t, Is(nil, CodeUnknown))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap("ledger.reserve", CodeUnknown, cause, "reserve stock")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "ledger.reserve: reserve stock: connection refused", err.Error())
}
