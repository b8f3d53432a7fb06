package optimization

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := NewValidationError("shapes do not match: %d and %d", 2, 3).
		WithComponent("optimization").WithOperation("Tell")
	assert.Equal(t, "optimization: Tell: shapes do not match: 2 and 3", err.Error())

	bare := NewConfigurationError("budget must be positive")
	assert.Equal(t, "budget must be positive", bare.Error())
}

func TestErrorKinds(t *testing.T) {
	cfg := NewConfigurationError("bad option")
	assert.True(t, errors.Is(cfg, ErrConfiguration))
	assert.False(t, errors.Is(cfg, ErrValidation))

	val := NewValidationError("bad input")
	assert.True(t, errors.Is(val, ErrValidation))
	assert.False(t, errors.Is(val, ErrConfiguration))
}

func TestWrapErrorPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	wrapped := WrapError(cause, "cannot write snapshot").
		WithComponent("optimization").WithOperation("Dump")

	assert.True(t, errors.Is(wrapped, cause))
	assert.Equal(t, "optimization: Dump: cannot write snapshot: disk full", wrapped.Error())

	assert.Nil(t, WrapError(nil, "ignored"))
	assert.Nil(t, WrapErrorf(nil, "ignored %d", 1))
}

func TestWrapErrorKeepsKindVisible(t *testing.T) {
	inner := NewValidationError("bad loss")
	outer := WrapError(inner, "tell failed")
	assert.True(t, errors.Is(outer, ErrValidation))
}

func TestIsOptimizationError(t *testing.T) {
	err := NewValidationError("bad input")
	found, ok := IsOptimizationError(fmt.Errorf("outer: %w", err))
	require.True(t, ok)
	assert.Equal(t, err, found)

	_, ok = IsOptimizationError(fmt.Errorf("plain"))
	assert.False(t, ok)

	_, ok = IsOptimizationError(nil)
	assert.False(t, ok)
}
