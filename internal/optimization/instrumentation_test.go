package optimization

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// doubling is a trivial transform for exercising the encode/decode paths
// without depending on the transforms subpackage.
type doubling struct{}

func (doubling) Name() string { return "Db()" }

func (doubling) Forward(x []float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = 2 * v
	}
	return out, nil
}

func (doubling) Backward(y []float64) ([]float64, error) {
	out := make([]float64, len(y))
	for i, v := range y {
		out[i] = v / 2
	}
	return out, nil
}

func TestNewInstrumentationValidation(t *testing.T) {
	for _, dim := range []int{0, -1} {
		_, err := NewInstrumentation(dim)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrConfiguration))
	}

	in, err := NewInstrumentation(3)
	require.NoError(t, err)
	assert.Equal(t, 3, in.Dimension())
}

func TestSetTransformBounds(t *testing.T) {
	in, err := NewInstrumentation(2)
	require.NoError(t, err)

	require.NoError(t, in.SetTransform(0, doubling{}))
	assert.Error(t, in.SetTransform(-1, doubling{}))
	assert.Error(t, in.SetTransform(2, doubling{}))
}

func TestFromDataAppliesForward(t *testing.T) {
	in, err := NewInstrumentation(2)
	require.NoError(t, err)
	require.NoError(t, in.SetTransform(0, doubling{}))

	candidate, err := in.FromData([]float64{3, 5})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 5}, candidate.Data)
	assert.Equal(t, []float64{6, 5}, candidate.Args, "transformed variable doubles, identity passes through")

	_, err = in.FromData([]float64{1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestDataFromAppliesBackward(t *testing.T) {
	in, err := NewInstrumentation(2)
	require.NoError(t, err)
	require.NoError(t, in.SetTransform(0, doubling{}))

	data, err := in.DataFrom([]float64{6, 5})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 5}, data)

	_, err = in.DataFrom([]float64{1, 2, 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestInstrumentationString(t *testing.T) {
	in, err := NewInstrumentation(2)
	require.NoError(t, err)
	assert.Equal(t, "Instrumentation(2,[-,-])", in.String())

	require.NoError(t, in.SetTransform(1, doubling{}))
	assert.Equal(t, "Instrumentation(2,[-,Db()])", in.String())
}
