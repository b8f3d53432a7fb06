package strategies

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blackboxopt/asktell/internal/optimization"
)

func shiftedSphere(args []float64) float64 {
	total := 0.0
	for _, v := range args {
		total += (v - 1) * (v - 1)
	}
	return total
}

func TestZeroProposesOrigin(t *testing.T) {
	z := NewZero(3)
	for i := 0; i < 5; i++ {
		assert.Equal(t, []float64{0, 0, 0}, z.InternalAsk())
	}
	z.InternalTell([]float64{0, 0, 0}, 12.0)
	assert.Equal(t, []float64{0, 0, 0}, z.InternalAsk(), "feedback changes nothing")
}

func TestRandomSearchIsSeeded(t *testing.T) {
	a := NewRandomSearch(2, 1.0, 42)
	b := NewRandomSearch(2, 1.0, 42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.InternalAsk(), b.InternalAsk(), "same seed, same proposals")
	}

	other := NewRandomSearch(2, 1.0, 7)
	assert.NotEqual(t, a.InternalAsk(), other.InternalAsk())
}

func TestRandomSearchStateRoundtrip(t *testing.T) {
	original := NewRandomSearch(1, 2.5, 99)
	original.InternalAsk()
	original.InternalAsk()

	state, err := original.MarshalState()
	require.NoError(t, err)

	restored := NewRandomSearch(1, 0, 0)
	require.NoError(t, restored.UnmarshalState(state))

	// Restoring reseeds, so the restored instance replays from the start.
	fresh := NewRandomSearch(1, 2.5, 99)
	for i := 0; i < 5; i++ {
		assert.Equal(t, fresh.InternalAsk(), restored.InternalAsk())
	}
}

func TestOnePlusOneAsksOriginFirst(t *testing.T) {
	o := NewOnePlusOne(2, 1.0, 1, nil)
	assert.Equal(t, []float64{0, 0}, o.InternalAsk())
	// Still the origin until something has been told.
	assert.Equal(t, []float64{0, 0}, o.InternalAsk())

	o.InternalTell([]float64{0, 0}, 5.0)
	mutated := o.InternalAsk()
	assert.NotEqual(t, []float64{0, 0}, mutated, "mutations start once an incumbent exists")
}

func TestOnePlusOneAdaptsSigma(t *testing.T) {
	o := NewOnePlusOne(1, 1.0, 1, nil)

	o.InternalTell([]float64{0}, 10.0)
	afterSuccess := o.sigma
	assert.Equal(t, 1.5, afterSuccess, "success grows the step")

	o.InternalTell([]float64{2}, 50.0)
	assert.Equal(t, afterSuccess*0.9, o.sigma, "failure shrinks the step")

	// A strictly better point moves the incumbent.
	o.InternalTell([]float64{0.5}, 2.0)
	assert.Equal(t, []float64{0.5}, o.incumbent)
	assert.Equal(t, 2.0, o.bestLoss)

	// An equal loss is not an improvement.
	o.InternalTell([]float64{0.9}, 2.0)
	assert.Equal(t, []float64{0.5}, o.incumbent)
}

func TestOnePlusOneConvergesOnShiftedSphere(t *testing.T) {
	instrumentation, err := optimization.NewInstrumentation(1)
	require.NoError(t, err)
	strategy := NewOnePlusOne(1, 1.0, 12, zap.NewNop())
	p, err := optimization.NewProtocol(instrumentation, strategy, optimization.Settings{})
	require.NoError(t, err)

	rec, err := p.Minimize(context.Background(), shiftedSphere, optimization.MinimizeOptions{Budget: 100})
	require.NoError(t, err)
	require.NotNil(t, rec.Loss)
	assert.InDelta(t, 1.0, rec.Args[0], 0.01, "100 evals on a 1-d quadratic land within 0.01")
	assert.Less(t, *rec.Loss, 1e-4)
	assert.Equal(t, 100, p.NumTell())
}

func TestOnePlusOneBeatsZeroBaseline(t *testing.T) {
	run := func(strategy optimization.Strategy) float64 {
		instrumentation, err := optimization.NewInstrumentation(1)
		require.NoError(t, err)
		p, err := optimization.NewProtocol(instrumentation, strategy, optimization.Settings{})
		require.NoError(t, err)
		rec, err := p.Minimize(context.Background(), shiftedSphere, optimization.MinimizeOptions{Budget: 100})
		require.NoError(t, err)
		require.NotNil(t, rec.Loss)
		return *rec.Loss
	}

	zeroLoss := run(NewZero(1))
	assert.Equal(t, 1.0, zeroLoss, "the origin scores (0-1)^2")

	hillLoss := run(NewOnePlusOne(1, 1.0, 3, nil))
	assert.Less(t, hillLoss, zeroLoss)
}

func TestOnePlusOneStateRoundtrip(t *testing.T) {
	o := NewOnePlusOne(2, 1.0, 7, nil)
	o.InternalTell([]float64{0, 0}, 4.0)
	o.InternalTell([]float64{0.5, -0.5}, 1.0)

	state, err := o.MarshalState()
	require.NoError(t, err)

	restored := NewOnePlusOne(2, 0, 0, nil)
	require.NoError(t, restored.UnmarshalState(state))

	assert.Equal(t, o.sigma, restored.sigma)
	assert.Equal(t, o.incumbent, restored.incumbent)
	assert.Equal(t, o.bestLoss, restored.bestLoss)
	assert.True(t, restored.hasBest)

	// The restored climber keeps improving from the incumbent.
	next := restored.InternalAsk()
	assert.Len(t, next, 2)
	assert.False(t, math.IsNaN(next[0]))
}

func TestDefaultRegistry(t *testing.T) {
	registry, err := DefaultRegistry(zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"OnePlusOne", "RandomSearch", "Zero"}, registry.Names())

	family, ok := registry.Lookup("OnePlusOne")
	require.True(t, ok)

	instrumentation, err := optimization.NewInstrumentation(2)
	require.NoError(t, err)
	p, err := family.New(instrumentation, optimization.Settings{Budget: 10})
	require.NoError(t, err)
	assert.Contains(t, p.String(), "OnePlusOne()")
}

func TestFamilyOptionsFlowThrough(t *testing.T) {
	family := RandomSearchFamily(optimization.Options{"sigma": 0.5, "seed": int64(11)})
	assert.Equal(t, "RandomSearch(seed=11,sigma=0.5)", family.String())

	instrumentation, err := optimization.NewInstrumentation(1)
	require.NoError(t, err)
	p, err := family.New(instrumentation, optimization.Settings{Budget: 5})
	require.NoError(t, err)
	assert.Contains(t, p.String(), "RandomSearch(seed=11,sigma=0.5)")
}
