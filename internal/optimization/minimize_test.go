package optimization

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumOfSquares(args []float64) float64 {
	total := 0.0
	for _, v := range args {
		total += v * v
	}
	return total
}

func TestMinimizeOptionValidation(t *testing.T) {
	p, _ := newTestProtocol(t, 1, Settings{})
	ctx := context.Background()

	_, err := p.Minimize(ctx, nil, MinimizeOptions{Budget: 5})
	require.Error(t, err)

	_, err = p.Minimize(ctx, sumOfSquares, MinimizeOptions{})
	require.Error(t, err, "no budget anywhere")

	_, err = p.Minimize(ctx, sumOfSquares, MinimizeOptions{Budget: -3})
	require.Error(t, err)

	_, err = p.Minimize(ctx, sumOfSquares, MinimizeOptions{Budget: 5, NumWorkers: -1})
	require.Error(t, err)
}

func TestMinimizeSingleWorkerAlternates(t *testing.T) {
	// One worker means strict ask/tell alternation regardless of mode.
	for _, batch := range []bool{false, true} {
		name := "steady"
		if batch {
			name = "batch"
		}
		t.Run(name, func(t *testing.T) {
			p, strategy := newTestProtocol(t, 1, Settings{})
			_, err := p.Minimize(context.Background(), sumOfSquares, MinimizeOptions{
				Budget:    5,
				BatchMode: batch,
			})
			require.NoError(t, err)
			assert.Equal(t, []string{
				"s0", "u0", "s1", "u1", "s2", "u2", "s3", "u3", "s4", "u4",
			}, strategy.log)
		})
	}
}

func TestMinimizeBatchRounds(t *testing.T) {
	// Batch mode is a full barrier: every ask of a round precedes every
	// tell, tells land in ask order, and the last round shrinks to the
	// remaining budget.
	p, strategy := newTestProtocol(t, 1, Settings{})
	_, err := p.Minimize(context.Background(), sumOfSquares, MinimizeOptions{
		Budget:     5,
		NumWorkers: 3,
		BatchMode:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"s0", "s1", "s2", "u0", "u1", "u2",
		"s3", "s4", "u3", "u4",
	}, strategy.log)
	assert.Equal(t, 5, p.NumAsk())
	assert.Equal(t, 5, p.NumTell())
	assert.Equal(t, 0, p.Pending())
}

func TestMinimizeSteadyRefillsSlots(t *testing.T) {
	// Steady mode issues a new ask the moment a slot frees instead of
	// waiting for the whole round. With an inline executor the completions
	// arrive in submission order.
	p, strategy := newTestProtocol(t, 1, Settings{})
	_, err := p.Minimize(context.Background(), sumOfSquares, MinimizeOptions{
		Budget:     5,
		NumWorkers: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"s0", "s1", "s2", "u0", "s3", "u1", "s4", "u2", "u3", "u4",
	}, strategy.log)
	assert.Equal(t, 5, p.NumAsk())
	assert.Equal(t, 5, p.NumTell())
	assert.Equal(t, 0, p.Pending())
}

func TestMinimizeConcurrentExecutor(t *testing.T) {
	// With real goroutines the interleaving is nondeterministic; check the
	// accounting instead: every proposal is told exactly once.
	p, strategy := newTestProtocol(t, 1, Settings{})
	rec, err := p.Minimize(context.Background(), sumOfSquares, MinimizeOptions{
		Budget:     20,
		NumWorkers: 4,
		Executor:   Concurrent(),
	})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 20, p.NumAsk())
	assert.Equal(t, 20, p.NumTell())
	assert.Equal(t, 0, p.Pending())

	var asks, tells []string
	for _, entry := range strategy.log {
		if entry[0] == 's' {
			asks = append(asks, entry)
		} else {
			tells = append(tells, "s"+entry[1:])
		}
	}
	sort.Strings(asks)
	sort.Strings(tells)
	assert.Equal(t, asks, tells, "each ask is told exactly once")
}

func TestMinimizeReturnsRecommendation(t *testing.T) {
	p, _ := newTestProtocol(t, 1, Settings{})
	rec, err := p.Minimize(context.Background(), sumOfSquares, MinimizeOptions{Budget: 4})
	require.NoError(t, err)
	require.NotNil(t, rec.Loss)
	// scriptedStrategy proposes 0, 1, 2, 3; the origin is optimal.
	assert.Equal(t, 0.0, *rec.Loss)
	assert.Equal(t, []float64{0}, rec.Args)
}

func TestMinimizeHonorsCancellation(t *testing.T) {
	p, _ := newTestProtocol(t, 1, Settings{})
	ctx, cancel := context.WithCancel(context.Background())

	evaluated := 0
	objective := func(args []float64) float64 {
		evaluated++
		if evaluated == 3 {
			cancel()
		}
		return sumOfSquares(args)
	}

	_, err := p.Minimize(ctx, objective, MinimizeOptions{Budget: 100})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, p.NumTell(), 100)
}

func TestOptimizeAliasDelegates(t *testing.T) {
	p, strategy := newTestProtocol(t, 1, Settings{})
	rec, err := p.Optimize(context.Background(), sumOfSquares, MinimizeOptions{Budget: 2})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, []string{"s0", "u0", "s1", "u1"}, strategy.log)
}

func TestMinimizeBudgetFallsBackToSettings(t *testing.T) {
	p, _ := newTestProtocol(t, 1, Settings{Budget: 3, NumWorkers: 1})
	_, err := p.Minimize(context.Background(), sumOfSquares, MinimizeOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, p.NumTell())
}

// Deterministic asks mean re-asking the same point; make sure the pending
// bookkeeping survives duplicates.
func TestPendingSurvivesDuplicateAsks(t *testing.T) {
	instrumentation, err := NewInstrumentation(1)
	require.NoError(t, err)
	p, err := NewProtocol(instrumentation, constantStrategy{}, Settings{NumWorkers: 3})
	require.NoError(t, err)

	c1, err := p.Ask()
	require.NoError(t, err)
	c2, err := p.Ask()
	require.NoError(t, err)
	assert.Equal(t, 2, p.Pending())

	require.NoError(t, p.Tell(c1, 1.0))
	assert.Equal(t, 1, p.Pending())
	require.NoError(t, p.Tell(c2, 2.0))
	assert.Equal(t, 0, p.Pending())
}

type constantStrategy struct{}

func (constantStrategy) InternalAsk() []float64                    { return []float64{1} }
func (constantStrategy) InternalTell(data []float64, loss float64) {}
