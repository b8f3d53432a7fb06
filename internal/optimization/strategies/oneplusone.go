package strategies

import (
	"encoding/json"
	"math/rand"

	"go.uber.org/zap"
)

// Step adaptation factors implementing the one-fifth success rule:
// 1.5 * 0.9^4 is close to 1, so the step size is stable at a roughly 20%
// success rate, grows when successes are more frequent and shrinks
// otherwise.
const (
	growFactor   = 1.5
	shrinkFactor = 0.9
)

// OnePlusOne is a (1+1) hill climber: it mutates the incumbent best point
// with gaussian noise and adapts the mutation scale from the success
// rate.
type OnePlusOne struct {
	dim    int
	sigma  float64
	seed   int64
	rng    *rand.Rand
	logger *zap.Logger

	incumbent []float64
	bestLoss  float64
	hasBest   bool
}

// NewOnePlusOne creates a (1+1) strategy of the given dimension starting
// from the origin with mutation scale sigma.
func NewOnePlusOne(dim int, sigma float64, seed int64, logger *zap.Logger) *OnePlusOne {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OnePlusOne{
		dim:    dim,
		sigma:  sigma,
		seed:   seed,
		rng:    rand.New(rand.NewSource(seed)),
		logger: logger.Named("one_plus_one"),
	}
}

// InternalAsk proposes the origin first, then gaussian mutations of the
// incumbent.
func (o *OnePlusOne) InternalAsk() []float64 {
	data := make([]float64, o.dim)
	if !o.hasBest {
		return data
	}
	for i := range data {
		data[i] = o.incumbent[i] + o.sigma*o.rng.NormFloat64()
	}
	return data
}

// InternalTell accepts strictly improving points and adapts the mutation
// scale.
func (o *OnePlusOne) InternalTell(data []float64, loss float64) {
	if !o.hasBest || loss < o.bestLoss {
		o.incumbent = append([]float64(nil), data...)
		o.bestLoss = loss
		o.hasBest = true
		o.sigma *= growFactor
		o.logger.Debug("accepted mutation",
			zap.Float64("loss", loss),
			zap.Float64("sigma", o.sigma),
		)
		return
	}
	o.sigma *= shrinkFactor
}

type onePlusOneState struct {
	Sigma     float64   `json:"sigma"`
	Seed      int64     `json:"seed"`
	Incumbent []float64 `json:"incumbent,omitempty"`
	BestLoss  float64   `json:"best_loss"`
	HasBest   bool      `json:"has_best"`
}

// MarshalState captures the incumbent, loss and mutation scale; the
// generator is reseeded on restore.
func (o *OnePlusOne) MarshalState() ([]byte, error) {
	return json.Marshal(onePlusOneState{
		Sigma:     o.sigma,
		Seed:      o.seed,
		Incumbent: o.incumbent,
		BestLoss:  o.bestLoss,
		HasBest:   o.hasBest,
	})
}

// UnmarshalState restores a captured state.
func (o *OnePlusOne) UnmarshalState(data []byte) error {
	var state onePlusOneState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	o.sigma = state.Sigma
	o.seed = state.Seed
	o.incumbent = state.Incumbent
	o.bestLoss = state.BestLoss
	o.hasBest = state.HasBest
	o.rng = rand.New(rand.NewSource(state.Seed))
	return nil
}
