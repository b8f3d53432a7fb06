package strategies

import (
	"encoding/json"
	"math/rand"
)

// RandomSearch proposes independent gaussian samples scaled by Sigma. It
// learns nothing from tells; the protocol's archive does the best-point
// bookkeeping.
type RandomSearch struct {
	dim   int
	sigma float64
	seed  int64
	rng   *rand.Rand
}

// NewRandomSearch creates a seeded random search of the given dimension.
// Sigma scales the proposals.
func NewRandomSearch(dim int, sigma float64, seed int64) *RandomSearch {
	return &RandomSearch{
		dim:   dim,
		sigma: sigma,
		seed:  seed,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// InternalAsk proposes a gaussian sample.
func (r *RandomSearch) InternalAsk() []float64 {
	data := make([]float64, r.dim)
	for i := range data {
		data[i] = r.sigma * r.rng.NormFloat64()
	}
	return data
}

// InternalTell ignores feedback.
func (r *RandomSearch) InternalTell(data []float64, loss float64) {}

type randomSearchState struct {
	Sigma float64 `json:"sigma"`
	Seed  int64   `json:"seed"`
}

// MarshalState captures the configuration; the generator is reseeded on
// restore.
func (r *RandomSearch) MarshalState() ([]byte, error) {
	return json.Marshal(randomSearchState{Sigma: r.sigma, Seed: r.seed})
}

// UnmarshalState restores configuration and reseeds the generator.
func (r *RandomSearch) UnmarshalState(data []byte) error {
	var state randomSearchState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	r.sigma = state.Sigma
	r.seed = state.Seed
	r.rng = rand.New(rand.NewSource(state.Seed))
	return nil
}
