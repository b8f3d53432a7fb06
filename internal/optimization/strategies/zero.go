// Package strategies provides reference implementations of the protocol's
// Strategy plug-in: a constant baseline, seeded random search and a (1+1)
// hill climber. Each one exercises the same two-method capability the
// protocol depends on.
package strategies

// Zero always proposes the origin of the internal space. It is useful as
// a baseline and in tests where a fully deterministic strategy is needed.
type Zero struct {
	dim int
}

// NewZero creates a Zero strategy of the given dimension.
func NewZero(dim int) *Zero {
	return &Zero{dim: dim}
}

// InternalAsk proposes the origin.
func (z *Zero) InternalAsk() []float64 {
	return make([]float64, z.dim)
}

// InternalTell ignores feedback.
func (z *Zero) InternalTell(data []float64, loss float64) {}
