// Package transforms provides bijective (and intentionally lossy) numeric
// mappings between the optimizer's unconstrained internal space and
// bounded external parameter domains.
//
// Every transform implements Forward and Backward such that
// Backward(Forward(x)) == x on the transform's valid domain, except
// Clipping, which is documented as non-injective. Each transform carries a
// short deterministic name computed from its constructor arguments, used
// for reproducible representations.
package transforms

import (
	"strconv"
	"strings"
)

// Transform maps vectors between the internal and external spaces.
// Implementations are pure: no mutable state across Forward/Backward calls
// besides the fixed parameters set at construction.
type Transform interface {
	// Name returns a short deterministic identifier, e.g. "Th(-1,1)".
	Name() string

	// Forward maps internal data to the external domain.
	Forward(x []float64) ([]float64, error)

	// Backward maps external data back to the internal space.
	Backward(y []float64) ([]float64, error)
}

// Reverted swaps the direction of an existing transform.
type Reverted struct {
	inner Transform
}

// Revert returns a transform whose Forward is the inner Backward and
// vice versa. Reverting twice restores the original behavior (though not
// the original name).
func Revert(t Transform) *Reverted {
	return &Reverted{inner: t}
}

// Name returns "Rv(<inner name>)".
func (r *Reverted) Name() string {
	return "Rv(" + r.inner.Name() + ")"
}

// Forward applies the inner transform's Backward.
func (r *Reverted) Forward(x []float64) ([]float64, error) {
	return r.inner.Backward(x)
}

// Backward applies the inner transform's Forward.
func (r *Reverted) Backward(y []float64) ([]float64, error) {
	return r.inner.Forward(y)
}

// fmtValue renders a float the way it was written, for transform names.
func fmtValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// fmtBound renders a bound vector for transform names: a single element
// renders as a bare number, longer vectors as a bracketed list.
func fmtBound(b []float64) string {
	if b == nil {
		return "nil"
	}
	if len(b) == 1 {
		return fmtValue(b[0])
	}
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmtValue(v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
