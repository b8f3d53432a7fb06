package transforms

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/blackboxopt/asktell/internal/optimization"
)

// Affine is the transform a*x + b.
type Affine struct {
	a, b float64
	name string
}

// NewAffine creates an affine transform. The scale factor a must be
// non-zero to prevent information loss.
func NewAffine(a, b float64) (*Affine, error) {
	if a == 0 {
		return nil, optimization.NewConfigurationError(
			"scale factor must be non-zero to prevent information loss").
			WithComponent("transforms").WithOperation("NewAffine")
	}
	return &Affine{
		a:    a,
		b:    b,
		name: fmt.Sprintf("Af(%s,%s)", fmtValue(a), fmtValue(b)),
	}, nil
}

// Name returns the transform identifier.
func (t *Affine) Name() string { return t.name }

// Forward computes a*x + b elementwise.
func (t *Affine) Forward(x []float64) ([]float64, error) {
	out := make([]float64, len(x))
	copy(out, x)
	floats.Scale(t.a, out)
	floats.AddConst(t.b, out)
	return out, nil
}

// Backward computes (y - b) / a elementwise.
func (t *Affine) Backward(y []float64) ([]float64, error) {
	out := make([]float64, len(y))
	copy(out, y)
	floats.AddConst(-t.b, out)
	floats.Scale(1/t.a, out)
	return out, nil
}

// Exponentiate is the transform base**(coeff*x), useful for
// logarithmically distributed values such as 10**(-[1, 2, 3]).
type Exponentiate struct {
	base, coeff float64
	name        string
}

// NewExponentiate creates an exponentiation transform. The base must be
// positive and not 1, and the coefficient non-zero, for the backward map
// to exist.
func NewExponentiate(base, coeff float64) (*Exponentiate, error) {
	if base <= 0 || base == 1 {
		return nil, optimization.NewConfigurationError(
			"base must be positive and different from 1, got %v", base).
			WithComponent("transforms").WithOperation("NewExponentiate")
	}
	if coeff == 0 {
		return nil, optimization.NewConfigurationError(
			"coefficient must be non-zero to prevent information loss").
			WithComponent("transforms").WithOperation("NewExponentiate")
	}
	return &Exponentiate{
		base:  base,
		coeff: coeff,
		name:  fmt.Sprintf("Ex(%s,%s)", fmtValue(base), fmtValue(coeff)),
	}, nil
}

// Name returns the transform identifier.
func (t *Exponentiate) Name() string { return t.name }

// Forward computes base**(coeff*x) elementwise.
func (t *Exponentiate) Forward(x []float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Pow(t.base, t.coeff*v)
	}
	return out, nil
}

// Backward computes log(y) / (coeff*log(base)) elementwise. All inputs
// must be strictly positive.
func (t *Exponentiate) Backward(y []float64) ([]float64, error) {
	out := make([]float64, len(y))
	for i, v := range y {
		if v <= 0 {
			return nil, optimization.NewValidationError(
				"only positive data can be transformed back, got %v", v).
				WithComponent("transforms").WithOperation("Exponentiate.Backward")
		}
		out[i] = math.Log(v) / (t.coeff * math.Log(t.base))
	}
	return out, nil
}
