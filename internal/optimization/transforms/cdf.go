package transforms

import (
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/blackboxopt/asktell/internal/optimization"
)

// CumulativeDensity bounds all real values into [0, 1] using the standard
// normal cumulative density function. Beware, the cdf goes very fast to
// its limits.
type CumulativeDensity struct{}

// NewCumulativeDensity creates a standard normal cdf transform.
func NewCumulativeDensity() *CumulativeDensity {
	return &CumulativeDensity{}
}

// Name returns the transform identifier.
func (t *CumulativeDensity) Name() string { return "Cd()" }

// Forward computes the standard normal cdf elementwise.
func (t *CumulativeDensity) Forward(x []float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = distuv.UnitNormal.CDF(v)
	}
	return out, nil
}

// Backward computes the standard normal quantile elementwise. Values
// outside [0, 1] are rejected since the bounds lead to infinity.
func (t *CumulativeDensity) Backward(y []float64) ([]float64, error) {
	out := make([]float64, len(y))
	for i, v := range y {
		if v < 0 || v > 1 {
			return nil, optimization.NewValidationError(
				"only data between 0 and 1 can be transformed back (bounds lead to infinity)").
				WithComponent("transforms").WithOperation("CumulativeDensity.Backward")
		}
		out[i] = distuv.UnitNormal.Quantile(v)
	}
	return out, nil
}
