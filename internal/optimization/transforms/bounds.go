package transforms

import (
	"fmt"
	"math"

	"github.com/blackboxopt/asktell/internal/optimization"
)

// bounds holds the shared elementwise bound bookkeeping for the
// bound-based transforms. A length-1 bound broadcasts over inputs of any
// length; otherwise input length must match the bound length exactly.
type bounds struct {
	min, max []float64 // nil means the bound is absent (Clipping only)
	shape    int
}

func newBounds(aMin, aMax []float64, op string) (bounds, error) {
	if aMin == nil && aMax == nil {
		return bounds{}, optimization.NewConfigurationError(
			"at least one bound must be specified").
			WithComponent("transforms").WithOperation(op)
	}
	if aMin != nil && aMax != nil {
		if len(aMin) != len(aMax) {
			return bounds{}, optimization.NewConfigurationError(
				"bound lengths do not match: %d and %d", len(aMin), len(aMax)).
				WithComponent("transforms").WithOperation(op)
		}
		for i := range aMin {
			if aMin[i] >= aMax[i] {
				return bounds{}, optimization.NewConfigurationError(
					"lower bounds %v should be strictly smaller than upper bounds %v",
					aMin, aMax).
					WithComponent("transforms").WithOperation(op)
			}
		}
	}
	b := bounds{min: copyVec(aMin), max: copyVec(aMax)}
	if b.min != nil {
		b.shape = len(b.min)
	} else {
		b.shape = len(b.max)
	}
	return b, nil
}

// checkShape rejects inputs whose length differs from the bound shape,
// unless the shape is the broadcastable singleton.
func (b bounds) checkShape(x []float64, op string) error {
	if b.shape != 1 && len(x) != b.shape {
		return optimization.NewValidationError(
			"shapes do not match: %d and %d", b.shape, len(x)).
			WithComponent("transforms").WithOperation(op)
	}
	return nil
}

// at returns the bound value for position i, broadcasting singletons.
func at(bound []float64, i int) float64 {
	if len(bound) == 1 {
		return bound[0]
	}
	return bound[i]
}

// inRange reports whether y is within [min, max] elementwise, treating
// absent bounds as infinite.
func (b bounds) inRange(y []float64) bool {
	for i, v := range y {
		if b.min != nil && v < at(b.min, i) {
			return false
		}
		if b.max != nil && v > at(b.max, i) {
			return false
		}
	}
	return true
}

func copyVec(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

// TanhBound maps all real values into [min, max] using tanh.
// Beware, tanh goes very fast to its limits.
type TanhBound struct {
	bounds
	mid, halfRange []float64
	name           string
}

// NewTanhBound creates a tanh bound transform. Both bounds are required
// and must satisfy min < max elementwise.
func NewTanhBound(aMin, aMax []float64) (*TanhBound, error) {
	const op = "NewTanhBound"
	if aMin == nil || aMax == nil {
		return nil, optimization.NewConfigurationError("both bounds must be specified").
			WithComponent("transforms").WithOperation(op)
	}
	b, err := newBounds(aMin, aMax, op)
	if err != nil {
		return nil, err
	}
	t := &TanhBound{
		bounds: b,
		name:   fmt.Sprintf("Th(%s,%s)", fmtBound(aMin), fmtBound(aMax)),
	}
	t.mid = make([]float64, b.shape)
	t.halfRange = make([]float64, b.shape)
	for i := 0; i < b.shape; i++ {
		t.mid[i] = 0.5 * (b.max[i] + b.min[i])
		t.halfRange[i] = 0.5 * (b.max[i] - b.min[i])
	}
	return t, nil
}

// Name returns the transform identifier.
func (t *TanhBound) Name() string { return t.name }

// Forward computes mid + halfRange*tanh(x) elementwise.
func (t *TanhBound) Forward(x []float64) ([]float64, error) {
	if err := t.checkShape(x, "TanhBound.Forward"); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = at(t.mid, i) + at(t.halfRange, i)*math.Tanh(v)
	}
	return out, nil
}

// Backward computes arctanh of the normalized input. Values outside
// [min, max] are rejected since the bounds lead to infinity.
func (t *TanhBound) Backward(y []float64) ([]float64, error) {
	const op = "TanhBound.Backward"
	if err := t.checkShape(y, op); err != nil {
		return nil, err
	}
	if !t.inRange(y) {
		return nil, optimization.NewValidationError(
			"only data between %v and %v can be transformed back (bounds lead to infinity)",
			t.min, t.max).
			WithComponent("transforms").WithOperation(op)
	}
	out := make([]float64, len(y))
	for i, v := range y {
		out[i] = math.Atanh((v - at(t.mid, i)) / at(t.halfRange, i))
	}
	return out, nil
}

// ArctanBound maps all real values into [min, max] using arctan.
// This is a much softer approach compared to tanh.
type ArctanBound struct {
	bounds
	mid, scale []float64
	name       string
}

// NewArctanBound creates an arctan bound transform. Both bounds are
// required and must satisfy min < max elementwise.
func NewArctanBound(aMin, aMax []float64) (*ArctanBound, error) {
	const op = "NewArctanBound"
	if aMin == nil || aMax == nil {
		return nil, optimization.NewConfigurationError("both bounds must be specified").
			WithComponent("transforms").WithOperation(op)
	}
	b, err := newBounds(aMin, aMax, op)
	if err != nil {
		return nil, err
	}
	t := &ArctanBound{
		bounds: b,
		name:   fmt.Sprintf("At(%s,%s)", fmtBound(aMin), fmtBound(aMax)),
	}
	t.mid = make([]float64, b.shape)
	t.scale = make([]float64, b.shape)
	for i := 0; i < b.shape; i++ {
		t.mid[i] = 0.5 * (b.max[i] + b.min[i])
		t.scale[i] = (b.max[i] - b.min[i]) / math.Pi
	}
	return t, nil
}

// Name returns the transform identifier.
func (t *ArctanBound) Name() string { return t.name }

// Forward computes mid + (range/pi)*arctan(x) elementwise.
func (t *ArctanBound) Forward(x []float64) ([]float64, error) {
	if err := t.checkShape(x, "ArctanBound.Forward"); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = at(t.mid, i) + at(t.scale, i)*math.Atan(v)
	}
	return out, nil
}

// Backward computes tan of the normalized input. Values outside
// [min, max] are rejected.
func (t *ArctanBound) Backward(y []float64) ([]float64, error) {
	const op = "ArctanBound.Backward"
	if err := t.checkShape(y, op); err != nil {
		return nil, err
	}
	if !t.inRange(y) {
		return nil, optimization.NewValidationError(
			"only data between %v and %v can be transformed back", t.min, t.max).
			WithComponent("transforms").WithOperation(op)
	}
	out := make([]float64, len(y))
	for i, v := range y {
		out[i] = math.Tan((v - at(t.mid, i)) / at(t.scale, i))
	}
	return out, nil
}

// Clipping bounds all real values into [min, max] by clipping. The
// forward map is lossy (non-injective) by design; the backward map is the
// identity on already-valid data.
type Clipping struct {
	bounds
	name string
}

// NewClipping creates a clipping transform. Either bound may be omitted
// (nil), but not both.
func NewClipping(aMin, aMax []float64) (*Clipping, error) {
	b, err := newBounds(aMin, aMax, "NewClipping")
	if err != nil {
		return nil, err
	}
	return &Clipping{
		bounds: b,
		name:   fmt.Sprintf("Cl(%s,%s)", fmtBound(aMin), fmtBound(aMax)),
	}, nil
}

// Name returns the transform identifier.
func (t *Clipping) Name() string { return t.name }

// Forward clips x into [min, max] elementwise.
func (t *Clipping) Forward(x []float64) ([]float64, error) {
	if err := t.checkShape(x, "Clipping.Forward"); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, v := range x {
		if t.min != nil && v < at(t.min, i) {
			v = at(t.min, i)
		}
		if t.max != nil && v > at(t.max, i) {
			v = at(t.max, i)
		}
		out[i] = v
	}
	return out, nil
}

// Backward validates that y already lies within the bounds and returns a
// copy unchanged.
func (t *Clipping) Backward(y []float64) ([]float64, error) {
	const op = "Clipping.Backward"
	if err := t.checkShape(y, op); err != nil {
		return nil, err
	}
	if !t.inRange(y) {
		return nil, optimization.NewValidationError(
			"only data between %v and %v can be transformed back", t.min, t.max).
			WithComponent("transforms").WithOperation(op)
	}
	return copyVec(y), nil
}
