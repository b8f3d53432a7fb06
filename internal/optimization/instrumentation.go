package optimization

import (
	"fmt"
	"strings"
)

// Transform maps vectors between the optimizer's unconstrained internal
// space and an external parameter domain. Concrete implementations live
// in the transforms subpackage.
type Transform interface {
	Name() string
	Forward(x []float64) ([]float64, error)
	Backward(y []float64) ([]float64, error)
}

// Instrumentation describes a fixed-dimension parameter space. Each
// scalar variable optionally carries a transform mapping the internal
// value to its bounded external counterpart.
type Instrumentation struct {
	dim        int
	transforms []Transform // nil entry means identity
}

// NewInstrumentation creates an instrumentation with dim unbounded
// variables.
func NewInstrumentation(dim int) (*Instrumentation, error) {
	if dim < 1 {
		return nil, NewConfigurationError("dimension must be at least 1, got %d", dim).
			WithComponent("optimization").WithOperation("NewInstrumentation")
	}
	return &Instrumentation{
		dim:        dim,
		transforms: make([]Transform, dim),
	}, nil
}

// SetTransform binds a transform to variable i.
func (in *Instrumentation) SetTransform(i int, t Transform) error {
	if i < 0 || i >= in.dim {
		return NewConfigurationError("variable index %d out of range [0,%d)", i, in.dim).
			WithComponent("optimization").WithOperation("SetTransform")
	}
	in.transforms[i] = t
	return nil
}

// Dimension returns the number of variables.
func (in *Instrumentation) Dimension() int { return in.dim }

// FromData decodes an internal representation into a candidate, applying
// each variable's forward transform.
func (in *Instrumentation) FromData(data []float64) (*Candidate, error) {
	if len(data) != in.dim {
		return nil, NewValidationError("shapes do not match: %d and %d", in.dim, len(data)).
			WithComponent("optimization").WithOperation("FromData")
	}
	args := make([]float64, in.dim)
	for i, v := range data {
		if in.transforms[i] == nil {
			args[i] = v
			continue
		}
		out, err := in.transforms[i].Forward([]float64{v})
		if err != nil {
			return nil, err
		}
		args[i] = out[0]
	}
	return NewCandidate(data, args), nil
}

// DataFrom encodes external argument values back into an internal
// representation, applying each variable's backward transform. It fails
// if any value lies outside its transform's valid range.
func (in *Instrumentation) DataFrom(args []float64) ([]float64, error) {
	if len(args) != in.dim {
		return nil, NewValidationError("shapes do not match: %d and %d", in.dim, len(args)).
			WithComponent("optimization").WithOperation("DataFrom")
	}
	data := make([]float64, in.dim)
	for i, v := range args {
		if in.transforms[i] == nil {
			data[i] = v
			continue
		}
		out, err := in.transforms[i].Backward([]float64{v})
		if err != nil {
			return nil, err
		}
		data[i] = out[0]
	}
	return data, nil
}

// String returns a deterministic representation embedding each variable's
// transform name, e.g. "Instrumentation(2,[At(-5,5),-])".
func (in *Instrumentation) String() string {
	names := make([]string, in.dim)
	for i, t := range in.transforms {
		if t == nil {
			names[i] = "-"
		} else {
			names[i] = t.Name()
		}
	}
	return fmt.Sprintf("Instrumentation(%d,[%s])", in.dim, strings.Join(names, ","))
}
