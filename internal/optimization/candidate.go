package optimization

import (
	"math"
	"strconv"
	"strings"
)

// Candidate is a point in the search space: the optimizer's internal
// numeric representation paired with its decoded external arguments and,
// once told, the observed loss.
//
// Data and Args are set at creation and must not be mutated afterwards;
// constructors copy their inputs. Loss is the only mutable field.
type Candidate struct {
	// Data is the internal representation the strategy works on.
	Data []float64
	// Args are the externally-visible decoded parameters.
	Args []float64
	// Loss is the observed loss, nil until the candidate has been told.
	Loss *float64
}

// NewCandidate builds a candidate from copies of the given vectors.
func NewCandidate(data, args []float64) *Candidate {
	d := make([]float64, len(data))
	copy(d, data)
	a := make([]float64, len(args))
	copy(a, args)
	return &Candidate{Data: d, Args: a}
}

// Key returns the canonical archive key for the candidate's internal
// representation. Two candidates are the same logical ask if their keys
// are equal.
func (c *Candidate) Key() string {
	return DataKey(c.Data)
}

// DataKey renders an internal representation to a canonical string key.
// The 'g' formatting with -1 precision roundtrips float64 exactly, so
// distinct points never collide.
func DataKey(data []float64) string {
	parts := make([]string, len(data))
	for i, v := range data {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

// CoerceLoss validates and converts a told loss to float64. Accepted
// types are bool and every integer and float width; sequences, complex
// numbers and arbitrary objects are rejected, as are non-finite floats.
func CoerceLoss(value interface{}) (float64, error) {
	var loss float64
	switch v := value.(type) {
	case bool:
		if v {
			loss = 1
		}
	case int:
		loss = float64(v)
	case int8:
		loss = float64(v)
	case int16:
		loss = float64(v)
	case int32:
		loss = float64(v)
	case int64:
		loss = float64(v)
	case uint:
		loss = float64(v)
	case uint8:
		loss = float64(v)
	case uint16:
		loss = float64(v)
	case uint32:
		loss = float64(v)
	case uint64:
		loss = float64(v)
	case float32:
		loss = float64(v)
	case float64:
		loss = v
	default:
		return 0, NewValidationError("loss must be a scalar number, got %T", value).
			WithComponent("optimization").WithOperation("CoerceLoss")
	}
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		return 0, NewValidationError("loss must be finite, got %v", loss).
			WithComponent("optimization").WithOperation("CoerceLoss")
	}
	return loss, nil
}
