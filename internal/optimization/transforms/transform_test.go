package transforms

import (
	"math"
	"testing"
)

// bijectiveTransforms collects the invertible transforms exercised by the
// roundtrip and naming tests.
func bijectiveTransforms(t *testing.T) map[string]Transform {
	t.Helper()
	affine, err := NewAffine(2.5, -1.0)
	if err != nil {
		t.Fatalf("NewAffine: %v", err)
	}
	expo, err := NewExponentiate(10, -1)
	if err != nil {
		t.Fatalf("NewExponentiate: %v", err)
	}
	tanh, err := NewTanhBound([]float64{-3}, []float64{4})
	if err != nil {
		t.Fatalf("NewTanhBound: %v", err)
	}
	arctan, err := NewArctanBound([]float64{-3}, []float64{4})
	if err != nil {
		t.Fatalf("NewArctanBound: %v", err)
	}
	return map[string]Transform{
		"affine":       affine,
		"exponentiate": expo,
		"tanh":         tanh,
		"arctan":       arctan,
		"cdf":          NewCumulativeDensity(),
	}
}

func TestBackwardInvertsForward(t *testing.T) {
	inputs := [][]float64{
		{0},
		{0.7},
		{-2.3, 0.1, 1.9},
	}
	for name, transform := range bijectiveTransforms(t) {
		t.Run(name, func(t *testing.T) {
			for _, input := range inputs {
				x := make([]float64, len(input))
				copy(x, input)
				if name == "tanh" || name == "arctan" {
					// Bound transforms with shape (1) broadcast over any input
					// length; keep inputs moderate so tanh does not saturate.
					for i := range x {
						if math.Abs(x[i]) > 2 {
							x[i] = x[i] / 2
						}
					}
				}
				y, err := transform.Forward(x)
				if err != nil {
					t.Fatalf("forward(%v): %v", x, err)
				}
				back, err := transform.Backward(y)
				if err != nil {
					t.Fatalf("backward(forward(%v)): %v", x, err)
				}
				for i := range x {
					if relDiff(back[i], x[i]) > 1e-6 {
						t.Errorf("roundtrip mismatch at %d: got %v, want %v", i, back[i], x[i])
					}
				}
			}
		})
	}
}

func relDiff(a, b float64) float64 {
	d := math.Abs(a - b)
	if m := math.Max(math.Abs(a), math.Abs(b)); m > 1 {
		return d / m
	}
	return d
}

func TestForwardStaysWithinBounds(t *testing.T) {
	tanh, _ := NewTanhBound([]float64{-1}, []float64{2})
	arctan, _ := NewArctanBound([]float64{-1}, []float64{2})
	clip, _ := NewClipping([]float64{-1}, []float64{2})

	bounded := map[string]Transform{"tanh": tanh, "arctan": arctan, "clip": clip}
	inputs := []float64{-1e9, -100, -1, 0, 0.5, 1, 100, 1e9}
	for name, transform := range bounded {
		t.Run(name, func(t *testing.T) {
			for _, x := range inputs {
				y, err := transform.Forward([]float64{x})
				if err != nil {
					t.Fatalf("forward(%v): %v", x, err)
				}
				if y[0] < -1 || y[0] > 2 {
					t.Errorf("forward(%v) = %v, outside [-1, 2]", x, y[0])
				}
			}
		})
	}
}

func TestRevertedSwapsDirections(t *testing.T) {
	tanh, _ := NewTanhBound([]float64{-1}, []float64{1})
	reverted := Revert(tanh)

	x := []float64{0.5}
	forward, err := reverted.Forward(x)
	if err != nil {
		t.Fatalf("reverted forward: %v", err)
	}
	backward, err := tanh.Backward(x)
	if err != nil {
		t.Fatalf("tanh backward: %v", err)
	}
	if forward[0] != backward[0] {
		t.Errorf("reverted forward = %v, want tanh backward %v", forward[0], backward[0])
	}

	if got, want := reverted.Name(), "Rv(Th(-1,1))"; got != want {
		t.Errorf("name = %q, want %q", got, want)
	}
}

func TestRevertedTwiceBehavesLikeOriginal(t *testing.T) {
	for name, transform := range bijectiveTransforms(t) {
		t.Run(name, func(t *testing.T) {
			twice := Revert(Revert(transform))
			x := []float64{0.3}
			want, err := transform.Forward(x)
			if err != nil {
				t.Fatalf("forward: %v", err)
			}
			got, err := twice.Forward(x)
			if err != nil {
				t.Fatalf("double-reverted forward: %v", err)
			}
			if got[0] != want[0] {
				t.Errorf("double-reverted forward = %v, want %v", got[0], want[0])
			}
		})
	}
}

func TestNamesAreDeterministic(t *testing.T) {
	tests := []struct {
		build func() (Transform, error)
		want  string
	}{
		{func() (Transform, error) { return NewAffine(2, -1) }, "Af(2,-1)"},
		{func() (Transform, error) { return NewExponentiate(10, 1) }, "Ex(10,1)"},
		{func() (Transform, error) { return NewTanhBound([]float64{-1}, []float64{1}) }, "Th(-1,1)"},
		{func() (Transform, error) { return NewArctanBound([]float64{0, 0}, []float64{1, 2}) }, "At([0,0],[1,2])"},
		{func() (Transform, error) { return NewClipping([]float64{0}, nil) }, "Cl(0,nil)"},
		{func() (Transform, error) { return NewCumulativeDensity(), nil }, "Cd()"},
	}
	for _, tt := range tests {
		transform, err := tt.build()
		if err != nil {
			t.Fatalf("building %s: %v", tt.want, err)
		}
		if transform.Name() != tt.want {
			t.Errorf("name = %q, want %q", transform.Name(), tt.want)
		}
		// Rebuilding yields the identical name.
		again, _ := tt.build()
		if again.Name() != transform.Name() {
			t.Errorf("name not deterministic: %q vs %q", again.Name(), transform.Name())
		}
	}
}

func TestCumulativeDensityRange(t *testing.T) {
	cdf := NewCumulativeDensity()
	y, err := cdf.Forward([]float64{-50, 0, 50})
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	for i, v := range y {
		if v < 0 || v > 1 {
			t.Errorf("cdf output %d = %v, outside [0,1]", i, v)
		}
	}
	if math.Abs(y[1]-0.5) > 1e-12 {
		t.Errorf("cdf(0) = %v, want 0.5", y[1])
	}
}
