package stats

import (
	"math"
	"testing"
)

func TestGradientLength(t *testing.T) {
	for n := 0; n < 10; n++ {
		values := make([]float64, n)
		x := make([]float64, n)
		for i := range x {
			x[i] = float64(i) * 0.5
			values[i] = float64(i * i)
		}
		if got := len(Gradient(values, x)); got != n {
			t.Errorf("Expected length %d, got %d", n, got)
		}
	}
}

func TestGradientDegenerate(t *testing.T) {
	if got := Gradient([]float64{}, []float64{}); len(got) != 0 {
		t.Errorf("Expected empty gradient, got %v", got)
	}

	got := Gradient([]float64{812}, []float64{0})
	if len(got) != 1 || got[0] != 0 {
		t.Errorf("Expected [0] for a single point, got %v", got)
	}
}

func TestGradientLinearUniform(t *testing.T) {
	n := 10
	values := make([]float64, n)
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
		values[i] = 3*x[i] + 1
	}

	grad := Gradient(values, x)

	for i, g := range grad {
		if math.Abs(g-3) > 1e-10 {
			t.Errorf("Index %d: expected slope 3, got %f", i, g)
		}
	}
}

func TestGradientLinearNonUniform(t *testing.T) {
	x := []float64{0, 0.5, 2, 2.1, 5}
	values := make([]float64, len(x))
	for i := range x {
		values[i] = -2*x[i] + 400
	}

	grad := Gradient(values, x)

	for i, g := range grad {
		if math.Abs(g+2) > 1e-9 {
			t.Errorf("Index %d: expected slope -2, got %f", i, g)
		}
	}
}

func TestGradientQuadraticNonUniformInterior(t *testing.T) {
	// Interior central differences are exact for quadratics on any spacing
	x := []float64{0, 1, 3, 4, 7}
	values := make([]float64, len(x))
	for i := range x {
		values[i] = x[i] * x[i]
	}

	grad := Gradient(values, x)

	for i := 1; i < len(x)-1; i++ {
		expected := 2 * x[i]
		if math.Abs(grad[i]-expected) > 1e-10 {
			t.Errorf("Index %d: expected %f, got %f", i, expected, grad[i])
		}
	}

	// One-sided endpoints
	if math.Abs(grad[0]-1) > 1e-10 {
		t.Errorf("Expected first endpoint 1, got %f", grad[0])
	}
	if math.Abs(grad[4]-11) > 1e-10 {
		t.Errorf("Expected last endpoint 11, got %f", grad[4])
	}
}

func TestGradientMismatchedLengthsPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for mismatched lengths")
		}
	}()
	Gradient([]float64{1, 2, 3}, []float64{0, 1})
}
