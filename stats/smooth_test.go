package stats

import (
	"math"
	"testing"
)

func TestEffectiveWindow(t *testing.T) {
	tests := []struct {
		name     string
		window   int
		n        int
		expected int
	}{
		{"odd fits", 15, 20, 15},
		{"clamped to even length", 15, 10, 9},
		{"even request", 16, 30, 15},
		{"two", 2, 10, 1},
		{"zero", 0, 10, 1},
		{"negative", -4, 10, 1},
		{"empty series", 15, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EffectiveWindow(tt.window, tt.n); got != tt.expected {
				t.Errorf("EffectiveWindow(%d, %d) = %d, expected %d", tt.window, tt.n, got, tt.expected)
			}
		})
	}
}

func TestSavGolCoefficients(t *testing.T) {
	// Classic 5-point quadratic weights: (-3, 12, 17, 12, -3) / 35
	expected := []float64{-3.0 / 35, 12.0 / 35, 17.0 / 35, 12.0 / 35, -3.0 / 35}

	coeffs := SavGolCoefficients(5, 2)
	if len(coeffs) != len(expected) {
		t.Fatalf("Expected %d coefficients, got %d", len(expected), len(coeffs))
	}
	for i, c := range coeffs {
		if math.Abs(c-expected[i]) > 1e-10 {
			t.Errorf("Coefficient %d: expected %f, got %f", i, expected[i], c)
		}
	}

	if SavGolCoefficients(4, 2) != nil {
		t.Error("Expected nil for even window")
	}
	if SavGolCoefficients(3, 3) != nil {
		t.Error("Expected nil when order >= window")
	}
}

func TestSmoothShortSeriesIsIdentity(t *testing.T) {
	inputs := [][]float64{
		{},
		{800},
		{800, 1200},
		{800, 1200, 700, 1500},
		{800, 1200, 700, 1500, 900},
	}

	for _, values := range inputs {
		for _, window := range []int{-1, 0, 3, 5, 15, 101} {
			out := Smooth(values, window)
			if len(out) != len(values) {
				t.Fatalf("len %d window %d: got length %d", len(values), window, len(out))
			}
			for i := range values {
				if out[i] != values[i] {
					t.Errorf("len %d window %d: index %d changed from %f to %f",
						len(values), window, i, values[i], out[i])
				}
			}
		}
	}
}

func TestSmoothSmallWindowIsIdentity(t *testing.T) {
	values := []float64{800, 1200, 700, 1500, 900, 1000, 650, 1400}

	// 4 becomes 3, which is too small to smooth
	out := Smooth(values, 4)
	for i := range values {
		if out[i] != values[i] {
			t.Errorf("Index %d changed from %f to %f", i, values[i], out[i])
		}
	}
}

func TestSmoothPreservesLength(t *testing.T) {
	for n := 0; n < 40; n++ {
		values := make([]float64, n)
		for i := range values {
			values[i] = 800 + float64(i%7)*13
		}
		for _, window := range []int{1, 2, 5, 6, 15, 16, 39, 100} {
			if got := len(Smooth(values, window)); got != n {
				t.Errorf("n=%d window=%d: expected length %d, got %d", n, window, n, got)
			}
		}
	}
}

func TestSmoothReproducesQuadratic(t *testing.T) {
	// A degree-2 filter must pass a quadratic through unchanged, edges included
	n := 20
	values := make([]float64, n)
	for i := range values {
		x := float64(i)
		values[i] = 2 + 3*x + 0.5*x*x
	}

	out := Smooth(values, 7)

	for i := range values {
		if math.Abs(out[i]-values[i]) > 1e-8 {
			t.Errorf("Index %d: expected %f, got %f", i, values[i], out[i])
		}
	}
}

func TestSmoothReducesNoise(t *testing.T) {
	n := 41
	values := make([]float64, n)
	for i := range values {
		if i%2 == 0 {
			values[i] = 1010
		} else {
			values[i] = 990
		}
	}

	out := Smooth(values, 15)

	half := 15 / 2
	for i := half; i < n-half; i++ {
		if math.Abs(out[i]-1000) >= 5 {
			t.Errorf("Index %d: expected smoothed value near 1000, got %f", i, out[i])
		}
	}
}

func TestSmoothDoesNotModifyInput(t *testing.T) {
	values := []float64{800, 1200, 700, 1500, 900, 1000, 650, 1400, 900}
	original := append([]float64(nil), values...)

	Smooth(values, 5)

	for i := range values {
		if values[i] != original[i] {
			t.Fatalf("Input modified at index %d", i)
		}
	}
}
