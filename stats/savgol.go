package stats

import (
	"gonum.org/v1/gonum/mat"
)

// SmoothOrder is the polynomial order of the smoothing filter.
const SmoothOrder = 2

// minSmoothLen is the longest series that is returned unsmoothed.
const minSmoothLen = 5

// EffectiveWindow clamps the requested window to the series length and makes
// it odd. The result is never below 1.
func EffectiveWindow(window, n int) int {
	w := window
	if n < w {
		w = n
	}
	if w%2 == 0 {
		w--
	}
	if w < 1 {
		w = 1
	}
	return w
}

// Smooth applies a Savitzky-Golay filter of order 2 to values and returns a
// new slice of the same length. Series of 5 points or fewer, and effective
// windows of 3 or fewer, are returned unchanged (as a copy).
//
// Interior points use the centred least-squares weights. The first and last
// window/2 points are taken from a polynomial fitted to the first and last
// full window, the "interp" boundary mode.
func Smooth(values []float64, window int) []float64 {
	n := len(values)
	out := make([]float64, n)
	copy(out, values)

	w := EffectiveWindow(window, n)
	if n <= minSmoothLen || w <= 3 {
		return out
	}

	coeffs := SavGolCoefficients(w, SmoothOrder)
	if coeffs == nil {
		return out
	}

	half := w / 2
	for i := half; i < n-half; i++ {
		sum := 0.0
		for j, c := range coeffs {
			sum += c * values[i-half+j]
		}
		out[i] = sum
	}

	fitEdge(out, values[:w], 0, half)
	fitEdge(out[n-w:], values[n-w:], w-half, w)

	return out
}

// SavGolCoefficients returns the convolution weights that evaluate a
// least-squares polynomial of the given order at the centre of an odd
// window. It returns nil when the system is singular.
func SavGolCoefficients(window, order int) []float64 {
	if window < 1 || window%2 == 0 || order >= window {
		return nil
	}
	a := vandermonde(window, order, -(window / 2))

	var ata mat.Dense
	ata.Mul(a.T(), a)

	var inv mat.Dense
	if err := inv.Inverse(&ata); err != nil {
		return nil
	}

	// Row 0 of (AᵀA)⁻¹Aᵀ yields the constant term, the fitted value at x=0.
	var proj mat.Dense
	proj.Mul(&inv, a.T())
	return mat.Row(nil, 0, &proj)
}

// fitEdge fits a polynomial of SmoothOrder to window (x = 0..len-1) and
// writes its value at x in [from, to) to dst[x].
func fitEdge(dst, window []float64, from, to int) {
	a := vandermonde(len(window), SmoothOrder, 0)
	y := mat.NewVecDense(len(window), append([]float64(nil), window...))

	var c mat.VecDense
	if err := c.SolveVec(a, y); err != nil {
		return
	}

	coeffs := make([]float64, c.Len())
	for i := range coeffs {
		coeffs[i] = c.AtVec(i)
	}
	for x := from; x < to; x++ {
		dst[x] = polyval(coeffs, float64(x))
	}
}

// vandermonde builds the rows [1, x, x², ...] for x = offset, offset+1, ...
func vandermonde(rows, order, offset int) *mat.Dense {
	a := mat.NewDense(rows, order+1, nil)
	for i := 0; i < rows; i++ {
		x := float64(i + offset)
		p := 1.0
		for j := 0; j <= order; j++ {
			a.Set(i, j, p)
			p *= x
		}
	}
	return a
}

// polyval evaluates c[0] + c[1]x + c[2]x² + ... using Horner's rule.
func polyval(c []float64, x float64) float64 {
	result := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		result = result*x + c[i]
	}
	return result
}
