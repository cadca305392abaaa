package stats

// Gradient returns the numerical derivative of values with respect to x.
//
// Interior points use second-order central differences weighted by the
// spacing on each side, so x need not be uniformly spaced. The endpoints use
// first-order one-sided differences. Inputs shorter than 2 have no defined
// derivative and yield zeros of the same length.
//
// Repeated x values produce infinite or NaN entries; callers that need
// finite output must filter them. Gradient panics if the lengths differ.
func Gradient(values, x []float64) []float64 {
	n := len(values)
	if len(x) != n {
		panic("stats: Gradient called with mismatched lengths")
	}

	grad := make([]float64, n)
	if n < 2 {
		return grad
	}

	grad[0] = (values[1] - values[0]) / (x[1] - x[0])
	grad[n-1] = (values[n-1] - values[n-2]) / (x[n-1] - x[n-2])

	for i := 1; i < n-1; i++ {
		hs := x[i] - x[i-1]
		hd := x[i+1] - x[i]
		grad[i] = (hs*hs*values[i+1] + (hd*hd-hs*hs)*values[i] - hd*hd*values[i-1]) /
			(hs * hd * (hd + hs))
	}

	return grad
}
