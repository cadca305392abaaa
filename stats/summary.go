package stats

import (
	"math"

	mstats "github.com/montanaflynn/stats"
)

// Summary holds descriptive statistics of a concentration series.
type Summary struct {
	Count   int     `json:"count"`
	Current float64 `json:"current"` // last value
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	StdDev  float64 `json:"std_dev"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// Summarize calculates summary statistics, ignoring NaN values. It returns
// nil when no finite value remains.
func Summarize(values []float64) *Summary {
	data := make(mstats.Float64Data, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			data = append(data, v)
		}
	}
	if len(data) == 0 {
		return nil
	}

	s := &Summary{Count: len(data), Current: data[len(data)-1]}
	// Errors only occur for empty input, excluded above.
	s.Mean, _ = data.Mean()
	s.Median, _ = data.Median()
	s.StdDev, _ = data.StandardDeviationSample()
	s.Min, _ = data.Min()
	s.Max, _ = data.Max()
	if s.Count < 2 {
		s.StdDev = 0
	}
	return s
}

// KPI is the integer headline view of a Summary.
type KPI struct {
	Current int `json:"current"`
	Avg     int `json:"avg"`
	Min     int `json:"min"`
	Max     int `json:"max"`
}

// KPI truncates the headline statistics to integers.
func (s *Summary) KPI() KPI {
	return KPI{
		Current: int(s.Current),
		Avg:     int(s.Mean),
		Min:     int(s.Min),
		Max:     int(s.Max),
	}
}

// StatusThresholds holds the upper bounds (ppm) of the excellent and
// acceptable air quality levels.
type StatusThresholds struct {
	Excellent  float64 `yaml:"excellent" json:"excellent"`
	Acceptable float64 `yaml:"acceptable" json:"acceptable"`
}

// DefaultStatusThresholds returns the 800/1200 ppm levels.
func DefaultStatusThresholds() StatusThresholds {
	return StatusThresholds{Excellent: 800, Acceptable: 1200}
}

// Status returns the display text and CSS class for the current value.
func Status(current float64, t StatusThresholds) (text, class string) {
	switch {
	case math.IsNaN(current):
		return "NO DATA", "status-neutral"
	case current < t.Excellent:
		return "EXCELLENT", "status-good"
	case current < t.Acceptable:
		return "ACCEPTABLE", "status-warning"
	default:
		return "DANGEROUS", "status-danger"
	}
}
