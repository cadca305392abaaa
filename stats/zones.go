package stats

import "math"

// Zone is a CO2 concentration band.
type Zone int

const (
	ZoneGood Zone = iota
	ZoneWarning
	ZoneCritical
)

func (z Zone) String() string {
	switch z {
	case ZoneGood:
		return "good"
	case ZoneWarning:
		return "warning"
	case ZoneCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Zones holds the lower bounds (ppm) of the warning and critical bands.
type Zones struct {
	Warning  float64 `yaml:"warning" json:"warning"`
	Critical float64 `yaml:"critical" json:"critical"`
}

// DefaultZones returns the 1000/1500 ppm bands.
func DefaultZones() Zones {
	return Zones{Warning: 1000, Critical: 1500}
}

// Classify returns the zone of v. NaN belongs to no zone.
func (z Zones) Classify(v float64) (Zone, bool) {
	switch {
	case math.IsNaN(v):
		return 0, false
	case v < z.Warning:
		return ZoneGood, true
	case v < z.Critical:
		return ZoneWarning, true
	default:
		return ZoneCritical, true
	}
}

// FirstDelta selects the time weight of the first point.
type FirstDelta int

const (
	// FirstDeltaZero gives the first point no weight.
	FirstDeltaZero FirstDelta = iota
	// FirstDeltaOrigin weights the first point by x[0], matching the totals
	// of the legacy implementation. Only differs when x does not start at 0.
	FirstDeltaOrigin
)

// ZoneBreakdown is the time, in units of the independent variable, spent in
// each zone.
type ZoneBreakdown struct {
	Good     float64 `json:"good"`
	Warning  float64 `json:"warning"`
	Critical float64 `json:"critical"`
}

// Total returns the time summed over all zones.
func (b ZoneBreakdown) Total() float64 {
	return b.Good + b.Warning + b.Critical
}

// ZoneTime sums the elapsed time spent in each zone, weighting point i by
// x[i] - x[i-1] and the first point by zero.
func ZoneTime(values, x []float64, zones Zones) ZoneBreakdown {
	return ZoneTimeWith(values, x, zones, FirstDeltaZero)
}

// ZoneTimeWith is ZoneTime with an explicit first-point convention. When the
// weights sum to exactly zero (a single point, or a frozen clock) every point
// is weighted by 1, so the breakdown counts points instead.
func ZoneTimeWith(values, x []float64, zones Zones, first FirstDelta) ZoneBreakdown {
	n := len(values)
	if len(x) != n {
		panic("stats: ZoneTime called with mismatched lengths")
	}

	var b ZoneBreakdown
	if n == 0 {
		return b
	}

	deltas := make([]float64, n)
	if first == FirstDeltaOrigin {
		deltas[0] = x[0]
	}
	sum := deltas[0]
	for i := 1; i < n; i++ {
		deltas[i] = x[i] - x[i-1]
		sum += deltas[i]
	}
	if sum == 0 {
		for i := range deltas {
			deltas[i] = 1
		}
	}

	for i, v := range values {
		zone, ok := zones.Classify(v)
		if !ok {
			continue
		}
		switch zone {
		case ZoneGood:
			b.Good += deltas[i]
		case ZoneWarning:
			b.Warning += deltas[i]
		case ZoneCritical:
			b.Critical += deltas[i]
		}
	}

	return b
}
