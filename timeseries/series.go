package timeseries

import (
	"errors"
	"sort"
	"time"
)

// Reading is a single CO2 observation. A zero Time means the timestamp was
// missing or could not be parsed.
type Reading struct {
	Time time.Time `json:"timestamp"`
	CO2  float64   `json:"co2_ppm"`
}

// Series represents a time series of concentration values aligned with an
// elapsed-minutes axis and, when available, the original timestamps.
type Series struct {
	Timestamps []time.Time
	Values     []float64
	Minutes    []float64
	Name       string
}

// New creates a new time series from values on an index axis (0, 1, 2, ...)
// without timestamps.
func New(values []float64) *Series {
	return &Series{
		Values:  values,
		Minutes: IndexAxis(len(values)),
	}
}

// NewWithTimestamps creates a time series with explicit timestamps. The
// minutes axis is measured from the first timestamp; timestamps must already
// be in ascending order.
func NewWithTimestamps(timestamps []time.Time, values []float64) (*Series, error) {
	if len(timestamps) != len(values) {
		return nil, errors.New("timestamps and values must have the same length")
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Minutes:    ElapsedMinutes(timestamps),
	}, nil
}

// FromReadings builds a series from readings in any order. Readings are
// sorted by time; if at least one reading has a timestamp, readings without
// one are dropped. If none has a timestamp the original order is kept and
// the series uses an index axis.
func FromReadings(readings []Reading) *Series {
	timed := make([]Reading, 0, len(readings))
	for _, r := range readings {
		if !r.Time.IsZero() {
			timed = append(timed, r)
		}
	}

	if len(timed) == 0 {
		values := make([]float64, len(readings))
		for i, r := range readings {
			values[i] = r.CO2
		}
		return New(values)
	}

	SortReadings(timed)
	timestamps := make([]time.Time, len(timed))
	values := make([]float64, len(timed))
	for i, r := range timed {
		timestamps[i] = r.Time
		values[i] = r.CO2
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Minutes:    ElapsedMinutes(timestamps),
	}
}

// SortReadings sorts readings by ascending time, keeping the input order of
// readings with equal timestamps.
func SortReadings(readings []Reading) {
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Time.Before(readings[j].Time)
	})
}

// ElapsedMinutes returns the minutes elapsed since the first timestamp.
func ElapsedMinutes(timestamps []time.Time) []float64 {
	minutes := make([]float64, len(timestamps))
	if len(timestamps) == 0 {
		return minutes
	}
	start := timestamps[0]
	for i, ts := range timestamps {
		minutes[i] = ts.Sub(start).Minutes()
	}
	return minutes
}

// IndexAxis returns the synthetic axis 0, 1, ..., n-1.
func IndexAxis(n int) []float64 {
	axis := make([]float64, n)
	for i := range axis {
		axis[i] = float64(i)
	}
	return axis
}

// Len returns the length of the series.
func (s *Series) Len() int {
	return len(s.Values)
}

// HasTimestamps reports whether every value carries a timestamp.
func (s *Series) HasTimestamps() bool {
	return len(s.Values) > 0 && len(s.Timestamps) == len(s.Values)
}

// Tail returns the last n points. The minutes axis is re-based so that it
// starts at zero again.
func (s *Series) Tail(n int) *Series {
	if n <= 0 || n >= s.Len() {
		return s.Copy()
	}
	start := s.Len() - n

	values := make([]float64, n)
	copy(values, s.Values[start:])

	if !s.HasTimestamps() {
		return &Series{Values: values, Minutes: IndexAxis(n), Name: s.Name}
	}

	timestamps := make([]time.Time, n)
	copy(timestamps, s.Timestamps[start:])
	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Minutes:    ElapsedMinutes(timestamps),
		Name:       s.Name,
	}
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)

	minutes := make([]float64, len(s.Minutes))
	copy(minutes, s.Minutes)

	var timestamps []time.Time
	if s.Timestamps != nil {
		timestamps = make([]time.Time, len(s.Timestamps))
		copy(timestamps, s.Timestamps)
	}

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Minutes:    minutes,
		Name:       s.Name,
	}
}

// Labels formats every timestamp with layout in loc. It returns nil when the
// series has no timestamps. A nil loc keeps the timestamps' own location.
func (s *Series) Labels(layout string, loc *time.Location) []string {
	if !s.HasTimestamps() {
		return nil
	}
	labels := make([]string, len(s.Timestamps))
	for i, ts := range s.Timestamps {
		if loc != nil {
			ts = ts.In(loc)
		}
		labels[i] = ts.Format(layout)
	}
	return labels
}
