package analysis

import (
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/sartorproj/co2trend/stats"
	"github.com/sartorproj/co2trend/timeseries"
)

// Units of the three analysed series.
const (
	UnitConcentration = "ppm"
	UnitSpeed         = "ppm/min"
	UnitAccel         = "ppm/min²"
)

var (
	// ErrEmptyInput is returned when there is nothing left to analyse.
	ErrEmptyInput = errors.New("analysis: empty input")
	// ErrMissingColumn is returned when the table has no concentration column.
	ErrMissingColumn = timeseries.ErrMissingColumn
)

// Options configures a pipeline run.
type Options struct {
	Window     int              // smoothing window, corrected by the smoother
	Zones      stats.Zones      // concentration bands for the zone breakdown
	FirstDelta stats.FirstDelta // weight convention of the first point
	Location   *time.Location   // naive timestamps are read, and labels shown, in this zone
	Layouts    []string         // timestamp layouts; nil uses timeseries.DefaultTimeLayouts
}

// DefaultOptions returns the default pipeline options.
func DefaultOptions() Options {
	return Options{
		Window:     15,
		Zones:      stats.DefaultZones(),
		FirstDelta: stats.FirstDeltaZero,
		Location:   time.Local,
	}
}

// Floats is a float slice that encodes non-finite entries as JSON null.
type Floats []float64

// MarshalJSON implements json.Marshaler.
func (f Floats) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	out := make([]*float64, len(f))
	for i := range f {
		if !math.IsNaN(f[i]) && !math.IsInf(f[i], 0) {
			out[i] = &f[i]
		}
	}
	return json.Marshal(out)
}

// Extrema holds the located extremes of the raw, speed and acceleration
// series. Each may be nil when its series has no finite value.
type Extrema struct {
	CO2   *stats.ExtremumSummary `json:"co2"`
	Speed *stats.ExtremumSummary `json:"speed"`
	Accel *stats.ExtremumSummary `json:"accel"`
}

// Result is the output of one pipeline run. It owns all of its slices.
type Result struct {
	Minutes Floats `json:"minutes"`
	Raw     Floats `json:"raw"`
	Smooth  Floats `json:"smooth"`
	Speed   Floats `json:"speed"`
	Accel   Floats `json:"accel"`

	Timestamps    []time.Time `json:"timestamps,omitempty"`
	Labels        []string    `json:"labels,omitempty"`
	HasTimeLabels bool        `json:"has_time_labels"`

	Extrema  Extrema             `json:"extrema"`
	ZoneTime stats.ZoneBreakdown `json:"zone_time"`
	Summary  *stats.Summary      `json:"summary"`
	Window   int                 `json:"window"`
}

// Len returns the number of analysed points.
func (r *Result) Len() int {
	return len(r.Raw)
}

// Process runs the pipeline on a table with default options and the given
// window. It returns nil when the table is empty, has no concentration
// column, or has no numeric values.
func Process(table *timeseries.Table, window int) *Result {
	opts := DefaultOptions()
	opts.Window = window
	result, err := Run(table, opts)
	if err != nil {
		return nil
	}
	return result
}

// Run is Process with explicit options, reporting why nothing was produced.
func Run(table *timeseries.Table, opts Options) (*Result, error) {
	if table.Len() == 0 {
		return nil, ErrEmptyInput
	}
	if table.ConcentrationColumn() < 0 {
		return nil, ErrMissingColumn
	}

	readings, err := table.Readings(opts.Layouts, opts.Location)
	if err != nil {
		if errors.Is(err, timeseries.ErrNoData) {
			return nil, ErrEmptyInput
		}
		return nil, err
	}
	return ProcessReadings(readings, opts)
}

// ProcessReadings runs the pipeline on typed readings, in any order.
func ProcessReadings(readings []timeseries.Reading, opts Options) (*Result, error) {
	if len(readings) == 0 {
		return nil, ErrEmptyInput
	}
	return ProcessSeries(timeseries.FromReadings(readings), opts)
}

// ProcessSeries runs the pipeline on a prepared series: smooth, then speed
// and acceleration of the trend, then extrema, then zone time of the trend.
// The series is not modified.
func ProcessSeries(s *timeseries.Series, opts Options) (*Result, error) {
	if s == nil || s.Len() == 0 {
		return nil, ErrEmptyInput
	}
	s = s.Copy()
	if len(s.Minutes) != s.Len() {
		s.Minutes = timeseries.IndexAxis(s.Len())
	}

	smooth := stats.Smooth(s.Values, opts.Window)
	speed := stats.Gradient(smooth, s.Minutes)
	accel := stats.Gradient(speed, s.Minutes)

	result := &Result{
		Minutes: s.Minutes,
		Raw:     s.Values,
		Smooth:  smooth,
		Speed:   speed,
		Accel:   accel,
		Window:  stats.EffectiveWindow(opts.Window, s.Len()),
	}

	var labels []time.Time
	if s.HasTimestamps() {
		labels = make([]time.Time, s.Len())
		for i, ts := range s.Timestamps {
			if opts.Location != nil {
				ts = ts.In(opts.Location)
			}
			labels[i] = ts
		}
		result.Timestamps = labels
		result.Labels = s.Labels(stats.LabelLayout, opts.Location)
		result.HasTimeLabels = true
	}

	result.Extrema = Extrema{
		CO2:   stats.LocateExtrema(result.Raw, s.Minutes, UnitConcentration, labels),
		Speed: stats.LocateExtrema(speed, s.Minutes, UnitSpeed, labels),
		Accel: stats.LocateExtrema(accel, s.Minutes, UnitAccel, labels),
	}
	result.ZoneTime = stats.ZoneTimeWith(smooth, s.Minutes, opts.Zones, opts.FirstDelta)
	result.Summary = stats.Summarize(result.Raw)

	return result, nil
}
