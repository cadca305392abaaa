package stats

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
)

// LabelLayout is the layout of the date label attached to an extremum.
const LabelLayout = "2006.01.02 15:04"

// Extremum is one located minimum or maximum.
type Extremum struct {
	Index int     // position in the series
	X     float64 // independent variable at Index, for chart positioning
	Y     float64 // value at Index
	Text  string  // "<value> <unit>", plus the label on a second line
	Label string  // formatted timestamp, empty when unavailable
}

// MarshalJSON encodes a non-finite Y as null.
func (e Extremum) MarshalJSON() ([]byte, error) {
	var y *float64
	if !math.IsNaN(e.Y) && !math.IsInf(e.Y, 0) {
		y = &e.Y
	}
	return json.Marshal(struct {
		Index int      `json:"index"`
		X     float64  `json:"x"`
		Y     *float64 `json:"y"`
		Text  string   `json:"text"`
		Label string   `json:"label,omitempty"`
	}{e.Index, e.X, y, e.Text, e.Label})
}

// ExtremumSummary holds the minimum and maximum of one series.
type ExtremumSummary struct {
	Min Extremum `json:"min"`
	Max Extremum `json:"max"`
}

// LocateExtrema finds the first minimum and first maximum of values,
// ignoring NaN entries. It returns nil for an empty or all-NaN series.
//
// x supplies the chart position of each point. When labels is non-nil, the
// timestamp at the extremum's index is formatted with LabelLayout and
// appended to Text; zero timestamps are skipped. Labels are formatted in
// their own location.
func LocateExtrema(values, x []float64, unit string, labels []time.Time) *ExtremumSummary {
	if len(values) == 0 {
		return nil
	}

	// MinIdx and MaxIdx skip NaN but fall back to index 0 when nothing is left.
	minIdx := floats.MinIdx(values)
	if math.IsNaN(values[minIdx]) {
		return nil
	}
	maxIdx := floats.MaxIdx(values)

	return &ExtremumSummary{
		Min: newExtremum(values, x, unit, labels, minIdx),
		Max: newExtremum(values, x, unit, labels, maxIdx),
	}
}

func newExtremum(values, x []float64, unit string, labels []time.Time, idx int) Extremum {
	e := Extremum{
		Index: idx,
		Y:     values[idx],
		Text:  fmt.Sprintf("%.1f %s", values[idx], unit),
	}
	if idx < len(x) {
		e.X = x[idx]
	}
	if idx < len(labels) && !labels[idx].IsZero() {
		e.Label = labels[idx].Format(LabelLayout)
		e.Text += "\n" + e.Label
	}
	return e
}
