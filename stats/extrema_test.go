package stats

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"
)

func TestLocateExtremaFirstOccurrence(t *testing.T) {
	values := []float64{5.0, 1.0, 9.0, 9.0, 2.0}
	x := []float64{0, 1, 2, 3, 4}

	ext := LocateExtrema(values, x, "ppm", nil)
	if ext == nil {
		t.Fatal("LocateExtrema returned nil")
	}

	if ext.Min.Index != 1 || ext.Min.Y != 1.0 || ext.Min.X != 1 {
		t.Errorf("Unexpected min %+v", ext.Min)
	}
	if ext.Max.Index != 2 || ext.Max.Y != 9.0 || ext.Max.X != 2 {
		t.Errorf("Unexpected max %+v (first occurrence should win)", ext.Max)
	}
	if ext.Min.Text != "1.0 ppm" {
		t.Errorf("Expected text '1.0 ppm', got %q", ext.Min.Text)
	}
	if ext.Max.Label != "" {
		t.Errorf("Expected no label without a label source, got %q", ext.Max.Label)
	}
}

func TestLocateExtremaEmpty(t *testing.T) {
	if LocateExtrema(nil, nil, "ppm", nil) != nil {
		t.Error("Expected nil for empty series")
	}

	nan := math.NaN()
	if LocateExtrema([]float64{nan, nan}, []float64{0, 1}, "ppm", nil) != nil {
		t.Error("Expected nil for all-NaN series")
	}
}

func TestLocateExtremaSkipsNaN(t *testing.T) {
	nan := math.NaN()
	values := []float64{nan, 3, nan, 1}
	x := []float64{0, 10, 20, 30}

	ext := LocateExtrema(values, x, "ppm/min", nil)
	if ext == nil {
		t.Fatal("LocateExtrema returned nil")
	}
	if ext.Min.Index != 3 || ext.Min.X != 30 {
		t.Errorf("Unexpected min %+v", ext.Min)
	}
	if ext.Max.Index != 1 || ext.Max.X != 10 {
		t.Errorf("Unexpected max %+v", ext.Max)
	}
}

func TestLocateExtremaLeadingNaNWithTies(t *testing.T) {
	nan := math.NaN()
	values := []float64{nan, 4, 2, 2, 4}
	x := []float64{0, 1, 2, 3, 4}

	ext := LocateExtrema(values, x, "ppm", nil)
	if ext == nil {
		t.Fatal("LocateExtrema returned nil")
	}
	if ext.Min.Index != 2 || ext.Min.Y != 2 {
		t.Errorf("Expected first min at index 2, got %+v", ext.Min)
	}
	if ext.Max.Index != 1 || ext.Max.Y != 4 {
		t.Errorf("Expected first max at index 1, got %+v", ext.Max)
	}

	if LocateExtrema([]float64{nan}, []float64{0}, "ppm", nil) != nil {
		t.Error("Expected nil for a single NaN")
	}
}

func TestLocateExtremaLabels(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	values := []float64{850, 1320.44, 700}
	x := []float64{0, 5, 7}
	labels := []time.Time{base, base.Add(5 * time.Minute), {}}

	ext := LocateExtrema(values, x, "ppm", labels)
	if ext == nil {
		t.Fatal("LocateExtrema returned nil")
	}

	if ext.Max.Label != "2024.03.01 10:05" {
		t.Errorf("Expected label '2024.03.01 10:05', got %q", ext.Max.Label)
	}
	if ext.Max.Text != "1320.4 ppm\n2024.03.01 10:05" {
		t.Errorf("Unexpected text %q", ext.Max.Text)
	}

	// Zero timestamp: no label
	if ext.Min.Index != 2 || ext.Min.Label != "" || strings.Contains(ext.Min.Text, "\n") {
		t.Errorf("Unexpected min %+v", ext.Min)
	}
}

func TestExtremumJSONNonFinite(t *testing.T) {
	e := Extremum{Index: 2, X: 1.5, Y: math.Inf(1), Text: "+Inf ppm/min"}

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"y":null`) {
		t.Errorf("Expected null y, got %s", data)
	}
}
