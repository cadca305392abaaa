// Package stats provides the numerical routines of the CO2 trend pipeline.
//
// All functions are pure: they never modify their inputs and hold no state,
// so they are safe for concurrent use.
//
// # Smoothing
//
// Savitzky-Golay smoothing (polynomial order 2). The window is clamped to
// the series length and made odd; short series are returned unchanged:
//
//	trend := stats.Smooth(values, 15)
//
// # Derivatives
//
// Gradient handles non-uniform spacing of the independent variable:
//
//	speed := stats.Gradient(trend, minutes) // ppm/min
//	accel := stats.Gradient(speed, minutes) // ppm/min²
//
// # Extrema
//
// Locate the first minimum and maximum, skipping NaN:
//
//	ext := stats.LocateExtrema(speed, minutes, "ppm/min", timestamps)
//	if ext != nil {
//	    fmt.Println(ext.Max.Text)
//	}
//
// # Zone time
//
// Time spent below 1000 ppm, between 1000 and 1500, and above:
//
//	b := stats.ZoneTime(trend, minutes, stats.DefaultZones())
//	fmt.Printf("good=%.1f warning=%.1f critical=%.1f\n", b.Good, b.Warning, b.Critical)
//
// # Summary statistics
//
//	s := stats.Summarize(values)
//	kpi := s.KPI()
//	text, class := stats.Status(s.Current, stats.DefaultStatusThresholds())
package stats
