// Package co2trend analyses indoor CO2 concentration series.
//
// It derives a denoised trend, the rate of change and the acceleration of
// that trend on a non-uniform time axis, the extremes of each series, and
// the time spent in the good, warning and critical concentration bands. The
// same pipeline serves a static analysis of a CSV export and a live monitor
// over the most recent readings of an MQTT feed.
//
// # Quick Start
//
// Analyse a CSV export:
//
//	table, err := timeseries.LoadCSV("DATA.CSV", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	result := analysis.Process(table, 15)
//	fmt.Println(result.ZoneTime)
//
// Use the numerical building blocks directly:
//
//	trend := stats.Smooth(values, 15)
//	speed := stats.Gradient(trend, minutes)
//	ext := stats.LocateExtrema(speed, minutes, "ppm/min", nil)
//
// # Packages
//
//   - timeseries: readings, series, CSV loading and timestamp parsing
//   - stats: smoothing, differentiation, extrema, zone time, summaries
//   - analysis: the pipeline that ties the stages together
//   - store: SQLite storage of live readings
//   - ingest: MQTT subscriber feeding the store
//   - config: YAML, .env and environment configuration
//   - metrics: Prometheus collectors
//   - server: HTTP API and websocket live push
//
// The co2monitor command runs the service; demo analyses files from the
// command line.
package co2trend
