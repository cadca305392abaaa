// Package analysis runs the CO2 trend pipeline.
//
// A run turns a table or a set of readings into a Result:
//
//	table, err := timeseries.LoadCSV("DATA.CSV", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	result := analysis.Process(table, 15)
//	if result == nil {
//		log.Fatal("nothing to analyse")
//	}
//	fmt.Println(result.Extrema.CO2.Max.Text)
//
// The stages always run in the same order. The raw series is smoothed; the
// speed is the derivative of the trend over elapsed minutes and the
// acceleration is the derivative of the speed. Extrema are located on the
// raw, speed and acceleration series, and the zone breakdown is computed on
// the trend.
//
// Runs are pure and safe to call concurrently.
package analysis
