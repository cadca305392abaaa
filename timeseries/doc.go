// Package timeseries provides time series data structures and utilities.
//
// This package includes the Reading and Series types for CO2 concentration
// data, the raw Table produced by file and database sources, and functions
// for loading, cleaning and ordering readings.
//
// # Creating a Series
//
// Create a time series from a slice (index axis, no timestamps):
//
//	values := []float64{812, 815, 830, 901, 960}
//	series := timeseries.New(values)
//
// Or from readings, which are sorted by time and measured in minutes
// since the first reading:
//
//	series := timeseries.FromReadings(readings)
//	series.Minutes // 0, 0.5, 1, ...
//
// # Loading from CSV
//
// The delimiter is detected from the header line, byte order marks are
// stripped and the concentration column is the first header containing
// "co2":
//
//	table, err := timeseries.LoadCSV("DATA.CSV", nil)
//	readings, err := table.Readings(nil, time.Local)
//
// Rows with a non-numeric concentration are dropped. Timestamps that cannot
// be parsed become zero times; FromReadings drops them when at least one
// reading has a valid timestamp.
//
// # CSV Options
//
// Customize CSV loading:
//
//	opts := &timeseries.CSVOptions{
//	    Delimiter: ';',
//	    HasHeader: true,
//	    DecimalComma: true,
//	}
//	table, err := timeseries.LoadCSVFromReader(reader, opts)
package timeseries
