// Package main analyses CO2 CSV exports from the command line and writes the
// results as JSON for an external chart renderer.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sartorproj/co2trend/analysis"
	"github.com/sartorproj/co2trend/stats"
	"github.com/sartorproj/co2trend/timeseries"
)

// FileResult holds the analysis of one input file for JSON export
type FileResult struct {
	File        string           `json:"file"`
	NObs        int              `json:"n_obs"`
	KPI         stats.KPI        `json:"kpi"`
	StatusText  string           `json:"status_text"`
	StatusClass string           `json:"status_class"`
	Result      *analysis.Result `json:"result"`
}

// OutputData holds all results for visualization
type OutputData struct {
	Window int          `json:"window"`
	Files  []FileResult `json:"files"`
}

func main() {
	window := flag.Int("window", 15, "smoothing window (points)")
	out := flag.String("out", "trend_results.json", "JSON output file")
	cleanDir := flag.String("clean", "", "also write the cleaned series as CSV into this directory")
	tz := flag.String("tz", "Local", "timezone of naive timestamps and labels")
	last := flag.Int("last", 0, "analyse only the most recent N readings (0 keeps all)")
	flag.Parse()

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid timezone %q: %v\n", *tz, err)
		os.Exit(2)
	}

	files := flag.Args()
	if len(files) == 0 {
		files = []string{findDemoFile()}
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("CO2 Trend Analysis - smoothing, rate of change, zone time")
	fmt.Println(strings.Repeat("=", 80))

	opts := analysis.DefaultOptions()
	opts.Window = *window
	opts.Location = loc

	output := OutputData{Window: *window, Files: []FileResult{}}

	for i, file := range files {
		fmt.Printf("\n%s\n[%d/%d] %s\n%s\n", strings.Repeat("=", 80), i+1, len(files), file, strings.Repeat("=", 80))

		result := analyze(file, opts, *last, *cleanDir)
		if result != nil {
			output.Files = append(output.Files, *result)
		}
	}

	// Export results
	fmt.Printf("\n%s\nEXPORTING RESULTS\n%s\n", strings.Repeat("=", 80), strings.Repeat("=", 80))

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Printf("Error encoding results: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		fmt.Printf("Error writing %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("Exported %d files to %s\n", len(output.Files), *out)
	fmt.Println(strings.Repeat("=", 80))
}

// findDemoFile locates the default demo export
func findDemoFile() string {
	for _, p := range []string{"DATA.CSV", "data/DATA.CSV", "../DATA.CSV"} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return "DATA.CSV"
}

// analyze runs the pipeline on one file and prints a report
func analyze(file string, opts analysis.Options, last int, cleanDir string) *FileResult {
	readings, err := timeseries.LoadReadings(file, nil, opts.Location)
	if err != nil {
		fmt.Printf("   Error loading: %v\n", err)
		return nil
	}
	series := timeseries.FromReadings(readings)
	if last > 0 && last < series.Len() {
		fmt.Printf("   Loaded %d readings, keeping the last %d\n", series.Len(), last)
		series = series.Tail(last)
	} else {
		fmt.Printf("   Loaded %d readings\n", series.Len())
	}

	result, err := analysis.ProcessSeries(series, opts)
	if err != nil {
		fmt.Printf("   Nothing to analyse: %v\n", err)
		return nil
	}

	n := result.Len()
	span := result.Minutes[n-1] - result.Minutes[0]
	if result.HasTimeLabels {
		fmt.Printf("   %d readings from %s to %s (%.0f min)\n", n, result.Labels[0], result.Labels[n-1], span)
	} else {
		fmt.Printf("   %d readings, no timestamps (index axis)\n", n)
	}
	fmt.Printf("   Smoothing window: %d\n", result.Window)

	fr := &FileResult{File: file, NObs: n, Result: result}
	if s := result.Summary; s != nil {
		fr.KPI = s.KPI()
		fr.StatusText, fr.StatusClass = stats.Status(s.Current, stats.DefaultStatusThresholds())
		fmt.Printf("   Mean %.1f, median %.1f, std %.1f ppm\n", s.Mean, s.Median, s.StdDev)
		fmt.Printf("   Current %d ppm: %s\n", fr.KPI.Current, fr.StatusText)
	}

	printExtrema("CO2", result.Extrema.CO2)
	printExtrema("Speed", result.Extrema.Speed)
	printExtrema("Accel", result.Extrema.Accel)

	z := result.ZoneTime
	if total := z.Total(); total > 0 {
		fmt.Printf("   Zone time: good %.1f (%.0f%%), warning %.1f (%.0f%%), critical %.1f (%.0f%%)\n",
			z.Good, 100*z.Good/total, z.Warning, 100*z.Warning/total, z.Critical, 100*z.Critical/total)
	}

	if cleanDir != "" {
		writeClean(file, result, cleanDir)
	}
	return fr
}

func printExtrema(name string, ext *stats.ExtremumSummary) {
	if ext == nil {
		fmt.Printf("   %-6s no finite values\n", name)
		return
	}
	fmt.Printf("   %-6s min %s | max %s\n", name,
		strings.ReplaceAll(ext.Min.Text, "\n", " @ "),
		strings.ReplaceAll(ext.Max.Text, "\n", " @ "))
}

// writeClean saves the sorted, numeric-only series next to the report
func writeClean(file string, result *analysis.Result, dir string) {
	series := timeseries.New(append([]float64(nil), result.Raw...))
	if result.HasTimeLabels {
		s, err := timeseries.NewWithTimestamps(result.Timestamps, append([]float64(nil), result.Raw...))
		if err != nil {
			fmt.Printf("   Error preparing clean series: %v\n", err)
			return
		}
		series = s
	}

	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)) + "_clean.csv"
	path := filepath.Join(dir, name)
	if err := timeseries.SaveCSV(series, path); err != nil {
		fmt.Printf("   Error writing %s: %v\n", path, err)
		return
	}
	fmt.Printf("   Cleaned series written to %s\n", path)
}
