package timeseries

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	Delimiter    rune // Field delimiter (0: detect from the header line)
	HasHeader    bool // Whether CSV has header row (default: true)
	SkipRows     int  // Number of rows to skip at start
	DecimalComma bool // Accept decimal commas when the delimiter is not a comma
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		HasHeader:    true,
		DecimalComma: true,
	}
}

// LoadCSV loads a raw table from a CSV file.
func LoadCSV(filename string, opts *CSVOptions) (*Table, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadCSVFromReader(file, opts)
}

// LoadCSVFromReader loads a raw table from an io.Reader. Malformed lines are
// skipped rather than failing the whole load.
func LoadCSVFromReader(r io.Reader, opts *CSVOptions) (*Table, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	br := bufio.NewReader(r)
	delim := opts.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(br)
	}

	reader := csv.NewReader(br)
	reader.Comma = delim
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	// Skip rows if needed
	for i := 0; i < opts.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, err
		}
	}

	table := &Table{DecimalComma: opts.DecimalComma && delim != ','}

	if opts.HasHeader {
		header, err := reader.Read()
		if err == io.EOF {
			return nil, ErrNoData
		}
		if err != nil {
			return nil, err
		}
		table.Header = make([]string, len(header))
		for i, h := range header {
			table.Header[i] = NormalizeHeader(h)
		}
	} else {
		// No header - assume timestamp, value
		table.Header = []string{"Ido", "CO2_ppm"}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			return nil, err
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		table.Records = append(table.Records, record)
	}

	return table, nil
}

// LoadReadings loads a CSV file and coerces it into readings.
func LoadReadings(filename string, opts *CSVOptions, loc *time.Location) ([]Reading, error) {
	table, err := LoadCSV(filename, opts)
	if err != nil {
		return nil, err
	}
	return table.Readings(nil, loc)
}

// sniffDelimiter picks the most frequent of ',', ';' and tab in the first
// line without consuming it.
func sniffDelimiter(br *bufio.Reader) rune {
	line, _ := br.Peek(4096)
	if i := strings.IndexByte(string(line), '\n'); i >= 0 {
		line = line[:i]
	}
	best, bestCount := ',', 0
	for _, c := range []rune{',', ';', '\t'} {
		if n := strings.Count(string(line), string(c)); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

// SaveCSV saves a time series to a CSV file as timestamp,CO2_ppm rows. Series
// without timestamps are written with their elapsed minutes instead.
func SaveCSV(series *Series, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteCSV(series, file)
}

// WriteCSV writes a time series in the format produced by SaveCSV.
func WriteCSV(series *Series, w io.Writer) error {
	writer := bufio.NewWriter(w)

	// Write header
	if series.HasTimestamps() {
		writer.WriteString("Ido,CO2_ppm\n")
	} else {
		writer.WriteString("Minutes,CO2_ppm\n")
	}

	// Write data
	for i, v := range series.Values {
		if series.HasTimestamps() {
			writer.WriteString(series.Timestamps[i].Format(time.RFC3339))
		} else {
			writer.WriteString(strconv.FormatFloat(series.Minutes[i], 'f', -1, 64))
		}
		writer.WriteString(",")
		writer.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		writer.WriteString("\n")
	}

	return writer.Flush()
}
