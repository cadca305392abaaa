package timeseries

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNoData is returned when a source yields no usable rows.
	ErrNoData = errors.New("no valid data found")
	// ErrMissingColumn is returned when no concentration column can be identified.
	ErrMissingColumn = errors.New("no CO2 column found")
)

// DefaultTimeLayouts lists the timestamp layouts tried, in order, when a
// time column is parsed.
var DefaultTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006.01.02. 15:04:05",
	"2006.01.02 15:04:05",
	"2006.01.02. 15:04",
	"2006.01.02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"2006-01-02",
	"2006.01.02",
}

// Table is a raw tabular input: a header and string records, as produced by
// a CSV reader. Records may be ragged.
type Table struct {
	Header  []string
	Records [][]string

	// DecimalComma accepts "812,5" as 812.5 in numeric cells.
	DecimalComma bool
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// NormalizeHeader trims a column name, strips byte order marks (raw or
// mis-decoded) and folds the accented time column name to "Ido".
func NormalizeHeader(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "\ufeff")
	name = strings.TrimPrefix(name, "ï»¿")
	name = strings.Trim(name, "\"")
	name = strings.ReplaceAll(name, "Idő", "Ido")
	return strings.TrimSpace(name)
}

// ConcentrationColumn returns the index of the first column whose name
// contains "co2" (case-insensitive), or -1.
func (t *Table) ConcentrationColumn() int {
	for i, h := range t.Header {
		if strings.Contains(strings.ToLower(NormalizeHeader(h)), "co2") {
			return i
		}
	}
	return -1
}

// TimeColumn returns the index of the time column, or -1. "Ido" wins; other
// headers qualify when they mention time, timestamp or date.
func (t *Table) TimeColumn() int {
	fallback := -1
	for i, h := range t.Header {
		name := NormalizeHeader(h)
		if name == "Ido" || name == "ParsedTime" {
			return i
		}
		lower := strings.ToLower(name)
		if fallback == -1 && (strings.Contains(lower, "time") || strings.Contains(lower, "date") || lower == "ds") {
			fallback = i
		}
	}
	return fallback
}

// Readings coerces the table into readings. Rows whose concentration cell is
// not numeric are dropped; unparseable timestamps become zero times. The
// table itself is not modified.
func (t *Table) Readings(layouts []string, loc *time.Location) ([]Reading, error) {
	if t.Len() == 0 {
		return nil, ErrNoData
	}
	valueIdx := t.ConcentrationColumn()
	if valueIdx < 0 {
		return nil, ErrMissingColumn
	}
	timeIdx := t.TimeColumn()
	if len(layouts) == 0 {
		layouts = DefaultTimeLayouts
	}

	readings := make([]Reading, 0, len(t.Records))
	for _, record := range t.Records {
		if valueIdx >= len(record) {
			continue
		}
		val, ok := ParseValue(record[valueIdx], t.DecimalComma)
		if !ok {
			continue
		}
		r := Reading{CO2: val}
		if timeIdx >= 0 && timeIdx < len(record) {
			r.Time, _ = ParseTime(record[timeIdx], layouts, loc)
		}
		readings = append(readings, r)
	}

	if len(readings) == 0 {
		return nil, ErrNoData
	}
	return readings, nil
}

// ParseValue parses a numeric cell. Empty, NA, NaN, null and infinite values
// are rejected.
func ParseValue(s string, decimalComma bool) (float64, bool) {
	s = strings.TrimSpace(strings.Trim(s, "\""))
	switch s {
	case "", "NA", "NaN", "nan", "null", "NULL":
		return 0, false
	}
	if decimalComma {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseTime tries each layout in turn. Layouts without a zone are read in
// loc (UTC when loc is nil).
func ParseTime(s string, layouts []string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(strings.Trim(s, "\""))
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range layouts {
		if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
