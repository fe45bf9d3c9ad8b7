// telemetry/table.go
package telemetry

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/gewnthar/logbook/delimited"
	"github.com/jszwec/csvutil"
)

// Column indexes of a telemetry table.
const (
	ColTime = iota
	ColAltitude
	ColSpeed
	ColVario
	ColLatitude
	ColLongitude

	NumColumns
)

// Header names the columns in blob order. The blob itself carries no header.
var Header = []string{"time", "alt", "speed", "vario", "lat", "lng"}

// ErrTooFewSamples is returned by Table.Validate when a curve cannot be drawn.
var ErrTooFewSamples = errors.New("telemetry: fewer than 2 samples")

// Layout describes how samples are laid out in a telemetry blob.
type Layout int

const (
	// LayoutAuto picks LayoutSeries for six delimiter-terminated rows,
	// LayoutSamples when every row has six fields and LayoutSeries when
	// there are exactly six rows.
	LayoutAuto Layout = iota
	// LayoutSamples is one row per sample, six fields per row.
	LayoutSamples
	// LayoutSeries is one row per column, one field per sample.
	LayoutSeries
)

// Sample is one instant of a flight.
type Sample struct {
	Time      int64   `csv:"time"`
	Altitude  float64 `csv:"alt"`
	Speed     float64 `csv:"speed"`
	Vario     float64 `csv:"vario"`
	Latitude  float64 `csv:"lat"`
	Longitude float64 `csv:"lng"`
}

// Table holds index-aligned telemetry columns. It is not modified after Parse.
type Table struct {
	Time      []int64
	Altitude  []float64
	Speed     []float64
	Vario     []float64
	Latitude  []float64
	Longitude []float64
}

// Len is the number of samples.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Time)
}

// Validate reports ErrTooFewSamples when the table has fewer than two samples.
func (t *Table) Validate() error {
	if t.Len() < 2 {
		return ErrTooFewSamples
	}
	return nil
}

// Column returns column c as float64 values. Timestamps are converted.
func (t *Table) Column(c int) []float64 {
	switch c {
	case ColTime:
		out := make([]float64, len(t.Time))
		for i, v := range t.Time {
			out[i] = float64(v)
		}
		return out
	case ColAltitude:
		return t.Altitude
	case ColSpeed:
		return t.Speed
	case ColVario:
		return t.Vario
	case ColLatitude:
		return t.Latitude
	case ColLongitude:
		return t.Longitude
	}
	return nil
}

// Sample returns sample i. The caller checks bounds.
func (t *Table) Sample(i int) Sample {
	return Sample{
		Time:      t.Time[i],
		Altitude:  t.Altitude[i],
		Speed:     t.Speed[i],
		Vario:     t.Vario[i],
		Latitude:  t.Latitude[i],
		Longitude: t.Longitude[i],
	}
}

// MaxAltitude is the highest altitude in the table, 0 for an empty table.
func (t *Table) MaxAltitude() float64 {
	if t.Len() == 0 {
		return 0
	}
	max := math.Inf(-1)
	for _, a := range t.Altitude {
		if a > max {
			max = a
		}
	}
	return max
}

// Parse builds a table from a comma delimited blob.
func Parse(blob string, layout Layout) (*Table, error) {
	return ParseWith(delimited.New(delimited.DefaultDelimiter), blob, layout)
}

// ParseWith builds a table using the given parser.
func ParseWith(p *delimited.Parser, blob string, layout Layout) (*Table, error) {
	raw := p.Parse(blob)
	if layout == LayoutAuto {
		layout = detectLayout(raw)
	}
	rows := trimRows(raw)

	if layout == LayoutSeries {
		if len(rows) != NumColumns {
			return nil, fmt.Errorf("failed to read telemetry series: want %d rows, got %d", NumColumns, len(rows))
		}
		rows = delimited.Transpose(rows)
	}

	samples, err := decodeSamples(rows)
	if err != nil {
		return nil, err
	}
	return FromSamples(samples), nil
}

// FromSamples lays samples out as columns.
func FromSamples(samples []Sample) *Table {
	n := len(samples)
	t := &Table{
		Time:      make([]int64, n),
		Altitude:  make([]float64, n),
		Speed:     make([]float64, n),
		Vario:     make([]float64, n),
		Latitude:  make([]float64, n),
		Longitude: make([]float64, n),
	}
	for i, s := range samples {
		t.Time[i] = s.Time
		t.Altitude[i] = s.Altitude
		t.Speed[i] = s.Speed
		t.Vario[i] = s.Vario
		t.Latitude[i] = s.Latitude
		t.Longitude[i] = s.Longitude
	}
	return t
}

// Encode writes samples as one row per sample.
func Encode(samples []Sample) (string, error) {
	b, err := csvutil.Marshal(samples)
	if err != nil {
		return "", fmt.Errorf("failed to encode telemetry samples: %w", err)
	}
	// Drop csvutil's header line; telemetry blobs are headerless.
	for i, c := range b {
		if c == '\n' {
			return string(b[i+1:]), nil
		}
	}
	return "", nil
}

func decodeSamples(rows [][]string) ([]Sample, error) {
	dec, err := csvutil.NewDecoder(&rowReader{rows: rows}, Header...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry decoder: %w", err)
	}
	var samples []Sample
	if err := dec.Decode(&samples); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode telemetry samples: %w", err)
	}
	return samples, nil
}

// trimRows drops blank rows and the empty field left by a trailing delimiter.
func trimRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, r := range rows {
		if len(r) > 1 && r[len(r)-1] == "" {
			r = r[:len(r)-1]
		}
		if len(r) == 0 || (len(r) == 1 && r[0] == "") {
			continue
		}
		out = append(out, r)
	}
	return out
}

// detectLayout looks at the untrimmed rows. Six rows that all end with a
// delimiter are series lines, whatever their length; otherwise six fields
// per row means samples and exactly six rows means series.
func detectLayout(raw [][]string) Layout {
	var rows [][]string
	trailing := true
	for _, r := range raw {
		if len(r) == 0 || (len(r) == 1 && r[0] == "") {
			continue
		}
		if len(r) < 2 || r[len(r)-1] != "" {
			trailing = false
		}
		rows = append(rows, r)
	}
	if len(rows) == NumColumns && trailing {
		return LayoutSeries
	}

	samples := len(rows) > 0
	for _, r := range rows {
		n := len(r)
		if n > 1 && r[n-1] == "" {
			n--
		}
		if n != NumColumns {
			samples = false
			break
		}
	}
	if samples {
		return LayoutSamples
	}
	if len(rows) == NumColumns {
		return LayoutSeries
	}
	return LayoutSamples
}

// rowReader feeds already split rows to csvutil.
type rowReader struct {
	rows [][]string
	pos  int
}

func (r *rowReader) Read() ([]string, error) {
	if r.pos >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.pos]
	r.pos++
	return row, nil
}
