// navigation/tree.go
package navigation

import (
	"errors"
	"fmt"
	"math"

	"github.com/gewnthar/logbook/models"
	"github.com/gewnthar/logbook/utils"
)

// Label widths, in runes, of the duration and distance columns.
const (
	durationWidth = 8
	distanceWidth = 7
)

var (
	ErrUnknownGroup  = errors.New("navigation: unknown group")
	ErrUnknownFlight = errors.New("navigation: unknown flight")
)

// SelectFunc receives the id of a clicked flight.
type SelectFunc func(flightID int64)

// FlightEntry is a leaf of the tree.
type FlightEntry struct {
	ID       int64
	Date     string
	Duration string
	Distance string
	Triangle bool
	Selected bool
}

// MonthNode groups the flights of one month.
type MonthNode struct {
	Key       string // YYYY-MM
	Label     string // MM
	Collapsed bool
	Flights   []*FlightEntry
}

// YearNode groups the months of one year.
type YearNode struct {
	Key       string // YYYY
	Collapsed bool
	Months    []*MonthNode
}

// Tree is the year → month → flight navigation built from one history load.
// Groups appear in the order their first flight appears in the input.
type Tree struct {
	Years []*YearNode

	years    map[string]*YearNode
	months   map[string]*MonthNode
	flights  map[int64]*FlightEntry
	selected *int64
	onSelect SelectFunc
}

// Build groups summaries by year and month without reordering them.
// Every group starts collapsed except the first year.
func Build(summaries []models.FlightSummary, onSelect SelectFunc) *Tree {
	t := &Tree{
		years:    make(map[string]*YearNode),
		months:   make(map[string]*MonthNode),
		flights:  make(map[int64]*FlightEntry, len(summaries)),
		onSelect: onSelect,
	}

	for _, s := range summaries {
		yearKey := utils.YearKey(s.Date)
		monthKey := utils.MonthKey(s.Date)

		y, ok := t.years[yearKey]
		if !ok {
			y = &YearNode{Key: yearKey, Collapsed: true}
			t.years[yearKey] = y
			t.Years = append(t.Years, y)
		}
		m, ok := t.months[monthKey]
		if !ok {
			m = &MonthNode{Key: monthKey, Label: utils.MonthLabel(monthKey), Collapsed: true}
			t.months[monthKey] = m
			y.Months = append(y.Months, m)
		}

		entry := &FlightEntry{
			ID:       s.FlightID,
			Date:     s.Date,
			Duration: utils.PadLabel(FormatDuration(s.Duration), durationWidth),
			Distance: utils.PadLabel(FormatDistance(s.Score, s.Code), distanceWidth),
			Triangle: s.Code.IsTriangle(),
		}
		m.Flights = append(m.Flights, entry)
		t.flights[s.FlightID] = entry
	}

	if len(t.Years) > 0 {
		t.Years[0].Collapsed = false
	}
	return t
}

// Len is the number of flight leaves.
func (t *Tree) Len() int {
	n := 0
	for _, y := range t.Years {
		for _, m := range y.Months {
			n += len(m.Flights)
		}
	}
	return n
}

// Year returns the year group for key.
func (t *Tree) Year(key string) (*YearNode, bool) {
	y, ok := t.years[key]
	return y, ok
}

// Month returns the month group for a YYYY-MM key.
func (t *Tree) Month(key string) (*MonthNode, bool) {
	m, ok := t.months[key]
	return m, ok
}

// ToggleYear flips one year's collapsed flag and returns the new value.
func (t *Tree) ToggleYear(key string) (bool, error) {
	y, ok := t.years[key]
	if !ok {
		return false, fmt.Errorf("%w: year %q", ErrUnknownGroup, key)
	}
	y.Collapsed = !y.Collapsed
	return y.Collapsed, nil
}

// ToggleMonth flips one month's collapsed flag and returns the new value.
func (t *Tree) ToggleMonth(key string) (bool, error) {
	m, ok := t.months[key]
	if !ok {
		return false, fmt.Errorf("%w: month %q", ErrUnknownGroup, key)
	}
	m.Collapsed = !m.Collapsed
	return m.Collapsed, nil
}

// Toggle dispatches on the key shape: YYYY toggles a year, YYYY-MM a month.
func (t *Tree) Toggle(key string) (bool, error) {
	if len(key) == 4 {
		return t.ToggleYear(key)
	}
	return t.ToggleMonth(key)
}

// Select moves the selection marker to flight id and notifies the listener.
func (t *Tree) Select(id int64) error {
	entry, ok := t.flights[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownFlight, id)
	}
	if t.selected != nil {
		if prev, ok := t.flights[*t.selected]; ok {
			prev.Selected = false
		}
	}
	entry.Selected = true
	t.selected = &id

	if t.onSelect != nil {
		t.onSelect(id)
	}
	return nil
}

// SelectedID returns the currently selected flight, if any.
func (t *Tree) SelectedID() (int64, bool) {
	if t.selected == nil {
		return 0, false
	}
	return *t.selected, true
}

// FormatDuration renders minutes as "1h05min", or "45min" under an hour.
// Minutes are always two digits.
func FormatDuration(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	if h != 0 {
		return fmt.Sprintf("%dh%02dmin", h, m)
	}
	return fmt.Sprintf("%02dmin", m)
}

// FormatDistance renders a score as kilometres with one decimal.
func FormatDistance(score float64, code models.FlightCode) string {
	return fmt.Sprintf("%.1fkm", roundHalfUp(score/code.ScoreDivisor(), 1))
}

// roundHalfUp rounds ties away from zero: 2.25 becomes 2.3.
func roundHalfUp(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
