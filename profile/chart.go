// profile/chart.go
package profile

import (
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/gewnthar/logbook/telemetry"
)

// SampleView is the readout of one sample under the pointer.
type SampleView struct {
	Index     int     `json:"index"`
	Timestamp int64   `json:"timestamp"`
	Time      string  `json:"time"` // H:MM
	Altitude  float64 `json:"altitude"`
	SpeedKmh  int     `json:"speed_kmh"`
	Vario     float64 `json:"vario"` // m/s, one decimal
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`

	CursorX  float64 `json:"cursor_x"`
	ReadoutX float64 `json:"readout_x"`
	ReadoutY float64 `json:"readout_y"`
}

// Lines is the readout text, top to bottom.
func (v SampleView) Lines() []string {
	return []string{
		v.Time,
		strconv.FormatFloat(v.Altitude, 'f', -1, 64) + "m",
		strconv.Itoa(v.SpeedKmh) + "km/h",
		strconv.FormatFloat(v.Vario, 'f', 1, 64) + "m/s",
	}
}

// ZoomEvent is one discrete zoom step: +1 zooms in, -1 zooms out.
type ZoomEvent struct {
	Step int `json:"step"`
}

// Chart is the altitude profile of one flight. It is not safe for
// concurrent use; the viewer serialises access.
type Chart struct {
	viewport Viewport
	location *time.Location

	table  *telemetry.Table
	geom   Geometry
	cursor *SampleView

	sampleSubs []func(SampleView)
	zoomSubs   []func(ZoomEvent)
}

// New returns an empty chart. A nil location means time.Local.
func New(vp Viewport, loc *time.Location) *Chart {
	if loc == nil {
		loc = time.Local
	}
	c := &Chart{viewport: vp, location: loc}
	c.geom = ComputeGeometry(nil, vp)
	return c
}

// OnSample registers fn for every successful pointer query.
func (c *Chart) OnSample(fn func(SampleView)) {
	c.sampleSubs = append(c.sampleSubs, fn)
}

// OnZoom registers fn for every wheel step.
func (c *Chart) OnZoom(fn func(ZoomEvent)) {
	c.zoomSubs = append(c.zoomSubs, fn)
}

// Render parses a telemetry blob and rescales the chart to vp. The previous
// table is replaced in every case; a blob that cannot be parsed leaves the
// chart empty and returns the parse error.
func (c *Chart) Render(blob string, vp Viewport) (Geometry, error) {
	c.viewport = vp
	c.cursor = nil
	table, err := telemetry.Parse(blob, telemetry.LayoutAuto)
	if err != nil {
		c.table = nil
		c.geom = ComputeGeometry(nil, vp)
		return c.geom, fmt.Errorf("failed to parse profile: %w", err)
	}
	c.table = table
	c.geom = ComputeGeometry(table, vp)
	if err := table.Validate(); err != nil {
		log.Printf("WARN Chart: %d samples, drawing gridlines only", table.Len())
	}
	return c.geom, nil
}

// Resize recomputes the geometry for a new viewport without re-parsing.
func (c *Chart) Resize(vp Viewport) Geometry {
	c.viewport = vp
	c.cursor = nil
	c.geom = ComputeGeometry(c.table, vp)
	return c.geom
}

// Geometry is the scale of the last render.
func (c *Chart) Geometry() Geometry { return c.geom }

// Table is the parsed telemetry, nil when nothing is loaded.
func (c *Chart) Table() *telemetry.Table { return c.table }

// Viewport is the size of the last render.
func (c *Chart) Viewport() Viewport { return c.viewport }

// Point is a chart pixel position.
type Point struct {
	X, Y float64
}

// Curve is the altitude polyline. It covers every sample but the last and is
// empty when there are fewer than two samples.
func (c *Chart) Curve() []Point {
	if c.table.Validate() != nil {
		return nil
	}
	n := c.table.Len() - 1
	pts := make([]Point, n)
	for i := 0; i < n; i++ {
		pts[i] = Point{X: c.geom.X(i), Y: c.geom.Y(c.table.Altitude[i])}
	}
	return pts
}

// Cursor is the sample under the last pointer query, if it hit the plot.
func (c *Chart) Cursor() (SampleView, bool) {
	if c.cursor == nil {
		return SampleView{}, false
	}
	return *c.cursor, true
}

// Query resolves a pointer position to a sample and moves the cursor there.
// It reports false, hides the cursor and notifies nobody when the pointer is
// outside the plot.
func (c *Chart) Query(x, y float64) (SampleView, bool) {
	i, ok := c.geom.Index(x)
	if !ok || i >= c.table.Len() {
		c.cursor = nil
		return SampleView{}, false
	}
	s := c.table.Sample(i)
	font := c.geom.FontSize

	view := SampleView{
		Index:     i,
		Timestamp: s.Time,
		Time:      FormatClock(s.Time, c.location),
		Altitude:  s.Altitude,
		SpeedKmh:  int(math.Round(s.Speed * 3.6)),
		Vario:     math.Round(s.Vario*10) / 10,
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		CursorX:   x,
		ReadoutX:  x + 5,
		ReadoutY:  y,
	}
	if x > c.geom.Width-font*6 {
		view.ReadoutX = c.geom.Width - font*6
	}
	if y < font*5 {
		view.ReadoutY = font * 5
	}
	c.cursor = &view

	for _, fn := range c.sampleSubs {
		fn(view)
	}
	return view, true
}

// Wheel turns a scroll delta into one zoom step. A zero delta emits nothing.
func (c *Chart) Wheel(delta float64) (ZoomEvent, bool) {
	var ev ZoomEvent
	switch {
	case delta > 0:
		ev.Step = 1
	case delta < 0:
		ev.Step = -1
	default:
		return ev, false
	}
	for _, fn := range c.zoomSubs {
		fn(ev)
	}
	return ev, true
}

// FormatClock renders an epoch second as H:MM in loc.
func FormatClock(epoch int64, loc *time.Location) string {
	t := time.Unix(epoch, 0).In(loc)
	return fmt.Sprintf("%d:%02d", t.Hour(), t.Minute())
}
