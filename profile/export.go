// profile/export.go
package profile

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// WritePNG renders the altitude profile as a PNG image.
func (c *Chart) WritePNG(w io.Writer) error {
	if err := c.table.Validate(); err != nil {
		return err
	}
	n := c.table.Len()
	xValues := make([]time.Time, n)
	for i, ts := range c.table.Time {
		xValues[i] = time.Unix(ts, 0).In(c.location)
	}

	g := c.geom
	graph := chart.Chart{
		Width:  int(g.Width),
		Height: int(g.Height),
		Background: chart.Style{
			Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return FormatClock(int64(f/float64(time.Second)), c.location)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Name: "m",
			Range: &chart.ContinuousRange{
				Min: 0,
				Max: math.Max(g.AltitudeCeiling, g.AltitudeStep),
			},
			Ticks: altitudeTicks(g),
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name: "Altitude",
				Style: chart.Style{
					StrokeColor: drawing.ColorFromHex(curveColor[1:]),
					StrokeWidth: 2,
				},
				XValues: xValues,
				YValues: c.table.Altitude,
			},
		},
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render profile png: %w", err)
	}
	return nil
}

func altitudeTicks(g Geometry) []chart.Tick {
	lines := g.Gridlines()
	if len(lines) < 2 {
		lines = append(lines, g.AltitudeStep)
	}
	ticks := make([]chart.Tick, len(lines))
	for i, alt := range lines {
		ticks[i] = chart.Tick{Value: alt, Label: fmt.Sprintf("%.0fm", alt)}
	}
	return ticks
}

// WriteChartsPage renders altitude, speed and vertical speed as an
// interactive HTML page.
func (c *Chart) WriteChartsPage(w io.Writer, title string) error {
	if err := c.table.Validate(); err != nil {
		return err
	}
	n := c.table.Len()
	xAxis := make([]string, n)
	altitude := make([]opts.LineData, n)
	speed := make([]opts.LineData, n)
	vario := make([]opts.LineData, n)
	for i := 0; i < n; i++ {
		s := c.table.Sample(i)
		xAxis[i] = FormatClock(s.Time, c.location)
		altitude[i] = opts.LineData{Value: s.Altitude}
		speed[i] = opts.LineData{Value: math.Round(s.Speed * 3.6)}
		vario[i] = opts.LineData{Value: math.Round(s.Vario*10) / 10}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Width:     fmt.Sprintf("%dpx", int(c.viewport.Width)),
			Height:    fmt.Sprintf("%dpx", int(c.viewport.Height)),
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: "Altitude (m), speed (km/h), vertical speed (m/s)",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Time",
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:  "inside",
			Start: 0,
			End:   100,
		}),
	)
	line.SetXAxis(xAxis).
		AddSeries("Altitude", altitude).
		AddSeries("Speed", speed).
		AddSeries("Vario", vario)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("failed to render profile charts: %w", err)
	}
	return nil
}
