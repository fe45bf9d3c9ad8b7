// profile/geometry.go
package profile

import (
	"math"

	"github.com/gewnthar/logbook/telemetry"
)

// Viewport is the chart area in pixels. FontSize drives the axis margins.
type Viewport struct {
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	FontSize float64 `json:"font_size"`
}

// DefaultFontSize is used when a viewport has no font size.
const DefaultFontSize = 16

func (v Viewport) fontSize() float64 {
	if v.FontSize <= 0 {
		return DefaultFontSize
	}
	return v.FontSize
}

// Geometry maps samples to chart pixels. It is recomputed on every render.
type Geometry struct {
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	FontSize     float64 `json:"font_size"`
	WidthOffset  float64 `json:"width_offset"`
	HeightOffset float64 `json:"height_offset"`
	XStep        float64 `json:"x_step"` // pixels per sample
	YStep        float64 `json:"y_step"` // pixels per metre

	SampleCount     int     `json:"sample_count"`
	MaxAltitude     float64 `json:"max_altitude"`
	AltitudeCeiling float64 `json:"altitude_ceiling"`
	AltitudeStep    float64 `json:"altitude_step"`
	TimeStep        int     `json:"time_step"`
}

// ComputeGeometry derives the chart scale for a table in a viewport.
// A nil table gives the geometry of an empty chart.
func ComputeGeometry(t *telemetry.Table, vp Viewport) Geometry {
	font := vp.fontSize()
	g := Geometry{
		Width:        vp.Width,
		Height:       vp.Height,
		FontSize:     font,
		WidthOffset:  font * 6,
		HeightOffset: font * 3,
		SampleCount:  t.Len(),
	}
	if g.SampleCount > 0 {
		g.MaxAltitude = t.MaxAltitude()
	}
	g.AltitudeCeiling = AltitudeCeiling(g.MaxAltitude)
	g.AltitudeStep = AltitudeStep(g.MaxAltitude)
	g.TimeStep = TimeStep(g.SampleCount)

	if g.SampleCount > 0 {
		g.XStep = (vp.Width - g.WidthOffset) / float64(g.SampleCount)
	}
	if g.AltitudeCeiling > 0 {
		g.YStep = (vp.Height - g.HeightOffset) / g.AltitudeCeiling
	}
	return g
}

// AltitudeCeiling rounds the maximum altitude up to the next whole kilometre.
// Non-positive altitudes give 0.
func AltitudeCeiling(maxAltitude float64) float64 {
	if maxAltitude <= 0 || math.IsInf(maxAltitude, 0) || math.IsNaN(maxAltitude) {
		return 0
	}
	return math.Ceil(maxAltitude/1000) * 1000
}

// AltitudeStep is the gridline spacing: 500 m up to 1500 m, 1000 m above.
func AltitudeStep(altitude float64) float64 {
	if altitude <= 1500 {
		return 500
	}
	return 1000
}

// TimeStep is the spacing, in samples, of time axis labels.
func TimeStep(sampleCount int) int {
	if sampleCount <= 3600 {
		return 600
	}
	return 1800
}

// Left is the x of the plot origin.
func (g Geometry) Left() float64 {
	return g.WidthOffset * 0.8
}

// Right is the x of the plot's right margin.
func (g Geometry) Right() float64 {
	return g.Width - g.WidthOffset*0.2
}

// X is the x of sample i.
func (g Geometry) X(i int) float64 {
	return float64(i)*g.XStep + g.Left()
}

// Y is the y of an altitude.
func (g Geometry) Y(altitude float64) float64 {
	return g.Height - altitude*g.YStep - g.HeightOffset/2
}

// Index maps a pointer x to a sample index. It reports false when the
// pointer is outside the plot or past the last sample.
func (g Geometry) Index(x float64) (int, bool) {
	if g.SampleCount == 0 || g.XStep <= 0 {
		return 0, false
	}
	if x < g.Left() || x > g.Right() {
		return 0, false
	}
	i := int(math.Floor((x - g.Left()) / g.XStep))
	if i < 0 || i >= g.SampleCount {
		return 0, false
	}
	return i, true
}

// Gridlines lists the altitudes that get a horizontal line, from 0 up to the
// ceiling. A zero ceiling yields the single 0 m line.
func (g Geometry) Gridlines() []float64 {
	step := g.AltitudeStep
	if step <= 0 {
		step = 1000
	}
	var lines []float64
	for alt := 0.0; alt <= g.AltitudeCeiling; alt += step {
		lines = append(lines, alt)
	}
	return lines
}

// TimeTicks lists the sample indexes that get a time label.
func (g Geometry) TimeTicks() []int {
	var ticks []int
	for i := 0; i < g.SampleCount; i += g.TimeStep {
		ticks = append(ticks, i)
	}
	return ticks
}
