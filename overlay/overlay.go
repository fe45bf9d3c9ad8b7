// overlay/overlay.go
package overlay

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/gewnthar/logbook/profile"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
)

// tileSize is the pixel size of one map tile.
const tileSize = 256

var ErrNoFeatures = errors.New("overlay: track has no features")

// Config sizes the map and bounds its zoom.
type Config struct {
	Width   int
	Height  int
	Center  orb.Point // lon, lat
	Zoom    int
	MinZoom int
	MaxZoom int
	Tiles   TileLayer
}

// TileLayer is the base map the client draws under the track.
type TileLayer struct {
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
	MaxZoom     int    `json:"max_zoom"`
}

// View is the map viewport.
type View struct {
	Center orb.Point `json:"center"`
	Zoom   int       `json:"zoom"`
}

// Marker is the cursor marker. One marker lives for the whole session.
type Marker struct {
	Position orb.Point `json:"position"`
	Moves    int       `json:"moves"`
}

// Feature is a track feature with its resolved style.
type Feature struct {
	Role    string           `json:"role"`
	Style   *Style           `json:"style,omitempty"`
	Point   PointKind        `json:"point,omitempty"`
	Feature *geojson.Feature `json:"feature"`
}

// Snapshot is the overlay state handed to the map.
type Snapshot struct {
	Features []Feature `json:"features"`
	Bounds   orb.Bound `json:"bounds"`
	View     View      `json:"view"`
	Marker   Marker    `json:"marker"`
	Tiles    TileLayer `json:"tiles"`
}

// Overlay draws a flight track on the map and follows the profile cursor.
// It is not safe for concurrent use.
type Overlay struct {
	cfg      Config
	features []Feature
	bounds   orb.Bound
	view     View
	marker   *Marker
}

// New returns an empty overlay with the marker at the default center.
func New(cfg Config) *Overlay {
	if cfg.MaxZoom < cfg.MinZoom {
		cfg.MaxZoom = cfg.MinZoom
	}
	return &Overlay{
		cfg:    cfg,
		view:   View{Center: cfg.Center, Zoom: clamp(cfg.Zoom, cfg.MinZoom, cfg.MaxZoom)},
		marker: &Marker{Position: cfg.Center},
	}
}

// Load replaces the drawn track and fits the view to it. On error the
// previous track and view stay in place.
func (o *Overlay) Load(track string) error {
	fc, err := geojson.UnmarshalFeatureCollection([]byte(track))
	if err != nil {
		return fmt.Errorf("failed to decode track: %w", err)
	}
	if len(fc.Features) == 0 {
		return ErrNoFeatures
	}

	features := make([]Feature, 0, len(fc.Features))
	var bounds orb.Bound
	first := true
	for _, f := range fc.Features {
		role := RoleOf(f)
		features = append(features, Feature{
			Role:    role,
			Style:   StyleFor(role),
			Point:   PointKindFor(role),
			Feature: f,
		})
		if f.Geometry == nil {
			continue
		}
		if first {
			bounds = f.Geometry.Bound()
			first = false
		} else {
			bounds = bounds.Union(f.Geometry.Bound())
		}
	}

	o.features = features
	o.bounds = bounds
	o.view = View{
		Center: bounds.Center(),
		Zoom:   FitZoom(bounds, o.cfg.Width, o.cfg.Height, o.cfg.MinZoom, o.cfg.MaxZoom),
	}
	log.Printf("Overlay: loaded %d features, zoom %d", len(features), o.view.Zoom)
	return nil
}

// Clear drops the loaded track and returns the view to its default. The
// marker stays where it is.
func (o *Overlay) Clear() {
	o.features = nil
	o.bounds = orb.Bound{}
	o.view = View{Center: o.cfg.Center, Zoom: o.cfg.Zoom}
}

// RoleOf is the feature's role tag: its id, else an "id" or "role" property.
func RoleOf(f *geojson.Feature) string {
	if s, ok := f.ID.(string); ok && s != "" {
		return s
	}
	for _, key := range []string{"id", "role"} {
		if s := f.Properties.MustString(key, ""); s != "" {
			return s
		}
	}
	return ""
}

// MoveMarker repositions the cursor marker.
func (o *Overlay) MoveMarker(lat, lng float64) {
	o.marker.Position = orb.Point{lng, lat}
	o.marker.Moves++
}

// Zoom changes the zoom by step, within the configured limits, and centers
// the view on the marker.
func (o *Overlay) Zoom(step int) View {
	o.view = View{
		Center: o.marker.Position,
		Zoom:   clamp(o.view.Zoom+step, o.cfg.MinZoom, o.cfg.MaxZoom),
	}
	return o.view
}

// Attach follows a chart: its samples move the marker, its wheel steps zoom.
func (o *Overlay) Attach(c *profile.Chart) {
	c.OnSample(func(v profile.SampleView) {
		o.MoveMarker(v.Latitude, v.Longitude)
	})
	c.OnZoom(func(ev profile.ZoomEvent) {
		o.Zoom(ev.Step)
	})
}

func (o *Overlay) Features() []Feature { return o.features }
func (o *Overlay) Bounds() orb.Bound { return o.bounds }
func (o *Overlay) View() View { return o.view }

// Marker is the persistent cursor marker.
func (o *Overlay) Marker() *Marker { return o.marker }

// Snapshot copies the current state.
func (o *Overlay) Snapshot() Snapshot {
	return Snapshot{
		Features: o.features,
		Bounds:   o.bounds,
		View:     o.view,
		Marker:   *o.marker,
		Tiles:    o.cfg.Tiles,
	}
}

// FitZoom is the largest zoom at which b fits in a width by height map.
// A point-sized bound gets maxZoom.
func FitZoom(b orb.Bound, width, height, minZoom, maxZoom int) int {
	topLeft := maptile.Fraction(orb.Point{b.Min[0], b.Max[1]}, 0)
	bottomRight := maptile.Fraction(orb.Point{b.Max[0], b.Min[1]}, 0)
	dx := math.Abs(bottomRight[0]-topLeft[0]) * tileSize
	dy := math.Abs(bottomRight[1]-topLeft[1]) * tileSize

	scale := math.Inf(1)
	if dx > 0 {
		scale = float64(width) / dx
	}
	if dy > 0 {
		scale = math.Min(scale, float64(height)/dy)
	}
	if math.IsInf(scale, 1) {
		return clamp(maxZoom, minZoom, maxZoom)
	}
	return clamp(int(math.Floor(math.Log2(scale))), minZoom, maxZoom)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
