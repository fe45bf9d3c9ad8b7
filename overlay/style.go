// overlay/style.go
package overlay

import "strings"

// PointKind says how a point feature is drawn.
type PointKind string

const (
	PointDefault PointKind = ""
	PointCircle  PointKind = "circle"
	PointMarker  PointKind = "marker"
)

// Style is the path style handed to the map. Nil fields are left to the
// map's defaults.
type Style struct {
	Color       string   `json:"color,omitempty"`
	Opacity     *float64 `json:"opacity,omitempty"`
	Weight      float64  `json:"weight,omitempty"`
	Radius      float64  `json:"radius,omitempty"`
	FillColor   string   `json:"fillColor,omitempty"`
	FillOpacity *float64 `json:"fillOpacity,omitempty"`
}

const (
	segmentColor = "#ff7800"
	flightColor  = "#3A00E5"
)

func opacity(v float64) *float64 { return &v }

var (
	segmentStyle = Style{Color: segmentColor, Opacity: opacity(0.7)}
	closingStyle = Style{Opacity: opacity(0)}
	flightStyle  = Style{Color: flightColor}
	pointStyle   = Style{
		Radius:      5,
		FillColor:   "#ffffff",
		Color:       "#000",
		Weight:      1,
		FillOpacity: opacity(1),
	}
)

// StyleFor looks up the style of a role. Unknown roles get nil.
func StyleFor(role string) *Style {
	var s Style
	switch {
	case role == "seg_in", role == "seg_out", numbered(role, "seg"):
		s = segmentStyle
	case role == "closing":
		s = closingStyle
	case role == "flight":
		s = flightStyle
	case PointKindFor(role) == PointCircle:
		s = pointStyle
	default:
		return nil
	}
	return &s
}

// PointKindFor tells how a point with this role is drawn: start, finish and
// turnpoints as small circles, launch and landing as markers.
func PointKindFor(role string) PointKind {
	switch {
	case role == "ep_start", role == "ep_finish", numbered(role, "tp"):
		return PointCircle
	case numbered(role, "launch"), numbered(role, "land"):
		return PointMarker
	}
	return PointDefault
}

// numbered reports whether role is prefix followed by one or more digits.
func numbered(role, prefix string) bool {
	rest, ok := strings.CutPrefix(role, prefix)
	if !ok || rest == "" {
		return false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
