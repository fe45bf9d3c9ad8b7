// profile/svg.go
package profile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	curveColor = "#3A00E5"
	gridColor  = "#7c7c7c"
)

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// WriteSVG draws the gridlines, the axis labels and, with at least two
// samples, the altitude curve.
func (c *Chart) WriteSVG(w io.Writer) error {
	g := c.geom
	font := g.FontSize
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s" font-size="%s">`+"\n",
		num(g.Width), num(g.Height), num(g.Width), num(g.Height), num(font))

	if curve := c.Curve(); len(curve) > 0 {
		var d strings.Builder
		for i, p := range curve {
			if i == 0 {
				d.WriteString("M")
			} else {
				d.WriteString(" L")
			}
			d.WriteString(num(p.X) + "," + num(p.Y))
		}
		fmt.Fprintf(bw, `<path class="curve" d="%s" fill="none" stroke="%s" stroke-width="3"/>`+"\n", d.String(), curveColor)
	}

	fmt.Fprintf(bw, `<g class="grid" stroke="%s" fill="%s">`+"\n", gridColor, gridColor)
	for _, alt := range g.Gridlines() {
		y := g.Y(alt)
		fmt.Fprintf(bw, `<text class="alt" x="%s" y="%s" stroke="none">%sm</text>`+"\n",
			num(font*0.5), num(y+font*0.25), strconv.FormatFloat(alt, 'f', -1, 64))
		fmt.Fprintf(bw, `<path class="gridline" d="M%s,%s H%s" stroke-width="1"/>`+"\n",
			num(g.Left()), num(y), num(g.Right()))
	}
	for _, i := range g.TimeTicks() {
		fmt.Fprintf(bw, `<text class="time" x="%s" y="%s" stroke="none">%s</text>`+"\n",
			num(g.X(i)-font*1.5), num(g.Height-font*0.25), FormatClock(c.table.Time[i], c.location))
	}
	bw.WriteString("</g>\n")

	if v, ok := c.Cursor(); ok {
		writeCursor(bw, v, g)
	}
	bw.WriteString("</svg>\n")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write profile svg: %w", err)
	}
	return nil
}

// writeCursor draws the vertical cursor line and the four readout lines. The
// first line sits 3.5 font sizes above the readout anchor, the rest follow
// 1.2 font sizes apart.
func writeCursor(bw *bufio.Writer, v SampleView, g Geometry) {
	font := g.FontSize
	fmt.Fprintf(bw, `<path class="cursor" d="M%s,0 V%s" stroke="black" stroke-width="1"/>`+"\n",
		num(v.CursorX), num(g.Height))
	fmt.Fprintf(bw, `<text class="readout" x="%s" y="%s" stroke="black">`, num(v.ReadoutX), num(v.ReadoutY))
	for i, line := range v.Lines() {
		dy := font * 1.2
		if i == 0 {
			dy = -font * 3.5
		}
		fmt.Fprintf(bw, `<tspan x="%s" dy="%s">%s</tspan>`, num(v.ReadoutX), num(dy), line)
	}
	bw.WriteString("</text>\n")
}
