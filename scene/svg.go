package scene

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"
	"github.com/rotisserie/eris"

	"kuanb/scout-choropleth/format"
)

const (
	legendHeight = 56
	swatchWidth  = 36
	swatchHeight = 12
	labelStyle   = "text-anchor:middle;font-family:sans-serif;font-size:10px;fill:#111827;pointer-events:none"
	legendText   = "font-family:sans-serif;font-size:11px;fill:#374151"
)

// errWriter remembers the first write error, since svgo does not report them
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

func canvasSize(width, height float64) (int, int) {
	return int(math.Ceil(width)), int(math.Ceil(height)) + legendHeight
}

// WriteSVG draws the scene as an SVG document with the legend below the map
func WriteSVG(w io.Writer, s *Scene) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)

	cw, ch := canvasSize(s.Width, s.Height)
	canvas.Start(cw, ch)
	canvas.Title(s.Legend.Label)

	canvas.Group("stroke-linejoin:round")
	for _, sh := range s.Shapes {
		canvas.Group()
		canvas.Title(sh.RegionName)
		canvas.Path(sh.D, fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%g;fill-rule:evenodd",
			sh.Fill, s.StrokeColor, s.StrokeWidth))
		canvas.Gend()
	}
	canvas.Gend()

	canvas.Group(labelStyle)
	for _, sh := range s.Shapes {
		if sh.Label == "" {
			continue
		}
		canvas.Text(int(math.Round(sh.Centroid[0])), int(math.Round(sh.Centroid[1])), sh.Label)
	}
	canvas.Gend()

	writeLegend(canvas, s.Legend, int(math.Ceil(s.Height)))
	canvas.End()

	if ew.err != nil {
		return eris.Wrap(ew.err, "scene: write svg")
	}
	return nil
}

func writeLegend(canvas *svg.SVG, l Legend, top int) {
	x := 10
	y := top + 8
	canvas.Group(legendText)
	canvas.Text(x, y+10, l.Label)
	y += 16

	for i, e := range l.Entries {
		canvas.Rect(x+i*swatchWidth, y, swatchWidth, swatchHeight, "fill:"+e.Color)
	}
	right := x + len(l.Entries)*swatchWidth
	if l.LowLabel != "" {
		canvas.Text(x, y+swatchHeight+12, l.LowLabel, "text-anchor:start")
		canvas.Text(right, y+swatchHeight+12, l.HighLabel, "text-anchor:end")
	}

	nd := right + 24
	canvas.Rect(nd, y, swatchHeight, swatchHeight, "fill:"+l.NoDataColor)
	canvas.Text(nd+swatchHeight+4, y+swatchHeight-2, format.NoData)
	canvas.Gend()
}

// WriteEmptySVG draws the explicit empty state shown when nothing can be rendered
func WriteEmptySVG(w io.Writer, width, height float64, message string) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	cw, ch := canvasSize(width, height)
	canvas.Start(cw, ch)
	canvas.Rect(0, 0, cw, ch, "fill:#f9fafb")
	canvas.Text(cw/2, ch/2, message, "text-anchor:middle;font-family:sans-serif;font-size:14px;fill:#6b7280")
	canvas.End()
	if ew.err != nil {
		return eris.Wrap(ew.err, "scene: write empty svg")
	}
	return nil
}
