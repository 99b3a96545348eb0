package render

import (
	"image/color"
	"math"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/OCAP2/roversim/pkg/core"
)

const (
	wheelWidth  = 0.1
	wheelLength = 0.25
	dotRadius   = 1.5
	labelSize   = 12
)

var (
	obstacleColor = colornames.Dimgray
	targetColor   = colornames.Gold
	landmineColor = colornames.Orange
	wheelColor    = colornames.Black
)

// CanvasRenderer draws a rover centred, heading up view onto a Surface.
type CanvasRenderer struct {
	surface Surface
}

var _ Renderer = (*CanvasRenderer)(nil)

// NewCanvasRenderer creates a renderer drawing onto surface.
func NewCanvasRenderer(surface Surface) *CanvasRenderer {
	return &CanvasRenderer{surface: surface}
}

// Render draws s and presents the frame.
func (r *CanvasRenderer) Render(s Snapshot) error {
	palette, err := s.Options.Palette()
	if err != nil {
		return err
	}

	c, ok := r.surface.Begin()
	if !ok {
		return nil
	}

	v := newView(c.Rectangle, s.Position, s.Heading)

	if s.Options.ShowGrid {
		drawGrid(c, v, palette.Grid)
	}
	if s.Options.ShowTrace {
		drawTrace(c, v, s.Position, s.Trace, palette.Trace)
	}
	for _, o := range s.Obstacles {
		c.DrawGlyph(draw.GlyphStyle{Color: obstacleColor, Radius: vg.Length(o.Radius * Scale), Shape: draw.CircleGlyph{}}, v.project(o.Position))
	}
	for _, t := range s.Targets {
		c.DrawGlyph(draw.GlyphStyle{Color: targetColor, Radius: vg.Length(t.Radius * Scale), Shape: draw.RingGlyph{}}, v.project(t.Position))
	}
	for _, l := range s.Landmines {
		c.DrawGlyph(draw.GlyphStyle{Color: landmineColor, Radius: vg.Length(core.LandmineRadius * Scale), Shape: draw.RingGlyph{}}, v.project(l.Position))
	}
	drawProximity(c, v, s, palette.Rover)
	drawRover(c, v, s, palette.Rover)
	for _, m := range s.Markers {
		drawMarker(c, v, m, palette.Marker)
	}
	if s.Options.ShowCompass {
		drawCompass(c, v, palette.Compass)
	}

	return r.surface.Present()
}

// view maps local frame points to canvas points so that the rover sits in
// the middle of the canvas facing up.
type view struct {
	center   vg.Point
	rover    core.Point
	cos, sin float64
	// radius is the largest distance from the rover that stays visible, in meters.
	radius float64
}

func newView(rect vg.Rectangle, rover core.Point, heading float64) view {
	theta := heading * math.Pi / 180
	w := float64(rect.Max.X - rect.Min.X)
	h := float64(rect.Max.Y - rect.Min.Y)
	return view{
		center: vg.Point{X: (rect.Min.X + rect.Max.X) / 2, Y: (rect.Min.Y + rect.Max.Y) / 2},
		rover:  rover,
		cos:    math.Cos(theta),
		sin:    math.Sin(theta),
		radius: math.Min(w, h) / 2 / Scale,
	}
}

func (v view) project(p core.Point) vg.Point {
	d := p.Sub(v.rover)
	x := d.X*v.cos - d.Y*v.sin
	y := d.X*v.sin + d.Y*v.cos
	return vg.Point{
		X: v.center.X + vg.Length(x*Scale),
		Y: v.center.Y + vg.Length(y*Scale),
	}
}

// body converts a point in rover body coordinates (x right, y forward) to the local frame.
func body(position core.Point, heading float64, local core.Point) core.Point {
	theta := heading * math.Pi / 180
	right := core.Point{X: math.Cos(theta), Y: -math.Sin(theta)}
	fwd := core.Point{X: math.Sin(theta), Y: math.Cos(theta)}
	return position.Add(right.Scale(local.X)).Add(fwd.Scale(local.Y))
}

func drawGrid(c draw.Canvas, v view, clr color.Color) {
	sty := draw.LineStyle{Color: clr, Width: vg.Points(1)}
	r := v.radius * math.Sqrt2
	for x := math.Floor((v.rover.X-r)/GridGutter) * GridGutter; x <= v.rover.X+r; x += GridGutter {
		c.StrokeLines(sty, []vg.Point{v.project(core.Point{X: x, Y: v.rover.Y - r}), v.project(core.Point{X: x, Y: v.rover.Y + r})})
	}
	for y := math.Floor((v.rover.Y-r)/GridGutter) * GridGutter; y <= v.rover.Y+r; y += GridGutter {
		c.StrokeLines(sty, []vg.Point{v.project(core.Point{X: v.rover.X - r, Y: y}), v.project(core.Point{X: v.rover.X + r, Y: y})})
	}
}

func drawTrace(c draw.Canvas, v view, rover core.Point, trace []core.Point, clr color.Color) {
	if len(trace) == 0 {
		return
	}
	pts := make([]vg.Point, 0, len(trace)+1)
	pts = append(pts, v.project(rover))
	for _, p := range trace {
		pts = append(pts, v.project(p))
	}
	c.StrokeLines(draw.LineStyle{Color: clr, Width: vg.Points(1.5)}, pts)
}

func drawProximity(c draw.Canvas, v view, s Snapshot, clr color.Color) {
	if len(s.Proximity) == 0 {
		return
	}
	step := 360.0 / float64(len(s.Proximity))
	dim := dimmed(clr)
	for i, d := range s.Proximity {
		b := (s.Heading + step*float64(i)) * math.Pi / 180
		p := s.Position.Add(core.Point{X: math.Sin(b), Y: math.Cos(b)}.Scale(d))
		dot := clr
		if d >= s.MaxProximity {
			dot = dim
		}
		c.DrawGlyph(draw.GlyphStyle{Color: dot, Radius: dotRadius, Shape: draw.CircleGlyph{}}, v.project(p))
	}
}

func drawRover(c draw.Canvas, v view, s Snapshot, clr color.Color) {
	hw, hh := s.BodyWidth/2, s.BodyHeight/2
	c.FillPolygon(clr, []vg.Point{
		v.project(body(s.Position, s.Heading, core.Point{X: -hw, Y: -hh})),
		v.project(body(s.Position, s.Heading, core.Point{X: hw, Y: -hh})),
		v.project(body(s.Position, s.Heading, core.Point{X: hw, Y: hh})),
		v.project(body(s.Position, s.Heading, core.Point{X: -hw, Y: hh})),
	})

	for _, w := range s.Wheels {
		// steer value is positive clockwise
		steer := w.SteerValue * 180 / math.Pi
		center := body(s.Position, s.Heading, w.LocalPosition)
		heading := s.Heading + steer
		c.FillPolygon(wheelColor, []vg.Point{
			v.project(body(center, heading, core.Point{X: -wheelWidth / 2, Y: -wheelLength / 2})),
			v.project(body(center, heading, core.Point{X: wheelWidth / 2, Y: -wheelLength / 2})),
			v.project(body(center, heading, core.Point{X: wheelWidth / 2, Y: wheelLength / 2})),
			v.project(body(center, heading, core.Point{X: -wheelWidth / 2, Y: wheelLength / 2})),
		})
	}
}

func drawMarker(c draw.Canvas, v view, m core.Marker, clr color.Color) {
	pos := m.Position
	d := pos.Sub(v.rover)
	if l := d.Len(); l > v.radius {
		pos = v.rover.Add(d.Scale(v.radius / l))
	}
	pt := v.project(pos)
	c.DrawGlyph(draw.GlyphStyle{Color: clr, Radius: vg.Points(4), Shape: draw.CircleGlyph{}}, pt)
	if m.Label != "" {
		c.FillText(textStyle(clr, text.YBottom), vg.Point{X: pt.X, Y: pt.Y + vg.Points(6)}, m.Label)
	}
}

func drawCompass(c draw.Canvas, v view, clr color.Color) {
	r := v.radius - 1
	for _, l := range []struct {
		label string
		dir   core.Point
	}{
		{"N", core.Point{Y: 1}},
		{"E", core.Point{X: 1}},
		{"S", core.Point{Y: -1}},
		{"W", core.Point{X: -1}},
	} {
		c.FillText(textStyle(clr, text.YCenter), v.project(v.rover.Add(l.dir.Scale(r))), l.label)
	}
}

func textStyle(clr color.Color, y text.YAlignment) text.Style {
	fnt := plot.DefaultFont
	fnt.Size = vg.Points(labelSize)
	return text.Style{
		Color:   clr,
		Font:    fnt,
		XAlign:  text.XCenter,
		YAlign:  y,
		Handler: plot.DefaultTextHandler,
	}
}

func dimmed(clr color.Color) color.Color {
	r, g, b, _ := clr.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 0x40}
}
