// Package render draws simulation snapshots onto 2D drawing surfaces.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"time"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot/vg/draw"

	"github.com/OCAP2/roversim/pkg/core"
)

// ErrNoContext is returned by a Mount that cannot provide a drawing surface.
var ErrNoContext = errors.New("no 2D drawing context")

const (
	// Scale is the number of pixels per meter.
	Scale = 15.0
	// GridGutter is the grid spacing in meters.
	GridGutter = 3.0
)

// Colors names the colours of the drawn elements.
// Values are CSS colour names or #rrggbb.
type Colors struct {
	Grid    string `json:"grid" mapstructure:"grid"`
	Trace   string `json:"trace" mapstructure:"trace"`
	Rover   string `json:"rover" mapstructure:"rover"`
	Marker  string `json:"marker" mapstructure:"marker"`
	Compass string `json:"compass" mapstructure:"compass"`
}

// Options control what the renderer draws.
type Options struct {
	Width       int    `json:"width" mapstructure:"width"`
	Height      int    `json:"height" mapstructure:"height"`
	ShowGrid    bool   `json:"showGrid" mapstructure:"showGrid"`
	ShowTrace   bool   `json:"showTrace" mapstructure:"showTrace"`
	ShowCompass bool   `json:"showCompass" mapstructure:"showCompass"`
	Colors      Colors `json:"colors" mapstructure:"colors"`
}

// DefaultOptions returns the rendering defaults.
func DefaultOptions() Options {
	return Options{
		Width:       500,
		Height:      500,
		ShowGrid:    true,
		ShowTrace:   true,
		ShowCompass: true,
		Colors: Colors{
			Grid:    "lightgreen",
			Trace:   "blue",
			Rover:   "red",
			Marker:  "CornflowerBlue",
			Compass: "lime",
		},
	}
}

// Palette holds parsed colours.
type Palette struct {
	Grid, Trace, Rover, Marker, Compass color.Color
}

// Palette parses the configured colours.
func (o Options) Palette() (Palette, error) {
	var p Palette
	var err error
	for _, c := range []struct {
		name string
		dst  *color.Color
	}{
		{o.Colors.Grid, &p.Grid},
		{o.Colors.Trace, &p.Trace},
		{o.Colors.Rover, &p.Rover},
		{o.Colors.Marker, &p.Marker},
		{o.Colors.Compass, &p.Compass},
	} {
		if *c.dst, err = ParseColor(c.name); err != nil {
			return Palette{}, err
		}
	}
	return p, nil
}

// ParseColor parses a CSS colour name (case-insensitive) or a #rrggbb value.
func ParseColor(s string) (color.Color, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") && len(s) == 7 {
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid colour %q: %w", s, err)
		}
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
	}
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("unknown colour %q", s)
}

// Snapshot is everything needed to draw one frame.
type Snapshot struct {
	Clock      time.Duration
	Position   core.Point
	Heading    float64
	BodyWidth  float64
	BodyHeight float64
	Wheels     []core.WheelActuator
	// Trace is newest first.
	Trace        []core.Point
	Markers      []core.Marker
	Obstacles    []core.Obstacle
	Targets      []core.Target
	Landmines    []core.Landmine
	Proximity    []float64
	MaxProximity float64
	Options      Options
}

// Renderer consumes snapshots.
type Renderer interface {
	Render(s Snapshot) error
}

// Surface is a drawing target handed out by a Mount.
type Surface interface {
	// Begin starts a frame. ok is false when the frame is to be skipped.
	Begin() (c draw.Canvas, ok bool)
	// Present completes the frame started by the last successful Begin.
	Present() error
}

// Mount is the host a simulation draws into.
type Mount interface {
	DrawingContext(width, height int) (Surface, error)
}
