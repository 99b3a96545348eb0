package geo

import (
	"math"

	"github.com/OCAP2/roversim/pkg/core"
)

// ToLocal maps a location onto the planar frame anchored at origin.
// X is the signed distance along the origin's parallel (east positive),
// Y the signed distance along the origin's meridian (north positive).
func ToLocal(origin, location core.Location) core.Point {
	x := Distance(origin, core.Location{Latitude: origin.Latitude, Longitude: location.Longitude})
	y := Distance(origin, core.Location{Latitude: location.Latitude, Longitude: origin.Longitude})

	// east or west by the shorter way round, across the antimeridian too
	if math.Remainder(location.Longitude-origin.Longitude, 360) < 0 {
		x = -x
	}
	if location.Latitude < origin.Latitude {
		y = -y
	}
	return core.Point{X: x, Y: y}
}

// ToGeo is the inverse of ToLocal.
func ToGeo(origin core.Location, p core.Point) core.Location {
	eastWest := 90.0
	if p.X < 0 {
		eastWest = 270
	}
	northSouth := 0.0
	if p.Y < 0 {
		northSouth = 180
	}

	return core.Location{
		Latitude:  Destination(origin, abs(p.Y), northSouth).Latitude,
		Longitude: Destination(origin, abs(p.X), eastWest).Longitude,
	}
}

// Frame is a CoordinateFrame with a fixed origin.
type Frame struct {
	origin core.Location
}

// NewFrame creates a frame anchored at origin.
func NewFrame(origin core.Location) Frame {
	return Frame{origin: origin}
}

// Origin returns the frame origin.
func (f Frame) Origin() core.Location {
	return f.origin
}

// ToLocal maps a location into the frame.
func (f Frame) ToLocal(location core.Location) core.Point {
	return ToLocal(f.origin, location)
}

// ToGeo maps a frame position back to a location.
func (f Frame) ToGeo(p core.Point) core.Location {
	return ToGeo(f.origin, p)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
