// pkg/core/location.go
package core

import "math"

// Location is a geodetic position in decimal degrees.
type Location struct {
	Latitude  float64 `json:"latitude" mapstructure:"latitude"`
	Longitude float64 `json:"longitude" mapstructure:"longitude"`
}

// Valid reports whether the location lies within (-90,90) x (-180,180).
func (l Location) Valid() bool {
	return l.Latitude > -90 && l.Latitude < 90 &&
		l.Longitude > -180 && l.Longitude < 180
}

// Point is an offset in meters from the simulation origin.
// X grows towards east, Y grows towards north.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p scaled by s.
func (p Point) Scale(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Len returns the euclidean length of p.
func (p Point) Len() float64 {
	return math.Hypot(p.X, p.Y)
}

// DistanceTo returns the euclidean distance between p and q.
func (p Point) DistanceTo(q Point) float64 {
	return p.Sub(q).Len()
}
