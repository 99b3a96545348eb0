// Package sensor synthesizes the rover's exteroceptive readings.
package sensor

import (
	"math"

	"github.com/OCAP2/roversim/internal/authenticity"
	"github.com/OCAP2/roversim/pkg/core"
)

// Resolution is the number of samples in one proximity sweep.
const Resolution = 180

// RayCaster finds the closest collidable surface along a segment.
// Sensor-only geometry never reports a hit.
type RayCaster interface {
	RayCast(from, to core.Point) (distance float64, hit bool)
}

// ProximitySensor sweeps a full turn of rays around the rover.
type ProximitySensor struct {
	maxRange float64
	options  authenticity.PhysicalOptions
}

// NewProximitySensor creates a sensor with the given range. Errors are
// injected from options when it models the proximity channel.
func NewProximitySensor(maxRange float64, options authenticity.PhysicalOptions) *ProximitySensor {
	return &ProximitySensor{maxRange: maxRange, options: options}
}

// MaxRange returns the sensing range in meters.
func (s *ProximitySensor) MaxRange() float64 {
	return s.maxRange
}

// Sweep returns Resolution distances. Sample i looks along compass bearing
// heading + i*360/Resolution degrees, so the sweep turns with the rover.
func (s *ProximitySensor) Sweep(world RayCaster, position core.Point, heading float64) []float64 {
	values := Sweep(world, position, heading, s.maxRange)
	if s.options == nil || !s.options.Models(authenticity.ChannelProximity) {
		return values
	}
	for i, v := range values {
		values[i] = s.options.ErrorProximity(v)
	}
	return values
}

// Sweep returns the ground truth distances of one sweep, maxRange where
// nothing was hit.
func Sweep(world RayCaster, position core.Point, heading, maxRange float64) []float64 {
	values := make([]float64, Resolution)
	step := 2 * math.Pi / Resolution
	base := heading * math.Pi / 180

	for i := range values {
		bearing := base + step*float64(i)
		to := core.Point{
			X: position.X + maxRange*math.Sin(bearing),
			Y: position.Y + maxRange*math.Cos(bearing),
		}

		values[i] = maxRange
		if d, hit := world.RayCast(position, to); hit {
			values[i] = math.Min(math.Abs(d), maxRange)
		}
	}
	return values
}
