package authenticity

import (
	"github.com/OCAP2/roversim/internal/geo"
	"github.com/OCAP2/roversim/pkg/core"
)

const (
	maxHeadingError  = 5.0
	maxEngineError   = 0.01
	maxLocationError = 5.0
	// faultProbability is the chance per proximity sample of a sensor fault.
	faultProbability = 0.001
	// faultFactor scales the max range into the reading error of a fault.
	faultFactor = 10.0
)

// draw is the distribution a noise level samples its errors from.
type draw func(src Source, min, max float64) float64

func uniformDraw(src Source, min, max float64) float64 {
	return src.Float64()*(max-min) + min
}

func normalDraw(src Source, min, max float64) float64 {
	return normalRandom(src, min, max, 1)
}

// noise implements both noisy levels; they only differ in distribution
// and in whether proximity is modeled.
type noise struct {
	level     Level
	src       Source
	draw      draw
	bias      []float64
	maxRange  float64
	proximity bool
}

func newUniform(vehicle core.VehicleOptions, src Source) *noise {
	return newNoise(UniformNoise, vehicle, src, uniformDraw, true)
}

func newGaussian(vehicle core.VehicleOptions, src Source) *noise {
	return newNoise(GaussianNoise, vehicle, src, normalDraw, false)
}

func newNoise(level Level, vehicle core.VehicleOptions, src Source, d draw, proximity bool) *noise {
	n := &noise{
		level:     level,
		src:       src,
		draw:      d,
		bias:      make([]float64, vehicle.EngineCount),
		maxRange:  vehicle.MaxProximityRange,
		proximity: proximity,
	}
	// static per engine, drawn once
	for i := range n.bias {
		n.bias[i] = maxEngineError * (d(src, 0, 1)*2 - 1)
	}
	return n
}

func (n *noise) Level() Level {
	return n.level
}

func (n *noise) EngineCount() int {
	return len(n.bias)
}

func (n *noise) Models(ch Channel) bool {
	if ch == ChannelProximity {
		return n.proximity
	}
	return true
}

// ErrorEngine adds the engine's static bias. Unknown engines pass through.
func (n *noise) ErrorEngine(engine int, value float64) float64 {
	if engine < 0 || engine >= len(n.bias) {
		return value
	}
	return value + n.bias[engine]
}

func (n *noise) ErrorHeading(heading float64) float64 {
	return geo.NormalizeBearing(360 + heading + maxHeadingError*(n.draw(n.src, 0, 1)*2-1))
}

// ErrorLocation displaces the location by up to maxLocationError meters.
// The bearing is always uniform so the displacement has no preferred direction.
func (n *noise) ErrorLocation(location core.Location) core.Location {
	distance := n.draw(n.src, 0, maxLocationError)
	bearing := uniformDraw(n.src, 0, 359.999)
	return geo.Destination(location, distance, bearing)
}

// ErrorProximity adds a small skewed error. Readings at or beyond the max
// range get a smaller error centred slightly below zero, and a rare fault
// pushes the reading far beyond the range.
func (n *noise) ErrorProximity(distance float64) float64 {
	if !n.proximity {
		return distance
	}

	var err float64
	if distance+0.001 >= n.maxRange {
		err = (biasedRandom(n.src, 0.25, 1, 0, 1) - 0.25) * 0.1 * n.maxRange
	} else {
		err = (biasedRandom(n.src, 0.5, 1, 0, 1) - 0.5) * 0.2
	}
	if n.src.Float64() < faultProbability {
		err = n.maxRange * faultFactor
	}
	return distance + err
}
