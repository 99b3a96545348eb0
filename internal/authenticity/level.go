// Package authenticity injects sensor and actuator errors into the simulation
// at a selectable fidelity level.
package authenticity

import (
	"fmt"
	"strings"

	"github.com/OCAP2/roversim/pkg/core"
)

// Level is the fidelity tier of the error model.
type Level int

const (
	// Ideal reports ground truth on every channel.
	Ideal Level = iota
	// UniformNoise draws all errors from uniform distributions.
	UniformNoise
	// GaussianNoise draws heading, engine and location errors from an
	// approximately normal distribution and leaves proximity untouched.
	GaussianNoise
)

var levelNames = map[Level]string{
	Ideal:         "ideal",
	UniformNoise:  "uniform",
	GaussianNoise: "gaussian",
}

// Levels returns all levels, lowest fidelity error first.
func Levels() []Level {
	return []Level{Ideal, UniformNoise, GaussianNoise}
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel accepts a level name ("ideal", "uniform", "gaussian") or its
// numeric form ("0", "level1", ...).
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "level")
	switch s {
	case "ideal", "0":
		return Ideal, nil
	case "uniform", "1":
		return UniformNoise, nil
	case "gaussian", "2":
		return GaussianNoise, nil
	}
	return Ideal, fmt.Errorf("unknown authenticity level: %q", s)
}

// Channel is one error injection point.
type Channel int

const (
	ChannelEngine Channel = iota
	ChannelHeading
	ChannelLocation
	ChannelProximity
)

// PhysicalOptions is the bundle of error functions built once per simulation.
type PhysicalOptions interface {
	Level() Level
	EngineCount() int
	// Models reports whether the channel is subject to error injection.
	// Channels that are not modeled behave as the identity.
	Models(ch Channel) bool
	ErrorEngine(engine int, value float64) float64
	ErrorHeading(heading float64) float64
	ErrorLocation(location core.Location) core.Location
	ErrorProximity(distance float64) float64
}

// Factory builds the physical options for a vehicle.
type Factory func(vehicle core.VehicleOptions) PhysicalOptions

// Default vehicle values applied when the options leave them unset.
const (
	DefaultEngineCount       = 2
	DefaultMaxProximityRange = 8.0
)

// Factory returns the factory of level l drawing from src.
// A nil src uses a randomly seeded source.
func (l Level) Factory(src Source) Factory {
	return func(vehicle core.VehicleOptions) PhysicalOptions {
		return New(l, vehicle, src)
	}
}

// New builds the physical options of level l.
func New(l Level, vehicle core.VehicleOptions, src Source) PhysicalOptions {
	if src == nil {
		src = NewRandomSource()
	}
	if vehicle.EngineCount <= 0 {
		vehicle.EngineCount = DefaultEngineCount
	}
	if vehicle.MaxProximityRange <= 0 {
		vehicle.MaxProximityRange = DefaultMaxProximityRange
	}

	switch l {
	case UniformNoise:
		return newUniform(vehicle, src)
	case GaussianNoise:
		return newGaussian(vehicle, src)
	default:
		return ideal{engineCount: vehicle.EngineCount}
	}
}
