// pkg/core/frame.go
package core

import (
	"slices"
	"time"
)

// SensorFrame is what the control function sees on one control tick.
type SensorFrame struct {
	// Heading in compass degrees, 0 is local north, clockwise.
	Heading  float64  `json:"heading"`
	Location Location `json:"location"`
	// Proximity holds one distance per sweep direction, relative to Heading.
	Proximity          []float64     `json:"proximity"`
	TargetFinderSignal *float64      `json:"targetFinderSignal,omitempty"`
	Clock              time.Duration `json:"clock"`
}

// ActuatorCommand carries engine power in [-1,1] and steering angles in [0,360).
// A steering value of 180 points the wheel straight ahead.
type ActuatorCommand struct {
	Engines  []float64 `json:"engines"`
	Steering []float64 `json:"steering,omitempty"`
}

// Clone returns a deep copy of c.
func (c ActuatorCommand) Clone() ActuatorCommand {
	return ActuatorCommand{
		Engines:  slices.Clone(c.Engines),
		Steering: slices.Clone(c.Steering),
	}
}

// ControlFunc is the user supplied control loop body.
type ControlFunc func(sensors SensorFrame, actuators ActuatorCommand) ActuatorCommand
