// Package actuation maps actuator commands onto the vehicle's wheels.
package actuation

import "github.com/OCAP2/roversim/pkg/core"

// Body and force constants of the simulated vehicle.
const (
	BodyWidth  = 0.5
	BodyHeight = 1.0
	BodyMass   = 10.0

	BaseEngineForce   = 7.0
	WheelBrakeForce   = BaseEngineForce * 0.5
	WheelSideFriction = BaseEngineForce * 2
)

// StraightAhead is the steering value that keeps a wheel aligned with the body.
const StraightAhead = 180.0

// wheel positions relative to the body centre, y towards the front
var (
	tankLayout = []core.Point{
		{X: -BodyWidth / 2, Y: 0}, // left track
		{X: BodyWidth / 2, Y: 0},  // right track
	}
	roverLayout = []core.Point{
		{X: -BodyWidth / 2, Y: 0.4},  // front left
		{X: BodyWidth / 2, Y: 0.4},   // front right
		{X: -BodyWidth / 2, Y: 0},    // middle left
		{X: BodyWidth / 2, Y: 0},     // middle right
		{X: -BodyWidth / 2, Y: -0.4}, // rear left
		{X: BodyWidth / 2, Y: -0.4},  // rear right
	}
)

// steeredWheels maps steering command indices to wheel indices.
var steeredWheels = map[core.VehicleType][]int{
	core.VehicleRover: {0, 1, 4, 5},
}

// Wheels builds the wheel actuators of a vehicle type. Every wheel, including
// the unsteered middle ones, carries the same brake force and side friction.
func Wheels(vehicle core.VehicleType) []*core.WheelActuator {
	layout := tankLayout
	if vehicle == core.VehicleRover {
		layout = roverLayout
	}

	wheels := make([]*core.WheelActuator, len(layout))
	for i, pos := range layout {
		wheels[i] = &core.WheelActuator{
			LocalPosition: pos,
			BrakeForce:    WheelBrakeForce,
			SideFriction:  WheelSideFriction,
		}
	}
	return wheels
}

// SteeredWheel returns the wheel index driven by steering index i.
func SteeredWheel(vehicle core.VehicleType, i int) (int, bool) {
	wheels := steeredWheels[vehicle]
	if i < 0 || i >= len(wheels) {
		return 0, false
	}
	return wheels[i], true
}

// InitialCommand is the actuator state before the first accepted command:
// engines off and every steerable wheel straight ahead.
func InitialCommand(vehicle core.VehicleType) core.ActuatorCommand {
	cmd := core.ActuatorCommand{
		Engines: make([]float64, vehicle.EngineCount()),
	}
	if n := vehicle.SteeringCount(); n > 0 {
		cmd.Steering = make([]float64, n)
		for i := range cmd.Steering {
			cmd.Steering[i] = StraightAhead
		}
	}
	return cmd
}
