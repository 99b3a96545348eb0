// pkg/core/vehicle.go
package core

import (
	"fmt"
	"strings"
)

// VehicleType selects the wheel layout and actuator contract of the simulated vehicle.
type VehicleType string

const (
	// VehicleTank has two engines and no steerable wheels.
	VehicleTank VehicleType = "tank"
	// VehicleRover has six engines and four steerable wheels.
	VehicleRover VehicleType = "rover"
)

// ParseVehicleType parses a vehicle type name, case-insensitive.
func ParseVehicleType(s string) (VehicleType, error) {
	switch VehicleType(strings.ToLower(strings.TrimSpace(s))) {
	case VehicleTank:
		return VehicleTank, nil
	case VehicleRover:
		return VehicleRover, nil
	default:
		return "", fmt.Errorf("unknown vehicle type: %q", s)
	}
}

// EngineCount returns the number of engine values a command must carry.
func (v VehicleType) EngineCount() int {
	switch v {
	case VehicleRover:
		return 6
	default:
		return 2
	}
}

// SteeringCount returns the number of steerable wheels.
func (v VehicleType) SteeringCount() int {
	if v == VehicleRover {
		return 4
	}
	return 0
}

// Steerable reports whether the vehicle accepts steering values.
func (v VehicleType) Steerable() bool {
	return v.SteeringCount() > 0
}

// VehicleOptions is handed to the authenticity factory once per simulation.
type VehicleOptions struct {
	EngineCount       int
	MaxProximityRange float64
}

// WheelActuator is one wheel constraint of the vehicle.
// Only EngineForce and SteerValue change after construction.
type WheelActuator struct {
	LocalPosition Point   `json:"localPosition"`
	BrakeForce    float64 `json:"brakeForce"`
	SideFriction  float64 `json:"sideFriction"`
	EngineForce   float64 `json:"engineForce"`
	// SteerValue is in radians, positive turns the wheel clockwise.
	SteerValue float64 `json:"steerValue"`
}
