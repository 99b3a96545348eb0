// Package control provides the built-in control functions of the CLI.
package control

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/OCAP2/roversim/internal/actuation"
	"github.com/OCAP2/roversim/pkg/core"
)

var ErrUnknownController = errors.New("unknown controller")

// Builder creates a control function for a vehicle driving in a scenario.
type Builder func(vehicle core.VehicleType, scenario core.Scenario) core.ControlFunc

// Controller is a registered control function.
type Controller struct {
	Name        string
	Description string
	Build       Builder
}

var registry = map[string]Controller{}

// Register adds a controller, replacing any with the same name.
func Register(c Controller) {
	registry[c.Name] = c
}

func init() {
	Register(Controller{Name: "idle", Description: "engines off, wheels straight", Build: Idle})
	Register(Controller{Name: "cruise", Description: "straight ahead at half power", Build: Cruise})
	Register(Controller{Name: "circle", Description: "clockwise circles", Build: Circle})
	Register(Controller{Name: "avoid", Description: "cruise and steer away from obstacles ahead", Build: Avoid})
	Register(Controller{Name: "waypoint", Description: "drive to the first location of interest", Build: Waypoint})
}

// Lookup returns the controller registered under name.
func Lookup(name string) (Controller, error) {
	c, ok := registry[name]
	if !ok {
		return Controller{}, fmt.Errorf("%w: %q", ErrUnknownController, name)
	}
	return c, nil
}

// New builds the named control function.
func New(name string, vehicle core.VehicleType, scenario core.Scenario) (core.ControlFunc, error) {
	c, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return c.Build(vehicle, scenario), nil
}

// Controllers returns every registered controller sorted by name.
func Controllers() []Controller {
	out := make([]Controller, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// drive builds a command with left and right engine power and the given
// steering offset in degrees, positive clockwise. Rear wheels steer opposite
// to the front ones. Even engine indices are on the left.
func drive(vehicle core.VehicleType, left, right, steer float64) core.ActuatorCommand {
	cmd := core.ActuatorCommand{Engines: make([]float64, vehicle.EngineCount())}
	for i := range cmd.Engines {
		if i%2 == 0 {
			cmd.Engines[i] = clamp(left, -1, 1)
		} else {
			cmd.Engines[i] = clamp(right, -1, 1)
		}
	}
	if n := vehicle.SteeringCount(); n > 0 {
		cmd.Steering = make([]float64, n)
		for i := range cmd.Steering {
			s := steer
			if i >= n/2 {
				s = -steer
			}
			cmd.Steering[i] = actuation.StraightAhead + clamp(s, -maxSteer, maxSteer)
		}
	}
	return cmd
}

const maxSteer = 45.0

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Idle keeps the engines off.
func Idle(vehicle core.VehicleType, _ core.Scenario) core.ControlFunc {
	return func(core.SensorFrame, core.ActuatorCommand) core.ActuatorCommand {
		return drive(vehicle, 0, 0, 0)
	}
}

// Cruise drives straight ahead at half power.
func Cruise(vehicle core.VehicleType, _ core.Scenario) core.ControlFunc {
	return func(core.SensorFrame, core.ActuatorCommand) core.ActuatorCommand {
		return drive(vehicle, 0.5, 0.5, 0)
	}
}

// Circle turns clockwise, differentially on a tank and by steering on a rover.
func Circle(vehicle core.VehicleType, _ core.Scenario) core.ControlFunc {
	return func(core.SensorFrame, core.ActuatorCommand) core.ActuatorCommand {
		if vehicle.Steerable() {
			return drive(vehicle, 0.5, 0.5, 20)
		}
		return drive(vehicle, 0.6, 0.2, 0)
	}
}
