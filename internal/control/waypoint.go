package control

import (
	"math"

	"github.com/OCAP2/roversim/internal/geo"
	"github.com/OCAP2/roversim/pkg/core"
)

const (
	// ArrivalRadius is the distance at which a waypoint counts as reached, in meters.
	ArrivalRadius = 1.0
	cruisePower   = 0.6
)

// Waypoint drives to the first location of interest of the scenario using
// the sensed heading and location. Without locations of interest it idles.
func Waypoint(vehicle core.VehicleType, scenario core.Scenario) core.ControlFunc {
	if len(scenario.LocationsOfInterest) == 0 {
		return Idle(vehicle, scenario)
	}
	target := scenario.LocationsOfInterest[0].Location

	return func(s core.SensorFrame, _ core.ActuatorCommand) core.ActuatorCommand {
		if geo.Distance(s.Location, target) < ArrivalRadius {
			return drive(vehicle, 0, 0, 0)
		}

		// positive when the target is clockwise of the heading
		diff := math.Remainder(geo.InitialBearing(s.Location, target)-s.Heading, 360)

		if vehicle.Steerable() {
			return drive(vehicle, cruisePower, cruisePower, diff)
		}
		turn := clamp(diff/45, -1, 1) * 0.4
		return drive(vehicle, cruisePower+turn, cruisePower-turn, 0)
	}
}
