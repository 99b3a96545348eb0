package control

import (
	"math"

	"github.com/OCAP2/roversim/pkg/core"
)

const (
	avoidDistance = 2.0
	// half width of the sector checked ahead, in degrees
	frontSector = 20.0
	sideSector  = 90.0
)

// Avoid cruises and turns towards the side with more room when something
// is closer than avoidDistance ahead.
func Avoid(vehicle core.VehicleType, _ core.Scenario) core.ControlFunc {
	return func(s core.SensorFrame, _ core.ActuatorCommand) core.ActuatorCommand {
		n := len(s.Proximity)
		if n == 0 {
			return drive(vehicle, 0.5, 0.5, 0)
		}
		step := 360.0 / float64(n)

		ahead := math.Inf(1)
		var left, right float64
		for i, d := range s.Proximity {
			bearing := float64(i) * step
			if bearing <= frontSector || bearing >= 360-frontSector {
				ahead = math.Min(ahead, d)
			}
			if bearing > 0 && bearing <= sideSector {
				right += d
			}
			if bearing >= 360-sideSector {
				left += d
			}
		}

		if ahead >= avoidDistance {
			return drive(vehicle, 0.5, 0.5, 0)
		}

		turn := 1.0
		if left > right {
			turn = -1
		}
		if vehicle.Steerable() {
			return drive(vehicle, 0.3, 0.3, turn*maxSteer)
		}
		return drive(vehicle, 0.5*turn, -0.5*turn, 0)
	}
}
