package physics

import (
	"math"

	"github.com/OCAP2/roversim/pkg/core"
	"github.com/jakecoffman/cp"
)

// applyWheelForces applies the top-down vehicle model for one step of dt.
// Each wheel pushes along its steered forward axis with its engine force and
// resists sliding sideways up to its side friction. Rolling resistance up to
// the brake force opposes motion along the wheel.
func applyWheelForces(body *cp.Body, wheels []*core.WheelActuator, dt float64) {
	if len(wheels) == 0 || dt <= 0 {
		return
	}
	// each wheel carries an equal share of the body mass
	share := body.Mass() / float64(len(wheels))
	rot := body.Rotation()

	for _, wheel := range wheels {
		local := toVector(wheel.LocalPosition)
		point := body.LocalToWorld(local)

		forward := rot.Rotate(cp.Vector{X: math.Sin(wheel.SteerValue), Y: math.Cos(wheel.SteerValue)})
		right := cp.Vector{X: forward.Y, Y: -forward.X}

		velocity := body.VelocityAtWorldPoint(point)

		lateral := clamp(-velocity.Dot(right)*share/dt, wheel.SideFriction)
		rolling := clamp(-velocity.Dot(forward)*share/dt, wheel.BrakeForce)

		force := forward.Mult(wheel.EngineForce + rolling).Add(right.Mult(lateral))
		body.ApplyForceAtWorldPoint(force, point)
	}
}

func clamp(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
