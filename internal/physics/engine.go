// Package physics runs the 2D rigid body world the rover drives in.
package physics

import (
	"math"

	"github.com/OCAP2/roversim/pkg/core"
)

// Engine is the physics collaborator of the simulation coordinator.
type Engine interface {
	// Step advances the world by whole fixedDelta steps covering wallDelta,
	// at most maxSubSteps of them, and returns the number of steps taken.
	Step(fixedDelta, wallDelta float64, maxSubSteps int) int
	// RayCast returns the distance to the closest collidable shape on the
	// segment from..to. Sensor shapes and the rover itself are ignored.
	RayCast(from, to core.Point) (float64, bool)
	// AddStaticCircle adds a fixed circle. Sensor circles never collide.
	AddStaticCircle(position core.Point, radius float64, sensor bool)
	// Pose returns the rover pose interpolated between the last two steps.
	Pose() Pose
	// Wheels returns the wheel actuators driving the rover.
	Wheels() []*core.WheelActuator
}

// Pose is the ground truth state of the rover body.
type Pose struct {
	Position core.Point
	// Angle is the body rotation in radians, counter-clockwise, 0 facing north.
	Angle    float64
	Velocity core.Point
}

// Heading returns the pose orientation in compass degrees [0,360), clockwise from north.
func (p Pose) Heading() float64 {
	deg := math.Mod(-p.Angle*180/math.Pi, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// Forward returns the unit vector the body faces.
func (p Pose) Forward() core.Point {
	return core.Point{X: -math.Sin(p.Angle), Y: math.Cos(p.Angle)}
}
