package physics

import (
	"math"

	"github.com/OCAP2/roversim/pkg/core"
	"github.com/jakecoffman/cp"
)

// shape filter categories
const (
	categoryObstacle uint = 1 << iota
	categoryRover
	categorySensor
)

// Config describes the rover body.
type Config struct {
	Width  float64
	Height float64
	Mass   float64
	// Damping is the fraction of velocity kept after one second.
	Damping float64
	Start   core.Point
}

// DefaultDamping mirrors a linear damping of 0.1.
const DefaultDamping = 0.9

// World implements Engine on a chipmunk space with zero gravity.
type World struct {
	space  *cp.Space
	body   *cp.Body
	wheels []*core.WheelActuator

	rayFilter cp.ShapeFilter

	accumulator float64
	previous    Pose
	current     Pose
	interpolate float64
}

var _ Engine = (*World)(nil)

// NewWorld creates a world holding a single box shaped rover driven by wheels.
func NewWorld(cfg Config, wheels []*core.WheelActuator) *World {
	if cfg.Damping <= 0 {
		cfg.Damping = DefaultDamping
	}

	space := cp.NewSpace()
	space.SetGravity(cp.Vector{})
	space.SetDamping(cfg.Damping)

	body := space.AddBody(cp.NewBody(cfg.Mass, cp.MomentForBox(cfg.Mass, cfg.Width, cfg.Height)))
	body.SetPosition(toVector(cfg.Start))

	box := space.AddShape(cp.NewBox(body, cfg.Width, cfg.Height, 0))
	box.SetFriction(0)
	box.SetFilter(cp.NewShapeFilter(cp.NO_GROUP, categoryRover, cp.ALL_CATEGORIES))

	w := &World{
		space:     space,
		body:      body,
		wheels:    wheels,
		rayFilter: cp.NewShapeFilter(cp.NO_GROUP, cp.ALL_CATEGORIES, categoryObstacle),
	}
	w.current = w.bodyPose()
	w.previous = w.current
	return w
}

// AddStaticCircle adds a circle to the static body.
func (w *World) AddStaticCircle(position core.Point, radius float64, sensor bool) {
	shape := w.space.AddShape(cp.NewCircle(w.space.StaticBody, radius, toVector(position)))
	if sensor {
		shape.SetSensor(true)
		shape.SetFilter(cp.NewShapeFilter(cp.NO_GROUP, categorySensor, cp.ALL_CATEGORIES))
		return
	}
	shape.SetFriction(0.5)
	shape.SetFilter(cp.NewShapeFilter(cp.NO_GROUP, categoryObstacle, cp.ALL_CATEGORIES))
}

// RayCast queries the first obstacle along the segment.
func (w *World) RayCast(from, to core.Point) (float64, bool) {
	start, end := toVector(from), toVector(to)
	info := w.space.SegmentQueryFirst(start, end, 0, w.rayFilter)
	if info.Shape == nil {
		return 0, false
	}
	return info.Alpha * end.Sub(start).Length(), true
}

// Step advances the simulation with a fixed step accumulator. Leftover time
// is carried to the next call and used to interpolate the pose.
func (w *World) Step(fixedDelta, wallDelta float64, maxSubSteps int) int {
	if fixedDelta <= 0 {
		return 0
	}
	w.accumulator += wallDelta

	steps := 0
	for w.accumulator >= fixedDelta && steps < maxSubSteps {
		w.previous = w.bodyPose()
		applyWheelForces(w.body, w.wheels, fixedDelta)
		w.space.Step(fixedDelta)
		w.current = w.bodyPose()
		w.accumulator -= fixedDelta
		steps++
	}
	// drop the backlog a slow frame could not catch up on
	if steps == maxSubSteps && w.accumulator >= fixedDelta {
		w.accumulator = math.Mod(w.accumulator, fixedDelta)
	}
	w.interpolate = w.accumulator / fixedDelta
	return steps
}

// Pose returns the interpolated rover pose.
func (w *World) Pose() Pose {
	t := w.interpolate
	return Pose{
		Position: w.previous.Position.Add(w.current.Position.Sub(w.previous.Position).Scale(t)),
		Angle:    w.previous.Angle + (w.current.Angle-w.previous.Angle)*t,
		Velocity: w.current.Velocity,
	}
}

// Wheels returns the wheel actuators.
func (w *World) Wheels() []*core.WheelActuator {
	return w.wheels
}

func (w *World) bodyPose() Pose {
	return Pose{
		Position: toPoint(w.body.Position()),
		Angle:    w.body.Angle(),
		Velocity: toPoint(w.body.Velocity()),
	}
}

func toVector(p core.Point) cp.Vector {
	return cp.Vector{X: p.X, Y: p.Y}
}

func toPoint(v cp.Vector) core.Point {
	return core.Point{X: v.X, Y: v.Y}
}
