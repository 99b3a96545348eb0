package simulation

import (
	"log/slog"
	"time"

	"github.com/OCAP2/roversim/internal/authenticity"
	"github.com/OCAP2/roversim/internal/dispatcher"
	"github.com/OCAP2/roversim/internal/physics"
	"github.com/OCAP2/roversim/internal/render"
	"github.com/OCAP2/roversim/pkg/core"
)

// Timing constants of the two loops.
const (
	DefaultControlInterval = 20 * time.Millisecond
	DefaultFrameRate       = 60.0
	FixedTimeStep          = 1.0 / 60
	MaxSubSteps            = 5
	MaxRenderDelta         = 0.1
	MinTaskInterval        = time.Millisecond
)

// MaxProximityRange is the proximity sensor range in meters.
const MaxProximityRange = 8.0

// TargetRadius is the radius used for targets that specify none.
const TargetRadius = 0.15

const markerRadius = 0.1

// Recorder receives run telemetry. Errors are logged and never stop a run.
type Recorder interface {
	StartRun(run *core.Run) error
	EndRun() error
	RecordControlTick(t *core.ControlTick) error
	RecordRejection(r *core.Rejection) error
	RecordTracePoint(p *core.TracePoint) error
}

// Options configure a Coordinator.
type Options struct {
	Control  core.ControlFunc
	Scenario core.Scenario
	// Rendering defaults to render.DefaultOptions when zero.
	Rendering render.Options
	// Authenticity defaults to the Ideal level.
	Authenticity authenticity.Factory
	// Vehicle defaults to core.VehicleRover.
	Vehicle core.VehicleType
	Mount   render.Mount
	// Scheduler runs the control and render tasks.
	Scheduler dispatcher.Scheduler
	// Engine defaults to a physics.World built for Vehicle.
	Engine physics.Engine

	ControlInterval time.Duration
	FrameRate       float64

	Recorder   Recorder
	RunContext *RunContext
	Logger     *slog.Logger

	// Descriptive fields copied into every core.Run.
	AuthenticityName string
	ControllerName   string
	Seed             int64
}

func (o *Options) setDefaults() {
	if o.Vehicle == "" {
		o.Vehicle = core.VehicleRover
	}
	if o.Rendering == (render.Options{}) {
		o.Rendering = render.DefaultOptions()
	}
	if o.Authenticity == nil {
		o.Authenticity = authenticity.Ideal.Factory(nil)
	}
	if o.ControlInterval <= 0 {
		o.ControlInterval = DefaultControlInterval
	}
	o.ControlInterval = max(o.ControlInterval, MinTaskInterval)
	if o.FrameRate <= 0 {
		o.FrameRate = DefaultFrameRate
	}
	if o.RunContext == nil {
		o.RunContext = NewRunContext()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// renderInterval is the render task period for the frame rate, never
// shorter than MinTaskInterval.
func (o Options) renderInterval() time.Duration {
	return max(time.Duration(float64(time.Second)/o.FrameRate), MinTaskInterval)
}
