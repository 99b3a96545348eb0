// Package simulation coordinates the rover's control and render loops.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/OCAP2/roversim/internal/actuation"
	"github.com/OCAP2/roversim/internal/authenticity"
	"github.com/OCAP2/roversim/internal/dispatcher"
	"github.com/OCAP2/roversim/internal/geo"
	"github.com/OCAP2/roversim/internal/physics"
	"github.com/OCAP2/roversim/internal/render"
	"github.com/OCAP2/roversim/internal/sensor"
	"github.com/OCAP2/roversim/pkg/core"
)

var (
	ErrAlreadyRunning   = errors.New("simulation is already running")
	ErrNoDrawingContext = fmt.Errorf("cannot create 2D rendering context for canvas: %w", render.ErrNoContext)
	ErrNoControl        = errors.New("no control function")
	ErrNoScheduler      = errors.New("no scheduler")
	ErrInvalidOrigin    = errors.New("invalid origin")
)

// Coordinator owns the vehicle and runs the control and render tasks.
// Every tick holds the coordinator lock for its whole duration, so ticks
// never interleave with each other or with Start and Stop. The control
// function must not call back into the coordinator.
type Coordinator struct {
	mu sync.Mutex

	control   core.ControlFunc
	vehicle   core.VehicleType
	frame     geo.Frame
	engine    physics.Engine
	options   authenticity.PhysicalOptions
	validator *actuation.Validator
	proximity *sensor.ProximitySensor
	estimator *sensor.TargetEstimator
	renderer  render.Renderer
	scheduler dispatcher.Scheduler
	recorder  Recorder
	runCtx    *RunContext
	logger    *slog.Logger
	metrics   *metrics

	rendering       render.Options
	controlInterval time.Duration
	renderInterval  time.Duration
	runTemplate     core.Run

	markers   []core.Marker
	obstacles []core.Obstacle
	targets   []core.Target
	landmines []core.Landmine
	trace     *Trace

	state         core.ActuatorCommand
	lastProximity []float64

	running       bool
	generation    uint64 // incremented by every Start
	startTime     time.Time
	lastRender    time.Time
	clock         time.Duration
	tick          uint64
	controlHandle dispatcher.Handle
	renderHandle  dispatcher.Handle
}

// New builds the world from opts. The authenticity factory is invoked once.
// It fails with ErrNoDrawingContext when the mount yields no surface.
func New(opts Options) (*Coordinator, error) {
	opts.setDefaults()

	if opts.Control == nil {
		return nil, ErrNoControl
	}
	if opts.Scheduler == nil {
		return nil, ErrNoScheduler
	}
	if !opts.Scenario.Origin.Valid() {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidOrigin, opts.Scenario.Origin)
	}
	if opts.Mount == nil {
		return nil, fmt.Errorf("%w: no mount", ErrNoDrawingContext)
	}
	surface, err := opts.Mount.DrawingContext(opts.Rendering.Width, opts.Rendering.Height)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDrawingContext, err)
	}
	if _, err := opts.Rendering.Palette(); err != nil {
		return nil, fmt.Errorf("invalid rendering options: %w", err)
	}

	m, err := newMetrics()
	if err != nil {
		return nil, err
	}

	options := opts.Authenticity(core.VehicleOptions{
		EngineCount:       opts.Vehicle.EngineCount(),
		MaxProximityRange: MaxProximityRange,
	})

	engine := opts.Engine
	if engine == nil {
		engine = physics.NewWorld(physics.Config{
			Width:  actuation.BodyWidth,
			Height: actuation.BodyHeight,
			Mass:   actuation.BodyMass,
		}, actuation.Wheels(opts.Vehicle))
	}

	frame := geo.NewFrame(opts.Scenario.Origin)
	c := &Coordinator{
		control:         opts.Control,
		vehicle:         opts.Vehicle,
		frame:           frame,
		engine:          engine,
		options:         options,
		validator:       actuation.NewValidator(opts.Vehicle, options),
		proximity:       sensor.NewProximitySensor(MaxProximityRange, options),
		estimator:       sensor.NewTargetEstimator(frame),
		renderer:        render.NewCanvasRenderer(surface),
		scheduler:       opts.Scheduler,
		recorder:        opts.Recorder,
		runCtx:          opts.RunContext,
		logger:          opts.Logger,
		metrics:         m,
		rendering:       opts.Rendering,
		controlInterval: opts.ControlInterval,
		renderInterval:  opts.renderInterval(),
		runTemplate: core.Run{
			VehicleType:  opts.Vehicle,
			Authenticity: opts.AuthenticityName,
			Controller:   opts.ControllerName,
			Origin:       opts.Scenario.Origin,
			Seed:         opts.Seed,
		},
		trace: NewTrace(DefaultTraceSpacing),
		state: actuation.InitialCommand(opts.Vehicle),
	}
	c.addFeatures(opts.Scenario)

	pose := engine.Pose()
	c.lastProximity = sensor.Sweep(engine, pose.Position, pose.Heading(), MaxProximityRange)

	return c, nil
}

// addFeatures converts the scenario's geodetic features into static bodies.
func (c *Coordinator) addFeatures(s core.Scenario) {
	for _, l := range s.LocationsOfInterest {
		m := core.Marker{Label: l.Label, Position: c.frame.ToLocal(l.Location), Location: l.Location}
		c.markers = append(c.markers, m)
		c.engine.AddStaticCircle(m.Position, markerRadius, true)
	}
	for _, o := range s.Obstacles {
		ob := core.Obstacle{Position: c.frame.ToLocal(o.Location), Radius: o.Radius}
		c.obstacles = append(c.obstacles, ob)
		c.engine.AddStaticCircle(ob.Position, ob.Radius, false)
	}
	for _, t := range s.Targets {
		r := t.Radius
		if r <= 0 {
			r = TargetRadius
		}
		tg := core.Target{Position: c.frame.ToLocal(t.Location), Radius: r}
		c.targets = append(c.targets, tg)
		c.engine.AddStaticCircle(tg.Position, tg.Radius, true)
	}
	for _, l := range s.Landmines {
		lm := core.Landmine{Position: c.frame.ToLocal(l)}
		c.landmines = append(c.landmines, lm)
		c.engine.AddStaticCircle(lm.Position, core.LandmineRadius, true)
	}
}

// Start begins a run. It fails with ErrAlreadyRunning while running.
func (c *Coordinator) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return ErrAlreadyRunning
	}

	now := c.scheduler.Now()
	c.startTime = now
	c.lastRender = now
	c.clock = 0
	c.tick = 0

	run := c.runTemplate
	run.ID = uuid.NewString()
	run.StartTime = now
	c.runCtx.SetRun(&run)

	if c.recorder != nil {
		c.recordErr("StartRun", c.recorder.StartRun(&run))
	}

	c.generation++
	gen := c.generation
	c.controlHandle = c.scheduler.Every("control", c.controlInterval, func(at time.Time) { c.controlTick(gen, at) })
	c.renderHandle = c.scheduler.Every("render", c.renderInterval, func(at time.Time) { c.renderTick(gen, at) })
	c.running = true

	c.logger.Info("simulation started",
		"runId", run.ID,
		"vehicle", c.vehicle,
		"level", c.options.Level().String())
	return nil
}

// Stop cancels both tasks. An invocation already in progress completes.
// Stopping an idle coordinator does nothing.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}
	c.scheduler.Cancel(c.controlHandle)
	c.scheduler.Cancel(c.renderHandle)
	c.running = false

	if c.recorder != nil {
		c.recordErr("EndRun", c.recorder.EndRun())
	}
	c.logger.Info("simulation stopped", "clock", c.clock, "ticks", c.tick)
	c.runCtx.SetRun(nil)
}

// controlTick ignores invocations scheduled by an earlier run.
func (c *Coordinator) controlTick(gen uint64, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || gen != c.generation {
		return
	}
	c.tick++
	c.clock = at.Sub(c.startTime)
	c.runCtx.SetClock(c.clock)
	c.metrics.controlTicks.Add(context.Background(), 1)

	pose := c.engine.Pose()
	heading := pose.Heading()

	proximity := c.proximity.Sweep(c.engine, pose.Position, heading)
	c.lastProximity = proximity

	frame := core.SensorFrame{
		Heading:   c.options.ErrorHeading(heading),
		Location:  c.options.ErrorLocation(c.frame.ToGeo(pose.Position)),
		Proximity: slices.Clone(proximity),
		Clock:     c.clock,
	}
	if len(c.targets) > 0 {
		signal := c.estimator.Signal(pose.Position, c.targets)
		frame.TargetFinderSignal = &signal
	}

	cmd := c.control(frame, c.state.Clone())
	result := c.validator.Apply(cmd, c.engine.Wheels(), &c.state)

	for _, rej := range result.Rejections {
		c.logger.Warn("actuator command rejected",
			"channel", rej.Channel,
			"index", rej.Index,
			"value", rej.Value,
			"error", rej.Err)
		c.metrics.rejections.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("channel", rej.Channel)))

		if c.recorder != nil {
			c.recordErr("RecordRejection", c.recorder.RecordRejection(&core.Rejection{
				Tick:    c.tick,
				Time:    at,
				Clock:   c.clock,
				Channel: rej.Channel,
				Index:   rej.Index,
				Value:   rej.Value,
				Reason:  rej.Err.Error(),
			}))
		}
	}

	if c.recorder != nil {
		c.recordErr("RecordControlTick", c.recorder.RecordControlTick(&core.ControlTick{
			Tick:         c.tick,
			Time:         at,
			Clock:        c.clock,
			Sensors:      frame,
			TruePosition: pose.Position,
			TrueHeading:  heading,
			Command:      cmd.Clone(),
			Accepted:     !result.Rejected(),
		}))
	}
}

// renderTick ignores invocations scheduled by an earlier run.
func (c *Coordinator) renderTick(gen uint64, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || gen != c.generation {
		return
	}
	dt := at.Sub(c.lastRender).Seconds()
	c.lastRender = at
	dt = min(max(dt, 0), MaxRenderDelta)

	c.engine.Step(FixedTimeStep, dt, MaxSubSteps)
	c.metrics.frames.Add(context.Background(), 1)

	pose := c.engine.Pose()
	if c.trace.Add(pose.Position) && c.recorder != nil {
		c.recordErr("RecordTracePoint", c.recorder.RecordTracePoint(&core.TracePoint{
			Time:     at,
			Clock:    at.Sub(c.startTime),
			Position: pose.Position,
			Location: c.frame.ToGeo(pose.Position),
		}))
	}

	if err := c.renderer.Render(c.snapshot()); err != nil {
		c.logger.Error("render failed", "error", err)
	}
}

func (c *Coordinator) recordErr(op string, err error) {
	if err == nil {
		return
	}
	c.metrics.recordErrors.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("op", op)))
	c.logger.Error("recorder failed", "op", op, "error", err)
}

func (c *Coordinator) snapshot() render.Snapshot {
	pose := c.engine.Pose()
	wheels := c.engine.Wheels()
	ws := make([]core.WheelActuator, len(wheels))
	for i, w := range wheels {
		ws[i] = *w
	}
	return render.Snapshot{
		Clock:        c.clock,
		Position:     pose.Position,
		Heading:      pose.Heading(),
		BodyWidth:    actuation.BodyWidth,
		BodyHeight:   actuation.BodyHeight,
		Wheels:       ws,
		Trace:        c.trace.Points(),
		Markers:      slices.Clone(c.markers),
		Obstacles:    slices.Clone(c.obstacles),
		Targets:      slices.Clone(c.targets),
		Landmines:    slices.Clone(c.landmines),
		Proximity:    slices.Clone(c.lastProximity),
		MaxProximity: MaxProximityRange,
		Options:      c.rendering,
	}
}

// Snapshot returns the current render snapshot.
func (c *Coordinator) Snapshot() render.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Running reports whether the simulation is running.
func (c *Coordinator) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Clock returns the elapsed time at the last control tick of the current run.
func (c *Coordinator) Clock() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clock
}

// Heading returns the ground truth heading in compass degrees.
func (c *Coordinator) Heading() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Pose().Heading()
}

// Position returns the ground truth position in the local frame.
func (c *Coordinator) Position() core.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Pose().Position
}

// Location returns the ground truth location.
func (c *Coordinator) Location() core.Location {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame.ToGeo(c.engine.Pose().Position)
}

// Trace returns the trace history, newest first.
func (c *Coordinator) Trace() []core.Point {
	return c.trace.Points()
}

// Proximity returns the readings of the last sweep.
func (c *Coordinator) Proximity() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.lastProximity)
}

// Actuators returns the last accepted actuator state.
func (c *Coordinator) Actuators() core.ActuatorCommand {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Markers returns the locations of interest in the local frame.
func (c *Coordinator) Markers() []core.Marker {
	return slices.Clone(c.markers)
}

// Frame returns the coordinate frame anchored at the origin.
func (c *Coordinator) Frame() geo.Frame {
	return c.frame
}

// Vehicle returns the simulated vehicle type.
func (c *Coordinator) Vehicle() core.VehicleType {
	return c.vehicle
}
