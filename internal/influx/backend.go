package influx

import (
	"errors"
	"math"
	"strconv"
	"sync"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/OCAP2/roversim/pkg/core"
)

// Measurement names written by the Backend.
const (
	MeasurementControlTick = "control_tick"
	MeasurementRejection   = "rejection"
	MeasurementTrace       = "trace"
)

// ErrNoRun is returned when telemetry arrives outside of a run.
var ErrNoRun = errors.New("no run started")

// Backend records run telemetry as InfluxDB points tagged with the run.
type Backend struct {
	manager *Manager
	connect func() error

	mu  sync.RWMutex
	run *core.Run
}

// NewBackend wraps manager. connect is called by Init, typically manager.Connect.
func NewBackend(manager *Manager, connect func() error) *Backend {
	return &Backend{manager: manager, connect: connect}
}

func (b *Backend) Init() error {
	if b.connect == nil {
		return nil
	}
	return b.connect()
}

func (b *Backend) Close() error {
	return b.manager.Close()
}

func (b *Backend) StartRun(run *core.Run) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	r := *run
	b.run = &r
	return nil
}

// EndRun flushes the points of the run.
func (b *Backend) EndRun() error {
	b.mu.Lock()
	b.run = nil
	b.mu.Unlock()
	return b.manager.Flush()
}

func (b *Backend) newPoint(measurement string) (*influxdb2_write.Point, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.run == nil {
		return nil, ErrNoRun
	}
	p := influxdb2_write.NewPointWithMeasurement(measurement)
	tags := [][2]string{
		{"run_id", b.run.ID},
		{"vehicle", string(b.run.VehicleType)},
		{"controller", b.run.Controller},
		{"authenticity", b.run.Authenticity},
	}
	for _, tag := range tags {
		// empty tag values are invalid line protocol
		if tag[1] != "" {
			p.AddTag(tag[0], tag[1])
		}
	}
	return p, nil
}

// addFloat skips non-finite values, line protocol has no representation for them.
func addFloat(p *influxdb2_write.Point, name string, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	p.AddField(name, v)
}

func (b *Backend) RecordControlTick(t *core.ControlTick) error {
	p, err := b.newPoint(MeasurementControlTick)
	if err != nil {
		return err
	}
	p.SetTime(t.Time)
	p.AddField("tick", int64(t.Tick))
	p.AddField("clock_ms", t.Clock.Milliseconds())
	p.AddField("accepted", t.Accepted)
	addFloat(p, "heading", t.Sensors.Heading)
	addFloat(p, "latitude", t.Sensors.Location.Latitude)
	addFloat(p, "longitude", t.Sensors.Location.Longitude)
	addFloat(p, "true_x", t.TruePosition.X)
	addFloat(p, "true_y", t.TruePosition.Y)
	addFloat(p, "true_heading", t.TrueHeading)
	if len(t.Sensors.Proximity) > 0 {
		nearest := math.Inf(1)
		for _, d := range t.Sensors.Proximity {
			nearest = math.Min(nearest, d)
		}
		addFloat(p, "proximity_min", nearest)
		addFloat(p, "proximity_ahead", t.Sensors.Proximity[0])
	}
	if t.Sensors.TargetFinderSignal != nil {
		addFloat(p, "target_signal", *t.Sensors.TargetFinderSignal)
	}
	for i, v := range t.Command.Engines {
		addFloat(p, "engine_"+strconv.Itoa(i), v)
	}
	for i, v := range t.Command.Steering {
		addFloat(p, "steering_"+strconv.Itoa(i), v)
	}
	return b.manager.WritePoint(p)
}

func (b *Backend) RecordRejection(r *core.Rejection) error {
	p, err := b.newPoint(MeasurementRejection)
	if err != nil {
		return err
	}
	p.SetTime(r.Time)
	p.AddTag("channel", r.Channel)
	p.AddField("tick", int64(r.Tick))
	p.AddField("clock_ms", r.Clock.Milliseconds())
	p.AddField("index", int64(r.Index))
	p.AddField("reason", r.Reason)
	addFloat(p, "value", r.Value)
	return b.manager.WritePoint(p)
}

func (b *Backend) RecordTracePoint(tp *core.TracePoint) error {
	p, err := b.newPoint(MeasurementTrace)
	if err != nil {
		return err
	}
	p.SetTime(tp.Time)
	p.AddField("clock_ms", tp.Clock.Milliseconds())
	addFloat(p, "x", tp.Position.X)
	addFloat(p, "y", tp.Position.Y)
	addFloat(p, "latitude", tp.Location.Latitude)
	addFloat(p, "longitude", tp.Location.Longitude)
	return b.manager.WritePoint(p)
}
