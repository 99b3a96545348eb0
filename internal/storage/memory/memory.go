// Package memory keeps the telemetry of one run in memory and exports it
// as JSON when the run ends.
package memory

import (
	"slices"
	"sync"
	"time"

	"github.com/OCAP2/roversim/internal/config"
	"github.com/OCAP2/roversim/pkg/core"
)

// Backend stores run telemetry in memory and exports to JSON
type Backend struct {
	cfg config.MemoryConfig
	run *core.Run

	ticks      []core.ControlTick
	rejections []core.Rejection
	trace      []core.TracePoint

	lastExportPath     string
	lastExportMetadata core.UploadMetadata

	now func() time.Time
	mu  sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg: cfg,
		now: time.Now,
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartRun begins recording a new run and drops whatever an unfinished run left behind.
func (b *Backend) StartRun(run *core.Run) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	r := *run
	b.run = &r
	b.ticks = nil
	b.rejections = nil
	b.trace = nil

	return nil
}

// EndRun exports the run. Without a started run it does nothing.
func (b *Backend) EndRun() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.run == nil {
		return nil
	}
	err := b.exportJSON()
	b.run = nil
	return err
}

// RecordControlTick stores a deep copy of t.
func (b *Backend) RecordControlTick(t *core.ControlTick) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.run == nil {
		return nil
	}
	tick := *t
	tick.Sensors.Proximity = slices.Clone(t.Sensors.Proximity)
	if t.Sensors.TargetFinderSignal != nil {
		signal := *t.Sensors.TargetFinderSignal
		tick.Sensors.TargetFinderSignal = &signal
	}
	tick.Command = t.Command.Clone()
	b.ticks = append(b.ticks, tick)
	return nil
}

func (b *Backend) RecordRejection(r *core.Rejection) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.run == nil {
		return nil
	}
	b.rejections = append(b.rejections, *r)
	return nil
}

func (b *Backend) RecordTracePoint(p *core.TracePoint) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.run == nil {
		return nil
	}
	b.trace = append(b.trace, *p)
	return nil
}

// ControlTicks returns a copy of the ticks recorded for the current run.
func (b *Backend) ControlTicks() []core.ControlTick {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.ticks)
}

// Rejections returns a copy of the rejections recorded for the current run.
func (b *Backend) Rejections() []core.Rejection {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.rejections)
}

// TracePoints returns a copy of the trace recorded for the current run, oldest first.
func (b *Backend) TracePoints() []core.TracePoint {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.trace)
}
