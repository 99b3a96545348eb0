package simulation

import (
	"log/slog"
	"sync"
	"time"

	"github.com/OCAP2/roversim/pkg/core"
)

// RunContext holds the run currently being simulated.
type RunContext struct {
	mu    sync.RWMutex
	run   *core.Run
	clock time.Duration
}

// NewRunContext creates an empty RunContext.
func NewRunContext() *RunContext {
	return &RunContext{}
}

// GetRun returns the current run, nil when idle.
func (rc *RunContext) GetRun() *core.Run {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.run
}

// SetRun sets the current run and resets the clock.
func (rc *RunContext) SetRun(run *core.Run) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.run = run
	rc.clock = 0
}

// SetClock updates the elapsed simulation time.
func (rc *RunContext) SetClock(clock time.Duration) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.clock = clock
}

// Attrs returns log attributes describing the current run.
// It satisfies logging.ContextProvider.
func (rc *RunContext) Attrs() []slog.Attr {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	if rc.run == nil {
		return []slog.Attr{slog.String("state", "idle")}
	}
	return []slog.Attr{
		slog.String("state", "running"),
		slog.String("runId", rc.run.ID),
		slog.Duration("clock", rc.clock),
	}
}
