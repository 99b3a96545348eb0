// Package monitor periodically publishes the state of a running simulation.
package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/OCAP2/roversim/internal/dispatcher"
	"github.com/OCAP2/roversim/pkg/core"
)

// DefaultInterval is the status refresh period.
const DefaultInterval = time.Second

// Source reports the live state of a simulation.
type Source interface {
	Running() bool
	Clock() time.Duration
	Heading() float64
	Location() core.Location
	Trace() []core.Point
	Actuators() core.ActuatorCommand
}

// RunProvider returns the active run, nil when idle.
type RunProvider interface {
	GetRun() *core.Run
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Source    Source
	Runs      RunProvider
	Scheduler dispatcher.Scheduler
	Logger    *slog.Logger
	// StatusPath receives the latest status as JSON. Empty disables the file.
	StatusPath string
	Interval   time.Duration
}

// Status is one snapshot of the simulation.
type Status struct {
	Time     time.Time     `json:"time"`
	RunID    string        `json:"runId,omitempty"`
	Running  bool          `json:"running"`
	Clock    float64       `json:"clock"`
	Heading  float64       `json:"heading"`
	Location core.Location `json:"location"`
	TraceLen int           `json:"traceLength"`
	Engines  []float64     `json:"engines"`
	Steering []float64     `json:"steering,omitempty"`
	Tasks    int           `json:"tasks"`
}

// Service manages status monitoring
type Service struct {
	deps Dependencies

	mu        sync.Mutex
	isRunning bool
	handle    dispatcher.Handle
	file      *os.File
	last      Status
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Status collects the current state.
func (s *Service) Status(at time.Time) Status {
	src := s.deps.Source
	cmd := src.Actuators()
	st := Status{
		Time:     at,
		Running:  src.Running(),
		Clock:    src.Clock().Seconds(),
		Heading:  src.Heading(),
		Location: src.Location(),
		TraceLen: len(src.Trace()),
		Engines:  cmd.Engines,
		Steering: cmd.Steering,
	}
	if s.deps.Runs != nil {
		if run := s.deps.Runs.GetRun(); run != nil {
			st.RunID = run.ID
		}
	}
	if counter, ok := s.deps.Scheduler.(interface{ Tasks() int }); ok {
		st.Tasks = counter.Tasks()
	}
	return st
}

// Last returns the most recently published status.
func (s *Service) Last() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Start registers the status task. Starting twice does nothing.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}

	if s.deps.StatusPath != "" {
		f, err := os.Create(s.deps.StatusPath)
		if err != nil {
			return fmt.Errorf("error creating status file: %w", err)
		}
		s.file = f
	}

	s.handle = s.deps.Scheduler.Every("status", s.deps.Interval, s.publish)
	s.isRunning = true
	s.deps.Logger.Debug("Status monitor started", "interval", s.deps.Interval, "path", s.deps.StatusPath)
	return nil
}

func (s *Service) publish(at time.Time) {
	st := s.Status(at)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}
	s.last = st

	s.deps.Logger.Debug("Status",
		"clock", st.Clock,
		"heading", st.Heading,
		"latitude", st.Location.Latitude,
		"longitude", st.Location.Longitude,
		"trace", st.TraceLen)

	if s.file == nil {
		return
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		s.deps.Logger.Error("Error encoding status", "error", err)
		return
	}
	if err := s.file.Truncate(0); err != nil {
		s.deps.Logger.Error("Error writing status file", "error", err)
		return
	}
	if _, err := s.file.WriteAt(append(data, '\n'), 0); err != nil {
		s.deps.Logger.Error("Error writing status file", "error", err)
	}
}

// Stop cancels the status task and closes the status file.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}
	s.deps.Scheduler.Cancel(s.handle)
	s.isRunning = false
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
}
