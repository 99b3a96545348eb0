package storage

import "github.com/OCAP2/roversim/pkg/core"

// Backend is the interface all recording implementations must satisfy.
// Recording is observational: nothing written here is read back by the simulator.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Run management
	StartRun(run *core.Run) error
	EndRun() error

	// Telemetry
	RecordControlTick(t *core.ControlTick) error
	RecordRejection(r *core.Rejection) error
	RecordTracePoint(p *core.TracePoint) error
}

// Uploadable is an optional interface for backends that produce a file
// suitable for upload to the collector API.
type Uploadable interface {
	GetExportedFilePath() string
	GetExportMetadata() core.UploadMetadata
}

// Discard drops everything it is given.
type Discard struct{}

func (Discard) Init() error { return nil }
func (Discard) Close() error { return nil }
func (Discard) StartRun(*core.Run) error { return nil }
func (Discard) EndRun() error { return nil }
func (Discard) RecordControlTick(*core.ControlTick) error { return nil }
func (Discard) RecordRejection(*core.Rejection) error { return nil }
func (Discard) RecordTracePoint(*core.TracePoint) error { return nil }
