// pkg/core/run.go
package core

import "time"

// Run identifies one Start..Stop cycle of a simulation for telemetry purposes.
type Run struct {
	ID           string
	StartTime    time.Time
	VehicleType  VehicleType
	Authenticity string
	Controller   string
	Origin       Location
	Seed         int64
}

// ControlTick is the telemetry of one control task invocation.
type ControlTick struct {
	Tick         uint64
	Time         time.Time
	Clock        time.Duration
	Sensors      SensorFrame
	TruePosition Point
	TrueHeading  float64
	Command      ActuatorCommand
	Accepted     bool
}

// Rejection records a part of an actuator command that was not applied.
type Rejection struct {
	Tick    uint64
	Time    time.Time
	Clock   time.Duration
	Channel string
	Index   int
	Value   float64
	Reason  string
}

// TracePoint is a position appended to the trace history.
type TracePoint struct {
	Time     time.Time
	Clock    time.Duration
	Position Point
	Location Location
}

// UploadMetadata describes an exported recording for the collector API.
type UploadMetadata struct {
	RunID        string
	VehicleType  VehicleType
	Authenticity string
	Controller   string
	Duration     time.Duration
}
