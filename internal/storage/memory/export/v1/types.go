// Package v1 contains the v1 export format of a recorded run.
package v1

import (
	"encoding/json"
	"time"

	"github.com/OCAP2/roversim/pkg/core"
)

// FormatVersion is written into every export.
const FormatVersion = 1

// Export is the root JSON structure for v1 format.
type Export struct {
	FormatVersion int           `json:"formatVersion"`
	RunID         string        `json:"runId"`
	StartTime     time.Time     `json:"startTime"`
	EndTime       time.Time     `json:"endTime"`
	Duration      float64       `json:"duration"` // seconds of simulation clock
	VehicleType   string        `json:"vehicleType"`
	Authenticity  string        `json:"authenticity"`
	Controller    string        `json:"controller"`
	Seed          int64         `json:"seed"`
	Origin        core.Location `json:"origin"`
	Ticks         []Tick        `json:"ticks"`
	Rejections    []Rejection   `json:"rejections"`
	// TraceClocks holds the clock of every trace vertex, in seconds.
	TraceClocks []float64 `json:"traceClocks"`
	// Trace is a GeoJSON LineString in driving order, absent below two points.
	Trace json.RawMessage `json:"trace,omitempty"`
}

// Tick is one control tick. Non-finite command values are exported as null.
type Tick struct {
	Tick               uint64        `json:"tick"`
	Clock              float64       `json:"clock"`
	Heading            float64       `json:"heading"`
	Location           core.Location `json:"location"`
	Proximity          []float64     `json:"proximity"`
	TargetFinderSignal *float64      `json:"targetFinderSignal,omitempty"`
	TruePosition       core.Point    `json:"truePosition"`
	TrueHeading        float64       `json:"trueHeading"`
	Engines            []*float64    `json:"engines"`
	Steering           []*float64    `json:"steering,omitempty"`
	Accepted           bool          `json:"accepted"`
}

// Rejection is one rejected actuator value.
type Rejection struct {
	Tick    uint64   `json:"tick"`
	Clock   float64  `json:"clock"`
	Channel string   `json:"channel"`
	Index   int      `json:"index"`
	Value   *float64 `json:"value"`
	Reason  string   `json:"reason"`
}
