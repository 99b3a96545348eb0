package streaming

import (
	"encoding/json"
	"math"
	"time"

	"github.com/OCAP2/roversim/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartRun    = "start_run"
	TypeEndRun      = "end_run"
	TypeControlTick = "control_tick"
	TypeRejection   = "rejection"
	TypeTracePoint  = "trace_point"
	TypeAck         = "ack"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartRunPayload announces a run.
type StartRunPayload struct {
	RunID        string        `json:"runId"`
	StartTime    time.Time     `json:"startTime"`
	VehicleType  string        `json:"vehicleType"`
	Authenticity string        `json:"authenticity"`
	Controller   string        `json:"controller"`
	Origin       core.Location `json:"origin"`
	Seed         int64         `json:"seed"`
}

// ControlTickPayload carries one control tick. Clocks are seconds,
// non-finite command values are null.
type ControlTickPayload struct {
	Tick         uint64           `json:"tick"`
	Time         time.Time        `json:"time"`
	Clock        float64          `json:"clock"`
	Sensors      core.SensorFrame `json:"sensors"`
	TruePosition core.Point       `json:"truePosition"`
	TrueHeading  float64          `json:"trueHeading"`
	Engines      []*float64       `json:"engines"`
	Steering     []*float64       `json:"steering,omitempty"`
	Accepted     bool             `json:"accepted"`
}

// RejectionPayload carries one rejected actuator value.
type RejectionPayload struct {
	Tick    uint64    `json:"tick"`
	Time    time.Time `json:"time"`
	Clock   float64   `json:"clock"`
	Channel string    `json:"channel"`
	Index   int       `json:"index"`
	Value   *float64  `json:"value"`
	Reason  string    `json:"reason"`
}

// TracePointPayload carries one trace vertex.
type TracePointPayload struct {
	Time     time.Time     `json:"time"`
	Clock    float64       `json:"clock"`
	Position core.Point    `json:"position"`
	Location core.Location `json:"location"`
}

func NewStartRunPayload(r *core.Run) StartRunPayload {
	return StartRunPayload{
		RunID:        r.ID,
		StartTime:    r.StartTime,
		VehicleType:  string(r.VehicleType),
		Authenticity: r.Authenticity,
		Controller:   r.Controller,
		Origin:       r.Origin,
		Seed:         r.Seed,
	}
}

func NewControlTickPayload(t *core.ControlTick) ControlTickPayload {
	return ControlTickPayload{
		Tick:         t.Tick,
		Time:         t.Time,
		Clock:        t.Clock.Seconds(),
		Sensors:      t.Sensors,
		TruePosition: t.TruePosition,
		TrueHeading:  t.TrueHeading,
		Engines:      finite(t.Command.Engines),
		Steering:     finite(t.Command.Steering),
		Accepted:     t.Accepted,
	}
}

func NewRejectionPayload(r *core.Rejection) RejectionPayload {
	return RejectionPayload{
		Tick:    r.Tick,
		Time:    r.Time,
		Clock:   r.Clock.Seconds(),
		Channel: r.Channel,
		Index:   r.Index,
		Value:   finiteValue(r.Value),
		Reason:  r.Reason,
	}
}

func NewTracePointPayload(p *core.TracePoint) TracePointPayload {
	return TracePointPayload{
		Time:     p.Time,
		Clock:    p.Clock.Seconds(),
		Position: p.Position,
		Location: p.Location,
	}
}

func finite(values []float64) []*float64 {
	if values == nil {
		return nil
	}
	out := make([]*float64, len(values))
	for i, v := range values {
		out[i] = finiteValue(v)
	}
	return out
}

func finiteValue(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
