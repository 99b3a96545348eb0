package streaming

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/roversim/pkg/core"
)

func TestEnvelopeSerialization(t *testing.T) {
	payload := NewTracePointPayload(&core.TracePoint{Clock: 1500 * time.Millisecond, Position: core.Point{X: 1, Y: 2}})
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	env := Envelope{Type: TypeTracePoint, Payload: raw}
	data, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded Envelope
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, TypeTracePoint, decoded.Type)

	var tp TracePointPayload
	require.NoError(t, json.Unmarshal(decoded.Payload, &tp))
	assert.Equal(t, 1.5, tp.Clock)
	assert.Equal(t, core.Point{X: 1, Y: 2}, tp.Position)
}

func TestNewControlTickPayload_NonFinite(t *testing.T) {
	p := NewControlTickPayload(&core.ControlTick{
		Tick:    4,
		Clock:   80 * time.Millisecond,
		Command: core.ActuatorCommand{Engines: []float64{math.NaN(), 1}, Steering: []float64{math.Inf(-1)}},
	})

	assert.InDelta(t, 0.08, p.Clock, 1e-12)
	require.Len(t, p.Engines, 2)
	assert.Nil(t, p.Engines[0])
	assert.Equal(t, 1.0, *p.Engines[1])
	require.Len(t, p.Steering, 1)
	assert.Nil(t, p.Steering[0])

	_, err := json.Marshal(p)
	assert.NoError(t, err)
}

func TestNewRejectionPayload(t *testing.T) {
	p := NewRejectionPayload(&core.Rejection{Tick: 2, Channel: "engines", Index: 1, Value: 1.5, Reason: "engine value out of range"})
	require.NotNil(t, p.Value)
	assert.Equal(t, 1.5, *p.Value)
	assert.Equal(t, "engines", p.Channel)

	assert.Nil(t, NewRejectionPayload(&core.Rejection{Value: math.NaN()}).Value)
}

func TestNewStartRunPayload(t *testing.T) {
	p := NewStartRunPayload(&core.Run{ID: "r1", VehicleType: core.VehicleTank, Controller: "idle", Seed: 3})
	assert.Equal(t, "r1", p.RunID)
	assert.Equal(t, "tank", p.VehicleType)
	assert.Equal(t, "idle", p.Controller)
	assert.Equal(t, int64(3), p.Seed)
}
