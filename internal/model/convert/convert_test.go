package convert

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/roversim/pkg/core"
)

var berlin = core.Location{Latitude: 52.477050353132384, Longitude: 13.395281227289209}

func TestCoreToRun(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	r := CoreToRun(core.Run{
		ID:           "run-1",
		StartTime:    start,
		VehicleType:  core.VehicleTank,
		Authenticity: "gaussian",
		Controller:   "avoid",
		Origin:       berlin,
		Seed:         7,
	})

	assert.Equal(t, uint(0), r.ID)
	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, start, r.StartTime)
	assert.False(t, r.EndTime.Valid)
	assert.Equal(t, "tank", r.VehicleType)
	assert.Equal(t, "gaussian", r.Authenticity)
	assert.Equal(t, "avoid", r.Controller)
	assert.Equal(t, int64(7), r.Seed)
	assert.Equal(t, berlin.Latitude, r.OriginLatitude)
	assert.Equal(t, berlin.Longitude, r.OriginLongitude)

	xy, ok := r.Origin.XY()
	require.True(t, ok)
	// web mercator easting of 13.395°E
	assert.InDelta(t, 1491155.9, xy.X, 1)
}

func TestCoreToRun_InvalidOriginIsEmptyPoint(t *testing.T) {
	r := CoreToRun(core.Run{Origin: core.Location{Latitude: 95, Longitude: 0}})
	assert.True(t, r.Origin.IsEmpty())
}

func TestCoreToControlTick(t *testing.T) {
	signal := 0.5
	now := time.Date(2026, 1, 15, 10, 0, 1, 0, time.UTC)
	tick := CoreToControlTick(core.ControlTick{
		Tick:  3,
		Time:  now,
		Clock: 60 * time.Millisecond,
		Sensors: core.SensorFrame{
			Heading:            45,
			Location:           berlin,
			Proximity:          []float64{8, 3.25},
			TargetFinderSignal: &signal,
		},
		TruePosition: core.Point{X: 1, Y: 2},
		TrueHeading:  44,
		Command:      core.ActuatorCommand{Engines: []float64{0.5, math.NaN()}},
		Accepted:     false,
	}, 12)

	assert.Equal(t, uint(12), tick.RunID)
	assert.Equal(t, uint64(3), tick.Tick)
	assert.Equal(t, now, tick.Time)
	assert.Equal(t, 60*time.Millisecond, tick.Clock)
	assert.Equal(t, 45.0, tick.Heading)
	assert.Equal(t, berlin.Latitude, tick.Latitude)
	assert.False(t, tick.Location.IsEmpty())
	assert.JSONEq(t, `[8, 3.25]`, string(tick.Proximity))
	assert.True(t, tick.TargetFinderSignal.Valid)
	assert.Equal(t, 0.5, tick.TargetFinderSignal.Float64)
	assert.Equal(t, 1.0, tick.TrueX)
	assert.Equal(t, 2.0, tick.TrueY)
	assert.Equal(t, 44.0, tick.TrueHeading)
	assert.JSONEq(t, `[0.5, null]`, string(tick.Engines))
	assert.JSONEq(t, `[]`, string(tick.Steering))
	assert.False(t, tick.Accepted)
}

func TestCoreToControlTick_NoTargetSignal(t *testing.T) {
	tick := CoreToControlTick(core.ControlTick{}, 1)
	assert.False(t, tick.TargetFinderSignal.Valid)
}

func TestCoreToRejection(t *testing.T) {
	r := CoreToRejection(core.Rejection{
		Tick:    9,
		Clock:   180 * time.Millisecond,
		Channel: "steering",
		Index:   4,
		Value:   180,
		Reason:  "vehicle has no steerable wheel at this index",
	}, 2)

	assert.Equal(t, uint(2), r.RunID)
	assert.Equal(t, uint64(9), r.Tick)
	assert.Equal(t, "steering", r.Channel)
	assert.Equal(t, 4, r.Index)
	assert.True(t, r.Value.Valid)
	assert.Equal(t, 180.0, r.Value.Float64)
}

func TestCoreToRejection_NaNValue(t *testing.T) {
	r := CoreToRejection(core.Rejection{Value: math.NaN()}, 1)
	assert.False(t, r.Value.Valid)
}

func TestCoreToTracePoint(t *testing.T) {
	p := CoreToTracePoint(core.TracePoint{
		Clock:    time.Second,
		Position: core.Point{X: -3, Y: 4},
		Location: berlin,
	}, 5)

	assert.Equal(t, uint(5), p.RunID)
	assert.Equal(t, time.Second, p.Clock)
	assert.Equal(t, -3.0, p.X)
	assert.Equal(t, 4.0, p.Y)
	assert.Equal(t, berlin.Longitude, p.Longitude)
	assert.False(t, p.Position.IsEmpty())
}

func TestFloatsToJSON(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want string
	}{
		{"nil", nil, `[]`},
		{"values", []float64{1, -0.5}, `[1, -0.5]`},
		{"infinite", []float64{math.Inf(1)}, `[null]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := floatsToJSON(tt.in)
			assert.True(t, json.Valid(got))
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}
