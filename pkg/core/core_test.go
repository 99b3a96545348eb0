package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVehicleType(t *testing.T) {
	tests := []struct {
		in      string
		want    VehicleType
		wantErr bool
	}{
		{"rover", VehicleRover, false},
		{" Tank ", VehicleTank, false},
		{"ROVER", VehicleRover, false},
		{"boat", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVehicleType(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVehicleType_Contract(t *testing.T) {
	assert.Equal(t, 6, VehicleRover.EngineCount())
	assert.Equal(t, 4, VehicleRover.SteeringCount())
	assert.True(t, VehicleRover.Steerable())

	assert.Equal(t, 2, VehicleTank.EngineCount())
	assert.Zero(t, VehicleTank.SteeringCount())
	assert.False(t, VehicleTank.Steerable())
}

func TestLocation_Valid(t *testing.T) {
	assert.True(t, Location{Latitude: 52.47, Longitude: 13.39}.Valid())
	assert.True(t, Location{}.Valid())
	assert.False(t, Location{Latitude: 90}.Valid())
	assert.False(t, Location{Longitude: -180}.Valid())
}

func TestPoint(t *testing.T) {
	p := Point{X: 3, Y: 4}
	assert.Equal(t, 5.0, p.Len())
	assert.Equal(t, Point{X: 4, Y: 6}, p.Add(Point{X: 1, Y: 2}))
	assert.Equal(t, Point{X: 2, Y: 2}, p.Sub(Point{X: 1, Y: 2}))
	assert.Equal(t, Point{X: 6, Y: 8}, p.Scale(2))
	assert.Equal(t, 5.0, Point{}.DistanceTo(p))
}

func TestActuatorCommand_Clone(t *testing.T) {
	c := ActuatorCommand{Engines: []float64{0.5, -0.5}, Steering: []float64{180}}
	cl := c.Clone()
	cl.Engines[0] = 1
	cl.Steering[0] = 90
	assert.Equal(t, 0.5, c.Engines[0])
	assert.Equal(t, 180.0, c.Steering[0])

	assert.Nil(t, ActuatorCommand{}.Clone().Steering)
}
