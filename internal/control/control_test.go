package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/roversim/internal/actuation"
	"github.com/OCAP2/roversim/internal/authenticity"
	"github.com/OCAP2/roversim/internal/geo"
	"github.com/OCAP2/roversim/pkg/core"
)

var origin = core.Location{Latitude: 52.477050353132384, Longitude: 13.395281227289209}

var vehicles = []core.VehicleType{core.VehicleTank, core.VehicleRover}

func proximity(fill float64) []float64 {
	p := make([]float64, 180)
	for i := range p {
		p[i] = fill
	}
	return p
}

func assertValid(t *testing.T, vehicle core.VehicleType, cmd core.ActuatorCommand) {
	t.Helper()
	opts := authenticity.New(authenticity.Ideal, core.VehicleOptions{EngineCount: vehicle.EngineCount()}, nil)
	res := actuation.NewValidator(vehicle, opts).Apply(cmd, actuation.Wheels(vehicle), nil)
	assert.NoError(t, res.Err())
}

func TestRegistry(t *testing.T) {
	names := []string{}
	for _, c := range Controllers() {
		names = append(names, c.Name)
		assert.NotEmpty(t, c.Description)
	}
	assert.Equal(t, []string{"avoid", "circle", "cruise", "idle", "waypoint"}, names)

	_, err := Lookup("teleport")
	assert.ErrorIs(t, err, ErrUnknownController)

	_, err = New("teleport", core.VehicleTank, core.Scenario{})
	assert.ErrorIs(t, err, ErrUnknownController)
}

func TestControllers_ProduceValidCommands(t *testing.T) {
	scenario := core.Scenario{
		Origin:              origin,
		LocationsOfInterest: []core.LocationOfInterest{{Location: geo.ToGeo(origin, core.Point{X: 10, Y: -10})}},
	}
	frames := []core.SensorFrame{
		{Location: origin, Proximity: proximity(8)},
		{Location: origin, Heading: 270, Proximity: proximity(1)},
	}

	for _, vehicle := range vehicles {
		for _, c := range Controllers() {
			fn := c.Build(vehicle, scenario)
			for _, f := range frames {
				t.Run(string(vehicle)+"/"+c.Name, func(t *testing.T) {
					assertValid(t, vehicle, fn(f, actuation.InitialCommand(vehicle)))
				})
			}
		}
	}
}

func TestIdle(t *testing.T) {
	fn, err := New("idle", core.VehicleRover, core.Scenario{})
	require.NoError(t, err)
	assert.Equal(t, actuation.InitialCommand(core.VehicleRover), fn(core.SensorFrame{}, core.ActuatorCommand{}))
}

func TestCircle_Tank(t *testing.T) {
	cmd := Circle(core.VehicleTank, core.Scenario{})(core.SensorFrame{}, core.ActuatorCommand{})
	assert.Greater(t, cmd.Engines[0], cmd.Engines[1])
	assert.Nil(t, cmd.Steering)
}

func TestCircle_Rover(t *testing.T) {
	cmd := Circle(core.VehicleRover, core.Scenario{})(core.SensorFrame{}, core.ActuatorCommand{})
	assert.Equal(t, []float64{200, 200, 160, 160}, cmd.Steering)
}

func TestAvoid(t *testing.T) {
	fn := Avoid(core.VehicleTank, core.Scenario{})

	// clear ahead
	cmd := fn(core.SensorFrame{Proximity: proximity(8)}, core.ActuatorCommand{})
	assert.Equal(t, []float64{0.5, 0.5}, cmd.Engines)

	// blocked ahead, more room on the right
	p := proximity(8)
	p[0] = 1
	for i := 135; i < 180; i++ {
		p[i] = 1.5
	}
	cmd = fn(core.SensorFrame{Proximity: p}, core.ActuatorCommand{})
	assert.Equal(t, []float64{0.5, -0.5}, cmd.Engines)

	// blocked ahead, more room on the left
	p = proximity(8)
	p[0] = 1
	for i := 1; i <= 45; i++ {
		p[i] = 1.5
	}
	cmd = fn(core.SensorFrame{Proximity: p}, core.ActuatorCommand{})
	assert.Equal(t, []float64{-0.5, 0.5}, cmd.Engines)

	rover := Avoid(core.VehicleRover, core.Scenario{})
	p = proximity(8)
	p[0] = 1
	cmd = rover(core.SensorFrame{Proximity: p}, core.ActuatorCommand{})
	assert.Equal(t, 180+maxSteer, cmd.Steering[0])
}

func TestWaypoint(t *testing.T) {
	east := geo.ToGeo(origin, core.Point{X: 20})
	scenario := core.Scenario{Origin: origin, LocationsOfInterest: []core.LocationOfInterest{{Location: east}}}

	tank := Waypoint(core.VehicleTank, scenario)
	cmd := tank(core.SensorFrame{Location: origin, Heading: 0}, core.ActuatorCommand{})
	assert.InDelta(t, 1.0, cmd.Engines[0], 1e-6)
	assert.InDelta(t, 0.2, cmd.Engines[1], 1e-6)

	// facing the target
	cmd = tank(core.SensorFrame{Location: origin, Heading: 90}, core.ActuatorCommand{})
	assert.InDelta(t, cmd.Engines[0], cmd.Engines[1], 0.01)

	rover := Waypoint(core.VehicleRover, scenario)
	cmd = rover(core.SensorFrame{Location: origin, Heading: 180}, core.ActuatorCommand{})
	assert.Equal(t, 180-maxSteer, cmd.Steering[0])

	// arrived
	cmd = tank(core.SensorFrame{Location: geo.ToGeo(origin, core.Point{X: 19.5})}, core.ActuatorCommand{})
	assert.Equal(t, []float64{0, 0}, cmd.Engines)
}

func TestWaypoint_NoLocations(t *testing.T) {
	cmd := Waypoint(core.VehicleTank, core.Scenario{})(core.SensorFrame{}, core.ActuatorCommand{})
	assert.Equal(t, []float64{0, 0}, cmd.Engines)
}
