package actuation

import (
	"errors"
	"fmt"
	"math"

	"github.com/OCAP2/roversim/internal/authenticity"
	"github.com/OCAP2/roversim/pkg/core"
)

var (
	ErrEngineCount         = errors.New("engine count mismatch")
	ErrEngineRange         = errors.New("wheel power out of range [-1.0 : 1.0]")
	ErrSteeringUnsupported = errors.New("vehicle has no steerable wheels")
	ErrSteeringIndex       = errors.New("no steerable wheel for steering index")
	ErrSteeringRange       = errors.New("steering value out of range [0 : 360)")
)

// Channel names used in rejections.
const (
	ChannelEngines  = "engines"
	ChannelSteering = "steering"
)

// Rejection describes one part of a command that was not applied.
// Index is -1 when the rejection concerns the whole channel.
type Rejection struct {
	Channel string
	Index   int
	Value   float64
	Err     error
}

func (r Rejection) Error() string {
	if r.Index < 0 {
		return fmt.Sprintf("%s: %v", r.Channel, r.Err)
	}
	return fmt.Sprintf("%s[%d]=%v: %v", r.Channel, r.Index, r.Value, r.Err)
}

func (r Rejection) Unwrap() error {
	return r.Err
}

// Result reports what Apply changed.
type Result struct {
	EnginesApplied  bool
	SteeringApplied []int
	Rejections      []Rejection
}

// Rejected reports whether any part of the command was refused.
func (r Result) Rejected() bool {
	return len(r.Rejections) > 0
}

// Err joins all rejections, nil when the whole command was applied.
func (r Result) Err() error {
	if len(r.Rejections) == 0 {
		return nil
	}
	errs := make([]error, len(r.Rejections))
	for i, rej := range r.Rejections {
		errs[i] = rej
	}
	return errors.Join(errs...)
}

// Validator checks actuator commands and writes accepted values to the wheels.
type Validator struct {
	vehicle   core.VehicleType
	options   authenticity.PhysicalOptions
	baseForce float64
}

// NewValidator creates a validator for the vehicle type.
func NewValidator(vehicle core.VehicleType, options authenticity.PhysicalOptions) *Validator {
	return &Validator{
		vehicle:   vehicle,
		options:   options,
		baseForce: BaseEngineForce,
	}
}

// Apply validates cmd and updates wheels and the last accepted state.
//
// Engines are all or nothing: a wrong count or any value outside [-1,1]
// leaves every engine force untouched. Steering values are checked one by one.
func (v *Validator) Apply(cmd core.ActuatorCommand, wheels []*core.WheelActuator, state *core.ActuatorCommand) Result {
	var res Result
	v.applyEngines(cmd.Engines, wheels, state, &res)
	v.applySteering(cmd.Steering, wheels, state, &res)
	return res
}

func (v *Validator) applyEngines(engines []float64, wheels []*core.WheelActuator, state *core.ActuatorCommand, res *Result) {
	count := v.vehicle.EngineCount()
	if len(engines) != count {
		res.Rejections = append(res.Rejections, Rejection{
			Channel: ChannelEngines,
			Index:   -1,
			Value:   float64(len(engines)),
			Err:     fmt.Errorf("%w: got %d, want %d", ErrEngineCount, len(engines), count),
		})
		return
	}

	valid := true
	for i, value := range engines {
		if !(value >= -1 && value <= 1) {
			valid = false
			res.Rejections = append(res.Rejections, Rejection{
				Channel: ChannelEngines,
				Index:   i,
				Value:   value,
				Err:     ErrEngineRange,
			})
		}
	}
	if !valid {
		return
	}

	for i, wheel := range wheels {
		engine := i % count
		wheel.EngineForce = v.baseForce * v.options.ErrorEngine(engine, engines[engine])
	}
	if state != nil {
		state.Engines = append(state.Engines[:0], engines...)
	}
	res.EnginesApplied = true
}

func (v *Validator) applySteering(steering []float64, wheels []*core.WheelActuator, state *core.ActuatorCommand, res *Result) {
	if len(steering) == 0 {
		return
	}
	if !v.vehicle.Steerable() {
		res.Rejections = append(res.Rejections, Rejection{
			Channel: ChannelSteering,
			Index:   -1,
			Value:   float64(len(steering)),
			Err:     fmt.Errorf("%w: %s", ErrSteeringUnsupported, v.vehicle),
		})
		return
	}

	for i, value := range steering {
		wheel, ok := SteeredWheel(v.vehicle, i)
		if !ok || wheel >= len(wheels) {
			res.Rejections = append(res.Rejections, Rejection{
				Channel: ChannelSteering,
				Index:   i,
				Value:   value,
				Err:     ErrSteeringIndex,
			})
			continue
		}
		if !(value >= 0 && value < 360) {
			res.Rejections = append(res.Rejections, Rejection{
				Channel: ChannelSteering,
				Index:   i,
				Value:   value,
				Err:     ErrSteeringRange,
			})
			continue
		}

		wheels[wheel].SteerValue = SteerAngle(value)
		if state != nil && i < len(state.Steering) {
			state.Steering[i] = value
		}
		res.SteeringApplied = append(res.SteeringApplied, i)
	}
}

// SteerAngle converts a steering value in degrees, 180 being straight ahead,
// to a wheel angle in radians.
func SteerAngle(value float64) float64 {
	return (value - StraightAhead) * math.Pi / 180
}
