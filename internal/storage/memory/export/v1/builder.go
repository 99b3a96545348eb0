package v1

import (
	"fmt"
	"math"
	"time"

	"github.com/OCAP2/roversim/internal/geo"
	"github.com/OCAP2/roversim/pkg/core"
)

// RunData contains all the data needed to build an export
type RunData struct {
	Run        core.Run
	EndTime    time.Time
	Ticks      []core.ControlTick
	Rejections []core.Rejection
	// Trace in recording order, oldest first.
	Trace []core.TracePoint
}

// Build creates an Export from the run data
func Build(data *RunData) (Export, error) {
	export := Export{
		FormatVersion: FormatVersion,
		RunID:         data.Run.ID,
		StartTime:     data.Run.StartTime,
		EndTime:       data.EndTime,
		VehicleType:   string(data.Run.VehicleType),
		Authenticity:  data.Run.Authenticity,
		Controller:    data.Run.Controller,
		Seed:          data.Run.Seed,
		Origin:        data.Run.Origin,
		Ticks:         make([]Tick, 0, len(data.Ticks)),
		Rejections:    make([]Rejection, 0, len(data.Rejections)),
		TraceClocks:   make([]float64, 0, len(data.Trace)),
	}

	var lastClock time.Duration
	for _, t := range data.Ticks {
		export.Ticks = append(export.Ticks, Tick{
			Tick:               t.Tick,
			Clock:              t.Clock.Seconds(),
			Heading:            t.Sensors.Heading,
			Location:           t.Sensors.Location,
			Proximity:          t.Sensors.Proximity,
			TargetFinderSignal: t.Sensors.TargetFinderSignal,
			TruePosition:       t.TruePosition,
			TrueHeading:        t.TrueHeading,
			Engines:            finite(t.Command.Engines),
			Steering:           finite(t.Command.Steering),
			Accepted:           t.Accepted,
		})
		lastClock = max(lastClock, t.Clock)
	}

	for _, r := range data.Rejections {
		export.Rejections = append(export.Rejections, Rejection{
			Tick:    r.Tick,
			Clock:   r.Clock.Seconds(),
			Channel: r.Channel,
			Index:   r.Index,
			Value:   finiteValue(r.Value),
			Reason:  r.Reason,
		})
	}

	newestFirst := make([]core.Point, len(data.Trace))
	for i, p := range data.Trace {
		export.TraceClocks = append(export.TraceClocks, p.Clock.Seconds())
		newestFirst[len(data.Trace)-1-i] = p.Position
		lastClock = max(lastClock, p.Clock)
	}
	if len(newestFirst) >= 2 {
		ls, err := geo.TraceLineString(geo.NewFrame(data.Run.Origin), newestFirst)
		if err != nil {
			return Export{}, err
		}
		raw, err := ls.MarshalJSON()
		if err != nil {
			return Export{}, fmt.Errorf("failed to encode trace: %w", err)
		}
		export.Trace = raw
	}

	export.Duration = lastClock.Seconds()
	return export, nil
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
