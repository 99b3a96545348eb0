// Package convert provides functions to convert core telemetry into GORM models
package convert

import (
	"database/sql"
	"encoding/json"
	"math"

	"github.com/OCAP2/roversim/internal/geo"
	"github.com/OCAP2/roversim/internal/model"
	"github.com/OCAP2/roversim/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// locationToPoint converts a location to a web mercator point, empty when out of range.
func locationToPoint(loc core.Location) geom.Point {
	p, err := geo.PointFromLocation(loc)
	if err != nil {
		return geom.NewEmptyPoint(geom.DimXY)
	}
	return p
}

// floatsToJSON converts a []float64 to datatypes.JSON for DB storage.
// Non-finite values are stored as null.
func floatsToJSON(values []float64) datatypes.JSON {
	if len(values) == 0 {
		return datatypes.JSON("[]")
	}
	out := make([]*float64, len(values))
	for i := range values {
		if !math.IsNaN(values[i]) && !math.IsInf(values[i], 0) {
			out[i] = &values[i]
		}
	}
	data, _ := json.Marshal(out)
	return datatypes.JSON(data)
}

func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// CoreToRun converts a core.Run to a GORM model.Run.
// core.Run.ID maps to GORM Run.RunID; the primary key is assigned by the database.
func CoreToRun(r core.Run) model.Run {
	return model.Run{
		RunID:           r.ID,
		StartTime:       r.StartTime,
		VehicleType:     string(r.VehicleType),
		Authenticity:    r.Authenticity,
		Controller:      r.Controller,
		Seed:            r.Seed,
		OriginLatitude:  r.Origin.Latitude,
		OriginLongitude: r.Origin.Longitude,
		Origin:          locationToPoint(r.Origin),
	}
}

// CoreToControlTick converts a core.ControlTick belonging to the run with primary key runID.
func CoreToControlTick(t core.ControlTick, runID uint) model.ControlTick {
	var signal sql.NullFloat64
	if t.Sensors.TargetFinderSignal != nil {
		signal = nullFloat(*t.Sensors.TargetFinderSignal)
	}

	return model.ControlTick{
		RunID:              runID,
		Tick:               t.Tick,
		Time:               t.Time,
		Clock:              t.Clock,
		Heading:            t.Sensors.Heading,
		Latitude:           t.Sensors.Location.Latitude,
		Longitude:          t.Sensors.Location.Longitude,
		Location:           locationToPoint(t.Sensors.Location),
		Proximity:          floatsToJSON(t.Sensors.Proximity),
		TargetFinderSignal: signal,
		TrueX:              t.TruePosition.X,
		TrueY:              t.TruePosition.Y,
		TrueHeading:        t.TrueHeading,
		Engines:            floatsToJSON(t.Command.Engines),
		Steering:           floatsToJSON(t.Command.Steering),
		Accepted:           t.Accepted,
	}
}

// CoreToRejection converts a core.Rejection belonging to the run with primary key runID.
func CoreToRejection(r core.Rejection, runID uint) model.Rejection {
	return model.Rejection{
		RunID:   runID,
		Tick:    r.Tick,
		Time:    r.Time,
		Clock:   r.Clock,
		Channel: r.Channel,
		Index:   r.Index,
		Value:   nullFloat(r.Value),
		Reason:  r.Reason,
	}
}

// CoreToTracePoint converts a core.TracePoint belonging to the run with primary key runID.
func CoreToTracePoint(p core.TracePoint, runID uint) model.TracePoint {
	return model.TracePoint{
		RunID:     runID,
		Time:      p.Time,
		Clock:     p.Clock,
		X:         p.Position.X,
		Y:         p.Position.Y,
		Latitude:  p.Location.Latitude,
		Longitude: p.Location.Longitude,
		Position:  locationToPoint(p.Location),
	}
}
