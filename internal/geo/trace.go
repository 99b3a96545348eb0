package geo

import (
	"fmt"

	"github.com/OCAP2/roversim/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// TraceLineString converts a trace (newest first) into a WGS84 line string
// in driving order, oldest point first.
func TraceLineString(frame Frame, trace []core.Point) (geom.LineString, error) {
	if len(trace) < 2 {
		return geom.LineString{}, fmt.Errorf("trace must have at least 2 points, got %d", len(trace))
	}

	flatCoords := make([]float64, 0, len(trace)*2)
	for i := len(trace) - 1; i >= 0; i-- {
		loc := frame.ToGeo(trace[i])
		flatCoords = append(flatCoords, loc.Longitude, loc.Latitude)
	}

	seq := geom.NewSequence(flatCoords, geom.DimXY)
	return geom.NewLineString(seq), nil
}
