package sensor

import (
	"math"

	"github.com/OCAP2/roversim/internal/geo"
	"github.com/OCAP2/roversim/pkg/core"
)

// signalStrength is the signal of a single target at one meter.
const signalStrength = 0.02

// TargetEstimator aggregates the inverse distance signal of beacon targets.
type TargetEstimator struct {
	frame geo.Frame
}

// NewTargetEstimator creates an estimator measuring in the given frame.
func NewTargetEstimator(frame geo.Frame) *TargetEstimator {
	return &TargetEstimator{frame: frame}
}

// Signal returns the summed target signal in [0,1]. Distances are great
// circle distances between the geodetic projections of rover and target.
func (e *TargetEstimator) Signal(rover core.Point, targets []core.Target) float64 {
	if len(targets) == 0 {
		return 0
	}

	roverLocation := e.frame.ToGeo(rover)
	var signal float64
	for _, t := range targets {
		d := geo.Distance(roverLocation, e.frame.ToGeo(t.Position))
		if d <= 0 {
			return 1
		}
		signal += signalStrength / d
	}
	return math.Min(signal, 1)
}
