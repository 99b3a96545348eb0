package authenticity

import "github.com/OCAP2/roversim/pkg/core"

type ideal struct {
	engineCount int
}

func (ideal) Level() Level                                       { return Ideal }
func (i ideal) EngineCount() int                                 { return i.engineCount }
func (ideal) Models(Channel) bool                                { return false }
func (ideal) ErrorEngine(_ int, value float64) float64           { return value }
func (ideal) ErrorHeading(heading float64) float64               { return heading }
func (ideal) ErrorLocation(location core.Location) core.Location { return location }
func (ideal) ErrorProximity(distance float64) float64            { return distance }
