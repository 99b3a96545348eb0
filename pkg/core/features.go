// pkg/core/features.go
package core

// LandmineRadius is the sensor radius of every landmine, in meters.
const LandmineRadius = 0.15

// LocationOfInterest is a labelled location shown as a marker.
type LocationOfInterest struct {
	Location `mapstructure:",squash"`
	Label    string `json:"label" mapstructure:"label"`
}

// ObstacleSpec describes a collidable round obstacle.
type ObstacleSpec struct {
	Location `mapstructure:",squash"`
	Radius   float64 `json:"radius" mapstructure:"radius"`
}

// TargetSpec describes a beacon picked up by the target finder.
type TargetSpec struct {
	Location `mapstructure:",squash"`
	Radius   float64 `json:"radius" mapstructure:"radius"`
}

// Scenario is the static world a simulation is built from.
type Scenario struct {
	Origin              Location             `json:"origin" mapstructure:"origin"`
	LocationsOfInterest []LocationOfInterest `json:"locationsOfInterest" mapstructure:"locationsOfInterest"`
	Obstacles           []ObstacleSpec       `json:"obstacles" mapstructure:"obstacles"`
	Targets             []TargetSpec         `json:"targets" mapstructure:"targets"`
	Landmines           []Location           `json:"landmines" mapstructure:"landmines"`
}

// Marker is a labelled point of interest in the local frame.
type Marker struct {
	Label    string   `json:"label"`
	Position Point    `json:"position"`
	Location Location `json:"location"`
}

// Obstacle is a collidable circle in the local frame.
type Obstacle struct {
	Position Point   `json:"position"`
	Radius   float64 `json:"radius"`
}

// Target is a sensor-only circle in the local frame.
type Target struct {
	Position Point   `json:"position"`
	Radius   float64 `json:"radius"`
}

// Landmine is a sensor-only circle of LandmineRadius in the local frame.
type Landmine struct {
	Position Point `json:"position"`
}
