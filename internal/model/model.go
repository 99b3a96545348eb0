package model

import (
	"database/sql"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []any{
	&Run{},
	&ControlTick{},
	&Rejection{},
	&TracePoint{},
}

// Run is one Start..Stop cycle of a simulation.
// Geometry columns hold EPSG:3857 points encoded as WKB.
type Run struct {
	ID           uint         `json:"id" gorm:"primarykey;autoIncrement;"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
	RunID        string       `json:"runId" gorm:"size:36;uniqueIndex"`
	StartTime    time.Time    `json:"startTime"`
	EndTime      sql.NullTime `json:"endTime" gorm:"default:NULL"`
	VehicleType  string       `json:"vehicleType" gorm:"size:16"`
	Authenticity string       `json:"authenticity" gorm:"size:32"`
	Controller   string       `json:"controller" gorm:"size:64"`
	Seed         int64        `json:"seed"`

	OriginLatitude  float64    `json:"originLatitude"`
	OriginLongitude float64    `json:"originLongitude"`
	Origin          geom.Point `json:"origin"`
}

func (*Run) TableName() string {
	return "runs"
}

// ControlTick is the telemetry of one control task invocation.
type ControlTick struct {
	ID    uint          `json:"id" gorm:"primarykey;autoIncrement;"`
	RunID uint          `json:"runId" gorm:"index:idx_controltick_run_id"`
	Tick  uint64        `json:"tick" gorm:"index:idx_controltick_tick"`
	Time  time.Time     `json:"time"` // wall time of the invocation
	Clock time.Duration `json:"clock"`                         // simulation clock

	// What the controller saw.
	Heading            float64         `json:"heading"`
	Latitude           float64         `json:"latitude"`
	Longitude          float64         `json:"longitude"`
	Location           geom.Point      `json:"location"`
	Proximity          datatypes.JSON  `json:"proximity"`
	TargetFinderSignal sql.NullFloat64 `json:"targetFinderSignal" gorm:"default:NULL"`

	// Ground truth, without noise.
	TrueX       float64 `json:"trueX"`
	TrueY       float64 `json:"trueY"`
	TrueHeading float64 `json:"trueHeading"`

	// What the controller asked for.
	Engines  datatypes.JSON `json:"engines"`
	Steering datatypes.JSON `json:"steering"`
	Accepted bool           `json:"accepted" gorm:"default:false"`
}

func (*ControlTick) TableName() string {
	return "control_ticks"
}

// Rejection is one actuator value that was not applied.
type Rejection struct {
	ID      uint            `json:"id" gorm:"primarykey;autoIncrement;"`
	RunID   uint            `json:"runId" gorm:"index:idx_rejection_run_id"`
	Tick    uint64          `json:"tick"`
	Time    time.Time       `json:"time"`
	Clock   time.Duration   `json:"clock"`
	Channel string          `json:"channel" gorm:"size:16"` // engines or steering
	Index   int             `json:"index"`
	Value   sql.NullFloat64 `json:"value" gorm:"default:NULL"` // NULL for non-finite values
	Reason  string          `json:"reason" gorm:"size:255"`
}

func (*Rejection) TableName() string {
	return "rejections"
}

// TracePoint is a vertex of the decimated trace.
type TracePoint struct {
	ID        uint          `json:"id" gorm:"primarykey;autoIncrement;"`
	RunID     uint          `json:"runId" gorm:"index:idx_tracepoint_run_id"`
	Time      time.Time     `json:"time"`
	Clock     time.Duration `json:"clock"`
	X         float64       `json:"x"`
	Y         float64       `json:"y"`
	Latitude  float64       `json:"latitude"`
	Longitude float64       `json:"longitude"`
	Position  geom.Point    `json:"position"`
}

func (*TracePoint) TableName() string {
	return "trace_points"
}

// Summary aggregates a stored run.
type Summary struct {
	Ticks      int64
	Rejections int64
	TraceLen   int64
}

// Summarize counts the rows stored for run.
func Summarize(db *gorm.DB, runID uint) (Summary, error) {
	var s Summary
	if err := db.Model(&ControlTick{}).Where("run_id = ?", runID).Count(&s.Ticks).Error; err != nil {
		return Summary{}, err
	}
	if err := db.Model(&Rejection{}).Where("run_id = ?", runID).Count(&s.Rejections).Error; err != nil {
		return Summary{}, err
	}
	if err := db.Model(&TracePoint{}).Where("run_id = ?", runID).Count(&s.TraceLen).Error; err != nil {
		return Summary{}, err
	}
	return s, nil
}
