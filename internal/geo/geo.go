package geo

import (
	"errors"
	"strconv"
	"strings"

	"github.com/OCAP2/roversim/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// GEO POINTS
// Exported geometry is stored as EPSG:3857 so that plain SQLite files and
// the time-series sinks can be plotted without a spatial extension.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// LocationFromString parses a "lat,long" string into a core.Location.
func LocationFromString(coords string) (core.Location, error) {
	coordsSplit := strings.Split(coords, ",")
	if len(coordsSplit) != 2 {
		return core.Location{}, ErrInvalidCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[0]), 64)
	if err != nil {
		return core.Location{}, ErrInvalidCoordinates
	}
	long, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[1]), 64)
	if err != nil {
		return core.Location{}, ErrInvalidCoordinates
	}
	loc := core.Location{Latitude: lat, Longitude: long}
	if !loc.Valid() {
		return core.Location{}, ErrInvalidCoordinates
	}
	return loc, nil
}

// Coords3857From4326 creates a web mercator point from a longitude and latitude
func Coords3857From4326(
	longitude float64,
	latitude float64,
) (
	point geom.Point,
	err error,
) {
	if longitude < -180 || longitude > 180 || latitude < -90 || latitude > 90 {
		return geom.NewEmptyPoint(geom.DimXY), ErrInvalidCoordinates
	}
	var x, y float64
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ = f(longitude, latitude, 0)
	point = geom.NewPoint(
		geom.Coordinates{
			XY: geom.XY{X: x, Y: y},
		},
	)
	return point, nil
}

// PointFromLocation converts a location into a web mercator point.
func PointFromLocation(loc core.Location) (geom.Point, error) {
	return Coords3857From4326(loc.Longitude, loc.Latitude)
}
