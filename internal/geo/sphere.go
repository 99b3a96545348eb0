package geo

import (
	"math"

	"github.com/OCAP2/roversim/pkg/core"
)

// EarthRadius is the mean earth radius in meters used by all spherical formulas.
const EarthRadius = 6371e3

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func radiansToDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// NormalizeBearing wraps a bearing in degrees into [0,360).
func NormalizeBearing(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	// math.Mod(-1e-18, 360)+360 rounds to 360
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// Distance returns the great circle distance in meters between two locations (haversine).
func Distance(from, to core.Location) float64 {
	lat1 := degreesToRadians(from.Latitude)
	lat2 := degreesToRadians(to.Latitude)
	dLat := lat2 - lat1
	dLon := degreesToRadians(to.Longitude - from.Longitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadius * c
}

// InitialBearing returns the compass bearing in degrees from one location to another.
func InitialBearing(from, to core.Location) float64 {
	lat1 := degreesToRadians(from.Latitude)
	lat2 := degreesToRadians(to.Latitude)
	dLon := degreesToRadians(to.Longitude - from.Longitude)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	return NormalizeBearing(radiansToDegrees(math.Atan2(y, x)))
}

// Destination returns the location reached from start after travelling distance
// meters along the great circle with the given initial compass bearing.
func Destination(start core.Location, distance, bearing float64) core.Location {
	delta := distance / EarthRadius
	theta := degreesToRadians(bearing)

	lat1 := degreesToRadians(start.Latitude)
	lon1 := degreesToRadians(start.Longitude)

	sinLat2 := math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(theta)
	lat2 := math.Asin(sinLat2)
	y := math.Sin(theta) * math.Sin(delta) * math.Cos(lat1)
	x := math.Cos(delta) - math.Sin(lat1)*sinLat2
	lon2 := lon1 + math.Atan2(y, x)

	lon := radiansToDegrees(lon2)
	// keep longitude in [-180,180)
	lon = math.Mod(lon+540, 360) - 180

	return core.Location{Latitude: radiansToDegrees(lat2), Longitude: lon}
}
