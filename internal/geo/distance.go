// Package geo provides the distance math shared by every matching component.
package geo

import (
	"math"

	"github.com/medipulse/medipulse/internal/models"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two coordinates in kilometers.
func DistanceKm(a, b models.Coordinate) float64 {
	lat1 := degreesToRadians(a.Latitude)
	lat2 := degreesToRadians(b.Latitude)
	dLat := degreesToRadians(b.Latitude - a.Latitude)
	dLon := degreesToRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// TravelMinutes converts a distance to whole minutes at the fixed 40 km/h
// average speed, truncating toward zero.
func TravelMinutes(distanceKm float64) int {
	return int(distanceKm / AverageSpeedKmh * 60)
}

// AverageSpeedKmh is the constant average ambulance speed assumed everywhere.
const AverageSpeedKmh = 40.0

// Interpolate returns the point at fraction f along the straight line from a to b.
func Interpolate(a, b models.Coordinate, f float64) models.Coordinate {
	return models.Coordinate{
		Latitude:  a.Latitude + (b.Latitude-a.Latitude)*f,
		Longitude: a.Longitude + (b.Longitude-a.Longitude)*f,
	}
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
