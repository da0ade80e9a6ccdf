package activity

import (
	"math"

	"github.com/warp/roster-engine/generic"
)

const earthRadiusMeters = 6371000.0

// DistanceMeters is the great-circle (haversine) distance between two points.
func DistanceMeters(a, b generic.Geolocation) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// WithinGeofence reports whether at lies inside fence. A fence with no
// radius accepts every location.
func WithinGeofence(fence generic.Geofence, at generic.Geolocation) bool {
	if fence.RadiusMeters <= 0 {
		return true
	}
	center := generic.Geolocation{Lat: fence.Lat, Lng: fence.Lng}
	return DistanceMeters(center, at) <= fence.RadiusMeters
}
