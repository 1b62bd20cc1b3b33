// Package geo ranks courts by great-circle distance from a point.
package geo

import (
	"math"
	"sort"

	"github.com/Dosada05/meetbasket/models"
)

// EarthRadiusKM is the mean Earth radius.
const EarthRadiusKM = 6371.0

// Haversine returns the great-circle distance in kilometres between two points
// given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKM * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// RankByDistance attaches the distance from (lat, lng) to every court and
// returns them nearest first. Courts at equal distance keep their input order.
func RankByDistance(courts []models.Court, lat, lng float64) []models.NearbyCourt {
	ranked := make([]models.NearbyCourt, len(courts))
	for i, c := range courts {
		ranked[i] = models.NearbyCourt{
			Court:      c,
			DistanceKM: Haversine(lat, lng, c.Latitude, c.Longitude),
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKM < ranked[j].DistanceKM
	})
	return ranked
}

// Trim drops courts farther than radiusKM (when positive) and caps the result at
// limit entries (when positive). The input must already be ranked.
func Trim(ranked []models.NearbyCourt, radiusKM float64, limit int) []models.NearbyCourt {
	if radiusKM > 0 {
		cut := sort.Search(len(ranked), func(i int) bool {
			return ranked[i].DistanceKM > radiusKM
		})
		ranked = ranked[:cut]
	}
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// ValidCoordinates reports whether lat/lng are inside the WGS84 range.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
