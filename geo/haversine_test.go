package geo

import (
	"math/rand"
	"testing"

	"github.com/Dosada05/meetbasket/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineKnownDistances(t *testing.T) {
	// Berlin Alexanderplatz to Munich Marienplatz, roughly 504 km.
	d := Haversine(52.5219, 13.4132, 48.1374, 11.5755)
	assert.InDelta(t, 504, d, 2)

	assert.Zero(t, Haversine(48.0, 11.0, 48.0, 11.0))

	// Quarter of the equator.
	assert.InDelta(t, EarthRadiusKM*3.14159265/2, Haversine(0, 0, 0, 90), 0.01)
}

func TestHaversineIsSymmetric(t *testing.T) {
	a := Haversine(40.7128, -74.0060, 34.0522, -118.2437)
	b := Haversine(34.0522, -118.2437, 40.7128, -74.0060)
	assert.InDelta(t, a, b, 1e-9)
}

func TestRankByDistanceIsNonDecreasing(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	courts := make([]models.Court, 50)
	for i := range courts {
		courts[i] = models.Court{
			ID:        i + 1,
			Latitude:  47 + rng.Float64()*8,
			Longitude: 6 + rng.Float64()*9,
		}
	}

	ranked := RankByDistance(courts, 51.0, 10.0)
	require.Len(t, ranked, len(courts))
	for i := 1; i < len(ranked); i++ {
		assert.LessOrEqual(t, ranked[i-1].DistanceKM, ranked[i].DistanceKM)
	}
	for _, r := range ranked {
		assert.InDelta(t, Haversine(51.0, 10.0, r.Latitude, r.Longitude), r.DistanceKM, 1e-9)
	}
}

func TestRankByDistanceKeepsTiesInInputOrder(t *testing.T) {
	courts := []models.Court{
		{ID: 1, Latitude: 10, Longitude: 10},
		{ID: 2, Latitude: 0, Longitude: 0},
		{ID: 3, Latitude: 10, Longitude: 10},
	}
	ranked := RankByDistance(courts, 0, 0)
	ids := []int{ranked[0].ID, ranked[1].ID, ranked[2].ID}
	assert.Equal(t, []int{2, 1, 3}, ids)
}

func TestTrim(t *testing.T) {
	courts := []models.Court{
		{ID: 1, Latitude: 52.52, Longitude: 13.40}, // Berlin
		{ID: 2, Latitude: 52.40, Longitude: 13.06}, // Potsdam, ~27 km
		{ID: 3, Latitude: 48.14, Longitude: 11.58}, // Munich
		{ID: 4, Latitude: 52.53, Longitude: 13.41}, // Berlin again
	}
	ranked := RankByDistance(courts, 52.52, 13.40)

	near := Trim(ranked, 50, 0)
	assert.Len(t, near, 3)

	assert.Len(t, Trim(ranked, 0, 2), 2)
	assert.Len(t, Trim(ranked, 0, 0), 4)
	assert.Empty(t, Trim(nil, 10, 5))
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(52.5, 13.4))
	assert.False(t, ValidCoordinates(91, 0))
	assert.False(t, ValidCoordinates(0, -181))
}
