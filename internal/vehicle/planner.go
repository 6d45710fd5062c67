package vehicle

import (
	"math"

	"smartbin-backend/internal/models"
)

// PlanPickups orders stops greedily, always driving to the closest
// remaining bin. DistanceKM on each stop is the leg that reaches it.
func PlanPickups(start models.Position, stops []models.PickupStop) ([]models.PickupStop, float64) {
	remaining := make([]models.PickupStop, len(stops))
	copy(remaining, stops)
	ordered := make([]models.PickupStop, 0, len(stops))

	current := start
	total := 0.0
	for len(remaining) > 0 {
		bestIdx := 0
		bestDistance := math.MaxFloat64
		for i, s := range remaining {
			d := HaversineKM(current, models.Position{Latitude: s.Latitude, Longitude: s.Longitude})
			if d < bestDistance {
				bestDistance = d
				bestIdx = i
			}
		}

		next := remaining[bestIdx]
		next.DistanceKM = math.Round(bestDistance*1000) / 1000
		ordered = append(ordered, next)
		total += bestDistance

		current = models.Position{Latitude: next.Latitude, Longitude: next.Longitude}
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return ordered, math.Round(total*1000) / 1000
}

// HaversineKM is the great-circle distance between two points.
func HaversineKM(a, b models.Position) float64 {
	const earthRadius = 6371.0

	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadius * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
