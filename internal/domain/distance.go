package domain

import (
	"math"
	"sort"
)

const earthRadiusKm = 6371.0

// HaversineKm computes the great-circle distance in kilometers between
// two WGS84 points.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	rLat1 := lat1 * math.Pi / 180
	rLat2 := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Asin(math.Sqrt(a))
}

// RankedSpot is a catalog spot annotated for one lookup: how far from
// the user and whether it is open at their local hour.
type RankedSpot struct {
	Spot
	DistanceKm float64 `json:"distance_km"`
	OpenNow    bool    `json:"open_now"`
}

// NearestSpots ranks spots by distance from (lat, lng) ascending and
// returns at most limit results. When openOnly is set, spots closed at
// the given hour are skipped before the cut.
func NearestSpots(spots []Spot, lat, lng float64, hour, limit int, openOnly bool) []RankedSpot {
	ranked := make([]RankedSpot, 0, len(spots))
	for _, s := range spots {
		open := s.OpenAt(hour)
		if openOnly && !open {
			continue
		}
		ranked = append(ranked, RankedSpot{
			Spot:       s,
			DistanceKm: HaversineKm(lat, lng, s.Lat, s.Lng),
			OpenNow:    open,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
