package geo

import (
	"errors"
	"math"
)

// ErrEmptyStationSet is returned when a nearest-station lookup is attempted
// against zero candidates. This indicates a reference-data or category-routing
// bug rather than an expected runtime condition.
var ErrEmptyStationSet = errors.New("geo: empty station set")

const earthRadiusKm = 6371.0

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Haversine returns the great-circle distance between a and b in kilometres.
func Haversine(a, b Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLon/2), 2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// Locatable is anything with a position, letting Nearest work across the
// different station categories without conversions at the call sites.
type Locatable interface {
	Position() Coordinate
}

// Nearest returns the candidate minimizing haversine distance to p, together
// with that distance in kilometres. Ties are broken by input order.
func Nearest[T Locatable](p Coordinate, candidates []T) (T, float64, error) {
	var best T
	if len(candidates) == 0 {
		return best, 0, ErrEmptyStationSet
	}

	bestDistance := math.MaxFloat64
	for _, c := range candidates {
		if d := Haversine(p, c.Position()); d < bestDistance {
			best = c
			bestDistance = d
		}
	}

	return best, bestDistance, nil
}
