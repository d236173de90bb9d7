package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	coord Coordinate
	name  string
}

func (p point) Position() Coordinate {
	return p.coord
}

func TestHaversineSymmetry(t *testing.T) {
	a := Coordinate{Latitude: 22.3019444, Longitude: 114.1741666}
	b := Coordinate{Latitude: 22.4445, Longitude: 114.0298}

	assert.InDelta(t, Haversine(a, b), Haversine(b, a), 1e-9)
}

func TestHaversineZeroDistance(t *testing.T) {
	a := Coordinate{Latitude: 22.3019444, Longitude: 114.1741666}

	assert.InDelta(t, 0, Haversine(a, a), 1e-9)
}

func TestHaversineKnownDistance(t *testing.T) {
	// HK Observatory to Ta Kwu Ling is roughly 25km.
	a := Coordinate{Latitude: 22.3019444, Longitude: 114.1741666}
	b := Coordinate{Latitude: 22.5286, Longitude: 114.1567}

	d := Haversine(a, b)
	assert.Greater(t, d, 20.0)
	assert.Less(t, d, 30.0)
}

func TestNearestPicksMinimum(t *testing.T) {
	query := Coordinate{Latitude: 22.3, Longitude: 114.17}
	candidates := []point{
		{coord: Coordinate{Latitude: 25.0, Longitude: 121.5}, name: "far"},
		{coord: Coordinate{Latitude: 22.31, Longitude: 114.18}, name: "near"},
		{coord: Coordinate{Latitude: 22.5, Longitude: 114.0}, name: "mid"},
	}

	best, distance, err := Nearest(query, candidates)
	require.NoError(t, err)
	assert.Equal(t, "near", best.name)

	for _, c := range candidates {
		assert.LessOrEqual(t, distance, Haversine(query, c.coord))
	}
}

func TestNearestSingleCandidate(t *testing.T) {
	query := Coordinate{Latitude: 0, Longitude: 0}
	only := point{coord: Coordinate{Latitude: 80, Longitude: 170}, name: "only"}

	best, _, err := Nearest(query, []point{only})
	require.NoError(t, err)
	assert.Equal(t, "only", best.name)
}

func TestNearestTieBreaksByOrder(t *testing.T) {
	query := Coordinate{Latitude: 22.3, Longitude: 114.17}
	same := Coordinate{Latitude: 22.4, Longitude: 114.2}
	candidates := []point{
		{coord: same, name: "first"},
		{coord: same, name: "second"},
	}

	best, _, err := Nearest(query, candidates)
	require.NoError(t, err)
	assert.Equal(t, "first", best.name)
}

func TestNearestEmptySet(t *testing.T) {
	_, _, err := Nearest(Coordinate{}, []point{})
	assert.ErrorIs(t, err, ErrEmptyStationSet)
}

func TestHaversineNeverNegative(t *testing.T) {
	coords := []Coordinate{
		{Latitude: -90, Longitude: -180},
		{Latitude: 90, Longitude: 180},
		{Latitude: 0, Longitude: 0},
		{Latitude: 22.3, Longitude: 114.17},
	}
	for _, a := range coords {
		for _, b := range coords {
			assert.False(t, math.Signbit(Haversine(a, b)) && Haversine(a, b) != 0)
		}
	}
}
