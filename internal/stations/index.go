// Package stations holds the immutable monitoring-station reference tables.
// The tables ship with the binary and are decoded exactly once per process;
// without them there is no meaningful aggregation, so a malformed table is
// fatal at startup.
package stations

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/metrowx/metro-weather/internal/geo"
)

// ErrReferenceData indicates a bundled reference table is malformed or is
// missing its expected array field.
var ErrReferenceData = errors.New("stations: malformed reference data")

//go:embed data/*.json
var referenceData embed.FS

// Category tags a station table.
type Category int

const (
	Temperature Category = iota
	Humidity
	Wind
)

func (c Category) String() string {
	switch c {
	case Temperature:
		return "temperature"
	case Humidity:
		return "humidity"
	case Wind:
		return "wind"
	default:
		return "unknown"
	}
}

// Station is one monitoring point with localized names.
type Station struct {
	NameEn string
	NameZh string
	Coord  geo.Coordinate
}

// Position implements geo.Locatable.
func (s Station) Position() geo.Coordinate {
	return s.Coord
}

// GridPoint is one forecast-grid reference coordinate. The grid table is
// independent of the surface station tables.
type GridPoint struct {
	ID    string
	Coord geo.Coordinate
}

// Position implements geo.Locatable.
func (g GridPoint) Position() geo.Coordinate {
	return g.Coord
}

// Index is the loaded, immutable station reference data.
type Index struct {
	tables map[Category][]Station
	grid   []GridPoint
}

var (
	loadOnce  sync.Once
	loadedIdx *Index
	loadErr   error
)

// Load decodes the bundled tables. The first call does the work; every later
// call returns the same Index (or the same error), so concurrent first
// callers all observe exactly one decode.
func Load() (*Index, error) {
	loadOnce.Do(func() {
		loadedIdx, loadErr = load()
	})
	return loadedIdx, loadErr
}

func load() (*Index, error) {
	idx := &Index{tables: make(map[Category][]Station, 3)}

	files := map[Category]string{
		Temperature: "data/temperature_stations.json",
		Humidity:    "data/humidity_stations.json",
		Wind:        "data/wind_stations.json",
	}
	for category, file := range files {
		raw, err := referenceData.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrReferenceData, file, err)
		}
		table, err := ParseStationTable(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		idx.tables[category] = table
	}

	raw, err := referenceData.ReadFile("data/forecast_grid.json")
	if err != nil {
		return nil, fmt.Errorf("%w: forecast_grid.json: %v", ErrReferenceData, err)
	}
	idx.grid, err = ParseGridTable(raw)
	if err != nil {
		return nil, fmt.Errorf("forecast_grid.json: %w", err)
	}

	return idx, nil
}

// StationsFor returns the stations of the given category in table order.
// Callers must not mutate the returned slice.
func (i *Index) StationsFor(category Category) []Station {
	return i.tables[category]
}

// ForecastGrid returns the forecast-grid points in stable ID order.
func (i *Index) ForecastGrid() []GridPoint {
	return i.grid
}

// stationTable mirrors the upstream resource shape: a GeoJSON-like document
// whose features carry [longitude, latitude] coordinate pairs.
type stationTable struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			NameEn string `json:"AutomaticWeatherStation_en"`
			NameZh string `json:"AutomaticWeatherStation_uc"`
		} `json:"properties"`
	} `json:"features"`
}

// ParseStationTable decodes one station reference document.
func ParseStationTable(raw []byte) ([]Station, error) {
	var table stationTable
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReferenceData, err)
	}
	if table.Features == nil {
		return nil, fmt.Errorf("%w: missing features array", ErrReferenceData)
	}
	out := make([]Station, 0, len(table.Features))
	for _, f := range table.Features {
		if len(f.Geometry.Coordinates) < 2 {
			return nil, fmt.Errorf("%w: station %q missing coordinates", ErrReferenceData, f.Properties.NameEn)
		}
		out = append(out, Station{
			NameEn: f.Properties.NameEn,
			NameZh: f.Properties.NameZh,
			Coord: geo.Coordinate{
				Latitude:  f.Geometry.Coordinates[1],
				Longitude: f.Geometry.Coordinates[0],
			},
		})
	}
	return out, nil
}

// ParseGridTable decodes the forecast-grid document, whose entries are
// [latitude, longitude] pairs keyed by grid ID.
func ParseGridTable(raw []byte) ([]GridPoint, error) {
	var table struct {
		Stations map[string][]float64 `json:"stations"`
	}
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReferenceData, err)
	}
	if table.Stations == nil {
		return nil, fmt.Errorf("%w: missing stations object", ErrReferenceData)
	}
	out := make([]GridPoint, 0, len(table.Stations))
	for id, pos := range table.Stations {
		if len(pos) < 2 {
			return nil, fmt.Errorf("%w: grid point %q missing coordinates", ErrReferenceData, id)
		}
		out = append(out, GridPoint{
			ID:    id,
			Coord: geo.Coordinate{Latitude: pos[0], Longitude: pos[1]},
		})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}
