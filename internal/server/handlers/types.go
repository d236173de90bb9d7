package handlers

import (
	"context"
	"time"

	"github.com/metrowx/metro-weather/internal/geo"
	"github.com/metrowx/metro-weather/internal/progress"
	"github.com/metrowx/metro-weather/internal/weather"
)

// Engine is the slice of the aggregation engine the HTTP layer consumes.
type Engine interface {
	CurrentWeather(ctx context.Context, fix *geo.Coordinate, lang string) *progress.Future[*weather.Snapshot]
	ActiveWarnings(ctx context.Context, lang string) *progress.Future[weather.WarningsMap]
	TropicalCyclones(ctx context.Context) *progress.Future[[]weather.TropicalCycloneInfo]
	LunarDate(ctx context.Context, date time.Time) *progress.Future[*weather.LunarDate]
	RainfallMaps(ctx context.Context, lang string) *progress.Future[*weather.RainfallMaps]
	WeatherTips(ctx context.Context, lang string) *progress.Future[[]weather.Tip]
	Timezone() *time.Location
}

// WeatherRequest carries the optional location fix and language for a
// snapshot request. Lat and Lng must be given together or not at all.
type WeatherRequest struct {
	Lat  *float64 `form:"lat" json:"lat" validate:"omitempty,latitude"`
	Lng  *float64 `form:"lng" json:"lng" validate:"omitempty,longitude"`
	Lang string   `form:"lang" json:"lang" validate:"omitempty,oneof=en zh"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// RetryResponse tells the caller the aggregation failed upstream and should
// simply be retried. It never carries partial data.
type RetryResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	RetryAfter int    `json:"retryAfterSeconds"`
}

// HealthResponse is the health endpoint payload.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version,omitempty"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp,omitempty"`
}

// WarningEntry is one active hazard with its bulletin text. Text is empty
// when the hazard is active but no bulletin was published.
type WarningEntry struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Text string `json:"text,omitempty"`
}

// CycloneEntry mirrors weather.TropicalCycloneInfo on the wire.
type CycloneEntry struct {
	ID                int    `json:"id"`
	DisplayOrder      int    `json:"displayOrder"`
	NameEn            string `json:"nameEn"`
	NameZh            string `json:"nameZh"`
	TrackImageURL     string `json:"trackImageUrl,omitempty"`
	TrackZoomImageURL string `json:"trackZoomImageUrl,omitempty"`
}

// LunarResponse mirrors weather.LunarDate on the wire.
type LunarResponse struct {
	Year        string `json:"lunarYear"`
	Zodiac      string `json:"zodiac"`
	Date        string `json:"lunarDate"`
	Climatology string `json:"climatology,omitempty"`
}

// RainfallMapEntry is one probed hourly rainfall map image.
type RainfallMapEntry struct {
	Time string `json:"time"`
	URL  string `json:"url"`
}

// RainfallResponse mirrors weather.RainfallMaps on the wire.
type RainfallResponse struct {
	PastHour     []RainfallMapEntry `json:"pastHour"`
	Past24Hours  string             `json:"past24HoursUrl"`
	TodayURL     string             `json:"todayUrl"`
	YesterdayURL string             `json:"yesterdayUrl"`
}

// TipEntry is one special weather tip bulletin.
type TipEntry struct {
	Text      string `json:"text"`
	UpdatedAt string `json:"updatedAt"`
}

// PreferencesDoc is the wire form of the stored preferences. RefreshRate is
// milliseconds, matching the on-disk preference file.
type PreferencesDoc struct {
	Language    string       `json:"language" validate:"omitempty,oneof=en zh"`
	RefreshRate int64        `json:"refreshRate" validate:"omitempty,min=60000"`
	Location    *LocationDoc `json:"location,omitempty"`
}

// LocationDoc is a saved location on the wire: a label, or coordinates.
type LocationDoc struct {
	Label string   `json:"label,omitempty"`
	Lat   *float64 `json:"lat,omitempty" validate:"omitempty,latitude"`
	Lng   *float64 `json:"lng,omitempty" validate:"omitempty,longitude"`
}
