// Package weather holds the immutable value types assembled by the
// aggregation engine, the semantic icon and hazard catalogs, and the snapshot
// codec. Nothing here performs I/O; entities are built once per aggregation
// run and never mutated after publication.
package weather

import (
	"fmt"
	"strings"
	"time"
)

// RangeSign qualifies an otherwise-numeric forecast percentage.
type RangeSign int

const (
	RangeNone RangeSign = iota
	RangeGreaterThan
	RangeLessThan
)

// Symbol returns the marker as it appears in upstream text.
func (r RangeSign) Symbol() string {
	switch r {
	case RangeGreaterThan:
		return "≥"
	case RangeLessThan:
		return "<"
	default:
		return ""
	}
}

func (r RangeSign) String() string {
	switch r {
	case RangeGreaterThan:
		return "greater-than"
	case RangeLessThan:
		return "less-than"
	default:
		return "none"
	}
}

// RangeSignFromString is the inverse of String. Unrecognized input maps to
// RangeNone.
func RangeSignFromString(s string) RangeSign {
	switch s {
	case "greater-than":
		return RangeGreaterThan
	case "less-than":
		return RangeLessThan
	default:
		return RangeNone
	}
}

// ParsePercentage extracts a percentage value and its qualifier from upstream
// text such as "< 10%", "≥ 80%" or "50%". The marker, when present, is
// stripped before numeric parsing.
func ParsePercentage(s string) (float64, RangeSign, error) {
	sign := RangeNone
	trimmed := strings.TrimSpace(s)
	for _, candidate := range []RangeSign{RangeGreaterThan, RangeLessThan} {
		if strings.Contains(trimmed, candidate.Symbol()) {
			sign = candidate
			trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, candidate.Symbol()))
			break
		}
	}
	trimmed = strings.TrimSuffix(trimmed, "%")
	var value float64
	if _, err := fmt.Sscanf(strings.TrimSpace(trimmed), "%f", &value); err != nil {
		return 0, RangeNone, fmt.Errorf("weather: unparsable percentage %q", s)
	}
	return value, sign, nil
}

// TimeOfDay is a wall-clock time. Optional occurrences (moon events on days
// without one) are represented as *TimeOfDay nil, never as midnight.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay parses "HH:mm".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var t TimeOfDay
	if _, err := fmt.Sscanf(s, "%d:%d", &t.Hour, &t.Minute); err != nil {
		return TimeOfDay{}, fmt.Errorf("weather: unparsable time of day %q", s)
	}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return TimeOfDay{}, fmt.Errorf("weather: time of day out of range %q", s)
	}
	return t, nil
}

// ForecastDay is one entry of the multi-day forecast.
type ForecastDay struct {
	Date                time.Time
	HighestTemperature  float64
	LowestTemperature   float64
	MaxRelativeHumidity float64
	MinRelativeHumidity float64
	ChanceOfRain        float64
	ChanceOfRainSign    RangeSign
	Icon                Icon
	Wind                string
	Weather             string
}

// HourlyForecast is one entry of the hour-by-hour forecast. Icon is always
// set: hours the upstream leaves blank inherit the nearest earlier icon.
type HourlyForecast struct {
	Time          time.Time
	Temperature   float64
	Humidity      float64
	WindDirection float64
	WindSpeed     float64
	Icon          Icon
}

// LocalForecast is the free-text local forecast bulletin.
type LocalForecast struct {
	GeneralSituation  string
	TCInfo            string
	FireDangerWarning string
	ForecastPeriod    string
	ForecastDesc      string
	Outlook           string
	UpdateTime        time.Time
}

// HeatStressLevel is the severity of a heat-stress-at-work advisory.
type HeatStressLevel string

const (
	HeatStressAmber HeatStressLevel = "AMBER"
	HeatStressRed   HeatStressLevel = "RED"
	HeatStressBlack HeatStressLevel = "BLACK"
)

// HeatStressAtWork is the heat-stress-at-work advisory block. A nil pointer
// on the snapshot means no advisory is active.
type HeatStressAtWork struct {
	Description   string
	Level         HeatStressLevel
	Action        string
	EffectiveTime time.Time
	IssueTime     time.Time
}

// DisplayableSection is one independently-togglable text section of a special
// typhoon bulletin.
type DisplayableSection struct {
	Display bool
	Text    string
}

// SpecialTyphoonBulletin is surfaced only when the upstream display flag is
// set. SignalType is empty when the signal code was unrecognized.
type SpecialTyphoonBulletin struct {
	SignalType     WarningType
	Considerations DisplayableSection
	Info           DisplayableSection
	WindsInfo      DisplayableSection
	WindsHighlight DisplayableSection
	TideInfo       DisplayableSection
}

// HasAnyDisplay reports whether any section of the bulletin is displayable.
func (b *SpecialTyphoonBulletin) HasAnyDisplay() bool {
	return b.Considerations.Display || b.Info.Display || b.WindsInfo.Display ||
		b.WindsHighlight.Display || b.TideInfo.Display
}

// WarningsMap maps active hazard types to their bulletin text. A key with an
// empty string means the hazard is active but no detail text was available;
// an absent key means the hazard is not active.
type WarningsMap map[WarningType]string

// LunarDate merges the lunar-calendar and solar-term feeds. Climatology is
// empty when the supplementary call yielded nothing.
type LunarDate struct {
	Year        string
	Zodiac      string
	Date        string
	Climatology string
}

// TropicalCycloneInfo is one entry of the cyclone track listing. Image URLs
// are empty when the corresponding track image is not published.
type TropicalCycloneInfo struct {
	ID                int
	DisplayOrder      int
	NameZh            string
	NameEn            string
	TrackImageURL     string
	TrackZoomImageURL string
}

// RainfallMapEntry is one probed hourly rainfall map.
type RainfallMapEntry struct {
	Time time.Time
	URL  string
}

// RainfallMaps collects the rainfall map URLs that answered an existence
// probe, in chronological order.
type RainfallMaps struct {
	PastHour     []RainfallMapEntry
	Past24Hours  string
	TodayURL     string
	YesterdayURL string
}

// Tip is one weather tip bulletin.
type Tip struct {
	Text      string
	UpdatedAt time.Time
}

// Snapshot is one immutable, fully-assembled weather result. Field groups
// that can legitimately be absent use pointers; everything else is required
// for a snapshot to exist at all.
type Snapshot struct {
	Date                time.Time
	HighestTemperature  float64
	LowestTemperature   float64
	MaxRelativeHumidity float64
	MinRelativeHumidity float64
	ChanceOfRain        float64
	ChanceOfRainSign    RangeSign
	Icon                Icon

	StationName        string
	NextIcon           *Icon
	CurrentTemperature float64
	CurrentHumidity    float64
	UVIndex            float64

	WindDirection string
	WindSpeed     float64
	Gust          float64

	Sunrise    TimeOfDay
	SunTransit TimeOfDay
	Sunset     TimeOfDay
	Moonrise    *TimeOfDay
	MoonTransit *TimeOfDay
	Moonset     *TimeOfDay

	LocalForecast            LocalForecast
	ForecastGeneralSituation string
	Forecast                 []ForecastDay
	Hourly                   []HourlyForecast

	HeatStress      *HeatStressAtWork
	TyphoonBulletin *SpecialTyphoonBulletin
}
