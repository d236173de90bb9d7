package aggregator

import (
	"fmt"
	"time"

	"github.com/metrowx/metro-weather/internal/config"
	"github.com/metrowx/metro-weather/internal/stations"
	"github.com/metrowx/metro-weather/internal/weather"
)

// langTable resolves every language-dependent lookup once per request, so the
// parsing code never re-derives the language flag. The upstream CSV dumps
// localize their column headers, not just their values.
type langTable struct {
	Tag string

	FeedLang       string // query parameter on the data host
	StationProp    string // station-name property suffix in the reference tables
	CSVSuffix      string // regional CSV resource suffix
	TyphoonSuffix  string // special typhoon bulletin resource suffix
	RainfallSuffix string // rainfall map image suffix

	StationHeader       string
	TemperatureHeader   string
	HumidityHeader      string
	WindDirectionHeader string
	WindSpeedHeader     string
	GustHeader          string

	ObservatoryRow  string
	FallbackWindRow string

	DefaultLocality string
}

// Calm is reported in either language regardless of the requested one.
var calmTokens = []string{"Calm", "無風"}

func isCalm(direction string) bool {
	for _, token := range calmTokens {
		if direction == token {
			return true
		}
	}
	return false
}

func tableFor(lang string, cfg config.EngineConfig) langTable {
	if lang == "en" {
		return langTable{
			Tag:                 "en",
			FeedLang:            "en",
			StationProp:         "en",
			CSVSuffix:           "",
			TyphoonSuffix:       "",
			RainfallSuffix:      "e",
			StationHeader:       "Automatic Weather Station",
			TemperatureHeader:   "Air Temperature(degree Celsius)",
			HumidityHeader:      "Relative Humidity(percent)",
			WindDirectionHeader: "10-Minute Mean Wind Direction(Compass points)",
			WindSpeedHeader:     "10-Minute Mean Speed(km/hour)",
			GustHeader:          "10-Minute Maximum Gust(km/hour)",
			ObservatoryRow:      "HK Observatory",
			FallbackWindRow:     "Star Ferry",
			DefaultLocality:     cfg.DefaultLocalityEn,
		}
	}
	return langTable{
		Tag:                 "zh",
		FeedLang:            "tc",
		StationProp:         "uc",
		CSVSuffix:           "_uc",
		TyphoonSuffix:       "_tc",
		RainfallSuffix:      "c",
		StationHeader:       "自動氣象站",
		TemperatureHeader:   "氣溫（攝氏）",
		HumidityHeader:      "相對濕度（百分比）",
		WindDirectionHeader: "十分鐘平均風向（方位點）",
		WindSpeedHeader:     "十分鐘平均風速（公里/小時）",
		GustHeader:          "十分鐘最高陣風風速（公里/小時）",
		ObservatoryRow:      "天文台",
		FallbackWindRow:     "天星碼頭",
		DefaultLocality:     cfg.DefaultLocalityZh,
	}
}

// StationName returns the station name in the table's language.
func (t langTable) StationName(s stations.Station) string {
	if t.Tag == "en" {
		return s.NameEn
	}
	return s.NameZh
}

// WarningName returns the canonical hazard name in the table's language.
func (t langTable) WarningName(w weather.WarningType) string {
	if t.Tag == "en" {
		return w.NameEn()
	}
	return w.NameZh()
}

// IssuedLine renders the localized "issued by the Observatory" attribution
// appended to warning bulletins.
func (t langTable) IssuedLine(issued time.Time) string {
	if t.Tag == "en" {
		return "Dispatched by the Hong Kong Observatory at " + issued.Format("15:04 HKT on 02.01.2006")
	}
	return fmt.Sprintf("以上天氣稿由天文台於%s發出", issued.Format("2006年01月02日15時04分"))
}
