package weather

import (
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot wire format: a flat JSON document used for caching and transport.
// Dates are dd-MM-yyyy, date-times dd-MM-yyyy.HH:mm, times HH:mm. Absent
// optional time fields serialize as the empty string, never as an omitted key
// or a null literal; optional blocks (next icon, heat stress, typhoon
// bulletin) use omitted keys.
const (
	dateLayout     = "02-01-2006"
	dateTimeLayout = "02-01-2006.15:04"
)

type snapshotDoc struct {
	Date                string  `json:"date"`
	HighestTemperature  float64 `json:"highestTemperature"`
	LowestTemperature   float64 `json:"lowestTemperature"`
	MaxRelativeHumidity float64 `json:"maxRelativeHumidity"`
	MinRelativeHumidity float64 `json:"minRelativeHumidity"`
	ChanceOfRain        float64 `json:"chanceOfRain"`
	ChanceOfRainSign    string  `json:"chanceOfRainSign"`
	WeatherIcon         string  `json:"weatherIcon"`

	WeatherStation     string  `json:"weatherStation"`
	NextWeatherIcon    string  `json:"nextWeatherIcon,omitempty"`
	CurrentTemperature float64 `json:"currentTemperature"`
	CurrentHumidity    float64 `json:"currentHumidity"`
	UVIndex            float64 `json:"uvIndex"`

	WindDirection string  `json:"windDirection"`
	WindSpeed     float64 `json:"windSpeed"`
	Gust          float64 `json:"gust"`

	SunriseTime     string `json:"sunriseTime"`
	SunTransitTime  string `json:"sunTransitTime"`
	SunsetTime      string `json:"sunsetTime"`
	MoonriseTime    string `json:"moonriseTime"`
	MoonTransitTime string `json:"moonTransitTime"`
	MoonsetTime     string `json:"moonsetTime"`

	LocalForecastInfo        localForecastDoc  `json:"localForecastInfo"`
	ForecastGeneralSituation string            `json:"forecastGeneralSituation"`
	ForecastInfo             []forecastDayDoc  `json:"forecastInfo"`
	HourlyWeatherInfo        []hourlyDoc       `json:"hourlyWeatherInfo"`
	HeatStressAtWorkInfo     *heatStressDoc    `json:"heatStressAtWorkInfo,omitempty"`
	SpecialTyphoonInfo       *typhoonDoc       `json:"specialTyphoonInfo,omitempty"`
}

type forecastDayDoc struct {
	Date                string  `json:"date"`
	HighestTemperature  float64 `json:"highestTemperature"`
	LowestTemperature   float64 `json:"lowestTemperature"`
	MaxRelativeHumidity float64 `json:"maxRelativeHumidity"`
	MinRelativeHumidity float64 `json:"minRelativeHumidity"`
	ChanceOfRain        float64 `json:"chanceOfRain"`
	ChanceOfRainSign    string  `json:"chanceOfRainSign"`
	WeatherIcon         string  `json:"weatherIcon"`
	ForecastWind        string  `json:"forecastWind"`
	ForecastWeather     string  `json:"forecastWeather"`
}

type hourlyDoc struct {
	Time          string  `json:"time"`
	Temperature   float64 `json:"temperature"`
	Humidity      float64 `json:"humidity"`
	WindDirection float64 `json:"windDirection"`
	WindSpeed     float64 `json:"windSpeed"`
	WeatherIcon   string  `json:"weatherIcon"`
}

type localForecastDoc struct {
	GeneralSituation  string `json:"generalSituation"`
	TCInfo            string `json:"tcInfo"`
	FireDangerWarning string `json:"fireDangerWarning"`
	ForecastPeriod    string `json:"forecastPeriod"`
	ForecastDesc      string `json:"forecastDesc"`
	Outlook           string `json:"outlook"`
	UpdateTime        string `json:"updateTime"`
}

type heatStressDoc struct {
	Description   string `json:"description"`
	WarningsLevel string `json:"warningsLevel"`
	Action        string `json:"action"`
	EffectiveTime string `json:"effectiveTime"`
	IssueTime     string `json:"issueTime"`
}

type typhoonDoc struct {
	SignalType     string         `json:"signalType"`
	Considerations displayableDoc `json:"considerations"`
	Info           displayableDoc `json:"info"`
	WindsInfo      displayableDoc `json:"windsInfo"`
	WindsHighlight displayableDoc `json:"windsHighlight"`
	TideInfo       displayableDoc `json:"tideInfo"`
}

type displayableDoc struct {
	IsDisplay bool   `json:"isDisplay"`
	Info      string `json:"info"`
}

func formatOptionalTime(t *TimeOfDay) string {
	if t == nil {
		return ""
	}
	return t.String()
}

func parseOptionalTime(s string) (*TimeOfDay, error) {
	if s == "" {
		return nil, nil
	}
	t, err := ParseTimeOfDay(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// EncodeSnapshot serializes s into the flat wire document.
func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	doc := snapshotDoc{
		Date:                s.Date.Format(dateLayout),
		HighestTemperature:  s.HighestTemperature,
		LowestTemperature:   s.LowestTemperature,
		MaxRelativeHumidity: s.MaxRelativeHumidity,
		MinRelativeHumidity: s.MinRelativeHumidity,
		ChanceOfRain:        s.ChanceOfRain,
		ChanceOfRainSign:    s.ChanceOfRainSign.String(),
		WeatherIcon:         s.Icon.Name(),

		WeatherStation:     s.StationName,
		CurrentTemperature: s.CurrentTemperature,
		CurrentHumidity:    s.CurrentHumidity,
		UVIndex:            s.UVIndex,

		WindDirection: s.WindDirection,
		WindSpeed:     s.WindSpeed,
		Gust:          s.Gust,

		SunriseTime:     s.Sunrise.String(),
		SunTransitTime:  s.SunTransit.String(),
		SunsetTime:      s.Sunset.String(),
		MoonriseTime:    formatOptionalTime(s.Moonrise),
		MoonTransitTime: formatOptionalTime(s.MoonTransit),
		MoonsetTime:     formatOptionalTime(s.Moonset),

		LocalForecastInfo: localForecastDoc{
			GeneralSituation:  s.LocalForecast.GeneralSituation,
			TCInfo:            s.LocalForecast.TCInfo,
			FireDangerWarning: s.LocalForecast.FireDangerWarning,
			ForecastPeriod:    s.LocalForecast.ForecastPeriod,
			ForecastDesc:      s.LocalForecast.ForecastDesc,
			Outlook:           s.LocalForecast.Outlook,
			UpdateTime:        s.LocalForecast.UpdateTime.Format(dateTimeLayout),
		},
		ForecastGeneralSituation: s.ForecastGeneralSituation,
	}

	if s.NextIcon != nil {
		doc.NextWeatherIcon = s.NextIcon.Name()
	}

	doc.ForecastInfo = make([]forecastDayDoc, 0, len(s.Forecast))
	for _, day := range s.Forecast {
		doc.ForecastInfo = append(doc.ForecastInfo, forecastDayDoc{
			Date:                day.Date.Format(dateLayout),
			HighestTemperature:  day.HighestTemperature,
			LowestTemperature:   day.LowestTemperature,
			MaxRelativeHumidity: day.MaxRelativeHumidity,
			MinRelativeHumidity: day.MinRelativeHumidity,
			ChanceOfRain:        day.ChanceOfRain,
			ChanceOfRainSign:    day.ChanceOfRainSign.String(),
			WeatherIcon:         day.Icon.Name(),
			ForecastWind:        day.Wind,
			ForecastWeather:     day.Weather,
		})
	}

	doc.HourlyWeatherInfo = make([]hourlyDoc, 0, len(s.Hourly))
	for _, hour := range s.Hourly {
		doc.HourlyWeatherInfo = append(doc.HourlyWeatherInfo, hourlyDoc{
			Time:          hour.Time.Format(dateTimeLayout),
			Temperature:   hour.Temperature,
			Humidity:      hour.Humidity,
			WindDirection: hour.WindDirection,
			WindSpeed:     hour.WindSpeed,
			WeatherIcon:   hour.Icon.Name(),
		})
	}

	if s.HeatStress != nil {
		doc.HeatStressAtWorkInfo = &heatStressDoc{
			Description:   s.HeatStress.Description,
			WarningsLevel: string(s.HeatStress.Level),
			Action:        s.HeatStress.Action,
			EffectiveTime: s.HeatStress.EffectiveTime.Format(dateTimeLayout),
			IssueTime:     s.HeatStress.IssueTime.Format(dateTimeLayout),
		}
	}

	if s.TyphoonBulletin != nil {
		doc.SpecialTyphoonInfo = &typhoonDoc{
			SignalType:     string(s.TyphoonBulletin.SignalType),
			Considerations: displayableDoc{s.TyphoonBulletin.Considerations.Display, s.TyphoonBulletin.Considerations.Text},
			Info:           displayableDoc{s.TyphoonBulletin.Info.Display, s.TyphoonBulletin.Info.Text},
			WindsInfo:      displayableDoc{s.TyphoonBulletin.WindsInfo.Display, s.TyphoonBulletin.WindsInfo.Text},
			WindsHighlight: displayableDoc{s.TyphoonBulletin.WindsHighlight.Display, s.TyphoonBulletin.WindsHighlight.Text},
			TideInfo:       displayableDoc{s.TyphoonBulletin.TideInfo.Display, s.TyphoonBulletin.TideInfo.Text},
		}
	}

	return json.Marshal(doc)
}

// DecodeSnapshot is the inverse of EncodeSnapshot.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("weather: decode snapshot: %w", err)
	}

	date, err := time.Parse(dateLayout, doc.Date)
	if err != nil {
		return nil, fmt.Errorf("weather: decode snapshot date: %w", err)
	}

	icon, ok := IconByName(doc.WeatherIcon)
	if !ok {
		return nil, fmt.Errorf("weather: unknown icon %q", doc.WeatherIcon)
	}

	s := &Snapshot{
		Date:                date,
		HighestTemperature:  doc.HighestTemperature,
		LowestTemperature:   doc.LowestTemperature,
		MaxRelativeHumidity: doc.MaxRelativeHumidity,
		MinRelativeHumidity: doc.MinRelativeHumidity,
		ChanceOfRain:        doc.ChanceOfRain,
		ChanceOfRainSign:    RangeSignFromString(doc.ChanceOfRainSign),
		Icon:                icon,

		StationName:        doc.WeatherStation,
		CurrentTemperature: doc.CurrentTemperature,
		CurrentHumidity:    doc.CurrentHumidity,
		UVIndex:            doc.UVIndex,

		WindDirection: doc.WindDirection,
		WindSpeed:     doc.WindSpeed,
		Gust:          doc.Gust,

		ForecastGeneralSituation: doc.ForecastGeneralSituation,
	}

	if doc.NextWeatherIcon != "" {
		next, ok := IconByName(doc.NextWeatherIcon)
		if !ok {
			return nil, fmt.Errorf("weather: unknown icon %q", doc.NextWeatherIcon)
		}
		s.NextIcon = &next
	}

	if s.Sunrise, err = ParseTimeOfDay(doc.SunriseTime); err != nil {
		return nil, err
	}
	if s.SunTransit, err = ParseTimeOfDay(doc.SunTransitTime); err != nil {
		return nil, err
	}
	if s.Sunset, err = ParseTimeOfDay(doc.SunsetTime); err != nil {
		return nil, err
	}
	if s.Moonrise, err = parseOptionalTime(doc.MoonriseTime); err != nil {
		return nil, err
	}
	if s.MoonTransit, err = parseOptionalTime(doc.MoonTransitTime); err != nil {
		return nil, err
	}
	if s.Moonset, err = parseOptionalTime(doc.MoonsetTime); err != nil {
		return nil, err
	}

	updateTime, err := time.Parse(dateTimeLayout, doc.LocalForecastInfo.UpdateTime)
	if err != nil {
		return nil, fmt.Errorf("weather: decode local forecast update time: %w", err)
	}
	s.LocalForecast = LocalForecast{
		GeneralSituation:  doc.LocalForecastInfo.GeneralSituation,
		TCInfo:            doc.LocalForecastInfo.TCInfo,
		FireDangerWarning: doc.LocalForecastInfo.FireDangerWarning,
		ForecastPeriod:    doc.LocalForecastInfo.ForecastPeriod,
		ForecastDesc:      doc.LocalForecastInfo.ForecastDesc,
		Outlook:           doc.LocalForecastInfo.Outlook,
		UpdateTime:        updateTime,
	}

	if len(doc.ForecastInfo) > 0 {
		s.Forecast = make([]ForecastDay, 0, len(doc.ForecastInfo))
	}
	for _, day := range doc.ForecastInfo {
		dayDate, err := time.Parse(dateLayout, day.Date)
		if err != nil {
			return nil, fmt.Errorf("weather: decode forecast date: %w", err)
		}
		dayIcon, ok := IconByName(day.WeatherIcon)
		if !ok {
			return nil, fmt.Errorf("weather: unknown icon %q", day.WeatherIcon)
		}
		s.Forecast = append(s.Forecast, ForecastDay{
			Date:                dayDate,
			HighestTemperature:  day.HighestTemperature,
			LowestTemperature:   day.LowestTemperature,
			MaxRelativeHumidity: day.MaxRelativeHumidity,
			MinRelativeHumidity: day.MinRelativeHumidity,
			ChanceOfRain:        day.ChanceOfRain,
			ChanceOfRainSign:    RangeSignFromString(day.ChanceOfRainSign),
			Icon:                dayIcon,
			Wind:                day.ForecastWind,
			Weather:             day.ForecastWeather,
		})
	}

	if len(doc.HourlyWeatherInfo) > 0 {
		s.Hourly = make([]HourlyForecast, 0, len(doc.HourlyWeatherInfo))
	}
	for _, hour := range doc.HourlyWeatherInfo {
		hourTime, err := time.Parse(dateTimeLayout, hour.Time)
		if err != nil {
			return nil, fmt.Errorf("weather: decode hourly time: %w", err)
		}
		hourIcon, ok := IconByName(hour.WeatherIcon)
		if !ok {
			return nil, fmt.Errorf("weather: unknown icon %q", hour.WeatherIcon)
		}
		s.Hourly = append(s.Hourly, HourlyForecast{
			Time:          hourTime,
			Temperature:   hour.Temperature,
			Humidity:      hour.Humidity,
			WindDirection: hour.WindDirection,
			WindSpeed:     hour.WindSpeed,
			Icon:          hourIcon,
		})
	}

	if doc.HeatStressAtWorkInfo != nil {
		effective, err := time.Parse(dateTimeLayout, doc.HeatStressAtWorkInfo.EffectiveTime)
		if err != nil {
			return nil, fmt.Errorf("weather: decode heat stress effective time: %w", err)
		}
		issued, err := time.Parse(dateTimeLayout, doc.HeatStressAtWorkInfo.IssueTime)
		if err != nil {
			return nil, fmt.Errorf("weather: decode heat stress issue time: %w", err)
		}
		s.HeatStress = &HeatStressAtWork{
			Description:   doc.HeatStressAtWorkInfo.Description,
			Level:         HeatStressLevel(doc.HeatStressAtWorkInfo.WarningsLevel),
			Action:        doc.HeatStressAtWorkInfo.Action,
			EffectiveTime: effective,
			IssueTime:     issued,
		}
	}

	if doc.SpecialTyphoonInfo != nil {
		s.TyphoonBulletin = &SpecialTyphoonBulletin{
			SignalType:     WarningType(doc.SpecialTyphoonInfo.SignalType),
			Considerations: DisplayableSection{doc.SpecialTyphoonInfo.Considerations.IsDisplay, doc.SpecialTyphoonInfo.Considerations.Info},
			Info:           DisplayableSection{doc.SpecialTyphoonInfo.Info.IsDisplay, doc.SpecialTyphoonInfo.Info.Info},
			WindsInfo:      DisplayableSection{doc.SpecialTyphoonInfo.WindsInfo.IsDisplay, doc.SpecialTyphoonInfo.WindsInfo.Info},
			WindsHighlight: DisplayableSection{doc.SpecialTyphoonInfo.WindsHighlight.IsDisplay, doc.SpecialTyphoonInfo.WindsHighlight.Info},
			TideInfo:       DisplayableSection{doc.SpecialTyphoonInfo.TideInfo.IsDisplay, doc.SpecialTyphoonInfo.TideInfo.Info},
		}
	}

	return s, nil
}
