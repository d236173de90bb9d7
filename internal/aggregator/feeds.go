package aggregator

import (
	"encoding/json"
	"errors"
)

// jsonDecodeLoose decodes a raw fragment that may legitimately be a different
// JSON type (the uvindex block is an object when present and "" otherwise).
func jsonDecodeLoose(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return errors.New("empty fragment")
	}
	return json.Unmarshal(raw, out)
}

// Typed shapes of the upstream payloads, decoded once at the fetch boundary.
// Field names mirror the feeds; only the fields the engine reads are declared.

type valueUnit struct {
	Value float64 `json:"value"`
}

type currentConditionsFeed struct {
	UVIndex json.RawMessage `json:"uvindex"` // object when present, "" otherwise
	Icon    []int           `json:"icon"`
}

type uvIndexBlock struct {
	Data []struct {
		Value float64 `json:"value"`
	} `json:"data"`
}

type gridForecastFeed struct {
	DailyForecast []struct {
		ForecastDate         string `json:"ForecastDate"`
		ForecastChanceOfRain string `json:"ForecastChanceOfRain"`
	} `json:"DailyForecast"`
	HourlyWeatherForecast []struct {
		ForecastHour             string   `json:"ForecastHour"`
		ForecastTemperature      *float64 `json:"ForecastTemperature"`
		ForecastRelativeHumidity *float64 `json:"ForecastRelativeHumidity"`
		ForecastWindDirection    *float64 `json:"ForecastWindDirection"`
		ForecastWindSpeed        *float64 `json:"ForecastWindSpeed"`
		ForecastWeather          *int     `json:"ForecastWeather"`
	} `json:"HourlyWeatherForecast"`
}

type multiDayForecastFeed struct {
	GeneralSituation string `json:"generalSituation"`
	WeatherForecast  []struct {
		ForecastDate    string    `json:"forecastDate"`
		ForecastMaxtemp valueUnit `json:"forecastMaxtemp"`
		ForecastMintemp valueUnit `json:"forecastMintemp"`
		ForecastMaxrh   valueUnit `json:"forecastMaxrh"`
		ForecastMinrh   valueUnit `json:"forecastMinrh"`
		ForecastIcon    int       `json:"ForecastIcon"`
		ForecastWind    string    `json:"forecastWind"`
		ForecastWeather string    `json:"forecastWeather"`
	} `json:"weatherForecast"`
}

type localForecastFeed struct {
	GeneralSituation  string `json:"generalSituation"`
	TCInfo            string `json:"tcInfo"`
	FireDangerWarning string `json:"fireDangerWarning"`
	ForecastPeriod    string `json:"forecastPeriod"`
	ForecastDesc      string `json:"forecastDesc"`
	Outlook           string `json:"outlook"`
	UpdateTime        string `json:"updateTime"`
}

type heatStressFeed struct {
	Advisory *struct {
		Desc          string `json:"desc"`
		WarningLevel  string `json:"warningLevel"`
		ActionCode    string `json:"actionCode"`
		EffectiveTime string `json:"effectiveTime"`
		IssueTime     string `json:"issueTime"`
	} `json:"hsww"`
}

type displayableFeed struct {
	IsDisplay bool     `json:"isDisplay"`
	Value     []string `json:"value"`
}

type typhoonBulletinFeed struct {
	WTCB *struct {
		IsTCPart2Display bool   `json:"isTCPart2Display"`
		SignalType       string `json:"signalType"`
		Part2Content     struct {
			Consideration  *displayableFeed `json:"Consideration"`
			Info           *displayableFeed `json:"Info"`
			WindsInfo      *displayableFeed `json:"WindsInfo"`
			WindsHighlight *displayableFeed `json:"WindsHighlight"`
			TideInfo       *displayableFeed `json:"TideInfo"`
		} `json:"part2Content"`
	} `json:"WTCB"`
}

type warningSummaryEntry struct {
	Code       string `json:"code"`
	ActionCode string `json:"actionCode"`
}

type warningDetailsFeed struct {
	Details []struct {
		Subtype              string   `json:"subtype"`
		WarningStatementCode string   `json:"warningStatementCode"`
		Contents             []string `json:"contents"`
		UpdateTime           string   `json:"updateTime"`
	} `json:"details"`
}

type cycloneIndexFeed struct {
	TC []struct {
		ID           int    `json:"tcId"`
		DisplayOrder int    `json:"displayOrder"`
		NameZh       string `json:"tcName"`
		NameEn       string `json:"enName"`
	} `json:"TC"`
}

type lunarDateFeed struct {
	LunarYear string `json:"LunarYear"`
	LunarDate string `json:"LunarDate"`
}

type solarTermFeed struct {
	SolarTerm string `json:"solar_term"`
}

type tipsFeed struct {
	Tips []struct {
		Desc       string `json:"desc"`
		UpdateTime string `json:"updateTime"`
	} `json:"swt"`
}
