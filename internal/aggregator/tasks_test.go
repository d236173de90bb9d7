package aggregator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metrowx/metro-weather/internal/weather"
)

func TestActiveWarningsMerge(t *testing.T) {
	client := newStubClient()
	client.responses["dataType=warnsum"] = `{
		"WHOT":{"code":"WHOT","actionCode":"ISSUE"},
		"WRAINA":{"code":"WRAINA","actionCode":"CANCEL"},
		"WTS":{"code":"WTS","actionCode":"EXTEND"}
	}`
	client.responses["dataType=warningInfo"] = `{"details":[
		{"warningStatementCode":"WHOT","contents":["Very Hot Weather Warning","Stay hydrated."],"updateTime":"2024-07-15T11:00:00+08:00"},
		{"warningStatementCode":"WTS","contents":["Thunderstorms are expected."],"updateTime":"2024-07-15T10:30:00+08:00"},
		{"warningStatementCode":"WCOLD","contents":["Not active, must be ignored."],"updateTime":"2024-07-15T10:00:00+08:00"}
	]}`
	e := newTestEngine(t, client)

	warnings, err := e.ActiveWarnings(context.Background(), "en").Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, warnings)

	require.Len(t, warnings, 2)
	assert.NotContains(t, warnings, weather.WarnRainAmber)
	assert.NotContains(t, warnings, weather.WarnColdWeather)

	// Detail already led with the canonical name, so no prefix is added.
	hot := warnings[weather.WarnVeryHotWeather]
	hotLines := strings.Split(hot, "\n")
	require.Len(t, hotLines, 3)
	assert.Equal(t, "Very Hot Weather Warning", hotLines[0])
	assert.Equal(t, "Stay hydrated.", hotLines[1])
	assert.Equal(t, "Dispatched by the Hong Kong Observatory at 11:00 HKT on 15.07.2024", hotLines[2])

	// Detail without the canonical name gets it prefixed.
	ts := warnings[weather.WarnThunderstorm]
	tsLines := strings.Split(ts, "\n")
	require.Len(t, tsLines, 3)
	assert.Equal(t, "Thunderstorm Warning", tsLines[0])
	assert.Equal(t, "Thunderstorms are expected.", tsLines[1])
}

func TestActiveWarningsSummaryOnlyKeyStaysActive(t *testing.T) {
	client := newStubClient()
	client.responses["dataType=warnsum"] = `{"WL":{"code":"WL","actionCode":"ISSUE"}}`
	client.fail["dataType=warningInfo"] = true
	e := newTestEngine(t, client)

	warnings, err := e.ActiveWarnings(context.Background(), "en").Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, warnings)

	text, active := warnings[weather.WarnLandslip]
	assert.True(t, active)
	assert.Empty(t, text)
}

func TestActiveWarningsSummaryFailureIsFatal(t *testing.T) {
	client := newStubClient()
	client.fail["dataType=warnsum"] = true
	e := newTestEngine(t, client)

	warnings, err := e.ActiveWarnings(context.Background(), "en").Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, warnings)
}

func TestTropicalCyclonesImageMembership(t *testing.T) {
	client := newStubClient()
	client.responses["tcFront.json"] = `{"TC":[
		{"tcId":5,"displayOrder":1,"tcName":"艾雲尼","enName":"Ewiniar"},
		{"tcId":7,"displayOrder":2,"tcName":"馬力斯","enName":"Maliksi"}
	]}`
	client.responses["png_list.myobs"] = "nwp_5.png\nzoom_7.png\n"
	e := newTestEngine(t, client)

	list, err := e.TropicalCyclones(context.Background()).Get(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "Ewiniar", list[0].NameEn)
	assert.Contains(t, list[0].TrackImageURL, "nwp_5.png")
	assert.Empty(t, list[0].TrackZoomImageURL)

	assert.Empty(t, list[1].TrackImageURL)
	assert.Contains(t, list[1].TrackZoomImageURL, "zoom_7.png")
}

func TestTropicalCyclonesMissingListingTolerated(t *testing.T) {
	client := newStubClient()
	client.responses["tcFront.json"] = `{"TC":[{"tcId":5,"displayOrder":1,"tcName":"艾雲尼","enName":"Ewiniar"}]}`
	client.fail["png_list.myobs"] = true
	e := newTestEngine(t, client)

	list, err := e.TropicalCyclones(context.Background()).Get(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].TrackImageURL)
}

func TestTropicalCyclonesIndexFailureIsFatal(t *testing.T) {
	client := newStubClient()
	client.fail["tcFront.json"] = true
	e := newTestEngine(t, client)

	list, err := e.TropicalCyclones(context.Background()).Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, list)
}

func TestLunarDateMergesSolarTerm(t *testing.T) {
	client := newStubClient()
	client.responses["lunar_date_uc.xml"] = `{"solar_term":"小暑"}`
	client.responses["lunardate.php"] = `{"LunarYear":"甲辰年，龍年","LunarDate":"六月初十"}`
	e := newTestEngine(t, client)

	date := time.Date(2024, 7, 15, 0, 0, 0, 0, e.tz)
	lunar, err := e.LunarDate(context.Background(), date).Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, lunar)

	assert.Equal(t, "甲辰", lunar.Year)
	assert.Equal(t, "龍年", lunar.Zodiac)
	assert.Equal(t, "六月初十", lunar.Date)
	assert.Equal(t, "小暑", lunar.Climatology)
}

func TestLunarDateSolarTermFailureTolerated(t *testing.T) {
	client := newStubClient()
	client.fail["lunar_date_uc.xml"] = true
	client.responses["lunardate.php"] = `{"LunarYear":"甲辰年，龍年","LunarDate":"六月初十"}`
	e := newTestEngine(t, client)

	lunar, err := e.LunarDate(context.Background(), time.Date(2024, 7, 15, 0, 0, 0, 0, e.tz)).Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, lunar)
	assert.Empty(t, lunar.Climatology)
}

func TestLunarDateSkipsSolarTermForOtherDays(t *testing.T) {
	client := newStubClient()
	client.responses["lunar_date_uc.xml"] = `{"solar_term":"小暑"}`
	client.responses["lunardate.php"] = `{"LunarYear":"甲辰年，龍年","LunarDate":"六月十一"}`
	e := newTestEngine(t, client)

	lunar, err := e.LunarDate(context.Background(), time.Date(2024, 7, 16, 0, 0, 0, 0, e.tz)).Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, lunar)
	assert.Empty(t, lunar.Climatology)
	assert.Equal(t, 0, client.callCount("lunar_date_uc.xml"))
}

func TestLunarDateRequiredCallFailureIsFatal(t *testing.T) {
	client := newStubClient()
	client.fail["lunardate.php"] = true
	e := newTestEngine(t, client)

	lunar, err := e.LunarDate(context.Background(), time.Date(2024, 7, 16, 0, 0, 0, 0, e.tz)).Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, lunar)
}

func TestRainfallMapsPartialSuccess(t *testing.T) {
	client := newStubClient()
	available := []string{"202407151445", "202407151400", "202407151300", "202407151200"}
	client.probeOK = func(url string) bool {
		for _, stamp := range available {
			if strings.Contains(url, stamp) {
				return true
			}
		}
		return false
	}
	e := newTestEngine(t, client)

	future := e.RainfallMaps(context.Background(), "en")
	maps, err := future.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, maps)

	require.Len(t, maps.PastHour, 4)
	for i := 1; i < len(maps.PastHour); i++ {
		assert.True(t, maps.PastHour[i-1].Time.Before(maps.PastHour[i].Time))
	}
	assert.Contains(t, maps.PastHour[3].URL, "202407151445")
	assert.Contains(t, maps.Past24Hours, "rfmap24hrs1445e.png")
	assert.Contains(t, maps.TodayURL, "rfmapmid1445e.png")
	assert.Contains(t, maps.YesterdayURL, "rfmap24hrs0000e.png")
	assert.InDelta(t, 1.0, future.Progress(), 1e-9)
}

func TestRainfallMapsZeroProbesIsFatal(t *testing.T) {
	client := newStubClient()
	e := newTestEngine(t, client)

	maps, err := e.RainfallMaps(context.Background(), "en").Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, maps)
}

func TestWeatherTips(t *testing.T) {
	client := newStubClient()
	client.responses["dataType=swt"] = `{"swt":[{"desc":"Hot weather may cause heat stroke.","updateTime":"2024-07-15T09:00:00+08:00"}]}`
	e := newTestEngine(t, client)

	tips, err := e.WeatherTips(context.Background(), "en").Get(context.Background())
	require.NoError(t, err)
	require.Len(t, tips, 1)
	assert.Equal(t, "Hot weather may cause heat stroke.", tips[0].Text)
	assert.Equal(t, 2024, tips[0].UpdatedAt.Year())
}

func TestWeatherTipsMissingKeyIsEmptyList(t *testing.T) {
	client := newStubClient()
	client.responses["dataType=swt"] = `{}`
	e := newTestEngine(t, client)

	tips, err := e.WeatherTips(context.Background(), "en").Get(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, tips)
	assert.Empty(t, tips)
}

func TestWeatherTipsFetchFailureIsFatal(t *testing.T) {
	client := newStubClient()
	client.fail["dataType=swt"] = true
	e := newTestEngine(t, client)

	tips, err := e.WeatherTips(context.Background(), "en").Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, tips)
}
