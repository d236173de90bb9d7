package aggregator

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/metrowx/metro-weather/internal/config"
	"github.com/metrowx/metro-weather/internal/fetch"
	"github.com/metrowx/metro-weather/internal/geo"
	"github.com/metrowx/metro-weather/internal/stations"
	"github.com/metrowx/metro-weather/internal/weather"
	"github.com/metrowx/metro-weather/pkg/telemetry"
)

// stubClient serves canned payloads keyed by URL substring. Any URL with no
// matching key behaves like an unreachable upstream.
type stubClient struct {
	mu        sync.Mutex
	responses map[string]string
	fail      map[string]bool
	probeOK   func(url string) bool
	calls     map[string]int
}

func newStubClient() *stubClient {
	return &stubClient{
		responses: make(map[string]string),
		fail:      make(map[string]bool),
		calls:     make(map[string]int),
	}
}

func (c *stubClient) lookup(url string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.fail {
		if strings.Contains(url, key) {
			return "", fetch.ErrUnavailable
		}
	}
	for key, body := range c.responses {
		if strings.Contains(url, key) {
			c.calls[key]++
			return body, nil
		}
	}
	return "", fetch.ErrUnavailable
}

func (c *stubClient) callCount(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[key]
}

func (c *stubClient) GetJSON(ctx context.Context, url string, out any) error {
	body, err := c.lookup(url)
	if err != nil {
		return err
	}
	return jsonDecodeLoose([]byte(body), out)
}

func (c *stubClient) GetText(ctx context.Context, url string) (string, error) {
	return c.lookup(url)
}

func (c *stubClient) GetCSV(ctx context.Context, url string, sanitize fetch.Sanitizer) ([]fetch.Row, error) {
	body, err := c.lookup(url)
	if err != nil {
		return nil, err
	}
	return fetch.ParseCSV(body, sanitize)
}

func (c *stubClient) Probe(ctx context.Context, url string) bool {
	return c.probeOK != nil && c.probeOK(url)
}

func (c *stubClient) PostJSON(ctx context.Context, url string, body, out any) error {
	return fetch.ErrUnavailable
}

func newTestEngine(t *testing.T, client fetch.Client) *Engine {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Upstream.TipsDelay = 0

	idx, err := stations.Load()
	require.NoError(t, err)
	tele, err := telemetry.New(context.Background(), cfg.Telemetry)
	require.NoError(t, err)

	e, err := New(cfg, idx, client, zaptest.NewLogger(t), tele)
	require.NoError(t, err)
	e.now = func() time.Time { return time.Date(2024, 7, 15, 14, 56, 0, 0, e.tz) }
	return e
}

func healthyWeatherStub() *stubClient {
	c := newStubClient()
	c.responses["latest_1min_temperature"] = "Date time,Automatic Weather Station,Air Temperature(degree Celsius)\n" +
		"20240715145600,HK Observatory,31.2\n" +
		"20240715145600,Sha Tin,33.1\n"
	c.responses["latest_1min_humidity"] = "Date time,Automatic Weather Station,Relative Humidity(percent)\n" +
		"20240715145600,HK Observatory,78\n"
	c.responses["dataType=rhrread"] = `{"uvindex":{"data":[{"value":9}]},"icon":[51,62]}`
	c.responses["/ocf/dat/"] = `{
		"DailyForecast":[
			{"ForecastDate":"20240715","ForecastChanceOfRain":"≥ 80%"},
			{"ForecastDate":"20240716","ForecastChanceOfRain":"< 10%"}
		],
		"HourlyWeatherForecast":[
			{"ForecastHour":"2024071515","ForecastTemperature":30.5,"ForecastRelativeHumidity":80,"ForecastWindDirection":225,"ForecastWindSpeed":20,"ForecastWeather":63},
			{"ForecastHour":"2024071516","ForecastTemperature":30.1,"ForecastRelativeHumidity":81,"ForecastWindDirection":225,"ForecastWindSpeed":18},
			{"ForecastHour":"2024071517","ForecastTemperature":29.8,"ForecastRelativeHumidity":83,"ForecastWindDirection":220,"ForecastWindSpeed":17},
			{"ForecastHour":"2024071518","ForecastTemperature":29.5,"ForecastRelativeHumidity":85,"ForecastWindDirection":220,"ForecastWindSpeed":16,"ForecastWeather":62}
		]}`
	c.responses["dataType=fnd"] = `{
		"generalSituation":"An area of low pressure will bring unsettled weather.",
		"weatherForecast":[
			{"forecastDate":"20240715","forecastMaxtemp":{"value":33},"forecastMintemp":{"value":28},"forecastMaxrh":{"value":95},"forecastMinrh":{"value":70},"ForecastIcon":54,"forecastWind":"Southwest force 4.","forecastWeather":"Showers."},
			{"forecastDate":"20240716","forecastMaxtemp":{"value":32},"forecastMintemp":{"value":27},"forecastMaxrh":{"value":95},"forecastMinrh":{"value":75},"ForecastIcon":63,"forecastWind":"Southwest force 5.","forecastWeather":"Rain."}
		]}`
	c.responses["latest_10min_wind"] = "Date time,Automatic Weather Station,10-Minute Mean Wind Direction(Compass points),10-Minute Mean Speed(km/hour),10-Minute Maximum Gust(km/hour)\n" +
		"20240715145600,Star Ferry,Calm,12,30\n"
	c.responses["dataType=SRS"] = "YYYY-MM-DD,RISE,TRAN.,SET\n2024-07-15,05:48,12:22,19:08\n"
	c.responses["dataType=MRS"] = "YYYY-MM-DD,RISE,TRAN.,SET\n2024-07-15,13:05,,01:12\n"
	c.responses["dataType=flw"] = `{
		"generalSituation":"A southwesterly airstream is affecting the coast.",
		"tcInfo":"","fireDangerWarning":"",
		"forecastPeriod":"Weather forecast for tonight and tomorrow",
		"forecastDesc":"Mainly cloudy with a few showers.",
		"outlook":"Showers will be more frequent.",
		"updateTime":"2024-07-15T16:45:00+08:00"}`
	c.responses["hsww.php"] = `{"hsww":{"desc":"The Heat Stress at Work Warning is in force.","warningLevel":"amber","actionCode":"rest","effectiveTime":"2024-07-15T11:30:00+08:00","issueTime":"2024-07-15T11:15:00+08:00"}}`
	return c
}

func TestCurrentWeatherAssemblesSnapshot(t *testing.T) {
	client := healthyWeatherStub()
	e := newTestEngine(t, client)

	fix := &geo.Coordinate{Latitude: 22.302, Longitude: 114.174}
	future := e.CurrentWeather(context.Background(), fix, "en")

	snap, err := future.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, "HK Observatory", snap.StationName)
	assert.InDelta(t, 31.2, snap.CurrentTemperature, 1e-9)
	assert.InDelta(t, 78, snap.CurrentHumidity, 1e-9)
	assert.InDelta(t, 9, snap.UVIndex, 1e-9)
	assert.Equal(t, "pic51", snap.Icon.Name())
	require.NotNil(t, snap.NextIcon)
	assert.Equal(t, "pic62", snap.NextIcon.Name())

	assert.InDelta(t, 80, snap.ChanceOfRain, 1e-9)
	assert.Equal(t, weather.RangeGreaterThan, snap.ChanceOfRainSign)

	// Calm wind keeps the raw mean as the gust and zeroes the mean.
	assert.Equal(t, "Calm", snap.WindDirection)
	assert.Zero(t, snap.WindSpeed)
	assert.InDelta(t, 12, snap.Gust, 1e-9)

	assert.Equal(t, weather.TimeOfDay{Hour: 5, Minute: 48}, snap.Sunrise)
	require.NotNil(t, snap.Moonrise)
	assert.Equal(t, weather.TimeOfDay{Hour: 13, Minute: 5}, *snap.Moonrise)
	assert.Nil(t, snap.MoonTransit)
	require.NotNil(t, snap.Moonset)

	require.Len(t, snap.Forecast, 2)
	assert.InDelta(t, 33, snap.HighestTemperature, 1e-9)
	assert.InDelta(t, 10, snap.Forecast[1].ChanceOfRain, 1e-9)
	assert.Equal(t, weather.RangeLessThan, snap.Forecast[1].ChanceOfRainSign)

	require.NotNil(t, snap.HeatStress)
	assert.Equal(t, weather.HeatStressAmber, snap.HeatStress.Level)
	assert.Nil(t, snap.TyphoonBulletin)

	assert.InDelta(t, 1.0, future.Progress(), 1e-9)
}

func TestCurrentWeatherHourlyIconCarryForward(t *testing.T) {
	e := newTestEngine(t, healthyWeatherStub())

	future := e.CurrentWeather(context.Background(), &geo.Coordinate{Latitude: 22.302, Longitude: 114.174}, "en")
	snap, err := future.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)

	require.Len(t, snap.Hourly, 4)
	icons := make([]string, 0, 4)
	for _, hour := range snap.Hourly {
		icons = append(icons, hour.Icon.Name())
	}
	assert.Equal(t, []string{"pic63", "pic63", "pic63", "pic62"}, icons)
}

func TestCurrentWeatherDefaultLocationName(t *testing.T) {
	e := newTestEngine(t, healthyWeatherStub())

	future := e.CurrentWeather(context.Background(), nil, "en")
	snap, err := future.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)

	// No fix: the configured locality names the snapshot even though the
	// observatory row still drives the readings.
	assert.Equal(t, "Hong Kong", snap.StationName)
	assert.InDelta(t, 31.2, snap.CurrentTemperature, 1e-9)
}

func TestCurrentWeatherDistantFixFallsBackToLocalityName(t *testing.T) {
	e := newTestEngine(t, healthyWeatherStub())

	// Roughly Taipei, far beyond the 100 km threshold.
	future := e.CurrentWeather(context.Background(), &geo.Coordinate{Latitude: 25.03, Longitude: 121.56}, "en")
	snap, err := future.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, "Hong Kong", snap.StationName)
	// The station-row match is skipped entirely; readings come from the
	// observatory fallback row.
	assert.InDelta(t, 31.2, snap.CurrentTemperature, 1e-9)
}

func TestCurrentWeatherFatalJoin(t *testing.T) {
	client := healthyWeatherStub()
	client.fail["latest_10min_wind"] = true
	e := newTestEngine(t, client)

	future := e.CurrentWeather(context.Background(), &geo.Coordinate{Latitude: 22.302, Longitude: 114.174}, "en")
	snap, err := future.Get(context.Background())
	require.NoError(t, err)

	assert.Nil(t, snap)
	assert.InDelta(t, 1.0, future.Progress(), 1e-9)
}

func TestCurrentWeatherSnapshotCache(t *testing.T) {
	client := healthyWeatherStub()
	e := newTestEngine(t, client)
	fix := &geo.Coordinate{Latitude: 22.302, Longitude: 114.174}

	first, err := e.CurrentWeather(context.Background(), fix, "en").Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, first)
	require.Equal(t, 1, client.callCount("latest_1min_temperature"))

	second, err := e.CurrentWeather(context.Background(), fix, "en").Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, 1, client.callCount("latest_1min_temperature"))
	assert.Equal(t, first.StationName, second.StationName)
	assert.Equal(t, first.CurrentTemperature, second.CurrentTemperature)

	e.ClearCache()
	_, err = e.CurrentWeather(context.Background(), fix, "en").Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, client.callCount("latest_1min_temperature"))
}

func TestCurrentWeatherFailedRunIsNotCached(t *testing.T) {
	client := healthyWeatherStub()
	client.fail["dataType=fnd"] = true
	e := newTestEngine(t, client)
	fix := &geo.Coordinate{Latitude: 22.302, Longitude: 114.174}

	snap, err := e.CurrentWeather(context.Background(), fix, "en").Get(context.Background())
	require.NoError(t, err)
	require.Nil(t, snap)

	delete(client.fail, "dataType=fnd")
	snap, err = e.CurrentWeather(context.Background(), fix, "en").Get(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snap)
}

func TestReadingForFallbackRow(t *testing.T) {
	rows := []fetch.Row{
		{"Automatic Weather Station": "Sha Tin", "Air Temperature(degree Celsius)": "N/A"},
		{"Automatic Weather Station": "HK Observatory", "Air Temperature(degree Celsius)": "28.4"},
	}

	value, ok := readingFor(rows, "Automatic Weather Station", "Sha Tin", "Air Temperature(degree Celsius)", "HK Observatory")
	require.True(t, ok)
	assert.InDelta(t, 28.4, value, 1e-9)

	_, ok = readingFor(rows, "Automatic Weather Station", "Sha Tin", "Air Temperature(degree Celsius)", "Nowhere")
	assert.False(t, ok)
}

func TestUsableWindRow(t *testing.T) {
	assert.False(t, usableWindRow(nil, "dir"))
	assert.False(t, usableWindRow(fetch.Row{"dir": "N/A"}, "dir"))
	assert.False(t, usableWindRow(fetch.Row{"dir": " "}, "dir"))
	assert.True(t, usableWindRow(fetch.Row{"dir": "Northwest"}, "dir"))
}
