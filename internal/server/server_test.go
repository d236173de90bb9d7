package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/metrowx/metro-weather/internal/config"
	"github.com/metrowx/metro-weather/internal/geo"
	"github.com/metrowx/metro-weather/internal/prefs"
	"github.com/metrowx/metro-weather/internal/progress"
	"github.com/metrowx/metro-weather/internal/weather"
	"github.com/metrowx/metro-weather/pkg/metrics"
	"github.com/metrowx/metro-weather/pkg/telemetry"
)

// fakeEngine resolves every operation immediately with canned values. A nil
// field resolves the future to nil, mimicking a failed aggregation.
type fakeEngine struct {
	snapshot *weather.Snapshot
	warnings weather.WarningsMap
	cyclones []weather.TropicalCycloneInfo
	lunar    *weather.LunarDate
	rainfall *weather.RainfallMaps
	tips     []weather.Tip

	lastLang string
	lastFix  *geo.Coordinate
}

func (f *fakeEngine) CurrentWeather(ctx context.Context, fix *geo.Coordinate, lang string) *progress.Future[*weather.Snapshot] {
	f.lastFix = fix
	f.lastLang = lang
	return progress.Completed(f.snapshot)
}

func (f *fakeEngine) ActiveWarnings(ctx context.Context, lang string) *progress.Future[weather.WarningsMap] {
	f.lastLang = lang
	return progress.Completed(f.warnings)
}

func (f *fakeEngine) TropicalCyclones(ctx context.Context) *progress.Future[[]weather.TropicalCycloneInfo] {
	return progress.Completed(f.cyclones)
}

func (f *fakeEngine) LunarDate(ctx context.Context, date time.Time) *progress.Future[*weather.LunarDate] {
	return progress.Completed(f.lunar)
}

func (f *fakeEngine) RainfallMaps(ctx context.Context, lang string) *progress.Future[*weather.RainfallMaps] {
	return progress.Completed(f.rainfall)
}

func (f *fakeEngine) WeatherTips(ctx context.Context, lang string) *progress.Future[[]weather.Tip] {
	return progress.Completed(f.tips)
}

func (f *fakeEngine) Timezone() *time.Location {
	return time.UTC
}

func newTestServer(t *testing.T, eng *fakeEngine) *httptest.Server {
	t.Helper()

	cfg := config.NewDefaultConfig()
	config.SetConfig(cfg)

	logger := zaptest.NewLogger(t)
	store, err := prefs.Open(filepath.Join(t.TempDir(), "preferences.json"), nil, logger)
	require.NoError(t, err)

	tele, err := telemetry.New(context.Background(), cfg.Telemetry)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector("metro_weather", registry)

	srv := New(eng, store, collector, registry, logger, tele)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, ts *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	return resp, body
}

func TestWeatherEndpointServesSnapshot(t *testing.T) {
	eng := &fakeEngine{snapshot: &weather.Snapshot{
		Date:        time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC),
		StationName: "Sha Tin",
	}}
	ts := newTestServer(t, eng)

	resp, body := get(t, ts, "/v1/weather?lat=22.38&lng=114.19&lang=en")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, "15-07-2024", doc["date"])
	assert.Equal(t, "Sha Tin", doc["weatherStation"])

	require.NotNil(t, eng.lastFix)
	assert.InDelta(t, 22.38, eng.lastFix.Latitude, 1e-9)
	assert.Equal(t, "en", eng.lastLang)
}

func TestWeatherEndpointDefaultsFromPreferences(t *testing.T) {
	eng := &fakeEngine{snapshot: &weather.Snapshot{StationName: "Hong Kong"}}
	ts := newTestServer(t, eng)

	resp, _ := get(t, ts, "/v1/weather")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Nil(t, eng.lastFix)
	assert.Equal(t, prefs.DefaultLanguage, eng.lastLang)
}

func TestWeatherEndpointRejectsLoneCoordinate(t *testing.T) {
	ts := newTestServer(t, &fakeEngine{})

	resp, _ := get(t, ts, "/v1/weather?lat=22.38")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWeatherEndpointRejectsOutOfRangeCoordinate(t *testing.T) {
	ts := newTestServer(t, &fakeEngine{})

	resp, _ := get(t, ts, "/v1/weather?lat=95.0&lng=114.19")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWeatherEndpointFailedAggregationIs503(t *testing.T) {
	ts := newTestServer(t, &fakeEngine{snapshot: nil})

	resp, body := get(t, ts, "/v1/weather")
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "30", resp.Header.Get("Retry-After"))

	var retry map[string]any
	require.NoError(t, json.Unmarshal(body, &retry))
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", retry["code"])
}

func TestWarningsEndpoint(t *testing.T) {
	eng := &fakeEngine{warnings: weather.WarningsMap{
		weather.WarnThunderstorm:   "Thunderstorm Warning\nThunderstorms are expected.",
		weather.WarnVeryHotWeather: "",
	}}
	ts := newTestServer(t, eng)

	resp, body := get(t, ts, "/v1/warnings?lang=en")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal(body, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "WHOT", entries[0]["code"])
	assert.Equal(t, "WTS", entries[1]["code"])
	assert.Equal(t, "Thunderstorm Warning", entries[1]["name"])
}

func TestCyclonesEndpointFailureIs503(t *testing.T) {
	ts := newTestServer(t, &fakeEngine{cyclones: nil})

	resp, _ := get(t, ts, "/v1/cyclones")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestLunarEndpointRejectsBadDate(t *testing.T) {
	ts := newTestServer(t, &fakeEngine{lunar: &weather.LunarDate{Year: "甲辰"}})

	resp, _ := get(t, ts, "/v1/lunar?date=2024-7-15x")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTipsEndpointEmptyListIsOK(t *testing.T) {
	ts := newTestServer(t, &fakeEngine{tips: []weather.Tip{}})

	resp, body := get(t, ts, "/v1/tips")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "[]", strings.TrimSpace(string(body)))
}

func TestPreferencesRoundTrip(t *testing.T) {
	ts := newTestServer(t, &fakeEngine{})

	payload := `{"language":"en","refreshRate":3600000,"location":{"lat":22.38,"lng":114.19}}`
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/v1/preferences", strings.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	getResp, body := get(t, ts, "/v1/preferences")
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, "en", doc["language"])
	assert.Equal(t, float64(3600000), doc["refreshRate"])
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	ts := newTestServer(t, &fakeEngine{snapshot: &weather.Snapshot{}})

	resp, _ := get(t, ts, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	get(t, ts, "/v1/weather")

	metricsResp, body := get(t, ts, "/metrics")
	require.Equal(t, http.StatusOK, metricsResp.StatusCode)
	assert.Contains(t, string(body), "metro_weather_api_requests_total")
}
