// Package aggregator implements the fan-out/fan-in aggregation engine: many
// independent upstream fetches per operation, per-category nearest-station
// resolution, fractional progress reporting, and a deterministic merge into
// one immutable snapshot.
package aggregator

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/metrowx/metro-weather/internal/config"
	"github.com/metrowx/metro-weather/internal/fetch"
	"github.com/metrowx/metro-weather/internal/geo"
	"github.com/metrowx/metro-weather/internal/progress"
	"github.com/metrowx/metro-weather/internal/stations"
	"github.com/metrowx/metro-weather/internal/weather"
	"github.com/metrowx/metro-weather/pkg/telemetry"
)

// currentWeatherStages is the fixed unit count for current-weather progress:
// three synchronous resolution stages plus thirteen sub-fetch completions.
const currentWeatherStages = 16

// MetricsRecorder observes engine outcomes. All methods must be cheap.
type MetricsRecorder interface {
	RecordOperation(operation string, start time.Time, err error)
	RecordCacheHit()
	RecordCacheMiss()
}

type cacheEntry struct {
	data      []byte
	timestamp time.Time
}

// Engine orchestrates the concurrent sub-fetches behind every operation.
// All fields are set at construction and never mutated, except the snapshot
// cache which is guarded by mu.
type Engine struct {
	upstream config.UpstreamConfig
	cfg      config.EngineConfig
	index    *stations.Index
	client   fetch.Client
	logger   *zap.Logger
	tele     *telemetry.Telemetry
	metrics  MetricsRecorder

	tz        *time.Location
	now       func() time.Time
	tipsDelay time.Duration
	cacheTTL  time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
}

func New(cfg *config.Config, index *stations.Index, client fetch.Client, logger *zap.Logger, tele *telemetry.Telemetry) (*Engine, error) {
	tz, err := time.LoadLocation(cfg.Engine.Timezone)
	if err != nil {
		return nil, fmt.Errorf("aggregator: load timezone %q: %w", cfg.Engine.Timezone, err)
	}
	return &Engine{
		upstream:  cfg.Upstream,
		cfg:       cfg.Engine,
		index:     index,
		client:    client,
		logger:    logger,
		tele:      tele,
		tz:        tz,
		now:       time.Now,
		tipsDelay: time.Duration(cfg.Upstream.TipsDelay) * time.Second,
		cacheTTL:  time.Duration(cfg.Engine.CacheTTL) * time.Second,
		cache:     make(map[string]cacheEntry),
	}, nil
}

// SetMetricsRecorder sets the metrics recorder for the engine.
func (e *Engine) SetMetricsRecorder(metrics MetricsRecorder) {
	e.metrics = metrics
}

// Timezone returns the locality timezone all feed timestamps are rendered in.
func (e *Engine) Timezone() *time.Location {
	return e.tz
}

func (e *Engine) requestLogger(ctx context.Context) *zap.Logger {
	if reqID, ok := ctx.Value("request_id").(string); ok && reqID != "" {
		return e.logger.With(zap.String("request_id", reqID))
	}
	return e.logger
}

func (e *Engine) dataURL(path string) string {
	return e.upstream.DataBaseURL + path
}

func (e *Engine) recordOperation(operation string, start time.Time, err error) {
	if e.metrics != nil {
		e.metrics.RecordOperation(operation, start, err)
	}
}

// CurrentWeather assembles one weather snapshot for the given location fix
// (nil means "use the configured default location") and language. The future
// resolves to nil on any load-bearing sub-fetch failure; consumers must treat
// nil as "retry", never as a partial result.
func (e *Engine) CurrentWeather(ctx context.Context, fix *geo.Coordinate, lang string) *progress.Future[*weather.Snapshot] {
	table := tableFor(lang, e.cfg)

	point := geo.Coordinate{Latitude: e.cfg.DefaultLatitude, Longitude: e.cfg.DefaultLongitude}
	if fix != nil {
		point = *fix
	}

	key := fmt.Sprintf("%.4f,%.4f,%s", point.Latitude, point.Longitude, table.Tag)
	if snap := e.cachedSnapshot(key); snap != nil {
		if e.metrics != nil {
			e.metrics.RecordCacheHit()
		}
		e.requestLogger(ctx).Debug("snapshot cache hit", zap.String("cache_key", key))
		return progress.Completed(snap)
	}
	if e.metrics != nil {
		e.metrics.RecordCacheMiss()
	}

	future := progress.New[*weather.Snapshot]()
	go e.runCurrentWeather(ctx, future, fix, point, table, key)
	return future
}

func (e *Engine) runCurrentWeather(ctx context.Context, future *progress.Future[*weather.Snapshot], fix *geo.Coordinate, point geo.Coordinate, table langTable, cacheKey string) {
	tracer := e.tele.GetTracer()
	ctx, span := tracer.Start(ctx, "engine.CurrentWeather")
	defer span.End()
	span.SetAttributes(
		attribute.Float64("lat", point.Latitude),
		attribute.Float64("lng", point.Longitude),
		attribute.String("lang", table.Tag),
	)

	logger := e.requestLogger(ctx)
	start := e.now()
	var opErr error
	defer func() { e.recordOperation("current_weather", start, opErr) }()

	const step = 1.0 / currentWeatherStages

	today := e.today()
	snapshot := &weather.Snapshot{Date: today}

	// Stage 1: effective location. Without a fix the default locality names
	// the result outright; the default coordinate still drives data-source
	// selection below.
	displayName := ""
	if fix == nil {
		displayName = table.DefaultLocality
	}
	future.AddProgress(step)

	// Stage 2: nearest temperature station.
	station, distance, err := geo.Nearest(point, e.index.StationsFor(stations.Temperature))
	if err != nil {
		logger.Error("temperature station resolution failed", zap.Error(err))
		span.SetAttributes(attribute.Bool("success", false))
		opErr = err
		future.Complete(nil)
		return
	}
	future.AddProgress(step)

	// Stage 3: displayed-name policy. Beyond the distance threshold the
	// nearest station no longer represents local conditions; the snapshot is
	// labeled with the default locality and numeric lookups skip the
	// station-row match entirely.
	lookupStationName := table.StationName(station)
	switch {
	case distance > e.cfg.DistanceThresholdKm:
		displayName = table.DefaultLocality
		lookupStationName = ""
	case displayName == "":
		displayName = lookupStationName
	}
	snapshot.StationName = displayName
	future.AddProgress(step)

	type subtask struct {
		name string
		run  func(context.Context) error
	}
	subtasks := []subtask{
		{"temperature", func(ctx context.Context) error {
			return e.fetchTemperature(ctx, future, table, lookupStationName, snapshot)
		}},
		{"humidity", func(ctx context.Context) error {
			return e.fetchHumidity(ctx, future, table, point, snapshot)
		}},
		{"conditions_forecast", func(ctx context.Context) error {
			return e.fetchConditionsAndForecast(ctx, future, table, point, snapshot)
		}},
		{"wind", func(ctx context.Context) error {
			return e.fetchWind(ctx, future, table, point, snapshot)
		}},
		{"sun_times", func(ctx context.Context) error {
			return e.fetchSunTimes(ctx, future, today, snapshot)
		}},
		{"moon_times", func(ctx context.Context) error {
			return e.fetchMoonTimes(ctx, future, today, snapshot)
		}},
		{"local_forecast", func(ctx context.Context) error {
			return e.fetchLocalForecast(ctx, future, table, snapshot)
		}},
		{"heat_stress", func(ctx context.Context) error {
			return e.fetchHeatStress(ctx, future, table, snapshot)
		}},
		{"typhoon_bulletin", func(ctx context.Context) error {
			return e.fetchTyphoonBulletin(ctx, future, table, snapshot)
		}},
	}

	// Bounded fan-out. Sub-tasks write disjoint snapshot fields, so the only
	// shared state is the error slot. A failing sibling does not cancel the
	// others; everything runs to its own completion or timeout.
	workers := e.cfg.Workers
	if workers <= 0 {
		workers = len(subtasks)
	}
	sem := make(chan struct{}, workers)
	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	for _, st := range subtasks {
		wg.Add(1)
		go func(st subtask) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if err := st.run(ctx); err != nil {
				logger.Warn("sub-fetch failed",
					zap.String("task", st.name),
					zap.Error(err))
				errMu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("%s: %w", st.name, err)
				}
				errMu.Unlock()
			}
		}(st)
	}
	wg.Wait()

	if firstErr != nil {
		span.SetAttributes(attribute.Bool("success", false))
		logger.Error("current weather aggregation failed", zap.Error(firstErr))
		opErr = firstErr
		future.Complete(nil)
		return
	}

	e.storeSnapshot(cacheKey, snapshot)
	span.SetAttributes(attribute.Bool("success", true))
	logger.Info("current weather aggregated",
		zap.String("station", snapshot.StationName),
		zap.Duration("elapsed", e.now().Sub(start)))
	future.Complete(snapshot)
}

func (e *Engine) today() time.Time {
	now := e.now().In(e.tz)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (e *Engine) cachedSnapshot(key string) *weather.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, exists := e.cache[key]
	if !exists {
		return nil
	}
	if time.Since(entry.timestamp) > e.cacheTTL {
		delete(e.cache, key)
		return nil
	}
	snap, err := weather.DecodeSnapshot(entry.data)
	if err != nil {
		delete(e.cache, key)
		return nil
	}
	return snap
}

func (e *Engine) storeSnapshot(key string, snap *weather.Snapshot) {
	data, err := weather.EncodeSnapshot(snap)
	if err != nil {
		e.logger.Warn("snapshot cache encode failed", zap.Error(err))
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache[key] = cacheEntry{data: data, timestamp: time.Now()}
}

// ClearCache drops every cached snapshot.
func (e *Engine) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]cacheEntry)
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}

func findRow(rows []fetch.Row, header, value string) fetch.Row {
	for _, row := range rows {
		if row[header] == value {
			return row
		}
	}
	return nil
}

func (e *Engine) fetchTemperature(ctx context.Context, future *progress.Future[*weather.Snapshot], table langTable, stationName string, snapshot *weather.Snapshot) error {
	rows, err := e.client.GetCSV(ctx, e.dataURL("/hko_data/regional-weather/latest_1min_temperature"+table.CSVSuffix+".csv"), nil)
	if err != nil {
		return err
	}

	value, ok := readingFor(rows, table.StationHeader, stationName, table.TemperatureHeader, table.ObservatoryRow)
	if !ok {
		return fmt.Errorf("no usable temperature row for %q", stationName)
	}
	snapshot.CurrentTemperature = value
	future.AddProgress(1.0 / currentWeatherStages)
	return nil
}

func (e *Engine) fetchHumidity(ctx context.Context, future *progress.Future[*weather.Snapshot], table langTable, point geo.Coordinate, snapshot *weather.Snapshot) error {
	stationName := ""
	if station, _, err := geo.Nearest(point, e.index.StationsFor(stations.Humidity)); err == nil {
		stationName = table.StationName(station)
	}

	rows, err := e.client.GetCSV(ctx, e.dataURL("/hko_data/regional-weather/latest_1min_humidity"+table.CSVSuffix+".csv"), nil)
	if err != nil {
		return err
	}

	value, ok := readingFor(rows, table.StationHeader, stationName, table.HumidityHeader, table.ObservatoryRow)
	if !ok {
		return fmt.Errorf("no usable humidity row for %q", stationName)
	}
	snapshot.CurrentHumidity = value
	future.AddProgress(1.0 / currentWeatherStages)
	return nil
}

// readingFor returns the numeric reading for the named station, falling back
// to the fixed default row when the station's row is missing or carries an
// unparsable value.
func readingFor(rows []fetch.Row, stationHeader, stationName, valueHeader, defaultStation string) (float64, bool) {
	if row := findRow(rows, stationHeader, stationName); row != nil {
		if v, ok := parseFloat(row[valueHeader]); ok {
			return v, true
		}
	}
	if row := findRow(rows, stationHeader, defaultStation); row != nil {
		if v, ok := parseFloat(row[valueHeader]); ok {
			return v, true
		}
	}
	return 0, false
}

func (e *Engine) fetchConditionsAndForecast(ctx context.Context, future *progress.Future[*weather.Snapshot], table langTable, point geo.Coordinate, snapshot *weather.Snapshot) error {
	const step = 1.0 / currentWeatherStages

	var conditions currentConditionsFeed
	if err := e.client.GetJSON(ctx, e.dataURL("/opendata/weather.php?dataType=rhrread&lang="+table.FeedLang), &conditions); err != nil {
		return err
	}

	snapshot.UVIndex = -1
	var uv uvIndexBlock
	if err := jsonDecodeLoose(conditions.UVIndex, &uv); err == nil && len(uv.Data) > 0 {
		snapshot.UVIndex = uv.Data[0].Value
	}

	if len(conditions.Icon) == 0 {
		return fmt.Errorf("conditions feed carries no icon")
	}
	icon, ok := weather.IconByCode(conditions.Icon[0])
	if !ok {
		return fmt.Errorf("unknown weather icon code %d", conditions.Icon[0])
	}
	snapshot.Icon = icon
	if len(conditions.Icon) > 1 {
		if next, ok := weather.IconByCode(conditions.Icon[1]); ok {
			snapshot.NextIcon = &next
		}
	}
	future.AddProgress(step)

	gridPoint, _, err := geo.Nearest(point, e.index.ForecastGrid())
	if err != nil {
		return err
	}
	var grid gridForecastFeed
	if err := e.client.GetJSON(ctx, e.upstream.ForecastBaseURL+"/"+gridPoint.ID+".xml", &grid); err != nil {
		return err
	}
	if len(grid.DailyForecast) == 0 {
		return fmt.Errorf("grid forecast for %s carries no daily entries", gridPoint.ID)
	}

	chance, sign, err := weather.ParsePercentage(grid.DailyForecast[0].ForecastChanceOfRain)
	if err != nil {
		return err
	}
	snapshot.ChanceOfRain = chance
	snapshot.ChanceOfRainSign = sign
	future.AddProgress(step)

	var forecast multiDayForecastFeed
	if err := e.client.GetJSON(ctx, e.dataURL("/opendata/weather.php?dataType=fnd&lang="+table.FeedLang), &forecast); err != nil {
		return err
	}
	if len(forecast.WeatherForecast) == 0 {
		return fmt.Errorf("multi-day forecast is empty")
	}
	snapshot.ForecastGeneralSituation = forecast.GeneralSituation

	first := forecast.WeatherForecast[0]
	snapshot.HighestTemperature = first.ForecastMaxtemp.Value
	snapshot.LowestTemperature = first.ForecastMintemp.Value
	snapshot.MaxRelativeHumidity = first.ForecastMaxrh.Value
	snapshot.MinRelativeHumidity = first.ForecastMinrh.Value
	future.AddProgress(step)

	chanceByDate := make(map[string]string, len(grid.DailyForecast))
	for _, day := range grid.DailyForecast {
		chanceByDate[day.ForecastDate] = day.ForecastChanceOfRain
	}

	days := make([]weather.ForecastDay, 0, len(forecast.WeatherForecast))
	for _, day := range forecast.WeatherForecast {
		date, err := time.Parse("20060102", day.ForecastDate)
		if err != nil {
			return fmt.Errorf("forecast date %q: %w", day.ForecastDate, err)
		}
		dayIcon, ok := weather.IconByCode(day.ForecastIcon)
		if !ok {
			return fmt.Errorf("unknown forecast icon code %d", day.ForecastIcon)
		}
		dayChance, daySign := -1.0, weather.RangeNone
		if raw, ok := chanceByDate[day.ForecastDate]; ok {
			if v, s, err := weather.ParsePercentage(raw); err == nil {
				dayChance, daySign = v, s
			}
		}
		days = append(days, weather.ForecastDay{
			Date:                date,
			HighestTemperature:  day.ForecastMaxtemp.Value,
			LowestTemperature:   day.ForecastMintemp.Value,
			MaxRelativeHumidity: day.ForecastMaxrh.Value,
			MinRelativeHumidity: day.ForecastMinrh.Value,
			ChanceOfRain:        dayChance,
			ChanceOfRainSign:    daySign,
			Icon:                dayIcon,
			Wind:                day.ForecastWind,
			Weather:             day.ForecastWeather,
		})
	}
	snapshot.Forecast = days
	future.AddProgress(step)

	// Hours without an icon inherit the nearest earlier one, seeded with the
	// current conditions icon.
	hours := make([]weather.HourlyForecast, 0, len(grid.HourlyWeatherForecast))
	lastIcon := icon
	for _, hour := range grid.HourlyWeatherForecast {
		at, err := time.Parse("2006010215", hour.ForecastHour)
		if err != nil {
			return fmt.Errorf("forecast hour %q: %w", hour.ForecastHour, err)
		}
		hourIcon := lastIcon
		if hour.ForecastWeather != nil {
			if parsed, ok := weather.IconByCode(*hour.ForecastWeather); ok {
				hourIcon = parsed
				lastIcon = parsed
			}
		}
		hours = append(hours, weather.HourlyForecast{
			Time:          at,
			Temperature:   floatOr(hour.ForecastTemperature, -1),
			Humidity:      floatOr(hour.ForecastRelativeHumidity, -1),
			WindDirection: floatOr(hour.ForecastWindDirection, -1),
			WindSpeed:     floatOr(hour.ForecastWindSpeed, -1),
			Icon:          hourIcon,
		})
	}
	snapshot.Hourly = hours
	future.AddProgress(step)
	return nil
}

func floatOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func (e *Engine) fetchWind(ctx context.Context, future *progress.Future[*weather.Snapshot], table langTable, point geo.Coordinate, snapshot *weather.Snapshot) error {
	rows, err := e.client.GetCSV(ctx, e.dataURL("/hko_data/regional-weather/latest_10min_wind"+table.CSVSuffix+".csv"), nil)
	if err != nil {
		return err
	}

	var row fetch.Row
	if station, _, err := geo.Nearest(point, e.index.StationsFor(stations.Wind)); err == nil {
		row = findRow(rows, table.StationHeader, table.StationName(station))
	}
	if !usableWindRow(row, table.WindDirectionHeader) {
		row = findRow(rows, table.StationHeader, table.FallbackWindRow)
	}

	if !usableWindRow(row, table.WindDirectionHeader) {
		snapshot.WindDirection = ""
		snapshot.WindSpeed = -1
		snapshot.Gust = -1
	} else {
		direction := row[table.WindDirectionHeader]
		speed, _ := parseFloat(row[table.WindSpeedHeader])
		gust, _ := parseFloat(row[table.GustHeader])
		if isCalm(direction) {
			// Calm reports carry the last measured speed; surface it as the
			// gust and zero the mean.
			gust = speed
			speed = 0
		}
		snapshot.WindDirection = direction
		snapshot.WindSpeed = speed
		snapshot.Gust = gust
	}
	future.AddProgress(1.0 / currentWeatherStages)
	return nil
}

func usableWindRow(row fetch.Row, directionHeader string) bool {
	if row == nil {
		return false
	}
	direction := strings.TrimSpace(row[directionHeader])
	return direction != "" && direction != "N/A"
}

var astroSanitizerPattern = regexp.MustCompile(`[^a-zA-Z.0-9:\-,]`)

func astroSanitizer(s string) string {
	return astroSanitizerPattern.ReplaceAllString(s, "")
}

func (e *Engine) fetchSunTimes(ctx context.Context, future *progress.Future[*weather.Snapshot], today time.Time, snapshot *weather.Snapshot) error {
	rows, err := e.client.GetCSV(ctx, e.dataURL(fmt.Sprintf("/opendata/opendata.php?dataType=SRS&year=%d&rformat=csv", today.Year())), astroSanitizer)
	if err != nil {
		return err
	}
	row := findRow(rows, "YYYY-MM-DD", today.Format("2006-01-02"))
	if row == nil {
		return fmt.Errorf("no sun times row for %s", today.Format("2006-01-02"))
	}
	if snapshot.Sunrise, err = weather.ParseTimeOfDay(row["RISE"]); err != nil {
		return err
	}
	if snapshot.SunTransit, err = weather.ParseTimeOfDay(row["TRAN."]); err != nil {
		return err
	}
	if snapshot.Sunset, err = weather.ParseTimeOfDay(row["SET"]); err != nil {
		return err
	}
	future.AddProgress(1.0 / currentWeatherStages)
	return nil
}

func (e *Engine) fetchMoonTimes(ctx context.Context, future *progress.Future[*weather.Snapshot], today time.Time, snapshot *weather.Snapshot) error {
	rows, err := e.client.GetCSV(ctx, e.dataURL(fmt.Sprintf("/opendata/opendata.php?dataType=MRS&year=%d&rformat=csv", today.Year())), astroSanitizer)
	if err != nil {
		return err
	}
	row := findRow(rows, "YYYY-MM-DD", today.Format("2006-01-02"))
	if row == nil {
		return fmt.Errorf("no moon times row for %s", today.Format("2006-01-02"))
	}
	// Moon events are individually optional: an empty cell is a day without
	// that event, not midnight.
	if snapshot.Moonrise, err = optionalTimeOfDay(row["RISE"]); err != nil {
		return err
	}
	if snapshot.MoonTransit, err = optionalTimeOfDay(row["TRAN."]); err != nil {
		return err
	}
	if snapshot.Moonset, err = optionalTimeOfDay(row["SET"]); err != nil {
		return err
	}
	future.AddProgress(1.0 / currentWeatherStages)
	return nil
}

func optionalTimeOfDay(s string) (*weather.TimeOfDay, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := weather.ParseTimeOfDay(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (e *Engine) fetchLocalForecast(ctx context.Context, future *progress.Future[*weather.Snapshot], table langTable, snapshot *weather.Snapshot) error {
	var feed localForecastFeed
	if err := e.client.GetJSON(ctx, e.dataURL("/opendata/weather.php?dataType=flw&lang="+table.FeedLang), &feed); err != nil {
		return err
	}
	updateTime, err := time.Parse(time.RFC3339, feed.UpdateTime)
	if err != nil {
		return fmt.Errorf("local forecast update time %q: %w", feed.UpdateTime, err)
	}
	snapshot.LocalForecast = weather.LocalForecast{
		GeneralSituation:  feed.GeneralSituation,
		TCInfo:            feed.TCInfo,
		FireDangerWarning: feed.FireDangerWarning,
		ForecastPeriod:    feed.ForecastPeriod,
		ForecastDesc:      feed.ForecastDesc,
		Outlook:           feed.Outlook,
		UpdateTime:        updateTime.In(e.tz).Truncate(time.Minute),
	}
	future.AddProgress(1.0 / currentWeatherStages)
	return nil
}

func (e *Engine) fetchHeatStress(ctx context.Context, future *progress.Future[*weather.Snapshot], table langTable, snapshot *weather.Snapshot) error {
	var feed heatStressFeed
	if err := e.client.GetJSON(ctx, e.dataURL("/opendata/hsww.php?lang="+table.FeedLang), &feed); err != nil {
		return err
	}
	// The nested advisory object is the only trigger; its absence means no
	// advisory is in force.
	if feed.Advisory != nil {
		effective, err := time.Parse(time.RFC3339, feed.Advisory.EffectiveTime)
		if err != nil {
			return fmt.Errorf("heat stress effective time %q: %w", feed.Advisory.EffectiveTime, err)
		}
		issued, err := time.Parse(time.RFC3339, feed.Advisory.IssueTime)
		if err != nil {
			return fmt.Errorf("heat stress issue time %q: %w", feed.Advisory.IssueTime, err)
		}
		snapshot.HeatStress = &weather.HeatStressAtWork{
			Description:   feed.Advisory.Desc,
			Level:         weather.HeatStressLevel(strings.ToUpper(feed.Advisory.WarningLevel)),
			Action:        strings.ToUpper(feed.Advisory.ActionCode),
			EffectiveTime: effective.In(e.tz).Truncate(time.Minute),
			IssueTime:     issued.In(e.tz).Truncate(time.Minute),
		}
	}
	future.AddProgress(1.0 / currentWeatherStages)
	return nil
}

func (e *Engine) fetchTyphoonBulletin(ctx context.Context, future *progress.Future[*weather.Snapshot], table langTable, snapshot *weather.Snapshot) error {
	var feed typhoonBulletinFeed
	// This feed regularly does not exist outside typhoon season; a failed
	// fetch means no bulletin, not a failed snapshot.
	if err := e.client.GetJSON(ctx, e.upstream.MobileBaseURL+"/tc_part2"+table.TyphoonSuffix+".json", &feed); err == nil {
		if feed.WTCB != nil && feed.WTCB.IsTCPart2Display {
			signalType, _ := weather.ParseWarningType(feed.WTCB.SignalType)
			if !signalType.Known() {
				signalType = ""
			}
			content := feed.WTCB.Part2Content
			snapshot.TyphoonBulletin = &weather.SpecialTyphoonBulletin{
				SignalType:     signalType,
				Considerations: displayableSection(content.Consideration),
				Info:           displayableSection(content.Info),
				WindsInfo:      displayableSection(content.WindsInfo),
				WindsHighlight: displayableSection(content.WindsHighlight),
				TideInfo:       displayableSection(content.TideInfo),
			}
		}
	}
	future.AddProgress(1.0 / currentWeatherStages)
	return nil
}

func displayableSection(feed *displayableFeed) weather.DisplayableSection {
	if feed == nil {
		return weather.DisplayableSection{}
	}
	lines := make([]string, 0, len(feed.Value))
	for _, line := range feed.Value {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return weather.DisplayableSection{Display: feed.IsDisplay, Text: strings.Join(lines, "\n")}
}
