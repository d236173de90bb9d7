package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/metrowx/metro-weather/internal/progress"
	"github.com/metrowx/metro-weather/internal/weather"
)

// ActiveWarnings merges the hazard summary feed with the detail feed. The
// summary alone decides the active set; details only enrich it. A hazard with
// no detail text keeps an empty value, which consumers render as "active, no
// bulletin".
func (e *Engine) ActiveWarnings(ctx context.Context, lang string) *progress.Future[weather.WarningsMap] {
	future := progress.New[weather.WarningsMap]()
	table := tableFor(lang, e.cfg)

	go func() {
		ctx, span := e.tele.GetTracer().Start(ctx, "engine.ActiveWarnings")
		defer span.End()
		logger := e.requestLogger(ctx)
		start := e.now()
		var opErr error
		defer func() { e.recordOperation("active_warnings", start, opErr) }()

		var summary map[string]json.RawMessage
		if err := e.client.GetJSON(ctx, e.dataURL("/opendata/weather.php?dataType=warnsum&lang="+table.FeedLang), &summary); err != nil {
			logger.Error("warning summary fetch failed", zap.Error(err))
			opErr = err
			future.Complete(nil)
			return
		}

		warnings := make(weather.WarningsMap)
		for _, raw := range summary {
			var entry warningSummaryEntry
			if err := json.Unmarshal(raw, &entry); err != nil {
				continue
			}
			if entry.ActionCode == "CANCEL" {
				continue
			}
			warningType, known := weather.ParseWarningType(entry.Code)
			if !known {
				logger.Warn("unknown warning code in summary", zap.String("code", entry.Code))
				continue
			}
			warnings[warningType] = ""
		}

		// Detail failures degrade to summary-only output.
		var details warningDetailsFeed
		if err := e.client.GetJSON(ctx, e.dataURL("/opendata/weather.php?dataType=warningInfo&lang="+table.FeedLang), &details); err == nil {
			for _, detail := range details.Details {
				code := detail.Subtype
				if code == "" {
					code = detail.WarningStatementCode
				}
				warningType, known := weather.ParseWarningType(code)
				if !known {
					continue
				}
				if _, active := warnings[warningType]; !active {
					continue
				}
				if len(detail.Contents) == 0 {
					continue
				}
				warnings[warningType] = e.composeWarningText(table, warningType, detail.Contents, detail.UpdateTime)
			}
		}

		span.SetAttributes(attribute.Int("active_warnings", len(warnings)))
		logger.Info("active warnings fetched", zap.Int("count", len(warnings)))
		future.Complete(warnings)
	}()
	return future
}

func (e *Engine) composeWarningText(table langTable, warningType weather.WarningType, contents []string, updateTime string) string {
	name := table.WarningName(warningType)
	lines := make([]string, 0, len(contents)+2)
	if !strings.EqualFold(strings.TrimSpace(contents[0]), name) {
		lines = append(lines, name)
	}
	lines = append(lines, contents...)
	if issued, err := time.Parse(time.RFC3339, updateTime); err == nil {
		lines = append(lines, table.IssuedLine(issued.In(e.tz)))
	}
	return strings.Join(lines, "\n")
}

// TropicalCyclones lists the currently tracked cyclones. Track image URLs are
// emitted only when the image name appears in the pre-fetched filename
// listing; no per-image existence call is made.
func (e *Engine) TropicalCyclones(ctx context.Context) *progress.Future[[]weather.TropicalCycloneInfo] {
	future := progress.New[[]weather.TropicalCycloneInfo]()

	go func() {
		ctx, span := e.tele.GetTracer().Start(ctx, "engine.TropicalCyclones")
		defer span.End()
		logger := e.requestLogger(ctx)
		start := e.now()
		var opErr error
		defer func() { e.recordOperation("tropical_cyclones", start, opErr) }()

		var index cycloneIndexFeed
		if err := e.client.GetJSON(ctx, e.upstream.MobileBaseURL+"/TCTrackData/TC/tcFront.json", &index); err != nil {
			logger.Error("cyclone index fetch failed", zap.Error(err))
			opErr = err
			future.Complete(nil)
			return
		}

		images := make(map[string]struct{})
		if listing, err := e.client.GetText(ctx, e.upstream.MobileBaseURL+"/TCTrackImg/png_list.myobs"); err == nil {
			for _, name := range strings.Fields(listing) {
				images[name] = struct{}{}
			}
		}

		list := make([]weather.TropicalCycloneInfo, 0, len(index.TC))
		for _, tc := range index.TC {
			info := weather.TropicalCycloneInfo{
				ID:           tc.ID,
				DisplayOrder: tc.DisplayOrder,
				NameZh:       tc.NameZh,
				NameEn:       tc.NameEn,
			}
			if name := fmt.Sprintf("nwp_%d.png", tc.ID); hasImage(images, name) {
				info.TrackImageURL = e.upstream.MobileBaseURL + "/TCTrackImg/" + name
			}
			if name := fmt.Sprintf("zoom_%d.png", tc.ID); hasImage(images, name) {
				info.TrackZoomImageURL = e.upstream.MobileBaseURL + "/TCTrackImg/" + name
			}
			list = append(list, info)
		}

		span.SetAttributes(attribute.Int("cyclones", len(list)))
		future.Complete(list)
	}()
	return future
}

func hasImage(images map[string]struct{}, name string) bool {
	_, ok := images[name]
	return ok
}

// LunarDate merges the required lunar-calendar feed with an optional
// solar-term feed. The solar-term call only applies to today's date and its
// failure silently yields no climatology.
func (e *Engine) LunarDate(ctx context.Context, date time.Time) *progress.Future[*weather.LunarDate] {
	future := progress.New[*weather.LunarDate]()

	go func() {
		ctx, span := e.tele.GetTracer().Start(ctx, "engine.LunarDate")
		defer span.End()
		logger := e.requestLogger(ctx)
		start := e.now()
		var opErr error
		defer func() { e.recordOperation("lunar_date", start, opErr) }()

		climatology := ""
		if date.Format("2006-01-02") == e.now().In(e.tz).Format("2006-01-02") {
			var term solarTermFeed
			if err := e.client.GetJSON(ctx, e.upstream.MobileBaseURL+"/lunar_date_uc.xml", &term); err == nil {
				climatology = term.SolarTerm
			}
		}

		var feed lunarDateFeed
		if err := e.client.GetJSON(ctx, e.dataURL("/opendata/lunardate.php?date="+date.Format("2006-01-02")), &feed); err != nil {
			logger.Error("lunar date fetch failed", zap.Error(err))
			opErr = err
			future.Complete(nil)
			return
		}

		parts := strings.Split(feed.LunarYear, "，")
		if len(parts) < 2 {
			opErr = fmt.Errorf("unparsable lunar year %q", feed.LunarYear)
			logger.Error("lunar date parse failed", zap.Error(opErr))
			future.Complete(nil)
			return
		}

		future.Complete(&weather.LunarDate{
			Year:        strings.ReplaceAll(parts[0], "年", ""),
			Zodiac:      parts[1],
			Date:        feed.LunarDate,
			Climatology: climatology,
		})
	}()
	return future
}

// RainfallMaps probes the past 24 hours of hourly rainfall map images. Each
// probe contributes 1/24 progress regardless of outcome; only URLs that
// answered the existence check appear in the result, in chronological order.
// Zero successful probes fails the operation outright.
func (e *Engine) RainfallMaps(ctx context.Context, lang string) *progress.Future[*weather.RainfallMaps] {
	future := progress.New[*weather.RainfallMaps]()
	table := tableFor(lang, e.cfg)

	go func() {
		ctx, span := e.tele.GetTracer().Start(ctx, "engine.RainfallMaps")
		defer span.End()
		logger := e.requestLogger(ctx)
		start := e.now()
		var opErr error
		defer func() { e.recordOperation("rainfall_maps", start, opErr) }()

		// Maps publish with an observed lag of roughly 11 minutes; shift back
		// before aligning to the 15-minute grid.
		now := e.now().In(e.tz).Add(-11 * time.Minute).Truncate(time.Minute)
		now = now.Add(-time.Duration(now.Minute()%15) * time.Minute)
		closest15 := now.Format("1504")

		base := e.upstream.RainfallBaseURL
		result := &weather.RainfallMaps{
			Past24Hours:  base + "/rfmap24hrs" + closest15 + table.RainfallSuffix + ".png",
			TodayURL:     base + "/rfmapmid" + closest15 + table.RainfallSuffix + ".png",
			YesterdayURL: base + "/rfmap24hrs0000" + table.RainfallSuffix + ".png",
		}

		type probeResult struct {
			at  time.Time
			url string
			ok  bool
		}

		var candidates []time.Time
		for at := now; now.Sub(at) <= 24*time.Hour; {
			candidates = append(candidates, at)
			if at.Minute() == 0 {
				at = at.Add(-time.Hour)
			} else {
				at = at.Truncate(time.Hour)
			}
		}

		results := make([]probeResult, len(candidates))
		var wg sync.WaitGroup
		for i, at := range candidates {
			wg.Add(1)
			go func(i int, at time.Time) {
				defer wg.Done()
				defer future.AddProgress(1.0 / 24.0)
				url := base + "/rfmap" + at.Format("200601021504") + table.RainfallSuffix + ".png"
				results[i] = probeResult{at: at, url: url, ok: e.client.Probe(ctx, url)}
			}(i, at)
		}
		wg.Wait()

		for _, r := range results {
			if r.ok {
				result.PastHour = append(result.PastHour, weather.RainfallMapEntry{Time: r.at, URL: r.url})
			}
		}
		sort.Slice(result.PastHour, func(i, j int) bool {
			return result.PastHour[i].Time.Before(result.PastHour[j].Time)
		})

		if len(result.PastHour) == 0 {
			opErr = fmt.Errorf("no rainfall maps answered the probe")
			logger.Warn("rainfall maps unavailable")
			future.Complete(nil)
			return
		}

		span.SetAttributes(attribute.Int("maps", len(result.PastHour)))
		future.Complete(result)
	}()
	return future
}

// WeatherTips fetches the special weather tips list after a courtesy delay
// toward the upstream service. A feed without the tips key is an empty list,
// not a failure.
func (e *Engine) WeatherTips(ctx context.Context, lang string) *progress.Future[[]weather.Tip] {
	future := progress.New[[]weather.Tip]()
	table := tableFor(lang, e.cfg)

	go func() {
		ctx, span := e.tele.GetTracer().Start(ctx, "engine.WeatherTips")
		defer span.End()
		logger := e.requestLogger(ctx)
		start := e.now()
		var opErr error
		defer func() { e.recordOperation("weather_tips", start, opErr) }()

		if e.tipsDelay > 0 {
			select {
			case <-time.After(e.tipsDelay):
			case <-ctx.Done():
				opErr = ctx.Err()
				future.Complete(nil)
				return
			}
		}

		var feed tipsFeed
		if err := e.client.GetJSON(ctx, e.dataURL("/opendata/weather.php?dataType=swt&lang="+table.FeedLang), &feed); err != nil {
			logger.Error("weather tips fetch failed", zap.Error(err))
			opErr = err
			future.Complete(nil)
			return
		}

		tips := make([]weather.Tip, 0, len(feed.Tips))
		for _, tip := range feed.Tips {
			updated, err := time.Parse(time.RFC3339, tip.UpdateTime)
			if err != nil {
				continue
			}
			tips = append(tips, weather.Tip{Text: tip.Desc, UpdatedAt: updated})
		}
		future.Complete(tips)
	}()
	return future
}
