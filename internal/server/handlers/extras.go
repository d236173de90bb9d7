package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/metrowx/metro-weather/internal/prefs"
	"github.com/metrowx/metro-weather/internal/server/utils"
)

// ExtrasHandler serves the lunar calendar, rainfall map and weather tip
// endpoints.
type ExtrasHandler struct {
	engine Engine
	store  *prefs.Store
	logger *zap.Logger
}

func NewExtrasHandler(engine Engine, store *prefs.Store, logger *zap.Logger) *ExtrasHandler {
	return &ExtrasHandler{
		engine: engine,
		store:  store,
		logger: logger,
	}
}

func (h *ExtrasHandler) lang(c *gin.Context) string {
	if lang := c.Query("lang"); lang == "en" || lang == "zh" {
		return lang
	}
	return h.store.Current().Language
}

// Lunar returns the lunar calendar entry for the given date (today when the
// date parameter is absent).
func (h *ExtrasHandler) Lunar(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)

	date := time.Now().In(h.engine.Timezone())
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, h.engine.Timezone())
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "date must be formatted as YYYY-MM-DD",
				Code:    "INVALID_PARAMS",
				Details: err.Error(),
			})
			return
		}
		date = parsed
	}

	lunar, err := h.engine.LunarDate(ctx, date).Get(ctx)
	if err != nil {
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{Error: err.Error(), Code: "TIMEOUT"})
		return
	}
	if lunar == nil {
		retryUnavailable(c, "lunar calendar unavailable")
		return
	}

	c.JSON(http.StatusOK, LunarResponse{
		Year:        lunar.Year,
		Zodiac:      lunar.Zodiac,
		Date:        lunar.Date,
		Climatology: lunar.Climatology,
	})
}

// Rainfall returns the rainfall map URLs that answered the existence probes.
func (h *ExtrasHandler) Rainfall(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)

	maps, err := h.engine.RainfallMaps(ctx, h.lang(c)).Get(ctx)
	if err != nil {
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{Error: err.Error(), Code: "TIMEOUT"})
		return
	}
	if maps == nil {
		retryUnavailable(c, "rainfall maps unavailable")
		return
	}

	resp := RainfallResponse{
		PastHour:     make([]RainfallMapEntry, 0, len(maps.PastHour)),
		Past24Hours:  maps.Past24Hours,
		TodayURL:     maps.TodayURL,
		YesterdayURL: maps.YesterdayURL,
	}
	for _, entry := range maps.PastHour {
		resp.PastHour = append(resp.PastHour, RainfallMapEntry{
			Time: entry.Time.Format(time.RFC3339),
			URL:  entry.URL,
		})
	}

	c.JSON(http.StatusOK, resp)
}

// Tips returns the special weather tips. An empty list is a valid result.
func (h *ExtrasHandler) Tips(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)

	tips, err := h.engine.WeatherTips(ctx, h.lang(c)).Get(ctx)
	if err != nil {
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{Error: err.Error(), Code: "TIMEOUT"})
		return
	}
	if tips == nil {
		retryUnavailable(c, "weather tips unavailable")
		return
	}

	entries := make([]TipEntry, 0, len(tips))
	for _, tip := range tips {
		entries = append(entries, TipEntry{
			Text:      tip.Text,
			UpdatedAt: tip.UpdatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, entries)
}
