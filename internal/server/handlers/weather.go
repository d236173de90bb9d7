package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/metrowx/metro-weather/internal/geo"
	"github.com/metrowx/metro-weather/internal/prefs"
	"github.com/metrowx/metro-weather/internal/server/utils"
	"github.com/metrowx/metro-weather/internal/weather"
)

type WeatherHandler struct {
	engine Engine
	store  *prefs.Store
	logger *zap.Logger
}

func NewWeatherHandler(engine Engine, store *prefs.Store, logger *zap.Logger) *WeatherHandler {
	return &WeatherHandler{
		engine: engine,
		store:  store,
		logger: logger,
	}
}

// GetWeather assembles one snapshot and blocks until the aggregation
// resolves. A failed aggregation carries no partial data; it maps to 503 with
// a retry affordance.
func (h *WeatherHandler) GetWeather(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)
	reqLogger := h.logger.With(zap.String("request_id", utils.GetRequestIDFromGinContext(c)))

	var req WeatherRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		reqLogger.Warn("invalid request parameters", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid request parameters",
			Code:    "INVALID_PARAMS",
			Details: err.Error(),
		})
		return
	}
	if err := utils.GetValidator().Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid request parameters",
			Code:    "INVALID_PARAMS",
			Details: err.Error(),
		})
		return
	}
	if (req.Lat == nil) != (req.Lng == nil) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "lat and lng must be given together",
			Code:  "INVALID_PARAMS",
		})
		return
	}

	var fix *geo.Coordinate
	if req.Lat != nil {
		fix = &geo.Coordinate{Latitude: *req.Lat, Longitude: *req.Lng}
	}
	lang := req.Lang
	if lang == "" {
		lang = h.store.Current().Language
	}

	snap, err := h.engine.CurrentWeather(ctx, fix, lang).Get(ctx)
	if err != nil {
		reqLogger.Warn("weather request abandoned", zap.Error(err))
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{
			Error:   "request cancelled before the snapshot resolved",
			Code:    "TIMEOUT",
			Details: err.Error(),
		})
		return
	}
	if snap == nil {
		retryUnavailable(c, "snapshot aggregation failed upstream")
		return
	}

	body, err := weather.EncodeSnapshot(snap)
	if err != nil {
		reqLogger.Error("snapshot encode failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "snapshot encode failed",
			Code:  "ENCODE_ERROR",
		})
		return
	}

	reqLogger.Info("weather request completed",
		zap.String("lang", lang),
		zap.String("station", snap.StationName))
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// retryUnavailable is the shared nil-future response. The client must retry;
// there is never a partial snapshot to serve.
func retryUnavailable(c *gin.Context, msg string) {
	c.Header("Retry-After", "30")
	c.JSON(http.StatusServiceUnavailable, RetryResponse{
		Error:      msg,
		Code:       "UPSTREAM_UNAVAILABLE",
		RetryAfter: 30,
	})
}
