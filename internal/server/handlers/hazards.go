package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/metrowx/metro-weather/internal/prefs"
	"github.com/metrowx/metro-weather/internal/server/utils"
)

// HazardsHandler serves the warning and tropical cyclone endpoints.
type HazardsHandler struct {
	engine Engine
	store  *prefs.Store
	logger *zap.Logger
}

func NewHazardsHandler(engine Engine, store *prefs.Store, logger *zap.Logger) *HazardsHandler {
	return &HazardsHandler{
		engine: engine,
		store:  store,
		logger: logger,
	}
}

func (h *HazardsHandler) lang(c *gin.Context) string {
	if lang := c.Query("lang"); lang == "en" || lang == "zh" {
		return lang
	}
	return h.store.Current().Language
}

// Warnings lists the currently active hazard warnings, sorted by code.
func (h *HazardsHandler) Warnings(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)
	lang := h.lang(c)

	warnings, err := h.engine.ActiveWarnings(ctx, lang).Get(ctx)
	if err != nil {
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{Error: err.Error(), Code: "TIMEOUT"})
		return
	}
	if warnings == nil {
		retryUnavailable(c, "warning summary unavailable")
		return
	}

	entries := make([]WarningEntry, 0, len(warnings))
	for warningType, text := range warnings {
		name := warningType.NameEn()
		if lang == "zh" {
			name = warningType.NameZh()
		}
		entries = append(entries, WarningEntry{
			Code: string(warningType),
			Name: name,
			Text: text,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Code < entries[j].Code })

	c.JSON(http.StatusOK, entries)
}

// Cyclones lists the tracked tropical cyclones with their track image URLs.
func (h *HazardsHandler) Cyclones(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)

	list, err := h.engine.TropicalCyclones(ctx).Get(ctx)
	if err != nil {
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{Error: err.Error(), Code: "TIMEOUT"})
		return
	}
	if list == nil {
		retryUnavailable(c, "cyclone index unavailable")
		return
	}

	entries := make([]CycloneEntry, 0, len(list))
	for _, tc := range list {
		entries = append(entries, CycloneEntry{
			ID:                tc.ID,
			DisplayOrder:      tc.DisplayOrder,
			NameEn:            tc.NameEn,
			NameZh:            tc.NameZh,
			TrackImageURL:     tc.TrackImageURL,
			TrackZoomImageURL: tc.TrackZoomImageURL,
		})
	}

	c.JSON(http.StatusOK, entries)
}
