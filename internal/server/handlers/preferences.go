package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/metrowx/metro-weather/internal/geo"
	"github.com/metrowx/metro-weather/internal/prefs"
	"github.com/metrowx/metro-weather/internal/server/utils"
)

// PreferencesHandler reads and writes the stored preferences. A successful
// write notifies the refresher, which reschedules and re-primes the cache.
type PreferencesHandler struct {
	store  *prefs.Store
	logger *zap.Logger
}

func NewPreferencesHandler(store *prefs.Store, logger *zap.Logger) *PreferencesHandler {
	return &PreferencesHandler{
		store:  store,
		logger: logger,
	}
}

func (h *PreferencesHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, docFromPreferences(h.store.Current()))
}

// Put overlays the provided fields onto the current preferences. Absent
// fields keep their stored values.
func (h *PreferencesHandler) Put(c *gin.Context) {
	var doc PreferencesDoc
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid preference payload",
			Code:    "INVALID_PARAMS",
			Details: err.Error(),
		})
		return
	}
	if err := utils.GetValidator().Struct(&doc); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid preference payload",
			Code:    "INVALID_PARAMS",
			Details: err.Error(),
		})
		return
	}

	p := h.store.Current()
	if doc.Language != "" {
		p.Language = doc.Language
	}
	if doc.RefreshRate > 0 {
		p.RefreshRate = time.Duration(doc.RefreshRate) * time.Millisecond
	}
	if doc.Location != nil {
		if (doc.Location.Lat == nil) != (doc.Location.Lng == nil) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "location lat and lng must be given together",
				Code:  "INVALID_PARAMS",
			})
			return
		}
		loc := prefs.Location{Label: doc.Location.Label}
		if doc.Location.Lat != nil {
			loc.Coord = &geo.Coordinate{Latitude: *doc.Location.Lat, Longitude: *doc.Location.Lng}
		}
		p.Location = loc
	}

	if err := h.store.Save(p); err != nil {
		h.logger.Error("preference write failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "preference write failed",
			Code:  "STORAGE_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, docFromPreferences(p))
}

func docFromPreferences(p prefs.Preferences) PreferencesDoc {
	doc := PreferencesDoc{
		Language:    p.Language,
		RefreshRate: p.RefreshRate.Milliseconds(),
	}
	if p.Location.Label != "" || p.Location.Coord != nil {
		loc := &LocationDoc{Label: p.Location.Label}
		if p.Location.Coord != nil {
			loc.Lat = &p.Location.Coord.Latitude
			loc.Lng = &p.Location.Coord.Longitude
		}
		doc.Location = loc
	}
	return doc
}
