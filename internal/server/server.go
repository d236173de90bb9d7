package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/metrowx/metro-weather/internal/config"
	"github.com/metrowx/metro-weather/internal/prefs"
	"github.com/metrowx/metro-weather/internal/server/handlers"
	"github.com/metrowx/metro-weather/internal/server/middlewares"
	"github.com/metrowx/metro-weather/pkg/metrics"
	"github.com/metrowx/metro-weather/pkg/telemetry"
)

type Server struct {
	engine *gin.Engine
	server *http.Server
	logger *zap.Logger
	tele   *telemetry.Telemetry
}

// New wires the gin router: middlewares, the aggregation endpoints, health
// probes and the Prometheus scrape endpoint.
func New(eng handlers.Engine, store *prefs.Store, collector *metrics.Collector, registry *prometheus.Registry, logger *zap.Logger, tele *telemetry.Telemetry) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middlewares.RequestIDMiddleware(logger))
	router.Use(middlewares.LoggingMiddleware(logger, time.RFC3339, true))
	router.Use(middlewares.RecoveryMiddleware(logger, true))
	router.Use(middlewares.TelemetryMiddleware(logger, tele))
	router.Use(middlewares.MetricsMiddleware(collector))

	s := &Server{
		engine: router,
		logger: logger,
		tele:   tele,
	}

	weather := handlers.NewWeatherHandler(eng, store, logger)
	hazards := handlers.NewHazardsHandler(eng, store, logger)
	extras := handlers.NewExtrasHandler(eng, store, logger)
	preferences := handlers.NewPreferencesHandler(store, logger)
	health := handlers.NewHealthHandler(logger)

	v1 := router.Group("/v1")
	{
		v1.GET("/weather", weather.GetWeather)
		v1.GET("/warnings", hazards.Warnings)
		v1.GET("/cyclones", hazards.Cyclones)
		v1.GET("/lunar", extras.Lunar)
		v1.GET("/rainfall", extras.Rainfall)
		v1.GET("/tips", extras.Tips)
		v1.GET("/preferences", preferences.Get)
		v1.PUT("/preferences", preferences.Put)
	}

	router.GET("/health", health.Health)
	router.GET("/health/live", health.Liveness)
	router.GET("/health/ready", health.Readiness)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Start() error {
	cfg := config.GetConfig()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	s.logger.Info("starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}
