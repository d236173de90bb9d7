package cmd

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/metrowx/metro-weather/internal/aggregator"
	"github.com/metrowx/metro-weather/internal/config"
	"github.com/metrowx/metro-weather/internal/fetch"
	"github.com/metrowx/metro-weather/internal/prefs"
	"github.com/metrowx/metro-weather/internal/refresher"
	"github.com/metrowx/metro-weather/internal/server"
	"github.com/metrowx/metro-weather/internal/stations"
	"github.com/metrowx/metro-weather/pkg/metrics"
)

var (
	configPath string
	serverCmd  = &cobra.Command{
		Use:   "server",
		Short: "Start the weather aggregation server",
		Long:  `Start the HTTP server that assembles weather snapshots from the observatory's open data feeds, keeps the default-location snapshot warm, and exposes health and metrics endpoints.`,
		RunE:  runServer,
	}
)

func init() {
	serverCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to configuration file (default: ./config.yaml)")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()

	log.Info("starting weather aggregation server",
		zap.String("config_path", configPath),
		zap.Bool("telemetry_enabled", cfg.Telemetry.Enabled),
		zap.Int("server_port", cfg.Server.Port))

	index, err := stations.Load()
	if err != nil {
		log.Error("station table load failed", zap.Error(err))
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector("metro_weather", registry)

	client := fetch.NewHTTPClient(fetch.Config{
		Timeout:   time.Duration(cfg.Upstream.Timeout) * time.Second,
		UserAgent: cfg.Upstream.UserAgent,
	}, collector)

	engine, err := aggregator.New(cfg, index, client, log, tele)
	if err != nil {
		log.Error("engine initialization failed", zap.Error(err))
		return err
	}
	engine.SetMetricsRecorder(collector)

	store, err := prefs.Open(cfg.Prefs.Path, nil, log)
	if err != nil {
		log.Error("preference store open failed", zap.Error(err))
		return err
	}
	ref := refresher.New(engine, store, log)
	store.SetNotifier(ref)

	if err := ref.Start(); err != nil {
		log.Error("refresher start failed", zap.Error(err))
		return err
	}
	defer ref.Stop()

	srv := server.New(engine, store, collector, registry, log, tele)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		log.Error("server error", zap.Error(err))
		return err
	case <-cmd.Context().Done():
		log.Info("shutting down server")

		if err := srv.Shutdown(); err != nil {
			log.Error("error during server shutdown", zap.Error(err))
			return err
		}

		log.Info("server shutdown complete")
		return nil
	}
}
