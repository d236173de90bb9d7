package config

import (
	"sync/atomic"
)

var configValue atomic.Value

func GetConfig() *Config {
	return configValue.Load().(*Config)
}

func SetConfig(cfg *Config) {
	configValue.Store(cfg)
}

type Config struct {
	Version     string          `mapstructure:"version"`
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Upstream    UpstreamConfig  `mapstructure:"upstream"`
	Engine      EngineConfig    `mapstructure:"engine"`
	Prefs       PrefsConfig     `mapstructure:"prefs"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	Host         string `mapstructure:"host"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
}

// UpstreamConfig names the feed hosts and the transport contract applied to
// every call against them.
type UpstreamConfig struct {
	DataBaseURL     string `mapstructure:"data_base_url"`
	MobileBaseURL   string `mapstructure:"mobile_base_url"`
	ForecastBaseURL string `mapstructure:"forecast_base_url"`
	RainfallBaseURL string `mapstructure:"rainfall_base_url"`
	Timeout         int    `mapstructure:"timeout"`
	UserAgent       string `mapstructure:"user_agent"`
	TipsDelay       int    `mapstructure:"tips_delay"`
}

// EngineConfig tunes the aggregation engine. DefaultLatitude/DefaultLongitude
// is the locality center used when a request carries no location fix.
type EngineConfig struct {
	Workers             int     `mapstructure:"workers"`
	DistanceThresholdKm float64 `mapstructure:"distance_threshold_km"`
	DefaultLatitude     float64 `mapstructure:"default_latitude"`
	DefaultLongitude    float64 `mapstructure:"default_longitude"`
	DefaultLocalityEn   string  `mapstructure:"default_locality_en"`
	DefaultLocalityZh   string  `mapstructure:"default_locality_zh"`
	Timezone            string  `mapstructure:"timezone"`
	CacheTTL            int     `mapstructure:"cache_ttl"`
}

type PrefsConfig struct {
	Path string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Version:     "1.0.0",
		Environment: "development",
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  60,
		},
		Upstream: UpstreamConfig{
			DataBaseURL:     "https://data.weather.gov.hk/weatherAPI",
			MobileBaseURL:   "https://pda.weather.gov.hk/locspc/android_data",
			ForecastBaseURL: "https://maps.weather.gov.hk/ocf/dat",
			RainfallBaseURL: "https://www.hko.gov.hk/wxinfo/rainfall/cokrig_barnes",
			Timeout:         20,
			UserAgent:       "Mozilla/5.0",
			TipsDelay:       5,
		},
		Engine: EngineConfig{
			Workers:             12,
			DistanceThresholdKm: 100,
			DefaultLatitude:     22.3019444,
			DefaultLongitude:    114.1741666,
			DefaultLocalityEn:   "Hong Kong",
			DefaultLocalityZh:   "香港",
			Timezone:            "Asia/Hong_Kong",
			CacheTTL:            300,
		},
		Prefs: PrefsConfig{
			Path: "preferences.json",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "",
		},
		Telemetry: TelemetryConfig{
			Enabled:  false,
			Endpoint: "tempo:4317",
		},
	}
}
