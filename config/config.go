// Package config loads settings from config.yaml, .env and SCOUT_ environment variables.
package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kuanb/scout-choropleth/cache"
	"kuanb/scout-choropleth/geom"
	"kuanb/scout-choropleth/scene"
	"kuanb/scout-choropleth/source"
)

// Config holds the full application configuration.
type Config struct {
	Map    MapConfig    `yaml:"map" mapstructure:"map"`
	Source SourceConfig `yaml:"source" mapstructure:"source"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Cache  CacheConfig  `yaml:"cache" mapstructure:"cache"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// MetricConfig styles one metric.
type MetricConfig struct {
	Label   string   `yaml:"label" mapstructure:"label"`
	Palette []string `yaml:"palette" mapstructure:"palette"`
}

// MapConfig configures classification and rendering.
type MapConfig struct {
	Width       float64                 `yaml:"width" mapstructure:"width"`
	Height      float64                 `yaml:"height" mapstructure:"height"`
	Padding     float64                 `yaml:"padding" mapstructure:"padding"`
	Bins        int                     `yaml:"bins" mapstructure:"bins"`
	NoDataColor string                  `yaml:"no_data_color" mapstructure:"no_data_color"`
	StrokeColor string                  `yaml:"stroke_color" mapstructure:"stroke_color"`
	StrokeWidth float64                 `yaml:"stroke_width" mapstructure:"stroke_width"`
	Currency    string                  `yaml:"currency" mapstructure:"currency"`
	HitRadius   float64                 `yaml:"hit_radius" mapstructure:"hit_radius"`
	Metrics     map[string]MetricConfig `yaml:"metrics" mapstructure:"metrics"`
}

// SourceConfig selects where region snapshots come from.
type SourceConfig struct {
	Driver      string   `yaml:"driver" mapstructure:"driver"`
	Path        string   `yaml:"path" mapstructure:"path"`
	MetricsPath string   `yaml:"metrics_path" mapstructure:"metrics_path"`
	DatabaseURL string   `yaml:"database_url" mapstructure:"database_url"`
	Table       string   `yaml:"table" mapstructure:"table"`
	AdminLevels []string `yaml:"admin_levels" mapstructure:"admin_levels"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	RateLimit   float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst   int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// CacheConfig configures the rendered map cache.
type CacheConfig struct {
	RedisAddr     string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int    `yaml:"redis_db" mapstructure:"redis_db"`
	TTLSecs       int    `yaml:"ttl_secs" mapstructure:"ttl_secs"`

	// MemoryMaxEntries caps the in-process fallback cache
	MemoryMaxEntries int `yaml:"memory_max_entries" mapstructure:"memory_max_entries"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: read .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	style := scene.DefaultStyle()
	v.SetDefault("map.width", 960)
	v.SetDefault("map.height", 600)
	v.SetDefault("map.padding", style.Padding)
	v.SetDefault("map.bins", style.Bins)
	v.SetDefault("map.no_data_color", style.NoDataColor)
	v.SetDefault("map.stroke_color", style.StrokeColor)
	v.SetDefault("map.stroke_width", style.StrokeWidth)
	v.SetDefault("map.currency", "₱")
	v.SetDefault("map.hit_radius", style.HitRadius)
	for m, ms := range style.Metrics {
		v.SetDefault("map.metrics."+string(m)+".label", ms.Label)
		v.SetDefault("map.metrics."+string(m)+".palette", ms.Palette)
	}
	v.SetDefault("source.driver", source.DriverFile)
	v.SetDefault("source.path", "data/regions.geojson")
	v.SetDefault("source.metrics_path", "")
	v.SetDefault("source.database_url", "")
	v.SetDefault("source.table", source.DefaultTable)
	v.SetDefault("source.admin_levels", source.DefaultAdminLevels)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 20)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	// empty keys are registered so environment overrides reach Unmarshal
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl_secs", int(cache.DefaultTTL/time.Second))
	v.SetDefault("cache.memory_max_entries", cache.DefaultMaxEntries)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Style converts the map section into a validated scene style.
func (c MapConfig) Style() (scene.Style, error) {
	st := scene.Style{
		Metrics:     make(map[geom.Metric]scene.MetricStyle, len(c.Metrics)),
		Bins:        c.Bins,
		NoDataColor: c.NoDataColor,
		StrokeColor: c.StrokeColor,
		StrokeWidth: c.StrokeWidth,
		Currency:    c.Currency,
		Padding:     c.Padding,
		HitRadius:   c.HitRadius,
	}
	for name, mc := range c.Metrics {
		m, err := geom.ParseMetric(name)
		if err != nil {
			return scene.Style{}, eris.Wrap(err, "config: map.metrics")
		}
		st.Metrics[m] = scene.MetricStyle{Label: mc.Label, Palette: mc.Palette}
	}
	if err := st.Validate(); err != nil {
		return scene.Style{}, eris.Wrap(err, "config: invalid map style")
	}
	return st, nil
}

// Options converts the source section into source options.
func (c SourceConfig) Options() source.Options {
	return source.Options{
		Driver:      c.Driver,
		Path:        c.Path,
		MetricsPath: c.MetricsPath,
		DatabaseURL: c.DatabaseURL,
		Table:       c.Table,
		AdminLevels: c.AdminLevels,
	}
}

// TTL returns the cache TTL as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSecs) * time.Second
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
