// Package config loads netradar settings with viper: defaults, an optional
// YAML file, NETRADAR_* environment variables and command-line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"netradar/internal/logger"
)

const envPrefix = "NETRADAR"

// MaxSnapLen is the largest snapshot length libpcap accepts.
const MaxSnapLen = 262144

// Capture backends.
const (
	BackendPcap   = "pcap"
	BackendFile   = "file"
	BackendTshark = "tshark"
)

type Config struct {
	Capture  CaptureConfig  `mapstructure:"capture"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	GeoIP    GeoIPConfig    `mapstructure:"geoip"`
	Report   ReportConfig   `mapstructure:"report"`
	Log      logger.Config  `mapstructure:"log"`
}

type CaptureConfig struct {
	Backend   string `mapstructure:"backend"`
	Interface string `mapstructure:"interface"`
	Filter    string `mapstructure:"filter"`
	File      string `mapstructure:"file"`
	SnapLen   int    `mapstructure:"snaplen"`
	Promisc   bool   `mapstructure:"promisc"`
	// Realtime paces file replay by the recorded timestamps.
	Realtime bool `mapstructure:"realtime"`
}

type PipelineConfig struct {
	TickInterval    time.Duration `mapstructure:"tick_interval"`
	QueueCapacity   int           `mapstructure:"queue_capacity"`
	HistoryCapacity int           `mapstructure:"history_capacity"`
	WindowSize      int           `mapstructure:"window_size"`
}

type MetricsConfig struct {
	// Listen is the address of the /metrics endpoint; empty disables it.
	Listen string `mapstructure:"listen"`
}

type GeoIPConfig struct {
	Database string `mapstructure:"database"`
}

type ReportConfig struct {
	// Dir receives an HTML session report on exit; empty disables it.
	Dir string `mapstructure:"dir"`
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"backend":        "capture.backend",
	"interface":      "capture.interface",
	"filter":         "capture.filter",
	"file":           "capture.file",
	"snaplen":        "capture.snaplen",
	"promisc":        "capture.promisc",
	"realtime":       "capture.realtime",
	"tick":           "pipeline.tick_interval",
	"queue-capacity": "pipeline.queue_capacity",
	"history":        "pipeline.history_capacity",
	"window":         "pipeline.window_size",
	"metrics-listen": "metrics.listen",
	"geoip-db":       "geoip.database",
	"report-dir":     "report.dir",
	"log-level":      "log.level",
	"log-file":       "log.file",
}

// Load reads the configuration. path may be empty. Flags that were set
// explicitly override every other source.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("capture.backend", BackendPcap)
	v.SetDefault("capture.interface", "")
	v.SetDefault("capture.filter", "")
	v.SetDefault("capture.file", "")
	v.SetDefault("capture.snaplen", 65536)
	v.SetDefault("capture.promisc", true)
	v.SetDefault("capture.realtime", false)

	v.SetDefault("pipeline.tick_interval", "100ms")
	v.SetDefault("pipeline.queue_capacity", 4096)
	v.SetDefault("pipeline.history_capacity", 1000)
	v.SetDefault("pipeline.window_size", 15)

	v.SetDefault("metrics.listen", "")
	v.SetDefault("geoip.database", "")
	v.SetDefault("report.dir", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("log.compress", false)
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	switch c.Capture.Backend {
	case BackendPcap, BackendTshark:
		if c.Capture.Interface == "" {
			return fmt.Errorf("capture.interface is required for the %s backend", c.Capture.Backend)
		}
	case BackendFile:
		if c.Capture.File == "" {
			return fmt.Errorf("capture.file is required for the file backend")
		}
	default:
		return fmt.Errorf("invalid capture backend: %q (must be pcap/file/tshark)", c.Capture.Backend)
	}
	if c.Capture.SnapLen <= 0 || c.Capture.SnapLen > MaxSnapLen {
		return fmt.Errorf("capture.snaplen must be between 1 and %d, got %d", MaxSnapLen, c.Capture.SnapLen)
	}

	p := c.Pipeline
	if p.TickInterval <= 0 {
		return fmt.Errorf("pipeline.tick_interval must be positive, got %s", p.TickInterval)
	}
	if p.QueueCapacity < 1 {
		return fmt.Errorf("pipeline.queue_capacity must be at least 1, got %d", p.QueueCapacity)
	}
	if p.HistoryCapacity < 1 {
		return fmt.Errorf("pipeline.history_capacity must be at least 1, got %d", p.HistoryCapacity)
	}
	if p.WindowSize < 1 || p.WindowSize > p.HistoryCapacity {
		return fmt.Errorf("pipeline.window_size must be between 1 and %d, got %d", p.HistoryCapacity, p.WindowSize)
	}

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be trace/debug/info/warn/error)", c.Log.Level)
	}
	return nil
}

// Source names where packets come from, for display.
func (c *Config) Source() string {
	if c.Capture.Backend == BackendFile {
		return c.Capture.File
	}
	return c.Capture.Interface
}
