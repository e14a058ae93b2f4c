// Package config provides the immutable runtime configuration for the
// exporter. A single Config is built at startup and passed explicitly into
// each component; nothing reconfigures at runtime.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Defaults for the configuration surface.
const (
	DefaultCtlSocket       = "/run/knot/knot.sock"
	DefaultCtlTimeout      = 2 * time.Second
	DefaultCtlFlags        = "F" // all supported counters
	DefaultInfluxHost      = "127.0.0.1"
	DefaultInfluxPort      = 8086
	DefaultInfluxDB        = "dns"
	DefaultInfluxPrecision = "s"
	DefaultInfluxTimeout   = 10 * time.Second
	DefaultInterval        = 10 * time.Second
	DefaultLogLevel        = "info"
)

// Config is the exporter's fixed process-lifetime configuration.
type Config struct {
	// Control channel.
	CtlSocket  string        `mapstructure:"ctl-socket"`
	CtlTimeout time.Duration `mapstructure:"ctl-timeout"`
	CtlFlags   string        `mapstructure:"ctl-flags"`
	Zone       string        `mapstructure:"zone"`

	// Time-series write endpoint.
	InfluxHost      string        `mapstructure:"influx-host"`
	InfluxPort      int           `mapstructure:"influx-port"`
	InfluxDB        string        `mapstructure:"influx-db"`
	InfluxPrecision string        `mapstructure:"influx-precision"`
	InfluxTimeout   time.Duration `mapstructure:"influx-timeout"`

	// Pipeline.
	Instance  string        `mapstructure:"instance"`
	Interval  time.Duration `mapstructure:"interval"`
	SelfStats bool          `mapstructure:"self-stats"`

	// Logging.
	LogLevel string `mapstructure:"log-level"`
	LogFile  string `mapstructure:"log-file"`
}

// Load reads the configuration from the given file path, falling back to
// /etc/dnsflux/config.yml. A missing file is not an error; defaults and
// DNSFLUX_* environment variables still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DNSFLUX")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("ctl-socket", DefaultCtlSocket)
	v.SetDefault("ctl-timeout", DefaultCtlTimeout)
	v.SetDefault("ctl-flags", DefaultCtlFlags)
	v.SetDefault("zone", "")
	v.SetDefault("influx-host", DefaultInfluxHost)
	v.SetDefault("influx-port", DefaultInfluxPort)
	v.SetDefault("influx-db", DefaultInfluxDB)
	v.SetDefault("influx-precision", DefaultInfluxPrecision)
	v.SetDefault("influx-timeout", DefaultInfluxTimeout)
	v.SetDefault("instance", "")
	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("self-stats", true)
	v.SetDefault("log-level", DefaultLogLevel)
	v.SetDefault("log-file", "")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigFile("/etc/dnsflux/config.yml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Instance == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		cfg.Instance = hostname
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.CtlSocket == "" {
		return fmt.Errorf("ctl-socket is required")
	}
	if c.CtlTimeout <= 0 {
		return fmt.Errorf("ctl-timeout must be positive, got %s", c.CtlTimeout)
	}
	if c.InfluxHost == "" {
		return fmt.Errorf("influx-host is required")
	}
	if c.InfluxPort <= 0 || c.InfluxPort > 65535 {
		return fmt.Errorf("invalid influx-port: %d", c.InfluxPort)
	}
	if c.InfluxDB == "" {
		return fmt.Errorf("influx-db is required")
	}
	if c.InfluxPrecision != "" && c.InfluxPrecision != "s" {
		return fmt.Errorf("influx-precision must be empty or \"s\", got %q", c.InfluxPrecision)
	}
	if c.InfluxTimeout <= 0 {
		return fmt.Errorf("influx-timeout must be positive, got %s", c.InfluxTimeout)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}
	return nil
}
