package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dnsflux/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yml")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultCtlSocket, cfg.CtlSocket)
	assert.Equal(t, config.DefaultCtlTimeout, cfg.CtlTimeout)
	assert.Equal(t, config.DefaultCtlFlags, cfg.CtlFlags)
	assert.Equal(t, config.DefaultInfluxHost, cfg.InfluxHost)
	assert.Equal(t, config.DefaultInfluxPort, cfg.InfluxPort)
	assert.Equal(t, config.DefaultInfluxDB, cfg.InfluxDB)
	assert.Equal(t, config.DefaultInfluxPrecision, cfg.InfluxPrecision)
	assert.Equal(t, config.DefaultInterval, cfg.Interval)
	assert.True(t, cfg.SelfStats)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)

	hostname, err := os.Hostname()
	require.NoError(t, err)
	assert.Equal(t, hostname, cfg.Instance, "instance defaults to the hostname")
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
ctl-socket: /tmp/knot.sock
ctl-timeout: 5s
ctl-flags: F
zone: example.com.
influx-host: db.internal
influx-port: 9086
influx-db: KnotDNS
influx-timeout: 3s
instance: Knot1
interval: 30s
self-stats: false
log-level: debug
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/knot.sock", cfg.CtlSocket)
	assert.Equal(t, 5*time.Second, cfg.CtlTimeout)
	assert.Equal(t, "example.com.", cfg.Zone)
	assert.Equal(t, "db.internal", cfg.InfluxHost)
	assert.Equal(t, 9086, cfg.InfluxPort)
	assert.Equal(t, "KnotDNS", cfg.InfluxDB)
	assert.Equal(t, 3*time.Second, cfg.InfluxTimeout)
	assert.Equal(t, "Knot1", cfg.Instance)
	assert.Equal(t, 30*time.Second, cfg.Interval)
	assert.False(t, cfg.SelfStats)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DNSFLUX_INFLUX_DB", "FromEnv")
	t.Setenv("DNSFLUX_INSTANCE", "Knot2")

	path := filepath.Join(t.TempDir(), "missing.yml")
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "FromEnv", cfg.InfluxDB)
	assert.Equal(t, "Knot2", cfg.Instance)
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "ctl-socket: [not\n  closed")

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() config.Config {
		return config.Config{
			CtlSocket:       "/tmp/knot.sock",
			CtlTimeout:      2 * time.Second,
			CtlFlags:        "F",
			InfluxHost:      "127.0.0.1",
			InfluxPort:      8086,
			InfluxDB:        "dns",
			InfluxPrecision: "s",
			InfluxTimeout:   10 * time.Second,
			Instance:        "Knot1",
			Interval:        10 * time.Second,
			LogLevel:        "info",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *config.Config) {}},
		{
			name:    "missing socket",
			mutate:  func(c *config.Config) { c.CtlSocket = "" },
			wantErr: "ctl-socket",
		},
		{
			name:    "zero control timeout",
			mutate:  func(c *config.Config) { c.CtlTimeout = 0 },
			wantErr: "ctl-timeout",
		},
		{
			name:    "missing influx host",
			mutate:  func(c *config.Config) { c.InfluxHost = "" },
			wantErr: "influx-host",
		},
		{
			name:    "port out of range",
			mutate:  func(c *config.Config) { c.InfluxPort = 70000 },
			wantErr: "influx-port",
		},
		{
			name:    "missing database",
			mutate:  func(c *config.Config) { c.InfluxDB = "" },
			wantErr: "influx-db",
		},
		{
			name:    "bad precision",
			mutate:  func(c *config.Config) { c.InfluxPrecision = "ns" },
			wantErr: "influx-precision",
		},
		{
			name:    "negative interval",
			mutate:  func(c *config.Config) { c.Interval = -time.Second },
			wantErr: "interval",
		},
		{
			name:    "bad log level",
			mutate:  func(c *config.Config) { c.LogLevel = "verbose" },
			wantErr: "log-level",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
