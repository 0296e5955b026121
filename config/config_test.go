package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `playback:
  step_delay_ms: 50
  settle_delay_ms: 100
  concurrent: true
scheduler:
  url: "http://scheduler:8000"
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  client_id: "cli"
  topic_prefix: "wh"
metrics:
  sinks:
    - type: "nop"
journal:
  backend: "sqlite"
  path: "journal.db"
logging:
  level: "debug"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"step_delay", cfg.Playback.StepDelay(), 50 * time.Millisecond},
		{"settle_delay", cfg.Playback.SettleDelay(), 100 * time.Millisecond},
		{"concurrent", cfg.Playback.Concurrent, true},
		{"scheduler.url", cfg.Scheduler.URL, "http://scheduler:8000"},
		{"scheduler.timeout", cfg.Scheduler.TimeoutSeconds, 10},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "cli"},
		{"topic_prefix", cfg.MQTT.TopicPrefix, "wh"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"prometheus_addr", cfg.Metrics.PrometheusAddr, ":9090"},
		{"journal", cfg.Journal.Backend, "sqlite"},
		{"server.addr", cfg.Server.Addr, ":8080"},
		{"logging.level", cfg.Logging.Level, "debug"},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.json", `{"playback": {"step_delay_ms": 10, "settle_delay_ms": 20}}`)
	t.Setenv("K_PLAYBACK__STEP_DELAY_MS", "30")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Millisecond, cfg.Playback.StepDelay())
	assert.Equal(t, 20*time.Millisecond, cfg.Playback.SettleDelay())
}

func TestLoadDefaultsTiming(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.json", `{}`))
	require.NoError(t, err)
	assert.Equal(t, 200*time.Millisecond, cfg.Playback.StepDelay())
	assert.Equal(t, 500*time.Millisecond, cfg.Playback.SettleDelay())
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"negative delay":   `{"playback": {"step_delay_ms": -1}}`,
		"journal path":     `{"journal": {"backend": "jsonl"}}`,
		"unknown backend":  `{"journal": {"backend": "csv", "path": "x"}}`,
		"mqtt broker":      `{"mqtt": {"enabled": true}}`,
		"log level":        `{"logging": {"level": "loud"}}`,
		"server addr":      `{"server": {"addr": "8080"}}`,
		"scheduler scheme": `{"scheduler": {"url": "scheduler:8000"}}`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "config.json", data))
			assert.Error(t, err)
		})
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	_, err := Load(writeConfig(t, "config.toml", ""))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "warehouse", cfg.MQTT.TopicPrefix)
	assert.Equal(t, 1.0, cfg.Sentry.SampleRate)
	assert.Empty(t, cfg.Server.Token)
}
