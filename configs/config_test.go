package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultIterations, cfg.Sampler.Iterations)
	assert.Equal(t, time.Second, cfg.Sampler.IntervalDuration())
	assert.Equal(t, ServiceStatic, cfg.Service.Type)
	assert.Equal(t, "INFO", cfg.Agent.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.Service.TimeoutDuration())
	assert.False(t, cfg.Metrics.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
agent:
  log_level: DEBUG
  options: classes_dir=bin
sampler:
  iterations: 5
  interval: 250ms
service:
  type: http
  url: http://localhost:8080/value
  json_path: data.value
  params:
    source: main
metrics:
  enabled: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Sampler.Iterations)
	assert.Equal(t, 250*time.Millisecond, cfg.Sampler.IntervalDuration())
	assert.Equal(t, ServiceHTTP, cfg.Service.Type)
	assert.Equal(t, "data.value", cfg.Service.JSONPath)
	assert.Equal(t, map[string]string{"source": "main"}, cfg.Service.Params)
	assert.Equal(t, ":9464", cfg.Metrics.ListenAddress)
	assert.Equal(t, AgentOptions{ClassesDir: "bin"}, cfg.AgentOptions())
}

func TestLoadConfigYAMLKeepsZeroIterations(t *testing.T) {
	path := writeFile(t, "config.yaml", `
sampler:
  iterations: 0
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Sampler.Iterations)
}

func TestLoadConfigYAMLDefaultIterations(t *testing.T) {
	path := writeFile(t, "config.yaml", `
service:
  type: static
  value: 7
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultIterations, cfg.Sampler.Iterations)
	assert.Equal(t, 7, cfg.Service.Value)
}

func TestLoadConfigTOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
[agent]
log_level = "WARN"

[sampler]
iterations = 5
interval = "2s"

[service]
type = "file"
path = "service.value"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "WARN", cfg.Agent.LogLevel)
	assert.Equal(t, 5, cfg.Sampler.Iterations)
	assert.Equal(t, 2*time.Second, cfg.Sampler.IntervalDuration())
	assert.Equal(t, ServiceFile, cfg.Service.Type)
	assert.Equal(t, "service.value", cfg.Service.Path)
}

func TestLoadConfigTOMLDefaultIterations(t *testing.T) {
	path := writeFile(t, "config.toml", `
[service]
type = "static"
value = 3
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultIterations, cfg.Sampler.Iterations)
	assert.Equal(t, 3, cfg.Service.Value)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "sampler: [")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML file")
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "negative iterations",
			mutate:  func(c *Config) { c.Sampler.Iterations = -1 },
			wantErr: "must not be negative",
		},
		{
			name:    "bad interval",
			mutate:  func(c *Config) { c.Sampler.Interval = "soon" },
			wantErr: "invalid sampler.interval",
		},
		{
			name:    "negative interval",
			mutate:  func(c *Config) { c.Sampler.Interval = "-1s" },
			wantErr: "must not be negative",
		},
		{
			name:    "unknown service",
			mutate:  func(c *Config) { c.Service.Type = "jvm" },
			wantErr: "unknown service.type",
		},
		{
			name:    "file without path",
			mutate:  func(c *Config) { c.Service.Type = ServiceFile },
			wantErr: "service.path is required",
		},
		{
			name:    "http without url",
			mutate:  func(c *Config) { c.Service.Type = ServiceHTTP },
			wantErr: "service.url is required",
		},
		{
			name: "http with zero timeout",
			mutate: func(c *Config) {
				c.Service.Type = ServiceHTTP
				c.Service.URL = "http://localhost"
				c.Service.Timeout = "0s"
			},
			wantErr: "service.timeout must be positive",
		},
		{
			name:    "ebpf without map",
			mutate:  func(c *Config) { c.Service.Type = ServiceEBPF },
			wantErr: "service.map_path is required",
		},
		{
			name:    "bad agent options",
			mutate:  func(c *Config) { c.Agent.Options = "verbose" },
			wantErr: "invalid agent.options",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Agent.LogLevel = "LOUD" },
			wantErr: "invalid agent.log_level",
		},
		{
			name: "metrics without address",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.ListenAddress = ""
			},
			wantErr: "metrics.listen_address is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAgentOptionsIgnoresInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Agent.Options = "nonsense"

	assert.Equal(t, AgentOptions{}, cfg.AgentOptions())
}
