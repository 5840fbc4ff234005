package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	ServiceStatic = "static"
	ServiceFile   = "file"
	ServiceHTTP   = "http"
	ServiceEBPF   = "ebpf"
)

// DefaultIterations is the iteration bound used when none is configured.
const DefaultIterations = 30

// ServiceTypes lists the service backends the agent knows how to build.
var ServiceTypes = []string{ServiceStatic, ServiceFile, ServiceHTTP, ServiceEBPF}

// LoadConfig loads configuration from a YAML or TOML file
func LoadConfig(configPath string) (*Config, error) {
	logrus.Infof("Loading configuration from: %s", configPath)

	// Check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file does not exist: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Zero is a valid iteration bound, so the default is applied before decoding
	config := Config{Sampler: SamplerConfig{Iterations: DefaultIterations}}
	if strings.EqualFold(filepath.Ext(configPath), ".toml") {
		tree, err := toml.LoadBytes(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse TOML file: %w", err)
		}
		if err := tree.Unmarshal(&config); err != nil {
			return nil, fmt.Errorf("failed to decode TOML file: %w", err)
		}
		if !tree.Has("sampler.iterations") {
			config.Sampler.Iterations = DefaultIterations
		}
	} else {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML file: %w", err)
		}
	}

	// Validate and set defaults
	setDefaults(&config)
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	logrus.Info("Configuration loaded successfully")
	return &config, nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	config := &Config{Sampler: SamplerConfig{Iterations: DefaultIterations}}
	setDefaults(config)
	return config
}

// Validate re-checks a configuration after flag overrides were applied.
func (c *Config) Validate() error {
	return validateConfig(c)
}

// IntervalDuration returns the parsed sampling interval.
func (c *SamplerConfig) IntervalDuration() time.Duration {
	d, err := time.ParseDuration(c.Interval)
	if err != nil {
		return 0
	}
	return d
}

// TimeoutDuration returns the parsed request timeout of the http service.
func (c *ServiceConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// AgentOptions parses the agent argument. Call after validation.
func (c *Config) AgentOptions() AgentOptions {
	opts, err := ParseAgentOptions(c.Agent.Options)
	if err != nil {
		logrus.Warnf("Ignoring invalid agent options %q: %v", c.Agent.Options, err)
		return AgentOptions{}
	}
	return opts
}

func setDefaults(config *Config) {
	// Agent defaults
	if config.Agent.LogLevel == "" {
		config.Agent.LogLevel = "INFO"
	}

	// Sampler defaults
	if config.Sampler.Interval == "" {
		config.Sampler.Interval = "1s"
	}

	// Service defaults
	if config.Service.Type == "" {
		config.Service.Type = ServiceStatic
	}
	if config.Service.Timeout == "" {
		config.Service.Timeout = "10s"
	}
	if config.Service.Params == nil {
		config.Service.Params = make(map[string]string)
	}

	// Metrics defaults
	if config.Metrics.ListenAddress == "" {
		config.Metrics.ListenAddress = ":9464"
	}
	if config.Metrics.Namespace == "" {
		config.Metrics.Namespace = "sampler_agent"
	}

	logrus.Debug("Default values applied to configuration")
}

func validateConfig(config *Config) error {
	if config.Sampler.Iterations < 0 {
		return fmt.Errorf("sampler.iterations must not be negative: %d", config.Sampler.Iterations)
	}

	interval, err := time.ParseDuration(config.Sampler.Interval)
	if err != nil {
		return fmt.Errorf("invalid sampler.interval %q: %w", config.Sampler.Interval, err)
	}
	if interval < 0 {
		return fmt.Errorf("sampler.interval must not be negative: %s", config.Sampler.Interval)
	}

	if _, err := ParseAgentOptions(config.Agent.Options); err != nil {
		return fmt.Errorf("invalid agent.options: %w", err)
	}

	if _, err := logrus.ParseLevel(config.Agent.LogLevel); err != nil {
		return fmt.Errorf("invalid agent.log_level: %s", config.Agent.LogLevel)
	}

	svc := config.Service
	if !lo.Contains(ServiceTypes, svc.Type) {
		return fmt.Errorf("unknown service.type %q, supported types: %s", svc.Type, strings.Join(ServiceTypes, ", "))
	}

	switch svc.Type {
	case ServiceFile:
		if svc.Path == "" {
			return fmt.Errorf("service.path is required for the %s service", svc.Type)
		}
	case ServiceHTTP:
		if svc.URL == "" {
			return fmt.Errorf("service.url is required for the %s service", svc.Type)
		}
		timeout, err := time.ParseDuration(svc.Timeout)
		if err != nil {
			return fmt.Errorf("invalid service.timeout %q: %w", svc.Timeout, err)
		}
		if timeout <= 0 {
			return fmt.Errorf("service.timeout must be positive: %s", svc.Timeout)
		}
	case ServiceEBPF:
		if svc.MapPath == "" {
			return fmt.Errorf("service.map_path is required for the %s service", svc.Type)
		}
	}

	if config.Metrics.Enabled && config.Metrics.ListenAddress == "" {
		return fmt.Errorf("metrics.listen_address is required when metrics are enabled")
	}

	return nil
}
