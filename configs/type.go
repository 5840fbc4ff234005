package config

type Config struct {
	Agent   AgentConfig   `yaml:"agent" toml:"agent"`
	Sampler SamplerConfig `yaml:"sampler" toml:"sampler"`
	Service ServiceConfig `yaml:"service" toml:"service"`
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`
}

type AgentConfig struct {
	LogLevel string `yaml:"log_level" toml:"log_level"`
	LogFile  string `yaml:"log_file" toml:"log_file"`
	Options  string `yaml:"options" toml:"options"` // single key=value agent argument, e.g. classes_dir=bin
}

type SamplerConfig struct {
	Iterations int    `yaml:"iterations" toml:"iterations"`
	Interval   string `yaml:"interval" toml:"interval"` // Go duration, e.g. 1s
}

type ServiceConfig struct {
	Type string `yaml:"type" toml:"type"` // static, file, http, ebpf

	// static
	Value int `yaml:"value" toml:"value"`

	// file
	Path string `yaml:"path" toml:"path"`

	// http
	URL      string            `yaml:"url" toml:"url"`
	JSONPath string            `yaml:"json_path" toml:"json_path"`
	Timeout  string            `yaml:"timeout" toml:"timeout"`
	Params   map[string]string `yaml:"params" toml:"params"`

	// ebpf
	MapPath string `yaml:"map_path" toml:"map_path"`
	MapKey  uint32 `yaml:"map_key" toml:"map_key"`
	PerCPU  bool   `yaml:"per_cpu" toml:"per_cpu"`
}

type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled" toml:"enabled"`
	ListenAddress string `yaml:"listen_address" toml:"listen_address"`
	Namespace     string `yaml:"namespace" toml:"namespace"`
}

// AgentOptions is the parsed form of AgentConfig.Options.
type AgentOptions struct {
	ClassesDir string
}
