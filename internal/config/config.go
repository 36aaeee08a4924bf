// Package config loads the relay daemon configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root of the daemon configuration.
type Config struct {
	Relay   Relay   `yaml:"relay"`
	Logging Logging `yaml:"logging"`
}

// Relay configures the listening relay.
type Relay struct {
	// Host the relay binds to.
	Host string `yaml:"host"`

	// Port the relay binds to.
	Port uint16 `yaml:"port"`

	// BroadcastBuffer is the per-subscriber queue depth.
	BroadcastBuffer int `yaml:"broadcast_buffer"`

	// MaxFrameBytes bounds a single wire frame.
	MaxFrameBytes uint32 `yaml:"max_frame_bytes"`

	// MetricsAddress, when set, serves prometheus metrics over HTTP.
	MetricsAddress string `yaml:"metrics_address"`
}

// Logging configures the daemon logger.
type Logging struct {
	// Level is one of debug, info, warn, error. The daemon switches
	// between debug and info output only; warn and error log at info.
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Relay: Relay{
			Host:            "127.0.0.1",
			Port:            7878,
			BroadcastBuffer: 1024,
			MaxFrameBytes:   8 << 20,
		},
		Logging: Logging{Level: "info"},
	}
}

// Load reads and validates a configuration file, filling defaults for
// omitted fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the relay cannot run with.
func (c *Config) Validate() error {
	if c.Relay.Host == "" {
		return fmt.Errorf("relay.host must not be empty")
	}
	if c.Relay.Port == 0 {
		return fmt.Errorf("relay.port must not be zero")
	}
	if c.Relay.BroadcastBuffer <= 0 {
		return fmt.Errorf("relay.broadcast_buffer must be positive")
	}
	if c.Relay.MaxFrameBytes == 0 {
		return fmt.Errorf("relay.max_frame_bytes must not be zero")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

// Address returns the relay host:port.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Relay.Host, c.Relay.Port)
}
