package conduit

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds connection and logging settings. Loaded from a YAML file
// with environment overrides.
type Config struct {
	DatabaseURL string `yaml:"database_url"`
	LogLevel    string `yaml:"log_level"`

	Pool struct {
		MaxOpenConns    int    `yaml:"max_open_conns"`
		MaxIdleConns    int    `yaml:"max_idle_conns"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime"`
	} `yaml:"pool"`
}

// DefaultConfig returns a config with pool defaults and no database URL.
func DefaultConfig() *Config {
	cfg := &Config{LogLevel: "warn"}
	cfg.Pool.MaxOpenConns = 25
	cfg.Pool.MaxIdleConns = 5
	cfg.Pool.ConnMaxLifetime = "30m"
	return cfg
}

// LoadConfig reads a YAML config file and applies environment overrides.
// A missing file is not an error when the environment supplies the URL.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.DatabaseURL = url
	}
	if level := os.Getenv("CONDUIT_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	return cfg, nil
}

// ConnMaxLifetime parses the configured lifetime, falling back to 30m.
func (c *Config) ConnMaxLifetime() time.Duration {
	d, err := time.ParseDuration(c.Pool.ConnMaxLifetime)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}
