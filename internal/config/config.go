// Package config loads service configuration from YAML. Values may reference
// environment variables with ${VAR} syntax; expansion happens before parsing
// so secrets stay out of checked-in files.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Upload configures the record-management backend the pipeline posts to.
type Upload struct {
	BaseURL        string `yaml:"baseUrl"`
	TenantID       string `yaml:"tenantId"`
	AppKey         string `yaml:"appKey"`
	Token          string `yaml:"token"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// Timeout returns the upload timeout with a 60s default.
func (u Upload) Timeout() time.Duration {
	if u.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(u.TimeoutSeconds) * time.Second
}

// Config is the service-level configuration document.
type Config struct {
	Listen string `yaml:"listen"`
	Upload Upload `yaml:"upload"`
}

// Load reads and parses the YAML file at path.
func Load(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return Config{}, fmt.Errorf("config: path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML document, expanding ${VAR} references first.
func Parse(data []byte) (Config, error) {
	expanded := os.Expand(string(data), func(key string) string {
		return os.Getenv(key)
	})

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	if cfg.Listen == "" {
		cfg.Listen = ":8080"
	}
	return cfg, nil
}
