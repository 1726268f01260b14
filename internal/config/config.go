// Package config loads daemon configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultListen          = ":8080"
	DefaultMaxAge          = 5 * time.Minute
	DefaultResolveInterval = time.Minute
	DefaultResolveTimeout  = 2 * time.Second
	DefaultLogLevel        = "info"
)

// ResolveConfig controls address producer.
type ResolveConfig struct {
	// Server is a DNS server address, first nameserver of /etc/resolv.conf is used if empty.
	Server   string        `yaml:"server"`
	Hosts    []string      `yaml:"hosts"`
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
	IPv6     bool          `yaml:"ipv6"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Config is a daemon configuration.
type Config struct {
	Name     string `yaml:"name"`
	Listen   string `yaml:"listen"`
	APIToken string `yaml:"api_token"`

	MaxAge            time.Duration `yaml:"max_age"`
	FlushSkipInterval time.Duration `yaml:"flush_skip_interval"`

	Resolve ResolveConfig `yaml:"resolve"`
	Log     LogConfig     `yaml:"log"`
}

// Load reads YAML configuration from file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return Parse(b)
}

// Parse decodes YAML configuration and applies defaults.
//
// Unknown keys are rejected.
func Parse(b []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	if cfg.Name == "" {
		cfg.Name = "addresses"
	}

	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}

	if cfg.MaxAge == 0 {
		cfg.MaxAge = DefaultMaxAge
	}

	if cfg.MaxAge < 0 {
		return nil, fmt.Errorf("invalid max_age: %s", cfg.MaxAge)
	}

	if cfg.Resolve.Interval == 0 {
		cfg.Resolve.Interval = DefaultResolveInterval
	}

	if cfg.Resolve.Timeout == 0 {
		cfg.Resolve.Timeout = DefaultResolveTimeout
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}

	return &cfg, nil
}
