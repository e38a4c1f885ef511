// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

// Package config loads server settings from an optional config file and
// WEATHER_MCP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Transport names accepted by server.transport.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds all configuration for the server.
type Config struct {
	Server ServerConfig
	NWS    NWSConfig
	Log    LogConfig
}

// ServerConfig selects how tool calls reach the process.
type ServerConfig struct {
	Transport       string // stdio, http
	Addr            string // listen address when Transport is http
	ShutdownTimeout time.Duration
}

// NWSConfig configures the upstream National Weather Service client.
type NWSConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// Load reads configuration from a config.yaml found in searchPaths (or the
// default locations when none are given) and from environment variables.
// A missing config file is not an error.
func Load(searchPaths ...string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(searchPaths) == 0 {
		searchPaths = []string{".", "./config", "$HOME/.weather-mcp"}
	}
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}

	v.SetDefault("server.transport", TransportStdio)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdowntimeout", 10*time.Second)
	v.SetDefault("nws.baseurl", "https://api.weather.gov")
	v.SetDefault("nws.useragent", "weather-app/1.0")
	v.SetDefault("nws.timeout", 30*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix("WEATHER_MCP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Server.Transport = strings.ToLower(strings.TrimSpace(cfg.Server.Transport))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("invalid server.transport %q: want %q or %q", c.Server.Transport, TransportStdio, TransportHTTP)
	}
	if c.Server.Transport == TransportHTTP && c.Server.Addr == "" {
		return errors.New("server.addr is required for the http transport")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("server.shutdowntimeout must be positive")
	}
	if c.NWS.Timeout <= 0 {
		return errors.New("nws.timeout must be positive")
	}
	u, err := url.Parse(c.NWS.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid nws.baseurl %q", c.NWS.BaseURL)
	}
	return nil
}
