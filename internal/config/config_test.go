// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, TransportStdio, cfg.Server.Transport)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "https://api.weather.gov", cfg.NWS.BaseURL)
	assert.Equal(t, "weather-app/1.0", cfg.NWS.UserAgent)
	assert.Equal(t, 30*time.Second, cfg.NWS.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WEATHER_MCP_SERVER_TRANSPORT", "HTTP")
	t.Setenv("WEATHER_MCP_SERVER_ADDR", ":9090")
	t.Setenv("WEATHER_MCP_NWS_BASEURL", "http://localhost:8081")
	t.Setenv("WEATHER_MCP_NWS_USERAGENT", "test-agent/0.1")
	t.Setenv("WEATHER_MCP_NWS_TIMEOUT", "5s")
	t.Setenv("WEATHER_MCP_LOG_LEVEL", "debug")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, TransportHTTP, cfg.Server.Transport)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "http://localhost:8081", cfg.NWS.BaseURL)
	assert.Equal(t, "test-agent/0.1", cfg.NWS.UserAgent)
	assert.Equal(t, 5*time.Second, cfg.NWS.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
nws:
  useragent: file-agent/1.0
  timeout: 12s
log:
  format: json
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "file-agent/1.0", cfg.NWS.UserAgent)
	assert.Equal(t, 12*time.Second, cfg.NWS.Timeout)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "https://api.weather.gov", cfg.NWS.BaseURL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown transport", map[string]string{"WEATHER_MCP_SERVER_TRANSPORT": "sse"}},
		{"zero timeout", map[string]string{"WEATHER_MCP_NWS_TIMEOUT": "0s"}},
		{"base url without scheme", map[string]string{"WEATHER_MCP_NWS_BASEURL": "api.weather.gov"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(t.TempDir())
			assert.Error(t, err)
		})
	}
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("nws: [unclosed"), 0o600))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoad_HTTPRequiresAddr(t *testing.T) {
	dir := t.TempDir()
	content := []byte("server:\n  transport: http\n  addr: \"\"\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	_, err := Load(dir)
	assert.ErrorContains(t, err, "server.addr")
}
