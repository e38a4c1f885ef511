// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package weather

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/weather-mcp/nws-mcp/toolserver"
)

// Tool names exposed to clients.
const (
	AlertsTool   = "get_alerts"
	ForecastTool = "get_forecast"
)

// AlertsInput is the argument set of get_alerts.
type AlertsInput struct {
	State string `json:"state" jsonschema:"two-letter US state code (e.g. CA for California); not validated"`
}

// ForecastInput is the argument set of get_forecast. Coordinates are not
// range-checked.
type ForecastInput struct {
	Latitude  float64 `json:"latitude" jsonschema:"latitude of the location"`
	Longitude float64 `json:"longitude" jsonschema:"longitude of the location"`
}

// Register adds get_alerts and get_forecast to r.
func (s *Service) Register(r *toolserver.Registry) *toolserver.Registry {
	toolserver.AddTool(r, &mcp.Tool{
		Name:        AlertsTool,
		Title:       "Weather alerts",
		Description: "Get active weather alerts for a US state.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, s.alertsTool)
	toolserver.AddTool(r, &mcp.Tool{
		Name:        ForecastTool,
		Title:       "Weather forecast",
		Description: "Get the weather forecast for a location.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, s.forecastTool)
	return r
}

func (s *Service) alertsTool(ctx context.Context, in AlertsInput) (string, error) {
	return s.Alerts(ctx, in.State), nil
}

func (s *Service) forecastTool(ctx context.Context, in ForecastInput) (string, error) {
	return s.Forecast(ctx, in.Latitude, in.Longitude)
}
