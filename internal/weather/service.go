// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

// Package weather implements the get_alerts and get_forecast tools on top of
// the NWS API. Every "no data" outcome is returned as plain text; the only
// error a tool call can produce is a malformed forecast period.
package weather

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/weather-mcp/nws-mcp/internal/nws"
	"github.com/weather-mcp/nws-mcp/internal/observability"
)

// Messages returned in place of data.
const (
	alertsUnavailable   = "Unable to fetch alerts or no alerts found for %s."
	noActiveAlerts      = "No active alerts found for %s."
	forecastUnavailable = "Unable to fetch forecast data for this location."
	detailedUnavailable = "Unable to fetch detailed forecast."
)

// Fetcher retrieves one upstream document. *nws.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) nws.Result
}

// Service answers alert and forecast queries. Inputs are passed through
// unvalidated: state codes are only uppercased and coordinates are used as
// given.
type Service struct {
	fetcher Fetcher
	baseURL string
	logger  *slog.Logger
}

// NewService creates a Service fetching through f against baseURL.
func NewService(f Fetcher, baseURL string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	return &Service{
		fetcher: f,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Alerts returns every active alert for state, formatted and joined by
// Separator. Fallback messages echo state exactly as given.
func (s *Service) Alerts(ctx context.Context, state string) string {
	u := s.baseURL + "/alerts/active/area/" + url.PathEscape(strings.ToUpper(state))

	res := s.fetcher.Fetch(ctx, u)
	if res.Empty() {
		return fmt.Sprintf(alertsUnavailable, state)
	}

	raw, ok := res.Document["features"]
	if !ok {
		return fmt.Sprintf(alertsUnavailable, state)
	}
	if raw == nil {
		return fmt.Sprintf(noActiveAlerts, state)
	}
	features, ok := raw.([]any)
	if !ok {
		return fmt.Sprintf(alertsUnavailable, state)
	}
	if len(features) == 0 {
		return fmt.Sprintf(noActiveAlerts, state)
	}

	alerts := make([]string, len(features))
	for i, f := range features {
		feature, _ := f.(map[string]any)
		alerts[i] = FormatAlert(feature)
	}
	s.logger.DebugContext(ctx, "alerts formatted", "state", state, "count", len(alerts))
	return strings.Join(alerts, Separator)
}

// Forecast resolves the grid forecast endpoint for a coordinate pair, fetches
// it, and formats the first MaxPeriods periods. The two fetches are
// sequential; a failed points lookup stops before the second one.
func (s *Service) Forecast(ctx context.Context, latitude, longitude float64) (string, error) {
	pointsURL := s.baseURL + "/points/" + formatCoord(latitude) + "," + formatCoord(longitude)

	points := s.fetcher.Fetch(ctx, pointsURL)
	if points.Empty() {
		return forecastUnavailable, nil
	}

	forecastURL, _ := lookup(points.Document, "properties", "forecast").(string)
	if forecastURL == "" {
		s.logger.DebugContext(ctx, "points response has no forecast url", "url", pointsURL)
		return detailedUnavailable, nil
	}

	forecast := s.fetcher.Fetch(ctx, forecastURL)
	if forecast.Empty() {
		return detailedUnavailable, nil
	}

	periods, _ := lookup(forecast.Document, "properties", "periods").([]any)
	return FormatForecast(periods)
}

// lookup walks nested objects by key, returning nil when any step is missing
// or not an object.
func lookup(doc map[string]any, keys ...string) any {
	var cur any = doc
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[k]
	}
	return cur
}

// formatCoord renders a coordinate in its shortest exact decimal form.
func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
