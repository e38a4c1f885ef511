// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

// Package nws fetches GeoJSON documents from the National Weather Service
// API. Fetch never returns an error: every failure is folded into a Result
// whose reason is kept for logging and metrics only.
//
// API docs: https://www.weather.gov/documentation/services-web-api
package nws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/weather-mcp/nws-mcp/internal/observability"
)

const (
	// DefaultBaseURL is the public NWS API root.
	DefaultBaseURL = "https://api.weather.gov"
	// DefaultUserAgent identifies this client to the NWS API, which rejects
	// requests without one.
	DefaultUserAgent = "weather-app/1.0"
	// DefaultTimeout bounds a single request, including reading the body.
	DefaultTimeout = 30 * time.Second

	acceptGeoJSON = "application/geo+json"
)

var (
	// ErrNoURL is the failure reason when Fetch is given an empty URL. No
	// request is issued.
	ErrNoURL = errors.New("nws: empty request url")
	// ErrDecode is the failure reason when a 2xx body is not a JSON object.
	ErrDecode = errors.New("nws: malformed response body")
)

// StatusError is the failure reason for a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("nws: %s returned status %d", e.URL, e.StatusCode)
}

// Result is the outcome of a single Fetch: either a parsed document or the
// reason it could not be obtained.
type Result struct {
	// Document is the decoded JSON object. Numbers are json.Number so they
	// render exactly as the upstream wrote them.
	Document map[string]any
	// Err is nil on success.
	Err error
}

// OK reports whether the fetch succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Empty reports whether the result carries no usable data: the fetch failed,
// or the upstream answered with null or {}.
func (r Result) Empty() bool {
	return r.Err != nil || len(r.Document) == 0
}

// Options configures a Client. Zero values select the defaults.
type Options struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client // overrides Timeout and redirect handling when set
	Clock      clockwork.Clock
	Metrics    *observability.Metrics
	Logger     *slog.Logger
}

// Client issues GET requests against the NWS API. It holds no per-request
// state and is safe for concurrent use.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Client from opts.
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		httpClient: opts.HTTPClient,
		clock:      opts.Clock,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.httpClient = &http.Client{
			Timeout: timeout,
			// Redirects are reported as non-2xx statuses rather than followed.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}
	if c.metrics == nil {
		c.metrics = observability.NewMetrics(nil)
	}
	if c.logger == nil {
		c.logger = observability.DiscardLogger()
	}
	return c
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Fetch GETs rawURL and decodes the body as a JSON object. It never returns
// an error; failures are reported through Result.Err.
func (c *Client) Fetch(ctx context.Context, rawURL string) Result {
	endpoint := endpointLabel(rawURL)
	start := c.clock.Now()

	doc, err := c.get(ctx, rawURL)

	c.metrics.UpstreamDuration.WithLabelValues(endpoint).Observe(c.clock.Since(start).Seconds())
	c.metrics.UpstreamRequests.WithLabelValues(endpoint, outcomeLabel(err)).Inc()

	if err != nil {
		c.logger.DebugContext(ctx, "upstream fetch failed", "url", rawURL, "error", err)
		return Result{Err: err}
	}
	return Result{Document: doc}
}

func (c *Client) get(ctx context.Context, rawURL string) (map[string]any, error) {
	if rawURL == "" {
		return nil, ErrNoURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", acceptGeoJSON)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return doc, nil
}

// endpointLabel buckets a request URL into a bounded metric label.
func endpointLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "other"
	}
	switch p := u.Path; {
	case strings.HasPrefix(p, "/alerts"):
		return "alerts"
	case strings.HasPrefix(p, "/points"):
		return "points"
	case strings.HasSuffix(p, "/forecast"):
		return "forecast"
	default:
		return "other"
	}
}

// outcomeLabel classifies a fetch failure reason.
func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	var statusErr *StatusError
	var netErr net.Error
	switch {
	case errors.Is(err, ErrNoURL):
		return "no_url"
	case errors.As(err, &statusErr):
		return "status"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "transport"
	}
}
