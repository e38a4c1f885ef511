// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package nws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weather-mcp/nws-mcp/internal/observability"
)

func testClient(t *testing.T, srv *httptest.Server, timeout time.Duration) (*Client, *observability.Metrics) {
	t.Helper()
	m := observability.NewMetricsForTesting()
	c := NewClient(Options{
		BaseURL: srv.URL,
		Timeout: timeout,
		Clock:   clockwork.NewFakeClock(),
		Metrics: m,
	})
	return c, m
}

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "application/geo+json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = w.Write([]byte(`{"properties":{"forecast":"https://example.test/gridpoints/TOP/31,80/forecast","temperature":72}}`))
	}))
	defer srv.Close()

	c, m := testClient(t, srv, time.Second)
	res := c.Fetch(context.Background(), srv.URL+"/points/39.7456,-97.0892")

	require.True(t, res.OK())
	assert.False(t, res.Empty())
	props, ok := res.Document["properties"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "https://example.test/gridpoints/TOP/31,80/forecast", props["forecast"])
	assert.Equal(t, json.Number("72"), props["temperature"])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("points", "success")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.UpstreamDuration))
}

func TestFetch_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		outcome string
		check   func(t *testing.T, err error)
	}{
		{
			name: "non-2xx status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"title":"Not Found"}`, http.StatusNotFound)
			},
			outcome: "status",
			check: func(t *testing.T, err error) {
				var statusErr *StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			outcome: "status",
			check: func(t *testing.T, err error) {
				var statusErr *StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
			},
		},
		{
			name: "redirect is not followed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/alerts/active/area/CA" {
					_, _ = w.Write([]byte(`{"features": []}`))
					return
				}
				http.Redirect(w, r, "/alerts/active/area/CA/moved", http.StatusMovedPermanently)
			},
			outcome: "status",
			check: func(t *testing.T, err error) {
				var statusErr *StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, http.StatusMovedPermanently, statusErr.StatusCode)
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"features": [`))
			},
			outcome: "decode",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrDecode)
			},
		},
		{
			name: "json array instead of object",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[1, 2, 3]`))
			},
			outcome: "decode",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrDecode)
			},
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			outcome: "timeout",
			check: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c, m := testClient(t, srv, 50*time.Millisecond)
			res := c.Fetch(context.Background(), srv.URL+"/alerts/active/area/CA")

			assert.False(t, res.OK())
			assert.True(t, res.Empty())
			assert.Nil(t, res.Document)
			tt.check(t, res.Err)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("alerts", tt.outcome)))
		})
	}
}

func TestFetch_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := NewClient(Options{Timeout: time.Second})
	res := c.Fetch(context.Background(), addr+"/points/1,2")

	assert.False(t, res.OK())
	assert.Error(t, res.Err)
}

func TestFetch_CanceledContext(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, m := testClient(t, srv, time.Second)
	res := c.Fetch(ctx, srv.URL+"/points/1,2")

	assert.False(t, res.OK())
	assert.True(t, errors.Is(res.Err, context.Canceled))
	assert.Equal(t, int32(0), hits.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("points", "canceled")))
}

func TestFetch_EmptyURLIssuesNoRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c, m := testClient(t, srv, time.Second)
	res := c.Fetch(context.Background(), "")

	assert.ErrorIs(t, res.Err, ErrNoURL)
	assert.Equal(t, int32(0), hits.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("other", "no_url")))
}

func TestFetch_NullAndEmptyBodiesAreEmpty(t *testing.T) {
	for _, body := range []string{`null`, `{}`} {
		t.Run(body, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			c, _ := testClient(t, srv, time.Second)
			res := c.Fetch(context.Background(), srv.URL+"/points/1,2")

			assert.True(t, res.OK())
			assert.True(t, res.Empty())
		})
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Options{})
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, DefaultUserAgent, c.userAgent)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)

	c = NewClient(Options{BaseURL: "http://mirror.test/", UserAgent: "custom/2.0"})
	assert.Equal(t, "http://mirror.test", c.BaseURL())
	assert.Equal(t, "custom/2.0", c.userAgent)
}

func TestEndpointLabel(t *testing.T) {
	assert.Equal(t, "alerts", endpointLabel("https://api.weather.gov/alerts/active/area/TX"))
	assert.Equal(t, "points", endpointLabel("https://api.weather.gov/points/39.7456,-97.0892"))
	assert.Equal(t, "forecast", endpointLabel("https://api.weather.gov/gridpoints/TOP/31,80/forecast"))
	assert.Equal(t, "other", endpointLabel("https://api.weather.gov/stations"))
	assert.Equal(t, "other", endpointLabel(""))
}
