// Command weather serves the get_alerts and get_forecast tools over MCP,
// backed by the National Weather Service API.
//
// Run over stdio (the default):
//
//	go run ./cmd/weather
//
// Or over streamable HTTP on :8080/mcp, with /healthz and /metrics:
//
//	WEATHER_MCP_SERVER_TRANSPORT=http go run ./cmd/weather
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weather-mcp/nws-mcp/internal/config"
	"github.com/weather-mcp/nws-mcp/internal/nws"
	"github.com/weather-mcp/nws-mcp/internal/observability"
	"github.com/weather-mcp/nws-mcp/internal/weather"
	"github.com/weather-mcp/nws-mcp/toolserver"
)

const version = "v1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)
	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	client := nws.NewClient(nws.Options{
		BaseURL:   cfg.NWS.BaseURL,
		UserAgent: cfg.NWS.UserAgent,
		Timeout:   cfg.NWS.Timeout,
		Metrics:   metrics,
		Logger:    logger,
	})
	svc := weather.NewService(client, client.BaseURL(), logger)

	registry := svc.Register(
		toolserver.NewRegistry(&mcp.Implementation{Name: "weather", Version: version}).
			WithLogger(logger).
			WithMetrics(metrics),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting weather tool server", "transport", cfg.Server.Transport, "upstream", client.BaseURL())

	switch cfg.Server.Transport {
	case config.TransportHTTP:
		err = serveHTTP(ctx, cfg.Server, registry, logger)
	default:
		err = registry.Run(ctx, &mcp.StdioTransport{})
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server failed", "error", err)
		stop()
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

// serveHTTP exposes the registry at /mcp alongside health and metrics
// endpoints, and drains connections when ctx is done.
func serveHTTP(ctx context.Context, cfg config.ServerConfig, registry *toolserver.Registry, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/mcp", toolserver.NewStreamableHTTPHandler(registry, nil))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
