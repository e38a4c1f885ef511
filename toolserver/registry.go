// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

// Package toolserver builds an MCP server from an explicit table of tools.
// A Registry is assembled once at startup and handed to a transport; nothing
// is registered through package-level side effects.
package toolserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/jonboulle/clockwork"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/weather-mcp/nws-mcp/internal/observability"
)

// Handler implements one tool. It receives the decoded arguments and returns
// the text result. A non-nil error is reported to the caller as a tool error
// for that call only.
type Handler[In any] func(ctx context.Context, in In) (string, error)

// toolEntry binds a tool definition to the function that installs its
// handler on an mcp.Server.
type toolEntry struct {
	tool    *mcp.Tool
	install func(s *mcp.Server)
}

// Registry maps tool names to handlers and parameter schemas.
//
// Registry holds only configuration and is safe for concurrent use once
// built. Each call to Server produces an independent *mcp.Server carrying
// every registered tool.
type Registry struct {
	impl    *mcp.Implementation
	tools   []toolEntry
	byName  map[string]int
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
}

// NewRegistry creates an empty registry for the given server identity.
//
// The argument must not be nil.
func NewRegistry(impl *mcp.Implementation) *Registry {
	if impl == nil {
		panic("toolserver: nil Implementation")
	}
	return &Registry{
		impl:    impl,
		byName:  make(map[string]int),
		logger:  observability.DiscardLogger(),
		metrics: observability.NewMetrics(nil),
		clock:   clockwork.NewRealClock(),
	}
}

// WithLogger sets the logger used for per-call logging. Returns the receiver
// for chaining.
func (r *Registry) WithLogger(l *slog.Logger) *Registry {
	if l != nil {
		r.logger = l
	}
	return r
}

// WithMetrics sets the collectors updated on each tool call. Returns the
// receiver for chaining.
func (r *Registry) WithMetrics(m *observability.Metrics) *Registry {
	if m != nil {
		r.metrics = m
	}
	return r
}

// WithClock sets the time source for tool call durations. Returns the
// receiver for chaining.
func (r *Registry) WithClock(c clockwork.Clock) *Registry {
	if c != nil {
		r.clock = c
	}
	return r
}

// AddTool registers a tool whose input schema is inferred from In. Struct
// fields without omitempty are required; jsonschema tags become property
// descriptions.
//
// Tool names must be unique; registering a duplicate panics, as does an In
// type no schema can be derived for.
func AddTool[In any](r *Registry, t *mcp.Tool, h Handler[In]) *Registry {
	if t == nil || t.Name == "" {
		panic("toolserver: tool must have a name")
	}
	if _, dup := r.byName[t.Name]; dup {
		panic("toolserver: duplicate tool name: " + t.Name)
	}

	def := *t
	if def.InputSchema == nil {
		schema, err := jsonschema.For[In](nil)
		if err != nil {
			panic("toolserver: input schema for " + t.Name + ": " + err.Error())
		}
		def.InputSchema = schema
	}

	r.byName[def.Name] = len(r.tools)
	r.tools = append(r.tools, toolEntry{
		tool: &def,
		install: func(s *mcp.Server) {
			tool := def
			mcp.AddTool(s, &tool, func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
				text, err := h(ctx, in)
				if err != nil {
					return nil, nil, err
				}
				return &mcp.CallToolResult{
					Content: []mcp.Content{&mcp.TextContent{Text: text}},
				}, nil, nil
			})
		},
	})
	return r
}

// Tools returns copies of the registered tool definitions in registration
// order.
func (r *Registry) Tools() []*mcp.Tool {
	out := make([]*mcp.Tool, len(r.tools))
	for i, e := range r.tools {
		t := *e.tool
		out[i] = &t
	}
	return out
}

// Lookup returns a copy of the named tool's definition.
func (r *Registry) Lookup(name string) (*mcp.Tool, bool) {
	i, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	t := *r.tools[i].tool
	return &t, true
}

// Server returns a configured *mcp.Server exposing every registered tool,
// with per-call logging and metrics installed as receiving middleware.
func (r *Registry) Server() (*mcp.Server, error) {
	if len(r.tools) == 0 {
		return nil, errors.New("toolserver: no tools registered")
	}

	srv := mcp.NewServer(r.impl, nil)
	for _, e := range r.tools {
		e.install(srv)
	}
	srv.AddReceivingMiddleware(r.callMiddleware())
	return srv, nil
}

// Run serves the registry on the given transport (e.g. stdio) until the
// client disconnects or ctx is done. For multi-client HTTP support, use
// [NewStreamableHTTPHandler] instead.
func (r *Registry) Run(ctx context.Context, t mcp.Transport) error {
	srv, err := r.Server()
	if err != nil {
		return err
	}
	return srv.Run(ctx, t)
}

// NewStreamableHTTPHandler returns an [mcp.StreamableHTTPHandler] serving the
// registry to multiple concurrent clients. It mirrors
// [mcp.NewStreamableHTTPHandler].
//
//	handler := toolserver.NewStreamableHTTPHandler(reg, nil)
//	http.ListenAndServe(":8080", handler)
func NewStreamableHTTPHandler(r *Registry, opts *mcp.StreamableHTTPOptions) *mcp.StreamableHTTPHandler {
	if r == nil {
		panic("toolserver: nil Registry")
	}
	srv, err := r.Server()
	if err != nil {
		panic(err.Error())
	}
	return mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server { return srv },
		opts,
	)
}
