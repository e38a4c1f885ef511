// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package toolserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Outcome labels for tool call metrics.
const (
	outcomeOK            = "ok"
	outcomeToolError     = "tool_error"
	outcomeProtocolError = "protocol_error"
)

// unknownTool labels calls naming a tool that is not registered, keeping the
// metric label set bounded.
const unknownTool = "unknown"

// callMiddleware builds the receiving middleware that logs and counts every
// tools/call. Other methods pass through untouched.
func (r *Registry) callMiddleware() mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != "tools/call" {
				return next(ctx, method, req)
			}

			name := r.toolLabel(req)
			start := r.clock.Now()
			result, err := next(ctx, method, req)
			elapsed := r.clock.Since(start)

			outcome := callOutcome(result, err)
			r.metrics.ToolCalls.WithLabelValues(name, outcome).Inc()
			r.metrics.ToolDuration.WithLabelValues(name).Observe(elapsed.Seconds())

			if err != nil {
				r.logger.WarnContext(ctx, "tool call rejected", "tool", name, "duration", elapsed, "error", err)
			} else {
				r.logger.InfoContext(ctx, "tool call", "tool", name, "outcome", outcome, "duration", elapsed)
			}
			return result, err
		}
	}
}

// toolLabel extracts the requested tool name. The server SDK unmarshals
// tools/call params as *CallToolParamsRaw.
func (r *Registry) toolLabel(req mcp.Request) string {
	p, _ := req.GetParams().(*mcp.CallToolParamsRaw)
	if p == nil {
		return unknownTool
	}
	if _, ok := r.byName[p.Name]; !ok {
		return unknownTool
	}
	return p.Name
}

func callOutcome(result mcp.Result, err error) string {
	if err != nil {
		return outcomeProtocolError
	}
	if res, ok := result.(*mcp.CallToolResult); ok && res != nil && res.IsError {
		return outcomeToolError
	}
	return outcomeOK
}
