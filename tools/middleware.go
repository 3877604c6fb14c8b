package tools

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// ToolCallFunc is the function signature for tool execution.
// Middleware wraps this function to add behavior.
type ToolCallFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Middleware wraps a ToolCallFunc to add behavior before and/or after
// execution.
type Middleware func(next ToolCallFunc) ToolCallFunc

// ToolContext provides metadata about the current tool call to middleware.
type ToolContext struct {
	// ToolName is the name of the tool being called.
	ToolName string
}

// toolContextKey is the context key for ToolContext.
type toolContextKey struct{}

// ContextWithToolContext adds ToolContext to a context.
func ContextWithToolContext(ctx context.Context, tc *ToolContext) context.Context {
	return context.WithValue(ctx, toolContextKey{}, tc)
}

// ToolContextFromContext retrieves ToolContext from a context.
// Returns nil if not present.
func ToolContextFromContext(ctx context.Context) *ToolContext {
	tc, _ := ctx.Value(toolContextKey{}).(*ToolContext)
	return tc
}

// Chain combines multiple middleware into a single middleware.
// Middleware are executed in the order provided (first middleware is
// outermost).
func Chain(middlewares ...Middleware) Middleware {
	return func(next ToolCallFunc) ToolCallFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// Logger is the interface for logging middleware.
type Logger interface {
	Printf(format string, v ...any)
}

// WithLogging creates middleware that logs tool executions. This is the
// harness's primary per-call observable: one line when a tool starts and one
// naming its outcome.
func WithLogging(logger Logger) Middleware {
	return func(next ToolCallFunc) ToolCallFunc {
		return func(ctx context.Context, args json.RawMessage) (any, error) {
			toolName := "unknown"
			if tc := ToolContextFromContext(ctx); tc != nil {
				toolName = tc.ToolName
			}

			logger.Printf("tool executing: %s args=%s", toolName, string(args))
			start := time.Now()

			result, err := next(ctx, args)

			duration := time.Since(start)
			if err != nil {
				logger.Printf("tool failed: %s, duration=%v, error=%v", toolName, duration, err)
			} else {
				logger.Printf("tool succeeded: %s, duration=%v", toolName, duration)
			}

			return result, err
		}
	}
}

// ToolMetric aggregates outcomes for one tool.
type ToolMetric struct {
	Calls    int
	Errors   int
	Duration time.Duration
}

// Metrics collects per-tool call counters.
// Metrics is safe for concurrent use.
type Metrics struct {
	mu      sync.Mutex
	perTool map[string]*ToolMetric
}

// NewMetrics creates an empty metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{perTool: make(map[string]*ToolMetric)}
}

// RecordCall records one tool call outcome.
func (m *Metrics) RecordCall(toolName string, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tm, ok := m.perTool[toolName]
	if !ok {
		tm = &ToolMetric{}
		m.perTool[toolName] = tm
	}
	tm.Calls++
	tm.Duration += duration
	if err != nil {
		tm.Errors++
	}
}

// Snapshot returns a copy of the collected metrics keyed by tool name.
func (m *Metrics) Snapshot() map[string]ToolMetric {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]ToolMetric, len(m.perTool))
	for name, tm := range m.perTool {
		out[name] = *tm
	}
	return out
}

// ToolNames returns the recorded tool names in sorted order.
func (m *Metrics) ToolNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.perTool))
	for name := range m.perTool {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithMetrics creates middleware that records tool execution metrics.
func WithMetrics(metrics *Metrics) Middleware {
	return func(next ToolCallFunc) ToolCallFunc {
		return func(ctx context.Context, args json.RawMessage) (any, error) {
			toolName := "unknown"
			if tc := ToolContextFromContext(ctx); tc != nil {
				toolName = tc.ToolName
			}

			start := time.Now()
			result, err := next(ctx, args)
			metrics.RecordCall(toolName, time.Since(start), err)
			return result, err
		}
	}
}
