package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/loopworks/cfgbench/core"
)

// ErrDuplicateTool is returned when attempting to register a tool with a name
// that is already registered.
var ErrDuplicateTool = errors.New("tool already registered")

// Registry manages a collection of tools indexed by name.
// Registry is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	tools      map[string]Tool
	order      []string
	middleware []Middleware
}

// NewRegistry creates a new empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Use installs middleware applied around every Execute call, in the order
// given (first middleware is outermost). Must be called before the loop
// starts.
func (r *Registry) Use(middlewares ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, middlewares...)
}

// Register adds a tool to the registry.
// Returns ErrDuplicateTool if a tool with the same name is already registered.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return errors.New("tool cannot be nil")
	}

	name := t.Name()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return ErrDuplicateTool
	}

	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// MustRegister registers tools and panics on failure. Intended for
// process-start registration where a duplicate name is a programming error.
func (r *Registry) MustRegister(ts ...Tool) {
	for _, t := range ts {
		if err := r.Register(t); err != nil {
			panic(fmt.Sprintf("tools: register %q: %v", t.Name(), err))
		}
	}
}

// Get retrieves a tool by name.
// Returns the tool and true if found, or nil and false if not found.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	return t, ok
}

// Definitions returns the wire definitions of all registered tools in
// registration order.
func (r *Registry) Definitions() []core.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]core.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Execute finds a tool by name and calls it with the given arguments,
// applying any installed middleware. An unregistered name yields
// core.ErrUnknownTool.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (any, error) {
	tool, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownTool, name)
	}

	r.mu.RLock()
	mw := r.middleware
	r.mu.RUnlock()

	call := tool.Call
	if len(mw) > 0 {
		call = Chain(mw...)(call)
	}

	ctx = ContextWithToolContext(ctx, &ToolContext{ToolName: name})
	return call(ctx, args)
}

// Compile-time check that Registry implements core.ToolExecutor.
var _ core.ToolExecutor = (*Registry)(nil)
