// Package tools provides tool definitions, a name-keyed registry, and
// execution middleware for the tool-call loop driver.
package tools

import (
	"context"
	"encoding/json"

	"github.com/loopworks/cfgbench/core"
)

// Tool is a local handler the remote service can invoke by name.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool
	// does. It is provided to the model to help it decide when to use the
	// tool.
	Description() string

	// Definition returns the wire definition: a JSON-schema function tool
	// or a grammar-constrained custom tool.
	Definition() core.ToolDefinition

	// Call executes the tool with the given argument payload.
	// The payload is the raw text from the model: JSON for schema tools,
	// grammar-shaped text for grammar tools.
	Call(ctx context.Context, args json.RawMessage) (any, error)
}

// funcTool is a closure-backed Tool.
type funcTool struct {
	def core.ToolDefinition
	fn  ToolCallFunc
}

// Func creates a Tool from a definition and a handler function.
func Func(def core.ToolDefinition, fn ToolCallFunc) Tool {
	return &funcTool{def: def, fn: fn}
}

func (t *funcTool) Name() string                    { return t.def.Name }
func (t *funcTool) Description() string             { return t.def.Description }
func (t *funcTool) Definition() core.ToolDefinition { return t.def }

func (t *funcTool) Call(ctx context.Context, args json.RawMessage) (any, error) {
	return t.fn(ctx, args)
}
