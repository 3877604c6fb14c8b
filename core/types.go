// Package core provides the cfgbench types and the tool-call loop driver.
package core

import "encoding/json"

// ModelID is a string identifier for a model.
// Using string avoids coupling to service-specific enums.
type ModelID string

// ReasoningEffort controls the latency/quality trade-off for models
// that support it.
type ReasoningEffort string

const (
	ReasoningEffortMinimal ReasoningEffort = "minimal"
	ReasoningEffortLow     ReasoningEffort = "low"
	ReasoningEffortMedium  ReasoningEffort = "medium"
	ReasoningEffortHigh    ReasoningEffort = "high"
)

// Role represents a message participant role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TokenUsage tracks token consumption for a request.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add returns the element-wise sum of two usages.
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
		TotalTokens:      u.TotalTokens + other.TotalTokens,
	}
}

// Grammar is a context-free grammar constraining a tool's argument payload.
// The definition is an opaque string passed to the service verbatim.
type Grammar struct {
	Syntax     string `json:"syntax"` // e.g. "lark"
	Definition string `json:"definition"`
}

// ToolDefinition describes one tool as presented to the remote service.
// Exactly one of Parameters or Grammar is set: Parameters makes a
// JSON-schema function tool, Grammar makes a grammar-constrained custom tool.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
	Grammar     *Grammar        `json:"grammar,omitempty"`
}

// IsGrammar reports whether the definition is grammar-constrained.
func (d ToolDefinition) IsGrammar() bool {
	return d.Grammar != nil
}

// ToolCall represents a tool invocation requested by the remote service.
// Arguments holds the raw payload text: guaranteed JSON for function tools,
// grammar-shaped text for custom tools. It is never reformatted.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResult represents the outcome of executing a tool.
type ToolResult struct {
	CallID  string `json:"call_id"`  // Must match ToolCall.ID from the response
	Content any    `json:"content"`  // Result data (will be JSON marshaled)
	IsError bool   `json:"is_error"` // True if this represents an error
}

// Request represents one outbound round-trip to the remote service.
type Request struct {
	Model           ModelID          `json:"model"`
	Instructions    string           `json:"instructions,omitempty"`
	Input           []Item           `json:"input"`
	Tools           []ToolDefinition `json:"tools,omitempty"`
	ReasoningEffort ReasoningEffort  `json:"reasoning_effort,omitempty"`
}

// ResponseKind discriminates the two shapes a service response can take.
type ResponseKind int

const (
	// KindFinalAnswer means the response is terminal plain text.
	KindFinalAnswer ResponseKind = iota
	// KindToolCalls means the response requests one or more tool calls.
	KindToolCalls
)

// Response represents a response from the remote service.
type Response struct {
	ID         string     `json:"id"`
	Model      ModelID    `json:"model"`
	OutputText string     `json:"output_text"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	Usage      TokenUsage `json:"usage"`
	Status     string     `json:"status,omitempty"`

	// RawItems holds the service's output items verbatim, in order.
	// They are echoed back on the next round-trip so reasoning and
	// call items survive exactly as emitted.
	RawItems []json.RawMessage `json:"-"`
}

// Kind reports whether the response is a final answer or a tool-call batch.
func (r *Response) Kind() ResponseKind {
	if len(r.ToolCalls) > 0 {
		return KindToolCalls
	}
	return KindFinalAnswer
}

// HasToolCalls reports whether the response contains any tool calls.
func (r *Response) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}
