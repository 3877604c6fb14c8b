package openai

import "encoding/json"

// Responses API request/response wire types.

// responsesRequest represents a request to the Responses API.
// Input elements are heterogeneous: role/content messages, echoed output
// items (raw), and function_call_output items.
type responsesRequest struct {
	Model        string                   `json:"model"`
	Input        []json.RawMessage        `json:"input"`
	Instructions string                   `json:"instructions,omitempty"`
	Tools        []wireTool               `json:"tools,omitempty"`
	Reasoning    *responsesReasoningParam `json:"reasoning,omitempty"`
}

// responsesReasoningParam configures reasoning behavior.
type responsesReasoningParam struct {
	Effort string `json:"effort,omitempty"`
}

// inputMessage is a role/content input item.
type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// functionCallOutput carries one tool result back to the service.
// Both function and custom tool calls are answered with this item type.
type functionCallOutput struct {
	Type   string `json:"type"` // "function_call_output"
	CallID string `json:"call_id"`
	Output string `json:"output"`
}

// wireTool represents one tool definition on the wire. Type "function"
// carries a JSON schema in Parameters; type "custom" carries a grammar in
// Format.
type wireTool struct {
	Type        string            `json:"type"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Parameters  json.RawMessage   `json:"parameters,omitempty"`
	Format      *customToolFormat `json:"format,omitempty"`
}

// customToolFormat constrains a custom tool's argument payload by grammar.
type customToolFormat struct {
	Type       string `json:"type"` // "grammar"
	Syntax     string `json:"syntax"`
	Definition string `json:"definition"`
}

// responsesResponse represents a response from the Responses API.
// Output items are kept raw so they can be echoed back verbatim, and
// decoded individually for inspection.
type responsesResponse struct {
	ID     string            `json:"id"`
	Object string            `json:"object"`
	Model  string            `json:"model"`
	Status string            `json:"status"`
	Output []json.RawMessage `json:"output"`
	Usage  *responsesUsage   `json:"usage,omitempty"`
	Error  *responsesError   `json:"error,omitempty"`
}

// outputItem is the decoded view of one output array element.
// The Type field determines which other fields are populated.
type outputItem struct {
	Type   string `json:"type"` // "reasoning", "message", "function_call", "custom_tool_call"
	ID     string `json:"id,omitempty"`
	Status string `json:"status,omitempty"`
	Role   string `json:"role,omitempty"`

	// For message type
	Content []messageContent `json:"content,omitempty"`

	// For function_call and custom_tool_call types
	CallID string `json:"call_id,omitempty"`
	Name   string `json:"name,omitempty"`

	// For function_call type
	Arguments string `json:"arguments,omitempty"`

	// For custom_tool_call type
	Input string `json:"input,omitempty"`
}

// messageContent represents content in a message output item.
type messageContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// responsesUsage tracks token usage for a Responses API request.
type responsesUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// responsesError represents an error in the Responses API.
type responsesError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
