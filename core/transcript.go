package core

import "encoding/json"

// ItemKind discriminates the kinds of transcript items.
type ItemKind string

const (
	// ItemMessage is a plain role/content message.
	ItemMessage ItemKind = "message"
	// ItemRaw is a service output item echoed back verbatim.
	ItemRaw ItemKind = "raw"
	// ItemToolResult is the outcome of one executed tool call.
	ItemToolResult ItemKind = "tool_result"
)

// Item is one entry in a conversation transcript.
// Exactly the fields implied by Kind are set.
type Item struct {
	Kind    ItemKind        `json:"kind"`
	Role    Role            `json:"role,omitempty"`
	Content string          `json:"content,omitempty"`
	Result  *ToolResult     `json:"result,omitempty"`
	Raw     json.RawMessage `json:"raw,omitempty"`
}

// Transcript is the ordered conversation history exchanged with the remote
// service. It is append-only: items are extended, never mutated or removed.
// Transcript is not safe for concurrent use; the driver is its single writer.
type Transcript struct {
	items []Item
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// AppendMessage appends a role/content message.
func (t *Transcript) AppendMessage(role Role, content string) {
	t.items = append(t.items, Item{Kind: ItemMessage, Role: role, Content: content})
}

// AppendRaw appends service output items verbatim, preserving order.
func (t *Transcript) AppendRaw(raw []json.RawMessage) {
	for _, r := range raw {
		t.items = append(t.items, Item{Kind: ItemRaw, Raw: r})
	}
}

// AppendResult appends one tool result.
func (t *Transcript) AppendResult(res ToolResult) {
	r := res
	t.items = append(t.items, Item{Kind: ItemToolResult, Result: &r})
}

// Items returns a copy of the transcript items.
func (t *Transcript) Items() []Item {
	out := make([]Item, len(t.items))
	copy(out, t.items)
	return out
}

// Len returns the number of items in the transcript.
func (t *Transcript) Len() int {
	return len(t.items)
}
