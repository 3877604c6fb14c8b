package openai

import (
	"encoding/json"
	"fmt"

	"github.com/loopworks/cfgbench/core"
)

// buildResponsesRequest creates a Responses API request from a core.Request.
func buildResponsesRequest(req *core.Request) (*responsesRequest, error) {
	input, err := buildInput(req.Input)
	if err != nil {
		return nil, err
	}

	wireReq := &responsesRequest{
		Model:        string(req.Model),
		Input:        input,
		Instructions: req.Instructions,
		Tools:        mapTools(req.Tools),
	}

	if req.ReasoningEffort != "" {
		wireReq.Reasoning = &responsesReasoningParam{Effort: string(req.ReasoningEffort)}
	}

	return wireReq, nil
}

// buildInput converts transcript items to wire input items.
// Raw items are passed through byte-for-byte so reasoning and call items
// round-trip exactly as the service emitted them.
func buildInput(items []core.Item) ([]json.RawMessage, error) {
	input := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		switch item.Kind {
		case core.ItemMessage:
			role := string(item.Role)
			// The Responses API uses "developer" for system messages.
			if item.Role == core.RoleSystem {
				role = "developer"
			}
			data, err := json.Marshal(inputMessage{Role: role, Content: item.Content})
			if err != nil {
				return nil, err
			}
			input = append(input, data)

		case core.ItemRaw:
			input = append(input, item.Raw)

		case core.ItemToolResult:
			output, err := json.Marshal(item.Result.Content)
			if err != nil {
				return nil, err
			}
			data, err := json.Marshal(functionCallOutput{
				Type:   "function_call_output",
				CallID: item.Result.CallID,
				Output: string(output),
			})
			if err != nil {
				return nil, err
			}
			input = append(input, data)

		default:
			return nil, fmt.Errorf("unsupported transcript item kind %q", item.Kind)
		}
	}
	return input, nil
}

// mapTools converts tool definitions to the wire format: JSON-schema
// definitions become function tools, grammar definitions become custom tools.
func mapTools(defs []core.ToolDefinition) []wireTool {
	if len(defs) == 0 {
		return nil
	}

	result := make([]wireTool, 0, len(defs))
	for _, def := range defs {
		if def.IsGrammar() {
			result = append(result, wireTool{
				Type:        "custom",
				Name:        def.Name,
				Description: def.Description,
				Format: &customToolFormat{
					Type:       "grammar",
					Syntax:     def.Grammar.Syntax,
					Definition: def.Grammar.Definition,
				},
			})
			continue
		}

		params := def.Parameters
		if params == nil {
			params = json.RawMessage(`{"type":"object","properties":{},"required":[]}`)
		}
		result = append(result, wireTool{
			Type:        "function",
			Name:        def.Name,
			Description: def.Description,
			Parameters:  params,
		})
	}
	return result
}

// mapResponse converts a Responses API response to a core.Response.
func mapResponse(resp *responsesResponse) (*core.Response, error) {
	result := &core.Response{
		ID:       resp.ID,
		Model:    core.ModelID(resp.Model),
		Status:   resp.Status,
		RawItems: resp.Output,
	}

	if resp.Usage != nil {
		result.Usage = core.TokenUsage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}

	for _, raw := range resp.Output {
		var item outputItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, newDecodeError(err)
		}

		switch item.Type {
		case "message":
			for _, content := range item.Content {
				if content.Type == "output_text" || content.Type == "text" {
					result.OutputText += content.Text
				}
			}

		case "function_call":
			// The service guarantees JSON arguments for function tools.
			if !json.Valid([]byte(item.Arguments)) {
				return nil, newDecodeError(fmt.Errorf("function call %s: arguments are not valid JSON", item.CallID))
			}
			result.ToolCalls = append(result.ToolCalls, core.ToolCall{
				ID:        item.CallID,
				Name:      item.Name,
				Arguments: json.RawMessage(item.Arguments),
			})

		case "custom_tool_call":
			// Grammar-constrained payloads are opaque text; the tool's
			// handler owns parsing and validation.
			result.ToolCalls = append(result.ToolCalls, core.ToolCall{
				ID:        item.CallID,
				Name:      item.Name,
				Arguments: json.RawMessage(item.Input),
			})
		}
		// reasoning items are carried in RawItems only.
	}

	return result, nil
}
