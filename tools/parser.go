package tools

import (
	"encoding/json"
	"fmt"

	"github.com/loopworks/cfgbench/core"
)

// ParseArgs parses a tool argument payload into a typed struct.
// Malformed payloads are reported as core.ErrArgumentParse so the driver
// can feed the failure back to the service instead of crashing.
//
// Example:
//
//	type AddTodoArgs struct {
//	    Title    string  `json:"title"`
//	    Due      *string `json:"due"`
//	    Priority string  `json:"priority"`
//	}
//
//	args, err := tools.ParseArgs[AddTodoArgs](raw)
//	if err != nil {
//	    return nil, err
//	}
func ParseArgs[T any](raw json.RawMessage) (*T, error) {
	var result T
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrArgumentParse, err)
	}
	return &result, nil
}
