package tools

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/loopworks/cfgbench/core"
)

func TestParseArgs(t *testing.T) {
	type addTodoArgs struct {
		Title    string  `json:"title"`
		Due      *string `json:"due"`
		Priority string  `json:"priority"`
	}

	args, err := ParseArgs[addTodoArgs](json.RawMessage(`{"title":"buy milk","due":null,"priority":"low"}`))
	if err != nil {
		t.Fatalf("ParseArgs() error = %v", err)
	}
	if args.Title != "buy milk" {
		t.Errorf("Title = %q, want buy milk", args.Title)
	}
	if args.Due != nil {
		t.Errorf("Due = %v, want nil", args.Due)
	}
	if args.Priority != "low" {
		t.Errorf("Priority = %q, want low", args.Priority)
	}
}

func TestParseArgsMalformedPayload(t *testing.T) {
	type skuArgs struct {
		SKU string `json:"sku"`
	}

	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `not json at all`},
		{"truncated", `{"sku":`},
		{"wrong type", `{"sku":42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs[skuArgs](json.RawMessage(tt.payload))
			if !errors.Is(err, core.ErrArgumentParse) {
				t.Errorf("ParseArgs(%q) error = %v, want ErrArgumentParse", tt.payload, err)
			}
		})
	}
}
