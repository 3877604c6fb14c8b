package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/loopworks/cfgbench/core"
	"github.com/loopworks/cfgbench/tools"
)

const simplePriceInstructions = `You are a simple price checker. Given a product SKU, call the tool ` + "`checkPrice`" + ` to get a random price in USD cents, then summarize the price to the user in dollars (e.g., $12.34).`

const simplePriceDefaultPrompt = `What's the price for SKU 'SKU-001' today?`

// checkPriceArgs is the checkPrice payload in both modes.
type checkPriceArgs struct {
	SKU string `json:"sku"`
}

// NewSimplePrice builds the single-tool scenario: one checkPrice call, then
// a summary. Prices are pseudo-random in 500 to 19999 cents, drawn from a
// seeded source so runs are reproducible.
func NewSimplePrice(cfg Config) *Scenario {
	cfg = cfg.withDefaults()
	s := newScenario(cfg, "simple-price", "simple_price.json")
	s.DefaultModel = "gpt-5"
	s.DefaultEffort = core.ReasoningEffortHigh
	s.Instructions = simplePriceInstructions
	s.Prompt = simplePriceDefaultPrompt

	def := core.ToolDefinition{
		Name:        "checkPrice",
		Description: "Return a random price in cents for the given SKU.",
	}
	if cfg.Mode == ModeGrammar {
		def.Grammar = larkGrammar("check_price.lark")
	} else {
		def.Parameters = json.RawMessage(`{
			"type": "object",
			"properties": {
				"sku": {"type": "string"}
			},
			"required": ["sku"]
		}`)
	}

	rng := newRand(cfg.Seed)
	var mu sync.Mutex

	s.registry.MustRegister(
		tools.Func(def, func(ctx context.Context, args json.RawMessage) (any, error) {
			parsed, err := tools.ParseArgs[checkPriceArgs](args)
			if err != nil {
				return nil, err
			}
			if parsed.SKU == "" {
				return nil, fmt.Errorf("%w: checkPrice: sku is required", core.ErrArgumentParse)
			}

			mu.Lock()
			priceCents := rng.Intn(19500) + 500
			mu.Unlock()

			return map[string]any{
				"sku":        parsed.SKU,
				"priceCents": priceCents,
				"currency":   "USD",
			}, nil
		}),
	)

	return s
}
