package scenario

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/loopworks/cfgbench/core"
	"github.com/loopworks/cfgbench/tools"
)

const priceCompareInstructions = `You are PriceCompare, a shopping assistant. Given a SKU and a ZIP code, fetch both base price and shipping info from all configured stores, then return the cheapest delivered in-stock option. Always check every store. Compute delivered price as item price + shipping. If an item is out of stock at a store, exclude it. Break ties by earlier ETA; if still tied, prefer the cheaper shipping method. Include a short rationale showing each store's totals.

Parallelization guidance:
- For a single SKU and ZIP, call getPrice for all stores in parallel, and getShipping for all stores in parallel. If the runtime requires two phases, fetch all prices first, then all shipping, fanning out across stores. Do not wait for one store before requesting another.

Output requirements:
- Summarize each store: price, shipping, ETA, total, stock status.
- Recommendation: name of the best store with total and ETA.
- Brief rationale describing tie-break rules if applicable.`

const priceCompareDefaultPrompt = `Find the best delivered price for SKU "N3-KEYBRD" shipped to ZIP 94507. Compare StoreA and StoreB, and show me each store's price, shipping, ETA, and total before recommending the best option.`

// priceListing is one catalog entry.
type priceListing struct {
	PriceCents int
	InStock    bool
}

// shippingQuote is one per-store shipping option.
type shippingQuote struct {
	Method        string
	ShippingCents int
	ETADays       int
}

// priceCatalog and shippingTable reproduce the fixed fixtures so the
// comparison is deterministic: storeB has the cheaper item but pricier,
// faster shipping.
var priceCatalog = map[string]map[string]priceListing{
	"storeA": {
		"N3-KEYBRD": {PriceCents: 4999, InStock: true},
		"OOS-ITEM":  {PriceCents: 12999, InStock: false},
	},
	"storeB": {
		"N3-KEYBRD": {PriceCents: 4799, InStock: true},
		"OOS-ITEM":  {PriceCents: 9999, InStock: false},
	},
}

var shippingTable = map[string]shippingQuote{
	"storeA": {Method: "standard", ShippingCents: 599, ETADays: 5},
	"storeB": {Method: "expedited", ShippingCents: 1299, ETADays: 2},
}

// getPriceArgs is the getPrice payload in both modes.
type getPriceArgs struct {
	Store string `json:"store"`
	SKU   string `json:"sku"`
}

// getShippingArgs is the getShipping payload in both modes.
type getShippingArgs struct {
	Store string `json:"store"`
	SKU   string `json:"sku"`
	Zip   string `json:"zip"`
}

func validStore(store string) error {
	if _, ok := shippingTable[store]; !ok {
		return fmt.Errorf("%w: unknown store %q (valid: storeA, storeB)", core.ErrArgumentParse, store)
	}
	return nil
}

// NewPriceCompare builds the two-store comparison scenario: getPrice and
// getShipping fan out across stores, then the model recommends the cheapest
// delivered in-stock option.
func NewPriceCompare(cfg Config) *Scenario {
	cfg = cfg.withDefaults()
	s := newScenario(cfg, "price-compare", "price_compare.json")
	s.DefaultModel = "gpt-5"
	s.DefaultEffort = core.ReasoningEffortHigh
	s.Instructions = priceCompareInstructions
	s.Prompt = priceCompareDefaultPrompt

	getPriceDef := core.ToolDefinition{
		Name:        "getPrice",
		Description: "Get base price and stock for a given store and SKU.",
	}
	getShippingDef := core.ToolDefinition{
		Name:        "getShipping",
		Description: "Get shipping cost and ETA for a given store, SKU, and ZIP.",
	}

	if cfg.Mode == ModeGrammar {
		getPriceDef.Grammar = larkGrammar("get_price.lark")
		getShippingDef.Grammar = larkGrammar("get_shipping.lark")
	} else {
		getPriceDef.Parameters = json.RawMessage(`{
			"type": "object",
			"properties": {
				"store": {"type": "string", "description": "Store identifier", "enum": ["storeA", "storeB"]},
				"sku": {"type": "string"}
			},
			"required": ["store", "sku"]
		}`)
		getShippingDef.Parameters = json.RawMessage(`{
			"type": "object",
			"properties": {
				"store": {"type": "string", "description": "Store identifier", "enum": ["storeA", "storeB"]},
				"sku": {"type": "string"},
				"zip": {"type": "string"}
			},
			"required": ["store", "sku", "zip"]
		}`)
	}

	s.registry.MustRegister(
		tools.Func(getPriceDef, func(ctx context.Context, args json.RawMessage) (any, error) {
			parsed, err := tools.ParseArgs[getPriceArgs](args)
			if err != nil {
				return nil, err
			}
			if err := validStore(parsed.Store); err != nil {
				return nil, err
			}

			listing, ok := priceCatalog[parsed.Store][parsed.SKU]
			if !ok {
				// Unknown SKU at a store is reported as out of stock.
				return map[string]any{
					"store":      parsed.Store,
					"sku":        parsed.SKU,
					"priceCents": 0,
					"inStock":    false,
					"currency":   "USD",
				}, nil
			}
			return map[string]any{
				"store":      parsed.Store,
				"sku":        parsed.SKU,
				"priceCents": listing.PriceCents,
				"inStock":    listing.InStock,
				"currency":   "USD",
			}, nil
		}),
		tools.Func(getShippingDef, func(ctx context.Context, args json.RawMessage) (any, error) {
			parsed, err := tools.ParseArgs[getShippingArgs](args)
			if err != nil {
				return nil, err
			}
			if err := validStore(parsed.Store); err != nil {
				return nil, err
			}

			// SKU and ZIP do not affect the fixed quotes.
			quote := shippingTable[parsed.Store]
			return map[string]any{
				"store":         parsed.Store,
				"sku":           parsed.SKU,
				"shippingCents": quote.ShippingCents,
				"etaDays":       quote.ETADays,
				"method":        quote.Method,
				"currency":      "USD",
			}, nil
		}),
	)

	return s
}
