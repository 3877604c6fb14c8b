// Package scenario defines the benchmark scenarios: fixed prompts, tool sets
// in both definition modes, and deterministic local handlers. Each scenario
// runs the same exchange with JSON-schema function tools or with
// grammar-constrained custom tools, so round-trip counts and batching
// behavior can be compared across modes.
package scenario

import (
	"context"
	"embed"
	"fmt"
	"log"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/loopworks/cfgbench/core"
	"github.com/loopworks/cfgbench/store"
	"github.com/loopworks/cfgbench/tools"
)

//go:embed grammars/*.lark
var grammarFS embed.FS

// grammar loads an embedded lark grammar by file name.
func grammar(name string) string {
	data, err := grammarFS.ReadFile("grammars/" + name)
	if err != nil {
		panic(fmt.Sprintf("scenario: missing embedded grammar %q: %v", name, err))
	}
	return string(data)
}

// larkGrammar wraps an embedded grammar file as a wire grammar.
func larkGrammar(name string) *core.Grammar {
	return &core.Grammar{Syntax: "lark", Definition: grammar(name)}
}

// Mode selects how tool definitions are presented to the service.
type Mode string

const (
	// ModeSchema sends JSON-schema function tools.
	ModeSchema Mode = "schema"

	// ModeGrammar sends grammar-constrained custom tools.
	ModeGrammar Mode = "grammar"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSchema, ModeGrammar:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown mode %q (valid: schema, grammar)", s)
	}
}

// Config holds settings shared by all scenario constructors.
type Config struct {
	// Mode selects the tool definition style.
	Mode Mode

	// OutputDir is where stores and snapshots are written.
	// Default: "output".
	OutputDir string

	// Clock supplies the current time for time-dependent handlers.
	// Default: time.Now.
	Clock func() time.Time

	// Seed seeds the pseudo-random price generator.
	// Default: 1.
	Seed int64

	// Logger receives tool execution lines.
	// Default: log.Default().
	Logger *log.Logger
}

func (c Config) withDefaults() Config {
	if c.Mode == "" {
		c.Mode = ModeSchema
	}
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	return c
}

// Scenario bundles one benchmark exchange: instructions, the user prompt,
// the tool registry for the selected mode, and the files it writes.
type Scenario struct {
	Name          string
	Mode          Mode
	Instructions  string
	Prompt        string
	DefaultModel  core.ModelID
	DefaultEffort core.ReasoningEffort

	registry *tools.Registry
	stores   []*store.File
	snapshot *store.File
	logger   *log.Logger
}

// Registry returns the scenario's tool registry.
func (s *Scenario) Registry() *tools.Registry {
	return s.registry
}

// Definitions returns the wire tool definitions for the scenario's mode.
func (s *Scenario) Definitions() []core.ToolDefinition {
	return s.registry.Definitions()
}

// RunOptions override per-run driver settings. Zero values fall back to the
// scenario defaults.
type RunOptions struct {
	Model     core.ModelID
	Effort    core.ReasoningEffort
	MaxRounds int
	Parallel  bool
}

// Snapshot is the record written after a successful run.
type Snapshot struct {
	Scenario   string          `json:"scenario"`
	Mode       Mode            `json:"mode"`
	Model      core.ModelID    `json:"model"`
	Prompt     string          `json:"prompt"`
	Rounds     int             `json:"rounds"`
	RoundTools [][]string      `json:"round_tools"`
	FinalText  string          `json:"final_text"`
	Usage      core.TokenUsage `json:"usage"`
}

// Run resets the scenario's stores, drives the exchange to completion, and
// writes the snapshot. The snapshot is only written after the run succeeds.
func (s *Scenario) Run(ctx context.Context, svc core.Service, opts RunOptions) (*core.RunResult, error) {
	for _, st := range s.stores {
		if err := st.Reset(); err != nil {
			return nil, fmt.Errorf("reset store: %w", err)
		}
	}
	if err := s.snapshot.Reset(); err != nil {
		return nil, fmt.Errorf("reset snapshot: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = s.DefaultModel
	}
	effort := opts.Effort
	if effort == "" {
		effort = s.DefaultEffort
	}

	driver := core.NewDriver(svc, s.registry, s.registry.Definitions(), core.DriverConfig{
		Model:           model,
		Instructions:    s.Instructions,
		ReasoningEffort: effort,
		MaxRounds:       opts.MaxRounds,
		Parallel:        opts.Parallel,
		Logger:          s.logger,
	})

	result, err := driver.Run(ctx, s.Prompt)
	if err != nil {
		return nil, err
	}

	roundTools := make([][]string, 0, len(result.RoundStats))
	for _, rs := range result.RoundStats {
		roundTools = append(roundTools, rs.ToolNames)
	}

	snap := Snapshot{
		Scenario:   s.Name,
		Mode:       s.Mode,
		Model:      model,
		Prompt:     s.Prompt,
		Rounds:     result.Rounds,
		RoundTools: roundTools,
		FinalText:  result.FinalText,
		Usage:      result.Usage,
	}
	if err := s.snapshot.Replace(snap); err != nil {
		return nil, fmt.Errorf("write snapshot: %w", err)
	}

	return result, nil
}

// newScenario wires the shared pieces: a registry with logging middleware and
// the snapshot file under the output dir.
func newScenario(cfg Config, name, snapshotFile string) *Scenario {
	reg := tools.NewRegistry()
	reg.Use(tools.WithLogging(cfg.Logger))

	return &Scenario{
		Name:     name,
		Mode:     cfg.Mode,
		registry: reg,
		snapshot: store.NewFile(filepath.Join(cfg.OutputDir, snapshotFile)),
		logger:   cfg.Logger,
	}
}

// Constructor builds a scenario from a config.
type Constructor func(cfg Config) *Scenario

// All maps scenario names to their constructors, in a stable order.
func All() []struct {
	Name string
	New  Constructor
} {
	return []struct {
		Name string
		New  Constructor
	}{
		{Name: "todos", New: NewTodos},
		{Name: "simple-price", New: NewSimplePrice},
		{Name: "price-compare", New: NewPriceCompare},
		{Name: "email-triage", New: NewEmailTriage},
	}
}

// newRand builds the deterministic source used by price handlers.
func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
