package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Service is the remote service boundary: one request carrying the
// transcript plus tool definitions, one response carrying either final text
// or a batch of tool calls.
type Service interface {
	CreateResponse(ctx context.Context, req *Request) (*Response, error)
}

// ToolExecutor executes tools by name. Implemented by tools.Registry.
type ToolExecutor interface {
	// Execute finds a tool by name and calls it with the given arguments.
	Execute(ctx context.Context, name string, args json.RawMessage) (any, error)
}

// DriverConfig configures the tool-call loop driver.
type DriverConfig struct {
	// Model selects the underlying model variant.
	Model ModelID

	// Instructions is the system prompt sent on every round-trip.
	Instructions string

	// ReasoningEffort is passed through to the service when set.
	ReasoningEffort ReasoningEffort

	// MaxRounds caps the number of round-trips before the run fails with
	// ErrLoopExceeded. Default: 10.
	MaxRounds int

	// Parallel enables concurrent execution of the tool calls within one
	// response batch. Results are joined before the next round-trip and
	// appended in call order, so transcript order is stable either way.
	// Default: false (the reference behavior is sequential).
	Parallel bool

	// MaxParallel limits concurrent tool executions when Parallel is set.
	// Default: 5.
	MaxParallel int

	// Retry governs retries of failed service calls.
	// Default: DefaultRetryPolicy().
	Retry RetryPolicy

	// Logger receives the per-round lines naming which tools were invoked.
	// Default: log.Default().
	Logger *log.Logger

	// Hooks for observing the run.
	Hooks Hooks
}

// Hooks provides callbacks for observing driver execution.
type Hooks struct {
	// OnRoundStart is called before each service call.
	OnRoundStart func(ctx context.Context, round int, transcriptLen int)

	// OnRoundEnd is called after each service response.
	OnRoundEnd func(ctx context.Context, round int, resp *Response)

	// OnToolCallEnd is called after each tool execution.
	OnToolCallEnd func(ctx context.Context, exec Execution)
}

// Execution records a single tool call and its outcome.
type Execution struct {
	Round    int
	Call     ToolCall
	Result   any
	Err      error
	Duration time.Duration
}

// RoundStats records which tools the service requested in one round.
// This is the observable the harness exists to produce: grammar-constrained
// tool definitions tend to yield one call per round, schema-based ones tend
// to batch.
type RoundStats struct {
	Round     int
	ToolNames []string
}

// RunResult is the outcome of a completed driver run.
type RunResult struct {
	RunID      string
	FinalText  string
	Rounds     int
	RoundStats []RoundStats
	Executions []Execution
	Usage      TokenUsage
	Transcript *Transcript
}

// Driver owns the conversation transcript, dispatches tool calls to local
// handlers, and terminates when the remote service returns a final answer
// with no further tool calls.
type Driver struct {
	service  Service
	executor ToolExecutor
	defs     []ToolDefinition
	cfg      DriverConfig
}

// NewDriver creates a driver over the given service, executor, and tool
// definitions. The definitions must describe the tools the executor can run.
func NewDriver(service Service, executor ToolExecutor, defs []ToolDefinition, cfg DriverConfig) *Driver {
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = 10
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 5
	}
	if cfg.Retry == nil {
		cfg.Retry = DefaultRetryPolicy()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Driver{
		service:  service,
		executor: executor,
		defs:     defs,
		cfg:      cfg,
	}
}

// Run drives the multi-turn exchange until the service produces a final
// answer, executing any tool calls it requests in between.
func (d *Driver) Run(ctx context.Context, userInput string) (*RunResult, error) {
	transcript := NewTranscript()
	transcript.AppendMessage(RoleUser, userInput)

	result := &RunResult{
		RunID:      uuid.NewString(),
		Transcript: transcript,
	}

	for round := 1; ; round++ {
		if round > d.cfg.MaxRounds {
			return nil, fmt.Errorf("%w: no final answer after %d round-trips (run %s)",
				ErrLoopExceeded, d.cfg.MaxRounds, result.RunID)
		}

		if d.cfg.Hooks.OnRoundStart != nil {
			d.cfg.Hooks.OnRoundStart(ctx, round, transcript.Len())
		}

		resp, err := d.send(ctx, transcript)
		if err != nil {
			return nil, err
		}
		result.Rounds = round
		result.Usage = result.Usage.Add(resp.Usage)

		if d.cfg.Hooks.OnRoundEnd != nil {
			d.cfg.Hooks.OnRoundEnd(ctx, round, resp)
		}

		if resp.Kind() == KindFinalAnswer {
			d.cfg.Logger.Printf("round %d: final answer after %d round-trip(s)", round, round)
			result.FinalText = resp.OutputText
			return result, nil
		}

		// Echo the service's output items verbatim before appending results,
		// so call items precede their outputs in the transcript.
		transcript.AppendRaw(resp.RawItems)

		names := make([]string, len(resp.ToolCalls))
		for i, call := range resp.ToolCalls {
			names[i] = call.Name
		}
		result.RoundStats = append(result.RoundStats, RoundStats{Round: round, ToolNames: names})
		d.cfg.Logger.Printf("round %d: %d tool call(s): %s", round, len(names), strings.Join(names, ", "))

		results, execs := d.dispatch(ctx, round, resp.ToolCalls)
		result.Executions = append(result.Executions, execs...)
		for _, res := range results {
			transcript.AppendResult(res)
		}
	}
}

// send performs one service call, retrying per the configured policy.
func (d *Driver) send(ctx context.Context, transcript *Transcript) (*Response, error) {
	req := &Request{
		Model:           d.cfg.Model,
		Instructions:    d.cfg.Instructions,
		Input:           transcript.Items(),
		Tools:           d.defs,
		ReasoningEffort: d.cfg.ReasoningEffort,
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		resp, err := d.service.CreateResponse(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		delay, ok := d.cfg.Retry.NextDelay(attempt, err)
		if !ok {
			return nil, lastErr
		}
		d.cfg.Logger.Printf("service call failed (attempt %d), retrying in %s: %v", attempt+1, delay, err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// dispatch executes one response batch, producing exactly one result per
// call, tagged with the originating call ID and returned in call order.
func (d *Driver) dispatch(ctx context.Context, round int, calls []ToolCall) ([]ToolResult, []Execution) {
	if d.cfg.Parallel && len(calls) > 1 {
		return d.dispatchParallel(ctx, round, calls)
	}
	return d.dispatchSequential(ctx, round, calls)
}

func (d *Driver) dispatchSequential(ctx context.Context, round int, calls []ToolCall) ([]ToolResult, []Execution) {
	results := make([]ToolResult, len(calls))
	execs := make([]Execution, len(calls))
	for i, call := range calls {
		results[i], execs[i] = d.execute(ctx, round, call)
	}
	return results, execs
}

func (d *Driver) dispatchParallel(ctx context.Context, round int, calls []ToolCall) ([]ToolResult, []Execution) {
	results := make([]ToolResult, len(calls))
	execs := make([]Execution, len(calls))

	sem := make(chan struct{}, d.cfg.MaxParallel)
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(idx int, c ToolCall) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[idx], execs[idx] = d.execute(ctx, round, c)
		}(i, call)
	}
	wg.Wait()

	return results, execs
}

// execute runs one tool call. Handler failures (unknown tool, malformed
// arguments, handler errors) become error results fed back to the service
// rather than aborting the run.
func (d *Driver) execute(ctx context.Context, round int, call ToolCall) (ToolResult, Execution) {
	start := time.Now()
	value, err := d.executor.Execute(ctx, call.Name, call.Arguments)
	exec := Execution{
		Round:    round,
		Call:     call,
		Result:   value,
		Err:      err,
		Duration: time.Since(start),
	}

	if d.cfg.Hooks.OnToolCallEnd != nil {
		d.cfg.Hooks.OnToolCallEnd(ctx, exec)
	}

	if err != nil {
		return ToolResult{CallID: call.ID, Content: err.Error(), IsError: true}, exec
	}
	return ToolResult{CallID: call.ID, Content: value, IsError: false}, exec
}
