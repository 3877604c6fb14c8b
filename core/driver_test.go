package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"testing"
	"time"
)

// scriptedService returns canned responses in order and records every
// request it receives.
type scriptedService struct {
	responses []*Response
	errs      []error
	requests  []*Request
	calls     int
}

func (s *scriptedService) CreateResponse(ctx context.Context, req *Request) (*Response, error) {
	// Snapshot the input so later appends don't alias.
	cp := *req
	cp.Input = append([]Item(nil), req.Input...)
	s.requests = append(s.requests, &cp)

	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i >= len(s.responses) {
		// Repeat the last response indefinitely.
		return s.responses[len(s.responses)-1], nil
	}
	return s.responses[i], nil
}

// mapExecutor executes tools from a name-keyed map, mirroring the
// registry's unknown-tool behavior.
type mapExecutor map[string]func(ctx context.Context, args json.RawMessage) (any, error)

func (m mapExecutor) Execute(ctx context.Context, name string, args json.RawMessage) (any, error) {
	fn, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return fn(ctx, args)
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func toolCallResponse(calls ...ToolCall) *Response {
	raw := make([]json.RawMessage, len(calls))
	for i, c := range calls {
		raw[i] = json.RawMessage(fmt.Sprintf(
			`{"type":"function_call","call_id":%q,"name":%q,"arguments":"{}"}`, c.ID, c.Name))
	}
	return &Response{ToolCalls: calls, RawItems: raw}
}

func TestDriverReturnsFinalTextImmediately(t *testing.T) {
	svc := &scriptedService{responses: []*Response{{OutputText: "no todos found"}}}
	d := NewDriver(svc, mapExecutor{}, nil, DriverConfig{Logger: quietLogger()})

	result, err := d.Run(context.Background(), "anything to do?")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.FinalText != "no todos found" {
		t.Errorf("FinalText = %q, want %q", result.FinalText, "no todos found")
	}
	if result.Rounds != 1 {
		t.Errorf("Rounds = %d, want 1", result.Rounds)
	}
	if len(result.Executions) != 0 {
		t.Errorf("Executions = %d, want 0", len(result.Executions))
	}
	if result.RunID == "" {
		t.Error("RunID should not be empty")
	}
}

func TestDriverTwoRoundTodoScenario(t *testing.T) {
	svc := &scriptedService{responses: []*Response{
		toolCallResponse(ToolCall{ID: "call_1", Name: "add_todo", Arguments: json.RawMessage(`{"text":"buy milk"}`)}),
		{OutputText: "Added 'buy milk' to your todos."},
	}}

	var gotArgs string
	exec := mapExecutor{
		"add_todo": func(ctx context.Context, args json.RawMessage) (any, error) {
			gotArgs = string(args)
			return map[string]any{"added": true}, nil
		},
	}

	d := NewDriver(svc, exec, nil, DriverConfig{Logger: quietLogger()})
	result, err := d.Run(context.Background(), "add a todo to buy milk")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Rounds != 2 {
		t.Errorf("Rounds = %d, want 2", result.Rounds)
	}
	if result.FinalText != "Added 'buy milk' to your todos." {
		t.Errorf("FinalText = %q", result.FinalText)
	}
	if gotArgs != `{"text":"buy milk"}` {
		t.Errorf("handler args = %s, want original payload", gotArgs)
	}
	if len(result.RoundStats) != 1 || result.RoundStats[0].Round != 1 {
		t.Fatalf("RoundStats = %+v, want one entry for round 1", result.RoundStats)
	}
	if got := result.RoundStats[0].ToolNames; len(got) != 1 || got[0] != "add_todo" {
		t.Errorf("RoundStats[0].ToolNames = %v, want [add_todo]", got)
	}

	// The second outbound request must carry the echoed call item and the
	// matching result, in that order, after the user message.
	if len(svc.requests) != 2 {
		t.Fatalf("service saw %d requests, want 2", len(svc.requests))
	}
	input := svc.requests[1].Input
	if len(input) != 3 {
		t.Fatalf("second request input has %d items, want 3", len(input))
	}
	if input[1].Kind != ItemRaw {
		t.Errorf("input[1].Kind = %q, want %q", input[1].Kind, ItemRaw)
	}
	if input[2].Kind != ItemToolResult || input[2].Result.CallID != "call_1" {
		t.Errorf("input[2] = %+v, want tool result for call_1", input[2])
	}
	if input[2].Result.IsError {
		t.Error("result should not be an error")
	}
}

func TestDriverOneResultPerCallMatchingIDs(t *testing.T) {
	calls := []ToolCall{
		{ID: "call_a", Name: "getPrice", Arguments: json.RawMessage(`{"store":"storeA","sku":"N3-KEYBRD"}`)},
		{ID: "call_b", Name: "getPrice", Arguments: json.RawMessage(`{"store":"storeB","sku":"N3-KEYBRD"}`)},
		{ID: "call_c", Name: "getShipping", Arguments: json.RawMessage(`{"store":"storeA","sku":"N3-KEYBRD","zip":"94110"}`)},
	}
	svc := &scriptedService{responses: []*Response{
		toolCallResponse(calls...),
		{OutputText: "storeB is cheapest"},
	}}

	exec := mapExecutor{
		"getPrice":    func(ctx context.Context, args json.RawMessage) (any, error) { return "price", nil },
		"getShipping": func(ctx context.Context, args json.RawMessage) (any, error) { return "shipping", nil },
	}

	d := NewDriver(svc, exec, nil, DriverConfig{Logger: quietLogger()})
	result, err := d.Run(context.Background(), "compare prices")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	input := svc.requests[1].Input
	var gotIDs []string
	for _, item := range input {
		if item.Kind == ItemToolResult {
			gotIDs = append(gotIDs, item.Result.CallID)
		}
	}
	wantIDs := []string{"call_a", "call_b", "call_c"}
	if len(gotIDs) != len(wantIDs) {
		t.Fatalf("got %d results, want %d", len(gotIDs), len(wantIDs))
	}
	for i := range wantIDs {
		if gotIDs[i] != wantIDs[i] {
			t.Errorf("result[%d].CallID = %q, want %q", i, gotIDs[i], wantIDs[i])
		}
	}
	if len(result.Executions) != 3 {
		t.Errorf("Executions = %d, want 3", len(result.Executions))
	}
}

func TestDriverParallelDispatchPreservesCallOrder(t *testing.T) {
	calls := []ToolCall{
		{ID: "call_1", Name: "slow"},
		{ID: "call_2", Name: "fast"},
	}
	svc := &scriptedService{responses: []*Response{
		toolCallResponse(calls...),
		{OutputText: "done"},
	}}

	var running atomic.Int32
	var sawConcurrent atomic.Bool
	exec := mapExecutor{
		"slow": func(ctx context.Context, args json.RawMessage) (any, error) {
			running.Add(1)
			defer running.Add(-1)
			time.Sleep(20 * time.Millisecond)
			return "slow done", nil
		},
		"fast": func(ctx context.Context, args json.RawMessage) (any, error) {
			if running.Load() > 0 {
				sawConcurrent.Store(true)
			}
			return "fast done", nil
		},
	}

	d := NewDriver(svc, exec, nil, DriverConfig{Parallel: true, Logger: quietLogger()})
	if _, err := d.Run(context.Background(), "go"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	input := svc.requests[1].Input
	var gotIDs []string
	for _, item := range input {
		if item.Kind == ItemToolResult {
			gotIDs = append(gotIDs, item.Result.CallID)
		}
	}
	if len(gotIDs) != 2 || gotIDs[0] != "call_1" || gotIDs[1] != "call_2" {
		t.Errorf("result order = %v, want [call_1 call_2]", gotIDs)
	}
}

func TestDriverUnknownToolContinuesLoop(t *testing.T) {
	svc := &scriptedService{responses: []*Response{
		toolCallResponse(ToolCall{ID: "call_1", Name: "not_registered", Arguments: json.RawMessage(`{}`)}),
		{OutputText: "sorry, I used a bad tool"},
	}}

	d := NewDriver(svc, mapExecutor{}, nil, DriverConfig{Logger: quietLogger()})
	result, err := d.Run(context.Background(), "do something")
	if err != nil {
		t.Fatalf("Run() error = %v, want nil (unknown tool self-corrects)", err)
	}

	input := svc.requests[1].Input
	var res *ToolResult
	for _, item := range input {
		if item.Kind == ItemToolResult {
			res = item.Result
		}
	}
	if res == nil {
		t.Fatal("no tool result appended for unknown tool")
	}
	if !res.IsError {
		t.Error("unknown tool result should be an error result")
	}
	if res.CallID != "call_1" {
		t.Errorf("CallID = %q, want call_1", res.CallID)
	}
	if result.Executions[0].Err == nil || !errors.Is(result.Executions[0].Err, ErrUnknownTool) {
		t.Errorf("execution error = %v, want ErrUnknownTool", result.Executions[0].Err)
	}
}

func TestDriverHandlerErrorBecomesErrorResult(t *testing.T) {
	svc := &scriptedService{responses: []*Response{
		toolCallResponse(ToolCall{ID: "call_1", Name: "add_todo", Arguments: json.RawMessage(`not json`)}),
		{OutputText: "ok"},
	}}

	exec := mapExecutor{
		"add_todo": func(ctx context.Context, args json.RawMessage) (any, error) {
			return nil, fmt.Errorf("%w: invalid payload", ErrArgumentParse)
		},
	}

	d := NewDriver(svc, exec, nil, DriverConfig{Logger: quietLogger()})
	result, err := d.Run(context.Background(), "add it")
	if err != nil {
		t.Fatalf("Run() error = %v, want nil (parse failure self-corrects)", err)
	}
	if !errors.Is(result.Executions[0].Err, ErrArgumentParse) {
		t.Errorf("execution error = %v, want ErrArgumentParse", result.Executions[0].Err)
	}

	input := svc.requests[1].Input
	last := input[len(input)-1]
	if last.Kind != ItemToolResult || !last.Result.IsError {
		t.Errorf("last item = %+v, want error tool result", last)
	}
}

func TestDriverLoopExceeded(t *testing.T) {
	// Service requests tool calls indefinitely.
	svc := &scriptedService{responses: []*Response{
		toolCallResponse(ToolCall{ID: "call_x", Name: "noop", Arguments: json.RawMessage(`{}`)}),
	}}
	exec := mapExecutor{
		"noop": func(ctx context.Context, args json.RawMessage) (any, error) { return "ok", nil },
	}

	d := NewDriver(svc, exec, nil, DriverConfig{MaxRounds: 3, Logger: quietLogger()})
	_, err := d.Run(context.Background(), "loop forever")
	if !errors.Is(err, ErrLoopExceeded) {
		t.Fatalf("Run() error = %v, want ErrLoopExceeded", err)
	}
	// The cap permits exactly MaxRounds outbound requests.
	if svc.calls != 3 {
		t.Errorf("service calls = %d, want 3", svc.calls)
	}
}

func TestDriverRetriesTransientServiceErrors(t *testing.T) {
	svc := &scriptedService{
		errs:      []error{&ServiceError{Service: "openai", Status: 500, Err: ErrServer}, &ServiceError{Service: "openai", Status: 503, Err: ErrServer}},
		responses: []*Response{nil, nil, {OutputText: "recovered"}},
	}

	d := NewDriver(svc, mapExecutor{}, nil, DriverConfig{
		Retry:  NewRetryPolicy(RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Jitter: 0}),
		Logger: quietLogger(),
	})
	result, err := d.Run(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Run() error = %v, want success after retries", err)
	}
	if result.FinalText != "recovered" {
		t.Errorf("FinalText = %q, want %q", result.FinalText, "recovered")
	}
	if svc.calls != 3 {
		t.Errorf("service calls = %d, want 3", svc.calls)
	}
}

func TestDriverFatalAfterRetryBudget(t *testing.T) {
	fail := &ServiceError{Service: "openai", Status: 500, Err: ErrServer}
	svc := &scriptedService{errs: []error{fail, fail, fail, fail, fail}}

	d := NewDriver(svc, mapExecutor{}, nil, DriverConfig{
		Retry:  NewRetryPolicy(RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Jitter: 0}),
		Logger: quietLogger(),
	})
	_, err := d.Run(context.Background(), "hello")
	if !errors.Is(err, ErrServer) {
		t.Fatalf("Run() error = %v, want ErrServer after exhausted retries", err)
	}
	if svc.calls != 3 {
		t.Errorf("service calls = %d, want 3 (initial + 2 retries)", svc.calls)
	}
}

func TestDriverNonRetryableErrorIsFatal(t *testing.T) {
	svc := &scriptedService{errs: []error{&ServiceError{Service: "openai", Status: 401, Err: ErrUnauthorized}}}

	d := NewDriver(svc, mapExecutor{}, nil, DriverConfig{Logger: quietLogger()})
	_, err := d.Run(context.Background(), "hello")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Run() error = %v, want ErrUnauthorized", err)
	}
	if svc.calls != 1 {
		t.Errorf("service calls = %d, want 1 (no retries)", svc.calls)
	}
}

func TestDriverHooks(t *testing.T) {
	svc := &scriptedService{responses: []*Response{
		toolCallResponse(ToolCall{ID: "call_1", Name: "noop", Arguments: json.RawMessage(`{}`)}),
		{OutputText: "done"},
	}}
	exec := mapExecutor{
		"noop": func(ctx context.Context, args json.RawMessage) (any, error) { return "ok", nil },
	}

	var starts, ends, toolEnds int
	d := NewDriver(svc, exec, nil, DriverConfig{
		Logger: quietLogger(),
		Hooks: Hooks{
			OnRoundStart:  func(ctx context.Context, round, n int) { starts++ },
			OnRoundEnd:    func(ctx context.Context, round int, resp *Response) { ends++ },
			OnToolCallEnd: func(ctx context.Context, exec Execution) { toolEnds++ },
		},
	})
	if _, err := d.Run(context.Background(), "go"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if starts != 2 || ends != 2 {
		t.Errorf("round hooks = (%d, %d), want (2, 2)", starts, ends)
	}
	if toolEnds != 1 {
		t.Errorf("tool hooks = %d, want 1", toolEnds)
	}
}
