package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/loopworks/cfgbench/core"
	"github.com/loopworks/cfgbench/store"
	"github.com/loopworks/cfgbench/tools"
)

const todosSchemaInstructions = `You are a helpful internal system whose job is to read the user's transcript and extract todos to add.

Requirements:
- Parse the entire transcript first, identifying ALL todos before calling tools.
- When adding todos, emit all tool calls together in a single response so they can be called in parallel:
  1) If needed, call get_current_datetime at most once to get the current date/time.
  2) Then, call add_todo for each todo you found
- Do not split todo additions across multiple responses unless absolutely necessary. CALL THEM IN PARALLEL ALWAYS UNLESS YOU ABSOLUTELY CAN'T.
- After tools are executed, return a final user-facing summary message of what you added (or that there were no todos).

Notes:
- Use clear titles. Infer reasonable due dates relative to the current date when appropriate.
- If there are no todos, do not call any tools; just respond that there are none to add.`

const todosGrammarInstructions = `# Role and Objective
- Your task is to analyze the user's transcript, extract all actionable todos, and facilitate their addition to the system in an efficient manner.

# Instructions
- Begin with a concise checklist (3-7 bullets) of what you will do; keep items conceptual, not implementation-level.
- Process the full transcript in one pass, identifying every todo item before invoking any tools.
- Issue all tool calls in a single response to enable maximum parallelism:
  1. Call ` + "`get_current_datetime`" + ` once if you need the current date or time for due dates.
  2. For each identified todo, call ` + "`add_todo`" + ` (emit all calls in parallel in the same output).
- Only split tool calls across multiple responses if absolutely required, otherwise always group them together.
- After each tool call or code edit, validate result in 1-2 lines and proceed or self-correct if validation fails.
- After tool execution, generate a concise user-facing summary that clearly details what todos were added, or indicate that none were found.

# Context
- Provide clear, concise todo titles. When appropriate, infer smart relative due dates based on the current date.
- If no todos are found in the transcript, avoid all tool calls and inform the user accordingly.

# Output Format
- Call tools using the specified API methods (` + "`get_current_datetime`, `add_todo`" + `) as described above, batching all calls unless impossible.
- End with a summary message to the user: either a list of added todos or an explicit statement that no todos were extracted.`

const todosDefaultTranscript = "I just got a new job at the local hospital. I need to call my mom to tell her tonight, and then go pick up my new car tomorrow. Had a really good time at the beach with my friends yesterday, need to call them to setup a time to go again later this week."

// todoArgs is the add_todo payload in both modes.
type todoArgs struct {
	Title    string  `json:"title"`
	Due      *string `json:"due"`
	Priority string  `json:"priority"`
}

func (a *todoArgs) validate() error {
	if a.Title == "" {
		return fmt.Errorf("%w: add_todo: title is required", core.ErrArgumentParse)
	}
	switch a.Priority {
	case "low", "medium", "high":
		return nil
	default:
		return fmt.Errorf("%w: add_todo: priority %q (valid: low, medium, high)", core.ErrArgumentParse, a.Priority)
	}
}

// NewTodos builds the todo-extraction scenario: the model reads a transcript,
// fetches the current datetime, and adds one todo per actionable item to a
// whole-file JSON store.
func NewTodos(cfg Config) *Scenario {
	cfg = cfg.withDefaults()
	s := newScenario(cfg, "todos", "todos_snapshot.json")
	s.DefaultModel = "gpt-5-mini"
	s.DefaultEffort = core.ReasoningEffortMinimal
	s.Prompt = "Transcript:\n" + todosDefaultTranscript

	if cfg.Mode == ModeGrammar {
		s.Instructions = todosGrammarInstructions
	} else {
		s.Instructions = todosSchemaInstructions
	}

	todoStore := store.NewFile(filepath.Join(cfg.OutputDir, "todos.json"))
	s.stores = append(s.stores, todoStore)

	datetimeDef := core.ToolDefinition{
		Name:        "get_current_datetime",
		Description: "Gets the current date and time, in the format of YYYY-MM-DD HH:MM:SS",
	}
	addTodoDef := core.ToolDefinition{
		Name:        "add_todo",
		Description: "Adds a todo to the user's list",
	}

	if cfg.Mode == ModeGrammar {
		datetimeDef.Grammar = larkGrammar("get_current_datetime.lark")
		addTodoDef.Grammar = larkGrammar("add_todo.lark")
	} else {
		datetimeDef.Parameters = json.RawMessage(`{
			"type": "object",
			"properties": {},
			"required": []
		}`)
		addTodoDef.Parameters = json.RawMessage(`{
			"type": "object",
			"properties": {
				"title": {"type": "string", "description": "Title of the todo"},
				"due": {"type": ["string", "null"], "description": "Due date in YYYY-MM-DD or null"},
				"priority": {"type": "string", "enum": ["low", "medium", "high"]}
			},
			"required": ["title", "due", "priority"]
		}`)
	}

	clock := cfg.Clock
	s.registry.MustRegister(
		tools.Func(datetimeDef, func(ctx context.Context, args json.RawMessage) (any, error) {
			return map[string]string{
				"current_datetime": clock().Format("2006-01-02 15:04:05"),
			}, nil
		}),
		tools.Func(addTodoDef, func(ctx context.Context, args json.RawMessage) (any, error) {
			parsed, err := tools.ParseArgs[todoArgs](args)
			if err != nil {
				return nil, err
			}
			if err := parsed.validate(); err != nil {
				return nil, err
			}

			var todos []todoArgs
			if err := todoStore.Load(&todos); err != nil {
				return nil, err
			}
			todos = append(todos, *parsed)
			if err := todoStore.Replace(todos); err != nil {
				return nil, err
			}

			return map[string]any{"added": parsed.Title, "count": len(todos)}, nil
		}),
	)

	return s
}
