package scenario

import (
	"context"
	"encoding/json"
	"time"

	"github.com/loopworks/cfgbench/core"
	"github.com/loopworks/cfgbench/tools"
)

const emailTriageInstructions = `You are TriageBot. Your job is to triage unread email threads and draft replies. Steps:
1) Fetch recent unread threads.
2) Identify which threads imply a meeting request (based on subject/snippet).
3) Fetch calendar availability for the next 7 days during business hours.
4) For each meeting-request thread, propose 2 to 3 specific 30-minute slots that are free, and draft a concise reply with those options, timezone, and a fallback ("send more times if these don't work").
5) For non-meeting threads, draft a brief triage note or a one-line acknowledgment if appropriate.
Always run email fetching and calendar availability in parallel. Keep replies short and professional.

Parallelization guidance:
- Immediately call listUnreadThreads and getCalendarAvailability for the next 7 days in parallel; do not wait for one to finish before starting the other.
- Calendar fetching should not depend on knowing which threads need meetings; fetch once for the next 7 days and reuse for all meeting-related threads.
- If multiple meeting-request threads are found, generate proposed slots and draft replies independently for each thread.

Output requirements:
- Summary: count of unread threads scanned and how many need meetings.
- For each meeting thread: sender, subject, 2 to 3 proposed 30-minute free slots (include dates/times and timezone), and a concise reply draft that proposes those slots and invites alternatives.
- For non-meeting threads: one-line triage suggestion (e.g., archive, quick acknowledgment, or follow-up needed).
- Be explicit about timezone in proposed times and avoid outside-business-hours slots (default 9am to 5pm local unless the tool provides a different window).`

const emailTriageDefaultPrompt = `Triage my inbox. Check unread threads and, if any are asking to meet this week, propose 2 to 3 30-minute slots over the next 7 days and draft replies. Keep replies concise and include my timezone.`

const calendarTimezone = "America/Los_Angeles"

// emailThread is one unread inbox entry.
type emailThread struct {
	ID           string `json:"id"`
	From         string `json:"from"`
	Subject      string `json:"subject"`
	Snippet      string `json:"snippet"`
	NeedsMeeting bool   `json:"needsMeeting"`
}

// unreadThreads is the fixed inbox: two meeting requests and one invoice.
var unreadThreads = []emailThread{
	{
		ID:           "t1",
		From:         "alex@example.com",
		Subject:      "Quick sync this week?",
		Snippet:      "Are you free for a 30-min chat to discuss the roadmap?",
		NeedsMeeting: true,
	},
	{
		ID:           "t2",
		From:         "billing@example.com",
		Subject:      "Invoice attached",
		Snippet:      "Please review the attached invoice.",
		NeedsMeeting: false,
	},
	{
		ID:           "t3",
		From:         "sam@example.com",
		Subject:      "Meet next week about launch",
		Snippet:      "Can we find time next week?",
		NeedsMeeting: true,
	},
}

// calendarSlot is one 30-minute free/busy window.
type calendarSlot struct {
	StartIso string `json:"startIso"`
	EndIso   string `json:"endIso"`
	Busy     bool   `json:"busy"`
}

// businessSlots generates every 30-minute slot between 9am and 5pm for the
// next seven days starting at now, with every 4th slot marked busy.
func businessSlots(now time.Time) []calendarSlot {
	const isoSeconds = "2006-01-02T15:04:05"

	var slots []calendarSlot
	for d := 0; d < 7; d++ {
		day := now.AddDate(0, 0, d)
		start := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, day.Location())
		end := time.Date(day.Year(), day.Month(), day.Day(), 17, 0, 0, 0, day.Location())
		for cur := start; cur.Before(end); cur = cur.Add(30 * time.Minute) {
			slots = append(slots, calendarSlot{
				StartIso: cur.Format(isoSeconds),
				EndIso:   cur.Add(30 * time.Minute).Format(isoSeconds),
			})
		}
	}
	for i := 0; i < len(slots); i += 4 {
		slots[i].Busy = true
	}
	return slots
}

// listThreadsArgs is the listUnreadThreads payload in both modes.
type listThreadsArgs struct {
	Limit *float64 `json:"limit"`
}

// availabilityArgs is the getCalendarAvailability payload in both modes.
type availabilityArgs struct {
	Range struct {
		StartIso string `json:"startIso"`
		EndIso   string `json:"endIso"`
	} `json:"range"`
}

// NewEmailTriage builds the inbox triage scenario: listUnreadThreads and
// getCalendarAvailability over fixed threads and generated business-hour
// slots. The availability handler ignores the requested range and always
// answers for the next seven days from the configured clock.
func NewEmailTriage(cfg Config) *Scenario {
	cfg = cfg.withDefaults()
	s := newScenario(cfg, "email-triage", "email_triage.json")
	s.DefaultModel = "gpt-5-mini"
	s.DefaultEffort = core.ReasoningEffortMinimal
	s.Instructions = emailTriageInstructions
	s.Prompt = emailTriageDefaultPrompt

	listThreadsDef := core.ToolDefinition{
		Name:        "listUnreadThreads",
		Description: "Get recent unread email threads with lightweight metadata.",
	}
	availabilityDef := core.ToolDefinition{
		Name:        "getCalendarAvailability",
		Description: "Get free/busy slots for the given time range.",
	}

	if cfg.Mode == ModeGrammar {
		listThreadsDef.Grammar = larkGrammar("list_unread_threads.lark")
		availabilityDef.Grammar = larkGrammar("get_calendar_availability.lark")
	} else {
		listThreadsDef.Parameters = json.RawMessage(`{
			"type": "object",
			"properties": {
				"limit": {"type": "number", "description": "Optional limit, default 10"}
			},
			"required": []
		}`)
		availabilityDef.Parameters = json.RawMessage(`{
			"type": "object",
			"properties": {
				"range": {
					"type": "object",
					"properties": {
						"startIso": {"type": "string"},
						"endIso": {"type": "string"}
					},
					"required": ["startIso", "endIso"]
				}
			},
			"required": ["range"]
		}`)
	}

	clock := cfg.Clock
	s.registry.MustRegister(
		tools.Func(listThreadsDef, func(ctx context.Context, args json.RawMessage) (any, error) {
			parsed, err := tools.ParseArgs[listThreadsArgs](args)
			if err != nil {
				return nil, err
			}

			limit := 10
			if parsed.Limit != nil {
				limit = int(*parsed.Limit)
			}
			threads := unreadThreads
			if limit >= 0 && limit < len(threads) {
				threads = threads[:limit]
			}
			return map[string]any{"threads": threads}, nil
		}),
		tools.Func(availabilityDef, func(ctx context.Context, args json.RawMessage) (any, error) {
			if _, err := tools.ParseArgs[availabilityArgs](args); err != nil {
				return nil, err
			}
			return map[string]any{
				"slots": businessSlots(clock()),
				"tz":    calendarTimezone,
			}, nil
		}),
	)

	return s
}
