// Package agent implements the tool-orchestration loop: the model plans,
// the loop validates, gates, and executes tool calls, and the transcript
// of requests and results feeds back into the next planning round.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/apotek/apotek/internal/i18n"
	"github.com/apotek/apotek/internal/log"
	"github.com/apotek/apotek/internal/session"
	"github.com/apotek/apotek/internal/tools"
)

// DefaultMaxTurns bounds the plan/execute rounds within one user turn.
const DefaultMaxTurns = 5

// Runner executes validated tool calls. *tools.Registry is the production
// implementation; tests substitute fakes.
type Runner interface {
	Has(name string) bool
	Validate(name string, args map[string]any) error
	Execute(ctx context.Context, name string, args map[string]any) (tools.Result, error)
}

// Response is the completed turn.
type Response struct {
	FinalText string
	Language  i18n.Language
	ToolCalls int // executed tool calls (rejections excluded)
}

// Config contains the loop's dependencies.
type Config struct {
	Planner  Planner
	Runner   Runner
	Sessions session.Store
	Logger   log.Logger

	MaxTurns     int // zero uses DefaultMaxTurns
	HistoryLimit int // messages loaded into the model's context, zero uses the session default
}

// Agent runs conversations. It is stateless across calls; all conversation
// state lives in the session store.
type Agent struct {
	planner      Planner
	runner       Runner
	sessions     session.Store
	logger       log.Logger
	maxTurns     int
	historyLimit int
}

// New creates the orchestration loop.
func New(cfg Config) (*Agent, error) {
	if cfg.Planner == nil {
		return nil, errors.New("planner is required")
	}
	if cfg.Runner == nil {
		return nil, errors.New("runner is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	return &Agent{
		planner:      cfg.Planner,
		runner:       cfg.Runner,
		sessions:     cfg.Sessions,
		logger:       logger,
		maxTurns:     maxTurns,
		historyLimit: session.NormalizeHistoryLimit(cfg.HistoryLimit),
	}, nil
}

// Execute runs one turn without streaming.
func (a *Agent) Execute(ctx context.Context, sessionID uuid.UUID, input string) (*Response, error) {
	return a.ExecuteStream(ctx, sessionID, input, nil)
}

// ExecuteStream runs one turn. Events fire on sink as the turn progresses;
// a nil sink disables eventing. The turn's messages and the updated state
// are persisted before returning.
func (a *Agent) ExecuteStream(ctx context.Context, sessionID uuid.UUID, input string, sink EventSink) (*Response, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}
	if sink == nil {
		sink = NopSink{}
	}

	sess, err := a.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	state := sess.State.Clone()

	// Language follows the latest user message; an undecidable message
	// keeps the previous turn's language.
	lang := i18n.Detect(input, state.Language)
	state.Language = lang
	ctx = tools.ContextWithLanguage(ctx, lang)

	a.logger.Debug("executing turn",
		"session_id", sessionID, "language", lang, "input_length", len(input))

	// Working history: a bounded window of prior messages plus this turn's
	// growing transcript. newMessages is the portion persisted at the end.
	working := windowMessages(sess.Messages, a.historyLimit)
	userMsg := ai.NewUserMessage(ai.NewTextPart(input))
	working = append(working, userMsg)
	newMessages := []*ai.Message{userMsg}

	stream := func(ctx context.Context, text string) error {
		sink.AnswerToken(text)
		return nil
	}

	executed := 0
	for turn := 0; turn < a.maxTurns; turn++ {
		plan, err := a.planner.Plan(ctx, PlanRequest{
			System:   systemPrompt + "\n\nRespond in " + lang.Name() + ".",
			Messages: working,
			Stream:   stream,
		})
		if err != nil {
			if ctx.Err() != nil {
				// Cancellation comes from the transport, not the provider;
				// the caller decides what a cancelled turn means.
				return nil, fmt.Errorf("planning: %w", err)
			}
			// Provider failure after retries: the customer gets a canned
			// answer, never the raw error. The turn still persists so the
			// conversation survives the outage.
			a.logger.Error("planning failed, answering with fallback",
				"session_id", sessionID, "error", err)
			text := i18n.T(lang, "agent.unavailable")
			newMessages = append(newMessages, ai.NewModelMessage(ai.NewTextPart(text)))
			a.finish(ctx, sessionID, state, newMessages)
			sink.TurnComplete(text)
			return &Response{FinalText: text, Language: lang, ToolCalls: executed}, nil
		}

		if len(plan.ToolRequests) == 0 {
			text := strings.TrimSpace(plan.Text)
			if text == "" {
				a.logger.Warn("model returned empty response", "session_id", sessionID)
				text = i18n.T(lang, "agent.empty_response")
			}
			newMessages = append(newMessages, ai.NewModelMessage(ai.NewTextPart(text)))
			a.finish(ctx, sessionID, state, newMessages)
			sink.TurnComplete(text)
			return &Response{FinalText: text, Language: lang, ToolCalls: executed}, nil
		}

		// Record the model's tool-requesting message, then the responses,
		// so the next planning round sees the full exchange.
		if plan.Message != nil {
			working = append(working, plan.Message)
			newMessages = append(newMessages, plan.Message)
		}

		responseParts := make([]*ai.Part, 0, len(plan.ToolRequests))
		for _, req := range plan.ToolRequests {
			result, ran := a.runToolCall(ctx, &state, req, sink)
			if ran {
				executed++
			}
			responseParts = append(responseParts, ai.NewToolResponsePart(&ai.ToolResponse{
				Name:   req.Name,
				Ref:    req.Ref, // correlation with the request
				Output: result,
			}))
		}
		toolMsg := ai.NewMessage(ai.RoleTool, nil, responseParts...)
		working = append(working, toolMsg)
		newMessages = append(newMessages, toolMsg)
	}

	// Turn budget exhausted: answer with what we have instead of looping.
	a.logger.Warn("turn budget exhausted",
		"session_id", sessionID, "max_turns", a.maxTurns, "tool_calls", executed)
	text := i18n.T(lang, "agent.exhausted")
	newMessages = append(newMessages, ai.NewModelMessage(ai.NewTextPart(text)))
	a.finish(ctx, sessionID, state, newMessages)
	sink.TurnComplete(text)
	return &Response{FinalText: text, Language: lang, ToolCalls: executed}, nil
}

// runToolCall validates, gates, and executes a single tool request.
// Rejections return a structured error result without executing and
// without emitting ToolCallStarted. ran reports whether the tool actually
// executed.
func (a *Agent) runToolCall(ctx context.Context, state *session.State, req *ai.ToolRequest, sink EventSink) (result tools.Result, ran bool) {
	args := coerceArgs(req.Input)

	if !a.runner.Has(req.Name) {
		a.logger.Warn("model requested unknown tool", "tool", req.Name)
		return *rejection("unknown_tool",
			fmt.Sprintf("no tool named %q exists; use only the provided tools", req.Name)), false
	}

	if err := a.runner.Validate(req.Name, args); err != nil {
		a.logger.Debug("tool arguments rejected", "tool", req.Name, "error", err)
		return *rejection("invalid_arguments", err.Error()), false
	}

	if rej := checkPreconditions(state, req.Name, args); rej != nil {
		a.logger.Debug("tool call gated",
			"tool", req.Name, "code", rej.Error.Code)
		return *rej, false
	}

	sink.ToolCallStarted(req.Name, args)
	res, err := a.runner.Execute(ctx, req.Name, args)
	if err != nil {
		a.logger.Error("tool execution failed", "tool", req.Name, "error", err)
		res = *rejection("execution_failed",
			fmt.Sprintf("%s failed to execute; tell the customer the operation could not be completed", req.Name))
		sink.ToolCallResult(req.Name, res)
		return res, true
	}

	observeResult(state, req.Name, args, res)
	sink.ToolCallResult(req.Name, res)
	return res, true
}

// finish persists the turn. Persistence failure is logged, not fatal: the
// customer already has the answer.
func (a *Agent) finish(ctx context.Context, sessionID uuid.UUID, state session.State, messages []*ai.Message) {
	if err := a.sessions.Append(ctx, sessionID, state, messages...); err != nil {
		a.logger.Error("persisting turn", "session_id", sessionID, "error", err)
	}
}

// windowMessages returns the last limit messages, copying the slice header
// so appends never touch the session's own slice.
func windowMessages(msgs []*ai.Message, limit int) []*ai.Message {
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]*ai.Message, len(msgs), len(msgs)+8)
	copy(out, msgs)
	return out
}

// coerceArgs normalizes a tool request's input to a string map. Providers
// deliver map[string]any; anything else goes through a JSON round trip.
func coerceArgs(input any) map[string]any {
	if input == nil {
		return map[string]any{}
	}
	if m, isMap := input.(map[string]any); isMap {
		return m
	}
	raw, err := json.Marshal(input)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{}
	}
	return m
}
