package agent

// EventSink receives conversation lifecycle events during a turn.
// Implementations bind to a transport (SSE, console); the loop calls them
// in order and never concurrently within one turn.
//
// A tool call rejected before execution (unknown tool, schema violation,
// failed precondition) emits no ToolCallStarted: the rejection goes back
// to the model, not to the user.
type EventSink interface {
	// ToolCallStarted fires when a validated tool call begins executing.
	ToolCallStarted(name string, args map[string]any)

	// ToolCallResult fires after a tool call finishes, with its result.
	ToolCallResult(name string, result any)

	// AnswerToken fires for each streamed fragment of the answer text.
	AnswerToken(text string)

	// TurnComplete fires once, with the final answer text.
	TurnComplete(finalText string)
}

// NopSink discards all events. Used for non-streaming execution.
type NopSink struct{}

func (NopSink) ToolCallStarted(string, map[string]any) {}
func (NopSink) ToolCallResult(string, any)             {}
func (NopSink) AnswerToken(string)                     {}
func (NopSink) TurnComplete(string)                    {}
