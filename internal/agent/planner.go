package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/apotek/apotek/internal/log"
)

// StreamCallback receives answer text fragments as the model produces them.
type StreamCallback func(ctx context.Context, text string) error

// PlanRequest is one model consultation: the working history plus the
// system prompt for this turn.
type PlanRequest struct {
	System   string
	Messages []*ai.Message
	Stream   StreamCallback // nil disables streaming
}

// Plan is the model's move: either a final answer, or tool requests the
// loop should execute and report back.
type Plan struct {
	Text         string
	ToolRequests []*ai.ToolRequest
	Message      *ai.Message // full model message, appended to history as-is
}

// Planner consults the model for the next step of a turn. The Genkit
// implementation is the real one; tests substitute scripted planners.
type Planner interface {
	Plan(ctx context.Context, req PlanRequest) (*Plan, error)
}

// GenkitPlanner drives the model through Genkit with tool-request return
// enabled, so the orchestration loop keeps control of tool execution.
//
// Calls are guarded by a rate limiter, retry with exponential backoff, and
// a circuit breaker, in that order.
type GenkitPlanner struct {
	g         *genkit.Genkit
	modelName string
	toolRefs  []ai.ToolRef

	retryConfig    RetryConfig
	circuitBreaker *CircuitBreaker
	rateLimiter    *rate.Limiter

	logger log.Logger
}

// PlannerConfig configures a GenkitPlanner.
type PlannerConfig struct {
	Genkit    *genkit.Genkit
	ModelName string    // fully qualified, e.g. "googleai/gemini-2.5-flash"
	Tools     []ai.Tool // pre-registered tools, advertised to the model

	RetryConfig          RetryConfig          // zero-value uses defaults
	CircuitBreakerConfig CircuitBreakerConfig // zero-value uses defaults
	RateLimiter          *rate.Limiter        // nil = default 10 rps, burst 30

	Logger log.Logger
}

// NewGenkitPlanner creates the production planner.
func NewGenkitPlanner(cfg PlannerConfig) (*GenkitPlanner, error) {
	if cfg.Genkit == nil {
		return nil, errors.New("genkit instance is required")
	}
	if cfg.ModelName == "" {
		return nil, errors.New("model name is required")
	}
	if len(cfg.Tools) == 0 {
		return nil, errors.New("at least one tool is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	retryConfig := cfg.RetryConfig
	if retryConfig.MaxRetries == 0 {
		retryConfig = DefaultRetryConfig()
	}
	cbConfig := cfg.CircuitBreakerConfig
	if cbConfig.FailureThreshold == 0 {
		cbConfig = DefaultCircuitBreakerConfig()
	}
	limiter := cfg.RateLimiter
	if limiter == nil {
		limiter = rate.NewLimiter(10, 30)
	}

	toolRefs := make([]ai.ToolRef, len(cfg.Tools))
	for i, t := range cfg.Tools {
		toolRefs[i] = t
	}

	return &GenkitPlanner{
		g:              cfg.Genkit,
		modelName:      cfg.ModelName,
		toolRefs:       toolRefs,
		retryConfig:    retryConfig,
		circuitBreaker: NewCircuitBreaker(cbConfig),
		rateLimiter:    limiter,
		logger:         logger,
	}, nil
}

// Plan asks the model for its next move. Tool requests are returned, not
// executed: ai.WithReturnToolRequests keeps dispatch in the loop's hands.
func (p *GenkitPlanner) Plan(ctx context.Context, req PlanRequest) (*Plan, error) {
	if err := p.circuitBreaker.Allow(); err != nil {
		p.logger.Warn("circuit breaker open, rejecting model call",
			"state", p.circuitBreaker.State().String())
		return nil, fmt.Errorf("model unavailable: %w", err)
	}

	// Genkit mutates message content in place during rendering, so hand it
	// copies rather than the caller's history.
	messages := deepCopyMessages(req.Messages)

	opts := []ai.GenerateOption{
		ai.WithModelName(p.modelName),
		ai.WithSystem(req.System),
		ai.WithMessages(messages...),
		ai.WithTools(p.toolRefs...),
		ai.WithReturnToolRequests(true),
	}
	if req.Stream != nil {
		stream := req.Stream
		opts = append(opts, ai.WithStreaming(func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
			for _, part := range chunk.Content {
				if part.IsText() && part.Text != "" {
					if err := stream(ctx, part.Text); err != nil {
						return err
					}
				}
			}
			return nil
		}))
	}

	resp, err := p.generateWithRetry(ctx, func() (*ai.ModelResponse, error) {
		return genkit.Generate(ctx, p.g, opts...)
	})
	if err != nil {
		p.circuitBreaker.Failure()
		return nil, err
	}
	p.circuitBreaker.Success()

	return &Plan{
		Text:         resp.Text(),
		ToolRequests: resp.ToolRequests(),
		Message:      resp.Message,
	}, nil
}

// deepCopyMessages creates independent copies of messages and parts.
func deepCopyMessages(msgs []*ai.Message) []*ai.Message {
	if msgs == nil {
		return nil
	}
	copied := make([]*ai.Message, len(msgs))
	for i, msg := range msgs {
		parts := make([]*ai.Part, len(msg.Content))
		for j, part := range msg.Content {
			parts[j] = deepCopyPart(part)
		}
		copied[i] = &ai.Message{
			Role:     msg.Role,
			Content:  parts,
			Metadata: shallowCopyMap(msg.Metadata),
		}
	}
	return copied
}

// deepCopyPart copies one part. ToolRequest.Input and ToolResponse.Output
// are copied by reference; rendering never mutates tool payloads.
func deepCopyPart(p *ai.Part) *ai.Part {
	if p == nil {
		return nil
	}
	cp := &ai.Part{
		Kind:        p.Kind,
		ContentType: p.ContentType,
		Text:        p.Text,
		Custom:      shallowCopyMap(p.Custom),
		Metadata:    shallowCopyMap(p.Metadata),
	}
	if p.ToolRequest != nil {
		cp.ToolRequest = &ai.ToolRequest{
			Name:  p.ToolRequest.Name,
			Ref:   p.ToolRequest.Ref,
			Input: p.ToolRequest.Input,
		}
	}
	if p.ToolResponse != nil {
		cp.ToolResponse = &ai.ToolResponse{
			Name:   p.ToolResponse.Name,
			Ref:    p.ToolResponse.Ref,
			Output: p.ToolResponse.Output,
		}
	}
	return cp
}

func shallowCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
