package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/apotek/apotek/internal/log"
)

// Handler executes one registered tool against already-validated arguments.
type Handler func(ctx context.Context, args map[string]any) (Result, error)

type entry struct {
	name        string
	description string
	schema      *jsonschema.Resolved
	run         Handler
}

// Registry holds the registered tools with their resolved input schemas.
// The orchestration loop validates and dispatches through the registry
// instead of letting the model framework execute tools directly, so every
// argument payload is checked before any handler runs.
//
// Registration happens once at startup; afterwards the registry is
// read-only and safe for concurrent use.
type Registry struct {
	entries map[string]*entry
	logger  log.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger log.Logger) *Registry {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Registry{entries: make(map[string]*entry), logger: logger}
}

// Register adds a typed handler under the given name. The input schema is
// inferred from In's struct tags and resolved once, up front.
func Register[In any](r *Registry, name, description string, fn func(context.Context, In) (Result, error)) error {
	if name == "" {
		return fmt.Errorf("tool name is required")
	}
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}

	schema, err := jsonschema.For[In](nil)
	if err != nil {
		return fmt.Errorf("inferring schema for %s: %w", name, err)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return fmt.Errorf("resolving schema for %s: %w", name, err)
	}

	r.entries[name] = &entry{
		name:        name,
		description: description,
		schema:      resolved,
		// Arguments arrive as map[string]any from the model; round-trip
		// through JSON to get the typed input.
		run: func(ctx context.Context, args map[string]any) (Result, error) {
			raw, err := json.Marshal(args)
			if err != nil {
				return Result{}, fmt.Errorf("encoding arguments for %s: %w", name, err)
			}
			var in In
			if err := json.Unmarshal(raw, &in); err != nil {
				return Result{}, fmt.Errorf("decoding arguments for %s: %w", name, err)
			}
			return fn(ctx, in)
		},
	}
	return nil
}

// Has reports whether a tool is registered under name.
func (r *Registry) Has(name string) bool {
	_, exists := r.entries[name]
	return exists
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Description returns the registered description for a tool.
func (r *Registry) Description(name string) string {
	if e, exists := r.entries[name]; exists {
		return e.description
	}
	return ""
}

// Validate checks argument payloads against the tool's input schema.
// Returns an error describing the violation; the loop reports it back to
// the model for correction rather than executing the call.
func (r *Registry) Validate(name string, args map[string]any) error {
	e, exists := r.entries[name]
	if !exists {
		return fmt.Errorf("unknown tool %q", name)
	}
	if args == nil {
		args = map[string]any{}
	}
	if err := e.schema.Validate(args); err != nil {
		return fmt.Errorf("arguments for %s do not match the schema: %w", name, err)
	}
	return nil
}

// Execute runs a registered tool. Callers are expected to Validate first;
// Execute still decodes the arguments itself and surfaces handler errors
// as-is.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (Result, error) {
	e, exists := r.entries[name]
	if !exists {
		return Result{}, fmt.Errorf("unknown tool %q", name)
	}

	result, err := e.run(ctx, args)
	if err != nil {
		r.logger.Error("tool execution failed", "tool", name, "error", err)
		return Result{}, err
	}
	if result.Status == StatusError && result.Error != nil {
		r.logger.Debug("tool returned business error",
			"tool", name, "code", result.Error.Code, "message", result.Error.Message)
	}
	return result, nil
}
