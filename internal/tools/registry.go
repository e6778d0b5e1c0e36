// Package tools holds the callables the external model may invoke
// mid-conversation, keyed by name in a dispatch registry.
package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/antoniostano/gamemaster/internal/transcript"
)

// RunContext exposes a snapshot of the live conversation to a handler.
type RunContext interface {
	History() []transcript.Turn
}

// Handler executes one tool invocation. Failures are reported inside the
// returned text so the model can narrate them; handlers never surface
// errors to the session loop.
type Handler func(ctx context.Context, rc RunContext, args map[string]any) string

// Definition declares one callable tool.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]any
	Handler     Handler
}

// Registry maps tool names to handlers for lookup by the model runtime.
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]Definition
	order []string
}

func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

func (r *Registry) Register(def Definition) error {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return fmt.Errorf("tool name is required")
	}
	if def.Handler == nil {
		return fmt.Errorf("tool %q has no handler", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	def.Name = name
	r.defs[name] = def
	r.order = append(r.order, name)
	return nil
}

func (r *Registry) Lookup(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// Definitions returns all tools in registration order.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.defs[name])
	}
	return out
}

// Dispatch invokes the named tool. An unknown name is an error; a known
// tool always yields a textual result.
func (r *Registry) Dispatch(ctx context.Context, name string, rc RunContext, args map[string]any) (string, error) {
	def, ok := r.Lookup(name)
	if !ok {
		return "", fmt.Errorf("unknown tool %q", name)
	}
	return def.Handler(ctx, rc, args), nil
}
