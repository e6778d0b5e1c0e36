// Package gm runs the Game Master: it binds the narrative instructions
// and the tool registry to the model adapter and drives each player
// turn from committed speech to narrated audio.
package gm

import (
	"context"

	"github.com/antoniostano/gamemaster/internal/brain"
	"github.com/antoniostano/gamemaster/internal/persona"
	"github.com/antoniostano/gamemaster/internal/tools"
)

// Agent is the static per-process Game Master definition. Per-session
// state lives in the orchestrator's connection loop.
type Agent struct {
	instructions string
	profile      persona.Profile
	registry     *tools.Registry
}

func NewAgent(registry *tools.Registry) *Agent {
	return &Agent{
		instructions: persona.Instructions,
		profile:      persona.DefaultProfile(),
		registry:     registry,
	}
}

func (a *Agent) Instructions() string      { return a.instructions }
func (a *Agent) Profile() persona.Profile  { return a.profile }
func (a *Agent) Registry() *tools.Registry { return a.registry }

// ToolSpecs exposes the registered tools in the adapter's declaration
// shape, preserving registration order.
func (a *Agent) ToolSpecs() []brain.ToolSpec {
	defs := a.registry.Definitions()
	specs := make([]brain.ToolSpec, 0, len(defs))
	for _, def := range defs {
		specs = append(specs, brain.ToolSpec{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  def.Parameters,
		})
	}
	return specs
}

// Dispatcher binds the registry to one conversation. The observe hook
// fires on every invocation, before the handler runs.
func (a *Agent) Dispatcher(rc tools.RunContext, observe func(tool string)) brain.ToolDispatcher {
	return func(ctx context.Context, name string, args map[string]any) (string, error) {
		if observe != nil {
			observe(name)
		}
		return a.registry.Dispatch(ctx, name, rc, args)
	}
}
