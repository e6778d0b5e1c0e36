// Package brain bridges the game runtime with the external language
// model that narrates the adventure.
package brain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/antoniostano/gamemaster/internal/transcript"
)

// ToolSpec declares a callable the model may invoke mid-turn.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolDispatcher runs a model-requested tool and returns its textual
// result for the model to read.
type ToolDispatcher func(ctx context.Context, name string, args map[string]any) (string, error)

// MessageRequest is the normalized request for one Game Master turn.
type MessageRequest struct {
	SessionID    string
	TurnID       string
	Instructions string
	History      []transcript.Turn
	Tools        []ToolSpec
	Dispatch     ToolDispatcher
}

// MessageResponse is the final response after any tool rounds.
type MessageResponse struct {
	Text      string
	ToolCalls int
}

// DeltaHandler receives narration text fragments as they are produced.
type DeltaHandler func(delta string) error

// Adapter produces one Game Master narration turn per call, driving
// registered tools through the dispatcher when the model requests them.
type Adapter interface {
	StreamResponse(ctx context.Context, req MessageRequest, onDelta DeltaHandler) (MessageResponse, error)
}

// Config controls adapter construction.
type Config struct {
	Mode   string
	APIKey string
	Model  string
}

// NewAdapter resolves the configured brain. In auto mode the Gemini
// backend is used when an API key is present, otherwise the scripted
// mock keeps local development keyless.
func NewAdapter(cfg Config) (Adapter, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.APIKey) != "" {
			return NewGeminiAdapter(cfg.APIKey, cfg.Model)
		}
		return NewMockAdapter(), nil
	case "gemini":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, errors.New("GOOGLE_API_KEY is required for the gemini brain")
		}
		return NewGeminiAdapter(cfg.APIKey, cfg.Model)
	case "mock":
		return NewMockAdapter(), nil
	default:
		return nil, fmt.Errorf("unsupported brain mode %q", cfg.Mode)
	}
}
