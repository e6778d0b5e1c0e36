package brain

import (
	"context"
	"fmt"
	"strings"

	"github.com/antoniostano/gamemaster/internal/transcript"
)

// MockAdapter is a scripted Game Master used for tests and keyless local
// runs. It honors the restart contract: a restart request triggers the
// registered tool and its output is narrated back verbatim.
type MockAdapter struct{}

func NewMockAdapter() *MockAdapter { return &MockAdapter{} }

const mockOpening = "You are Lysandra, trapped in the Whispering Library. " +
	"A heavy door with a rusted iron bolt blocks the only exit. " +
	"(A) Investigate the bolt. (B) Examine the desk. (C) Search the bookshelf. (D) Follow the slithering sound. " +
	"Which option (A, B, C, or D) do you choose?"

func (a *MockAdapter) StreamResponse(ctx context.Context, req MessageRequest, onDelta DeltaHandler) (MessageResponse, error) {
	input := lastUserInput(req.History)
	toolCalls := 0

	var text string
	switch {
	case strings.Contains(strings.ToLower(input), "restart"):
		if req.Dispatch != nil && hasTool(req.Tools, "restart_tool") {
			toolCalls++
			result, err := req.Dispatch(ctx, "restart_tool", map[string]any{})
			if err != nil {
				result = fmt.Sprintf("tool restart_tool failed: %v", err)
			}
			text = result + " " + mockOpening
		} else {
			text = mockOpening
		}
	case input == "":
		text = mockOpening
	default:
		text = fmt.Sprintf("The library whispers as you choose %q. "+
			"(A) Press on. (B) Retreat. (C) Inspect closer. (D) Listen. "+
			"Which option (A, B, C, or D) do you choose?", input)
	}

	if onDelta != nil {
		if err := onDelta(text); err != nil {
			return MessageResponse{}, err
		}
	}
	return MessageResponse{Text: text, ToolCalls: toolCalls}, nil
}

func lastUserInput(history []transcript.Turn) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == transcript.RoleUser {
			return strings.TrimSpace(history[i].Content)
		}
	}
	return ""
}

func hasTool(specs []ToolSpec, name string) bool {
	for _, spec := range specs {
		if spec.Name == name {
			return true
		}
	}
	return false
}
