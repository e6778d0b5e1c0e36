package tools

import (
	"context"

	"github.com/antoniostano/gamemaster/internal/transcript"
)

// RestartNarration is appended to every restart result; the model reads
// it back to the player to reset the scene.
const RestartNarration = "The chamber resets, the door seals once more. Your second attempt begins now!"

const couldNotSaveMessage = "Could not save previous session."

// Saver persists a conversation snapshot and reports the outcome as a
// narration-ready status string.
type Saver interface {
	Save(ctx context.Context, history []transcript.Turn) string
}

// NewRestartTool builds the restart/save tool: it snapshots the current
// history, persists it, and signals the model to start a fresh attempt.
func NewRestartTool(store Saver) Definition {
	return Definition{
		Name:        "restart_tool",
		Description: "Saves the full game history to disk and signals the Game Master to reset the adventure for a second attempt.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: func(ctx context.Context, rc RunContext, _ map[string]any) string {
			var history []transcript.Turn
			if rc != nil {
				history = rc.History()
			}
			if len(history) == 0 {
				return couldNotSaveMessage + " " + RestartNarration
			}

			// The save writes to disk; keep it off the session loop and
			// suspend only until the worker finishes.
			result := make(chan string, 1)
			go func() { result <- store.Save(ctx, history) }()

			select {
			case status := <-result:
				return status + " " + RestartNarration
			case <-ctx.Done():
				return couldNotSaveMessage + " " + RestartNarration
			}
		},
	}
}
