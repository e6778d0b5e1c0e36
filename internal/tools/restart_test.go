package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/antoniostano/gamemaster/internal/transcript"
)

type fakeSaver struct {
	status string
	called int
	saw    []transcript.Turn
}

func (f *fakeSaver) Save(_ context.Context, history []transcript.Turn) string {
	f.called++
	f.saw = history
	return f.status
}

func TestRestartToolSavesAndAppendsNarration(t *testing.T) {
	saver := &fakeSaver{status: "✅ Game state saved successfully as Mira_20260314_150926.json."}
	def := NewRestartTool(saver)

	history := staticContext{{Role: transcript.RoleUser, Content: "My name is Mira, let's begin"}}
	got := def.Handler(context.Background(), history, nil)

	if saver.called != 1 {
		t.Fatalf("saver called %d times, want 1", saver.called)
	}
	if len(saver.saw) != 1 {
		t.Fatalf("saver saw %d turns, want 1", len(saver.saw))
	}
	want := saver.status + " " + RestartNarration
	if got != want {
		t.Fatalf("handler result = %q, want %q", got, want)
	}
}

func TestRestartToolWithoutHistorySkipsSave(t *testing.T) {
	saver := &fakeSaver{status: "✅ should not appear"}
	def := NewRestartTool(saver)

	for name, rc := range map[string]RunContext{"nil context": nil, "empty history": staticContext{}} {
		got := def.Handler(context.Background(), rc, nil)
		if saver.called != 0 {
			t.Fatalf("%s: saver should not be called", name)
		}
		if !strings.HasPrefix(got, couldNotSaveMessage) || !strings.HasSuffix(got, RestartNarration) {
			t.Fatalf("%s: result = %q", name, got)
		}
	}
}

func TestRestartToolEmptyHistoryResultShape(t *testing.T) {
	def := NewRestartTool(&fakeSaver{})
	got := def.Handler(context.Background(), staticContext{}, nil)
	want := "Could not save previous session. " + RestartNarration
	if got != want {
		t.Fatalf("result = %q, want %q", got, want)
	}
}
