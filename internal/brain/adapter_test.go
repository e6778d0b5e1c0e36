package brain

import (
	"context"
	"strings"
	"testing"

	"github.com/antoniostano/gamemaster/internal/transcript"
)

func TestNewAdapterModes(t *testing.T) {
	cases := []struct {
		name     string
		cfg      Config
		wantErr  bool
		wantMock bool
	}{
		{"auto without key falls back to mock", Config{Mode: "auto"}, false, true},
		{"auto with key resolves gemini", Config{Mode: "auto", APIKey: "k"}, false, false},
		{"gemini without key fails", Config{Mode: "gemini"}, true, false},
		{"explicit mock", Config{Mode: "mock", APIKey: "k"}, false, true},
		{"unknown mode fails", Config{Mode: "oracle"}, true, false},
		{"empty mode defaults to auto", Config{}, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			adapter, err := NewAdapter(tc.cfg)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("NewAdapter() should fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewAdapter() error = %v", err)
			}
			_, isMock := adapter.(*MockAdapter)
			if isMock != tc.wantMock {
				t.Fatalf("adapter type = %T, want mock=%v", adapter, tc.wantMock)
			}
		})
	}
}

func TestMockAdapterOpensSceneOnEmptyHistory(t *testing.T) {
	var deltas []string
	resp, err := NewMockAdapter().StreamResponse(context.Background(), MessageRequest{}, func(d string) error {
		deltas = append(deltas, d)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamResponse() error = %v", err)
	}
	if resp.ToolCalls != 0 {
		t.Fatalf("ToolCalls = %d, want 0", resp.ToolCalls)
	}
	if !strings.Contains(resp.Text, "Which option (A, B, C, or D) do you choose?") {
		t.Fatalf("opening narration missing action prompt: %q", resp.Text)
	}
	if len(deltas) == 0 || deltas[0] != resp.Text {
		t.Fatalf("deltas = %v, want final text streamed", deltas)
	}
}

func TestMockAdapterDispatchesRestartTool(t *testing.T) {
	var dispatched string
	req := MessageRequest{
		History: []transcript.Turn{
			{Role: transcript.RoleAssistant, Content: "Which option (A, B, C, or D) do you choose?"},
			{Role: transcript.RoleUser, Content: "Please restart the game"},
		},
		Tools: []ToolSpec{{Name: "restart_tool"}},
		Dispatch: func(_ context.Context, name string, _ map[string]any) (string, error) {
			dispatched = name
			return "✅ Game state saved successfully as Mira_x.json. The chamber resets, the door seals once more. Your second attempt begins now!", nil
		},
	}

	resp, err := NewMockAdapter().StreamResponse(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("StreamResponse() error = %v", err)
	}
	if dispatched != "restart_tool" {
		t.Fatalf("dispatched tool = %q, want restart_tool", dispatched)
	}
	if resp.ToolCalls != 1 {
		t.Fatalf("ToolCalls = %d, want 1", resp.ToolCalls)
	}
	if !strings.Contains(resp.Text, "second attempt begins now") {
		t.Fatalf("tool result not narrated: %q", resp.Text)
	}
}

func TestSchemaFromMapObjectSubset(t *testing.T) {
	schema := schemaFromMap(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"reason": map[string]any{"type": "string", "description": "why the player restarts"},
			"count":  map[string]any{"type": "integer"},
		},
		"required": []string{"reason"},
	})
	if schema.Properties["reason"] == nil || schema.Properties["count"] == nil {
		t.Fatalf("properties not converted: %+v", schema.Properties)
	}
	if schema.Properties["reason"].Description == "" {
		t.Fatalf("description dropped")
	}
	if len(schema.Required) != 1 || schema.Required[0] != "reason" {
		t.Fatalf("required = %v", schema.Required)
	}
}

func TestSchemaFromMapEmptyIsObject(t *testing.T) {
	schema := schemaFromMap(nil)
	if schema == nil || schema.Properties == nil {
		t.Fatalf("empty schema should still be a well-formed object schema")
	}
}
