package tools

import (
	"context"
	"testing"

	"github.com/antoniostano/gamemaster/internal/transcript"
)

type staticContext []transcript.Turn

func (s staticContext) History() []transcript.Turn { return s }

func TestRegistryRegisterAndDispatch(t *testing.T) {
	r := NewRegistry()
	err := r.Register(Definition{
		Name: "echo",
		Handler: func(_ context.Context, _ RunContext, args map[string]any) string {
			text, _ := args["text"].(string)
			return text
		},
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got, err := r.Dispatch(context.Background(), "echo", nil, map[string]any{"text": "hello"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if got != "hello" {
		t.Fatalf("Dispatch() = %q, want %q", got, "hello")
	}
}

func TestRegistryRejectsDuplicatesAndEmptyNames(t *testing.T) {
	r := NewRegistry()
	noop := func(_ context.Context, _ RunContext, _ map[string]any) string { return "" }

	if err := r.Register(Definition{Name: "", Handler: noop}); err == nil {
		t.Fatalf("Register() with empty name should fail")
	}
	if err := r.Register(Definition{Name: "save", Handler: noop}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(Definition{Name: "save", Handler: noop}); err == nil {
		t.Fatalf("Register() with duplicate name should fail")
	}
}

func TestDispatchUnknownToolFails(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Dispatch(context.Background(), "missing", nil, nil); err == nil {
		t.Fatalf("Dispatch() of unknown tool should fail")
	}
}

func TestDefinitionsPreserveRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	noop := func(_ context.Context, _ RunContext, _ map[string]any) string { return "" }
	for _, name := range []string{"c", "a", "b"} {
		if err := r.Register(Definition{Name: name, Handler: noop}); err != nil {
			t.Fatalf("Register(%q) error = %v", name, err)
		}
	}
	defs := r.Definitions()
	if len(defs) != 3 || defs[0].Name != "c" || defs[1].Name != "a" || defs[2].Name != "b" {
		t.Fatalf("Definitions() order = %v", defs)
	}
}
