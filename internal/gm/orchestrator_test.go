package gm

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/antoniostano/gamemaster/internal/brain"
	"github.com/antoniostano/gamemaster/internal/observability"
	"github.com/antoniostano/gamemaster/internal/protocol"
	"github.com/antoniostano/gamemaster/internal/session"
	"github.com/antoniostano/gamemaster/internal/tools"
	"github.com/antoniostano/gamemaster/internal/transcript"
	"github.com/antoniostano/gamemaster/internal/voice"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, *session.Manager) {
	t.Helper()

	store := transcript.NewStore(t.TempDir())
	registry := tools.NewRegistry()
	if err := registry.Register(tools.NewRestartTool(store)); err != nil {
		t.Fatalf("register restart tool: %v", err)
	}

	vad, err := voice.LoadVAD(voice.VADConfig{})
	if err != nil {
		t.Fatalf("LoadVAD() error = %v", err)
	}

	sessions := session.NewManager(time.Minute)
	metrics := observability.NewMetrics(fmt.Sprintf("gm_test_%d", time.Now().UnixNano()))
	mock := voice.NewMockProvider()

	o := NewOrchestrator(NewAgent(registry), brain.NewMockAdapter(), mock, mock, vad, sessions, metrics, "mock", "mock")
	return o, sessions
}

// pcmChunk builds a base64 linear16 frame with the given amplitude.
func pcmChunk(amplitude int16, samples int) string {
	buf := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(amplitude))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// collectUntilTurnEnd drains outbound until a gm_turn_end arrives.
func collectUntilTurnEnd(t *testing.T, outbound <-chan any) []any {
	t.Helper()
	var got []any
	deadline := time.After(5 * time.Second)
	for {
		select {
		case msg := <-outbound:
			got = append(got, msg)
			if _, ok := msg.(protocol.GMTurnEnd); ok {
				return got
			}
		case <-deadline:
			t.Fatalf("no gm_turn_end observed; got %d messages", len(got))
		}
	}
}

func TestRunConnectionNarratesOpeningScene(t *testing.T) {
	o, sessions := newTestOrchestrator(t)
	sess := sessions.Create()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inbound := make(chan any, 64)
	outbound := make(chan any, 256)
	done := make(chan error, 1)
	go func() { done <- o.RunConnection(ctx, sess, inbound, outbound) }()

	got := collectUntilTurnEnd(t, outbound)

	var sawDelta, sawAudio, sawFirstAudio bool
	for _, msg := range got {
		switch m := msg.(type) {
		case protocol.GMTextDelta:
			if strings.Contains(m.TextDelta, "Which option (A, B, C, or D) do you choose?") {
				sawDelta = true
			}
		case protocol.GMAudioChunk:
			sawAudio = true
		case protocol.SystemEvent:
			if m.Code == "gm_first_audio" {
				sawFirstAudio = true
			}
		}
	}
	if !sawDelta {
		t.Fatalf("opening narration delta missing; got %+v", got)
	}
	if !sawAudio || !sawFirstAudio {
		t.Fatalf("opening audio missing (audio=%v first=%v)", sawAudio, sawFirstAudio)
	}

	close(inbound)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunConnection() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("RunConnection did not return after inbound close")
	}
}

func TestRunConnectionCommitsPlayerTurn(t *testing.T) {
	o, sessions := newTestOrchestrator(t)
	sess := sessions.Create()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inbound := make(chan any, 64)
	outbound := make(chan any, 256)
	done := make(chan error, 1)
	go func() { done <- o.RunConnection(ctx, sess, inbound, outbound) }()

	// Let the opening narration finish before the player speaks.
	collectUntilTurnEnd(t, outbound)

	loud := pcmChunk(8000, 160)
	inbound <- protocol.ClientAudioChunk{
		Type:        protocol.TypeClientAudioChunk,
		SessionID:   sess.ID,
		Seq:         1,
		PCM16Base64: loud,
		SampleRate:  16000,
	}
	inbound <- protocol.ClientControl{
		Type:      protocol.TypeClientControl,
		SessionID: sess.ID,
		Action:    "end_turn",
	}

	got := collectUntilTurnEnd(t, outbound)

	var committedText string
	var sawReply bool
	for _, msg := range got {
		switch m := msg.(type) {
		case protocol.STTCommitted:
			committedText = m.Text
		case protocol.GMTextDelta:
			if strings.Contains(m.TextDelta, "Option A") {
				sawReply = true
			}
		}
	}
	if committedText != "Option A" {
		t.Fatalf("committed text = %q, want %q", committedText, "Option A")
	}
	if !sawReply {
		t.Fatalf("narration did not acknowledge the committed choice")
	}

	// The first committed turn also pins the derived player name.
	updated, err := sessions.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if updated.PlayerName == "" {
		t.Fatalf("player name was not derived from the first turn")
	}
	if updated.TurnCount < 2 {
		t.Fatalf("TurnCount = %d, want >= 2", updated.TurnCount)
	}

	close(inbound)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunConnection() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("RunConnection did not return after inbound close")
	}
}

func TestRunConnectionEndSessionControl(t *testing.T) {
	o, sessions := newTestOrchestrator(t)
	sess := sessions.Create()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inbound := make(chan any, 16)
	outbound := make(chan any, 256)
	done := make(chan error, 1)
	go func() { done <- o.RunConnection(ctx, sess, inbound, outbound) }()

	collectUntilTurnEnd(t, outbound)

	inbound <- protocol.ClientControl{
		Type:      protocol.TypeClientControl,
		SessionID: sess.ID,
		Action:    "end_session",
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunConnection() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("RunConnection did not stop on end_session")
	}
}
