package voice

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"
	"time"

	"github.com/antoniostano/gamemaster/internal/audio"
)

// MockProvider stands in for Deepgram and Murf when no credentials are
// configured, echoing scripted player choices and text-as-audio.
type MockProvider struct{}

func NewMockProvider() *MockProvider { return &MockProvider{} }

func (p *MockProvider) StartSession(_ context.Context, _ string) (STTSession, <-chan STTEvent, error) {
	events := make(chan STTEvent, 64)
	s := &mockSTTSession{events: events}
	return s, events, nil
}

func (p *MockProvider) StartStream(_ context.Context, _ string, _ TTSSettings) (TTSStream, error) {
	return &mockTTSStream{events: make(chan TTSEvent, 128)}, nil
}

var mockChoices = []string{"Option A", "Option C", "My name is Lysandra, I choose B", "restart"}

type mockSTTSession struct {
	mu     sync.Mutex
	events chan STTEvent
	chunks int
	turns  int
	heard  bool
	closed bool
}

func (s *mockSTTSession) SendAudioChunk(_ context.Context, audioBase64 string, _ int, commit bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.chunks++
	if audioBase64 != "" {
		s.heard = true
		s.events <- STTEvent{Type: STTEventPartial, Text: "...", Confidence: 0.5, Source: "mock", Timestamp: time.Now().UnixMilli()}
	}
	if commit || s.chunks%8 == 0 {
		text := ""
		if s.heard {
			text = mockChoices[s.turns%len(mockChoices)]
			s.turns++
			s.heard = false
		}
		s.events <- STTEvent{Type: STTEventCommitted, Text: text, Confidence: 0.7, Source: "mock_commit", Timestamp: time.Now().UnixMilli()}
	}
	return nil
}

func (s *mockSTTSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.events)
	return nil
}

type mockTTSStream struct {
	mu     sync.Mutex
	events chan TTSEvent
	closed bool
}

func (s *mockTTSStream) SendText(_ context.Context, text string, _ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || strings.TrimSpace(text) == "" {
		return nil
	}
	// Emit a silent WAV clip proportional to the narration length so
	// clients exercise their real playback path.
	pcm := make([]byte, len(text)*2)
	wav, err := audio.EncodeWAVPCM16LE(pcm, 16000)
	if err != nil {
		return err
	}
	s.events <- TTSEvent{Type: TTSEventAudio, AudioBase64: base64.StdEncoding.EncodeToString(wav), Format: "wav_16000"}
	return nil
}

func (s *mockTTSStream) CloseInput(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.events <- TTSEvent{Type: TTSEventFinal}
	return nil
}

func (s *mockTTSStream) Events() <-chan TTSEvent { return s.events }

func (s *mockTTSStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.events)
	return nil
}
