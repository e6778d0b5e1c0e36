package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/antoniostano/gamemaster/internal/reliability"
)

type MurfConfig struct {
	APIKey     string
	WSBaseURL  string
	SampleRate int
}

// MurfProvider synthesizes Game Master narration through Murf's
// stream-input websocket.
type MurfProvider struct {
	cfg MurfConfig
}

func NewMurfProvider(cfg MurfConfig) *MurfProvider {
	if strings.TrimSpace(cfg.WSBaseURL) == "" {
		cfg.WSBaseURL = "wss://api.murf.ai"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 24000
	}
	return &MurfProvider{cfg: cfg}
}

func (p *MurfProvider) StartStream(ctx context.Context, voiceID string, settings TTSSettings) (TTSStream, error) {
	if strings.TrimSpace(voiceID) == "" {
		return nil, fmt.Errorf("voice_id is required")
	}

	rate := settings.SpeakingRate
	if rate <= 0 {
		rate = 1.0
	}
	if rate < 0.7 {
		rate = 0.7
	} else if rate > 1.3 {
		rate = 1.3
	}

	u, err := url.Parse(strings.TrimRight(p.cfg.WSBaseURL, "/") + "/v1/speech/stream-input")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("sample_rate", fmt.Sprintf("%d", p.cfg.SampleRate))
	q.Set("format", "WAV")
	u.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("api-key", p.cfg.APIKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), headers)
	if err != nil {
		return nil, fmt.Errorf("dial tts websocket: %w", err)
	}

	s := &murfStream{
		conn:   conn,
		events: make(chan TTSEvent, 512),
		format: fmt.Sprintf("wav_%d", p.cfg.SampleRate),
	}
	go s.readLoop()

	// The voice configuration primes the stream before any text arrives.
	_ = s.writeJSON(map[string]any{
		"voice_config": map[string]any{
			"voiceId":     voiceID,
			"style":       settings.Style,
			"rate":        rate,
			"textPacing":  settings.TextPacing,
			"sampleRate":  p.cfg.SampleRate,
			"multiNative": false,
		},
	})
	return s, nil
}

type murfStream struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	events    chan TTSEvent
	format    string
}

type murfMessage struct {
	Audio     string `json:"audio"`
	Final     bool   `json:"final"`
	Error     string `json:"error"`
	ErrorCode int    `json:"errorCode"`
}

func (s *murfStream) writeJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *murfStream) SendText(_ context.Context, text string, tryTrigger bool) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	payload := map[string]any{"text": text}
	if tryTrigger {
		payload["try_trigger_generation"] = true
	}
	if err := s.writeJSON(payload); err != nil {
		return fmt.Errorf("send tts text: %w", err)
	}
	return nil
}

func (s *murfStream) CloseInput(_ context.Context) error {
	if err := s.writeJSON(map[string]any{"end": true}); err != nil {
		return fmt.Errorf("close tts input: %w", err)
	}
	return nil
}

func (s *murfStream) Events() <-chan TTSEvent { return s.events }

func (s *murfStream) readLoop() {
	defer func() {
		s.closeOnce.Do(func() { close(s.events) })
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg murfMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		if msg.Error != "" {
			s.events <- TTSEvent{
				Type:      TTSEventError,
				Code:      fmt.Sprintf("murf_%d", msg.ErrorCode),
				Detail:    msg.Error,
				Retryable: reliability.IsRetryableHTTPStatus(msg.ErrorCode),
			}
			continue
		}
		if msg.Audio != "" {
			s.events <- TTSEvent{Type: TTSEventAudio, AudioBase64: msg.Audio, Format: s.format}
		}
		if msg.Final {
			s.events <- TTSEvent{Type: TTSEventFinal}
			return
		}
	}
}

func (s *murfStream) Close() error {
	// The read loop owns the events channel; closing the conn unblocks it.
	return s.conn.Close()
}
