package voice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antoniostano/gamemaster/internal/reliability"
)

type DeepgramConfig struct {
	APIKey     string
	WSBaseURL  string
	ModelID    string
	SampleRate int
}

// DeepgramProvider streams microphone audio to Deepgram's realtime
// listen endpoint and surfaces partial and committed transcripts.
type DeepgramProvider struct {
	cfg DeepgramConfig
}

func NewDeepgramProvider(cfg DeepgramConfig) *DeepgramProvider {
	if strings.TrimSpace(cfg.WSBaseURL) == "" {
		cfg.WSBaseURL = "wss://api.deepgram.com"
	}
	if strings.TrimSpace(cfg.ModelID) == "" {
		cfg.ModelID = "nova-3"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	return &DeepgramProvider{cfg: cfg}
}

func (p *DeepgramProvider) StartSession(ctx context.Context, _ string) (STTSession, <-chan STTEvent, error) {
	u, err := url.Parse(strings.TrimRight(p.cfg.WSBaseURL, "/") + "/v1/listen")
	if err != nil {
		return nil, nil, err
	}
	q := u.Query()
	q.Set("model", p.cfg.ModelID)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(p.cfg.SampleRate))
	q.Set("channels", "1")
	q.Set("interim_results", "true")
	q.Set("smart_format", "true")
	q.Set("vad_events", "true")
	u.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("Authorization", "Token "+p.cfg.APIKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), headers)
	if err != nil {
		return nil, nil, fmt.Errorf("dial stt websocket: %w", err)
	}

	events := make(chan STTEvent, 256)
	s := &deepgramSession{conn: conn, events: events}
	go s.readLoop()
	return s, events, nil
}

type deepgramSession struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	events    chan STTEvent
}

type deepgramResult struct {
	Type    string `json:"type"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`
	Description string `json:"description"`
	Message     string `json:"message"`
}

func (s *deepgramSession) SendAudioChunk(_ context.Context, audioBase64 string, _ int, commit bool) error {
	// Sample rate is negotiated at dial time; per-chunk values are ignored.
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if audioBase64 != "" {
		pcm, err := base64.StdEncoding.DecodeString(audioBase64)
		if err != nil {
			return fmt.Errorf("decode audio chunk: %w", err)
		}
		if err := s.conn.WriteMessage(websocket.BinaryMessage, pcm); err != nil {
			return fmt.Errorf("send audio chunk: %w", err)
		}
	}
	if commit {
		if err := s.conn.WriteJSON(map[string]any{"type": "Finalize"}); err != nil {
			return fmt.Errorf("send finalize: %w", err)
		}
	}
	return nil
}

func (s *deepgramSession) readLoop() {
	defer func() {
		s.closeOnce.Do(func() { close(s.events) })
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg deepgramResult
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "Results":
			if len(msg.Channel.Alternatives) == 0 {
				continue
			}
			alt := msg.Channel.Alternatives[0]
			text := strings.TrimSpace(alt.Transcript)
			if text == "" {
				continue
			}
			evt := STTEvent{
				Text:       text,
				Confidence: alt.Confidence,
				Source:     "deepgram",
				Timestamp:  time.Now().UnixMilli(),
			}
			if msg.IsFinal && msg.SpeechFinal {
				evt.Type = STTEventCommitted
			} else {
				evt.Type = STTEventPartial
			}
			s.events <- evt
		case "Error":
			detail := msg.Description
			if detail == "" {
				detail = msg.Message
			}
			s.events <- STTEvent{
				Type:      STTEventError,
				Source:    "deepgram",
				Code:      "upstream_error",
				Detail:    detail,
				Retryable: reliability.IsRetryableRealtimeEvent(msg.Type),
				Timestamp: time.Now().UnixMilli(),
			}
		}
	}
}

func (s *deepgramSession) Close() error {
	s.writeMu.Lock()
	_ = s.conn.WriteJSON(map[string]any{"type": "CloseStream"})
	s.writeMu.Unlock()
	return s.conn.Close()
}
