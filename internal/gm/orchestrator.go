package gm

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/antoniostano/gamemaster/internal/audio"
	"github.com/antoniostano/gamemaster/internal/brain"
	"github.com/antoniostano/gamemaster/internal/observability"
	"github.com/antoniostano/gamemaster/internal/protocol"
	"github.com/antoniostano/gamemaster/internal/session"
	"github.com/antoniostano/gamemaster/internal/transcript"
	"github.com/antoniostano/gamemaster/internal/voice"
)

// Orchestrator wires one websocket connection to the speech providers
// and the Game Master brain. One instance serves all sessions;
// per-connection state lives inside RunConnection.
type Orchestrator struct {
	agent    *Agent
	brain    brain.Adapter
	stt      voice.STTProvider
	tts      voice.TTSProvider
	vad      *voice.VAD
	sessions *session.Manager
	metrics  *observability.Metrics
	sttLabel string
	ttsLabel string
}

func NewOrchestrator(
	agent *Agent,
	adapter brain.Adapter,
	stt voice.STTProvider,
	tts voice.TTSProvider,
	vad *voice.VAD,
	sessions *session.Manager,
	metrics *observability.Metrics,
	sttLabel, ttsLabel string,
) *Orchestrator {
	return &Orchestrator{
		agent:    agent,
		brain:    adapter,
		stt:      stt,
		tts:      tts,
		vad:      vad,
		sessions: sessions,
		metrics:  metrics,
		sttLabel: sttLabel,
		ttsLabel: ttsLabel,
	}
}

// RunConnection drives one player connection until the client
// disconnects, the session is ended, or the context is cancelled.
func (o *Orchestrator) RunConnection(ctx context.Context, s *session.Session, inbound <-chan any, outbound chan<- any) error {
	sttSession, sttEvents, err := o.stt.StartSession(ctx, s.ID)
	if err != nil {
		o.send(outbound, protocol.ErrorEvent{
			Type:      protocol.TypeErrorEvent,
			SessionID: s.ID,
			Code:      "stt_connect_failed",
			Source:    "stt",
			Retryable: true,
			Detail:    err.Error(),
		})
		return err
	}
	defer sttSession.Close()

	gate := o.vad.NewGate()
	detector := voice.NewTurnDetector()
	conv := &conversation{}

	var (
		turnMu       sync.Mutex
		turnCancel   context.CancelFunc
		activeTurnID string

		commitMu    sync.Mutex
		commitTimer *time.Timer

		utteranceStartedAt time.Time
		lastSampleRate     = 16000
	)

	interruptTurn := func(reason string) {
		turnMu.Lock()
		cancel := turnCancel
		turnID := activeTurnID
		turnCancel = nil
		activeTurnID = ""
		turnMu.Unlock()
		if cancel == nil {
			return
		}
		cancel()
		o.metrics.SessionEvents.WithLabelValues("turn_interrupted").Inc()
		o.send(outbound, protocol.GMTurnEnd{
			Type:      protocol.TypeGMTurnEnd,
			SessionID: s.ID,
			TurnID:    turnID,
			Reason:    reason,
		})
	}

	cancelScheduledCommit := func() {
		commitMu.Lock()
		defer commitMu.Unlock()
		if commitTimer != nil {
			commitTimer.Stop()
			commitTimer = nil
		}
	}

	scheduleCommit := func(hold time.Duration) {
		commitMu.Lock()
		defer commitMu.Unlock()
		if commitTimer != nil {
			return
		}
		rate := lastSampleRate
		commitTimer = time.AfterFunc(hold, func() {
			commitMu.Lock()
			commitTimer = nil
			commitMu.Unlock()
			_ = sttSession.SendAudioChunk(ctx, "", rate, true)
		})
	}

	launchTurn := func(turnID string, committedAt time.Time) {
		turnCtx, cancel := context.WithCancel(ctx)
		turnMu.Lock()
		turnCancel = cancel
		activeTurnID = turnID
		turnMu.Unlock()

		_ = o.sessions.StartTurn(s.ID, turnID)
		go func() {
			defer cancel()
			err := o.runTurn(turnCtx, s.ID, conv, turnID, committedAt, outbound)
			_ = o.sessions.EndTurn(s.ID)

			turnMu.Lock()
			current := activeTurnID == turnID
			if current {
				turnCancel = nil
				activeTurnID = ""
			}
			turnMu.Unlock()
			if !current {
				return
			}
			reason := "complete"
			if err != nil {
				reason = "error"
			}
			o.send(outbound, protocol.GMTurnEnd{
				Type:      protocol.TypeGMTurnEnd,
				SessionID: s.ID,
				TurnID:    turnID,
				Reason:    reason,
			})
		}()
	}

	startPlayerTurn := func(userText string, committedAt time.Time) {
		interruptTurn("superseded")
		conv.Append(transcript.RoleUser, userText)
		if conv.UserTurns() == 1 {
			if name := transcript.PlayerName(conv.History()); name != "" {
				_ = o.sessions.SetPlayerName(s.ID, name)
			}
		}
		launchTurn(uuid.NewString(), committedAt)
	}

	// The Game Master speaks first: narrate the opening scene before any
	// player audio arrives.
	launchTurn(uuid.NewString(), time.Now())

	for {
		select {
		case <-ctx.Done():
			cancelScheduledCommit()
			interruptTurn("cancelled")
			return ctx.Err()

		case msg, ok := <-inbound:
			if !ok {
				cancelScheduledCommit()
				interruptTurn("disconnected")
				return nil
			}
			switch m := msg.(type) {
			case protocol.ClientAudioChunk:
				_ = o.sessions.Touch(s.ID)
				pcm, err := audio.DecodePCM16Base64(m.PCM16Base64)
				if err != nil {
					o.send(outbound, protocol.ErrorEvent{
						Type:      protocol.TypeErrorEvent,
						SessionID: s.ID,
						Code:      "invalid_audio",
						Source:    "gateway",
						Retryable: false,
						Detail:    err.Error(),
					})
					continue
				}
				if m.SampleRate > 0 {
					commitMu.Lock()
					lastSampleRate = m.SampleRate
					commitMu.Unlock()
				}

				d := gate.Process(pcm)
				if d.Speech {
					if utteranceStartedAt.IsZero() {
						utteranceStartedAt = time.Now()
						// The player talking over the narration is a barge-in.
						interruptTurn("barge_in")
					}
					cancelScheduledCommit()
					if err := sttSession.SendAudioChunk(ctx, m.PCM16Base64, m.SampleRate, false); err != nil {
						o.metrics.ProviderErrors.WithLabelValues(o.sttLabel, "send_failed").Inc()
						o.send(outbound, protocol.ErrorEvent{
							Type:      protocol.TypeErrorEvent,
							SessionID: s.ID,
							Code:      "stt_send_failed",
							Source:    "stt",
							Retryable: true,
							Detail:    err.Error(),
						})
					}
				}
				if d.TurnEnded {
					_ = sttSession.SendAudioChunk(ctx, "", m.SampleRate, true)
				}

			case protocol.ClientControl:
				_ = o.sessions.Touch(s.ID)
				switch m.Action {
				case "end_turn":
					commitMu.Lock()
					rate := lastSampleRate
					commitMu.Unlock()
					cancelScheduledCommit()
					_ = sttSession.SendAudioChunk(ctx, "", rate, true)
				case "end_session":
					cancelScheduledCommit()
					interruptTurn("session_ended")
					return nil
				default:
					o.send(outbound, protocol.ErrorEvent{
						Type:      protocol.TypeErrorEvent,
						SessionID: s.ID,
						Code:      "unsupported_action",
						Source:    "gateway",
						Retryable: false,
						Detail:    "unknown control action " + m.Action,
					})
				}
			}

		case evt, ok := <-sttEvents:
			if !ok {
				cancelScheduledCommit()
				interruptTurn("stt_closed")
				return nil
			}
			switch evt.Type {
			case voice.STTEventPartial:
				o.send(outbound, protocol.STTPartial{
					Type:       protocol.TypeSTTPartial,
					SessionID:  s.ID,
					Text:       evt.Text,
					Confidence: evt.Confidence,
					TSMs:       evt.Timestamp,
				})
				var age time.Duration
				if !utteranceStartedAt.IsZero() {
					age = time.Since(utteranceStartedAt)
				}
				if hint, act := detector.Evaluate(evt.Text, evt.Confidence, age); act && hint.ShouldCommit {
					scheduleCommit(hint.Hold)
				}
			case voice.STTEventCommitted:
				cancelScheduledCommit()
				detector.Reset()
				utteranceStartedAt = time.Time{}
				text := strings.TrimSpace(evt.Text)
				if text == "" {
					continue
				}
				o.send(outbound, protocol.STTCommitted{
					Type:      protocol.TypeSTTCommitted,
					SessionID: s.ID,
					Text:      text,
					TSMs:      evt.Timestamp,
				})
				startPlayerTurn(text, time.Now())
			case voice.STTEventError:
				code := evt.Code
				if code == "" {
					code = "stt_error"
				}
				o.metrics.ProviderErrors.WithLabelValues(o.sttLabel, code).Inc()
				o.send(outbound, protocol.ErrorEvent{
					Type:      protocol.TypeErrorEvent,
					SessionID: s.ID,
					Code:      code,
					Source:    "stt",
					Retryable: evt.Retryable,
					Detail:    evt.Detail,
				})
			}
		}
	}
}

// runTurn produces one Game Master narration: it calls the brain with
// the full history, streams text deltas out, then synthesizes the
// sanitized narration to audio chunks.
func (o *Orchestrator) runTurn(
	ctx context.Context,
	sessionID string,
	conv *conversation,
	turnID string,
	committedAt time.Time,
	outbound chan<- any,
) error {
	start := committedAt
	if start.IsZero() {
		start = time.Now()
	}
	profile := o.agent.Profile()

	// Dial the TTS stream while the brain is thinking so the first
	// narration chunk is not serialized behind the connect.
	type ttsPreflightResult struct {
		stream voice.TTSStream
		err    error
	}
	ttsResCh := make(chan ttsPreflightResult, 1)
	go func() {
		stream, err := o.tts.StartStream(ctx, profile.VoiceID, voice.TTSSettings{
			Style:        profile.Style,
			TextPacing:   profile.TextPacing,
			SpeakingRate: profile.SpeakingRate,
		})
		ttsResCh <- ttsPreflightResult{stream: stream, err: err}
	}()

	dispatch := o.agent.Dispatcher(conv, func(tool string) {
		o.metrics.ToolInvocations.WithLabelValues(tool).Inc()
		if tool == "restart_tool" {
			_ = o.sessions.RecordSave(sessionID)
			o.metrics.SessionEvents.WithLabelValues("game_restarted").Inc()
		}
	})

	resp, err := o.brain.StreamResponse(ctx, brain.MessageRequest{
		SessionID:    sessionID,
		TurnID:       turnID,
		Instructions: o.agent.Instructions(),
		History:      conv.History(),
		Tools:        o.agent.ToolSpecs(),
		Dispatch:     dispatch,
	}, func(delta string) error {
		o.send(outbound, protocol.GMTextDelta{
			Type:      protocol.TypeGMTextDelta,
			SessionID: sessionID,
			TurnID:    turnID,
			TextDelta: delta,
		})
		return nil
	})
	if err != nil {
		o.metrics.ProviderErrors.WithLabelValues("brain", "stream_failed").Inc()
		o.send(outbound, protocol.ErrorEvent{
			Type:      protocol.TypeErrorEvent,
			SessionID: sessionID,
			Code:      "brain_failed",
			Source:    "brain",
			Retryable: true,
			Detail:    err.Error(),
		})
		return err
	}

	narration := strings.TrimSpace(resp.Text)
	if narration == "" {
		return nil
	}
	conv.Append(transcript.RoleAssistant, narration)

	var pre ttsPreflightResult
	select {
	case <-ctx.Done():
		return ctx.Err()
	case pre = <-ttsResCh:
	}
	if pre.err != nil {
		// The text deltas were already delivered; the turn degrades to
		// text-only instead of failing.
		o.metrics.ProviderErrors.WithLabelValues(o.ttsLabel, "connect_failed").Inc()
		o.send(outbound, protocol.ErrorEvent{
			Type:      protocol.TypeErrorEvent,
			SessionID: sessionID,
			Code:      "tts_connect_failed",
			Source:    "tts",
			Retryable: true,
			Detail:    pre.err.Error(),
		})
		return nil
	}
	stream := pre.stream
	defer stream.Close()

	spoken := voice.SanitizeNarration(narration)
	if spoken == "" {
		return nil
	}
	if err := stream.SendText(ctx, spoken, true); err != nil {
		o.metrics.ProviderErrors.WithLabelValues(o.ttsLabel, "send_failed").Inc()
		return nil
	}
	if err := stream.CloseInput(ctx); err != nil {
		o.metrics.ProviderErrors.WithLabelValues(o.ttsLabel, "close_input_failed").Inc()
	}

	firstAudio := false
	seq := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-stream.Events():
			if !ok {
				return nil
			}
			switch evt.Type {
			case voice.TTSEventAudio:
				if !firstAudio {
					firstAudio = true
					o.metrics.ObserveFirstAudioLatency(time.Since(start))
					o.send(outbound, protocol.SystemEvent{
						Type:      protocol.TypeSystemEvent,
						SessionID: sessionID,
						Code:      "gm_first_audio",
					})
				}
				seq++
				o.send(outbound, protocol.GMAudioChunk{
					Type:        protocol.TypeGMAudioChunk,
					SessionID:   sessionID,
					TurnID:      turnID,
					Seq:         seq,
					Format:      evt.Format,
					AudioBase64: evt.AudioBase64,
				})
			case voice.TTSEventError:
				code := evt.Code
				if code == "" {
					code = "tts_error"
				}
				o.metrics.ProviderErrors.WithLabelValues(o.ttsLabel, code).Inc()
				o.send(outbound, protocol.ErrorEvent{
					Type:      protocol.TypeErrorEvent,
					SessionID: sessionID,
					Code:      code,
					Source:    "tts",
					Retryable: evt.Retryable,
					Detail:    evt.Detail,
				})
			case voice.TTSEventFinal:
				return nil
			}
		}
	}
}

// send delivers one outbound message. Critical events wait a bounded
// time for queue space; bursty stream messages drop when the client
// cannot keep up so websocket writes stay single-threaded.
func (o *Orchestrator) send(outbound chan<- any, msg any) {
	msgType, critical := outboundMessageMeta(msg)
	if critical {
		timer := time.NewTimer(600 * time.Millisecond)
		defer timer.Stop()
		select {
		case outbound <- msg:
			o.metrics.ObserveOutboundMessage(msgType, "delivered")
		case <-timer.C:
			o.metrics.ObserveOutboundMessage(msgType, "timeout")
		}
		return
	}
	select {
	case outbound <- msg:
		o.metrics.ObserveOutboundMessage(msgType, "delivered")
	default:
		o.metrics.ObserveOutboundMessage(msgType, "dropped")
	}
}

func outboundMessageMeta(msg any) (msgType string, critical bool) {
	switch m := msg.(type) {
	case protocol.STTPartial:
		return string(m.Type), false
	case protocol.STTCommitted:
		return string(m.Type), true
	case protocol.GMTextDelta:
		return string(m.Type), false
	case protocol.GMAudioChunk:
		return string(m.Type), true
	case protocol.GMTurnEnd:
		return string(m.Type), true
	case protocol.SystemEvent:
		return string(m.Type), true
	case protocol.ErrorEvent:
		return string(m.Type), true
	default:
		return "unknown", false
	}
}
