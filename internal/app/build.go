// Package app wires configuration into a runnable Game Master service.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/antoniostano/gamemaster/internal/brain"
	"github.com/antoniostano/gamemaster/internal/config"
	"github.com/antoniostano/gamemaster/internal/gm"
	"github.com/antoniostano/gamemaster/internal/httpapi"
	"github.com/antoniostano/gamemaster/internal/observability"
	"github.com/antoniostano/gamemaster/internal/session"
	"github.com/antoniostano/gamemaster/internal/tools"
	"github.com/antoniostano/gamemaster/internal/transcript"
	"github.com/antoniostano/gamemaster/internal/voice"
)

type VoiceInfo struct {
	Provider string
	Detail   string
}

type BuildResult struct {
	Config       config.Config
	API          *httpapi.Server
	Sessions     *session.Manager
	Orchestrator *gm.Orchestrator
	Store        *transcript.Store
	Metrics      *observability.Metrics
	Voice        VoiceInfo

	// Cleanup should be called on shutdown to release external resources.
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	archive, err := transcript.NewArchive(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("save archive init failed: %w", err)
	}
	closeArchive := func() {
		if archive != nil {
			_ = archive.Close()
		}
	}

	storeOpts := []transcript.StoreOption{
		transcript.WithObserver(func(outcome string) {
			metrics.GameSaves.WithLabelValues(outcome).Inc()
		}),
	}
	if archive != nil {
		storeOpts = append(storeOpts, transcript.WithArchive(archive))
	}
	store := transcript.NewStore(cfg.GameSaveDir, storeOpts...)

	adapter, err := brain.NewAdapter(brain.Config{
		Mode:   cfg.BrainProvider,
		APIKey: cfg.GoogleAPIKey,
		Model:  cfg.GeminiModel,
	})
	if err != nil {
		closeArchive()
		return nil, fmt.Errorf("brain adapter init failed: %w", err)
	}

	voiceSetup, err := resolveVoiceProviders(cfg)
	if err != nil {
		closeArchive()
		return nil, err
	}
	cfg.VoiceProvider = voiceSetup.resolvedProvider

	// Loading the energy gate up front keeps the first connection from
	// paying the validation cost.
	vad, err := voice.LoadVAD(voice.VADConfig{
		Threshold:      cfg.VADThreshold,
		HangoverFrames: cfg.VADHangoverFrames,
	})
	if err != nil {
		closeArchive()
		return nil, fmt.Errorf("vad prewarm failed: %w", err)
	}
	log.Printf("voice: vad prewarmed (threshold=%v hangover=%d)", cfg.VADThreshold, cfg.VADHangoverFrames)

	registry := tools.NewRegistry()
	if err := registry.Register(tools.NewRestartTool(store)); err != nil {
		closeArchive()
		return nil, fmt.Errorf("register restart tool: %w", err)
	}
	agent := gm.NewAgent(registry)

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	sessions.SetExpireHook(func(_ *session.Session) {
		metrics.SessionEvents.WithLabelValues("expired").Inc()
		metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
	})

	orchestrator := gm.NewOrchestrator(
		agent,
		adapter,
		voiceSetup.sttProvider,
		voiceSetup.ttsProvider,
		vad,
		sessions,
		metrics,
		voiceSetup.sttLabel,
		voiceSetup.ttsLabel,
	)

	api := httpapi.New(cfg, sessions, orchestrator, store, metrics)

	cleanup := func() error {
		if archive != nil {
			return archive.Close()
		}
		return nil
	}

	return &BuildResult{
		Config:       cfg,
		API:          api,
		Sessions:     sessions,
		Orchestrator: orchestrator,
		Store:        store,
		Metrics:      metrics,
		Voice: VoiceInfo{
			Provider: cfg.VoiceProvider,
			Detail:   voiceSetup.detail,
		},
		Cleanup: cleanup,
	}, nil
}
