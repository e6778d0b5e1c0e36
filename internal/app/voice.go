package app

import (
	"fmt"
	"strings"

	"github.com/antoniostano/gamemaster/internal/config"
	"github.com/antoniostano/gamemaster/internal/voice"
)

type voiceSetup struct {
	sttProvider      voice.STTProvider
	ttsProvider      voice.TTSProvider
	resolvedProvider string
	sttLabel         string
	ttsLabel         string
	detail           string
}

func mockVoiceSetup(detail string) voiceSetup {
	p := voice.NewMockProvider()
	return voiceSetup{
		sttProvider:      p,
		ttsProvider:      p,
		resolvedProvider: "mock",
		sttLabel:         "mock",
		ttsLabel:         "mock",
		detail:           detail,
	}
}

func resolveVoiceProviders(cfg config.Config) (voiceSetup, error) {
	voiceMode := strings.ToLower(strings.TrimSpace(cfg.VoiceProvider))
	if voiceMode == "" {
		voiceMode = "auto"
	}

	hasCloudKeys := strings.TrimSpace(cfg.DeepgramAPIKey) != "" && strings.TrimSpace(cfg.MurfAPIKey) != ""
	cloudSetup := func() voiceSetup {
		return voiceSetup{
			sttProvider: voice.NewDeepgramProvider(voice.DeepgramConfig{
				APIKey:     cfg.DeepgramAPIKey,
				WSBaseURL:  cfg.DeepgramWSBaseURL,
				ModelID:    cfg.DeepgramModel,
				SampleRate: cfg.DeepgramSampleRate,
			}),
			ttsProvider: voice.NewMurfProvider(voice.MurfConfig{
				APIKey:     cfg.MurfAPIKey,
				WSBaseURL:  cfg.MurfWSBaseURL,
				SampleRate: cfg.MurfSampleRate,
			}),
			resolvedProvider: "cloud",
			sttLabel:         "deepgram",
			ttsLabel:         "murf",
			detail:           fmt.Sprintf("deepgram %s + murf", cfg.DeepgramModel),
		}
	}

	switch voiceMode {
	case "cloud":
		if !hasCloudKeys {
			return voiceSetup{}, fmt.Errorf("VOICE_PROVIDER=cloud requires both DEEPGRAM_API_KEY and MURF_API_KEY")
		}
		return cloudSetup(), nil
	case "mock":
		return mockVoiceSetup("mock"), nil
	case "auto":
		if hasCloudKeys {
			return cloudSetup(), nil
		}
		return mockVoiceSetup("mock (deepgram/murf keys not set)"), nil
	default:
		return voiceSetup{}, fmt.Errorf("invalid VOICE_PROVIDER: %q (expected auto|cloud|mock)", cfg.VoiceProvider)
	}
}
