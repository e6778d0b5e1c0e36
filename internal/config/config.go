package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the Game Master service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string

	AllowAnyOrigin bool

	BrainProvider string
	GoogleAPIKey  string
	GeminiModel   string

	VoiceProvider string

	DeepgramAPIKey     string
	DeepgramWSBaseURL  string
	DeepgramModel      string
	DeepgramSampleRate int

	MurfAPIKey     string
	MurfWSBaseURL  string
	MurfSampleRate int

	VADThreshold      float64
	VADHangoverFrames int

	GameSaveDir string
	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:          envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "gamemaster"),
		AllowAnyOrigin:    false,
		BrainProvider:     envOrDefault("BRAIN_PROVIDER", "auto"),
		GoogleAPIKey:      stringsTrimSpace("GOOGLE_API_KEY"),
		GeminiModel:       envOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		VoiceProvider:     envOrDefault("VOICE_PROVIDER", "auto"),
		DeepgramAPIKey:    stringsTrimSpace("DEEPGRAM_API_KEY"),
		DeepgramWSBaseURL: envOrDefault("DEEPGRAM_WS_BASE_URL", "wss://api.deepgram.com"),
		DeepgramModel:     envOrDefault("DEEPGRAM_MODEL_ID", "nova-3"),
		// Linear16 mono capture from the browser client.
		DeepgramSampleRate:       16000,
		MurfAPIKey:               stringsTrimSpace("MURF_API_KEY"),
		MurfWSBaseURL:            envOrDefault("MURF_WS_BASE_URL", "wss://api.murf.ai"),
		MurfSampleRate:           24000,
		VADThreshold:             0.015,
		VADHangoverFrames:        8,
		GameSaveDir:              envOrDefault("GAME_SAVE_DIR", "saves"),
		DatabaseURL:              stringsTrimSpace("DATABASE_URL"),
		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 2 * time.Minute,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.DeepgramSampleRate, err = intFromEnv("DEEPGRAM_SAMPLE_RATE", cfg.DeepgramSampleRate)
	if err != nil {
		return Config{}, err
	}
	cfg.MurfSampleRate, err = intFromEnv("MURF_SAMPLE_RATE", cfg.MurfSampleRate)
	if err != nil {
		return Config{}, err
	}
	cfg.VADThreshold, err = floatFromEnv("VAD_THRESHOLD", cfg.VADThreshold)
	if err != nil {
		return Config{}, err
	}
	cfg.VADHangoverFrames, err = intFromEnv("VAD_HANGOVER_FRAMES", cfg.VADHangoverFrames)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.DeepgramSampleRate <= 0 {
		return Config{}, fmt.Errorf("DEEPGRAM_SAMPLE_RATE must be positive")
	}
	if cfg.MurfSampleRate <= 0 {
		return Config{}, fmt.Errorf("MURF_SAMPLE_RATE must be positive")
	}
	if cfg.VADThreshold <= 0 || cfg.VADThreshold >= 1 {
		return Config{}, fmt.Errorf("VAD_THRESHOLD must be in (0,1)")
	}
	if cfg.VADHangoverFrames < 0 {
		return Config{}, fmt.Errorf("VAD_HANGOVER_FRAMES must be >= 0")
	}
	if strings.TrimSpace(cfg.GameSaveDir) == "" {
		return Config{}, fmt.Errorf("GAME_SAVE_DIR must not be empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
