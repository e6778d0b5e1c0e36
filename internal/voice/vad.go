package voice

import (
	"fmt"

	"github.com/antoniostano/gamemaster/internal/audio"
)

// VADConfig tunes the energy gate that keeps silence away from the STT
// stream.
type VADConfig struct {
	// Threshold is the RMS level (0..1 of int16 full scale) above which a
	// frame counts as speech.
	Threshold float64
	// HangoverFrames keeps the gate open for this many sub-threshold
	// frames so trailing soft syllables are not clipped.
	HangoverFrames int
}

// VAD is the loaded, immutable detector shared by all sessions. Load it
// once at worker start (the pre-warm step); per-connection state lives
// in gates.
type VAD struct {
	cfg VADConfig
}

// LoadVAD validates the configuration and prepares the detector.
func LoadVAD(cfg VADConfig) (*VAD, error) {
	if cfg.Threshold == 0 {
		cfg.Threshold = 0.015
	}
	if cfg.Threshold < 0 || cfg.Threshold >= 1 {
		return nil, fmt.Errorf("vad threshold %v out of range (0,1)", cfg.Threshold)
	}
	if cfg.HangoverFrames == 0 {
		cfg.HangoverFrames = 8
	}
	if cfg.HangoverFrames < 0 {
		return nil, fmt.Errorf("vad hangover frames must be >= 0")
	}
	return &VAD{cfg: cfg}, nil
}

// NewGate returns fresh per-connection gate state.
func (v *VAD) NewGate() *Gate {
	return &Gate{cfg: v.cfg}
}

// Decision reports how one audio frame moved the gate.
type Decision struct {
	Speech bool
	// TurnEnded is set on the frame where the gate closes after speech,
	// i.e. the end of an utterance.
	TurnEnded bool
	RMS       float64
}

// Gate tracks open/closed state across consecutive frames of one
// connection. Not safe for concurrent use.
type Gate struct {
	cfg   VADConfig
	open  bool
	quiet int
}

func (g *Gate) Process(pcm []byte) Decision {
	rms := audio.RMSPCM16LE(pcm)
	d := Decision{RMS: rms}

	if rms >= g.cfg.Threshold {
		g.open = true
		g.quiet = 0
		d.Speech = true
		return d
	}

	if !g.open {
		return d
	}

	g.quiet++
	if g.quiet > g.cfg.HangoverFrames {
		g.open = false
		g.quiet = 0
		d.TurnEnded = true
		return d
	}
	// Inside the hangover window the frame still counts as speech.
	d.Speech = true
	return d
}

// Open reports whether the gate currently passes audio.
func (g *Gate) Open() bool { return g.open }
