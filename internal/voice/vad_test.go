package voice

import (
	"encoding/binary"
	"testing"
)

func pcmFrame(amplitude int16, samples int) []byte {
	buf := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(amplitude))
	}
	return buf
}

func TestLoadVADValidation(t *testing.T) {
	if _, err := LoadVAD(VADConfig{Threshold: 1.5}); err == nil {
		t.Fatalf("LoadVAD() should reject threshold >= 1")
	}
	if _, err := LoadVAD(VADConfig{HangoverFrames: -1}); err == nil {
		t.Fatalf("LoadVAD() should reject negative hangover")
	}
	v, err := LoadVAD(VADConfig{})
	if err != nil {
		t.Fatalf("LoadVAD() defaults error = %v", err)
	}
	if v == nil {
		t.Fatalf("LoadVAD() returned nil detector")
	}
}

func TestGateOpensOnSpeechAndStaysClosedOnSilence(t *testing.T) {
	v, err := LoadVAD(VADConfig{Threshold: 0.05, HangoverFrames: 2})
	if err != nil {
		t.Fatalf("LoadVAD() error = %v", err)
	}
	gate := v.NewGate()

	if d := gate.Process(pcmFrame(0, 160)); d.Speech || gate.Open() {
		t.Fatalf("silence should not open the gate: %+v", d)
	}
	if d := gate.Process(pcmFrame(8000, 160)); !d.Speech || !gate.Open() {
		t.Fatalf("loud frame should open the gate: %+v", d)
	}
}

func TestGateHangoverAndTurnEnd(t *testing.T) {
	v, err := LoadVAD(VADConfig{Threshold: 0.05, HangoverFrames: 2})
	if err != nil {
		t.Fatalf("LoadVAD() error = %v", err)
	}
	gate := v.NewGate()
	gate.Process(pcmFrame(8000, 160))

	// Two quiet frames ride the hangover; the third closes the turn.
	for i := 0; i < 2; i++ {
		d := gate.Process(pcmFrame(0, 160))
		if !d.Speech || d.TurnEnded {
			t.Fatalf("hangover frame %d: %+v", i, d)
		}
	}
	d := gate.Process(pcmFrame(0, 160))
	if d.Speech || !d.TurnEnded {
		t.Fatalf("gate should close with TurnEnded after hangover: %+v", d)
	}
	if gate.Open() {
		t.Fatalf("gate should be closed")
	}

	// Speech within the next utterance re-opens cleanly.
	if d := gate.Process(pcmFrame(8000, 160)); !d.Speech || d.TurnEnded {
		t.Fatalf("re-open decision: %+v", d)
	}
}
