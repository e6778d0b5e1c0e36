package audio

import (
	"encoding/base64"
	"encoding/binary"
	"math"
	"testing"
)

func TestDecodePCM16Base64(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	got, err := DecodePCM16Base64(base64.StdEncoding.EncodeToString(pcm))
	if err != nil {
		t.Fatalf("DecodePCM16Base64() error = %v", err)
	}
	if len(got) != len(pcm) {
		t.Fatalf("decoded %d bytes, want %d", len(got), len(pcm))
	}

	if _, err := DecodePCM16Base64("!!!"); err == nil {
		t.Fatalf("invalid base64 should fail")
	}
	if _, err := DecodePCM16Base64(base64.StdEncoding.EncodeToString([]byte{0x01})); err == nil {
		t.Fatalf("odd-length payload should fail")
	}
}

func TestRMSPCM16LE(t *testing.T) {
	if rms := RMSPCM16LE(nil); rms != 0 {
		t.Fatalf("RMS of empty frame = %v, want 0", rms)
	}

	silence := make([]byte, 320)
	if rms := RMSPCM16LE(silence); rms != 0 {
		t.Fatalf("RMS of silence = %v, want 0", rms)
	}

	// A constant full-ish amplitude frame should land near its level.
	loud := make([]byte, 320)
	for i := 0; i < len(loud); i += 2 {
		binary.LittleEndian.PutUint16(loud[i:], uint16(int16(16384)))
	}
	rms := RMSPCM16LE(loud)
	if math.Abs(rms-0.5) > 0.01 {
		t.Fatalf("RMS of half-scale frame = %v, want ~0.5", rms)
	}
}

func TestEncodeWAVPCM16LEHeader(t *testing.T) {
	pcm := make([]byte, 320)
	wav, err := EncodeWAVPCM16LE(pcm, 16000)
	if err != nil {
		t.Fatalf("EncodeWAVPCM16LE() error = %v", err)
	}
	if len(wav) != 44+len(pcm) {
		t.Fatalf("wav length = %d, want %d", len(wav), 44+len(pcm))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Fatalf("wav header chunks malformed: %q %q %q", wav[0:4], wav[8:12], wav[36:40])
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != 16000 {
		t.Fatalf("sample rate = %d, want 16000", rate)
	}
	if size := binary.LittleEndian.Uint32(wav[40:44]); size != uint32(len(pcm)) {
		t.Fatalf("data size = %d, want %d", size, len(pcm))
	}
}
