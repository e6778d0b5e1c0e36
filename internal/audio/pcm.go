// Package audio holds the small PCM helpers used by the voice pipeline.
package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// DecodePCM16Base64 decodes a base64 chunk of PCM16LE mono audio,
// rejecting odd-length payloads.
func DecodePCM16Base64(encoded string) ([]byte, error) {
	pcm, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode pcm chunk: %w", err)
	}
	if len(pcm)%2 != 0 {
		return nil, fmt.Errorf("pcm chunk has odd length %d", len(pcm))
	}
	return pcm, nil
}

// RMSPCM16LE computes the root-mean-square level of a PCM16LE frame,
// normalized to 0..1 of int16 full scale. Empty or odd-length frames
// report zero.
func RMSPCM16LE(pcm []byte) float64 {
	if len(pcm) < 2 {
		return 0
	}
	samples := len(pcm) / 2
	var sum float64
	for i := 0; i < samples; i++ {
		v := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		f := float64(v) / 32768.0
		sum += f * f
	}
	return math.Sqrt(sum / float64(samples))
}
