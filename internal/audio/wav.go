package audio

import (
	"bytes"
	"encoding/binary"
	"io"
)

type wavHeader struct {
	RIFF     [4]byte
	RIFFSize uint32
	WAVE     [4]byte
	Fmt      [4]byte
	FmtSize  uint32
	Format   uint16
	Channels uint16
	Rate     uint32
	ByteRate uint32
	Align    uint16
	Bits     uint16
	Data     [4]byte
	DataSize uint32
}

// EncodeWAVPCM16LE wraps raw PCM16LE mono audio in a WAV container,
// used for debug captures of session audio.
func EncodeWAVPCM16LE(pcm []byte, sampleRate int) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteWAVPCM16LETo(&buf, pcm, sampleRate); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteWAVPCM16LETo writes raw PCM16LE mono audio to out as a WAV stream.
func WriteWAVPCM16LETo(out io.Writer, pcm []byte, sampleRate int) error {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	const channels, bits = 1, 16

	h := wavHeader{
		RIFF:     [4]byte{'R', 'I', 'F', 'F'},
		RIFFSize: uint32(36 + len(pcm)),
		WAVE:     [4]byte{'W', 'A', 'V', 'E'},
		Fmt:      [4]byte{'f', 'm', 't', ' '},
		FmtSize:  16,
		Format:   1, // PCM
		Channels: channels,
		Rate:     uint32(sampleRate),
		ByteRate: uint32(sampleRate * channels * bits / 8),
		Align:    channels * bits / 8,
		Bits:     bits,
		Data:     [4]byte{'d', 'a', 't', 'a'},
		DataSize: uint32(len(pcm)),
	}
	if err := binary.Write(out, binary.LittleEndian, h); err != nil {
		return err
	}
	_, err := out.Write(pcm)
	return err
}
