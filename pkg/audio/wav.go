package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/harunnryd/voxnote/pkg/errorsx"
)

// wavHeader is the canonical 44-byte RIFF/WAVE header for PCM data.
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

// EncodeWAV wraps 16-bit mono samples into a WAV container.
func EncodeWAV(samples []int16, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	dataSize := uint32(len(samples) * 2)
	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   1,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * 2,
		BlockAlign:    2,
		BitsPerSample: 16,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(samples)*2))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("write wav header: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("write wav data: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeWAV decodes a WAV container into normalized float samples from
// channel 0 at the container's native rate.
func decodeWAV(data []byte) ([]float64, int, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return nil, 0, errorsx.Wrap(errors.New("not a valid wav file"), errorsx.ReasonAudioDecode)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, errorsx.Wrap(fmt.Errorf("read wav pcm: %w", err), errorsx.ReasonAudioDecode)
	}
	samples := channelZeroFloats(buf, int(dec.BitDepth))
	return samples, buf.Format.SampleRate, nil
}

// channelZeroFloats extracts channel 0 from an interleaved buffer and
// normalizes samples into [-1, 1] by the source bit depth.
func channelZeroFloats(buf *gaudio.IntBuffer, bitDepth int) []float64 {
	if buf == nil || len(buf.Data) == 0 {
		return nil
	}
	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	if bitDepth <= 0 {
		bitDepth = 16
	}
	div := float64(int64(1) << (bitDepth - 1))
	out := make([]float64, 0, len(buf.Data)/channels)
	for i := 0; i < len(buf.Data); i += channels {
		out = append(out, float64(buf.Data[i])/div)
	}
	return out
}
