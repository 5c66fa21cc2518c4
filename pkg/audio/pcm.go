package audio

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/harunnryd/voxnote/pkg/errorsx"
)

// ConvertToPCMBase64 converts a recording into base64-encoded 16-bit
// little-endian mono PCM at TargetSampleRate, the wire format the realtime
// transcription services accept.
func ConvertToPCMBase64(a EncodedAudio) (string, error) {
	pcm, err := ConvertToPCM(a)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(pcm), nil
}

// ConvertToPCM decodes the container, resamples channel 0 to
// TargetSampleRate when needed and packs truncated 16-bit samples
// little-endian. Quantization truncates rather than rounds, matching the
// historical pipeline output.
func ConvertToPCM(a EncodedAudio) ([]byte, error) {
	samples, rate, err := DecodeFloats(a)
	if err != nil {
		return nil, err
	}
	if rate != TargetSampleRate {
		samples = Resample(samples, rate, TargetSampleRate)
	}
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(s*32768)))
	}
	return out, nil
}

// DecodeFloats decodes a recording into normalized channel-0 float samples
// at the container's native sample rate.
func DecodeFloats(a EncodedAudio) ([]float64, int, error) {
	if a.Empty() {
		return nil, 0, errorsx.Wrap(errors.New("empty audio"), errorsx.ReasonAudioDecode)
	}
	switch baseMIME(a.MIME) {
	case MIMEWAV, "audio/x-wav", "audio/wave":
		return decodeWAV(a.Data)
	case MIMEPCM:
		rate := PCMRate(a.MIME)
		if rate == 0 {
			return nil, 0, errorsx.Wrap(fmt.Errorf("pcm audio missing rate parameter: %q", a.MIME), errorsx.ReasonAudioDecode)
		}
		return decodeRawPCM(a.Data), rate, nil
	default:
		return nil, 0, errorsx.Wrap(fmt.Errorf("unsupported container: %q", a.MIME), errorsx.ReasonAudioDecode)
	}
}

// decodeRawPCM interprets bytes as 16-bit little-endian mono samples.
// A trailing odd byte is dropped.
func decodeRawPCM(data []byte) []float64 {
	out := make([]float64, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		s := int16(binary.LittleEndian.Uint16(data[i:]))
		out = append(out, float64(s)/32768.0)
	}
	return out
}

// Resample converts samples from one rate to another by linear
// interpolation over the full duration: ceil(duration*to) output samples.
func Resample(in []float64, from, to int) []float64 {
	if len(in) == 0 || from <= 0 || to <= 0 || from == to {
		return in
	}
	duration := float64(len(in)) / float64(from)
	outLen := int(math.Ceil(duration * float64(to)))
	out := make([]float64, outLen)
	step := float64(from) / float64(to)
	for i := range out {
		pos := float64(i) * step
		i0 := int(pos)
		if i0 >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := pos - float64(i0)
		out[i] = in[i0]*(1-frac) + in[i0+1]*frac
	}
	return out
}
