package audio

import (
	"encoding/base64"
	"encoding/binary"
	"math"
	"testing"

	"github.com/harunnryd/voxnote/pkg/errorsx"
)

func wavAudio(t *testing.T, samples []int16, rate int) EncodedAudio {
	t.Helper()
	data, err := EncodeWAV(samples, rate)
	if err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	return EncodedAudio{Data: data, MIME: MIMEWAV}
}

func decodeBase64PCM(t *testing.T, b64 string) []int16 {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		t.Fatalf("base64 decode: %v", err)
	}
	out := make([]int16, len(raw)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return out
}

func TestConvertRoundTripAtTargetRate(t *testing.T) {
	in := []int16{0, 8192, -8192, 16384, -32768, 32767}
	got, err := ConvertToPCMBase64(wavAudio(t, in, TargetSampleRate))
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	out := decodeBase64PCM(t, got)
	if len(out) != len(in) {
		t.Fatalf("expected %d samples, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, in[i], out[i])
		}
	}
}

func TestConvertDeterministic(t *testing.T) {
	in := make([]int16, 320)
	for i := range in {
		in[i] = int16(i * 37 % 4096)
	}
	a := wavAudio(t, in, TargetSampleRate)
	first, err := ConvertToPCMBase64(a)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	second, err := ConvertToPCMBase64(a)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if first != second {
		t.Fatalf("conversion not deterministic")
	}
}

func TestConvertResamplesToTargetRate(t *testing.T) {
	// 8000 Hz constant signal, half a second.
	in := make([]int16, 4000)
	for i := range in {
		in[i] = 8192
	}
	got, err := ConvertToPCMBase64(wavAudio(t, in, 8000))
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	out := decodeBase64PCM(t, got)
	wantLen := int(math.Ceil(float64(len(in)) / 8000.0 * float64(TargetSampleRate)))
	if len(out) != wantLen {
		t.Fatalf("expected %d resampled samples, got %d", wantLen, len(out))
	}
	for i, s := range out {
		if s < 8191 || s > 8192 {
			t.Fatalf("sample %d drifted: %d", i, s)
		}
	}
}

func TestConvertRawPCMPassThrough(t *testing.T) {
	in := []int16{100, -100, 2000, -2000}
	raw := make([]byte, len(in)*2)
	for i, s := range in {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(s))
	}
	got, err := ConvertToPCMBase64(EncodedAudio{Data: raw, MIME: PCMMIME(TargetSampleRate)})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	out := decodeBase64PCM(t, got)
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, in[i], out[i])
		}
	}
}

func TestConvertUnsupportedContainer(t *testing.T) {
	_, err := ConvertToPCMBase64(EncodedAudio{Data: []byte{1, 2, 3}, MIME: "audio/webm;codecs=opus"})
	if !errorsx.HasReason(err, errorsx.ReasonAudioDecode) {
		t.Fatalf("expected audio_decode reason, got %v", err)
	}
}

func TestConvertCorruptWAV(t *testing.T) {
	_, err := ConvertToPCMBase64(EncodedAudio{Data: []byte("RIFFgarbage"), MIME: MIMEWAV})
	if !errorsx.HasReason(err, errorsx.ReasonAudioDecode) {
		t.Fatalf("expected audio_decode reason, got %v", err)
	}
}

func TestConvertEmptyAudio(t *testing.T) {
	_, err := ConvertToPCMBase64(EncodedAudio{MIME: MIMEWAV})
	if !errorsx.HasReason(err, errorsx.ReasonAudioDecode) {
		t.Fatalf("expected audio_decode reason, got %v", err)
	}
}

func TestResampleLength(t *testing.T) {
	in := make([]float64, 441)
	out := Resample(in, 44100, 16000)
	want := int(math.Ceil(441.0 / 44100.0 * 16000.0))
	if len(out) != want {
		t.Fatalf("expected %d samples, got %d", want, len(out))
	}
}
