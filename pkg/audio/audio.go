package audio

import (
	"mime"
	"strconv"
	"strings"
)

// Container MIME types handled by this package.
const (
	MIMEWebM = "audio/webm"
	MIMEOgg  = "audio/ogg"
	MIMEWAV  = "audio/wav"
	MIMEPCM  = "audio/pcm"
)

// DefaultMIME is assumed when a capture source reports no container type.
const DefaultMIME = MIMEWebM

// TargetSampleRate is the rate expected by the transcription services.
const TargetSampleRate = 16000

// EncodedAudio is one finalized recording: opaque container bytes plus the
// container MIME type (optionally carrying a codec or rate parameter).
// Immutable after creation.
type EncodedAudio struct {
	Data []byte
	MIME string
}

// Empty reports whether the recording holds no audio bytes.
func (a EncodedAudio) Empty() bool {
	return len(a.Data) == 0
}

// FileName returns the upload file name matching the container type.
func (a EncodedAudio) FileName() string {
	switch {
	case strings.Contains(a.MIME, "ogg"):
		return "recording.ogg"
	case strings.Contains(a.MIME, "wav"):
		return "recording.wav"
	default:
		return "recording.webm"
	}
}

// baseMIME strips parameters such as ";codecs=opus" or ";rate=44100".
func baseMIME(m string) string {
	parsed, _, err := mime.ParseMediaType(m)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(m))
	}
	return parsed
}

// PCMRate extracts the rate parameter from an audio/pcm MIME type.
// Returns 0 for other containers or when the rate is absent or malformed.
func PCMRate(m string) int {
	parsed, params, err := mime.ParseMediaType(m)
	if err != nil || parsed != MIMEPCM {
		return 0
	}
	rate, err := strconv.Atoi(params["rate"])
	if err != nil || rate <= 0 {
		return 0
	}
	return rate
}

// PCMMIME builds the MIME type for raw 16-bit mono PCM at the given rate.
func PCMMIME(rate int) string {
	return MIMEPCM + ";rate=" + strconv.Itoa(rate)
}
