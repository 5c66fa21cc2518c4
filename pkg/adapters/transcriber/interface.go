package transcriber

import (
	"context"

	"github.com/harunnryd/voxnote/pkg/audio"
)

// Transcriber defines the contract for any speech-to-text vendor
// implementation. One call covers one finalized recording; the
// implementation owns its session lifecycle and resolves exactly once.
type Transcriber interface {
	// Name returns adapter name for logging/metrics.
	Name() string
	// Transcribe converts the recording and returns the full transcript.
	// A timed-out session that accumulated partial text returns that text
	// with a nil error.
	Transcribe(ctx context.Context, a audio.EncodedAudio) (string, error)
}

// Config contains vendor-agnostic transcription configuration.
type Config struct {
	RecordingID string
	Language    string
	TimeoutMS   int
}
