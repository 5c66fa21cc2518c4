package mock

import (
	"context"
	"sync"
	"time"

	"github.com/harunnryd/voxnote/pkg/adapters/transcriber"
	"github.com/harunnryd/voxnote/pkg/audio"
)

// Config for the mock transcriber.
type Config struct {
	Transcript string
	Err        error
	Delay      time.Duration
}

// Transcriber returns a canned transcript (or error) after an optional
// delay. Used by tests and by offline deployments.
type Transcriber struct {
	cfg Config

	mu    sync.Mutex
	calls []audio.EncodedAudio
}

// New creates a mock transcriber.
func New(cfg Config) *Transcriber {
	if cfg.Transcript == "" && cfg.Err == nil {
		cfg.Transcript = "mock transcript"
	}
	return &Transcriber{cfg: cfg}
}

func (t *Transcriber) Name() string { return "mock_transcriber" }

func (t *Transcriber) Transcribe(ctx context.Context, a audio.EncodedAudio) (string, error) {
	t.mu.Lock()
	t.calls = append(t.calls, a)
	t.mu.Unlock()

	if t.cfg.Delay > 0 {
		select {
		case <-time.After(t.cfg.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if t.cfg.Err != nil {
		return "", t.cfg.Err
	}
	return t.cfg.Transcript, nil
}

// Calls returns the recordings passed to Transcribe.
func (t *Transcriber) Calls() []audio.EncodedAudio {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]audio.EncodedAudio, len(t.calls))
	copy(out, t.calls)
	return out
}

var _ transcriber.Transcriber = (*Transcriber)(nil)
