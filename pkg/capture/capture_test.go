package capture

import (
	"context"
	"sync"
	"testing"

	"github.com/harunnryd/voxnote/pkg/audio"
	"github.com/harunnryd/voxnote/pkg/errorsx"
)

// fakeSource replays queued chunks and counts device releases.
type fakeSource struct {
	queued   []Chunk
	startErr error

	mu       sync.Mutex
	out      chan Chunk
	closes   int
	started  bool
	consumed bool
}

func newFakeSource(chunks ...Chunk) *fakeSource {
	return &fakeSource{queued: chunks, out: make(chan Chunk, len(chunks)+1)}
}

func (f *fakeSource) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.mu.Lock()
	f.started = true
	f.mu.Unlock()
	for _, c := range f.queued {
		f.out <- c
	}
	return nil
}

func (f *fakeSource) Chunks() <-chan Chunk { return f.out }

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	if !f.consumed {
		f.consumed = true
		close(f.out)
	}
	return nil
}

func (f *fakeSource) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

func TestStopConcatenatesChunksInOrder(t *testing.T) {
	src := newFakeSource(
		Chunk{Data: []byte("abc"), MIME: "audio/webm;codecs=opus"},
		Chunk{Data: nil},
		Chunk{Data: []byte("defg"), MIME: audio.MIMEOgg},
	)
	rec := NewRecorder(src, nil)
	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	enc, err := rec.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if string(enc.Data) != "abcdefg" {
		t.Fatalf("expected concatenation, got %q", enc.Data)
	}
	if len(enc.Data) != 3+4 {
		t.Fatalf("byte length must equal sum of chunk lengths, got %d", len(enc.Data))
	}
	if enc.MIME != "audio/webm;codecs=opus" {
		t.Fatalf("expected first non-empty chunk mime, got %q", enc.MIME)
	}
	if src.closeCount() != 1 {
		t.Fatalf("expected exactly one device release, got %d", src.closeCount())
	}
}

func TestStopReleasesDeviceExactlyOnce(t *testing.T) {
	src := newFakeSource(Chunk{Data: []byte("x"), MIME: audio.MIMEWebM})
	rec := NewRecorder(src, nil)
	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := rec.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if _, err := rec.Stop(); err != nil {
		t.Fatalf("second stop: %v", err)
	}
	if src.closeCount() != 1 {
		t.Fatalf("expected exactly one device release, got %d", src.closeCount())
	}
}

func TestStopWithZeroChunksStillReleases(t *testing.T) {
	src := newFakeSource()
	rec := NewRecorder(src, nil)
	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	enc, err := rec.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !enc.Empty() {
		t.Fatalf("expected empty recording, got %d bytes", len(enc.Data))
	}
	if enc.MIME != audio.DefaultMIME {
		t.Fatalf("expected default container, got %q", enc.MIME)
	}
	if src.closeCount() != 1 {
		t.Fatalf("expected exactly one device release, got %d", src.closeCount())
	}
}

func TestStartFailureIsPermissionError(t *testing.T) {
	src := newFakeSource()
	src.startErr = context.DeadlineExceeded
	rec := NewRecorder(src, nil)
	err := rec.Start(context.Background())
	if !errorsx.HasReason(err, errorsx.ReasonMicPermission) {
		t.Fatalf("expected mic_permission reason, got %v", err)
	}
}

func TestRawPCMFinalizedAsWAV(t *testing.T) {
	// Two chunks of 16-bit silence at 16 kHz.
	raw := make([]byte, 64)
	src := newFakeSource(
		Chunk{Data: raw, MIME: audio.PCMMIME(16000)},
		Chunk{Data: raw, MIME: audio.PCMMIME(16000)},
	)
	rec := NewRecorder(src, nil)
	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	enc, err := rec.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if enc.MIME != audio.MIMEWAV {
		t.Fatalf("expected wav container, got %q", enc.MIME)
	}
	samples, rate, err := audio.DecodeFloats(enc)
	if err != nil {
		t.Fatalf("decode finalized wav: %v", err)
	}
	if rate != 16000 {
		t.Fatalf("expected 16000 Hz, got %d", rate)
	}
	if len(samples) != 64 {
		t.Fatalf("expected 64 samples, got %d", len(samples))
	}
}
