package capture

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/harunnryd/voxnote/pkg/audio"
	"github.com/harunnryd/voxnote/pkg/errorsx"
	"github.com/harunnryd/voxnote/pkg/logging"
)

// Chunk is one encoded fragment delivered by a capture source.
type Chunk struct {
	Data []byte
	MIME string
}

// Source delivers a live stream of audio chunks from a device.
// Close releases the device and closes the Chunks channel; it must be safe
// to call more than once.
type Source interface {
	Start(ctx context.Context) error
	Chunks() <-chan Chunk
	Close() error
}

// Recorder owns one capture session: it buffers incoming chunks in arrival
// order and finalizes them into a single EncodedAudio on Stop. The
// underlying source is released exactly once per session, on Stop,
// regardless of how many chunks arrived.
type Recorder struct {
	src    Source
	logger *slog.Logger
	id     string

	mu     sync.Mutex
	chunks [][]byte
	mime   string

	started     bool
	drained     chan struct{}
	releaseOnce sync.Once
	releaseErr  error
}

// NewRecorder wraps a source into a capture session.
func NewRecorder(src Source, logger *slog.Logger) *Recorder {
	return &Recorder{
		src:    src,
		logger: logging.NewComponentLogger(logger, "capture"),
		id:     uuid.NewString(),
	}
}

// ID identifies the capture session in logs and metrics.
func (r *Recorder) ID() string { return r.id }

// Start opens the device and begins buffering chunks.
// A start failure is surfaced as a permission error.
func (r *Recorder) Start(ctx context.Context) error {
	if err := r.src.Start(ctx); err != nil {
		r.logger.Error("capture_start_failed",
			slog.String("recording_id", r.id),
			slog.String("error", err.Error()))
		return errorsx.Wrap(err, errorsx.ReasonMicPermission)
	}
	r.started = true
	r.drained = make(chan struct{})
	go r.drain()
	r.logger.Info("capture_started", slog.String("recording_id", r.id))
	return nil
}

// drain buffers non-empty chunks until the source channel closes.
// The container type is taken from the first non-empty chunk.
func (r *Recorder) drain() {
	defer close(r.drained)
	for c := range r.src.Chunks() {
		if len(c.Data) == 0 {
			continue
		}
		r.mu.Lock()
		if r.mime == "" && c.MIME != "" {
			r.mime = c.MIME
		}
		r.chunks = append(r.chunks, c.Data)
		r.mu.Unlock()
	}
}

// Stop releases the device, waits for buffered chunks to settle and
// concatenates them into one recording. Raw PCM capture is finalized into
// a WAV container so downstream consumers always see a playable file;
// pre-encoded chunks are concatenated byte for byte.
func (r *Recorder) Stop() (audio.EncodedAudio, error) {
	err := r.release()
	if r.started {
		<-r.drained
	}
	if err != nil {
		return audio.EncodedAudio{}, errorsx.Wrap(err, errorsx.ReasonCaptureDevice)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, c := range r.chunks {
		total += len(c)
	}
	data := make([]byte, 0, total)
	for _, c := range r.chunks {
		data = append(data, c...)
	}
	mime := r.mime
	if mime == "" {
		mime = audio.DefaultMIME
	}

	enc := audio.EncodedAudio{Data: data, MIME: mime}
	if rate := audio.PCMRate(mime); rate > 0 && len(data) > 0 {
		wrapped, werr := wrapPCM(data, rate)
		if werr != nil {
			return audio.EncodedAudio{}, werr
		}
		enc = wrapped
	}

	r.logger.Info("capture_stopped",
		slog.String("recording_id", r.id),
		slog.Int("chunks", len(r.chunks)),
		slog.Int("bytes", len(enc.Data)),
		slog.String("mime", enc.MIME))
	return enc, nil
}

// release closes the source exactly once.
func (r *Recorder) release() error {
	r.releaseOnce.Do(func() {
		r.releaseErr = r.src.Close()
	})
	return r.releaseErr
}
