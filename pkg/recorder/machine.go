package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harunnryd/voxnote/pkg/adapters/transcriber"
	"github.com/harunnryd/voxnote/pkg/audio"
	"github.com/harunnryd/voxnote/pkg/capture"
	"github.com/harunnryd/voxnote/pkg/errorsx"
	"github.com/harunnryd/voxnote/pkg/logging"
	"github.com/harunnryd/voxnote/pkg/metrics"
	"github.com/harunnryd/voxnote/pkg/redact"
	"github.com/harunnryd/voxnote/pkg/webhook"
)

// Submitter posts a finished note somewhere. Satisfied by webhook.Client.
type Submitter interface {
	Submit(ctx context.Context, endpoint string, s webhook.Submission) error
}

// Config wires the machine's collaborators.
type Config struct {
	// NewSource opens a fresh capture source per recording.
	NewSource func() (capture.Source, error)

	// Transcriber is nil in audio-only mode.
	Transcriber transcriber.Transcriber

	Submitter  Submitter
	WebhookURL string

	Observer metrics.Observer
	Logger   *slog.Logger

	// TickInterval drives the elapsed-seconds counter. Defaults to one
	// second; tests shorten it.
	TickInterval time.Duration
}

// Note is the metadata attached to a submission.
type Note struct {
	Name        string
	ClientName  string
	CompanyName string
}

// Machine drives one voice note at a time through capture, transcription
// and submission. It owns at most one capture handle and at most one
// transcription session.
type Machine struct {
	mu        sync.Mutex
	cfg       Config
	status    Status
	listeners []StatusListener

	recordingID uuid.UUID
	rec         *capture.Recorder
	captured    audio.EncodedAudio
	transcript  string
	errMessage  string
	recordedAt  time.Time
	elapsed     int
	submitting  bool
	submitted   bool
	tickerStop  chan struct{}
}

// NewMachine creates an idle machine.
func NewMachine(cfg Config) *Machine {
	if cfg.Observer == nil {
		cfg.Observer = metrics.NoopObserver{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewComponentLogger(slog.Default(), "recorder")
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	return &Machine{cfg: cfg, status: StatusIdle}
}

// AddListener registers a listener for status change events.
func (m *Machine) AddListener(l StatusListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Status returns the current status.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Transcript returns the raw transcript of the last completed recording.
func (m *Machine) Transcript() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transcript
}

// Audio returns the captured recording, empty until Stop succeeds.
func (m *Machine) Audio() audio.EncodedAudio {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.captured
}

// Elapsed returns whole seconds since recording started.
func (m *Machine) Elapsed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.elapsed
}

// ErrMessage returns the failure message when the machine is in ERROR.
func (m *Machine) ErrMessage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errMessage
}

// RecordingID identifies the current (or last) recording.
func (m *Machine) RecordingID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recordingID.String()
}

// Start opens the capture source and begins accumulating audio. A source
// failure (device missing, permission denied) lands the machine in ERROR.
func (m *Machine) Start(ctx context.Context) error {
	m.mu.Lock()
	ev, err := m.transitionLocked(StatusRecording, "record requested")
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.recordingID = uuid.New()
	m.recordedAt = time.Now()
	m.elapsed = 0
	m.transcript = ""
	m.errMessage = ""
	m.captured = audio.EncodedAudio{}
	m.submitted = false
	id := m.recordingID
	m.mu.Unlock()
	m.notify(ev)

	src, err := m.cfg.NewSource()
	var rec *capture.Recorder
	if err == nil {
		rec = capture.NewRecorder(src, m.cfg.Logger)
		err = rec.Start(ctx)
	}
	if err != nil {
		if rec != nil {
			_, _ = rec.Stop()
		}
		wrapped := errorsx.Wrap(err, errorsx.ReasonMicPermission)
		m.toError("microphone unavailable: " + err.Error())
		return wrapped
	}

	stop := make(chan struct{})
	m.mu.Lock()
	if m.status != StatusRecording {
		m.mu.Unlock()
		_, _ = rec.Stop()
		return errorsx.New("recording cancelled before capture started", errorsx.ReasonCaptureDevice)
	}
	m.rec = rec
	m.tickerStop = stop
	m.mu.Unlock()
	go m.tickLoop(stop)

	m.cfg.Logger.Info("recording_started",
		slog.String("recording_id", id.String()))
	m.cfg.Observer.RecordEvent(metrics.SessionEvent(metrics.EventCaptureStarted, id.String(), 0))
	return nil
}

// Stop finalizes the capture and, when a transcriber is configured, runs
// the transcription synchronously before settling in SUCCESS or ERROR.
// Audio-only mode settles in SUCCESS with an empty transcript.
func (m *Machine) Stop(ctx context.Context) error {
	m.mu.Lock()
	ev, err := m.transitionLocked(StatusTranscribing, "stop requested")
	if err != nil {
		m.mu.Unlock()
		return err
	}
	rec := m.rec
	m.rec = nil
	if m.tickerStop != nil {
		close(m.tickerStop)
		m.tickerStop = nil
	}
	id := m.recordingID.String()
	seconds := m.elapsed
	m.mu.Unlock()
	m.notify(ev)

	// Stop can race a Start that is still opening the device; there is no
	// capture handle to finalize yet.
	if rec == nil {
		err := errorsx.New("capture was still starting", errorsx.ReasonCaptureDevice)
		m.toError(err.Error())
		return err
	}

	a, err := rec.Stop()
	if err != nil {
		m.toError("capture failed: " + err.Error())
		return err
	}
	if a.Empty() {
		err := errorsx.New("recording produced no audio", errorsx.ReasonCaptureDevice)
		m.toError(err.Error())
		return err
	}

	m.mu.Lock()
	m.captured = a
	m.mu.Unlock()
	m.cfg.Observer.RecordEvent(metrics.SessionEvent(metrics.EventCaptureStopped, id, float64(seconds)))
	m.cfg.Logger.Info("recording_stopped",
		slog.String("recording_id", id),
		slog.Int("seconds", seconds),
		slog.Int("bytes", len(a.Data)),
		slog.String("mime", a.MIME))

	if m.cfg.Transcriber == nil {
		m.toSuccess("")
		return nil
	}

	start := time.Now()
	text, err := m.cfg.Transcriber.Transcribe(ctx, a)
	latency := time.Since(start)
	if err != nil {
		m.cfg.Observer.RecordEvent(metrics.SessionEvent(metrics.EventTranscribeFailed, id, latency.Seconds()))
		m.toError("transcription failed: " + err.Error())
		return err
	}
	m.cfg.Observer.RecordEvent(metrics.SessionEvent(metrics.EventTranscribeDone, id, latency.Seconds()))
	m.cfg.Logger.Info("transcription_completed",
		slog.String("recording_id", id),
		slog.Duration("latency", latency),
		slog.String("transcript", redact.Text(text)))
	m.toSuccess(text)
	return nil
}

// Submit posts the captured audio and transcript to the webhook. Valid
// from SUCCESS, and from ERROR when the failure happened after capture
// completed. One submission per recording; concurrent calls are rejected
// while one is in flight.
func (m *Machine) Submit(ctx context.Context, note Note) error {
	m.mu.Lock()
	if m.status != StatusSuccess && m.status != StatusError {
		st := m.status
		m.mu.Unlock()
		return errorsx.New("cannot submit while "+st.String(), errorsx.ReasonWebhookSubmit)
	}
	if m.captured.Empty() {
		m.mu.Unlock()
		return errorsx.New("no captured audio to submit", errorsx.ReasonWebhookSubmit)
	}
	if m.submitting {
		m.mu.Unlock()
		return errorsx.New("submission already in flight", errorsx.ReasonWebhookSubmit)
	}
	if m.submitted {
		m.mu.Unlock()
		return errorsx.New("recording already submitted", errorsx.ReasonWebhookSubmit)
	}
	m.submitting = true
	sub := webhook.Submission{
		Audio:       m.captured,
		Name:        note.Name,
		ClientName:  note.ClientName,
		CompanyName: note.CompanyName,
		RecordedAt:  m.recordedAt,
		Transcript:  m.transcript,
	}
	id := m.recordingID.String()
	m.mu.Unlock()

	err := m.cfg.Submitter.Submit(ctx, m.cfg.WebhookURL, sub)

	m.mu.Lock()
	m.submitting = false
	if err == nil {
		m.submitted = true
	}
	m.mu.Unlock()

	if err != nil {
		m.cfg.Observer.RecordEvent(metrics.SessionEvent(metrics.EventSubmissionFailed, id, 0))
		return err
	}
	m.cfg.Observer.RecordEvent(metrics.SessionEvent(metrics.EventSubmissionDone, id, 0))
	return nil
}

// Reset returns the machine to IDLE from either terminal status, clearing
// the note state.
func (m *Machine) Reset() error {
	m.mu.Lock()
	ev, err := m.transitionLocked(StatusIdle, "reset")
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.captured = audio.EncodedAudio{}
	m.transcript = ""
	m.errMessage = ""
	m.elapsed = 0
	m.submitted = false
	m.mu.Unlock()
	m.notify(ev)
	return nil
}

func (m *Machine) tickLoop(stop chan struct{}) {
	ticker := time.NewTicker(m.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.mu.Lock()
			if m.status == StatusRecording {
				m.elapsed++
			}
			m.mu.Unlock()
		}
	}
}

// transitionLocked validates and applies a status change. Caller holds the
// lock and delivers the returned event via notify after unlocking.
func (m *Machine) transitionLocked(to Status, reason string) (StatusChange, error) {
	if !transitionValid(m.status, to) {
		return StatusChange{}, &InvalidTransitionError{From: m.status, To: to}
	}
	ev := StatusChange{
		FromStatus: m.status,
		ToStatus:   to,
		Timestamp:  time.Now(),
		Reason:     reason,
	}
	m.status = to
	return ev, nil
}

func (m *Machine) notify(ev StatusChange) {
	m.mu.Lock()
	listeners := make([]StatusListener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()
	for _, l := range listeners {
		l.OnStatusChange(ev)
	}
}

func (m *Machine) toError(message string) {
	m.mu.Lock()
	ev, err := m.transitionLocked(StatusError, message)
	if err == nil {
		m.errMessage = message
	}
	m.mu.Unlock()
	if err == nil {
		m.notify(ev)
		m.cfg.Logger.Error("recording_failed",
			slog.String("recording_id", m.RecordingID()),
			slog.String("message", message))
	}
}

func (m *Machine) toSuccess(transcript string) {
	m.mu.Lock()
	ev, err := m.transitionLocked(StatusSuccess, "recording complete")
	if err == nil {
		m.transcript = transcript
	}
	m.mu.Unlock()
	if err == nil {
		m.notify(ev)
	}
}
