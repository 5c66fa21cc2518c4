package metrics

import "time"

// Event is one recording lifecycle measurement.
type Event struct {
	Name   string
	Time   time.Time
	Value  float64
	Tags   map[string]string
	Fields map[string]any
}

// Event names emitted across a recording session.
const (
	EventCaptureStarted   = "capture_started"
	EventCaptureStopped   = "capture_stopped"
	EventTranscribeDone   = "transcribe_completed"
	EventTranscribeFailed = "transcribe_failed"
	EventSubmissionDone   = "submission_completed"
	EventSubmissionFailed = "submission_failed"
)

type Observer interface {
	RecordEvent(ev Event)
}

type Flusher interface {
	Flush() error
}

type NoopObserver struct{}

func (NoopObserver) RecordEvent(Event) {}

// SessionEvent builds an event tagged with the recording it belongs to.
func SessionEvent(name, recordingID string, value float64) Event {
	return Event{
		Name:  name,
		Time:  time.Now(),
		Value: value,
		Tags:  map[string]string{"recording_id": recordingID},
	}
}
