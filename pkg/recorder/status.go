package recorder

import "time"

// Status is the lifecycle state of a single voice note.
type Status int

const (
	StatusIdle Status = iota
	StatusRecording
	StatusTranscribing
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "IDLE"
	case StatusRecording:
		return "RECORDING"
	case StatusTranscribing:
		return "TRANSCRIBING"
	case StatusSuccess:
		return "SUCCESS"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// StatusChange represents a status transition event.
type StatusChange struct {
	FromStatus Status
	ToStatus   Status
	Timestamp  time.Time
	Reason     string
}

// StatusListener observes recording status changes.
type StatusListener interface {
	OnStatusChange(event StatusChange)
}

// InvalidTransitionError represents an invalid status transition attempt.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return "invalid status transition from " + e.From.String() + " to " + e.To.String()
}

// validTransitions defines the allowed status graph. Error is reachable
// from any active status so a failure anywhere lands somewhere Reset can
// recover from.
var validTransitions = map[Status][]Status{
	StatusIdle:         {StatusRecording},
	StatusRecording:    {StatusTranscribing, StatusError},
	StatusTranscribing: {StatusSuccess, StatusError},
	StatusSuccess:      {StatusIdle},
	StatusError:        {StatusIdle},
}

func transitionValid(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
