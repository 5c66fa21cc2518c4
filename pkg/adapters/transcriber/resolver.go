package transcriber

import (
	"strings"
	"sync"

	"github.com/harunnryd/voxnote/pkg/errorsx"
)

// State tracks one live transcription exchange.
type State int

const (
	StateConnecting State = iota
	StateStreaming
	StateCompleted
	StateFailed
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateStreaming:
		return "STREAMING"
	case StateCompleted:
		return "COMPLETED"
	case StateFailed:
		return "FAILED"
	case StateTimedOut:
		return "TIMED_OUT"
	default:
		return "UNKNOWN"
	}
}

// Result is the single outcome of a session.
type Result struct {
	Text string
	Err  error
}

// Resolver accumulates transcript fragments and settles a session exactly
// once. Completion, failure and expiry race freely; the first terminal
// transition wins and later ones are no-ops. Teardown runs on every
// terminal transition, exactly once.
type Resolver struct {
	mu         sync.Mutex
	state      State
	transcript strings.Builder
	resolved   bool

	teardown     func()
	teardownOnce sync.Once

	done chan Result
}

// NewResolver creates a resolver in the Connecting state.
func NewResolver() *Resolver {
	return &Resolver{state: StateConnecting, done: make(chan Result, 1)}
}

// SetTeardown registers the cleanup (stop timer, close connection) that
// must run on the terminal transition. When the session already settled,
// for example a timeout firing while the dial was still in flight, the
// cleanup runs immediately so the connection and timer cannot leak.
func (r *Resolver) SetTeardown(fn func()) {
	r.mu.Lock()
	resolved := r.resolved
	if !resolved {
		r.teardown = fn
	}
	r.mu.Unlock()
	if resolved && fn != nil {
		r.teardownOnce.Do(fn)
	}
}

// MarkStreaming records that the session opened and audio is in flight.
func (r *Resolver) MarkStreaming() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.resolved {
		r.state = StateStreaming
	}
}

// State returns the current session state.
func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Append adds a transcript fragment in arrival order.
// Fragments arriving after resolution are dropped.
func (r *Resolver) Append(fragment string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolved || fragment == "" {
		return
	}
	r.transcript.WriteString(fragment)
}

// HasText reports whether any fragment has been accumulated.
func (r *Resolver) HasText() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transcript.Len() > 0
}

// Complete settles the session with the accumulated transcript, which may
// be empty when no fragments arrived before turn-complete.
func (r *Resolver) Complete() {
	r.settle(StateCompleted, nil)
}

// Fail settles the session with an error, discarding any partial text.
func (r *Resolver) Fail(err error) {
	r.settle(StateFailed, err)
}

// Expire applies the timeout policy: partial text resolves as a
// best-effort success, an empty transcript fails with a timeout error.
// The text check and the transition happen under one lock acquisition so
// a fragment racing the timer cannot be both counted and discarded.
func (r *Resolver) Expire() {
	r.mu.Lock()
	if r.resolved {
		r.mu.Unlock()
		return
	}
	if r.transcript.Len() > 0 {
		r.finishLocked(StateCompleted, nil)
		return
	}
	r.finishLocked(StateTimedOut, errorsx.New("transcription timed out", errorsx.ReasonTranscribeTimeout))
}

// Wait blocks until the first terminal transition and returns its outcome.
func (r *Resolver) Wait() Result {
	return <-r.done
}

func (r *Resolver) settle(to State, err error) {
	r.mu.Lock()
	if r.resolved {
		r.mu.Unlock()
		return
	}
	r.finishLocked(to, err)
}

// finishLocked applies the terminal transition. The caller holds the
// lock and must not have resolved yet; the lock is released before
// teardown and delivery.
func (r *Resolver) finishLocked(to State, err error) {
	r.resolved = true
	r.state = to
	res := Result{Err: err}
	if err == nil {
		res.Text = r.transcript.String()
	}
	teardown := r.teardown
	r.mu.Unlock()

	if teardown != nil {
		r.teardownOnce.Do(teardown)
	}
	r.done <- res
}
