package gemini

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/harunnryd/voxnote/pkg/adapters/transcriber"
	"github.com/harunnryd/voxnote/pkg/audio"
	"github.com/harunnryd/voxnote/pkg/errorsx"
	"github.com/harunnryd/voxnote/pkg/logging"
)

const defaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

const defaultModel = "gemini-2.5-flash-native-audio-preview-09-2025"

// Config for the Gemini Live transcriber.
type Config struct {
	APIKey      string
	Model       string
	Endpoint    string
	Timeout     time.Duration
	RecordingID string
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Endpoint == "" {
		c.Endpoint = defaultEndpoint
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

// liveConn is the slice of a websocket connection the session needs.
type liveConn interface {
	WriteJSON(v any) error
	ReadJSON(v any) error
	Close() error
}

type dialFunc func(ctx context.Context, url string) (liveConn, error)

// Transcriber streams one recording through a Gemini Live session and
// returns the input transcription.
type Transcriber struct {
	cfg    Config
	logger *slog.Logger
	dial   dialFunc
}

// New creates a Gemini Live transcriber.
func New(cfg Config) *Transcriber {
	baseLogger := slog.Default()
	return &Transcriber{
		cfg:    cfg.withDefaults(),
		logger: logging.NewComponentLogger(baseLogger, "gemini_live"),
		dial:   dialWebsocket,
	}
}

func dialWebsocket(ctx context.Context, url string) (liveConn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (t *Transcriber) Name() string { return "gemini_live" }

// Transcribe opens a live session, streams the converted PCM as a single
// realtime input frame and resolves under the race between turn-complete,
// server error and the session timeout. The timeout is armed when the
// session open is requested, not at first byte.
func (t *Transcriber) Transcribe(ctx context.Context, a audio.EncodedAudio) (string, error) {
	if strings.TrimSpace(t.cfg.APIKey) == "" {
		return "", errorsx.New("api key not configured", errorsx.ReasonCredential)
	}

	res := transcriber.NewResolver()
	timer := time.AfterFunc(t.cfg.Timeout, res.Expire)

	conn, err := t.dial(ctx, t.cfg.Endpoint+"?key="+t.cfg.APIKey)
	if err != nil {
		timer.Stop()
		t.logger.Error("live_connect_failed",
			slog.String("recording_id", t.cfg.RecordingID),
			slog.String("error", err.Error()))
		return "", errorsx.Wrap(err, errorsx.ReasonTranscribeConnect)
	}
	res.SetTeardown(func() {
		timer.Stop()
		_ = conn.Close()
	})

	t.logger.Info("live_session_opened",
		slog.String("recording_id", t.cfg.RecordingID),
		slog.String("model", t.cfg.Model))

	if err := conn.WriteJSON(newSetupMessage(t.cfg.Model)); err != nil {
		res.Fail(errorsx.Wrap(err, errorsx.ReasonTranscribeService))
		out := res.Wait()
		return out.Text, out.Err
	}

	go t.readLoop(conn, res)

	if err := t.sendAudio(conn, a); err != nil {
		res.Fail(err)
	} else {
		res.MarkStreaming()
	}

	out := res.Wait()
	if out.Err != nil {
		t.logger.Error("live_session_failed",
			slog.String("recording_id", t.cfg.RecordingID),
			slog.String("state", res.State().String()),
			slog.String("error", out.Err.Error()))
		return "", out.Err
	}
	t.logger.Info("live_session_completed",
		slog.String("recording_id", t.cfg.RecordingID),
		slog.Int("transcript_chars", len(out.Text)))
	return out.Text, nil
}

// sendAudio converts the recording and ships it as one realtime frame.
// Conversion errors propagate unchanged so decode failures keep their
// reason code.
func (t *Transcriber) sendAudio(conn liveConn, a audio.EncodedAudio) error {
	b64, err := audio.ConvertToPCMBase64(a)
	if err != nil {
		return err
	}
	msg := realtimeInputMessage{}
	msg.RealtimeInput.MediaChunks = []mediaChunk{{
		Data:     b64,
		MimeType: audio.PCMMIME(audio.TargetSampleRate),
	}}
	if err := conn.WriteJSON(msg); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonTranscribeService)
	}
	return nil
}

// readLoop processes server messages in arrival order. Transcript
// fragments append; turn-complete resolves. A server-initiated close with
// no prior terminal event takes no action: the armed timeout stays the
// sole arbiter of the outcome.
func (t *Transcriber) readLoop(conn liveConn, res *transcriber.Resolver) {
	for {
		var msg serverMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if isExpectedClose(err) {
				return
			}
			res.Fail(errorsx.Wrap(err, errorsx.ReasonTranscribeService))
			return
		}
		if msg.ServerContent == nil {
			continue
		}
		if tr := msg.ServerContent.InputTranscription; tr != nil && tr.Text != "" {
			res.Append(tr.Text)
		}
		if msg.ServerContent.TurnComplete {
			res.Complete()
			return
		}
	}
}

func isExpectedClose(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}
