package deepgram

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	msginterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket/interfaces"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	client "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/harunnryd/voxnote/pkg/adapters/transcriber"
	"github.com/harunnryd/voxnote/pkg/audio"
	"github.com/harunnryd/voxnote/pkg/errorsx"
	"github.com/harunnryd/voxnote/pkg/logging"
)

// Config for the Deepgram streaming transcriber.
type Config struct {
	APIKey      string
	Model       string
	Language    string
	Timeout     time.Duration
	RecordingID string
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = "nova-2"
	}
	if c.Language == "" {
		c.Language = "en"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

// Transcriber streams one recording through the Deepgram live API and
// collects final transcript segments until the utterance closes.
type Transcriber struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Deepgram transcriber.
func New(cfg Config) *Transcriber {
	baseLogger := slog.Default()
	return &Transcriber{
		cfg:    cfg.withDefaults(),
		logger: logging.NewComponentLogger(baseLogger, "deepgram_stt"),
	}
}

func (t *Transcriber) Name() string { return "deepgram_streaming" }

// Transcribe converts the recording to 16 kHz linear16 PCM, streams it and
// resolves on speech-final, utterance end, server error or the session
// timeout. The same timeout policy applies as for the default provider:
// partial text on expiry is a best-effort success.
func (t *Transcriber) Transcribe(ctx context.Context, a audio.EncodedAudio) (string, error) {
	if strings.TrimSpace(t.cfg.APIKey) == "" {
		return "", errorsx.New("api key not configured", errorsx.ReasonCredential)
	}

	pcm, err := audio.ConvertToPCM(a)
	if err != nil {
		return "", err
	}

	res := transcriber.NewResolver()
	timer := time.AfterFunc(t.cfg.Timeout, res.Expire)

	clientOptions := &interfaces.ClientOptions{
		EnableKeepAlive: true,
	}
	transcriptOptions := &interfaces.LiveTranscriptionOptions{
		Model:       t.cfg.Model,
		Language:    t.cfg.Language,
		Encoding:    "linear16",
		SampleRate:  audio.TargetSampleRate,
		SmartFormat: true,
	}

	cb := &callback{parent: t, res: res}
	dgClient, err := client.NewWSUsingCallback(ctx, t.cfg.APIKey, clientOptions, transcriptOptions, cb)
	if err != nil {
		timer.Stop()
		t.logger.Error("deepgram_client_create_error",
			slog.String("recording_id", t.cfg.RecordingID),
			slog.String("error", err.Error()))
		return "", errorsx.Wrap(err, errorsx.ReasonTranscribeConnect)
	}

	if connected := dgClient.Connect(); !connected {
		timer.Stop()
		t.logger.Error("deepgram_connect_failed",
			slog.String("recording_id", t.cfg.RecordingID))
		return "", errorsx.New("deepgram connection failed", errorsx.ReasonTranscribeConnect)
	}

	res.SetTeardown(func() {
		timer.Stop()
		dgClient.Stop()
	})

	t.logger.Info("deepgram_connected",
		slog.String("recording_id", t.cfg.RecordingID),
		slog.String("model", t.cfg.Model))

	pipeReader, pipeWriter := io.Pipe()
	go func() {
		if err := dgClient.Stream(pipeReader); err != nil {
			t.logger.Debug("deepgram_stream_ended",
				slog.String("recording_id", t.cfg.RecordingID),
				slog.String("error", err.Error()))
		}
	}()
	go func() {
		if _, err := pipeWriter.Write(pcm); err == nil {
			_ = pipeWriter.Close()
		} else {
			_ = pipeWriter.CloseWithError(err)
		}
	}()
	res.MarkStreaming()

	out := res.Wait()
	if out.Err != nil {
		return "", out.Err
	}
	return strings.TrimSpace(out.Text), nil
}

// --- Callback Implementation ---

type callback struct {
	parent     *Transcriber
	res        *transcriber.Resolver
	metaLogged bool
}

func (c *callback) Open(or *msginterfaces.OpenResponse) error {
	c.parent.logger.Info("deepgram_connection_opened",
		slog.String("recording_id", c.parent.cfg.RecordingID))
	return nil
}

func (c *callback) Message(mr *msginterfaces.MessageResponse) error {
	if len(mr.Channel.Alternatives) == 0 {
		return nil
	}
	text := mr.Channel.Alternatives[0].Transcript
	if text != "" && (mr.IsFinal || mr.SpeechFinal) {
		c.res.Append(text + " ")
		c.parent.logger.Debug("transcript_received",
			slog.String("recording_id", c.parent.cfg.RecordingID),
			slog.Int("chars", len(text)))
	}
	if mr.SpeechFinal {
		c.res.Complete()
	}
	return nil
}

func (c *callback) Metadata(md *msginterfaces.MetadataResponse) error {
	if !c.metaLogged {
		c.metaLogged = true
		c.parent.logger.Info("deepgram_metadata_received",
			slog.String("recording_id", c.parent.cfg.RecordingID),
			slog.String("request_id", md.RequestID))
	}
	return nil
}

func (c *callback) SpeechStarted(ssr *msginterfaces.SpeechStartedResponse) error {
	return nil
}

func (c *callback) UtteranceEnd(ur *msginterfaces.UtteranceEndResponse) error {
	// The utterance closed; whatever accumulated is the final transcript.
	c.res.Complete()
	return nil
}

func (c *callback) Close(cr *msginterfaces.CloseResponse) error {
	// Server-initiated close with no terminal event: the timeout stays the
	// arbiter of the outcome.
	c.parent.logger.Info("deepgram_connection_closed",
		slog.String("recording_id", c.parent.cfg.RecordingID))
	return nil
}

func (c *callback) Error(er *msginterfaces.ErrorResponse) error {
	c.parent.logger.Error("deepgram_error",
		slog.String("recording_id", c.parent.cfg.RecordingID),
		slog.String("error_code", er.ErrCode),
		slog.String("error_message", er.ErrMsg))
	c.res.Fail(errorsx.New(er.ErrMsg, errorsx.ReasonTranscribeService))
	return nil
}

func (c *callback) UnhandledEvent(byData []byte) error {
	c.parent.logger.Debug("deepgram_unhandled_event",
		slog.String("recording_id", c.parent.cfg.RecordingID))
	return nil
}

var _ transcriber.Transcriber = (*Transcriber)(nil)
