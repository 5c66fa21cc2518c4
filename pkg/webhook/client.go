package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/harunnryd/voxnote/pkg/audio"
	"github.com/harunnryd/voxnote/pkg/errorsx"
	"github.com/harunnryd/voxnote/pkg/logging"
)

// Submission is one finished voice note bound for the webhook.
type Submission struct {
	Audio       audio.EncodedAudio
	Name        string
	ClientName  string
	CompanyName string
	RecordedAt  time.Time
	Transcript  string
}

// Client posts finished recordings as multipart/form-data. There is no
// automatic retry; the caller decides whether to resubmit.
type Client struct {
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a webhook client with the given request timeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:   &http.Client{Timeout: timeout},
		logger: logging.NewComponentLogger(slog.Default(), "webhook"),
	}
}

// Submit posts the recording to endpoint. The audio travels as the `file`
// part named after its container; the metadata fields ride alongside as
// plain form values. A non-2xx response is a submission error carrying the
// status code.
func (c *Client) Submit(ctx context.Context, endpoint string, s Submission) error {
	target, err := url.ParseRequestURI(endpoint)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") {
		return errorsx.New("webhook url is not a valid http endpoint", errorsx.ReasonInvalidConfig)
	}
	if s.Audio.Empty() {
		return errorsx.New("nothing to submit: no captured audio", errorsx.ReasonWebhookSubmit)
	}

	body, contentType, err := encodeForm(s)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonWebhookSubmit)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonWebhookSubmit)
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("webhook_request_failed",
			slog.String("error", err.Error()))
		return errorsx.Wrap(err, errorsx.ReasonWebhookSubmit)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("webhook_rejected",
			slog.Int("status", resp.StatusCode))
		return errorsx.New(fmt.Sprintf("webhook returned status %d", resp.StatusCode), errorsx.ReasonWebhookSubmit)
	}

	c.logger.Info("webhook_submitted",
		slog.Int("status", resp.StatusCode),
		slog.Int("audio_bytes", len(s.Audio.Data)),
		slog.Duration("latency", time.Since(start)))
	return nil
}

func encodeForm(s Submission) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, s.Audio.FileName()))
	header.Set("Content-Type", s.Audio.MIME)
	filePart, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := filePart.Write(s.Audio.Data); err != nil {
		return nil, "", err
	}

	fields := map[string]string{
		"mimeType":    s.Audio.MIME,
		"name":        s.Name,
		"clientName":  s.ClientName,
		"companyName": s.CompanyName,
		"recordedAt":  s.RecordedAt.Format(time.RFC3339),
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}
	if strings.TrimSpace(s.Transcript) != "" {
		if err := w.WriteField("transcript", s.Transcript); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
