package webhook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/harunnryd/voxnote/pkg/audio"
	"github.com/harunnryd/voxnote/pkg/errorsx"
)

func sampleSubmission() Submission {
	return Submission{
		Audio:       audio.EncodedAudio{Data: []byte("fake-webm-bytes"), MIME: "audio/webm;codecs=opus"},
		Name:        "site visit",
		ClientName:  "Jane",
		CompanyName: "Acme Corp",
		RecordedAt:  time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Transcript:  "checked the east wing",
	}
}

func TestSubmitPostsMultipartForm(t *testing.T) {
	type received struct {
		fields   map[string]string
		fileName string
		fileType string
		fileBody []byte
	}
	var got received

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		got.fields = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			if len(v) > 0 {
				got.fields[k] = v[0]
			}
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("file part: %v", err)
			return
		}
		defer file.Close()
		got.fileName = header.Filename
		got.fileType = header.Header.Get("Content-Type")
		got.fileBody, _ = io.ReadAll(file)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(5 * time.Second)
	if err := c.Submit(context.Background(), srv.URL, sampleSubmission()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if got.fileName != "recording.webm" {
		t.Fatalf("expected recording.webm, got %q", got.fileName)
	}
	if got.fileType != "audio/webm;codecs=opus" {
		t.Fatalf("file part content type %q", got.fileType)
	}
	if string(got.fileBody) != "fake-webm-bytes" {
		t.Fatalf("file body mismatch: %q", got.fileBody)
	}
	want := map[string]string{
		"mimeType":    "audio/webm;codecs=opus",
		"name":        "site visit",
		"clientName":  "Jane",
		"companyName": "Acme Corp",
		"recordedAt":  "2026-03-14T09:26:53Z",
		"transcript":  "checked the east wing",
	}
	for k, v := range want {
		if got.fields[k] != v {
			t.Fatalf("field %s: expected %q, got %q", k, v, got.fields[k])
		}
	}
}

func TestSubmitOmitsEmptyTranscript(t *testing.T) {
	var hasTranscript bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		_, hasTranscript = r.MultipartForm.Value["transcript"]
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := sampleSubmission()
	s.Transcript = ""
	c := NewClient(5 * time.Second)
	if err := c.Submit(context.Background(), srv.URL, s); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if hasTranscript {
		t.Fatalf("empty transcript must not produce a form field")
	}
}

func TestSubmitNon2xxIsSubmissionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(5 * time.Second)
	err := c.Submit(context.Background(), srv.URL, sampleSubmission())
	if !errorsx.HasReason(err, errorsx.ReasonWebhookSubmit) {
		t.Fatalf("expected webhook_submit, got %v", err)
	}
}

func TestSubmitRejectsInvalidURL(t *testing.T) {
	c := NewClient(5 * time.Second)
	err := c.Submit(context.Background(), "not a url", sampleSubmission())
	if !errorsx.HasReason(err, errorsx.ReasonInvalidConfig) {
		t.Fatalf("expected invalid_config, got %v", err)
	}
}

func TestSubmitRejectsEmptyAudio(t *testing.T) {
	c := NewClient(5 * time.Second)
	s := sampleSubmission()
	s.Audio = audio.EncodedAudio{}
	err := c.Submit(context.Background(), "https://hooks.example.com/notes", s)
	if !errorsx.HasReason(err, errorsx.ReasonWebhookSubmit) {
		t.Fatalf("expected webhook_submit, got %v", err)
	}
}
