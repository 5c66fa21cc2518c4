package voxnote

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/harunnryd/voxnote/pkg/providers/mock"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voxnote.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaultsAndEnvExpansion(t *testing.T) {
	t.Setenv("VOX_TEST_KEY", "sk-123")
	path := writeConfig(t, `
webhook:
  url: https://hooks.example.com/notes
transcription:
  provider: gemini
  settings:
    api_key: ${VOX_TEST_KEY}
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Environment != "development" {
		t.Fatalf("expected default environment, got %q", cfg.Environment)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Fatalf("expected default logging config, got %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
	if !cfg.Transcription.Enabled {
		t.Fatalf("transcription must default to enabled")
	}
	if cfg.Transcription.TimeoutMS != 30000 {
		t.Fatalf("expected default timeout 30000, got %d", cfg.Transcription.TimeoutMS)
	}
	if cfg.Capture.SampleRate != 44100 {
		t.Fatalf("expected default sample rate 44100, got %d", cfg.Capture.SampleRate)
	}
	if got := cfg.Transcription.Settings["api_key"]; got != "sk-123" {
		t.Fatalf("env expansion failed, got %v", got)
	}
	if !cfg.Privacy.RedactPII {
		t.Fatalf("redaction must default on")
	}
}

func TestLoadConfigRequiresWebhookURL(t *testing.T) {
	path := writeConfig(t, `
transcription:
  provider: mock
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected missing webhook.url to fail validation")
	}
}

func TestLoadConfigRequiresProviderWhenEnabled(t *testing.T) {
	path := writeConfig(t, `
webhook:
  url: https://hooks.example.com/notes
transcription:
  enabled: true
  provider: ""
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected missing provider to fail validation")
	}
}

func TestLoadConfigAudioOnlySkipsProviderRequirement(t *testing.T) {
	path := writeConfig(t, `
webhook:
  url: https://hooks.example.com/notes
transcription:
  enabled: false
  provider: ""
`)
	if _, err := LoadConfig(path); err != nil {
		t.Fatalf("audio-only config must validate, got %v", err)
	}
}

func TestRegistryBuildsMockProvider(t *testing.T) {
	cfg := Config{
		Transcription: TranscriptionConfig{
			Enabled:   true,
			Provider:  "mock",
			TimeoutMS: 30000,
			Settings:  map[string]any{"transcript": "canned"},
		},
	}
	tr, err := DefaultRegistry().Build("Mock", cfg, "rec-1")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, ok := tr.(*mock.Transcriber); !ok {
		t.Fatalf("expected mock transcriber, got %T", tr)
	}
}

func TestRegistryRejectsUnknownProvider(t *testing.T) {
	if _, err := DefaultRegistry().Build("whisperx", Config{}, "rec-1"); err == nil {
		t.Fatalf("unknown provider must fail")
	}
}

func TestRegistryValidatesGeminiSettings(t *testing.T) {
	cfg := Config{
		Transcription: TranscriptionConfig{
			Provider:  "gemini",
			TimeoutMS: 30000,
			Settings:  map[string]any{"model": "gemini-2.5-flash"},
		},
	}
	if _, err := DefaultRegistry().Build("gemini", cfg, "rec-1"); err == nil {
		t.Fatalf("missing api_key must fail settings validation")
	}
}
