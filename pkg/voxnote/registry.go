package voxnote

import (
	"fmt"
	"strings"
	"time"

	"github.com/harunnryd/voxnote/pkg/adapters/transcriber"
	"github.com/harunnryd/voxnote/pkg/configutil"
	"github.com/harunnryd/voxnote/pkg/errorsx"
	"github.com/harunnryd/voxnote/pkg/providers/deepgram"
	"github.com/harunnryd/voxnote/pkg/providers/gemini"
	"github.com/harunnryd/voxnote/pkg/providers/mock"
)

// TranscriberFactory builds a transcriber bound to one recording.
type TranscriberFactory func(cfg Config, recordingID string) (transcriber.Transcriber, error)

// Registry maps provider names to transcriber factories.
type Registry struct {
	factories map[string]TranscriberFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]TranscriberFactory)}
}

func (r *Registry) Register(name string, factory TranscriberFactory) {
	r.factories[strings.ToLower(strings.TrimSpace(name))] = factory
}

func (r *Registry) Build(provider string, cfg Config, recordingID string) (transcriber.Transcriber, error) {
	fn := r.factories[strings.ToLower(strings.TrimSpace(provider))]
	if fn == nil {
		return nil, fmt.Errorf("transcription provider not registered: %s", provider)
	}
	return fn(cfg, recordingID)
}

// DefaultRegistry pre-registers the built-in providers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("gemini", buildGemini)
	r.Register("deepgram", buildDeepgram)
	r.Register("mock", buildMock)
	return r
}

func buildGemini(cfg Config, recordingID string) (transcriber.Transcriber, error) {
	if err := configutil.ValidateSettings(cfg.Transcription.Settings, configutil.Schema{
		Required: []string{"api_key"},
		Optional: []string{"model", "endpoint"},
	}); err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonInvalidConfig)
	}
	var s struct {
		APIKey   string `mapstructure:"api_key"`
		Model    string `mapstructure:"model"`
		Endpoint string `mapstructure:"endpoint"`
	}
	if err := configutil.DecodeSettings(cfg.Transcription.Settings, &s); err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonInvalidConfig)
	}
	return gemini.New(gemini.Config{
		APIKey:      s.APIKey,
		Model:       s.Model,
		Endpoint:    s.Endpoint,
		Timeout:     time.Duration(cfg.Transcription.TimeoutMS) * time.Millisecond,
		RecordingID: recordingID,
	}), nil
}

func buildDeepgram(cfg Config, recordingID string) (transcriber.Transcriber, error) {
	if err := configutil.ValidateSettings(cfg.Transcription.Settings, configutil.Schema{
		Required: []string{"api_key"},
		Optional: []string{"model", "language"},
	}); err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonInvalidConfig)
	}
	var s struct {
		APIKey   string `mapstructure:"api_key"`
		Model    string `mapstructure:"model"`
		Language string `mapstructure:"language"`
	}
	if err := configutil.DecodeSettings(cfg.Transcription.Settings, &s); err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonInvalidConfig)
	}
	return deepgram.New(deepgram.Config{
		APIKey:      s.APIKey,
		Model:       s.Model,
		Language:    s.Language,
		Timeout:     time.Duration(cfg.Transcription.TimeoutMS) * time.Millisecond,
		RecordingID: recordingID,
	}), nil
}

func buildMock(cfg Config, recordingID string) (transcriber.Transcriber, error) {
	var s struct {
		Transcript string `mapstructure:"transcript"`
		Fail       string `mapstructure:"fail"`
		DelayMS    int    `mapstructure:"delay_ms"`
	}
	if err := configutil.DecodeSettings(cfg.Transcription.Settings, &s); err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonInvalidConfig)
	}
	mc := mock.Config{
		Transcript: s.Transcript,
		Delay:      time.Duration(s.DelayMS) * time.Millisecond,
	}
	if strings.TrimSpace(s.Fail) != "" {
		mc.Err = errorsx.New(s.Fail, errorsx.ReasonTranscribeService)
	}
	return mock.New(mc), nil
}
