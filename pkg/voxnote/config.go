package voxnote

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Environment   string              `mapstructure:"environment"`
	LogLevel      string              `mapstructure:"log_level"`
	LogFormat     string              `mapstructure:"log_format"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Capture       CaptureConfig       `mapstructure:"capture"`
	Webhook       WebhookConfig       `mapstructure:"webhook"`
	Privacy       PrivacyConfig       `mapstructure:"privacy"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
}

type TranscriptionConfig struct {
	Enabled   bool           `mapstructure:"enabled"`
	Provider  string         `mapstructure:"provider"`
	TimeoutMS int            `mapstructure:"timeout_ms"`
	Settings  map[string]any `mapstructure:"settings"`
}

type CaptureConfig struct {
	SampleRate int    `mapstructure:"sample_rate"`
	Device     string `mapstructure:"device"`
}

type WebhookConfig struct {
	URL       string `mapstructure:"url"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

type PrivacyConfig struct {
	RedactPII bool `mapstructure:"redact_pii"`
}

type MetricsConfig struct {
	Path string `mapstructure:"path"`
}

func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("transcription.enabled", true)
	v.SetDefault("transcription.provider", "gemini")
	v.SetDefault("transcription.timeout_ms", 30000)
	v.SetDefault("capture.sample_rate", 44100)
	v.SetDefault("capture.device", "")
	v.SetDefault("webhook.timeout_ms", 30000)
	v.SetDefault("privacy.redact_pii", true)
	v.SetDefault("metrics.path", "")

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}

	expandEnvStrings(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Webhook.URL) == "" {
		return fmt.Errorf("webhook.url is required")
	}
	if c.Transcription.Enabled && strings.TrimSpace(c.Transcription.Provider) == "" {
		return fmt.Errorf("transcription.provider is required when transcription is enabled")
	}
	if c.Transcription.TimeoutMS <= 0 {
		return fmt.Errorf("transcription.timeout_ms must be positive")
	}
	if c.Capture.SampleRate <= 0 {
		return fmt.Errorf("capture.sample_rate must be positive")
	}
	return nil
}

func expandEnvStrings(cfg *Config) {
	expandValue(reflect.ValueOf(cfg))
	cfg.Transcription.Settings = expandSettings(cfg.Transcription.Settings)
}

func expandSettings(settings map[string]any) map[string]any {
	if settings == nil {
		return nil
	}
	for k, v := range settings {
		settings[k] = expandAny(v)
	}
	return settings
}

func expandAny(v any) any {
	switch val := v.(type) {
	case string:
		return os.ExpandEnv(val)
	case []any:
		for i := range val {
			val[i] = expandAny(val[i])
		}
		return val
	case map[string]any:
		for k, v := range val {
			val[k] = expandAny(v)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, v := range val {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = expandAny(v)
		}
		return out
	default:
		return v
	}
}

func expandValue(v reflect.Value) {
	if !v.IsValid() {
		return
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return
		}
		expandValue(v.Elem())
		return
	}
	switch v.Kind() {
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			expandValue(v.Field(i))
		}
	case reflect.String:
		if v.CanSet() {
			v.SetString(os.ExpandEnv(v.String()))
		}
	}
}
