package errorsx

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapAndReason(t *testing.T) {
	err := Wrap(errors.New("decode failed"), ReasonAudioDecode)
	if Reason(err) != ReasonAudioDecode {
		t.Fatalf("expected reason %s, got %s", ReasonAudioDecode, Reason(err))
	}
	if !HasReason(err, ReasonAudioDecode) {
		t.Fatalf("expected HasReason true")
	}
}

func TestWrapPreservesExistingReason(t *testing.T) {
	first := Wrap(errors.New("timed out"), ReasonTranscribeTimeout)
	second := Wrap(first, ReasonTranscribeService)
	if Reason(second) != ReasonTranscribeTimeout {
		t.Fatalf("expected reason preserved, got %s", Reason(second))
	}
}

func TestReasonSurvivesWrappedChain(t *testing.T) {
	inner := New("api key not configured", ReasonCredential)
	outer := fmt.Errorf("transcribe: %w", inner)
	if Reason(outer) != ReasonCredential {
		t.Fatalf("expected reason through %%w chain, got %s", Reason(outer))
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, ReasonWebhookSubmit) != nil {
		t.Fatalf("expected nil passthrough")
	}
	if Reason(nil) != ReasonUnknown {
		t.Fatalf("expected unknown reason for nil error")
	}
}
