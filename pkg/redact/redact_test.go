package redact

import "testing"

func TestApplyScrubsEmailAndPhone(t *testing.T) {
	r := NewRedactor()
	in := "call John at +62 812-3456-7890 or mail john.doe@example.com today"
	out := r.Apply(in)
	if out != "call John at [REDACTED_PHONE] or mail [REDACTED_EMAIL] today" {
		t.Fatalf("unexpected redaction: %q", out)
	}
}

func TestApplyLeavesPlainTextAlone(t *testing.T) {
	r := NewRedactor()
	in := "met the client about the Q3 roadmap"
	if out := r.Apply(in); out != in {
		t.Fatalf("plain text must pass through, got %q", out)
	}
}

func TestPackageHelperRespectsToggle(t *testing.T) {
	SetEnabled(false)
	defer SetEnabled(false)

	in := "reach me at jane@example.org"
	if out := Text(in); out != in {
		t.Fatalf("disabled redaction must be a pass-through, got %q", out)
	}

	SetEnabled(true)
	if out := Text(in); out != "reach me at [REDACTED_EMAIL]" {
		t.Fatalf("enabled redaction must scrub, got %q", out)
	}
}
