package redact

import (
	"regexp"
	"strings"
	"sync/atomic"
)

// Redactor strips personally identifying fragments from free text before
// it reaches logs or metrics. Transcripts keep their raw form in memory;
// only the logged copy is scrubbed.
type Redactor struct {
	rules []rule
}

type rule struct {
	re          *regexp.Regexp
	replacement string
}

// NewRedactor builds a redactor covering email addresses and phone-like
// digit runs, the identifiers most likely to appear in a dictated note.
func NewRedactor() *Redactor {
	return &Redactor{rules: []rule{
		{regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`), "[REDACTED_EMAIL]"},
		{regexp.MustCompile(`\b\+?\d[\d\s\-]{7,}\d\b`), "[REDACTED_PHONE]"},
	}}
}

func (r *Redactor) Apply(in string) string {
	if strings.TrimSpace(in) == "" {
		return in
	}
	out := in
	for _, rl := range r.rules {
		out = rl.re.ReplaceAllString(out, rl.replacement)
	}
	return out
}

var (
	enabled      atomic.Bool
	defaultRules = NewRedactor()
)

// SetEnabled toggles redaction for the package-level helpers.
func SetEnabled(v bool) {
	enabled.Store(v)
}

// Enabled returns true when redaction is active.
func Enabled() bool {
	return enabled.Load()
}

// Text redacts in with the default rules when redaction is enabled.
func Text(in string) string {
	if !enabled.Load() {
		return in
	}
	return defaultRules.Apply(in)
}
