package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	// Capture failures.
	ReasonMicPermission ReasonCode = "mic_permission"
	ReasonCaptureDevice ReasonCode = "capture_device"

	// Conversion failures.
	ReasonAudioDecode ReasonCode = "audio_decode"

	// Transcription failures.
	ReasonCredential        ReasonCode = "config_credential"
	ReasonTranscribeConnect ReasonCode = "transcribe_connect"
	ReasonTranscribeService ReasonCode = "transcribe_service"
	ReasonTranscribeTimeout ReasonCode = "transcribe_timeout"

	// Submission failures.
	ReasonWebhookSubmit ReasonCode = "webhook_submit"

	// Configuration failures.
	ReasonInvalidConfig ReasonCode = "config_invalid"
)
