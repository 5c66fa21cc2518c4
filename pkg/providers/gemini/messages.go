package gemini

// Wire shapes for the BidiGenerateContent websocket protocol, limited to
// the fields this client exchanges.

type setupMessage struct {
	Setup setupPayload `json:"setup"`
}

type setupPayload struct {
	Model                   string           `json:"model"`
	GenerationConfig        generationConfig `json:"generationConfig"`
	InputAudioTranscription struct{}         `json:"inputAudioTranscription"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities"`
}

func newSetupMessage(model string) setupMessage {
	return setupMessage{
		Setup: setupPayload{
			Model: "models/" + model,
			GenerationConfig: generationConfig{
				ResponseModalities: []string{"AUDIO"},
			},
		},
	}
}

type mediaChunk struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

type realtimeInputMessage struct {
	RealtimeInput struct {
		MediaChunks []mediaChunk `json:"mediaChunks"`
	} `json:"realtimeInput"`
}

type serverMessage struct {
	SetupComplete *struct{}      `json:"setupComplete,omitempty"`
	ServerContent *serverContent `json:"serverContent,omitempty"`
}

type serverContent struct {
	InputTranscription *transcriptionText `json:"inputTranscription,omitempty"`
	TurnComplete       bool               `json:"turnComplete,omitempty"`
}

type transcriptionText struct {
	Text string `json:"text"`
}
