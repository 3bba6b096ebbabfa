package realtime

import "github.com/google/jsonschema-go/jsonschema"

// DefaultModel is the speech-to-speech model dialed when none is configured.
const DefaultModel = "gpt-realtime"

// Audio formats. Telephony calls negotiate G.711 so the service speaks the
// provider's codec natively and neither side transcodes.
const (
	AudioFormatPCM16    = "pcm16"
	AudioFormatG711ULaw = "g711_ulaw"
	AudioFormatG711ALaw = "g711_alaw"
)

// Voices available for audio output.
const (
	VoiceAlloy   = "alloy"
	VoiceCoral   = "coral"
	VoiceEcho    = "echo"
	VoiceSage    = "sage"
	VoiceShimmer = "shimmer"
	VoiceVerse   = "verse"
)

// VADServer enables server-side voice activity detection. The service
// detects caller speech onset and emits input_audio_buffer.speech_started,
// which drives barge-in handling upstream.
const VADServer = "server_vad"

// SessionConfig is the one-shot session configuration sent after connect.
type SessionConfig struct {
	// Modalities of the generated responses. Default audio only.
	Modalities []string `json:"modalities,omitempty"`

	// Instructions is the fully resolved system prompt: persona template,
	// user context, and the briefing block when present.
	Instructions string `json:"instructions,omitempty"`

	Voice string `json:"voice,omitempty"`

	InputAudioFormat  string `json:"input_audio_format,omitempty"`
	OutputAudioFormat string `json:"output_audio_format,omitempty"`

	// InputAudioTranscription enables user-side transcription, which the
	// bridge folds into the call transcript.
	InputAudioTranscription *TranscriptionConfig `json:"input_audio_transcription,omitempty"`

	TurnDetection *TurnDetection `json:"turn_detection,omitempty"`

	// Tools declares the callable functions, flattened to
	// name/description/parameters triples.
	Tools []Tool `json:"tools,omitempty"`
}

// TranscriptionConfig selects the transcription model for caller audio.
type TranscriptionConfig struct {
	Model string `json:"model,omitempty"`
}

// TurnDetection configures the service-side voice activity detector.
type TurnDetection struct {
	Type              string  `json:"type,omitempty"`
	Threshold         float64 `json:"threshold,omitempty"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms,omitempty"`
	SilenceDurationMs int     `json:"silence_duration_ms,omitempty"`
}

// Tool declares one callable function.
type Tool struct {
	// Type is always "function".
	Type string `json:"type"`

	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// Parameters is the JSON Schema of the argument object.
	Parameters *jsonschema.Schema `json:"parameters,omitempty"`
}
