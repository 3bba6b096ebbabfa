package realtime

// Client event types (bridge to service).
const (
	EventSessionUpdate     = "session.update"
	EventInputAudioAppend  = "input_audio_buffer.append"
	EventItemCreate        = "conversation.item.create"
	EventItemTruncate      = "conversation.item.truncate"
	EventResponseCreate    = "response.create"
)

// Server event types (service to bridge).
const (
	EventError          = "error"
	EventSessionCreated = "session.created"
	EventSessionUpdated = "session.updated"

	// EventOutputAudioDelta carries one base64 chunk of synthesized speech.
	EventOutputAudioDelta = "response.output_audio.delta"

	// Assistant-side transcript of the synthesized speech.
	EventOutputTranscriptDelta = "response.output_audio_transcript.delta"
	EventOutputTranscriptDone  = "response.output_audio_transcript.done"

	// EventInputTranscriptionCompleted carries the transcription of a
	// completed user utterance.
	EventInputTranscriptionCompleted = "conversation.item.input_audio_transcription.completed"

	// EventSpeechStarted fires when the service's voice-activity detector
	// hears the caller start speaking. This is the barge-in trigger.
	EventSpeechStarted = "input_audio_buffer.speech_started"

	// EventOutputItemDone marks a completed output item; function-call
	// items arrive through it.
	EventOutputItemDone = "response.output_item.done"

	EventResponseDone = "response.done"
)

// ServerEvent is a decoded server event. Fields are populated per event
// type; unused fields are zero.
type ServerEvent struct {
	Type    string `json:"type"`
	EventID string `json:"event_id,omitempty"`

	// ItemID identifies the conversation item an audio delta belongs to.
	ItemID string `json:"item_id,omitempty"`

	// Delta holds incremental text, or base64 audio for audio deltas.
	Delta string `json:"delta,omitempty"`

	// Audio is the decoded audio payload of an audio delta.
	Audio []byte `json:"-"`

	// Transcript is the full text of a *.done transcript event or a
	// completed input transcription.
	Transcript string `json:"transcript,omitempty"`

	// Item is the conversation item of an output_item.done event.
	Item *Item `json:"item,omitempty"`

	// Session is set on session.created / session.updated.
	Session *SessionInfo `json:"session,omitempty"`

	// Err is set on error events.
	Err *ErrorBody `json:"error,omitempty"`

	// Raw is the original wire message, kept for debug logging.
	Raw []byte `json:"-"`
}

// Item is a conversation item. The bridge cares about function_call items;
// everything else passes through untouched.
type Item struct {
	ID        string `json:"id,omitempty"`
	Type      string `json:"type,omitempty"`
	Status    string `json:"status,omitempty"`
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// ItemTypeFunctionCall marks a model-requested tool invocation.
const ItemTypeFunctionCall = "function_call"

// SessionInfo is the subset of session state the bridge reads back.
type SessionInfo struct {
	ID    string `json:"id,omitempty"`
	Model string `json:"model,omitempty"`
}
