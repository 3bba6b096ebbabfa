package telephony

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Inbound event kinds.
const (
	EventStart = "start"
	EventMedia = "media"
	EventMark  = "mark"
	EventStop  = "stop"

	// EventConnected is sent by some providers before start. It carries no
	// payload and is ignored by the bridge.
	EventConnected = "connected"
)

// Outbound event kinds.
const (
	EventClear = "clear"
)

// Envelope is a single protocol event in either direction. Exactly one of
// the payload pointers is set, matching Event.
type Envelope struct {
	Event     string `json:"event"`
	StreamSID string `json:"streamSid,omitempty"`

	Start *StartPayload `json:"start,omitempty"`
	Media *MediaPayload `json:"media,omitempty"`
	Mark  *MarkPayload  `json:"mark,omitempty"`
	Stop  *StopPayload  `json:"stop,omitempty"`
}

// StartPayload announces a new media stream.
type StartPayload struct {
	StreamSID string `json:"streamSid"`
	CallSID   string `json:"callSid"`

	// CustomParameters carries caller-defined key/value pairs from the
	// stream-connect instruction (user id, call mode, record id).
	CustomParameters map[string]string `json:"customParameters,omitempty"`

	MediaFormat *MediaFormat `json:"mediaFormat,omitempty"`
}

// MediaFormat describes the negotiated audio encoding.
type MediaFormat struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
}

// MediaPayload carries one chunk of base64-encoded audio.
type MediaPayload struct {
	// Timestamp is the provider's playback clock in milliseconds, encoded
	// as a decimal string on the wire.
	Timestamp string `json:"timestamp,omitempty"`
	Payload   string `json:"payload"`
}

// TimestampMs parses the media timestamp. Returns 0 for an absent or
// malformed timestamp; the protocol does not guarantee one on every chunk.
func (m *MediaPayload) TimestampMs() int64 {
	if m == nil || m.Timestamp == "" {
		return 0
	}
	ms, err := strconv.ParseInt(m.Timestamp, 10, 64)
	if err != nil {
		return 0
	}
	return ms
}

// MarkPayload acknowledges playback of a previously sent mark.
type MarkPayload struct {
	Name string `json:"name"`
}

// StopPayload signals the end of the media stream.
type StopPayload struct {
	CallSID string `json:"callSid,omitempty"`
}

// Decode parses one inbound envelope.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &ProtocolError{Op: "decode", Err: err}
	}
	if env.Event == "" {
		return nil, &ProtocolError{Op: "decode", Err: fmt.Errorf("missing event field")}
	}
	return &env, nil
}
