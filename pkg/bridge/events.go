package bridge

import (
	"context"

	"github.com/attainly/voicebridge/pkg/realtime"
	"github.com/attainly/voicebridge/pkg/telephony"
)

// handleTelephonyEvent processes one inbound provider envelope. Returns
// true when the stream is over and the session should finalize.
func (s *Session) handleTelephonyEvent(env *telephony.Envelope) (stop bool) {
	switch env.Event {
	case telephony.EventStart:
		s.mu.Lock()
		if env.Start != nil {
			s.streamSID = env.Start.StreamSID
		} else {
			s.streamSID = env.StreamSID
		}
		s.latestInboundMs = 0
		s.responseStartMs = -1
		s.lastItemID = ""
		s.mu.Unlock()
		s.log.Info("bridge: stream started", "call", s.CallID, "stream", s.StreamSID())

	case telephony.EventMedia:
		if env.Media == nil {
			s.log.Warn("bridge: media event without payload", "call", s.CallID)
			return false
		}
		s.mu.Lock()
		if ms := env.Media.TimestampMs(); ms > 0 {
			s.latestInboundMs = ms
		}
		// Some transports deliver media before start; recover the stream
		// id from the event itself.
		if s.streamSID == "" && env.StreamSID != "" {
			s.streamSID = env.StreamSID
		}
		s.mu.Unlock()

		if !s.ai.Open() {
			s.log.Debug("bridge: dropping inbound audio, speech connection not open", "call", s.CallID)
			return false
		}
		if err := s.ai.AppendAudioBase64(env.Media.Payload); err != nil {
			s.log.Warn("bridge: forward audio", "call", s.CallID, "err", err)
		}

	case telephony.EventMark:
		s.popMark()

	case telephony.EventStop:
		s.log.Info("bridge: stream stopped", "call", s.CallID)
		return true

	case telephony.EventConnected:
		// Handshake preamble, nothing to do.

	default:
		s.log.Warn("bridge: unrecognized telephony event", "call", s.CallID, "event", env.Event)
	}
	return false
}

// handleAIEvent processes one speech-service event. Returns a non-nil
// error only for error events, which abort the session.
func (s *Session) handleAIEvent(ctx context.Context, ev *realtime.ServerEvent) error {
	switch ev.Type {
	case realtime.EventOutputAudioDelta:
		s.onAudioDelta(ev)

	case realtime.EventOutputTranscriptDone:
		s.appendTranscript("Assistant", ev.Transcript)

	case realtime.EventInputTranscriptionCompleted:
		s.appendTranscript("User", ev.Transcript)

	case realtime.EventSpeechStarted:
		s.handleSpeechStarted()

	case realtime.EventOutputItemDone:
		if ev.Item != nil && ev.Item.Type == realtime.ItemTypeFunctionCall {
			// Tool execution must not block the event loop; results are
			// fed back into the conversation when ready.
			go s.dispatch.Dispatch(ctx, s.UserID, ev.Item, s.ai)
		}

	case realtime.EventError:
		if ev.Err != nil {
			return ev.Err.ToError()
		}
		return &realtime.Error{Message: "unspecified service error"}

	case realtime.EventSessionCreated, realtime.EventSessionUpdated,
		realtime.EventOutputTranscriptDelta, realtime.EventResponseDone:
		// Known but unused here.

	default:
		s.log.Debug("bridge: ignoring event", "call", s.CallID, "type", ev.Type)
	}
	return nil
}

// onAudioDelta feeds one audio chunk to the pacer, first recording when a
// new response item begins so barge-in can compute elapsed playback.
func (s *Session) onAudioDelta(ev *realtime.ServerEvent) {
	s.mu.Lock()
	if ev.ItemID != "" && ev.ItemID != s.lastItemID {
		s.lastItemID = ev.ItemID
		s.responseStartMs = s.latestInboundMs
	}
	s.mu.Unlock()

	s.pushAudio(ev.Audio)
}
