package bridge

import (
	"bytes"
	"context"
	"testing"

	"github.com/attainly/voicebridge/pkg/realtime"
	"github.com/attainly/voicebridge/pkg/telephony"
)

// playResponse simulates a response in flight: audio buffered through the
// delta handler and one frame already delivered to the provider.
func playResponse(t *testing.T, s *Session, itemID string, inboundMs int64) {
	t.Helper()
	s.mu.Lock()
	s.latestInboundMs = inboundMs
	s.mu.Unlock()

	s.onAudioDelta(&realtime.ServerEvent{
		Type:   realtime.EventOutputAudioDelta,
		ItemID: itemID,
		Audio:  bytes.Repeat([]byte{0x55}, 4*FrameSize),
	})
	s.tick()
}

func TestBargeInClearsQueueAndTruncates(t *testing.T) {
	s, tel, ai := newTestSession(t)
	playResponse(t, s, "item_a", 1000)

	// The caller keeps streaming while the response plays.
	s.mu.Lock()
	s.latestInboundMs = 1750
	s.mu.Unlock()

	s.handleSpeechStarted()

	if got := s.queuedFrames(); got != 0 {
		t.Fatalf("frame queue = %d after barge-in, want 0", got)
	}
	if len(ai.truncates) != 1 {
		t.Fatalf("truncate calls = %d, want 1", len(ai.truncates))
	}
	tr := ai.truncates[0]
	if tr.itemID != "item_a" {
		t.Fatalf("truncated item = %q, want item_a", tr.itemID)
	}
	if tr.audioEndMs != 750 {
		t.Fatalf("audio_end_ms = %d, want 750", tr.audioEndMs)
	}
	if tel.clearCount() != 1 {
		t.Fatalf("clear events = %d, want 1", tel.clearCount())
	}
}

func TestBargeInWithoutPlaybackSkipsTruncate(t *testing.T) {
	s, tel, ai := newTestSession(t)

	// Nothing delivered yet: no marks pending, no response start taken.
	s.handleSpeechStarted()

	if len(ai.truncates) != 0 {
		t.Fatalf("truncate calls = %d, want 0", len(ai.truncates))
	}
	if tel.clearCount() != 0 {
		t.Fatalf("clear events = %d, want 0", tel.clearCount())
	}
}

func TestBargeInClampsNegativeElapsed(t *testing.T) {
	s, _, ai := newTestSession(t)
	playResponse(t, s, "item_a", 1000)

	// Inbound clock apparently behind the response start; elapsed must
	// clamp to zero rather than go negative.
	s.mu.Lock()
	s.latestInboundMs = 400
	s.mu.Unlock()

	s.handleSpeechStarted()

	if len(ai.truncates) != 1 {
		t.Fatalf("truncate calls = %d, want 1", len(ai.truncates))
	}
	if got := ai.truncates[0].audioEndMs; got != 0 {
		t.Fatalf("audio_end_ms = %d, want 0", got)
	}
}

func TestAudioDroppedWhileInterrupted(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.mu.Lock()
	s.interrupted = true
	s.mu.Unlock()

	s.pushAudio(bytes.Repeat([]byte{0}, 2*FrameSize))
	if got := s.queuedFrames(); got != 0 {
		t.Fatalf("queued frames while interrupted = %d, want 0", got)
	}

	s.resume()
	s.pushAudio(bytes.Repeat([]byte{0}, 2*FrameSize))
	if got := s.queuedFrames(); got != 2 {
		t.Fatalf("queued frames after resume = %d, want 2", got)
	}
}

func TestTickSkipsWhileInterrupted(t *testing.T) {
	s, tel, _ := newTestSession(t)
	s.pushAudio(bytes.Repeat([]byte{0}, FrameSize))
	s.mu.Lock()
	s.interrupted = true
	s.mu.Unlock()

	s.tick()
	if tel.mediaCount() != 0 {
		t.Fatalf("tick sent media while interrupted")
	}
}

func TestResponseStartTakenOncePerItem(t *testing.T) {
	s, _, _ := newTestSession(t)

	s.mu.Lock()
	s.latestInboundMs = 500
	s.mu.Unlock()
	s.onAudioDelta(&realtime.ServerEvent{ItemID: "item_a", Audio: []byte{1}})

	s.mu.Lock()
	s.latestInboundMs = 900
	s.mu.Unlock()
	s.onAudioDelta(&realtime.ServerEvent{ItemID: "item_a", Audio: []byte{2}})

	s.mu.Lock()
	start := s.responseStartMs
	s.mu.Unlock()
	if start != 500 {
		t.Fatalf("response start = %d, want 500 (first delta of the item)", start)
	}

	// A new item re-anchors the start timestamp.
	s.onAudioDelta(&realtime.ServerEvent{ItemID: "item_b", Audio: []byte{3}})
	s.mu.Lock()
	start = s.responseStartMs
	s.mu.Unlock()
	if start != 900 {
		t.Fatalf("response start after new item = %d, want 900", start)
	}
}

func TestMediaEventTracksInboundTimestamp(t *testing.T) {
	s, _, ai := newTestSession(t)

	stop := s.handleTelephonyEvent(&telephony.Envelope{
		Event: telephony.EventMedia,
		Media: &telephony.MediaPayload{Timestamp: "1234", Payload: "AAAA"},
	})
	if stop {
		t.Fatalf("media event reported stream stop")
	}
	s.mu.Lock()
	ms := s.latestInboundMs
	s.mu.Unlock()
	if ms != 1234 {
		t.Fatalf("latest inbound = %d, want 1234", ms)
	}
	if len(ai.appended) != 1 || ai.appended[0] != "AAAA" {
		t.Fatalf("forwarded audio = %v", ai.appended)
	}
}

func TestMediaDroppedWhenConnectionClosed(t *testing.T) {
	s, _, ai := newTestSession(t)
	ai.Close()

	s.handleTelephonyEvent(&telephony.Envelope{
		Event: telephony.EventMedia,
		Media: &telephony.MediaPayload{Timestamp: "10", Payload: "AAAA"},
	})
	if len(ai.appended) != 0 {
		t.Fatalf("audio forwarded on closed connection")
	}
}

func TestStopEventEndsStream(t *testing.T) {
	s, _, _ := newTestSession(t)
	if !s.handleTelephonyEvent(&telephony.Envelope{Event: telephony.EventStop}) {
		t.Fatalf("stop event did not end the stream")
	}
}

func TestStartEventCapturesStreamSID(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.mu.Lock()
	s.streamSID = ""
	s.mu.Unlock()

	s.handleTelephonyEvent(&telephony.Envelope{
		Event: telephony.EventStart,
		Start: &telephony.StartPayload{StreamSID: "MZabc", CallSID: "CAabc"},
	})
	if got := s.StreamSID(); got != "MZabc" {
		t.Fatalf("stream sid = %q, want MZabc", got)
	}
}

func TestTranscriptEventsAppend(t *testing.T) {
	s, _, _ := newTestSession(t)
	ctx := context.Background()

	s.handleAIEvent(ctx, &realtime.ServerEvent{
		Type:       realtime.EventOutputTranscriptDone,
		Transcript: "How did the day go?",
	})
	s.handleAIEvent(ctx, &realtime.ServerEvent{
		Type:       realtime.EventInputTranscriptionCompleted,
		Transcript: "Pretty well, actually.",
	})

	want := "Assistant: How did the day go?\nUser: Pretty well, actually.\n"
	if got := s.Transcript(); got != want {
		t.Fatalf("transcript = %q, want %q", got, want)
	}
}
