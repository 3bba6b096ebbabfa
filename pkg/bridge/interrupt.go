package bridge

import "time"

// handleSpeechStarted is the barge-in transition: the service's VAD heard
// the caller while response audio may still be playing. Under one lock
// acquisition the queue is fully cleared and the truncation bookkeeping
// captured, so no pacer tick can observe a half-drained queue.
func (s *Session) handleSpeechStarted() {
	s.mu.Lock()
	s.interrupted = true
	dropped := len(s.frameQueue)
	s.frameQueue = nil
	s.audioBuf = nil

	// A response counts as in flight only once at least one frame reached
	// the provider (a mark is pending) and the start timestamp was taken.
	var truncate bool
	var itemID string
	var elapsed int64
	if len(s.marks) > 0 && s.responseStartMs >= 0 {
		truncate = true
		itemID = s.lastItemID
		elapsed = s.latestInboundMs - s.responseStartMs
		if elapsed < 0 {
			elapsed = 0
		}
	}
	streamSID := s.streamSID
	s.marks = nil
	s.lastItemID = ""
	s.responseStartMs = -1
	s.mu.Unlock()

	s.log.Info("bridge: barge-in", "call", s.CallID, "dropped_frames", dropped, "elapsed_ms", elapsed)

	if truncate {
		if itemID != "" {
			if err := s.ai.TruncateItem(itemID, elapsed); err != nil {
				s.log.Warn("bridge: truncate item", "call", s.CallID, "err", err)
			}
		}
		if streamSID != "" {
			if err := s.tel.SendClear(streamSID); err != nil {
				s.log.Warn("bridge: send clear", "call", s.CallID, "err", err)
			}
		}
	}

	time.AfterFunc(resumeDelay, s.resume)
}

// resume clears the interrupted flag, returning the pacer to service.
func (s *Session) resume() {
	s.mu.Lock()
	s.interrupted = false
	s.mu.Unlock()
}
