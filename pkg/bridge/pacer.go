package bridge

import (
	"fmt"
	"time"
)

// pushAudio accepts one decoded chunk of speech-service output. Bytes
// accumulate until at least one full frame is buffered; whole frames move
// onto the frame queue, the remainder stays buffered. While interrupted,
// output of the cancelled response is discarded instead.
func (s *Session) pushAudio(b []byte) {
	if len(b) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.interrupted {
		return
	}
	s.audioBuf = append(s.audioBuf, b...)
	for len(s.audioBuf) >= FrameSize {
		frame := make([]byte, FrameSize)
		copy(frame, s.audioBuf[:FrameSize])
		s.audioBuf = s.audioBuf[FrameSize:]
		s.frameQueue = append(s.frameQueue, frame)
	}
}

// startPacer runs the fixed-cadence playout loop until stopPacer.
func (s *Session) startPacer(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-s.pacerStop:
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

// stopPacer stops the playout loop. Idempotent.
func (s *Session) stopPacer() {
	s.pacerOnce.Do(func() { close(s.pacerStop) })
}

// tick releases at most one frame. A tick while interrupted, before start,
// or with an empty queue does nothing; frames leave strictly in FIFO order.
func (s *Session) tick() {
	s.mu.Lock()
	if s.interrupted || s.streamSID == "" || len(s.frameQueue) == 0 {
		s.mu.Unlock()
		return
	}
	frame := s.frameQueue[0]
	s.frameQueue = s.frameQueue[1:]
	streamSID := s.streamSID
	s.markSeq++
	mark := fmt.Sprintf("frame_%d", s.markSeq)
	s.marks = append(s.marks, mark)
	s.mu.Unlock()

	if err := s.tel.SendMedia(streamSID, frame); err != nil {
		s.log.Warn("bridge: send media", "call", s.CallID, "err", err)
		return
	}
	if err := s.tel.SendMark(streamSID, mark); err != nil {
		s.log.Warn("bridge: send mark", "call", s.CallID, "err", err)
	}
}

// popMark acknowledges one played mark. Popping an empty queue is a no-op:
// the provider may replay marks around a clear.
func (s *Session) popMark() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.marks) > 0 {
		s.marks = s.marks[1:]
	}
}
