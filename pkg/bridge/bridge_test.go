package bridge

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/attainly/voicebridge/pkg/domaincall"
	"github.com/attainly/voicebridge/pkg/persona"
	"github.com/attainly/voicebridge/pkg/realtime"
	"github.com/attainly/voicebridge/pkg/telephony"
)

// fakeTel records everything sent toward the provider.
type fakeTel struct {
	mu     sync.Mutex
	media  [][]byte
	marks  []string
	clears int
}

var _ telephony.Sender = (*fakeTel)(nil)

func (f *fakeTel) SendMedia(_ string, frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(frame))
	copy(cp, frame)
	f.media = append(f.media, cp)
	return nil
}

func (f *fakeTel) SendMark(_ string, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marks = append(f.marks, name)
	return nil
}

func (f *fakeTel) SendClear(string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	return nil
}

func (f *fakeTel) mediaCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.media)
}

func (f *fakeTel) clearCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clears
}

// fakeAI records everything sent toward the speech service.
type fakeAI struct {
	mu        sync.Mutex
	appended  []string
	truncates []truncateCall
	outputs   []outputCall
	responses int
	open      bool
	closed    bool
}

type truncateCall struct {
	itemID     string
	audioEndMs int64
}

type outputCall struct {
	callID string
	output string
}

var _ AIConn = (*fakeAI)(nil)

func (f *fakeAI) AppendAudioBase64(audio string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, audio)
	return nil
}

func (f *fakeAI) TruncateItem(itemID string, audioEndMs int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.truncates = append(f.truncates, truncateCall{itemID, audioEndMs})
	return nil
}

func (f *fakeAI) AddFunctionOutput(callID, output string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outputs = append(f.outputs, outputCall{callID, output})
	return nil
}

func (f *fakeAI) CreateResponse() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses++
	return nil
}

func (f *fakeAI) Open() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeAI) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.open = false
	return nil
}

// fakeConn is a scripted Transport: envelopes arrive over a channel and a
// closed channel reads as a provider hangup.
type fakeConn struct {
	fakeTel
	envs chan *telephony.Envelope
}

func newFakeConn() *fakeConn {
	return &fakeConn{envs: make(chan *telephony.Envelope, 16)}
}

func (f *fakeConn) ReadEnvelope() (*telephony.Envelope, error) {
	env, ok := <-f.envs
	if !ok {
		return nil, io.EOF
	}
	return env, nil
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSession(t *testing.T) (*Session, *fakeTel, *fakeAI) {
	t.Helper()
	tel := &fakeTel{}
	ai := &fakeAI{open: true}
	d, err := NewDispatcher(&domaincall.Fake{}, testLogger())
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	s := newSession("call-1", StartParams{
		UserID: "user-1",
		Mode:   persona.Mode{Kind: "reflection"},
	}, tel, ai, d, testLogger())
	s.streamSID = "MZtest"
	return s, tel, ai
}

func TestPushAudioChunksIntoFrames(t *testing.T) {
	s, _, _ := newTestSession(t)

	// Five service-sized chunks of 3200 bytes each divide evenly into
	// 20 ms frames with nothing left over.
	for range 5 {
		s.pushAudio(bytes.Repeat([]byte{0x7f}, 3200))
	}

	if got, want := s.queuedFrames(), 100; got != want {
		t.Fatalf("queued frames = %d, want %d", got, want)
	}
	s.mu.Lock()
	rem := len(s.audioBuf)
	s.mu.Unlock()
	if rem != 0 {
		t.Fatalf("audio remainder = %d bytes, want 0", rem)
	}
}

func TestPushAudioKeepsRemainder(t *testing.T) {
	s, _, _ := newTestSession(t)

	s.pushAudio(bytes.Repeat([]byte{1}, FrameSize+25))

	if got := s.queuedFrames(); got != 1 {
		t.Fatalf("queued frames = %d, want 1", got)
	}
	s.mu.Lock()
	rem := len(s.audioBuf)
	s.mu.Unlock()
	if rem != 25 {
		t.Fatalf("audio remainder = %d bytes, want 25", rem)
	}

	// The remainder completes into a frame once more bytes arrive.
	s.pushAudio(bytes.Repeat([]byte{2}, FrameSize-25))
	if got := s.queuedFrames(); got != 2 {
		t.Fatalf("queued frames after top-up = %d, want 2", got)
	}
}

func TestTickReleasesAtMostOneFrame(t *testing.T) {
	s, tel, _ := newTestSession(t)
	s.pushAudio(bytes.Repeat([]byte{0}, 10*FrameSize))

	for i := 1; i <= 3; i++ {
		s.tick()
		if got := tel.mediaCount(); got != i {
			t.Fatalf("after %d ticks sent %d frames", i, got)
		}
	}
	if got := s.queuedFrames(); got != 7 {
		t.Fatalf("queued frames = %d, want 7", got)
	}
}

func TestTickSendsFramesInOrderWithMarks(t *testing.T) {
	s, tel, _ := newTestSession(t)
	s.pushAudio(bytes.Repeat([]byte{1}, FrameSize))
	s.pushAudio(bytes.Repeat([]byte{2}, FrameSize))

	s.tick()
	s.tick()

	if len(tel.media) != 2 {
		t.Fatalf("sent %d frames, want 2", len(tel.media))
	}
	if tel.media[0][0] != 1 || tel.media[1][0] != 2 {
		t.Fatalf("frames out of order: %x, %x", tel.media[0][0], tel.media[1][0])
	}
	if len(tel.marks) != 2 || tel.marks[0] != "frame_1" || tel.marks[1] != "frame_2" {
		t.Fatalf("marks = %v", tel.marks)
	}
}

func TestTickNoopBeforeStartOrWhenEmpty(t *testing.T) {
	s, tel, _ := newTestSession(t)

	s.tick() // empty queue
	if tel.mediaCount() != 0 {
		t.Fatalf("tick on empty queue sent media")
	}

	s.mu.Lock()
	s.streamSID = ""
	s.mu.Unlock()
	s.pushAudio(bytes.Repeat([]byte{0}, FrameSize))
	s.tick() // stream not started
	if tel.mediaCount() != 0 {
		t.Fatalf("tick before stream start sent media")
	}
}

func TestPopMarkOnEmptyQueueIsNoop(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.popMark()
	s.popMark()

	s.mu.Lock()
	n := len(s.marks)
	s.mu.Unlock()
	if n != 0 {
		t.Fatalf("mark queue = %d entries, want 0", n)
	}
}

func TestTranscriptAppendOnly(t *testing.T) {
	s, _, _ := newTestSession(t)

	s.appendTranscript("Assistant", "Good morning.")
	s.appendTranscript("User", "Hi there.")
	s.appendTranscript("Assistant", "") // empty text is dropped

	want := "Assistant: Good morning.\nUser: Hi there.\n"
	if got := s.Transcript(); got != want {
		t.Fatalf("transcript = %q, want %q", got, want)
	}
}

func TestServeSessionEndsOnSpeechFailure(t *testing.T) {
	s, _, _ := newTestSession(t)
	conn := newFakeConn() // provider stays silent

	aiDone := make(chan error, 1)
	aiDone <- &realtime.Error{Code: "server_error", Message: "boom"}

	errCh := make(chan error, 1)
	go func() { errCh <- (&Bridge{}).serveSession(context.Background(), s, conn, nil, aiDone) }()

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("serveSession returned nil for a speech-service failure")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serveSession did not notice the speech failure on a silent stream")
	}
}

func TestServeSessionEndsOnStop(t *testing.T) {
	s, _, _ := newTestSession(t)
	conn := newFakeConn()
	conn.envs <- &telephony.Envelope{Event: telephony.EventStop}

	if err := (&Bridge{}).serveSession(context.Background(), s, conn, nil, make(chan error, 1)); err != nil {
		t.Fatalf("serveSession error: %v", err)
	}
}

func TestServeSessionEndsOnHangup(t *testing.T) {
	s, _, _ := newTestSession(t)
	conn := newFakeConn()
	close(conn.envs) // read error

	if err := (&Bridge{}).serveSession(context.Background(), s, conn, nil, make(chan error, 1)); err != nil {
		t.Fatalf("serveSession error: %v", err)
	}
}

func TestServeSessionHonorsCancel(t *testing.T) {
	s, _, _ := newTestSession(t)
	conn := newFakeConn() // provider stays silent

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- (&Bridge{}).serveSession(ctx, s, conn, nil, make(chan error, 1)) }()
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("serveSession error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serveSession ignored context cancellation")
	}
}

func TestServeSessionReplaysPreamble(t *testing.T) {
	s, _, ai := newTestSession(t)
	conn := newFakeConn()
	conn.envs <- &telephony.Envelope{Event: telephony.EventStop}

	preamble := []*telephony.Envelope{{
		Event: telephony.EventMedia,
		Media: &telephony.MediaPayload{Timestamp: "40", Payload: "AAAA"},
	}}
	if err := (&Bridge{}).serveSession(context.Background(), s, conn, preamble, make(chan error, 1)); err != nil {
		t.Fatalf("serveSession error: %v", err)
	}
	if len(ai.appended) != 1 || ai.appended[0] != "AAAA" {
		t.Fatalf("preamble audio not forwarded: %v", ai.appended)
	}
}

func TestStoreAddGetRemove(t *testing.T) {
	st := NewStore()
	s, _, _ := newTestSession(t)

	st.Add(s)
	if st.Len() != 1 {
		t.Fatalf("Len = %d, want 1", st.Len())
	}
	if got := st.Get(s.CallID); got != s {
		t.Fatalf("Get returned %v", got)
	}
	st.Remove(s.CallID)
	if got := st.Get(s.CallID); got != nil {
		t.Fatalf("session still present after Remove")
	}
}
