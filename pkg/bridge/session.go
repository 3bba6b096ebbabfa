package bridge

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/attainly/voicebridge/pkg/callstore"
	"github.com/attainly/voicebridge/pkg/persona"
	"github.com/attainly/voicebridge/pkg/telephony"
)

const (
	// FrameSize is the fixed frame length in bytes: 20 ms of G.711 audio
	// at 8 kHz, one byte per sample.
	FrameSize = 160

	// FrameInterval is the real-time duration of one frame, and therefore
	// the pacer tick interval.
	FrameInterval = 20 * time.Millisecond

	// resumeDelay is how long the interrupted flag stays set after a
	// barge-in, so frames of the cancelled response still in flight are
	// dropped rather than racing the next response.
	resumeDelay = 200 * time.Millisecond
)

// AIConn is the bridge's view of the speech-service connection. Satisfied
// by *realtime.Conn; faked in tests.
type AIConn interface {
	AppendAudioBase64(audio string) error
	TruncateItem(itemID string, audioEndMs int64) error
	AddFunctionOutput(callID, output string) error
	CreateResponse() error
	Open() bool
	Close() error
}

// Session is the transient in-memory state of one active call. All mutable
// fields are guarded by mu; the three per-call goroutines never hold the
// lock across an I/O call.
type Session struct {
	CallID   string
	UserID   string
	RecordID string // correlation id of a pre-scheduled call record, "" for inbound
	Mode     persona.Mode
	Briefing *callstore.Briefing

	tel       telephony.Sender
	ai        AIConn
	dispatch  *Dispatcher
	log       *slog.Logger
	startedAt time.Time

	mu         sync.Mutex
	streamSID  string
	transcript strings.Builder
	audioBuf   []byte
	frameQueue [][]byte
	marks      []string
	markSeq    int
	interrupted bool

	// Playback-elapsed tracking for truncation on barge-in.
	lastItemID      string
	responseStartMs int64 // -1 while no response is in flight
	latestInboundMs int64

	pacerStop chan struct{}
	pacerOnce sync.Once
	finalOnce sync.Once
}

func newSession(callID string, p StartParams, tel telephony.Sender, ai AIConn, dispatch *Dispatcher, log *slog.Logger) *Session {
	return &Session{
		CallID:          callID,
		UserID:          p.UserID,
		RecordID:        p.RecordID,
		Mode:            p.Mode,
		Briefing:        p.Briefing,
		tel:             tel,
		ai:              ai,
		dispatch:        dispatch,
		log:             log,
		startedAt:       time.Now(),
		streamSID:       p.StreamSID,
		responseStartMs: -1,
		pacerStop:       make(chan struct{}),
	}
}

// StreamSID returns the provider-assigned stream id, "" before start.
func (s *Session) StreamSID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamSID
}

// Transcript returns the accumulated transcript so far.
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.String()
}

// appendTranscript appends one "Role: text" line. The transcript is
// append-only; lines land in event-arrival order.
func (s *Session) appendTranscript(role, text string) {
	if text == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(&s.transcript, "%s: %s\n", role, text)
}

// queuedFrames reports the frame-queue depth. Diagnostics only.
func (s *Session) queuedFrames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frameQueue)
}

// Store is the registry of active sessions, keyed by call id. It is the
// only structure shared across sessions; it is touched once at call setup
// and once at teardown.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty registry.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Add registers a session under its call id.
func (st *Store) Add(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.CallID] = s
}

// Get looks up a session, nil if absent.
func (st *Store) Get(callID string) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sessions[callID]
}

// Remove drops a session from the registry.
func (st *Store) Remove(callID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, callID)
}

// Len reports how many calls are live.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
