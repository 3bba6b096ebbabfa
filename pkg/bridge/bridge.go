package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/attainly/voicebridge/pkg/archive"
	"github.com/attainly/voicebridge/pkg/callstore"
	"github.com/attainly/voicebridge/pkg/domaincall"
	"github.com/attainly/voicebridge/pkg/persona"
	"github.com/attainly/voicebridge/pkg/realtime"
	"github.com/attainly/voicebridge/pkg/telephony"
)

// Bridge joins provider media streams to the speech service. One Bridge
// serves all calls; each call gets its own Session.
type Bridge struct {
	Realtime *realtime.Client
	Records  *callstore.Store
	Domain   domaincall.Service
	Personas *persona.Library
	Sessions *Store

	// Archive receives finished transcripts. Optional.
	Archive archive.Store

	// Analyzer enriches completed records after the fact. Optional.
	Analyzer        Analyzer
	AnalysisTimeout time.Duration

	// Voice selects the synthesized voice, realtime.VoiceAlloy if empty.
	Voice string

	Logger *slog.Logger

	dispatch *Dispatcher
}

// New wires a Bridge and registers the tool surface.
func New(b *Bridge) (*Bridge, error) {
	if b.Logger == nil {
		b.Logger = slog.Default()
	}
	if b.Sessions == nil {
		b.Sessions = NewStore()
	}
	if b.Personas == nil {
		b.Personas = persona.Default()
	}
	d, err := NewDispatcher(b.Domain, b.Logger)
	if err != nil {
		return nil, err
	}
	b.dispatch = d
	return b, nil
}

// Transport is the provider connection as the bridge sees it. Satisfied by
// *telephony.Conn.
type Transport interface {
	telephony.Sender
	ReadEnvelope() (*telephony.Envelope, error)
}

// StartParams identifies the call being bridged. For scheduler-originated
// calls RecordID names the pre-created call record; inbound calls leave it
// empty and the finalizer creates the record.
type StartParams struct {
	UserID   string
	CallID   string
	RecordID string
	Mode     persona.Mode
	Briefing *callstore.Briefing

	// StreamSID is set when the transport already consumed the stream's
	// start event before handing the connection over.
	StreamSID string

	// Preamble holds envelopes read before the start event (some transports
	// send media first); they are replayed into the session before the
	// event loop begins.
	Preamble []*telephony.Envelope
}

// HandleStream runs one call end to end: it owns the provider connection,
// dials the speech service, and returns once the call is finalized. The
// provider connection is not closed here; the transport layer that
// accepted it does that.
func (b *Bridge) HandleStream(ctx context.Context, tel Transport, p StartParams) error {
	if p.UserID == "" {
		return fmt.Errorf("bridge: stream without user id")
	}
	if p.CallID == "" {
		p.CallID = uuid.New().String()
	}

	log := b.Logger.With("call", p.CallID, "user", p.UserID, "mode", p.Mode.Kind)

	// A briefing failure degrades to a generic call rather than refusing it.
	if p.Briefing == nil && p.RecordID != "" {
		if rec, err := b.Records.GetRecord(ctx, p.UserID, p.RecordID); err != nil {
			log.Warn("bridge: load call record", "record", p.RecordID, "err", err)
		} else {
			p.Briefing = rec.Briefing
		}
	}

	uc, err := b.Domain.UserContext(ctx, p.UserID)
	if err != nil {
		log.Warn("bridge: load user context", "err", err)
		uc = nil
	}

	instructions, err := b.Personas.Instructions(p.Mode, uc, p.Briefing, time.Now())
	if err != nil {
		return fmt.Errorf("bridge: render instructions: %w", err)
	}

	ai, err := b.Realtime.Connect(ctx)
	if err != nil {
		return fmt.Errorf("bridge: connect speech service: %w", err)
	}

	voice := b.Voice
	if voice == "" {
		voice = realtime.VoiceAlloy
	}
	cfg := &realtime.SessionConfig{
		Modalities:        []string{"audio", "text"},
		Instructions:      instructions,
		Voice:             voice,
		InputAudioFormat:  realtime.AudioFormatG711ULaw,
		OutputAudioFormat: realtime.AudioFormatG711ULaw,
		InputAudioTranscription: &realtime.TranscriptionConfig{
			Model: "whisper-1",
		},
		TurnDetection: &realtime.TurnDetection{Type: realtime.VADServer},
		Tools:         b.dispatch.Tools(),
	}
	if err := ai.UpdateSession(cfg); err != nil {
		ai.Close()
		return fmt.Errorf("bridge: configure session: %w", err)
	}

	s := newSession(p.CallID, p, tel, ai, b.dispatch, log)
	b.Sessions.Add(s)
	s.startPacer(FrameInterval)
	defer b.finalize(context.WithoutCancel(ctx), s)

	// Kick off the greeting; the model speaks first on every call mode.
	if err := ai.CreateResponse(); err != nil {
		log.Warn("bridge: request greeting", "err", err)
	}

	aiDone := make(chan error, 1)
	go func() { aiDone <- s.runAIEvents(ctx, ai) }()

	return b.serveSession(ctx, s, tel, p.Preamble, aiDone)
}

// serveSession pumps provider events and watches the speech-service loop,
// returning when either side ends the call or the context is canceled. A
// dead speech connection ends the call even while the provider is silent.
func (b *Bridge) serveSession(ctx context.Context, s *Session, tel Transport, preamble []*telephony.Envelope, aiDone <-chan error) error {
	for _, env := range preamble {
		if s.handleTelephonyEvent(env) {
			return nil
		}
	}

	done := make(chan struct{})
	defer close(done)

	envCh := make(chan *telephony.Envelope)
	readDone := make(chan struct{})
	go func() {
		for {
			env, err := tel.ReadEnvelope()
			if err != nil {
				var perr *telephony.ProtocolError
				if errors.As(err, &perr) {
					// Malformed event; drop it, the call continues.
					s.log.Warn("bridge: bad provider event", "err", perr)
					continue
				}
				// Provider hangup or transport failure, either way the
				// call is over.
				s.log.Info("bridge: provider stream closed", "err", err)
				close(readDone)
				return
			}
			select {
			case envCh <- env:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("bridge: canceled", "err", ctx.Err())
			return nil
		case <-readDone:
			return nil
		case err := <-aiDone:
			if err != nil {
				s.log.Error("bridge: speech service failed", "err", err)
			}
			return err
		case env := <-envCh:
			if s.handleTelephonyEvent(env) {
				return nil
			}
		}
	}
}

// runAIEvents drains the speech-service event stream until it ends. A
// returned error is a service-reported failure; nil means a clean close.
func (s *Session) runAIEvents(ctx context.Context, ai *realtime.Conn) error {
	for ev, err := range ai.Events() {
		if err != nil {
			return err
		}
		if err := s.handleAIEvent(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}
