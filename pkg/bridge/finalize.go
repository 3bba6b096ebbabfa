package bridge

import (
	"context"
	"time"

	"github.com/attainly/voicebridge/pkg/archive"
	"github.com/attainly/voicebridge/pkg/callstore"
)

// Analyzer produces a post-call summary and outcome assessment from a
// finished transcript. Implementations may call out to a language model;
// the finalizer runs them off the teardown path.
type Analyzer interface {
	Analyze(ctx context.Context, callType callstore.CallType, transcript string) (summary string, outcome *callstore.OutcomeAssessment, err error)
}

// finalize tears down one session: ordered so that by the time the session
// leaves the registry, its durable record and interaction already exist.
// Runs exactly once regardless of how many paths reach it.
func (b *Bridge) finalize(ctx context.Context, s *Session) {
	s.finalOnce.Do(func() {
		s.stopPacer()
		if err := s.ai.Close(); err != nil {
			s.log.Warn("bridge: close speech connection", "call", s.CallID, "err", err)
		}

		duration := time.Since(s.startedAt)
		transcript := s.Transcript()

		in := &callstore.Interaction{
			UserID:     s.UserID,
			CallType:   s.Mode.Kind,
			Transcript: transcript,
			Duration:   duration,
		}
		interactionID, err := b.Records.CreateInteraction(ctx, in)
		if err != nil {
			s.log.Error("bridge: persist interaction", "call", s.CallID, "err", err)
		}

		recordID := s.RecordID
		if recordID != "" {
			if err := b.Records.CompleteRecord(ctx, s.UserID, recordID, interactionID); err != nil {
				s.log.Error("bridge: complete call record", "call", s.CallID, "record", recordID, "err", err)
			}
		} else {
			rec := &callstore.CallRecord{
				UserID:        s.UserID,
				Direction:     callstore.DirectionInbound,
				CallType:      s.Mode.Kind,
				Status:        callstore.StatusCompleted,
				InteractionID: interactionID,
				CompletedAt:   time.Now(),
			}
			if err := b.Records.CreateRecord(ctx, rec); err != nil {
				s.log.Error("bridge: persist inbound call record", "call", s.CallID, "err", err)
			} else {
				recordID = rec.ID
			}
		}

		if b.Archive != nil && interactionID != "" {
			path := archive.TranscriptPath(s.UserID, interactionID)
			if err := b.Archive.Put(ctx, path, []byte(transcript)); err != nil {
				s.log.Warn("bridge: archive transcript", "call", s.CallID, "err", err)
			}
		}

		s.log.Info("bridge: session finalized",
			"call", s.CallID,
			"user", s.UserID,
			"interaction", interactionID,
			"duration", duration)

		if b.Analyzer != nil && recordID != "" && transcript != "" {
			go b.analyze(s, recordID, transcript)
		}

		// Removal comes last so a late provider event still finds the
		// session and is ignored gracefully rather than resurrecting one.
		b.Sessions.Remove(s.CallID)
	})
}

// analyze runs post-call analysis and enriches the terminal record. Failures
// are logged and dropped; the call is already over.
func (b *Bridge) analyze(s *Session, recordID, transcript string) {
	ctx, cancel := context.WithTimeout(context.Background(), b.analysisTimeout())
	defer cancel()

	summary, outcome, err := b.Analyzer.Analyze(ctx, s.Mode.Kind, transcript)
	if err != nil {
		s.log.Warn("bridge: post-call analysis", "call", s.CallID, "err", err)
		return
	}
	if err := b.Records.Enrich(ctx, s.UserID, recordID, summary, outcome); err != nil {
		s.log.Warn("bridge: enrich call record", "call", s.CallID, "record", recordID, "err", err)
	}
}

func (b *Bridge) analysisTimeout() time.Duration {
	if b.AnalysisTimeout > 0 {
		return b.AnalysisTimeout
	}
	return 60 * time.Second
}
