package callstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Sentinel errors.
var (
	// ErrNotFound is returned when no record exists under the given key.
	ErrNotFound = errors.New("callstore: not found")

	// ErrBadTransition is returned for an illegal status change.
	ErrBadTransition = errors.New("callstore: illegal status transition")
)

const (
	prefixCall        = "call"
	prefixInteraction = "inter"
	sep               = byte(':')
)

// Store persists call records and interactions in BadgerDB.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a store at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("callstore: open %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens a store with no disk persistence. Used by tests and by
// deployments that rebuild state from the scheduler.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("callstore: open in-memory: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func key(prefix, userID, id string) []byte {
	k := make([]byte, 0, len(prefix)+len(userID)+len(id)+2)
	k = append(k, prefix...)
	k = append(k, sep)
	k = append(k, userID...)
	k = append(k, sep)
	k = append(k, id...)
	return k
}

func userPrefix(prefix, userID string) []byte {
	k := make([]byte, 0, len(prefix)+len(userID)+2)
	k = append(k, prefix...)
	k = append(k, sep)
	k = append(k, userID...)
	k = append(k, sep)
	return k
}

// CreateRecord inserts a new call record. A missing ID is assigned; a
// missing status defaults to scheduled for outbound and completed-pending
// callers should set explicitly otherwise.
func (s *Store) CreateRecord(_ context.Context, rec *CallRecord) error {
	if rec.UserID == "" {
		return errors.New("callstore: record requires user id")
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Status == "" {
		rec.Status = StatusScheduled
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	return s.put(key(prefixCall, rec.UserID, rec.ID), rec)
}

// GetRecord fetches one call record.
func (s *Store) GetRecord(_ context.Context, userID, id string) (*CallRecord, error) {
	var rec CallRecord
	if err := s.get(key(prefixCall, userID, id), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdateStatus moves a record along the one-directional lifecycle.
func (s *Store) UpdateStatus(ctx context.Context, userID, id string, to Status) error {
	return s.mutateRecord(userID, id, func(rec *CallRecord) error {
		if !rec.Status.next(to) {
			return fmt.Errorf("%w: %s -> %s", ErrBadTransition, rec.Status, to)
		}
		rec.Status = to
		if to.terminal() {
			rec.CompletedAt = time.Now()
		}
		return nil
	})
}

// CompleteRecord marks the record completed and attaches the interaction the
// finalizer wrote.
func (s *Store) CompleteRecord(ctx context.Context, userID, id, interactionID string) error {
	return s.mutateRecord(userID, id, func(rec *CallRecord) error {
		if !rec.Status.next(StatusCompleted) {
			return fmt.Errorf("%w: %s -> %s", ErrBadTransition, rec.Status, StatusCompleted)
		}
		rec.Status = StatusCompleted
		rec.InteractionID = interactionID
		rec.CompletedAt = time.Now()
		return nil
	})
}

// Enrich writes post-call analysis results onto a terminal record. This is
// the only mutation allowed after completion.
func (s *Store) Enrich(ctx context.Context, userID, id, summary string, outcome *OutcomeAssessment) error {
	return s.mutateRecord(userID, id, func(rec *CallRecord) error {
		if !rec.Status.terminal() {
			return fmt.Errorf("callstore: enrich on non-terminal record %s (%s)", id, rec.Status)
		}
		if summary != "" {
			rec.ConversationSummary = summary
		}
		if outcome != nil {
			rec.Outcome = outcome
		}
		return nil
	})
}

// CreateInteraction appends a finished conversation and returns its ID.
func (s *Store) CreateInteraction(_ context.Context, in *Interaction) (string, error) {
	if in.UserID == "" {
		return "", errors.New("callstore: interaction requires user id")
	}
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}
	if err := s.put(key(prefixInteraction, in.UserID, in.ID), in); err != nil {
		return "", err
	}
	return in.ID, nil
}

// GetInteraction fetches one interaction.
func (s *Store) GetInteraction(_ context.Context, userID, id string) (*Interaction, error) {
	var in Interaction
	if err := s.get(key(prefixInteraction, userID, id), &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// RecentHistory returns up to limit call records for a user, most recent
// first.
func (s *Store) RecentHistory(ctx context.Context, userID string, limit int) ([]*CallRecord, error) {
	recs, err := s.listRecords(userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt.After(recs[j].CreatedAt) })
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// EffectivenessMetrics aggregates outcome assessments for one call type.
type EffectivenessMetrics struct {
	Total        int `json:"total"`
	GoalAchieved int `json:"goal_achieved"`
	High         int `json:"high"`
	Medium       int `json:"medium"`
	Low          int `json:"low"`
}

// Effectiveness aggregates assessed outbound calls by call type.
func (s *Store) Effectiveness(ctx context.Context, userID string) (map[CallType]*EffectivenessMetrics, error) {
	recs, err := s.listRecords(userID)
	if err != nil {
		return nil, err
	}
	metrics := make(map[CallType]*EffectivenessMetrics)
	for _, rec := range recs {
		if rec.Direction != DirectionOutbound || rec.Outcome == nil {
			continue
		}
		m := metrics[rec.CallType]
		if m == nil {
			m = &EffectivenessMetrics{}
			metrics[rec.CallType] = m
		}
		m.Total++
		if rec.Outcome.GoalAchieved {
			m.GoalAchieved++
		}
		switch rec.Outcome.Effectiveness {
		case EffectivenessHigh:
			m.High++
		case EffectivenessMedium:
			m.Medium++
		case EffectivenessLow:
			m.Low++
		}
	}
	return metrics, nil
}

// NeedingFollowUp returns completed calls whose assessment flagged a
// follow-up.
func (s *Store) NeedingFollowUp(ctx context.Context, userID string) ([]*CallRecord, error) {
	recs, err := s.listRecords(userID)
	if err != nil {
		return nil, err
	}
	var out []*CallRecord
	for _, rec := range recs {
		if rec.Status == StatusCompleted && rec.Outcome != nil && rec.Outcome.FollowUpNeeded {
			out = append(out, rec)
		}
	}
	return out, nil
}

// ByInteraction finds the record linked to an interaction, or ErrNotFound.
func (s *Store) ByInteraction(ctx context.Context, userID, interactionID string) (*CallRecord, error) {
	recs, err := s.listRecords(userID)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		if rec.InteractionID == interactionID {
			return rec, nil
		}
	}
	return nil, ErrNotFound
}

func (s *Store) listRecords(userID string) ([]*CallRecord, error) {
	var recs []*CallRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = userPrefix(prefixCall, userID)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec CallRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}
				recs = append(recs, &rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("callstore: list records: %w", err)
	}
	return recs, nil
}

func (s *Store) mutateRecord(userID, id string, fn func(*CallRecord) error) error {
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key(prefixCall, userID, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var rec CallRecord
		if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &rec) }); err != nil {
			return err
		}
		if err := fn(&rec); err != nil {
			return err
		}
		data, err := json.Marshal(&rec)
		if err != nil {
			return err
		}
		return txn.Set(key(prefixCall, userID, id), data)
	})
}

func (s *Store) put(k []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("callstore: marshal: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error { return txn.Set(k, data) })
}

func (s *Store) get(k []byte, v any) error {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error { return json.Unmarshal(val, v) })
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}
