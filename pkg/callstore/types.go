package callstore

import "time"

// Direction of a call relative to the user.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// CallType enumerates the scheduled intervention kinds.
type CallType string

const (
	CallReflection CallType = "reflection"
	CallReminder   CallType = "reminder"
	CallBriefing   CallType = "briefing"
	CallScolding   CallType = "scolding"
	CallWakeUp     CallType = "wake_up"
	CallCheckIn    CallType = "check_in"
)

// Status is the lifecycle state of a call record. Transitions are
// one-directional; see Store.UpdateStatus.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// terminal reports whether no further status transition is allowed.
func (s Status) terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// next reports whether a transition from s to t is legal.
func (s Status) next(t Status) bool {
	switch s {
	case StatusScheduled:
		return t == StatusInProgress || t == StatusCompleted || t == StatusFailed
	case StatusInProgress:
		return t == StatusCompleted || t == StatusFailed
	default:
		return false
	}
}

// Briefing is the structured context an external planning process prepares
// for a call. It is injected into the session instructions at call start.
type Briefing struct {
	TriggerReason    string   `json:"trigger_reason,omitempty"`
	ObservedPatterns []string `json:"observed_patterns,omitempty"`
	ConversationGoals []string `json:"conversation_goals,omitempty"`
	RecentContext    string   `json:"recent_context,omitempty"`
}

// Effectiveness tiers for an outcome assessment.
const (
	EffectivenessHigh   = "high"
	EffectivenessMedium = "medium"
	EffectivenessLow    = "low"
)

// OutcomeAssessment is written back by the external analysis collaborator
// after a call completes.
type OutcomeAssessment struct {
	GoalAchieved   bool   `json:"goal_achieved"`
	Effectiveness  string `json:"effectiveness,omitempty"`
	FollowUpNeeded bool   `json:"follow_up_needed,omitempty"`
}

// CallRecord is the persisted, cross-lifecycle record of one call.
type CallRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Direction Direction `json:"direction"`
	CallType  CallType  `json:"call_type"`
	Status    Status    `json:"status"`

	// ScheduledFor is set on scheduler-originated outbound calls only.
	ScheduledFor time.Time `json:"scheduled_for,omitzero"`

	Briefing *Briefing `json:"briefing,omitempty"`

	// Enrichment fields, written after completion by external analysis.
	ConversationSummary string             `json:"conversation_summary,omitempty"`
	Outcome             *OutcomeAssessment `json:"outcome_assessment,omitempty"`

	// InteractionID links the record to the interaction the finalizer wrote.
	InteractionID string `json:"interaction_id,omitempty"`

	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
}

// Interaction is one finished conversation, appended exactly once per call.
type Interaction struct {
	ID         string        `json:"id"`
	UserID     string        `json:"user_id"`
	CallType   CallType      `json:"call_type"`
	Transcript string        `json:"transcript"`
	Duration   time.Duration `json:"duration"`
	CreatedAt  time.Time     `json:"created_at"`
}
