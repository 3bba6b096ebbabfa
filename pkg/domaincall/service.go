package domaincall

import (
	"context"
	"fmt"
)

// Service is the domain operation surface consumed by the tool dispatcher.
// Each operation takes the owning user's id plus typed arguments and returns
// a typed result or an error; there is no side channel. Operations are
// independent and non-transactional.
type Service interface {
	CreateTask(ctx context.Context, userID string, args CreateTaskArgs) (*Task, error)
	CompleteTask(ctx context.Context, userID string, args CompleteTaskArgs) (*Task, error)
	RescheduleTask(ctx context.Context, userID string, args RescheduleTaskArgs) (*Task, error)
	LogHabit(ctx context.Context, userID string, args LogHabitArgs) (*Habit, error)
	UpdateDailyMetrics(ctx context.Context, userID string, args UpdateDailyMetricsArgs) error
	CreateGoal(ctx context.Context, userID string, args CreateGoalArgs) (*Goal, error)
	UpdateUserProfile(ctx context.Context, userID string, args UpdateUserProfileArgs) error

	// UserContext returns the user's active tasks, habits, and goals for
	// instruction assembly at call start.
	UserContext(ctx context.Context, userID string) (*UserContext, error)
}

// Error is a failure reported by the domain service.
type Error struct {
	Op      string
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("domaincall: %s: status %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("domaincall: %s: %s", e.Op, e.Message)
}
