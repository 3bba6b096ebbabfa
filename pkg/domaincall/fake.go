package domaincall

import (
	"context"
	"fmt"
	"sync"
)

// Fake is an in-memory Service that records every call. Tests inspect Calls
// to assert dispatch counts and arguments.
type Fake struct {
	mu    sync.Mutex
	seq   int
	Calls []FakeCall

	// Ctx is returned by UserContext.
	Ctx UserContext

	// Err, when set, is returned by every operation.
	Err error
}

// FakeCall is one recorded operation.
type FakeCall struct {
	Op     string
	UserID string
	Args   any
}

func (f *Fake) record(op, userID string, args any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.Calls = append(f.Calls, FakeCall{Op: op, UserID: userID, Args: args})
}

// CallCount returns how many times op was recorded.
func (f *Fake) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (f *Fake) nextID(prefix string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *Fake) CreateTask(_ context.Context, userID string, args CreateTaskArgs) (*Task, error) {
	f.record("create_task", userID, args)
	if f.Err != nil {
		return nil, f.Err
	}
	return &Task{ID: f.nextID("task"), Title: args.Title}, nil
}

func (f *Fake) CompleteTask(_ context.Context, userID string, args CompleteTaskArgs) (*Task, error) {
	f.record("complete_task", userID, args)
	if f.Err != nil {
		return nil, f.Err
	}
	return &Task{ID: args.TaskID, Completed: true}, nil
}

func (f *Fake) RescheduleTask(_ context.Context, userID string, args RescheduleTaskArgs) (*Task, error) {
	f.record("reschedule_task", userID, args)
	if f.Err != nil {
		return nil, f.Err
	}
	return &Task{ID: args.TaskID}, nil
}

func (f *Fake) LogHabit(_ context.Context, userID string, args LogHabitArgs) (*Habit, error) {
	f.record("log_habit", userID, args)
	if f.Err != nil {
		return nil, f.Err
	}
	return &Habit{ID: f.nextID("habit"), Name: args.Name, Streak: 1}, nil
}

func (f *Fake) UpdateDailyMetrics(_ context.Context, userID string, args UpdateDailyMetricsArgs) error {
	f.record("update_daily_metrics", userID, args)
	return f.Err
}

func (f *Fake) CreateGoal(_ context.Context, userID string, args CreateGoalArgs) (*Goal, error) {
	f.record("create_goal", userID, args)
	if f.Err != nil {
		return nil, f.Err
	}
	return &Goal{ID: f.nextID("goal"), Title: args.Title}, nil
}

func (f *Fake) UpdateUserProfile(_ context.Context, userID string, args UpdateUserProfileArgs) error {
	f.record("update_user_profile", userID, args)
	return f.Err
}

func (f *Fake) UserContext(_ context.Context, userID string) (*UserContext, error) {
	f.record("user_context", userID, nil)
	if f.Err != nil {
		return nil, f.Err
	}
	ctx := f.Ctx
	return &ctx, nil
}

var _ Service = (*Fake)(nil)
