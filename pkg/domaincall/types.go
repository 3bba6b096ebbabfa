package domaincall

import "time"

// CreateTaskArgs creates a to-do item, optionally with a due time for
// reminders.
type CreateTaskArgs struct {
	Title       string `json:"title" jsonschema:"the task title"`
	Description string `json:"description,omitempty" jsonschema:"optional details"`
	DueAt       string `json:"due_at,omitempty" jsonschema:"due date/time in the user's local timezone, RFC 3339 without offset, e.g. 2026-09-01T20:05:00"`
	Priority    string `json:"priority,omitempty" jsonschema:"low, medium, or high"`
}

// CompleteTaskArgs marks an existing task done.
type CompleteTaskArgs struct {
	TaskID string `json:"task_id" jsonschema:"id of the task to complete"`
}

// RescheduleTaskArgs moves a task's due time.
type RescheduleTaskArgs struct {
	TaskID   string `json:"task_id" jsonschema:"id of the task to reschedule"`
	NewDueAt string `json:"new_due_at" jsonschema:"new due date/time, same format as create_task"`
}

// LogHabitArgs records one habit completion.
type LogHabitArgs struct {
	Name  string `json:"name" jsonschema:"habit name"`
	Notes string `json:"notes,omitempty" jsonschema:"optional notes"`
}

// UpdateDailyMetricsArgs records daily check-in numbers.
type UpdateDailyMetricsArgs struct {
	SleepQuality int    `json:"sleep_quality,omitempty" jsonschema:"1-10 sleep quality"`
	Mood         int    `json:"mood,omitempty" jsonschema:"1-10 mood"`
	Energy       int    `json:"energy,omitempty" jsonschema:"1-10 energy"`
	Notes        string `json:"notes,omitempty" jsonschema:"optional notes"`
}

// CreateGoalArgs creates a longer-horizon goal.
type CreateGoalArgs struct {
	Title       string `json:"title" jsonschema:"goal title"`
	Description string `json:"description,omitempty" jsonschema:"optional details"`
	TargetDate  string `json:"target_date,omitempty" jsonschema:"target date, YYYY-MM-DD"`
}

// UpdateUserProfileArgs records something newly learned about the user.
type UpdateUserProfileArgs struct {
	Field string `json:"field" jsonschema:"profile field to update"`
	Value string `json:"value" jsonschema:"new value"`
}

// Task is a task summary as returned by the service.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	DueAt     time.Time `json:"due_at,omitzero"`
	Completed bool      `json:"completed"`
}

// Habit is a tracked habit with its current streak.
type Habit struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Streak int    `json:"streak"`
}

// Goal is an active goal.
type Goal struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	TargetDate time.Time `json:"target_date,omitzero"`
}

// UserContext is the slice of domain state injected into call instructions.
type UserContext struct {
	Name        string  `json:"name"`
	Timezone    string  `json:"timezone,omitempty"`
	Personality string  `json:"personality,omitempty"`
	Tasks       []Task  `json:"tasks,omitempty"`
	Habits      []Habit `json:"habits,omitempty"`
	Goals       []Goal  `json:"goals,omitempty"`
}
