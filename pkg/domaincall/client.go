package domaincall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the domain service over HTTP/JSON.
type Client struct {
	baseURL string
	token   string
	hc      *http.Client
}

// NewClient creates a domain service client. baseURL has no trailing slash.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		hc:      &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) CreateTask(ctx context.Context, userID string, args CreateTaskArgs) (*Task, error) {
	var out Task
	if err := c.do(ctx, "create_task", http.MethodPost, fmt.Sprintf("/users/%s/tasks", userID), args, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CompleteTask(ctx context.Context, userID string, args CompleteTaskArgs) (*Task, error) {
	var out Task
	path := fmt.Sprintf("/users/%s/tasks/%s/complete", userID, args.TaskID)
	if err := c.do(ctx, "complete_task", http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RescheduleTask(ctx context.Context, userID string, args RescheduleTaskArgs) (*Task, error) {
	var out Task
	path := fmt.Sprintf("/users/%s/tasks/%s/reschedule", userID, args.TaskID)
	if err := c.do(ctx, "reschedule_task", http.MethodPost, path, args, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LogHabit(ctx context.Context, userID string, args LogHabitArgs) (*Habit, error) {
	var out Habit
	if err := c.do(ctx, "log_habit", http.MethodPost, fmt.Sprintf("/users/%s/habits/log", userID), args, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateDailyMetrics(ctx context.Context, userID string, args UpdateDailyMetricsArgs) error {
	return c.do(ctx, "update_daily_metrics", http.MethodPost, fmt.Sprintf("/users/%s/metrics", userID), args, nil)
}

func (c *Client) CreateGoal(ctx context.Context, userID string, args CreateGoalArgs) (*Goal, error) {
	var out Goal
	if err := c.do(ctx, "create_goal", http.MethodPost, fmt.Sprintf("/users/%s/goals", userID), args, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUserProfile(ctx context.Context, userID string, args UpdateUserProfileArgs) error {
	return c.do(ctx, "update_user_profile", http.MethodPatch, fmt.Sprintf("/users/%s/profile", userID), args, nil)
}

func (c *Client) UserContext(ctx context.Context, userID string) (*UserContext, error) {
	var out UserContext
	if err := c.do(ctx, "user_context", http.MethodGet, fmt.Sprintf("/users/%s/context", userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("domaincall: %s: marshal: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("domaincall: %s: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return &Error{Op: op, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &Error{Op: op, Status: resp.StatusCode, Message: string(msg)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("domaincall: %s: decode: %w", op, err)
	}
	return nil
}

var _ Service = (*Client)(nil)
