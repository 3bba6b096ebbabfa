package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/kaptinlin/jsonrepair"

	"github.com/attainly/voicebridge/pkg/domaincall"
	"github.com/attainly/voicebridge/pkg/realtime"
)

// FunctionOutput is the subset of the speech connection the dispatcher
// writes results back through.
type FunctionOutput interface {
	AddFunctionOutput(callID, output string) error
	CreateResponse() error
}

// toolResult is the JSON envelope sent back to the model for every tool
// invocation, success or failure.
type toolResult struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

type toolHandler struct {
	tool   realtime.Tool
	invoke func(ctx context.Context, userID, args string) (any, error)
}

// Dispatcher routes model-requested function calls to the domain service.
// Tool failures are reported back into the conversation as error results;
// they never abort the call.
type Dispatcher struct {
	svc  domaincall.Service
	log  *slog.Logger
	reg  map[string]*toolHandler
	list []realtime.Tool
}

func NewDispatcher(svc domaincall.Service, log *slog.Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		svc: svc,
		log: log,
		reg: make(map[string]*toolHandler),
	}
	if err := registerTools(d); err != nil {
		return nil, err
	}
	return d, nil
}

// Tools returns the declarations to advertise in the session configuration.
func (d *Dispatcher) Tools() []realtime.Tool {
	return d.list
}

// Dispatch executes one function-call item and feeds the result back. Safe
// to run on its own goroutine.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, item *realtime.Item, out FunctionOutput) {
	result := d.run(ctx, userID, item)

	payload, err := json.Marshal(result)
	if err != nil {
		d.log.Error("bridge: marshal tool result", "function", item.Name, "err", err)
		payload = []byte(`{"type":"error","error":"internal result encoding failure"}`)
	}
	if err := out.AddFunctionOutput(item.CallID, string(payload)); err != nil {
		d.log.Warn("bridge: send function output", "function", item.Name, "err", err)
		return
	}
	if err := out.CreateResponse(); err != nil {
		d.log.Warn("bridge: request follow-up response", "function", item.Name, "err", err)
	}
}

func (d *Dispatcher) run(ctx context.Context, userID string, item *realtime.Item) (result *toolResult) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("bridge: tool panicked", "function", item.Name, "panic", r)
			result = &toolResult{Type: "error", Error: fmt.Sprintf("%s failed", item.Name)}
		}
	}()

	h, ok := d.reg[item.Name]
	if !ok {
		d.log.Warn("bridge: unknown function requested", "function", item.Name)
		return &toolResult{Type: "error", Error: fmt.Sprintf("unknown function: %s", item.Name)}
	}

	data, err := h.invoke(ctx, userID, item.Arguments)
	if err != nil {
		d.log.Warn("bridge: tool failed", "function", item.Name, "err", err)
		return &toolResult{Type: "error", Error: err.Error()}
	}
	d.log.Info("bridge: tool completed", "function", item.Name, "user", userID)
	return &toolResult{Type: item.Name, Data: data}
}

// register adds one tool whose argument schema is derived from ArgType.
func register[ArgType any](d *Dispatcher, name, description string,
	fn func(ctx context.Context, userID string, args ArgType) (any, error)) error {

	schema, err := jsonschema.For[ArgType](nil)
	if err != nil {
		return fmt.Errorf("bridge: schema for %s: %w", name, err)
	}
	h := &toolHandler{
		tool: realtime.Tool{
			Type:        "function",
			Name:        name,
			Description: description,
			Parameters:  schema,
		},
		invoke: func(ctx context.Context, userID, raw string) (any, error) {
			var args ArgType
			if err := unmarshalArgs([]byte(raw), &args); err != nil {
				return nil, fmt.Errorf("bridge: parse %s arguments: %w", name, err)
			}
			return fn(ctx, userID, args)
		},
	}
	d.reg[name] = h
	d.list = append(d.list, h.tool)
	return nil
}

// unmarshalArgs decodes tool arguments, repairing malformed JSON the model
// occasionally emits before giving up.
func unmarshalArgs(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, rerr := jsonrepair.JSONRepair(string(data))
		if rerr != nil {
			return err
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}

func registerTools(d *Dispatcher) error {
	if err := register(d, "create_task",
		"Create a new task for the user. Use when the user commits to doing something.",
		func(ctx context.Context, userID string, args domaincall.CreateTaskArgs) (any, error) {
			return d.svc.CreateTask(ctx, userID, args)
		}); err != nil {
		return err
	}
	if err := register(d, "complete_task",
		"Mark an existing task as completed.",
		func(ctx context.Context, userID string, args domaincall.CompleteTaskArgs) (any, error) {
			return d.svc.CompleteTask(ctx, userID, args)
		}); err != nil {
		return err
	}
	if err := register(d, "reschedule_task",
		"Move an existing task to a new date or time.",
		func(ctx context.Context, userID string, args domaincall.RescheduleTaskArgs) (any, error) {
			return d.svc.RescheduleTask(ctx, userID, args)
		}); err != nil {
		return err
	}
	if err := register(d, "log_habit",
		"Record a completion for one of the user's habits.",
		func(ctx context.Context, userID string, args domaincall.LogHabitArgs) (any, error) {
			return d.svc.LogHabit(ctx, userID, args)
		}); err != nil {
		return err
	}
	if err := register(d, "update_daily_metrics",
		"Record the user's self-reported daily metrics such as mood and energy.",
		func(ctx context.Context, userID string, args domaincall.UpdateDailyMetricsArgs) (any, error) {
			if err := d.svc.UpdateDailyMetrics(ctx, userID, args); err != nil {
				return nil, err
			}
			return map[string]bool{"recorded": true}, nil
		}); err != nil {
		return err
	}
	if err := register(d, "create_goal",
		"Create a new long-term goal for the user.",
		func(ctx context.Context, userID string, args domaincall.CreateGoalArgs) (any, error) {
			return d.svc.CreateGoal(ctx, userID, args)
		}); err != nil {
		return err
	}
	if err := register(d, "update_user_profile",
		"Update the user's profile preferences such as timezone or personality.",
		func(ctx context.Context, userID string, args domaincall.UpdateUserProfileArgs) (any, error) {
			if err := d.svc.UpdateUserProfile(ctx, userID, args); err != nil {
				return nil, err
			}
			return map[string]bool{"updated": true}, nil
		}); err != nil {
		return err
	}
	return nil
}
