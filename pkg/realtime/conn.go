package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Conn is one live duplex session with the speech service.
type Conn struct {
	ws        *websocket.Conn
	sessionID string

	closeCh   chan struct{}
	eventsCh  chan eventOrError
	closeOnce sync.Once
	closed    atomic.Bool
	mu        sync.Mutex // guards writes and sessionID
}

type eventOrError struct {
	event *ServerEvent
	err   error
}

// Connect dials the service and starts the background read loop.
func (c *Client) Connect(ctx context.Context) (*Conn, error) {
	if c.apiKey == "" {
		return nil, &Error{Code: "missing_api_key", Message: "API key is required"}
	}

	url := fmt.Sprintf("%s?model=%s", c.url, c.model)

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+c.apiKey)

	dialer := websocket.Dialer{HandshakeTimeout: c.httpClient.Timeout}
	ws, resp, err := dialer.DialContext(ctx, url, headers)
	if err != nil {
		if resp != nil {
			return nil, &Error{
				Code:       "connection_failed",
				Message:    fmt.Sprintf("dial: %v", err),
				HTTPStatus: resp.StatusCode,
			}
		}
		return nil, fmt.Errorf("realtime: dial: %w", err)
	}

	conn := &Conn{
		ws:       ws,
		closeCh:  make(chan struct{}),
		eventsCh: make(chan eventOrError, 100),
	}
	go conn.readLoop()
	return conn, nil
}

func newEventID() string {
	return "evt_" + uuid.New().String()[:12]
}

// UpdateSession sends the session configuration. Called exactly once per
// call, before any audio.
func (c *Conn) UpdateSession(cfg *SessionConfig) error {
	return c.send(map[string]any{
		"event_id": newEventID(),
		"type":     EventSessionUpdate,
		"session":  cfg,
	})
}

// AppendAudioBase64 forwards one chunk of caller audio, already base64
// encoded by the telephony provider.
func (c *Conn) AppendAudioBase64(audio string) error {
	return c.send(map[string]any{
		"event_id": newEventID(),
		"type":     EventInputAudioAppend,
		"audio":    audio,
	})
}

// TruncateItem cuts an in-flight assistant item at audioEndMs of played
// audio. Sent on barge-in so the conversation state matches what the caller
// actually heard.
func (c *Conn) TruncateItem(itemID string, audioEndMs int64) error {
	return c.send(map[string]any{
		"event_id":      newEventID(),
		"type":          EventItemTruncate,
		"item_id":       itemID,
		"content_index": 0,
		"audio_end_ms":  audioEndMs,
	})
}

// AddFunctionOutput returns a tool result into the conversation.
func (c *Conn) AddFunctionOutput(callID, output string) error {
	return c.send(map[string]any{
		"event_id": newEventID(),
		"type":     EventItemCreate,
		"item": map[string]any{
			"type":    "function_call_output",
			"call_id": callID,
			"output":  output,
		},
	})
}

// CreateResponse asks the model to continue generating. Sent after a tool
// result so the model speaks to what the tool did.
func (c *Conn) CreateResponse() error {
	return c.send(map[string]any{
		"event_id": newEventID(),
		"type":     EventResponseCreate,
	})
}

// Open reports whether the connection is still usable for sends. It turns
// false after Close or after the read loop hits a connection error.
func (c *Conn) Open() bool {
	return !c.closed.Load()
}

// SessionID returns the server-assigned session ID, or "" before
// session.created arrives.
func (c *Conn) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Events iterates server events until the connection closes or the read
// loop fails. Malformed events are dropped by the read loop and never
// surface here; a yielded error is a connection failure and ends iteration.
func (c *Conn) Events() iter.Seq2[*ServerEvent, error] {
	return func(yield func(*ServerEvent, error) bool) {
		for {
			select {
			case <-c.closeCh:
				return
			case item, ok := <-c.eventsCh:
				if !ok {
					return
				}
				if !yield(item.event, item.err) {
					return
				}
				if item.err != nil {
					return
				}
			}
		}
	}
}

// Close closes the session. Safe to call multiple times.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.closeCh)
		err = c.ws.Close()
	})
	return err
}

func (c *Conn) send(event map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		if data, err := json.Marshal(event); err == nil {
			s := string(data)
			if len(s) > 300 {
				s = s[:300] + "..."
			}
			slog.Debug("realtime: send", "event", s)
		}
	}

	return c.ws.WriteJSON(event)
}

func (c *Conn) readLoop() {
	defer close(c.eventsCh)

	for {
		select {
		case <-c.closeCh:
			return
		default:
		}

		_, message, err := c.ws.ReadMessage()
		if err != nil {
			c.closed.Store(true)
			select {
			case <-c.closeCh:
			case c.eventsCh <- eventOrError{err: fmt.Errorf("realtime: read: %w", err)}:
			}
			return
		}

		if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
			s := string(message)
			if len(s) > 500 {
				s = s[:500] + "..."
			}
			slog.Debug("realtime: recv", "len", len(message), "event", s)
		}

		event, err := parseEvent(message)
		if err != nil {
			// Malformed events are dropped and the session continues;
			// only read failures and service error events end it.
			slog.Warn("realtime: dropping malformed event", "err", err)
			continue
		}

		if event.Type == EventSessionCreated && event.Session != nil {
			c.mu.Lock()
			c.sessionID = event.Session.ID
			c.mu.Unlock()
		}

		select {
		case <-c.closeCh:
			return
		case c.eventsCh <- eventOrError{event: event}:
		}
	}
}

// parseEvent decodes a wire message. For audio deltas the base64 payload is
// decoded eagerly so downstream consumers see raw bytes.
func parseEvent(message []byte) (*ServerEvent, error) {
	var event ServerEvent
	if err := json.Unmarshal(message, &event); err != nil {
		return nil, fmt.Errorf("realtime: parse: %w", err)
	}
	event.Raw = message

	if event.Type == EventOutputAudioDelta && event.Delta != "" {
		decoded, err := base64.StdEncoding.DecodeString(event.Delta)
		if err != nil {
			return nil, fmt.Errorf("realtime: audio delta: %w", err)
		}
		event.Audio = decoded
	}

	return &event, nil
}
