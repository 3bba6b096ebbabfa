package realtime

import "fmt"

// Error is a service-reported or connection-level failure. Connection
// failures are terminal for the session.
type Error struct {
	// Type is the error class (e.g. "invalid_request_error").
	Type string `json:"type,omitempty"`

	// Code is the machine-readable error code.
	Code string `json:"code,omitempty"`

	// Message is the human-readable description.
	Message string `json:"message,omitempty"`

	// HTTPStatus is set when the websocket handshake itself failed.
	HTTPStatus int `json:"-"`
}

func (e *Error) Error() string {
	switch {
	case e.Code != "":
		return fmt.Sprintf("realtime: %s: %s", e.Code, e.Message)
	case e.Type != "":
		return fmt.Sprintf("realtime: %s: %s", e.Type, e.Message)
	default:
		return fmt.Sprintf("realtime: %s", e.Message)
	}
}

// ErrorBody is the error payload carried by an error event.
type ErrorBody struct {
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	EventID string `json:"event_id,omitempty"`
}

// ToError converts the event payload to an Error.
func (e *ErrorBody) ToError() *Error {
	return &Error{Type: e.Type, Code: e.Code, Message: e.Message}
}
