package telephony

import "fmt"

// ProtocolError reports a malformed or unexpected protocol event. The bridge
// treats these as non-fatal: the event is logged and dropped, the call
// continues.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("telephony: %s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }
