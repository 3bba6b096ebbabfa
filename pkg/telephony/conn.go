package telephony

import (
	"encoding/base64"
	"sync"

	"github.com/gorilla/websocket"
)

// Sender is the outbound half of a media stream. The bridge writes paced
// audio frames, playback marks, and clear instructions through it.
//
// Implementations must be safe for concurrent use: the frame pacer and the
// interruption path write from different goroutines.
type Sender interface {
	// SendMedia transmits one audio frame. The frame is base64-encoded on
	// the wire.
	SendMedia(streamSID string, frame []byte) error

	// SendMark asks the provider to echo a mark event once everything sent
	// before it has been played out.
	SendMark(streamSID, name string) error

	// SendClear flushes any audio buffered on the provider side.
	SendClear(streamSID string) error
}

// Conn wraps a provider websocket with write locking and envelope framing.
type Conn struct {
	ws *websocket.Conn

	mu sync.Mutex // guards writes; gorilla allows one concurrent writer
}

// NewConn wraps an upgraded websocket connection.
func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// ReadEnvelope blocks until the next inbound envelope arrives.
// A closed connection surfaces as the websocket read error.
func (c *Conn) ReadEnvelope() (*Envelope, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

func (c *Conn) SendMedia(streamSID string, frame []byte) error {
	return c.write(&Envelope{
		Event:     EventMedia,
		StreamSID: streamSID,
		Media:     &MediaPayload{Payload: base64.StdEncoding.EncodeToString(frame)},
	})
}

func (c *Conn) SendMark(streamSID, name string) error {
	return c.write(&Envelope{
		Event:     EventMark,
		StreamSID: streamSID,
		Mark:      &MarkPayload{Name: name},
	})
}

func (c *Conn) SendClear(streamSID string) error {
	return c.write(&Envelope{
		Event:     EventClear,
		StreamSID: streamSID,
	})
}

// Close closes the underlying websocket.
func (c *Conn) Close() error {
	return c.ws.Close()
}

func (c *Conn) write(env *Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(env)
}

var _ Sender = (*Conn)(nil)
