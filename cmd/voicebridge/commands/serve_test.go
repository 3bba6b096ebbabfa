package commands

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/attainly/voicebridge/pkg/telephony"
)

func TestHandleAnswerForwardsParameters(t *testing.T) {
	srv := &server{
		cfg: &Config{PublicHost: "bridge.example.com"},
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	req := httptest.NewRequest(http.MethodPost,
		"/voice/answer?userId=u-1&callMode=scolding&topic=gym+%26+sleep", nil)
	rec := httptest.NewRecorder()
	srv.handleAnswer(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "text/xml" {
		t.Fatalf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `url="wss://bridge.example.com/voice/stream"`) {
		t.Fatalf("stream url missing:\n%s", body)
	}
	if !strings.Contains(body, `<Parameter name="userId" value="u-1"/>`) {
		t.Fatalf("userId parameter missing:\n%s", body)
	}
	if !strings.Contains(body, `<Parameter name="topic" value="gym &amp; sleep"/>`) {
		t.Fatalf("topic parameter not escaped:\n%s", body)
	}
	if strings.Contains(body, "recordId") {
		t.Fatalf("absent parameter emitted:\n%s", body)
	}
}

// dialScripted connects to a websocket server that writes the given raw
// messages on accept and returns the client side.
func dialScripted(t *testing.T, messages []string) *telephony.Conn {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up := websocket.Upgrader{}
		ws, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer ws.Close()
		for _, m := range messages {
			ws.WriteMessage(websocket.TextMessage, []byte(m))
		}
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return telephony.NewConn(ws)
}

func TestReadStartSkipsConnected(t *testing.T) {
	conn := dialScripted(t, []string{
		`{"event":"connected"}`,
		`{"event":"start","start":{"streamSid":"MZ1","callSid":"CA1","customParameters":{"userId":"u-1"}}}`,
	})

	start, preamble, err := readStart(conn)
	if err != nil {
		t.Fatalf("readStart error: %v", err)
	}
	if start.StreamSID != "MZ1" || start.CustomParameters["userId"] != "u-1" {
		t.Fatalf("start = %+v", start)
	}
	if len(preamble) != 0 {
		t.Fatalf("preamble = %d envelopes, want 0", len(preamble))
	}
}

func TestReadStartBuffersEarlyMedia(t *testing.T) {
	conn := dialScripted(t, []string{
		`{"event":"connected"}`,
		`{"event":"media","streamSid":"MZ2","media":{"timestamp":"20","payload":"AAAA"}}`,
		`{"event":"media","streamSid":"MZ2","media":{"timestamp":"40","payload":"BBBB"}}`,
		`{"event":"start","start":{"streamSid":"MZ2","callSid":"CA2","customParameters":{"userId":"u-2"}}}`,
	})

	start, preamble, err := readStart(conn)
	if err != nil {
		t.Fatalf("readStart error: %v", err)
	}
	if start.CallSID != "CA2" {
		t.Fatalf("start = %+v", start)
	}
	if len(preamble) != 2 {
		t.Fatalf("preamble = %d envelopes, want 2", len(preamble))
	}
	if preamble[0].Media == nil || preamble[0].Media.Payload != "AAAA" {
		t.Fatalf("preamble[0] = %+v", preamble[0])
	}
}

func TestReadStartGivesUpWithoutStart(t *testing.T) {
	// Enough non-start envelopes to exhaust the preamble allowance.
	msgs := make([]string, 16)
	for i := range msgs {
		msgs[i] = `{"event":"connected"}`
	}
	conn := dialScripted(t, msgs)

	if _, _, err := readStart(conn); err == nil {
		t.Fatal("expected error when the stream never starts")
	}
}
