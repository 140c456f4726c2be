package events

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForSubscribers(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Subscribers() != n {
		if time.Now().After(deadline) {
			t.Fatalf("subscribers = %d, want %d", h.Subscribers(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_BroadcastsEvents(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dialHub(t, srv, "")
	waitForSubscribers(t, h, 1)

	h.Emit(Event{Type: RecordSubmitted, SessionID: "s1", Step: 7})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Event
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.Type != RecordSubmitted || got.SessionID != "s1" || got.Step != 7 {
		t.Errorf("got %+v", got)
	}
}

func TestHub_SessionFilter(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dialHub(t, srv, "?session_id=wanted")
	waitForSubscribers(t, h, 1)

	h.Emit(Event{Type: StepChanged, SessionID: "other", Step: 1})
	h.Emit(Event{Type: StepChanged, SessionID: "wanted", Step: 2})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Event
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.SessionID != "wanted" || got.Step != 2 {
		t.Errorf("got %+v, want the wanted session's event", got)
	}
}

func TestHub_UnsubscribesOnClose(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dialHub(t, srv, "")
	waitForSubscribers(t, h, 1)

	conn.Close()
	waitForSubscribers(t, h, 0)

	// Emitting with no subscribers must not block or panic.
	h.Emit(Event{Type: StepChanged})
}

func TestMultiAndRecorder(t *testing.T) {
	var a, b Recorder
	m := Multi{&a, &b, Discard}

	m.Emit(Event{Type: SessionStarted, SessionID: "s"})
	m.Emit(Event{Type: StepChanged, SessionID: "s", Step: 1})

	if len(a.Events()) != 2 || len(b.Events()) != 2 {
		t.Fatalf("recorded %d and %d events, want 2 each", len(a.Events()), len(b.Events()))
	}
	if got := a.OfType(StepChanged); len(got) != 1 || got[0].Step != 1 {
		t.Errorf("OfType(StepChanged) = %+v", got)
	}
}

func TestLogSink_DoesNotPanicWithoutLogger(t *testing.T) {
	LogSink{}.Emit(Event{Type: SubmitFailed, Error: "disk full"})
	LogSink{}.Emit(Event{Type: RecordSubmitted, OwnerID: "demo-user"})
}
