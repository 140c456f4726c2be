package events

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kalambet/reframe/internal/metrics"
)

const (
	subscriberBuffer = 64
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The feed is served on 127.0.0.1 behind a bearer token.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type subscriber struct {
	sessionID string // empty means all sessions
	ch        chan Event
}

// Hub broadcasts events to websocket subscribers. A slow subscriber drops
// events instead of blocking the emitter.
type Hub struct {
	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*subscriber]struct{})}
}

func (h *Hub) Emit(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		if s.sessionID != "" && s.sessionID != e.SessionID {
			continue
		}
		select {
		case s.ch <- e:
		default:
			slog.Warn("event subscriber is slow, dropping event", "type", e.Type, "session_id", e.SessionID)
		}
	}
}

func (h *Hub) subscribe(sessionID string) *subscriber {
	s := &subscriber{sessionID: sessionID, ch: make(chan Event, subscriberBuffer)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	metrics.EventSubscribers.Inc()
	return s
}

func (h *Hub) unsubscribe(s *subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.ch)
		metrics.EventSubscribers.Dec()
	}
	h.mu.Unlock()
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// ServeHTTP upgrades the request to a websocket and streams events as JSON
// until the client disconnects. The session_id query parameter restricts the
// feed to one session.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade event feed", "error", err)
		return
	}

	sub := h.subscribe(r.URL.Query().Get("session_id"))
	slog.Debug("event subscriber connected", "session_id", sub.sessionID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.writeLoop(conn, sub, done)
	h.unsubscribe(sub)
	conn.Close()
	slog.Debug("event subscriber disconnected", "session_id", sub.sessionID)
}

func (h *Hub) writeLoop(conn *websocket.Conn, sub *subscriber, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case e, ok := <-sub.ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(e); err != nil {
				slog.Warn("failed to write event", "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
