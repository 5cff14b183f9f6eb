// Package events streams service events to websocket subscribers.
package events

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	subscriberBuffer = 32
	writeTimeout     = 5 * time.Second
)

// Message is what subscribers receive.
type Message struct {
	Event string    `json:"event"`
	Data  any       `json:"data,omitempty"`
	At    time.Time `json:"at"`
}

// Hub fans emitted events out to connected websocket clients. It
// satisfies service.EventEmitter.
type Hub struct {
	// OriginPatterns lists extra browser origins allowed to connect.
	// Empty means same-origin only.
	OriginPatterns []string

	mu   sync.Mutex
	subs map[chan Message]string // channel → app filter ("" for all)
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Message]string)}
}

// Emit delivers an event to every subscriber. A subscriber whose buffer is
// full misses the event rather than blocking the emitter.
func (h *Hub) Emit(_ context.Context, event string, data any) {
	msg := Message{Event: event, Data: data, At: time.Now()}
	app := appOf(data)

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch, filter := range h.subs {
		if filter != "" && app != "" && filter != app {
			continue
		}
		select {
		case ch <- msg:
		default:
			log.Printf("[events] subscriber slow, dropped %s", event)
		}
	}
}

// Subscribe registers a channel receiving events for appID, or for every
// app when appID is empty. The returned func unsubscribes.
func (h *Hub) Subscribe(appID string) (<-chan Message, func()) {
	ch := make(chan Message, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = appID
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// ServeHTTP upgrades to a websocket and streams the events of the app
// named by the required "app" query parameter until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	app := r.URL.Query().Get("app")
	if app == "" {
		http.Error(w, "app query parameter is required", http.StatusBadRequest)
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.OriginPatterns,
	})
	if err != nil {
		log.Printf("[events] websocket accept: %v", err)
		return
	}
	defer conn.CloseNow()

	events, unsubscribe := h.Subscribe(app)
	defer unsubscribe()

	// Clients only listen; CloseRead handles pings and notices disconnects.
	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case msg := <-events:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, conn, msg)
			cancel()
			if err != nil {
				if websocket.CloseStatus(err) == -1 {
					log.Printf("[events] write: %v", err)
				}
				return
			}
		}
	}
}

// appOf extracts the app id from payloads that carry one.
func appOf(data any) string {
	type appScoped interface{ EventAppID() string }
	if s, ok := data.(appScoped); ok {
		return s.EventAppID()
	}
	if m, ok := data.(map[string]string); ok {
		return m["appId"]
	}
	return ""
}
