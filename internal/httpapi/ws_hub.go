package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
)

const writeTimeout = 500 * time.Millisecond

// WSHub fans server-side events out to every connected websocket client.
// Clients are read-only listeners; anything they send is drained and
// discarded.
type WSHub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}
	seq     atomic.Uint64
}

func NewWSHub() *WSHub {
	return &WSHub{clients: map[*websocket.Conn]struct{}{}}
}

func (h *WSHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}

type wsEvent struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Topic   string         `json:"topic"`
	Payload map[string]any `json:"payload"`
}

func (h *WSHub) Publish(topic, projectID string, payload map[string]any) {
	outPayload := map[string]any{}
	if projectID != "" {
		outPayload["project_id"] = projectID
	}
	for k, v := range payload {
		outPayload[k] = v
	}

	msg, err := json.Marshal(wsEvent{
		ID:      fmt.Sprintf("evt_%d", h.seq.Add(1)),
		Type:    "event",
		Topic:   topic,
		Payload: outPayload,
	})
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	// Writes fan out concurrently so one stalled client cannot delay the
	// others; a client that misses the write deadline is dropped.
	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Add(1)
		go func(c *websocket.Conn) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			defer cancel()
			if err := c.Write(ctx, websocket.MessageText, msg); err != nil {
				h.drop(c)
			}
		}(c)
	}
	wg.Wait()
}

func (h *WSHub) drop(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	_ = c.Close(websocket.StatusPolicyViolation, "write timeout")
}
