// Package eventhub broadcasts run and step lifecycle events to websocket
// clients subscribed to a given run, so an HTTP caller can stream run
// progress instead of polling GetRunSummary.
package eventhub

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cortexrt/agent-runtime/internal/logging"
)

var log = logging.New("eventhub")

// Event is one broadcast message: a named lifecycle transition plus an
// optional structured payload.
type Event struct {
	Type      string         `json:"type"`
	RunID     string         `json:"run_id"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// runHub holds the websocket clients subscribed to one run.
type runHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// Hub maintains one runHub per run_id and broadcasts lifecycle events to
// all clients subscribed to that run.
type Hub struct {
	mu       sync.Mutex
	runHubs  map[string]*runHub
	upgrader websocket.Upgrader
	now      func() time.Time
}

// NewHub returns an empty Hub accepting upgrades from any origin, as the
// control plane has no browser-facing same-origin policy to enforce.
func NewHub() *Hub {
	return &Hub{
		runHubs: make(map[string]*runHub),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		now: time.Now,
	}
}

func (h *Hub) hubFor(runID string) *runHub {
	h.mu.Lock()
	defer h.mu.Unlock()
	rh, ok := h.runHubs[runID]
	if !ok {
		rh = &runHub{clients: make(map[*websocket.Conn]bool)}
		h.runHubs[runID] = rh
	}
	return rh
}

// ServeWS upgrades the request to a websocket connection subscribed to
// runID's lifecycle events. The connection is kept open until the
// client disconnects; inbound messages are discarded.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, runID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	rh := h.hubFor(runID)
	rh.addClient(conn)
	go rh.readPump(conn)
	return nil
}

// Broadcast sends a lifecycle event to every client subscribed to
// runID. It is best-effort and non-blocking: a write failure only
// drops that one client, it never blocks or fails the caller.
func (h *Hub) Broadcast(runID, eventType string, payload map[string]any) {
	h.mu.Lock()
	rh, ok := h.runHubs[runID]
	h.mu.Unlock()
	if !ok {
		return
	}

	msg, err := json.Marshal(Event{Type: eventType, RunID: runID, Payload: payload, Timestamp: h.now()})
	if err != nil {
		log.Printf("failed to marshal event for run %s: %v", runID, err)
		return
	}
	rh.broadcast(msg)
}

func (rh *runHub) addClient(conn *websocket.Conn) {
	rh.mu.Lock()
	defer rh.mu.Unlock()
	rh.clients[conn] = true
}

func (rh *runHub) removeClient(conn *websocket.Conn) {
	rh.mu.Lock()
	delete(rh.clients, conn)
	rh.mu.Unlock()
	conn.Close()
}

func (rh *runHub) broadcast(msg []byte) {
	rh.mu.Lock()
	defer rh.mu.Unlock()
	for conn := range rh.clients {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("dropping client after write error: %v", err)
			delete(rh.clients, conn)
			conn.Close()
		}
	}
}

// readPump discards inbound client messages, just enough to detect
// disconnects and free the connection.
func (rh *runHub) readPump(conn *websocket.Conn) {
	defer rh.removeClient(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
