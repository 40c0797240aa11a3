package sse

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kbukum/deepresearch/logger"
)

// KeepAliveInterval stays below common proxy idle timeouts.
var KeepAliveInterval = 30 * time.Second

// ConnectedEvent is the payload of the first event on a watch stream.
type ConnectedEvent struct {
	ClientID string            `json:"client_id"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ServeSSE registers clientID on hub and streams its events until the
// request ends, the hub stops, or a terminal event has been written.
func ServeSSE(hub *Hub, w http.ResponseWriter, r *http.Request, clientID string, opts ...ClientOption) {
	client := NewClient(clientID, opts...)
	hub.Register(client)
	ServeClient(hub, w, r, client)
}

// ServeClient streams a client that the caller already registered, for
// callers that must order the registration against their own broadcasts.
// The client is unregistered on return.
func ServeClient(hub *Hub, w http.ResponseWriter, r *http.Request, client *Client) {
	defer hub.Unregister(client)
	clientID := client.ID()

	sw, err := NewWriter(w)
	if err != nil {
		log().Error("streaming not supported", logger.Fields("client_id", clientID))
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	data, _ := json.Marshal(ConnectedEvent{ClientID: clientID, Metadata: client.Metadata()})
	if err := sw.Send(Event{Name: EventConnected, Data: data}); err != nil {
		return
	}
	log().Debug("client connected", logger.Fields("client_id", clientID, "remote_addr", r.RemoteAddr))

	keepAlive := time.NewTicker(KeepAliveInterval)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			log().Debug("client disconnected", logger.Fields("client_id", clientID, "reason", ctx.Err().Error()))
			return

		case e, ok := <-client.Events():
			if !ok {
				return
			}
			if err := sw.Send(e); err != nil {
				return
			}
			if e.Terminal() {
				return
			}

		case <-keepAlive.C:
			if err := sw.KeepAlive(); err != nil {
				return
			}
		}
	}
}
