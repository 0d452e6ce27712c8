package events

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/pmorlen/chatgate/internal/service/conversation"
	"github.com/pmorlen/chatgate/pkg/utils"
)

// Handler streams append notifications to render subscribers, over SSE
// or a websocket. Each appended message produces exactly one event.
type Handler struct {
	conversations *conversation.Service
	upgrader      websocket.Upgrader
}

// New creates the events handler.
func New(conversations *conversation.Service) *Handler {
	return &Handler{
		conversations: conversations,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts both event feeds.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.handleSSE)
	r.Get("/ws", h.handleWebSocket)
}

func (h *Handler) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)

	events, cancel := h.conversations.Subscribe()
	defer cancel()

	ctx := r.Context()
	log.Printf("[sse] opening event stream")

	utils.SendSSEChunk(w, flusher, map[string]any{
		"event":   "status",
		"message": "stream established",
	})

	for {
		select {
		case <-ctx.Done():
			log.Printf("[sse] closing event stream")
			return
		case event := <-events:
			utils.SendSSEEvent(w, flusher, "message", event)
		}
	}
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, cancel := h.conversations.Subscribe()
	defer cancel()

	// The status frame tells the client the subscription is live.
	if err := conn.WriteJSON(map[string]string{"event": "status", "message": "stream established"}); err != nil {
		log.Printf("[ws] write failed: %v", err)
		return
	}

	// Drain inbound frames so close handshakes are observed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-closed:
			return
		case event := <-events:
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("[ws] write failed: %v", err)
				return
			}
		}
	}
}
