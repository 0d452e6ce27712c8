package sessions

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pmorlen/chatgate/internal/service/conversation"
	"github.com/pmorlen/chatgate/pkg/utils"
)

// Handler manages the open-session surface: listing, switching and
// removing conversation logs. Wire shapes follow the front end's
// existing contract, which passes the session name as "message".
type Handler struct {
	conversations *conversation.Service
}

// New creates the sessions handler.
func New(conversations *conversation.Service) *Handler {
	return &Handler{conversations: conversations}
}

// RegisterRoutes mounts the session management endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/open_sessions", h.handleOpenSessions)
	r.Post("/create_session", h.handleCreateSession)
	r.Post("/change_session", h.handleChangeSession)
	r.Post("/remove_session", h.handleRemoveSession)
}

func (h *Handler) handleOpenSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.conversations.ListSessions()
	ids := make([]string, 0, len(sessions))
	for _, session := range sessions {
		ids = append(ids, session.ID)
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"open_sessions":  ids,
		"active_session": h.conversations.ActiveID(),
	})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session := h.conversations.CreateSession()
	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleChangeSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := decodeSessionID(w, r)
	if !ok {
		return
	}

	if err := h.conversations.SwitchSession(sessionID); err != nil {
		respondSessionError(w, sessionID, err)
		return
	}

	log.Printf("[sessions] switched active session to %s", sessionID)
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Session changed to " + sessionID,
	})
}

func (h *Handler) handleRemoveSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := decodeSessionID(w, r)
	if !ok {
		return
	}

	if err := h.conversations.RemoveSession(sessionID); err != nil {
		respondSessionError(w, sessionID, err)
		return
	}

	log.Printf("[sessions] removed session %s", sessionID)
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Session " + sessionID + " removed",
	})
}

func decodeSessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var payload struct {
		Message string `json:"message"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "invalid request body",
		})
		return "", false
	}

	if payload.Message == "" {
		utils.RespondJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "No session name provided.",
		})
		return "", false
	}

	return payload.Message, true
}

func respondSessionError(w http.ResponseWriter, sessionID string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, conversation.ErrSessionNotFound) {
		status = http.StatusNotFound
	}
	utils.RespondJSON(w, status, map[string]any{
		"success": false,
		"message": "Session " + sessionID + ": " + err.Error(),
	})
}
