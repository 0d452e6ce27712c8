package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pmorlen/chatgate/internal/service/conversation"
	"github.com/pmorlen/chatgate/internal/service/session"
	"github.com/pmorlen/chatgate/pkg/utils"
)

// Handler exposes turn submission and log rendering to the browser.
type Handler struct {
	controller    *session.Controller
	conversations *conversation.Service
}

// New creates the chat handler.
func New(controller *session.Controller, conversations *conversation.Service) *Handler {
	return &Handler{
		controller:    controller,
		conversations: conversations,
	}
}

// RegisterRoutes mounts the chat endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleSubmit)
	r.Get("/messages", h.handleMessages)
}

// handleSubmit runs one conversation turn. A failed transport exchange
// still answers 200: the failure is part of the message log.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message string `json:"message"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	turn, err := h.controller.SubmitTurn(r.Context(), payload.Message)
	switch {
	case errors.Is(err, session.ErrEmptyInput):
		w.WriteHeader(http.StatusNoContent)
		return
	case errors.Is(err, session.ErrTurnPending):
		utils.RespondError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"messages": turn.Messages(),
		"failed":   turn.Failed,
	})
}

// handleMessages renders a snapshot of the active log in append order.
func (h *Handler) handleMessages(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"sessionId": h.conversations.ActiveID(),
		"messages":  h.conversations.ActiveLog().Snapshot(),
	})
}
