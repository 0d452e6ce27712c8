package settings

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	settingsModel "github.com/pmorlen/chatgate/internal/model/settings"
	"github.com/pmorlen/chatgate/pkg/utils"
)

// Handler exposes the UI configuration surface. It touches only the
// settings store, never conversation state.
type Handler struct {
	store *settingsModel.Store
}

// New creates the settings handler.
func New(store *settingsModel.Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts the settings endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/settings", h.handleGet)
	r.Put("/settings", h.handleUpdate)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.store.Get())
}

// handleUpdate applies a partial update; omitted fields keep their
// current value.
func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ColorScheme    *string `json:"colorScheme"`
		SidebarVisible *bool   `json:"sidebarVisible"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated := h.store.Update(payload.ColorScheme, payload.SidebarVisible)
	utils.RespondJSON(w, http.StatusOK, updated)
}
