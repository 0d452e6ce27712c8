package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pmorlen/chatgate/internal/config"
	chatHandler "github.com/pmorlen/chatgate/internal/handler/chat"
	eventsHandler "github.com/pmorlen/chatgate/internal/handler/events"
	sessionsHandler "github.com/pmorlen/chatgate/internal/handler/sessions"
	settingsHandler "github.com/pmorlen/chatgate/internal/handler/settings"
	uploadHandler "github.com/pmorlen/chatgate/internal/handler/upload"
	middlewarePkg "github.com/pmorlen/chatgate/internal/middleware"
	settingsModel "github.com/pmorlen/chatgate/internal/model/settings"
	"github.com/pmorlen/chatgate/internal/service/conversation"
	sessionService "github.com/pmorlen/chatgate/internal/service/session"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(conversations *conversation.Service, controller *sessionService.Controller, uiSettings *settingsModel.Store, uploadCfg config.UploadConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Route("/api", func(api chi.Router) {
		chatHandler.New(controller, conversations).RegisterRoutes(api)
		sessionsHandler.New(conversations).RegisterRoutes(api)
		settingsHandler.New(uiSettings).RegisterRoutes(api)
		eventsHandler.New(conversations).RegisterRoutes(api)
		uploadHandler.New(uploadCfg.Dir).RegisterRoutes(api)
	})

	return r
}
