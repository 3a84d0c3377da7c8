package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(nil))      // Request logging through slog
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling
	r.Use(CORS(apiHandler.allowedOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", apiHandler.LoginHandler)
		r.Get("/health", apiHandler.HealthHandler)

		r.Post("/conversation/analyze", apiHandler.AnalyzeConversationHandler)
		r.Post("/conversation/export", apiHandler.ExportConversationHandler)
		r.Post("/conversation/summary/stream", apiHandler.StreamSummaryHandler)
		r.Get("/conversations", apiHandler.ListConversationsHandler)
		r.Get("/conversation/{conversationID}", apiHandler.GetConversationHandler)
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", apiHandler.ListSessionsHandler)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", apiHandler.GetSessionHandler)
			r.Delete("/", apiHandler.DeleteSessionHandler)
			r.Delete("/messages", apiHandler.DeleteSessionMessageHandler)
			r.Post("/summary", apiHandler.SummarizeSessionHandler)
			r.Get("/metadata", apiHandler.GetSessionMetadataHandler)
			r.Put("/metadata", apiHandler.SaveSessionMetadataHandler)
			r.Post("/hide", apiHandler.HideSessionHandler)
			r.Get("/analysis", apiHandler.SessionAnalysisHandler)
		})
	})

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(apiHandler.JWTAuthMiddleware)
		r.Get("/logs", apiHandler.ExportLogsHandler)
	})

	r.Get("/ws/chat", apiHandler.ChatWebSocketHandler)

	return r
}
