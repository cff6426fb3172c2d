package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	r.Get("/", apiHandler.RootHandler)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/process", apiHandler.ProcessHandler)
	r.Post("/ask", apiHandler.AskHandler)

	// Persistent research chats
	r.Route("/api/chats", func(r chi.Router) {
		r.Post("/", apiHandler.CreateChatHandler)
		r.Get("/", apiHandler.ListChatsHandler)
		r.Get("/{chatID}/messages", apiHandler.ListMessagesHandler)
		r.Post("/{chatID}/message", apiHandler.PostMessageHandler)
	})

	return r
}
