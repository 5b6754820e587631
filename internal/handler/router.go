package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	chathandler "github.com/prescripto/medibot-backend/internal/handler/chat"
	conversationhandler "github.com/prescripto/medibot-backend/internal/handler/conversation"
	conversationservice "github.com/prescripto/medibot-backend/internal/service/conversation"
)

// NewRouter wires HTTP routes to core services. relay may be nil when the
// generation backend is unconfigured; the chat endpoint then degrades to its
// error response instead of refusing to start.
func NewRouter(relay chathandler.Replier, manager *conversationservice.Manager) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		MaxAge:         300,
	}))

	chatHandler := chathandler.New(relay)
	conversationHandler := conversationhandler.New(manager)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("API Working"))
	})

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		conversationHandler.RegisterRoutes(api)
	})

	return r
}
