package chat

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prescripto/medibot-backend/pkg/utils"
)

// Replier generates one reply for one message. The production implementation
// is the prompt relay service; tests substitute fakes.
type Replier interface {
	Reply(ctx context.Context, message string) (string, error)
}

// Handler exposes the stateless prompt relay endpoint.
type Handler struct {
	relay Replier
}

// New creates the relay handler. relay may be nil when the generation
// backend is unconfigured; the endpoint then reports failure uniformly.
func New(relay Replier) *Handler {
	return &Handler{relay: relay}
}

// RegisterRoutes mounts the relay contract.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
}

// handleChat relays one message: POST {message} -> 200 {reply}. Every
// upstream failure, including a reply-less response shape, collapses to a
// 500 with a generic error payload.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message string `json:"message"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if h.relay == nil {
		utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch AI response")
		return
	}

	reply, err := h.relay.Reply(r.Context(), payload.Message)
	if err != nil {
		log.Printf("[chat] error fetching AI response: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch AI response")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
