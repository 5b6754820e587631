package conversation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prescripto/medibot-backend/internal/model/chat"
	"github.com/prescripto/medibot-backend/internal/render"
	conversationservice "github.com/prescripto/medibot-backend/internal/service/conversation"
	"github.com/prescripto/medibot-backend/internal/service/voice"
	"github.com/prescripto/medibot-backend/pkg/utils"
)

// Handler exposes the conversation controller over HTTP.
type Handler struct {
	manager *conversationservice.Manager
}

// New creates the conversation handler.
func New(manager *conversationservice.Manager) *Handler {
	return &Handler{manager: manager}
}

// RegisterRoutes mounts the conversation routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/conversations", func(cr chi.Router) {
		cr.Post("/", h.handleCreateSession)
		cr.Route("/{sessionID}", func(sr chi.Router) {
			sr.Get("/messages", h.handleTranscript)
			sr.Post("/messages", h.handleSubmit)
			sr.Delete("/messages", h.handleClear)
			sr.Post("/voice", h.handleVoiceCapture)
			sr.Post("/speech/toggle", h.handleSpeechToggle)
			sr.Get("/audio", h.handleAudio)
			sr.Get("/events", h.handleEvents)
		})
	})
}

// renderedMessage decorates a stored message with its presentation form.
// Text is always the canonical stored string; Bullets is derived on the way
// out and only set for assistant messages written as bullet points.
type renderedMessage struct {
	chat.Message
	Bullets []string `json:"bullets,omitempty"`
}

func renderMessages(messages []chat.Message) []renderedMessage {
	out := make([]renderedMessage, 0, len(messages))
	for _, msg := range messages {
		rendered := renderedMessage{Message: msg}
		if msg.Sender == chat.SenderAssistant {
			if items, ok := render.Bullets(msg.Text); ok {
				rendered.Bullets = items
			}
		}
		out = append(out, rendered)
	}
	return out
}

func (h *Handler) controller(w http.ResponseWriter, r *http.Request) *conversationservice.Controller {
	sessionID := chi.URLParam(r, "sessionID")
	ctrl, err := h.manager.Controller(sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return nil
	}
	return ctrl
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.manager.CreateSession(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controller(w, r)
	if ctrl == nil {
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"messages": renderMessages(ctrl.Messages()),
		"typing":   ctrl.Typing(),
		"speaking": ctrl.Speaking(),
	})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controller(w, r)
	if ctrl == nil {
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	text := payload.Text
	if text == "" {
		// Fall back to the buffered input, e.g. a voice-transcribed turn.
		text = ctrl.Input()
	}

	userMsg, botMsg, err := ctrl.Submit(r.Context(), text)
	switch {
	case errors.Is(err, conversationservice.ErrEmptyInput):
		w.WriteHeader(http.StatusNoContent)
		return
	case errors.Is(err, conversationservice.ErrBusy):
		utils.RespondError(w, http.StatusConflict, "a reply is already in flight")
		return
	case err != nil:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"messages": renderMessages([]chat.Message{userMsg, botMsg}),
	})
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controller(w, r)
	if ctrl == nil {
		return
	}

	ctrl.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleVoiceCapture(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controller(w, r)
	if ctrl == nil {
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	text, err := ctrl.CaptureVoice(r.Context(), file, header.Filename)
	if errors.Is(err, voice.ErrRecognizerUnavailable) {
		utils.RespondError(w, http.StatusServiceUnavailable, "speech recognition not available")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "transcription failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (h *Handler) handleSpeechToggle(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controller(w, r)
	if ctrl == nil {
		return
	}

	speaking := ctrl.ToggleSpeech(r.Context())
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"speaking": speaking})
}

func (h *Handler) handleAudio(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controller(w, r)
	if ctrl == nil {
		return
	}

	audio := ctrl.LastAudio()
	if len(audio) == 0 {
		utils.RespondError(w, http.StatusNotFound, "no utterance synthesized yet")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}
