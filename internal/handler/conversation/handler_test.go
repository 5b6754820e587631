package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	conversationservice "github.com/prescripto/medibot-backend/internal/service/conversation"
	"github.com/prescripto/medibot-backend/internal/service/voice/mock"
	"github.com/prescripto/medibot-backend/internal/store"
)

type stubReplier struct {
	reply string
	err   error
}

func (r *stubReplier) Reply(context.Context, string) (string, error) {
	return r.reply, r.err
}

type fixture struct {
	router *chi.Mux
	synth  *mock.Synthesizer
}

func setup(t *testing.T, relay conversationservice.Replier, withVoice bool) *fixture {
	t.Helper()

	deps := conversationservice.Deps{
		Relay:       relay,
		Transcripts: store.NewMemoryStore(),
		Timeout:     time.Second,
	}
	synth := &mock.Synthesizer{Audio: []byte("mp3")}
	if withVoice {
		deps.Recognizer = &mock.Recognizer{Text: "I have a headache"}
		deps.Synthesizer = synth
	}

	handler := New(conversationservice.NewManager(deps))
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return &fixture{router: r, synth: synth}
}

func (f *fixture) do(t *testing.T, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func (f *fixture) createSession(t *testing.T) string {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/conversations", []byte(`{}`))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	var session struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &session); err != nil {
		t.Fatalf("failed to decode session: %v", err)
	}
	if session.ID == "" {
		t.Fatal("expected a session id")
	}
	return session.ID
}

type messagePayload struct {
	Messages []struct {
		Sender  string   `json:"sender"`
		Text    string   `json:"text"`
		Bullets []string `json:"bullets"`
	} `json:"messages"`
}

func TestHeadacheScenario(t *testing.T) {
	f := setup(t, &stubReplier{reply: "* Drink water 💧\n* Rest"}, true)
	sessionID := f.createSession(t)

	resp := f.do(t, http.MethodPost, "/conversations/"+sessionID+"/messages", []byte(`{"text":"I have a headache"}`))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var payload messagePayload
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Messages) != 2 {
		t.Fatalf("expected user and assistant messages, got %d", len(payload.Messages))
	}

	user, bot := payload.Messages[0], payload.Messages[1]
	if user.Sender != "user" || user.Text != "I have a headache" {
		t.Fatalf("unexpected user message: %+v", user)
	}
	if bot.Sender != "assistant" || bot.Text != "* Drink water 💧\n* Rest" {
		t.Fatalf("unexpected assistant message: %+v", bot)
	}
	if len(bot.Bullets) != 2 || bot.Bullets[0] != "Drink water 💧" || bot.Bullets[1] != "Rest" {
		t.Fatalf("unexpected bullets: %v", bot.Bullets)
	}

	// Playback receives the sanitized reply.
	deadline := time.Now().Add(2 * time.Second)
	for len(f.synth.Texts()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("playback never triggered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := f.synth.Texts()[0]; got != "Drink water 💧. Rest" {
		t.Fatalf("playback received %q", got)
	}
}

func TestSubmitBlankReturnsNoContent(t *testing.T) {
	f := setup(t, &stubReplier{reply: "unused"}, false)
	sessionID := f.createSession(t)

	resp := f.do(t, http.MethodPost, "/conversations/"+sessionID+"/messages", []byte(`{"text":"   "}`))
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}

	get := f.do(t, http.MethodGet, "/conversations/"+sessionID+"/messages", nil)
	var payload messagePayload
	if err := json.Unmarshal(get.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode transcript: %v", err)
	}
	if len(payload.Messages) != 0 {
		t.Fatalf("blank submit must not touch the transcript, got %d messages", len(payload.Messages))
	}
}

func TestSubmitRelayFailureAppendsFallback(t *testing.T) {
	f := setup(t, &stubReplier{err: errors.New("upstream down")}, true)
	sessionID := f.createSession(t)

	resp := f.do(t, http.MethodPost, "/conversations/"+sessionID+"/messages", []byte(`{"text":"help"}`))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var payload messagePayload
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Messages[1].Text != conversationservice.FallbackReply {
		t.Fatalf("unexpected fallback: %q", payload.Messages[1].Text)
	}
	if len(f.synth.Texts()) != 0 {
		t.Fatal("failure must not trigger playback")
	}
}

func TestClearIsIdempotent(t *testing.T) {
	f := setup(t, &stubReplier{reply: "noted"}, false)
	sessionID := f.createSession(t)

	f.do(t, http.MethodPost, "/conversations/"+sessionID+"/messages", []byte(`{"text":"hello"}`))

	for i := 0; i < 2; i++ {
		resp := f.do(t, http.MethodDelete, "/conversations/"+sessionID+"/messages", nil)
		if resp.Code != http.StatusNoContent {
			t.Fatalf("clear %d: expected 204, got %d", i, resp.Code)
		}
	}

	get := f.do(t, http.MethodGet, "/conversations/"+sessionID+"/messages", nil)
	var payload messagePayload
	if err := json.Unmarshal(get.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode transcript: %v", err)
	}
	if len(payload.Messages) != 0 {
		t.Fatal("transcript must be empty after clear")
	}
}

func TestUnknownSession(t *testing.T) {
	f := setup(t, &stubReplier{reply: "unused"}, false)

	resp := f.do(t, http.MethodGet, "/conversations/nope/messages", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestVoiceCaptureFillsInput(t *testing.T) {
	f := setup(t, &stubReplier{reply: "* Drink water 💧\n* Rest"}, true)
	sessionID := f.createSession(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("audio", "clip.wav")
	if err != nil {
		t.Fatalf("CreateFormFile err: %v", err)
	}
	_, _ = part.Write([]byte("fake-pcm"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/conversations/"+sessionID+"/voice", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Text != "I have a headache" {
		t.Fatalf("unexpected transcription: %q", payload.Text)
	}

	// Submitting with no text uses the captured input.
	submit := f.do(t, http.MethodPost, "/conversations/"+sessionID+"/messages", []byte(`{}`))
	if submit.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", submit.Code)
	}
	var submitted messagePayload
	if err := json.Unmarshal(submit.Body.Bytes(), &submitted); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if submitted.Messages[0].Text != "I have a headache" {
		t.Fatalf("submit did not use captured input: %+v", submitted.Messages[0])
	}
}

func TestVoiceCaptureWithoutRecognizer(t *testing.T) {
	f := setup(t, &stubReplier{reply: "unused"}, false)
	sessionID := f.createSession(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("audio", "clip.wav")
	_, _ = part.Write([]byte("fake-pcm"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/conversations/"+sessionID+"/voice", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestSpeechToggleReportsState(t *testing.T) {
	f := setup(t, &stubReplier{reply: "plain reply"}, true)
	sessionID := f.createSession(t)

	// No utterance yet: toggle stays idle.
	resp := f.do(t, http.MethodPost, "/conversations/"+sessionID+"/speech/toggle", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var payload struct {
		Speaking bool `json:"speaking"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Speaking {
		t.Fatal("toggle with no utterance must stay idle")
	}
}

func TestAudioBeforeAnyUtterance(t *testing.T) {
	f := setup(t, &stubReplier{reply: "unused"}, true)
	sessionID := f.createSession(t)

	resp := f.do(t, http.MethodGet, "/conversations/"+sessionID+"/audio", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
