package ai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prescripto/medibot-backend/internal/config"
	"github.com/prescripto/medibot-backend/internal/service/ai"
)

type upstreamCall struct {
	Contents []struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
		Role string `json:"role,omitempty"`
	} `json:"contents"`
}

// newUpstream fakes the generativelanguage endpoint. respond writes the
// response for each call and the returned pointer exposes the last request.
func newUpstream(t *testing.T, respond func(w http.ResponseWriter)) (*httptest.Server, *upstreamCall) {
	t.Helper()
	last := &upstreamCall{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if key := r.URL.Query().Get("key"); key != "test-key" {
			t.Errorf("unexpected api key: %q", key)
		}
		if err := json.NewDecoder(r.Body).Decode(last); err != nil {
			t.Errorf("failed to decode upstream request: %v", err)
		}
		respond(w)
	}))
	t.Cleanup(srv.Close)
	return srv, last
}

func testConfig(baseURL string) config.AIConfig {
	return config.AIConfig{
		Backend:       config.BackendGemini,
		GeminiAPIKey:  "test-key",
		GeminiModel:   "gemini-1.5-pro",
		GeminiBaseURL: baseURL,
		Timeout:       5,
	}
}

func replyBody(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":` + mustJSON(text) + `},{"text":"ignored second part"}],"role":"model"}}]}`
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestReplyExtractsFirstCandidateFirstPart(t *testing.T) {
	srv, last := newUpstream(t, func(w http.ResponseWriter) {
		_, _ = w.Write([]byte(replyBody("* Drink water 💧\n* Rest")))
	})

	svc, err := ai.NewService(context.Background(), testConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}

	reply, err := svc.Reply(context.Background(), "I have a headache")
	if err != nil {
		t.Fatalf("Reply err: %v", err)
	}
	if reply != "* Drink water 💧\n* Rest" {
		t.Fatalf("unexpected reply: %q", reply)
	}

	// The composed prompt carries the instruction prefix and the literal
	// user message in a single user turn.
	if len(last.Contents) != 1 || len(last.Contents[0].Parts) != 1 {
		t.Fatalf("unexpected upstream request shape: %+v", last)
	}
	prompt := last.Contents[0].Parts[0].Text
	if !strings.Contains(prompt, "You are a helpful AI health assistant.") {
		t.Fatalf("prompt missing instruction prefix: %q", prompt)
	}
	if !strings.Contains(prompt, "I have a headache") {
		t.Fatalf("prompt missing literal user message: %q", prompt)
	}
}

func TestReplyForwardsEmptyMessage(t *testing.T) {
	srv, last := newUpstream(t, func(w http.ResponseWriter) {
		_, _ = w.Write([]byte(replyBody("how can I help?")))
	})

	svc, err := ai.NewService(context.Background(), testConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}

	if _, err := svc.Reply(context.Background(), ""); err != nil {
		t.Fatalf("empty message must be forwarded, got err: %v", err)
	}
	if len(last.Contents) != 1 {
		t.Fatalf("expected one content entry, got %+v", last)
	}
}

func TestReplyMissingReplyPathIsAnError(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no candidates", `{"candidates":[]}`},
		{"no parts", `{"candidates":[{"content":{"parts":[],"role":"model"}}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newUpstream(t, func(w http.ResponseWriter) {
				_, _ = w.Write([]byte(tc.body))
			})

			svc, err := ai.NewService(context.Background(), testConfig(srv.URL))
			if err != nil {
				t.Fatalf("NewService err: %v", err)
			}

			if _, err := svc.Reply(context.Background(), "hello"); !errors.Is(err, ai.ErrEmptyReply) {
				t.Fatalf("err = %v, want ErrEmptyReply", err)
			}
		})
	}
}

func TestReplyUpstreamFailure(t *testing.T) {
	srv, _ := newUpstream(t, func(w http.ResponseWriter) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	svc, err := ai.NewService(context.Background(), testConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}

	if _, err := svc.Reply(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for non-2xx upstream status")
	}
}

func TestNewChatModelRequiresCredentials(t *testing.T) {
	cfg := config.AIConfig{Backend: config.BackendGemini}
	if _, err := ai.NewChatModel(context.Background(), cfg); err == nil {
		t.Fatal("expected error without credentials")
	}
}
