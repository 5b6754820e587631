package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/prescripto/medibot-backend/internal/config"
)

// geminiContent mirrors the generativelanguage request/response content node.
type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
			Role  string       `json:"role"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// GeminiChatModel speaks the generativelanguage REST API. The reply is the
// first candidate's first text part.
type GeminiChatModel struct {
	apiKey     string
	modelName  string
	baseURL    string
	httpClient *http.Client
}

var _ model.ChatModel = (*GeminiChatModel)(nil)

// NewGeminiChatModel builds a model from the relay configuration.
func NewGeminiChatModel(cfg config.AIConfig) *GeminiChatModel {
	return &GeminiChatModel{
		apiKey:    cfg.GeminiAPIKey,
		modelName: cfg.GeminiModel,
		baseURL:   cfg.GeminiBaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// Generate performs one generateContent call.
func (m *GeminiChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	contents, err := toGeminiContents(input)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(geminiRequest{Contents: contents})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", m.baseURL, m.modelName, m.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generativelanguage API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	// A response without the reply path yields an empty message; the relay
	// service turns that into ErrEmptyReply instead of forwarding it.
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return schema.AssistantMessage("", nil), nil
	}

	return schema.AssistantMessage(parsed.Candidates[0].Content.Parts[0].Text, nil), nil
}

// Stream satisfies the model interface by wrapping Generate; the relay does
// not stream token-by-token.
func (m *GeminiChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	message, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{message}), nil
}

// BindTools is unsupported; the relay never offers tools.
func (m *GeminiChatModel) BindTools([]*schema.ToolInfo) error {
	return errors.New("gemini relay model does not support tools")
}

// toGeminiContents maps chain messages onto the generativelanguage roles.
// The system instruction is folded into the first user turn, matching the
// single composed prompt the upstream contract expects.
func toGeminiContents(input []*schema.Message) ([]geminiContent, error) {
	var system string
	contents := make([]geminiContent, 0, len(input))

	for _, msg := range input {
		switch msg.Role {
		case schema.System:
			system = msg.Content
		case schema.User:
			text := msg.Content
			if system != "" {
				text = fmt.Sprintf("%s\n\nUser: %s\n", system, msg.Content)
				system = ""
			}
			contents = append(contents, geminiContent{
				Parts: []geminiPart{{Text: text}},
				Role:  "user",
			})
		case schema.Assistant:
			contents = append(contents, geminiContent{
				Parts: []geminiPart{{Text: msg.Content}},
				Role:  "model",
			})
		default:
			return nil, fmt.Errorf("unsupported message role: %s", msg.Role)
		}
	}

	if len(contents) == 0 {
		return nil, errors.New("no content to send")
	}
	return contents, nil
}
