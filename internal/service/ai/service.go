package ai

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/prescripto/medibot-backend/internal/config"
)

// ErrEmptyReply reports an upstream response that carried no reply text.
// The relay treats it like any other upstream failure instead of forwarding
// an absent reply as success.
var ErrEmptyReply = errors.New("model response contained no reply text")

// systemInstruction is the fixed persona and formatting directive wrapped
// around every user message. Each turn is stateless: no history is sent.
const systemInstruction = `You are a helpful AI health assistant.
Respond in clear and concise bullet points, not long paragraphs.
Use simple language that's easy to understand.
Avoid lengthy descriptions.
Use emojis where appropriate for friendliness.`

// Service is the prompt relay core: it wraps a user message in the MediBot
// instruction prompt, invokes the configured model once, and returns the
// reply text. It holds no cross-request state.
type Service struct {
	cfg   config.AIConfig
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the prompt chain for the configured backend.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{cfg: cfg, chain: runnable}, nil
}

// Reply relays one user message and returns the model's reply text. The
// message is forwarded as-is; empty input is accepted.
func (s *Service) Reply(ctx context.Context, message string) (string, error) {
	input := map[string]any{
		"system": systemInstruction,
		"query":  message,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run chat chain: %w", err)
	}
	if response.Content == "" {
		return "", ErrEmptyReply
	}

	log.Printf("[ai] generated reply, backend=%s, length=%d", s.cfg.Backend, len(response.Content))
	return response.Content, nil
}
