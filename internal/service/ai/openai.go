package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"

	"github.com/prescripto/medibot-backend/internal/config"
)

// OpenAIChatModel adapts the OpenAI chat-completions client to the chain's
// model interface.
type OpenAIChatModel struct {
	client    *openai.Client
	modelName string
}

var _ model.ChatModel = (*OpenAIChatModel)(nil)

// NewOpenAIChatModel builds a model from the relay configuration.
func NewOpenAIChatModel(cfg config.AIConfig) *OpenAIChatModel {
	return &OpenAIChatModel{
		client:    openai.NewClient(cfg.OpenAIAPIKey),
		modelName: cfg.OpenAIModel,
	}
}

// Generate performs one chat-completion call.
func (m *OpenAIChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(input))
	for _, msg := range input {
		role, err := toOpenAIRole(msg.Role)
		if err != nil {
			return nil, err
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    m.modelName,
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return schema.AssistantMessage("", nil), nil
	}
	return schema.AssistantMessage(resp.Choices[0].Message.Content, nil), nil
}

// Stream satisfies the model interface by wrapping Generate; the relay does
// not stream token-by-token.
func (m *OpenAIChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	message, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{message}), nil
}

// BindTools is unsupported; the relay never offers tools.
func (m *OpenAIChatModel) BindTools([]*schema.ToolInfo) error {
	return errors.New("openai relay model does not support tools")
}

func toOpenAIRole(role schema.RoleType) (string, error) {
	switch role {
	case schema.System:
		return openai.ChatMessageRoleSystem, nil
	case schema.User:
		return openai.ChatMessageRoleUser, nil
	case schema.Assistant:
		return openai.ChatMessageRoleAssistant, nil
	default:
		return "", fmt.Errorf("unsupported message role: %s", role)
	}
}
