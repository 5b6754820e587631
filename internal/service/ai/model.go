package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/prescripto/medibot-backend/internal/config"
)

// NewChatModel constructs the chat model for the configured backend.
func NewChatModel(ctx context.Context, cfg config.AIConfig) (model.ChatModel, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("chat backend %q is missing credentials", cfg.Backend)
	}

	switch cfg.Backend {
	case config.BackendGemini:
		return NewGeminiChatModel(cfg), nil
	case config.BackendOpenAI:
		return NewOpenAIChatModel(cfg), nil
	case config.BackendArk:
		return newArkChatModel(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown chat backend: %q", cfg.Backend)
	}
}

func newArkChatModel(ctx context.Context, cfg config.AIConfig) (model.ChatModel, error) {
	var temperature *float32
	if cfg.Temperature != nil {
		val := float32(*cfg.Temperature)
		temperature = &val
	}

	var topP *float32
	if cfg.TopP != nil {
		val := float32(*cfg.TopP)
		topP = &val
	}

	return ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:     cfg.ArkBaseURL,
		Region:      cfg.ArkRegion,
		APIKey:      cfg.ArkAPIKey,
		AccessKey:   cfg.ArkAccessKey,
		SecretKey:   cfg.ArkSecretKey,
		Model:       cfg.ArkModel,
		MaxTokens:   cfg.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	})
}
