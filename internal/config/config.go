package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Chat backend identifiers for AIConfig.Backend.
const (
	BackendGemini = "gemini"
	BackendArk    = "ark"
	BackendOpenAI = "openai"
)

// Config aggregates every setting of the service.
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Speech SpeechConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	speech, err := loadSpeechConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Speech: speech}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "4000"
	}

	if strings.Contains(port, ":") {
		// Accept ":4000" or "127.0.0.1:4000" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the generation backend used by the prompt relay.
type AIConfig struct {
	Backend string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	OpenAIAPIKey string
	OpenAIModel  string

	ArkAPIKey    string
	ArkAccessKey string
	ArkSecretKey string
	ArkModel     string
	ArkBaseURL   string
	ArkRegion    string

	Temperature *float64
	TopP        *float64
	MaxTokens   *int
	Timeout     int
}

// Enabled reports whether the selected backend has the credentials it needs.
func (c AIConfig) Enabled() bool {
	switch c.Backend {
	case BackendGemini:
		return c.GeminiAPIKey != ""
	case BackendOpenAI:
		return c.OpenAIAPIKey != ""
	case BackendArk:
		return c.ArkModel != "" && (c.ArkAPIKey != "" || (c.ArkAccessKey != "" && c.ArkSecretKey != ""))
	default:
		return false
	}
}

func loadAIConfig() (AIConfig, error) {
	backend := strings.ToLower(getEnvOrDefault("CHAT_BACKEND", BackendGemini))
	switch backend {
	case BackendGemini, BackendArk, BackendOpenAI:
	default:
		return AIConfig{}, fmt.Errorf("invalid CHAT_BACKEND value: %q", backend)
	}

	temperature, err := parseOptionalFloatEnv("AI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("AI_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("AI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	timeout := 30
	if timeoutOverride, err := parseOptionalIntEnv("AI_TIMEOUT"); err != nil {
		return AIConfig{}, err
	} else if timeoutOverride != nil {
		if *timeoutOverride < 1 {
			return AIConfig{}, fmt.Errorf("AI_TIMEOUT must be at least 1 second, got %d", *timeoutOverride)
		}
		timeout = *timeoutOverride
	}

	return AIConfig{
		Backend:       backend,
		GeminiAPIKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:   getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-pro"),
		GeminiBaseURL: getEnvOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:   getEnvOrDefault("OPENAI_CHAT_MODEL", "gpt-3.5-turbo"),
		ArkAPIKey:     strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkAccessKey:  strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		ArkSecretKey:  strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		ArkModel:      strings.TrimSpace(os.Getenv("ARK_MODEL")),
		ArkBaseURL:    getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:     getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:   temperature,
		TopP:          topP,
		MaxTokens:     maxTokens,
		Timeout:       timeout,
	}, nil
}

// SpeechConfig describes the voice capture/playback capabilities.
type SpeechConfig struct {
	APIKey   string
	Voice    string
	Language string
	Enabled  bool
}

func loadSpeechConfig() (SpeechConfig, error) {
	apiKey := strings.TrimSpace(os.Getenv("SPEECH_API_KEY"))
	if apiKey == "" {
		// Speech shares the OpenAI credential unless given its own.
		apiKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}

	enabled, err := parseBoolEnv("SPEECH_ENABLED", apiKey != "")
	if err != nil {
		return SpeechConfig{}, err
	}
	if apiKey == "" {
		enabled = false
	}

	return SpeechConfig{
		APIKey:   apiKey,
		Voice:    getEnvOrDefault("SPEECH_TTS_VOICE", ""),
		Language: getEnvOrDefault("SPEECH_LANGUAGE", "en"),
		Enabled:  enabled,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
