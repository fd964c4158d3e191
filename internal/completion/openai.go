package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig holds configuration for the streaming chat completion client.
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	Temperature  float32
	MaxTokens    int
	SystemPrompt string
}

const defaultSystemPrompt = "You are an emergency response assistant supporting ambulance crews and hospital staff. Answer briefly and practically."

// DefaultOpenAIConfig returns defaults suited to short advisory answers.
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		Model:        openai.GPT4oMini,
		Temperature:  0.3,
		MaxTokens:    300,
		SystemPrompt: defaultSystemPrompt,
	}
}

// OpenAIGenerator streams chat completions from an OpenAI-compatible API.
type OpenAIGenerator struct {
	client *openai.Client
	config OpenAIConfig
	logger *slog.Logger
}

// NewOpenAIGenerator creates a generator. An API key is required.
func NewOpenAIGenerator(cfg OpenAIConfig, logger *slog.Logger) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	logger.Info("Initialized openai completion client", "model", cfg.Model, "temperature", cfg.Temperature)

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientCfg),
		config: cfg,
		logger: logger,
	}, nil
}

// GenerateStream starts a streaming chat completion for prompt.
func (g *OpenAIGenerator) GenerateStream(ctx context.Context, prompt string) (Stream, error) {
	stream, err := g.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       g.config.Model,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
		Stream:      true,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: g.config.SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create chat completion stream: %w", err)
	}

	return &openaiStream{stream: stream}, nil
}

type openaiStream struct {
	stream *openai.ChatCompletionStream
}

// Recv returns the next content delta; io.EOF is passed through unchanged.
func (s *openaiStream) Recv() (string, error) {
	resp, err := s.stream.Recv()
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Delta.Content, nil
}

func (s *openaiStream) Close() error {
	return s.stream.Close()
}
