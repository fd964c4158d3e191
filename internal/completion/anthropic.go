package completion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicConfig holds configuration for the Anthropic messages client.
type AnthropicConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	Temperature  float64
	MaxTokens    int64
	SystemPrompt string
}

// DefaultAnthropicConfig returns defaults suited to short advisory answers.
func DefaultAnthropicConfig() AnthropicConfig {
	return AnthropicConfig{
		Model:        "claude-3-5-haiku-latest",
		Temperature:  0.3,
		MaxTokens:    300,
		SystemPrompt: defaultSystemPrompt,
	}
}

// AnthropicGenerator answers prompts with the Anthropic messages API. The
// reply arrives in one piece and is handed out as a single-token stream.
type AnthropicGenerator struct {
	client anthropic.Client
	config AnthropicConfig
	logger *slog.Logger
}

// NewAnthropicGenerator creates a generator. An API key is required.
func NewAnthropicGenerator(cfg AnthropicConfig, logger *slog.Logger) (*AnthropicGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic api key is required")
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultAnthropicConfig().MaxTokens
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	logger.Info("Initialized anthropic completion client", "model", cfg.Model, "temperature", cfg.Temperature)

	return &AnthropicGenerator{
		client: anthropic.NewClient(opts...),
		config: cfg,
		logger: logger,
	}, nil
}

// GenerateStream sends prompt and returns the text blocks of the reply.
func (g *AnthropicGenerator) GenerateStream(ctx context.Context, prompt string) (Stream, error) {
	message, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(g.config.Model),
		MaxTokens:   g.config.MaxTokens,
		Temperature: anthropic.Float(g.config.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: g.config.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	var b strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return &onceStream{text: b.String()}, nil
}

type onceStream struct {
	text string
	done bool
}

func (s *onceStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}
	s.done = true
	return s.text, nil
}

func (s *onceStream) Close() error { return nil }
