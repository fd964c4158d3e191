package completion

import (
	"context"
	"io"
	"strings"
	"sync"
)

// MockGenerator serves canned completions without network calls. It is used
// when no API key is configured and throughout the tests.
type MockGenerator struct {
	mu      sync.Mutex
	respond func(prompt string) (string, error)
	prompts []string
}

// NewMockGenerator returns a generator that always streams text.
func NewMockGenerator(text string) *MockGenerator {
	return &MockGenerator{respond: func(string) (string, error) { return text, nil }}
}

// NewMockGeneratorFunc returns a generator that answers each prompt with respond.
func NewMockGeneratorFunc(respond func(prompt string) (string, error)) *MockGenerator {
	return &MockGenerator{respond: respond}
}

// NewFailingGenerator returns a generator whose streams fail with err.
func NewFailingGenerator(err error) *MockGenerator {
	return &MockGenerator{respond: func(string) (string, error) { return "", err }}
}

// GenerateStream records the prompt and streams the canned answer word by word.
func (m *MockGenerator) GenerateStream(ctx context.Context, prompt string) (Stream, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	text, err := m.respond(prompt)
	if err != nil {
		return nil, err
	}
	return &mockStream{ctx: ctx, tokens: tokenize(text)}, nil
}

// Prompts returns every prompt received so far.
func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// tokenize splits text after each space so the tokens concatenate back to text.
func tokenize(text string) []string {
	if text == "" {
		return nil
	}
	parts := strings.SplitAfter(text, " ")
	tokens := parts[:0]
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

type mockStream struct {
	ctx    context.Context
	tokens []string
	pos    int
}

func (s *mockStream) Recv() (string, error) {
	if err := s.ctx.Err(); err != nil {
		return "", err
	}
	if s.pos >= len(s.tokens) {
		return "", io.EOF
	}
	tok := s.tokens[s.pos]
	s.pos++
	return tok, nil
}

func (s *mockStream) Close() error { return nil }
