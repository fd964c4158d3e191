package completion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// DefaultTimeout bounds a single advisory completion.
const DefaultTimeout = 20 * time.Second

// Recorder observes completion calls. metrics.Collector implements it.
type Recorder interface {
	ObserveCompletion(operation, status string, duration time.Duration)
}

// Advisor makes bounded-time, best-effort completion calls.
type Advisor struct {
	generator Generator
	timeout   time.Duration
	logger    *slog.Logger
	recorder  Recorder
}

// NewAdvisor wraps generator. A nil generator yields an advisor that is
// always unavailable; recorder may be nil.
func NewAdvisor(generator Generator, timeout time.Duration, logger *slog.Logger, recorder Recorder) *Advisor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Advisor{
		generator: generator,
		timeout:   timeout,
		logger:    logger,
		recorder:  recorder,
	}
}

// Advise concatenates the full completion for prompt. ok is false when the
// capability is missing, fails, panics, or exceeds the timeout; the error is
// logged and never returned.
func (a *Advisor) Advise(ctx context.Context, operation, prompt string) (text string, ok bool) {
	if a == nil || a.generator == nil {
		return "", false
	}

	start := time.Now()
	text, err := a.collect(ctx, prompt)
	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
		a.logger.Warn("Advisory completion unavailable",
			"operation", operation,
			"duration_ms", duration.Milliseconds(),
			"error", err)
	} else {
		a.logger.Debug("Advisory completion finished",
			"operation", operation,
			"duration_ms", duration.Milliseconds(),
			"chars", len(text))
	}

	if a.recorder != nil {
		a.recorder.ObserveCompletion(operation, status, duration)
	}

	if err != nil {
		return "", false
	}
	return text, true
}

// AdviseOr returns the completion, or fallback when it is unavailable.
func (a *Advisor) AdviseOr(ctx context.Context, operation, prompt, fallback string) string {
	if text, ok := a.Advise(ctx, operation, prompt); ok {
		return text
	}
	return fallback
}

func (a *Advisor) collect(ctx context.Context, prompt string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("completion panicked: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	stream, err := a.generator.GenerateStream(ctx, prompt)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var b strings.Builder
	for {
		tok, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		b.WriteString(tok)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return b.String(), nil
}
