// Package completion wraps the text-completion collaborator. Every caller in
// the core treats its output as advisory: a failed or slow completion degrades
// to a fallback string and never fails an emergency pipeline.
package completion

import "context"

// Stream yields completion tokens until it returns io.EOF.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// Generator produces a finite token stream for a prompt. A stream is consumed
// once; call GenerateStream again for a new completion.
type Generator interface {
	GenerateStream(ctx context.Context, prompt string) (Stream, error)
}
