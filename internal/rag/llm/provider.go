package llm

import (
	"context"
	"iter"
)

// Provider is a language model backend.
//
// GenerateStream yields fragments in production order. A failure ends the
// sequence with a non-nil error. Stopping the range early releases the
// backend stream.
type Provider interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
	GenerateStream(ctx context.Context, prompt Prompt) iter.Seq2[string, error]
	Model() string
}
