// Package llm defines the narrow contract through which the core talks to a
// language-model service, plus a default Ollama-backed implementation.
package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrMalformedResponse signals that a structured generation call did not
// return parseable JSON. Callers must surface it as an error, never
// substitute a guess.
var ErrMalformedResponse = errors.New("malformed structured response")

// Client is the language-model service contract. All calls are one-shot
// request/response; streaming is a transport-layer concern outside the core.
type Client interface {
	// Embed returns an embedding vector of fixed dimensionality for the text
	Embed(ctx context.Context, text string) ([]float32, error)
	// Generate returns a free-form completion for the prompt, optionally
	// grounded on the given context block
	Generate(ctx context.Context, prompt string, contextBlock string) (string, error)
	// GenerateStructured returns raw JSON matching the shape mandated by the
	// system instruction. A response that cannot be parsed as JSON yields
	// ErrMalformedResponse.
	GenerateStructured(ctx context.Context, prompt string, systemInstruction string) (json.RawMessage, error)
}
