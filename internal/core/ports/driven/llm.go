package driven

import "context"

// LLMService provides text generation for answer synthesis.
// This is an optional service - when nil or unreachable, queries still
// return retrieved sources with a degraded answer message.
//
// Implementations may include:
//   - Ollama (llama3.2 and other local models)
//   - OpenAI-compatible inference servers
type LLMService interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// ContextWindow is the model context size in tokens, when the
	// backend allows setting it per request.
	ContextWindow int
}
