package generator

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrEmptyPrompt       = errors.New("prompt cannot be empty")
	ErrProviderFailed    = errors.New("generation provider failed")
	ErrNoProviderEnabled = errors.New("no generation provider configured")
)

// Request describes one generation call
type Request struct {
	Prompt      string
	Model       string  // Optional: override default model
	MaxTokens   int     // 0 means provider default
	Temperature float32 // 0 means provider default
}

// Result is the complete response of a non-streaming generation call
type Result struct {
	Text     string
	Provider string
	Model    string
}

// TokenFunc receives incremental text during streaming generation. Returning
// an error stops the stream; no further callbacks are delivered after that.
type TokenFunc func(token string) error

// Generator is the generation collaborator: the language model behind the
// assistant's answers. Implementations must stop delivering tokens as soon
// as the context is cancelled or the callback returns an error.
type Generator interface {
	// Generate produces the full response for a prompt in one call
	Generate(ctx context.Context, req Request) (*Result, error)

	// GenerateStream produces the response incrementally through onToken
	GenerateStream(ctx context.Context, req Request, onToken TokenFunc) error

	// Provider returns the provider name
	Provider() string

	// Model returns the default model name
	Model() string

	// Close releases any resources held by the generator
	Close() error
}

// validateRequest rejects empty prompts before any provider work
func validateRequest(req Request) error {
	if req.Prompt == "" {
		return ErrEmptyPrompt
	}
	return nil
}
