// Package generator abstracts the language-model generation collaborator.
//
// Providers implement single-shot Generate and incremental GenerateStream.
// Streaming honors cancellation: once the caller's context is done or the
// token callback returns an error, no further tokens are delivered. Included
// providers target a local Ollama instance and the OpenAI chat completions
// API; a MockGenerator backs tests.
package generator
