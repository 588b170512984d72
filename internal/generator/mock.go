package generator

import (
	"context"
	"strings"
)

// MockGenerator is an in-process generator for tests. It echoes a canned
// response (or the prompt itself when none is configured), streaming it one
// whitespace token at a time.
type MockGenerator struct {
	Response string
	Err      error

	// Prompts records every prompt received, for assertions
	Prompts []string
}

// NewMockGenerator creates a mock that answers every request with response.
func NewMockGenerator(response string) *MockGenerator {
	return &MockGenerator{Response: response}
}

func (m *MockGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}

	m.Prompts = append(m.Prompts, req.Prompt)

	text := m.Response
	if text == "" {
		text = req.Prompt
	}
	return &Result{Text: text, Provider: "mock", Model: "mock-generator"}, nil
}

func (m *MockGenerator) GenerateStream(ctx context.Context, req Request, onToken TokenFunc) error {
	result, err := m.Generate(ctx, req)
	if err != nil {
		return err
	}

	tokens := strings.SplitAfter(result.Text, " ")
	for _, token := range tokens {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := onToken(token); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockGenerator) Provider() string {
	return "mock"
}

func (m *MockGenerator) Model() string {
	return "mock-generator"
}

func (m *MockGenerator) Close() error {
	return nil
}
