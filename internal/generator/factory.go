package generator

import (
	"fmt"
	"os"
	"strings"
)

// EnvProvider selects the generation provider explicitly
const EnvProvider = "POCKETRAG_GENERATION_PROVIDER"

// NewFromEnv creates a generator based on environment variables
// Priority:
//  1. POCKETRAG_GENERATION_PROVIDER (ollama, openai)
//  2. OPENAI_API_KEY present: use OpenAI
//  3. Default to the local Ollama endpoint
func NewFromEnv() (Generator, error) {
	provider := os.Getenv(EnvProvider)
	openaiKey := os.Getenv(EnvOpenAIAPIKey)

	if provider != "" {
		provider = strings.ToLower(provider)
		switch provider {
		case ProviderOllama:
			return NewOllamaGenerator("", ""), nil
		case ProviderOpenAI:
			return NewOpenAIGenerator(openaiKey, "")
		default:
			return nil, fmt.Errorf("unknown generation provider %q", provider)
		}
	}

	if openaiKey != "" {
		return NewOpenAIGenerator(openaiKey, "")
	}

	return NewOllamaGenerator("", ""), nil
}
