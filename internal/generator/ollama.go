package generator

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

const (
	ProviderOllama = "ollama"

	// DefaultOllamaModel is the default local generation model
	DefaultOllamaModel = "llama3.2"

	// DefaultOllamaHost is the default Ollama endpoint
	DefaultOllamaHost = "http://localhost:11434"

	// EnvOllamaHost overrides the Ollama endpoint
	EnvOllamaHost = "POCKETRAG_OLLAMA_HOST"
)

// OllamaGenerator implements Generator against a local Ollama instance
type OllamaGenerator struct {
	host       string
	model      string
	httpClient *http.Client
}

// NewOllamaGenerator creates a generator backed by Ollama's /api/generate
// endpoint. An empty host falls back to POCKETRAG_OLLAMA_HOST, then the
// default localhost endpoint.
func NewOllamaGenerator(host, model string) *OllamaGenerator {
	if host == "" {
		host = os.Getenv(EnvOllamaHost)
	}
	if host == "" {
		host = DefaultOllamaHost
	}
	if model == "" {
		model = DefaultOllamaModel
	}

	return &OllamaGenerator{
		host:  strings.TrimRight(host, "/"),
		model: model,
		// Generation can legitimately run for minutes on-device; rely on the
		// caller's context for cancellation instead of a client timeout.
		httpClient: &http.Client{Timeout: 0},
	}
}

// generateRequest mirrors the JSON accepted by POST /api/generate
type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// generateResponse is one line of the /api/generate response
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (g *OllamaGenerator) buildRequest(req Request, stream bool) generateRequest {
	model := req.Model
	if model == "" {
		model = g.model
	}

	options := make(map[string]interface{})
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}
	if req.Temperature > 0 {
		options["temperature"] = req.Temperature
	}
	if len(options) == 0 {
		options = nil
	}

	return generateRequest{
		Model:   model,
		Prompt:  req.Prompt,
		Stream:  stream,
		Options: options,
	}
}

func (g *OllamaGenerator) post(ctx context.Context, body generateRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: api error %d: %s", ErrProviderFailed, resp.StatusCode, string(bodyBytes))
	}

	return resp, nil
}

// Generate produces the full response in one call
func (g *OllamaGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	body := g.buildRequest(req, false)
	resp, err := g.post(ctx, body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var apiResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &Result{
		Text:     apiResp.Response,
		Provider: ProviderOllama,
		Model:    body.Model,
	}, nil
}

// GenerateStream reads the NDJSON stream from Ollama, forwarding each token
// to onToken. The stream stops on context cancellation, a callback error, or
// the final done marker.
func (g *OllamaGenerator) GenerateStream(ctx context.Context, req Request, onToken TokenFunc) error {
	if err := validateRequest(req); err != nil {
		return err
	}

	body := g.buildRequest(req, true)
	resp, err := g.post(ctx, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		var line generateResponse
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			return fmt.Errorf("decode stream line: %w", err)
		}

		if line.Response != "" {
			if err := onToken(line.Response); err != nil {
				return err
			}
		}
		if line.Done {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		// Closing the response body on cancellation surfaces as a read error;
		// report the cancellation instead.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

func (g *OllamaGenerator) Provider() string {
	return ProviderOllama
}

func (g *OllamaGenerator) Model() string {
	return g.model
}

func (g *OllamaGenerator) Close() error {
	g.httpClient.CloseIdleConnections()
	return nil
}
