package chunker

import (
	"fmt"
	"strings"

	"github.com/pocketrag/pocketrag/pkg/types"
)

const (
	// DefaultChunkSize is the default window size in tokens
	DefaultChunkSize = 200

	// DefaultOverlap is the default token overlap between adjacent chunks
	DefaultOverlap = 40
)

// Chunk is one window of a chunked document
type Chunk struct {
	Index      int    // position of this chunk within the document, starting at 0
	Text       string // the window's text, tokens rejoined with single spaces
	TokenCount int    // number of whitespace tokens in the window
}

// Config controls chunk window size and overlap
type Config struct {
	Size    int // tokens per window
	Overlap int // tokens shared between adjacent windows
}

// DefaultConfig returns the default chunking configuration
func DefaultConfig() Config {
	return Config{Size: DefaultChunkSize, Overlap: DefaultOverlap}
}

// Validate rejects configurations that would never advance through the token
// stream or produce empty windows.
func (c Config) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", types.ErrInvalidChunkConfig, c.Size)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: overlap must be non-negative, got %d", types.ErrInvalidChunkConfig, c.Overlap)
	}
	if c.Overlap >= c.Size {
		return fmt.Errorf("%w: overlap %d >= size %d", types.ErrInvalidChunkConfig, c.Overlap, c.Size)
	}
	return nil
}

// Split breaks whitespace-tokenized text into windows of cfg.Size tokens,
// each advancing cfg.Size-cfg.Overlap tokens past the previous one. The final
// chunk may be shorter than cfg.Size. Empty or whitespace-only text yields no
// chunks and no error.
func Split(text string, cfg Config) ([]Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil, nil
	}

	stride := cfg.Size - cfg.Overlap
	chunks := make([]Chunk, 0, (len(tokens)+stride-1)/stride)

	for start, index := 0, 0; start < len(tokens); start, index = start+stride, index+1 {
		end := start + cfg.Size
		if end > len(tokens) {
			end = len(tokens)
		}

		window := tokens[start:end]
		chunks = append(chunks, Chunk{
			Index:      index,
			Text:       strings.Join(window, " "),
			TokenCount: len(window),
		})

		if end == len(tokens) {
			break
		}
	}

	return chunks, nil
}
