package rag

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pocketrag/pocketrag/internal/chunker"
	"github.com/pocketrag/pocketrag/internal/embedder"
	"github.com/pocketrag/pocketrag/internal/engine"
	"github.com/pocketrag/pocketrag/internal/generator"
	"github.com/pocketrag/pocketrag/pkg/types"
)

const (
	// EmbedBatchSize caps how many chunk texts go to the embedder per call
	EmbedBatchSize = 32

	// MaxInFlightBatches bounds concurrent embedding batches
	MaxInFlightBatches = 4

	// RetrievalTopK is the number of chunks retrieved per query
	RetrievalTopK = 5

	// MaxContextChars caps the assembled context passed to the generator
	MaxContextChars = 4000
)

const promptTemplate = `Answer the question using only the context below. If the context does not contain the answer, say so.

Context:
%s

Question: %s

Answer:`

// Pipeline wires the chunker, embedder, search engine, and generator into the
// ingest/query flow.
type Pipeline struct {
	chunkCfg chunker.Config
	embedder embedder.Embedder
	gen      generator.Generator
	engine   *engine.Engine
}

// NewPipeline creates a pipeline. A zero-value chunk config selects the
// defaults; an invalid one is rejected up front rather than at first ingest.
func NewPipeline(eng *engine.Engine, emb embedder.Embedder, gen generator.Generator, chunkCfg chunker.Config) (*Pipeline, error) {
	if chunkCfg == (chunker.Config{}) {
		chunkCfg = chunker.DefaultConfig()
	}
	if err := chunkCfg.Validate(); err != nil {
		return nil, err
	}
	if emb.Dimension() != eng.Dimension() {
		return nil, fmt.Errorf("%w: embedder produces dimension %d, engine requires %d",
			types.ErrDimensionMismatch, emb.Dimension(), eng.Dimension())
	}

	return &Pipeline{
		chunkCfg: chunkCfg,
		embedder: emb,
		gen:      gen,
		engine:   eng,
	}, nil
}

// Answer is the result of a retrieval-augmented query.
type Answer struct {
	Text    string
	Sources []types.SearchResult
}

// Ingest chunks the documents, embeds all chunks, and inserts the resulting
// records through the engine. Returns the number of records ingested.
//
// Each record gets a fresh uuid, the chunk text as content, and metadata
// carrying provenance: the document source, the chunk index within its
// document, and any caller-supplied tags.
func (p *Pipeline) Ingest(ctx context.Context, docs []types.Document) (int, error) {
	texts, metas, err := p.chunkDocuments(docs)
	if err != nil {
		return 0, err
	}
	if len(texts) == 0 {
		return 0, nil
	}

	vectors, err := p.embedTexts(ctx, texts)
	if err != nil {
		return 0, err
	}

	records := make([]types.VectorRecord, len(texts))
	for i := range texts {
		records[i] = types.VectorRecord{
			ID:        uuid.NewString(),
			Content:   texts[i],
			Embedding: vectors[i],
			Metadata:  metas[i],
		}
	}

	if err := p.engine.InsertBatch(ctx, records, engine.DefaultBatchSize); err != nil {
		return 0, fmt.Errorf("failed to ingest records: %w", err)
	}
	return len(records), nil
}

// chunkDocuments splits every document, pairing each chunk text with its
// provenance metadata.
func (p *Pipeline) chunkDocuments(docs []types.Document) ([]string, []map[string]string, error) {
	var texts []string
	var metas []map[string]string

	for _, doc := range docs {
		chunks, err := chunker.Split(doc.Content, p.chunkCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to chunk %s: %w", doc.Source, err)
		}

		for _, chunk := range chunks {
			meta := map[string]string{
				"source":      doc.Source,
				"chunk_index": strconv.Itoa(chunk.Index),
			}
			for k, v := range doc.Tags {
				meta[k] = v
			}
			texts = append(texts, chunk.Text)
			metas = append(metas, meta)
		}
	}
	return texts, metas, nil
}

// embedTexts embeds all texts in batches, at most MaxInFlightBatches at a
// time. Results land in input order regardless of batch completion order.
func (p *Pipeline) embedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxInFlightBatches)

	for start := 0; start < len(texts); start += EmbedBatchSize {
		end := start + EmbedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		start, batch := start, texts[start:end]

		g.Go(func() error {
			resp, err := p.embedder.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: batch})
			if err != nil {
				return fmt.Errorf("failed to embed batch at offset %d: %w", start, err)
			}
			for i, emb := range resp.Embeddings {
				vectors[start+i] = emb.Vector
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// Query retrieves the chunks most similar to the question and generates an
// answer grounded in them. A non-empty topicFilter restricts retrieval to
// records whose topic metadata matches exactly. Retrieval coming back empty is
// not an error; generation proceeds with an empty context and the prompt tells
// the model to say it does not know.
func (p *Pipeline) Query(ctx context.Context, question, topicFilter string) (*Answer, error) {
	prompt, sources, err := p.prepare(ctx, question, topicFilter)
	if err != nil {
		return nil, err
	}

	result, err := p.gen.Generate(ctx, generator.Request{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	return &Answer{Text: result.Text, Sources: sources}, nil
}

// QueryStream is Query with incremental token delivery. The retrieved sources
// are returned once streaming completes; after cancellation no further tokens
// reach onToken.
func (p *Pipeline) QueryStream(ctx context.Context, question, topicFilter string, onToken generator.TokenFunc) ([]types.SearchResult, error) {
	prompt, sources, err := p.prepare(ctx, question, topicFilter)
	if err != nil {
		return nil, err
	}

	if err := p.gen.GenerateStream(ctx, generator.Request{Prompt: prompt}, onToken); err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	return sources, nil
}

// prepare embeds the question, retrieves the top chunks, and assembles the
// prompt.
func (p *Pipeline) prepare(ctx context.Context, question, topicFilter string) (string, []types.SearchResult, error) {
	if strings.TrimSpace(question) == "" {
		return "", nil, types.ErrEmptyQuery
	}

	emb, err := p.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: question})
	if err != nil {
		return "", nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var filter map[string]string
	if topicFilter != "" {
		filter = map[string]string{"topic": topicFilter}
	}

	sources, err := p.engine.Search(ctx, emb.Vector, RetrievalTopK, filter, 0)
	if err != nil {
		return "", nil, fmt.Errorf("retrieval failed: %w", err)
	}

	prompt := fmt.Sprintf(promptTemplate, buildContext(sources), question)
	return prompt, sources, nil
}

// buildContext joins retrieved chunk contents, each prefixed with its record
// id for attribution, truncated at MaxContextChars. Whole entries are dropped
// at the boundary rather than cut mid-chunk.
func buildContext(sources []types.SearchResult) string {
	var b strings.Builder
	for _, s := range sources {
		entry := "[" + s.Record.ID + "] " + s.Record.Content
		if b.Len() > 0 {
			if b.Len()+len(entry)+2 > MaxContextChars {
				break
			}
			b.WriteString("\n\n")
		} else if len(entry) > MaxContextChars {
			return truncateRunes(entry, MaxContextChars)
		}
		b.WriteString(entry)
	}
	return b.String()
}

// truncateRunes cuts s to at most max bytes without splitting a UTF-8 rune.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
