package types

// DefaultDimension is the embedding dimensionality used when a store or engine
// is created without an explicit dimension.
const DefaultDimension = 768

// VectorRecord is a stored unit of retrievable content: the text of one chunk,
// its embedding, and coarse string metadata used only for filtering.
type VectorRecord struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  map[string]string
}

// Clone returns a deep copy of the record. Callers that hand records to caches
// use this to prevent later mutations from leaking into shared state.
func (r *VectorRecord) Clone() VectorRecord {
	embedding := make([]float32, len(r.Embedding))
	copy(embedding, r.Embedding)

	var metadata map[string]string
	if r.Metadata != nil {
		metadata = make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			metadata[k] = v
		}
	}

	return VectorRecord{
		ID:        r.ID,
		Content:   r.Content,
		Embedding: embedding,
		Metadata:  metadata,
	}
}

// MatchesMetadata reports whether the record carries every key/value pair in
// filter. A nil or empty filter matches everything.
func (r *VectorRecord) MatchesMetadata(filter map[string]string) bool {
	for k, want := range filter {
		if got, ok := r.Metadata[k]; !ok || got != want {
			return false
		}
	}
	return true
}

// SearchResult pairs a record with its cosine similarity to the query.
// Results are ephemeral; they are never persisted.
type SearchResult struct {
	Record VectorRecord
	Score  float32
}

// Document is the ingestion input: a named source text plus optional tags that
// are copied onto every chunk record produced from it.
type Document struct {
	Source  string
	Content string
	Tags    map[string]string
}
