package search

import (
	"context"
	"math"
	"sort"

	"github.com/skovert/docquery/core/pipeline"
	"github.com/skovert/docquery/helper"
	"github.com/skovert/docquery/model"
)

// DefaultTopK is the number of chunks returned when the caller passes topK <= 0
const DefaultTopK = 5

// Searcher ranks chunks against a query by cosine similarity
type Searcher struct {
	embedder pipeline.EmbedFunc
}

// NewSearcher creates a searcher using the given embedder for queries
func NewSearcher(embedder pipeline.EmbedFunc) *Searcher {
	return &Searcher{embedder: embedder}
}

// ScoredChunk pairs a chunk with its similarity score against the query
type ScoredChunk struct {
	Chunk *model.Chunk
	Score float64
}

// Search embeds the query once, scores every chunk that carries a vector and
// returns the topK best matches in descending similarity order. Ties keep the
// chunks' original order (stable sort); no secondary key is defined.
func (s *Searcher) Search(ctx context.Context, query string, chunks []*model.Chunk, topK int) ([]ScoredChunk, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	queryEmbedding, err := s.embedder(ctx, pipeline.NormalizeWhitespace(query))
	if err != nil {
		return nil, helper.NewError("embed query", err)
	}

	var scored []ScoredChunk
	for _, chunk := range chunks {
		if !chunk.HasEmbedding() {
			continue
		}
		scored = append(scored, ScoredChunk{
			Chunk: chunk,
			Score: CosineSimilarity(queryEmbedding, chunk.Embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}

	return scored, nil
}

// CosineSimilarity calculates the cosine similarity between two embedding
// vectors. The result lies in [-1, 1]. Mismatched dimensions or a zero
// magnitude return exactly 0; the function never panics.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	// Rounding can push the quotient one ulp past 1 (e.g. a compared with
	// itself), so the result is clamped to stay inside [-1, 1].
	score := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1, math.Min(1, score))
}
