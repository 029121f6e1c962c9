package model

import (
	"github.com/google/uuid"
)

// ChunkStrategy identifies the segmentation strategy a chunk was produced with
type ChunkStrategy string

const (
	ChunkStrategyFixed    ChunkStrategy = "fixed"
	ChunkStrategySentence ChunkStrategy = "sentence"
	ChunkStrategySemantic ChunkStrategy = "semantic"
)

// ParseChunkStrategy maps a strategy name to its enum value, defaulting
// unknown names to semantic chunking
func ParseChunkStrategy(name string) ChunkStrategy {
	switch ChunkStrategy(name) {
	case ChunkStrategyFixed, ChunkStrategySentence, ChunkStrategySemantic:
		return ChunkStrategy(name)
	default:
		return ChunkStrategySemantic
	}
}

// Chunk represents a bounded text segment with an optional embedding vector.
// A chunk is immutable once created. A nil Embedding means embedding
// generation failed for this chunk; it is retained but not searchable.
type Chunk struct {
	ID         uuid.UUID     `json:"id"`
	Content    string        `json:"content"`
	Embedding  []float32     `json:"embedding,omitempty"`
	SourceID   string        `json:"source_id"`
	Index      int           `json:"index"`
	TotalCount int           `json:"total_count"`
	Strategy   ChunkStrategy `json:"strategy"`
	TokenCount int           `json:"token_count"`
}

// HasEmbedding reports whether the chunk carries a usable vector
func (c *Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}
