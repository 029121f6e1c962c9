package pipeline

import (
	"context"

	"github.com/skovert/docquery/model"
)

// ChunkFunc is a function that splits text into chunk contents
type ChunkFunc func(text string) ([]string, error)

// EmbedFunc is a function that generates an embedding vector for text
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// ChunkOptions configures text segmentation
type ChunkOptions struct {
	MaxSize  int
	Overlap  int
	Strategy model.ChunkStrategy
}

// DefaultChunkOptions returns sensible defaults: 1000 character chunks with
// 200 characters of overlap, semantic strategy.
func DefaultChunkOptions() ChunkOptions {
	return ChunkOptions{
		MaxSize:  1000,
		Overlap:  200,
		Strategy: model.ChunkStrategySemantic,
	}
}

// Chunk splits text according to the options' strategy
func Chunk(text string, opts ChunkOptions) ([]string, error) {
	var chunker ChunkFunc
	switch opts.Strategy {
	case model.ChunkStrategyFixed:
		chunker = FixedChunker(opts.MaxSize, opts.Overlap)
	case model.ChunkStrategySentence:
		chunker = SentenceChunker(opts.MaxSize)
	default:
		chunker = SemanticChunker(opts.MaxSize)
	}
	return chunker(text)
}
