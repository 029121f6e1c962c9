package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/sync/errgroup"

	"github.com/skovert/docquery/model"
)

// embedBatchSize is the number of chunk embeddings requested concurrently.
// Batches run sequentially, so this bounds the fan-out per request.
const embedBatchSize = 5

// tokenEncoding is the tiktoken encoding used to approximate chunk token counts
const tokenEncoding = "cl100k_base"

// Pipeline combines chunking and batched embedding
type Pipeline struct {
	Embedder EmbedFunc
	Options  ChunkOptions

	encoder *tiktoken.Tiktoken
	log     *slog.Logger
}

// NewPipeline creates a new processing pipeline. The token encoder is
// optional; when it cannot be loaded, token counts fall back to a character
// heuristic.
func NewPipeline(embedder EmbedFunc, opts ChunkOptions, logger *slog.Logger) *Pipeline {
	encoder, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		logger.Warn("token encoding unavailable, using character heuristic", slog.String("error", err.Error()))
		encoder = nil
	}

	return &Pipeline{
		Embedder: embedder,
		Options:  opts,
		encoder:  encoder,
		log:      logger,
	}
}

// Process chunks text with the detected strategy and embeds the chunks.
// fileType steers strategy detection; sourceID scopes the resulting chunks.
func (p *Pipeline) Process(ctx context.Context, text string, fileType string, sourceID string) ([]*model.Chunk, error) {
	opts := p.Options
	opts.Strategy = DetectStrategy(text, fileType)

	contents, err := Chunk(text, opts)
	if err != nil {
		return nil, err
	}

	return p.EmbedBatch(ctx, contents, sourceID, opts.Strategy)
}

// EmbedBatch embeds chunk contents in batches of embedBatchSize, issued
// concurrently within a batch and sequentially across batches. An individual
// embedding failure degrades that one chunk (embedding omitted, logged) but
// never aborts the batch: the caller always receives the full chunk list and
// must treat vectorless chunks as non-searchable.
func (p *Pipeline) EmbedBatch(ctx context.Context, contents []string, sourceID string, strategy model.ChunkStrategy) ([]*model.Chunk, error) {
	chunks := make([]*model.Chunk, len(contents))
	for i, content := range contents {
		chunks[i] = &model.Chunk{
			ID:         uuid.New(),
			Content:    content,
			SourceID:   sourceID,
			Index:      i,
			TotalCount: len(contents),
			Strategy:   strategy,
			TokenCount: p.countTokens(content),
		}
	}

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, chunk := range chunks[start:end] {
			g.Go(func() error {
				embedding, err := p.Embedder(gctx, NormalizeWhitespace(chunk.Content))
				if err != nil {
					p.log.Warn("embedding failed, keeping chunk without vector",
						slog.String("chunk_id", chunk.ID.String()),
						slog.Int("index", chunk.Index),
						slog.String("error", err.Error()))
					return nil
				}
				chunk.Embedding = embedding
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return chunks, err
		}
	}

	return chunks, nil
}

// NormalizeWhitespace collapses all whitespace runs to single spaces.
// Embedding requests normalize text first for token and cost hygiene.
func NormalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func (p *Pipeline) countTokens(content string) int {
	if p.encoder != nil {
		return len(p.encoder.Encode(content, nil, nil))
	}
	// Rough heuristic: one token per four characters
	return (len(content) + 3) / 4
}
