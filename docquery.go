// Package docquery answers natural-language questions about uploaded
// documents and tabular data. A router classifies each question into a
// retrieval strategy (relational graph, similarity retrieval, agentic or
// multimodal) and dispatches to the matching executor; a chunking and
// embedding pipeline plus an in-memory similarity index back the retrieval
// path, and a per-session knowledge-graph cache (optionally persisted to
// postgres) backs the graph path.
package docquery

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/skovert/docquery/config"
	"github.com/skovert/docquery/core/graph"
	"github.com/skovert/docquery/core/pipeline"
	"github.com/skovert/docquery/core/router"
	"github.com/skovert/docquery/core/search"
	"github.com/skovert/docquery/core/strategy"
	"github.com/skovert/docquery/database"
	"github.com/skovert/docquery/helper"
	"github.com/skovert/docquery/llm"
	"github.com/skovert/docquery/model"
	loadSql "github.com/skovert/docquery/sql"
)

// DocQuery provides a unified interface to routing, ingestion and search
type DocQuery struct {
	DB       *helper.Database // nil when no graph database is configured
	Client   llm.Client
	Pipeline *pipeline.Pipeline
	Searcher *search.Searcher
	Cache    graph.CacheStore
	Router   *router.Router
	Store    *database.GraphStore // nil when no graph database is configured

	graphExec *strategy.GraphExecutor

	mu     sync.RWMutex
	chunks map[string][]*model.Chunk

	cfg *config.Config
	log *slog.Logger
}

// NewDocQuery creates a DocQuery instance from the given configuration.
// Pass a nil dbConfig to run without graph persistence; the graph strategy
// then keeps extractions in the in-memory session cache only.
func NewDocQuery(cfg *config.Config, dbConfig *helper.DatabaseConfiguration) (*DocQuery, error) {
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	client, err := llm.NewOllamaClient(llm.OllamaConfig{
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		EmbedModel:  cfg.LLM.EmbedModel,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		EmbedRate:   cfg.LLM.EmbedRate,
	})
	if err != nil {
		return nil, helper.NewError("create llm client", err)
	}

	return newDocQuery(cfg, dbConfig, client, logger)
}

// NewDocQueryWithClient creates a DocQuery instance on a caller-provided
// model client. Used by tests and by callers running against a non-Ollama
// backend.
func NewDocQueryWithClient(cfg *config.Config, dbConfig *helper.DatabaseConfiguration, client llm.Client, logger *slog.Logger) (*DocQuery, error) {
	if logger == nil {
		opts := helper.PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{
				Level: slog.LevelInfo,
			},
		}
		logger = slog.New(helper.NewPrettyHandler(os.Stdout, opts))
	}
	return newDocQuery(cfg, dbConfig, client, logger)
}

func newDocQuery(cfg *config.Config, dbConfig *helper.DatabaseConfiguration, client llm.Client, logger *slog.Logger) (*DocQuery, error) {
	embedder := pipeline.EmbedFunc(client.Embed)

	chunkOpts := pipeline.ChunkOptions{
		MaxSize:  cfg.Chunking.MaxSize,
		Overlap:  cfg.Chunking.Overlap,
		Strategy: model.ParseChunkStrategy(cfg.Chunking.Strategy),
	}

	pipe := pipeline.NewPipeline(embedder, chunkOpts, logger)
	searcher := search.NewSearcher(embedder)
	cache := graph.NewMemoryStore()
	extractor := graph.NewExtractor(nil)

	var db *helper.Database
	var store *database.GraphStore
	var persist graph.Persistence = graph.NoopPersistence{}
	if dbConfig != nil {
		db = helper.NewDatabase("docquery", dbConfig, logger)
		if err := loadSql.Init(db.Instance); err != nil {
			return nil, helper.NewError("initialize database extensions", err)
		}

		var err error
		store, err = database.NewGraphStore(db, embedder, cfg.Graph.ForceLoadSql)
		if err != nil {
			return nil, helper.NewError("create graph store", err)
		}
		persist = store
	}

	graphExec := strategy.NewGraphExecutor(client, extractor, cache, persist, logger)
	retrievalExec := strategy.NewRetrievalExecutor(client, logger)
	agenticExec := strategy.NewAgenticExecutor(client, logger)

	rt := router.NewRouter(client, graphExec, retrievalExec, agenticExec, logger)

	return &DocQuery{
		DB:        db,
		Client:    client,
		Pipeline:  pipe,
		Searcher:  searcher,
		Cache:     cache,
		Router:    rt,
		Store:     store,
		graphExec: graphExec,
		chunks:    make(map[string][]*model.Chunk),
		cfg:       cfg,
		log:       logger,
	}, nil
}

// UseLocalEmbedder replaces the model-server embedder with the local
// all-MiniLM-L6-v2 model (384 dimensions). Already ingested chunks keep
// their existing vectors and should be re-ingested.
func (d *DocQuery) UseLocalEmbedder() error {
	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create local embedder", err)
	}

	d.Pipeline = pipeline.NewPipeline(embedder, d.Pipeline.Options, d.log)
	d.Searcher = search.NewSearcher(embedder)
	return nil
}

// Ask classifies the question and runs the selected strategy. When
// classification or synthesis fails, it degrades to a single direct model
// call tagged StrategyDirectFallback instead of failing the question.
func (d *DocQuery) Ask(ctx context.Context, query string, qctx *model.QueryContext) (*model.RoutedResult, error) {
	decision, err := d.Router.Classify(ctx, query)
	if err != nil {
		d.log.Warn("classification failed, answering directly", slog.String("error", err.Error()))
		return d.askDirect(ctx, query, fmt.Sprintf("classification failed: %v", err))
	}

	result, err := d.Router.Dispatch(ctx, decision, query, qctx)
	if err != nil {
		d.log.Warn("strategy execution failed, answering directly",
			slog.String("strategy", string(decision.Strategy)),
			slog.String("error", err.Error()))
		return d.askDirect(ctx, query, fmt.Sprintf("strategy %s failed: %v", decision.Strategy, err))
	}

	return result, nil
}

// askDirect is the minimal fallback path: one plain completion, no context
func (d *DocQuery) askDirect(ctx context.Context, query string, reason string) (*model.RoutedResult, error) {
	answer, err := d.Client.Generate(ctx, query, "")
	if err != nil {
		return nil, helper.NewError("direct fallback", err)
	}

	return &model.RoutedResult{
		RetrievalResult: model.RetrievalResult{
			Answer:    answer,
			Citations: []model.Citation{},
			Trace:     fmt.Sprintf("direct fallback: %s", reason),
		},
		StrategyUsed: model.StrategyDirectFallback,
		Rationale:    reason,
	}, nil
}

// IngestDocument chunks and embeds a document and registers the chunks under
// sourceID, replacing any previous ingestion of the same source.
func (d *DocQuery) IngestDocument(ctx context.Context, content string, fileType string, sourceID string) ([]*model.Chunk, error) {
	if content == "" {
		return nil, helper.NewError("ingest document", fmt.Errorf("document content is empty"))
	}

	chunks, err := d.Pipeline.Process(ctx, content, fileType, sourceID)
	if err != nil {
		return nil, helper.NewError("process document", err)
	}

	d.mu.Lock()
	d.chunks[sourceID] = chunks
	d.mu.Unlock()

	d.log.Info("Ingested document",
		slog.String("source_id", sourceID),
		slog.Int("num_chunks", len(chunks)))

	return chunks, nil
}

// Chunks returns the registered chunks of one source, or nil
func (d *DocQuery) Chunks(sourceID string) []*model.Chunk {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.chunks[sourceID]
}

// SearchChunks ranks all ingested chunks against the query and returns the
// topK best matches. topK <= 0 uses the configured default.
func (d *DocQuery) SearchChunks(ctx context.Context, query string, topK int) ([]search.ScoredChunk, error) {
	if topK <= 0 {
		topK = d.cfg.Search.TopK
	}

	// Sources are visited in sorted order so the searcher's stable tie-break
	// sees the same candidate order on every call.
	d.mu.RLock()
	sources := make([]string, 0, len(d.chunks))
	for source := range d.chunks {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	var all []*model.Chunk
	for _, source := range sources {
		all = append(all, d.chunks[source]...)
	}
	d.mu.RUnlock()

	return d.Searcher.Search(ctx, query, all, topK)
}

// GraphSnapshot returns the session's knowledge graph, preferring the
// in-memory cache and falling back to the database when connected.
func (d *DocQuery) GraphSnapshot(ctx context.Context, sessionID string) (*model.GraphCache, error) {
	cache, err := d.Cache.Get(ctx, sessionID)
	if err != nil {
		return nil, helper.NewError("read graph cache", err)
	}
	if cache != nil {
		return cache, nil
	}

	if d.Store != nil {
		return d.Store.Snapshot(ctx, sessionID, d.cfg.Graph.SnapshotLimit)
	}

	return &model.GraphCache{SessionID: sessionID}, nil
}

// Wait blocks until background graph extractions have finished.
// Call before reading GraphSnapshot when a deterministic view is needed.
func (d *DocQuery) Wait() {
	d.graphExec.Wait()
}

// Close waits for background work and closes the database connection
func (d *DocQuery) Close() error {
	d.graphExec.Wait()
	if d.DB != nil && d.DB.Instance != nil {
		return d.DB.Instance.Close()
	}
	return nil
}
