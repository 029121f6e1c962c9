package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/skovert/docquery/core/graph"
	"github.com/skovert/docquery/llm"
	"github.com/skovert/docquery/model"
)

// maxRelationLines bounds the textual relation listing sent to the model
const maxRelationLines = 50

const graphSystemInstruction = `You are a data analyst answering questions about relationships in structured data.
Answer only from the relations listed below. Explain observed patterns concisely.
If the relations do not contain the answer, say that the information is not present instead of guessing.`

// GraphExecutor answers relationship/hierarchy questions from a bounded
// relation listing derived from the session's tabular views. Independently of
// the answer it merges the full extraction into the session's graph cache and,
// when configured, into the graph database. That side extraction is advisory:
// its failure never affects the primary answer.
type GraphExecutor struct {
	client    llm.Client
	extractor *graph.Extractor
	cache     graph.CacheStore
	persist   graph.Persistence
	log       *slog.Logger

	wg sync.WaitGroup
}

// NewGraphExecutor creates the relational-graph strategy
func NewGraphExecutor(client llm.Client, extractor *graph.Extractor, cache graph.CacheStore, persist graph.Persistence, logger *slog.Logger) *GraphExecutor {
	if persist == nil {
		persist = graph.NoopPersistence{}
	}
	return &GraphExecutor{
		client:    client,
		extractor: extractor,
		cache:     cache,
		persist:   persist,
		log:       logger,
	}
}

// Execute answers the query from extracted relations
func (e *GraphExecutor) Execute(ctx context.Context, query string, qctx *model.QueryContext) (*model.RetrievalResult, error) {
	lines := e.extractor.RelationLines(qctx.Views, maxRelationLines)
	if len(lines) == 0 {
		return &model.RetrievalResult{
			Answer:    NoDataAnswer,
			Citations: []model.Citation{},
			Trace:     "relational-graph: no relations available",
		}, nil
	}

	prompt := fmt.Sprintf("Relations:\n%s\n\nQuestion: %s", strings.Join(lines, "\n"), query)

	answer, err := e.client.Generate(ctx, prompt, graphSystemInstruction)
	if err != nil {
		return nil, err
	}

	// Best-effort side task, independent of the answer. Uses a detached
	// context so a caller-side timeout on the answer does not cancel it.
	e.wg.Add(1)
	go e.extractAndMerge(context.WithoutCancel(ctx), qctx)

	return &model.RetrievalResult{
		Answer:    answer,
		Citations: fileCitations(qctx.Views),
		Trace:     fmt.Sprintf("relational-graph: synthesized from %d relations across %d views", len(lines), len(qctx.Views)),
	}, nil
}

// Wait blocks until all background extraction tasks have finished
func (e *GraphExecutor) Wait() {
	e.wg.Wait()
}

// extractAndMerge runs the fuller extraction and folds it into the session
// cache and the persistence layer. Errors are logged and swallowed.
func (e *GraphExecutor) extractAndMerge(ctx context.Context, qctx *model.QueryContext) {
	defer e.wg.Done()

	var entities []model.GraphEntity
	var relationships []model.GraphRelationship
	for _, view := range qctx.Views {
		ve, vr := e.extractor.ExtractTriples(view)
		entities = append(entities, ve...)
		relationships = append(relationships, vr...)
	}
	if len(entities) == 0 && len(relationships) == 0 {
		return
	}

	if _, err := e.cache.Merge(ctx, qctx.SessionID, entities, relationships); err != nil {
		e.log.Warn("graph cache merge failed",
			slog.String("session_id", qctx.SessionID),
			slog.String("error", err.Error()))
		return
	}

	for _, entity := range entities {
		if err := e.persist.UpsertEntity(ctx, qctx.SessionID, entity); err != nil {
			e.log.Warn("entity upsert failed",
				slog.String("entity", entity.Name),
				slog.String("error", err.Error()))
			return
		}
	}
	for _, rel := range relationships {
		if err := e.persist.UpsertRelationship(ctx, qctx.SessionID, rel); err != nil {
			e.log.Warn("relationship upsert failed",
				slog.String("from", rel.From),
				slog.String("to", rel.To),
				slog.String("error", err.Error()))
			return
		}
	}

	e.log.Debug("merged extraction into graph cache",
		slog.String("session_id", qctx.SessionID),
		slog.Int("entities", len(entities)),
		slog.Int("relationships", len(relationships)))
}
