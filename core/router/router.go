// Package router classifies a natural-language query into one of the
// retrieval strategies and dispatches to the matching executor.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/skovert/docquery/core/strategy"
	"github.com/skovert/docquery/helper"
	"github.com/skovert/docquery/llm"
	"github.com/skovert/docquery/model"
)

const classifySystemInstruction = `You classify a user question about uploaded documents into exactly one retrieval strategy.

Strategies:
- "relational_graph": questions about relationships, connections, ownership, hierarchy or structure between entities.
- "similarity_retrieval": questions answered by finding relevant passages in a large amount of unstructured text.
- "agentic": compound questions that require multiple ordered steps, computations or comparisons.
- "multimodal": questions about images, audio, video or other media content.

Respond with a JSON object only, no prose:
{"strategy": "<one of the names above>", "rationale": "<one sentence>", "plan": ["<step>", ...]}

The "plan" array is required only for "agentic" and must contain at least two steps; otherwise it may be empty.`

// Router owns strategy classification and dispatch. Executors for each
// strategy are fixed at construction; multimodal questions reuse the
// similarity executor since media-specific synthesis is not implemented.
type Router struct {
	client    llm.Client
	graph     strategy.Executor
	retrieval strategy.Executor
	agentic   strategy.Executor
	log       *slog.Logger
}

// NewRouter creates a router dispatching to the given executors
func NewRouter(client llm.Client, graph, retrieval, agentic strategy.Executor, logger *slog.Logger) *Router {
	return &Router{
		client:    client,
		graph:     graph,
		retrieval: retrieval,
		agentic:   agentic,
		log:       logger,
	}
}

// Classify asks the model for a routing decision. A response that is not
// valid JSON of the expected shape is a hard error; an unknown but
// well-formed strategy name falls back to similarity retrieval.
func (r *Router) Classify(ctx context.Context, query string) (*model.RoutingDecision, error) {
	raw, err := r.client.GenerateStructured(ctx, fmt.Sprintf("Question: %s", query), classifySystemInstruction)
	if err != nil {
		return nil, helper.NewError("Router.Classify", err)
	}

	var decoded struct {
		Strategy  string   `json:"strategy"`
		Rationale string   `json:"rationale"`
		Plan      []string `json:"plan"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, helper.NewError("Router.Classify", fmt.Errorf("%w: %v", llm.ErrMalformedResponse, err))
	}
	if decoded.Strategy == "" {
		return nil, helper.NewError("Router.Classify", fmt.Errorf("%w: missing strategy field", llm.ErrMalformedResponse))
	}

	decision := &model.RoutingDecision{
		Strategy:  model.ParseStrategy(decoded.Strategy),
		Rationale: decoded.Rationale,
		Plan:      decoded.Plan,
	}
	if string(decision.Strategy) != decoded.Strategy {
		r.log.Warn("unknown strategy name, falling back to similarity retrieval",
			slog.String("returned", decoded.Strategy))
		decision.Rationale = fmt.Sprintf("unknown strategy %q, defaulted to similarity retrieval", decoded.Strategy)
	}

	r.log.Debug("classified query",
		slog.String("strategy", string(decision.Strategy)),
		slog.String("rationale", decision.Rationale))

	return decision, nil
}

// Dispatch runs the executor matching the decision. The switch is over the
// closed strategy set; anything else lands on the similarity executor.
func (r *Router) Dispatch(ctx context.Context, decision *model.RoutingDecision, query string, qctx *model.QueryContext) (*model.RoutedResult, error) {
	exec, used := r.executorFor(decision.Strategy)

	if len(decision.Plan) > 0 {
		qctx = qctx.WithPlan(decision.Plan)
	}

	result, err := exec.Execute(ctx, query, qctx)
	if err != nil {
		return nil, helper.NewError("Router.Dispatch", err)
	}

	if decision.Rationale != "" {
		result.Trace = fmt.Sprintf("routing: %s\n%s", decision.Rationale, result.Trace)
	}

	return &model.RoutedResult{
		RetrievalResult: *result,
		StrategyUsed:    used,
		Rationale:       decision.Rationale,
	}, nil
}

// RouteAndExecute classifies the query and runs the selected strategy
func (r *Router) RouteAndExecute(ctx context.Context, query string, qctx *model.QueryContext) (*model.RoutedResult, error) {
	decision, err := r.Classify(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.Dispatch(ctx, decision, query, qctx)
}

// executorFor maps a strategy to its executor and the strategy actually used
func (r *Router) executorFor(s model.Strategy) (strategy.Executor, model.Strategy) {
	switch s {
	case model.StrategyRelationalGraph:
		return r.graph, model.StrategyRelationalGraph
	case model.StrategyAgentic:
		return r.agentic, model.StrategyAgentic
	case model.StrategyMultiModal:
		// Media-aware synthesis is an alias over text retrieval for now
		return r.retrieval, model.StrategyMultiModal
	case model.StrategySimilarityRetrieval:
		return r.retrieval, model.StrategySimilarityRetrieval
	default:
		return r.retrieval, model.StrategySimilarityRetrieval
	}
}
