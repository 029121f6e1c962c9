package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/skovert/docquery/llm"
	"github.com/skovert/docquery/model"
)

const agenticSystemInstruction = `You are a task execution assistant.
Execute the given plan step by step against the provided data and report only the results, not your methodology.
If the data does not support a step, report that the required information is not available.`

// DefaultPlan is the step list used when the routing decision carries none
func DefaultPlan() []string {
	return []string{
		"Analyze the question and identify the required data",
		"Execute the required lookups and computations",
		"Synthesize the results into a direct answer",
	}
}

// AgenticExecutor runs a short ordered step list against a single
// representative data view. Unlike the other strategies it always populates
// the result's Plan field.
type AgenticExecutor struct {
	client llm.Client
	log    *slog.Logger
}

// NewAgenticExecutor creates the multi-step task strategy
func NewAgenticExecutor(client llm.Client, logger *slog.Logger) *AgenticExecutor {
	return &AgenticExecutor{
		client: client,
		log:    logger,
	}
}

// Execute runs the plan from the query context, or the default plan when
// none was provided
func (e *AgenticExecutor) Execute(ctx context.Context, query string, qctx *model.QueryContext) (*model.RetrievalResult, error) {
	plan := qctx.Plan
	if len(plan) == 0 {
		plan = DefaultPlan()
	}

	if len(qctx.Views) == 0 {
		return &model.RetrievalResult{
			Answer:    NoDataAnswer,
			Citations: []model.Citation{},
			Trace:     "agentic: no data in session",
			Plan:      plan,
		}, nil
	}

	var steps strings.Builder
	for i, step := range plan {
		fmt.Fprintf(&steps, "%d. %s\n", i+1, step)
	}

	// One representative view keeps the prompt bounded
	view := qctx.Views[0]

	prompt := fmt.Sprintf("Plan:\n%s\nData:\n%s\nTask: %s", steps.String(), renderView(view), query)

	answer, err := e.client.Generate(ctx, prompt, agenticSystemInstruction)
	if err != nil {
		return nil, err
	}

	return &model.RetrievalResult{
		Answer:    answer,
		Citations: fileCitations([]model.DataView{view}),
		Trace:     fmt.Sprintf("agentic: executed %d-step plan against view %q", len(plan), view.Name),
		Plan:      plan,
	}, nil
}
