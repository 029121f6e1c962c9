package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/skovert/docquery/llm"
	"github.com/skovert/docquery/model"
)

const retrievalSystemInstruction = `You are a document assistant answering questions about uploaded files.
Answer concisely and only from the document context below.
If the context does not contain the requested information, state that explicitly instead of fabricating an answer.`

// RetrievalExecutor answers from a compact per-document summary/sample
// context. It is the default, always-safe strategy the router falls back to.
type RetrievalExecutor struct {
	client llm.Client
	log    *slog.Logger
}

// NewRetrievalExecutor creates the similarity-retrieval strategy
func NewRetrievalExecutor(client llm.Client, logger *slog.Logger) *RetrievalExecutor {
	return &RetrievalExecutor{
		client: client,
		log:    logger,
	}
}

// Execute answers the query from the session's document views. When no
// documents are present it short-circuits with a fixed answer and no model
// call (terminal state).
func (e *RetrievalExecutor) Execute(ctx context.Context, query string, qctx *model.QueryContext) (*model.RetrievalResult, error) {
	if len(qctx.Views) == 0 {
		return &model.RetrievalResult{
			Answer:    NoDocumentsAnswer,
			Citations: []model.Citation{},
			Trace:     "similarity-retrieval: no documents in session",
		}, nil
	}

	var b strings.Builder
	for _, view := range qctx.Views {
		b.WriteString(renderView(view))
		b.WriteString("\n")
	}

	prompt := fmt.Sprintf("Document context:\n%s\nQuestion: %s", b.String(), query)

	answer, err := e.client.Generate(ctx, prompt, retrievalSystemInstruction)
	if err != nil {
		return nil, err
	}

	return &model.RetrievalResult{
		Answer:    answer,
		Citations: fileCitations(qctx.Views),
		Trace:     fmt.Sprintf("similarity-retrieval: synthesized from %d document views", len(qctx.Views)),
	}, nil
}
