// Package strategy contains the interchangeable query-answering strategies
// the router dispatches to. All strategies degrade to a fixed "no data"
// answer instead of fabricating when the session view is empty.
package strategy

import (
	"context"
	"fmt"
	"strings"

	"github.com/skovert/docquery/model"
)

// Executor is the contract shared by all retrieval strategies
type Executor interface {
	Execute(ctx context.Context, query string, qctx *model.QueryContext) (*model.RetrievalResult, error)
}

// Fixed terminal answers for empty sessions. No model call is made when a
// strategy returns one of these.
const (
	NoDataAnswer      = "No data is available in this session to answer the question."
	NoDocumentsAnswer = "No documents have been uploaded to this session yet, so there is nothing to search."
)

// maxSampleRows bounds how many sample rows of a view are rendered into
// synthesis context
const maxSampleRows = 3

// renderView formats one data view as compact synthesis context
func renderView(view model.DataView) string {
	var b strings.Builder

	fmt.Fprintf(&b, "### %s\n", view.Name)
	if len(view.Columns) > 0 {
		fmt.Fprintf(&b, "Columns: %s\n", strings.Join(view.Columns, ", "))
	}
	for i, row := range view.SampleRows {
		if i >= maxSampleRows {
			break
		}
		fmt.Fprintf(&b, "Row %d: ", i+1)
		for j, col := range view.Columns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%s", col, row[col])
		}
		b.WriteString("\n")
	}
	if view.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", view.Summary)
	}

	return b.String()
}

// fileCitations builds file-level citations for the given views
func fileCitations(views []model.DataView) []model.Citation {
	citations := make([]model.Citation, 0, len(views))
	for _, view := range views {
		excerpt := view.Summary
		if excerpt == "" {
			excerpt = strings.Join(view.Columns, ", ")
		}
		citations = append(citations, model.Citation{
			ID:      view.Name,
			Excerpt: excerpt,
			Kind:    "file",
		})
	}
	return citations
}
