package graph

import (
	"fmt"
	"strings"

	"github.com/skovert/docquery/model"
)

// SubjectPicker chooses the subject column of a tabular view. It is an
// interface so alternative inference (e.g. cardinality-based) can be
// substituted without touching the merge logic.
type SubjectPicker interface {
	Pick(columns []string) int
}

// HeuristicSubjectPicker picks the first column whose name contains "id",
// "name" or "title" (case-insensitive), falling back to the first column.
type HeuristicSubjectPicker struct{}

var subjectMarkers = []string{"id", "name", "title"}

// Pick returns the index of the subject column
func (HeuristicSubjectPicker) Pick(columns []string) int {
	for i, col := range columns {
		lower := strings.ToLower(col)
		for _, marker := range subjectMarkers {
			if strings.Contains(lower, marker) {
				return i
			}
		}
	}
	return 0
}

// Extractor derives entity/relationship triples from resolved data views
type Extractor struct {
	picker SubjectPicker
}

// NewExtractor creates an extractor with the given subject picker.
// A nil picker defaults to the heuristic one.
func NewExtractor(picker SubjectPicker) *Extractor {
	if picker == nil {
		picker = HeuristicSubjectPicker{}
	}
	return &Extractor{picker: picker}
}

// ExtractTriples derives entities and relationships from one view.
//
// For tabular views with sample rows, every row yields one subject entity plus
// one entity and one relationship per non-empty attribute cell; the attribute
// column name acts as the relationship kind. Views without row samples fall
// back to coarser "(view) -[contains]-> (column)" relationships.
func (e *Extractor) ExtractTriples(view model.DataView) ([]model.GraphEntity, []model.GraphRelationship) {
	if !view.IsTabular() {
		return nil, nil
	}

	if len(view.SampleRows) == 0 {
		return e.extractFromColumns(view)
	}

	subjectIdx := e.picker.Pick(view.Columns)
	subjectCol := view.Columns[subjectIdx]

	var entities []model.GraphEntity
	var relationships []model.GraphRelationship
	seen := make(map[string]bool)

	addEntity := func(name, category string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		entities = append(entities, model.GraphEntity{Name: name, Category: category})
	}

	for _, row := range view.SampleRows {
		subject := strings.TrimSpace(row[subjectCol])
		if subject == "" {
			continue
		}
		addEntity(subject, view.Name)

		for _, col := range view.Columns {
			if col == subjectCol {
				continue
			}
			value := strings.TrimSpace(row[col])
			if value == "" {
				continue
			}
			addEntity(value, col)
			relationships = append(relationships, model.GraphRelationship{
				From: subject,
				To:   value,
				Kind: col,
			})
		}
	}

	return entities, relationships
}

// extractFromColumns is the fallback for views without row samples
func (e *Extractor) extractFromColumns(view model.DataView) ([]model.GraphEntity, []model.GraphRelationship) {
	entities := []model.GraphEntity{{Name: view.Name, Category: "file"}}
	var relationships []model.GraphRelationship

	for _, col := range view.Columns {
		entities = append(entities, model.GraphEntity{Name: col, Category: "field"})
		relationships = append(relationships, model.GraphRelationship{
			From: view.Name,
			To:   col,
			Kind: "contains",
		})
	}

	return entities, relationships
}

// RelationLines renders a bounded textual relation listing across views,
// deduplicated, at most limit lines. Used as synthesis context by the
// relational-graph strategy.
func (e *Extractor) RelationLines(views []model.DataView, limit int) []string {
	var lines []string
	seen := make(map[string]bool)

	for _, view := range views {
		_, relationships := e.ExtractTriples(view)
		for _, rel := range relationships {
			line := fmt.Sprintf("%s -[%s]-> %s", rel.From, rel.Kind, rel.To)
			if seen[line] {
				continue
			}
			seen[line] = true
			lines = append(lines, line)
			if len(lines) >= limit {
				return lines
			}
		}
	}

	return lines
}
