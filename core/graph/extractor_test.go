package graph

import (
	"testing"

	"github.com/skovert/docquery/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productsView() model.DataView {
	return model.DataView{
		Name:    "products",
		Columns: []string{"id", "category", "price"},
		SampleRows: []map[string]string{
			{"id": "P1", "category": "Books", "price": "9.99"},
		},
	}
}

func TestExtractTriples(t *testing.T) {
	extractor := NewExtractor(nil)

	t.Run("Row yields subject, attribute entities and relationships", func(t *testing.T) {
		entities, relationships := extractor.ExtractTriples(productsView())

		require.Len(t, entities, 3)
		assert.Equal(t, model.GraphEntity{Name: "P1", Category: "products"}, entities[0])
		assert.Contains(t, entities, model.GraphEntity{Name: "Books", Category: "category"})
		assert.Contains(t, entities, model.GraphEntity{Name: "9.99", Category: "price"})

		require.Len(t, relationships, 2)
		assert.Contains(t, relationships, model.GraphRelationship{From: "P1", To: "Books", Kind: "category"})
		assert.Contains(t, relationships, model.GraphRelationship{From: "P1", To: "9.99", Kind: "price"})
	})

	t.Run("Duplicate values across rows produce one entity", func(t *testing.T) {
		view := productsView()
		view.SampleRows = append(view.SampleRows, map[string]string{"id": "P2", "category": "Books", "price": "14.50"})

		entities, relationships := extractor.ExtractTriples(view)

		var books int
		for _, e := range entities {
			if e.Name == "Books" {
				books++
			}
		}
		assert.Equal(t, 1, books, "shared attribute value should be one entity")
		assert.Len(t, relationships, 4, "each row still yields its own relationships")
	})

	t.Run("Empty cells are skipped", func(t *testing.T) {
		view := productsView()
		view.SampleRows = []map[string]string{{"id": "P1", "category": "", "price": " "}}

		entities, relationships := extractor.ExtractTriples(view)
		assert.Len(t, entities, 1, "only the subject should remain")
		assert.Empty(t, relationships)
	})

	t.Run("Rows without a subject are skipped", func(t *testing.T) {
		view := productsView()
		view.SampleRows = []map[string]string{{"id": "", "category": "Books", "price": "9.99"}}

		entities, relationships := extractor.ExtractTriples(view)
		assert.Empty(t, entities)
		assert.Empty(t, relationships)
	})

	t.Run("Non-tabular views yield nothing", func(t *testing.T) {
		entities, relationships := extractor.ExtractTriples(model.DataView{Name: "notes.md", Summary: "free text"})
		assert.Empty(t, entities)
		assert.Empty(t, relationships)
	})

	t.Run("Views without rows fall back to column structure", func(t *testing.T) {
		view := model.DataView{Name: "inventory", Columns: []string{"sku", "count"}}
		entities, relationships := extractor.ExtractTriples(view)

		require.Len(t, entities, 3)
		assert.Equal(t, model.GraphEntity{Name: "inventory", Category: "file"}, entities[0])
		assert.Contains(t, relationships, model.GraphRelationship{From: "inventory", To: "sku", Kind: "contains"})
		assert.Contains(t, relationships, model.GraphRelationship{From: "inventory", To: "count", Kind: "contains"})
	})
}

func TestHeuristicSubjectPicker(t *testing.T) {
	picker := HeuristicSubjectPicker{}

	t.Run("Prefers marker columns", func(t *testing.T) {
		assert.Equal(t, 1, picker.Pick([]string{"price", "product_id", "category"}))
		assert.Equal(t, 2, picker.Pick([]string{"price", "count", "Name"}))
	})

	t.Run("Falls back to the first column", func(t *testing.T) {
		assert.Equal(t, 0, picker.Pick([]string{"price", "count"}))
	})
}

func TestRelationLines(t *testing.T) {
	extractor := NewExtractor(nil)

	t.Run("Lines are rendered and deduplicated", func(t *testing.T) {
		views := []model.DataView{productsView(), productsView()}
		lines := extractor.RelationLines(views, 50)

		require.Len(t, lines, 2, "duplicate views should not duplicate lines")
		assert.Contains(t, lines, "P1 -[category]-> Books")
		assert.Contains(t, lines, "P1 -[price]-> 9.99")
	})

	t.Run("Limit bounds the listing", func(t *testing.T) {
		lines := extractor.RelationLines([]model.DataView{productsView()}, 1)
		assert.Len(t, lines, 1)
	})

	t.Run("No tabular views yields no lines", func(t *testing.T) {
		lines := extractor.RelationLines([]model.DataView{{Name: "plain", Summary: "text"}}, 50)
		assert.Empty(t, lines)
	})
}
