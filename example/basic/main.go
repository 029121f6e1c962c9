package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"github.com/skovert/docquery"
	"github.com/skovert/docquery/config"
	"github.com/skovert/docquery/model"
)

var sampleDocuments = map[string]string{
	"products.csv": `id,category,price
P1,Books,9.99
P2,Electronics,199.00
P3,Books,14.50`,

	"notes.md": `# Quarterly notes

Book sales grew steadily through the quarter, driven by the P1 and P3 titles.

Electronics remained flat. The P2 device needs a price review before the
holiday season.`,
}

func main() {
	// Optional .env for OLLAMA_BASE_URL and friends
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// nil database configuration: graph extractions stay in the session cache
	dq, err := docquery.NewDocQuery(cfg, nil)
	if err != nil {
		log.Fatalf("Failed to create docquery: %v", err)
	}
	defer dq.Close()

	ctx := context.Background()

	fmt.Println("Ingesting documents...")
	bar := progressbar.Default(int64(len(sampleDocuments)))
	for name, content := range sampleDocuments {
		chunks, err := dq.IngestDocument(ctx, content, fileTypeOf(name), name)
		if err != nil {
			log.Fatalf("Failed to ingest %s: %v", name, err)
		}
		fmt.Printf("  %s: %d chunks\n", name, len(chunks))
		bar.Add(1)
	}

	qctx := &model.QueryContext{
		SessionID: "example-session",
		Views: []model.DataView{
			{
				Name:    "products.csv",
				Columns: []string{"id", "category", "price"},
				SampleRows: []map[string]string{
					{"id": "P1", "category": "Books", "price": "9.99"},
					{"id": "P2", "category": "Electronics", "price": "199.00"},
					{"id": "P3", "category": "Books", "price": "14.50"},
				},
			},
			{
				Name:    "notes.md",
				Summary: "Quarterly notes on book and electronics sales.",
			},
		},
	}

	questions := []string{
		"Which products belong to the Books category?",
		"Summarize the quarterly notes.",
	}

	for _, question := range questions {
		fmt.Printf("\nQuestion: %s\n", question)

		result, err := dq.Ask(ctx, question, qctx)
		if err != nil {
			log.Fatalf("Failed to answer: %v", err)
		}

		fmt.Printf("Strategy: %s\n", result.StrategyUsed)
		fmt.Printf("Answer: %s\n", result.Answer)
		for _, citation := range result.Citations {
			fmt.Printf("  [%s] %s\n", citation.Kind, citation.ID)
		}
	}

	// Wait for background graph extraction, then inspect the session graph
	dq.Wait()
	snapshot, err := dq.GraphSnapshot(ctx, qctx.SessionID)
	if err != nil {
		log.Fatalf("Failed to read graph snapshot: %v", err)
	}
	fmt.Printf("\nSession graph: %d entities, %d relationships\n",
		len(snapshot.Entities), len(snapshot.Relationships))

	// Plain similarity search over the ingested chunks
	results, err := dq.SearchChunks(ctx, "book sales", 3)
	if err != nil {
		log.Fatalf("Failed to search chunks: %v", err)
	}
	fmt.Printf("\nTop chunks for 'book sales':\n")
	for i, scored := range results {
		fmt.Printf("  %d. [%.4f] %s\n", i+1, scored.Score, scored.Chunk.Content)
	}
}

func fileTypeOf(name string) string {
	switch {
	case len(name) > 4 && name[len(name)-4:] == ".csv":
		return "csv"
	case len(name) > 3 && name[len(name)-3:] == ".md":
		return "md"
	default:
		return "txt"
	}
}
