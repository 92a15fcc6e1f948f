// Command embedcheck verifies the configured embedding provider end to end:
// it embeds a sample query and a sample passage and reports the provider,
// model, dimension, and the similarity between the two vectors.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/lotscope/lotscope/internal/embedder"
	"github.com/lotscope/lotscope/internal/storage"
)

func main() {
	log.SetOutput(os.Stderr)
	_ = godotenv.Load()

	fmt.Printf("Detected provider: %s\n", embedder.DetectProvider())

	emb, err := embedder.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}
	defer func() { _ = emb.Close() }()

	fmt.Printf("Provider: %s\n", emb.Provider())
	fmt.Printf("Model: %s\n", emb.Model())
	fmt.Printf("Dimension: %d\n", emb.Dimension())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	query := "minimum lot size for single family homes"
	passage := "No single-family dwelling shall be erected on a lot of less than seven thousand five hundred square feet."

	start := time.Now()
	queryEmb, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
		Text: query,
		Role: embedder.RoleQuery,
	})
	if err != nil {
		log.Fatalf("Query embedding failed: %v", err)
	}
	fmt.Printf("Query embedded in %v (%d dims)\n", time.Since(start).Round(time.Millisecond), queryEmb.Dimension)

	start = time.Now()
	passageEmb, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
		Text: passage,
		Role: embedder.RolePassage,
	})
	if err != nil {
		log.Fatalf("Passage embedding failed: %v", err)
	}
	fmt.Printf("Passage embedded in %v (%d dims)\n", time.Since(start).Round(time.Millisecond), passageEmb.Dimension)

	if queryEmb.Dimension != passageEmb.Dimension {
		log.Fatalf("Dimension mismatch: query=%d passage=%d", queryEmb.Dimension, passageEmb.Dimension)
	}

	sim := storage.CosineSimilarity(queryEmb.Vector, passageEmb.Vector)
	fmt.Printf("Query/passage cosine similarity: %.4f\n", sim)
	fmt.Println("Embedding provider OK")
}
