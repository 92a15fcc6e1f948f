// Package ingest loads chunked ordinance text into storage with
// embeddings. Batches are embedded and stored concurrently; embedding
// failures degrade individual chunks to keyword-only retrieval rather
// than failing the run.
package ingest

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lotscope/lotscope/internal/chunker"
	"github.com/lotscope/lotscope/internal/embedder"
	"github.com/lotscope/lotscope/internal/storage"
)

const (
	DefaultWorkers   = 4
	DefaultBatchSize = embedder.DefaultBatchSize
)

// Statistics summarizes an ingest run.
type Statistics struct {
	ChunksStored     int
	ChunksSkipped    int
	EmbeddingsFailed int
	Duration         time.Duration
	ErrorMessages    []string
}

// Ingestor chunks, embeds, and stores ordinance sections.
type Ingestor struct {
	storage   storage.Storage
	embedder  embedder.Embedder
	chunker   *chunker.Chunker
	workers   int
	batchSize int
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithWorkers sets the number of concurrent embed+store workers.
func WithWorkers(n int) Option {
	return func(i *Ingestor) {
		if n > 0 {
			i.workers = n
		}
	}
}

// WithBatchSize sets how many chunks are embedded per API call.
func WithBatchSize(n int) Option {
	return func(i *Ingestor) {
		if n > 0 && n <= embedder.MaxBatchSize {
			i.batchSize = n
		}
	}
}

// New creates an Ingestor.
func New(store storage.Storage, emb embedder.Embedder, opts ...Option) *Ingestor {
	ing := &Ingestor{
		storage:   store,
		embedder:  emb,
		chunker:   chunker.New(),
		workers:   DefaultWorkers,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// IngestSections chunks and stores the given sections. Chunks are
// embedded in batches across worker goroutines; a chunk whose embedding
// fails is still stored for lexical search.
func (i *Ingestor) IngestSections(ctx context.Context, sections []chunker.Section) (*Statistics, error) {
	start := time.Now()
	stats := &Statistics{}

	var chunks []*storage.Chunk
	for _, sec := range sections {
		secChunks, dropped := i.chunker.ChunkSection(sec)
		stats.ChunksSkipped += dropped
		chunks = append(chunks, secChunks...)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.workers)

	for batchStart := 0; batchStart < len(chunks); batchStart += i.batchSize {
		batch := chunks[batchStart:min(batchStart+i.batchSize, len(chunks))]
		g.Go(func() error {
			stored, failed, errs := i.processBatch(gctx, batch)
			mu.Lock()
			stats.ChunksStored += stored
			stats.EmbeddingsFailed += failed
			stats.ErrorMessages = append(stats.ErrorMessages, errs...)
			mu.Unlock()
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// ReplaceMunicipality atomically swaps a municipality's chunks: existing
// rows are deleted, then the new sections are ingested.
func (i *Ingestor) ReplaceMunicipality(ctx context.Context, municipality string, sections []chunker.Section) (*Statistics, error) {
	deleted, err := i.storage.DeleteChunksByMunicipality(ctx, municipality)
	if err != nil {
		return nil, fmt.Errorf("failed to clear municipality %s: %w", municipality, err)
	}
	log.Printf("replaced municipality %s: deleted %d existing chunks", municipality, deleted)
	return i.IngestSections(ctx, sections)
}

// processBatch embeds one batch and stores chunks plus embeddings.
func (i *Ingestor) processBatch(ctx context.Context, batch []*storage.Chunk) (stored, failed int, errs []string) {
	texts := make([]string, len(batch))
	for n, chunk := range batch {
		texts[n] = chunk.Content
	}

	var embeddings []*embedder.Embedding
	resp, err := i.embedder.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{
		Texts: texts,
		Role:  embedder.RolePassage,
	})
	if err != nil {
		errs = append(errs, fmt.Sprintf("batch embedding failed: %v", err))
		failed += len(batch)
	} else {
		embeddings = resp.Embeddings
	}

	for n, chunk := range batch {
		if err := i.storage.UpsertChunk(ctx, chunk); err != nil {
			errs = append(errs, fmt.Sprintf("store chunk %s/%s[%d]: %v", chunk.Municipality, chunk.Section, chunk.ChunkIndex, err))
			continue
		}
		stored++

		if embeddings == nil || n >= len(embeddings) {
			continue
		}
		emb := embeddings[n]
		if err := i.validateEmbedding(emb); err != nil {
			errs = append(errs, fmt.Sprintf("embedding for chunk %d: %v", chunk.ID, err))
			failed++
			continue
		}

		if err := i.storage.UpsertEmbedding(ctx, &storage.Embedding{
			ChunkID:   chunk.ID,
			Vector:    emb.Vector,
			Dimension: emb.Dimension,
			Provider:  i.embedder.Provider(),
			Model:     i.embedder.Model(),
		}); err != nil {
			errs = append(errs, fmt.Sprintf("store embedding for chunk %d: %v", chunk.ID, err))
			failed++
		}
	}
	return stored, failed, errs
}

// validateEmbedding rejects dimension mismatches and zero vectors. A
// zero vector ranks identically against everything and would pollute
// cosine results.
func (i *Ingestor) validateEmbedding(emb *embedder.Embedding) error {
	if emb.Dimension != i.embedder.Dimension() {
		return fmt.Errorf("dimension %d does not match provider dimension %d", emb.Dimension, i.embedder.Dimension())
	}
	for _, v := range emb.Vector {
		if v != 0 {
			return nil
		}
	}
	return fmt.Errorf("zero vector")
}
