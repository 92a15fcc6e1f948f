// Package storage persists municipal ordinance chunks and their embeddings
// in SQLite and serves the two ranked retrieval branches the searcher fuses:
// vector similarity and FTS5/BM25 lexical search. Both branches apply a hard
// case-insensitive municipality substring filter; the lexical branch also
// admits chunks whose zone-code list contains the query verbatim.
package storage

import (
	"context"
	"time"
)

// Chunk is one stored ordinance text chunk.
type Chunk struct {
	ID           int64
	Municipality string
	County       string
	Chapter      string
	Section      string
	SectionTitle string
	ZoneCodes    []string
	Content      string
	ChunkIndex   int
	NodeID       string // source document node, for re-ingest dedupe
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Embedding is a stored chunk embedding.
type Embedding struct {
	ID        int64
	ChunkID   int64
	Vector    []float32
	Dimension int
	Provider  string
	Model     string
	CreatedAt time.Time
}

// VectorResult is a chunk ranked by cosine similarity.
type VectorResult struct {
	ChunkID         int64
	SimilarityScore float64
}

// TextResult is a chunk ranked by normalized BM25 score. Chunks admitted
// purely by zone-code match carry score 0.
type TextResult struct {
	ChunkID   int64
	BM25Score float64
}

// StoreStatus summarizes store contents and health.
type StoreStatus struct {
	ChunksCount     int64
	EmbeddingsCount int64
	Municipalities  []string
	IndexSizeMB     float64
	Health          HealthStatus
}

// HealthStatus reports component availability.
type HealthStatus struct {
	DatabaseAccessible  bool
	EmbeddingsAvailable bool
	FTSIndexBuilt       bool
	VectorExtension     bool
}

// Tx represents a database transaction.
type Tx interface {
	Commit() error
	Rollback() error
}

// Storage is the persistence interface for ordinance chunks.
type Storage interface {
	// Chunk operations
	UpsertChunk(ctx context.Context, chunk *Chunk) error
	GetChunk(ctx context.Context, id int64) (*Chunk, error)
	DeleteChunksByMunicipality(ctx context.Context, municipality string) (int64, error)

	// Embedding operations
	UpsertEmbedding(ctx context.Context, embedding *Embedding) error
	GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error)

	// Search operations. municipality is a case-insensitive substring
	// filter; empty matches everything.
	SearchVector(ctx context.Context, municipality string, queryVector []float32, limit int) ([]VectorResult, error)
	SearchText(ctx context.Context, municipality, query string, limit int) ([]TextResult, error)

	// Status
	GetStatus(ctx context.Context) (*StoreStatus, error)

	// Transaction support
	BeginTx(ctx context.Context) (Tx, error)

	Close() error
}
