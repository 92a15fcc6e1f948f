package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotscope/lotscope/internal/chunker"
	"github.com/lotscope/lotscope/internal/embedder"
	"github.com/lotscope/lotscope/internal/storage"
)

// memStorage records upserts; safe for concurrent workers.
type memStorage struct {
	storage.Storage

	mu         sync.Mutex
	nextID     int64
	chunks     map[int64]*storage.Chunk
	embeddings map[int64]*storage.Embedding
	deleted    []string
}

func newMemStorage() *memStorage {
	return &memStorage{
		chunks:     make(map[int64]*storage.Chunk),
		embeddings: make(map[int64]*storage.Embedding),
	}
}

func (m *memStorage) UpsertChunk(ctx context.Context, chunk *storage.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	chunk.ID = m.nextID
	copied := *chunk
	m.chunks[chunk.ID] = &copied
	return nil
}

func (m *memStorage) UpsertEmbedding(ctx context.Context, emb *storage.Embedding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *emb
	m.embeddings[emb.ChunkID] = &copied
	return nil
}

func (m *memStorage) DeleteChunksByMunicipality(ctx context.Context, municipality string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, municipality)
	var n int64
	for id, chunk := range m.chunks {
		if chunk.Municipality == municipality {
			delete(m.chunks, id)
			delete(m.embeddings, id)
			n++
		}
	}
	return n, nil
}

// failingEmbedder always errors on batch generation.
type failingEmbedder struct{}

func (f *failingEmbedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	return nil, errors.New("provider down")
}

func (f *failingEmbedder) GenerateBatch(ctx context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	return nil, errors.New("provider down")
}

func (f *failingEmbedder) Dimension() int   { return 3 }
func (f *failingEmbedder) Provider() string { return "failing" }
func (f *failingEmbedder) Model() string    { return "failing-v1" }
func (f *failingEmbedder) Close() error     { return nil }

func sectionFixture(municipality, heading string) chunker.Section {
	return chunker.Section{
		Municipality: municipality,
		County:       "Broward",
		Heading:      heading,
		Text:         "Front setbacks in the RS-8 district shall be no less than twenty-five feet from the property line.",
		NodeID:       heading,
	}
}

func TestIngestSectionsStoresChunksAndEmbeddings(t *testing.T) {
	store := newMemStorage()
	emb, err := embedder.NewLocalProvider(nil)
	require.NoError(t, err)

	ing := New(store, emb, WithWorkers(2), WithBatchSize(2))
	stats, err := ing.IngestSections(context.Background(), []chunker.Section{
		sectionFixture("Hollywood", "Sec. 4.1 - Setbacks"),
		sectionFixture("Hollywood", "Sec. 4.2 - Height"),
		sectionFixture("Miramar", "Sec. 9.1 - Density"),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.ChunksStored)
	assert.Equal(t, 0, stats.EmbeddingsFailed)
	assert.Empty(t, stats.ErrorMessages)
	assert.Len(t, store.chunks, 3)
	assert.Len(t, store.embeddings, 3)

	for id, e := range store.embeddings {
		assert.Equal(t, embedder.LocalDimension, e.Dimension, "chunk %d", id)
		assert.Equal(t, "local", e.Provider)
	}
}

func TestIngestSectionsEmbeddingFailureStillStoresChunks(t *testing.T) {
	store := newMemStorage()
	ing := New(store, &failingEmbedder{})

	stats, err := ing.IngestSections(context.Background(), []chunker.Section{
		sectionFixture("Davie", "Sec. 1.1 - General"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.ChunksStored)
	assert.Equal(t, 1, stats.EmbeddingsFailed)
	assert.NotEmpty(t, stats.ErrorMessages)
	assert.Len(t, store.chunks, 1)
	assert.Empty(t, store.embeddings)
}

func TestIngestSectionsSkipsShortFragments(t *testing.T) {
	store := newMemStorage()
	emb, err := embedder.NewLocalProvider(nil)
	require.NoError(t, err)

	ing := New(store, emb)
	stats, err := ing.IngestSections(context.Background(), []chunker.Section{
		{Municipality: "Davie", Text: "Too short."},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, stats.ChunksStored)
	assert.Equal(t, 1, stats.ChunksSkipped)
	assert.Empty(t, store.chunks)
}

func TestReplaceMunicipality(t *testing.T) {
	store := newMemStorage()
	emb, err := embedder.NewLocalProvider(nil)
	require.NoError(t, err)
	ing := New(store, emb)

	ctx := context.Background()
	_, err = ing.IngestSections(ctx, []chunker.Section{
		sectionFixture("Hollywood", "Sec. 4.1 - Setbacks"),
		sectionFixture("Miramar", "Sec. 9.1 - Density"),
	})
	require.NoError(t, err)

	stats, err := ing.ReplaceMunicipality(ctx, "Hollywood", []chunker.Section{
		sectionFixture("Hollywood", "Sec. 5.1 - Revised setbacks"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ChunksStored)
	assert.Equal(t, []string{"Hollywood"}, store.deleted)

	var hollywood, miramar int
	for _, chunk := range store.chunks {
		switch chunk.Municipality {
		case "Hollywood":
			hollywood++
			assert.Equal(t, "Sec. 5.1", chunk.Section)
		case "Miramar":
			miramar++
		}
	}
	assert.Equal(t, 1, hollywood)
	assert.Equal(t, 1, miramar)
}

func TestIngestLongSectionProducesMultipleChunks(t *testing.T) {
	store := newMemStorage()
	emb, err := embedder.NewLocalProvider(nil)
	require.NoError(t, err)
	ing := New(store, emb, WithBatchSize(3))

	para := strings.Repeat("All residential construction shall comply with district regulations. ", 15)
	sec := chunker.Section{
		Municipality: "Hollywood",
		County:       "Broward",
		Heading:      "Sec. 12-30. - District regulations.",
		Text:         para + "\n\n" + para + "\n\n" + para,
	}

	stats, err := ing.IngestSections(context.Background(), []chunker.Section{sec})
	require.NoError(t, err)
	assert.Greater(t, stats.ChunksStored, 1)
	assert.Equal(t, stats.ChunksStored, len(store.embeddings))
}
