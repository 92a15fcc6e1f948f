package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedChunk(t *testing.T, s *SQLiteStorage, municipality, section, content string, zoneCodes []string) *Chunk {
	t.Helper()
	chunk := &Chunk{
		Municipality: municipality,
		County:       "Broward",
		Section:      section,
		SectionTitle: "Test section",
		ZoneCodes:    zoneCodes,
		Content:      content,
	}
	require.NoError(t, s.UpsertChunk(context.Background(), chunk))
	return chunk
}

func TestUpsertChunkRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	chunk := &Chunk{
		Municipality: "Hollywood",
		County:       "Broward",
		Chapter:      "Ch. 4",
		Section:      "Sec. 4.3",
		SectionTitle: "Setback requirements",
		ZoneCodes:    []string{"RS-8", "RM-18"},
		Content:      "Front setbacks shall be no less than twenty-five feet.",
		ChunkIndex:   0,
		NodeID:       "node-123",
	}
	require.NoError(t, s.UpsertChunk(ctx, chunk))
	require.NotZero(t, chunk.ID)

	got, err := s.GetChunk(ctx, chunk.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hollywood", got.Municipality)
	assert.Equal(t, []string{"RS-8", "RM-18"}, got.ZoneCodes)
	assert.Equal(t, chunk.Content, got.Content)

	// Upserting the same logical chunk updates in place.
	chunk2 := &Chunk{
		Municipality: "Hollywood",
		County:       "Broward",
		Section:      "Sec. 4.3",
		ZoneCodes:    []string{"RS-8"},
		Content:      "Front setbacks shall be no less than twenty feet.",
		ChunkIndex:   0,
		NodeID:       "node-123",
	}
	require.NoError(t, s.UpsertChunk(ctx, chunk2))
	assert.Equal(t, chunk.ID, chunk2.ID)

	got, err = s.GetChunk(ctx, chunk.ID)
	require.NoError(t, err)
	assert.Contains(t, got.Content, "twenty feet")
}

func TestGetChunkNotFound(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.GetChunk(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteChunksByMunicipality(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	seedChunk(t, s, "Hollywood", "Sec. 1", "alpha", nil)
	seedChunk(t, s, "Hollywood", "Sec. 2", "beta", nil)
	seedChunk(t, s, "Miramar", "Sec. 1", "gamma", nil)

	n, err := s.DeleteChunksByMunicipality(ctx, "Hollywood")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	status, err := s.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), status.ChunksCount)
	assert.Equal(t, []string{"Miramar"}, status.Municipalities)
}

func TestUpsertEmbeddingRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	chunk := seedChunk(t, s, "Hollywood", "Sec. 1", "alpha", nil)
	emb := &Embedding{
		ChunkID:   chunk.ID,
		Vector:    []float32{0.1, 0.2, 0.3},
		Dimension: 3,
		Provider:  "mock",
		Model:     "mock-v1",
	}
	require.NoError(t, s.UpsertEmbedding(ctx, emb))

	got, err := s.GetEmbedding(ctx, chunk.ID)
	require.NoError(t, err)
	assert.Equal(t, emb.Vector, got.Vector)
	assert.Equal(t, 3, got.Dimension)

	_, err = s.GetEmbedding(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchTextMunicipalityFilter(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	hollywood := seedChunk(t, s, "Hollywood", "Sec. 1", "minimum lot area per dwelling unit", nil)
	seedChunk(t, s, "Miramar", "Sec. 1", "minimum lot area per dwelling unit", nil)

	results, err := s.SearchText(ctx, "holly", "minimum lot area", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, hollywood.ID, results[0].ChunkID)
	assert.Greater(t, results[0].BM25Score, 0.0)

	// Empty municipality matches everything.
	results, err = s.SearchText(ctx, "", "minimum lot area", 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchTextZoneCodeEligibility(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	// Chunk tagged RS-8 whose prose never mentions the code.
	tagged := seedChunk(t, s, "Hollywood", "Sec. 2", "single family district regulations", []string{"RS-8"})
	prose := seedChunk(t, s, "Hollywood", "Sec. 3", "the RS district allows eight units", nil)
	_ = prose

	results, err := s.SearchText(ctx, "Hollywood", "RS-8", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	var found *TextResult
	for i := range results {
		if results[i].ChunkID == tagged.ID {
			found = &results[i]
		}
	}
	require.NotNil(t, found, "zone-code tagged chunk must be eligible")
	assert.Equal(t, 0.0, found.BM25Score)
	// Code-only matches rank after every FTS hit.
	assert.Equal(t, tagged.ID, results[len(results)-1].ChunkID)
}

func TestSearchVectorFallbackRanking(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	c1 := seedChunk(t, s, "Hollywood", "Sec. 1", "alpha", nil)
	c2 := seedChunk(t, s, "Hollywood", "Sec. 2", "beta", nil)
	c3 := seedChunk(t, s, "Miramar", "Sec. 1", "gamma", nil)

	require.NoError(t, s.UpsertEmbedding(ctx, &Embedding{ChunkID: c1.ID, Vector: []float32{1, 0, 0}, Dimension: 3, Provider: "mock", Model: "m"}))
	require.NoError(t, s.UpsertEmbedding(ctx, &Embedding{ChunkID: c2.ID, Vector: []float32{0.9, 0.1, 0}, Dimension: 3, Provider: "mock", Model: "m"}))
	require.NoError(t, s.UpsertEmbedding(ctx, &Embedding{ChunkID: c3.ID, Vector: []float32{1, 0, 0}, Dimension: 3, Provider: "mock", Model: "m"}))

	results, err := s.SearchVector(ctx, "Hollywood", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, c1.ID, results[0].ChunkID)
	assert.InDelta(t, 1.0, results[0].SimilarityScore, 1e-6)
	assert.Equal(t, c2.ID, results[1].ChunkID)
	assert.Less(t, results[1].SimilarityScore, results[0].SimilarityScore)
}

func TestVectorSerializationRoundTrip(t *testing.T) {
	vec := []float32{0.25, -1.5, 3.75, 0}
	blob := SerializeVector(vec)
	assert.Len(t, blob, 16)
	assert.Equal(t, vec, DeserializeVector(blob))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}

func TestSanitizeFTSQuery(t *testing.T) {
	assert.Equal(t, `setback \AND height`, sanitizeFTSQuery("setback AND height"))
	assert.Equal(t, `\"quoted\"`, sanitizeFTSQuery(`"quoted"`))
	assert.Equal(t, "", sanitizeFTSQuery(""))
}

func TestMigrationsIdempotent(t *testing.T) {
	s := newTestStorage(t)
	// Re-applying on an up-to-date database is a no-op.
	require.NoError(t, ApplyMigrations(context.Background(), s.db))
}
