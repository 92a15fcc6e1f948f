package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// searchVector performs vector similarity search using cosine similarity.
// municipality is a case-insensitive substring filter applied before
// ranking; empty matches every chunk.
func searchVector(ctx context.Context, db *sql.DB, municipality string, queryVector []float32, limit int) ([]VectorResult, error) {
	if VectorExtensionAvailable {
		return searchVectorOptimized(ctx, db, municipality, queryVector, limit)
	}
	return searchVectorFallback(ctx, db, municipality, queryVector, limit)
}

// searchVectorOptimized uses the sqlite-vec extension for SQL-based vector
// similarity search.
func searchVectorOptimized(ctx context.Context, db *sql.DB, municipality string, queryVector []float32, limit int) ([]VectorResult, error) {
	if limit <= 0 {
		return []VectorResult{}, nil
	}
	queryVectorBlob := serializeVector(queryVector)

	// vec_distance_cosine returns distance (lower is better); convert to
	// similarity so both build modes rank identically.
	query := `
		SELECT
			c.id as chunk_id,
			1.0 - vec_distance_cosine(e.vector, ?) as similarity
		FROM chunks c
		INNER JOIN embeddings e ON c.id = e.chunk_id
	`
	args := []interface{}{queryVectorBlob}
	query, args = applyMunicipalityFilter(query, args, municipality)
	query += " ORDER BY similarity DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]VectorResult, 0, limit)
	for rows.Next() {
		var result VectorResult
		if err := rows.Scan(&result.ChunkID, &result.SimilarityScore); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// searchVectorFallback computes cosine similarity in Go for builds without
// the sqlite-vec extension.
func searchVectorFallback(ctx context.Context, db *sql.DB, municipality string, queryVector []float32, limit int) ([]VectorResult, error) {
	query := `
		SELECT
			c.id as chunk_id,
			e.vector
		FROM chunks c
		INNER JOIN embeddings e ON c.id = e.chunk_id
	`
	args := []interface{}{}
	query, args = applyMunicipalityFilter(query, args, municipality)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates := make([]candidate, 0, 1000)
	for rows.Next() {
		var chunkID int64
		var vectorBlob []byte
		if err := rows.Scan(&chunkID, &vectorBlob); err != nil {
			return nil, err
		}

		vector := deserializeVector(vectorBlob)
		if len(vector) != len(queryVector) {
			continue // Dimension mismatch, skip
		}
		candidates = append(candidates, candidate{chunkID: chunkID, score: cosineSimilarity(queryVector, vector)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}
	results := make([]VectorResult, limit)
	for i := 0; i < limit; i++ {
		results[i] = VectorResult{ChunkID: candidates[i].chunkID, SimilarityScore: candidates[i].score}
	}
	return results, nil
}

// searchText performs BM25 full-text search using FTS5, then widens the
// result set with chunks whose zone-code list contains the query verbatim.
// A query like "RS-8" matches both prose mentioning RS-8 and chunks tagged
// with that zone code; code-only matches rank after every FTS hit with
// score 0.
func searchText(ctx context.Context, db *sql.DB, municipality, query string, limit int) ([]TextResult, error) {
	sanitized := sanitizeFTSQuery(query)
	if sanitized == "" {
		return nil, fmt.Errorf("empty search query")
	}

	sqlQuery := `
		SELECT
			c.id as chunk_id,
			bm25(chunks_fts) as score
		FROM chunks_fts
		INNER JOIN chunks c ON chunks_fts.rowid = c.id
		WHERE chunks_fts MATCH ?
	`
	args := []interface{}{sanitized}
	if municipality != "" {
		sqlQuery += " AND c.municipality LIKE ?"
		args = append(args, "%"+municipality+"%")
	}
	// BM25 scores are negative; lower is better.
	sqlQuery += " ORDER BY score LIMIT ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute FTS search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]TextResult, 0, limit)
	seen := make(map[int64]bool)
	for rows.Next() {
		var result TextResult
		if err := rows.Scan(&result.ChunkID, &result.BM25Score); err != nil {
			return nil, err
		}
		// Normalize the negative BM25 score into (0, 1].
		result.BM25Score = 1.0 / (1.0 + math.Abs(result.BM25Score)/50.0)
		results = append(results, result)
		seen[result.ChunkID] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(results) >= limit {
		return results, nil
	}

	zoneResults, err := searchZoneCodes(ctx, db, municipality, query, limit)
	if err != nil {
		return nil, err
	}
	for _, zr := range zoneResults {
		if len(results) >= limit {
			break
		}
		if !seen[zr.ChunkID] {
			results = append(results, zr)
		}
	}
	return results, nil
}

// searchZoneCodes finds chunks whose zone_codes JSON array contains the
// query string exactly (case-insensitive). These are eligibility matches,
// not ranked ones, so they carry score 0.
func searchZoneCodes(ctx context.Context, db *sql.DB, municipality, query string, limit int) ([]TextResult, error) {
	code := strings.ToUpper(strings.TrimSpace(query))
	if code == "" {
		return nil, nil
	}

	sqlQuery := `SELECT id FROM chunks WHERE zone_codes LIKE ?`
	args := []interface{}{`%"` + code + `"%`}
	if municipality != "" {
		sqlQuery += " AND municipality LIKE ?"
		args = append(args, "%"+municipality+"%")
	}
	sqlQuery += " ORDER BY id LIMIT ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute zone code search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []TextResult
	for rows.Next() {
		var chunkID int64
		if err := rows.Scan(&chunkID); err != nil {
			return nil, err
		}
		results = append(results, TextResult{ChunkID: chunkID, BM25Score: 0})
	}
	return results, rows.Err()
}

// applyMunicipalityFilter appends the case-insensitive substring filter.
func applyMunicipalityFilter(query string, args []interface{}, municipality string) (string, []interface{}) {
	if municipality == "" {
		return query + " WHERE 1=1", args
	}
	return query + " WHERE c.municipality LIKE ?", append(args, "%"+municipality+"%")
}

// candidate represents a chunk with its similarity score
type candidate struct {
	chunkID int64
	score   float64
}

// serializeVector converts a float32 slice to a byte blob (little-endian)
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}

// cosineSimilarity computes the cosine similarity between two vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// FTS5 operator pattern for escaping Boolean operators
var ftsOperatorPattern = regexp.MustCompile(`\b(AND|OR|NOT|NEAR)\b`)

// sanitizeFTSQuery sanitizes a search query for FTS5 so user text cannot
// smuggle in match-syntax operators.
func sanitizeFTSQuery(query string) string {
	if query == "" {
		return ""
	}

	replacer := strings.NewReplacer(
		`"`, `\"`,
		`*`, `\*`,
		`(`, `\(`,
		`)`, `\)`,
	)
	escaped := replacer.Replace(query)

	escaped = ftsOperatorPattern.ReplaceAllStringFunc(escaped, func(match string) string {
		return `\` + match
	})

	return escaped
}

// SerializeVector is an exported helper for testing
func SerializeVector(vector []float32) []byte {
	return serializeVector(vector)
}

// DeserializeVector is an exported helper for testing
func DeserializeVector(blob []byte) []float32 {
	return deserializeVector(blob)
}

// CosineSimilarity is an exported helper for testing
func CosineSimilarity(a, b []float32) float64 {
	return cosineSimilarity(a, b)
}
