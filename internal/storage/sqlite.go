package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance and applies any
// pending migrations.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) Commit() error   { return t.tx.Commit() }
func (t *sqliteTx) Rollback() error { return t.tx.Rollback() }

func (s *SQLiteStorage) querier() querier { return s.db }

// Chunk operations

func (s *SQLiteStorage) upsertChunkWithQuerier(ctx context.Context, q querier, chunk *Chunk) error {
	zoneCodes, err := json.Marshal(chunk.ZoneCodes)
	if err != nil {
		return fmt.Errorf("failed to encode zone codes: %w", err)
	}
	if chunk.ZoneCodes == nil {
		zoneCodes = []byte("[]")
	}

	query := `
		INSERT INTO chunks (municipality, county, chapter, section, section_title,
		                    zone_codes, content, chunk_index, node_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(municipality, node_id, section, chunk_index) DO UPDATE SET
			county = excluded.county,
			chapter = excluded.chapter,
			section_title = excluded.section_title,
			zone_codes = excluded.zone_codes,
			content = excluded.content,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err = q.QueryRowContext(ctx, query,
		chunk.Municipality, chunk.County, chunk.Chapter, chunk.Section, chunk.SectionTitle,
		string(zoneCodes), chunk.Content, chunk.ChunkIndex, chunk.NodeID, now, now).Scan(&chunk.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert chunk: %w", err)
	}
	chunk.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertChunk(ctx context.Context, chunk *Chunk) error {
	return s.upsertChunkWithQuerier(ctx, s.querier(), chunk)
}

func (s *SQLiteStorage) GetChunk(ctx context.Context, id int64) (*Chunk, error) {
	query := `
		SELECT id, municipality, county, chapter, section, section_title,
		       zone_codes, content, chunk_index, node_id, created_at, updated_at
		FROM chunks
		WHERE id = ?
	`
	var chunk Chunk
	var chapter, section, sectionTitle sql.NullString
	var zoneCodes string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&chunk.ID, &chunk.Municipality, &chunk.County, &chapter, &section, &sectionTitle,
		&zoneCodes, &chunk.Content, &chunk.ChunkIndex, &chunk.NodeID,
		&chunk.CreatedAt, &chunk.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	chunk.Chapter = chapter.String
	chunk.Section = section.String
	chunk.SectionTitle = sectionTitle.String
	if err := json.Unmarshal([]byte(zoneCodes), &chunk.ZoneCodes); err != nil {
		return nil, fmt.Errorf("failed to decode zone codes for chunk %d: %w", id, err)
	}
	return &chunk, nil
}

func (s *SQLiteStorage) DeleteChunksByMunicipality(ctx context.Context, municipality string) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE municipality = ?", municipality)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks: %w", err)
	}
	return result.RowsAffected()
}

// Embedding operations

func (s *SQLiteStorage) UpsertEmbedding(ctx context.Context, embedding *Embedding) error {
	query := `
		INSERT INTO embeddings (chunk_id, vector, dimension, provider, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			vector = excluded.vector,
			dimension = excluded.dimension,
			provider = excluded.provider,
			model = excluded.model
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		embedding.ChunkID, serializeVector(embedding.Vector), embedding.Dimension,
		embedding.Provider, embedding.Model, time.Now()).Scan(&embedding.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error) {
	query := `
		SELECT id, chunk_id, vector, dimension, provider, model, created_at
		FROM embeddings
		WHERE chunk_id = ?
	`
	var embedding Embedding
	var blob []byte
	err := s.db.QueryRowContext(ctx, query, chunkID).Scan(
		&embedding.ID, &embedding.ChunkID, &blob, &embedding.Dimension,
		&embedding.Provider, &embedding.Model, &embedding.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	embedding.Vector = deserializeVector(blob)
	return &embedding, nil
}

// Search operations

func (s *SQLiteStorage) SearchVector(ctx context.Context, municipality string, queryVector []float32, limit int) ([]VectorResult, error) {
	return searchVector(ctx, s.db, municipality, queryVector, limit)
}

func (s *SQLiteStorage) SearchText(ctx context.Context, municipality, query string, limit int) ([]TextResult, error) {
	return searchText(ctx, s.db, municipality, query, limit)
}

// Status

func (s *SQLiteStorage) GetStatus(ctx context.Context) (*StoreStatus, error) {
	status := &StoreStatus{
		Health: HealthStatus{VectorExtension: VectorExtensionAvailable},
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&status.ChunksCount); err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	status.Health.DatabaseAccessible = true

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings").Scan(&status.EmbeddingsCount); err != nil {
		return nil, fmt.Errorf("failed to count embeddings: %w", err)
	}
	status.Health.EmbeddingsAvailable = status.EmbeddingsCount > 0

	var ftsCount int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks_fts").Scan(&ftsCount); err == nil {
		status.Health.FTSIndexBuilt = true
	}

	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT municipality FROM chunks ORDER BY municipality")
	if err != nil {
		return nil, fmt.Errorf("failed to list municipalities: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		status.Municipalities = append(status.Municipalities, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if info, err := os.Stat(s.dbPath); err == nil {
		status.IndexSizeMB = float64(info.Size()) / (1024 * 1024)
	}

	return status, nil
}
