package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/lotscope/lotscope/internal/county"
	"github.com/lotscope/lotscope/internal/dataset"
	"github.com/lotscope/lotscope/internal/embedder"
	"github.com/lotscope/lotscope/internal/searcher"
	"github.com/lotscope/lotscope/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "lotscope"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDBPath is the default location for the ordinance database
	DefaultDBPath = "~/.lotscope"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	storage  storage.Storage
	searcher *searcher.Searcher
	adapter  *county.Adapter
	datasets *dataset.MemoryStore
}

// NewServer creates a new MCP server instance backed by the ordinance
// database at dbPath and the live county endpoints.
func NewServer(dbPath string) (*Server, error) {
	if dbPath == "" || dbPath == DefaultDBPath {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".lotscope")
	}

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dbFile := filepath.Join(dbPath, "ordinances.db")

	store, err := storage.NewSQLiteStorage(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	emb, err := embedder.NewFromEnv()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	adapter := county.NewAdapter(county.NewClient(), county.DefaultEndpoints())

	return newServer(store, searcher.NewSearcher(store, emb), adapter, dataset.NewMemoryStore(dataset.DefaultCapacity)), nil
}

// newServer wires dependencies and registers tools; split out so tests
// can inject fakes.
func newServer(store storage.Storage, srch *searcher.Searcher, adapter *county.Adapter, datasets *dataset.MemoryStore) *Server {
	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		storage:  store,
		searcher: srch,
		adapter:  adapter,
		datasets: datasets,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(searchOrdinancesTool(), s.handleSearchOrdinances)
	s.mcp.AddTool(lookupPropertyTool(), s.handleLookupProperty)
	s.mcp.AddTool(searchPropertiesTool(), s.handleSearchProperties)
	s.mcp.AddTool(filterDatasetTool(), s.handleFilterDataset)
	s.mcp.AddTool(calculateDensityTool(), s.handleCalculateDensity)
	s.mcp.AddTool(datasetStatsTool(), s.handleDatasetStats)
	s.mcp.AddTool(storeStatusTool(), s.handleStoreStatus)
}
