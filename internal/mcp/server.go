package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mark3labs/mcp-go/server"

	"github.com/pocketrag/pocketrag/internal/chunker"
	"github.com/pocketrag/pocketrag/internal/embedder"
	"github.com/pocketrag/pocketrag/internal/engine"
	"github.com/pocketrag/pocketrag/internal/generator"
	"github.com/pocketrag/pocketrag/internal/rag"
	"github.com/pocketrag/pocketrag/internal/storage"
	"github.com/pocketrag/pocketrag/pkg/types"
)

const (
	// ServerName is the MCP server name
	ServerName = "pocketrag"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// EnvDBPath overrides the database location
	EnvDBPath = "POCKETRAG_DB_PATH"
	// EnvDimension overrides the embedding dimension
	EnvDimension = "POCKETRAG_DIMENSION"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	store    storage.Store
	engine   *engine.Engine
	embedder embedder.Embedder
	pipeline *rag.Pipeline
}

// NewServer creates a new MCP server instance. An empty dbPath resolves to
// POCKETRAG_DB_PATH, then to ~/.pocketrag/pocketrag.db.
func NewServer(dbPath string) (*Server, error) {
	dbFile, err := resolveDBPath(dbPath)
	if err != nil {
		return nil, err
	}

	dimension, err := resolveDimension()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStore(dbFile, dimension)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// One embedder instance serves both ingestion and query embedding, so the
	// embedding cache is shared across the two paths.
	emb, err := embedder.NewFromEnv(dimension)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	gen, err := generator.NewFromEnv()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}

	return newServer(store, emb, gen)
}

// newServer wires the components; split from NewServer so tests can inject
// mock providers.
func newServer(store storage.Store, emb embedder.Embedder, gen generator.Generator) (*Server, error) {
	eng, err := engine.New(store, engine.DefaultOptions())
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}

	pipeline, err := rag.NewPipeline(eng, emb, gen, chunker.Config{})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		store:    store,
		engine:   eng,
		embedder: emb,
		pipeline: pipeline,
	}
	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.store.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(ingestDocumentsTool(), s.handleIngestDocuments)
	s.mcp.AddTool(queryTool(), s.handleQuery)
	s.mcp.AddTool(searchTool(), s.handleSearch)
	s.mcp.AddTool(deleteDocumentTool(), s.handleDeleteDocument)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
	s.mcp.AddTool(cleanupCacheTool(), s.handleCleanupCache)
	s.mcp.AddTool(clearIndexTool(), s.handleClearIndex)
}

// resolveDBPath picks the database file location
func resolveDBPath(dbPath string) (string, error) {
	if dbPath == "" {
		dbPath = os.Getenv(EnvDBPath)
	}
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return "", fmt.Errorf("failed to create database directory: %w", err)
		}
		return dbPath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	dir := filepath.Join(home, ".pocketrag")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return filepath.Join(dir, "pocketrag.db"), nil
}

// resolveDimension reads the embedding dimension from the environment
func resolveDimension() (int, error) {
	raw := os.Getenv(EnvDimension)
	if raw == "" {
		return types.DefaultDimension, nil
	}
	dimension, err := strconv.Atoi(raw)
	if err != nil || dimension <= 0 {
		return 0, fmt.Errorf("invalid %s value %q", EnvDimension, raw)
	}
	return dimension, nil
}
