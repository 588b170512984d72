package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pocketrag/pocketrag/pkg/types"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db        *sql.DB
	dimension int
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

// NewSQLiteStore creates a SQLite-backed record store enforcing the given
// embedding dimension. A dimension <= 0 falls back to types.DefaultDimension.
func NewSQLiteStore(dbPath string, dimension int) (*SQLiteStore, error) {
	if dimension <= 0 {
		dimension = types.DefaultDimension
	}

	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db, dimension: dimension}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Dimension returns the fixed embedding dimension enforced by the store
func (s *SQLiteStore) Dimension() int {
	return s.dimension
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// validateDimension rejects vectors whose length differs from the store's
func (s *SQLiteStore) validateDimension(record *types.VectorRecord) error {
	if len(record.Embedding) != s.dimension {
		return fmt.Errorf("%w: record %s has dimension %d, store requires %d",
			types.ErrDimensionMismatch, record.ID, len(record.Embedding), s.dimension)
	}
	return nil
}

// insertWithQuerier is the internal implementation shared by Insert and InsertAll
func (s *SQLiteStore) insertWithQuerier(ctx context.Context, q querier, record *types.VectorRecord) error {
	if err := s.validateDimension(record); err != nil {
		return err
	}

	metadata, err := json.Marshal(record.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata for %s: %w", record.ID, err)
	}

	query := `
		INSERT INTO records (id, content, embedding, dimension, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			embedding = excluded.embedding,
			dimension = excluded.dimension,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`
	now := time.Now()
	if _, err := q.ExecContext(ctx, query,
		record.ID, record.Content, serializeVector(record.Embedding),
		s.dimension, string(metadata), now, now); err != nil {
		return fmt.Errorf("failed to insert record %s: %w", record.ID, err)
	}

	return nil
}

// Insert stores a single record with insert-or-replace semantics
func (s *SQLiteStore) Insert(ctx context.Context, record types.VectorRecord) error {
	return s.insertWithQuerier(ctx, s.db, &record)
}

// InsertAll stores records as one transaction; a failure on any record rolls
// back the entire batch.
func (s *SQLiteStore) InsertAll(ctx context.Context, records []types.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range records {
		if err := s.insertWithQuerier(ctx, tx, &records[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	return nil
}

// GetByID returns the record with the given id
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*types.VectorRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, content, embedding, metadata FROM records WHERE id = ?
	`, id)

	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s: %w", id, err)
	}

	return record, nil
}

// GetAll returns every stored record ordered by ascending id
func (s *SQLiteStore) GetAll(ctx context.Context) ([]types.VectorRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, embedding, metadata FROM records ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectRecords(rows)
}

// FindByMetadata returns records whose metadata value for key matches the
// SQL LIKE pattern.
func (s *SQLiteStore) FindByMetadata(ctx context.Context, key, pattern string) ([]types.VectorRecord, error) {
	// Metadata is stored as a JSON object; json_extract pulls the value for
	// the requested key at the database layer.
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, embedding, metadata FROM records
		WHERE json_extract(metadata, '$.' || ?) LIKE ?
		ORDER BY id
	`, key, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to query records by metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectRecords(rows)
}

// DeleteByID removes a record; deleting a missing id is a no-op
func (s *SQLiteStore) DeleteByID(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	return nil
}

// DeleteAll removes every record
func (s *SQLiteStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM records"); err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}
	return nil
}

// Count returns the number of stored records
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// scanner abstracts *sql.Row and *sql.Rows for record scanning
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord reads one record row
func scanRecord(row scanner) (*types.VectorRecord, error) {
	var record types.VectorRecord
	var blob []byte
	var metadata string

	if err := row.Scan(&record.ID, &record.Content, &blob, &metadata); err != nil {
		return nil, err
	}

	record.Embedding = deserializeVector(blob)
	if err := json.Unmarshal([]byte(metadata), &record.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata for %s: %w", record.ID, err)
	}

	return &record, nil
}

// collectRecords reads all rows into a record slice
func collectRecords(rows *sql.Rows) ([]types.VectorRecord, error) {
	records := make([]types.VectorRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}
