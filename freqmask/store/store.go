package store

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/freqmask/freqmask/corpus"

	"github.com/google/uuid"
	_ "github.com/tursodatabase/go-libsql"
)

// TableStore persists frequency tables for reuse across runs. Payloads
// are the binary snapshot codec from the corpus package.
type TableStore struct {
	db *sql.DB
}

// NewTableStore opens or initializes the table database at path.
func NewTableStore(path string) (*TableStore, error) {
	if dir := filepath.Dir(path); dir != "." && !strings.HasPrefix(path, "file::memory:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("could not create store directory: %w", err)
		}
	}
	db, err := connectToDB(path)
	if err != nil {
		return nil, err
	}
	s := &TableStore{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func connectToDB(path string) (*sql.DB, error) {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open table store %s: %w", path, err)
	}
	return db, nil
}

// init sets up the frequency table schema.
func (s *TableStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS frequency_tables (
		id TEXT PRIMARY KEY UNIQUE,
		name TEXT NOT NULL,
		distinct_ids INTEGER NOT NULL,
		total_count INTEGER NOT NULL,
		counts BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("failed to create frequency_tables table: %w", err)
	}
	return nil
}

// Save serializes table under name and returns the row id.
func (s *TableStore) Save(ctx context.Context, name string, table *corpus.FrequencyTable) (uuid.UUID, error) {
	var buf bytes.Buffer
	if err := corpus.WriteSnapshot(&buf, table); err != nil {
		return uuid.Nil, fmt.Errorf("serialize frequency table: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Will be a no-op if transaction is committed

	id := uuid.New()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO frequency_tables (id, name, distinct_ids, total_count, counts, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id.String(), name, table.Len(), int64(table.Total()), buf.Bytes(), time.Now().UTC())
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert frequency table %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit frequency table %s: %w", name, err)
	}

	slog.Debug("Frequency table saved", "name", name, "id", id, "distinct_ids", table.Len())
	return id, nil
}

// Load returns the most recently saved table under name.
func (s *TableStore) Load(ctx context.Context, name string) (*corpus.FrequencyTable, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT counts FROM frequency_tables WHERE name = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		name).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no frequency table named %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load frequency table %s: %w", name, err)
	}
	table, err := corpus.ReadSnapshot(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("deserialize frequency table %s: %w", name, err)
	}
	return table, nil
}

// Delete removes every saved table under name.
func (s *TableStore) Delete(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM frequency_tables WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete frequency table %s: %w", name, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *TableStore) Close() error {
	return s.db.Close()
}
