// Package duckdb provides the persistent gene store backed by DuckDB.
// The database is a single file (or in-memory for tests) holding one
// row per gene, keyed by Ensembl stable ID.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for gene lookups.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path and ensures
// the genes table exists. Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates the genes table if it doesn't exist.
// Safe to call on every open.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS genes (
		gene_stable_id VARCHAR PRIMARY KEY,
		gene_name VARCHAR,
		gene_description VARCHAR,
		chromosome VARCHAR,
		gene_start BIGINT,
		gene_end BIGINT,
		strand INTEGER,
		gene_type VARCHAR
	)`)
	return err
}
