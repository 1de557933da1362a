// Package storage persists indexed documents and index metadata in SQLite and appends JSONL logs.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/researchatlas/atlas/internal/document"
	_ "modernc.org/sqlite"
)

// Keys stored in the index_meta table.
const (
	MetaModel      = "model"
	MetaDimensions = "dimensions"
	MetaSourceHash = "source_hash"
	MetaBuildID    = "build_id"
	MetaCreatedAt  = "created_at"
	MetaDocCount   = "document_count"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// selectDocFields contains the standard field list for SELECT queries.
const selectDocFields = `id, content, metadata_json`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		-- Documents in index order
		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			content TEXT NOT NULL,
			metadata_json TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_documents_position ON documents(position);

		-- Build metadata used for staleness detection
		CREATE TABLE IF NOT EXISTS index_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`

	_, err := db.Exec(schema)
	return err
}

// ReplaceDocuments clears the documents table and inserts docs in order.
// Documents must have unique, non-empty IDs.
func (d *DB) ReplaceDocuments(docs []document.Document) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM documents"); err != nil {
		return 0, fmt.Errorf("clearing documents table: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO documents (id, position, content, metadata_json)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing documents insert: %w", err)
	}
	defer stmt.Close()

	for i, doc := range docs {
		if doc.ID == "" {
			return 0, fmt.Errorf("document at position %d has no id", i)
		}
		var metaJSON []byte
		if len(doc.Metadata) > 0 {
			metaJSON, err = json.Marshal(doc.Metadata)
			if err != nil {
				return 0, fmt.Errorf("marshaling metadata for %s: %w", doc.ID, err)
			}
		}
		if _, err := stmt.Exec(doc.ID, i, doc.Content, nullableString(metaJSON)); err != nil {
			return 0, fmt.Errorf("inserting document %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing documents: %w", err)
	}
	return len(docs), nil
}

// getDocument retrieves a document by ID. It returns nil, nil if the document does not exist.
func (d *DB) getDocument(id string) (*document.Document, error) {
	row := d.db.QueryRow(`SELECT `+selectDocFields+` FROM documents WHERE id = ?`, id)
	return scanDocument(row)
}

// GetDocuments retrieves documents by ID, keyed by ID. Unknown IDs are omitted.
func (d *DB) GetDocuments(ids []string) (map[string]document.Document, error) {
	docs := make(map[string]document.Document, len(ids))
	for _, id := range ids {
		doc, err := d.getDocument(id)
		if err != nil {
			return nil, fmt.Errorf("getting document %s: %w", id, err)
		}
		if doc != nil {
			docs[id] = *doc
		}
	}
	return docs, nil
}

// CountDocuments returns the total number of documents.
func (d *DB) CountDocuments() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&count)
	return count, err
}

// SetMetaValues saves several metadata values in one transaction.
func (d *DB) SetMetaValues(values map[string]string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO index_meta (key, value) VALUES (?, ?)`, k, values[k]); err != nil {
			return fmt.Errorf("saving meta %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// AllMeta returns every metadata entry.
func (d *DB) AllMeta() (map[string]string, error) {
	rows, err := d.db.Query(`SELECT key, value FROM index_meta`)
	if err != nil {
		return nil, fmt.Errorf("listing meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(s scanner) (*document.Document, error) {
	var doc document.Document
	var metaJSON sql.NullString

	if err := s.Scan(&doc.ID, &doc.Content, &metaJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if metaJSON.Valid && metaJSON.String != "" {
		if err := json.Unmarshal([]byte(metaJSON.String), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("parsing metadata JSON for %s: %w", doc.ID, err)
		}
	}

	return &doc, nil
}

func nullableString(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}
