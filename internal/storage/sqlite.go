package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/fragments/internal/apperr"
	"github.com/starford/fragments/internal/models"
)

const fragmentsSchemaSQL = `
CREATE TABLE IF NOT EXISTS fragments (
	owner_id TEXT NOT NULL,
	id       TEXT NOT NULL,
	type     TEXT NOT NULL,
	size     INTEGER NOT NULL DEFAULT 0,
	checksum TEXT NOT NULL DEFAULT '',
	created  DATETIME NOT NULL,
	updated  DATETIME NOT NULL,
	PRIMARY KEY (owner_id, id)
);

CREATE INDEX IF NOT EXISTS idx_fragments_owner ON fragments(owner_id);
`

// SQLiteMetadata is a MetadataStore backed by SQLite.
type SQLiteMetadata struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the SQLite database and applies the schema.
func OpenSQLite(dsn string) (*SQLiteMetadata, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := conn.Exec(fragmentsSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &SQLiteMetadata{conn: conn}, nil
}

// List returns the owner's records ordered by creation time, then id.
func (s *SQLiteMetadata) List(ctx context.Context, ownerID string) ([]models.Fragment, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT owner_id, id, type, size, checksum, created, updated
		FROM fragments WHERE owner_id = ?
		ORDER BY created, id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list: %w", err)
	}
	defer rows.Close()
	return scanFragments(rows)
}

// Read returns one record, or apperr.ErrNotFound.
func (s *SQLiteMetadata) Read(ctx context.Context, ownerID, id string) (*models.Fragment, error) {
	var f models.Fragment
	err := s.conn.QueryRowContext(ctx, `
		SELECT owner_id, id, type, size, checksum, created, updated
		FROM fragments WHERE owner_id = ? AND id = ?
	`, ownerID, id).Scan(&f.OwnerID, &f.ID, &f.Type, &f.Size, &f.Checksum, &f.Created, &f.Updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("sqlite: read: %w", err)
	}
	return &f, nil
}

// Write upserts a record. Last writer wins.
func (s *SQLiteMetadata) Write(ctx context.Context, f *models.Fragment) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO fragments (owner_id, id, type, size, checksum, created, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, id) DO UPDATE SET
			type     = excluded.type,
			size     = excluded.size,
			checksum = excluded.checksum,
			updated  = excluded.updated
	`, f.OwnerID, f.ID, f.Type, f.Size, f.Checksum, f.Created, f.Updated)
	if err != nil {
		return fmt.Errorf("sqlite: upsert: %w", err)
	}
	return nil
}

// Delete removes a record, failing when it is absent.
func (s *SQLiteMetadata) Delete(ctx context.Context, ownerID, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM fragments WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// All returns every record across owners.
func (s *SQLiteMetadata) All(ctx context.Context) ([]models.Fragment, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT owner_id, id, type, size, checksum, created, updated FROM fragments
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: all: %w", err)
	}
	defer rows.Close()
	return scanFragments(rows)
}

// Close closes the underlying database connection.
func (s *SQLiteMetadata) Close() error {
	return s.conn.Close()
}

func scanFragments(rows *sql.Rows) ([]models.Fragment, error) {
	var out []models.Fragment
	for rows.Next() {
		var f models.Fragment
		if err := rows.Scan(&f.OwnerID, &f.ID, &f.Type, &f.Size, &f.Checksum, &f.Created, &f.Updated); err != nil {
			return nil, fmt.Errorf("sqlite: scan: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: rows: %w", err)
	}
	return out, nil
}
