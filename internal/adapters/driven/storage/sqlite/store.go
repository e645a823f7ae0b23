package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/ragvault/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/ragvault/internal/core/domain"
	"github.com/custodia-labs/ragvault/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.VersionStore = (*Store)(nil)

const documentColumns = "id, path, fingerprint, active_version, max_version, updated_at"

const chunkColumns = "id, document_id, ordinal, fingerprint, text, version, created_at"

// Store is a SQLite-backed version store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.ragvault/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".ragvault", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// Pragmas in the DSN apply to every pooled connection.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Documents ====================

// GetDocument retrieves a document by path.
func (s *Store) GetDocument(ctx context.Context, path string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE path = ?", path)
	return scanDocument(row)
}

// UpsertDocument inserts or replaces the document row for path.
func (s *Store) UpsertDocument(
	ctx context.Context, path, fingerprint string, activeVersion, maxVersion int, ts time.Time,
) (*domain.Document, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (path, fingerprint, active_version, max_version, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			active_version = excluded.active_version,
			max_version = excluded.max_version,
			updated_at = excluded.updated_at
	`, path, fingerprint, activeVersion, maxVersion, ts.Unix())
	if err != nil {
		return nil, fmt.Errorf("upserting document %s: %w", path, err)
	}
	return s.GetDocument(ctx, path)
}

// ClaimVersion compares fingerprint with the stored one and, when it
// differs, assigns max_version+1 as both active and max in one write
// transaction. The claimed row keeps an empty fingerprint until the
// caller commits the version with UpsertDocument.
func (s *Store) ClaimVersion(
	ctx context.Context, path, fingerprint string, ts time.Time,
) (*domain.VersionClaim, error) {
	var claim *domain.VersionClaim

	err := s.immediate(ctx, func(conn *sql.Conn) error {
		prev, err := scanDocument(conn.QueryRowContext(ctx,
			"SELECT "+documentColumns+" FROM documents WHERE path = ?", path))
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		if prev != nil && prev.Fingerprint == fingerprint {
			claim = &domain.VersionClaim{Document: prev, Previous: prev}
			return nil
		}

		next := 1
		if prev != nil {
			next = prev.MaxVersion + 1
		}

		_, err = conn.ExecContext(ctx, `
			INSERT INTO documents (path, fingerprint, active_version, max_version, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				fingerprint = excluded.fingerprint,
				active_version = excluded.active_version,
				max_version = excluded.max_version,
				updated_at = excluded.updated_at
		`, path, "", next, next, ts.Unix())
		if err != nil {
			return fmt.Errorf("claiming version %d of %s: %w", next, path, err)
		}

		doc, err := scanDocument(conn.QueryRowContext(ctx,
			"SELECT "+documentColumns+" FROM documents WHERE path = ?", path))
		if err != nil {
			return err
		}
		claim = &domain.VersionClaim{Document: doc, Previous: prev, Changed: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// SetActiveVersion points retrieval at version.
func (s *Store) SetActiveVersion(
	ctx context.Context, path string, version int, ts time.Time,
) (*domain.Document, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE documents SET active_version = ?, updated_at = ? WHERE path = ?",
		version, ts.Unix(), path)
	if err != nil {
		return nil, fmt.Errorf("setting active version of %s: %w", path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("setting active version of %s: %w", path, err)
	}
	if n == 0 {
		return nil, domain.ErrNotFound
	}
	return s.GetDocument(ctx, path)
}

// ListDocuments returns all documents ordered by path.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// ==================== Chunks ====================

// ListChunks returns the chunks of one version ordered by ordinal.
func (s *Store) ListChunks(ctx context.Context, docID int64, version int) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+chunkColumns+" FROM chunks WHERE document_id = ? AND version = ? ORDER BY ordinal",
		docID, version)
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	return collectChunks(rows)
}

// ListAllChunks returns every chunk of a document ordered by version then ordinal.
func (s *Store) ListAllChunks(ctx context.Context, docID int64) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+chunkColumns+" FROM chunks WHERE document_id = ? ORDER BY version, ordinal",
		docID)
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	return collectChunks(rows)
}

// InsertChunk writes a single chunk row.
func (s *Store) InsertChunk(
	ctx context.Context, docID int64, chunk domain.NewChunk, version int, ts time.Time,
) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO chunks (document_id, ordinal, fingerprint, text, version, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, docID, chunk.Ordinal, chunk.Fingerprint, chunk.Text, version, ts.Unix())
	if err != nil {
		return 0, fmt.Errorf("inserting chunk %d of version %d: %w", chunk.Ordinal, version, err)
	}
	return res.LastInsertId()
}

// InsertChunks writes a version's chunk set in one transaction.
func (s *Store) InsertChunks(
	ctx context.Context, docID int64, version int, chunks []domain.NewChunk, ts time.Time,
) ([]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (document_id, ordinal, fingerprint, text, version, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	ids := make([]int64, 0, len(chunks))
	for _, c := range chunks {
		res, err := stmt.ExecContext(ctx, docID, c.Ordinal, c.Fingerprint, c.Text, version, ts.Unix())
		if err != nil {
			return nil, fmt.Errorf("inserting chunk %d of version %d: %w", c.Ordinal, version, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("reading chunk id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing chunks: %w", err)
	}
	return ids, nil
}

// GetChunk retrieves a chunk by ID.
func (s *Store) GetChunk(ctx context.Context, chunkID int64) (*domain.Chunk, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+chunkColumns+" FROM chunks WHERE id = ?", chunkID)
	return scanChunk(row)
}

// CountChunks counts chunk rows across all versions.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// ==================== Vector rows ====================

// RecordVectorRow maps a chunk to its vector index row.
func (s *Store) RecordVectorRow(ctx context.Context, chunkID int64, row int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vectors (chunk_id, row_index) VALUES (?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET row_index = excluded.row_index
	`, chunkID, row)
	if err != nil {
		return fmt.Errorf("recording vector row for chunk %d: %w", chunkID, err)
	}
	return nil
}

// GetVectorRow returns the vector index row of a chunk.
func (s *Store) GetVectorRow(ctx context.Context, chunkID int64) (int, error) {
	var row int
	err := s.db.QueryRowContext(ctx,
		"SELECT row_index FROM vectors WHERE chunk_id = ?", chunkID).Scan(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("getting vector row for chunk %d: %w", chunkID, err)
	}
	return row, nil
}

// ==================== Helper Functions ====================

// immediate runs fn inside a BEGIN IMMEDIATE transaction, which takes the
// write lock up front so a read-then-write never races another writer.
func (s *Store) immediate(ctx context.Context, fn func(*sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(conn); err != nil {
		_, _ = conn.ExecContext(context.WithoutCancel(ctx), "ROLLBACK")
		return err
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		_, _ = conn.ExecContext(context.WithoutCancel(ctx), "ROLLBACK")
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanDocument scans a single document row.
func scanDocument(row scanner) (*domain.Document, error) {
	var doc domain.Document
	var updatedAt int64

	if err := row.Scan(&doc.ID, &doc.Path, &doc.Fingerprint,
		&doc.ActiveVersion, &doc.MaxVersion, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &doc, nil
}

// scanChunk scans a single chunk row.
func scanChunk(row scanner) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var createdAt int64

	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Ordinal,
		&chunk.Fingerprint, &chunk.Text, &chunk.Version, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &chunk, nil
}

// collectChunks drains rows into a slice and closes them.
func collectChunks(rows *sql.Rows) ([]domain.Chunk, error) {
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *c)
	}
	return chunks, rows.Err()
}
