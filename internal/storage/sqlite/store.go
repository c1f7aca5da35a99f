// Package sqlite implements storage.Store on a per-domain SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/kbvault/ingestor/internal/storage"
)

// Store implements storage.Store using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite store with WAL self-healing. If the initial open
// fails due to stale WAL files (left behind by a crashed process), it
// verifies no other process holds them and retries once after removing the
// stale -shm/-wal files.
func NewStore(dsn string) (*Store, error) {
	store, err := openStore(dsn)
	if err == nil {
		return store, nil
	}

	if !isRecoverableWALError(err) {
		return nil, err
	}

	dbPath := dbPathFromDSN(dsn)
	if dbPath == "" || dbPath == ":memory:" {
		return nil, err
	}

	if !isWALStale(dbPath) {
		return nil, err
	}

	removeStaleWAL(dbPath)

	store, retryErr := openStore(dsn)
	if retryErr != nil {
		return nil, fmt.Errorf("failed after WAL recovery: %w (original: %v)", retryErr, err)
	}

	log.Printf("sqlite: recovered from stale WAL files for %s", dbPath)
	return store, nil
}

// openStore opens a SQLite database, configures WAL mode, and applies the schema.
func openStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Using a single open connection
	// serialises writes and avoids SQLITE_BUSY errors under concurrent load.
	// WAL mode allows concurrent readers to proceed without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0) // Connections live for the lifetime of the store.

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set busy timeout so that callers wait instead of getting an immediate
	// SQLITE_BUSY error when the connection is held by another goroutine.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// StoreContent persists the parent record for an ingested item.
func (s *Store) StoreContent(ctx context.Context, rec *storage.ContentRecord) error {
	if rec == nil {
		return storage.ErrInvalidInput
	}
	if rec.ID == "" {
		return fmt.Errorf("%w: content ID is required", storage.ErrInvalidInput)
	}
	if rec.ContentType == "" {
		return fmt.Errorf("%w: content type is required", storage.ErrInvalidInput)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO content (id, content_type, source_path, preview, size_bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content_type = excluded.content_type,
			source_path  = excluded.source_path,
			preview      = excluded.preview,
			size_bytes   = excluded.size_bytes`,
		rec.ID, rec.ContentType, rec.SourcePath, rec.Preview, rec.SizeBytes, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store content record: %w", err)
	}
	return nil
}

// StoreEntity upserts an entity keyed by (name, entityType) and returns its
// ID. A later non-empty description fills an empty one but never overwrites.
func (s *Store) StoreEntity(ctx context.Context, name, entityType, description string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: entity name is required", storage.ErrInvalidInput)
	}
	if entityType == "" {
		return "", fmt.Errorf("%w: entity type is required", storage.ErrInvalidInput)
	}

	now := time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entities (id, name, entity_type, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name, entity_type) DO UPDATE SET
			description = CASE WHEN entities.description = '' THEN excluded.description ELSE entities.description END,
			updated_at  = excluded.updated_at`,
		uuid.New().String(), name, entityType, description, now, now)
	if err != nil {
		return "", fmt.Errorf("failed to upsert entity: %w", err)
	}

	var id string
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM entities WHERE name = ? AND entity_type = ?`,
		name, entityType).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to read entity id: %w", err)
	}
	return id, nil
}

// LinkEntityToContent records one mention of an entity in a content item.
func (s *Store) LinkEntityToContent(ctx context.Context, entityID, contentID, contentType string, relevance float64, mentionContext string) error {
	if entityID == "" || contentID == "" {
		return fmt.Errorf("%w: entity and content IDs are required", storage.ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entity_mentions (entity_id, content_id, content_type, relevance, mention_context, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entityID, contentID, contentType, relevance, mentionContext, time.Now())
	if err != nil {
		return fmt.Errorf("failed to link entity to content: %w", err)
	}
	return nil
}

// EntitiesForContent returns the entities linked to a content item, highest
// relevance first. An entity linked multiple times appears once with its
// strongest mention.
func (s *Store) EntitiesForContent(ctx context.Context, contentID string) ([]storage.EntityRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.name, e.entity_type, e.description,
		       MAX(m.relevance), m.mention_context
		FROM entities e
		JOIN entity_mentions m ON m.entity_id = e.id
		WHERE m.content_id = ?
		GROUP BY e.id
		ORDER BY MAX(m.relevance) DESC, e.name ASC`,
		contentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities for content: %w", err)
	}
	defer rows.Close()

	var records []storage.EntityRecord
	for rows.Next() {
		var rec storage.EntityRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Type, &rec.Description, &rec.Relevance, &rec.MentionContext); err != nil {
			return nil, fmt.Errorf("failed to scan entity row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetContent returns the parent record for a content ID.
func (s *Store) GetContent(ctx context.Context, contentID string) (*storage.ContentRecord, error) {
	var rec storage.ContentRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, content_type, source_path, preview, size_bytes, created_at
		FROM content WHERE id = ?`,
		contentID).Scan(&rec.ID, &rec.ContentType, &rec.SourcePath, &rec.Preview, &rec.SizeBytes, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read content record: %w", err)
	}
	return &rec, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// dbPathFromDSN extracts the filesystem path from a SQLite DSN.
func dbPathFromDSN(dsn string) string {
	if dsn == ":memory:" || dsn == "" {
		return ""
	}

	if strings.HasPrefix(dsn, "file:") {
		u, err := url.Parse(dsn)
		if err != nil {
			return ""
		}
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		if path == ":memory:" || path == "" {
			return ""
		}
		return path
	}

	return dsn
}

// isRecoverableWALError returns true if the error matches patterns caused by
// stale WAL files left behind after a crash (SIGKILL, OOM, etc.).
func isRecoverableWALError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "disk I/O error") ||
		strings.Contains(msg, "database is locked")
}

// isWALStale checks whether -shm/-wal files exist for the given database path
// AND no other process currently holds them open (via lsof).
// Returns false if lsof is unavailable (conservative: no deletion).
func isWALStale(dbPath string) bool {
	shmPath := dbPath + "-shm"
	walPath := dbPath + "-wal"

	if !fileExists(shmPath) && !fileExists(walPath) {
		return false
	}

	lsofPath, err := exec.LookPath("lsof")
	if err != nil {
		// lsof not available (e.g., Alpine Docker) — conservative fallback.
		return false
	}

	cmd := exec.Command(lsofPath, "-t", dbPath, shmPath, walPath)
	output, err := cmd.Output()
	if err != nil {
		// lsof returns exit code 1 when no files are open — that means stale.
		return true
	}

	return strings.TrimSpace(string(output)) == ""
}

// removeStaleWAL removes -shm and -wal files for the given database path.
func removeStaleWAL(dbPath string) {
	for _, suffix := range []string{"-shm", "-wal"} {
		path := dbPath + suffix
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("sqlite: failed to remove stale %s: %v", path, err)
		}
	}
}

// fileExists returns true if the path exists on disk.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Compile-time assertion.
var _ storage.Store = (*Store)(nil)
