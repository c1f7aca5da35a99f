// Package storage defines the persistence boundary for ingested content and
// extracted entities. The pipeline talks to the Store interface only; the
// SQLite implementation lives in the sqlite subpackage.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// ContentRecord is the lightweight parent record stored for every ingested
// item, whether or not it was chunked. Preview holds a truncated copy of the
// payload; the full payload is never persisted.
type ContentRecord struct {
	ID          string
	ContentType string
	SourcePath  string
	Preview     string
	SizeBytes   int
	CreatedAt   time.Time
}

// EntityRecord is a persisted entity row joined with its mention stats for
// a given content item.
type EntityRecord struct {
	ID          string
	Name        string
	Type        string
	Description string

	// Relevance and MentionContext come from the content link, not the
	// entity row, and are only populated by per-content queries.
	Relevance      float64
	MentionContext string
}

// Store persists ingested content and the entities extracted from it.
// Entities are shared across content items: storing the same (name, type)
// twice yields the same entity ID.
type Store interface {
	// StoreContent persists the parent record for an ingested item.
	StoreContent(ctx context.Context, rec *ContentRecord) error

	// StoreEntity upserts an entity keyed by (name, entityType) and returns
	// its ID. A non-empty description fills an empty existing one but never
	// overwrites a non-empty one.
	StoreEntity(ctx context.Context, name, entityType, description string) (string, error)

	// LinkEntityToContent records that an entity was mentioned in a content
	// item, with the mention's relevance and surrounding context.
	LinkEntityToContent(ctx context.Context, entityID, contentID, contentType string, relevance float64, mentionContext string) error

	// EntitiesForContent returns the entities linked to a content item.
	EntitiesForContent(ctx context.Context, contentID string) ([]EntityRecord, error)

	// GetContent returns the parent record for a content ID.
	// Returns ErrNotFound if no such record exists.
	GetContent(ctx context.Context, contentID string) (*ContentRecord, error)

	// Close releases the underlying database resources.
	Close() error
}
