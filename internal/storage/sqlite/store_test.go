package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbvault/ingestor/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreContentRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &storage.ContentRecord{
		ID:          "content-1",
		ContentType: "text/plain",
		SourcePath:  "/docs/note.txt",
		Preview:     "John Smith works at Acme",
		SizeBytes:   24,
	}
	require.NoError(t, s.StoreContent(ctx, rec))

	got, err := s.GetContent(ctx, "content-1")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", got.ContentType)
	assert.Equal(t, "/docs/note.txt", got.SourcePath)
	assert.Equal(t, "John Smith works at Acme", got.Preview)
	assert.Equal(t, 24, got.SizeBytes)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestStoreContentIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &storage.ContentRecord{ID: "content-1", ContentType: "text/plain", Preview: "v1"}
	require.NoError(t, s.StoreContent(ctx, rec))

	rec.Preview = "v2"
	require.NoError(t, s.StoreContent(ctx, rec), "re-storing the same ID must not error")

	got, err := s.GetContent(ctx, "content-1")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Preview)
}

func TestGetContentNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetContent(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStoreContentValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.StoreContent(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, s.StoreContent(ctx, &storage.ContentRecord{ContentType: "text/plain"}), storage.ErrInvalidInput)
	assert.ErrorIs(t, s.StoreContent(ctx, &storage.ContentRecord{ID: "x"}), storage.ErrInvalidInput)
}

func TestStoreEntityUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id1, err := s.StoreEntity(ctx, "Acme Corporation", "organization", "tech company")
	require.NoError(t, err)
	require.NotEmpty(t, id1)

	id2, err := s.StoreEntity(ctx, "Acme Corporation", "organization", "different description")
	require.NoError(t, err)
	assert.Equal(t, id1, id2, "same name and type resolve to the same entity")

	id3, err := s.StoreEntity(ctx, "Acme Corporation", "product", "")
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3, "same name with a different type is a distinct entity")
}

func TestStoreEntityDescriptionFillsButNeverOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.StoreEntity(ctx, "Grace Hopper", "person", "")
	require.NoError(t, err)

	_, err = s.StoreEntity(ctx, "Grace Hopper", "person", "computer scientist")
	require.NoError(t, err)

	_, err = s.StoreEntity(ctx, "Grace Hopper", "person", "somebody else entirely")
	require.NoError(t, err)

	require.NoError(t, s.StoreContent(ctx, &storage.ContentRecord{ID: "c1", ContentType: "text/plain"}))
	require.NoError(t, s.LinkEntityToContent(ctx, id, "c1", "text/plain", 0.9, ""))

	records, err := s.EntitiesForContent(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "computer scientist", records[0].Description,
		"first non-empty description wins")
}

func TestStoreEntityValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.StoreEntity(ctx, "", "person", "")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	_, err = s.StoreEntity(ctx, "Acme", "", "")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestEntitiesForContentOrderingAndDedup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.StoreContent(ctx, &storage.ContentRecord{ID: "c1", ContentType: "text/plain"}))

	acme, err := s.StoreEntity(ctx, "Acme", "organization", "")
	require.NoError(t, err)
	john, err := s.StoreEntity(ctx, "John Smith", "person", "")
	require.NoError(t, err)

	require.NoError(t, s.LinkEntityToContent(ctx, acme, "c1", "text/plain", 0.6, "at Acme"))
	require.NoError(t, s.LinkEntityToContent(ctx, acme, "c1", "text/plain", 0.9, "Acme announced"))
	require.NoError(t, s.LinkEntityToContent(ctx, john, "c1", "text/plain", 0.7, "John Smith said"))

	records, err := s.EntitiesForContent(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, records, 2, "an entity linked twice appears once")

	assert.Equal(t, "Acme", records[0].Name, "strongest mention sorts first")
	assert.InDelta(t, 0.9, records[0].Relevance, 1e-9)
	assert.Equal(t, "John Smith", records[1].Name)
}

func TestEntitiesForContentIsolation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.StoreContent(ctx, &storage.ContentRecord{ID: "c1", ContentType: "text/plain"}))
	require.NoError(t, s.StoreContent(ctx, &storage.ContentRecord{ID: "c2", ContentType: "text/plain"}))

	acme, err := s.StoreEntity(ctx, "Acme", "organization", "")
	require.NoError(t, err)
	require.NoError(t, s.LinkEntityToContent(ctx, acme, "c1", "text/plain", 0.8, ""))

	records, err := s.EntitiesForContent(ctx, "c2")
	require.NoError(t, err)
	assert.Empty(t, records, "links are scoped to their content item")
}

func TestLinkEntityValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.LinkEntityToContent(ctx, "", "c1", "text/plain", 0.5, "")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	err = s.LinkEntityToContent(ctx, "e1", "", "text/plain", 0.5, "")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
