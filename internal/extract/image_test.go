package extract

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbvault/ingestor/internal/ai"
	"github.com/kbvault/ingestor/internal/ai/mock"
	"github.com/kbvault/ingestor/pkg/types"
)

// TestImageExtractNoBackend: image extraction without a configured backend
// is an immediate failure, never a silent empty success.
func TestImageExtractNoBackend(t *testing.T) {
	x := &ImageExtractor{}
	result := x.Extract(context.Background(), Content{SourcePath: "photo.jpg", ContentType: "image/jpeg"}, DefaultOptions())

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "Claude service is required")
	assert.Empty(t, result.Entities)
}

func TestImageExtractUnsupportedType(t *testing.T) {
	x := &ImageExtractor{Backend: &mock.Backend{}}
	result := x.Extract(context.Background(), Content{SourcePath: "scan.tiff", ContentType: "image/tiff"}, DefaultOptions())

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "unsupported content type")
}

func TestImageExtractUnsupportedExtension(t *testing.T) {
	x := &ImageExtractor{Backend: &mock.Backend{}}
	result := x.Extract(context.Background(), Content{SourcePath: "drawing.svg"}, DefaultOptions())

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestImageExtractFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logo.png")
	payload := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}
	require.NoError(t, os.WriteFile(path, payload, 0o644))

	backend := &mock.Backend{
		AnalyzeFunc: func(ctx context.Context, req ai.AnalyzeRequest) ([]types.Entity, error) {
			return []types.Entity{
				types.NewEntity("Acme", types.EntityTypeOrganization, "Logo in image", types.Mention{Relevance: 0.9, Frame: types.NoFrame}),
			}, nil
		},
	}
	x := &ImageExtractor{Backend: backend}

	result := x.Extract(context.Background(), Content{SourcePath: path, ContentType: "image/png"}, DefaultOptions())
	require.True(t, result.Success, result.Error)
	require.Len(t, result.Entities, 1)

	reqs := backend.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, ai.PromptImage, reqs[0].Kind)
	assert.Equal(t, "image/png", reqs[0].MediaType)
	assert.Equal(t, base64.StdEncoding.EncodeToString(payload), reqs[0].Content)
}

// TestImageExtractUnsupportedDataURIType: a data URI declaring a type the
// backend rejects must fail up front, not get relabeled as JPEG.
func TestImageExtractUnsupportedDataURIType(t *testing.T) {
	uri := "data:image/tiff;base64," + base64.StdEncoding.EncodeToString([]byte("tiff bytes"))

	backend := &mock.Backend{}
	x := &ImageExtractor{Backend: backend}

	result := x.Extract(context.Background(), Content{Payload: []byte(uri)}, DefaultOptions())
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "unsupported content type")
	assert.Contains(t, result.Error, "image/tiff")
	assert.Empty(t, backend.Requests())
}

func TestImageExtractDataURI(t *testing.T) {
	payload := []byte("fake image bytes")
	uri := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(payload)

	backend := &mock.Backend{}
	x := &ImageExtractor{Backend: backend}

	result := x.Extract(context.Background(), Content{Payload: []byte(uri)}, DefaultOptions())
	require.True(t, result.Success, result.Error)

	reqs := backend.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "image/jpeg", reqs[0].MediaType)
	assert.Equal(t, base64.StdEncoding.EncodeToString(payload), reqs[0].Content)
}

// TestImageExtractBackendFailure: with no rule fallback for images, a
// backend exception is the final result.
func TestImageExtractBackendFailure(t *testing.T) {
	backend := &mock.Backend{
		AnalyzeFunc: func(ctx context.Context, req ai.AnalyzeRequest) ([]types.Entity, error) {
			return nil, errors.New("simulated timeout")
		},
	}
	x := &ImageExtractor{Backend: backend}

	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0o644))

	result := x.Extract(context.Background(), Content{SourcePath: path, ContentType: "image/jpeg"}, DefaultOptions())
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "simulated timeout")
}

// TestImageExtractEmptySuccessIsLegitimate: a backend returning zero
// entities is a successful extraction for images, not a failure.
func TestImageExtractEmptySuccessIsLegitimate(t *testing.T) {
	backend := &mock.Backend{} // returns no entities, no error

	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0o644))

	x := &ImageExtractor{Backend: backend}
	result := x.Extract(context.Background(), Content{SourcePath: path, ContentType: "image/jpeg"}, DefaultOptions())

	assert.True(t, result.Success)
	assert.Empty(t, result.Entities)
	assert.Equal(t, 0, result.Stats.EntityCount)
}
