package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "./data/ingestor.db", cfg.Storage.DBPath)
	assert.Equal(t, "anthropic", cfg.AI.Provider)
	assert.Equal(t, 500000, cfg.Chunking.Size)
	assert.Equal(t, 5000, cfg.Chunking.Overlap)
	assert.Equal(t, "size", cfg.Chunking.Strategy)
	assert.InDelta(t, 0.5, cfg.Extraction.ConfidenceThreshold, 1e-9)
	assert.Equal(t, 50, cfg.Extraction.MaxEntities)
	assert.Empty(t, cfg.Extraction.EntityTypes)
	assert.Equal(t, 30, cfg.Video.MaxFrames)
	assert.Equal(t, 5, cfg.Video.MaxFramesToAnalyze)
	assert.Equal(t, "ffmpeg", cfg.Media.FFmpegPath)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingestor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  db_path: /var/lib/ingestor/kb.db
chunking:
  size: 100000
  overlap: 2000
  strategy: paragraph
extraction:
  confidence_threshold: 0.7
  entity_types: [person, organization]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/ingestor/kb.db", cfg.Storage.DBPath)
	assert.Equal(t, 100000, cfg.Chunking.Size)
	assert.Equal(t, 2000, cfg.Chunking.Overlap)
	assert.Equal(t, "paragraph", cfg.Chunking.Strategy)
	assert.InDelta(t, 0.7, cfg.Extraction.ConfidenceThreshold, 1e-9)
	assert.Equal(t, []string{"person", "organization"}, cfg.Extraction.EntityTypes)

	// Unset sections keep their defaults.
	assert.Equal(t, 50, cfg.Extraction.MaxEntities)
	assert.Equal(t, 30, cfg.Video.MaxFrames)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingestor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunking:\n  size: 100000\n"), 0o644))

	t.Setenv("INGESTOR_CHUNK_SIZE", "250000")
	t.Setenv("INGESTOR_ENTITY_TYPES", "person, date")
	t.Setenv("INGESTOR_CONFIDENCE_THRESHOLD", "0.9")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 250000, cfg.Chunking.Size, "env wins over file")
	assert.Equal(t, []string{"person", "date"}, cfg.Extraction.EntityTypes)
	assert.InDelta(t, 0.9, cfg.Extraction.ConfidenceThreshold, 1e-9)
}

func TestEnvUnparseableFallsBackToDefault(t *testing.T) {
	t.Setenv("INGESTOR_CHUNK_SIZE", "not-a-number")
	t.Setenv("INGESTOR_REQUESTS_PER_SECOND", "fast")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 500000, cfg.Chunking.Size)
	assert.InDelta(t, 0.0, cfg.AI.RequestsPerSecond, 1e-9)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"bad chunk strategy", func(c *Config) { c.Chunking.Strategy = "words" }, "invalid chunk strategy"},
		{"zero chunk size", func(c *Config) { c.Chunking.Size = 0 }, "chunk size must be positive"},
		{"overlap not below size", func(c *Config) { c.Chunking.Overlap = c.Chunking.Size }, "chunk overlap"},
		{"threshold above one", func(c *Config) { c.Extraction.ConfidenceThreshold = 1.5 }, "confidence threshold"},
		{"bad sampling strategy", func(c *Config) { c.Video.SamplingStrategy = "random" }, "sampling strategy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
