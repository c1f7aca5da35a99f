// Package config provides configuration management for the ingestor.
// Settings come from an optional YAML file and environment variables with
// the INGESTOR_ prefix; environment variables take precedence over the file,
// and sensible defaults cover everything else.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for the ingestor.
type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	AI         AIConfig         `yaml:"ai"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Video      VideoConfig      `yaml:"video"`
	Media      MediaConfig      `yaml:"media"`
}

// StorageConfig contains database configuration.
type StorageConfig struct {
	DBPath string `yaml:"db_path"` // SQLite database path (default: ./data/ingestor.db)
}

// AIConfig contains AI backend configuration.
type AIConfig struct {
	Provider          string  `yaml:"provider"`            // AI provider: anthropic, none (default: anthropic)
	AnthropicAPIKey   string  `yaml:"anthropic_api_key"`   // Anthropic API key (empty disables the backend)
	AnthropicModel    string  `yaml:"anthropic_model"`     // Anthropic model name
	AnthropicBaseURL  string  `yaml:"anthropic_base_url"`  // Override for the API base URL
	RequestTimeoutSec int     `yaml:"request_timeout_sec"` // Per-request timeout in seconds (default: 60)
	RequestsPerSecond float64 `yaml:"requests_per_second"` // Client-side rate limit, 0 disables (default: 0)
}

// ChunkingConfig contains payload chunking configuration.
type ChunkingConfig struct {
	Size     int    `yaml:"size"`     // Chunk size in bytes (default: 500000)
	Overlap  int    `yaml:"overlap"`  // Overlap between consecutive chunks in bytes (default: 5000)
	Strategy string `yaml:"strategy"` // Chunk strategy: size, paragraph, sentence (default: size)
}

// ExtractionConfig contains entity extraction configuration.
type ExtractionConfig struct {
	ConfidenceThreshold float64  `yaml:"confidence_threshold"` // Minimum mention relevance to keep (default: 0.5)
	MaxEntities         int      `yaml:"max_entities"`         // Cap on entities per extraction (default: 50)
	EntityTypes         []string `yaml:"entity_types"`         // Restrict to these entity types; empty means all
	Language            string   `yaml:"language"`             // Explicit language hint for code content
}

// VideoConfig contains video sampling configuration.
type VideoConfig struct {
	SamplingStrategy   string `yaml:"sampling_strategy"`     // Override: uniform, keyframes, scene, adaptive; empty means duration-based
	MaxFrames          int    `yaml:"max_frames"`            // Frames extracted per video (default: 30)
	MaxFramesToAnalyze int    `yaml:"max_frames_to_analyze"` // Frames actually analyzed per video (default: 5)
}

// MediaConfig contains external media tool configuration.
type MediaConfig struct {
	FFmpegPath  string `yaml:"ffmpeg_path"`  // ffmpeg binary (default: ffmpeg, resolved via PATH)
	FFprobePath string `yaml:"ffprobe_path"` // ffprobe binary (default: ffprobe, resolved via PATH)
}

// Load builds the configuration: defaults, overlaid by the YAML file at path
// (if non-empty), overlaid by INGESTOR_ environment variables.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that neither YAML nor env parsing
// can express.
func (c *Config) Validate() error {
	switch c.Chunking.Strategy {
	case "size", "paragraph", "sentence":
	default:
		return fmt.Errorf("config: invalid chunk strategy %q", c.Chunking.Strategy)
	}
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("config: chunk size must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("config: chunk overlap %d must be in [0, size)", c.Chunking.Overlap)
	}
	if c.Extraction.ConfidenceThreshold < 0 || c.Extraction.ConfidenceThreshold > 1 {
		return fmt.Errorf("config: confidence threshold %g must be in [0, 1]", c.Extraction.ConfidenceThreshold)
	}
	switch c.Video.SamplingStrategy {
	case "", "uniform", "keyframes", "scene", "adaptive":
	default:
		return fmt.Errorf("config: invalid video sampling strategy %q", c.Video.SamplingStrategy)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			DBPath: "./data/ingestor.db",
		},
		AI: AIConfig{
			Provider:          "anthropic",
			AnthropicModel:    "claude-haiku-4-5-20251001",
			RequestTimeoutSec: 60,
		},
		Chunking: ChunkingConfig{
			Size:     500000,
			Overlap:  5000,
			Strategy: "size",
		},
		Extraction: ExtractionConfig{
			ConfidenceThreshold: 0.5,
			MaxEntities:         50,
		},
		Video: VideoConfig{
			MaxFrames:          30,
			MaxFramesToAnalyze: 5,
		},
		Media: MediaConfig{
			FFmpegPath:  "ffmpeg",
			FFprobePath: "ffprobe",
		},
	}
}

// applyEnv overlays INGESTOR_ environment variables onto cfg.
func applyEnv(cfg *Config) {
	cfg.Storage.DBPath = getEnv("INGESTOR_DB_PATH", cfg.Storage.DBPath)

	cfg.AI.Provider = getEnv("INGESTOR_AI_PROVIDER", cfg.AI.Provider)
	cfg.AI.AnthropicAPIKey = getEnv("INGESTOR_ANTHROPIC_API_KEY", cfg.AI.AnthropicAPIKey)
	cfg.AI.AnthropicModel = getEnv("INGESTOR_ANTHROPIC_MODEL", cfg.AI.AnthropicModel)
	cfg.AI.AnthropicBaseURL = getEnv("INGESTOR_ANTHROPIC_BASE_URL", cfg.AI.AnthropicBaseURL)
	cfg.AI.RequestTimeoutSec = getEnvInt("INGESTOR_REQUEST_TIMEOUT_SEC", cfg.AI.RequestTimeoutSec)
	cfg.AI.RequestsPerSecond = getEnvFloat("INGESTOR_REQUESTS_PER_SECOND", cfg.AI.RequestsPerSecond)

	cfg.Chunking.Size = getEnvInt("INGESTOR_CHUNK_SIZE", cfg.Chunking.Size)
	cfg.Chunking.Overlap = getEnvInt("INGESTOR_CHUNK_OVERLAP", cfg.Chunking.Overlap)
	cfg.Chunking.Strategy = getEnv("INGESTOR_CHUNK_STRATEGY", cfg.Chunking.Strategy)

	cfg.Extraction.ConfidenceThreshold = getEnvFloat("INGESTOR_CONFIDENCE_THRESHOLD", cfg.Extraction.ConfidenceThreshold)
	cfg.Extraction.MaxEntities = getEnvInt("INGESTOR_MAX_ENTITIES", cfg.Extraction.MaxEntities)
	cfg.Extraction.EntityTypes = getEnvList("INGESTOR_ENTITY_TYPES", cfg.Extraction.EntityTypes)
	cfg.Extraction.Language = getEnv("INGESTOR_LANGUAGE", cfg.Extraction.Language)

	cfg.Video.SamplingStrategy = getEnv("INGESTOR_VIDEO_SAMPLING", cfg.Video.SamplingStrategy)
	cfg.Video.MaxFrames = getEnvInt("INGESTOR_VIDEO_MAX_FRAMES", cfg.Video.MaxFrames)
	cfg.Video.MaxFramesToAnalyze = getEnvInt("INGESTOR_VIDEO_MAX_ANALYZE", cfg.Video.MaxFramesToAnalyze)

	cfg.Media.FFmpegPath = getEnv("INGESTOR_FFMPEG_PATH", cfg.Media.FFmpegPath)
	cfg.Media.FFprobePath = getEnv("INGESTOR_FFPROBE_PATH", cfg.Media.FFprobePath)
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as an integer,
// it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvList retrieves a comma-separated environment variable as a slice,
// or returns a default value.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
