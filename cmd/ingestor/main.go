// Command ingestor ingests files into a knowledge base: detects content
// types, extracts named entities, and stores them in a SQLite database.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/kbvault/ingestor/internal/ai"
	"github.com/kbvault/ingestor/internal/config"
	"github.com/kbvault/ingestor/internal/extract"
	"github.com/kbvault/ingestor/internal/ingest"
	"github.com/kbvault/ingestor/internal/media"
	"github.com/kbvault/ingestor/internal/storage/sqlite"
	"github.com/kbvault/ingestor/pkg/types"
)

var (
	configPath = flag.String("config", "", "Path to YAML config file (optional, uses env vars by default)")
	dbPath     = flag.String("db", "", "Path to SQLite database file (overrides config)")
	noAI       = flag.Bool("no-ai", false, "Disable the AI backend and use rule-based extraction only")
	timeout    = flag.Duration("timeout", 10*time.Minute, "Overall timeout for the ingestion run")
)

func main() {
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: ingestor [flags] <file-or-dir> [...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *dbPath != "" {
		cfg.Storage.DBPath = *dbPath
	}

	if dir := filepath.Dir(cfg.Storage.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
	}

	store, err := sqlite.NewStore(cfg.Storage.DBPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	backend := buildBackend(cfg)
	tools := &media.FFmpegTools{
		FFmpegPath:  cfg.Media.FFmpegPath,
		FFprobePath: cfg.Media.FFprobePath,
	}

	orch, err := ingest.New(extract.NewRegistry(backend, tools), store, ingestOptions(cfg))
	if err != nil {
		log.Fatalf("Failed to build orchestrator: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	paths, err := collectPaths(flag.Args())
	if err != nil {
		log.Fatalf("Failed to resolve inputs: %v", err)
	}
	if len(paths) == 0 {
		log.Fatal("No files to ingest")
	}

	failed := 0
	for _, path := range paths {
		summary := orch.Ingest(ctx, types.ContentItem{SourcePath: path})
		printSummary(path, summary)
		if summary.Status == types.IngestFailed {
			failed++
		}
	}

	if failed == len(paths) {
		os.Exit(1)
	}
}

// buildBackend returns the configured AI backend, or nil when disabled or
// unconfigured (rule-based extraction still covers text, code, and PDF).
func buildBackend(cfg *config.Config) ai.Backend {
	if *noAI || cfg.AI.Provider == "none" {
		return nil
	}
	if cfg.AI.AnthropicAPIKey == "" {
		log.Println("No Anthropic API key configured; image and video ingestion will fail")
		return nil
	}
	return ai.NewAnthropicClient(ai.AnthropicConfig{
		APIKey:            cfg.AI.AnthropicAPIKey,
		Model:             cfg.AI.AnthropicModel,
		BaseURL:           cfg.AI.AnthropicBaseURL,
		Timeout:           time.Duration(cfg.AI.RequestTimeoutSec) * time.Second,
		RequestsPerSecond: cfg.AI.RequestsPerSecond,
	})
}

// ingestOptions converts the loaded config to orchestrator options.
func ingestOptions(cfg *config.Config) ingest.Options {
	var entityTypes []string
	for _, s := range cfg.Extraction.EntityTypes {
		if !types.IsValidEntityType(s) {
			log.Printf("Ignoring unknown entity type %q", s)
			continue
		}
		entityTypes = append(entityTypes, s)
	}

	return ingest.Options{
		ChunkSize:     cfg.Chunking.Size,
		ChunkOverlap:  cfg.Chunking.Overlap,
		ChunkStrategy: cfg.Chunking.Strategy,
		Extraction: extract.Options{
			ConfidenceThreshold: cfg.Extraction.ConfidenceThreshold,
			MaxEntities:         cfg.Extraction.MaxEntities,
			EntityTypes:         entityTypes,
			Language:            cfg.Extraction.Language,
			Video: extract.VideoOptions{
				SamplingStrategy:   cfg.Video.SamplingStrategy,
				MaxFrames:          cfg.Video.MaxFrames,
				MaxFramesToAnalyze: cfg.Video.MaxFramesToAnalyze,
			},
		},
	}
}

// collectPaths expands the argument list, walking directories into their
// regular files.
func collectPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}

func printSummary(path string, s *types.IngestionSummary) {
	switch s.Status {
	case types.IngestSucceeded:
		fmt.Printf("ok      %s (%s): %d entities stored\n", path, s.ContentType, s.EntitiesStored)
	case types.IngestPartial:
		fmt.Printf("partial %s (%s): %d entities stored, %d/%d chunks failed\n",
			path, s.ContentType, s.EntitiesStored, s.ChunksFailed, s.ChunksTotal)
	default:
		fmt.Printf("failed  %s (%s): %s\n", path, s.ContentType, s.Error)
	}
}
