// Package ingest drives the ingestion pipeline for one content item:
// detection, the chunk-or-not decision, per-chunk extraction, entity merging,
// and the handoff to storage.
package ingest

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/kbvault/ingestor/internal/chunk"
	"github.com/kbvault/ingestor/internal/detect"
	"github.com/kbvault/ingestor/internal/extract"
	"github.com/kbvault/ingestor/internal/media"
	"github.com/kbvault/ingestor/internal/storage"
	"github.com/kbvault/ingestor/pkg/types"
)

// previewBytes caps the payload copy kept on the parent content record.
const previewBytes = 1024

// defaultChunkWorkers is the pool size for concurrent chunk extraction.
const defaultChunkWorkers = 4

// Options configures one orchestrator instance. Zero values fall back to
// the documented defaults on New.
type Options struct {
	ChunkSize     int
	ChunkOverlap  int
	ChunkStrategy string
	ChunkWorkers  int

	Extraction extract.Options
}

// DefaultOptions returns the orchestrator defaults: 500KB size-strategy
// chunks with 5KB overlap and the extraction defaults.
func DefaultOptions() Options {
	return Options{
		ChunkSize:     500000,
		ChunkOverlap:  5000,
		ChunkStrategy: types.ChunkStrategySize,
		ChunkWorkers:  defaultChunkWorkers,
		Extraction:    extract.DefaultOptions(),
	}
}

// StrategySource resolves a content type to its extraction strategy.
// *extract.Registry is the production implementation.
type StrategySource interface {
	ForType(contentType string) extract.Strategy
}

// Orchestrator runs the pipeline against injected collaborators. The
// registry, store, and options are fixed at construction; Ingest may be
// called from multiple goroutines.
type Orchestrator struct {
	registry StrategySource
	store    storage.Store
	opts     Options
}

// New builds an orchestrator. The store may be nil for extract-only runs,
// in which case entities are merged and counted but not persisted.
func New(registry StrategySource, store storage.Store, opts Options) (*Orchestrator, error) {
	if registry == nil {
		return nil, fmt.Errorf("ingest: registry is required")
	}
	def := DefaultOptions()
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = def.ChunkSize
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		opts.ChunkOverlap = def.ChunkOverlap
	}
	if opts.ChunkStrategy == "" {
		opts.ChunkStrategy = def.ChunkStrategy
	}
	if opts.ChunkWorkers <= 0 {
		opts.ChunkWorkers = def.ChunkWorkers
	}
	return &Orchestrator{registry: registry, store: store, opts: opts}, nil
}

// Ingest runs the full pipeline for one content item and returns a summary.
// It never returns a raw error: every failure mode is encoded in the
// summary's status and error message.
func (o *Orchestrator) Ingest(ctx context.Context, item types.ContentItem) *types.IngestionSummary {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.ContentType == "" {
		item.ContentType = detect.Detect(item.SourcePath, string(item.Payload))
	}

	summary := &types.IngestionSummary{
		ContentID:   item.ID,
		ContentType: item.ContentType,
		Status:      types.IngestFailed,
	}

	// Chunking operates on in-memory payloads; pull file content in for
	// chunk-eligible types. Binary types stay path-based for the strategies.
	if len(item.Payload) == 0 && item.SourcePath != "" && detect.IsChunkEligible(item.ContentType) {
		data, err := readPayload(item.SourcePath)
		if err != nil {
			summary.Error = err.Error()
			return summary
		}
		item.Payload = data
	}

	// The parent record is stored regardless of what extraction does.
	if err := o.storeParent(ctx, item); err != nil {
		summary.Error = fmt.Sprintf("failed to store content record: %v", err)
		return summary
	}

	// Oversized PDFs chunk over their extracted text; byte windows over raw
	// PDF structure would split objects mid-stream. The parent record keeps
	// the original type.
	extractType := item.ContentType
	if item.ContentType == "application/pdf" && len(item.Payload) > o.opts.ChunkSize {
		text, err := media.PDFBytesToText(item.Payload)
		if err != nil {
			summary.Error = fmt.Sprintf("failed to extract PDF text: %v", err)
			return summary
		}
		item.Payload = []byte(text)
		extractType = "text/plain"
	}

	strategy := o.registry.ForType(extractType)
	if strategy == nil {
		summary.Error = fmt.Sprintf("unsupported content type %q", item.ContentType)
		return summary
	}

	if o.shouldChunk(extractType, item.Payload) {
		return o.ingestChunked(ctx, item, extractType, strategy, summary)
	}
	return o.ingestWhole(ctx, item, strategy, summary)
}

// shouldChunk applies the chunking gate: eligible type AND oversized payload.
func (o *Orchestrator) shouldChunk(contentType string, payload []byte) bool {
	return detect.IsChunkEligible(contentType) && len(payload) > o.opts.ChunkSize
}

// chunkStrategyFor overrides a size-strategy request to paragraph for code,
// which splits better along function and class boundaries than byte counts.
func (o *Orchestrator) chunkStrategyFor(contentType string) string {
	if detect.IsCode(contentType) && o.opts.ChunkStrategy == types.ChunkStrategySize {
		return types.ChunkStrategyParagraph
	}
	return o.opts.ChunkStrategy
}

// ingestWhole extracts the item as a single unit.
func (o *Orchestrator) ingestWhole(ctx context.Context, item types.ContentItem, strategy extract.Strategy, summary *types.IngestionSummary) *types.IngestionSummary {
	result := strategy.Extract(ctx, extract.Content{
		Payload:     item.Payload,
		SourcePath:  item.SourcePath,
		ContentType: item.ContentType,
	}, o.opts.Extraction)

	summary.ChunksTotal = 1
	if !result.Success {
		summary.ChunksFailed = 1
		summary.Error = result.Error
		return summary
	}

	summary.ChunksSucceeded = 1
	stored, err := o.storeEntities(ctx, item, result.Entities)
	if err != nil {
		summary.Error = err.Error()
		return summary
	}
	summary.EntitiesStored = stored
	summary.Status = types.IngestSucceeded
	return summary
}

// ingestChunked splits the payload and extracts each chunk as an isolated
// unit on a worker pool. One failing chunk never cancels its siblings; the
// item succeeds partially as long as at least one chunk succeeded.
func (o *Orchestrator) ingestChunked(ctx context.Context, item types.ContentItem, extractType string, strategy extract.Strategy, summary *types.IngestionSummary) *types.IngestionSummary {
	chunker, err := chunk.New(o.opts.ChunkSize, o.opts.ChunkOverlap, o.chunkStrategyFor(extractType))
	if err != nil {
		summary.Error = err.Error()
		return summary
	}
	chunks := chunker.Chunk(string(item.Payload))
	summary.ChunksTotal = len(chunks)

	results := o.extractChunks(ctx, extractType, strategy, chunks)

	// Entity lists join in chunk order so merge output is deterministic
	// regardless of completion order.
	var lists [][]types.Entity
	var firstErr string
	for i, result := range results {
		if result == nil || !result.Success {
			summary.ChunksFailed++
			errMsg := "no result"
			if result != nil {
				errMsg = result.Error
			}
			if firstErr == "" {
				firstErr = errMsg
			}
			log.Printf("ingest: chunk %d of %s failed, skipping: %s", i, item.ID, errMsg)
			continue
		}
		summary.ChunksSucceeded++
		lists = append(lists, result.Entities)
	}

	if summary.ChunksSucceeded == 0 {
		summary.Error = fmt.Sprintf("all %d chunks failed: %s", summary.ChunksTotal, firstErr)
		return summary
	}

	merged := extract.Merge(lists...)
	stored, err := o.storeEntities(ctx, item, merged)
	if err != nil {
		summary.Error = err.Error()
		return summary
	}
	summary.EntitiesStored = stored

	if summary.ChunksFailed > 0 {
		summary.Status = types.IngestPartial
		summary.Error = fmt.Sprintf("%d of %d chunks failed", summary.ChunksFailed, summary.ChunksTotal)
	} else {
		summary.Status = types.IngestSucceeded
	}
	return summary
}

// extractChunks runs extraction for every chunk on a bounded pool, results
// indexed by chunk sequence so output order matches input order.
func (o *Orchestrator) extractChunks(ctx context.Context, extractType string, strategy extract.Strategy, chunks []types.Chunk) []*types.ExtractionResult {
	results := make([]*types.ExtractionResult, len(chunks))

	pool, err := ants.NewPool(o.opts.ChunkWorkers)
	if err != nil {
		log.Printf("ingest: failed to create chunk worker pool, extracting serially: %v", err)
		for i, c := range chunks {
			results[i] = o.extractChunk(ctx, extractType, strategy, c)
		}
		return results
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, c := range chunks {
		i, c := i, c
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			results[i] = o.extractChunk(ctx, extractType, strategy, c)
		})
		if submitErr != nil {
			wg.Done()
			log.Printf("ingest: failed to submit chunk %d: %v", i, submitErr)
		}
	}
	wg.Wait()
	return results
}

func (o *Orchestrator) extractChunk(ctx context.Context, extractType string, strategy extract.Strategy, c types.Chunk) *types.ExtractionResult {
	return strategy.Extract(ctx, extract.Content{
		Payload:     []byte(c.Payload),
		ContentType: extractType,
	}, o.opts.Extraction)
}

// storeParent persists the lightweight parent record with a truncated
// payload copy.
func (o *Orchestrator) storeParent(ctx context.Context, item types.ContentItem) error {
	if o.store == nil {
		return nil
	}
	preview := item.Payload
	if len(preview) > previewBytes {
		preview = preview[:previewBytes]
	}
	return o.store.StoreContent(ctx, &storage.ContentRecord{
		ID:          item.ID,
		ContentType: item.ContentType,
		SourcePath:  item.SourcePath,
		Preview:     string(preview),
		SizeBytes:   len(item.Payload),
	})
}

// storeEntities hands the merged entity set to storage, one StoreEntity and
// one LinkEntityToContent call per entity. Runs only after merge completes.
func (o *Orchestrator) storeEntities(ctx context.Context, item types.ContentItem, entities []types.Entity) (int, error) {
	if o.store == nil {
		return len(entities), nil
	}
	stored := 0
	for _, entity := range entities {
		entityID, err := o.store.StoreEntity(ctx, entity.Name, entity.Type, entity.Description)
		if err != nil {
			return stored, fmt.Errorf("failed to store entity %q: %w", entity.Name, err)
		}
		relevance, mentionCtx := strongestMention(entity)
		if err := o.store.LinkEntityToContent(ctx, entityID, item.ID, item.ContentType, relevance, mentionCtx); err != nil {
			return stored, fmt.Errorf("failed to link entity %q: %w", entity.Name, err)
		}
		stored++
	}
	return stored, nil
}

// strongestMention returns the relevance and context of the entity's highest
// relevance mention.
func strongestMention(entity types.Entity) (float64, string) {
	best := -1.0
	ctx := ""
	for _, m := range entity.Mentions {
		if m.Relevance > best {
			best = m.Relevance
			ctx = m.Context
		}
	}
	if best < 0 {
		return 0, ""
	}
	return best, ctx
}

// readPayload reads the file at path for chunk-eligible content.
func readPayload(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
