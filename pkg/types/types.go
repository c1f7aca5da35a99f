// Package types defines the core data structures for the ingestor content
// pipeline. These types represent content items, chunks, extracted entities,
// and extraction results shared between the detection, chunking, extraction,
// and storage layers.
package types

// Entity type constants. Name + type together form the dedup key used by the
// entity merger, so extractors must stick to this fixed vocabulary.
const (
	EntityTypePerson       = "person"
	EntityTypeOrganization = "organization"
	EntityTypeLocation     = "location"
	EntityTypeDate         = "date"
	EntityTypeProduct      = "product"
	EntityTypeTechnology   = "technology"
	EntityTypeEvent        = "event"
	EntityTypeOther        = "other"
)

// ValidEntityTypes is a slice of all valid entity types for validation.
var ValidEntityTypes = []string{
	EntityTypePerson,
	EntityTypeOrganization,
	EntityTypeLocation,
	EntityTypeDate,
	EntityTypeProduct,
	EntityTypeTechnology,
	EntityTypeEvent,
	EntityTypeOther,
}

// IsValidEntityType checks if the given entity type is valid.
func IsValidEntityType(entityType string) bool {
	for _, t := range ValidEntityTypes {
		if t == entityType {
			return true
		}
	}
	return false
}

// Chunking strategy constants.
const (
	ChunkStrategySize      = "size"      // fixed byte windows
	ChunkStrategyParagraph = "paragraph" // blank-line boundaries
	ChunkStrategySentence  = "sentence"  // sentence-terminal punctuation
)

// IsValidChunkStrategy checks if the given chunking strategy is valid.
func IsValidChunkStrategy(strategy string) bool {
	switch strategy {
	case ChunkStrategySize, ChunkStrategyParagraph, ChunkStrategySentence:
		return true
	}
	return false
}

// Video frame sampling strategy constants.
const (
	SamplingUniform  = "uniform"
	SamplingKeyframe = "keyframes"
	SamplingScene    = "scene"
	SamplingAdaptive = "adaptive"
)

// Ingestion outcome constants reported in IngestionSummary.
const (
	IngestSucceeded = "succeeded" // all chunks extracted
	IngestPartial   = "partial"   // at least one chunk succeeded
	IngestFailed    = "failed"    // nothing succeeded
)
