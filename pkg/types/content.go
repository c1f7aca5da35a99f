package types

// ContentItem is one unit of ingested content with a detected type.
// It is created at ingestion request time and read-only thereafter.
type ContentItem struct {
	ID          string `json:"id"`                    // Unique identifier (UUID)
	Payload     []byte `json:"-"`                     // Raw content bytes
	ContentType string `json:"content_type"`          // Detected MIME type
	SourcePath  string `json:"source_path,omitempty"` // Original file path, empty for inline content
}

// Chunk is a sized slice of a ContentItem's payload, produced when the
// payload exceeds the configured chunk size. Chunks overlap by a configured
// number of bytes to preserve entity context spanning a boundary. They are
// ephemeral: consumed exactly once by extraction and never persisted.
type Chunk struct {
	SequenceIndex int    `json:"sequence_index"` // Contiguous from 0, never re-ordered
	Payload       string `json:"payload"`
	ByteOffset    int    `json:"byte_offset"` // Offset of Payload within the parent content
}
