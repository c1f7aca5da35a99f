package types

// ExtractionStats carries timing and count metadata for one extraction pass.
type ExtractionStats struct {
	ProcessingTimeMs int64 `json:"processing_time_ms"`
	EntityCount      int   `json:"entity_count"`
}

// ExtractionResult is returned by every extraction strategy call. Strategies
// never propagate panics or raw errors to the orchestrator; failures are
// encoded as Success=false with a descriptive Error so that the orchestrator
// can continue processing remaining chunks and frames.
type ExtractionResult struct {
	Entities []Entity        `json:"entities"`
	Success  bool            `json:"success"`
	Error    string          `json:"error,omitempty"`
	Stats    ExtractionStats `json:"stats"`
}

// FailedResult builds a failed extraction result with the given error message.
func FailedResult(errMsg string) *ExtractionResult {
	return &ExtractionResult{Entities: []Entity{}, Success: false, Error: errMsg}
}

// IngestionSummary is the structured outcome of ingesting one content item.
// Callers always receive a summary distinguishing fully succeeded, partially
// succeeded (N/M chunks), and failed, never a raw error.
type IngestionSummary struct {
	ContentID       string `json:"content_id"`
	ContentType     string `json:"content_type"`
	Status          string `json:"status"` // IngestSucceeded, IngestPartial, or IngestFailed
	ChunksTotal     int    `json:"chunks_total"`
	ChunksSucceeded int    `json:"chunks_succeeded"`
	ChunksFailed    int    `json:"chunks_failed"`
	EntitiesStored  int    `json:"entities_stored"`
	Error           string `json:"error,omitempty"`
}
