package extract

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/kbvault/ingestor/internal/ai"
	"github.com/kbvault/ingestor/pkg/types"
)

// TextExtractor extracts entities from plain text and structured text
// formats (JSON, XML, YAML, markdown). AI-primary with a deterministic
// rule-based fallback.
type TextExtractor struct {
	Backend ai.Backend
}

// Extract resolves the content, tries the AI backend, and falls back to the
// pattern battery on failure or empty result.
func (x *TextExtractor) Extract(ctx context.Context, content Content, opts Options) *types.ExtractionResult {
	start := time.Now()

	text, err := resolveText(content)
	if err != nil {
		return fail(err, start)
	}
	if strings.TrimSpace(text) == "" {
		return fail(ErrEmptyContent, start)
	}

	entities := analyzeWithBackend(ctx, x.Backend, ai.AnalyzeRequest{
		Kind:        ai.PromptText,
		Content:     text,
		EntityTypes: opts.EntityTypes,
	})
	if len(entities) == 0 {
		entities = extractWithRules(text)
	}

	return finish(entities, opts, start)
}

// analyzeWithBackend invokes the AI backend when one is configured. A
// backend exception or empty result returns nil so the caller falls through
// to rule-based extraction; the failure is logged, never propagated.
func analyzeWithBackend(ctx context.Context, backend ai.Backend, req ai.AnalyzeRequest) []types.Entity {
	if backend == nil {
		return nil
	}
	entities, err := backend.Analyze(ctx, req)
	if err != nil {
		log.Printf("extract: %v (%s): %v, falling back to rules", ErrBackendCallFailure, req.Kind, err)
		return nil
	}
	return entities
}

// Compile-time assertion.
var _ Strategy = (*TextExtractor)(nil)
