package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kbvault/ingestor/internal/ai"
	"github.com/kbvault/ingestor/internal/media"
	"github.com/kbvault/ingestor/pkg/types"
)

// PDFExtractor extracts entities from PDF documents. The text is obtained
// through the media collaborator; if text extraction fails the result is a
// descriptive failure, never a silent empty success. The rule-based fallback
// still runs over whatever text did get extracted when the AI call fails.
type PDFExtractor struct {
	Backend ai.Backend
	Tools   media.Tools
}

// Extract obtains PDF text, then follows the uniform AI-first protocol.
func (x *PDFExtractor) Extract(ctx context.Context, content Content, opts Options) *types.ExtractionResult {
	start := time.Now()

	text, err := x.pdfText(content)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrToolInvocationFailure, err), start)
	}
	if strings.TrimSpace(text) == "" {
		return fail(ErrEmptyContent, start)
	}

	entities := analyzeWithBackend(ctx, x.Backend, ai.AnalyzeRequest{
		Kind:        ai.PromptPDF,
		Content:     text,
		EntityTypes: opts.EntityTypes,
	})
	if len(entities) == 0 {
		entities = extractWithRules(text)
	}

	return finish(entities, opts, start)
}

// pdfText resolves PDF content to plain text: file paths go through the
// media collaborator, inline bytes through the in-process reader.
func (x *PDFExtractor) pdfText(content Content) (string, error) {
	if len(content.Payload) > 0 {
		return media.PDFBytesToText(content.Payload)
	}
	if content.SourcePath == "" {
		return "", nil
	}
	if x.Tools == nil {
		return "", fmt.Errorf("no PDF text extraction tool configured")
	}
	return x.Tools.PDFToText(content.SourcePath)
}

// Compile-time assertion.
var _ Strategy = (*PDFExtractor)(nil)
