package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kbvault/ingestor/internal/ai"
	"github.com/kbvault/ingestor/internal/detect"
	"github.com/kbvault/ingestor/internal/media"
	"github.com/kbvault/ingestor/pkg/types"
)

// Content is the input to one extraction call: either inline payload bytes
// or a source path to read from, plus the detected content type.
type Content struct {
	Payload     []byte
	SourcePath  string
	ContentType string
}

// Strategy is the per-modality extraction contract. Extract never returns a
// Go error: failures are encoded in the result so the orchestrator can keep
// processing sibling chunks and frames.
type Strategy interface {
	Extract(ctx context.Context, content Content, opts Options) *types.ExtractionResult
}

// Registry dispatches content types to strategies. Dispatch happens here by
// content type rather than via inheritance in the strategies themselves.
type Registry struct {
	text  *TextExtractor
	code  *CodeExtractor
	pdf   *PDFExtractor
	image *ImageExtractor
	video *VideoExtractor
}

// NewRegistry builds the strategy set around shared collaborators. backend
// may be nil (rule-based-only operation for text, code, and PDF); tools may
// be nil only if PDF and video extraction are never requested.
func NewRegistry(backend ai.Backend, tools media.Tools) *Registry {
	image := &ImageExtractor{Backend: backend}
	return &Registry{
		text:  &TextExtractor{Backend: backend},
		code:  &CodeExtractor{Backend: backend},
		pdf:   &PDFExtractor{Backend: backend, Tools: tools},
		image: image,
		video: &VideoExtractor{Backend: backend, Tools: tools, Frames: image},
	}
}

// ForType returns the strategy for the given content type, or nil when no
// modality handles it.
func (r *Registry) ForType(contentType string) Strategy {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return r.image
	case strings.HasPrefix(contentType, "video/"):
		return r.video
	case contentType == "application/pdf":
		return r.pdf
	case detect.IsCode(contentType):
		return r.code
	case strings.HasPrefix(contentType, "text/"),
		contentType == "application/json",
		contentType == "application/xml",
		contentType == "application/yaml":
		return r.text
	}
	return nil
}

// resolveText resolves content to analyzable text: inline payload if
// present, otherwise the file at SourcePath.
func resolveText(content Content) (string, error) {
	if len(content.Payload) > 0 {
		return string(content.Payload), nil
	}
	if content.SourcePath == "" {
		return "", nil
	}
	data, err := os.ReadFile(content.SourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", content.SourcePath, err)
	}
	return string(data), nil
}

// resolveBinary resolves content to raw bytes, decoding base64 data URIs
// (data:image/png;base64,...) when the inline payload is one.
func resolveBinary(content Content) ([]byte, string, error) {
	if len(content.Payload) > 0 {
		if data, mediaType, ok := decodeDataURI(string(content.Payload)); ok {
			return data, mediaType, nil
		}
		return content.Payload, content.ContentType, nil
	}
	if content.SourcePath == "" {
		return nil, "", nil
	}
	data, err := os.ReadFile(content.SourcePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", content.SourcePath, err)
	}
	return data, content.ContentType, nil
}

// decodeDataURI decodes a data: URI, returning the payload and media type.
func decodeDataURI(s string) ([]byte, string, bool) {
	if !strings.HasPrefix(s, "data:") {
		return nil, "", false
	}
	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		return nil, "", false
	}
	meta := s[len("data:"):comma]
	if !strings.HasSuffix(meta, ";base64") {
		return nil, "", false
	}
	mediaType := strings.TrimSuffix(meta, ";base64")
	data, err := base64.StdEncoding.DecodeString(s[comma+1:])
	if err != nil {
		return nil, "", false
	}
	return data, mediaType, true
}

// finish stamps stats onto a successful result after filtering.
func finish(entities []types.Entity, opts Options, start time.Time) *types.ExtractionResult {
	filtered := filterEntities(entities, opts)
	return &types.ExtractionResult{
		Entities: filtered,
		Success:  true,
		Stats: types.ExtractionStats{
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			EntityCount:      len(filtered),
		},
	}
}

// fail stamps stats onto a failed result.
func fail(err error, start time.Time) *types.ExtractionResult {
	res := types.FailedResult(err.Error())
	res.Stats.ProcessingTimeMs = time.Since(start).Milliseconds()
	return res
}
