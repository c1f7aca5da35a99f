package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kbvault/ingestor/internal/ai"
	"github.com/kbvault/ingestor/pkg/types"
)

// supportedImageTypes are the image MIME types the backend accepts.
var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// imageExtensionTypes maps image file extensions to MIME types for the
// backend's media blocks.
var imageExtensionTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ImageExtractor extracts entities from images via the AI backend. There is
// no rule-based fallback for images: a missing backend, unsupported content
// type, or unsupported extension is an immediate failure, never a silent
// empty-entity success.
type ImageExtractor struct {
	Backend ai.Backend
}

// Extract resolves the image to base64 and sends it to the backend with the
// image prompt.
func (x *ImageExtractor) Extract(ctx context.Context, content Content, opts Options) *types.ExtractionResult {
	return x.extract(ctx, content, opts, ai.PromptImage)
}

// ExtractFrame runs the same analysis with the video-frame prompt variant.
// Used by the video sub-pipeline for sampled frames.
func (x *ImageExtractor) ExtractFrame(ctx context.Context, content Content, opts Options) *types.ExtractionResult {
	return x.extract(ctx, content, opts, ai.PromptVideo)
}

func (x *ImageExtractor) extract(ctx context.Context, content Content, opts Options, kind ai.PromptKind) *types.ExtractionResult {
	start := time.Now()

	if x.Backend == nil {
		return fail(fmt.Errorf("%w: image analysis has no rule-based fallback", ErrBackendUnavailable), start)
	}

	mediaType, err := x.resolveMediaType(content)
	if err != nil {
		return fail(err, start)
	}

	data, resolvedType, err := resolveBinary(content)
	if err != nil {
		return fail(err, start)
	}
	if len(data) == 0 {
		return fail(ErrEmptyContent, start)
	}
	// A data URI's declared type wins over the extension guess, and must
	// itself be a type the backend accepts.
	if strings.HasPrefix(resolvedType, "image/") {
		if !supportedImageTypes[resolvedType] {
			return fail(fmt.Errorf("%w: %s", ErrUnsupportedContentType, resolvedType), start)
		}
		mediaType = resolvedType
	}

	entities, err := x.Backend.Analyze(ctx, ai.AnalyzeRequest{
		Kind:        kind,
		Content:     base64.StdEncoding.EncodeToString(data),
		MediaType:   mediaType,
		EntityTypes: opts.EntityTypes,
	})
	if err != nil {
		// No fallback exists for images; the backend failure is the result.
		return fail(fmt.Errorf("%w: %v", ErrBackendCallFailure, err), start)
	}

	return finish(entities, opts, start)
}

// resolveMediaType validates the image type from the content type or file
// extension before any bytes are read.
func (x *ImageExtractor) resolveMediaType(content Content) (string, error) {
	if content.ContentType != "" && strings.HasPrefix(content.ContentType, "image/") {
		if !supportedImageTypes[content.ContentType] {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedContentType, content.ContentType)
		}
		return content.ContentType, nil
	}
	if content.SourcePath != "" {
		ext := strings.ToLower(filepath.Ext(content.SourcePath))
		mediaType, ok := imageExtensionTypes[ext]
		if !ok {
			return "", fmt.Errorf("%w: unsupported image extension %q", ErrUnsupportedContentType, ext)
		}
		return mediaType, nil
	}
	// Inline data URIs carry their own media type; default otherwise.
	return "image/jpeg", nil
}

// Compile-time assertion.
var _ Strategy = (*ImageExtractor)(nil)
