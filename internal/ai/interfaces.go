// Package ai provides the AI backend collaborator used by the extraction
// strategies. It includes an Anthropic Messages API client with circuit
// breaking and rate limiting, strict JSON-only prompt templates per content
// modality, and a response parser that converts LLM output into entities.
package ai

import (
	"context"

	"github.com/kbvault/ingestor/pkg/types"
)

// PromptKind selects a modality-specific prompt template.
type PromptKind string

const (
	PromptText       PromptKind = "text"
	PromptCode       PromptKind = "code"
	PromptPDF        PromptKind = "pdf"
	PromptImage      PromptKind = "image"
	PromptVideo      PromptKind = "video"
	PromptTranscribe PromptKind = "transcribe"
)

// AnalyzeRequest carries one analysis call to the backend.
type AnalyzeRequest struct {
	Kind    PromptKind
	Content string // text content, or base64 payload for media requests

	// MediaType is set for media requests (e.g. image/jpeg) so the backend
	// can build the right content block.
	MediaType string

	// EntityTypes restricts extraction to the given types. When set, the
	// custom prompt variant is used instead of the default template.
	EntityTypes []string

	// Language is the resolved programming language for code requests.
	Language string
}

// Backend is the AI collaborator interface shared by all extraction
// strategies. Implementations must be safe for concurrent use and must not
// expose mutable global configuration; strategies never change backend state
// mid-extraction.
type Backend interface {
	// Analyze sends content to the backend with a modality-appropriate
	// prompt and returns the extracted entities. An empty slice with a nil
	// error is a legitimate "no entities" outcome; callers treat it the
	// same as a failure for fallback purposes.
	Analyze(ctx context.Context, req AnalyzeRequest) ([]types.Entity, error)

	// Transcribe generates a transcript for base64-encoded audio.
	Transcribe(ctx context.Context, audioB64, mediaType string) (string, error)

	// Model returns the configured model name.
	Model() string
}
