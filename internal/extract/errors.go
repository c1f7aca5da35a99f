// Package extract implements the per-modality entity extraction strategies
// (text, code, PDF, image, video), the rule-based fallback batteries, and the
// entity merger. Every strategy tries the AI backend first and falls back to
// deterministic pattern matching on failure or empty result; strategies never
// return raw errors to the orchestrator, only ExtractionResult values.
package extract

import "errors"

// Extraction failure taxonomy. BackendCallFailure is always recovered
// locally by the rule-based fallback where one exists; the others surface as
// Success=false results.
var (
	// ErrEmptyContent is returned when the payload is empty after resolution.
	ErrEmptyContent = errors.New("empty content")

	// ErrUnsupportedContentType is returned when a strategy is handed a
	// content type it cannot process.
	ErrUnsupportedContentType = errors.New("unsupported content type")

	// ErrBackendUnavailable is returned when a modality requires the AI
	// backend and none is configured (image and video extraction have no
	// rule-based fallback).
	ErrBackendUnavailable = errors.New("Claude service is required for this content type")

	// ErrToolInvocationFailure is returned when an external media or PDF
	// tool exits nonzero or its binary is missing.
	ErrToolInvocationFailure = errors.New("media tool invocation failed")

	// ErrBackendCallFailure wraps AI backend exceptions and timeouts. It is
	// logged and recovered, never surfaced as an overall result error.
	ErrBackendCallFailure = errors.New("AI backend call failed")
)
