// Package mock provides a test double for the ai.Backend interface.
// Behavior is injected via function fields; unset fields use a neutral
// default so tests only script what they assert on.
package mock

import (
	"context"
	"sync"

	"github.com/kbvault/ingestor/internal/ai"
	"github.com/kbvault/ingestor/pkg/types"
)

// Backend is a scriptable ai.Backend for tests.
type Backend struct {
	// AnalyzeFunc is called by Analyze if set. If nil, Analyze returns no
	// entities and no error.
	AnalyzeFunc func(ctx context.Context, req ai.AnalyzeRequest) ([]types.Entity, error)

	// TranscribeFunc is called by Transcribe if set. If nil, Transcribe
	// returns an empty transcript.
	TranscribeFunc func(ctx context.Context, audioB64, mediaType string) (string, error)

	mu       sync.Mutex
	requests []ai.AnalyzeRequest
}

// Analyze records the request and delegates to AnalyzeFunc.
func (b *Backend) Analyze(ctx context.Context, req ai.AnalyzeRequest) ([]types.Entity, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()

	if b.AnalyzeFunc != nil {
		return b.AnalyzeFunc(ctx, req)
	}
	return []types.Entity{}, nil
}

// Transcribe delegates to TranscribeFunc.
func (b *Backend) Transcribe(ctx context.Context, audioB64, mediaType string) (string, error) {
	if b.TranscribeFunc != nil {
		return b.TranscribeFunc(ctx, audioB64, mediaType)
	}
	return "", nil
}

// Model returns a fixed test model name.
func (b *Backend) Model() string {
	return "mock-model"
}

// Requests returns a copy of the recorded Analyze requests.
func (b *Backend) Requests() []ai.AnalyzeRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]ai.AnalyzeRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

// CallCount returns how many Analyze calls were recorded.
func (b *Backend) CallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

// Compile-time assertion.
var _ ai.Backend = (*Backend)(nil)
